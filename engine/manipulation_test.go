package engine

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeforge/glideformat/preset"
)

func TestParseManipulationDefaults(t *testing.T) {
	m, err := ParseManipulation(nil)
	require.NoError(t, err)

	assert.Equal(t, "auto", m.Orientation)
	assert.Equal(t, "contain", m.Fit)
	assert.Equal(t, 1.0, m.DPR)
	assert.Equal(t, 90, m.Quality)
	assert.Empty(t, m.Format)
}

func TestParseManipulationLooseTypes(t *testing.T) {
	m, err := ParseManipulation(preset.Params{
		"w": "300", "h": 200.0, "dpr": "2", "or": 270, "fit": " CROP-Top ", "fm": "WEBP", "q": 0,
		"unknown": []any{1, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 300, m.Width)
	assert.Equal(t, 200, m.Height)
	assert.Equal(t, 2.0, m.DPR)
	assert.Equal(t, "270", m.Orientation)
	assert.Equal(t, "crop-top", m.Fit)
	assert.Equal(t, "webp", m.Format)
	assert.Equal(t, 0, m.Quality)
}

func TestFitValidation(t *testing.T) {
	valid := []string{"contain", "max", "fill", "fill-max", "stretch", "crop", "crop-center", "crop-bottom-left", "crop-0-100", "crop-25-75-1.5"}
	for _, fit := range valid {
		_, err := ParseManipulation(preset.Params{"fit": fit})
		assert.NoError(t, err, fit)
	}
	invalid := []string{"cover", "crop-middle", "crop-1000-1", "crop-a-b", "fill-min"}
	for _, fit := range invalid {
		_, err := ParseManipulation(preset.Params{"fit": fit})
		assert.Error(t, err, fit)
	}
}

func TestFocalPoint(t *testing.T) {
	tests := []struct {
		fit        string
		x, y, zoom float64
	}{
		{"crop", 50, 50, 1},
		{"crop-center", 50, 50, 1},
		{"crop-top-left", 0, 0, 1},
		{"crop-bottom", 50, 100, 1},
		{"crop-right", 100, 50, 1},
		{"crop-25-75", 25, 75, 1},
		{"crop-25-75-3", 25, 75, 3},
		{"crop-25-75-0.5", 25, 75, 1},
		{"crop-150-10", 50, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.fit, func(t *testing.T) {
			x, y, zoom := (&Manipulation{Fit: tt.fit}).FocalPoint()
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
			assert.Equal(t, tt.zoom, zoom)
		})
	}
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name      string
		m         Manipulation
		maxPixels int
		w, h      int
	}{
		{"source size", Manipulation{DPR: 1}, 0, 400, 300},
		{"width", Manipulation{Width: 200, DPR: 1}, 0, 200, 150},
		{"height", Manipulation{Height: 150, DPR: 1}, 0, 200, 150},
		{"both", Manipulation{Width: 10, Height: 10, DPR: 1}, 0, 10, 10},
		{"dpr", Manipulation{Width: 100, DPR: 3}, 0, 300, 225},
		{"capped", Manipulation{Width: 400, Height: 300, DPR: 1}, 1200, 40, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.m.TargetSize(400, 300, tt.maxPixels)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestCropRect(t *testing.T) {
	w, h, x, y, ok := (&Manipulation{Crop: "100,50,10,20"}).CropRect()
	require.True(t, ok)
	assert.Equal(t, []int{100, 50, 10, 20}, []int{w, h, x, y})

	_, _, _, _, ok = (&Manipulation{}).CropRect()
	assert.False(t, ok)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "fff", want: color.NRGBA{255, 255, 255, 255}},
		{in: "#ff0000", want: color.NRGBA{255, 0, 0, 255}},
		{in: "5fff", want: color.NRGBA{255, 255, 255, 127}},
		{in: "33FF0000", want: color.NRGBA{255, 0, 0, 84}},
		{in: "00000000", want: color.NRGBA{0, 0, 0, 0}},
		{in: "12", wantErr: true},
		{in: "ggg", wantErr: true},
		{in: "x123", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("pjpg"))
	assert.Equal(t, "image/webp", ContentType("webp"))
	assert.Equal(t, "application/octet-stream", ContentType("heic"))
}
