package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsAccessors(t *testing.T) {
	p := Params{
		"w":   100,
		"h":   "150",
		"dpr": 1.5,
		"q":   int64(80),
		"fit": "crop",
		"bad": "wide",
	}

	tests := []struct {
		key    string
		wantI  int
		wantOK bool
	}{
		{"w", 100, true},
		{"h", 150, true},
		{"dpr", 1, true},
		{"q", 80, true},
		{"bad", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := p.Int(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantI, got)
		})
	}

	fit, ok := p.String("fit")
	assert.True(t, ok)
	assert.Equal(t, "crop", fit)

	w, ok := p.String("w")
	assert.True(t, ok)
	assert.Equal(t, "100", w)

	dpr, ok := p.Float("dpr")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, dpr, 1e-9)

	h, ok := p.Float("h")
	assert.True(t, ok)
	assert.InDelta(t, 150, h, 1e-9)
}

func TestParamsMergeAndKeys(t *testing.T) {
	base := Params{"q": 90, "fm": "jpg"}
	merged := base.Merge(Params{"q": 60, "w": 10})

	assert.Equal(t, Params{"q": 60, "fm": "jpg", "w": 10}, merged)
	assert.Equal(t, Params{"q": 90, "fm": "jpg"}, base)
	assert.Equal(t, []string{"fm", "q", "w"}, merged.Keys())
}

func TestParamsCloneNil(t *testing.T) {
	var p Params
	c := p.Clone()
	assert.NotNil(t, c)
	assert.Empty(t, c)
}
