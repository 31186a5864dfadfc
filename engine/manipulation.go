package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/leeforge/glideformat/json"
	"github.com/leeforge/glideformat/preset"
)

// Manipulation is the typed form of a parameter set. Field tags carry the
// Glide parameter names.
type Manipulation struct {
	Orientation string  `json:"or" default:"auto" validate:"oneof=auto 0 90 180 270"`
	Crop        string  `json:"crop" validate:"omitempty,glide_crop"`
	Width       int     `json:"w" validate:"gte=0"`
	Height      int     `json:"h" validate:"gte=0"`
	Fit         string  `json:"fit" default:"contain" validate:"glide_fit"`
	DPR         float64 `json:"dpr" default:"1" validate:"gte=1,lte=8"`
	Brightness  int     `json:"bri" validate:"gte=-100,lte=100"`
	Contrast    int     `json:"con" validate:"gte=-100,lte=100"`
	Gamma       float64 `json:"gam" validate:"omitempty,gte=0.1,lte=9.99"`
	Sharpen     int     `json:"sharp" validate:"gte=0,lte=100"`
	Blur        int     `json:"blur" validate:"gte=0,lte=100"`
	Pixelate    int     `json:"pixel" validate:"gte=0,lte=1000"`
	Filter      string  `json:"filt" validate:"omitempty,oneof=greyscale sepia"`
	Flip        string  `json:"flip" validate:"omitempty,oneof=v h both"`
	Background  string  `json:"bg" validate:"omitempty,glide_color"`
	Quality     int     `json:"q" default:"90" validate:"gte=0,lte=100"`
	Format      string  `json:"fm" validate:"omitempty,oneof=jpg pjpg png gif webp tiff bmp"`
}

// ParseManipulation decodes and validates params. Unknown keys are ignored.
func ParseManipulation(params preset.Params) (*Manipulation, error) {
	if params == nil {
		params = preset.Params{}
	}
	var m Manipulation
	if err := json.Convert(map[string]any(params), &m); err != nil {
		return nil, invalidParam("params", params, err.Error())
	}
	m.Fit = strings.ToLower(strings.TrimSpace(m.Fit))
	if m.Fit == "" {
		m.Fit = "contain"
	}
	if m.Orientation == "" {
		m.Orientation = "auto"
	}
	m.Format = strings.ToLower(strings.TrimSpace(m.Format))
	if err := validator.Struct(&m); err != nil {
		return nil, validationError(err)
	}
	return &m, nil
}

// CropRect returns the crop rectangle of the crop parameter.
func (m *Manipulation) CropRect() (width, height, x, y int, ok bool) {
	if m.Crop == "" {
		return 0, 0, 0, 0, false
	}
	parts := strings.Split(m.Crop, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], vals[3], true
}

// FocalPoint returns the crop focus in percent of the resized image and the
// zoom factor for crop fits. Named positions map onto the edges or centre.
func (m *Manipulation) FocalPoint() (x, y, zoom float64) {
	switch m.Fit {
	case "crop-top-left":
		return 0, 0, 1
	case "crop-top":
		return 50, 0, 1
	case "crop-top-right":
		return 100, 0, 1
	case "crop-left":
		return 0, 50, 1
	case "crop-right":
		return 100, 50, 1
	case "crop-bottom-left":
		return 0, 100, 1
	case "crop-bottom":
		return 50, 100, 1
	case "crop-bottom-right":
		return 100, 100, 1
	}

	parts := strings.Split(strings.TrimPrefix(m.Fit, "crop-"), "-")
	if !strings.HasPrefix(m.Fit, "crop-") || len(parts) < 2 {
		return 50, 50, 1
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil || x > 100 || y > 100 {
		return 50, 50, 1
	}
	zoom = 1
	if len(parts) == 3 {
		if z, err := strconv.ParseFloat(parts[2], 64); err == nil && z >= 1 {
			zoom = math.Min(z, 100)
		}
	}
	return x, y, zoom
}

// IsCropFit reports whether the fit crops to the exact target size.
func (m *Manipulation) IsCropFit() bool {
	return m.Fit == "crop" || strings.HasPrefix(m.Fit, "crop-")
}

// TargetSize resolves the output size for a source of srcW x srcH: missing
// dimensions follow the aspect ratio, dpr scales both, and maxPixels (when
// positive) scales the result down to fit the pixel budget.
func (m *Manipulation) TargetSize(srcW, srcH, maxPixels int) (int, int) {
	w, h := float64(m.Width), float64(m.Height)
	ratio := float64(srcW) / float64(srcH)

	switch {
	case w == 0 && h == 0:
		w, h = float64(srcW), float64(srcH)
	case w == 0:
		w = h * ratio
	case h == 0:
		h = w / ratio
	}

	w *= m.DPR
	h *= m.DPR

	if maxPixels > 0 && w*h > float64(maxPixels) {
		scale := math.Sqrt(w * h / float64(maxPixels))
		w /= scale
		h /= scale
	}

	return max(1, int(math.Round(w))), max(1, int(math.Round(h)))
}
