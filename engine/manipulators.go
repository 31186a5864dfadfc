package engine

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Manipulator is one step of the render pipeline.
type Manipulator interface {
	Run(img image.Image, m *Manipulation) image.Image
}

// ManipulatorFunc adapts a function to Manipulator.
type ManipulatorFunc func(img image.Image, m *Manipulation) image.Image

func (f ManipulatorFunc) Run(img image.Image, m *Manipulation) image.Image {
	return f(img, m)
}

// Pipeline runs manipulators in order.
type Pipeline struct {
	steps []Manipulator
}

// NewPipeline builds a pipeline. maxImageSize caps the output pixel count (0 means no cap).
func NewPipeline(maxImageSize int) *Pipeline {
	return &Pipeline{steps: []Manipulator{
		ManipulatorFunc(orientate),
		ManipulatorFunc(cropRect),
		sizer{maxImageSize: maxImageSize},
		ManipulatorFunc(brightness),
		ManipulatorFunc(contrast),
		ManipulatorFunc(gamma),
		ManipulatorFunc(sharpen),
		ManipulatorFunc(filter),
		ManipulatorFunc(flip),
		ManipulatorFunc(blur),
		ManipulatorFunc(pixelate),
		ManipulatorFunc(background),
	}}
}

func (p *Pipeline) Run(img image.Image, m *Manipulation) image.Image {
	for _, step := range p.steps {
		img = step.Run(img, m)
	}
	return img
}

// orientate applies an explicit rotation. "auto" is handled at decode time from EXIF.
func orientate(img image.Image, m *Manipulation) image.Image {
	switch m.Orientation {
	case "90":
		return imaging.Rotate90(img)
	case "180":
		return imaging.Rotate180(img)
	case "270":
		return imaging.Rotate270(img)
	default:
		return img
	}
}

func cropRect(img image.Image, m *Manipulation) image.Image {
	w, h, x, y, ok := m.CropRect()
	if !ok {
		return img
	}
	b := img.Bounds()
	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+w, b.Min.Y+y+h).Intersect(b)
	if rect.Empty() {
		return img
	}
	return imaging.Crop(img, rect)
}

type sizer struct {
	maxImageSize int
}

func (s sizer) Run(img image.Image, m *Manipulation) image.Image {
	b := img.Bounds()
	w, h := m.TargetSize(b.Dx(), b.Dy(), s.maxImageSize)
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	switch {
	case m.Fit == "stretch":
		return imaging.Resize(img, w, h, imaging.Lanczos)
	case m.Fit == "max":
		return resize.Thumbnail(uint(w), uint(h), img, resize.Lanczos3)
	case m.Fit == "fill":
		return canvas(contain(img, w, h), w, h)
	case m.Fit == "fill-max":
		return canvas(resize.Thumbnail(uint(w), uint(h), img, resize.Lanczos3), w, h)
	case m.IsCropFit():
		return cropFit(img, w, h, m)
	default:
		return contain(img, w, h)
	}
}

// contain scales img to fit inside w x h keeping its aspect ratio, upscaling if needed.
func contain(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	scale := math.Min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	nw := max(1, int(math.Round(float64(b.Dx())*scale)))
	nh := max(1, int(math.Round(float64(b.Dy())*scale)))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// canvas centres img on a transparent w x h canvas.
func canvas(img image.Image, w, h int) image.Image {
	return imaging.PasteCenter(imaging.New(w, h, color.Transparent), img)
}

// cropFit covers w x h, zooms, then cuts around the focal point.
func cropFit(img image.Image, w, h int, m *Manipulation) image.Image {
	fx, fy, zoom := m.FocalPoint()
	b := img.Bounds()
	scale := math.Max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy())) * zoom
	rw := max(w, int(math.Ceil(float64(b.Dx())*scale)))
	rh := max(h, int(math.Ceil(float64(b.Dy())*scale)))
	resized := imaging.Resize(img, rw, rh, imaging.Lanczos)

	x := clamp(int(math.Round(float64(rw)*fx/100-float64(w)/2)), 0, rw-w)
	y := clamp(int(math.Round(float64(rh)*fy/100-float64(h)/2)), 0, rh-h)
	return imaging.Crop(resized, image.Rect(x, y, x+w, y+h))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func brightness(img image.Image, m *Manipulation) image.Image {
	if m.Brightness == 0 {
		return img
	}
	return imaging.AdjustBrightness(img, float64(m.Brightness))
}

func contrast(img image.Image, m *Manipulation) image.Image {
	if m.Contrast == 0 {
		return img
	}
	return imaging.AdjustContrast(img, float64(m.Contrast))
}

func gamma(img image.Image, m *Manipulation) image.Image {
	if m.Gamma == 0 || m.Gamma == 1 {
		return img
	}
	return imaging.AdjustGamma(img, m.Gamma)
}

// sharpen maps 0-100 onto a Gaussian sigma of 0-5.
func sharpen(img image.Image, m *Manipulation) image.Image {
	if m.Sharpen == 0 {
		return img
	}
	return imaging.Sharpen(img, float64(m.Sharpen)/20)
}

func filter(img image.Image, m *Manipulation) image.Image {
	switch m.Filter {
	case "greyscale":
		return effect.Grayscale(img)
	case "sepia":
		return effect.Sepia(img)
	default:
		return img
	}
}

func flip(img image.Image, m *Manipulation) image.Image {
	switch m.Flip {
	case "h":
		return imaging.FlipH(img)
	case "v":
		return imaging.FlipV(img)
	case "both":
		return imaging.FlipV(imaging.FlipH(img))
	default:
		return img
	}
}

// blur maps 0-100 onto a Gaussian sigma of 0-25.
func blur(img image.Image, m *Manipulation) image.Image {
	if m.Blur == 0 {
		return img
	}
	return imaging.Blur(img, float64(m.Blur)/4)
}

// pixelate scales down by the block size and back up with nearest-neighbour sampling.
func pixelate(img image.Image, m *Manipulation) image.Image {
	if m.Pixelate <= 1 {
		return img
	}
	b := img.Bounds()
	small := imaging.Resize(img, max(1, b.Dx()/m.Pixelate), max(1, b.Dy()/m.Pixelate), imaging.Box)
	return imaging.Resize(small, b.Dx(), b.Dy(), imaging.NearestNeighbor)
}

// background composes img over a solid colour.
func background(img image.Image, m *Manipulation) image.Image {
	if m.Background == "" {
		return img
	}
	c, err := ParseColor(m.Background)
	if err != nil {
		return img
	}
	return flatten(img, c)
}

func flatten(img image.Image, c color.Color) image.Image {
	b := img.Bounds()
	return imaging.Overlay(imaging.New(b.Dx(), b.Dy(), c), img, image.Pt(0, 0), 1.0)
}
