package engine

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // register the webp decoder with image.Decode
)

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"pjpg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
}

// ContentType returns the MIME type produced for an fm value.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// decode reads an image, applying EXIF orientation when autoOrient is set.
func decode(data []byte, autoOrient bool) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
}

// sourceFormat picks the output format when fm is absent: the source's own
// format when it is a common web format, jpg otherwise.
func sourceFormat(data []byte) string {
	switch mimetype.Detect(data).String() {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

// encode writes img in format. jpg has no alpha channel, so transparent areas are flattened onto white.
func encode(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "gif":
		return imaging.Encode(w, img, imaging.GIF)
	case "tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	case "bmp":
		return imaging.Encode(w, img, imaging.BMP)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	default: // jpg, pjpg
		return imaging.Encode(w, flatten(img, color.White), imaging.JPEG, imaging.JPEGQuality(quality))
	}
}
