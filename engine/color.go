package engine

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a Glide colour: rgb, rrggbb, or the alpha-prefixed forms
// argb and aarrggbb where the alpha digits are a decimal opacity percentage
// ("5fff" is white at 50%, "33ff0000" red at 33%). A leading # is allowed.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	alpha := 100
	digits := 0
	switch len(s) {
	case 3, 6:
	case 4:
		digits = 1
	case 8:
		digits = 2
	default:
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	if digits > 0 {
		a, err := strconv.Atoi(s[:digits])
		if err != nil || a < 0 {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in colour %q", s)
		}
		if digits == 1 {
			a *= 10
		}
		alpha = a
		s = s[digits:]
	}

	c, err := colorful.Hex("#" + strings.ToLower(s))
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha * 255 / 100)}, nil
}
