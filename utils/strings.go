package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns an identifier such as "square_thumb" or "hero-banner" into
// a title-cased label ("Square Thumb", "Hero Banner").
func DisplayName(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
