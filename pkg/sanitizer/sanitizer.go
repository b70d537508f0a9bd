package sanitizer

import (
	"strings"
	"unicode"
)

type strategy func(string) string

type pipeline []strategy

func (p pipeline) apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeIdentifier cleans a slot or user id: control characters are
// removed, whitespace is trimmed and inner runs collapse to one space.
func SanitizeIdentifier(input string) string {
	return pipeline{
		dropControl,
		TrimAndNormalize,
	}.apply(input)
}
