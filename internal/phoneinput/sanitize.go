package phoneinput

import (
	"strings"
	"unicode"
)

// Sanitize keeps decimal digits and a single leading '+' from input,
// preserving order. A '+' anywhere but the start of the result is dropped.
func Sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripDialCode removes the "+<dialCode>" prefix that an international
// rendering carries, together with the space that follows it. The match is
// anchored at the start of formatted: interior digits that happen to look
// like the dial code are never touched.
func StripDialCode(formatted, dialCode string) string {
	if dialCode == "" {
		return formatted
	}
	prefix := "+" + strings.TrimPrefix(dialCode, "+")
	if rest, ok := strings.CutPrefix(formatted, prefix+" "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(formatted, prefix); ok {
		return rest
	}
	return formatted
}
