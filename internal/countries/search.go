package countries

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Search returns the countries whose name contains query, ignoring case and
// accents, plus exact region-code and dial-code prefix matches. A leading
// '+' on a numeric query is ignored. An empty query returns everything.
func (d *Directory) Search(query string) []Country {
	q := strings.TrimSpace(query)
	if q == "" {
		return d.Countries()
	}
	folded := fold(q)
	digits := strings.TrimPrefix(q, "+")
	numeric := digits != "" && strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) < 0

	var out []Country
	for _, c := range d.countries {
		switch {
		case numeric && strings.HasPrefix(c.DialCode, digits):
		case strings.EqualFold(c.Code, q):
		case strings.Contains(fold(c.Name), folded):
		default:
			continue
		}
		out = append(out, c)
	}
	return out
}

// fold lower-cases s and strips combining marks so "Réunion" matches "reunion".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
