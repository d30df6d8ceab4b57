package phoneinput

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

// Formatter punctuates a digit string the way a region writes numbers while
// they are being typed. A Formatter is bound to one region for its lifetime.
type Formatter interface {
	// Feed renders the complete canonical string built so far. Every call
	// starts from scratch; no state from an earlier call leaks into the result.
	Feed(s string) string
}

// FormatterFactory builds a fresh Formatter bound to region.
type FormatterFactory func(region string) Formatter

// templateDigits is the longest number a formatting template is cut from.
const templateDigits = "999999999999999"

// minLeadingDigits is how many national digits are needed before any
// grouping is applied.
const minLeadingDigits = 3

// NewAsYouTypeFormatter returns a Formatter driven by the region's
// libphonenumber formatting rules. A complete valid number is rendered in
// the international format; a partial one is poured into the template of
// the first rule whose leading digits match. It satisfies FormatterFactory.
func NewAsYouTypeFormatter(region string) Formatter {
	region = strings.ToUpper(strings.TrimSpace(region))
	f := &metadataFormatter{region: region, meta: regionMetadata(region)}
	if f.meta != nil {
		f.dialCode = strconv.Itoa(int(f.meta.GetCountryCode()))
	}
	return f
}

type metadataFormatter struct {
	region   string
	dialCode string
	meta     *phonenumbers.PhoneMetadata
}

func (f *metadataFormatter) Feed(s string) string {
	s = Sanitize(s)
	if s == "" || f.meta == nil {
		return s
	}
	if !strings.HasPrefix(s, "+") {
		return groupNational(s, f.meta.GetNumberFormat())
	}

	prefix := "+" + f.dialCode
	if !strings.HasPrefix(s, prefix) {
		return s
	}
	national := s[len(prefix):]
	if national == "" {
		return prefix
	}
	if pn, err := phonenumbers.Parse(s, f.region); err == nil && phonenumbers.IsValidNumber(pn) {
		return phonenumbers.Format(pn, phonenumbers.INTERNATIONAL)
	}

	formats := f.meta.GetIntlNumberFormat()
	if len(formats) == 0 {
		formats = f.meta.GetNumberFormat()
	}
	return prefix + " " + groupNational(national, formats)
}

// groupNational punctuates a partial national number with the first format
// whose leading digits match and whose template is long enough. Without one
// the digits are returned as typed.
func groupNational(national string, formats []*phonenumbers.NumberFormat) string {
	n := utf8.RuneCountInString(national)
	if n < minLeadingDigits {
		return national
	}
	for _, nf := range formats {
		if !leadingDigitsMatch(nf, national, n) {
			continue
		}
		tmpl := formatTemplate(nf)
		if tmpl == "" || strings.Count(tmpl, "9") < n {
			continue
		}
		return fillTemplate(tmpl, national)
	}
	return national
}

// leadingDigitsMatch narrows formats the way libphonenumber's as-you-type
// formatter does: the i-th leading-digits pattern applies once i+3 national
// digits are known, the last one to anything longer.
func leadingDigitsMatch(nf *phonenumbers.NumberFormat, national string, n int) bool {
	patterns := nf.GetLeadingDigitsPattern()
	if len(patterns) == 0 {
		return true
	}
	i := min(n-minLeadingDigits, len(patterns)-1)
	re, err := compiled(`^(?:` + patterns[i] + `)`)
	return err == nil && re.MatchString(national)
}

var (
	templates sync.Map // *phonenumbers.NumberFormat → string
	regexps   sync.Map // pattern → *regexp.Regexp
)

func formatTemplate(nf *phonenumbers.NumberFormat) string {
	if t, ok := templates.Load(nf); ok {
		return t.(string)
	}
	t := buildTemplate(nf.GetPattern(), nf.GetFormat())
	templates.Store(nf, t)
	return t
}

var groupRef = regexp.MustCompile(`\$(\d)`)

// buildTemplate renders the longest run of 9s the pattern accepts through
// format, e.g. `(\d{3})(\d{3})(\d{4})` with "$1-$2-$3" gives "999-999-9999".
// Alternations and "NA" formats yield "".
func buildTemplate(pattern, format string) string {
	if format == "" || format == "NA" || strings.Contains(pattern, "|") {
		return ""
	}
	re, err := compiled(digitClasses(pattern))
	if err != nil {
		return ""
	}
	m := re.FindString(templateDigits)
	if m == "" {
		return ""
	}
	return re.ReplaceAllString(m, groupRef.ReplaceAllString(format, "$${$1}"))
}

// digitClasses rewrites a number pattern so every digit position accepts
// any digit: bracket expressions and literal digits become \d, while the
// bounds inside {m,n} quantifiers are kept.
func digitClasses(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteString(pattern[i : i+2])
			i++
		case c == '[' || c == '{':
			closer := byte(']')
			if c == '{' {
				closer = '}'
			}
			end := strings.IndexByte(pattern[i:], closer)
			if end < 0 {
				b.WriteString(pattern[i:])
				return b.String()
			}
			if c == '[' {
				b.WriteString(`\d`)
			} else {
				b.WriteString(pattern[i : i+end+1])
			}
			i += end
		case c >= '0' && c <= '9':
			b.WriteString(`\d`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// fillTemplate writes digits into the template's 9 slots and stops after the
// last digit, so no trailing separator is shown.
func fillTemplate(tmpl, digits string) string {
	rest := []rune(digits)
	var b strings.Builder
	for i := 0; i < len(tmpl) && len(rest) > 0; i++ {
		if tmpl[i] == '9' {
			b.WriteRune(rest[0])
			rest = rest[1:]
			continue
		}
		b.WriteByte(tmpl[i])
	}
	return b.String()
}

func compiled(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexps.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexps.Store(pattern, re)
	return re, nil
}

var (
	metadataOnce     sync.Once
	metadataByRegion map[string]*phonenumbers.PhoneMetadata
)

// regionMetadata returns the formatting metadata libphonenumber loaded at
// init, or nil for an unknown region.
func regionMetadata(region string) *phonenumbers.PhoneMetadata {
	metadataOnce.Do(func() {
		metadataByRegion = make(map[string]*phonenumbers.PhoneMetadata)
		coll, err := phonenumbers.MetadataCollection()
		if err != nil || coll == nil {
			return
		}
		for _, m := range coll.GetMetadata() {
			if id := m.GetId(); id != "001" {
				metadataByRegion[id] = m
			}
		}
	})
	return metadataByRegion[region]
}
