// Package countries is the country directory behind the phone input
// picker: dial codes from libphonenumber metadata, display names in the
// configured language, flags, collated ordering and search.
package countries

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Country is one selectable picker row.
type Country struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	DialCode string `json:"dial_code"`
	Flag     string `json:"flag"`
}

// Directory lists the countries offered by the picker, ordered by display
// name. It is read-only after construction and safe for concurrent use.
type Directory struct {
	lang      language.Tag
	countries []Country
	byCode    map[string]Country
}

// New builds a directory with names in lang (a BCP 47 tag such as "en" or
// "fr-CA"). A non-empty regions list restricts the directory to those codes.
func New(lang string, regions []string) (*Directory, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parsing language %q: %w", lang, err)
	}

	supported := phonenumbers.GetSupportedRegions()
	codes := make([]string, 0, len(supported))
	if len(regions) == 0 {
		for code := range supported {
			codes = append(codes, code)
		}
	} else {
		for _, code := range regions {
			code = strings.ToUpper(strings.TrimSpace(code))
			if !supported[code] {
				return nil, fmt.Errorf("unsupported region %q", code)
			}
			if !slices.Contains(codes, code) {
				codes = append(codes, code)
			}
		}
	}

	namer := display.Regions(tag)
	d := &Directory{
		lang:      tag,
		countries: make([]Country, 0, len(codes)),
		byCode:    make(map[string]Country, len(codes)),
	}
	for _, code := range codes {
		c := Country{
			Code:     code,
			Name:     regionName(namer, code),
			DialCode: strconv.Itoa(phonenumbers.GetCountryCodeForRegion(code)),
			Flag:     Flag(code),
		}
		d.countries = append(d.countries, c)
		d.byCode[code] = c
	}

	coll := collate.New(tag, collate.Loose)
	slices.SortStableFunc(d.countries, func(a, b Country) int {
		if c := coll.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})
	return d, nil
}

func regionName(namer display.Namer, code string) string {
	r, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := namer.Name(r); name != "" {
		return name
	}
	return code
}

// Language returns the tag display names are rendered in.
func (d *Directory) Language() language.Tag { return d.lang }

// DialCode returns the calling code of region without the leading '+'.
func (d *Directory) DialCode(region string) (string, bool) {
	c, ok := d.byCode[strings.ToUpper(region)]
	return c.DialCode, ok
}

// Regions returns the region codes in display order.
func (d *Directory) Regions() []string {
	out := make([]string, len(d.countries))
	for i, c := range d.countries {
		out[i] = c.Code
	}
	return out
}

// Countries returns a copy of every country in display order.
func (d *Directory) Countries() []Country {
	return slices.Clone(d.countries)
}

// Lookup finds a country by region code.
func (d *Directory) Lookup(region string) (Country, bool) {
	c, ok := d.byCode[strings.ToUpper(strings.TrimSpace(region))]
	return c, ok
}

// Flag returns the emoji flag for a two-letter region code, or "" when
// code is not two ASCII letters.
func Flag(code string) string {
	if len(code) != 2 {
		return ""
	}
	code = strings.ToUpper(code)
	var b strings.Builder
	for i := 0; i < 2; i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(rune(0x1F1E6 + int(c-'A')))
	}
	return b.String()
}

// LocaleRegion derives the device region from the POSIX locale variables
// (LC_ALL, LC_MESSAGES, LANG). It returns "" when no supported region can
// be inferred.
func LocaleRegion() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if r := localeRegion(os.Getenv(key)); r != "" {
			return r
		}
	}
	return ""
}

func localeRegion(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	code := region.String()
	if phonenumbers.GetCountryCodeForRegion(code) == 0 {
		return ""
	}
	return code
}
