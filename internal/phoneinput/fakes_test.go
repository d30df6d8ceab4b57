package phoneinput

import (
	"fmt"
	"strconv"
	"strings"
)

type fakeRegion struct {
	dial    string
	nsnLen  int
	example string
}

// fakeGrammar accepts "+<dial><national>" strings for a fixed set of
// regions; a national number is valid when it has exactly nsnLen digits.
type fakeGrammar struct {
	regions map[string]fakeRegion
}

func newFakeGrammar() *fakeGrammar {
	return &fakeGrammar{regions: map[string]fakeRegion{
		"FR": {dial: "33", nsnLen: 9, example: "123456789"},
		"US": {dial: "1", nsnLen: 10, example: "2015550123"},
		"AQ": {dial: "672", nsnLen: 6},
	}}
}

func (g *fakeGrammar) regionForDial(dial string) string {
	for code, r := range g.regions {
		if r.dial == dial {
			return code
		}
	}
	return ""
}

func (g *fakeGrammar) Parse(number, defaultRegion string) (Number, error) {
	if !strings.HasPrefix(number, "+") {
		return Number{}, fmt.Errorf("%w: missing +", ErrParse)
	}
	digits := number[1:]
	for i := 1; i <= 3 && i <= len(digits); i++ {
		if g.regionForDial(digits[:i]) == "" {
			continue
		}
		rest := digits[i:]
		if len(rest) < 2 {
			return Number{}, fmt.Errorf("%w: too short", ErrParse)
		}
		nn, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Number{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		cc, _ := strconv.Atoi(digits[:i])
		return Number{CountryCode: cc, NationalNumber: nn}, nil
	}
	return Number{}, fmt.Errorf("%w: unknown country code", ErrParse)
}

func (g *fakeGrammar) IsValid(n Number) bool {
	r, ok := g.regions[g.RegionForNumber(n)]
	return ok && len(n.National()) == r.nsnLen
}

func (g *fakeGrammar) Format(n Number, f Format) string {
	cc := strconv.Itoa(n.CountryCode)
	switch f {
	case FormatInternational:
		return "+" + cc + " " + n.National()
	case FormatNational:
		return n.National()
	case FormatRFC3966:
		return "tel:+" + cc + "-" + n.National()
	default:
		return n.Canonical()
	}
}

func (g *fakeGrammar) RegionForNumber(n Number) string {
	return g.regionForDial(strconv.Itoa(n.CountryCode))
}

func (g *fakeGrammar) ExampleNumber(region string) (Number, error) {
	r, ok := g.regions[region]
	if !ok || r.example == "" {
		return Number{}, fmt.Errorf("%w: %s", ErrNoExample, region)
	}
	return g.Parse("+"+r.dial+r.example, region)
}

func (g *fakeGrammar) DialCode(region string) (string, bool) {
	r, ok := g.regions[region]
	return r.dial, ok
}

func (g *fakeGrammar) Regions() []string {
	out := make([]string, 0, len(g.regions))
	for code := range g.regions {
		out = append(out, code)
	}
	return out
}

// pairFormatter writes "+<dial> " followed by the national digits in pairs.
type pairFormatter struct {
	region string
	dial   string
}

func (p *pairFormatter) Feed(s string) string {
	rest, ok := strings.CutPrefix(s, "+"+p.dial)
	if !ok {
		return s
	}
	var groups []string
	for len(rest) > 2 {
		groups = append(groups, rest[:2])
		rest = rest[2:]
	}
	if rest != "" {
		groups = append(groups, rest)
	}
	return strings.TrimSpace("+" + p.dial + " " + strings.Join(groups, " "))
}

// formatterLog records every formatter the engine builds.
type formatterLog struct {
	grammar *fakeGrammar
	built   []*pairFormatter
}

func (l *formatterLog) factory(region string) Formatter {
	dial, _ := l.grammar.DialCode(region)
	f := &pairFormatter{region: region, dial: dial}
	l.built = append(l.built, f)
	return f
}

// recorder captures outbound callbacks in order.
type recorder struct {
	display      []string
	validity     []bool
	placeholders []string
	hasExample   []bool
	regions      []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		DisplayTextChanged: func(text string) { r.display = append(r.display, text) },
		ValidityChanged:    func(valid bool) { r.validity = append(r.validity, valid) },
		PlaceholderChanged: func(text string, ok bool) {
			r.placeholders = append(r.placeholders, text)
			r.hasExample = append(r.hasExample, ok)
		},
		RegionChanged: func(region, dialCode string) { r.regions = append(r.regions, region+"/"+dialCode) },
	}
}

func (r *recorder) lastValid() bool {
	return r.validity[len(r.validity)-1]
}

func (r *recorder) lastDisplay() string {
	return r.display[len(r.display)-1]
}
