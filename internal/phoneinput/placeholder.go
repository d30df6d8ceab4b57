package phoneinput

import "strconv"

// PlaceholderFor renders the example number of region the way it would
// appear in the field. ok is false when the region has no example.
func (e *Engine) PlaceholderFor(region string) (text string, ok bool) {
	ex, err := e.grammar.ExampleNumber(region)
	if err != nil {
		e.logger.Debug("no placeholder", "region", region, "error", err)
		return "", false
	}
	out := e.formatters(region).Feed(ex.Canonical())
	return StripDialCode(out, strconv.Itoa(ex.CountryCode)), true
}

func (e *Engine) refreshPlaceholder() {
	text, ok := e.PlaceholderFor(e.region)
	e.setPlaceholder(text, ok)
}

func (e *Engine) setPlaceholder(text string, ok bool) {
	e.placeholder, e.hasExample = text, ok
	if e.cb.PlaceholderChanged != nil {
		e.cb.PlaceholderChanged(text, ok)
	}
}
