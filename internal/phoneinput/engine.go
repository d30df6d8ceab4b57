// Package phoneinput is the reconciliation core of a phone number input
// control. It keeps the selected region, the text the user is typing and
// its formatted rendering in step, and reports validity, the canonical
// number and an example-number placeholder back to the UI through Callbacks.
//
// An Engine is driven from a single event source and is not safe for
// concurrent use; callers that share one across goroutines must serialize
// every call behind one lock.
package phoneinput

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Directory is the country-directory collaborator: it knows the dial code
// of each region and which regions the picker offers.
type Directory interface {
	DialCode(region string) (string, bool)
	Regions() []string
}

// Callbacks receive the engine's outbound signals. Nil fields are skipped.
type Callbacks struct {
	DisplayTextChanged func(text string)
	ValidityChanged    func(valid bool)
	// PlaceholderChanged reports ok=false when no placeholder should be shown.
	PlaceholderChanged func(text string, ok bool)
	RegionChanged      func(region, dialCode string)
}

// Options configure an Engine. Grammar, Formatters and Directory default to
// the libphonenumber-backed implementations.
type Options struct {
	// Region is selected at construction. Empty leaves the engine without a
	// region; text edits are then ignored until SelectRegion is called.
	Region      string
	ShowExample bool
	Grammar     Grammar
	Formatters  FormatterFactory
	Directory   Directory
	Callbacks   Callbacks
	Logger      *slog.Logger
}

// Engine reconciles region, typed text and formatted display.
type Engine struct {
	grammar    Grammar
	formatters FormatterFactory
	dir        Directory
	cb         Callbacks
	logger     *slog.Logger

	region      string
	dialCode    string
	formatter   Formatter
	number      *Number
	text        string
	placeholder string
	hasExample  bool
	showExample bool
}

// New builds an Engine and, when opts.Region is set, selects it (firing
// the region, placeholder and reconciliation callbacks).
func New(opts Options) (*Engine, error) {
	e := &Engine{
		grammar:     opts.Grammar,
		formatters:  opts.Formatters,
		dir:         opts.Directory,
		cb:          opts.Callbacks,
		logger:      opts.Logger,
		showExample: opts.ShowExample,
	}
	if e.grammar == nil {
		e.grammar = LibPhoneNumber{}
	}
	if e.formatters == nil {
		e.formatters = NewAsYouTypeFormatter
	}
	if e.dir == nil {
		e.dir = libDirectory{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if opts.Region != "" {
		if err := e.SelectRegion(opts.Region); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// TextChanged handles an edit of the visible text. The visible text never
// contains the dial code; it is prepended before parsing.
func (e *Engine) TextChanged(text string) {
	e.text = text
	if e.region == "" {
		e.logger.Debug("text edit ignored", "error", ErrEmptyRegion)
		return
	}
	e.reconcile()
}

// SelectRegion makes region current: the dial code is looked up, a fresh
// formatter is built, the placeholder is regenerated and the current text
// is reinterpreted under the new region.
func (e *Engine) SelectRegion(region string) error {
	region = strings.ToUpper(strings.TrimSpace(region))
	dial, ok := e.dir.DialCode(region)
	if !ok || region == "" {
		e.logger.Warn("region selection rejected", "region", region, "error", ErrUnknownRegion)
		return fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}

	e.region = region
	e.dialCode = dial
	e.formatter = e.formatters(region)
	e.logger.Debug("region selected", "region", region, "dial_code", dial)
	if e.cb.RegionChanged != nil {
		e.cb.RegionChanged(region, dial)
	}

	if e.showExample {
		e.refreshPlaceholder()
	}
	e.reconcile()
	return nil
}

// SetShowExample toggles the example-number placeholder. Turning it off
// clears the placeholder; turning it on regenerates it for the current region.
func (e *Engine) SetShowExample(show bool) {
	e.showExample = show
	if !show {
		e.setPlaceholder("", false)
		return
	}
	if e.region != "" {
		e.refreshPlaceholder()
	}
}

// SetNumber replaces the contents with a complete number such as
// "+33612345678". The text becomes the national number and the number's own
// region is selected. Invalid input leaves the engine untouched.
func (e *Engine) SetNumber(number string) error {
	if e.region == "" {
		return ErrEmptyRegion
	}
	n, err := e.parseValid(Sanitize(number))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNumber, err)
	}
	region := e.grammar.RegionForNumber(n)
	if region == "" {
		region = e.region
	}
	if _, ok := e.dir.DialCode(region); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	e.text = n.National()
	return e.SelectRegion(region)
}

// FormattedNumber renders the current number; ok is false while the input is invalid.
func (e *Engine) FormattedNumber(f Format) (string, bool) {
	if e.number == nil {
		return "", false
	}
	return e.grammar.Format(*e.number, f), true
}

// RawNumber returns the national digits of the current number.
func (e *Engine) RawNumber() (string, bool) {
	if e.number == nil {
		return "", false
	}
	return e.number.National(), true
}

// Number returns the last valid parse; ok is false while the input is invalid.
func (e *Engine) Number() (Number, bool) {
	if e.number == nil {
		return Number{}, false
	}
	return *e.number, true
}

// Region returns the selected ISO 3166-1 alpha-2 region code.
func (e *Engine) Region() string { return e.region }

// DialCode returns the selected region's country calling code without "+".
func (e *Engine) DialCode() string { return e.dialCode }

// Text returns the display text last emitted to the field.
func (e *Engine) Text() string { return e.text }

// Valid reports whether the current text parses to a valid number.
func (e *Engine) Valid() bool { return e.number != nil }

// ShowExample reports whether the example placeholder is enabled.
func (e *Engine) ShowExample() bool { return e.showExample }

// Placeholder returns the current placeholder, if any.
func (e *Engine) Placeholder() (string, bool) {
	return e.placeholder, e.hasExample
}

func (e *Engine) reconcile() {
	candidate := Sanitize("+" + e.dialCode + " " + e.text)

	n, err := e.parseValid(candidate)
	var display string
	if err == nil {
		e.number = &n
		display = StripDialCode(e.formatter.Feed(n.Canonical()), e.dialCode)
	} else {
		e.number = nil
		// Keep punctuating while the number is still incomplete.
		display = StripDialCode(e.formatter.Feed(candidate), e.dialCode)
		e.logger.Debug("input not valid", "region", e.region, "dial_code", e.dialCode, "error", err)
	}

	e.text = display
	if e.cb.DisplayTextChanged != nil {
		e.cb.DisplayTextChanged(display)
	}
	if e.cb.ValidityChanged != nil {
		e.cb.ValidityChanged(e.number != nil)
	}
}

func (e *Engine) parseValid(candidate string) (Number, error) {
	n, err := e.grammar.Parse(candidate, e.region)
	if err != nil {
		return Number{}, err
	}
	if !e.grammar.IsValid(n) {
		return Number{}, ErrInvalidForRegion
	}
	return n, nil
}

// libDirectory answers dial codes straight from libphonenumber metadata.
type libDirectory struct{}

func (libDirectory) DialCode(region string) (string, bool) {
	cc := phonenumbers.GetCountryCodeForRegion(region)
	if cc == 0 {
		return "", false
	}
	return strconv.Itoa(cc), true
}

func (libDirectory) Regions() []string {
	regions := make([]string, 0, 256)
	for r := range phonenumbers.GetSupportedRegions() {
		regions = append(regions, r)
	}
	return regions
}
