package phoneinput

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Mode is the surface the user is currently interacting with.
type Mode int

const (
	// ModeNumericEntry is the default: the user types digits.
	ModeNumericEntry Mode = iota
	// ModeCountrySelection shows the country picker.
	ModeCountrySelection
	// ModeSearchOverlay is the country search layered over the picker.
	ModeSearchOverlay
)

func (m Mode) String() string {
	switch m {
	case ModeNumericEntry:
		return "numeric_entry"
	case ModeCountrySelection:
		return "country_selection"
	case ModeSearchOverlay:
		return "search_overlay"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Transition is a UI action that may move the control between modes.
type Transition int

const (
	// OpenPicker: NumericEntry → CountrySelection.
	OpenPicker Transition = iota
	// Dismiss ("done"): CountrySelection → NumericEntry.
	Dismiss
	// OpenSearch: CountrySelection → SearchOverlay, only with a non-empty country list.
	OpenSearch
	// CancelSearch: SearchOverlay → CountrySelection without choosing.
	CancelSearch
	// PickCountry selects a picker row; the mode stays CountrySelection.
	PickCountry
	// ConfirmSearch selects a search result: SearchOverlay → NumericEntry.
	ConfirmSearch
)

var transitionNames = map[Transition]string{
	OpenPicker:    "open_picker",
	Dismiss:       "dismiss",
	OpenSearch:    "open_search",
	CancelSearch:  "cancel_search",
	PickCountry:   "pick_country",
	ConfirmSearch: "confirm_search",
}

func (t Transition) String() string {
	if s, ok := transitionNames[t]; ok {
		return s
	}
	return "transition(" + strconv.Itoa(int(t)) + ")"
}

type edge struct {
	from Mode
	t    Transition
}

var modeTable = map[edge]Mode{
	{ModeNumericEntry, OpenPicker}:      ModeCountrySelection,
	{ModeCountrySelection, Dismiss}:     ModeNumericEntry,
	{ModeCountrySelection, OpenSearch}:  ModeSearchOverlay,
	{ModeCountrySelection, PickCountry}: ModeCountrySelection,
	{ModeSearchOverlay, CancelSearch}:   ModeCountrySelection,
	{ModeSearchOverlay, ConfirmSearch}:  ModeNumericEntry,
}

// RegionSelector commits a region choice. *Engine satisfies it.
type RegionSelector interface {
	SelectRegion(region string) error
}

// Modes is the input-mode state machine. It decides which surface is
// active; number interpretation stays with the Engine in every mode.
type Modes struct {
	mode     Mode
	selector RegionSelector
	dir      Directory
	onChange func(Mode)
	logger   *slog.Logger
}

// NewModes starts in ModeNumericEntry. onChange may be nil.
func NewModes(selector RegionSelector, dir Directory, onChange func(Mode), logger *slog.Logger) *Modes {
	if dir == nil {
		dir = libDirectory{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Modes{selector: selector, dir: dir, onChange: onChange, logger: logger}
}

// Mode returns the active mode.
func (m *Modes) Mode() Mode { return m.mode }

// Request applies t. region is required by PickCountry and ConfirmSearch and
// ignored otherwise. Transitions that do not apply to the current mode, and
// OpenSearch with no selectable countries, are no-ops reporting false.
// An error means the region could not be committed; the mode is unchanged.
func (m *Modes) Request(t Transition, region string) (bool, error) {
	next, ok := modeTable[edge{m.mode, t}]
	if !ok {
		m.logger.Debug("mode transition ignored", "mode", m.mode, "transition", t)
		return false, nil
	}
	if t == OpenSearch && len(m.dir.Regions()) == 0 {
		m.logger.Debug("search skipped: empty country list")
		return false, nil
	}
	if t == PickCountry || t == ConfirmSearch {
		if m.selector == nil {
			return false, fmt.Errorf("%s: no region selector", t)
		}
		if err := m.selector.SelectRegion(region); err != nil {
			return false, err
		}
	}
	if next != m.mode {
		m.mode = next
		if m.onChange != nil {
			m.onChange(next)
		}
	}
	return true, nil
}
