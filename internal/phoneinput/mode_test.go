package phoneinput

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonefield/phonefield/internal/testutil"
)

type stubSelector struct {
	selected []string
	err      error
}

func (s *stubSelector) SelectRegion(region string) error {
	if s.err != nil {
		return s.err
	}
	s.selected = append(s.selected, region)
	return nil
}

type stubDirectory []string

func (d stubDirectory) DialCode(string) (string, bool) { return "", false }
func (d stubDirectory) Regions() []string               { return d }

func newTestModes(sel RegionSelector, dir Directory) (*Modes, *[]Mode) {
	var seen []Mode
	m := NewModes(sel, dir, func(mode Mode) { seen = append(seen, mode) }, testutil.DiscardLogger())
	return m, &seen
}

func TestModesPickerRoundTrip(t *testing.T) {
	t.Parallel()
	sel := &stubSelector{}
	m, seen := newTestModes(sel, stubDirectory{"FR", "US"})
	assert.Equal(t, ModeNumericEntry, m.Mode())

	ok, err := m.Request(OpenPicker, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ModeCountrySelection, m.Mode())

	ok, err = m.Request(PickCountry, "FR")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ModeCountrySelection, m.Mode())
	assert.Equal(t, []string{"FR"}, sel.selected)

	ok, err = m.Request(Dismiss, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ModeNumericEntry, m.Mode())

	assert.Equal(t, []Mode{ModeCountrySelection, ModeNumericEntry}, *seen)
}

func TestModesSearchFlow(t *testing.T) {
	t.Parallel()
	sel := &stubSelector{}
	m, seen := newTestModes(sel, stubDirectory{"FR"})

	_, _ = m.Request(OpenPicker, "")
	ok, err := m.Request(OpenSearch, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ModeSearchOverlay, m.Mode())

	ok, err = m.Request(CancelSearch, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ModeCountrySelection, m.Mode())

	_, _ = m.Request(OpenSearch, "")
	ok, err = m.Request(ConfirmSearch, "FR")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ModeNumericEntry, m.Mode())
	assert.Equal(t, []string{"FR"}, sel.selected)
	assert.Equal(t, []Mode{
		ModeCountrySelection, ModeSearchOverlay, ModeCountrySelection, ModeSearchOverlay, ModeNumericEntry,
	}, *seen)
}

func TestModesSearchNeedsCountries(t *testing.T) {
	t.Parallel()
	m, seen := newTestModes(&stubSelector{}, stubDirectory{})

	_, _ = m.Request(OpenPicker, "")
	ok, err := m.Request(OpenSearch, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ModeCountrySelection, m.Mode())
	assert.Equal(t, []Mode{ModeCountrySelection}, *seen)
}

func TestModesIgnoresInapplicableTransitions(t *testing.T) {
	t.Parallel()
	sel := &stubSelector{}
	m, seen := newTestModes(sel, stubDirectory{"FR"})

	for _, tr := range []Transition{Dismiss, OpenSearch, CancelSearch, PickCountry, ConfirmSearch} {
		ok, err := m.Request(tr, "FR")
		require.NoError(t, err)
		assert.False(t, ok, tr.String())
	}
	assert.Equal(t, ModeNumericEntry, m.Mode())
	assert.Empty(t, sel.selected)
	assert.Empty(t, *seen)

	_, _ = m.Request(OpenPicker, "")
	ok, _ := m.Request(OpenPicker, "")
	assert.False(t, ok)
	ok, _ = m.Request(ConfirmSearch, "FR")
	assert.False(t, ok)
}

func TestModesSelectionErrorKeepsMode(t *testing.T) {
	t.Parallel()
	sel := &stubSelector{err: ErrUnknownRegion}
	m, _ := newTestModes(sel, stubDirectory{"FR"})

	_, _ = m.Request(OpenPicker, "")
	_, _ = m.Request(OpenSearch, "")
	ok, err := m.Request(ConfirmSearch, "ZZ")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrUnknownRegion))
	assert.Equal(t, ModeSearchOverlay, m.Mode())
}

func TestModesDriveEngine(t *testing.T) {
	t.Parallel()
	e, rec, _ := newFakeEngine(t, "FR")
	e.TextChanged("612345678")
	m := NewModes(e, newFakeGrammar(), nil, testutil.DiscardLogger())

	_, _ = m.Request(OpenPicker, "")
	_, err := m.Request(PickCountry, "US")
	require.NoError(t, err)
	assert.Equal(t, "US", e.Region())
	assert.False(t, rec.lastValid())

	_, _ = m.Request(OpenSearch, "")
	_, err = m.Request(ConfirmSearch, "FR")
	require.NoError(t, err)
	assert.Equal(t, ModeNumericEntry, m.Mode())
	assert.True(t, rec.lastValid())
}

func TestModeAndTransitionNames(t *testing.T) {
	t.Parallel()
	testutil.Equal(t, "numeric_entry", ModeNumericEntry.String())
	testutil.Equal(t, "search_overlay", ModeSearchOverlay.String())
	testutil.Equal(t, "mode(9)", Mode(9).String())
	testutil.Equal(t, "confirm_search", ConfirmSearch.String())
	testutil.Equal(t, "transition(42)", Transition(42).String())
}
