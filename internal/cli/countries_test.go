package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonefield/phonefield/internal/countries"
	"github.com/phonefield/phonefield/internal/testutil"
)

func TestCountriesTable(t *testing.T) {
	workdir(t)
	writeConfig(t, fourCountries)

	out, _, err := runCLI(t, "", "countries")
	require.NoError(t, err)

	be := strings.Index(out, "Belgium")
	fr := strings.Index(out, "France")
	it := strings.Index(out, "Italy")
	us := strings.Index(out, "United States")
	require.True(t, be >= 0 && fr >= 0 && it >= 0 && us >= 0, out)
	assert.True(t, be < fr && fr < it && it < us, "countries are sorted by name:\n%s", out)
	assert.Contains(t, out, "+33")
	assert.Contains(t, out, countries.Flag("FR"))
	assert.NotContains(t, out, "countries match", "no footer without a query")
}

func TestCountriesQuery(t *testing.T) {
	workdir(t)
	writeConfig(t, fourCountries)

	out, _, err := runCLI(t, "", "countries", "+3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 of 4 countries match \"+3\".")
	assert.NotContains(t, out, "United States")

	out, _, err = runCLI(t, "", "countries", "zzz")
	require.NoError(t, err)
	assert.Equal(t, "No countries match \"zzz\".\n", out)
}

func TestCountriesJSON(t *testing.T) {
	workdir(t)
	writeConfig(t, fourCountries)

	out, _, err := runCLI(t, "", "countries", "--json", "ital")
	require.NoError(t, err)
	list := testutil.DecodeJSON[[]countries.Country](t, []byte(out))
	require.Len(t, list, 1)
	assert.Equal(t, "IT", list[0].Code)
	assert.Equal(t, "39", list[0].DialCode)

	out, _, err = runCLI(t, "", "countries", "--json", "zzz")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestCountriesCSV(t *testing.T) {
	workdir(t)
	writeConfig(t, fourCountries)

	out, _, err := runCLI(t, "", "countries", "--output", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "code,dial_code,name", lines[0])
	assert.Equal(t, "BE,32,Belgium", lines[1])
}

func TestCountriesLanguage(t *testing.T) {
	workdir(t)
	writeConfig(t, fourCountries)

	out, _, err := runCLI(t, "", "countries", "--language", "fr")
	require.NoError(t, err)
	assert.Contains(t, out, "Belgique")
	assert.Contains(t, out, "Italie")
	assert.NotContains(t, out, "Belgium")
}

func TestCountriesTooManyArgs(t *testing.T) {
	workdir(t)

	_, _, err := runCLI(t, "", "countries", "fr", "be")
	assert.Error(t, err)
}

func TestExampleSingleRegion(t *testing.T) {
	workdir(t)

	out, _, err := runCLI(t, "", "example", "--region", "FR")
	require.NoError(t, err)
	assert.Equal(t, "1 23 45 67 89\n", out)

	out, _, err = runCLI(t, "", "example", "us")
	require.NoError(t, err)
	assert.Equal(t, "201-555-0123\n", out)
}

func TestExampleTable(t *testing.T) {
	workdir(t)

	out, _, err := runCLI(t, "", "example", "FR", "US")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"REGION", "DIAL", "EXAMPLE"}, strings.Fields(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "FR"))
	assert.Contains(t, lines[1], "+33")
	assert.Contains(t, lines[1], "1 23 45 67 89")
	assert.Contains(t, lines[2], "201-555-0123")
}

func TestExampleJSON(t *testing.T) {
	workdir(t)

	out, _, err := runCLI(t, "", "example", "--json", "BE")
	require.NoError(t, err)
	rows := testutil.DecodeJSON[[]exampleRow](t, []byte(out))
	require.Len(t, rows, 1)
	assert.Equal(t, "BE", rows[0].Region)
	assert.Equal(t, "32", rows[0].DialCode)
	assert.True(t, rows[0].Available)
	assert.NotEmpty(t, rows[0].Placeholder)
}

func TestExampleUnknownRegion(t *testing.T) {
	workdir(t)

	_, _, err := runCLI(t, "", "example", "zz")
	testutil.ErrorContains(t, err, `unknown region "ZZ"`)
}

func TestExampleOutsideDirectory(t *testing.T) {
	workdir(t)
	writeConfig(t, fourCountries)

	_, _, err := runCLI(t, "", "example", "DE")
	testutil.ErrorContains(t, err, `unknown region "DE"`)
}
