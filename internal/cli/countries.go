package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var countriesCmd = &cobra.Command{
	Use:   "countries [query]",
	Short: "List the countries offered by the picker",
	Long: `List the selectable countries in display order, with names in the
configured language. The optional query filters by name (ignoring case
and accents), region code or dial code prefix.

Examples:
  phonefield countries
  phonefield countries reunion
  phonefield countries +44 --json
  phonefield countries --language fr`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCountries,
}

func runCountries(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	list := env.dir.Search(query)

	out := cmd.OutOrStdout()
	switch outputFormat(cmd) {
	case "json":
		if list == nil {
			return json.NewEncoder(out).Encode([]any{})
		}
		return json.NewEncoder(out).Encode(list)
	case "csv":
		rows := make([][]string, len(list))
		for i, c := range list {
			rows[i] = []string{c.Code, c.DialCode, c.Name}
		}
		return writeCSV(out, []string{"code", "dial_code", "name"}, rows)
	}

	if len(list) == 0 {
		fmt.Fprintf(out, "No countries match %q.\n", query)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tCODE\tDIAL\tNAME")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t+%s\t%s\n", c.Flag, c.Code, c.DialCode, c.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if query != "" {
		fmt.Fprintf(out, "\n%d of %d countries match %q.\n", len(list), len(env.dir.Regions()), strings.TrimSpace(query))
	}
	return nil
}
