package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phonefield/phonefield/internal/phoneinput"
)

var exampleCmd = &cobra.Command{
	Use:   "example [region...]",
	Short: "Print the example number shown as placeholder",
	Long: `Print the formatted example number a phone field shows as placeholder,
without the dial code. Defaults to the start region.

Examples:
  phonefield example
  phonefield example FR US JP`,
	RunE: runExample,
}

type exampleRow struct {
	Region      string `json:"region"`
	DialCode    string `json:"dial_code"`
	Placeholder string `json:"placeholder,omitempty"`
	Available   bool   `json:"available"`
}

func runExample(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	regions := args
	if len(regions) == 0 {
		regions = []string{env.region}
	}

	e, err := phoneinput.New(phoneinput.Options{Directory: env.dir, Logger: env.logger})
	if err != nil {
		return err
	}
	rows := make([]exampleRow, 0, len(regions))
	for _, r := range regions {
		c, ok := env.dir.Lookup(r)
		if !ok {
			return fmt.Errorf("unknown region %q", strings.ToUpper(r))
		}
		text, ok := e.PlaceholderFor(c.Code)
		rows = append(rows, exampleRow{Region: c.Code, DialCode: c.DialCode, Placeholder: text, Available: ok})
	}

	out := cmd.OutOrStdout()
	switch outputFormat(cmd) {
	case "json":
		return json.NewEncoder(out).Encode(rows)
	case "csv":
		csvRows := make([][]string, len(rows))
		for i, r := range rows {
			csvRows[i] = []string{r.Region, r.DialCode, r.Placeholder}
		}
		return writeCSV(out, []string{"region", "dial_code", "placeholder"}, csvRows)
	}

	if len(rows) == 1 {
		if !rows[0].Available {
			return fmt.Errorf("no example number for region %s", rows[0].Region)
		}
		fmt.Fprintln(out, rows[0].Placeholder)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tDIAL\tEXAMPLE")
	for _, r := range rows {
		p := r.Placeholder
		if !r.Available {
			p = "-"
		}
		fmt.Fprintf(tw, "%s\t+%s\t%s\n", r.Region, r.DialCode, p)
	}
	return tw.Flush()
}
