package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phonefield/phonefield/internal/phoneinput"
)

var formatCmd = &cobra.Command{
	Use:   "format [input...]",
	Short: "Format and validate phone numbers",
	Long: `Run each input through a fresh phone field and print the result.

Inputs starting with '+' are complete international numbers: their own
region is detected. Other inputs are typed under --region (or the
configured default). Without arguments, inputs are read from stdin, one
per line.

Examples:
  phonefield format --region FR 0612345678
  phonefield format "+1 415 555 2671" --json
  phonefield format --output csv < numbers.txt`,
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().Bool("no-example", false, "Omit the example-number placeholder")
}

// formatResult is one formatted input.
type formatResult struct {
	Input string `json:"input"`
	phoneinput.Snapshot
	Error string `json:"error,omitempty"`
}

func runFormat(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	noExample, _ := cmd.Flags().GetBool("no-example")

	inputs := args
	if len(inputs) == 0 {
		inputs, err = readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	results := make([]formatResult, 0, len(inputs))
	for _, in := range inputs {
		results = append(results, formatOne(env, in, env.cfg.Input.ShowExample && !noExample))
	}
	return printFormatResults(cmd.OutOrStdout(), outputFormat(cmd), results)
}

// formatOne reconciles a single input in its own engine.
func formatOne(env *environment, input string, showExample bool) formatResult {
	res := formatResult{Input: input}
	e, err := phoneinput.New(phoneinput.Options{
		Region:      env.region,
		ShowExample: showExample,
		Directory:   env.dir,
		Logger:      env.logger,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if strings.HasPrefix(strings.TrimSpace(input), "+") {
		if err := e.SetNumber(input); err != nil {
			res.Error = err.Error()
		}
	} else {
		e.TextChanged(input)
	}
	res.Snapshot = e.Snapshot()
	return res
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

func printFormatResults(w io.Writer, format string, results []formatResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		cols := []string{"input", "region", "display", "valid", "e164", "international", "national", "error"}
		rows := make([][]string, len(results))
		for i, r := range results {
			rows[i] = []string{r.Input, r.Region, r.Display, strconv.FormatBool(r.Valid),
				r.E164, r.International, r.National, r.Error}
		}
		return writeCSV(w, cols, rows)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "INPUT\tREGION\tDISPLAY\tVALID\tE164")
		for _, r := range results {
			valid := "no"
			if r.Valid {
				valid = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Input, r.Region, r.Display, valid, r.E164)
		}
		return tw.Flush()
	}
}
