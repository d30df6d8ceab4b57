package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phonefield/phonefield/internal/config"
	"github.com/phonefield/phonefield/internal/countries"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion is called from main to inject build-time version info.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

var rootCmd = &cobra.Command{
	Use:   "phonefield",
	Short: "phonefield: phone number input, formatted as you type",
	Long: `phonefield keeps a phone number field consistent while it is edited:
the selected country, the digits typed so far and their formatted
rendering, validity and an example-number placeholder.

Try it interactively:
  phonefield session --region FR

Format numbers from the command line or stdin:
  phonefield format --region US 4155552671
  phonefield format < numbers.txt

Serve the HTTP API:
  phonefield serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format (shorthand for --output json)")
	rootCmd.PersistentFlags().String("output", "table", "Output format: table, json, or csv")
	rootCmd.PersistentFlags().String("config", "", "Path to phonefield.toml config file")
	rootCmd.PersistentFlags().String("region", "", "Region to start with, e.g. FR (overrides input.default_region)")
	rootCmd.PersistentFlags().String("language", "", "Language for country names (overrides directory.language)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(countriesCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// outputFormat returns the resolved output format from flags.
// --json is a shorthand for --output json.
func outputFormat(cmd *cobra.Command) string {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag {
		return "json"
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return "table"
	}
	return out
}

// writeCSV writes rows as CSV to the given writer.
// cols is the list of column headers; rows is a slice of string slices.
func writeCSV(w io.Writer, cols []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// loadConfig resolves the configuration for cmd: defaults, the config file,
// PHONEFIELD_* environment variables and the global flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	flags := map[string]string{}
	for _, name := range []string{"region", "language", "log-level", "port", "host"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = f.Value.String()
		}
	}
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// environment is what most commands need: config, logger, directory and
// the region a fresh input starts with.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	dir    *countries.Directory
	region string
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	dir, err := countries.New(cfg.Directory.Language, cfg.Directory.Regions)
	if err != nil {
		return nil, fmt.Errorf("building country directory: %w", err)
	}
	return &environment{
		cfg:    cfg,
		logger: logger,
		dir:    dir,
		region: cfg.StartRegion(countries.LocaleRegion()),
	}, nil
}
