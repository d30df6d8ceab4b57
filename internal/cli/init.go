package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phonefield/phonefield/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default phonefield.toml",
	Long: `Write a default configuration file with every option documented.

Examples:
  phonefield init
  phonefield init config/phonefield.toml --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) == 1 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.GenerateDefault(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  phonefield config set input.default_region FR\n")
	fmt.Fprintf(out, "  phonefield session\n")
	return nil
}
