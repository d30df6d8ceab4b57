package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/phonefield/phonefield/internal/cli"
	"github.com/phonefield/phonefield/internal/cli/ui"
)

// Set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError(err.Error(), suggestionsFor(err)...))
		os.Exit(1)
	}
}

func suggestionsFor(err error) []string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unknown region"), strings.Contains(msg, "not a supported region code"):
		return []string{"phonefield countries"}
	case strings.Contains(msg, "address already in use"):
		return []string{"phonefield serve --port 8096"}
	case strings.Contains(msg, "config validation"):
		return []string{"phonefield config", "phonefield init --force"}
	}
	return nil
}
