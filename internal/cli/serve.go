package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phonefield/phonefield/internal/cli/ui"
	"github.com/phonefield/phonefield/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the phonefield HTTP API",
	Long: `Start the HTTP JSON API. Every request runs in its own phone field.

Endpoints:
  GET  /health
  POST /api/reconcile            {"region": "FR", "text": "0612345678"}
  POST /api/numbers              {"number": "+33612345678"}
  GET  /api/countries?q=QUERY
  GET  /api/countries/{region}
  GET  /api/regions/{region}/example

Examples:
  phonefield serve
  phonefield serve --port 9000 --host 0.0.0.0`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "Server port (overrides server.port)")
	serveCmd.Flags().String("host", "", "Server host (overrides server.host)")
}

func runServe(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()
	steps := ui.NewStepSpinner(stderr, !colorEnabled())

	var env *environment
	err := steps.Step("Loading configuration and country directory...", func() error {
		var err error
		env, err = loadEnvironment(cmd)
		return err
	})
	if err != nil {
		return err
	}

	srv := server.New(env.cfg, env.logger, env.dir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	steps.Start(fmt.Sprintf("Listening on %s...", env.cfg.Address()))
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.StartWithReady(ready) }()

	select {
	case <-ready:
		steps.Done()
	case err := <-errCh:
		steps.Fail()
		return err
	}

	fmt.Fprintf(stderr, "\n%s %s %s\n", ui.BrandEmoji, bold("phonefield", colorEnabled()),
		cyan("http://"+env.cfg.Address(), colorEnabled()))
	fmt.Fprintf(stderr, "  %s %s (%d countries)\n\n", dim("default region", colorEnabled()),
		env.cfg.StartRegion(""), len(env.dir.Regions()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
