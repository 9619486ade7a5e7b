package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/config"
	"github.com/abuelmaaref/portfolio/internal/logging"
)

// app carries what PersistentPreRunE builds to the command that runs.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("command context carries no configuration")
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio site with a filterable project showcase",
	Long: `Serves the portfolio: the landing page, the HTMX-driven project
showcase with type, technology, search and sort controls, the contact form
and a token-guarded admin API. Run without a subcommand to serve.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
		if err != nil {
			return err
		}
		cmd.SetContext(withApp(cmd.Context(), &app{cfg: cfg, log: log}))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a, err := appFrom(cmd.Context()); err == nil {
			_ = a.log.Sync()
		}
	},
	RunE: runServe,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(serveCmd, projectsCmd)
}
