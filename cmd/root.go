// Package cmd defines the catalog-ingest CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/config"
	"github.com/JakeFAU/catalog-ingest/internal/logging"
	"github.com/JakeFAU/catalog-ingest/internal/server"
	"github.com/JakeFAU/catalog-ingest/internal/telemetry"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp builds the App for a command. Tests replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*server.App, error) {
	return server.New(ctx, cfg, logger)
}

// overrides collects flags that replace config values.
type overrides struct {
	configFile string
	dsn        string
	exportPath string
	brandsSeed string
	aliases    string
	workers    int
}

func (o overrides) apply(cfg *config.Config) {
	if o.dsn != "" {
		cfg.DB.Driver = config.DriverPostgres
		cfg.DB.DSN = o.dsn
	}
	if o.exportPath != "" {
		cfg.Export.Path = o.exportPath
	}
	if o.brandsSeed != "" {
		cfg.Ingest.BrandsSeed = o.brandsSeed
	}
	if o.aliases != "" {
		cfg.Ingest.BrandAliases = o.aliases
	}
	if o.workers > 0 {
		cfg.Ingest.Workers = o.workers
	}
}

// session holds what PersistentPreRunE opened for one command.
type session struct {
	app *server.App
	tp  *sdktrace.TracerProvider
}

// close releases the app and flushes tracing. Safe to call more than once.
func (s *session) close() {
	if s.app != nil {
		s.app.Close()
		_ = s.app.Logger().Sync()
		s.app = nil
	}
	if s.tp != nil {
		_ = s.tp.Shutdown(context.Background())
		s.tp = nil
	}
}

// newRootCmd creates the root command and its subcommands. The returned
// func must run after Execute; cobra skips post-run hooks when RunE fails.
func newRootCmd() (*cobra.Command, func()) {
	var (
		flags overrides
		sess  session
	)
	cmd := &cobra.Command{
		Use:   "catalog-ingest",
		Short: "Crawl storefronts into a normalized product catalog.",
		Long: `catalog-ingest crawls configured storefront sites, normalizes product
pages, resolves brands against curated aliases, stores products in Postgres
and exports a JSON snapshot. It also serves a read-only product API.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			flags.apply(&cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			zap.ReplaceGlobals(logger)

			sess.tp, err = telemetry.InitTracerProvider(cmd.Context(), telemetry.ServiceName)
			if err != nil {
				return fmt.Errorf("tracer init failed: %w", err)
			}

			app, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			sess.app = app
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (YAML); CATALOG_* env vars override it")
	pf.StringVar(&flags.dsn, "db", "", "Postgres DSN; selects the postgres store")

	cmd.AddCommand(newIngestCmd(&flags))
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd, sess.close
}

func appFrom(ctx context.Context) (*server.App, error) {
	app, ok := ctx.Value(appKey).(*server.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signalContext()
	defer stop()
	root, closeSession := newRootCmd()
	err := root.ExecuteContext(ctx)
	closeSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
