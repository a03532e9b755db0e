// Package server builds the long-lived services shared by the CLI commands:
// the catalog store, blob stores, the event publisher, the ingest pipeline
// and the read API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
	"github.com/JakeFAU/catalog-ingest/internal/clock/system"
	"github.com/JakeFAU/catalog-ingest/internal/config"
	"github.com/JakeFAU/catalog-ingest/internal/export"
	gcppublisher "github.com/JakeFAU/catalog-ingest/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/catalog-ingest/internal/storage/gcs"
	localstorage "github.com/JakeFAU/catalog-ingest/internal/storage/local"
	memorystorage "github.com/JakeFAU/catalog-ingest/internal/storage/memory"
	pgstore "github.com/JakeFAU/catalog-ingest/internal/storage/postgres"
)

// Store is the catalog store the commands operate on.
type Store interface {
	catalog.Store
	catalog.Reader
}

// App contains the application's dependencies.
type App struct {
	cfg             config.Config
	logger          *zap.Logger
	clock           catalog.Clock
	store           Store
	pubsubClient    *pubsub.Client
	pubsubPublisher *gcppublisher.Publisher
	gcs             *storage.Client
}

// New opens the configured catalog store.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, clock: system.New()}

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		pg, err := pgstore.New(ctx, pgstore.Config{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		}, a.clock)
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		a.store = pg
		logger.Info("using postgres catalog store")
	default:
		a.store = memorystorage.NewCatalogStore(a.clock)
		logger.Warn("using in-memory catalog store; data is lost on exit")
	}
	return a, nil
}

// NewWithStore builds an App around an existing store (primarily for testing).
func NewWithStore(cfg config.Config, store Store, clock catalog.Clock, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = system.New()
	}
	return &App{cfg: cfg, logger: logger, clock: clock, store: store}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the catalog store.
func (a *App) Store() Store { return a.store }

// Migrate creates the catalog schema.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.logger.Info("schema ready", zap.String("driver", a.cfg.DB.Driver))
	return nil
}

// BlobStore returns the blob store that serves dest.
func (a *App) BlobStore(ctx context.Context, dest export.Destination) (catalog.BlobStore, error) {
	if dest.IsGCS() {
		if a.gcs == nil {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("gcs client init failed: %w", err)
			}
			a.gcs = client
		}
		blobs, err := gcsstorage.New(a.gcs, gcsstorage.Config{Bucket: dest.Bucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.logger.Debug("gcs export backend", zap.String("bucket", dest.Bucket))
		return blobs, nil
	}
	blobs, err := localstorage.New(localstorage.Config{BaseDir: dest.BaseDir})
	if err != nil {
		return nil, fmt.Errorf("local blob store init failed: %w", err)
	}
	a.logger.Debug("local export backend", zap.String("path", dest.BaseDir))
	return blobs, nil
}

// Publisher returns the Pub/Sub publisher, or nil when no topic is configured.
func (a *App) Publisher(ctx context.Context) (catalog.Publisher, error) {
	if a.cfg.PubSub.TopicName == "" {
		a.logger.Info("no Pub/Sub topic configured; product events disabled")
		return nil, nil
	}
	if a.pubsubPublisher != nil {
		return a.pubsubPublisher, nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	a.pubsubPublisher = gcppublisher.New(client.Publisher(a.cfg.PubSub.TopicName))
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return a.pubsubPublisher, nil
}

// Serve runs the read API until ctx is canceled.
func (a *App) Serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown initiated")
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	return serveErr
}

// Close releases every client the App opened.
func (a *App) Close() {
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Info("shutdown complete")
}
