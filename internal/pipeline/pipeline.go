// Package pipeline runs one ingestion batch: crawl, parse, resolve, store,
// publish and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/catalog-ingest/internal/brand"
	"github.com/JakeFAU/catalog-ingest/internal/catalog"
	"github.com/JakeFAU/catalog-ingest/internal/export"
	"github.com/JakeFAU/catalog-ingest/internal/metrics"
)

var tracer = otel.Tracer("github.com/JakeFAU/catalog-ingest/internal/pipeline")

// Frontier discovers product URLs reachable from a listing seed.
type Frontier interface {
	Collect(ctx context.Context, seed string) ([]string, error)
}

// Exporter writes the product snapshot once the batch is stored.
type Exporter interface {
	Export(ctx context.Context, rows export.RowSource) (string, error)
}

// Config controls Pipeline behavior.
type Config struct {
	// Workers bounds concurrent fetch/parse calls. Values below 1 mean 1.
	Workers int
	// Topic receives product events. Empty disables publishing.
	Topic string
}

// Site bundles the per-site collaborators of a run.
type Site struct {
	Config   catalog.SiteConfig
	Frontier Frontier
	Source   catalog.Source
	Resolver *brand.Resolver
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID      string
	Discovered int
	Imported   int
	Failed     int
	ExportURI  string
	Duration   time.Duration
}

// ProductEvent is published for every stored product.
type ProductEvent struct {
	RunID      string  `json:"run_id"`
	ProductID  int64   `json:"product_id"`
	URL        string  `json:"url"`
	Source     string  `json:"source"`
	Brand      *string `json:"brand"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

// Attributes exposes routing attributes for Pub/Sub subscribers.
func (e ProductEvent) Attributes() map[string]string {
	return map[string]string{
		"event":  "product.ingested",
		"run_id": e.RunID,
		"source": e.Source,
	}
}

// Pipeline wires the store, publisher and exporter used by every run.
type Pipeline struct {
	store     catalog.Store
	publisher catalog.Publisher
	exporter  Exporter
	clock     catalog.Clock
	ids       catalog.IDGenerator
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Pipeline.
func New(
	store catalog.Store,
	publisher catalog.Publisher,
	exporter Exporter,
	clock catalog.Clock,
	ids catalog.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:     store,
		publisher: publisher,
		exporter:  exporter,
		clock:     clock,
		ids:       ids,
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
	}
}

type parsed struct {
	url      string
	product  catalog.ParsedProduct
	match    brand.Match
	brand    *string
	duration time.Duration
	err      error
}

// Run processes every seed of site and exports the snapshot.
// Per-URL failures are logged and counted; they never abort the run.
func (p *Pipeline) Run(ctx context.Context, site Site) (Summary, error) {
	start := time.Now()
	runID, err := p.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := Summary{RunID: runID}
	source := site.Config.Source
	ctx, span := tracer.Start(ctx, "ingest.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("source", source),
	))
	defer span.End()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("source", source))
	if site.Resolver == nil {
		site.Resolver = brand.NewResolver(nil)
	}
	logger.Info("ingest run started",
		zap.Int("seeds", len(site.Config.Listing.StartURLs)),
		zap.Int("workers", p.cfg.Workers),
		zap.Int("aliases", site.Resolver.Len()),
	)

	jobs := make(chan string)
	results := make(chan parsed)
	discovered := make(chan int, len(site.Config.Listing.StartURLs))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		defer close(discovered)
		return p.produce(gctx, site, logger, jobs, discovered)
	})
	for range p.cfg.Workers {
		g.Go(func() error {
			for u := range jobs {
				res := p.parse(gctx, site, u)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	for res := range results {
		if ctx.Err() != nil {
			continue
		}
		if p.write(ctx, runID, source, res, logger) {
			summary.Imported++
		} else {
			summary.Failed++
		}
	}
	for n := range discovered {
		summary.Discovered += n
	}
	summary.Duration = time.Since(start)

	if err := <-waitErr; err != nil || ctx.Err() != nil {
		if err == nil {
			err = ctx.Err()
		}
		span.SetStatus(codes.Error, "canceled")
		metrics.ObserveRun(source, "canceled")
		logger.Warn("ingest run canceled", zap.Int("imported", summary.Imported), zap.Error(err))
		return summary, fmt.Errorf("ingest run canceled: %w", err)
	}

	uri, err := p.exporter.Export(ctx, p.store)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		metrics.ObserveRun(source, "failed")
		logger.Error("export failed", zap.Error(err))
		return summary, fmt.Errorf("export snapshot: %w", err)
	}
	summary.ExportURI = uri
	summary.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("imported", summary.Imported),
		attribute.Int("failed", summary.Failed),
	)
	metrics.ObserveRun(source, "succeeded")
	logger.Info("ingest run finished",
		zap.Int("discovered", summary.Discovered),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", summary.Failed),
		zap.String("export_uri", uri),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (p *Pipeline) produce(
	ctx context.Context,
	site Site,
	logger *zap.Logger,
	jobs chan<- string,
	discovered chan<- int,
) error {
	for _, seed := range site.Config.Listing.StartURLs {
		urls, err := site.Frontier.Collect(ctx, seed)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("listing crawl failed", zap.String("url", seed), zap.Error(err))
			continue
		}
		logger.Info("listing crawled", zap.String("url", seed), zap.Int("products", len(urls)))
		discovered <- len(urls)
		for _, u := range urls {
			select {
			case jobs <- u:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (p *Pipeline) parse(ctx context.Context, site Site, url string) parsed {
	start := time.Now()
	product, err := site.Source.Parse(ctx, url)
	res := parsed{url: url, product: product, err: err, duration: time.Since(start)}
	if err != nil {
		return res
	}
	res.match = site.Resolver.Choose(product.BrandRaw, product.Title, site.Config.Routing.ForceBrandForDomain)
	if res.match.Accepted(site.Config.Routing.Threshold()) {
		res.brand = res.match.Brand
	}
	return res
}

// write stores one parsed product and publishes its event. It reports success.
func (p *Pipeline) write(ctx context.Context, runID, source string, res parsed, logger *zap.Logger) (ok bool) {
	ctx, span := tracer.Start(ctx, "ingest.product", trace.WithAttributes(attribute.String("url", res.url)))
	defer func() {
		if !ok {
			span.SetStatus(codes.Error, "product failed")
		}
		span.End()
	}()

	log := logger.With(zap.String("url", res.url))
	if res.err != nil {
		metrics.ObserveProduct(source, "failed", res.duration)
		log.Warn("product skipped", zap.String("stage", stage(res.err)), zap.Error(res.err))
		return false
	}

	id, err := p.store.IngestProduct(ctx, catalog.IngestRecord{
		Source:  source,
		Brand:   res.brand,
		Product: res.product,
	})
	if err != nil {
		metrics.ObserveProduct(source, "failed", res.duration)
		log.Error("store product failed", zap.Error(err))
		return false
	}

	if p.cfg.Topic != "" && p.publisher != nil {
		event := ProductEvent{
			RunID:      runID,
			ProductID:  id,
			URL:        res.url,
			Source:     source,
			Brand:      res.brand,
			Confidence: res.match.Confidence,
			Timestamp:  p.clock.Now().Format(time.RFC3339),
		}
		if _, err := p.publisher.Publish(ctx, p.cfg.Topic, event); err != nil {
			metrics.ObserveProduct(source, "failed", res.duration)
			log.Error("publish product event failed", zap.Int64("product_id", id), zap.Error(err))
			return false
		}
	}

	metrics.ObserveProduct(source, "imported", res.duration)
	log.Debug("product stored", zap.Int64("product_id", id))
	return true
}

func stage(err error) string {
	var fetchErr *catalog.FetchError
	var parseErr *catalog.ParseError
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "source"
	}
}
