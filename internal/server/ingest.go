package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/brand"
	"github.com/JakeFAU/catalog-ingest/internal/catalog"
	"github.com/JakeFAU/catalog-ingest/internal/config"
	"github.com/JakeFAU/catalog-ingest/internal/export"
	collyfetcher "github.com/JakeFAU/catalog-ingest/internal/fetcher/colly"
	"github.com/JakeFAU/catalog-ingest/internal/frontier"
	"github.com/JakeFAU/catalog-ingest/internal/id/uuid"
	"github.com/JakeFAU/catalog-ingest/internal/pipeline"
	"github.com/JakeFAU/catalog-ingest/internal/source"
)

// IngestOptions override configuration for a single ingest run.
type IngestOptions struct {
	// Fetcher replaces the colly fetcher when set.
	Fetcher catalog.Fetcher
	// BlobStore replaces the export destination's blob store when set.
	BlobStore catalog.BlobStore
}

// Ingest prepares the schema, seeds brands and aliases, and runs the
// pipeline for one site.
func (a *App) Ingest(ctx context.Context, site catalog.SiteConfig, opts IngestOptions) (pipeline.Summary, error) {
	if err := config.ValidateSite(site); err != nil {
		return pipeline.Summary{}, err
	}
	if err := a.Migrate(ctx); err != nil {
		return pipeline.Summary{}, err
	}
	resolver, err := a.loadResolver(ctx)
	if err != nil {
		return pipeline.Summary{}, err
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: a.cfg.HTTP.UserAgent,
			Timeout:   a.cfg.FetchTimeout(),
		})
	}
	src, err := source.New(fetcher, site)
	if err != nil {
		return pipeline.Summary{}, err
	}

	dest, err := export.ParseDestination(a.cfg.Export.Path)
	if err != nil {
		return pipeline.Summary{}, err
	}
	blobs := opts.BlobStore
	if blobs == nil {
		if blobs, err = a.BlobStore(ctx, dest); err != nil {
			return pipeline.Summary{}, err
		}
	}
	publisher, err := a.Publisher(ctx)
	if err != nil {
		return pipeline.Summary{}, err
	}

	p := pipeline.New(
		a.store,
		publisher,
		export.New(blobs, dest.Object),
		a.clock,
		uuid.New(),
		pipeline.Config{Workers: a.cfg.Ingest.Workers, Topic: a.cfg.PubSub.TopicName},
		a.logger,
	)
	return p.Run(ctx, pipeline.Site{
		Config:   site,
		Frontier: frontier.New(fetcher, frontier.FromSite(site), a.logger),
		Source:   src,
		Resolver: resolver,
	})
}

func (a *App) loadResolver(ctx context.Context) (*brand.Resolver, error) {
	seeds, err := config.LoadBrandSeeds(a.cfg.Ingest.BrandsSeed)
	if err != nil {
		return nil, err
	}
	if err := a.store.SeedBrands(ctx, seeds); err != nil {
		return nil, fmt.Errorf("seed brands: %w", err)
	}
	aliases, err := config.LoadBrandAliases(a.cfg.Ingest.BrandAliases)
	if err != nil {
		return nil, err
	}
	if err := a.store.UpsertBrandAliases(ctx, aliases); err != nil {
		return nil, fmt.Errorf("upsert brand aliases: %w", err)
	}
	stored, err := a.store.ListBrandAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brand aliases: %w", err)
	}
	a.logger.Info("brand tables loaded",
		zap.Int("seeds", len(seeds)),
		zap.Int("aliases", len(stored)),
	)
	return brand.NewResolver(stored), nil
}
