package catalog

import (
	"context"
	"io"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Source turns a product page URL into a ParsedProduct.
type Source interface {
	Parse(ctx context.Context, url string) (ParsedProduct, error)
}

// Store persists brands, aliases and products.
type Store interface {
	Migrate(ctx context.Context) error
	SeedBrands(ctx context.Context, seeds []BrandSeed) error
	UpsertBrandAliases(ctx context.Context, aliases []AliasEntry) error
	ListBrandAliases(ctx context.Context) ([]AliasEntry, error)
	IngestProduct(ctx context.Context, record IngestRecord) (int64, error)
	ExportRows(ctx context.Context) ([]ExportRow, error)
	Close()
}

// Reader serves the read-only projections used by the HTTP API.
type Reader interface {
	ListProducts(ctx context.Context, limit, offset int) ([]ProductSummary, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	Ping(ctx context.Context) error
}

// BlobStore writes artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes ingestion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
