package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

type brandRow struct {
	id     int64
	name   string
	slug   *string
	status catalog.BrandStatus
}

type aliasRow struct {
	brandID  int64
	alias    string
	priority int
}

type collectionRow struct {
	id   int64
	kind catalog.CollectionType
	name string
	slug string
}

type productRow struct {
	id        int64
	source    string
	url       string
	brandID   *int64
	fields    catalog.ParsedProduct
	createdAt time.Time
	updatedAt time.Time
}

type itemKey struct {
	collectionID int64
	productID    int64
}

// CatalogStore is an in-memory catalog.Store and catalog.Reader. It enforces
// the same uniqueness and replacement rules as the Postgres schema.
type CatalogStore struct {
	mu    sync.RWMutex
	clock catalog.Clock

	brands      []brandRow
	aliases     []aliasRow
	collections []collectionRow
	products    map[int64]*productRow
	productURLs map[string]int64
	media       map[int64][]string
	sizes       map[int64][]string
	items       map[itemKey]struct{}
	nextProduct int64
}

// NewCatalogStore constructs a CatalogStore. Timestamps come from clock.
func NewCatalogStore(clock catalog.Clock) *CatalogStore {
	return &CatalogStore{
		clock:       clock,
		products:    make(map[int64]*productRow),
		productURLs: make(map[string]int64),
		media:       make(map[int64][]string),
		sizes:       make(map[int64][]string),
		items:       make(map[itemKey]struct{}),
	}
}

// Migrate is a no-op; the in-memory schema always exists.
func (s *CatalogStore) Migrate(context.Context) error {
	return nil
}

// SeedBrands inserts brands whose name and slug are both unused.
func (s *CatalogStore) SeedBrands(_ context.Context, seeds []catalog.BrandSeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seed := range seeds {
		if s.brandByName(seed.Name) != nil || (seed.Slug != nil && s.brandBySlug(*seed.Slug) != nil) {
			continue
		}
		status := seed.Status
		if status == "" {
			status = catalog.BrandActive
		}
		s.brands = append(s.brands, brandRow{
			id:     int64(len(s.brands) + 1),
			name:   seed.Name,
			slug:   seed.Slug,
			status: status,
		})
	}
	return nil
}

// UpsertBrandAliases records aliases, creating missing brands as drafts.
func (s *CatalogStore) UpsertBrandAliases(_ context.Context, aliases []catalog.AliasEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range aliases {
		brandID := s.ensureBrand(a.Brand)
		exists := false
		for _, row := range s.aliases {
			if row.brandID == brandID && row.alias == a.Alias {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		priority := a.Priority
		if priority == 0 {
			priority = 1
		}
		s.aliases = append(s.aliases, aliasRow{brandID: brandID, alias: a.Alias, priority: priority})
	}
	return nil
}

// ListBrandAliases returns aliases in insertion order.
func (s *CatalogStore) ListBrandAliases(context.Context) ([]catalog.AliasEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.AliasEntry, 0, len(s.aliases))
	for _, a := range s.aliases {
		out = append(out, catalog.AliasEntry{
			Brand:    s.brands[a.brandID-1].name,
			Alias:    a.alias,
			Priority: a.priority,
		})
	}
	return out, nil
}

// IngestProduct upserts the product by URL, replaces its media and sizes and
// links it to its brand collection, all under one lock.
func (s *CatalogStore) IngestProduct(_ context.Context, record catalog.IngestRecord) (int64, error) {
	if record.Product.URL == "" {
		return 0, errors.New("product url is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var (
		brandID      *int64
		collectionID int64
	)
	if record.Brand != nil {
		id := s.ensureBrand(*record.Brand)
		brandID = &id
		collectionID = s.ensureBrandCollection(*record.Brand)
	}

	fields := record.Product
	fields.Images = nil
	fields.Sizes = nil

	id, exists := s.productURLs[fields.URL]
	if exists {
		row := s.products[id]
		row.brandID = brandID
		row.fields = fields
		row.updatedAt = now
	} else {
		s.nextProduct++
		id = s.nextProduct
		s.products[id] = &productRow{
			id:        id,
			source:    record.Source,
			url:       fields.URL,
			brandID:   brandID,
			fields:    fields,
			createdAt: now,
			updatedAt: now,
		}
		s.productURLs[fields.URL] = id
	}

	s.media[id] = append([]string(nil), record.Product.Images...)
	s.sizes[id] = append([]string(nil), record.Product.Sizes...)
	if brandID != nil {
		s.items[itemKey{collectionID: collectionID, productID: id}] = struct{}{}
	}
	return id, nil
}

// ExportRows returns the snapshot rows ordered by id descending.
func (s *CatalogStore) ExportRows(context.Context) ([]catalog.ExportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]catalog.ExportRow, 0, len(s.products))
	for _, p := range s.sortedProducts() {
		rows = append(rows, catalog.ExportRow{
			ID:           p.id,
			Title:        p.fields.Title,
			URL:          p.url,
			Currency:     p.fields.Currency,
			Price:        p.fields.Price,
			StockStatus:  p.fields.StockStatus,
			CategoryPath: p.fields.CategoryPath,
			Brand:        s.brandName(p.brandID),
			Images:       strings.Join(s.media[p.id], "|"),
		})
	}
	return rows, nil
}

// ListProducts returns a page of product summaries ordered by id descending.
func (s *CatalogStore) ListProducts(_ context.Context, limit, offset int) ([]catalog.ProductSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := s.sortedProducts()
	if offset >= len(products) {
		return []catalog.ProductSummary{}, nil
	}
	products = products[offset:]
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	out := make([]catalog.ProductSummary, 0, len(products))
	for _, p := range products {
		summary := catalog.ProductSummary{
			ID:          p.id,
			Title:       p.fields.Title,
			URL:         p.url,
			Price:       p.fields.Price,
			Currency:    p.fields.Currency,
			StockStatus: p.fields.StockStatus,
			Brand:       s.brandName(p.brandID),
		}
		if media := s.media[p.id]; len(media) > 0 {
			thumb := media[0]
			summary.Thumbnail = &thumb
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetProduct returns the full product record or catalog.ErrNotFound.
func (s *CatalogStore) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return catalog.Product{
		ID:              p.id,
		Source:          p.source,
		URL:             p.url,
		Title:           p.fields.Title,
		Brand:           s.brandName(p.brandID),
		SKU:             p.fields.SKU,
		GTIN:            p.fields.GTIN,
		DescriptionHTML: p.fields.DescriptionHTML,
		Currency:        p.fields.Currency,
		Price:           p.fields.Price,
		StockStatus:     p.fields.StockStatus,
		CategoryPath:    p.fields.CategoryPath,
		CreatedAt:       p.createdAt,
		UpdatedAt:       p.updatedAt,
		Photos:          append([]string{}, s.media[p.id]...),
		Sizes:           append([]string{}, s.sizes[p.id]...),
	}, nil
}

// Ping always succeeds.
func (s *CatalogStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *CatalogStore) Close() {}

func (s *CatalogStore) brandByName(name string) *brandRow {
	for i := range s.brands {
		if s.brands[i].name == name {
			return &s.brands[i]
		}
	}
	return nil
}

func (s *CatalogStore) brandBySlug(slug string) *brandRow {
	for i := range s.brands {
		if s.brands[i].slug != nil && *s.brands[i].slug == slug {
			return &s.brands[i]
		}
	}
	return nil
}

func (s *CatalogStore) ensureBrand(name string) int64 {
	if b := s.brandByName(name); b != nil {
		return b.id
	}
	id := int64(len(s.brands) + 1)
	s.brands = append(s.brands, brandRow{id: id, name: name, status: catalog.BrandDraft})
	return id
}

func (s *CatalogStore) ensureBrandCollection(name string) int64 {
	slug := catalog.CollectionSlug(name)
	for _, c := range s.collections {
		if c.slug == slug {
			return c.id
		}
	}
	id := int64(len(s.collections) + 1)
	s.collections = append(s.collections, collectionRow{id: id, kind: catalog.CollectionBrand, name: name, slug: slug})
	return id
}

func (s *CatalogStore) brandName(id *int64) *string {
	if id == nil {
		return nil
	}
	name := s.brands[*id-1].name
	return &name
}

func (s *CatalogStore) sortedProducts() []*productRow {
	out := make([]*productRow, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id > out[j].id })
	return out
}
