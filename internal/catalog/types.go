package catalog

import (
	"net/http"
	"strings"
	"time"
)

// FetchRequest describes a single fetch.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse captures what a fetcher returned for a URL.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ParsedProduct is the intermediate record produced by a Source.
// Nil pointers mean the field was not found on the page.
type ParsedProduct struct {
	URL             string
	Title           *string
	BrandRaw        *string
	DescriptionHTML *string
	Currency        *string
	Price           *float64
	PriceRaw        *string
	SKU             *string
	GTIN            *string
	StockStatus     *string
	CategoryPath    *string
	Images          []string
	Sizes           []string
}

// BrandStatus is the lifecycle state of a brand row.
type BrandStatus string

const (
	// BrandActive marks curated brands.
	BrandActive BrandStatus = "active"
	// BrandDraft marks brands created implicitly by aliases or resolution.
	BrandDraft BrandStatus = "draft"
)

// BrandSeed is one entry of the brand seed file.
type BrandSeed struct {
	Name   string      `json:"name"`
	Slug   *string     `json:"slug,omitempty"`
	Status BrandStatus `json:"status,omitempty"`
}

// AliasEntry maps an alias string onto a canonical brand name.
type AliasEntry struct {
	Brand    string `json:"brand"`
	Alias    string `json:"alias"`
	Priority int    `json:"priority,omitempty"`
}

// CollectionType enumerates collection kinds.
type CollectionType string

const (
	CollectionBrand    CollectionType = "brand"
	CollectionCategory CollectionType = "category"
	CollectionPromo    CollectionType = "promo"
)

// CollectionSlug derives the slug of a brand collection from the brand name.
func CollectionSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// IngestRecord is a parsed product together with its resolved brand.
// Brand is nil when resolution fell below the confidence threshold.
type IngestRecord struct {
	Source  string
	Brand   *string
	Product ParsedProduct
}

// Product is the stored product projection served by the detail endpoint.
type Product struct {
	ID              int64     `json:"id"`
	Source          string    `json:"source"`
	URL             string    `json:"url"`
	Title           *string   `json:"title"`
	Brand           *string   `json:"brand"`
	SKU             *string   `json:"sku"`
	GTIN            *string   `json:"gtin"`
	DescriptionHTML *string   `json:"description_html"`
	Currency        *string   `json:"currency"`
	Price           *float64  `json:"price"`
	StockStatus     *string   `json:"stock_status"`
	CategoryPath    *string   `json:"category_path"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Photos          []string  `json:"photos"`
	Sizes           []string  `json:"sizes"`
}

// ProductSummary is one row of the list endpoint.
type ProductSummary struct {
	ID          int64    `json:"id"`
	Title       *string  `json:"title"`
	URL         string   `json:"url"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	StockStatus *string  `json:"stock_status"`
	Brand       *string  `json:"brand"`
	Thumbnail   *string  `json:"thumbnail"`
}

// ExportRow is one element of the JSON snapshot.
type ExportRow struct {
	ID           int64    `json:"id"`
	Title        *string  `json:"title"`
	URL          string   `json:"url"`
	Currency     *string  `json:"currency"`
	Price        *float64 `json:"price"`
	StockStatus  *string  `json:"stock_status"`
	CategoryPath *string  `json:"category_path"`
	Brand        *string  `json:"brand"`
	Images       string   `json:"images"`
}
