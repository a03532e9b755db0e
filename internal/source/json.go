package source

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
	"github.com/JakeFAU/catalog-ingest/internal/normalize"
)

const placeholderVariant = "default title"

// JSONSource reads storefront product documents (the `<product>.json` form).
type JSONSource struct {
	fetcher  catalog.Fetcher
	suffix   string
	currency string
}

type productDocument struct {
	Product struct {
		Title    json.RawMessage `json:"title"`
		BodyHTML json.RawMessage `json:"body_html"`
		Variants []struct {
			Price   json.RawMessage `json:"price"`
			SKU     json.RawMessage `json:"sku"`
			Option1 json.RawMessage `json:"option1"`
		} `json:"variants"`
		Images []struct {
			Src json.RawMessage `json:"src"`
		} `json:"images"`
	} `json:"product"`
}

// NewJSON builds a JSONSource for the site.
func NewJSON(fetcher catalog.Fetcher, site catalog.SiteConfig) *JSONSource {
	return &JSONSource{
		fetcher:  fetcher,
		suffix:   site.JSONSuffix(),
		currency: site.ResolveCurrency(),
	}
}

// DocumentURL maps a product URL onto its JSON document URL.
func (s *JSONSource) DocumentURL(rawURL string) string {
	if strings.HasSuffix(rawURL, s.suffix) {
		return rawURL
	}
	return strings.TrimRight(rawURL, "/") + s.suffix
}

// Parse fetches the JSON document for rawURL. Brand, GTIN, stock status and
// category are never set in this mode.
func (s *JSONSource) Parse(ctx context.Context, rawURL string) (catalog.ParsedProduct, error) {
	docURL := s.DocumentURL(rawURL)
	resp, err := s.fetcher.Fetch(ctx, catalog.FetchRequest{
		URL:     docURL,
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return catalog.ParsedProduct{}, fetchError(docURL, err)
	}

	var doc productDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return catalog.ParsedProduct{}, &catalog.ParseError{URL: docURL, Err: err}
	}
	p := doc.Product

	currency := s.currency
	out := catalog.ParsedProduct{
		URL:             rawURL,
		Title:           normalize.Text(scalar(p.Title)),
		DescriptionHTML: scalar(p.BodyHTML),
		Currency:        &currency,
	}
	if len(p.Variants) > 0 {
		out.PriceRaw = scalar(p.Variants[0].Price)
		out.Price = normalize.Price(out.PriceRaw)
		out.SKU = normalize.Text(scalar(p.Variants[0].SKU))
	}
	for _, v := range p.Variants {
		option := scalar(v.Option1)
		if option == nil {
			continue
		}
		size := strings.TrimSpace(*option)
		if size == "" || strings.EqualFold(size, placeholderVariant) {
			continue
		}
		out.Sizes = append(out.Sizes, size)
	}
	for _, img := range p.Images {
		if src := scalar(img.Src); src != nil && *src != "" {
			out.Images = append(out.Images, *src)
		}
	}
	return out, nil
}

// scalar reads a JSON string or number as text. Any other value, including
// null, objects and arrays, is absent.
func scalar(msg json.RawMessage) *string {
	if len(msg) == 0 || string(msg) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		str := n.String()
		return &str
	}
	return nil
}
