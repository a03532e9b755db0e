// Package frontier walks paginated listing pages and collects product links.
package frontier

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
	"github.com/JakeFAU/catalog-ingest/internal/metrics"
)

// Config holds the listing selectors.
type Config struct {
	ProductLinkSelector    string
	PaginationNextSelector string
	// MaxPages caps the listing pages visited per seed; zero means unlimited.
	MaxPages int
}

// Frontier performs a breadth-first walk over listing pages. It is not safe
// for concurrent use by multiple goroutines.
type Frontier struct {
	fetcher catalog.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Frontier.
func New(fetcher catalog.Fetcher, cfg Config, logger *zap.Logger) *Frontier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Frontier{fetcher: fetcher, cfg: cfg, logger: logger}
}

// FromSite builds the frontier configuration from a site definition.
func FromSite(site catalog.SiteConfig) Config {
	return Config{
		ProductLinkSelector:    site.Listing.ProductLinkSelector,
		PaginationNextSelector: site.Listing.PaginationNextSelector,
		MaxPages:               site.Listing.MaxPages,
	}
}

// Collect visits seed and every page reachable through the next-page
// selector, returning product URLs deduplicated in first-seen order. Pages
// that fail to fetch are logged and skipped.
func (f *Frontier) Collect(ctx context.Context, seed string) ([]string, error) {
	queue := []string{seed}
	visited := make(map[string]struct{})
	var found []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("frontier canceled: %w", err)
		}
		if f.cfg.MaxPages > 0 && len(visited) >= f.cfg.MaxPages {
			f.logger.Warn("listing page limit reached",
				zap.String("seed", seed),
				zap.Int("max_pages", f.cfg.MaxPages),
			)
			break
		}

		page := queue[0]
		queue = queue[1:]
		if _, seen := visited[page]; seen {
			continue
		}
		visited[page] = struct{}{}

		links, next, err := f.visit(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("frontier canceled: %w", ctx.Err())
			}
			metrics.ObserveListingPage(page, "failed")
			f.logger.Warn("listing page skipped", zap.String("url", page), zap.Error(err))
			continue
		}
		metrics.ObserveListingPage(page, "ok")
		f.logger.Debug("listing page visited",
			zap.String("url", page),
			zap.Int("links", len(links)),
			zap.Bool("has_next", next != ""),
		)
		found = append(found, links...)
		if next != "" {
			queue = append(queue, next)
		}
	}
	return dedupe(found), nil
}

func (f *Frontier) visit(ctx context.Context, page string) ([]string, string, error) {
	resp, err := f.fetcher.Fetch(ctx, catalog.FetchRequest{URL: page})
	if err != nil {
		return nil, "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, "", &catalog.ParseError{URL: page, Err: err}
	}
	base, err := url.Parse(page)
	if err != nil {
		return nil, "", &catalog.ParseError{URL: page, Err: err}
	}

	var links []string
	if sel := strings.TrimSpace(f.cfg.ProductLinkSelector); sel != "" {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if abs, ok := absoluteHref(base, s); ok {
				links = append(links, abs)
			}
		})
	}

	var next string
	if sel := strings.TrimSpace(f.cfg.PaginationNextSelector); sel != "" {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if abs, ok := absoluteHref(base, s); ok {
				next = abs
				return false
			}
			return true
		})
	}
	return links, next, nil
}

func absoluteHref(base *url.URL, s *goquery.Selection) (string, bool) {
	href, ok := s.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
