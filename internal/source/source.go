// Package source implements the product page adapters: CSS selector extraction
// over HTML and decoding of storefront JSON product documents.
package source

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

// New returns the adapter selected by the site's mode.
func New(fetcher catalog.Fetcher, site catalog.SiteConfig) (catalog.Source, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	switch mode := site.EffectiveMode(); mode {
	case catalog.ModeHTML:
		return NewHTML(fetcher, site), nil
	case catalog.ModeJSON:
		return NewJSON(fetcher, site), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", mode)
	}
}

func fetchError(rawURL string, err error) error {
	var fetchErr *catalog.FetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return &catalog.FetchError{URL: rawURL, Err: err}
}

// resolve joins ref onto base; an unparsable ref is reported as ok=false.
func resolve(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if base == nil {
		return u.String(), true
	}
	return base.ResolveReference(u).String(), true
}
