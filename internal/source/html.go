package source

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
	"github.com/JakeFAU/catalog-ingest/internal/normalize"
)

const breadcrumbSeparator = " > "

// HTMLSource extracts product fields from HTML pages using CSS selectors.
type HTMLSource struct {
	fetcher  catalog.Fetcher
	page     catalog.ProductPageConfig
	currency string
}

// NewHTML builds an HTMLSource for the site.
func NewHTML(fetcher catalog.Fetcher, site catalog.SiteConfig) *HTMLSource {
	return &HTMLSource{
		fetcher:  fetcher,
		page:     site.ProductPage,
		currency: site.ResolveCurrency(),
	}
}

// Parse fetches rawURL and extracts every configured field. Selectors that
// are empty or match nothing leave the field nil.
func (s *HTMLSource) Parse(ctx context.Context, rawURL string) (catalog.ParsedProduct, error) {
	resp, err := s.fetcher.Fetch(ctx, catalog.FetchRequest{URL: rawURL})
	if err != nil {
		return catalog.ParsedProduct{}, fetchError(rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return catalog.ParsedProduct{}, &catalog.ParseError{URL: rawURL, Err: err}
	}
	base, _ := url.Parse(rawURL)

	priceRaw := firstText(doc, s.page.PriceSelector)
	currency := s.currency
	return catalog.ParsedProduct{
		URL:             rawURL,
		Title:           firstText(doc, s.page.TitleSelector),
		BrandRaw:        firstText(doc, s.page.BrandSelector),
		DescriptionHTML: firstHTML(doc, s.page.DescriptionSelector),
		Currency:        &currency,
		Price:           normalize.Price(priceRaw),
		PriceRaw:        priceRaw,
		SKU:             firstText(doc, s.page.SKUSelector),
		GTIN:            firstText(doc, s.page.GTINSelector),
		StockStatus:     firstText(doc, s.page.StockSelector),
		CategoryPath:    breadcrumbs(doc, s.page.CategoryBreadcrumbSelector),
		Images:          images(doc, s.page.ImageSelector, base),
	}, nil
}

func first(doc *goquery.Document, selector string) *goquery.Selection {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

func firstText(doc *goquery.Document, selector string) *string {
	sel := first(doc, selector)
	if sel == nil {
		return nil
	}
	text := sel.Text()
	return normalize.Text(&text)
}

func firstHTML(doc *goquery.Document, selector string) *string {
	sel := first(doc, selector)
	if sel == nil {
		return nil
	}
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		return nil
	}
	return &markup
}

func images(doc *goquery.Document, selector string, base *url.URL) []string {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(sel.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}
		if abs, ok := resolve(base, src); ok {
			out = append(out, abs)
		}
	})
	return out
}

func breadcrumbs(doc *goquery.Document, selector string) *string {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	crumbs := normalize.Strings(doc.Find(selector).Map(func(_ int, sel *goquery.Selection) string {
		return sel.Text()
	}))
	if len(crumbs) == 0 {
		return nil
	}
	path := strings.Join(crumbs, breadcrumbSeparator)
	return &path
}
