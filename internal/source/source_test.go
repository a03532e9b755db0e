package source

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

const productHTML = `<html><body>
<nav class="crumbs"><a>Home</a><a> Shoes </a><a></a><a>Running</a></nav>
<h1 class="title">  Nike   Air Zoom
  Pegasus </h1>
<span class="brand">NIKE</span>
<div class="desc"><p>Light <b>and</b> fast</p></div>
<span class="price">1 299,99 грн</span>
<span class="sku">SKU-42</span>
<span class="stock">In stock</span>
<img class="gallery" src="/img/1.jpg">
<img class="gallery" data-src="https://cdn.shop.test/img/2.jpg">
<img class="gallery">
</body></html>`

func htmlSite() catalog.SiteConfig {
	return catalog.SiteConfig{
		Source:   "shop",
		Currency: "EUR",
		ProductPage: catalog.ProductPageConfig{
			TitleSelector:              "h1.title",
			BrandSelector:              ".brand",
			DescriptionSelector:        ".desc",
			PriceSelector:              ".price",
			SKUSelector:                ".sku",
			GTINSelector:               ".gtin",
			StockSelector:              ".stock",
			ImageSelector:              "img.gallery",
			CategoryBreadcrumbSelector: "nav.crumbs a",
		},
	}
}

func TestHTMLSourceParse(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/p/pegasus"] = productHTML

	p, err := NewHTML(fetcher, htmlSite()).Parse(context.Background(), "https://shop.test/p/pegasus")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test/p/pegasus", p.URL)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Nike Air Zoom Pegasus", *p.Title)
	require.NotNil(t, p.BrandRaw)
	assert.Equal(t, "NIKE", *p.BrandRaw)
	require.NotNil(t, p.DescriptionHTML)
	assert.Equal(t, `<div class="desc"><p>Light <b>and</b> fast</p></div>`, *p.DescriptionHTML)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 1299.99, *p.Price, 1e-9)
	require.NotNil(t, p.PriceRaw)
	assert.Equal(t, "1 299,99 грн", *p.PriceRaw)
	assert.Equal(t, "SKU-42", *p.SKU)
	assert.Nil(t, p.GTIN)
	assert.Equal(t, "In stock", *p.StockStatus)
	assert.Equal(t, "Home > Shoes > Running", *p.CategoryPath)
	assert.Equal(t, []string{"https://shop.test/img/1.jpg", "https://cdn.shop.test/img/2.jpg"}, p.Images)
	assert.Equal(t, "EUR", *p.Currency)
	assert.Empty(t, p.Sizes)
}

func TestHTMLSourceMissingSelectorsYieldAbsentFields(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/p/bare"] = `<html><body><p>nothing here</p></body></html>`

	site := htmlSite()
	site.ProductPage.BrandSelector = ""
	site.ProductPage.Currency = "USD"

	p, err := NewHTML(fetcher, site).Parse(context.Background(), "https://shop.test/p/bare")
	require.NoError(t, err)
	assert.Nil(t, p.Title)
	assert.Nil(t, p.BrandRaw)
	assert.Nil(t, p.DescriptionHTML)
	assert.Nil(t, p.Price)
	assert.Nil(t, p.PriceRaw)
	assert.Nil(t, p.SKU)
	assert.Nil(t, p.StockStatus)
	assert.Nil(t, p.CategoryPath)
	assert.Empty(t, p.Images)
	assert.Equal(t, "USD", *p.Currency)
}

func TestHTMLSourceFetchFailure(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.errs["https://shop.test/p/down"] = errors.New("connection refused")

	_, err := NewHTML(fetcher, htmlSite()).Parse(context.Background(), "https://shop.test/p/down")
	var fetchErr *catalog.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "https://shop.test/p/down", fetchErr.URL)
}

func TestHTMLSourceKeepsTypedFetchError(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.errs["https://shop.test/p/404"] = &catalog.FetchError{
		URL: "https://shop.test/p/404", StatusCode: http.StatusNotFound, Err: errors.New("Not Found"),
	}

	_, err := NewHTML(fetcher, htmlSite()).Parse(context.Background(), "https://shop.test/p/404")
	var fetchErr *catalog.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

const productJSON = `{"product":{
  "title":"  Samba  OG ",
  "body_html":"<p>Classic</p>",
  "vendor":"adidas",
  "variants":[
    {"price":"3 499,00","sku":"SMB-40","option1":"40"},
    {"price":"3 499,00","sku":"SMB-41","option1":"41"},
    {"price":"3 499,00","sku":"SMB-X","option1":"Default Title"},
    {"price":"3 499,00","sku":"SMB-N","option1":null}
  ],
  "images":[{"src":"https://cdn.shop.test/a.jpg"},{"src":""},{"src":"https://cdn.shop.test/b.jpg"}]
}}`

func TestJSONSourceParse(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/products/samba.json"] = productJSON

	src := NewJSON(fetcher, catalog.SiteConfig{Mode: catalog.ModeJSON})
	p, err := src.Parse(context.Background(), "https://shop.test/products/samba/")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test/products/samba/", p.URL)
	assert.Equal(t, "Samba OG", *p.Title)
	assert.Equal(t, "<p>Classic</p>", *p.DescriptionHTML)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 3499.0, *p.Price, 1e-9)
	assert.Equal(t, "SMB-40", *p.SKU)
	assert.Equal(t, []string{"40", "41"}, p.Sizes)
	assert.Equal(t, []string{"https://cdn.shop.test/a.jpg", "https://cdn.shop.test/b.jpg"}, p.Images)
	assert.Equal(t, "UAH", *p.Currency)
	assert.Nil(t, p.BrandRaw)
	assert.Nil(t, p.GTIN)
	assert.Nil(t, p.StockStatus)
	assert.Nil(t, p.CategoryPath)

	headers := fetcher.lastHeaders()
	assert.Equal(t, "application/json", headers.Get("Accept"))
}

func TestJSONSourceNumericPrice(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/products/cap.json"] = `{"product":{"title":"Cap","variants":[{"price":799.5,"sku":"CAP"}]}}`

	p, err := NewJSON(fetcher, catalog.SiteConfig{}).Parse(context.Background(), "https://shop.test/products/cap.json")
	require.NoError(t, err)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 799.5, *p.Price, 1e-9)
	assert.Equal(t, "799.5", *p.PriceRaw)
	assert.Empty(t, p.Sizes)
	assert.Empty(t, p.Images)
}

func TestJSONSourceToleratesFieldTypeMismatch(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/p/tee.json"] = `{"product":{
  "title":"Tee",
  "body_html":{"html":"<p>x</p>"},
  "variants":[
    {"price":"10.00","sku":12345,"option1":"M"},
    {"price":"10.00","sku":["L"],"option1":42},
    {"price":"10.00","sku":"T-XL","option1":{"size":"XL"}}
  ],
  "images":[{"src":7},{"src":"https://cdn.shop.test/tee.jpg"},{"src":null}]
}}`

	p, err := NewJSON(fetcher, catalog.SiteConfig{}).Parse(context.Background(), "https://shop.test/p/tee")
	require.NoError(t, err)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Tee", *p.Title)
	assert.Nil(t, p.DescriptionHTML)
	require.NotNil(t, p.SKU)
	assert.Equal(t, "12345", *p.SKU)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 10.0, *p.Price, 1e-9)
	assert.Equal(t, []string{"M", "42"}, p.Sizes)
	assert.Equal(t, []string{"7", "https://cdn.shop.test/tee.jpg"}, p.Images)
}

func TestJSONSourceNoVariants(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/products/empty.json"] = `{"product":{"title":"Empty"}}`

	p, err := NewJSON(fetcher, catalog.SiteConfig{}).Parse(context.Background(), "https://shop.test/products/empty")
	require.NoError(t, err)
	assert.Nil(t, p.Price)
	assert.Nil(t, p.SKU)
}

func TestJSONSourceInvalidBody(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://shop.test/products/bad.json"] = `<html>not json</html>`

	_, err := NewJSON(fetcher, catalog.SiteConfig{}).Parse(context.Background(), "https://shop.test/products/bad")
	var parseErr *catalog.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "https://shop.test/products/bad.json", parseErr.URL)
}

func TestJSONDocumentURL(t *testing.T) {
	t.Parallel()

	src := NewJSON(newFakeFetcher(), catalog.SiteConfig{})
	assert.Equal(t, "https://shop.test/p/a.json", src.DocumentURL("https://shop.test/p/a"))
	assert.Equal(t, "https://shop.test/p/a.json", src.DocumentURL("https://shop.test/p/a//"))
	assert.Equal(t, "https://shop.test/p/a.json", src.DocumentURL("https://shop.test/p/a.json"))

	custom := NewJSON(newFakeFetcher(), catalog.SiteConfig{ProductPage: catalog.ProductPageConfig{JSONSuffix: ".js"}})
	assert.Equal(t, "https://shop.test/p/a.js", custom.DocumentURL("https://shop.test/p/a"))
}

func TestNewSelectsAdapterByMode(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()

	src, err := New(fetcher, catalog.SiteConfig{})
	require.NoError(t, err)
	assert.IsType(t, &HTMLSource{}, src)

	src, err = New(fetcher, catalog.SiteConfig{Mode: catalog.ModeJSON})
	require.NoError(t, err)
	assert.IsType(t, &JSONSource{}, src)

	_, err = New(fetcher, catalog.SiteConfig{Mode: "xml"})
	require.Error(t, err)

	_, err = New(nil, catalog.SiteConfig{})
	require.Error(t, err)
}

type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	headers http.Header
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, req catalog.FetchRequest) (catalog.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers = req.Headers
	if err, ok := f.errs[req.URL]; ok {
		return catalog.FetchResponse{}, err
	}
	body, ok := f.bodies[req.URL]
	if !ok {
		return catalog.FetchResponse{}, errors.New("not found")
	}
	return catalog.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeFetcher) lastHeaders() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers
}
