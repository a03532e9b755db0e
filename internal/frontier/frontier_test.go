package frontier

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

var listingConfig = Config{
	ProductLinkSelector:    "a.product",
	PaginationNextSelector: "a.next",
}

func TestCollectFollowsPagination(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://shop.test/c/shoes": `
			<a class="product" href="/p/1">1</a>
			<a class="product" href="https://shop.test/p/2">2</a>
			<a class="next" href="?page=2">next</a>`,
		"https://shop.test/c/shoes?page=2": `
			<a class="product" href="/p/2">2 again</a>
			<a class="product" href="p/3">3</a>
			<a class="product">no href</a>
			<a class="next" href="/c/shoes?page=3">next</a>`,
		"https://shop.test/c/shoes?page=3": `
			<a class="product" href="/p/4">4</a>`,
	}}

	urls, err := New(fetcher, listingConfig, zap.NewNop()).Collect(context.Background(), "https://shop.test/c/shoes")
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://shop.test/p/1",
		"https://shop.test/p/2",
		"https://shop.test/c/p/3",
		"https://shop.test/p/4",
	}, urls)
	require.Equal(t, []string{
		"https://shop.test/c/shoes",
		"https://shop.test/c/shoes?page=2",
		"https://shop.test/c/shoes?page=3",
	}, fetcher.requested())
}

func TestCollectStopsOnCycle(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://shop.test/a": `<a class="product" href="/p/1"></a><a class="next" href="/b"></a>`,
		"https://shop.test/b": `<a class="product" href="/p/2"></a><a class="next" href="/a"></a>`,
	}}

	urls, err := New(fetcher, listingConfig, nil).Collect(context.Background(), "https://shop.test/a")
	require.NoError(t, err)
	require.Equal(t, []string{"https://shop.test/p/1", "https://shop.test/p/2"}, urls)
	require.Len(t, fetcher.requested(), 2)
}

func TestCollectSkipsFailedPages(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://shop.test/a": `<a class="product" href="/p/1"></a><a class="next" href="/b"></a>`,
	}}

	urls, err := New(fetcher, listingConfig, zap.NewNop()).Collect(context.Background(), "https://shop.test/a")
	require.NoError(t, err)
	require.Equal(t, []string{"https://shop.test/p/1"}, urls)
	require.Equal(t, []string{"https://shop.test/a", "https://shop.test/b"}, fetcher.requested())
}

func TestCollectSeedFailureYieldsNothing(t *testing.T) {
	t.Parallel()

	urls, err := New(&fakeFetcher{}, listingConfig, zap.NewNop()).Collect(context.Background(), "https://shop.test/missing")
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestCollectWithoutNextSelector(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://shop.test/a": `<a class="product" href="/p/1"></a><a class="next" href="/b"></a>`,
	}}
	cfg := Config{ProductLinkSelector: "a.product"}

	urls, err := New(fetcher, cfg, zap.NewNop()).Collect(context.Background(), "https://shop.test/a")
	require.NoError(t, err)
	require.Equal(t, []string{"https://shop.test/p/1"}, urls)
	require.Len(t, fetcher.requested(), 1)
}

func TestCollectMaxPages(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://shop.test/?page=1": `<a class="product" href="/p/1"></a><a class="next" href="/?page=2"></a>`,
		"https://shop.test/?page=2": `<a class="product" href="/p/2"></a><a class="next" href="/?page=3"></a>`,
		"https://shop.test/?page=3": `<a class="product" href="/p/3"></a>`,
	}}
	cfg := listingConfig
	cfg.MaxPages = 2

	urls, err := New(fetcher, cfg, zap.NewNop()).Collect(context.Background(), "https://shop.test/?page=1")
	require.NoError(t, err)
	require.Equal(t, []string{"https://shop.test/p/1", "https://shop.test/p/2"}, urls)
}

func TestCollectCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeFetcher{}, listingConfig, zap.NewNop()).Collect(ctx, "https://shop.test/a")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromSite(t *testing.T) {
	t.Parallel()

	cfg := FromSite(catalog.SiteConfig{Listing: catalog.ListingConfig{
		ProductLinkSelector:    ".card a",
		PaginationNextSelector: ".pager .next",
		MaxPages:               5,
	}})
	require.Equal(t, Config{ProductLinkSelector: ".card a", PaginationNextSelector: ".pager .next", MaxPages: 5}, cfg)
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	log   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, req catalog.FetchRequest) (catalog.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, req.URL)
	body, ok := f.pages[req.URL]
	if !ok {
		return catalog.FetchResponse{}, &catalog.FetchError{URL: req.URL, StatusCode: http.StatusNotFound, Err: errors.New("Not Found")}
	}
	return catalog.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}
