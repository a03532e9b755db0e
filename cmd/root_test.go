package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/clock/manual"
	"github.com/JakeFAU/catalog-ingest/internal/config"
	"github.com/JakeFAU/catalog-ingest/internal/server"
	"github.com/JakeFAU/catalog-ingest/internal/storage/memory"
)

func TestOverridesApply(t *testing.T) {
	t.Parallel()

	cfg := config.Config{DB: config.DBConfig{Driver: config.DriverMemory}, Ingest: config.IngestConfig{Workers: 1}}
	overrides{dsn: "postgres://x", exportPath: "gs://b/o.json", workers: 3, brandsSeed: "b.json", aliases: "a.json"}.apply(&cfg)
	require.Equal(t, config.DriverPostgres, cfg.DB.Driver)
	require.Equal(t, "postgres://x", cfg.DB.DSN)
	require.Equal(t, "gs://b/o.json", cfg.Export.Path)
	require.Equal(t, 3, cfg.Ingest.Workers)
	require.Equal(t, "b.json", cfg.Ingest.BrandsSeed)
	require.Equal(t, "a.json", cfg.Ingest.BrandAliases)

	before := cfg
	overrides{}.apply(&cfg)
	require.Equal(t, before, cfg)
}

func TestIngestCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<a class="p" href="/p/1">1</a><a class="p" href="/p/2">2</a>`)
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<h1>Product %s</h1>`, r.URL.Path)
	})
	shop := httptest.NewServer(mux)
	defer shop.Close()

	dir := t.TempDir()
	sitePath := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(sitePath, []byte(fmt.Sprintf(`{
  "source": "cmd.test",
  "listing": {"start_urls": [%q], "product_link_selector": "a.p"},
  "product_page": {"title_selector": "h1"}
}`, shop.URL+"/list")), 0o600))
	exportPath := filepath.Join(dir, "out", "products.json")

	var out bytes.Buffer
	root, closeSession := newRootCmd()
	defer closeSession()
	root.SetOut(&out)
	root.SetArgs([]string{
		"ingest",
		"--site", sitePath,
		"--export-json", exportPath,
		"--brands-seed", filepath.Join(dir, "none.json"),
		"--brand-aliases", filepath.Join(dir, "none.json"),
	})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Equal(t, fmt.Sprintf("Imported 2 products. Exported JSON: %s\n", exportPath), out.String())

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"title": "Product /p/1"`)
}

func TestIngestCommandRequiresSite(t *testing.T) {
	root, closeSession := newRootCmd()
	defer closeSession()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ingest"})
	require.Error(t, root.ExecuteContext(context.Background()))
}

func TestMigrateCommand(t *testing.T) {
	var out bytes.Buffer
	root, closeSession := newRootCmd()
	defer closeSession()
	root.SetOut(&out)
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Equal(t, "Schema is up to date.\n", out.String())
}

func TestAppInitFailure(t *testing.T) {
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	newApp = func(context.Context, config.Config, *zap.Logger) (*server.App, error) {
		return nil, fmt.Errorf("no database")
	}

	root, closeSession := newRootCmd()
	defer closeSession()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate"})
	require.ErrorContains(t, root.ExecuteContext(context.Background()), "no database")
}

// closeCountingStore records Close calls on top of the memory store.
type closeCountingStore struct {
	*memory.CatalogStore
	closed int
}

func (s *closeCountingStore) Close() { s.closed++ }

func TestFailedCommandStillClosesApp(t *testing.T) {
	store := &closeCountingStore{CatalogStore: memory.NewCatalogStore(manual.New(time.Unix(0, 0)))}
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	newApp = func(_ context.Context, cfg config.Config, logger *zap.Logger) (*server.App, error) {
		return server.NewWithStore(cfg, store, nil, logger), nil
	}

	root, closeSession := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ingest", "--site", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, root.ExecuteContext(context.Background()))
	require.Zero(t, store.closed)

	closeSession()
	require.Equal(t, 1, store.closed)
	closeSession()
	require.Equal(t, 1, store.closed)
}

func TestAppFromMissing(t *testing.T) {
	t.Parallel()

	_, err := appFrom(context.Background())
	require.Error(t, err)
}
