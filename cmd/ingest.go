package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalog-ingest/internal/config"
	"github.com/JakeFAU/catalog-ingest/internal/server"
)

func newIngestCmd(flags *overrides) *cobra.Command {
	var sitePath string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Crawl one site and import its products",
		Long: `Runs one ingestion batch for the site described by --site: crawls the
listing pages, parses every product page, resolves brands, upserts products
and writes the JSON snapshot to export.path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			site, err := config.LoadSite(sitePath)
			if err != nil {
				return err
			}
			summary, err := app.Ingest(cmd.Context(), site, server.IngestOptions{})
			if err != nil {
				return fmt.Errorf("ingest %s: %w", site.Source, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products. Exported JSON: %s\n", summary.Imported, summary.ExportURI)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sitePath, "site", "", "site config JSON")
	f.StringVar(&flags.exportPath, "export-json", "", "export destination (path or gs://bucket/object)")
	f.StringVar(&flags.brandsSeed, "brands-seed", "", "brand seed JSON file")
	f.StringVar(&flags.aliases, "brand-aliases", "", "brand alias JSON file")
	f.IntVar(&flags.workers, "workers", 0, "concurrent product fetches")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}
