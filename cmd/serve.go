package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalog-ingest/internal/api"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only product API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			handler := api.NewServer(app.Store(), app.Logger()).Handler()
			return app.Serve(cmd.Context(), handler)
		},
	}
}
