package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/webclipper/internal/server"
)

// newServeCmd creates the 'serve' subcommand, which runs the upload API until
// SIGINT or SIGTERM.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP upload API",
		Long: `Starts the HTTP server that accepts multipart snapshot uploads on
POST /, /upload and /upload/, plus /healthz, /readyz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context())
			if err != nil {
				return err
			}
			app, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}
