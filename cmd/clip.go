package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/clock/system"
	"github.com/JakeFAU/webclipper/internal/id/uuid"
	"github.com/JakeFAU/webclipper/internal/server"
)

type clipOptions struct {
	originalURL string
	createdAt   string
}

// newClipCmd creates the 'clip' subcommand, which runs one local file through
// the pipeline and prints the result as JSON.
func newClipCmd() *cobra.Command {
	var opts clipOptions
	cmd := &cobra.Command{
		Use:   "clip FILE",
		Short: "Runs a saved page through the pipeline once",
		Long: `Publishes, summarizes and records a single HTML file without starting the
HTTP server. The source URL comes from --url or, when omitted, from the file
name with '/' encoded as '$'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClip(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.originalURL, "url", "", "source URL of the page")
	cmd.Flags().StringVar(&opts.createdAt, "created-at", "", "RFC 3339 timestamp recorded instead of the current time")
	return cmd
}

func runClip(cmd *cobra.Command, path string, opts clipOptions) error {
	cfg, err := resolveConfig(cmd.Context())
	if err != nil {
		return err
	}

	var buildOpts []server.Option
	if opts.createdAt != "" {
		at, err := time.Parse(time.RFC3339, opts.createdAt)
		if err != nil {
			return fmt.Errorf("invalid --created-at: %w", err)
		}
		buildOpts = append(buildOpts, server.WithClock(system.Fixed{At: at}))
	}

	content, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	prefix, err := uuid.New().NewPrefix()
	if err != nil {
		return fmt.Errorf("generate name: %w", err)
	}

	app, err := server.Build(cmd.Context(), cfg, buildOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if cerr := app.Close(ctx); cerr != nil {
			zap.L().Warn("close failed", zap.Error(cerr))
		}
	}()

	result, err := app.Orchestrator().Process(cmd.Context(), clip.ClipRequest{
		Content:     content,
		Filename:    prefix + "_" + filepath.Base(path),
		OriginalURL: opts.originalURL,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
