// Package local publishes snapshots into a directory served by another web server.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/sitehost"
)

// Config captures the site root and the URL it is served at.
type Config struct {
	// RootDir is the document root of the static site.
	RootDir string
	Dir     string
	BaseURL string
}

// Host writes snapshots to the local filesystem.
type Host struct {
	cfg Config
}

// New creates a local site host, creating the root directory when missing.
func New(cfg Config) (*Host, error) {
	if strings.TrimSpace(cfg.RootDir) == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Dir == "" {
		cfg.Dir = sitehost.DefaultDir
	}

	info, err := os.Stat(cfg.RootDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.RootDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create root directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("root directory path is not a directory")
	}
	return &Host{cfg: cfg}, nil
}

// Publish writes the snapshot under the root and returns its URL.
func (h *Host) Publish(_ context.Context, filename string, content []byte) (clip.PublishedArtifact, error) {
	objectPath, err := sitehost.ObjectPath(h.cfg.Dir, filename)
	if err != nil {
		return clip.PublishedArtifact{}, err
	}
	cleanRoot := filepath.Clean(h.cfg.RootDir)
	fullPath := filepath.Clean(filepath.Join(cleanRoot, filepath.FromSlash(objectPath)))
	if !strings.HasPrefix(fullPath, cleanRoot+string(filepath.Separator)) {
		return clip.PublishedArtifact{}, fmt.Errorf("path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return clip.PublishedArtifact{}, fmt.Errorf("failed to create parent directories: %w", err)
	}
	// Write then rename so a poller never sees a partial file.
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil { //nolint:gosec // served to the public
		return clip.PublishedArtifact{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return clip.PublishedArtifact{}, fmt.Errorf("failed to move file into place: %w", err)
	}
	return clip.PublishedArtifact{
		StorageFilename: filename,
		PublicURL:       sitehost.PublicURL(h.cfg.BaseURL, objectPath),
	}, nil
}
