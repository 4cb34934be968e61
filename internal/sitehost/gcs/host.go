// Package gcs publishes snapshots to a Google Cloud Storage bucket served as a website.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/sitehost"
)

// Config captures the bucket and how it is served.
type Config struct {
	Bucket string
	Dir    string
	// PublicBaseURL defaults to https://storage.googleapis.com/<bucket>.
	PublicBaseURL string
	CacheControl  string
}

// Host writes snapshots to a configured GCS bucket.
type Host struct {
	client *storage.Client
	cfg    Config
}

// New creates a GCS-backed site host.
func New(client *storage.Client, cfg Config) (*Host, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.Dir == "" {
		cfg.Dir = sitehost.DefaultDir
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "https://storage.googleapis.com/" + cfg.Bucket
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-cache, max-age=0"
	}
	return &Host{client: client, cfg: cfg}, nil
}

// Publish uploads the snapshot as text/html and returns its public URL.
func (h *Host) Publish(ctx context.Context, filename string, content []byte) (clip.PublishedArtifact, error) {
	objectPath, err := sitehost.ObjectPath(h.cfg.Dir, filename)
	if err != nil {
		return clip.PublishedArtifact{}, err
	}
	writer := h.client.Bucket(h.cfg.Bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = "text/html; charset=utf-8"
	writer.CacheControl = h.cfg.CacheControl
	if _, err := writer.Write(content); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return clip.PublishedArtifact{}, fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return clip.PublishedArtifact{}, fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return clip.PublishedArtifact{}, fmt.Errorf("close writer: %w", err)
	}
	return clip.PublishedArtifact{
		StorageFilename: filename,
		PublicURL:       sitehost.PublicURL(h.cfg.PublicBaseURL, objectPath),
	}, nil
}
