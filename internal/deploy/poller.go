// Package deploy publishes a snapshot to the static host and waits until it is served.
package deploy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/retry"
)

// Config bounds publishing and reachability polling.
type Config struct {
	Publish         retry.Policy
	PollInterval    time.Duration
	MaxPollAttempts int
	// RequestTimeout bounds a single poll request.
	RequestTimeout time.Duration
	// ProgressEvery logs a progress line every N unsuccessful polls; zero disables it.
	ProgressEvery int
}

// DefaultConfig matches a GitHub Pages deploy: up to five minutes of polling.
func DefaultConfig() Config {
	return Config{
		Publish:         retry.Policy{Name: "publish", MaxAttempts: 5, BaseDelay: 3 * time.Second},
		PollInterval:    5 * time.Second,
		MaxPollAttempts: 60,
		RequestTimeout:  10 * time.Second,
		ProgressEvery:   6,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if err := c.Publish.Validate(); err != nil {
		return err
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("max poll attempts must be > 0")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must be >= 0")
	}
	return nil
}

// Poller owns the publish + wait step.
type Poller struct {
	host    clip.SiteHost
	fetcher clip.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New builds a Poller.
func New(host clip.SiteHost, fetcher clip.Fetcher, cfg Config, logger *zap.Logger) (*Poller, error) {
	if host == nil {
		return nil, fmt.Errorf("site host is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Publish.Name == "" {
		cfg.Publish.Name = "publish"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{host: host, fetcher: fetcher, cfg: cfg, logger: logger.Named("deploy")}, nil
}

// PublishAndWait publishes content and polls its public URL. Reaching the poll
// ceiling is not an error: the artifact is returned and later steps may still
// succeed once the host catches up. Publish exhaustion wraps clip.ErrPublishFailed.
func (p *Poller) PublishAndWait(ctx context.Context, content []byte, targetPath string) (clip.PublishedArtifact, error) {
	artifact, err := retry.Do(ctx, p.cfg.Publish, func(ctx context.Context, _ int) (clip.PublishedArtifact, error) {
		return p.host.Publish(ctx, targetPath, content)
	}, retry.WithLogger(p.logger))
	if err != nil {
		return clip.PublishedArtifact{}, fmt.Errorf("%w: %s: %w", clip.ErrPublishFailed, targetPath, err)
	}
	p.logger.Info("snapshot published",
		zap.String("file", artifact.StorageFilename),
		zap.String("url", artifact.PublicURL))

	if err := p.waitReachable(ctx, artifact.PublicURL); err != nil {
		return artifact, err
	}
	return artifact, nil
}

func (p *Poller) waitReachable(ctx context.Context, publicURL string) error {
	start := time.Now()
	ceiling := p.cfg.MaxPollAttempts
	for attempt := 1; attempt <= ceiling; attempt++ {
		status, err := p.poll(ctx, publicURL)
		switch {
		case err == nil && status == http.StatusOK:
			elapsed := time.Since(start)
			metrics.ObserveDeployWait("reachable", elapsed)
			p.logger.Info("snapshot reachable",
				zap.String("url", publicURL),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", elapsed))
			return nil
		case ctx.Err() != nil:
			return fmt.Errorf("wait for %s: %w", publicURL, ctx.Err())
		case err != nil:
			p.logger.Debug("poll failed", zap.String("url", publicURL), zap.Int("attempt", attempt), zap.Error(err))
		default:
			p.logger.Debug("snapshot not yet served", zap.String("url", publicURL), zap.Int("attempt", attempt), zap.Int("status", status))
		}
		if attempt == ceiling {
			break
		}
		if p.cfg.ProgressEvery > 0 && attempt%p.cfg.ProgressEvery == 0 {
			remaining := time.Duration(ceiling-attempt) * p.cfg.PollInterval
			p.logger.Info("still waiting for deploy",
				zap.String("url", publicURL),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
				zap.Duration("remaining", remaining))
		}
		if err := retry.Sleep(ctx, p.cfg.PollInterval); err != nil {
			return fmt.Errorf("wait for %s: %w", publicURL, err)
		}
	}
	elapsed := time.Since(start)
	metrics.ObserveDeployWait("timeout", elapsed)
	p.logger.Warn("deploy poll ceiling reached, continuing",
		zap.String("url", publicURL),
		zap.Int("attempts", ceiling),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (p *Poller) poll(ctx context.Context, publicURL string) (int, error) {
	reqCtx := ctx
	if p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}
	resp, err := p.fetcher.Fetch(reqCtx, clip.FetchRequest{URL: publicURL, Headers: NoCacheHeaders()})
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

// NoCacheHeaders asks intermediaries for a fresh copy.
func NoCacheHeaders() http.Header {
	h := http.Header{}
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	return h
}
