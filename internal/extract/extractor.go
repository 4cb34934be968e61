// Package extract turns a published snapshot into a title and markdown body.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/deploy"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/retry"
)

// DefaultUntitled is used when no title can be found.
const DefaultUntitled = "unknown title"

// Config controls both extraction paths.
type Config struct {
	// RendererBaseURL is prefixed to the public URL, e.g. https://r.jina.ai.
	RendererBaseURL string
	RendererAPIKey  string
	// DisableRenderer skips straight to direct HTML parsing.
	DisableRenderer bool
	Renderer        retry.Policy
	Fallback        retry.Policy
	RequestTimeout  time.Duration
	// UntitledTitle replaces DefaultUntitled (locale sentinel).
	UntitledTitle string
	// UseReadability narrows the fallback body to the main article.
	UseReadability bool
}

// DefaultConfig returns the renderer-first configuration.
func DefaultConfig() Config {
	return Config{
		RendererBaseURL: "https://r.jina.ai",
		Renderer:        retry.Policy{Name: "extract_renderer", MaxAttempts: 30, BaseDelay: 10 * time.Second, Fixed: true},
		Fallback:        retry.Policy{Name: "extract_html", MaxAttempts: 60, BaseDelay: 5 * time.Second, Fixed: true},
		RequestTimeout:  30 * time.Second,
		UntitledTitle:   DefaultUntitled,
	}
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithFallbackFetcher fetches the snapshot for HTML parsing with a different
// fetcher, such as a headless browser.
func WithFallbackFetcher(f clip.Fetcher) Option {
	return func(e *Extractor) {
		if f != nil {
			e.htmlFetcher = f
		}
	}
}

// Extractor implements the renderer-first, HTML-fallback extraction.
type Extractor struct {
	fetcher     clip.Fetcher
	htmlFetcher clip.Fetcher
	cfg         Config
	converter   *converter
	logger      *zap.Logger
}

// New builds an Extractor.
func New(fetcher clip.Fetcher, cfg Config, logger *zap.Logger, opts ...Option) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Renderer.Name == "" {
		cfg.Renderer.Name = "extract_renderer"
	}
	if cfg.Fallback.Name == "" {
		cfg.Fallback.Name = "extract_html"
	}
	if !cfg.DisableRenderer {
		if strings.TrimSpace(cfg.RendererBaseURL) == "" {
			return nil, fmt.Errorf("renderer base url is required unless the renderer is disabled")
		}
		if err := cfg.Renderer.Validate(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Fallback.Validate(); err != nil {
		return nil, err
	}
	if cfg.UntitledTitle == "" {
		cfg.UntitledTitle = DefaultUntitled
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{
		fetcher:     fetcher,
		htmlFetcher: fetcher,
		cfg:         cfg,
		converter:   newConverter(),
		logger:      logger.Named("extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract never fails: when both paths are exhausted it returns the base name of
// the URL path as title and an empty body.
func (e *Extractor) Extract(ctx context.Context, publicURL string) clip.ExtractedContent {
	if !e.cfg.DisableRenderer {
		content, err := e.viaRenderer(ctx, publicURL)
		if err == nil {
			metrics.ObserveExtraction(content.Source)
			return content
		}
		e.logger.Warn("renderer extraction failed, falling back to html",
			zap.String("url", publicURL), zap.Error(err))
	}

	content, err := e.viaHTML(ctx, publicURL)
	if err == nil {
		metrics.ObserveExtraction(content.Source)
		return content
	}
	e.logger.Error("html extraction failed, using url as title",
		zap.String("url", publicURL), zap.Error(err))
	metrics.ObserveExtraction(clip.SourceNone)
	return clip.ExtractedContent{Title: lastResortTitle(publicURL), Body: "", Source: clip.SourceNone}
}

func (e *Extractor) viaRenderer(ctx context.Context, publicURL string) (clip.ExtractedContent, error) {
	target := strings.TrimRight(e.cfg.RendererBaseURL, "/") + "/" + publicURL
	headers := deploy.NoCacheHeaders()
	headers.Set("X-No-Cache", "true")
	if e.cfg.RendererAPIKey != "" {
		headers.Set("Authorization", "Bearer "+e.cfg.RendererAPIKey)
	}
	return retry.Do(ctx, e.cfg.Renderer, func(ctx context.Context, _ int) (clip.ExtractedContent, error) {
		resp, err := e.fetch(ctx, e.fetcher, target, headers)
		if err != nil {
			if ctx.Err() != nil {
				return clip.ExtractedContent{}, retry.Permanent(ctx.Err())
			}
			// A broken renderer will not recover within this request.
			return clip.ExtractedContent{}, retry.Permanent(fmt.Errorf("renderer request: %w", err))
		}
		if resp.StatusCode != http.StatusOK {
			return clip.ExtractedContent{}, fmt.Errorf("%w: renderer status %d", clip.ErrTransient, resp.StatusCode)
		}
		body := string(resp.Body)
		return clip.ExtractedContent{
			Title:  e.titleFromMarkdown(body),
			Body:   body,
			Source: clip.SourceRenderer,
		}, nil
	}, retry.WithLogger(e.logger))
}

func (e *Extractor) viaHTML(ctx context.Context, publicURL string) (clip.ExtractedContent, error) {
	pageURL, err := url.Parse(publicURL)
	if err != nil {
		return clip.ExtractedContent{}, fmt.Errorf("parse url: %w", err)
	}
	return retry.Do(ctx, e.cfg.Fallback, func(ctx context.Context, _ int) (clip.ExtractedContent, error) {
		resp, err := e.fetch(ctx, e.htmlFetcher, publicURL, deploy.NoCacheHeaders())
		if err != nil {
			if ctx.Err() != nil {
				return clip.ExtractedContent{}, retry.Permanent(ctx.Err())
			}
			return clip.ExtractedContent{}, fmt.Errorf("%w: %w", clip.ErrTransient, err)
		}
		if resp.StatusCode != http.StatusOK {
			return clip.ExtractedContent{}, fmt.Errorf("%w: page status %d", clip.ErrTransient, resp.StatusCode)
		}
		page, err := e.parseHTML(resp.Body, pageURL)
		if err != nil {
			return clip.ExtractedContent{}, retry.Permanent(err)
		}
		return page, nil
	}, retry.WithLogger(e.logger))
}

func (e *Extractor) fetch(ctx context.Context, f clip.Fetcher, target string, headers http.Header) (clip.FetchResponse, error) {
	if e.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}
	return f.Fetch(ctx, clip.FetchRequest{URL: target, Headers: headers})
}

// titleFromMarkdown reads the renderer's "Title:" header line.
func (e *Extractor) titleFromMarkdown(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, "Title:"); ok {
			if title := strings.TrimSpace(rest); title != "" {
				return title
			}
			break
		}
	}
	return e.cfg.UntitledTitle
}

func lastResortTitle(publicURL string) string {
	if u, err := url.Parse(publicURL); err == nil {
		if p := strings.TrimRight(u.Path, "/"); p != "" {
			if unescaped, err := url.PathUnescape(path.Base(p)); err == nil {
				return unescaped
			}
			return path.Base(p)
		}
		if u.Host != "" {
			return u.Host
		}
	}
	return path.Base(publicURL)
}
