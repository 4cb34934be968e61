// Package github publishes snapshots to a GitHub Pages repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/retry"
	"github.com/JakeFAU/webclipper/internal/sitehost"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultBranch        = "main"
	defaultCommitMessage = "Add web clip: "
)

// Config describes the Pages repository.
type Config struct {
	Token string
	// Repo is "owner/name".
	Repo          string
	Branch        string
	Dir           string
	PagesDomain   string
	CommitMessage string
	// APIBaseURL overrides https://api.github.com/ (GitHub Enterprise, tests).
	APIBaseURL string
	// RequestsPerSecond throttles contents API calls; zero disables throttling.
	RequestsPerSecond float64
}

// APIError is a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
}

// Host implements clip.SiteHost using the contents API.
type Host struct {
	client  *gh.Client
	owner   string
	repo    string
	cfg     Config
	limiter *rate.Limiter
}

// New builds a Host authenticated with a static token.
func New(ctx context.Context, cfg Config) (*Host, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("github token is required")
	}
	tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	tc.Timeout = defaultTimeout
	return NewWithClient(gh.NewClient(tc), cfg)
}

// NewWithClient wires an existing go-github client.
func NewWithClient(client *gh.Client, cfg Config) (*Host, error) {
	if client == nil {
		return nil, fmt.Errorf("github client is required")
	}
	owner, repo, ok := strings.Cut(strings.TrimSpace(cfg.Repo), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("github repo must be owner/name, got %q", cfg.Repo)
	}
	if strings.TrimSpace(cfg.PagesDomain) == "" {
		cfg.PagesDomain = owner + ".github.io"
	}
	if cfg.Branch == "" {
		cfg.Branch = defaultBranch
	}
	if cfg.Dir == "" {
		cfg.Dir = sitehost.DefaultDir
	}
	if cfg.CommitMessage == "" {
		cfg.CommitMessage = defaultCommitMessage
	}
	if cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api base url: %w", err)
		}
		client.BaseURL = base
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Host{client: client, owner: owner, repo: repo, cfg: cfg, limiter: limiter}, nil
}

// Publish commits the snapshot to <dir>/<filename> and returns its Pages URL.
func (h *Host) Publish(ctx context.Context, filename string, content []byte) (clip.PublishedArtifact, error) {
	objectPath, err := sitehost.ObjectPath(h.cfg.Dir, filename)
	if err != nil {
		return clip.PublishedArtifact{}, retry.Permanent(err)
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return clip.PublishedArtifact{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(h.cfg.CommitMessage + filename),
		Content: content,
		Branch:  gh.Ptr(h.cfg.Branch),
	}
	if _, _, err := h.client.Repositories.CreateFile(ctx, h.owner, h.repo, objectPath, opts); err != nil {
		return clip.PublishedArtifact{}, wrapError(err)
	}
	base := fmt.Sprintf("https://%s/%s", strings.Trim(h.cfg.PagesDomain, "/"), h.repo)
	return clip.PublishedArtifact{
		StorageFilename: filename,
		PublicURL:       sitehost.PublicURL(base, objectPath),
	}, nil
}

// permanentStatus lists responses that no retry can fix: bad credentials,
// missing access or repository, and rejected input.
var permanentStatus = map[int]bool{
	http.StatusUnauthorized:        true,
	http.StatusForbidden:           true,
	http.StatusNotFound:            true,
	http.StatusUnprocessableEntity: true,
}

// wrapError converts go-github errors. Only permanentStatus codes skip retries.
func wrapError(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: github rate limited: %v", clip.ErrTransient, err)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: github secondary rate limit: %v", clip.ErrTransient, err)
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{StatusCode: ghErr.Response.StatusCode, Message: ghErr.Message}
		if permanentStatus[ghErr.Response.StatusCode] {
			return retry.Permanent(apiErr)
		}
		return fmt.Errorf("%w: %w", clip.ErrTransient, apiErr)
	}
	return fmt.Errorf("%w: create file: %w", clip.ErrTransient, err)
}
