// Package summarize derives a short summary and tags for extracted page content.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/llm"
	"github.com/JakeFAU/webclipper/internal/locale"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/retry"
)

// Config controls retries and degradation.
type Config struct {
	Retry           retry.Policy
	MaxContentRunes int
	// DegradeOnError returns the default summary instead of failing the pipeline.
	DegradeOnError bool
	// NotifyOnError sends an alert when degrading.
	NotifyOnError bool
	// DefaultSummary and DefaultTags override the locale defaults when set.
	DefaultSummary string
	DefaultTags    []string
}

// DefaultConfig retries three times starting at one second.
func DefaultConfig() Config {
	return Config{
		Retry:           retry.Policy{Name: "summarize", MaxAttempts: 3, BaseDelay: time.Second},
		MaxContentRunes: DefaultMaxContentRunes,
		DegradeOnError:  true,
		NotifyOnError:   true,
	}
}

// Summarizer wraps a provider with prompting, parsing and retries.
type Summarizer struct {
	provider llm.Provider
	locale   locale.Locale
	cfg      Config
	alerter  clip.Alerter
	logger   *zap.Logger
}

// New builds a Summarizer. alerter may be nil when alerts are not wanted.
func New(provider llm.Provider, loc locale.Locale, cfg Config, alerter clip.Alerter, logger *zap.Logger) (*Summarizer, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("locale %s: %w", loc.Code, err)
	}
	if cfg.Retry.Name == "" {
		cfg.Retry.Name = "summarize"
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		provider: provider,
		locale:   loc,
		cfg:      cfg,
		alerter:  alerter,
		logger:   logger.Named("summarize"),
	}, nil
}

// Summarize asks the provider for a summary and tags. With degradation enabled
// it never returns an error; the result then carries the defaults and Degraded.
func (s *Summarizer) Summarize(ctx context.Context, content clip.ExtractedContent) (clip.SummaryResult, error) {
	prompt := BuildPrompt(s.locale, content.Body, s.cfg.MaxContentRunes)

	result, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context, _ int) (clip.SummaryResult, error) {
		text, err := s.provider.Complete(ctx, prompt)
		if err != nil {
			return clip.SummaryResult{}, err
		}
		return Parse(s.locale, text)
	}, retry.WithLogger(s.logger.With(zap.String("provider", s.provider.Name()))))
	if err == nil {
		s.logger.Debug("summary generated", zap.Int("tags", len(result.Tags)))
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return clip.SummaryResult{}, fmt.Errorf("%w: %w", clip.ErrSummarizeFailed, err)
	}
	if !s.cfg.DegradeOnError {
		return clip.SummaryResult{}, fmt.Errorf("%w: %w", clip.ErrSummarizeFailed, err)
	}

	s.logger.Error("summarizer degraded to defaults", zap.String("provider", s.provider.Name()), zap.Error(err))
	metrics.ObserveDegradation("summarize")
	if s.cfg.NotifyOnError && s.alerter != nil {
		msg := locale.Render(s.locale.Messages.SummarizerDegraded, map[string]string{"error": err.Error()})
		if !s.alerter.Dispatch(msg) {
			s.logger.Warn("summarizer alert dropped")
		}
	}
	return s.defaults(), nil
}

func (s *Summarizer) defaults() clip.SummaryResult {
	summary := s.cfg.DefaultSummary
	if summary == "" {
		summary = s.locale.DefaultSummary
	}
	var tags []string
	for _, t := range s.cfg.DefaultTags {
		if t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = []string{s.locale.UncategorizedTag}
	}
	return clip.SummaryResult{Summary: summary, Tags: tags, Degraded: true}
}
