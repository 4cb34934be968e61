package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/locale"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/retry"
)

// DefaultPlaceholderURL is returned when recording degrades.
const DefaultPlaceholderURL = "https://www.notion.so/error-saving"

// Config controls retries and degradation.
type Config struct {
	Retry          retry.Policy
	DegradeOnError bool
	PlaceholderURL string
}

// DefaultConfig retries three times starting at two seconds.
func DefaultConfig() Config {
	return Config{
		Retry:          retry.Policy{Name: "record", MaxAttempts: 3, BaseDelay: 2 * time.Second},
		DegradeOnError: true,
		PlaceholderURL: DefaultPlaceholderURL,
	}
}

// KeyFunc maps a snapshot URL to a ledger key.
type KeyFunc func(snapshotURL string) string

// Option customizes a Recorder.
type Option func(*Recorder)

// WithLedger enables idempotent creation keyed by snapshot URL.
func WithLedger(ledger Ledger, key KeyFunc) Option {
	return func(r *Recorder) {
		r.ledger = ledger
		r.key = key
	}
}

// WithAlerter sends a message when recording degrades.
func WithAlerter(alerter clip.Alerter) Option {
	return func(r *Recorder) { r.alerter = alerter }
}

// Recorder writes clip records to a Store.
type Recorder struct {
	store   Store
	locale  locale.Locale
	cfg     Config
	ledger  Ledger
	key     KeyFunc
	alerter clip.Alerter
	logger  *zap.Logger
}

// New builds a Recorder.
func New(store Store, loc locale.Locale, cfg Config, logger *zap.Logger, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("note store is required")
	}
	if cfg.Retry.Name == "" {
		cfg.Retry.Name = "record"
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	if cfg.PlaceholderURL == "" {
		cfg.PlaceholderURL = DefaultPlaceholderURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{store: store, locale: loc, cfg: cfg, logger: logger.Named("notes")}
	for _, opt := range opts {
		opt(r)
	}
	if r.ledger != nil && r.key == nil {
		return nil, fmt.Errorf("ledger requires a key function")
	}
	return r, nil
}

// Record creates the note and returns its URL. With degradation enabled a
// failed write returns the placeholder URL and no error.
func (r *Recorder) Record(ctx context.Context, record clip.ClipRecord) (string, error) {
	payload := BuildPayload(record, r.locale.UncategorizedTag)
	logger := r.logger.With(zap.String("snapshot_url", record.SnapshotURL))

	var key string
	if r.ledger != nil {
		key = r.key(record.SnapshotURL)
		noteURL, found, err := r.ledger.Lookup(ctx, key)
		switch {
		case err != nil:
			logger.Warn("note ledger lookup failed", zap.Error(err))
		case found:
			logger.Info("note already recorded", zap.String("note_url", noteURL))
			return noteURL, nil
		}
	}

	noteURL, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context, _ int) (string, error) {
		return r.store.CreateNote(ctx, payload)
	}, retry.WithLogger(logger))
	if err == nil {
		if r.ledger != nil {
			if lerr := r.ledger.Remember(ctx, key, noteURL); lerr != nil {
				logger.Warn("note ledger write failed", zap.Error(lerr))
			}
		}
		return noteURL, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return "", fmt.Errorf("%w: %w", clip.ErrRecordFailed, err)
	}
	if !r.cfg.DegradeOnError {
		return "", fmt.Errorf("%w: %w", clip.ErrRecordFailed, err)
	}

	logger.Error("note recording degraded to placeholder", zap.Error(err))
	metrics.ObserveDegradation("record")
	if r.alerter != nil {
		msg := locale.Render(r.locale.Messages.NoteDegraded, map[string]string{"error": err.Error()})
		if !r.alerter.Dispatch(msg) {
			logger.Warn("note alert dropped")
		}
	}
	return r.cfg.PlaceholderURL, nil
}
