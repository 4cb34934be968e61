// Package notify formats pipeline messages and provides channel-agnostic
// notifiers. Backends live in subpackages.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/locale"
)

// Completed formats the success message for one clip.
func Completed(loc locale.Locale, title, summary, originalURL, snapshotURL, noteURL string) string {
	return locale.Render(loc.Messages.Completed, map[string]string{
		"title":        title,
		"summary":      summary,
		"original_url": originalURL,
		"snapshot_url": snapshotURL,
		"note_url":     noteURL,
	})
}

// Failed formats the pipeline failure message.
func Failed(loc locale.Locale, err error) string {
	return locale.Render(loc.Messages.Failed, map[string]string{"error": err.Error()})
}

// Log writes messages to a zap logger. Used when no channel is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog builds a Log notifier.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("notify")}
}

// Notify logs the message at info level.
func (l *Log) Notify(_ context.Context, message string) error {
	l.logger.Info("notification", zap.String("message", message))
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []clip.Notifier

// Notify calls each notifier in order.
func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
