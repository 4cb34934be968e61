package clip

import (
	"context"
	"time"
)

// SiteHost publishes raw snapshots to a static host and reports where they will be served.
type SiteHost interface {
	Publish(ctx context.Context, targetPath string, content []byte) (PublishedArtifact, error)
}

// Fetcher issues a GET and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Notifier delivers a human-readable message to a messaging channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Alerter queues a best-effort message for asynchronous delivery. It reports
// whether the message was accepted.
type Alerter interface {
	Dispatch(message string) bool
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces random identifiers for uploads.
type IDGenerator interface {
	NewID() (string, error)
}
