// Package notes persists one structured note per clip.
package notes

import (
	"context"
	"strings"
	"time"

	"github.com/JakeFAU/webclipper/internal/clip"
)

// CreatedLayout is the ISO-8601 UTC layout used for the Created property.
const CreatedLayout = "2006-01-02T15:04:05.000Z"

// Payload is the note as sent to a backend.
type Payload struct {
	Title       string   `json:"title"`
	OriginalURL *string  `json:"original_url"`
	SnapshotURL string   `json:"snapshot_url"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Created     string   `json:"created"`
}

// Store creates a note and returns its URL.
type Store interface {
	CreateNote(ctx context.Context, payload Payload) (string, error)
}

// Ledger remembers which snapshot URLs already have a note.
type Ledger interface {
	Lookup(ctx context.Context, key string) (noteURL string, found bool, err error)
	Remember(ctx context.Context, key, noteURL string) error
}

// BuildPayload converts a record. Blank tags are dropped; an empty tag list
// becomes the single uncategorized tag.
func BuildPayload(record clip.ClipRecord, uncategorized string) Payload {
	tags := make([]string, 0, len(record.Tags))
	for _, tag := range record.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = []string{uncategorized}
	}
	var orig *string
	if record.OriginalURL != nil {
		u := *record.OriginalURL
		orig = &u
	}
	return Payload{
		Title:       record.Title,
		OriginalURL: orig,
		SnapshotURL: record.SnapshotURL,
		Summary:     record.Summary,
		Tags:        tags,
		Created:     record.CreatedAt.UTC().Format(CreatedLayout),
	}
}

// CreatedTime parses Payload.Created back into a time.
func (p Payload) CreatedTime() (time.Time, error) {
	return time.Parse(CreatedLayout, p.Created)
}
