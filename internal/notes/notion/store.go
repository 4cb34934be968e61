// Package notion writes clip notes as pages of a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/notes"
	"github.com/JakeFAU/webclipper/internal/retry"
)

// Database property names.
const (
	PropTitle       = "Title"
	PropOriginalURL = "OriginalURL"
	PropSnapshotURL = "SnapshotURL"
	PropSummary     = "Summary"
	PropTags        = "Tags"
	PropCreated     = "Created"
)

// Config identifies the target database.
type Config struct {
	Token      string
	DatabaseID string
	HTTPClient *http.Client
}

// Store implements notes.Store.
type Store struct {
	pages      notionapi.PageService
	databaseID notionapi.DatabaseID
}

// New builds a Store from an integration token.
func New(cfg Config) (*Store, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	var opts []notionapi.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(cfg.HTTPClient))
	}
	client := notionapi.NewClient(notionapi.Token(cfg.Token), opts...)
	return &Store{pages: client.Page, databaseID: notionapi.DatabaseID(cfg.DatabaseID)}, nil
}

// CreateNote creates one database page and returns its URL.
func (s *Store) CreateNote(ctx context.Context, payload notes.Payload) (string, error) {
	created, err := payload.CreatedTime()
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("parse created: %w", err))
	}
	page, err := s.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: properties(payload, created),
	})
	if err != nil {
		return "", wrapError(err)
	}
	if page == nil || page.URL == "" {
		return "", fmt.Errorf("notion returned no page url")
	}
	return page.URL, nil
}

func properties(p notes.Payload, created time.Time) notionapi.Properties {
	tags := make([]notionapi.Option, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tags = append(tags, notionapi.Option{Name: tag})
	}
	start := notionapi.Date(created)
	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: p.Title}}},
		},
		PropSnapshotURL: notionapi.URLProperty{URL: p.SnapshotURL},
		PropSummary: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: p.Summary}}},
		},
		PropTags:    notionapi.MultiSelectProperty{MultiSelect: tags},
		PropCreated: notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}},
	}
	// An absent url property is stored as empty.
	if p.OriginalURL != nil {
		props[PropOriginalURL] = notionapi.URLProperty{URL: *p.OriginalURL}
	}
	return props
}

func wrapError(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: notion %d: %w", clip.ErrTransient, apiErr.Status, err)
		}
		return fmt.Errorf("notion %d: %w", apiErr.Status, err)
	}
	return fmt.Errorf("%w: notion: %w", clip.ErrTransient, err)
}
