package clip

import (
	"fmt"
	"net/http"
	"path"
	"time"
)

// Status is the terminal outcome of one pipeline run.
type Status string

// Pipeline outcomes reported to callers.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ClipRequest is the input to one pipeline run.
type ClipRequest struct {
	ID          string
	Content     []byte
	Filename    string
	OriginalURL string
}

// Validate checks the fields every step depends on. Extension and size limits
// are enforced where the upload is received.
func (r ClipRequest) Validate() error {
	if len(r.Content) == 0 {
		return fmt.Errorf("%w: content is empty", ErrInvalidRequest)
	}
	name := path.Base(r.Filename)
	if r.Filename == "" || name != r.Filename || name == "." || name == ".." {
		return fmt.Errorf("%w: filename %q must be a single path segment", ErrInvalidRequest, r.Filename)
	}
	return nil
}

// PublishedArtifact is the snapshot as written to the static host.
// PublicURL is not guaranteed to resolve until the deploy poller confirms it.
type PublishedArtifact struct {
	StorageFilename string `json:"storage_filename"`
	PublicURL       string `json:"public_url"`
}

// ExtractedContent is the normalized text of a published snapshot.
type ExtractedContent struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Source string `json:"source"`
}

// Extraction sources recorded on ExtractedContent.
const (
	SourceRenderer = "renderer"
	SourceHTML     = "html"
	SourceNone     = "none"
)

// SummaryResult carries the model-derived summary and tags.
type SummaryResult struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Degraded bool     `json:"degraded"`
}

// ClipRecord is the unit persisted to the note store. Build it with NewClipRecord;
// it is not modified after construction.
type ClipRecord struct {
	Title       string
	OriginalURL *string
	SnapshotURL string
	Summary     string
	Tags        []string
	CreatedAt   time.Time
}

// NewClipRecord builds an immutable record. An empty originalURL is stored as nil.
func NewClipRecord(title, originalURL, snapshotURL string, summary SummaryResult, createdAt time.Time) ClipRecord {
	var orig *string
	if originalURL != "" {
		u := originalURL
		orig = &u
	}
	return ClipRecord{
		Title:       title,
		OriginalURL: orig,
		SnapshotURL: snapshotURL,
		Summary:     summary.Summary,
		Tags:        append([]string(nil), summary.Tags...),
		CreatedAt:   createdAt.UTC(),
	}
}

// PipelineResult is returned to the caller of the orchestrator.
type PipelineResult struct {
	Status      Status `json:"status"`
	SnapshotURL string `json:"github_url,omitempty"`
	NoteURL     string `json:"notion_url,omitempty"`
	ErrorDetail string `json:"detail,omitempty"`
}

// FetchRequest describes a single HTTP GET issued by a Fetcher.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation. Non-2xx
// responses are returned with their status code rather than as errors.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
