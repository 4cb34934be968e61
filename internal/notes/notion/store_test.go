package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/notes"
)

// redirectTransport sends every request to the test server.
type redirectTransport struct {
	target *url.URL
}

func (r redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.target.Scheme
	out.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	store, err := New(Config{
		Token:      "secret",
		DatabaseID: "db-1",
		HTTPClient: &http.Client{Transport: redirectTransport{target: target}},
	})
	require.NoError(t, err)
	return store
}

func testPayload(original string) notes.Payload {
	rec := clip.NewClipRecord("A title", original, "https://me.github.io/site/clips/a.html",
		clip.SummaryResult{Summary: "short", Tags: []string{"go", "web"}},
		time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
	return notes.BuildPayload(rec, "uncategorized")
}

func TestCreateNoteSendsProperties(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 1)
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/pages" || r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"page","id":"p1","url":"https://www.notion.so/p1"}`))
	})

	orig := "https://example.com/a"
	noteURL, err := store.CreateNote(context.Background(), testPayload(orig))
	require.NoError(t, err)
	require.Equal(t, "https://www.notion.so/p1", noteURL)

	body := <-bodies
	parent := body["parent"].(map[string]any)
	require.Equal(t, "db-1", parent["database_id"])
	props := body["properties"].(map[string]any)
	require.Equal(t, orig, props[PropOriginalURL].(map[string]any)["url"])
	require.Equal(t, "https://me.github.io/site/clips/a.html", props[PropSnapshotURL].(map[string]any)["url"])
	tags := props[PropTags].(map[string]any)["multi_select"].([]any)
	require.Len(t, tags, 2)
	require.Equal(t, "go", tags[0].(map[string]any)["name"])
	date := props[PropCreated].(map[string]any)["date"].(map[string]any)
	require.Contains(t, date["start"], "2024-05-06T07:08:09")
}

func TestCreateNoteOmitsNullOriginalURL(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 1)
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		_, _ = w.Write([]byte(`{"object":"page","id":"p2","url":"https://www.notion.so/p2"}`))
	})

	_, err := store.CreateNote(context.Background(), testPayload(""))
	require.NoError(t, err)
	props := (<-bodies)["properties"].(map[string]any)
	require.NotContains(t, props, PropOriginalURL)
}

func TestCreateNoteClassifiesErrors(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"Tags is not a property"}`))
	})

	_, err := store.CreateNote(context.Background(), testPayload(""))
	require.Error(t, err)
	require.NotErrorIs(t, err, clip.ErrTransient)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{DatabaseID: "db"})
	require.Error(t, err)
	_, err = New(Config{Token: "t"})
	require.Error(t, err)
}
