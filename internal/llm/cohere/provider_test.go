package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/llm"
)

// TestCompleteSendsMessage checks the request body and reply parsing.
func TestCompleteSendsMessage(t *testing.T) {
	t.Parallel()

	type seen struct {
		path, auth string
		body       map[string]any
	}
	requests := make(chan seen, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		requests <- seen{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Summary: s\nTags: a, b","generation_id":"g1"}`))
	}))
	t.Cleanup(srv.Close)

	p, err := New(Config{APIKey: "co-key", BaseURL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, llm.ProviderCohere, p.Name())

	out, err := p.Complete(context.Background(), "page text")
	require.NoError(t, err)
	require.Equal(t, "Summary: s\nTags: a, b", out)

	req := <-requests
	require.Equal(t, "/v1/chat", req.path)
	require.Equal(t, "Bearer co-key", req.auth)
	require.Equal(t, "page text", req.body["message"])
	require.Equal(t, DefaultModel, req.body["model"])
}

// TestCompleteEmptyText is an error.
func TestCompleteEmptyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	t.Cleanup(srv.Close)

	p, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "x")
	require.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}
