package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/llm"
)

type seenRequest struct {
	path, query, auth, apiKey string
	body                      map[string]any
}

func chatServer(t *testing.T, status int, reply string) (*httptest.Server, chan seenRequest) {
	t.Helper()
	seen := make(chan seenRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		select {
		case seen <- seenRequest{
			path: r.URL.Path, query: r.URL.RawQuery,
			auth: r.Header.Get("Authorization"), apiKey: r.Header.Get("api-key"),
			body: body,
		}:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

// TestCompleteOpenAI sends the prompt as one user message to the default model.
func TestCompleteOpenAI(t *testing.T) {
	t.Parallel()

	srv, seen := chatServer(t, http.StatusOK, "Summary: s\nTags: a, b")
	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	require.Equal(t, llm.ProviderOpenAI, p.Name())

	got, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Summary: s\nTags: a, b", got)

	req := <-seen
	require.Equal(t, "/v1/chat/completions", req.path)
	require.Equal(t, "Bearer sk-test", req.auth)
	require.Equal(t, DefaultOpenAIModel, req.body["model"])
	msgs := req.body["messages"].([]any)
	require.Len(t, msgs, 1)
	require.Equal(t, "user", msgs[0].(map[string]any)["role"])
	require.Equal(t, "hello", msgs[0].(map[string]any)["content"])
}

// TestCompleteDeepSeekDefaults uses the deepseek model name.
func TestCompleteDeepSeekDefaults(t *testing.T) {
	t.Parallel()

	srv, seen := chatServer(t, http.StatusOK, "ok")
	p, err := New(Config{Flavor: llm.ProviderDeepSeek, APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, DefaultDeepSeekModel, (<-seen).body["model"])
}

// TestCompleteAzureDeployment routes through the deployment path with the api version.
func TestCompleteAzureDeployment(t *testing.T) {
	t.Parallel()

	srv, seen := chatServer(t, http.StatusOK, "ok")
	p, err := New(Config{Flavor: llm.ProviderAzure, APIKey: "az", BaseURL: srv.URL, AzureDeployment: "clipper-gpt"})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "x")
	require.NoError(t, err)

	req := <-seen
	require.Equal(t, "/openai/deployments/clipper-gpt/chat/completions", req.path)
	require.Equal(t, "api-version="+DefaultAzureAPIVersion, req.query)
	require.Equal(t, "az", req.apiKey)
}

// TestCompleteErrors maps throttling to ErrTransient and blank replies to ErrEmptyCompletion.
func TestCompleteErrors(t *testing.T) {
	t.Parallel()

	srv, _ := chatServer(t, http.StatusTooManyRequests, "")
	p, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "x")
	require.ErrorIs(t, err, clip.ErrTransient)

	blank, _ := chatServer(t, http.StatusOK, "   ")
	p, err = New(Config{APIKey: "k", BaseURL: blank.URL})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "x")
	require.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{Flavor: llm.ProviderAzure, APIKey: "k"})
	require.Error(t, err)
	_, err = New(Config{Flavor: "palm", APIKey: "k"})
	require.Error(t, err)
}
