// Package cohere implements llm.Provider with Cohere's chat endpoint.
package cohere

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/JakeFAU/webclipper/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "command-r"

// Config selects the model and credentials.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Provider calls the chat endpoint with a single message.
type Provider struct {
	client *cohereclient.Client
	model  string
}

// New builds a Provider.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("cohere api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	var client *cohereclient.Client
	if cfg.BaseURL != "" {
		client = cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(httpClient),
			cohereclient.WithBaseURL(cfg.BaseURL),
		)
	} else {
		client = cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(httpClient),
		)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

// Name identifies the backend.
func (p *Provider) Name() string { return llm.ProviderCohere }

// Complete sends prompt as the chat message and returns the reply text.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	model := p.model
	resp, err := p.client.Chat(ctx, &cohere.ChatRequest{
		Message: prompt,
		Model:   &model,
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("cohere: %w", llm.ErrEmptyCompletion)
	}
	return llm.NonEmpty(llm.ProviderCohere, resp.Text)
}
