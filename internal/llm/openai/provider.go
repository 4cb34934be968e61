// Package openai implements llm.Provider with chat completions for OpenAI,
// Azure OpenAI and OpenAI-compatible endpoints such as DeepSeek.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/llm"
)

// Defaults per flavor.
const (
	DefaultOpenAIModel     = "gpt-3.5-turbo"
	DefaultDeepSeekModel   = "deepseek-chat"
	DefaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	DefaultAzureAPIVersion = "2024-02-15-preview"
)

// Config selects the endpoint and model.
type Config struct {
	// Flavor is one of llm.ProviderOpenAI, llm.ProviderAzure, llm.ProviderDeepSeek.
	Flavor      string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	// AzureDeployment and AzureAPIVersion apply to the azure flavor.
	AzureDeployment string
	AzureAPIVersion string
	HTTPClient      *http.Client
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider calls the chat completions API.
type Provider struct {
	client chatAPI
	name   string
	model  string
	cfg    Config
}

// New builds a Provider for the configured flavor.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s api key is required", cfg.Flavor)
	}
	var clientCfg openai.ClientConfig
	model := cfg.Model
	switch cfg.Flavor {
	case llm.ProviderOpenAI, "":
		cfg.Flavor = llm.ProviderOpenAI
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		if model == "" {
			model = DefaultOpenAIModel
		}
	case llm.ProviderDeepSeek:
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = DefaultDeepSeekBaseURL
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		if model == "" {
			model = DefaultDeepSeekModel
		}
	case llm.ProviderAzure:
		if cfg.BaseURL == "" || cfg.AzureDeployment == "" {
			return nil, fmt.Errorf("azure endpoint and deployment are required")
		}
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		clientCfg.APIVersion = DefaultAzureAPIVersion
		if cfg.AzureAPIVersion != "" {
			clientCfg.APIVersion = cfg.AzureAPIVersion
		}
		deployment := cfg.AzureDeployment
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
		model = deployment
	default:
		return nil, fmt.Errorf("unsupported openai flavor %q", cfg.Flavor)
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		name:   cfg.Flavor,
		model:  model,
		cfg:    cfg,
	}, nil
}

// Name identifies the flavor.
func (p *Provider) Name() string { return p.name }

// Model reports the model (or Azure deployment) in use.
func (p *Provider) Model() string { return p.model }

// Complete sends prompt as a single user message.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return "", classify(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", p.name, llm.ErrEmptyCompletion)
	}
	return llm.NonEmpty(p.name, resp.Choices[0].Message.Content)
}

// classify marks throttling and server errors as transient.
func classify(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500) {
		return fmt.Errorf("%w: %s: %w", clip.ErrTransient, name, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && (reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500) {
		return fmt.Errorf("%w: %s: %w", clip.ErrTransient, name, err)
	}
	return fmt.Errorf("%s chat completion: %w", name, err)
}
