// Package anthropic implements llm.Provider on top of llmkit's Anthropic client.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/JakeFAU/webclipper/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

const systemPrompt = "You summarize and tag web pages. Follow the requested output format exactly."

// Config selects the model and credentials.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// promptFunc is the blocking llmkit call, replaced in tests.
type promptFunc func(system, user, apiKey string, settings types.RequestSettings) (string, error)

// Provider sends one system + user prompt pair per completion.
type Provider struct {
	cfg    Config
	prompt promptFunc
}

// New builds a Provider.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Provider{cfg: cfg, prompt: llmkitPrompt}, nil
}

func llmkitPrompt(system, user, apiKey string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(system, user, "", apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", nil
	}
	return response.Content[0].Text, nil
}

// Name identifies the backend.
func (p *Provider) Name() string { return llm.ProviderAnthropic }

// Complete runs the llmkit call; llmkit takes no context, so cancellation only
// stops waiting for it.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	settings := types.RequestSettings{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := p.prompt(systemPrompt, prompt, p.cfg.APIKey, settings)
		done <- result{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("anthropic prompt canceled: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("anthropic prompt: %w", r.err)
		}
		return llm.NonEmpty(llm.ProviderAnthropic, r.text)
	}
}
