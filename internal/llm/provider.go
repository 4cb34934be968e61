// Package llm defines the language-model provider contract used by the summarizer.
// Backends live in subpackages and are selected once at startup.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderDeepSeek  = "deepseek"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderCohere    = "cohere"
)

// ErrEmptyCompletion is returned when a backend answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Provider completes a single user prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend in logs.
	Name() string
}

// NonEmpty returns ErrEmptyCompletion for blank text.
func NonEmpty(provider, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyCompletion)
	}
	return text, nil
}

// Known reports whether name is a supported provider.
func Known(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderOpenAI, ProviderAzure, ProviderDeepSeek, ProviderGemini, ProviderAnthropic, ProviderCohere:
		return true
	default:
		return false
	}
}
