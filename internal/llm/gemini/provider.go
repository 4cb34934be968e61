// Package gemini implements llm.Provider with the Generative Language REST API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// harmCategories are all relaxed to BLOCK_NONE; summaries of arbitrary pages
// otherwise trip the filters on news content.
var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Config selects the model and credentials.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int64
	// Endpoint overrides the API root (tests, regional proxies).
	Endpoint string
}

// Provider calls models.generateContent.
type Provider struct {
	svc   *generativelanguage.Service
	model string
	cfg   Config
}

// New builds a Provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1024
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create generative language service: %w", err)
	}
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &Provider{svc: svc, model: model, cfg: cfg}, nil
}

// Name identifies the backend.
func (p *Provider) Name() string { return llm.ProviderGemini }

// Complete returns the first candidate's text. A blocked prompt and an empty
// answer are both errors.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
		GenerationConfig: &generativelanguage.GenerationConfig{MaxOutputTokens: p.cfg.MaxOutputTokens},
	}
	for _, category := range harmCategories {
		req.SafetySettings = append(req.SafetySettings, &generativelanguage.SafetySetting{
			Category:  category,
			Threshold: "BLOCK_NONE",
		})
	}
	resp, err := p.svc.Models.GenerateContent(p.model, req).Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: %w: %s", clip.ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	var b strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return llm.NonEmpty(llm.ProviderGemini, b.String())
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500) {
		return fmt.Errorf("%w: gemini: %w", clip.ErrTransient, err)
	}
	return fmt.Errorf("gemini generate content: %w", err)
}
