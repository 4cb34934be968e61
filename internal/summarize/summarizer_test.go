package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/locale"
	"github.com/JakeFAU/webclipper/internal/retry"
)

type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

func (p *scriptedProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := len(p.prompts)
	p.prompts = append(p.prompts, prompt)
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Dispatch(msg string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
	return true
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = retry.Policy{Name: "summarize", MaxAttempts: 3}
	return cfg
}

func TestSummarizeSuccess(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{replies: []string{"摘要：一段简短摘要\n标签：新闻， 科技，，AI\n"}}
	s, err := New(provider, locale.Chinese, fastConfig(), nil, nil)
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), clip.ExtractedContent{Title: "t", Body: "body"})
	require.NoError(t, err)
	require.Equal(t, "一段简短摘要", got.Summary)
	require.Equal(t, []string{"新闻", "科技", "AI"}, got.Tags)
	require.False(t, got.Degraded)
	require.Contains(t, provider.prompts[0], "body...")
}

func TestSummarizeRetriesFormatErrors(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{replies: []string{
		"I cannot follow formats",
		"Summary: ok\nTags: a, b, c",
	}}
	s, err := New(provider, locale.English, fastConfig(), nil, nil)
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), clip.ExtractedContent{Body: "x"})
	require.NoError(t, err)
	require.Equal(t, 2, provider.calls())
	require.Equal(t, []string{"a", "b", "c"}, got.Tags)
}

// TestSummarizeNeverReturnsEmptyTags covers the degraded path: the result
// always carries at least one tag.
func TestSummarizeNeverReturnsEmptyTags(t *testing.T) {
	t.Parallel()

	cases := map[string]*scriptedProvider{
		"provider errors": {errs: []error{clip.ErrTransient, clip.ErrTransient, clip.ErrTransient}},
		"no tags":         {replies: []string{"Summary: x\nTags: ", "Summary: x\nTags: ,,", "Summary: x"}},
		"empty summary":   {replies: []string{"Summary:\nTags: a", "Tags: a", ""}},
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			alerter := &recordingAlerter{}
			s, err := New(provider, locale.English, fastConfig(), alerter, nil)
			require.NoError(t, err)

			got, err := s.Summarize(context.Background(), clip.ExtractedContent{Body: "x"})
			require.NoError(t, err)
			require.True(t, got.Degraded)
			require.NotEmpty(t, got.Tags)
			require.Equal(t, locale.English.DefaultSummary, got.Summary)
			require.Equal(t, 3, provider.calls())
			require.Len(t, alerter.messages, 1)
			require.True(t, strings.HasPrefix(alerter.messages[0], "⚠️ AI service alert"))
		})
	}
}

func TestSummarizeConfiguredDefaults(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.NotifyOnError = false
	cfg.DefaultSummary = "n/a"
	cfg.DefaultTags = []string{"", "inbox"}
	alerter := &recordingAlerter{}
	provider := &scriptedProvider{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	s, err := New(provider, locale.Chinese, cfg, alerter, nil)
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), clip.ExtractedContent{})
	require.NoError(t, err)
	require.Equal(t, clip.SummaryResult{Summary: "n/a", Tags: []string{"inbox"}, Degraded: true}, got)
	require.Empty(t, alerter.messages)
}

func TestSummarizeWithoutDegradation(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.DegradeOnError = false
	provider := &scriptedProvider{errs: []error{clip.ErrBlocked, clip.ErrBlocked, clip.ErrBlocked}}
	s, err := New(provider, locale.English, cfg, nil, nil)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), clip.ExtractedContent{})
	require.ErrorIs(t, err, clip.ErrSummarizeFailed)
	require.ErrorIs(t, err, retry.ErrRetryExhausted)
	require.ErrorIs(t, err, clip.ErrBlocked)
}

func TestSummarizeCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := New(&scriptedProvider{}, locale.English, fastConfig(), nil, nil)
	require.NoError(t, err)

	_, err = s.Summarize(ctx, clip.ExtractedContent{})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, clip.ErrSummarizeFailed)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, locale.English, DefaultConfig(), nil, nil)
	require.Error(t, err)

	broken := locale.English
	broken.PromptTemplate = "no content"
	_, err = New(&scriptedProvider{}, broken, DefaultConfig(), nil, nil)
	require.Error(t, err)

	cfg := DefaultConfig()
	cfg.Retry.MaxAttempts = 0
	_, err = New(&scriptedProvider{}, locale.English, cfg, nil, nil)
	require.Error(t, err)
}
