package notes_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/hash/sha256"
	"github.com/JakeFAU/webclipper/internal/locale"
	"github.com/JakeFAU/webclipper/internal/notes"
	"github.com/JakeFAU/webclipper/internal/notes/ledger"
	"github.com/JakeFAU/webclipper/internal/retry"
)

type fakeStore struct {
	mu       sync.Mutex
	errs     []error
	payloads []notes.Payload
}

func (f *fakeStore) CreateNote(_ context.Context, p notes.Payload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.payloads)
	f.payloads = append(f.payloads, p)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return "https://notes.example/" + p.Title, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) Dispatch(msg string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
	return true
}

func fastConfig() notes.Config {
	cfg := notes.DefaultConfig()
	cfg.Retry = retry.Policy{Name: "record", MaxAttempts: 3}
	return cfg
}

func record(original string) clip.ClipRecord {
	return clip.NewClipRecord("page", original, "https://me.github.io/site/clips/p.html",
		clip.SummaryResult{Summary: "sum", Tags: []string{"x"}},
		time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC))
}

func TestRecordRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	store := &fakeStore{errs: []error{clip.ErrTransient, clip.ErrTransient}}
	r, err := notes.New(store, locale.English, fastConfig(), nil)
	require.NoError(t, err)

	noteURL, err := r.Record(context.Background(), record("https://example.com"))
	require.NoError(t, err)
	require.Equal(t, "https://notes.example/page", noteURL)
	require.Equal(t, 3, store.calls())
	require.Equal(t, "2024-02-03T04:05:06.789Z", store.payloads[0].Created)
}

// TestRecordNullOriginalURL checks that an absent original URL reaches the
// store as nil rather than an empty string.
func TestRecordNullOriginalURL(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r, err := notes.New(store, locale.English, fastConfig(), nil)
	require.NoError(t, err)

	_, err = r.Record(context.Background(), record(""))
	require.NoError(t, err)
	require.Nil(t, store.payloads[0].OriginalURL)
}

func TestRecordDegradesToPlaceholder(t *testing.T) {
	t.Parallel()

	store := &fakeStore{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	alerter := &alerts{}
	r, err := notes.New(store, locale.Chinese, fastConfig(), nil, notes.WithAlerter(alerter))
	require.NoError(t, err)

	noteURL, err := r.Record(context.Background(), record(""))
	require.NoError(t, err)
	require.Equal(t, notes.DefaultPlaceholderURL, noteURL)
	require.Len(t, alerter.msgs, 1)
	require.Contains(t, alerter.msgs[0], "❌ Notion 保存失败")
}

func TestRecordWithoutDegradation(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.DegradeOnError = false
	store := &fakeStore{errs: []error{clip.ErrTransient, clip.ErrTransient, clip.ErrTransient}}
	r, err := notes.New(store, locale.English, cfg, nil)
	require.NoError(t, err)

	_, err = r.Record(context.Background(), record(""))
	require.ErrorIs(t, err, clip.ErrRecordFailed)
	require.ErrorIs(t, err, retry.ErrRetryExhausted)
}

func TestRecordIsIdempotentPerSnapshot(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	l := ledger.NewMemory()
	r, err := notes.New(store, locale.English, fastConfig(), nil,
		notes.WithLedger(l, sha256.New().URLKey))
	require.NoError(t, err)

	first, err := r.Record(context.Background(), record(""))
	require.NoError(t, err)
	second, err := r.Record(context.Background(), record("https://example.com"))
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.calls())
	require.Equal(t, 1, l.Len())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := notes.New(nil, locale.English, fastConfig(), nil)
	require.Error(t, err)
	_, err = notes.New(&fakeStore{}, locale.English, fastConfig(), nil, notes.WithLedger(ledger.NewMemory(), nil))
	require.Error(t, err)
}
