package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clock/system"
	"github.com/JakeFAU/webclipper/internal/config"
	"github.com/JakeFAU/webclipper/internal/dispatcher"
	"github.com/JakeFAU/webclipper/internal/notify"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	body := `
sitehost:
  kind: local
  local:
    root_dir: ` + filepath.Join(dir, "site") + `
    base_url: https://clips.example.com
upload:
  dir: ` + filepath.Join(dir, "uploads") + `
llm:
  provider: openai
  openai:
    api_key: sk-test
notes:
  store: notion
  notion:
    token: secret_abc
    database_id: db-1
  ledger:
    kind: memory
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return &cfg
}

func TestBuildWiresOfflineBackends(t *testing.T) {
	cfg := loadConfig(t)

	app, err := Build(context.Background(), cfg,
		WithLogger(zap.NewNop()),
		WithClock(system.Fixed{At: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}),
	)
	require.NoError(t, err)
	require.NotNil(t, app.Orchestrator())
	require.NotNil(t, app.limiter)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, app.Close(ctx))
}

func TestBuildRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"site host", func(c *config.Config) { c.SiteHost.Kind = "ftp" }, "unsupported site host"},
		{"provider", func(c *config.Config) { c.LLM.Provider = "llama" }, "unsupported llm provider"},
		{"note store", func(c *config.Config) { c.Notes.Store = "evernote" }, "unsupported note store"},
		{"locale", func(c *config.Config) { c.Locale.Code = "xx" }, "locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			tt.mutate(cfg)
			_, err := Build(context.Background(), cfg, WithLogger(zap.NewNop()))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSetupNotifierFallsBackToLog(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t)
	cfg.Notify.Log.Enabled = false
	app, err := NewApp(cfg, zap.NewNop())
	require.NoError(t, err)

	n, err := setupNotifier(context.Background(), app)
	require.NoError(t, err)
	require.IsType(t, &notify.Log{}, n)
}

func TestSetupProviderSelectsBackend(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t)
	llmCfg := cfg.LLM
	llmCfg.Provider = "deepseek"
	llmCfg.DeepSeek.APIKey = "ds-key"

	p, err := setupProvider(context.Background(), llmCfg)
	require.NoError(t, err)
	require.Equal(t, "deepseek", p.Name())
}

func TestNewAppRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewApp(nil, nil)
	require.Error(t, err)
}

// TestBuildFailureShutsDownTracing fails after the tracer provider and the
// dispatcher were started; the installed provider must be shut down.
func TestBuildFailureShutsDownTracing(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Notes.Store = "evernote"

	_, err := Build(context.Background(), cfg, WithLogger(zap.NewNop()))
	require.ErrorContains(t, err, "unsupported note store")

	_, span := otel.Tracer("fx-test").Start(context.Background(), "after-failed-build")
	defer span.End()
	require.False(t, span.IsRecording())
}

func TestAbortDrainsDispatcher(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t)
	app, err := NewApp(cfg, zap.NewNop())
	require.NoError(t, err)
	app.dispatch, err = dispatcher.New(notify.NewLog(zap.NewNop()), dispatcher.Config{
		Workers:    1,
		QueueDepth: 4,
	}, zap.NewNop())
	require.NoError(t, err)
	app.dispatch.Start()
	require.True(t, app.dispatch.Dispatch("queued before failure"))

	shutdownCalls := 0
	app.tracerShutdown = func(context.Context) error {
		shutdownCalls++
		return nil
	}

	app.abort(context.Background())
	require.False(t, app.dispatch.Dispatch("after abort"))
	require.Equal(t, 1, shutdownCalls)
}
