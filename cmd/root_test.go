package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/config"
)

func stubConfig(t *testing.T, cfg config.Config, gotPath *string) {
	t.Helper()
	orig := loadConfig
	loadConfig = func(path string) (config.Config, error) {
		if gotPath != nil {
			*gotPath = path
		}
		return cfg, nil
	}
	t.Cleanup(func() { loadConfig = orig })
}

func TestCheckConfigPrintsBackends(t *testing.T) {
	var cfg config.Config
	cfg.SiteHost.Kind = config.SiteHostLocal
	cfg.LLM.Provider = "cohere"
	cfg.Notes.Store = config.NoteStorePostgres
	cfg.Notes.Ledger.Kind = config.LedgerRedis
	cfg.Locale.Code = "zh"
	var gotPath string
	stubConfig(t, cfg, &gotPath)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"check-config", "--config", "clipper.yaml", "--env-file", ""})
	require.NoError(t, root.Execute())

	require.Equal(t, "clipper.yaml", gotPath)
	require.Contains(t, out.String(), "site host:    local")
	require.Contains(t, out.String(), "llm provider: cohere")
	require.Contains(t, out.String(), "ledger:       redis")
}

func TestClipRejectsBadTimestamp(t *testing.T) {
	stubConfig(t, config.Config{}, nil)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"clip", "page.html", "--created-at", "yesterday", "--env-file", ""})
	err := root.Execute()
	require.ErrorContains(t, err, "invalid --created-at")
}

func TestClipRequiresFile(t *testing.T) {
	stubConfig(t, config.Config{}, nil)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"clip", "--env-file", ""})
	require.Error(t, root.Execute())
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLIPPER_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("CLIPPER_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("CLIPPER_TEST_DOTENV"))
	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "loaded", os.Getenv("CLIPPER_TEST_DOTENV"))
}

func TestResolveConfigWithoutLoad(t *testing.T) {
	_, err := resolveConfig(t.Context())
	require.Error(t, err)
}
