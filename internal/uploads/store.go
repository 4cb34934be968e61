// Package uploads keeps received snapshots on local disk while they are processed.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
)

// DefaultExtension is appended to names that have none.
const DefaultExtension = ".html"

// Validation errors. Both match clip.ErrInvalidRequest.
var (
	ErrExtensionNotAllowed = fmt.Errorf("%w: file type not allowed", clip.ErrInvalidRequest)
	ErrTooLarge            = fmt.Errorf("%w: file too large", clip.ErrInvalidRequest)
)

// Config controls where and for how long uploads are kept.
type Config struct {
	Dir               string
	MaxBytes          int64
	AllowedExtensions []string
	JanitorInterval   time.Duration
	MaxAge            time.Duration
}

// DefaultConfig keeps at most 10 MiB HTML files for up to an hour.
func DefaultConfig() Config {
	return Config{
		Dir:               "uploads",
		MaxBytes:          10 << 20,
		AllowedExtensions: []string{".html", ".htm"},
		JanitorInterval:   30 * time.Minute,
		MaxAge:            time.Hour,
	}
}

// PrefixGenerator returns the random part of stored names.
type PrefixGenerator interface {
	NewPrefix() (string, error)
}

// Upload is one stored file.
type Upload struct {
	// StoredName is <prefix>_<client name>.
	StoredName string
	Path       string
}

// Store writes uploads under a single directory.
type Store struct {
	cfg      Config
	prefixes PrefixGenerator
	logger   *zap.Logger
}

// New creates the directory if needed.
func New(cfg Config, prefixes PrefixGenerator, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if prefixes == nil {
		return nil, fmt.Errorf("prefix generator is required")
	}
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be > 0")
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultConfig().AllowedExtensions
	}
	exts := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.AllowedExtensions = exts
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cfg: cfg, prefixes: prefixes, logger: logger.Named("uploads")}, nil
}

// MaxBytes is the largest accepted upload.
func (s *Store) MaxBytes() int64 { return s.cfg.MaxBytes }

// NormalizeName strips directories, appends the default extension when none
// is present and rejects extensions outside the allow list.
func (s *Store) NormalizeName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: filename is required", clip.ErrInvalidRequest)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return name + DefaultExtension, nil
	}
	if !slices.Contains(s.cfg.AllowedExtensions, ext) {
		return "", fmt.Errorf("%w: %s (allowed: %s)", ErrExtensionNotAllowed, ext, strings.Join(s.cfg.AllowedExtensions, ", "))
	}
	return name, nil
}

// Save validates and writes content.
func (s *Store) Save(name string, content []byte) (Upload, error) {
	name, err := s.NormalizeName(name)
	if err != nil {
		return Upload{}, err
	}
	if int64(len(content)) > s.cfg.MaxBytes {
		return Upload{}, fmt.Errorf("%w: %d bytes, maximum %d", ErrTooLarge, len(content), s.cfg.MaxBytes)
	}
	prefix, err := s.prefixes.NewPrefix()
	if err != nil {
		return Upload{}, fmt.Errorf("upload prefix: %w", err)
	}
	stored := prefix + "_" + name
	path := filepath.Join(s.cfg.Dir, stored)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return Upload{}, fmt.Errorf("write upload: %w", err)
	}
	return Upload{StoredName: stored, Path: path}, nil
}

// Remove deletes one upload. A missing file is not an error.
func (s *Store) Remove(u Upload) {
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove upload failed", zap.String("path", u.Path), zap.Error(err))
	}
}

// Sweep deletes files last modified more than MaxAge before now.
func (s *Store) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.cfg.MaxAge {
			continue
		}
		path := filepath.Join(s.cfg.Dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("remove expired upload failed", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
		s.logger.Info("removed expired upload", zap.String("path", path))
	}
	return removed, nil
}

// RunJanitor sweeps every JanitorInterval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context) {
	if s.cfg.JanitorInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Sweep(now); err != nil {
				s.logger.Error("upload sweep failed", zap.Error(err))
			}
		}
	}
}

// Purge removes the upload directory and everything in it.
func (s *Store) Purge() error {
	if err := os.RemoveAll(s.cfg.Dir); err != nil {
		return fmt.Errorf("purge uploads: %w", err)
	}
	return nil
}
