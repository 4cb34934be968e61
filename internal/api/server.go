// Package api exposes the HTTP interface for the clipper service.
package api

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/uploads"
)

const (
	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 32 << 20
	// formOverhead allows for multipart boundaries and the url field.
	formOverhead = 1 << 20
	urlField     = "url"
)

// Processor runs one clip through the pipeline.
type Processor interface {
	Process(ctx context.Context, req clip.ClipRequest) (clip.PipelineResult, error)
}

// UploadStore keeps the received snapshot on disk while it is processed.
type UploadStore interface {
	Save(name string, content []byte) (uploads.Upload, error)
	Remove(u uploads.Upload)
	MaxBytes() int64
}

// RateLimiter decides whether a client may upload now.
type RateLimiter interface {
	Allow(key string) bool
}

// ReadinessCheck reports whether downstream dependencies are usable.
type ReadinessCheck func(ctx context.Context) error

// Config controls authentication and request handling.
type Config struct {
	AuthEnabled bool
	APIKey      string
	// ProbeTimeout bounds health, readiness and metrics requests. Uploads are
	// not bounded: a clip runs until the pipeline's own ceilings.
	ProbeTimeout time.Duration
}

// Server wires HTTP handlers to the pipeline and upload store.
type Server struct {
	router    chi.Router
	processor Processor
	uploads   UploadStore
	limiter   RateLimiter
	ready     ReadinessCheck
	cfg       Config
	logger    *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithRateLimiter limits uploads per remote address.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithReadinessCheck is consulted by /readyz.
func WithReadinessCheck(check ReadinessCheck) Option {
	return func(s *Server) { s.ready = check }
}

// NewServer constructs a Server with middleware and routes.
func NewServer(processor Processor, store UploadStore, cfg Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if store == nil {
		return nil, errors.New("upload store is required")
	}
	if cfg.AuthEnabled && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required when auth is enabled")
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		processor: processor,
		uploads:   store,
		cfg:       cfg,
		logger:    logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)

	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(cfg.ProbeTimeout))
		r.Get("/healthz", s.healthz)
		r.Get("/readyz", s.readyz)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	})

	r.Group(func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(bearerAuthMiddleware(cfg.APIKey))
		}
		if s.limiter != nil {
			r.Use(rateLimitMiddleware(s.limiter, s.logger))
		}
		r.Post("/", s.upload)
		r.Post("/upload", s.upload)
		r.Post("/upload/", s.upload)
	})

	s.router = r
	return s, nil
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", requestIDFrom(r.Context())))
	maxBytes := s.uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, uploads.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("remove multipart temp files failed", zap.Error(err))
		}
	}()

	header := firstFile(r.MultipartForm)
	if header == nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	content, err := readPart(header, maxBytes)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	upload, err := s.uploads.Save(header.Filename, content)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	defer s.uploads.Remove(upload)

	originalURL := strings.TrimSpace(r.FormValue(urlField))
	logger.Info("clip received",
		zap.String("file", upload.StoredName),
		zap.Int("bytes", len(content)),
		zap.String("original_url", originalURL))

	// A dropped connection does not abort a clip in progress.
	ctx := context.WithoutCancel(r.Context())
	result, err := s.processor.Process(ctx, clip.ClipRequest{
		ID:          requestIDFrom(r.Context()),
		Content:     content,
		Filename:    upload.StoredName,
		OriginalURL: originalURL,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// firstFile returns the first file part, ordered by field name.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	fields := make([]string, 0, len(form.File))
	for field, headers := range form.File {
		if len(headers) > 0 {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	slices.Sort(fields)
	return form.File[fields[0]][0]
}

func readPart(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if header.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, maximum %d", uploads.ErrTooLarge, header.Size, maxBytes)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("%w: maximum %d bytes", uploads.ErrTooLarge, maxBytes)
	}
	return content, nil
}

func statusFor(err error) int {
	if errors.Is(err, clip.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func bearerAuthMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") ||
				subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(expected)) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "invalid or missing api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitMiddleware(limiter RateLimiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIP(r)
			if !limiter.Allow(client) {
				metrics.ObserveRateLimited(r.URL.Path)
				logger.Warn("rate limit exceeded", zap.String("client", client))
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
