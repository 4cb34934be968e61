// Package pipeline runs one clip through publish, extract, summarize, record
// and notify.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/locale"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/notify"
)

const tracerName = "github.com/JakeFAU/webclipper/internal/pipeline"

// State is the last step a run completed.
type State string

// Run states in order. Failed is terminal and reachable from any step.
const (
	StatePending    State = "pending"
	StatePublished  State = "published"
	StateExtracted  State = "extracted"
	StateSummarized State = "summarized"
	StateRecorded   State = "recorded"
	StateNotified   State = "notified"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Publisher publishes a snapshot and waits for it to be served.
type Publisher interface {
	PublishAndWait(ctx context.Context, content []byte, targetPath string) (clip.PublishedArtifact, error)
}

// Extractor derives title and body from a served snapshot.
type Extractor interface {
	Extract(ctx context.Context, publicURL string) clip.ExtractedContent
}

// Summarizer produces summary and tags.
type Summarizer interface {
	Summarize(ctx context.Context, content clip.ExtractedContent) (clip.SummaryResult, error)
}

// Recorder persists the clip record and returns the note URL.
type Recorder interface {
	Record(ctx context.Context, record clip.ClipRecord) (string, error)
}

// Deps are the collaborators of an Orchestrator. IDs is optional.
type Deps struct {
	Publisher  Publisher
	Extractor  Extractor
	Summarizer Summarizer
	Recorder   Recorder
	Alerter    clip.Alerter
	Clock      clip.Clock
	IDs        clip.IDGenerator
	Locale     locale.Locale
}

// Orchestrator sequences the steps for one request at a time per call. It
// holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	deps   Deps
	tracer trace.Tracer
	logger *zap.Logger
}

// New validates deps and builds an Orchestrator.
func New(deps Deps, logger *zap.Logger) (*Orchestrator, error) {
	switch {
	case deps.Publisher == nil:
		return nil, fmt.Errorf("publisher is required")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case deps.Summarizer == nil:
		return nil, fmt.Errorf("summarizer is required")
	case deps.Recorder == nil:
		return nil, fmt.Errorf("recorder is required")
	case deps.Alerter == nil:
		return nil, fmt.Errorf("alerter is required")
	case deps.Clock == nil:
		return nil, fmt.Errorf("clock is required")
	}
	if err := deps.Locale.Validate(); err != nil {
		return nil, fmt.Errorf("locale: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		deps:   deps,
		tracer: otel.Tracer(tracerName),
		logger: logger.Named("pipeline"),
	}, nil
}

// run tracks one Process call.
type run struct {
	id    string
	state State
}

// Process runs every step for req. Only a publish failure or a summarizer or
// recorder failure with degradation disabled aborts the run; the error is
// returned together with an error result and a failure notification is queued.
func (o *Orchestrator) Process(ctx context.Context, req clip.ClipRequest) (clip.PipelineResult, error) {
	r := &run{id: req.ID, state: StatePending}
	if r.id == "" && o.deps.IDs != nil {
		if id, err := o.deps.IDs.NewID(); err == nil {
			r.id = id
		}
	}
	logger := o.logger.With(zap.String("clip_id", r.id), zap.String("file", req.Filename))

	ctx, span := o.tracer.Start(ctx, "clip.process", trace.WithAttributes(
		attribute.String("clip.id", r.id),
		attribute.String("clip.file", req.Filename),
	))
	defer span.End()

	result, err := o.process(ctx, r, req, logger)
	if err != nil {
		failedAfter := r.state
		r.state = StateFailed
		span.SetAttributes(attribute.String("clip.failed_after", string(failedAfter)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObservePipeline(string(clip.StatusError))
		logger.Error("clip processing failed",
			zap.String("failed_after", string(failedAfter)),
			zap.Error(err))
		if !o.deps.Alerter.Dispatch(notify.Failed(o.deps.Locale, err)) {
			logger.Warn("failure notification dropped")
		}
		return clip.PipelineResult{Status: clip.StatusError, ErrorDetail: err.Error()}, err
	}
	r.state = StateDone
	metrics.ObservePipeline(string(clip.StatusSuccess))
	logger.Info("clip processed",
		zap.String("snapshot_url", result.SnapshotURL),
		zap.String("note_url", result.NoteURL))
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, r *run, req clip.ClipRequest, logger *zap.Logger) (clip.PipelineResult, error) {
	if err := req.Validate(); err != nil {
		return clip.PipelineResult{}, err
	}
	originalURL := clip.ResolveOriginalURL(req.OriginalURL, req.Filename)

	var artifact clip.PublishedArtifact
	err := o.step(ctx, r, "publish", StatePublished, logger, func(ctx context.Context) error {
		var err error
		artifact, err = o.deps.Publisher.PublishAndWait(ctx, req.Content, req.Filename)
		return err
	})
	if err != nil {
		return clip.PipelineResult{}, err
	}

	var content clip.ExtractedContent
	_ = o.step(ctx, r, "extract", StateExtracted, logger, func(ctx context.Context) error {
		content = o.deps.Extractor.Extract(ctx, artifact.PublicURL)
		return nil
	})
	title := content.Title
	if title == "" {
		title = o.deps.Locale.UntitledTitle
	}

	var summary clip.SummaryResult
	err = o.step(ctx, r, "summarize", StateSummarized, logger, func(ctx context.Context) error {
		var err error
		summary, err = o.deps.Summarizer.Summarize(ctx, content)
		return err
	})
	if err != nil {
		return clip.PipelineResult{}, err
	}
	if summary.Degraded {
		logger.Warn("continuing with default summary")
	}

	record := clip.NewClipRecord(title, originalURL, artifact.PublicURL, summary, o.deps.Clock.Now())
	var noteURL string
	err = o.step(ctx, r, "record", StateRecorded, logger, func(ctx context.Context) error {
		var err error
		noteURL, err = o.deps.Recorder.Record(ctx, record)
		return err
	})
	if err != nil {
		return clip.PipelineResult{}, err
	}

	_ = o.step(ctx, r, "notify", StateNotified, logger, func(context.Context) error {
		msg := notify.Completed(o.deps.Locale, title, summary.Summary, originalURL, artifact.PublicURL, noteURL)
		if !o.deps.Alerter.Dispatch(msg) {
			logger.Warn("completion notification dropped")
		}
		return nil
	})

	return clip.PipelineResult{
		Status:      clip.StatusSuccess,
		SnapshotURL: artifact.PublicURL,
		NoteURL:     noteURL,
	}, nil
}

// step runs fn under a span named after the action, records its duration and
// advances the state to next on success.
func (o *Orchestrator) step(ctx context.Context, r *run, name string, next State, logger *zap.Logger, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "clip.step."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStep(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("step %s: %w", name, err)
	}
	logger.Debug("step complete", zap.String("step", name), zap.Duration("elapsed", time.Since(start)))
	r.state = next
	return nil
}
