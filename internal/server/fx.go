// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/api"
	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/clock/system"
	"github.com/JakeFAU/webclipper/internal/config"
	"github.com/JakeFAU/webclipper/internal/deploy"
	"github.com/JakeFAU/webclipper/internal/dispatcher"
	"github.com/JakeFAU/webclipper/internal/extract"
	collyfetcher "github.com/JakeFAU/webclipper/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/webclipper/internal/fetcher/headless"
	"github.com/JakeFAU/webclipper/internal/hash/sha256"
	"github.com/JakeFAU/webclipper/internal/id/uuid"
	"github.com/JakeFAU/webclipper/internal/llm"
	"github.com/JakeFAU/webclipper/internal/llm/anthropic"
	"github.com/JakeFAU/webclipper/internal/llm/cohere"
	"github.com/JakeFAU/webclipper/internal/llm/gemini"
	"github.com/JakeFAU/webclipper/internal/llm/openai"
	"github.com/JakeFAU/webclipper/internal/locale"
	"github.com/JakeFAU/webclipper/internal/logging"
	"github.com/JakeFAU/webclipper/internal/metrics"
	"github.com/JakeFAU/webclipper/internal/notes"
	"github.com/JakeFAU/webclipper/internal/notes/ledger"
	notionstore "github.com/JakeFAU/webclipper/internal/notes/notion"
	pgstore "github.com/JakeFAU/webclipper/internal/notes/postgres"
	"github.com/JakeFAU/webclipper/internal/notify"
	kafkanotify "github.com/JakeFAU/webclipper/internal/notify/kafka"
	pubsubnotify "github.com/JakeFAU/webclipper/internal/notify/pubsub"
	telegramnotify "github.com/JakeFAU/webclipper/internal/notify/telegram"
	"github.com/JakeFAU/webclipper/internal/pipeline"
	"github.com/JakeFAU/webclipper/internal/policy/ratelimit"
	"github.com/JakeFAU/webclipper/internal/sitehost/gcs"
	"github.com/JakeFAU/webclipper/internal/sitehost/github"
	"github.com/JakeFAU/webclipper/internal/sitehost/local"
	"github.com/JakeFAU/webclipper/internal/sitehost/s3"
	"github.com/JakeFAU/webclipper/internal/summarize"
	"github.com/JakeFAU/webclipper/internal/telemetry"
	"github.com/JakeFAU/webclipper/internal/uploads"
)

// limiterIdle is how long a client may stay silent before its bucket is dropped.
const limiterIdle = 10 * time.Minute

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger *zap.Logger
	clock  clip.Clock
}

// WithLogger replaces the logger built from configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *buildOptions) { o.logger = logger }
}

// WithClock stamps records with the given clock instead of the system clock.
func WithClock(clock clip.Clock) Option {
	return func(o *buildOptions) { o.clock = clock }
}

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	orchestrator *pipeline.Orchestrator
	dispatch     *dispatcher.Dispatcher
	uploads      *uploads.Store
	limiter      *ratelimit.Limiter

	headless        *headlessfetcher.Fetcher
	storage         *storage.Client
	pubsubClient    *pubsub.Client
	pubsubPublisher *pubsub.Publisher
	kafka           *kafkanotify.Notifier
	pgStore         *pgstore.Store
	redisLedger     *ledger.Redis
	tracerShutdown  func(context.Context) error
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("creating application",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("sitehost", cfg.SiteHost.Kind),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("note_store", cfg.Notes.Store),
		zap.String("locale", cfg.Locale.Code),
	)
	return &App{cfg: cfg, logger: logger}, nil
}

// Orchestrator returns the pipeline used by the HTTP server.
func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.uploads.RunJanitor(ctx)
	go a.pruneLimiter(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	if err := a.uploads.Purge(); err != nil {
		a.logger.Warn("upload purge failed", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

func (a *App) pruneLimiter(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.logger.Debug("pruned idle rate limit buckets", zap.Int("count", n))
			}
		}
	}
}

// Close drains queued notifications and releases every client.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.dispatch != nil {
		drainCtx, cancel := context.WithTimeout(ctx, a.cfg.Dispatcher.DrainTimeout)
		err = a.dispatch.Drain(drainCtx)
		cancel()
		if err != nil {
			a.logger.Warn("notification drain incomplete", zap.Error(err))
		}
	}
	a.closeInfrastructure()
	a.closeObservability(ctx)
	a.logger.Info("shutdown complete")
	return err
}

// abort releases whatever a failed Build had already started: dispatcher
// workers, the tracer provider and client connections.
func (a *App) abort(ctx context.Context) {
	timeout := a.cfg.Dispatcher.DrainTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		a.logger.Warn("cleanup after failed build incomplete", zap.Error(err))
	}
}

func (a *App) closeInfrastructure() {
	if a.headless != nil {
		a.headless.Close()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", zap.Error(err))
		}
	}
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.redisLedger != nil {
		if err := a.redisLedger.Close(); err != nil {
			a.logger.Warn("redis ledger close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
}

func (a *App) closeObservability(ctx context.Context) {
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (app *App, err error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger, err = logging.New(logging.Config{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		zap.ReplaceGlobals(logger)
	}
	clock := o.clock
	if clock == nil {
		clock = system.New()
	}

	app, err = NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}
	built := app
	defer func() {
		if err != nil {
			built.abort(ctx)
		}
	}()

	metrics.Init()
	tp, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	app.logger.Info("building application dependencies")
	loc, err := setupLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}

	notifier, err := setupNotifier(ctx, app)
	if err != nil {
		return nil, err
	}
	app.dispatch, err = dispatcher.New(notifier, dispatcher.Config{
		Workers:     cfg.Dispatcher.Workers,
		QueueDepth:  cfg.Dispatcher.QueueDepth,
		SendTimeout: cfg.Dispatcher.SendTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("dispatcher init failed: %w", err)
	}
	app.dispatch.Start()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     cfg.Fetch.Timeout,
		MaxBodySize: cfg.Fetch.MaxBodyBytes,
	})

	host, err := setupSiteHost(ctx, app)
	if err != nil {
		return nil, err
	}
	poller, err := deploy.New(host, fetcher, deploy.Config{
		Publish:         cfg.Deploy.Publish.Policy("publish"),
		PollInterval:    cfg.Deploy.PollInterval,
		MaxPollAttempts: cfg.Deploy.MaxPollAttempts,
		RequestTimeout:  cfg.Deploy.RequestTimeout,
		ProgressEvery:   cfg.Deploy.ProgressEvery,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("deploy poller init failed: %w", err)
	}

	extractor, err := setupExtractor(app, fetcher, loc)
	if err != nil {
		return nil, err
	}

	provider, err := setupProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	app.logger.Info("llm provider ready", zap.String("provider", provider.Name()))
	summarizer, err := summarize.New(provider, loc, summarize.Config{
		Retry:           cfg.Summarizer.Retry.Policy("summarize"),
		MaxContentRunes: cfg.Summarizer.MaxContentRunes,
		DegradeOnError:  cfg.Summarizer.DegradeOnError,
		NotifyOnError:   cfg.Summarizer.NotifyOnError,
		DefaultSummary:  cfg.Summarizer.DefaultSummary,
		DefaultTags:     cfg.Summarizer.DefaultTags,
	}, app.dispatch, logger)
	if err != nil {
		return nil, fmt.Errorf("summarizer init failed: %w", err)
	}

	recorder, err := setupRecorder(ctx, app, loc)
	if err != nil {
		return nil, err
	}

	ids := uuid.New()
	app.orchestrator, err = pipeline.New(pipeline.Deps{
		Publisher:  poller,
		Extractor:  extractor,
		Summarizer: summarizer,
		Recorder:   recorder,
		Alerter:    app.dispatch,
		Clock:      clock,
		IDs:        ids,
		Locale:     loc,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline init failed: %w", err)
	}

	app.uploads, err = uploads.New(uploads.Config{
		Dir:               cfg.Upload.Dir,
		MaxBytes:          cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		JanitorInterval:   cfg.Upload.JanitorInterval,
		MaxAge:            cfg.Upload.MaxAge,
	}, ids, logger)
	if err != nil {
		return nil, fmt.Errorf("upload store init failed: %w", err)
	}

	serverOpts := []api.Option{api.WithReadinessCheck(app.ready)}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		app.limiter = ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
		serverOpts = append(serverOpts, api.WithRateLimiter(app.limiter))
		app.logger.Info("upload rate limit enabled", zap.Int("per_minute", cfg.RateLimit.RequestsPerMinute))
	}
	app.apiServer, err = api.NewServer(app.orchestrator, app.uploads, api.Config{
		AuthEnabled:  cfg.Auth.Enabled,
		APIKey:       cfg.Auth.APIKey,
		ProbeTimeout: cfg.Server.ProbeTimeout,
	}, logger, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("api server init failed: %w", err)
	}

	return app, nil
}

// ready reports whether the shared ledger is reachable.
func (a *App) ready(ctx context.Context) error {
	if a.redisLedger != nil {
		return a.redisLedger.Ping(ctx)
	}
	return nil
}

func setupLocale(cfg config.LocaleConfig) (locale.Locale, error) {
	registry := locale.NewRegistry()
	if cfg.File != "" {
		if err := registry.LoadFile(cfg.File); err != nil {
			return locale.Locale{}, fmt.Errorf("locale file: %w", err)
		}
	}
	loc, err := registry.Lookup(cfg.Code)
	if err != nil {
		return locale.Locale{}, fmt.Errorf("locale init failed: %w", err)
	}
	return loc, nil
}

// setupNotifier builds every enabled sink; with none enabled messages are logged.
func setupNotifier(ctx context.Context, app *App) (clip.Notifier, error) {
	cfg := app.cfg.Notify
	var sinks notify.Multi
	if cfg.Telegram.Enabled {
		tg, err := telegramnotify.New(telegramnotify.Config{
			Token:       cfg.Telegram.Token,
			ChatID:      cfg.Telegram.ChatID,
			APIEndpoint: cfg.Telegram.APIEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("telegram notifier init failed: %w", err)
		}
		sinks = append(sinks, tg)
		app.logger.Info("telegram notifications enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}
	if cfg.PubSub.Enabled {
		var err error
		app.pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.pubsubPublisher = app.pubsubClient.Publisher(cfg.PubSub.TopicName)
		sinks = append(sinks, pubsubnotify.New(app.pubsubPublisher))
		app.logger.Info("Pub/Sub notifications enabled",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName))
	}
	if cfg.Kafka.Enabled {
		var err error
		app.kafka, err = kafkanotify.New(kafkanotify.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
			Timeout:  cfg.Kafka.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka notifier init failed: %w", err)
		}
		sinks = append(sinks, app.kafka)
		app.logger.Info("kafka notifications enabled", zap.String("topic", cfg.Kafka.Topic))
	}
	if cfg.Log.Enabled || len(sinks) == 0 {
		sinks = append(sinks, notify.NewLog(app.logger))
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

func setupSiteHost(ctx context.Context, app *App) (clip.SiteHost, error) {
	cfg := app.cfg.SiteHost
	switch cfg.Kind {
	case config.SiteHostGitHub:
		host, err := github.New(ctx, github.Config{
			Token:             cfg.GitHub.Token,
			Repo:              cfg.GitHub.Repo,
			Branch:            cfg.GitHub.Branch,
			Dir:               cfg.GitHub.Dir,
			PagesDomain:       cfg.GitHub.PagesDomain,
			CommitMessage:     cfg.GitHub.CommitMessage,
			APIBaseURL:        cfg.GitHub.APIBaseURL,
			RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("github site host init failed: %w", err)
		}
		app.logger.Info("using GitHub Pages site host", zap.String("repo", cfg.GitHub.Repo))
		return host, nil
	case config.SiteHostGCS:
		var err error
		app.storage, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		host, err := gcs.New(app.storage, gcs.Config{
			Bucket:        cfg.GCS.Bucket,
			Dir:           cfg.GCS.Dir,
			PublicBaseURL: cfg.GCS.PublicBaseURL,
			CacheControl:  cfg.GCS.CacheControl,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs site host init failed: %w", err)
		}
		app.logger.Info("using GCS site host", zap.String("bucket", cfg.GCS.Bucket))
		return host, nil
	case config.SiteHostS3:
		host, err := s3.New(ctx, s3.Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Dir:           cfg.S3.Dir,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 site host init failed: %w", err)
		}
		app.logger.Info("using S3 site host", zap.String("bucket", cfg.S3.Bucket))
		return host, nil
	case config.SiteHostLocal:
		host, err := local.New(local.Config{
			RootDir: cfg.Local.RootDir,
			Dir:     cfg.Local.Dir,
			BaseURL: cfg.Local.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("local site host init failed: %w", err)
		}
		app.logger.Info("using local site host", zap.String("root", cfg.Local.RootDir))
		return host, nil
	default:
		return nil, fmt.Errorf("unsupported site host %q", cfg.Kind)
	}
}

func setupExtractor(app *App, fetcher clip.Fetcher, loc locale.Locale) (*extract.Extractor, error) {
	cfg := app.cfg
	var opts []extract.Option
	if cfg.Fetch.Headless.Enabled {
		var err error
		app.headless, err = headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       cfg.Fetch.Headless.MaxParallel,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: cfg.Fetch.Headless.NavigationTimeout,
			SettleDelay:       cfg.Fetch.Headless.SettleDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("headless fetcher init failed: %w", err)
		}
		opts = append(opts, extract.WithFallbackFetcher(app.headless))
		app.logger.Info("using headless fetcher for html fallback", zap.Int("max_parallel", cfg.Fetch.Headless.MaxParallel))
	}
	extractor, err := extract.New(fetcher, extract.Config{
		RendererBaseURL: cfg.Extract.RendererBaseURL,
		RendererAPIKey:  cfg.Extract.RendererAPIKey,
		DisableRenderer: cfg.Extract.DisableRenderer,
		Renderer:        cfg.Extract.Renderer.Policy("extract_renderer"),
		Fallback:        cfg.Extract.Fallback.Policy("extract_html"),
		RequestTimeout:  cfg.Extract.RequestTimeout,
		UntitledTitle:   loc.UntitledTitle,
		UseReadability:  cfg.Extract.UseReadability,
	}, app.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("extractor init failed: %w", err)
	}
	return extractor, nil
}

// setupProvider selects the backend once; call sites only see llm.Provider.
func setupProvider(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	var (
		provider llm.Provider
		err      error
	)
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		provider, err = openai.New(openai.Config{
			Flavor:      llm.ProviderOpenAI,
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
	case llm.ProviderDeepSeek:
		provider, err = openai.New(openai.Config{
			Flavor:      llm.ProviderDeepSeek,
			APIKey:      cfg.DeepSeek.APIKey,
			BaseURL:     cfg.DeepSeek.BaseURL,
			Model:       cfg.DeepSeek.Model,
			MaxTokens:   cfg.DeepSeek.MaxTokens,
			Temperature: cfg.DeepSeek.Temperature,
		})
	case llm.ProviderAzure:
		provider, err = openai.New(openai.Config{
			Flavor:          llm.ProviderAzure,
			APIKey:          cfg.Azure.APIKey,
			BaseURL:         cfg.Azure.Endpoint,
			MaxTokens:       cfg.Azure.MaxTokens,
			Temperature:     cfg.Azure.Temperature,
			AzureDeployment: cfg.Azure.Deployment,
			AzureAPIVersion: cfg.Azure.APIVersion,
		})
	case llm.ProviderGemini:
		provider, err = gemini.New(ctx, gemini.Config{
			APIKey:          cfg.Gemini.APIKey,
			Model:           cfg.Gemini.Model,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
			Endpoint:        cfg.Gemini.Endpoint,
		})
	case llm.ProviderAnthropic:
		provider, err = anthropic.New(anthropic.Config{
			APIKey:      cfg.Anthropic.APIKey,
			Model:       cfg.Anthropic.Model,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Temperature: cfg.Anthropic.Temperature,
		})
	case llm.ProviderCohere:
		provider, err = cohere.New(cohere.Config{
			APIKey:  cfg.Cohere.APIKey,
			Model:   cfg.Cohere.Model,
			BaseURL: cfg.Cohere.BaseURL,
			Timeout: cfg.Cohere.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s provider init failed: %w", cfg.Provider, err)
	}
	return provider, nil
}

func setupRecorder(ctx context.Context, app *App, loc locale.Locale) (*notes.Recorder, error) {
	cfg := app.cfg.Notes
	var store notes.Store
	switch cfg.Store {
	case config.NoteStoreNotion:
		s, err := notionstore.New(notionstore.Config{Token: cfg.Notion.Token, DatabaseID: cfg.Notion.DatabaseID})
		if err != nil {
			return nil, fmt.Errorf("notion store init failed: %w", err)
		}
		store = s
		app.logger.Info("using Notion note store")
	case config.NoteStorePostgres:
		var err error
		app.pgStore, err = pgstore.New(ctx, pgstore.Config{
			DSN:             cfg.Postgres.DSN,
			Table:           cfg.Postgres.Table,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
			NoteURLBase:     cfg.Postgres.NoteURLBase,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		store = app.pgStore
		app.logger.Info("using Postgres note store", zap.String("table", cfg.Postgres.Table))
	default:
		return nil, fmt.Errorf("unsupported note store %q", cfg.Store)
	}

	opts := []notes.Option{notes.WithAlerter(app.dispatch)}
	hasher := sha256.New()
	switch cfg.Ledger.Kind {
	case config.LedgerMemory:
		opts = append(opts, notes.WithLedger(ledger.NewMemory(), hasher.URLKey))
		app.logger.Info("using in-memory note ledger")
	case config.LedgerRedis:
		var err error
		app.redisLedger, err = ledger.NewRedis(ctx, ledger.RedisConfig{
			Addr:      cfg.Ledger.Redis.Addr,
			Password:  cfg.Ledger.Redis.Password,
			DB:        cfg.Ledger.Redis.DB,
			KeyPrefix: cfg.Ledger.Redis.KeyPrefix,
			TTL:       cfg.Ledger.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("redis ledger init failed: %w", err)
		}
		opts = append(opts, notes.WithLedger(app.redisLedger, hasher.URLKey))
		app.logger.Info("using Redis note ledger", zap.String("addr", cfg.Ledger.Redis.Addr))
	}

	recorder, err := notes.New(store, loc, notes.Config{
		Retry:          cfg.Retry.Policy("record"),
		DegradeOnError: cfg.DegradeOnError,
		PlaceholderURL: cfg.PlaceholderURL,
	}, app.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("note recorder init failed: %w", err)
	}
	return recorder, nil
}
