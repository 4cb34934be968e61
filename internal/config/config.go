// Package config loads and validates clipper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/webclipper/internal/llm"
	"github.com/JakeFAU/webclipper/internal/retry"
)

// EnvPrefix is prepended to every environment override, e.g. CLIPPER_SERVER_PORT.
const EnvPrefix = "CLIPPER"

// Site host kinds.
const (
	SiteHostGitHub = "github"
	SiteHostGCS    = "gcs"
	SiteHostS3     = "s3"
	SiteHostLocal  = "local"
)

// Note store kinds.
const (
	NoteStoreNotion   = "notion"
	NoteStorePostgres = "postgres"
)

// Ledger kinds.
const (
	LedgerNone   = "none"
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Locale     LocaleConfig     `mapstructure:"locale"`
	SiteHost   SiteHostConfig   `mapstructure:"sitehost"`
	Deploy     DeployConfig     `mapstructure:"deploy"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Extract    ExtractConfig    `mapstructure:"extract"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Notes      NotesConfig      `mapstructure:"notes"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// RateLimitConfig limits uploads per client address.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// UploadConfig controls where received snapshots are kept.
type UploadConfig struct {
	Dir               string        `mapstructure:"dir"`
	MaxBytes          int64         `mapstructure:"max_bytes"`
	AllowedExtensions []string      `mapstructure:"allowed_extensions"`
	JanitorInterval   time.Duration `mapstructure:"janitor_interval"`
	MaxAge            time.Duration `mapstructure:"max_age"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// LocaleConfig selects the prompt and message pack.
type LocaleConfig struct {
	Code string `mapstructure:"code"`
	// File is an optional YAML list of extra locales.
	File string `mapstructure:"file"`
}

// RetryConfig is the configurable part of a retry.Policy.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	Fixed       bool          `mapstructure:"fixed"`
	Jitter      bool          `mapstructure:"jitter"`
}

// Policy converts the config into a named retry.Policy.
func (r RetryConfig) Policy(name string) retry.Policy {
	return retry.Policy{
		Name:        name,
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay,
		MaxDelay:    r.MaxDelay,
		Fixed:       r.Fixed,
		Jitter:      r.Jitter,
	}
}

// SiteHostConfig selects and configures the static host.
type SiteHostConfig struct {
	Kind   string          `mapstructure:"kind"`
	GitHub GitHubConfig    `mapstructure:"github"`
	GCS    GCSConfig       `mapstructure:"gcs"`
	S3     S3Config        `mapstructure:"s3"`
	Local  LocalHostConfig `mapstructure:"local"`
}

// GitHubConfig describes a GitHub Pages repository.
type GitHubConfig struct {
	Token             string  `mapstructure:"token"`
	Repo              string  `mapstructure:"repo"`
	Branch            string  `mapstructure:"branch"`
	Dir               string  `mapstructure:"dir"`
	PagesDomain       string  `mapstructure:"pages_domain"`
	CommitMessage     string  `mapstructure:"commit_message"`
	APIBaseURL        string  `mapstructure:"api_base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// GCSConfig describes a public GCS bucket.
type GCSConfig struct {
	Bucket        string `mapstructure:"bucket"`
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	CacheControl  string `mapstructure:"cache_control"`
}

// S3Config describes an S3 website bucket.
type S3Config struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// LocalHostConfig describes a directory served by another web server.
type LocalHostConfig struct {
	RootDir string `mapstructure:"root_dir"`
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

// DeployConfig bounds publishing and reachability polling.
type DeployConfig struct {
	Publish         RetryConfig   `mapstructure:"publish"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ProgressEvery   int           `mapstructure:"progress_every"`
}

// FetchConfig configures the HTTP fetchers used for polling and extraction.
type FetchConfig struct {
	UserAgent    string         `mapstructure:"user_agent"`
	Timeout      time.Duration  `mapstructure:"timeout"`
	MaxBodyBytes int            `mapstructure:"max_body_bytes"`
	Headless     HeadlessConfig `mapstructure:"headless"`
}

// HeadlessConfig enables the chromedp fetcher for the HTML fallback.
type HeadlessConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	MaxParallel       int           `mapstructure:"max_parallel"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
}

// ExtractConfig controls renderer-first extraction.
type ExtractConfig struct {
	RendererBaseURL string        `mapstructure:"renderer_base_url"`
	RendererAPIKey  string        `mapstructure:"renderer_api_key"`
	DisableRenderer bool          `mapstructure:"disable_renderer"`
	Renderer        RetryConfig   `mapstructure:"renderer"`
	Fallback        RetryConfig   `mapstructure:"fallback"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	UseReadability  bool          `mapstructure:"use_readability"`
}

// LLMConfig selects the summarization backend.
type LLMConfig struct {
	Provider  string          `mapstructure:"provider"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Azure     AzureConfig     `mapstructure:"azure"`
	DeepSeek  OpenAIConfig    `mapstructure:"deepseek"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Cohere    CohereConfig    `mapstructure:"cohere"`
}

// OpenAIConfig covers OpenAI and OpenAI-compatible endpoints.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// AzureConfig covers Azure OpenAI deployments.
type AzureConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Deployment  string  `mapstructure:"deployment"`
	APIVersion  string  `mapstructure:"api_version"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// GeminiConfig covers the Generative Language API.
type GeminiConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	MaxOutputTokens int64  `mapstructure:"max_output_tokens"`
	Endpoint        string `mapstructure:"endpoint"`
}

// AnthropicConfig covers the Messages API.
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// CohereConfig covers the Cohere chat API.
type CohereConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SummarizerConfig controls retries and degradation of the summarize step.
type SummarizerConfig struct {
	Retry           RetryConfig `mapstructure:"retry"`
	MaxContentRunes int         `mapstructure:"max_content_runes"`
	DegradeOnError  bool        `mapstructure:"degrade_on_error"`
	NotifyOnError   bool        `mapstructure:"notify_on_error"`
	DefaultSummary  string      `mapstructure:"default_summary"`
	DefaultTags     []string    `mapstructure:"default_tags"`
}

// NotesConfig selects the note store and its recorder behavior.
type NotesConfig struct {
	Store          string         `mapstructure:"store"`
	Retry          RetryConfig    `mapstructure:"retry"`
	DegradeOnError bool           `mapstructure:"degrade_on_error"`
	PlaceholderURL string         `mapstructure:"placeholder_url"`
	Notion         NotionConfig   `mapstructure:"notion"`
	Postgres       PostgresConfig `mapstructure:"postgres"`
	Ledger         LedgerConfig   `mapstructure:"ledger"`
}

// NotionConfig identifies the Notion database.
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

// PostgresConfig controls the Postgres note store.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	NoteURLBase     string        `mapstructure:"note_url_base"`
}

// LedgerConfig selects the URL-to-note idempotency ledger.
type LedgerConfig struct {
	Kind  string      `mapstructure:"kind"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig addresses the Redis ledger.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// NotifyConfig enables notification sinks. Every enabled sink receives every message.
type NotifyConfig struct {
	Log      LogNotifyConfig `mapstructure:"log"`
	Telegram TelegramConfig  `mapstructure:"telegram"`
	PubSub   PubSubConfig    `mapstructure:"pubsub"`
	Kafka    KafkaConfig     `mapstructure:"kafka"`
}

// LogNotifyConfig writes notifications to the service log.
type LogNotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TelegramConfig addresses a Telegram chat.
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"`
	ChatID      int64  `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// KafkaConfig addresses a Kafka topic.
type KafkaConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Brokers  []string      `mapstructure:"brokers"`
	Topic    string        `mapstructure:"topic"`
	ClientID string        `mapstructure:"client_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DispatcherConfig sizes the async notification pool.
type DispatcherConfig struct {
	Workers      int           `mapstructure:"workers"`
	QueueDepth   int           `mapstructure:"queue_depth"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// setDefaults registers every key, including empty secrets, so AutomaticEnv
// can override any of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.probe_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("ratelimit.requests_per_minute", 10)
	v.SetDefault("ratelimit.burst", 0)

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("upload.allowed_extensions", []string{".html", ".htm"})
	v.SetDefault("upload.janitor_interval", 30*time.Minute)
	v.SetDefault("upload.max_age", time.Hour)

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("locale.code", "en")
	v.SetDefault("locale.file", "")

	v.SetDefault("sitehost.kind", SiteHostGitHub)
	v.SetDefault("sitehost.github.token", "")
	v.SetDefault("sitehost.github.repo", "")
	v.SetDefault("sitehost.github.branch", "main")
	v.SetDefault("sitehost.github.dir", "clips")
	v.SetDefault("sitehost.github.pages_domain", "")
	v.SetDefault("sitehost.github.commit_message", "Add web clip: ")
	v.SetDefault("sitehost.github.api_base_url", "")
	v.SetDefault("sitehost.github.requests_per_second", 1.0)
	v.SetDefault("sitehost.gcs.bucket", "")
	v.SetDefault("sitehost.gcs.dir", "clips")
	v.SetDefault("sitehost.gcs.public_base_url", "")
	v.SetDefault("sitehost.gcs.cache_control", "no-cache, max-age=0")
	v.SetDefault("sitehost.s3.bucket", "")
	v.SetDefault("sitehost.s3.region", "")
	v.SetDefault("sitehost.s3.dir", "clips")
	v.SetDefault("sitehost.s3.public_base_url", "")
	v.SetDefault("sitehost.local.root_dir", "site")
	v.SetDefault("sitehost.local.dir", "clips")
	v.SetDefault("sitehost.local.base_url", "http://localhost:8000")

	v.SetDefault("deploy.publish.max_attempts", 5)
	v.SetDefault("deploy.publish.base_delay", 3*time.Second)
	v.SetDefault("deploy.publish.max_delay", time.Minute)
	v.SetDefault("deploy.poll_interval", 5*time.Second)
	v.SetDefault("deploy.max_poll_attempts", 60)
	v.SetDefault("deploy.request_timeout", 10*time.Second)
	v.SetDefault("deploy.progress_every", 6)

	v.SetDefault("fetch.user_agent", "webclipper/0.1")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_bytes", 20<<20)
	v.SetDefault("fetch.headless.enabled", false)
	v.SetDefault("fetch.headless.max_parallel", 1)
	v.SetDefault("fetch.headless.navigation_timeout", 30*time.Second)
	v.SetDefault("fetch.headless.settle_delay", 2*time.Second)

	v.SetDefault("extract.renderer_base_url", "https://r.jina.ai")
	v.SetDefault("extract.renderer_api_key", "")
	v.SetDefault("extract.disable_renderer", false)
	v.SetDefault("extract.renderer.max_attempts", 30)
	v.SetDefault("extract.renderer.base_delay", 10*time.Second)
	v.SetDefault("extract.renderer.fixed", true)
	v.SetDefault("extract.fallback.max_attempts", 60)
	v.SetDefault("extract.fallback.base_delay", 5*time.Second)
	v.SetDefault("extract.fallback.fixed", true)
	v.SetDefault("extract.request_timeout", 30*time.Second)
	v.SetDefault("extract.use_readability", false)

	v.SetDefault("llm.provider", llm.ProviderOpenAI)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.openai.model", "gpt-3.5-turbo")
	v.SetDefault("llm.openai.max_tokens", 500)
	v.SetDefault("llm.openai.temperature", 0.7)
	v.SetDefault("llm.azure.api_key", "")
	v.SetDefault("llm.azure.endpoint", "")
	v.SetDefault("llm.azure.deployment", "")
	v.SetDefault("llm.azure.api_version", "2024-02-15-preview")
	v.SetDefault("llm.azure.max_tokens", 500)
	v.SetDefault("llm.azure.temperature", 0.7)
	v.SetDefault("llm.deepseek.api_key", "")
	v.SetDefault("llm.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.deepseek.max_tokens", 500)
	v.SetDefault("llm.deepseek.temperature", 0.7)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")
	v.SetDefault("llm.gemini.max_output_tokens", 500)
	v.SetDefault("llm.gemini.endpoint", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "")
	v.SetDefault("llm.anthropic.max_tokens", 500)
	v.SetDefault("llm.anthropic.temperature", 0.7)
	v.SetDefault("llm.cohere.api_key", "")
	v.SetDefault("llm.cohere.model", "")
	v.SetDefault("llm.cohere.base_url", "")
	v.SetDefault("llm.cohere.timeout", 60*time.Second)

	v.SetDefault("summarizer.retry.max_attempts", 3)
	v.SetDefault("summarizer.retry.base_delay", time.Second)
	v.SetDefault("summarizer.max_content_runes", 5000)
	v.SetDefault("summarizer.degrade_on_error", true)
	v.SetDefault("summarizer.notify_on_error", true)
	v.SetDefault("summarizer.default_summary", "")
	v.SetDefault("summarizer.default_tags", []string{})

	v.SetDefault("notes.store", NoteStoreNotion)
	v.SetDefault("notes.retry.max_attempts", 3)
	v.SetDefault("notes.retry.base_delay", 2*time.Second)
	v.SetDefault("notes.degrade_on_error", true)
	v.SetDefault("notes.placeholder_url", "https://www.notion.so/error-saving")
	v.SetDefault("notes.notion.token", "")
	v.SetDefault("notes.notion.database_id", "")
	v.SetDefault("notes.postgres.dsn", "")
	v.SetDefault("notes.postgres.table", "clips")
	v.SetDefault("notes.postgres.max_conns", 4)
	v.SetDefault("notes.postgres.min_conns", 0)
	v.SetDefault("notes.postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("notes.postgres.note_url_base", "")
	v.SetDefault("notes.ledger.kind", LedgerNone)
	v.SetDefault("notes.ledger.redis.addr", "localhost:6379")
	v.SetDefault("notes.ledger.redis.password", "")
	v.SetDefault("notes.ledger.redis.db", 0)
	v.SetDefault("notes.ledger.redis.key_prefix", "webclipper:note:")
	v.SetDefault("notes.ledger.redis.ttl", 0)

	v.SetDefault("notify.log.enabled", true)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)
	v.SetDefault("notify.telegram.api_endpoint", "")
	v.SetDefault("notify.pubsub.enabled", false)
	v.SetDefault("notify.pubsub.project_id", "")
	v.SetDefault("notify.pubsub.topic_name", "webclipper-events")
	v.SetDefault("notify.kafka.enabled", false)
	v.SetDefault("notify.kafka.brokers", []string{})
	v.SetDefault("notify.kafka.topic", "webclipper-events")
	v.SetDefault("notify.kafka.client_id", "webclipper")
	v.SetDefault("notify.kafka.timeout", 10*time.Second)

	v.SetDefault("dispatcher.workers", 2)
	v.SetDefault("dispatcher.queue_depth", 64)
	v.SetDefault("dispatcher.send_timeout", 15*time.Second)
	v.SetDefault("dispatcher.drain_timeout", 30*time.Second)

	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.service_name", "webclipper")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// normalize lowercases selector fields.
func (c *Config) normalize() {
	c.SiteHost.Kind = strings.ToLower(strings.TrimSpace(c.SiteHost.Kind))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Notes.Store = strings.ToLower(strings.TrimSpace(c.Notes.Store))
	c.Notes.Ledger.Kind = strings.ToLower(strings.TrimSpace(c.Notes.Ledger.Kind))
	c.Locale.Code = strings.ToLower(strings.TrimSpace(c.Locale.Code))
}

// Validate enforces required values and reasonable limits. Every problem is
// reported, joined into one error.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port > 0, "server.port must be > 0")
	check(!c.Auth.Enabled || c.Auth.APIKey != "", "auth.api_key must be set when auth is enabled")
	check(c.RateLimit.RequestsPerMinute >= 0, "ratelimit.requests_per_minute must be >= 0")
	check(c.Upload.Dir != "", "upload.dir is required")
	check(c.Upload.MaxBytes > 0, "upload.max_bytes must be > 0")
	check(len(c.Upload.AllowedExtensions) > 0, "upload.allowed_extensions must not be empty")

	errs = append(errs, c.validateSiteHost()...)

	check(c.Deploy.Publish.MaxAttempts > 0, "deploy.publish.max_attempts must be > 0")
	check(c.Deploy.MaxPollAttempts > 0, "deploy.max_poll_attempts must be > 0")
	check(c.Deploy.PollInterval >= 0, "deploy.poll_interval must be >= 0")
	check(!c.Fetch.Headless.Enabled || c.Fetch.Headless.MaxParallel > 0,
		"fetch.headless.max_parallel must be > 0 when headless is enabled")
	check(c.Extract.DisableRenderer || c.Extract.RendererBaseURL != "",
		"extract.renderer_base_url is required unless the renderer is disabled")
	check(c.Extract.DisableRenderer || c.Extract.Renderer.MaxAttempts > 0, "extract.renderer.max_attempts must be > 0")
	check(c.Extract.Fallback.MaxAttempts > 0, "extract.fallback.max_attempts must be > 0")

	errs = append(errs, c.validateLLM()...)

	check(c.Summarizer.Retry.MaxAttempts > 0, "summarizer.retry.max_attempts must be > 0")
	check(c.Summarizer.MaxContentRunes > 0, "summarizer.max_content_runes must be > 0")

	errs = append(errs, c.validateNotes()...)
	errs = append(errs, c.validateNotify()...)

	check(c.Dispatcher.Workers > 0, "dispatcher.workers must be > 0")
	check(c.Dispatcher.QueueDepth > 0, "dispatcher.queue_depth must be > 0")
	check(c.Tracing.SampleRatio >= 0, "tracing.sample_ratio must be >= 0")

	return errors.Join(errs...)
}

func (c Config) validateSiteHost() []error {
	var errs []error
	switch c.SiteHost.Kind {
	case SiteHostGitHub:
		if c.SiteHost.GitHub.Token == "" {
			errs = append(errs, errors.New("sitehost.github.token is required"))
		}
		if owner, name, ok := strings.Cut(c.SiteHost.GitHub.Repo, "/"); !ok || owner == "" || name == "" {
			errs = append(errs, errors.New("sitehost.github.repo must be owner/name"))
		}
	case SiteHostGCS:
		if c.SiteHost.GCS.Bucket == "" {
			errs = append(errs, errors.New("sitehost.gcs.bucket is required"))
		}
	case SiteHostS3:
		if c.SiteHost.S3.Bucket == "" {
			errs = append(errs, errors.New("sitehost.s3.bucket is required"))
		}
	case SiteHostLocal:
		if c.SiteHost.Local.RootDir == "" || c.SiteHost.Local.BaseURL == "" {
			errs = append(errs, errors.New("sitehost.local.root_dir and base_url are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("sitehost.kind %q is not supported", c.SiteHost.Kind))
	}
	return errs
}

func (c Config) validateLLM() []error {
	if !llm.Known(c.LLM.Provider) {
		return []error{fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)}
	}
	var key string
	switch c.LLM.Provider {
	case llm.ProviderOpenAI:
		key = c.LLM.OpenAI.APIKey
	case llm.ProviderAzure:
		key = c.LLM.Azure.APIKey
		if c.LLM.Azure.Endpoint == "" || c.LLM.Azure.Deployment == "" {
			return []error{errors.New("llm.azure.endpoint and llm.azure.deployment are required")}
		}
	case llm.ProviderDeepSeek:
		key = c.LLM.DeepSeek.APIKey
	case llm.ProviderGemini:
		key = c.LLM.Gemini.APIKey
	case llm.ProviderAnthropic:
		key = c.LLM.Anthropic.APIKey
	case llm.ProviderCohere:
		key = c.LLM.Cohere.APIKey
	}
	if key == "" {
		return []error{fmt.Errorf("llm.%s.api_key is required", c.LLM.Provider)}
	}
	return nil
}

func (c Config) validateNotes() []error {
	var errs []error
	switch c.Notes.Store {
	case NoteStoreNotion:
		if c.Notes.Notion.Token == "" || c.Notes.Notion.DatabaseID == "" {
			errs = append(errs, errors.New("notes.notion.token and notes.notion.database_id are required"))
		}
	case NoteStorePostgres:
		if c.Notes.Postgres.DSN == "" {
			errs = append(errs, errors.New("notes.postgres.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("notes.store %q is not supported", c.Notes.Store))
	}
	if c.Notes.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("notes.retry.max_attempts must be > 0"))
	}
	switch c.Notes.Ledger.Kind {
	case LedgerNone, LedgerMemory, "":
	case LedgerRedis:
		if c.Notes.Ledger.Redis.Addr == "" {
			errs = append(errs, errors.New("notes.ledger.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("notes.ledger.kind %q is not supported", c.Notes.Ledger.Kind))
	}
	return errs
}

func (c Config) validateNotify() []error {
	var errs []error
	n := c.Notify
	if n.Telegram.Enabled && (n.Telegram.Token == "" || n.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("notify.telegram.token and notify.telegram.chat_id are required when enabled"))
	}
	if n.PubSub.Enabled && (n.PubSub.ProjectID == "" || n.PubSub.TopicName == "") {
		errs = append(errs, errors.New("notify.pubsub.project_id and notify.pubsub.topic_name are required when enabled"))
	}
	if n.Kafka.Enabled && (len(n.Kafka.Brokers) == 0 || n.Kafka.Topic == "") {
		errs = append(errs, errors.New("notify.kafka.brokers and notify.kafka.topic are required when enabled"))
	}
	return errs
}
