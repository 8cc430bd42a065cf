package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Search    SearchConfig
	Google    GoogleConfig
	Messaging MessagingConfig
	LLM       LLMConfig
	News      NewsConfig
	Report    ReportConfig
	Scheduler SchedulerConfig
	Realtime  RealtimeConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string // public URL, used for OAuth redirects and links
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	SlowQuery       time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	MaxRefreshCount        int
}

// CookieConfig holds cookie settings for browser sessions
type CookieConfig struct {
	Domain   string // Domain for cookies (empty = current domain)
	Path     string
	Secure   bool   // should be true in production (HTTPS)
	SameSite string // "strict", "lax", or "none"
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	MaxUploadSize         int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitEnabled  bool
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CSRFEnabled           bool
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// CacheConfig holds TTLs for cached reads
type CacheConfig struct {
	PipelineTTL time.Duration
	DefaultTTL  time.Duration
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled         bool
	Endpoint        string // empty for AWS, set for MinIO/R2
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	UploadURLTTL    time.Duration
	DownloadURLTTL  time.Duration
}

// SearchConfig holds Meilisearch settings
type SearchConfig struct {
	Enabled     bool
	URL         string
	APIKey      string
	IndexPrefix string
	Timeout     time.Duration
}

// GoogleConfig holds Google Workspace OAuth settings
type GoogleConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
	AuthURL      string
	TokenURL     string
	GmailURL     string
	CalendarURL  string
	SyncLookback time.Duration
}

// MessagingConfig holds Google Chat and WhatsApp settings
type MessagingConfig struct {
	GoogleChatWebhookURL string
	WhatsAppEnabled      bool
	WhatsAppAPIURL       string
	WhatsAppPhoneID      string
	WhatsAppToken        string
	WhatsAppVerifyToken  string
	WhatsAppAppSecret    string
	// WhatsAppTenantSlug routes inbound webhooks; one business number serves one tenant
	WhatsAppTenantSlug string
}

// LLMConfig holds the Anthropic Messages API settings
type LLMConfig struct {
	Enabled           bool
	APIURL            string
	APIKey            string
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	MaxToolRounds     int
	RequestsPerMinute int
	Burst             int
}

// NewsConfig holds NewsAPI settings
type NewsConfig struct {
	Enabled  bool
	APIURL   string
	APIKey   string
	CacheTTL time.Duration
	PageSize int
}

// ReportConfig holds pipeline report rendering settings
type ReportConfig struct {
	ChromePath    string // empty to let chromedp find Chrome
	RenderTimeout time.Duration
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled            bool
	OverdueTaskCron    string
	GoogleSyncInterval time.Duration
	NewsRefreshCron    string
	PurgeCron          string
	PurgeRetention     time.Duration
	JobTimeout         time.Duration
}

// RealtimeConfig holds websocket hub settings
type RealtimeConfig struct {
	Enabled        bool
	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// TelemetryConfig holds OpenTelemetry and Prometheus configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	MetricsEnabled    bool
	MetricsPath       string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CRM_ prefix (e.g., CRM_DATABASE_PASSWORD)
// 2. .env file in the working directory (development only)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// .env is a development convenience; real environments set variables directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/investorcrm")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			BaseURL: v.GetString("app.base_url"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			SlowQuery:       v.GetDuration("database.slow_query"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
			MaxRefreshCount:        v.GetInt("jwt.max_refresh_count"),
		},
		Cookie: CookieConfig{
			Domain:   v.GetString("cookie.domain"),
			Path:     v.GetString("cookie.path"),
			Secure:   v.GetBool("cookie.secure"),
			SameSite: v.GetString("cookie.same_site"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			MaxUploadSize:         v.GetInt64("http.max_upload_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitEnabled:  v.GetBool("http.auth_rate_limit_enabled"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CSRFEnabled:           v.GetBool("http.csrf_enabled"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Cache: CacheConfig{
			PipelineTTL: v.GetDuration("cache.pipeline_ttl"),
			DefaultTTL:  v.GetDuration("cache.default_ttl"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			UploadURLTTL:    v.GetDuration("storage.upload_url_ttl"),
			DownloadURLTTL:  v.GetDuration("storage.download_url_ttl"),
		},
		Search: SearchConfig{
			Enabled:     v.GetBool("search.enabled"),
			URL:         v.GetString("search.url"),
			APIKey:      v.GetString("search.api_key"),
			IndexPrefix: v.GetString("search.index_prefix"),
			Timeout:     v.GetDuration("search.timeout"),
		},
		Google: GoogleConfig{
			Enabled:      v.GetBool("google.enabled"),
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			RedirectURL:  v.GetString("google.redirect_url"),
			StateSecret:  v.GetString("google.state_secret"),
			AuthURL:      v.GetString("google.auth_url"),
			TokenURL:     v.GetString("google.token_url"),
			GmailURL:     v.GetString("google.gmail_url"),
			CalendarURL:  v.GetString("google.calendar_url"),
			SyncLookback: v.GetDuration("google.sync_lookback"),
		},
		Messaging: MessagingConfig{
			GoogleChatWebhookURL: v.GetString("messaging.google_chat_webhook_url"),
			WhatsAppEnabled:      v.GetBool("messaging.whatsapp_enabled"),
			WhatsAppAPIURL:       v.GetString("messaging.whatsapp_api_url"),
			WhatsAppPhoneID:      v.GetString("messaging.whatsapp_phone_id"),
			WhatsAppToken:        v.GetString("messaging.whatsapp_token"),
			WhatsAppVerifyToken:  v.GetString("messaging.whatsapp_verify_token"),
			WhatsAppAppSecret:    v.GetString("messaging.whatsapp_app_secret"),
			WhatsAppTenantSlug:   v.GetString("messaging.whatsapp_tenant_slug"),
		},
		LLM: LLMConfig{
			Enabled:           v.GetBool("llm.enabled"),
			APIURL:            v.GetString("llm.api_url"),
			APIKey:            v.GetString("llm.api_key"),
			Model:             v.GetString("llm.model"),
			MaxTokens:         v.GetInt("llm.max_tokens"),
			Timeout:           v.GetDuration("llm.timeout"),
			MaxToolRounds:     v.GetInt("llm.max_tool_rounds"),
			RequestsPerMinute: v.GetInt("llm.requests_per_minute"),
			Burst:             v.GetInt("llm.burst"),
		},
		News: NewsConfig{
			Enabled:  v.GetBool("news.enabled"),
			APIURL:   v.GetString("news.api_url"),
			APIKey:   v.GetString("news.api_key"),
			CacheTTL: v.GetDuration("news.cache_ttl"),
			PageSize: v.GetInt("news.page_size"),
		},
		Report: ReportConfig{
			ChromePath:    v.GetString("report.chrome_path"),
			RenderTimeout: v.GetDuration("report.render_timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			OverdueTaskCron:    v.GetString("scheduler.overdue_task_cron"),
			GoogleSyncInterval: v.GetDuration("scheduler.google_sync_interval"),
			NewsRefreshCron:    v.GetString("scheduler.news_refresh_cron"),
			PurgeCron:          v.GetString("scheduler.purge_cron"),
			PurgeRetention:     v.GetDuration("scheduler.purge_retention"),
			JobTimeout:         v.GetDuration("scheduler.job_timeout"),
		},
		Realtime: RealtimeConfig{
			Enabled:        v.GetBool("realtime.enabled"),
			SendBuffer:     v.GetInt("realtime.send_buffer"),
			PingInterval:   v.GetDuration("realtime.ping_interval"),
			WriteTimeout:   v.GetDuration("realtime.write_timeout"),
			AllowedOrigins: v.GetStringSlice("realtime.allowed_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsPath:       v.GetString("telemetry.metrics_path"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "investorcrm"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:" + cfg.App.Port
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "investorcrm"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.SlowQuery == 0 {
		cfg.Database.SlowQuery = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 168 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "investorcrm"
	}
	if cfg.JWT.MaxRefreshCount == 0 {
		cfg.JWT.MaxRefreshCount = 10
	}
	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	if cfg.Cookie.SameSite == "" {
		cfg.Cookie.SameSite = "lax"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// assistant and report endpoints wait on upstream calls
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 20 << 20 // 20MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 5
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	// CORS origins have no wildcard fallback: cross-origin requests stay blocked until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-CSRF-Token"}
	}
	if cfg.Cache.PipelineTTL == 0 {
		cfg.Cache.PipelineTTL = 5 * time.Minute
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = 10 * time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "investorcrm"
	}
	if cfg.Storage.UploadURLTTL == 0 {
		cfg.Storage.UploadURLTTL = 15 * time.Minute
	}
	if cfg.Storage.DownloadURLTTL == 0 {
		cfg.Storage.DownloadURLTTL = time.Hour
	}
	if cfg.Search.URL == "" {
		cfg.Search.URL = "http://localhost:7700"
	}
	if cfg.Search.IndexPrefix == "" {
		cfg.Search.IndexPrefix = "crm_"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 2 * time.Second
	}
	if cfg.Google.AuthURL == "" {
		cfg.Google.AuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	}
	if cfg.Google.TokenURL == "" {
		cfg.Google.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.Google.GmailURL == "" {
		cfg.Google.GmailURL = "https://gmail.googleapis.com/gmail/v1"
	}
	if cfg.Google.CalendarURL == "" {
		cfg.Google.CalendarURL = "https://www.googleapis.com/calendar/v3"
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = strings.TrimRight(cfg.App.BaseURL, "/") + "/api/v1/integrations/google/callback"
	}
	if cfg.Google.StateSecret == "" {
		cfg.Google.StateSecret = cfg.JWT.Secret
	}
	if cfg.Google.SyncLookback == 0 {
		cfg.Google.SyncLookback = 14 * 24 * time.Hour
	}
	if cfg.Messaging.WhatsAppAPIURL == "" {
		cfg.Messaging.WhatsAppAPIURL = "https://graph.facebook.com/v19.0"
	}
	if cfg.LLM.APIURL == "" {
		cfg.LLM.APIURL = "https://api.anthropic.com/v1/messages"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-3-5-sonnet-latest"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.MaxToolRounds == 0 {
		cfg.LLM.MaxToolRounds = 5
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = 10
	}
	if cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = 3
	}
	if cfg.News.APIURL == "" {
		cfg.News.APIURL = "https://newsapi.org/v2/everything"
	}
	if cfg.News.CacheTTL == 0 {
		cfg.News.CacheTTL = 6 * time.Hour
	}
	if cfg.News.PageSize == 0 {
		cfg.News.PageSize = 10
	}
	if cfg.Report.RenderTimeout == 0 {
		cfg.Report.RenderTimeout = 30 * time.Second
	}
	if cfg.Scheduler.OverdueTaskCron == "" {
		cfg.Scheduler.OverdueTaskCron = "*/15 * * * *"
	}
	if cfg.Scheduler.GoogleSyncInterval == 0 {
		cfg.Scheduler.GoogleSyncInterval = 15 * time.Minute
	}
	if cfg.Scheduler.NewsRefreshCron == "" {
		cfg.Scheduler.NewsRefreshCron = "0 6 * * *"
	}
	if cfg.Scheduler.PurgeCron == "" {
		cfg.Scheduler.PurgeCron = "30 3 * * *"
	}
	if cfg.Scheduler.PurgeRetention == 0 {
		cfg.Scheduler.PurgeRetention = 30 * 24 * time.Hour
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Realtime.SendBuffer == 0 {
		cfg.Realtime.SendBuffer = 64
	}
	if cfg.Realtime.PingInterval == 0 {
		cfg.Realtime.PingInterval = 30 * time.Second
	}
	if cfg.Realtime.WriteTimeout == 0 {
		cfg.Realtime.WriteTimeout = 10 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "investorcrm"
	}
	if cfg.Telemetry.MetricsPath == "" {
		cfg.Telemetry.MetricsPath = "/metrics"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("database.host and database.dbname are required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.HTTP.RateLimitRequests < 0 || c.HTTP.AuthRateLimitRequests < 0 {
		return fmt.Errorf("http rate limits cannot be negative")
	}
	if c.LLM.MaxToolRounds < 1 || c.LLM.MaxToolRounds > 10 {
		return fmt.Errorf("llm.max_tool_rounds must be between 1 and 10, got %d", c.LLM.MaxToolRounds)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Cookie.SameSite == "none" && !c.Cookie.Secure {
		return fmt.Errorf("cookie.same_site=none requires cookie.secure=true")
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.JWT.RefreshSecret != "" && c.JWT.RefreshSecret == c.JWT.Secret {
			return fmt.Errorf("jwt.refresh_secret must differ from jwt.secret in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Cookie.Secure {
			return fmt.Errorf("cookie.secure must be true in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production")
			}
		}
		if c.Messaging.WhatsAppEnabled && c.Messaging.WhatsAppAppSecret == "" {
			return fmt.Errorf("messaging.whatsapp_app_secret is required in production to verify webhooks")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	return d.URL()
}

// URL returns the postgres URL used by golang-migrate
func (d *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
