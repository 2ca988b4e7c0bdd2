package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Upstream  UpstreamConfig
	Settings  SettingsConfig
	Jobs      JobsConfig
	Upload    UploadConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// UpstreamConfig holds connection settings for the forecast backend this
// service fronts. All business data lives there; this service only keeps
// local operational state.
type UpstreamConfig struct {
	// BaseURL is the backend root, e.g. http://forecast-backend:8000
	BaseURL string
	// RequestTimeout is the per-request timeout (seconds)
	RequestTimeout int
	// MaxRetries is how many times transient failures on idempotent
	// requests are retried
	MaxRetries int
	// RetryBackoff is the initial backoff between retries (seconds)
	RetryBackoff int
}

// SettingsConfig holds the local settings store location. The store is a
// small SQLite file carrying gateway-owned state such as the freeze window.
type SettingsConfig struct {
	Path string
}

// JobsConfig holds background job settings
type JobsConfig struct {
	// Enabled controls whether the scheduler is started at all
	Enabled bool
	// RatesRefreshSchedule is a cron expression (with seconds) for the
	// exchange-rate cache refresh
	RatesRefreshSchedule string
	// DatasetTTL is how long a per-user dataset snapshot stays cached (seconds)
	DatasetTTL int
	// DatasetSweepSchedule is a cron expression for evicting expired snapshots
	DatasetSweepSchedule string
}

// UploadConfig bounds inbound file uploads
type UploadConfig struct {
	MaxUploadSizeMB int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins []string
	// AllowedMethods is a list of allowed HTTP methods
	AllowedMethods []string
	// AllowedHeaders is a list of allowed request headers
	AllowedHeaders []string
	// ExposedHeaders is a list of headers exposed to the client
	ExposedHeaders []string
	// AllowCredentials indicates whether credentials are allowed
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	// EnableHSTS enables HTTP Strict Transport Security header
	EnableHSTS bool
	// HSTSMaxAge is the max age for HSTS in seconds
	HSTSMaxAge int
	// HSTSIncludeSubdomains includes subdomains in HSTS
	HSTSIncludeSubdomains bool
	// HSTSPreload enables HSTS preload
	HSTSPreload bool
	// ContentSecurityPolicy sets the Content-Security-Policy header
	ContentSecurityPolicy string
	// FrameOptions sets the X-Frame-Options header (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions string
	// ContentTypeNosniff enables X-Content-Type-Options: nosniff
	ContentTypeNosniff bool
	// XSSProtection sets the X-XSS-Protection header
	XSSProtection string
	// ReferrerPolicy sets the Referrer-Policy header
	ReferrerPolicy string
	// PermissionsPolicy sets the Permissions-Policy header
	PermissionsPolicy string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Enabled enables rate limiting
	Enabled bool
	// RequestsPerMinute is the default rate limit for unauthenticated requests (per IP)
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the rate limit for authenticated requests (per user)
	RequestsPerMinuteAuth int
	// WhitelistIPs is a list of IPs that bypass rate limiting
	WhitelistIPs []string
	// WhitelistPaths is a list of paths that bypass rate limiting (e.g., /health)
	WhitelistPaths []string
}

// RequestTimeoutDuration returns the upstream request timeout as duration
func (u *UpstreamConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(u.RequestTimeout) * time.Second
}

// RetryBackoffDuration returns the initial retry backoff as duration
func (u *UpstreamConfig) RetryBackoffDuration() time.Duration {
	return time.Duration(u.RetryBackoff) * time.Second
}

// DatasetTTLDuration returns the dataset cache TTL as duration
func (j *JobsConfig) DatasetTTLDuration() time.Duration {
	return time.Duration(j.DatasetTTL) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// MaxUploadSizeBytes returns the upload limit in bytes
func (u *UploadConfig) MaxUploadSizeBytes() int64 {
	return u.MaxUploadSizeMB * 1024 * 1024
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from config file
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Allow the upstream base URL to be set with a plain env var
	if override := v.GetString("UPSTREAM_BASE_URL"); override != "" {
		cfg.Upstream.BaseURL = override
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream.baseURL is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "PLM Forecast API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Upstream defaults
	v.SetDefault("upstream.baseURL", "http://localhost:8000")
	v.SetDefault("upstream.requestTimeout", 30)
	v.SetDefault("upstream.maxRetries", 3)
	v.SetDefault("upstream.retryBackoff", 1)

	// Settings store defaults
	v.SetDefault("settings.path", "./data/settings.db")

	// Job defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.ratesRefreshSchedule", "0 0 * * * *") // hourly
	v.SetDefault("jobs.datasetTTL", 300)                     // 5 minutes
	v.SetDefault("jobs.datasetSweepSchedule", "0 */5 * * * *")

	// Upload defaults
	v.SetDefault("upload.maxUploadSizeMB", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults - restrictive by default
	// In development, you may want to override with specific origins
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID", "Content-Disposition"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300) // 5 minutes

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false) // Enable in production with HTTPS
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/upstream", "/health/ready"})
}
