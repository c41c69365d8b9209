package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgconfig "github.com/Salisuili/rest-frontend/pkg/config"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// Storage backends.
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Backend API
	APIBaseURL        string `env:"API_BASE_URL"`
	APITimeoutSeconds int    `env:"API_TIMEOUT_SECONDS" envDefault:"0"`
	APICircuitBreaker bool   `env:"API_CIRCUIT_BREAKER" envDefault:"true"`

	// Client-side pacing; zero RPS disables it.
	APIRateLimitRPS   float64 `env:"API_RATE_LIMIT_RPS" envDefault:"0"`
	APIRateLimitBurst int     `env:"API_RATE_LIMIT_BURST" envDefault:"5"`

	// Circuit breaker
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBIntervalSec  int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeoutSec   int     `env:"CB_TIMEOUT_SECONDS" envDefault:"15"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.6"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Client state storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	StateFile      string `env:"STATE_FILE"`
	StateTTLHours  int    `env:"STATE_TTL_HOURS" envDefault:"0"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:""`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Delivery fee policy
	DeliveryLowFeeCity  string  `env:"DELIVERY_LOW_FEE_CITY" envDefault:"Lagos"`
	DeliveryFreeOver    float64 `env:"DELIVERY_FREE_THRESHOLD" envDefault:"5000"`
	DeliveryReducedFee  float64 `env:"DELIVERY_REDUCED_FEE" envDefault:"500"`
	DeliveryStandardFee float64 `env:"DELIVERY_STANDARD_FEE" envDefault:"1000"`

	// Menu search
	SearchDebounceMS int `env:"SEARCH_DEBOUNCE_MS" envDefault:"500"`

	// Kafka analytics events; empty disables publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Ops HTTP server started by the interactive shell; 0 disables it.
	OpsHTTPPort int `env:"OPS_HTTP_PORT" envDefault:"0"`
	// CIDRs allowed to reach /debug/pprof on the ops server; empty disables it.
	OpsPprofCIDRs []string `env:"OPS_PPROF_CIDRS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return finish(cfg)
}

// LoadFrom reads configuration from the given variables.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environ); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	if cfg.StateFile == "" && cfg.StorageBackend == StorageFile {
		cfg.StateFile = defaultStateFile()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rest-frontend", "state.json")
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return apperrors.Config("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return apperrors.Config(fmt.Sprintf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL))
	}
	if c.APITimeoutSeconds < 0 {
		return apperrors.Config("API_TIMEOUT_SECONDS must not be negative")
	}
	if c.APIRateLimitRPS < 0 {
		return apperrors.Config("API_RATE_LIMIT_RPS must not be negative")
	}
	switch c.StorageBackend {
	case StorageFile, StorageRedis, StoragePostgres, StorageMemory:
	default:
		return apperrors.Config(fmt.Sprintf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.StateTTLHours < 0 {
		return apperrors.Config("STATE_TTL_HOURS must not be negative")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return apperrors.Config(fmt.Sprintf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio))
	}
	if c.DeliveryFreeOver < 0 || c.DeliveryReducedFee < 0 || c.DeliveryStandardFee < 0 {
		return apperrors.Config("DELIVERY_* amounts must not be negative")
	}
	if c.SearchDebounceMS < 0 {
		return apperrors.Config("SEARCH_DEBOUNCE_MS must not be negative")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return apperrors.Config(fmt.Sprintf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate))
	}
	if c.OpsHTTPPort < 0 || c.OpsHTTPPort > 65535 {
		return apperrors.Config(fmt.Sprintf("invalid OPS_HTTP_PORT: %d", c.OpsHTTPPort))
	}
	return nil
}

// APITimeout is the per-request client timeout; zero means none.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// SearchDebounce is the idle interval before a search request is sent.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// StateTTL is the expiry applied to persisted state; zero means none.
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.StateTTLHours) * time.Hour
}

// KafkaEnabled reports whether analytics events are published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
