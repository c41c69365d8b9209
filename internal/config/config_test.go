package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

func baseEnv() map[string]string {
	return map[string]string{"API_BASE_URL": "http://localhost:5000/"}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, StorageFile, cfg.StorageBackend)
	assert.NotEmpty(t, cfg.StateFile)
	assert.Zero(t, cfg.APITimeout())
	assert.True(t, cfg.APICircuitBreaker)
	assert.Equal(t, "Lagos", cfg.DeliveryLowFeeCity)
	assert.Equal(t, 5000.0, cfg.DeliveryFreeOver)
	assert.Equal(t, 500.0, cfg.DeliveryReducedFee)
	assert.Equal(t, 1000.0, cfg.DeliveryStandardFee)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce())
	assert.False(t, cfg.KafkaEnabled())
	assert.Zero(t, cfg.APIRateLimitRPS)
}

func TestLoad_MissingBaseURLIsConfigError(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
	assert.Contains(t, err.Error(), "API_BASE_URL is required")
}

func TestLoad_RelativeBaseURLRejected(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"API_BASE_URL": "localhost:5000"})

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute URL")
}

func TestLoad_UnknownStorageBackend(t *testing.T) {
	env := baseEnv()
	env["STORAGE_BACKEND"] = "sqlite"

	_, err := LoadFrom(env)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown STORAGE_BACKEND")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	env := baseEnv()
	env["OTEL_SAMPLE_RATE"] = "2.0"

	cfg, err := LoadFrom(env)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_CustomValues(t *testing.T) {
	env := baseEnv()
	env["STORAGE_BACKEND"] = "Redis"
	env["STATE_TTL_HOURS"] = "24"
	env["KAFKA_BROKERS"] = "k1:9092,k2:9092"
	env["API_TIMEOUT_SECONDS"] = "10"
	env["DELIVERY_LOW_FEE_CITY"] = "Abuja"

	cfg, err := LoadFrom(env)

	require.NoError(t, err)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.Empty(t, cfg.StateFile)
	assert.Equal(t, 24*time.Hour, cfg.StateTTL())
	assert.Equal(t, 10*time.Second, cfg.APITimeout())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "Abuja", cfg.DeliveryLowFeeCity)
}

func TestLoad_NegativeFeeRejected(t *testing.T) {
	env := baseEnv()
	env["DELIVERY_STANDARD_FEE"] = "-1"

	_, err := LoadFrom(env)

	assert.Error(t, err)
}

func TestLoad_NegativeRateLimitRejected(t *testing.T) {
	env := baseEnv()
	env["API_RATE_LIMIT_RPS"] = "-2"

	_, err := LoadFrom(env)

	assert.Error(t, err)
}

func TestLoad_FromProcessEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
}
