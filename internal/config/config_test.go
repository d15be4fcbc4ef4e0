package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("QUOTA_KB", "2048.5")
	t.Setenv("ELASTIC_ADDRESSES", "http://es1:9200, http://es2:9200,")
	t.Setenv("AUTH_BASE_URL", "http://auth:8000/")
	t.Setenv("AUTH_MODE", "JWT")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 2048.5, cfg.Policy.QuotaKB)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Search.Addresses)
	assert.Equal(t, "http://auth:8000", cfg.Auth.BaseURL)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"QUOTA_KB", "MAX_FILE_SIZE_KB", "TAGS_MAX", "STORE_DRIVER", "MINIO_ENDPOINT", "ELASTIC_INDEX"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, float64(0), cfg.Policy.QuotaKB)
	assert.Equal(t, float64(102400), cfg.Policy.MaxFileSizeKB)
	assert.Equal(t, 10, cfg.Policy.MaxTags)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "ragsearch-files", cfg.Search.Index)
	assert.False(t, cfg.MinIO.Enabled())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_FLOAT_VAR"

	os.Setenv(key, "1.5")
	assert.Equal(t, 1.5, getEnvFloat(key, 0))

	os.Setenv(key, "-3")
	assert.Equal(t, float64(7), getEnvFloat(key, 7))

	os.Unsetenv(key)
	assert.Equal(t, float64(7), getEnvFloat(key, 7))
}
