package config

import (
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	// URL, when set, is used verbatim instead of the individual components below.
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the raw-content archive.
// The archive is disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether an archive endpoint was configured.
func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }

// AuthConfig selects how bearer tokens are verified.
type AuthConfig struct {
	// Mode is "remote" (delegate to the auth microservice) or "jwt" (verify locally).
	Mode       string
	BaseURL    string
	TimeoutSec int
	JWTSecret  string
}

// SearchConfig holds connection settings for the remote Elasticsearch index.
type SearchConfig struct {
	Addresses   []string
	Username    string
	Password    string
	APIKey      string
	Index       string
	TimeoutSec  int
	MaxPassages int
}

// PolicyConfig holds upload and storage accounting limits.
type PolicyConfig struct {
	// QuotaKB is the per-user cumulative ceiling; 0 means unlimited.
	QuotaKB         float64
	MaxFileSizeKB   float64
	MaxTags         int
	ReindexMaxTries int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	LogMode     string
	StoreDriver string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Auth        AuthConfig
	Search      SearchConfig
	Policy      PolicyConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", "development"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			Mode:       strings.ToLower(getEnv("AUTH_MODE", "remote")),
			BaseURL:    strings.TrimRight(getEnv("AUTH_BASE_URL", "http://localhost:8000"), "/"),
			TimeoutSec: getEnvInt("AUTH_TIMEOUT_SEC", 30),
			JWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
		},
		Search: SearchConfig{
			Addresses:   getEnvList("ELASTIC_ADDRESSES", []string{"http://localhost:9200"}),
			Username:    getEnv("ELASTIC_USERNAME", ""),
			Password:    getEnv("ELASTIC_PASSWORD", ""),
			APIKey:      getEnv("ELASTIC_API_KEY", ""),
			Index:       getEnv("ELASTIC_INDEX", "ragsearch-files"),
			TimeoutSec:  getEnvInt("SEARCH_TIMEOUT_SEC", 60),
			MaxPassages: getEnvInt("SEARCH_MAX_PASSAGES", 5),
		},
		Policy: PolicyConfig{
			QuotaKB:         getEnvFloat("QUOTA_KB", 0),
			MaxFileSizeKB:   getEnvFloat("MAX_FILE_SIZE_KB", 102400),
			MaxTags:         getEnvInt("TAGS_MAX", 10),
			ReindexMaxTries: getEnvInt("REINDEX_MAX_TRIES", 3),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil && f >= 0 {
			return f
		}
	}
	return def
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
