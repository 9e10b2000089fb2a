package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Stream   StreamConfig
	Storage  StorageConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	BodyLimitMB        int
}

type UpstreamConfig struct {
	Provider      string // "openai"
	APIKey        string
	BaseURL       string
	DefaultModel  string
	HeaderTimeout time.Duration
}

type StreamConfig struct {
	KeepAliveInterval  time.Duration
	RateLimitPerMinute int
	PreserveEventNames bool
}

type StorageConfig struct {
	BucketHost     string
	DownloadURLTTL time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}
	return FromEnv()
}

// FromEnv reads the configuration without touching .env files.
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 25),
		},
		Upstream: UpstreamConfig{
			Provider:      getEnv("LLM_PROVIDER", "openai"),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			BaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/"),
			DefaultModel:  getEnv("LLM_DEFAULT_MODEL", "gpt-4.1-mini"),
			HeaderTimeout: getEnvAsDuration("UPSTREAM_HEADER_TIMEOUT", 30*time.Second),
		},
		Stream: StreamConfig{
			KeepAliveInterval:  getEnvAsDuration("STREAM_KEEPALIVE_INTERVAL", 15*time.Second),
			RateLimitPerMinute: getEnvAsInt("STREAM_RATE_LIMIT_PER_MINUTE", 0),
			PreserveEventNames: getEnvAsBool("STREAM_PRESERVE_EVENT_NAMES", false),
		},
		Storage: StorageConfig{
			BucketHost:     getEnv("STORAGE_BUCKET_HOST", "example-bucket.s3.amazonaws.com"),
			DownloadURLTTL: getEnvAsDuration("DOWNLOAD_URL_TTL", 15*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "chatbots-backend"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
