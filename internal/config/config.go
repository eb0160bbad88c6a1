// Package config loads service configuration from the environment, with an
// optional YAML override for scoring weights.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
)

// Config is the full runtime configuration for the recruiting gateway.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Attachments AttachmentsConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR,default=:8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=20s"`
	AllowedOrigins  []string      `env:"HTTP_ALLOWED_ORIGINS,default=*"`
}

// DatabaseConfig configures the postgres store. An empty DSN selects the
// in-memory store, useful for local development.
type DatabaseConfig struct {
	DSN            string `env:"DATABASE_DSN"`
	MigrationsPath string `env:"DATABASE_MIGRATIONS,default=migrations"`
	MaxOpenConns   int    `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns   int    `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
}

// RedisConfig configures the notification publisher. An empty address
// disables external notifications.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
	Channel  string `env:"REDIS_CHANNEL,default=recruiting.applications"`
}

// AttachmentsConfig configures blob storage and the cleanup sweeper.
type AttachmentsConfig struct {
	Root          string `env:"ATTACHMENTS_ROOT,default=./attachments"`
	BaseURL       string `env:"ATTACHMENTS_BASE_URL,default=http://localhost:8080/files"`
	SweepSchedule string `env:"ATTACHMENTS_SWEEP_SCHEDULE,default=@every 5m"`
}

// AuthConfig configures actor extraction. An empty key disables token
// verification and all requests are treated as anonymous.
type AuthConfig struct {
	JWTKey string `env:"AUTH_JWT_KEY"`
}

// RateLimitConfig throttles requests per client key.
type RateLimitConfig struct {
	RequestsPerSecond int `env:"RATE_LIMIT_RPS,default=50"`
	Burst             int `env:"RATE_LIMIT_BURST,default=100"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
	Output string `env:"LOG_OUTPUT,default=stdout"`
}

// Load reads .env when present and decodes the environment into Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// LoadScoreWeights reads the scoring weights from config/scoring.yaml. A
// missing file means the stock weights; a malformed file is an error.
func LoadScoreWeights() (application.ScoreWeights, error) {
	return LoadScoreWeightsFromPath(filepath.Join("config", "scoring.yaml"))
}

// LoadScoreWeightsFromPath loads scoring weights from a specific path.
func LoadScoreWeightsFromPath(path string) (application.ScoreWeights, error) {
	weights := application.DefaultScoreWeights()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return weights, nil
		}
		return weights, fmt.Errorf("read scoring config: %w", err)
	}

	if err := yaml.Unmarshal(data, &weights); err != nil {
		return weights, fmt.Errorf("parse scoring config: %w", err)
	}
	if weights.MaxScore <= 0 {
		return weights, fmt.Errorf("scoring config: maxScore must be positive")
	}
	return weights, nil
}
