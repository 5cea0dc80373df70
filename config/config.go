package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, e.g. PRESALE_PAGE_LIMIT.
const EnvPrefix = "PRESALE"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Open-data source
	BaseURL        string        `envconfig:"BASE_URL" default:"https://data.taipei" validate:"required,url"`
	ResourceID     string        `envconfig:"RESOURCE_ID" default:"2979c431-7a32-4067-9af2-e716cd825c4b" validate:"required"`
	ProxyURL       string        `envconfig:"PROXY_URL"`
	PageLimit      int           `envconfig:"PAGE_LIMIT" default:"1000" validate:"min=1,max=10000"`
	MaxRecords     int           `envconfig:"MAX_RECORDS" default:"30000" validate:"min=1"`
	PageDelay      time.Duration `envconfig:"PAGE_DELAY" default:"100ms" validate:"min=0s"`
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"3" validate:"min=1,max=10"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"min=1s"`

	// HTTP server
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8080" validate:"required"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"20971520" validate:"min=1024"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"10" validate:"gt=0"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"30" validate:"min=1"`
	ResultTTL      time.Duration `envconfig:"RESULT_TTL" default:"168h"`
	AutoRefresh    bool          `envconfig:"AUTO_REFRESH" default:"true"`

	// Output
	OutputDir     string `envconfig:"OUTPUT_DIR" default:"./output" validate:"required"`
	ChromeBin     string `envconfig:"CHROME_BIN"`
	SnapshotWidth int    `envconfig:"SNAPSHOT_WIDTH" default:"1200" validate:"min=320,max=4000"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// Load reads the .env file, then the environment, and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
