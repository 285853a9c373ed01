package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServiceName      string `mapstructure:"service_name"`
	Port             string `mapstructure:"port"`
	OTELEndpoint     string `mapstructure:"otel_exporter_otlp_endpoint"`
	TelemetryEnabled bool   `mapstructure:"telemetry_enabled"`

	VietQRProfile       string        `mapstructure:"vietqr_profile"`
	BankDirectoryURL    string        `mapstructure:"bank_directory_url"`
	BankRefreshInterval time.Duration `mapstructure:"bank_refresh_interval"`

	WorkerPoolSize int   `mapstructure:"worker_pool_size"`
	MaxBatchItems  int   `mapstructure:"max_batch_items"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	CloudinaryCloudName string        `mapstructure:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string        `mapstructure:"cloudinary_api_key"`
	CloudinaryAPISecret string        `mapstructure:"cloudinary_api_secret"`
	CleanupInterval     time.Duration `mapstructure:"cleanup_interval"`
	CleanupDays         int           `mapstructure:"cleanup_days"`
}

var defaults = map[string]interface{}{
	"service_name":                "qr-service",
	"port":                        "3000",
	"otel_exporter_otlp_endpoint": "localhost:4317",
	"telemetry_enabled":           true,
	"vietqr_profile":              "minimal",
	"bank_directory_url":          "",
	"bank_refresh_interval":       "24h",
	"worker_pool_size":            8,
	"max_batch_items":             2000,
	"max_upload_bytes":            50 << 20,
	"cloudinary_cloud_name":       "",
	"cloudinary_api_key":          "",
	"cloudinary_api_secret":       "",
	"cleanup_interval":            "0s",
	"cleanup_days":                30,
}

// Load reads configuration from, in increasing priority: defaults, an
// optional config.json in the working directory, a .env file and the
// environment. Keys are the upper-case env names, e.g. WORKER_POOL_SIZE.
func Load() (*Config, error) {
	return load(".")
}

func load(dir string) (*Config, error) {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}
	return cfg, nil
}

// HostingEnabled reports whether Cloudinary credentials are complete.
func (c *Config) HostingEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
