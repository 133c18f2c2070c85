package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
)

// Config structure represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port         string `yaml:"port" env:"SERVER_PORT"`
	Mode         string `yaml:"mode" env:"SERVER_MODE"`
	BaseURL      string `yaml:"base_url" env:"SERVER_BASE_URL"`
	ReadTimeout  string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string `yaml:"host" env:"DB_HOST"`
	Port            string `yaml:"port" env:"DB_PORT"`
	User            string `yaml:"user" env:"DB_USER"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	MigrationsPath  string `yaml:"migrations_path" env:"DB_MIGRATIONS_PATH"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret                string `yaml:"secret" env:"JWT_SECRET"`
	AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
	Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

// StorageConfig selects and configures the object storage driver
type StorageConfig struct {
	Driver          string `yaml:"driver" env:"STORAGE_DRIVER"`
	Path            string `yaml:"path" env:"STORAGE_PATH"`
	PublicURL       string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
	Endpoint        string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"STORAGE_SECRET_ACCESS_KEY"`
	Region          string `yaml:"region" env:"STORAGE_REGION"`
	UseSSL          bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL"`
	NotesBucket     string `yaml:"notes_bucket" env:"STORAGE_NOTES_BUCKET"`
	AvatarsBucket   string `yaml:"avatars_bucket" env:"STORAGE_AVATARS_BUCKET"`
}

// CatalogConfig tunes the note catalog
type CatalogConfig struct {
	CacheTTL string `yaml:"cache_ttl" env:"CATALOG_CACHE_TTL"`
	Language string `yaml:"language" env:"CATALOG_LANGUAGE"`
}

// RateLimitConfig limits auth endpoint traffic per client IP
type RateLimitConfig struct {
	AuthRPS   float64 `yaml:"auth_rps" env:"RATELIMIT_AUTH_RPS"`
	AuthBurst int     `yaml:"auth_burst" env:"RATELIMIT_AUTH_BURST"`
}

// LoadConfig loads configuration from a .env file, a YAML file and environment variables,
// in that order of increasing precedence
func LoadConfig(configPath string) (*Config, error) {
	// .env only seeds variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "60s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "notehub"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsPath = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "notehub"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Storage.Driver = StorageDriverLocal
	config.Storage.Path = "uploads"
	config.Storage.NotesBucket = "notes"
	config.Storage.AvatarsBucket = "avatars"

	config.Catalog.CacheTTL = "1m"
	config.Catalog.Language = "pl"

	config.RateLimit.AuthRPS = 1
	config.RateLimit.AuthBurst = 5
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration":      config.JWT.AccessTokenExpiration,
		"server read timeout":              config.Server.ReadTimeout,
		"server write timeout":             config.Server.WriteTimeout,
		"catalog cache TTL":                config.Catalog.CacheTTL,
		"database connection max lifetime": config.Database.ConnMaxLifetime,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Storage.Driver) {
	case StorageDriverLocal:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the local driver")
		}
	case StorageDriverMinio:
		if config.Storage.Endpoint == "" {
			return fmt.Errorf("storage endpoint is required for the minio driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if config.RateLimit.AuthRPS <= 0 || config.RateLimit.AuthBurst <= 0 {
		return fmt.Errorf("auth rate limit must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production") || strings.EqualFold(c.Server.Mode, "release")
}

// PublicStorageURL returns the base URL stored objects are reachable under
func (c *Config) PublicStorageURL() string {
	if c.Storage.PublicURL != "" {
		return strings.TrimRight(c.Storage.PublicURL, "/")
	}
	if strings.EqualFold(c.Storage.Driver, StorageDriverLocal) {
		return strings.TrimRight(c.Server.BaseURL, "/") + "/uploads"
	}
	scheme := "http"
	if c.Storage.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + c.Storage.Endpoint
}
