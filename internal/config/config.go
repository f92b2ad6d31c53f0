package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/windsight/bladescan-backend/pkg/logger"
)

// Config is the full application configuration, loaded from a yaml file
// with environment-variable overrides for secrets and deploy-specific values.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	CORS      CORSConfig      `yaml:"cors"`
	Storage   StorageConfig   `yaml:"storage"`
	Detector  DetectorConfig  `yaml:"detector"`
}

// AppConfig server basics
type AppConfig struct {
	Env  string `yaml:"env"`
	Port int    `yaml:"port"`
}

// DatabaseConfig MySQL connection settings
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

// GetDSN builds the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// RedisConfig cache connection settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig token settings
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // minutes
}

// CORSConfig allowed origins, comma-separated
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// StorageConfig on-disk inspection storage settings
type StorageConfig struct {
	Root            string `yaml:"root"`
	TempDir         string `yaml:"temp_dir"`
	MaxUploadSizeMB int64  `yaml:"max_upload_size_mb"`
}

// MaxUploadBytes returns the archive size ceiling in bytes
func (s StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadSizeMB * 1024 * 1024
}

// DetectorConfig inference sidecar settings. Confidence threshold and
// image size are deployment constants, not request parameters.
type DetectorConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	Confidence     float64 `yaml:"confidence"`
	ImageSize      int     `yaml:"image_size"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Serialize      bool    `yaml:"serialize"`
}

// Load reads the yaml config file and applies env overrides
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured (set JWT_SECRET)")
	}
	if cfg.Storage.Root == "" {
		return nil, fmt.Errorf("storage root is not configured (set STORAGE_ROOT)")
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App:  AppConfig{Env: "local", Port: 8080},
		Database: DatabaseConfig{
			Host: "localhost", Port: 3306,
			MaxIdleConns: 10, MaxOpenConns: 100, ConnMaxLifetime: 3600,
		},
		Redis:   RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		JWT:     JWTConfig{ExpiresIn: 1440},
		Storage: StorageConfig{MaxUploadSizeMB: 500},
		Detector: DetectorConfig{
			Confidence:     0.35,
			ImageSize:      1024,
			TimeoutSeconds: 120,
			Serialize:      true,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Database.Host, "DB_HOST")
	overrideInt(&cfg.Database.Port, "DB_PORT")
	overrideString(&cfg.Database.User, "DB_USER")
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.Database.Name, "DB_NAME")

	overrideString(&cfg.Redis.Host, "REDIS_HOST")
	overrideInt(&cfg.Redis.Port, "REDIS_PORT")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")

	overrideString(&cfg.JWT.Secret, "JWT_SECRET")
	overrideString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	overrideString(&cfg.Storage.Root, "STORAGE_ROOT")
	overrideString(&cfg.Storage.TempDir, "TEMP_UPLOAD_DIR")
	overrideString(&cfg.Detector.Endpoint, "DETECTOR_ENDPOINT")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// IsDevelopment reports whether the app runs in a development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "local" || c.App.Env == "development" || c.App.Env == "dev"
}

// LogResolved logs the non-secret resolved configuration at startup
func (c *Config) LogResolved() {
	logger.GetLogger().Info().
		Str("env", c.App.Env).
		Int("port", c.App.Port).
		Str("db_host", c.Database.Host).
		Str("db_name", c.Database.Name).
		Str("redis_host", c.Redis.Host).
		Str("storage_root", c.Storage.Root).
		Str("detector_endpoint", c.Detector.Endpoint).
		Bool("detector_serialize", c.Detector.Serialize).
		Msg("configuration resolved")
}
