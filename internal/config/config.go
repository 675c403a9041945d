package config

import (
	"errors"
	"fmt"
	"os"

	pkglogger "github.com/huddlechat/huddle-backend/pkg/logger"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the resolved application configuration.
// Values come from the YAML file first and are then overridden by CHAT_* env vars.
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"server"`
	Database      DatabaseConfig      `yaml:"database" envconfig:"database"`
	Redis         RedisConfig         `yaml:"redis" envconfig:"redis"`
	JWT           JWTConfig           `yaml:"jwt" envconfig:"jwt"`
	Storage       StorageConfig       `yaml:"storage" envconfig:"storage"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" envconfig:"elasticsearch"`
	CORS          CORSConfig          `yaml:"cors" envconfig:"cors"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit" envconfig:"rate_limit"`
}

type ServerConfig struct {
	Port int    `yaml:"port" envconfig:"port"`
	Mode string `yaml:"mode" envconfig:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Host            string `yaml:"host" envconfig:"host"`
	Port            int    `yaml:"port" envconfig:"port"`
	User            string `yaml:"user" envconfig:"user"`
	Password        string `yaml:"password" envconfig:"password"`
	Name            string `yaml:"name" envconfig:"name"`
	MaxIdleConns    int    `yaml:"max_idle_conns" envconfig:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns" envconfig:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" envconfig:"conn_max_lifetime"` // seconds
}

// GetDSN builds the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"enabled"`
	Host     string `yaml:"host" envconfig:"host"`
	Port     int    `yaml:"port" envconfig:"port"`
	Password string `yaml:"password" envconfig:"password"`
	DB       int    `yaml:"db" envconfig:"db"`
	PoolSize int    `yaml:"pool_size" envconfig:"pool_size"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret" envconfig:"secret"`
	ExpiresIn int    `yaml:"expires_in" envconfig:"expires_in"` // seconds, for locally issued tokens
}

type StorageConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"enabled"`
	Endpoint        string `yaml:"endpoint" envconfig:"endpoint"`
	Region          string `yaml:"region" envconfig:"region"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"secret_access_key"`
	Bucket          string `yaml:"bucket" envconfig:"bucket"`
	CDNURL          string `yaml:"cdn_url" envconfig:"cdn_url"`
	BasePath        string `yaml:"base_path" envconfig:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style" envconfig:"force_path_style"`
	URLTTL          int    `yaml:"url_ttl" envconfig:"url_ttl"` // seconds
}

type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled" envconfig:"enabled"`
	Addresses []string `yaml:"addresses" envconfig:"addresses"`
	Username  string   `yaml:"username" envconfig:"username"`
	Password  string   `yaml:"password" envconfig:"password"`
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins" envconfig:"allow_origins"` // comma separated
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" envconfig:"requests_per_minute"`
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "debug"},
		Database: DatabaseConfig{
			Host:            "127.0.0.1",
			Port:            3306,
			User:            "chat",
			Name:            "chat",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: 300,
		},
		Redis:     RedisConfig{Host: "127.0.0.1", Port: 6379, PoolSize: 20},
		JWT:       JWTConfig{ExpiresIn: 3600},
		Storage:   StorageConfig{Region: "us-east-1", URLTTL: 3600},
		CORS:      CORSConfig{AllowOrigins: "http://localhost:3000"},
		RateLimit: RateLimitConfig{RequestsPerMinute: 120},
	}
}

// Load reads the YAML file (if present) over the defaults, then applies CHAT_* env overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		pkglogger.Warn("config file %s not found, using defaults and environment", path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := envconfig.Process("chat", cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the service cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (CHAT_JWT_SECRET) is required")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return errors.New("elasticsearch.addresses is required when elasticsearch is enabled")
	}
	return nil
}

// LogResolved logs the non-secret parts of the resolved configuration
func LogResolved(c *Config) {
	pkglogger.GetLogger().Info().
		Int("port", c.Server.Port).
		Str("gin_mode", c.Server.Mode).
		Str("db_host", c.Database.Host).
		Str("db_name", c.Database.Name).
		Bool("redis", c.Redis.Enabled).
		Bool("storage", c.Storage.Enabled).
		Str("bucket", c.Storage.Bucket).
		Bool("elasticsearch", c.Elasticsearch.Enabled).
		Str("cors", c.CORS.AllowOrigins).
		Int("rate_limit_rpm", c.RateLimit.RequestsPerMinute).
		Msg("config resolved")
}
