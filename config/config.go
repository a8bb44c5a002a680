package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	App     AppConfig     `yaml:"app"`
	Log     LogConfig     `yaml:"log"`
	Weather WeatherConfig `yaml:"weather"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Server  ServerConfig  `yaml:"server"`
}

type AppConfig struct {
	Name    string `yaml:"name" split_words:"true" validate:"required"`
	Version string `yaml:"version" split_words:"true" validate:"required"`
	Env     string `yaml:"env" split_words:"true" validate:"oneof=development test production"`
}

type LogConfig struct {
	Level     string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	SentryDSN string `yaml:"sentry_dsn" split_words:"true"`
}

// WeatherConfig describes the external weather API.
type WeatherConfig struct {
	BaseURL   string        `yaml:"base_url" split_words:"true" validate:"required,url"`
	APIKey    string        `yaml:"api_key,omitempty" split_words:"true"`
	Timeout   time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	RateLimit float64       `yaml:"rate_limit" split_words:"true" validate:"gt=0"`
	Burst     int           `yaml:"burst" split_words:"true" validate:"gt=0"`
}

// CacheConfig holds the query orchestrator windows.
type CacheConfig struct {
	StaleTime       time.Duration `yaml:"stale_time" split_words:"true" validate:"gt=0"`
	GCTime          time.Duration `yaml:"gc_time" split_words:"true" validate:"gt=0"`
	HistoryGCTime   time.Duration `yaml:"history_gc_time" split_words:"true" validate:"gt=0"`
	RefetchInterval time.Duration `yaml:"refetch_interval" split_words:"true" validate:"gte=0"`
	SweepInterval   time.Duration `yaml:"sweep_interval" split_words:"true" validate:"gte=0"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay" split_words:"true" validate:"gt=0"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay" split_words:"true" validate:"gtefield=RetryBaseDelay"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver" split_words:"true" validate:"oneof=memory file sqlite redis"`
	Path          string `yaml:"path" split_words:"true" validate:"required_if=Driver file,required_if=Driver sqlite"`
	RedisAddr     string `yaml:"redis_addr" split_words:"true" validate:"required_if=Driver redis"`
	RedisPassword string `yaml:"redis_password" split_words:"true"`
	RedisDB       int    `yaml:"redis_db" split_words:"true" validate:"gte=0"`
	KeyPrefix     string `yaml:"key_prefix" split_words:"true"`
}

type AuthConfig struct {
	GoogleClientID     string `yaml:"google_client_id" split_words:"true"`
	GoogleClientSecret string `yaml:"google_client_secret" split_words:"true"`
	RedirectURL        string `yaml:"redirect_url" split_words:"true" validate:"omitempty,url"`
}

type ServerConfig struct {
	Port string `yaml:"port" split_words:"true" validate:"required,numeric"`
}

// Provider loads and validates a Config.
type Provider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

// FileConfigProvider layers defaults, an optional YAML file and the environment.
type FileConfigProvider struct {
	path     string
	validate *validator.Validate
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{
		path:     path,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	dataDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "weather-dashboard")
	}

	return &Config{
		App: AppConfig{
			Name:    "weather-dashboard",
			Version: "1.0.0",
			Env:     "development",
		},
		Log: LogConfig{
			Level: "info",
		},
		Weather: WeatherConfig{
			BaseURL:   "https://api.weatherapi.com/v1",
			Timeout:   10 * time.Second,
			RateLimit: 5,
			Burst:     10,
		},
		Cache: CacheConfig{
			StaleTime:       60 * time.Second,
			GCTime:          5 * time.Minute,
			HistoryGCTime:   24 * time.Hour,
			RefetchInterval: 60 * time.Second,
			SweepInterval:   time.Minute,
			RetryBaseDelay:  time.Second,
			RetryMaxDelay:   30 * time.Second,
		},
		Storage: StorageConfig{
			Driver:    "sqlite",
			Path:      filepath.Join(dataDir, "preferences.db"),
			KeyPrefix: "weather-dashboard:",
		},
		Auth: AuthConfig{
			RedirectURL: "http://localhost:8080/api/v1/auth/callback",
		},
		Server: ServerConfig{
			Port: "8080",
		},
	}
}

func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := Default()

	if err := p.loadFromFile(cnf); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return cnf, nil
}

// loadFromFile overlays the YAML file on config. A missing file is not an error.
func (p *FileConfigProvider) loadFromFile(config *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", p.path, err)
	}

	if err := yaml.Unmarshal(yamlData, config); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", p.path, err)
	}
	return nil
}

func (p *FileConfigProvider) Validate(config *Config) error {
	if err := p.validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", fieldPath(verrs[0].Namespace()), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewConfig loads .env (if present), then the YAML file at path, then the
// environment.
func NewConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}
	return NewConfigWithProvider(NewFileConfigProvider(path))
}

func NewConfigWithProvider(provider Provider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}
	if err := provider.Validate(cnf); err != nil {
		return nil, err
	}
	return cnf, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// fieldPath turns "Config.App.Name" into "app.name".
func fieldPath(namespace string) string {
	out := make([]byte, 0, len(namespace))
	start := 0
	for i := 0; i < len(namespace); i++ {
		if namespace[i] == '.' {
			start = i + 1
			break
		}
	}
	for i := start; i < len(namespace); i++ {
		ch := namespace[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		out = append(out, ch)
	}
	return string(out)
}
