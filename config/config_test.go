package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	// Test with default values (without config file)
	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "weather-dashboard", config.App.Name)
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, "development", config.App.Env)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "https://api.weatherapi.com/v1", config.Weather.BaseURL)
	assert.Equal(t, 60*time.Second, config.Cache.StaleTime)
	assert.Equal(t, 5*time.Minute, config.Cache.GCTime)
	assert.Equal(t, 24*time.Hour, config.Cache.HistoryGCTime)
	assert.Equal(t, "sqlite", config.Storage.Driver)
	assert.Empty(t, config.Weather.APIKey)
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("APP_VERSION", "2.0.0")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WEATHER_API_KEY", "secret")
	t.Setenv("CACHE_STALE_TIME", "30s")
	t.Setenv("STORAGE_DRIVER", "memory")

	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)

	assert.Equal(t, "test-app", config.App.Name)
	assert.Equal(t, "2.0.0", config.App.Version)
	assert.Equal(t, "production", config.App.Env)
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "secret", config.Weather.APIKey)
	assert.Equal(t, 30*time.Second, config.Cache.StaleTime)
	assert.Equal(t, "memory", config.Storage.Driver)
	assert.True(t, config.IsProduction())
}

func TestConfigFileLoading(t *testing.T) {
	path := writeConfig(t, `
app:
  name: from-file
weather:
  api_key: file-key
  timeout: 3s
cache:
  stale_time: 45s
storage:
  driver: file
  path: /tmp/prefs
`)

	config, err := NewConfigWithProvider(NewFileConfigProvider(path))
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.App.Name)
	// untouched sections keep their defaults
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, "file-key", config.Weather.APIKey)
	assert.Equal(t, 3*time.Second, config.Weather.Timeout)
	assert.Equal(t, 45*time.Second, config.Cache.StaleTime)
	assert.Equal(t, "file", config.Storage.Driver)
	assert.Equal(t, "/tmp/prefs", config.Storage.Path)
}

func TestConfigEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "weather:\n  api_key: file-key\n")
	t.Setenv("WEATHER_API_KEY", "env-key")

	config, err := NewConfigWithProvider(NewFileConfigProvider(path))
	require.NoError(t, err)
	assert.Equal(t, "env-key", config.Weather.APIKey)
}

func TestConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "app: [unclosed")

	_, err := NewConfigWithProvider(NewFileConfigProvider(path))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	provider := NewFileConfigProvider("nonexistent.yaml")

	config := Default()
	assert.NoError(t, provider.Validate(config))

	invalid := Default()
	invalid.App.Name = ""
	err := provider.Validate(invalid)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "app.name")

	invalid = Default()
	invalid.Storage.Driver = "mongo"
	err = provider.Validate(invalid)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")

	invalid = Default()
	invalid.Storage.Driver = "redis"
	invalid.Storage.RedisAddr = ""
	err = provider.Validate(invalid)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.redisaddr")

	invalid = Default()
	invalid.Cache.RetryMaxDelay = time.Millisecond
	assert.Error(t, provider.Validate(invalid))
}

func TestConfigHelperMethods(t *testing.T) {
	config := &Config{App: AppConfig{Env: "development"}}

	assert.True(t, config.IsDevelopment())
	assert.False(t, config.IsProduction())
}

func TestFileConfigProvider_LoadFromFile(t *testing.T) {
	provider := NewFileConfigProvider("nonexistent.yaml")
	config := &Config{}

	// Test loading from non-existent file (should not error)
	err := provider.loadFromFile(config)
	assert.NoError(t, err)
}

func TestNewConfigWithProvider(t *testing.T) {
	mockProvider := &MockConfigProvider{config: Default()}
	mockProvider.config.App.Name = "test-app"

	config, err := NewConfigWithProvider(mockProvider)
	require.NoError(t, err)
	assert.Equal(t, "test-app", config.App.Name)

	_, err = NewConfigWithProvider(&MockConfigProvider{err: os.ErrPermission})
	assert.ErrorIs(t, err, os.ErrPermission)
}

// MockConfigProvider for testing
type MockConfigProvider struct {
	config *Config
	err    error
}

func (m *MockConfigProvider) Load() (*Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.config, nil
}

func (m *MockConfigProvider) Validate(config *Config) error {
	return nil
}
