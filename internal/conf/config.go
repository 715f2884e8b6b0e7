// config.go: settings struct for ebird-recommend and functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// BreakerSettings controls the circuit breaker guarding the eBird API
type BreakerSettings struct {
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenTimeout time.Duration // how long the breaker stays open before probing
}

// EBirdSettings contains settings for the eBird API client
type EBirdSettings struct {
	APIKey            string          // eBird API token, see https://ebird.org/api/keygen; ${VAR} references are expanded
	APIKeyFile        string          // file holding the token, e.g. a Docker secret; wins over APIKey
	BaseURL           string          // API base URL
	Timeout           time.Duration   // per-request timeout
	RequestsPerSecond float64         // client side rate limit
	MaxRetries        int             // attempts per request including the first
	Locale            string          // taxonomy locale for common names
	Breaker           BreakerSettings // circuit breaker settings
}

// CacheSettings contains settings for the provider response cache
type CacheSettings struct {
	Enabled bool          // persist provider responses on disk
	Dir     string        // cache directory
	TTL     time.Duration // time-to-live for cached responses
}

// SearchSettings holds defaults for location based queries
type SearchSettings struct {
	Latitude  float64 // default search latitude
	Longitude float64 // default search longitude
	Radius    float64 // search radius in km, also the score normalization distance
	Days      int     // how many days back to look for observations
	Top       int     // number of recommendations to show, 0 for all
}

// LifeListSettings points at the user's eBird data export
type LifeListSettings struct {
	Path string // path to MyEBirdData.csv
}

// WebServerSettings contains settings for the HTTP API
type WebServerSettings struct {
	Host            string        // listen host
	Port            int           // listen port
	AllowedOrigins  []string      // CORS allowed origins
	BodyLimit       string        // maximum request body size, e.g. "1M"
	ReadTimeout     time.Duration // HTTP read timeout
	WriteTimeout    time.Duration // HTTP write timeout
	IdleTimeout     time.Duration // HTTP idle timeout
	ShutdownTimeout time.Duration // graceful shutdown timeout
	Metrics         bool          // expose /metrics
}

// SentrySettings controls optional error telemetry
type SentrySettings struct {
	Enabled     bool   // report errors to Sentry
	DSN         string // Sentry DSN
	Environment string // environment tag
}

// Settings contains all configuration options for ebird-recommend.
type Settings struct {
	Debug bool // true to enable debug logging

	EBird     EBirdSettings
	Cache     CacheSettings
	Search    SearchSettings
	LifeList  LifeListSettings
	WebServer WebServerSettings
	Logging   logger.LoggingConfig
	Sentry    SentrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, errors.New(fmt.Errorf("error initializing viper: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	settings, err := unmarshalSettings()
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// unmarshalSettings decodes the current viper state and validates it
func unmarshalSettings() (*Settings, error) {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}

	return settings, nil
}

// resolveSecrets replaces credential references with their values
func resolveSecrets(settings *Settings) error {
	apiKey, err := secrets.Resolve(settings.EBird.APIKeyFile, settings.EBird.APIKey)
	if err != nil {
		return errors.New(fmt.Errorf("error resolving eBird API key: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	settings.EBird.APIKey = apiKey

	dsn, err := secrets.ExpandString(settings.Sentry.DSN)
	if err != nil {
		return errors.New(fmt.Errorf("error resolving sentry dsn: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	settings.Sentry.DSN = dsn
	return nil
}

// initViper sets defaults, binds the environment and reads the config file if one exists
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Running without a config file is fine, defaults and env cover everything
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the embedded default config.yaml.
func DefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteDefaultConfig writes the embedded default configuration to configPath,
// refusing to overwrite an existing file.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return errors.Newf("config file already exists: %s", configPath).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	return os.WriteFile(configPath, []byte(DefaultConfig()), 0o600)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// MarshalYAML encodes settings using the same keys as config.yaml.
func MarshalYAML(settings *Settings) ([]byte, error) {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return yamlData, nil
}

// SaveYAMLConfig writes settings to configPath atomically via a temporary file and rename.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := MarshalYAML(settings)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// The file holds the API key
	if err := os.Chmod(tempFileName, 0o600); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
