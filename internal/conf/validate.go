// conf/validate.go

package conf

import (
	"fmt"
	"strings"

	"github.com/tphakala/ebird-recommend/internal/logger"
)

// Limits shared by the CLI, the HTTP API and configuration validation.
const (
	MaxRadiusKm = 500
	MaxDays     = 30
	MaxTop      = 200
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		func(s *Settings) error { return validateEBirdSettings(&s.EBird) },
		func(s *Settings) error { return validateCacheSettings(&s.Cache) },
		func(s *Settings) error { return validateSearchSettings(&s.Search) },
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateLoggingSettings(&s.Logging) },
		func(s *Settings) error { return validateSentrySettings(&s.Sentry) },
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateEBirdSettings(s *EBirdSettings) error {
	if err := validateEnvURL(s.BaseURL); err != nil {
		return fmt.Errorf("ebird.baseurl: %w", err)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("ebird.timeout must be positive, got %v", s.Timeout)
	}
	if s.RequestsPerSecond <= 0 {
		return fmt.Errorf("ebird.requestspersecond must be positive, got %g", s.RequestsPerSecond)
	}
	if s.MaxRetries < 1 {
		return fmt.Errorf("ebird.maxretries must be at least 1, got %d", s.MaxRetries)
	}
	if s.Breaker.MaxFailures == 0 {
		return fmt.Errorf("ebird.breaker.maxfailures must be at least 1")
	}
	return nil
}

func validateCacheSettings(s *CacheSettings) error {
	if s.Enabled && strings.TrimSpace(s.Dir) == "" {
		return fmt.Errorf("cache.dir is required when the cache is enabled")
	}
	if s.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", s.TTL)
	}
	return nil
}

func validateSearchSettings(s *SearchSettings) error {
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("search.latitude must be between -90 and 90, got %g", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("search.longitude must be between -180 and 180, got %g", s.Longitude)
	}
	if s.Radius <= 0 || s.Radius > MaxRadiusKm {
		return fmt.Errorf("search.radius must be greater than 0 and at most %d, got %g", MaxRadiusKm, s.Radius)
	}
	if s.Days < 1 || s.Days > MaxDays {
		return fmt.Errorf("search.days must be between 1 and %d, got %d", MaxDays, s.Days)
	}
	if s.Top < 0 || s.Top > MaxTop {
		return fmt.Errorf("search.top must be between 0 and %d, got %d", MaxTop, s.Top)
	}
	return nil
}

func validateWebServerSettings(s *WebServerSettings) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("webserver.port must be between 1 and 65535, got %d", s.Port)
	}
	for _, origin := range s.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if err := validateEnvURL(origin); err != nil {
			return fmt.Errorf("webserver.allowedorigins: %q: %w", origin, err)
		}
	}
	return nil
}

func validateLoggingSettings(s *logger.LoggingConfig) error {
	levels := []string{s.DefaultLevel}
	if s.Console != nil {
		levels = append(levels, s.Console.Level)
	}
	if s.FileOutput != nil {
		levels = append(levels, s.FileOutput.Level)
	}
	for _, level := range levels {
		switch logger.LogLevel(level) {
		case "", logger.LogLevelTrace, logger.LogLevelDebug, logger.LogLevelInfo, logger.LogLevelWarn, logger.LogLevelError:
		default:
			return fmt.Errorf("logging: unknown level %q", level)
		}
	}
	return nil
}

func validateSentrySettings(s *SentrySettings) error {
	if s.Enabled && s.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}
