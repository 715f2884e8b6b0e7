// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// eBird API
		{"ebird.apikey", "EBIRD_API_KEY", validateEnvAPIKey},
		{"ebird.apikeyfile", "EBIRD_API_KEY_FILE", nil},
		{"ebird.baseurl", "EBIRD_RECOMMEND_BASE_URL", validateEnvURL},

		// Search defaults
		{"search.latitude", "EBIRD_RECOMMEND_LATITUDE", validateEnvLatitude},
		{"search.longitude", "EBIRD_RECOMMEND_LONGITUDE", validateEnvLongitude},
		{"search.radius", "EBIRD_RECOMMEND_RADIUS", validateEnvRadius},

		// Files
		{"lifelist.path", "EBIRD_RECOMMEND_CSV", nil},
		{"cache.dir", "EBIRD_RECOMMEND_CACHE_DIR", nil},

		// Web server
		{"webserver.port", "EBIRD_RECOMMEND_PORT", validateEnvPort},
		{"webserver.allowedorigins", "ALLOWED_ORIGINS", validateEnvOrigins},

		{"debug", "EBIRD_RECOMMEND_DEBUG", validateEnvBool},
		{"sentry.dsn", "SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

// validateEnvAPIKey rejects keys that cannot be eBird tokens. The value is never echoed back.
func validateEnvAPIKey(value string) error {
	if strings.ContainsAny(value, " \t\r\n") {
		return fmt.Errorf("api key must not contain whitespace")
	}
	if len(value) < 8 {
		return fmt.Errorf("api key is too short (%d characters)", len(value))
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

func validateEnvLatitude(value string) error {
	lat, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", lat)
	}
	return nil
}

func validateEnvLongitude(value string) error {
	lng, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", lng)
	}
	return nil
}

func validateEnvRadius(value string) error {
	radius, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid radius: %w", err)
	}
	if radius <= 0 || radius > MaxRadiusKm {
		return fmt.Errorf("radius must be greater than 0 and at most %d km, got %g", MaxRadiusKm, radius)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvOrigins(value string) error {
	for origin := range strings.SplitSeq(value, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			continue
		}
		if err := validateEnvURL(origin); err != nil {
			return fmt.Errorf("origin %q: %w", origin, err)
		}
	}
	return nil
}
