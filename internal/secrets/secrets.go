// Package secrets resolves credentials that may be given literally, as
// ${VAR} references or as files mounted by Docker or Kubernetes.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

const (
	// maxSecretFileSize limits secret file reads; tokens are tiny
	maxSecretFileSize = 64 * 1024

	// groupOtherPerms are permission bits that trigger a warning
	groupOtherPerms = 0o077
)

// ExpandString expands ${VAR} and ${VAR:-default} references. A variable
// that is unset or empty and has no default is an error.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing required environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret file, trimming trailing newlines. Files readable
// by group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", newFileError("secret file path is empty", path)
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newFileError("secret file not found", cleanPath)
		}
		return "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			FileContext(cleanPath).
			Build()
	}
	if !info.Mode().IsRegular() {
		return "", newFileError("secret path is not a regular file", cleanPath)
	}
	if info.Size() > maxSecretFileSize {
		return "", newFileError("secret file too large", cleanPath)
	}
	if perm := info.Mode().Perm(); perm&groupOtherPerms != 0 {
		logger.Global().Module("secrets").Warn("secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("perm", perm.String()))
	}

	data, err := os.ReadFile(cleanPath) //nolint:gosec // G304: operator supplied secret path
	if err != nil {
		return "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			FileContext(cleanPath).
			Build()
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", newFileError("secret file is empty", cleanPath)
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded. Both empty resolves to "".
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return ExpandString(value)
}

func newFileError(msg, path string) error {
	return errors.Newf("%s", msg).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("path", path).
		Build()
}
