// conf/utils.go: configuration file locations
package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/tphakala/ebird-recommend/internal/errors"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
// When a config.yaml exists in one of them only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "ebird-recommend"),
		}
	default:
		configPaths = []string{
			".",
			filepath.Join(homeDir, ".config", "ebird-recommend"),
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// UserConfigPath returns the per-user config.yaml location used by "config init".
func UserConfigPath() (string, error) {
	paths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		if path != "." {
			return filepath.Join(path, "config.yaml"), nil
		}
	}
	return filepath.Join(paths[0], "config.yaml"), nil
}
