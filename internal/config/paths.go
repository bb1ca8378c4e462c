package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultPath is $XDG_CONFIG_HOME/rpick/config.toml, or %APPDATA% on
// Windows.
func DefaultPath(getenv func(string) string) string {
	return filepath.Join(configDir(getenv), "rpick", "config.toml")
}

func configDir(getenv func(string) string) string {
	home := homeDir()
	if runtime.GOOS == "windows" {
		if appData := getenv("APPDATA"); appData != "" {
			return appData
		}
		return filepath.Join(home, "AppData", "Roaming")
	}
	if configHome := getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome
	}
	return filepath.Join(home, ".config")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		trimmed = filepath.Join(homeDir(), strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
