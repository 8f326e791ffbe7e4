package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ynput/ayon-jira/pkg/logging"
)

const (
	userConfigDir  = ".config/ayon-jira"
	configFileName = "config.yaml"
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads config.yaml from configPath over the defaults. A missing
// file yields the defaults. Relative paths in the result are resolved against
// configPath and a leading ~ against the home directory.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			config.resolvePaths(configPath)
			return config, nil
		}
		return Config{}, newConfigurationError(configFilePath, ErrorTypeIO, "cannot read config.yaml", err,
			"Check the permissions of the configuration directory")
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, newConfigurationError(configFilePath, ErrorTypeParse, "config.yaml is not valid YAML", err,
			"Check indentation and quoting", "Durations use Go syntax, e.g. 10m or 1s")
	}

	config.resolvePaths(configPath)
	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.TemplatesDir, &c.LockDir, &c.JournalPath,
		&c.Remote.CredentialsFile, &c.Local.CredentialsFile, &c.Logging.File,
	} {
		*p = ResolvePath(base, *p)
	}
}

// ResolvePath expands a leading ~ and makes relative paths relative to base.
// Empty paths stay empty.
func ResolvePath(base, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p)
}
