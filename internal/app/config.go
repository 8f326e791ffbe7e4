package app

import (
	"io"

	"github.com/spf13/viper"

	"github.com/ynput/ayon-jira/internal/local"
	"github.com/ynput/ayon-jira/internal/remote"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Quiet suppresses informational logging on the console. Warnings and
	// errors are still written.
	Quiet bool

	// Configuration directory holding config.yaml
	ConfigPath string

	// Overrides carries environment variables and changed flags bound to
	// configuration keys. Optional.
	Overrides *viper.Viper

	// Version is reported by the MCP server.
	Version string

	// LogOutput receives console logging. Defaults to stderr.
	LogOutput io.Writer

	// Tracker and Store replace the clients built from configuration and
	// credentials when set.
	Tracker remote.Tracker
	Store   local.Store
}

// NewConfig creates a new application configuration
func NewConfig(debug, quiet bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Quiet:      quiet,
		ConfigPath: configPath,
	}
}
