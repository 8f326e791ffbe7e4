package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/config"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// Application represents the main application structure that bootstraps
// ayon-jira. It owns the loaded settings, the services and the log file.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: Load configuration, initialize logging, setup services
//  2. Execution phase: a single run, the HTTP server or the MCP server
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, configPath)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	defer application.Close()
//	return application.Serve(ctx)
type Application struct {
	config   *Config
	settings config.Config
	services *Services
	logFile  io.Closer
}

// NewApplication creates and initializes a new application instance.
// This function performs the complete bootstrap sequence:
//
//  1. Loads config.yaml from cfg.ConfigPath and applies overrides
//  2. Validates the resulting settings
//  3. Configures logging, with file rotation when logging.file is set
//  4. Initializes the clients, the journal and the orchestrator
func NewApplication(cfg *Config) (*Application, error) {
	settings, err := LoadSettings(cfg)
	if err != nil {
		return nil, err
	}

	logFile := setupLogging(cfg, settings.Logging)
	logging.Info("Bootstrap", "Loaded configuration from %s", cfg.ConfigPath)

	services, err := InitializeServices(cfg, settings)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		settings: settings,
		services: services,
		logFile:  logFile,
	}, nil
}

// LoadSettings loads and validates the configuration of cfg without
// creating any service.
func LoadSettings(cfg *Config) (config.Config, error) {
	settings, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration from %s: %w", cfg.ConfigPath, err)
	}
	if cfg.Overrides != nil {
		config.ApplyOverrides(&settings, cfg.Overrides)
	}
	if err := settings.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

// setupLogging initializes logging from the debug and quiet flags and the
// logging settings. It returns the log file to close, if any.
func setupLogging(cfg *Config, settings config.LoggingConfig) io.Closer {
	level := logging.LevelInfo
	if settings.Level != "" {
		level = logging.ParseLevel(settings.Level)
	}
	if cfg.Quiet && level < logging.LevelWarn {
		level = logging.LevelWarn
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}

	var output io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		output = cfg.LogOutput
	}

	var file io.WriteCloser
	if settings.File != "" {
		file = logging.NewRotatingWriter(logging.FileOptions{
			Path:       settings.File,
			MaxSizeMB:  settings.MaxSizeMB,
			MaxBackups: settings.MaxBackups,
			MaxAgeDays: settings.MaxAgeDays,
		})
		output = io.MultiWriter(output, file)
	}

	logging.InitForCLI(level, output)
	if file == nil {
		return nil
	}
	return file
}

// Settings returns the loaded configuration.
func (a *Application) Settings() config.Config {
	return a.settings
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Close releases the services and the log file.
func (a *Application) Close() error {
	var errs []error
	if a.services != nil {
		errs = append(errs, a.services.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// Run executes one template run.
func (a *Application) Run(ctx context.Context, req api.RunRequest) (*api.RunReport, error) {
	if req.DryRun {
		logging.Info("Bootstrap", "Dry run: no entity will be created or updated")
	}
	return a.services.Orchestrator.Run(ctx, req)
}
