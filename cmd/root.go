package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ynput/ayon-jira/internal/app"
	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/config"
)

// rootCmd represents the base command for the ayon-jira application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ayon-jira",
	Short: "Instantiate Jira and AYON templates for a production project",
	Long: `ayon-jira turns a pair of templates into Jira epics, issues and links
and the matching AYON tasks, for every folder a run is scoped to.

Runs are idempotent: existing epics, issues and tasks are reused or updated,
and the Jira keys are written back onto the AYON tasks.

Exit codes:
  0  success
  1  unexpected failure
  2  the run was rejected before anything was changed
  3  the run failed after changing entities, re-run it
  4  a scope is locked by another run`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Errors are printed by Execute with their exit code.
	SilenceErrors: true,
}

// newApplication builds the application of a command. Tests replace it to
// inject in-memory clients.
var newApplication = app.NewApplication

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ayon-jira version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(rootCmd, err))
	}
}

// reportError prints err unless a command already did, and returns the exit
// code for it.
func reportError(cmd *cobra.Command, err error) int {
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || !exitErr.Silent {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(err))
	}
	return cli.ExitCodeFor(err)
}

// appConfig builds the application configuration for a command. Flags bound
// to configuration keys through v override config.yaml.
func appConfig(cmd *cobra.Command, flags *cli.CommandFlags, debug bool, v *viper.Viper) *app.Config {
	cfg := app.NewConfig(debug, flags.Quiet, flags.ConfigPath)
	cfg.Overrides = v
	cfg.Version = GetVersion()
	cfg.LogOutput = cmd.ErrOrStderr()
	return cfg
}

// loadSettings loads the configuration of a command that needs no clients.
func loadSettings(cmd *cobra.Command, flags *cli.CommandFlags, v *viper.Viper) (config.Config, error) {
	return app.LoadSettings(appConfig(cmd, flags, false, v))
}

// bindFlags binds the named flags of cmd to configuration keys.
func bindFlags(cmd *cobra.Command, v *viper.Viper, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

// newOverrides returns the environment overrides with the changed flags of
// cmd bound on top.
func newOverrides(cmd *cobra.Command, keys map[string]string) (*viper.Viper, error) {
	v := config.NewViper()
	if err := bindFlags(cmd, v, keys); err != nil {
		return nil, err
	}
	return v, nil
}

// init is a special Go function that is executed when the package is initialized.
// It is used here to add subcommands to the root command.
func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
