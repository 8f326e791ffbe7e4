package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ynput/ayon-jira/internal/cli"
)

var configFlags cli.CommandFlags

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration after defaults and overrides are applied",
	Long: `Prints config.yaml as ayon-jira sees it: defaults filled in, relative paths
resolved against the configuration directory, and AYON_JIRA_* environment
variables and flags applied. Credentials are never printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := newOverrides(cmd, configFlagKeys)
		if err != nil {
			return err
		}
		settings, err := loadSettings(cmd, &configFlags, overrides)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(settings); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := newOverrides(cmd, configFlagKeys)
		if err != nil {
			return err
		}
		if _, err := loadSettings(cmd, &configFlags, overrides); err != nil {
			return err
		}
		if !configFlags.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Configuration is valid"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)

	cli.RegisterCommonFlags(configCmd, &configFlags)
	registerConfigFlags(configShowCmd)
	registerConfigFlags(configValidateCmd)
}
