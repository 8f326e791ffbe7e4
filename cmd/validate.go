package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/local"
	"github.com/ynput/ayon-jira/internal/remote"
)

var (
	validateFlags        cli.CommandFlags
	validateDebug        bool
	validateProject      string
	validatePlaceholders map[string]string
	validateLocations    []string
)

var validateCmd = &cobra.Command{
	Use:   "validate TEMPLATE",
	Short: "Check that a template can be run, without contacting Jira or AYON",
	Long: `Runs the checks that precede every run: the templates are loaded, their
placeholders resolved, the dependencies and foreign keys verified and the
locations normalized. Neither Jira nor AYON is contacted, so no credentials
are needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	overrides, err := newOverrides(cmd, configFlagKeys)
	if err != nil {
		return err
	}

	cfg := appConfig(cmd, &validateFlags, validateDebug, overrides)
	// Validation never reaches the clients.
	cfg.Tracker = remote.NewMemoryTracker()
	cfg.Store = local.NewMemoryStore()

	application, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	err = application.Services().Orchestrator.Validate(ctx, api.RunRequest{
		ProjectName:  validateProject,
		TemplateName: args[0],
		Placeholders: validatePlaceholders,
		Locations:    validateLocations,
	})
	if err != nil {
		return cli.NewExitError(err, false)
	}
	if !validateFlags.Quiet {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Template %s is valid", args[0])))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)

	cli.RegisterCommonFlags(validateCmd, &validateFlags)
	registerConfigFlags(validateCmd)
	validateCmd.Flags().BoolVar(&validateDebug, "debug", false, "Enable debug logging")
	validateCmd.Flags().StringVarP(&validateProject, "project", "p", "", "AYON project name")
	validateCmd.Flags().StringToStringVar(&validatePlaceholders, "placeholder", nil, "Placeholder value as Name=Value, repeatable")
	validateCmd.Flags().StringArrayVarP(&validateLocations, "location", "l", nil, "Folder path the template would be run for, repeatable")
}
