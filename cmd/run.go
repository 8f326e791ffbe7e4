package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/cli"
)

var (
	runFlags        cli.CommandFlags
	runDebug        bool
	runProject      string
	runProjectCode  string
	runPlaceholders map[string]string
	runLocations    []string
	runDryRun       bool
	runActor        string
)

// configFlagKeys maps the configuration flags shared by the commands to
// their config.yaml keys.
var configFlagKeys = map[string]string{
	"templates-dir": "templatesDir",
	"log-level":     "logging.level",
	"log-file":      "logging.file",
}

var runCmd = &cobra.Command{
	Use:   "run TEMPLATE",
	Short: "Instantiate a template for one or more folders",
	Long: `Instantiates TEMPLATE in Jira and AYON for every folder given with --location.

The Jira epic is found or created, the issues and their links are created or
updated, the AYON tasks are created or updated under each folder, and the Jira
keys are written back onto the tasks.

Placeholders in the template names (e.g. %CharacterName%) are resolved from
--placeholder values and the placeholders of config.yaml.

Examples:
  ayon-jira run character --project Sandbox --location /assets/characters/hero \
    --placeholder CharacterName=Hero
  ayon-jira run character --project Sandbox --location /assets/characters/hero \
    --placeholder CharacterName=Hero --dry-run -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	printer, err := runFlags.Printer(cmd)
	if err != nil {
		return err
	}
	overrides, err := newOverrides(cmd, configFlagKeys)
	if err != nil {
		return err
	}

	application, err := newApplication(appConfig(cmd, &runFlags, runDebug, overrides))
	if err != nil {
		return err
	}
	defer application.Close()

	req := api.RunRequest{
		Actor:             runActor,
		ProjectName:       runProject,
		RemoteProjectCode: runProjectCode,
		TemplateName:      args[0],
		Placeholders:      runPlaceholders,
		Locations:         runLocations,
		DryRun:            runDryRun,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	progress := cli.StartProgress("Running template "+req.TemplateName, runFlags.Quiet || runFlags.OutputFormat != string(cli.OutputFormatTable))
	report, runErr := application.Run(ctx, req)
	progress.Stop(runErr)

	if report == nil {
		return cli.NewExitError(runErr, false)
	}
	if err := printer.PrintReport(report, runErr); err != nil {
		return err
	}
	return cli.NewExitError(runErr, false)
}

// registerConfigFlags registers the flags bound through configFlagKeys.
func registerConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("templates-dir", "", "Template directory (overrides templatesDir)")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error (overrides logging.level)")
	cmd.Flags().String("log-file", "", "Also write logs to this file (overrides logging.file)")
}

func init() {
	rootCmd.AddCommand(runCmd)

	cli.RegisterCommonFlags(runCmd, &runFlags)
	registerConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "AYON project name")
	runCmd.Flags().StringVar(&runProjectCode, "project-code", "", "Jira project key (default remote.projectCode)")
	runCmd.Flags().StringToStringVar(&runPlaceholders, "placeholder", nil, "Placeholder value as Name=Value, repeatable")
	runCmd.Flags().StringArrayVarP(&runLocations, "location", "l", nil, "Folder path to instantiate the template for, repeatable")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report what would change without changing anything")
	runCmd.Flags().StringVar(&runActor, "actor", os.Getenv("USER"), "User the run is performed for")
	_ = runCmd.MarkFlagRequired("project")
}
