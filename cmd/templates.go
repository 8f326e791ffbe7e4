package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/template"
)

var templatesFlags cli.CommandFlags

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template"},
	Short:   "List the templates available in the template directory",
	Long: `Lists the names of the templates found in the template directory. A template
is listed when both its Jira and its AYON document exist.`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	printer, err := templatesFlags.Printer(cmd)
	if err != nil {
		return err
	}
	overrides, err := newOverrides(cmd, configFlagKeys)
	if err != nil {
		return err
	}
	settings, err := loadSettings(cmd, &templatesFlags, overrides)
	if err != nil {
		return err
	}

	names, err := template.NewLoader(template.NewDirSource(settings.TemplatesDir)).Templates()
	if err != nil {
		return err
	}
	return printer.PrintTemplates(names)
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	cli.RegisterCommonFlags(templatesCmd, &templatesFlags)
	registerConfigFlags(templatesCmd)
}
