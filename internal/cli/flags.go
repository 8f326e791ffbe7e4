package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynput/ayon-jira/internal/config"
)

// CommandFlags holds the flag values shared by the commands that print results.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// ConfigPath specifies the configuration directory
	ConfigPath string
}

// RegisterCommonFlags registers the output and configuration flags.
//
// The registered flags are:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --config-path: Configuration directory
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
}

// Printer returns a printer for the flag values.
func (f *CommandFlags) Printer(cmd *cobra.Command) (*Printer, error) {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return nil, err
	}
	return NewPrinter(cmd.OutOrStdout(), OutputFormat(f.OutputFormat), f.NoHeaders), nil
}
