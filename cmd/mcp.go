package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/config"
)

var (
	mcpFlags cli.CommandFlags
	mcpDebug bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Long: `Serves the run_template, validate_template, list_templates and list_runs
tools to an MCP client over stdin and stdout. Logs go to stderr.

Example client configuration:
  {"command": "ayon-jira", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	overrides, err := newOverrides(cmd, configFlagKeys)
	if err != nil {
		return err
	}

	cfg := appConfig(cmd, &mcpFlags, mcpDebug, overrides)
	cfg.LogOutput = os.Stderr
	application, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.ServeMCP(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpFlags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	mcpCmd.Flags().BoolVar(&mcpDebug, "debug", false, "Enable debug logging")
	registerConfigFlags(mcpCmd)
}
