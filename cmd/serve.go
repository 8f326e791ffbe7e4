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
	serveFlags cli.CommandFlags
	serveDebug bool
)

// serveCmd defines the serve command structure.
// This is the long-running mode used by the AYON addon: it exposes
// run_template over HTTP and the MCP tools at /mcp.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run_template over HTTP",
	Long: `Starts the HTTP endpoint that runs templates on request.

Endpoints:
  POST /api/run_template       run a template
  POST /api/validate_template  check a template without running it
  GET  /api/templates          list the templates
  GET  /api/runs               list the journaled runs
  GET  /api/metrics            run counters
  GET  /healthz                liveness
  /mcp                         MCP tools over streamable HTTP

When a server token is set in the credentials file ([server] token), every
/api and /mcp request must carry it as a bearer token.

The template directory is watched, so edited templates are picked up without
a restart. The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	overrides, err := newOverrides(cmd, serveFlagKeys())
	if err != nil {
		return err
	}

	application, err := newApplication(appConfig(cmd, &serveFlags, serveDebug, overrides))
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

	return application.Serve(ctx)
}

func serveFlagKeys() map[string]string {
	keys := map[string]string{
		"host": "server.host",
		"port": "server.port",
	}
	for flag, key := range configFlagKeys {
		keys[flag] = key
	}
	return keys
}

// init registers the serve command and its flags with the root command.
// This is called automatically when the package is imported.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	serveCmd.Flags().BoolVarP(&serveFlags.Quiet, "quiet", "q", false, "Only log warnings and errors")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().String("host", "", "Address to listen on (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides server.port)")
	registerConfigFlags(serveCmd)
}
