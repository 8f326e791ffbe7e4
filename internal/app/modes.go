package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/ynput/ayon-jira/internal/server"
	"github.com/ynput/ayon-jira/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP endpoint, with the MCP tools mounted at /mcp, until
// ctx is cancelled. The template cache is invalidated whenever the template
// directory changes.
//
// Behavior:
//   - Notifies systemd once the listener is bound (no-op outside systemd)
//   - Shuts down gracefully on cancellation and notifies systemd of it
func (a *Application) Serve(ctx context.Context) error {
	httpServer := server.NewHTTPServer(server.HTTPConfig{
		Host:  a.settings.Server.Host,
		Port:  a.settings.Server.Port,
		Token: a.services.Credentials.Server.Token,
		MCP:   server.NewMCPServer(a.config.Version, "mcp"),
	})
	if err := httpServer.Start(); err != nil {
		return err
	}
	if a.services.Credentials.Server.Token == "" {
		logging.Warn("Server", "No server token configured, the HTTP endpoint is unauthenticated")
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := a.services.Templates.Watch(gctx); err != nil {
		// Without the watch, cached templates are only refreshed on restart.
		logging.Warn("Server", "Template hot reload disabled: %v", err)
	}

	g.Go(httpServer.Serve)
	g.Go(func() error {
		<-gctx.Done()
		notifySystemd(daemon.SdNotifyStopping)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	notifySystemd(daemon.SdNotifyReady)
	logging.Info("Server", "Ready to serve run_template on %s", httpServer.Addr())

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ServeMCP serves the MCP tools over in and out until ctx is cancelled or
// the client disconnects.
func (a *Application) ServeMCP(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewMCPServer(a.config.Version, "mcp").ServeStdio(ctx, in, out)
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Server", "Failed to notify systemd: %v", err)
		return
	}
	if sent {
		logging.Debug("Server", "Notified systemd: %s", state)
	}
}
