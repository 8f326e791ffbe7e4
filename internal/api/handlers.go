package api

import (
	"context"
	"sync"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// RunHandler executes template runs. It is implemented by the orchestrator
// adapter and consumed by the HTTP endpoint, the MCP tool and the CLI.
type RunHandler interface {
	// Run executes one template run and returns its report. The report is
	// returned alongside the error when the run failed after it started.
	Run(ctx context.Context, req RunRequest) (*RunReport, error)

	// Validate performs the pre-flight checks of a run without touching
	// either system.
	Validate(ctx context.Context, req RunRequest) error

	// ListTemplates returns the names of the available templates.
	ListTemplates() ([]string, error)
}

// JournalHandler exposes the run journal.
type JournalHandler interface {
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// Handler registry variables store the registered implementations.
// These variables are protected by handlerMutex for thread-safe access.
var (
	runHandler     RunHandler
	journalHandler JournalHandler

	// handlerMutex protects all handler registry operations.
	handlerMutex sync.RWMutex
)

// RegisterRunHandler registers the run handler implementation.
//
// The registration is thread-safe and should be called during system
// initialization. Subsequent registrations replace the previous handler.
//
// Example:
//
//	adapter := orchestrator.NewAPIAdapter(orch)
//	api.RegisterRunHandler(adapter)
func RegisterRunHandler(h RunHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	logging.Debug("API", "Registering run handler: %v", h != nil)
	runHandler = h
}

// GetRunHandler returns the registered run handler, or nil if none has been
// registered yet.
func GetRunHandler() RunHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return runHandler
}

// RegisterJournalHandler registers the journal handler implementation.
func RegisterJournalHandler(h JournalHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	logging.Debug("API", "Registering journal handler: %v", h != nil)
	journalHandler = h
}

// GetJournalHandler returns the registered journal handler, or nil.
func GetJournalHandler() JournalHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return journalHandler
}
