package orchestrator

import (
	"context"

	"github.com/ynput/ayon-jira/internal/api"
)

// Adapter adapts the orchestrator to implement api.RunHandler.
type Adapter struct {
	orchestrator *Orchestrator
}

// NewAPIAdapter creates a new orchestrator adapter.
func NewAPIAdapter(orchestrator *Orchestrator) *Adapter {
	return &Adapter{orchestrator: orchestrator}
}

// Register registers the adapter with the API.
func (a *Adapter) Register() {
	api.RegisterRunHandler(a)
}

// Run implements api.RunHandler.
func (a *Adapter) Run(ctx context.Context, req api.RunRequest) (*api.RunReport, error) {
	return a.orchestrator.Run(ctx, req)
}

// Validate implements api.RunHandler.
func (a *Adapter) Validate(ctx context.Context, req api.RunRequest) error {
	return a.orchestrator.Validate(ctx, req)
}

// ListTemplates implements api.RunHandler.
func (a *Adapter) ListTemplates() ([]string, error) {
	return a.orchestrator.Templates()
}
