package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ynput/ayon-jira/internal/reconciler"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// auditObserver turns reconciler change events into audit log lines and
// journal entries. Dry runs are only logged at debug level.
type auditObserver struct {
	run *run
}

func (a *auditObserver) Observe(event reconciler.ChangeEvent) {
	report := a.run.report
	if report.DryRun {
		logging.Debug("Orchestrator", "[dry-run] %s %s %s (%s)", event.Operation, event.Kind, event.Name, event.Key)
		return
	}
	if event.Operation == reconciler.OperationReuse || event.Operation == reconciler.OperationSkip {
		return
	}

	target := event.Name
	if event.Location != "" {
		target = fmt.Sprintf("%s/%s", event.Location, event.Name)
	}
	logging.Audit(logging.AuditEvent{
		RunID:   report.RunID,
		System:  systemOf(event.Kind),
		Action:  strings.ToLower(fmt.Sprintf("%s_%s", event.Operation, event.Kind)),
		Scope:   event.Scope,
		Target:  target,
		Key:     event.Key,
		Outcome: "success",
	})

	if !a.run.journal {
		return
	}
	journal := a.run.orch.cfg.Journal
	// Entries are written even when the run context has been cancelled, so
	// the journal matches what was committed.
	if err := journal.Record(context.Background(), report.RunID, event); err != nil {
		logging.Warn("Orchestrator", "Failed to journal %s %s of run %s: %v", event.Operation, event.Kind, report.RunID, err)
	}
}

func systemOf(kind reconciler.EntityKind) string {
	if kind == reconciler.KindTask {
		return "local"
	}
	return "remote"
}
