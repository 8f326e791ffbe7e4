// Package logging provides the structured logging used across ayon-jira.
//
// It is a thin layer over Go's standard slog package. Every entry carries a
// subsystem attribute so output from the template loader, the reconcilers
// and the HTTP clients can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Template", "Loaded %s (%s side)", name, side)
//	logging.Error("Jira", err, "Failed to create issue %s", customID)
//
// # Subsystems
//
//   - Config, Credentials: configuration and credential loading
//   - Template, Scope: template parsing and location normalization
//   - RemoteReconciler, LinkResolver, LocalReconciler, Backref: reconciliation steps
//   - Orchestrator, Journal: run sequencing and the run journal
//   - Jira, Ayon: HTTP clients of the two synchronized systems
//   - Server: HTTP and MCP surfaces
//
// # Audit Logging
//
// Every committed mutation against the tracker or the production system is
// recorded with Audit. Audit events are written at INFO level with an [AUDIT]
// prefix so log aggregation can filter them:
//
//	logging.Audit(logging.AuditEvent{
//	    RunID:   runID,
//	    System:  "remote",
//	    Action:  "create_issue",
//	    Scope:   "Character1",
//	    Target:  "RIG",
//	    Key:     "KAN-12",
//	    Outcome: "success",
//	})
//
// # File Output
//
// Long running modes (serve) usually log to a file. NewRotatingWriter wraps
// lumberjack so the file is rotated by size and age:
//
//	w := logging.NewRotatingWriter(logging.FileOptions{Path: "/var/log/ayon-jira.log", MaxSizeMB: 20})
//	logging.InitForCLI(logging.LevelInfo, w)
//
// Secrets must never reach the log; use Redact when a credential has to be
// referenced in a message.
package logging
