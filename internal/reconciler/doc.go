// Package reconciler brings the issue tracker and the production tracking
// system in line with a template, one scope or location at a time.
//
// # Components
//
//   - RemoteReconciler: finds the epics and issues tagged with a scope,
//     creates missing epics, and creates or updates one issue per template
//     item. Its result is the scope's custom ID -> remote key mapping.
//   - LinkResolver: turns Depends_On and Unblocks references into directed
//     tracker links.
//   - LocalReconciler: creates or updates the tasks of a folder, translating
//     custom ID references to remote keys through a declared foreign-key
//     table.
//   - BackrefUpdater: writes local task IDs onto the issues they reference.
//
// Sequencing, locking and error classification belong to the orchestrator;
// the types here only know about one scope or location at a time.
//
// # Dedupe keys
//
// Epics are reused by summary among the epics tagged with the scope. Issues
// are matched by their scope tag "<scope>_<custom id>". Tasks are matched by
// name within their folder. Links are not de-duplicated unless LinkOptions
// asks for it, so re-running a template adds a second copy of every link.
//
// # Observability
//
// Every change is reported as a ChangeEvent to an Observer. The orchestrator
// fans these out to the run journal, the audit log and ReconcilerMetrics.
package reconciler
