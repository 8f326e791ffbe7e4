// Package orchestrator sequences template runs.
//
// A run goes through these stages, in order:
//
//  1. Pre-flight: request validation, placeholder resolution, template
//     loading and schema validation, dangling-reference checks and location
//     normalization. A failure here leaves both systems untouched.
//  2. Locking: an exclusive lock file per (project, scope, template) is
//     taken for every scope of the run, in sorted order. A held lock fails
//     the run before anything is written. Dry runs take no locks.
//  3. Per location, in the order given: remote reconciliation of epics and
//     issues, link creation, then local task reconciliation. A location
//     without a folder is skipped and reported; any other failure aborts the
//     run.
//  4. Back-references: every task that received a translated foreign key is
//     written onto the issue it references.
//
// Failures leave the orchestrator as *api.RunError. Its Changed flag tells
// callers whether a plain re-run is safe (nothing was changed) or needed to
// finish a partially applied run.
//
// Every committed change is written to the audit log and, when configured,
// to the run journal.
package orchestrator
