// Package remote is the issue tracker capability consumed by the reconcilers.
//
// Tracker is the narrow interface the rest of the module depends on: find
// epics and issues by a scope filter, create epics and issues, update issue
// fields and create directed links. Three implementations are provided:
//
//   - JiraClient talks to the Jira REST API v2.
//   - MemoryTracker keeps everything in memory. It backs tests and serves as
//     the write overlay of dry runs.
//   - DryRunTracker passes reads through to another tracker and records
//     writes without performing them.
//
// # Filters
//
// Queries use a small conjunctive predicate language. A Filter is a list of
// clauses, each either an equality or a wildcard match on one Field:
//
//	filter := remote.Filter{remote.Match(remote.FieldScopeTag, remote.ScopePattern("Character1"))}
//
// Wildcard patterns are evaluated with github.com/gobwas/glob. The Jira client
// renders filters to JQL and re-checks results locally, since JQL text search
// is fuzzier than the predicate it approximates.
package remote
