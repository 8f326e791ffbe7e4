// Package api holds the types shared by every layer of ayon-jira: the run
// request, the run report, and the error taxonomy.
//
// The package imports nothing from internal/ so the template loader, the
// reconcilers, the orchestrator and the HTTP/MCP surfaces can all depend on
// it without cycles.
//
// # Error Taxonomy
//
// Authoring and validation errors are fail-fast and global:
//   - MissingPlaceholderError: an unresolved %token% in a template document
//   - TemplateNotFoundError / TemplateMalformedError: bad or absent documents
//   - DanglingReferenceError: a link or foreign key to an undefined custom ID
//
// Per-location resolution failures are isolated:
//   - LocationNotFoundError: the location is skipped, the run continues
//
// Per-call infrastructure failures are fatal to the run:
//   - RemoteCallError / LocalCallError
//   - LockedError: another run holds a scope
//
// Everything leaving the orchestrator is wrapped in a RunError whose Changed
// flag tells operators whether the run failed before touching either system
// (IsPreflight) or after committing some entities (IsPartial).
package api
