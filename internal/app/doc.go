// Package app provides application bootstrap and lifecycle management for
// ayon-jira.
//
// # Architecture Overview
//
//  1. **Configuration (`config.go`)**: flags of the invoking command
//  2. **Bootstrap (`bootstrap.go`)**: loads config.yaml, applies overrides,
//     validates, configures logging and creates the services
//  3. **Services (`services.go`)**: credentials, the issue tracker and
//     production tracking clients, the template loader, the run journal and
//     the orchestrator
//  4. **Modes (`modes.go`)**: the HTTP server and the MCP stdio server
//
// # API Service Locator Pattern
//
// InitializeServices registers the orchestrator adapter with
// api.RegisterRunHandler and the journal with api.RegisterJournalHandler.
// The HTTP endpoint and the MCP tools only ever reach the orchestrator
// through those handlers.
//
// # Client Injection
//
// Config.Tracker and Config.Store replace the clients built from the
// configured servers and the credentials files. Tests use this to run the
// whole stack against the in-memory implementations.
package app
