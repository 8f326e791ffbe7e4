// Package server exposes template runs to other processes.
//
// HTTPServer serves the endpoint the production tracking server calls:
//
//	POST /api/run_template?template_name=<name>&project_name=<project>&remote_project_code=<code>
//	{"placeholder_map": {"CharacterName": "Hero"}, "folder_paths": ["Characters/Hero"]}
//
// It answers with the JSON RunReport. Failed runs answer with the partial
// report when one exists, and with a status telling pre-flight failures (422),
// locked scopes (409) and failures after writes (502) apart. The companion
// routes /api/validate_template, /api/templates, /api/runs and /api/metrics
// serve validation, the template list, the run journal and reconciliation
// metrics. When a bearer token is configured every /api and /mcp route
// requires it.
//
// MCPServer exposes the same operations as MCP tools (run_template,
// validate_template, list_templates, list_runs), either over stdio or mounted
// at /mcp of the HTTP server.
//
// Both surfaces reach the orchestrator through api.GetRunHandler and
// api.GetJournalHandler only.
package server
