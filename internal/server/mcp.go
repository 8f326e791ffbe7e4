package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// MCPServer exposes the run handler as MCP tools.
type MCPServer struct {
	mcpServer *server.MCPServer
	actor     string
}

// NewMCPServer creates an MCP server. actor is recorded on runs started
// through it, since MCP clients carry no user identity.
func NewMCPServer(version, actor string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"ayon-jira",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	ms := &MCPServer{mcpServer: mcpServer, actor: actor}
	ms.registerTools()
	return ms
}

// Server returns the underlying mcp-go server.
func (m *MCPServer) Server() *server.MCPServer {
	return m.mcpServer
}

// ServeStdio serves the tools over in and out until ctx is cancelled or the
// client closes the stream.
func (m *MCPServer) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info("Server", "Serving MCP tools over stdio")
	return server.NewStdioServer(m.mcpServer).Listen(ctx, in, out)
}

func (m *MCPServer) registerTools() {
	runArgs := []mcp.ToolOption{
		mcp.WithString("template_name",
			mcp.Required(),
			mcp.Description("Name of the template pair to apply"),
		),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Production tracking project"),
		),
		mcp.WithString("remote_project_code",
			mcp.Description("Issue tracker project key, defaults to the configured one"),
		),
		mcp.WithObject("placeholder_map",
			mcp.Description("Values for the %token% placeholders of the template"),
		),
		mcp.WithArray("folder_paths",
			mcp.Required(),
			mcp.Description("Target folder paths, processed in order"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Perform every read but no write"),
		),
	}

	m.mcpServer.AddTool(mcp.NewTool("run_template",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create or update the issue tracker entities and production tasks described by a template"),
		}, runArgs...)...,
	), m.handleRunTemplate)

	m.mcpServer.AddTool(mcp.NewTool("validate_template",
		append([]mcp.ToolOption{
			mcp.WithDescription("Run the pre-flight checks of a template run without touching either system"),
		}, runArgs...)...,
	), m.handleValidateTemplate)

	m.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the available templates"),
	), m.handleListTemplates)

	m.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent runs from the run journal"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs, newest first"),
		),
	), m.handleListRuns)
}

func (m *MCPServer) handleRunTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handler := api.GetRunHandler()
	if handler == nil {
		return mcp.NewToolResultError("run handler not available"), nil
	}

	req, err := runRequestFromArguments(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.Actor = m.actor

	report, err := handler.Run(ctx, req)
	if err != nil {
		logging.Warn("Server", "run_template %s failed: %v", req.TemplateName, err)
		if report == nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		report.Error = err.Error()
		result, jsonErr := jsonResult(report)
		if jsonErr != nil {
			return nil, jsonErr
		}
		result.IsError = true
		return result, nil
	}
	return jsonResult(report)
}

func (m *MCPServer) handleValidateTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handler := api.GetRunHandler()
	if handler == nil {
		return mcp.NewToolResultError("run handler not available"), nil
	}

	req, err := runRequestFromArguments(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.Actor = m.actor

	if err := handler.Validate(ctx, req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Template %s is valid for %d location(s)", req.TemplateName, len(req.Locations))), nil
}

func (m *MCPServer) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handler := api.GetRunHandler()
	if handler == nil {
		return mcp.NewToolResultError("run handler not available"), nil
	}
	names, err := handler.ListTemplates()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list templates: %v", err)), nil
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(names)
}

func (m *MCPServer) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handler := api.GetJournalHandler()
	if handler == nil {
		return mcp.NewToolResultError("run journal not available"), nil
	}

	limit := defaultRunsLimit
	if v, ok := request.GetArguments()["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	runs, err := handler.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list runs: %v", err)), nil
	}
	if runs == nil {
		runs = []api.RunRecord{}
	}
	return jsonResult(runs)
}

// runRequestFromArguments decodes tool arguments into a run request. The
// argument names match the JSON names of api.RunRequest.
func runRequestFromArguments(args map[string]any) (api.RunRequest, error) {
	var req api.RunRequest
	data, err := json.Marshal(args)
	if err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	if req.TemplateName == "" {
		return req, fmt.Errorf("template_name argument is required")
	}
	if req.ProjectName == "" {
		return req, fmt.Errorf("project_name argument is required")
	}
	return req, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
