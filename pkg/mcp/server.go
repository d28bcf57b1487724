package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/planloom/planloom/internal/catalog"
	"github.com/planloom/planloom/internal/engineapi"
	"github.com/planloom/planloom/internal/render"
	"github.com/planloom/planloom/internal/validation"
	"github.com/planloom/planloom/pkg/schema"
)

// EngineClient is the slice of the remote engine API the tool handlers use.
// Satisfied by engineapi.Client; narrowed to an interface for testing.
type EngineClient interface {
	CreateWorkflow(ctx context.Context, name string, graph *schema.Graph) (*engineapi.Workflow, error)
	ActivateWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context, limit int) ([]engineapi.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*engineapi.Workflow, error)
}

// PlanloomServerDeps holds the dependencies for creating a PlanloomServer.
type PlanloomServerDeps struct {
	Catalog   *catalog.Catalog
	Renderer  *render.Renderer
	Engine    EngineClient
	Validator *validation.PlanValidator
	Logger    *slog.Logger
}

// PlanloomServer wraps an MCP server with planloom-specific tool handlers.
type PlanloomServer struct {
	catalog   *catalog.Catalog
	renderer  *render.Renderer
	engine    EngineClient
	validator *validation.PlanValidator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewPlanloomServer creates a PlanloomServer with all 5 tools registered.
// Catalog, renderer and validator default to the built-ins when nil; the
// engine client stays nil-able so preview/lint/nodes work without a
// configured engine.
func NewPlanloomServer(deps PlanloomServerDeps) (*PlanloomServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	cat := deps.Catalog
	if cat == nil {
		cat = catalog.NewDefault()
	}

	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.New(cat)
	}

	validator := deps.Validator
	if validator == nil {
		v, err := validation.NewPlanValidator()
		if err != nil {
			return nil, err
		}
		validator = v
	}

	s := &PlanloomServer{
		catalog:   cat,
		renderer:  renderer,
		engine:    deps.Engine,
		validator: validator,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"planloom",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Planloom turns high-level automation plans into workflows on a remote n8n engine. Use planloom.nodes to discover node types, planloom.lint to check a plan, planloom.preview to inspect the rendered graph, planloom.compose to create (and optionally activate) the workflow, and planloom.workflows to query the engine."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *PlanloomServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *PlanloomServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 5 registered MCP tools as ServerTool entries.
func (s *PlanloomServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: composeTool(), Handler: s.handleCompose},
		{Tool: previewTool(), Handler: s.handlePreview},
		{Tool: nodesTool(), Handler: s.handleNodes},
		{Tool: lintTool(), Handler: s.handleLint},
		{Tool: workflowsTool(), Handler: s.handleWorkflows},
	}
}

// --- Tool definitions ---

func composeTool() mcp.Tool {
	return mcp.NewTool("planloom.compose",
		mcp.WithDescription("Render a plan into a workflow graph and create it on the engine"),
		mcp.WithObject("plan", mcp.Required(), mcp.Description("Plan object: name, trigger (manual|cron|webhook), cron_expression, steps, inputs")),
		mcp.WithBoolean("activate", mcp.Description("Activate the workflow after creation (default: false)")),
		mcp.WithString("agent_id", mcp.Description("ID of the composing agent, for log correlation")),
	)
}

func previewTool() mcp.Tool {
	return mcp.NewTool("planloom.preview",
		mcp.WithDescription("Render a plan into a workflow graph without submitting it"),
		mcp.WithObject("plan", mcp.Required(), mcp.Description("Plan object: name, trigger (manual|cron|webhook), cron_expression, steps, inputs")),
		mcp.WithString("format", mcp.Description("Output format: graph (engine JSON) or mermaid (flowchart)"),
			mcp.Enum("graph", "mermaid"),
		),
	)
}

func nodesTool() mcp.Tool {
	return mcp.NewTool("planloom.nodes",
		mcp.WithDescription("List the node types available in the catalog"),
	)
}

func lintTool() mcp.Tool {
	return mcp.NewTool("planloom.lint",
		mcp.WithDescription("Check a plan for problems the permissive renderer would silently absorb (dangling dependencies, unknown node types, bad cron expressions)"),
		mcp.WithObject("plan", mcp.Required(), mcp.Description("Plan object to check")),
	)
}

func workflowsTool() mcp.Tool {
	return mcp.NewTool("planloom.workflows",
		mcp.WithDescription("Query workflows on the engine"),
		mcp.WithString("workflow_id", mcp.Description("Fetch a single workflow by ID")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of workflows to list (default: 50)")),
	)
}
