package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planloom/planloom/internal/diagram"
	"github.com/planloom/planloom/internal/lint"
	"github.com/planloom/planloom/internal/logging"
	"github.com/planloom/planloom/pkg/schema"
)

// handleCompose renders a plan and creates (optionally activates) the
// resulting workflow on the engine.
func (s *PlanloomServer) handleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, perr := s.decodePlan(req)
	if perr != nil {
		return mcp.NewToolResultError(perr.Error()), nil
	}

	if s.engine == nil {
		return mcp.NewToolResultError("no engine configured: set the engine URL and API key, or use planloom.preview"), nil
	}

	activate := req.GetBool("activate", false)
	if agentID := req.GetString("agent_id", ""); agentID != "" {
		ctx = logging.WithAgentID(ctx, agentID)
	}
	ctx = logging.WithPlanName(ctx, plan.Name)

	composeID := uuid.NewString()
	graph := s.renderer.Render(*plan)

	s.logger.InfoContext(ctx, "plan rendered",
		"compose_id", composeID,
		"trigger", string(plan.Trigger),
		"nodes", len(graph.Nodes))

	wf, err := s.engine.CreateWorkflow(ctx, plan.Name, graph)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("workflow creation failed: %v", err)), nil
	}
	ctx = logging.WithWorkflowID(ctx, wf.ID)

	if activate {
		if err := s.engine.ActivateWorkflow(ctx, wf.ID); err != nil {
			// The workflow exists; report the partial outcome rather than
			// pretending nothing happened.
			return mcp.NewToolResultError(fmt.Sprintf("workflow %s created but activation failed: %v", wf.ID, err)), nil
		}
		s.logger.InfoContext(ctx, "workflow activated")
	}

	return marshalResult(map[string]any{
		"workflow_id": wf.ID,
		"name":        plan.Name,
		"active":      activate,
		"node_count":  len(graph.Nodes),
		"compose_id":  composeID,
	})
}

// handlePreview renders a plan without touching the engine.
func (s *PlanloomServer) handlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, perr := s.decodePlan(req)
	if perr != nil {
		return mcp.NewToolResultError(perr.Error()), nil
	}

	graph := s.renderer.Render(*plan)

	switch format := req.GetString("format", "graph"); format {
	case "graph":
		return marshalResult(graph)
	case "mermaid":
		return mcp.NewToolResultText(diagram.RenderMermaid(plan.Name, graph)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q: use graph or mermaid", format)), nil
	}
}

// handleNodes lists the catalog.
func (s *PlanloomServer) handleNodes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(map[string]any{"nodes": s.catalog.List()})
}

// handleLint runs the advisory checks. Lint accepts documents the strict
// plan schema would reject, so agents can check half-built plans; only a
// structurally undecodable document is an error.
func (s *PlanloomServer) handleLint(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := mcp.ParseStringMap(req, "plan", nil)
	if raw == nil {
		return mcp.NewToolResultError("plan is required"), nil
	}

	var plan schema.PlanSpec
	if err := roundTrip(raw, &plan); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid plan: %v", err)), nil
	}

	result := lint.Check(plan, s.catalog)
	return marshalResult(map[string]any{
		"valid":    result.Valid(),
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

// handleWorkflows queries the engine for one or all workflows.
func (s *PlanloomServer) handleWorkflows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.engine == nil {
		return mcp.NewToolResultError("no engine configured"), nil
	}

	if id := req.GetString("workflow_id", ""); id != "" {
		wf, err := s.engine.GetWorkflow(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("workflow lookup failed: %v", err)), nil
		}
		return marshalResult(wf)
	}

	limit := req.GetInt("limit", 50)
	wfs, err := s.engine.ListWorkflows(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("workflow query failed: %v", err)), nil
	}
	return marshalResult(map[string]any{"workflows": wfs})
}

// --- Internal helpers ---

// decodePlan extracts, schema-validates, and decodes the "plan" argument.
func (s *PlanloomServer) decodePlan(req mcp.CallToolRequest) (*schema.PlanSpec, error) {
	raw := mcp.ParseStringMap(req, "plan", nil)
	if raw == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "plan is required")
	}

	if err := s.validator.ValidateDocument(raw); err != nil {
		return nil, err
	}

	var plan schema.PlanSpec
	if err := roundTrip(raw, &plan); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "invalid plan").WithCause(err)
	}
	return &plan, nil
}

// roundTrip marshals a loosely-typed map and unmarshals it into a struct.
func roundTrip(raw map[string]any, out any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
