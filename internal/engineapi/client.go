// Package engineapi is the REST client for the remote automation engine.
// The rendering core hands its graph to this client unmodified; transport
// failures and remote rejections surface as UPSTREAM_ERROR and are never
// the renderer's concern.
package engineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/planloom/planloom/pkg/schema"
)

const (
	apiKeyHeader           = "X-N8N-API-KEY"
	defaultTimeout         = 30 * time.Second
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
)

// Config configures the engine client.
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxResponseBody int64
}

// Workflow is the engine's workflow resource as returned by its API.
// Only the fields the server reads are decoded.
type Workflow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Client talks to the engine's /api/v1 REST surface.
type Client struct {
	baseURL    string
	apiKey     string
	maxBody    int64
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. The base URL is the engine root, e.g.
// "http://localhost:5678"; the /api/v1 prefix is appended per call.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxResponseBody <= 0 {
		cfg.MaxResponseBody = defaultMaxResponseBody
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxBody:    cfg.MaxResponseBody,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// CreateWorkflow submits a rendered graph under the given name and returns
// the created workflow. The graph is serialized as-is; the engine owns all
// semantic validation.
func (c *Client) CreateWorkflow(ctx context.Context, name string, graph *schema.Graph) (*Workflow, error) {
	payload := map[string]any{
		"name":        name,
		"nodes":       graph.Nodes,
		"connections": graph.Connections,
		"settings":    map[string]any{},
	}

	var wf Workflow
	if err := c.do(ctx, http.MethodPost, "/api/v1/workflows", payload, &wf); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "workflow created",
		slog.String("workflow_id", wf.ID),
		slog.String("name", name),
		slog.Int("nodes", len(graph.Nodes)))
	return &wf, nil
}

// ActivateWorkflow switches a workflow on.
func (c *Client) ActivateWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/workflows/"+url.PathEscape(id)+"/activate", nil, nil)
}

// DeactivateWorkflow switches a workflow off.
func (c *Client) DeactivateWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/workflows/"+url.PathEscape(id)+"/deactivate", nil, nil)
}

// GetWorkflow fetches one workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	if err := c.do(ctx, http.MethodGet, "/api/v1/workflows/"+url.PathEscape(id), nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// ListWorkflows fetches up to limit workflows (engine default when <= 0).
func (c *Client) ListWorkflows(ctx context.Context, limit int) ([]Workflow, error) {
	path := "/api/v1/workflows"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	// The engine wraps list responses in a data envelope.
	var envelope struct {
		Data []Workflow `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// do executes one API call. Non-2xx responses become UPSTREAM_ERROR with
// the remote status and message attached, propagated unchanged to callers.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return schema.NewError(schema.ErrCodeUpstream, "failed to encode request body").WithCause(err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return schema.NewError(schema.ErrCodeUpstream, "failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeUpstream, "engine unreachable: %v", err).WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return schema.NewError(schema.ErrCodeUpstream, "failed to read engine response").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return schema.NewErrorf(schema.ErrCodeUpstream,
				"engine returned malformed JSON for %s %s", method, path).WithCause(err)
		}
	}
	return nil
}

// upstreamError builds the UPSTREAM_ERROR for a non-2xx engine response.
// The engine reports errors as {"message": "..."}; fall back to the raw
// body when that shape is absent.
func upstreamError(status int, body []byte) *schema.PlanloomError {
	message := strings.TrimSpace(string(body))
	var remote struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &remote); err == nil && remote.Message != "" {
		message = remote.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	return schema.NewErrorf(schema.ErrCodeUpstream, "engine returned %d: %s", status, message).
		WithDetails(map[string]any{
			"status":  status,
			"message": message,
		})
}

// String implements fmt.Stringer for debug logging without leaking the key.
func (c *Client) String() string {
	return fmt.Sprintf("engineapi.Client(%s)", c.baseURL)
}
