package catalog

import (
	"sort"

	"github.com/google/uuid"
)

// Entry describes one known node type: the short human name agents use,
// the fully-qualified engine type, and the engine's default parameters.
type Entry struct {
	DisplayName       string         `json:"display_name"`
	EngineType        string         `json:"engine_type"`
	DefaultParameters map[string]any `json:"default_parameters"`
}

// Origin tags where a resolved entry came from.
type Origin int

const (
	// OriginCatalog means the display name matched a registered entry.
	OriginCatalog Origin = iota
	// OriginSynthesized means the name was unknown and an ad-hoc entry was
	// built whose engine type is the raw input string.
	OriginSynthesized
)

// Catalog is an immutable display-name -> Entry mapping, built once at
// process start. Safe for concurrent reads.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from the given entries.
func New(entries []Entry) *Catalog {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.DisplayName] = e
	}
	return &Catalog{entries: m}
}

// NewDefault builds the catalog of built-in engine node types. The webhook
// default path is a fresh UUID so two processes never collide on the
// engine's webhook routing table.
func NewDefault() *Catalog {
	return New([]Entry{
		{DisplayName: "Manual Trigger", EngineType: "n8n-nodes-base.manualTrigger", DefaultParameters: map[string]any{}},
		{DisplayName: "Cron", EngineType: "n8n-nodes-base.cron", DefaultParameters: map[string]any{
			"triggerTimes": map[string]any{"item": []any{map[string]any{"mode": "everyMinute"}}},
		}},
		{DisplayName: "Webhook", EngineType: "n8n-nodes-base.webhook", DefaultParameters: map[string]any{
			"path":       uuid.NewString(),
			"httpMethod": "GET",
		}},
		{DisplayName: "HTTP Request", EngineType: "n8n-nodes-base.httpRequest", DefaultParameters: map[string]any{
			"url":    "",
			"method": "GET",
		}},
		{DisplayName: "Set", EngineType: "n8n-nodes-base.set", DefaultParameters: map[string]any{
			"keepOnlySet": false,
			"values":      map[string]any{},
		}},
		{DisplayName: "IF", EngineType: "n8n-nodes-base.if", DefaultParameters: map[string]any{
			"conditions": map[string]any{},
		}},
		{DisplayName: "Switch", EngineType: "n8n-nodes-base.switch", DefaultParameters: map[string]any{
			"mode": "rules",
		}},
		{DisplayName: "Merge", EngineType: "n8n-nodes-base.merge", DefaultParameters: map[string]any{
			"mode": "append",
		}},
		{DisplayName: "Code", EngineType: "n8n-nodes-base.code", DefaultParameters: map[string]any{
			"mode":   "runOnceForAllItems",
			"jsCode": "return items;",
		}},
		{DisplayName: "Wait", EngineType: "n8n-nodes-base.wait", DefaultParameters: map[string]any{
			"resume": "timeInterval",
			"amount": 1,
			"unit":   "hours",
		}},
		{DisplayName: "No Operation", EngineType: "n8n-nodes-base.noOp", DefaultParameters: map[string]any{}},
		{DisplayName: "Slack", EngineType: "n8n-nodes-base.slack", DefaultParameters: map[string]any{
			"resource":  "message",
			"operation": "post",
		}},
		{DisplayName: "Email Send", EngineType: "n8n-nodes-base.emailSend", DefaultParameters: map[string]any{
			"fromEmail": "",
			"toEmail":   "",
		}},
		{DisplayName: "Execute Workflow", EngineType: "n8n-nodes-base.executeWorkflow", DefaultParameters: map[string]any{
			"source": "database",
		}},
		{DisplayName: "Respond to Webhook", EngineType: "n8n-nodes-base.respondToWebhook", DefaultParameters: map[string]any{
			"respondWith": "json",
		}},
	})
}

// Resolve looks up a display name. It always succeeds: a name with no
// registered entry yields a synthesized entry whose engine type is the raw
// input string and whose defaults are empty, tagged OriginSynthesized so
// callers can tell the two branches apart.
func (c *Catalog) Resolve(name string) (Entry, Origin) {
	if e, ok := c.entries[name]; ok {
		return e, OriginCatalog
	}
	return Entry{
		DisplayName:       name,
		EngineType:        name,
		DefaultParameters: map[string]any{},
	}, OriginSynthesized
}

// Known reports whether a display name has a registered entry.
func (c *Catalog) Known(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Listing is one row of the catalog introspection output.
type Listing struct {
	DisplayName string `json:"display_name"`
	EngineType  string `json:"engine_type"`
}

// List returns all registered node types sorted by display name.
func (c *Catalog) List() []Listing {
	out := make([]Listing, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, Listing{DisplayName: e.DisplayName, EngineType: e.EngineType})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out
}
