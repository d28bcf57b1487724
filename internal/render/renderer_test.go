package render

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planloom/planloom/internal/catalog"
	"github.com/planloom/planloom/pkg/schema"
)

func newRenderer() *Renderer {
	return New(catalog.NewDefault())
}

func TestRenderEmptyPlan(t *testing.T) {
	g := newRenderer().Render(schema.PlanSpec{Name: "empty", Trigger: schema.TriggerManual})

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "1", g.Nodes[0].ID)
	assert.Equal(t, "n8n-nodes-base.manualTrigger", g.Nodes[0].Type)
	assert.Equal(t, [2]int{280, 300}, g.Nodes[0].Position)
	assert.Empty(t, g.Connections)
}

func TestRenderLinearChain(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "chain",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{Type: "HTTP Request"},
			{Type: "Set"},
			{Type: "Slack"},
		},
	}

	g := newRenderer().Render(plan)
	require.Len(t, g.Nodes, 4)

	// trigger -> step1 -> step2 -> step3, one outgoing edge per source.
	for i := 1; i <= 3; i++ {
		src := strconv.Itoa(i)
		edges := g.Edges(src)
		require.Len(t, edges, 1, "source %s", src)
		assert.Equal(t, strconv.Itoa(i+1), edges[0].Node)
		assert.Equal(t, schema.PortMain, edges[0].Type)
		assert.Equal(t, 0, edges[0].Index)
	}
	assert.Nil(t, g.Edges("4"))
}

func TestRenderNodeIDsAndPositions(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "layout",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{Type: "Set"},
			{Type: "Set"},
		},
	}

	g := newRenderer().Render(plan)
	require.Len(t, g.Nodes, 3)

	assert.Equal(t, "2", g.Nodes[1].ID)
	assert.Equal(t, [2]int{280 + 220, 300}, g.Nodes[1].Position)
	assert.Equal(t, "3", g.Nodes[2].ID)
	assert.Equal(t, [2]int{280 + 440, 300}, g.Nodes[2].Position)

	for _, n := range g.Nodes {
		assert.Equal(t, 1, n.TypeVersion)
	}
}

func TestRenderUnknownTypeFallsBack(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "unknown",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{Type: "n8n-nodes-base.customThing"},
			{Type: "n8n-nodes-base.customThing"},
		},
	}

	g := newRenderer().Render(plan)
	require.Len(t, g.Nodes, 3)

	// Same unregistered type twice: unique ids, identical engine type.
	assert.Equal(t, "n8n-nodes-base.customThing", g.Nodes[1].Type)
	assert.Equal(t, "n8n-nodes-base.customThing", g.Nodes[2].Type)
	assert.NotEqual(t, g.Nodes[1].ID, g.Nodes[2].ID)
}

func TestRenderParameterMergeShallowStepWins(t *testing.T) {
	c := catalog.New([]catalog.Entry{
		{DisplayName: "Manual Trigger", EngineType: "n8n-nodes-base.manualTrigger", DefaultParameters: map[string]any{}},
		{DisplayName: "Thing", EngineType: "base.thing", DefaultParameters: map[string]any{"a": 1, "b": 2}},
	})

	plan := schema.PlanSpec{
		Name:    "merge",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{Type: "Thing", Parameters: map[string]any{"b": 3, "c": 4}},
		},
	}

	g := New(c).Render(plan)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, g.Nodes[1].Parameters)
}

func TestRenderCronTriggerRuleReplacesDefaults(t *testing.T) {
	plan := schema.PlanSpec{
		Name:           "cron",
		Trigger:        schema.TriggerCron,
		CronExpression: "0 * * * *",
	}

	g := newRenderer().Render(plan)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "n8n-nodes-base.cron", g.Nodes[0].Type)

	// The expression replaces the catalog defaults entirely.
	assert.Equal(t, map[string]any{"rule": "0 * * * *"}, g.Nodes[0].Parameters)
}

func TestRenderCronTriggerWithoutExpressionKeepsDefaults(t *testing.T) {
	g := newRenderer().Render(schema.PlanSpec{Name: "cron", Trigger: schema.TriggerCron})

	require.Len(t, g.Nodes, 1)
	assert.Contains(t, g.Nodes[0].Parameters, "triggerTimes")
	assert.NotContains(t, g.Nodes[0].Parameters, "rule")
}

func TestRenderWebhookTriggerUsesCatalogDefaults(t *testing.T) {
	c := catalog.NewDefault()
	entry, _ := c.Resolve("Webhook")

	g := New(c).Render(schema.PlanSpec{Name: "hook", Trigger: schema.TriggerWebhook})

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "n8n-nodes-base.webhook", g.Nodes[0].Type)
	assert.Equal(t, entry.DefaultParameters["path"], g.Nodes[0].Parameters["path"])
	assert.Equal(t, "GET", g.Nodes[0].Parameters["httpMethod"])
}

func TestRenderDependsOnTrigger(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "fanout",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "a", Type: "Set"},
			{ID: "b", Type: "Set"},
			{ID: "c", Type: "Set", DependsOn: []string{"trigger"}},
		},
	}

	g := newRenderer().Render(plan)

	// "c" is third in input order but hangs off the trigger.
	triggerEdges := g.Edges("1")
	require.Len(t, triggerEdges, 2)
	assert.Equal(t, "2", triggerEdges[0].Node)
	assert.Equal(t, "4", triggerEdges[1].Node)
}

func TestRenderExplicitDependencies(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "deps",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "fetch", Type: "HTTP Request"},
			{ID: "transform", Type: "Code"},
			{ID: "join", Type: "Merge", DependsOn: []string{"fetch", "transform"}},
		},
	}

	g := newRenderer().Render(plan)

	// fetch feeds transform (default chaining) and join (explicit).
	fetchEdges := g.Edges("2")
	require.Len(t, fetchEdges, 2)
	assert.Equal(t, "3", fetchEdges[0].Node)
	assert.Equal(t, "4", fetchEdges[1].Node)

	transformEdges := g.Edges("3")
	require.Len(t, transformEdges, 1)
	assert.Equal(t, "4", transformEdges[0].Node)
}

func TestRenderForwardDependencyResolves(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "forward",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "first", Type: "Set", DependsOn: []string{"last"}},
			{ID: "last", Type: "Set"},
		},
	}

	g := newRenderer().Render(plan)

	// The key map covers the whole plan, so a reference to a later step
	// resolves instead of falling back.
	lastEdges := g.Edges("3")
	require.Len(t, lastEdges, 1)
	assert.Equal(t, "2", lastEdges[0].Node)
}

func TestRenderDanglingDependencyFallsBackToPrevious(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "dangling",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "a", Type: "Set"},
			{ID: "b", Type: "Set", DependsOn: []string{"no-such-step"}},
		},
	}

	g := newRenderer().Render(plan)

	// Unresolved reference silently falls back to the previous node.
	aEdges := g.Edges("2")
	require.Len(t, aEdges, 1)
	assert.Equal(t, "3", aEdges[0].Node)
}

func TestRenderPreviousCursorAdvancesPastReparentedStep(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "cursor",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "a", Type: "Set"},
			{ID: "b", Type: "Set", DependsOn: []string{"trigger"}},
			{ID: "c", Type: "Set"},
		},
	}

	g := newRenderer().Render(plan)

	// "b" reparented to the trigger, but it still becomes the default
	// parent of "c".
	bEdges := g.Edges("3")
	require.Len(t, bEdges, 1)
	assert.Equal(t, "4", bEdges[0].Node)
}

func TestRenderSynthesizedKeysAreReferenceable(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "keys",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{Type: "HTTP Request"},
			{Type: "Set", DependsOn: []string{"HTTP Request_1"}},
		},
	}

	g := newRenderer().Render(plan)

	edges := g.Edges("2")
	require.Len(t, edges, 1)
	assert.Equal(t, "3", edges[0].Node)
}

func TestRenderStepNames(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "names",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "notify", Type: "Slack"},
			{Type: "Slack"},
		},
	}

	g := newRenderer().Render(plan)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "notify", g.Nodes[1].Name)
	assert.Equal(t, "Slack", g.Nodes[2].Name)
}

func TestRenderIsDeterministic(t *testing.T) {
	plan := schema.PlanSpec{
		Name:    "det",
		Trigger: schema.TriggerManual,
		Steps: []schema.StepSpec{
			{ID: "a", Type: "HTTP Request", Parameters: map[string]any{"url": "https://example.com"}},
			{ID: "b", Type: "Set", DependsOn: []string{"a"}},
		},
	}

	r := newRenderer()
	first := r.Render(plan)
	second := r.Render(plan)
	assert.Equal(t, first, second)
}
