package render

import (
	"strconv"

	"github.com/planloom/planloom/internal/catalog"
	"github.com/planloom/planloom/pkg/schema"
)

// Canvas layout constants. Nodes sit on a single horizontal lane with even
// spacing; the engine's editor is free to rearrange them later.
const (
	triggerID   = "1"
	baseX       = 280
	laneY       = 300
	xSpacing    = 220
	typeVersion = 1
)

// Renderer turns a PlanSpec into the engine's node/connection graph.
//
// Rendering is a pure computation over the immutable catalog: it performs no
// I/O, holds no state between calls, and is safe for concurrent use. It also
// never fails: unknown node types synthesize an ad-hoc entry, dangling
// dependency references fall back to the previous step, and a cron trigger
// without an expression keeps the catalog defaults. Semantic correctness of
// the resulting graph is deferred to the engine at submission time; use
// lint.Check for advisory diagnostics before composing.
type Renderer struct {
	catalog *catalog.Catalog
	interp  *Interpolator
}

// New creates a Renderer backed by the given catalog.
func New(c *catalog.Catalog) *Renderer {
	return &Renderer{catalog: c, interp: NewInterpolator()}
}

// Render produces the graph for a plan. The returned graph is freshly
// allocated and owned by the caller.
func (r *Renderer) Render(plan schema.PlanSpec) *schema.Graph {
	g := &schema.Graph{
		Nodes:       make([]schema.Node, 0, len(plan.Steps)+1),
		Connections: make(map[string]schema.NodePorts),
	}

	env := exprEnv(plan)

	g.Nodes = append(g.Nodes, r.triggerNode(plan))

	// Step nodes, in input order, ordinals from 2. The key -> id mapping is
	// built for the whole plan before connections are wired, so a step may
	// depend on one declared after it.
	keyToID := make(map[string]string, len(plan.Steps))
	for i, step := range plan.Steps {
		ordinal := i + 2
		entry, _ := r.catalog.Resolve(step.Type)

		params := mergeParameters(entry.DefaultParameters, step.Parameters)
		params = r.interp.Apply(params, env)

		name := step.ID
		if name == "" {
			name = entry.DisplayName
		}

		id := strconv.Itoa(ordinal)
		g.Nodes = append(g.Nodes, schema.Node{
			ID:          id,
			Name:        name,
			Type:        entry.EngineType,
			TypeVersion: typeVersion,
			Position:    [2]int{baseX + xSpacing*(ordinal-1), laneY},
			Parameters:  params,
		})
		keyToID[step.Key(i+1)] = id
	}

	// Connections. The "previous" cursor advances to each step's own id
	// after it is wired, even when the step reparented itself via
	// depends_on; the next step without explicit dependencies still chains
	// from it.
	previous := triggerID
	for i, step := range plan.Steps {
		current := strconv.Itoa(i + 2)
		for _, parent := range parentIDs(step, keyToID, previous) {
			appendEdge(g, parent, current)
		}
		previous = current
	}

	return g
}

// triggerNode builds the single trigger node, always id "1" at (280, 300).
func (r *Renderer) triggerNode(plan schema.PlanSpec) schema.Node {
	var entry catalog.Entry
	var params map[string]any

	switch plan.Trigger {
	case schema.TriggerCron:
		entry, _ = r.catalog.Resolve("Cron")
		if plan.CronExpression != "" {
			// The expression replaces the defaults wholesale: downstream
			// consumers rely on "rule" being the only key present.
			params = map[string]any{"rule": plan.CronExpression}
		} else {
			params = mergeParameters(entry.DefaultParameters, nil)
		}
	case schema.TriggerWebhook:
		entry, _ = r.catalog.Resolve("Webhook")
		params = mergeParameters(entry.DefaultParameters, nil)
	default:
		entry, _ = r.catalog.Resolve("Manual Trigger")
		params = mergeParameters(entry.DefaultParameters, nil)
	}

	return schema.Node{
		ID:          triggerID,
		Name:        entry.DisplayName,
		Type:        entry.EngineType,
		TypeVersion: typeVersion,
		Position:    [2]int{baseX, laneY},
		Parameters:  params,
	}
}

// parentIDs resolves a step's parent set. The literal token "trigger" maps
// to the trigger node; any other token is looked up in the key -> id map and
// falls back to the previous cursor when unresolved. Steps without explicit
// dependencies chain from the previous node.
func parentIDs(step schema.StepSpec, keyToID map[string]string, previous string) []string {
	if len(step.DependsOn) == 0 {
		return []string{previous}
	}

	parents := make([]string, 0, len(step.DependsOn))
	for _, ref := range step.DependsOn {
		switch {
		case ref == "trigger":
			parents = append(parents, triggerID)
		case keyToID[ref] != "":
			parents = append(parents, keyToID[ref])
		default:
			parents = append(parents, previous)
		}
	}
	return parents
}

// appendEdge adds an edge from -> to on the main output port, creating the
// source's fan-out entry on first use.
func appendEdge(g *schema.Graph, from, to string) {
	ports := g.Connections[from]
	if len(ports.Main) == 0 {
		ports.Main = [][]schema.Connection{{}}
	}
	ports.Main[0] = append(ports.Main[0], schema.Connection{
		Node:  to,
		Type:  schema.PortMain,
		Index: 0,
	})
	g.Connections[from] = ports
}

// mergeParameters shallow-merges step parameters over catalog defaults.
// Step values win on key collision; nested maps are not merged. The result
// is always a fresh non-nil map so callers can mutate it freely.
func mergeParameters(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
