package schema

// Graph is the rendered workflow in the engine's wire format. The top-level
// keys and the node/edge field names are a compatibility requirement with the
// consuming engine and must not change.
type Graph struct {
	Nodes       []Node               `json:"nodes"`
	Connections map[string]NodePorts `json:"connections"`
}

// Node is one typed node on the canvas.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"` // opaque engine type identifier
	TypeVersion int            `json:"typeVersion"`
	Position    [2]int         `json:"position"`
	Parameters  map[string]any `json:"parameters"`
}

// NodePorts holds the fan-out of a source node. The engine models one
// ordered list of outgoing edge groups per output port; only the "main"
// port is produced here.
type NodePorts struct {
	Main [][]Connection `json:"main"`
}

// Connection is a single directed edge into a target node's main input.
type Connection struct {
	Node  string `json:"node"` // target node id
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// PortMain is the only port type the renderer emits.
const PortMain = "main"

// Edges returns the flat list of edges leaving the given source node,
// in insertion order. Convenience for tests and diagram rendering.
func (g *Graph) Edges(sourceID string) []Connection {
	ports, ok := g.Connections[sourceID]
	if !ok || len(ports.Main) == 0 {
		return nil
	}
	return ports.Main[0]
}
