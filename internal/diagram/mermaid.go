// Package diagram renders a rendered workflow graph as a Mermaid flowchart,
// giving agents a human-reviewable preview before submission.
package diagram

import (
	"fmt"
	"strings"

	"github.com/planloom/planloom/pkg/schema"
)

// RenderMermaid renders a graph as a Mermaid flowchart string. The trigger
// node (id "1") gets the round start shape; all other nodes are boxes
// labelled "name (engine type)".
func RenderMermaid(title string, g *schema.Graph) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", title))
	}

	for _, node := range g.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}

	for _, node := range g.Nodes {
		for _, edge := range g.Edges(node.ID) {
			b.WriteString(fmt.Sprintf("    n%s --> n%s\n", node.ID, edge.Node))
		}
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the shape for its role.
func mermaidNodeDef(node schema.Node) string {
	label := mermaidEscapeLabel(fmt.Sprintf("%s (%s)", node.Name, node.Type))
	if node.ID == "1" {
		return fmt.Sprintf("n%s((%q))", node.ID, label)
	}
	return fmt.Sprintf("n%s[%q]", node.ID, label)
}

// mermaidEscapeLabel strips characters that break Mermaid labels.
func mermaidEscapeLabel(s string) string {
	r := strings.NewReplacer("\"", "'", "\n", " ")
	return r.Replace(s)
}
