// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"msindex/internal/engine/network"
)

type DOTGenerator struct {
	graph *network.Graph
}

func NewDOTGenerator(g *network.Graph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

// Generate renders the graph; highlighted reaction nodes (usually the
// relieved ones) are drawn in red.
func (d *DOTGenerator) Generate(highlight []string) (string, error) {
	if d.graph == nil {
		return "", network.ErrGraphNil
	}
	var buf strings.Builder

	buf.WriteString("digraph metabolism {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n")
	buf.WriteString("  overlap=false;\n\n")

	marked := make(map[string]bool, len(highlight))
	for _, h := range highlight {
		marked[h] = true
	}

	var pool []*network.Node
	for _, n := range d.graph.Nodes() {
		if n.Organism == network.PoolOrganism {
			pool = append(pool, n)
			continue
		}
		buf.WriteString("  " + dotNode(n, marked[n.Name]) + "\n")
	}

	if len(pool) > 0 {
		buf.WriteString("\n  subgraph cluster_pool {\n")
		buf.WriteString("    label=\"Shared pool\";\n")
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		for _, n := range pool {
			buf.WriteString("    " + dotNode(n, false) + "\n")
		}
		buf.WriteString("  }\n")
	}
	buf.WriteString("\n")

	for _, e := range d.graph.Edges() {
		from, _ := d.graph.Node(e[0])
		to, _ := d.graph.Node(e[1])
		if isExchangeNode(from) || isExchangeNode(to) {
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"grey\", style=dashed];\n", e[0], e[1]))
		} else {
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"forestgreen\"];\n", e[0], e[1]))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func dotNode(n *network.Node, marked bool) string {
	if !n.IsReaction() {
		return fmt.Sprintf("%q [label=%q, shape=ellipse, color=\"steelblue\"];", n.Name, n.Name)
	}
	label := fmt.Sprintf("%s\\n%s", n.Reaction, n.Kind)
	switch {
	case marked:
		return fmt.Sprintf("%q [label=\"%s\", shape=box, style=\"rounded,filled\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];", n.Name, label)
	case isExchangeNode(n):
		return fmt.Sprintf("%q [label=\"%s\", shape=box, style=\"rounded,filled\", fillcolor=\"gainsboro\", color=\"grey\"];", n.Name, label)
	}
	return fmt.Sprintf("%q [label=\"%s\", shape=box, style=rounded, color=\"darkslategrey\"];", n.Name, label)
}

func isExchangeNode(n *network.Node) bool {
	return n != nil && (n.Kind == network.KindExport || n.Kind == network.KindImport)
}
