package output

import (
	"fmt"
	"strings"
	"unicode"

	"msindex/internal/engine/network"
)

type MermaidGenerator struct {
	graph *network.Graph
}

func NewMermaidGenerator(g *network.Graph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

// Generate renders a flowchart of the graph. Reactions are boxes,
// metabolites are rounded, highlighted reactions get the relieved class.
func (m *MermaidGenerator) Generate(highlight []string) (string, error) {
	if m.graph == nil {
		return "", network.ErrGraphNil
	}
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 60, 'rankSpacing': 90, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	nodes := m.graph.Nodes()
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	ids := makeMermaidIDs(names)

	marked := make(map[string]bool, len(highlight))
	for _, h := range highlight {
		marked[h] = true
	}

	var relieved, exchange, pool []string
	for _, n := range nodes {
		id := ids[n.Name]
		if n.IsReaction() {
			b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", id, escapeMermaidLabel(n.Reaction+" ("+n.Kind.String()+")")))
		} else {
			b.WriteString(fmt.Sprintf("  %s([\"%s\"])\n", id, escapeMermaidLabel(n.Name)))
		}
		switch {
		case marked[n.Name]:
			relieved = append(relieved, id)
		case isExchangeNode(n):
			exchange = append(exchange, id)
		case n.Organism == network.PoolOrganism:
			pool = append(pool, id)
		}
	}

	for _, e := range m.graph.Edges() {
		b.WriteString(fmt.Sprintf("  %s --> %s\n", ids[e[0]], ids[e[1]]))
	}

	if len(relieved) > 0 {
		b.WriteString("  classDef relievedNode fill:#ffecec,stroke:#cc0000,stroke-width:2px;\n")
		b.WriteString(fmt.Sprintf("  class %s relievedNode;\n", strings.Join(relieved, ",")))
	}
	if len(exchange) > 0 {
		b.WriteString("  classDef exchangeNode fill:#efefef,stroke:#808080,stroke-dasharray:4 3;\n")
		b.WriteString(fmt.Sprintf("  class %s exchangeNode;\n", strings.Join(exchange, ",")))
	}
	if len(pool) > 0 {
		b.WriteString("  classDef poolNode fill:#f7fbff,stroke:#4d6480,stroke-width:1px;\n")
		b.WriteString(fmt.Sprintf("  class %s poolNode;\n", strings.Join(pool, ",")))
	}
	return b.String(), nil
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

// makeMermaidIDs assigns unique IDs; names that sanitize to the same ID get
// a numeric suffix in order of appearance.
func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
