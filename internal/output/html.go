package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"msindex/internal/engine/network"
)

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Shape string `json:"shape"`
	Color string `json:"color"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Arrows string `json:"arrows"`
	Dashes bool   `json:"dashes,omitempty"`
}

var networkPage = template.Must(template.New("network").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script type="text/javascript" src="https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"></script>
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 0; }
  h1 { font-size: 16px; margin: 8px 12px; }
  #network { width: 1000px; height: 1000px; border: 1px solid lightgray; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="network"></div>
<script type="text/javascript">
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var options = {
    physics: { solver: "repulsion", repulsion: { nodeDistance: 500, springLength: 300 } },
    edges: { smooth: false },
    configure: { enabled: true, filter: "nodes" }
  };
  new vis.Network(document.getElementById("network"), { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`))

// HTMLGenerator renders an interactive vis-network page of a graph.
type HTMLGenerator struct {
	graph *network.Graph
}

func NewHTMLGenerator(g *network.Graph) *HTMLGenerator {
	return &HTMLGenerator{graph: g}
}

func (h *HTMLGenerator) Generate(title string, highlight []string) (string, error) {
	if h.graph == nil {
		return "", network.ErrGraphNil
	}
	marked := make(map[string]bool, len(highlight))
	for _, n := range highlight {
		marked[n] = true
	}

	nodes := make([]visNode, 0, h.graph.NodeCount())
	for _, n := range h.graph.Nodes() {
		v := visNode{ID: n.Name, Label: n.Name, Title: n.Name, Shape: "dot", Color: "#97c2fc"}
		if n.IsReaction() {
			v.Label = n.Reaction
			v.Title = fmt.Sprintf("%s (%s)", n.Name, n.Kind)
			v.Shape = "box"
			v.Color = "#d3d3d3"
		}
		if marked[n.Name] {
			v.Color = "#ff7f7f"
		}
		nodes = append(nodes, v)
	}
	edges := make([]visEdge, 0, h.graph.EdgeCount())
	for _, e := range h.graph.Edges() {
		from, _ := h.graph.Node(e[0])
		to, _ := h.graph.Node(e[1])
		edges = append(edges, visEdge{From: e[0], To: e[1], Arrows: "to", Dashes: isExchangeNode(from) || isExchangeNode(to)})
	}

	nodeJSON, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("encode nodes: %w", err)
	}
	edgeJSON, err := json.Marshal(edges)
	if err != nil {
		return "", fmt.Errorf("encode edges: %w", err)
	}

	var buf bytes.Buffer
	err = networkPage.Execute(&buf, struct {
		Title string
		Nodes template.JS
		Edges template.JS
	}{Title: title, Nodes: template.JS(nodeJSON), Edges: template.JS(edgeJSON)})
	if err != nil {
		return "", fmt.Errorf("render network page: %w", err)
	}
	return buf.String(), nil
}
