// Package network builds bipartite metabolite/reaction graphs for a set of
// organisms and runs seed-guided reachability over them.
//
// A community graph keeps one copy of every organism's metabolites
// ("<org> <met>") and links each organism's exchange reactions to a shared
// pool ("Pool <met>"), which is the only route by which organisms can feed
// each other.
package network

import (
	"fmt"
	"sort"

	"msindex/internal/engine/sbml"
)

type NodeKind int

const (
	KindMetabolite NodeKind = iota
	KindInternal
	KindInternalReverse
	KindExport
	KindImport
)

// Code is the short tag used inside encoded reaction node names.
func (k NodeKind) Code() string {
	switch k {
	case KindInternal:
		return "I"
	case KindInternalReverse:
		return "R"
	case KindExport:
		return "EX"
	case KindImport:
		return "ERR"
	}
	return ""
}

func (k NodeKind) String() string {
	switch k {
	case KindMetabolite:
		return "metabolite"
	case KindInternal:
		return "internal"
	case KindInternalReverse:
		return "internal_reverse"
	case KindExport:
		return "export"
	case KindImport:
		return "import"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// PoolOrganism owns the shared extracellular metabolite nodes.
const PoolOrganism = "Pool"

type Node struct {
	Name       string
	Kind       NodeKind
	Organism   string
	Reaction   string // reaction nodes only
	Metabolite string // metabolite nodes only
}

func (n *Node) IsReaction() bool {
	return n.Kind != KindMetabolite
}

// IsInternal reports whether the node is an internal (non-exchange) reaction
// direction. Only these nodes can be classified as stuck.
func (n *Node) IsInternal() bool {
	return n.Kind == KindInternal || n.Kind == KindInternalReverse
}

type Graph struct {
	nodes     map[string]*Node
	order     []string
	succ      map[string][]string
	pred      map[string][]string
	edges     map[[2]string]struct{}
	organisms []string
}

// NameMap resolves encoded reaction node names back to reaction IDs.
type NameMap map[string]string

// Decode maps names to reaction IDs; unknown names are passed through.
func (nm NameMap) Decode(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if id, ok := nm[name]; ok {
			out[i] = id
		} else {
			out[i] = name
		}
	}
	return out
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
		edges: make(map[[2]string]struct{}),
	}
}

func MetaboliteName(org, met string) string {
	return org + " " + met
}

func PoolName(met string) string {
	return MetaboliteName(PoolOrganism, met)
}

func reactionName(org string, member int, kind NodeKind, index int) string {
	return fmt.Sprintf("%s Org%d%s%d", org, member, kind.Code(), index)
}

// Build constructs the community graph of models and the name map of its
// reaction nodes. Members are numbered from 1 in slice order.
func Build(models []*sbml.Model) (*Graph, NameMap) {
	g := newGraph()
	names := make(NameMap)

	for i, m := range models {
		member := i + 1
		org := m.ID
		g.organisms = append(g.organisms, org)

		for _, met := range m.Metabolites {
			g.addMetabolite(org, met.ID)
		}

		for idx, rxn := range m.Reactions {
			if m.IsExchange(rxn) {
				met := rxn.Species()[0]
				local := g.addMetabolite(org, met)
				pool := g.addMetabolite(PoolOrganism, met)

				export := g.addReaction(reactionName(org, member, KindExport, idx), KindExport, org, rxn.ID)
				g.addEdge(local, export)
				g.addEdge(export, pool)

				imp := g.addReaction(reactionName(org, member, KindImport, idx), KindImport, org, rxn.ID)
				g.addEdge(pool, imp)
				g.addEdge(imp, local)

				names[export] = rxn.ID
				names[imp] = rxn.ID
				continue
			}

			fwd := g.addReaction(reactionName(org, member, KindInternal, idx), KindInternal, org, rxn.ID)
			g.wire(org, fwd, rxn.Reactants, rxn.Products)
			names[fwd] = rxn.ID

			if rxn.Reversible {
				rev := g.addReaction(reactionName(org, member, KindInternalReverse, idx), KindInternalReverse, org, rxn.ID)
				g.wire(org, rev, rxn.Products, rxn.Reactants)
				names[rev] = rxn.ID
			}
		}
	}
	return g, names
}

func (g *Graph) wire(org, rxn string, in, out map[string]float64) {
	for _, met := range sortedKeys(in) {
		g.addEdge(g.addMetabolite(org, met), rxn)
	}
	for _, met := range sortedKeys(out) {
		g.addEdge(rxn, g.addMetabolite(org, met))
	}
}

func (g *Graph) addMetabolite(org, met string) string {
	name := MetaboliteName(org, met)
	if _, ok := g.nodes[name]; !ok {
		g.nodes[name] = &Node{Name: name, Kind: KindMetabolite, Organism: org, Metabolite: met}
		g.order = append(g.order, name)
	}
	return name
}

func (g *Graph) addReaction(name string, kind NodeKind, org, rxn string) string {
	if _, ok := g.nodes[name]; !ok {
		g.nodes[name] = &Node{Name: name, Kind: kind, Organism: org, Reaction: rxn}
		g.order = append(g.order, name)
	}
	return name
}

func (g *Graph) addEdge(from, to string) {
	key := [2]string{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

func (g *Graph) Successors(name string) []string {
	return append([]string(nil), g.succ[name]...)
}

func (g *Graph) Predecessors(name string) []string {
	return append([]string(nil), g.pred[name]...)
}

func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[[2]string{from, to}]
	return ok
}

// Edges returns every edge sorted by (from, to).
func (g *Graph) Edges() [][2]string {
	out := make([][2]string, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Organisms returns member organism IDs in build order.
func (g *Graph) Organisms() []string {
	return append([]string(nil), g.organisms...)
}

// ReactionNodes returns the reaction nodes owned by org in insertion order.
func (g *Graph) ReactionNodes(org string) []*Node {
	out := make([]*Node, 0)
	for _, name := range g.order {
		n := g.nodes[name]
		if n.IsReaction() && n.Organism == org {
			out = append(out, n)
		}
	}
	return out
}

// SeedNodes expands metabolite IDs into the existing organism and pool nodes.
func (g *Graph) SeedNodes(seeds []string) []string {
	owners := append(g.Organisms(), PoolOrganism)
	out := make([]string, 0, len(seeds)*len(owners))
	seen := make(map[string]bool)
	for _, s := range seeds {
		for _, org := range owners {
			name := MetaboliteName(org, s)
			if _, ok := g.nodes[name]; ok && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Neighborhood returns the sub-graph induced by names plus their direct
// predecessors and successors. Unknown names are ignored.
func (g *Graph) Neighborhood(names []string) *Graph {
	keep := make(map[string]bool)
	for _, name := range names {
		if _, ok := g.nodes[name]; !ok {
			continue
		}
		keep[name] = true
		for _, p := range g.pred[name] {
			keep[p] = true
		}
		for _, s := range g.succ[name] {
			keep[s] = true
		}
	}

	sub := newGraph()
	for _, name := range g.order {
		if !keep[name] {
			continue
		}
		n := *g.nodes[name]
		sub.nodes[name] = &n
		sub.order = append(sub.order, name)
	}
	for _, e := range g.Edges() {
		if keep[e[0]] && keep[e[1]] {
			sub.addEdge(e[0], e[1])
		}
	}
	for _, org := range g.organisms {
		sub.organisms = append(sub.organisms, org)
	}
	return sub
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
