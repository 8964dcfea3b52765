package network

import (
	"context"
	"errors"
	"sort"
)

// ErrGraphNil is returned when a traversal is asked to run without a graph.
var ErrGraphNil = errors.New("network: graph is nil")

// Result is the outcome of a forward pass. Rounds are 1-based for reactions;
// seeds enter the scope at round 0.
type Result struct {
	Visited map[string]int
	Scope   map[string]int
	Rounds  int
}

func (r *Result) IsVisited(name string) bool {
	_, ok := r.Visited[name]
	return ok
}

// OrganismScope returns the metabolite IDs of org that are in scope, sorted.
func (r *Result) OrganismScope(g *Graph, org string) []string {
	out := make([]string, 0)
	for name := range r.Scope {
		n, ok := g.Node(name)
		if !ok || n.Organism != org {
			continue
		}
		out = append(out, n.Metabolite)
	}
	sort.Strings(out)
	return out
}

// walker holds the mutable state of one forward pass.
type walker struct {
	graph   *Graph
	ctx     context.Context
	missing map[string]int
	res     *Result
}

// ForwardPass fires reactions level by level starting from the seed
// metabolite nodes. A reaction fires in the first round in which all of its
// substrate nodes are in scope; its products join the scope in that round.
// Substrate-free reactions fire in round 1. Seed names that are not
// metabolite nodes of g are ignored.
func ForwardPass(ctx context.Context, g *Graph, seeds []string) (*Result, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	w := &walker{
		graph:   g,
		ctx:     ctx,
		missing: make(map[string]int),
		res: &Result{
			Visited: make(map[string]int),
			Scope:   make(map[string]int),
		},
	}

	frontier := make([]string, 0, len(seeds))
	for _, s := range seeds {
		n, ok := g.nodes[s]
		if !ok || n.IsReaction() {
			continue
		}
		if _, dup := w.res.Scope[s]; dup {
			continue
		}
		w.res.Scope[s] = 0
		frontier = append(frontier, s)
	}

	ready := make([]string, 0)
	for _, name := range g.order {
		if !g.nodes[name].IsReaction() {
			continue
		}
		w.missing[name] = len(g.pred[name])
		if w.missing[name] == 0 {
			ready = append(ready, name)
		}
	}

	return w.res, w.loop(frontier, ready)
}

func (w *walker) loop(frontier, ready []string) error {
	for round := 1; len(frontier) > 0 || len(ready) > 0; round++ {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		ready = w.release(frontier, ready)
		if len(ready) == 0 {
			break
		}
		frontier = w.fire(ready, round)
		ready = ready[:0]
		w.res.Rounds = round
	}
	return nil
}

// release decrements the substrate counters of reactions fed by frontier and
// appends newly satisfied reactions to ready.
func (w *walker) release(frontier, ready []string) []string {
	for _, met := range frontier {
		for _, rxn := range w.graph.succ[met] {
			if w.res.IsVisited(rxn) {
				continue
			}
			w.missing[rxn]--
			if w.missing[rxn] == 0 {
				ready = append(ready, rxn)
			}
		}
	}
	return ready
}

// fire marks ready reactions visited and returns metabolites that entered
// the scope in this round.
func (w *walker) fire(ready []string, round int) []string {
	next := make([]string, 0)
	for _, rxn := range ready {
		if w.res.IsVisited(rxn) {
			continue
		}
		w.res.Visited[rxn] = round
		for _, product := range w.graph.succ[rxn] {
			if _, ok := w.res.Scope[product]; ok {
				continue
			}
			w.res.Scope[product] = round
			next = append(next, product)
		}
	}
	return next
}
