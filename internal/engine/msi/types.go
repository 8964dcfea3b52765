// Package msi classifies stuck reactions in traversed communities and turns
// them into Metabolic Support Index values, relieved-reaction sets and
// cluster knockout results.
package msi

import (
	"context"
	"sort"

	"msindex/internal/engine/network"
)

// Pair identifies an acceptor analysed in the presence of a donor. A
// single-organism entry has Acceptor == Donor.
type Pair struct {
	Acceptor string
	Donor    string
}

// Key renders the pair as "<acceptor>_<donor>" for report output.
func (p Pair) Key() string {
	return p.Acceptor + "_" + p.Donor
}

func (p Pair) IsSingle() bool {
	return p.Acceptor == p.Donor
}

// OrgResult is what one organism looks like after a community traversal.
// All slices hold sorted, unique IDs.
type OrgResult struct {
	Organism string
	Partners []string
	Stuck    []string
	Visited  []string
	Scope    []string
}

// Traverser runs seed-guided reachability over a community graph.
type Traverser interface {
	Traverse(ctx context.Context, g *network.Graph, seeds []string) (*network.Result, error)
}

// TraverserFunc adapts a function to Traverser.
type TraverserFunc func(ctx context.Context, g *network.Graph, seeds []string) (*network.Result, error)

func (f TraverserFunc) Traverse(ctx context.Context, g *network.Graph, seeds []string) (*network.Result, error) {
	return f(ctx, g, seeds)
}

// ForwardPass is the built-in level-synchronous traversal.
var ForwardPass Traverser = TraverserFunc(network.ForwardPass)

// Table holds per-pair results of one StuckTable run. Organisms keeps model
// order so reports list pairs the same way on every run.
type Table struct {
	Organisms []string
	Results   map[Pair]OrgResult
}

func newTable(organisms []string) *Table {
	return &Table{
		Organisms: append([]string(nil), organisms...),
		Results:   make(map[Pair]OrgResult),
	}
}

func (t *Table) Get(p Pair) (OrgResult, bool) {
	if t == nil {
		return OrgResult{}, false
	}
	r, ok := t.Results[p]
	return r, ok
}

// Single returns the stand-alone result of org.
func (t *Table) Single(org string) (OrgResult, bool) {
	return t.Get(Pair{Acceptor: org, Donor: org})
}

// Pairs lists the stored keys acceptor-major in organism order.
func (t *Table) Pairs() []Pair {
	if t == nil {
		return nil
	}
	out := make([]Pair, 0, len(t.Results))
	for _, a := range t.Organisms {
		for _, d := range t.Organisms {
			p := Pair{Acceptor: a, Donor: d}
			if _, ok := t.Results[p]; ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// Len reports the number of stored pairs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Results)
}

type stringSet map[string]struct{}

func newSet(items ...[]string) stringSet {
	s := make(stringSet)
	for _, list := range items {
		for _, v := range list {
			s[v] = struct{}{}
		}
	}
	return s
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// minus returns the sorted members of items that are not in drop.
func minus(items []string, drop stringSet) []string {
	keep := make(stringSet, len(items))
	for _, v := range items {
		if !drop.has(v) {
			keep[v] = struct{}{}
		}
	}
	return keep.sorted()
}
