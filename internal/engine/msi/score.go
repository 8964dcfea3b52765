package msi

import (
	"strings"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/engine/sbml"
)

// TransportReactions returns the IDs of every reaction, across all models,
// that touches a metabolite whose ID contains the exchange marker of the
// first model. Containment rather than suffix keeps "_e0" metabolites of
// other namespaces when the first model uses "_e".
func TransportReactions(models []*sbml.Model) ([]string, error) {
	if len(models) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "no models to scan for transport reactions")
	}
	marker, err := sbml.ExchangeMarker(models[0])
	if err != nil {
		return nil, err
	}
	out := make(stringSet)
	for _, m := range models {
		for _, rxn := range m.Reactions {
			for _, met := range rxn.Species() {
				if strings.Contains(met, marker) {
					out[rxn.ID] = struct{}{}
					break
				}
			}
		}
	}
	return out.sorted(), nil
}

// Score is the support one pair entry receives.
type Score struct {
	Pair        Pair
	StuckBefore int
	StuckAfter  int
	MSI         float64
}

// SupportIndex is 1 - after/before, and 0 when nothing was stuck to begin
// with.
func SupportIndex(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return 1 - float64(after)/float64(before)
}

// PairwiseMSI scores every pair of pair against the acceptor's stand-alone
// result in single. Transport reactions are left out of both counts and
// single-organism entries are skipped.
func PairwiseMSI(single, pair *Table, transport []string) []Score {
	drop := newSet(transport)
	out := make([]Score, 0, pair.Len())
	for _, p := range pair.Pairs() {
		if p.IsSingle() {
			continue
		}
		alone, ok := single.Single(p.Acceptor)
		if !ok {
			continue
		}
		with, _ := pair.Get(p)
		before := len(minus(alone.Stuck, drop))
		after := len(minus(with.Stuck, drop))
		out = append(out, Score{
			Pair:        p,
			StuckBefore: before,
			StuckAfter:  after,
			MSI:         SupportIndex(before, after),
		})
	}
	return out
}

// ReactionDetail is a reaction as listed in relieved-reaction reports.
type ReactionDetail struct {
	ID       string
	Name     string
	Equation string
}

// Relief lists reactions of one organism that became reachable.
type Relief struct {
	Pair      Pair
	Reactions []ReactionDetail
}

// IDs returns the reaction IDs of r in order.
func (r Relief) IDs() []string {
	out := make([]string, len(r.Reactions))
	for i, d := range r.Reactions {
		out[i] = d.ID
	}
	return out
}

// Relieved lists, per pair, the reactions stuck when the acceptor is alone
// but not in the presence of the donor. Transport reactions are kept.
func Relieved(models []*sbml.Model, single, pair *Table) []Relief {
	byID := modelIndex(models)
	out := make([]Relief, 0, pair.Len())
	for _, p := range pair.Pairs() {
		if p.IsSingle() {
			continue
		}
		alone, ok := single.Single(p.Acceptor)
		if !ok {
			continue
		}
		with, _ := pair.Get(p)
		ids := minus(alone.Stuck, newSet(with.Stuck))
		out = append(out, Relief{Pair: p, Reactions: details(byID[p.Acceptor], ids)})
	}
	return out
}

// OrgStat counts unique stuck and visited reactions of one organism alone.
type OrgStat struct {
	Organism string
	Stuck    int
	Visited  int
}

func OrganismStats(single *Table) []OrgStat {
	out := make([]OrgStat, 0, single.Len())
	for _, org := range single.Organisms {
		r, ok := single.Single(org)
		if !ok {
			continue
		}
		out = append(out, OrgStat{Organism: org, Stuck: len(r.Stuck), Visited: len(r.Visited)})
	}
	return out
}

func modelIndex(models []*sbml.Model) map[string]*sbml.Model {
	out := make(map[string]*sbml.Model, len(models))
	for _, m := range models {
		out[m.ID] = m
	}
	return out
}

func details(m *sbml.Model, ids []string) []ReactionDetail {
	out := make([]ReactionDetail, 0, len(ids))
	for _, id := range ids {
		d := ReactionDetail{ID: id}
		if m != nil {
			if rxn, ok := m.Reaction(id); ok {
				d.Name = rxn.Name
				d.Equation = rxn.Equation()
			}
		}
		out = append(out, d)
	}
	return out
}
