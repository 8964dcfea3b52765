package sbml

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Model is the subset of a genome-scale metabolic model needed for
// reachability analysis.
type Model struct {
	ID          string
	Name        string
	Path        string
	Metabolites []Metabolite
	Reactions   []Reaction

	// ExternalCompartment is the compartment most boundary reactions touch.
	ExternalCompartment string

	metIndex map[string]int
	rxnIndex map[string]int
}

type Metabolite struct {
	ID          string
	Name        string
	Compartment string
}

// Reaction stores stoichiometry as metabolite ID -> coefficient. Coefficients
// are always positive; the side is given by the map.
type Reaction struct {
	ID         string
	Name       string
	Reactants  map[string]float64
	Products   map[string]float64
	LowerBound float64
	UpperBound float64
	Reversible bool
}

const (
	defaultLowerBound = -1000
	defaultUpperBound = 1000
)

// exchangeMarkerPattern extracts compartment markers such as _e, _e0 or [e].
var exchangeMarkerPattern = regexp.MustCompile(`[_[][a-z]\d*[]]*`)

func (m *Model) index() {
	m.metIndex = make(map[string]int, len(m.Metabolites))
	for i, met := range m.Metabolites {
		m.metIndex[met.ID] = i
	}
	m.rxnIndex = make(map[string]int, len(m.Reactions))
	for i, rxn := range m.Reactions {
		m.rxnIndex[rxn.ID] = i
	}
}

func (m *Model) Metabolite(id string) (Metabolite, bool) {
	if m.metIndex == nil {
		m.index()
	}
	i, ok := m.metIndex[id]
	if !ok {
		return Metabolite{}, false
	}
	return m.Metabolites[i], true
}

func (m *Model) Reaction(id string) (Reaction, bool) {
	if m.rxnIndex == nil {
		m.index()
	}
	i, ok := m.rxnIndex[id]
	if !ok {
		return Reaction{}, false
	}
	return m.Reactions[i], true
}

// Species returns the reaction's metabolite IDs in sorted order.
func (r Reaction) Species() []string {
	out := make([]string, 0, len(r.Reactants)+len(r.Products))
	for id := range r.Reactants {
		out = append(out, id)
	}
	for id := range r.Products {
		if _, dup := r.Reactants[id]; !dup {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// IsBoundary reports whether the reaction has a single species and one empty
// side (exchange, sink or demand).
func (r Reaction) IsBoundary() bool {
	return len(r.Reactants)+len(r.Products) == 1
}

// Equation renders the reaction in cobra's string form, e.g. "a + 2 b --> c".
func (r Reaction) Equation() string {
	arrow := "-->"
	if r.Reversible {
		arrow = "<=>"
	}
	lhs := formatSide(r.Reactants)
	rhs := formatSide(r.Products)
	switch {
	case lhs == "" && rhs == "":
		return arrow
	case lhs == "":
		return arrow + " " + rhs
	case rhs == "":
		return lhs + " " + arrow
	}
	return lhs + " " + arrow + " " + rhs
}

func formatSide(side map[string]float64) string {
	ids := make([]string, 0, len(side))
	for id := range side {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		coef := side[id]
		if coef == 1 {
			parts = append(parts, id)
			continue
		}
		if coef == math.Trunc(coef) {
			parts = append(parts, fmt.Sprintf("%d %s", int64(coef), id))
		} else {
			parts = append(parts, fmt.Sprintf("%g %s", coef, id))
		}
	}
	return strings.Join(parts, " + ")
}

// Exchanges returns boundary reactions in the external compartment, in model order.
func (m *Model) Exchanges() []Reaction {
	out := make([]Reaction, 0)
	for _, rxn := range m.Reactions {
		if m.IsExchange(rxn) {
			out = append(out, rxn)
		}
	}
	return out
}

func (m *Model) IsExchange(rxn Reaction) bool {
	if !rxn.IsBoundary() || m.ExternalCompartment == "" {
		return false
	}
	for _, id := range rxn.Species() {
		met, ok := m.Metabolite(id)
		if !ok || met.Compartment != m.ExternalCompartment {
			return false
		}
	}
	return true
}

// ExchangeMarker returns the compartment marker of the first exchange
// metabolite (e.g. "_e", "_e0", "[e]"). The last pattern match wins.
func ExchangeMarker(m *Model) (string, error) {
	exchanges := m.Exchanges()
	if len(exchanges) == 0 {
		return "", fmt.Errorf("model %s has no exchange reactions", m.ID)
	}
	species := exchanges[0].Species()
	if len(species) == 0 {
		return "", fmt.Errorf("exchange %s of model %s has no metabolites", exchanges[0].ID, m.ID)
	}
	matches := exchangeMarkerPattern.FindAllString(species[0], -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("no compartment marker in metabolite %q of model %s", species[0], m.ID)
	}
	return matches[len(matches)-1], nil
}

// detectExternalCompartment picks the compartment touched by the most
// boundary reactions; ties resolve to the lexically smallest ID.
func detectExternalCompartment(m *Model) string {
	counts := make(map[string]int)
	for _, rxn := range m.Reactions {
		if !rxn.IsBoundary() {
			continue
		}
		for _, id := range rxn.Species() {
			if met, ok := m.Metabolite(id); ok && met.Compartment != "" {
				counts[met.Compartment]++
			}
		}
	}
	best := ""
	for comp, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && comp < best) {
			best = comp
		}
	}
	return best
}
