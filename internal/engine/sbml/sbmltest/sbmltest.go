// Package sbmltest builds small SBML documents for tests.
package sbmltest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Rxn describes a reaction. Metabolite IDs ending in _e are placed in the
// extracellular compartment "e", everything else in "c".
type Rxn struct {
	ID         string
	Name       string
	Reactants  map[string]float64
	Products   map[string]float64
	Reversible bool
}

type Model struct {
	ID        string
	Reactions []Rxn
}

// XML renders the model as SBML level 3 with fbc bounds.
func (m Model) XML() string {
	species := make(map[string]bool)
	for _, r := range m.Reactions {
		for id := range r.Reactants {
			species[id] = true
		}
		for id := range r.Products {
			species[id] = true
		}
	}
	ids := make([]string, 0, len(species))
	for id := range species {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<sbml xmlns="http://www.sbml.org/sbml/level3/version1/core" xmlns:fbc="http://www.sbml.org/sbml/level3/version1/fbc/version2" level="3" version="1" fbc:required="false">` + "\n")
	fmt.Fprintf(&b, "  <model id=%q name=%q fbc:strict=\"true\">\n", m.ID, m.ID)
	b.WriteString("    <listOfParameters>\n")
	b.WriteString(`      <parameter id="cobra_default_lb" value="-1000" constant="true"/>` + "\n")
	b.WriteString(`      <parameter id="cobra_default_ub" value="1000" constant="true"/>` + "\n")
	b.WriteString(`      <parameter id="cobra_0_bound" value="0" constant="true"/>` + "\n")
	b.WriteString("    </listOfParameters>\n")
	b.WriteString("    <listOfCompartments>\n")
	b.WriteString(`      <compartment id="c" name="cytosol" constant="true"/>` + "\n")
	b.WriteString(`      <compartment id="e" name="extracellular" constant="true"/>` + "\n")
	b.WriteString("    </listOfCompartments>\n")
	b.WriteString("    <listOfSpecies>\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "      <species id=\"M_%s\" name=%q compartment=%q hasOnlySubstanceUnits=\"false\" boundaryCondition=\"false\" constant=\"false\"/>\n",
			id, id, compartment(id))
	}
	b.WriteString("    </listOfSpecies>\n")
	b.WriteString("    <listOfReactions>\n")
	for _, r := range m.Reactions {
		lb := "cobra_0_bound"
		if r.Reversible {
			lb = "cobra_default_lb"
		}
		name := r.Name
		if name == "" {
			name = r.ID
		}
		fmt.Fprintf(&b, "      <reaction id=\"R_%s\" name=%q reversible=\"%t\" fast=\"false\" fbc:lowerFluxBound=%q fbc:upperFluxBound=\"cobra_default_ub\">\n",
			r.ID, name, r.Reversible, lb)
		writeRefs(&b, "listOfReactants", r.Reactants)
		writeRefs(&b, "listOfProducts", r.Products)
		b.WriteString("      </reaction>\n")
	}
	b.WriteString("    </listOfReactions>\n")
	b.WriteString("  </model>\n</sbml>\n")
	return b.String()
}

func writeRefs(b *strings.Builder, tag string, refs map[string]float64) {
	if len(refs) == 0 {
		return
	}
	ids := make([]string, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(b, "        <%s>\n", tag)
	for _, id := range ids {
		fmt.Fprintf(b, "          <speciesReference species=\"M_%s\" stoichiometry=\"%g\" constant=\"true\"/>\n", id, refs[id])
	}
	fmt.Fprintf(b, "        </%s>\n", tag)
}

func compartment(id string) string {
	if strings.HasSuffix(id, "_e") {
		return "e"
	}
	return "c"
}

// Write stores the model as <dir>/<file> and returns the path.
func Write(t testing.TB, dir, file string, m Model) string {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(m.XML()), 0o644); err != nil {
		t.Fatalf("write sbml fixture %s: %v", path, err)
	}
	return path
}

func one(ids ...string) map[string]float64 {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = 1
	}
	return out
}

// Acceptor is a model that needs y_e from a partner to run R2.
//
//	EX_glc_e: glc_e <=>      GLCt: glc_e --> glc_c     R1: glc_c --> x_c
//	EX_y_e:   y_e <=>        Yt:   y_e --> y_c         R2: x_c + y_c --> z_c
func Acceptor(id string) Model {
	return Model{ID: id, Reactions: []Rxn{
		{ID: "EX_glc_e", Name: "Glucose exchange", Reactants: one("glc_e"), Reversible: true},
		{ID: "GLCt", Name: "Glucose transport", Reactants: one("glc_e"), Products: one("glc_c")},
		{ID: "R1", Name: "Glucose to X", Reactants: one("glc_c"), Products: one("x_c")},
		{ID: "EX_y_e", Name: "Y exchange", Reactants: one("y_e"), Reversible: true},
		{ID: "Yt", Name: "Y transport", Reactants: one("y_e"), Products: one("y_c")},
		{ID: "R2", Name: "Z synthesis", Reactants: one("x_c", "y_c"), Products: one("z_c")},
	}}
}

// Donor is a model that makes y_c from glucose and secretes it.
//
//	EX_glc_e: glc_e <=>      GLCt: glc_e --> glc_c     R3: glc_c --> y_c
//	Ysec:     y_c --> y_e    EX_y_e: y_e <=>
func Donor(id string) Model {
	return Model{ID: id, Reactions: []Rxn{
		{ID: "EX_glc_e", Name: "Glucose exchange", Reactants: one("glc_e"), Reversible: true},
		{ID: "GLCt", Name: "Glucose transport", Reactants: one("glc_e"), Products: one("glc_c")},
		{ID: "R3", Name: "Y synthesis", Reactants: one("glc_c"), Products: one("y_c")},
		{ID: "Ysec", Name: "Y secretion", Reactants: one("y_c"), Products: one("y_e")},
		{ID: "EX_y_e", Name: "Y exchange", Reactants: one("y_e"), Reversible: true},
	}}
}

// Bystander neither needs nor provides anything beyond glucose.
func Bystander(id string) Model {
	return Model{ID: id, Reactions: []Rxn{
		{ID: "EX_glc_e", Name: "Glucose exchange", Reactants: one("glc_e"), Reversible: true},
		{ID: "GLCt", Name: "Glucose transport", Reactants: one("glc_e"), Products: one("glc_c")},
		{ID: "R5", Name: "Glucose to W", Reactants: one("glc_c"), Products: one("w_c")},
		{ID: "R6", Name: "Q to W", Reactants: one("q_c"), Products: one("w_c"), Reversible: true},
	}}
}

// WriteCommunity writes Acceptor, Donor and (optionally) Bystander models
// into dir as a.xml, b.xml and c.xml with IDs orgA, orgB and orgC.
func WriteCommunity(t testing.TB, dir string, withBystander bool) []string {
	t.Helper()
	paths := []string{
		Write(t, dir, "a.xml", Acceptor("orgA")),
		Write(t, dir, "b.xml", Donor("orgB")),
	}
	if withBystander {
		paths = append(paths, Write(t, dir, "c.xml", Bystander("orgC")))
	}
	return paths
}

// WriteSeeds writes one seed metabolite per line.
func WriteSeeds(t testing.TB, dir, file string, seeds ...string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(strings.Join(seeds, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write seed file %s: %v", path, err)
	}
	return path
}
