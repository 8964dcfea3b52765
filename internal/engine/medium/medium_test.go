package medium

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/engine/sbml"
	"msindex/internal/engine/sbml/sbmltest"
)

func TestReadSeeds_StopsAtBlankLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeds.txt")
	if err := os.WriteFile(path, []byte("glc_e\n  o2_e \n\nnotes after blank\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSeeds(path)
	if err != nil {
		t.Fatalf("read seeds: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"glc_e", "o2_e"}) {
		t.Fatalf("unexpected seeds %v", got)
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("\nglc_e\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSeeds(empty); !domainerrors.IsCode(err, domainerrors.CodeValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ReadSeeds(filepath.Join(dir, "missing.txt")); !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExpandSeeds(t *testing.T) {
	tests := []struct {
		marker string
		want   []string
	}{
		{"_e", []string{"glc_e", "glc_c", "o2_e", "o2_c"}},
		{"_e0", []string{"glc_e0", "glc_c0", "o2_e0", "o2_c0"}},
		{"[e]", []string{"glc[e]", "glc[c]", "o2[e]", "o2[c]"}},
	}
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			got := ExpandSeeds([]string{"glc", "o2"}, tt.marker)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDefaultMediumAndSeedFile(t *testing.T) {
	dir := t.TempDir()
	locked := sbmltest.Model{ID: "locked", Reactions: []sbmltest.Rxn{
		{ID: "EX_nh4_e", Reactants: map[string]float64{"nh4_e": 1}},
		{ID: "EX_o2_e", Reactants: map[string]float64{"o2_e": 1}, Reversible: true},
		{ID: "NH4t", Reactants: map[string]float64{"nh4_e": 1}, Products: map[string]float64{"nh4_c": 1}},
	}}
	paths := []string{
		sbmltest.Write(t, dir, "a.xml", sbmltest.Acceptor("orgA")),
		sbmltest.Write(t, dir, "z.xml", locked),
	}
	models, err := sbml.LoadAll(context.Background(), paths, 1)
	if err != nil {
		t.Fatal(err)
	}

	got := DefaultMedium(models)
	want := []string{"EX_glc_e", "EX_o2_e", "EX_y_e"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	out := filepath.Join(dir, "out", "medium.txt")
	if err := WriteSeedFile(out, []string{"EX_glc_e"}); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "glc_c\nglc_e\n" {
		t.Fatalf("unexpected seed file %q", data)
	}
}

func TestMissingSeedsAndMetsNotProduced(t *testing.T) {
	a, err := sbml.Read(strings.NewReader(sbmltest.Acceptor("orgA").XML()), "a.xml")
	if err != nil {
		t.Fatal(err)
	}
	scope := map[string][]string{"orgA": {"glc_c", "glc_e", "x_c"}}

	missing := MissingSeeds([]*sbml.Model{a}, []string{"glc_c", "z_c", "y_c"}, scope)
	if !reflect.DeepEqual(missing, []string{"orgA y_c", "orgA z_c"}) {
		t.Fatalf("unexpected missing seeds %v", missing)
	}
	if got := MissingSeeds([]*sbml.Model{a}, []string{"z_c"}, nil); len(got) != 0 {
		t.Fatalf("expected no result without scope, got %v", got)
	}

	notProduced := MetsNotProduced([]*sbml.Model{a}, scope)
	if !reflect.DeepEqual(notProduced["orgA"], []string{"y_c", "z_c"}) {
		t.Fatalf("unexpected metabolites not produced %v", notProduced)
	}
}
