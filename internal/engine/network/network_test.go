package network

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"msindex/internal/engine/sbml"
	"msindex/internal/engine/sbml/sbmltest"
)

func loadFixture(t *testing.T, m sbmltest.Model) *sbml.Model {
	t.Helper()
	model, err := sbml.Read(strings.NewReader(m.XML()), m.ID+".xml")
	if err != nil {
		t.Fatalf("read fixture %s: %v", m.ID, err)
	}
	return model
}

func TestBuild_EncodesNodesAndPool(t *testing.T) {
	a := loadFixture(t, sbmltest.Acceptor("orgA"))
	g, names := Build([]*sbml.Model{a})

	// EX_glc_e is reaction 0 of member 1.
	exp, ok := g.Node("orgA Org1EX0")
	if !ok || exp.Kind != KindExport || exp.Reaction != "EX_glc_e" {
		t.Fatalf("expected export node for EX_glc_e, got %+v", exp)
	}
	if !g.HasEdge("orgA glc_e", "orgA Org1EX0") || !g.HasEdge("orgA Org1EX0", "Pool glc_e") {
		t.Fatal("expected export to link organism metabolite to pool")
	}
	if !g.HasEdge("Pool glc_e", "orgA Org1ERR0") || !g.HasEdge("orgA Org1ERR0", "orgA glc_e") {
		t.Fatal("expected import to link pool to organism metabolite")
	}

	r2, ok := g.Node("orgA Org1I5")
	if !ok || r2.Reaction != "R2" || !r2.IsInternal() {
		t.Fatalf("expected internal node for R2, got %+v", r2)
	}
	if _, ok := g.Node("orgA Org1R5"); ok {
		t.Fatal("irreversible R2 must not get a reverse node")
	}
	preds := g.Predecessors("orgA Org1I5")
	if !reflect.DeepEqual(preds, []string{"orgA x_c", "orgA y_c"}) {
		t.Fatalf("unexpected substrates of R2: %v", preds)
	}

	if names["orgA Org1I5"] != "R2" || names["orgA Org1ERR0"] != "EX_glc_e" {
		t.Fatalf("unexpected name map entries: %v", names)
	}
	decoded := names.Decode([]string{"orgA Org1I5", "unknown"})
	if !reflect.DeepEqual(decoded, []string{"R2", "unknown"}) {
		t.Fatalf("unexpected decode: %v", decoded)
	}
}

func TestBuild_ReversibleGetsBothDirections(t *testing.T) {
	c := loadFixture(t, sbmltest.Bystander("orgC"))
	g, _ := Build([]*sbml.Model{c})
	fwd, okF := g.Node("orgC Org1I3")
	rev, okR := g.Node("orgC Org1R3")
	if !okF || !okR {
		t.Fatal("expected forward and reverse nodes for reversible R6")
	}
	if fwd.Kind != KindInternal || rev.Kind != KindInternalReverse {
		t.Fatalf("unexpected kinds %v %v", fwd.Kind, rev.Kind)
	}
	if !g.HasEdge("orgC w_c", "orgC Org1R3") || !g.HasEdge("orgC Org1R3", "orgC q_c") {
		t.Fatal("expected reverse node to swap substrates and products")
	}
}

func TestForwardPass_SingleAndCommunity(t *testing.T) {
	a := loadFixture(t, sbmltest.Acceptor("orgA"))
	b := loadFixture(t, sbmltest.Donor("orgB"))

	alone, _ := Build([]*sbml.Model{a})
	res, err := ForwardPass(context.Background(), alone, alone.SeedNodes([]string{"glc_e"}))
	if err != nil {
		t.Fatalf("forward pass: %v", err)
	}
	if !res.IsVisited("orgA Org1I1") || !res.IsVisited("orgA Org1I2") {
		t.Fatal("expected GLCt and R1 to fire from glucose")
	}
	if res.IsVisited("orgA Org1I4") || res.IsVisited("orgA Org1I5") {
		t.Fatal("expected Yt and R2 to stay stuck without a donor")
	}
	if res.Visited["orgA Org1I1"] != 1 || res.Visited["orgA Org1I2"] != 2 {
		t.Fatalf("expected GLCt in round 1 and R1 in round 2, got %d and %d",
			res.Visited["orgA Org1I1"], res.Visited["orgA Org1I2"])
	}

	pair, _ := Build([]*sbml.Model{a, b})
	res, err = ForwardPass(context.Background(), pair, pair.SeedNodes([]string{"glc_e"}))
	if err != nil {
		t.Fatalf("forward pass: %v", err)
	}
	if !res.IsVisited("orgA Org1I4") || !res.IsVisited("orgA Org1I5") {
		t.Fatal("expected donor y_e to relieve Yt and R2")
	}
	scope := res.OrganismScope(pair, "orgA")
	if !reflect.DeepEqual(scope, []string{"glc_c", "glc_e", "x_c", "y_c", "y_e", "z_c"}) {
		t.Fatalf("unexpected scope: %v", scope)
	}
}

func TestForwardPass_CancelledContext(t *testing.T) {
	a := loadFixture(t, sbmltest.Acceptor("orgA"))
	g, _ := Build([]*sbml.Model{a})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ForwardPass(ctx, g, g.SeedNodes([]string{"glc_e"})); err == nil {
		t.Fatal("expected cancellation error")
	}
	if _, err := ForwardPass(context.Background(), nil, nil); err != ErrGraphNil {
		t.Fatalf("expected ErrGraphNil, got %v", err)
	}
}

func TestNeighborhood(t *testing.T) {
	a := loadFixture(t, sbmltest.Acceptor("orgA"))
	g, _ := Build([]*sbml.Model{a})
	sub := g.Neighborhood([]string{"orgA Org1I5", "missing"})
	if sub.NodeCount() != 4 {
		t.Fatalf("expected R2 plus 3 metabolites, got %d nodes", sub.NodeCount())
	}
	if sub.EdgeCount() != 3 {
		t.Fatalf("expected 3 edges, got %d", sub.EdgeCount())
	}
}

func TestCombinations(t *testing.T) {
	got := Combinations(4, 2)
	want := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := Combinations(3, 1); !reflect.DeepEqual(got, [][]int{{0}, {1}, {2}}) {
		t.Fatalf("unexpected singles: %v", got)
	}
	if Combinations(2, 3) != nil {
		t.Fatal("expected nil for k > n")
	}
	anchored := AnchorCombinations(4, 2, 0)
	if !reflect.DeepEqual(anchored, [][]int{{0, 1}, {0, 2}, {0, 3}}) {
		t.Fatalf("unexpected anchored combinations: %v", anchored)
	}
}
