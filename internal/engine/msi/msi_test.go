package msi_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/engine/msi"
	"msindex/internal/engine/network"
	"msindex/internal/engine/sbml"
	"msindex/internal/engine/sbml/sbmltest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCommunity(t *testing.T, withBystander bool) []*sbml.Model {
	t.Helper()
	paths := sbmltest.WriteCommunity(t, t.TempDir(), withBystander)
	models, err := sbml.LoadAll(context.Background(), paths, 2)
	require.NoError(t, err)
	return models
}

func TestTransportReactions(t *testing.T) {
	models := loadCommunity(t, true)
	got, err := msi.TransportReactions(models)
	require.NoError(t, err)
	assert.Equal(t, []string{"EX_glc_e", "EX_y_e", "GLCt", "Ysec", "Yt"}, got)

	_, err = msi.TransportReactions(nil)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestTransportReactions_MixedMarkers(t *testing.T) {
	dir := t.TempDir()
	mixed := sbmltest.Model{ID: "orgE", Reactions: []sbmltest.Rxn{
		{ID: "Ut", Reactants: map[string]float64{"u_e0": 1}, Products: map[string]float64{"u_c0": 1}},
		{ID: "R7", Reactants: map[string]float64{"u_c0": 1}, Products: map[string]float64{"v_c0": 1}},
	}}
	paths := []string{
		sbmltest.Write(t, dir, "a.xml", sbmltest.Acceptor("orgA")),
		sbmltest.Write(t, dir, "e.xml", mixed),
	}
	models, err := sbml.LoadAll(context.Background(), paths, 1)
	require.NoError(t, err)

	got, err := msi.TransportReactions(models)
	require.NoError(t, err)
	assert.Equal(t, []string{"EX_glc_e", "EX_y_e", "GLCt", "Ut", "Yt"}, got)
}

func TestEvaluate_SplitsResultsPerMember(t *testing.T) {
	models := loadCommunity(t, false)
	a := msi.NewAnalyzer([]string{"glc_e"}, 1)

	alone, err := a.Evaluate(context.Background(), models[:1])
	require.NoError(t, err)
	require.Len(t, alone, 1)
	assert.Equal(t, []string{"R2", "Yt"}, alone[0].Stuck)
	assert.Empty(t, alone[0].Partners)
	assert.Contains(t, alone[0].Visited, "GLCt")
	assert.NotContains(t, alone[0].Scope, "z_c")

	pair, err := a.Evaluate(context.Background(), models)
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Equal(t, "orgA", pair[0].Organism)
	assert.Equal(t, []string{"orgB"}, pair[0].Partners)
	assert.Empty(t, pair[0].Stuck)
	assert.Contains(t, pair[0].Scope, "z_c")

	_, err = a.Evaluate(context.Background(), nil)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestEvaluate_ReversibleFiresBothDirections(t *testing.T) {
	models := loadCommunity(t, true)
	a := msi.NewAnalyzer([]string{"glc_e"}, 1)
	res, err := a.Evaluate(context.Background(), models[2:])
	require.NoError(t, err)
	assert.Empty(t, res[0].Stuck)
	assert.Contains(t, res[0].Visited, "R6")
}

func TestEvaluate_ReversibleStuckWhenOneDirectionBlocked(t *testing.T) {
	models := loadCommunity(t, true)
	a := msi.NewAnalyzer([]string{"glc_e"}, 1)
	a.Traverser = msi.TraverserFunc(func(ctx context.Context, g *network.Graph, seeds []string) (*network.Result, error) {
		return &network.Result{Visited: map[string]int{"orgC Org1R3": 1}, Scope: map[string]int{}}, nil
	})
	res, err := a.Evaluate(context.Background(), models[2:])
	require.NoError(t, err)
	assert.Equal(t, []string{"GLCt", "R5", "R6"}, res[0].Stuck)
	assert.Equal(t, []string{"R6"}, res[0].Visited)
}

func TestEvaluate_UsesPluggedTraverser(t *testing.T) {
	models := loadCommunity(t, false)
	calls := 0
	a := msi.NewAnalyzer([]string{"glc_e"}, 1)
	a.Traverser = msi.TraverserFunc(func(ctx context.Context, g *network.Graph, seeds []string) (*network.Result, error) {
		calls++
		return &network.Result{Visited: map[string]int{}, Scope: map[string]int{}}, nil
	})
	res, err := a.Evaluate(context.Background(), models[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"GLCt", "R1", "R2", "Yt"}, res[0].Stuck)

	boom := errors.New("boom")
	a.Traverser = msi.TraverserFunc(func(context.Context, *network.Graph, []string) (*network.Result, error) {
		return nil, boom
	})
	_, err = a.Evaluate(context.Background(), models[:1])
	assert.ErrorIs(t, err, boom)
}

func TestStuckTable_PairsAndScores(t *testing.T) {
	models := loadCommunity(t, true)
	a := msi.NewAnalyzer([]string{"glc_e"}, 3)
	ctx := context.Background()

	single, err := a.StuckTable(ctx, models, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, single.Len())
	_, ok := single.Single("orgC")
	assert.True(t, ok)

	pair, err := a.StuckTable(ctx, models, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, pair.Len())
	assert.Equal(t, msi.Pair{Acceptor: "orgA", Donor: "orgB"}, pair.Pairs()[0])
	assert.Equal(t, "orgA_orgB", pair.Pairs()[0].Key())

	transport, err := msi.TransportReactions(models)
	require.NoError(t, err)
	scores := msi.PairwiseMSI(single, pair, transport)
	require.Len(t, scores, 6)

	byKey := make(map[string]msi.Score)
	for _, s := range scores {
		byKey[s.Pair.Key()] = s
	}
	assert.Equal(t, 1.0, byKey["orgA_orgB"].MSI)
	assert.Equal(t, 1, byKey["orgA_orgB"].StuckBefore)
	assert.Equal(t, 0, byKey["orgA_orgB"].StuckAfter)
	assert.Equal(t, 0.0, byKey["orgB_orgA"].MSI)
	assert.Equal(t, 0.0, byKey["orgA_orgC"].MSI)
	assert.Equal(t, 0.0, byKey["orgC_orgA"].MSI)

	relieved := msi.Relieved(models, single, pair)
	require.Len(t, relieved, 6)
	assert.Equal(t, "orgA_orgB", relieved[0].Pair.Key())
	assert.Equal(t, []string{"R2", "Yt"}, relieved[0].IDs())
	assert.Equal(t, "Z synthesis", relieved[0].Reactions[0].Name)
	assert.Equal(t, "x_c + y_c --> z_c", relieved[0].Reactions[0].Equation)
	assert.Empty(t, relieved[1].Reactions)

	assert.Empty(t, msi.PairwiseMSI(single, single, transport))
	assert.Empty(t, msi.Relieved(models, single, single))

	stats := msi.OrganismStats(single)
	assert.Equal(t, []msi.OrgStat{
		{Organism: "orgA", Stuck: 2, Visited: 3},
		{Organism: "orgB", Stuck: 0, Visited: 5},
		{Organism: "orgC", Stuck: 0, Visited: 4},
	}, stats)

	_, err = a.StuckTable(ctx, models, 3)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestStuckTable_Anchor(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		sbmltest.Write(t, dir, "0_anchor.xml", sbmltest.Acceptor("orgA")),
		sbmltest.Write(t, dir, "b.xml", sbmltest.Donor("orgB")),
		sbmltest.Write(t, dir, "c.xml", sbmltest.Bystander("orgC")),
	}
	models, err := sbml.LoadAll(context.Background(), paths, 1)
	require.NoError(t, err)

	a := msi.NewAnalyzer([]string{"glc_e"}, 2)
	pair, err := a.StuckTable(context.Background(), models, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, pair.Len())
	_, ok := pair.Get(msi.Pair{Acceptor: "orgB", Donor: "orgC"})
	assert.False(t, ok)

	a.Anchor = msi.AnchorNone
	pair, err = a.StuckTable(context.Background(), models, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, pair.Len())

	idx, err := msi.ResolveAnchor(models, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = msi.ResolveAnchor(models, "orgZ")
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestSupportIndex(t *testing.T) {
	tests := []struct {
		before, after int
		want          float64
	}{
		{0, 0, 0},
		{0, 3, 0},
		{4, 1, 0.75},
		{2, 2, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, msi.SupportIndex(tt.before, tt.after), 1e-9)
	}
}

func TestHigherOrder_IndividualClusters(t *testing.T) {
	models := loadCommunity(t, true)
	transport, err := msi.TransportReactions(models)
	require.NoError(t, err)

	clusters, err := msi.LoadClusters(msi.IndividualClusters, models)
	require.NoError(t, err)
	require.Len(t, clusters, 3)
	assert.Equal(t, msi.Cluster{Name: "1", Members: []string{"orgB"}}, clusters[1])

	a := msi.NewAnalyzer([]string{"glc_e", "glc_c"}, 1)
	res, err := a.HigherOrder(context.Background(), models, clusters, transport)
	require.NoError(t, err)

	assert.Equal(t, []msi.StuckCount{
		{Organism: "orgA", Stuck: 0},
		{Organism: "orgB", Stuck: 0},
		{Organism: "orgC", Stuck: 0},
	}, res.Unperturbed)

	rows := res.Rows()
	assert.Equal(t, []msi.MSIRow{
		{Organism: "Comm", InPresence: "clus_0#orgA", MSI: 0},
		{Organism: "clus_0#orgA", InPresence: "Comm", MSI: 1},
		{Organism: "Comm", InPresence: "clus_1#orgB", MSI: 1},
		{Organism: "clus_1#orgB", InPresence: "Comm", MSI: 0},
		{Organism: "Comm", InPresence: "clus_2#orgC", MSI: 0},
		{Organism: "clus_2#orgC", InPresence: "Comm", MSI: 0},
	}, rows)

	withoutB := res.Clusters[1].Without
	assert.Equal(t, []string{"orgA", "orgC"}, withoutB.Members)
	assert.Equal(t, []string{"orgB"}, withoutB.Removed)
	assert.Equal(t, []msi.ReliefCount{{Organism: "orgA", Unperturbed: 0, Perturbed: 1, Relieved: 1}}, withoutB.Counts)
	require.Len(t, withoutB.Relieved, 2)
	assert.Equal(t, []string{"R2", "Yt"}, withoutB.Relieved[0].IDs())
	assert.Empty(t, withoutB.Relieved[1].Reactions)

	assert.Empty(t, res.Clusters[2].Without.Relieved)
}

func TestHigherOrder_WholeCommunityCluster(t *testing.T) {
	models := loadCommunity(t, false)
	a := msi.NewAnalyzer([]string{"glc_e"}, 1)
	res, err := a.HigherOrder(context.Background(), models,
		[]msi.Cluster{{Name: "all", Members: []string{"orgA", "orgB"}}}, nil)
	require.NoError(t, err)
	require.Len(t, res.Clusters, 1)
	assert.Nil(t, res.Clusters[0].Only)
	assert.Empty(t, res.Clusters[0].Without.Members)
	assert.Equal(t, 0.0, res.Clusters[0].Without.MSI)
}

func TestReadClusters(t *testing.T) {
	models := loadCommunity(t, true)
	dir := t.TempDir()

	path := filepath.Join(dir, "clusters.csv")
	require.NoError(t, os.WriteFile(path, []byte("Cluster,m1,m2\n1,a.xml,c.xml\n2,b,\n"), 0o644))
	clusters, err := msi.ReadClusters(path, models)
	require.NoError(t, err)
	assert.Equal(t, []msi.Cluster{
		{Name: "1", Members: []string{"orgA", "orgC"}},
		{Name: "2", Members: []string{"orgB"}},
	}, clusters)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Cluster,m1\n1,zzz.xml\n"), 0o644))
	_, err = msi.ReadClusters(bad, models)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))

	noCol := filepath.Join(dir, "nocol.csv")
	require.NoError(t, os.WriteFile(noCol, []byte("Group,m1\n1,a.xml\n"), 0o644))
	_, err = msi.ReadClusters(noCol, models)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))

	_, err = msi.LoadClusters(filepath.Join(dir, "missing.csv"), models)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}
