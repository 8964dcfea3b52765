package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msindex/internal/core/config"
	"msindex/internal/core/errors"
	"msindex/internal/core/ports"
	"msindex/internal/data/history"
	"msindex/internal/engine/msi"
	"msindex/internal/engine/sbml/sbmltest"
	"msindex/internal/output"
)

type fixture struct {
	app     *App
	root    string
	results string
	seeds   string
}

func newFixture(t *testing.T, withBystander bool) fixture {
	t.Helper()
	root := t.TempDir()
	models := filepath.Join(root, "models")
	results := filepath.Join(root, "results")
	require.NoError(t, os.MkdirAll(models, 0o755))
	sbmltest.WriteCommunity(t, models, withBystander)
	seeds := sbmltest.WriteSeeds(t, root, "glc.txt", "glc_e")

	cfg := config.DefaultConfig()
	cfg.DB.Enabled = false
	cfg.Analysis.Workers = 2
	paths := config.ResolvedPaths{
		ProjectRoot: root,
		ModelsDir:   models,
		ResultsDir:  results,
		StateDir:    filepath.Join(root, "state"),
		SeedFile:    seeds,
	}
	return fixture{app: New(cfg, paths), root: root, results: results, seeds: seeds}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPairwise_WritesReports(t *testing.T) {
	f := newFixture(t, false)
	svc := f.app.AnalysisService()

	res, err := svc.Pairwise(context.Background(), ports.PairwiseRequest{})
	require.NoError(t, err)
	assert.Equal(t, "glc", res.Seed)
	require.Len(t, res.Scores, 2)
	assert.Empty(t, res.RunID)

	msiPath := filepath.Join(f.results, "MSI_glc.csv")
	assert.Equal(t, []string{msiPath, filepath.Join(f.results, "relieved_rxns_glc_w_excrxns.tsv")}, res.Written)
	assert.Equal(t, "organism,in_the_presence,msi_value\norgA,orgB,1\norgB,orgA,0\n", readFile(t, msiPath))

	tsv := readFile(t, res.Written[1])
	assert.True(t, strings.HasPrefix(tsv, "acceptor\tdonor\trelieved reactions\norgA\torgB\tR2\tYt\t\n"))
}

func TestPairwise_RecordsHistory(t *testing.T) {
	f := newFixture(t, false)
	store, err := history.Open(filepath.Join(f.root, "state", "history.db"), time.Second)
	require.NoError(t, err)
	adapter := history.NewAdapter(store)
	f.app.SetHistoryStore(adapter)
	t.Cleanup(func() { _ = f.app.Close() })

	svc := f.app.AnalysisService()
	res, err := svc.Pairwise(context.Background(), ports.PairwiseRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	run, err := adapter.LoadRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, history.KindPairwise, run.Kind)
	assert.Equal(t, []string{"orgA", "orgB"}, run.Models)
	require.Len(t, run.Values, 2)

	skipped, err := svc.Pairwise(context.Background(), ports.PairwiseRequest{NoHistory: true})
	require.NoError(t, err)
	assert.Empty(t, skipped.RunID)

	runs, err := adapter.ListRuns(history.KindPairwise, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPairwise_RequiresSeedFile(t *testing.T) {
	f := newFixture(t, false)
	f.app.Paths.SeedFile = ""

	_, err := f.app.AnalysisService().Pairwise(context.Background(), ports.PairwiseRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestPairwise_CancelledContext(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.app.AnalysisService().Pairwise(ctx, ports.PairwiseRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStats_WritesOrganismStats(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.app.AnalysisService().Stats(context.Background(), ports.SeedRequest{SeedFile: f.seeds})
	require.NoError(t, err)
	require.Len(t, res.Stats, 2)
	assert.Equal(t, "orgA", res.Stats[0].Organism)
	assert.Equal(t, 2, res.Stats[0].Stuck)
	assert.Len(t, res.Written, 4)

	stats := readFile(t, filepath.Join(f.results, "organism_stats_glc.csv"))
	assert.Contains(t, stats, "orgA,2,3\n")
	assert.FileExists(t, filepath.Join(f.results, "glc_stuckrxns.csv"))
}

func TestHigherOrder_IndividualClusters(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.app.AnalysisService().HigherOrder(context.Background(), ports.HigherOrderRequest{
		Clusters: "individual_clusters",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Result)
	assert.Len(t, res.Result.Clusters, 3)

	dir := filepath.Join(f.results, "clusterKO_individual_clusters_glc")
	assert.FileExists(t, filepath.Join(dir, "community_unperturbed.csv"))
	assert.Contains(t, res.Written, filepath.Join(dir, "higher_order_msi.csv"))
}

func TestHigherOrder_RequiresClusters(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.app.AnalysisService().HigherOrder(context.Background(), ports.HigherOrderRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestRoles_FromRelievedReport(t *testing.T) {
	f := newFixture(t, false)
	svc := f.app.AnalysisService()
	pw, err := svc.Pairwise(context.Background(), ports.PairwiseRequest{NoHistory: true})
	require.NoError(t, err)
	relieved := pw.Written[1]

	acceptors, err := svc.Acceptors(context.Background(), ports.RelievedRequest{Relieved: relieved})
	require.NoError(t, err)
	assert.Equal(t, []string{"orgA"}, acceptors.Roles["R2"])
	assert.Equal(t, []string{filepath.Join(f.results, "acceptors_of_relieved_rxns_glc_w_excrxns.csv")}, acceptors.Written)

	donors, err := svc.Donors(context.Background(), ports.RelievedRequest{Relieved: relieved})
	require.NoError(t, err)
	assert.Equal(t, []string{"orgB"}, donors.Roles["Yt"])

	_, err = svc.Acceptors(context.Background(), ports.RelievedRequest{Relieved: filepath.Join(f.root, "missing.tsv")})
	assert.Error(t, err)
}

func TestExchange_WritesRefinedReports(t *testing.T) {
	f := newFixture(t, false)
	svc := f.app.AnalysisService()
	pw, err := svc.Pairwise(context.Background(), ports.PairwiseRequest{NoHistory: true})
	require.NoError(t, err)

	res, err := svc.Exchange(context.Background(), ports.ExchangeRequest{Relieved: pw.Written[1]})
	require.NoError(t, err)
	require.Len(t, res.Written, 3)
	assert.True(t, strings.HasSuffix(res.Written[2], "_refined_exc_mets_stats.svg"))
	assert.Contains(t, readFile(t, res.Written[2]), "<svg")
}

func TestMedium_DefaultAndDiagnostics(t *testing.T) {
	f := newFixture(t, false)
	out := filepath.Join(f.root, "default_medium.txt")

	res, err := f.app.AnalysisService().Medium(context.Background(), ports.MediumRequest{Out: out})
	require.NoError(t, err)
	assert.Contains(t, res.Exchanges, "EX_glc_e")
	assert.Contains(t, res.Written, out)
	assert.Contains(t, res.Written, filepath.Join(f.results, "glc_mets_not_produced.csv"))
	assert.Nil(t, res.Missing)

	f.app.Paths.SeedFile = ""
	res, err = f.app.AnalysisService().Medium(context.Background(), ports.MediumRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.NotEmpty(t, res.Exchanges)
}

func TestSubgraph_HighlightsRelievedReactions(t *testing.T) {
	f := newFixture(t, false)
	out := filepath.Join(f.root, "graphs", "pair")

	res, err := f.app.AnalysisService().Subgraph(context.Background(), ports.SubgraphRequest{
		Acceptor: "orgA",
		Donor:    "orgB",
		Out:      out,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"orgA Org1I4", "orgA Org1I5"}, res.Highlighted)
	assert.Positive(t, res.Nodes)
	assert.Equal(t, []string{out + "_namemap.csv", out + ".dot", out + ".html", out + ".mmd"}, res.Written)
	assert.Contains(t, readFile(t, out+"_namemap.csv"), "R2")
}

func TestSubgraph_HighlightsFromRelievedReport(t *testing.T) {
	f := newFixture(t, false)
	report := filepath.Join(f.root, "relieved.tsv")
	require.NoError(t, os.WriteFile(report, []byte(output.RelievedTSV([]msi.Relief{{
		Pair:      msi.Pair{Acceptor: "orgA", Donor: "orgB"},
		Reactions: []msi.ReactionDetail{{ID: "R2", Name: "Z synthesis", Equation: "x_c + y_c --> z_c"}},
	}})), 0o644))
	out := filepath.Join(f.root, "graphs", "pair")
	svc := f.app.AnalysisService()

	res, err := svc.Subgraph(context.Background(), ports.SubgraphRequest{
		Acceptor: "orgA",
		Donor:    "orgB",
		Out:      out,
		Relieved: report,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"orgA Org1I5"}, res.Highlighted)

	names := readFile(t, out+"_namemap.csv")
	assert.Contains(t, names, "orgA Org1I2")
	assert.Contains(t, names, "R1")

	_, err = svc.Subgraph(context.Background(), ports.SubgraphRequest{
		Acceptor: "orgB",
		Donor:    "orgA",
		Relieved: report,
	})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestSubgraph_RejectsBadPairs(t *testing.T) {
	f := newFixture(t, false)
	svc := f.app.AnalysisService()

	_, err := svc.Subgraph(context.Background(), ports.SubgraphRequest{Acceptor: "orgA", Donor: "orgA"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = svc.Subgraph(context.Background(), ports.SubgraphRequest{Acceptor: "orgA", Donor: "orgZ"})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, false)
	status := NewHealthService(f.app).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok (2 entries)", status.Components["models"])
	assert.Equal(t, "disabled", status.Components["history"])

	f.app.Config.DB.Enabled = true
	status = NewHealthService(f.app).Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
}
