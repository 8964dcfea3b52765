package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"msindex/internal/core/errors"
	"msindex/internal/core/ports"
	"msindex/internal/engine/exchange"
	"msindex/internal/engine/medium"
	"msindex/internal/engine/msi"
	"msindex/internal/engine/network"
	"msindex/internal/engine/sbml"
	"msindex/internal/output"
	"msindex/internal/shared/observability"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func observe(task string, start time.Time) {
	observability.AnalysisDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
}

func (s *analysisService) Pairwise(ctx context.Context, req ports.PairwiseRequest) (ports.PairwiseResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "Service.Pairwise")
	defer span.End()
	defer observe("pairwise", time.Now())

	sess, err := s.app.openSession(ctx, req.SeedRequest, s.app.config().Seeds.ExpandCompartments)
	if err != nil {
		return ports.PairwiseResult{}, err
	}
	if req.Anchor != "" {
		sess.analyzer.Anchor = req.Anchor
	}
	span.SetAttributes(attribute.Int("models", len(sess.models)), attribute.String("seed", sess.seedName))

	transport, err := msi.TransportReactions(sess.models)
	if err != nil {
		return ports.PairwiseResult{}, err
	}
	single, err := sess.analyzer.StuckTable(ctx, sess.models, 1)
	if err != nil {
		return ports.PairwiseResult{}, errors.AddContext(err, errors.CtxOperation, "single_organism")
	}
	pair, err := sess.analyzer.StuckTable(ctx, sess.models, 2)
	if err != nil {
		return ports.PairwiseResult{}, errors.AddContext(err, errors.CtxOperation, "pairwise")
	}

	res := ports.PairwiseResult{
		Seed:    sess.seedName,
		Scores:  msi.PairwiseMSI(single, pair, transport),
		Reliefs: msi.Relieved(sess.models, single, pair),
	}

	w := &writer{}
	w.write(sess.layout.MSI(), output.MSICSV(res.Scores))
	w.write(sess.layout.Relieved(), output.RelievedTSV(res.Reliefs))
	if w.err != nil {
		return ports.PairwiseResult{}, w.err
	}
	res.Written = w.written
	slog.Info("pairwise msi written", "path", sess.layout.MSI(), "pairs", len(res.Scores))

	if store := s.app.history; store != nil && !req.NoHistory {
		id, err := store.RecordPairwise(sess.seedName, sess.modelIDs(), res.Scores)
		if err != nil {
			slog.Warn("failed to record pairwise run", "error", err)
		} else {
			res.RunID = id
			observability.HistoryWritesTotal.WithLabelValues("pairwise").Inc()
		}
	}
	return res, nil
}

func (s *analysisService) HigherOrder(ctx context.Context, req ports.HigherOrderRequest) (ports.HigherOrderResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "Service.HigherOrder")
	defer span.End()
	defer observe("higher_order", time.Now())

	source := req.Clusters
	if source == "" {
		source = s.app.Paths.ClusterFile
	}
	if source == "" {
		return ports.HigherOrderResult{}, errors.New(errors.CodeValidationError,
			"no clusters given; pass --clusters or set clusters.file")
	}

	// Higher-order runs always seed both compartments.
	sess, err := s.app.openSession(ctx, req.SeedRequest, true)
	if err != nil {
		return ports.HigherOrderResult{}, err
	}
	span.SetAttributes(attribute.String("clusters", source), attribute.String("seed", sess.seedName))

	clusters, err := msi.LoadClusters(source, sess.models)
	if err != nil {
		return ports.HigherOrderResult{}, errors.AddContext(err, errors.CtxCluster, source)
	}
	transport, err := msi.TransportReactions(sess.models)
	if err != nil {
		return ports.HigherOrderResult{}, err
	}
	result, err := sess.analyzer.HigherOrder(ctx, sess.models, clusters, transport)
	if err != nil {
		return ports.HigherOrderResult{}, err
	}

	layout := sess.layout.ClusterLayout(source)
	w := &writer{}
	w.write(layout.Unperturbed(), output.StuckCountsCSV(result.Unperturbed))
	w.write(layout.MSI(), output.HigherOrderCSV(result.Rows()))
	for _, c := range result.Clusters {
		n := c.Cluster.Name
		w.write(layout.Without(n), output.StuckCountsCSV(c.Without.Stuck))
		if c.Without.MSI != 0 {
			w.write(layout.RelievedWithout(n), output.CommunityRelievedTSV(c.Without.Relieved))
			w.write(layout.SummaryWithout(n), output.KnockoutSummaryCSV(
				"Comm--clus"+n,
				c.Without.Removed,
				"num of rxns relieved in the below orgs in the presence of clust"+n,
				[]string{"org", "unpert", "clust_" + n + "KO", "rxns relieved"},
				c.Without.Counts,
			))
		}
		if c.Only == nil || c.Only.MSI == 0 {
			continue
		}
		w.write(layout.RelievedOnly(n), output.CommunityRelievedTSV(c.Only.Relieved))
		w.write(layout.SummaryOnly(n), output.KnockoutSummaryCSV(
			"clus"+n+"--Comm",
			c.Only.Removed,
			"num of rxns relieved in the below orgs in the presence of Comm",
			[]string{"org", "unpert", "commKO", "rxns relieved"},
			c.Only.Counts,
		))
	}
	if w.err != nil {
		return ports.HigherOrderResult{}, w.err
	}
	slog.Info("higher-order msi written", "dir", layout.Dir, "clusters", len(clusters))

	res := ports.HigherOrderResult{Seed: sess.seedName, Result: result, Written: w.written}
	if store := s.app.history; store != nil && !req.NoHistory {
		id, err := store.RecordHigherOrder(sess.seedName, sess.modelIDs(), result.Rows())
		if err != nil {
			slog.Warn("failed to record higher-order run", "error", err)
		} else {
			res.RunID = id
			observability.HistoryWritesTotal.WithLabelValues("higher_order").Inc()
		}
	}
	return res, nil
}

func (s *analysisService) Stats(ctx context.Context, req ports.SeedRequest) (ports.StatsResult, error) {
	defer observe("stats", time.Now())

	sess, err := s.app.openSession(ctx, req, s.app.config().Seeds.ExpandCompartments)
	if err != nil {
		return ports.StatsResult{}, err
	}
	single, err := sess.analyzer.StuckTable(ctx, sess.models, 1)
	if err != nil {
		return ports.StatsResult{}, err
	}

	stats := msi.OrganismStats(single)
	w := &writer{}
	w.write(sess.layout.OrganismStats(), output.OrganismStatsCSV(stats))
	w.write(sess.layout.StuckReactions(), output.ColumnCSV(output.TableColumns(single, func(r msi.OrgResult) []string { return r.Stuck })))
	w.write(sess.layout.Scope(), output.ColumnCSV(output.TableColumns(single, func(r msi.OrgResult) []string { return r.Scope })))
	w.write(sess.layout.VisitedReactions(), output.ColumnCSV(output.TableColumns(single, func(r msi.OrgResult) []string { return r.Visited })))
	if w.err != nil {
		return ports.StatsResult{}, w.err
	}
	return ports.StatsResult{Seed: sess.seedName, Stats: stats, Written: w.written}, nil
}

func (s *analysisService) Medium(ctx context.Context, req ports.MediumRequest) (ports.MediumResult, error) {
	defer observe("medium", time.Now())

	models, err := s.app.LoadModels(ctx)
	if err != nil {
		return ports.MediumResult{}, err
	}

	res := ports.MediumResult{Exchanges: medium.DefaultMedium(models)}
	if req.Out != "" {
		if err := medium.WriteSeedFile(req.Out, res.Exchanges); err != nil {
			return ports.MediumResult{}, errors.Wrap(err, errors.CodeInternal, "write default medium")
		}
		res.Written = append(res.Written, req.Out)
		slog.Info("default medium written", "path", req.Out, "exchanges", len(res.Exchanges))
	}

	essentialFile := req.EssentialFile
	if essentialFile == "" {
		essentialFile = s.app.Paths.EssentialFile
	}
	if _, err := s.app.seedFile(req.SeedRequest); err != nil {
		// Without a seed medium there is no scope to diagnose.
		return res, nil
	}

	sess, err := s.app.openSession(ctx, req.SeedRequest, s.app.config().Seeds.ExpandCompartments)
	if err != nil {
		return ports.MediumResult{}, err
	}
	single, err := sess.analyzer.StuckTable(ctx, sess.models, 1)
	if err != nil {
		return ports.MediumResult{}, err
	}
	scope := make(map[string][]string, len(single.Organisms))
	for _, org := range single.Organisms {
		if r, ok := single.Single(org); ok {
			scope[org] = r.Scope
		}
	}

	res.NotProduced = medium.MetsNotProduced(sess.models, scope)
	w := &writer{written: res.Written}
	w.write(sess.layout.NotProduced(), output.ColumnCSV(res.NotProduced))
	if essentialFile != "" {
		essential, err := medium.ReadSeeds(essentialFile)
		if err != nil {
			return ports.MediumResult{}, errors.AddContext(err, errors.CtxPath, essentialFile)
		}
		res.Missing = medium.MissingSeeds(sess.models, essential, scope)
		w.write(sess.layout.MissingEssential(), output.LinesText(res.Missing))
	}
	if w.err != nil {
		return ports.MediumResult{}, w.err
	}
	res.Written = w.written
	return res, nil
}

func (s *analysisService) Acceptors(ctx context.Context, req ports.RelievedRequest) (ports.RolesResult, error) {
	return s.roles(ctx, req, exchange.Acceptors, output.ExchangeLayout{Relieved: req.Relieved}.Acceptors())
}

func (s *analysisService) Donors(ctx context.Context, req ports.RelievedRequest) (ports.RolesResult, error) {
	return s.roles(ctx, req, exchange.Donors, output.ExchangeLayout{Relieved: req.Relieved}.Donors())
}

func (s *analysisService) roles(ctx context.Context, req ports.RelievedRequest, pick func([]exchange.Block) map[string][]string, path string) (ports.RolesResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.RolesResult{}, err
	}
	blocks, err := exchange.ReadRelieved(req.Relieved)
	if err != nil {
		return ports.RolesResult{}, errors.AddContext(err, errors.CtxPath, req.Relieved)
	}
	roles := pick(blocks)
	w := &writer{}
	w.write(path, output.ColumnCSV(roles))
	if w.err != nil {
		return ports.RolesResult{}, w.err
	}
	return ports.RolesResult{Roles: roles, Written: w.written}, nil
}

func (s *analysisService) Exchange(ctx context.Context, req ports.ExchangeRequest) (ports.ExchangeResult, error) {
	defer observe("exchange", time.Now())

	blocks, err := exchange.ReadRelieved(req.Relieved)
	if err != nil {
		return ports.ExchangeResult{}, errors.AddContext(err, errors.CtxPath, req.Relieved)
	}
	sess, err := s.app.openSession(ctx, req.SeedRequest, s.app.config().Seeds.ExpandCompartments)
	if err != nil {
		return ports.ExchangeResult{}, err
	}
	single, err := sess.analyzer.StuckTable(ctx, sess.models, 1)
	if err != nil {
		return ports.ExchangeResult{}, err
	}
	scope := make(map[string][]string, len(single.Organisms))
	for _, org := range single.Organisms {
		if r, ok := single.Single(org); ok {
			scope[org] = r.Scope
		}
	}

	refined := exchange.Refine(exchange.ExchangedMetabolites(blocks, sess.seeds), scope)
	counts := exchange.Frequency(refined)

	layout := output.ExchangeLayout{Relieved: req.Relieved}
	w := &writer{}
	w.write(layout.Refined(), output.RefinedCSV(refined))
	w.write(layout.Stats(), output.FrequencyCSV(counts))
	w.write(layout.Chart(), output.FrequencyChartSVG("Exchanged metabolites ("+sess.seedName+")", counts))
	if w.err != nil {
		return ports.ExchangeResult{}, w.err
	}
	return ports.ExchangeResult{Refined: refined, Frequency: counts, Written: w.written}, nil
}

func (s *analysisService) Subgraph(ctx context.Context, req ports.SubgraphRequest) (ports.SubgraphResult, error) {
	defer observe("subgraph", time.Now())

	if req.Acceptor == "" || req.Donor == "" || req.Acceptor == req.Donor {
		return ports.SubgraphResult{}, errors.New(errors.CodeValidationError, "subgraph needs two distinct organisms")
	}
	sess, err := s.app.openSession(ctx, req.SeedRequest, s.app.config().Seeds.ExpandCompartments)
	if err != nil {
		return ports.SubgraphResult{}, err
	}

	acceptor, donor := -1, -1
	for i, m := range sess.models {
		switch m.ID {
		case req.Acceptor:
			acceptor = i
		case req.Donor:
			donor = i
		}
	}
	if acceptor < 0 || donor < 0 {
		return ports.SubgraphResult{}, errors.Newf(errors.CodeNotFound, "organisms %q and %q must both be loaded", req.Acceptor, req.Donor)
	}

	members := []*sbml.Model{sess.models[acceptor], sess.models[donor]}
	g, _ := network.Build(members)
	relieved, err := s.relievedFor(ctx, sess, req, members, g)
	if err != nil {
		return ports.SubgraphResult{}, err
	}

	highlight := make([]string, 0)
	for _, n := range g.ReactionNodes(req.Acceptor) {
		if relieved[n.Name] {
			highlight = append(highlight, n.Name)
		}
	}
	sub := g.Neighborhood(highlight)

	// Every acceptor reaction node is listed so report IDs can be looked up
	// even when they are not drawn.
	names := make(network.NameMap)
	for _, n := range g.ReactionNodes(req.Acceptor) {
		names[n.Name] = n.Reaction
	}
	for _, n := range sub.Nodes() {
		if n.IsReaction() {
			names[n.Name] = n.Reaction
		}
	}

	out := req.Out
	if out == "" {
		out = filepath.Join(s.app.Paths.ResultsDir, fmt.Sprintf("%s_%s_%s", req.Acceptor, req.Donor, sess.seedName))
	}
	layout := output.GraphLayout{Out: out}
	dot, err := output.NewDOTGenerator(sub).Generate(highlight)
	if err != nil {
		return ports.SubgraphResult{}, err
	}
	page, err := output.NewHTMLGenerator(sub).Generate(strings.Join([]string{req.Acceptor, req.Donor}, " | "), highlight)
	if err != nil {
		return ports.SubgraphResult{}, err
	}
	mermaid, err := output.NewMermaidGenerator(sub).Generate(highlight)
	if err != nil {
		return ports.SubgraphResult{}, err
	}

	w := &writer{}
	w.write(layout.NameMap(), output.NameMapCSV(names))
	w.write(layout.DOT(), dot)
	w.write(layout.HTML(), page)
	w.write(layout.Mermaid(), mermaid)
	if w.err != nil {
		return ports.SubgraphResult{}, w.err
	}
	return ports.SubgraphResult{
		Nodes:       sub.NodeCount(),
		Edges:       sub.EdgeCount(),
		Highlighted: highlight,
		Written:     w.written,
	}, nil
}

// relievedFor returns the acceptor reaction nodes of g to highlight. With a
// relieved report the pair's listed reaction IDs are used; otherwise nodes
// stuck with the acceptor alone that fire in the pair graph are.
func (s *analysisService) relievedFor(ctx context.Context, sess *session, req ports.SubgraphRequest, members []*sbml.Model, g *network.Graph) (map[string]bool, error) {
	out := make(map[string]bool)
	if req.Relieved != "" {
		blocks, err := exchange.ReadRelieved(req.Relieved)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxPath, req.Relieved)
		}
		block, ok := exchange.FindBlock(blocks, req.Acceptor, req.Donor)
		if !ok {
			return nil, errors.AddContext(
				errors.Newf(errors.CodeNotFound, "no relieved reactions for %s in the presence of %s", req.Acceptor, req.Donor),
				errors.CtxPath, req.Relieved,
			)
		}
		ids := make(map[string]bool, len(block.Reactions))
		for _, id := range block.Reactions {
			ids[id] = true
		}
		for _, n := range g.ReactionNodes(req.Acceptor) {
			if n.IsInternal() && ids[n.Reaction] {
				out[n.Name] = true
			}
		}
		return out, nil
	}

	alone, err := sess.analyzer.Evaluate(ctx, members[:1])
	if err != nil {
		return nil, err
	}
	result, err := s.app.traverser.Traverse(ctx, g, g.SeedNodes(sess.seeds))
	if err != nil {
		return nil, fmt.Errorf("traverse pair graph: %w", err)
	}
	stuck := make(map[string]bool, len(alone[0].Stuck))
	for _, id := range alone[0].Stuck {
		stuck[id] = true
	}
	for _, n := range g.ReactionNodes(req.Acceptor) {
		if n.IsInternal() && stuck[n.Reaction] && result.IsVisited(n.Name) {
			out[n.Name] = true
		}
	}
	return out, nil
}
