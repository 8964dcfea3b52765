package msi

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/engine/network"
	"msindex/internal/engine/sbml"
	"msindex/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	// AnchorAuto restricts pairs to the first model when its file name
	// starts with "0".
	AnchorAuto = ""
	// AnchorNone evaluates every pair.
	AnchorNone = "none"
)

// Analyzer evaluates communities of models against one seed set.
type Analyzer struct {
	Seeds     []string
	Traverser Traverser
	Workers   int
	Anchor    string
}

func NewAnalyzer(seeds []string, workers int) *Analyzer {
	return &Analyzer{
		Seeds:     append([]string(nil), seeds...),
		Traverser: ForwardPass,
		Workers:   workers,
		Anchor:    AnchorAuto,
	}
}

func (a *Analyzer) workers() int {
	if a.Workers <= 0 {
		return 1
	}
	return a.Workers
}

// Evaluate builds the community graph of members, traverses it once and
// splits the outcome per member.
func (a *Analyzer) Evaluate(ctx context.Context, members []*sbml.Model) ([]OrgResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "Analyzer.Evaluate", trace.WithAttributes(
		attribute.Int("members", len(members)),
	))
	defer span.End()

	if len(members) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "no organisms to evaluate")
	}
	traverser := a.Traverser
	if traverser == nil {
		traverser = ForwardPass
	}

	g, names := network.Build(members)
	size := strconv.Itoa(len(members))
	observability.GraphsBuiltTotal.WithLabelValues(size).Inc()
	observability.GraphNodes.Set(float64(g.NodeCount()))
	observability.GraphEdges.Set(float64(g.EdgeCount()))

	start := time.Now()
	res, err := traverser.Traverse(ctx, g, g.SeedNodes(a.Seeds))
	observability.TraversalDuration.WithLabelValues(size).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("traverse community of %d: %w", len(members), err)
	}
	slog.Debug("community traversed",
		"members", memberIDs(members),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"visited", len(res.Visited),
		"rounds", res.Rounds,
	)

	out := make([]OrgResult, 0, len(members))
	for _, m := range members {
		stuck := make(stringSet)
		visited := make(stringSet)
		for _, n := range g.ReactionNodes(m.ID) {
			id := names[n.Name]
			if res.IsVisited(n.Name) {
				visited[id] = struct{}{}
				continue
			}
			if n.IsInternal() {
				stuck[id] = struct{}{}
			}
		}
		partners := make([]string, 0, len(members)-1)
		for _, other := range members {
			if other.ID != m.ID {
				partners = append(partners, other.ID)
			}
		}
		out = append(out, OrgResult{
			Organism: m.ID,
			Partners: partners,
			Stuck:    stuck.sorted(),
			Visited:  visited.sorted(),
			Scope:    res.OrganismScope(g, m.ID),
		})
	}
	return out, nil
}

// StuckTable evaluates every k-organism combination of models, k being 1
// (each organism alone) or 2 (every ordered pair). Combinations run in
// parallel, bounded by Workers.
func (a *Analyzer) StuckTable(ctx context.Context, models []*sbml.Model, k int) (*Table, error) {
	if k != 1 && k != 2 {
		return nil, domainerrors.Newf(domainerrors.CodeValidationError, "combination size must be 1 or 2, got %d", k)
	}
	anchor := -1
	if k == 2 {
		idx, err := ResolveAnchor(models, a.Anchor)
		if err != nil {
			return nil, err
		}
		anchor = idx
	}
	combos := network.AnchorCombinations(len(models), k, anchor)

	table := newTable(memberIDs(models))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for _, combo := range combos {
		members := make([]*sbml.Model, len(combo))
		for i, idx := range combo {
			members[i] = models[idx]
		}
		g.Go(func() error {
			results, err := a.Evaluate(gctx, members)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i, r := range results {
				donor := members[i].ID
				if k == 2 {
					donor = members[1-i].ID
				}
				table.Results[Pair{Acceptor: r.Organism, Donor: donor}] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if k == 1 {
		for _, r := range table.Results {
			observability.StuckReactions.WithLabelValues(r.Organism).Set(float64(len(r.Stuck)))
		}
	}
	slog.Info("stuck reactions computed", "k", k, "combinations", len(combos), "entries", table.Len())
	return table, nil
}

// ResolveAnchor maps the configured anchor to a model index, or -1 when every
// pair should be evaluated. An explicit anchor may name a model ID or its file
// stem.
func ResolveAnchor(models []*sbml.Model, anchor string) (int, error) {
	switch strings.TrimSpace(anchor) {
	case AnchorNone:
		return -1, nil
	case AnchorAuto:
		if len(models) > 0 && strings.HasPrefix(filepath.Base(models[0].Path), "0") {
			return 0, nil
		}
		return -1, nil
	}
	for i, m := range models {
		if m.ID == anchor || sbml.FileStem(m.Path) == anchor {
			return i, nil
		}
	}
	return -1, domainerrors.AddContext(
		domainerrors.Newf(domainerrors.CodeNotFound, "anchor organism %q is not among the loaded models", anchor),
		domainerrors.CtxOrganism, anchor,
	)
}

func memberIDs(models []*sbml.Model) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.ID
	}
	return out
}
