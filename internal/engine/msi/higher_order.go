package msi

import (
	"context"
	"fmt"
	"log/slog"

	"msindex/internal/engine/sbml"
)

// CommunityLabel stands for the full community in higher-order rows.
const CommunityLabel = "Comm"

// StuckCount is the number of stuck non-transport reactions of an organism.
type StuckCount struct {
	Organism string
	Stuck    int
}

// ReliefCount is a row of relieved-reaction metadata: stuck counts in the
// full and the perturbed community, and their difference.
type ReliefCount struct {
	Organism    string
	Unperturbed int
	Perturbed   int
	Relieved    int
}

// Knockout is one perturbed community evaluated against the full one.
type Knockout struct {
	// Members are the organisms that were traversed.
	Members []string
	// Removed are the organisms knocked out of the full community.
	Removed []string
	Stuck   []StuckCount
	MSI     float64
	// Relieved lists, per member, reactions stuck in the perturbed community
	// but not in the full one. Only filled when MSI is non-zero.
	Relieved []Relief
	Counts   []ReliefCount
}

// ClusterResult holds both knockouts of one cluster. Only is nil when the
// cluster covers the whole community.
type ClusterResult struct {
	Cluster Cluster
	Without *Knockout
	Only    *Knockout
}

// MSIRow is one line of the higher-order MSI report.
type MSIRow struct {
	Organism   string
	InPresence string
	MSI        float64
}

type HigherOrderResult struct {
	Unperturbed []StuckCount
	Clusters    []ClusterResult
}

// Rows flattens the result into report rows, cluster by cluster.
func (r *HigherOrderResult) Rows() []MSIRow {
	var out []MSIRow
	for _, c := range r.Clusters {
		for _, org := range c.Cluster.Members {
			out = append(out, MSIRow{
				Organism:   CommunityLabel,
				InPresence: fmt.Sprintf("clus_%s#%s", c.Cluster.Name, org),
				MSI:        c.Without.MSI,
			})
		}
		if c.Only == nil {
			continue
		}
		for _, org := range c.Only.Members {
			out = append(out, MSIRow{
				Organism:   fmt.Sprintf("clus_%s#%s", c.Cluster.Name, org),
				InPresence: CommunityLabel,
				MSI:        c.Only.MSI,
			})
		}
	}
	return out
}

// HigherOrder knocks each cluster out of the full community and, when the
// cluster is a proper subset, also evaluates the cluster on its own.
func (a *Analyzer) HigherOrder(ctx context.Context, models []*sbml.Model, clusters []Cluster, transport []string) (*HigherOrderResult, error) {
	drop := newSet(transport)

	full, err := a.Evaluate(ctx, models)
	if err != nil {
		return nil, fmt.Errorf("evaluate full community: %w", err)
	}
	fullByOrg := make(map[string]OrgResult, len(full))
	out := &HigherOrderResult{}
	for _, r := range full {
		fullByOrg[r.Organism] = r
		out.Unperturbed = append(out.Unperturbed, StuckCount{Organism: r.Organism, Stuck: len(minus(r.Stuck, drop))})
	}

	ko := knockout{analyzer: a, full: fullByOrg, drop: drop}
	for _, c := range clusters {
		inCluster := newSet(c.Members)
		var rest, only []*sbml.Model
		for _, m := range models {
			if inCluster.has(m.ID) {
				only = append(only, m)
			} else {
				rest = append(rest, m)
			}
		}

		res := ClusterResult{Cluster: c}
		res.Without, err = ko.run(ctx, rest, only)
		if err != nil {
			return nil, fmt.Errorf("knock out cluster %s: %w", c.Name, err)
		}
		if len(only) > 0 && len(only) < len(models) {
			res.Only, err = ko.run(ctx, only, rest)
			if err != nil {
				return nil, fmt.Errorf("evaluate cluster %s alone: %w", c.Name, err)
			}
		}
		slog.Debug("cluster knocked out", "cluster", c.Name, "msi", res.Without.MSI)
		out.Clusters = append(out.Clusters, res)
	}
	return out, nil
}

type knockout struct {
	analyzer *Analyzer
	full     map[string]OrgResult
	drop     stringSet
}

// run evaluates members and compares each of them with the full community:
// msi = 1 - sum(full stuck of members) / sum(perturbed stuck of members).
func (k knockout) run(ctx context.Context, members, removed []*sbml.Model) (*Knockout, error) {
	out := &Knockout{Members: memberIDs(members), Removed: memberIDs(removed)}
	if len(members) == 0 {
		return out, nil
	}
	pert, err := k.analyzer.Evaluate(ctx, members)
	if err != nil {
		return nil, err
	}

	before, after := 0, 0
	for _, r := range pert {
		full := k.full[r.Organism]
		fullCount := len(minus(full.Stuck, k.drop))
		pertCount := len(minus(r.Stuck, k.drop))
		before += pertCount
		after += fullCount
		out.Stuck = append(out.Stuck, StuckCount{Organism: r.Organism, Stuck: pertCount})
		if diff := pertCount - fullCount; diff != 0 {
			out.Counts = append(out.Counts, ReliefCount{
				Organism:    r.Organism,
				Unperturbed: fullCount,
				Perturbed:   pertCount,
				Relieved:    diff,
			})
		}
	}
	out.MSI = SupportIndex(before, after)

	if out.MSI != 0 {
		byID := modelIndex(members)
		for _, r := range pert {
			ids := minus(r.Stuck, newSet(k.full[r.Organism].Stuck))
			out.Relieved = append(out.Relieved, Relief{
				Pair:      Pair{Acceptor: r.Organism, Donor: CommunityLabel},
				Reactions: details(byID[r.Organism], ids),
			})
		}
	}
	return out, nil
}
