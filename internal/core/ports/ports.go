package ports

import (
	"context"
	"time"

	"msindex/internal/data/history"
	"msindex/internal/engine/exchange"
	"msindex/internal/engine/msi"
)

// HistoryStore abstracts run persistence for history and trend workflows.
type HistoryStore interface {
	RecordPairwise(seed string, models []string, scores []msi.Score) (string, error)
	RecordHigherOrder(seed string, models []string, rows []msi.MSIRow) (string, error)
	ListRuns(kind string, limit int) ([]history.RunSummary, error)
	LoadRun(id string) (history.Run, error)
	Trend(acceptor, donor, seed string) (history.TrendReport, error)
}

// SeedRequest names the seed medium of a run. An empty SeedFile falls back
// to the configured one.
type SeedRequest struct {
	SeedFile string
}

// PairwiseRequest defines a pairwise MSI run.
type PairwiseRequest struct {
	SeedRequest
	// Anchor overrides analysis.anchor when non-empty.
	Anchor    string
	NoHistory bool
}

// PairwiseResult contains scores, relieved reactions and written paths.
type PairwiseResult struct {
	Seed    string
	Scores  []msi.Score
	Reliefs []msi.Relief
	Written []string
	RunID   string
}

// HigherOrderRequest defines a cluster knockout run.
type HigherOrderRequest struct {
	SeedRequest
	// Clusters is a cluster CSV path or the individual_clusters keyword.
	Clusters  string
	NoHistory bool
}

type HigherOrderResult struct {
	Seed    string
	Result  *msi.HigherOrderResult
	Written []string
	RunID   string
}

type StatsResult struct {
	Seed    string
	Stats   []msi.OrgStat
	Written []string
}

// MediumRequest defines default medium generation and seed diagnostics.
type MediumRequest struct {
	SeedRequest
	// Out is where the default medium seed file is written.
	Out           string
	EssentialFile string
}

type MediumResult struct {
	Exchanges   []string
	Missing     []string
	NotProduced map[string][]string
	Written     []string
}

// RelievedRequest points at a relieved-reactions TSV written by a pairwise run.
type RelievedRequest struct {
	Relieved string
}

// RolesResult maps each relieved reaction to the organisms in one role.
type RolesResult struct {
	Roles   map[string][]string
	Written []string
}

type ExchangeRequest struct {
	SeedRequest
	Relieved string
}

type ExchangeResult struct {
	Refined   []exchange.Exchanged
	Frequency []exchange.Count
	Written   []string
}

// SubgraphRequest selects the pair whose relieved reactions are drawn.
type SubgraphRequest struct {
	SeedRequest
	Acceptor string
	Donor    string
	// Out is the output prefix; empty derives one from the pair.
	Out string
	// Relieved is an optional relieved-reaction report. When set, the pair's
	// entry in it decides which reactions are highlighted instead of a fresh
	// computation.
	Relieved string
}

type SubgraphResult struct {
	Nodes       int
	Edges       int
	Highlighted []string
	Written     []string
}

// AnalysisService is the driving-port surface over every analysis use case.
type AnalysisService interface {
	Pairwise(ctx context.Context, req PairwiseRequest) (PairwiseResult, error)
	HigherOrder(ctx context.Context, req HigherOrderRequest) (HigherOrderResult, error)
	Stats(ctx context.Context, req SeedRequest) (StatsResult, error)
	Medium(ctx context.Context, req MediumRequest) (MediumResult, error)
	Acceptors(ctx context.Context, req RelievedRequest) (RolesResult, error)
	Donors(ctx context.Context, req RelievedRequest) (RolesResult, error)
	Exchange(ctx context.Context, req ExchangeRequest) (ExchangeResult, error)
	Subgraph(ctx context.Context, req SubgraphRequest) (SubgraphResult, error)
}

// WatchUpdate is emitted after every watch-mode recomputation.
type WatchUpdate struct {
	At      time.Time
	Trigger []string
	Result  PairwiseResult
	Err     error
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	Subscribe(handler func(WatchUpdate))
	Close() error
}
