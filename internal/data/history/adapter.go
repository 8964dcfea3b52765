package history

import (
	"time"

	"github.com/google/uuid"

	"msindex/internal/engine/msi"
)

// Adapter turns analysis results into stored runs.
type Adapter struct {
	store *Store
	now   func() time.Time
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store, now: time.Now}
}

// RecordPairwise stores a pairwise MSI run and returns its ID.
func (a *Adapter) RecordPairwise(seed string, models []string, scores []msi.Score) (string, error) {
	values := make([]Value, 0, len(scores))
	for _, s := range scores {
		values = append(values, Value{
			Acceptor:    s.Pair.Acceptor,
			Donor:       s.Pair.Donor,
			MSI:         s.MSI,
			StuckBefore: s.StuckBefore,
			StuckAfter:  s.StuckAfter,
		})
	}
	return a.save(KindPairwise, seed, models, values)
}

// RecordHigherOrder stores the knockout MSI rows of one cluster run.
func (a *Adapter) RecordHigherOrder(seed string, models []string, rows []msi.MSIRow) (string, error) {
	values := make([]Value, 0, len(rows))
	for _, r := range rows {
		values = append(values, Value{
			Acceptor: r.Organism,
			Donor:    r.InPresence,
			MSI:      r.MSI,
		})
	}
	return a.save(KindHigherOrder, seed, models, values)
}

func (a *Adapter) save(kind, seed string, models []string, values []Value) (string, error) {
	run := Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Seed:      seed,
		Timestamp: a.now().UTC(),
		Models:    models,
		Values:    values,
	}
	if err := a.store.SaveRun(run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func (a *Adapter) ListRuns(kind string, limit int) ([]RunSummary, error) {
	return a.store.ListRuns(kind, limit)
}

func (a *Adapter) LoadRun(id string) (Run, error) {
	return a.store.LoadRun(id)
}

// Trend builds the trend report of acceptor|donor across stored runs.
func (a *Adapter) Trend(acceptor, donor, seed string) (TrendReport, error) {
	points, err := a.store.PairHistory(acceptor, donor, seed)
	if err != nil {
		return TrendReport{}, err
	}
	return BuildTrendReport(acceptor, donor, points)
}

func (a *Adapter) Close() error {
	return a.store.Close()
}
