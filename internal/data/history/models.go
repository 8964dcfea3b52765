package history

import "time"

const SchemaVersion = 1

const (
	KindPairwise    = "pairwise"
	KindHigherOrder = "higher_order"
)

// Run is one stored analysis: the models it covered and every MSI value it
// produced.
type Run struct {
	ID        string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Seed      string    `json:"seed"`
	Timestamp time.Time `json:"timestamp"`
	Models    []string  `json:"models"`
	Values    []Value   `json:"values,omitempty"`
}

type Value struct {
	Acceptor    string  `json:"acceptor"`
	Donor       string  `json:"donor"`
	MSI         float64 `json:"msi"`
	StuckBefore int     `json:"stuck_before"`
	StuckAfter  int     `json:"stuck_after"`
}

// RunSummary is a run without its values, as returned by listings.
type RunSummary struct {
	ID         string    `json:"run_id"`
	Kind       string    `json:"kind"`
	Seed       string    `json:"seed"`
	Timestamp  time.Time `json:"timestamp"`
	ModelCount int       `json:"model_count"`
	ValueCount int       `json:"value_count"`
}

type TrendPoint struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	Seed        string    `json:"seed"`
	MSI         float64   `json:"msi"`
	StuckBefore int       `json:"stuck_before"`
	StuckAfter  int       `json:"stuck_after"`
	DeltaMSI    float64   `json:"delta_msi"`
}

type TrendReport struct {
	Acceptor string       `json:"acceptor"`
	Donor    string       `json:"donor"`
	Since    time.Time    `json:"since"`
	Until    time.Time    `json:"until"`
	RunCount int          `json:"run_count"`
	MinMSI   float64      `json:"min_msi"`
	MaxMSI   float64      `json:"max_msi"`
	Points   []TrendPoint `json:"points"`
}
