package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ModelsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "msindex_models_loaded",
		Help: "Number of metabolic models loaded for the current analysis.",
	})

	ModelParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "msindex_model_parse_seconds",
		Help:    "Time spent parsing a single SBML model.",
		Buckets: prometheus.DefBuckets,
	})

	GraphsBuiltTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msindex_graphs_built_total",
		Help: "Total number of community graphs built, by community size.",
	}, []string{"size"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "msindex_graph_nodes",
		Help: "Number of nodes in the most recently built community graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "msindex_graph_edges",
		Help: "Number of edges in the most recently built community graph.",
	})

	TraversalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msindex_traversal_seconds",
		Help:    "Time spent in one seed-guided forward pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"size"})

	StuckReactions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "msindex_stuck_reactions",
		Help: "Stuck reactions of an organism when analysed alone.",
	}, []string{"organism"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msindex_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatchEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msindex_watch_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRunsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msindex_watch_runs_skipped_total",
		Help: "Re-analysis triggers dropped by the watch rate limiter.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msindex_history_writes_total",
		Help: "Runs persisted to the history store, by run kind.",
	}, []string{"kind"})
)
