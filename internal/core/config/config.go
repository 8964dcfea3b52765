package config

import (
	"runtime"
	"time"

	"msindex/internal/engine/msi"
)

// DefaultCandidates are tried in order when no --config flag is given.
var DefaultCandidates = []string{
	"data/config/msindex.toml",
	"msindex.toml",
}

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Models        Models        `toml:"models"`
	Seeds         Seeds         `toml:"seeds"`
	Analysis      Analysis      `toml:"analysis"`
	Clusters      Clusters      `toml:"clusters"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	ModelsDir   string `toml:"models_dir"`
	ResultsDir  string `toml:"results_dir"`
	StateDir    string `toml:"state_dir"`
	DatabaseDir string `toml:"database_dir"`
}

// Models selects model files inside paths.models_dir.
type Models struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Seeds struct {
	File string `toml:"file"`
	// ExpandCompartments turns base IDs into their _e and _c forms.
	ExpandCompartments bool   `toml:"expand_compartments"`
	EssentialFile      string `toml:"essential_file"`
}

type Analysis struct {
	Workers int `toml:"workers"`
	// Anchor limits pairs to one organism: "" for the legacy file-name
	// rule, "none", or a model ID / file stem.
	Anchor string `toml:"anchor"`
}

type Clusters struct {
	// File is a cluster CSV or the keyword individual_clusters.
	File string `toml:"file"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	MinInterval time.Duration `toml:"min_interval"`
	Burst       int           `toml:"burst"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{
		DB: Database{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

func defaultWorkers() int {
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 1
}

func (c Clusters) Individual() bool {
	return c.File == msi.IndividualClusters
}
