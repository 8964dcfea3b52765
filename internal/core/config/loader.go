package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{DB: Database{Enabled: true}}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateModels(&cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysis(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.ModelsDir) == "" {
		cfg.Paths.ModelsDir = "models"
	}
	if strings.TrimSpace(cfg.Paths.ResultsDir) == "" {
		cfg.Paths.ResultsDir = "results"
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/database"
	}

	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = defaultWorkers()
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = 5 * time.Second
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.Seeds.File = strings.TrimSpace(cfg.Seeds.File)
	cfg.Seeds.EssentialFile = strings.TrimSpace(cfg.Seeds.EssentialFile)
	cfg.Analysis.Anchor = strings.TrimSpace(cfg.Analysis.Anchor)
	cfg.Clusters.File = strings.TrimSpace(cfg.Clusters.File)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Models.Include = trimPatterns(cfg.Models.Include)
	cfg.Models.Exclude = trimPatterns(cfg.Models.Exclude)
}

func trimPatterns(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFirst loads the first candidate that exists. It returns the default
// configuration and an empty path when none does.
func LoadFirst(candidates []string) (*Config, string, error) {
	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			continue
		}
		cfg, err := Load(c)
		if err != nil {
			return nil, c, err
		}
		return cfg, c, nil
	}
	return DefaultConfig(), "", nil
}
