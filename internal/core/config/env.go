package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MSINDEX_[SECTION]_[KEY] (e.g., MSINDEX_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "MSINDEX_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.ModelsDir, "MSINDEX_PATHS_MODELS_DIR")
	setEnvString(&cfg.Paths.ResultsDir, "MSINDEX_PATHS_RESULTS_DIR")
	setEnvString(&cfg.Paths.StateDir, "MSINDEX_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "MSINDEX_PATHS_DATABASE_DIR")

	// Seeds
	setEnvString(&cfg.Seeds.File, "MSINDEX_SEEDS_FILE")
	setEnvBool(&cfg.Seeds.ExpandCompartments, "MSINDEX_SEEDS_EXPAND_COMPARTMENTS")
	setEnvString(&cfg.Seeds.EssentialFile, "MSINDEX_SEEDS_ESSENTIAL_FILE")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "MSINDEX_ANALYSIS_WORKERS")
	setEnvString(&cfg.Analysis.Anchor, "MSINDEX_ANALYSIS_ANCHOR")
	setEnvString(&cfg.Clusters.File, "MSINDEX_CLUSTERS_FILE")

	// Database
	setEnvBool(&cfg.DB.Enabled, "MSINDEX_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "MSINDEX_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "MSINDEX_DB_BUSY_TIMEOUT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "MSINDEX_WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "MSINDEX_WATCH_MIN_INTERVAL")
	setEnvInt(&cfg.Watch.Burst, "MSINDEX_WATCH_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "MSINDEX_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "MSINDEX_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "MSINDEX_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "MSINDEX_OBSERVABILITY_ENABLE_TRACING")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
