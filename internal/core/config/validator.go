package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateModels(cfg *Config) error {
	for i, p := range cfg.Models.Include {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("models.include[%d] %q is not a valid pattern: %w", i, p, err)
		}
	}
	for i, p := range cfg.Models.Exclude {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("models.exclude[%d] %q is not a valid pattern: %w", i, p, err)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be >= 1, got %d", cfg.Analysis.Workers)
	}
	if strings.ContainsAny(cfg.Analysis.Anchor, " \t") {
		return fmt.Errorf("analysis.anchor %q must not contain whitespace", cfg.Analysis.Anchor)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if cfg.DB.BusyTimeout < 0 {
		return fmt.Errorf("db.busy_timeout must not be negative")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MinInterval < 0 {
		return fmt.Errorf("watch.min_interval must not be negative")
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when observability.enable_tracing is true")
	}
	return nil
}

// Validate runs every check and returns all problems instead of the first.
func Validate(cfg *Config) []error {
	var errs []error

	for _, check := range []func(*Config) error{
		validateVersion,
		validateModels,
		validateAnalysis,
		validateDatabase,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	// Path verification
	errs = append(errs, validatePaths(cfg)...)

	return errs
}

func validatePaths(cfg *Config) []error {
	var errs []error

	if dir := cfg.Paths.ModelsDir; dir != "" {
		stat, err := os.Stat(dir)
		if os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("paths.models_dir %q does not exist", dir))
		} else if err == nil && !stat.IsDir() {
			errs = append(errs, fmt.Errorf("paths.models_dir %q is not a directory", dir))
		}
	}

	for key, path := range map[string]string{
		"seeds.file":           cfg.Seeds.File,
		"seeds.essential_file": cfg.Seeds.EssentialFile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("%s %q does not exist", key, path))
		}
	}

	if f := cfg.Clusters.File; f != "" && !cfg.Clusters.Individual() {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("clusters.file %q does not exist", f))
		}
	}

	return errs
}
