// # internal/core/config/config_test.go
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "msindex.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1

[paths]
models_dir = "./agora"
results_dir = "out"

[models]
include = ["*.xml", " "]
exclude = ["draft_*"]

[seeds]
file = "seeds/glucose.txt"
expand_compartments = true

[analysis]
workers = 3
anchor = " none "

[clusters]
file = "individual_clusters"

[db]
enabled = false

[watch]
debounce = "1s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Paths.ModelsDir != "./agora" || cfg.Paths.ResultsDir != "out" {
		t.Errorf("unexpected paths: %+v", cfg.Paths)
	}
	if len(cfg.Models.Include) != 1 || cfg.Models.Include[0] != "*.xml" {
		t.Errorf("expected blank include patterns to be dropped, got %v", cfg.Models.Include)
	}
	if !cfg.Seeds.ExpandCompartments {
		t.Error("expected expand_compartments to be true")
	}
	if cfg.Analysis.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.Anchor != "none" {
		t.Errorf("expected trimmed anchor, got %q", cfg.Analysis.Anchor)
	}
	if !cfg.Clusters.Individual() {
		t.Error("expected individual clusters")
	}
	if cfg.DB.Enabled {
		t.Error("expected db to be disabled")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MinInterval != 5*time.Second || cfg.Watch.Burst != 1 {
		t.Errorf("expected watch defaults, got %+v", cfg.Watch)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Paths.ModelsDir != "models" || cfg.Paths.ResultsDir != "results" {
		t.Errorf("unexpected default paths: %+v", cfg.Paths)
	}
	if !cfg.DB.Enabled || cfg.DB.Path != "history.db" || cfg.DB.BusyTimeout != 5*time.Second {
		t.Errorf("unexpected db defaults: %+v", cfg.DB)
	}
	if cfg.Analysis.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Analysis.Workers)
	}
	if cfg.Observability.Port != 9464 {
		t.Errorf("expected default port 9464, got %d", cfg.Observability.Port)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 2", "unsupported config version"},
		{"pattern", "[models]\ninclude = [\"[\"]", "models.include[0]"},
		{"workers", "[analysis]\nworkers = -1", "analysis.workers"},
		{"burst", "[watch]\nburst = -2", "watch.burst"},
		{"tracing", "[observability]\nenabled = true\nenable_tracing = true", "otlp_endpoint"},
		{"syntax", "version = ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFirst(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, path, err := LoadFirst([]string{missing})
	if err != nil {
		t.Fatal(err)
	}
	if path != "" || cfg.Paths.ModelsDir != "models" {
		t.Fatalf("expected defaults with empty path, got %q %+v", path, cfg.Paths)
	}

	real := writeConfig(t, "[analysis]\nanchor = \"orgA\"")
	cfg, path, err = LoadFirst([]string{missing, real})
	if err != nil {
		t.Fatal(err)
	}
	if path != real || cfg.Analysis.Anchor != "orgA" {
		t.Fatalf("expected %q to be loaded, got %q %+v", real, path, cfg.Analysis)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MSINDEX_ANALYSIS_WORKERS", "7")
	t.Setenv("MSINDEX_ANALYSIS_ANCHOR", "orgB")
	t.Setenv("MSINDEX_DB_ENABLED", "FALSE")
	t.Setenv("MSINDEX_WATCH_DEBOUNCE", "250ms")
	t.Setenv("MSINDEX_OBSERVABILITY_PORT", "not-a-number")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if cfg.Analysis.Workers != 7 || cfg.Analysis.Anchor != "orgB" {
		t.Errorf("unexpected analysis: %+v", cfg.Analysis)
	}
	if cfg.DB.Enabled {
		t.Error("expected db disabled by env")
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Observability.Port != 9464 {
		t.Errorf("invalid override must be ignored, got %d", cfg.Observability.Port)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[analysis]\nanchor = \"a\"")
	got := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { got <- cfg })
	w.debounce = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("[analysis]\nanchor = \"b\""), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Analysis.Anchor != "b" {
			t.Fatalf("expected reloaded anchor b, got %q", cfg.Analysis.Anchor)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
