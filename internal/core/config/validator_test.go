package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func containsError(errs []error, fragment string) bool {
	for _, err := range errs {
		if strings.Contains(err.Error(), fragment) {
			return true
		}
	}
	return false
}

func TestValidate_DefaultsWithExistingDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths.ModelsDir = dir
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidate_ModelsDirIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "model.xml")
	if err := os.WriteFile(f, []byte("<sbml/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Paths.ModelsDir = f
	if errs := Validate(cfg); !containsError(errs, "is not a directory") {
		t.Errorf("expected directory error, got %v", errs)
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	cfg := DefaultConfig()
	cfg.Version = 3
	cfg.Paths.ModelsDir = missing
	cfg.Analysis.Workers = 0
	cfg.Seeds.File = filepath.Join(missing, "seeds.txt")
	cfg.Clusters.File = filepath.Join(missing, "clusters.csv")
	cfg.Observability.Enabled = true
	cfg.Observability.Port = 70000

	errs := Validate(cfg)
	for _, want := range []string{
		"unsupported config version",
		"paths.models_dir",
		"analysis.workers",
		"seeds.file",
		"clusters.file",
		"observability.port",
	} {
		if !containsError(errs, want) {
			t.Errorf("expected %q in %v", want, errs)
		}
	}
}

func TestValidate_IndividualClustersSkipsFileCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.ModelsDir = t.TempDir()
	cfg.Clusters.File = "individual_clusters"
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
