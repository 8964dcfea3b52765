package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "msindex.toml"), []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "models", "gut")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Seeds.File = "seeds.txt"
	cfg.Clusters.File = "individual_clusters"

	got, err := ResolvePaths(cfg, nested)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.ModelsDir != filepath.Join(root, "models") {
		t.Fatalf("unexpected models dir: %q", got.ModelsDir)
	}
	if got.DBPath != filepath.Join(root, "data/database", "history.db") {
		t.Fatalf("unexpected db path: %q", got.DBPath)
	}
	if got.SeedFile != filepath.Join(root, "seeds.txt") {
		t.Fatalf("unexpected seed file: %q", got.SeedFile)
	}
	if got.ClusterFile != "individual_clusters" {
		t.Fatalf("expected keyword to pass through, got %q", got.ClusterFile)
	}
	if got.EssentialFile != "" {
		t.Fatalf("expected no essential file, got %q", got.EssentialFile)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "custom", "history.db")
	cfg := DefaultConfig()
	cfg.Paths.ProjectRoot = root
	cfg.Paths.ResultsDir = filepath.Join(root, "elsewhere")
	cfg.DB.Path = dbPath
	cfg.Clusters.File = "clusters.csv"

	got, err := ResolvePaths(cfg, "/")
	if err != nil {
		t.Fatal(err)
	}
	if got.DBPath != dbPath {
		t.Fatalf("expected db path %q, got %q", dbPath, got.DBPath)
	}
	if got.ResultsDir != filepath.Join(root, "elsewhere") {
		t.Fatalf("unexpected results dir: %q", got.ResultsDir)
	}
	if got.ClusterFile != filepath.Join(root, "clusters.csv") {
		t.Fatalf("unexpected cluster file: %q", got.ClusterFile)
	}
}

func TestResolvePaths_EmptyCwd(t *testing.T) {
	if _, err := ResolvePaths(DefaultConfig(), " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}

func TestResolveRelative(t *testing.T) {
	if got := ResolveRelative("/a", ""); got != "/a" {
		t.Fatalf("expected base, got %q", got)
	}
	if got := ResolveRelative("/a", "/b/../c"); got != "/c" {
		t.Fatalf("expected cleaned absolute path, got %q", got)
	}
	if got := ResolveRelative("/a", "b/./c"); got != "/a/b/c" {
		t.Fatalf("expected joined path, got %q", got)
	}
}
