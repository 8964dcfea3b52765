package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot   string
	ModelsDir     string
	ResultsDir    string
	StateDir      string
	DatabaseDir   string
	DBPath        string
	SeedFile      string
	EssentialFile string
	// ClusterFile keeps the individual_clusters keyword untouched.
	ClusterFile string
}

func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	databaseDir := ResolveRelative(projectRoot, cfg.Paths.DatabaseDir)
	dbPath := strings.TrimSpace(cfg.DB.Path)
	if filepath.IsAbs(dbPath) {
		dbPath = filepath.Clean(dbPath)
	} else {
		dbPath = filepath.Join(databaseDir, dbPath)
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		ModelsDir:   ResolveRelative(projectRoot, cfg.Paths.ModelsDir),
		ResultsDir:  ResolveRelative(projectRoot, cfg.Paths.ResultsDir),
		StateDir:    ResolveRelative(projectRoot, cfg.Paths.StateDir),
		DatabaseDir: databaseDir,
		DBPath:      filepath.Clean(dbPath),
	}
	if cfg.Seeds.File != "" {
		resolved.SeedFile = ResolveRelative(projectRoot, cfg.Seeds.File)
	}
	if cfg.Seeds.EssentialFile != "" {
		resolved.EssentialFile = ResolveRelative(projectRoot, cfg.Seeds.EssentialFile)
	}
	switch {
	case cfg.Clusters.Individual():
		resolved.ClusterFile = cfg.Clusters.File
	case cfg.Clusters.File != "":
		resolved.ClusterFile = ResolveRelative(projectRoot, cfg.Clusters.File)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until it finds a directory
// holding a msindex config file or a VCS root.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"data/config/msindex.toml",
		"msindex.toml",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
