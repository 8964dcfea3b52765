package sbml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domainerrors "msindex/internal/core/errors"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// DefaultPatterns are tried in order; the first pattern with matches wins.
var DefaultPatterns = []string{"*.xml", "*.sbml"}

// Discover lists model files directly inside dir. Include patterns are tried
// in order and the first one that matches anything decides the file set;
// exclude patterns then drop individual base names.
func Discover(dir string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultPatterns
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeNotFound, "models directory not found"), domainerrors.CtxPath, dir)
		}
		return nil, fmt.Errorf("read models directory %q: %w", dir, err)
	}

	excludeGlobs := make([]glob.Glob, 0, len(exclude))
	for _, p := range exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, fmt.Sprintf("invalid exclude pattern %q", p))
		}
		excludeGlobs = append(excludeGlobs, g)
	}

	for _, p := range include {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, fmt.Sprintf("invalid include pattern %q", p))
		}
		var matches []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !g.Match(name) || excluded(name, excludeGlobs) {
				continue
			}
			matches = append(matches, filepath.Join(dir, name))
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches, nil
		}
	}

	return nil, domainerrors.AddContext(
		domainerrors.New(domainerrors.CodeNotFound, "no sbml files found; check the models path"),
		domainerrors.CtxPath, dir,
	)
}

func excluded(name string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// LoadAll parses every path with at most workers parsers in flight. The
// returned slice follows the order of paths. Duplicate model IDs are rejected
// because they would collide in pair keys.
func LoadAll(ctx context.Context, paths []string, workers int) ([]*Model, error) {
	return loadAll(ctx, paths, workers, ReadFile)
}

func loadAll(ctx context.Context, paths []string, workers int, read func(string) (*Model, error)) ([]*Model, error) {
	if workers <= 0 {
		workers = 1
	}
	models := make([]*Model, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			m, err := read(path)
			if err != nil {
				return err
			}
			models[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(models))
	for _, m := range models {
		if prev, ok := seen[m.ID]; ok {
			return nil, domainerrors.AddContext(
				domainerrors.Newf(domainerrors.CodeConflict, "duplicate model id %q in %s and %s", m.ID, prev, m.Path),
				domainerrors.CtxOrganism, m.ID,
			)
		}
		seen[m.ID] = m.Path
	}
	return models, nil
}

// FileStem returns the model file name without directory and extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
