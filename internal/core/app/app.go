package app

import (
	"context"
	"fmt"
	"sync"

	"msindex/internal/core/config"
	"msindex/internal/core/errors"
	"msindex/internal/core/ports"
	"msindex/internal/engine/medium"
	"msindex/internal/engine/msi"
	"msindex/internal/engine/sbml"
	"msindex/internal/output"
)

// App holds the configuration and adapters shared by every use case.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	cfgMu     sync.RWMutex
	history   ports.HistoryStore
	traverser msi.Traverser
	models    *sbml.ModelCache
}

const modelCacheSize = 256

func New(cfg *config.Config, paths config.ResolvedPaths) *App {
	return &App{
		Config:    cfg,
		Paths:     paths,
		traverser: msi.ForwardPass,
		models:    sbml.NewModelCache(modelCacheSize),
	}
}

// SetHistoryStore enables run persistence. A nil store disables it.
func (a *App) SetHistoryStore(store ports.HistoryStore) {
	a.history = store
}

func (a *App) HistoryStore() ports.HistoryStore {
	return a.history
}

// SetTraverser replaces the built-in forward pass.
func (a *App) SetTraverser(t msi.Traverser) {
	if t == nil {
		t = msi.ForwardPass
	}
	a.traverser = t
}

// UpdateConfig swaps the configuration, e.g. after a reload in watch mode.
// Paths stay as resolved at start-up.
func (a *App) UpdateConfig(cfg *config.Config) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	a.Config = cfg
}

func (a *App) config() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.Config
}

// LoadModels discovers and parses every model under the models directory.
// Unchanged files are served from the model cache, so watch-mode reruns only
// parse what was edited.
func (a *App) LoadModels(ctx context.Context) ([]*sbml.Model, error) {
	cfg := a.config()
	paths, err := sbml.Discover(a.Paths.ModelsDir, cfg.Models.Include, cfg.Models.Exclude)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, a.Paths.ModelsDir)
	}
	models, err := sbml.LoadAllCached(ctx, paths, cfg.Analysis.Workers, a.models)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "load_models")
	}
	return models, nil
}

// seedFile picks the request's seed file or the configured one.
func (a *App) seedFile(req ports.SeedRequest) (string, error) {
	if req.SeedFile != "" {
		return req.SeedFile, nil
	}
	if a.Paths.SeedFile != "" {
		return a.Paths.SeedFile, nil
	}
	return "", errors.New(errors.CodeValidationError, "no seed file given; pass --seeds or set seeds.file")
}

// LoadSeeds reads the seed medium. With expand, base IDs are turned into
// extracellular and cytosolic IDs using the first model's exchange marker.
func (a *App) LoadSeeds(path string, models []*sbml.Model, expand bool) ([]string, error) {
	seeds, err := medium.ReadSeeds(path)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	if !expand {
		return seeds, nil
	}
	if len(models) == 0 {
		return nil, errors.New(errors.CodeValidationError, "seed expansion needs at least one model")
	}
	marker, err := sbml.ExchangeMarker(models[0])
	if err != nil {
		return nil, err
	}
	return medium.ExpandSeeds(seeds, marker), nil
}

// session is one analysis run: loaded models, seeds and report layout.
type session struct {
	models   []*sbml.Model
	seeds    []string
	seedName string
	layout   output.Layout
	analyzer *msi.Analyzer
}

func (a *App) openSession(ctx context.Context, req ports.SeedRequest, expand bool) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := a.config()
	seedPath, err := a.seedFile(req)
	if err != nil {
		return nil, err
	}
	models, err := a.LoadModels(ctx)
	if err != nil {
		return nil, err
	}
	seeds, err := a.LoadSeeds(seedPath, models, expand)
	if err != nil {
		return nil, err
	}

	analyzer := msi.NewAnalyzer(seeds, cfg.Analysis.Workers)
	analyzer.Traverser = a.traverser
	analyzer.Anchor = cfg.Analysis.Anchor

	seedName := output.SeedName(seedPath)
	return &session{
		models:   models,
		seeds:    seeds,
		seedName: seedName,
		layout:   output.Layout{Dir: a.Paths.ResultsDir, Seed: seedName},
		analyzer: analyzer,
	}, nil
}

func (s *session) modelIDs() []string {
	out := make([]string, len(s.models))
	for i, m := range s.models {
		out[i] = m.ID
	}
	return out
}

// writer collects written paths and stops at the first failure.
type writer struct {
	written []string
	err     error
}

func (w *writer) write(path, content string) {
	if w.err != nil {
		return
	}
	if err := output.WriteArtifact(path, content); err != nil {
		w.err = errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("write %s", path))
		return
	}
	w.written = append(w.written, path)
}

func (a *App) Close() error {
	if closer, ok := a.history.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
