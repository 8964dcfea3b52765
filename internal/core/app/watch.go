package app

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"msindex/internal/core/ports"
	"msindex/internal/core/watcher"
	"msindex/internal/shared/observability"
	"msindex/internal/shared/util"
)

// watchService recomputes pairwise MSI whenever a model or the seed file
// changes. Runs are throttled by watch.min_interval and watch.burst.
type watchService struct {
	app     *App
	req     ports.PairwiseRequest
	limiter *util.Limiter

	mu       sync.Mutex
	handlers []func(ports.WatchUpdate)
	fsw      *watcher.Watcher
	ctx      context.Context
}

var _ ports.WatchService = (*watchService)(nil)

func (a *App) WatchService(req ports.PairwiseRequest) ports.WatchService {
	cfg := a.config()
	return &watchService{
		app:     a,
		req:     req,
		limiter: util.NewIntervalLimiter(cfg.Watch.MinInterval, cfg.Watch.Burst),
	}
}

func (s *watchService) Subscribe(handler func(ports.WatchUpdate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start runs one initial computation, then watches for changes until ctx is
// done or Close is called.
func (s *watchService) Start(ctx context.Context) error {
	cfg := s.app.config()
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Models.Include, cfg.Models.Exclude, s.onChange)
	if err != nil {
		return err
	}
	seed := s.req.SeedFile
	if seed == "" {
		seed = s.app.Paths.SeedFile
	}
	if err := w.Track(seed); err != nil {
		_ = w.Close()
		return err
	}

	s.mu.Lock()
	s.fsw = w
	s.ctx = ctx
	s.mu.Unlock()

	s.limiter.Allow(1)
	s.run(ctx, nil)

	if err := w.Watch([]string{s.app.Paths.ModelsDir}); err != nil {
		_ = w.Close()
		return err
	}
	slog.Info("watching models", "dir", s.app.Paths.ModelsDir, "seeds", seed)

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return nil
}

func (s *watchService) onChange(paths []string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if !s.limiter.Allow(1) {
		observability.WatchRunsSkippedTotal.Inc()
		slog.Info("change throttled", "paths", len(paths))
		return
	}
	s.run(ctx, paths)
}

func (s *watchService) run(ctx context.Context, trigger []string) {
	res, err := s.app.AnalysisService().Pairwise(ctx, s.req)
	if err != nil {
		slog.Error("watch recomputation failed", "error", err)
	}
	update := ports.WatchUpdate{
		At:      time.Now().UTC(),
		Trigger: trigger,
		Result:  res,
		Err:     err,
	}

	s.mu.Lock()
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()
	for _, h := range handlers {
		h(update)
	}
}

func (s *watchService) Close() error {
	s.mu.Lock()
	w := s.fsw
	s.fsw = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
