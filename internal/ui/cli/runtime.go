package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	coreapp "msindex/internal/core/app"
	"msindex/internal/core/config"
	"msindex/internal/data/history"
	"msindex/internal/shared/observability"
)

// Run executes the msindex command line and returns the process exit code:
// 0 on success, 1 for runtime failures and 2 for usage errors.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rt := &runtime{stdout: stdout, stderr: stderr}
	defer rt.close()

	root := newRootCmd(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

type historyMode int

const (
	historyOff historyMode = iota
	// historyOptional opens the store when db.enabled is set and only warns
	// when that fails.
	historyOptional
	historyRequired
)

type setupOptions struct {
	ui       bool
	history  historyMode
	override func(cfg *config.Config)
}

// runtime carries the state one command invocation builds up.
type runtime struct {
	opts   globalOptions
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	cfgPath string
	paths   config.ResolvedPaths
	app     *coreapp.App
	closers []func()
}

func (rt *runtime) setup(ctx context.Context, so setupOptions) error {
	configureLogging(rt.stderr, rt.opts.verbose)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("detect working directory: %w", err)
	}

	cfg, cfgPath, err := loadConfig(rt.opts.configPath, cwd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnvOverrides(cfg)
	if so.override != nil {
		so.override(cfg)
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return fmt.Errorf("resolve runtime paths: %w", err)
	}
	if errs := validateResolved(cfg, paths); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	if so.ui {
		closeLog, err := redirectLogs(filepath.Join(paths.StateDir, "msindex.log"), rt.opts.verbose)
		if err != nil {
			fmt.Fprintf(rt.stderr, "warning: %v\n", err)
		} else {
			rt.closers = append(rt.closers, closeLog)
		}
	}
	if cfgPath != "" {
		slog.Debug("config loaded", "path", cfgPath)
	}

	rt.cfg, rt.cfgPath, rt.paths = cfg, cfgPath, paths
	rt.app = coreapp.New(cfg, paths)
	rt.closers = append(rt.closers, func() { _ = rt.app.Close() })

	if err := rt.openHistory(so.history); err != nil {
		return err
	}

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, versionString)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		}
		rt.closers = append(rt.closers, func() { _ = shutdown(context.Background()) })
	}
	return nil
}

func (rt *runtime) openHistory(mode historyMode) error {
	if mode == historyOff {
		return nil
	}
	if !rt.cfg.DB.Enabled {
		if mode == historyRequired {
			return fmt.Errorf("history store is disabled (db.enabled=false)")
		}
		return nil
	}

	store, moved, err := history.OpenOrRecover(rt.paths.DBPath, rt.cfg.DB.BusyTimeout)
	if moved != "" {
		slog.Warn("history database was corrupt; moved aside and recreated", "path", rt.paths.DBPath, "moved_to", moved)
	}
	if err != nil {
		if mode == historyRequired {
			return fmt.Errorf("open history store: %w", err)
		}
		slog.Warn("history store unavailable; runs will not be recorded", "path", rt.paths.DBPath, "error", err)
		return nil
	}
	slog.Debug("history store opened", "path", store.Path())
	rt.app.SetHistoryStore(history.NewAdapter(store))
	return nil
}

// close runs cleanups in reverse order of registration.
func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidates := make([]string, 0, len(config.DefaultCandidates))
	for _, c := range config.DefaultCandidates {
		candidates = append(candidates, filepath.Join(cwd, c))
	}
	return config.LoadFirst(candidates)
}

// validateResolved validates cfg with its paths replaced by the resolved,
// absolute ones so file checks do not depend on the working directory.
func validateResolved(cfg *config.Config, paths config.ResolvedPaths) []error {
	check := *cfg
	check.Paths.ModelsDir = paths.ModelsDir
	check.Seeds.File = paths.SeedFile
	check.Seeds.EssentialFile = paths.EssentialFile
	check.Clusters.File = paths.ClusterFile
	return config.Validate(&check)
}

// absPath makes flag paths relative to the working directory, not to the
// project root config paths are resolved against.
func absPath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

// redirectLogs sends logs to a file so they never corrupt the terminal UI.
func redirectLogs(logPath string, verbose bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log dir for %s: %w", logPath, err)
	}
	if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
		return nil, fmt.Errorf("refusing to write logs to symlink path %s", logPath)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	configureLogging(f, verbose)
	return func() { _ = f.Close() }, nil
}
