package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	coreapp "msindex/internal/core/app"
	"msindex/internal/core/config"
	"msindex/internal/core/ports"
)

func newWatchCmd(rt *runtime) *cobra.Command {
	var (
		seeds  string
		anchor string
		ui     bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute pairwise MSI whenever a model or the seed file changes",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := rt.setup(ctx, setupOptions{ui: ui, history: historyOptional}); err != nil {
				return err
			}

			if rt.cfgPath != "" {
				cw := config.NewWatcher(rt.cfgPath, func(cfg *config.Config) {
					config.ApplyEnvOverrides(cfg)
					rt.app.UpdateConfig(cfg)
				})
				if err := cw.Start(ctx); err != nil {
					slog.Warn("config reload disabled", "path", rt.cfgPath, "error", err)
				} else {
					defer cw.Stop()
				}
			}

			if rt.cfg.Observability.Enabled {
				srv := NewObservabilityServer(fmt.Sprintf(":%d", rt.cfg.Observability.Port), coreapp.NewHealthService(rt.app))
				if err := srv.Start(ctx); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Stop(shutdownCtx)
				}()
			}

			svc := rt.app.WatchService(ports.PairwiseRequest{
				SeedRequest: ports.SeedRequest{SeedFile: absPath(seeds)},
				Anchor:      anchor,
			})
			defer svc.Close()

			if ui {
				return runUI(ctx, svc)
			}

			svc.Subscribe(func(u ports.WatchUpdate) {
				printWatchUpdate(rt, u)
			})
			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium file (overrides seeds.file)")
	cmd.Flags().StringVar(&anchor, "anchor", "", `Limit pairs to one organism ID or file stem; "none" scores every pair`)
	cmd.Flags().BoolVar(&ui, "ui", false, "Browse results in the terminal UI")
	return cmd
}

func printWatchUpdate(rt *runtime, u ports.WatchUpdate) {
	stamp := u.At.Local().Format("15:04:05")
	if u.Err != nil {
		fmt.Fprintf(rt.stdout, "[%s] recomputation failed: %v\n", stamp, u.Err)
		return
	}
	supported := 0
	for _, s := range u.Result.Scores {
		if s.MSI > 0 {
			supported++
		}
	}
	fmt.Fprintf(rt.stdout, "[%s] %d pairs scored, %d with support (seed %s, %d changed files)\n",
		stamp, len(u.Result.Scores), supported, u.Result.Seed, len(u.Trigger))
}
