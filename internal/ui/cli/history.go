package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"msindex/internal/data/history"
	"msindex/internal/output"
	"msindex/internal/shared/util"
	"msindex/internal/ui/report"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs and how a pair's MSI changes across them",
	}
	cmd.AddCommand(newHistoryListCmd(rt), newHistoryShowCmd(rt), newHistoryTrendCmd(rt))
	return cmd
}

func newHistoryListCmd(rt *runtime) *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch kind {
			case "", history.KindPairwise, history.KindHigherOrder:
			default:
				return usagef("--kind must be %q or %q, got %q", history.KindPairwise, history.KindHigherOrder, kind)
			}
			if err := rt.setup(cmd.Context(), setupOptions{history: historyRequired}); err != nil {
				return err
			}
			runs, err := rt.app.HistoryStore().ListRuns(kind, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(rt.stdout, report.RenderRunsTable(runs))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list pairwise or higher_order runs")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryShowCmd(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print every MSI value of one run",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{history: historyRequired}); err != nil {
				return err
			}
			run, err := rt.app.HistoryStore().LoadRun(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				raw, err := json.MarshalIndent(run, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(rt.stdout, string(raw))
				return nil
			}

			fmt.Fprintf(rt.stdout, "Run %s (%s, seed %s, %s)\n", run.ID, run.Kind, run.Seed, run.Timestamp.UTC().Format(time.RFC3339))
			fmt.Fprintf(rt.stdout, "Models: %d\n", len(run.Models))
			tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCEPTOR\tDONOR\tMSI\tSTUCK BEFORE\tSTUCK AFTER")
			for _, v := range run.Values {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", v.Acceptor, v.Donor, output.FormatFloat(v.MSI), v.StuckBefore, v.StuckAfter)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

func newHistoryTrendCmd(rt *runtime) *cobra.Command {
	var seed, tsvPath, jsonPath string
	cmd := &cobra.Command{
		Use:   "trend <acceptor> <donor>",
		Short: "Show how the MSI of one pair changed across runs",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{history: historyRequired}); err != nil {
				return err
			}
			trend, err := rt.app.HistoryStore().Trend(args[0], args[1], seed)
			if err != nil {
				return err
			}

			fmt.Fprintf(rt.stdout, "Trend %s|%s: %d runs from %s to %s, MSI range %s..%s\n",
				trend.Acceptor, trend.Donor, trend.RunCount,
				trend.Since.UTC().Format("2006-01-02 15:04:05"),
				trend.Until.UTC().Format("2006-01-02 15:04:05"),
				output.FormatFloat(trend.MinMSI), output.FormatFloat(trend.MaxMSI))
			for _, p := range trend.Points {
				fmt.Fprintf(rt.stdout, "  %s  %-12s  msi=%s (%+.4f)\n",
					p.Timestamp.UTC().Format(time.RFC3339), p.Seed, output.FormatFloat(p.MSI), p.DeltaMSI)
			}

			if tsvPath != "" {
				tsv, err := report.RenderTrendTSV(trend)
				if err != nil {
					return fmt.Errorf("render trend TSV: %w", err)
				}
				if err := util.WriteFileWithDirs(absPath(tsvPath), tsv, 0o644); err != nil {
					return fmt.Errorf("write trend TSV %q: %w", tsvPath, err)
				}
			}
			if jsonPath != "" {
				raw, err := report.RenderTrendJSON(trend)
				if err != nil {
					return fmt.Errorf("render trend JSON: %w", err)
				}
				if err := util.WriteFileWithDirs(absPath(jsonPath), raw, 0o644); err != nil {
					return fmt.Errorf("write trend JSON %q: %w", jsonPath, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "Only include runs with this seed name")
	cmd.Flags().StringVar(&tsvPath, "tsv", "", "Write the trend report TSV to this path")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the trend report JSON to this path")
	return cmd
}
