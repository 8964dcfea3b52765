package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"msindex/internal/core/ports"
	"msindex/internal/engine/msi"
	"msindex/internal/output"
)

func newPairwiseCmd(rt *runtime) *cobra.Command {
	var (
		seeds     string
		anchor    string
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "pairwise",
		Short: "Compute the MSI of every organism in the presence of every other",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{history: historyOptional}); err != nil {
				return err
			}
			res, err := rt.app.AnalysisService().Pairwise(cmd.Context(), ports.PairwiseRequest{
				SeedRequest: ports.SeedRequest{SeedFile: absPath(seeds)},
				Anchor:      anchor,
				NoHistory:   noHistory,
			})
			if err != nil {
				return err
			}
			printScores(rt.stdout, res.Scores)
			printWritten(rt.stdout, res.Written)
			if res.RunID != "" {
				fmt.Fprintf(rt.stdout, "Recorded run %s\n", res.RunID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium file (overrides seeds.file)")
	cmd.Flags().StringVar(&anchor, "anchor", "", `Limit pairs to one organism ID or file stem; "none" scores every pair`)
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history store")
	return cmd
}

func newHigherOrderCmd(rt *runtime) *cobra.Command {
	var (
		seeds     string
		clusters  string
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "higher-order",
		Short: "Knock out each cluster of organisms and score the support it gives",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{history: historyOptional}); err != nil {
				return err
			}
			source := clusters
			if source != "" && source != msi.IndividualClusters {
				source = absPath(source)
			}
			res, err := rt.app.AnalysisService().HigherOrder(cmd.Context(), ports.HigherOrderRequest{
				SeedRequest: ports.SeedRequest{SeedFile: absPath(seeds)},
				Clusters:    source,
				NoHistory:   noHistory,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORGANISM\tIN THE PRESENCE\tMSI")
			for _, row := range res.Result.Rows() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Organism, row.InPresence, output.FormatFloat(row.MSI))
			}
			_ = tw.Flush()
			printWritten(rt.stdout, res.Written)
			if res.RunID != "" {
				fmt.Fprintf(rt.stdout, "Recorded run %s\n", res.RunID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium file (overrides seeds.file)")
	cmd.Flags().StringVar(&clusters, "clusters", "", "Cluster CSV or individual_clusters (overrides clusters.file)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history store")
	return cmd
}

func newStatsCmd(rt *runtime) *cobra.Command {
	var seeds string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report stuck and visited reactions of each organism on its own",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{}); err != nil {
				return err
			}
			res, err := rt.app.AnalysisService().Stats(cmd.Context(), ports.SeedRequest{SeedFile: absPath(seeds)})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORGANISM\tSTUCK\tVISITED")
			for _, s := range res.Stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Organism, s.Stuck, s.Visited)
			}
			_ = tw.Flush()
			printWritten(rt.stdout, res.Written)
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium file (overrides seeds.file)")
	return cmd
}

func newMediumCmd(rt *runtime) *cobra.Command {
	var seeds, out, essential string
	cmd := &cobra.Command{
		Use:   "medium",
		Short: "Derive a default medium and diagnose a seed medium",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{}); err != nil {
				return err
			}
			res, err := rt.app.AnalysisService().Medium(cmd.Context(), ports.MediumRequest{
				SeedRequest:   ports.SeedRequest{SeedFile: absPath(seeds)},
				Out:           absPath(out),
				EssentialFile: absPath(essential),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.stdout, "Default medium: %d exchange reactions allow uptake\n", len(res.Exchanges))
			if out == "" {
				for _, ex := range res.Exchanges {
					fmt.Fprintf(rt.stdout, "  %s\n", ex)
				}
			}
			if len(res.Missing) > 0 {
				fmt.Fprintf(rt.stdout, "Essential metabolites out of scope (%d):\n", len(res.Missing))
				for _, m := range res.Missing {
					fmt.Fprintf(rt.stdout, "  %s\n", m)
				}
			}
			printWritten(rt.stdout, res.Written)
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium to diagnose (overrides seeds.file)")
	cmd.Flags().StringVar(&out, "out", "", "Write the default medium as a seed file to this path")
	cmd.Flags().StringVar(&essential, "essential", "", "Essential metabolites file (overrides seeds.essential_file)")
	return cmd
}

// newRolesCmd builds the acceptors and donors commands, which differ only
// in the organism role they collect.
func newRolesCmd(rt *runtime, role string) *cobra.Command {
	short := "List, per relieved reaction, the organisms in which it was relieved"
	if role == "donors" {
		short = "List, per relieved reaction, the partners that relieved it"
	}
	return &cobra.Command{
		Use:   role + " <relieved.tsv>",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{}); err != nil {
				return err
			}
			svc := rt.app.AnalysisService()
			req := ports.RelievedRequest{Relieved: absPath(args[0])}
			var (
				res ports.RolesResult
				err error
			)
			if role == "donors" {
				res, err = svc.Donors(cmd.Context(), req)
			} else {
				res, err = svc.Acceptors(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			rxns := make([]string, 0, len(res.Roles))
			for rxn := range res.Roles {
				rxns = append(rxns, rxn)
			}
			sort.Strings(rxns)
			for _, rxn := range rxns {
				fmt.Fprintf(rt.stdout, "%s\t%s\n", rxn, strings.Join(res.Roles[rxn], ", "))
			}
			printWritten(rt.stdout, res.Written)
			return nil
		},
	}
}

func newExchangeCmd(rt *runtime) *cobra.Command {
	var seeds string
	cmd := &cobra.Command{
		Use:   "exchange <relieved.tsv>",
		Short: "Infer the metabolites exchanged within each pair",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{}); err != nil {
				return err
			}
			res, err := rt.app.AnalysisService().Exchange(cmd.Context(), ports.ExchangeRequest{
				SeedRequest: ports.SeedRequest{SeedFile: absPath(seeds)},
				Relieved:    absPath(args[0]),
			})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METABOLITE\tPAIRS")
			for _, c := range res.Frequency {
				fmt.Fprintf(tw, "%s\t%d\n", c.Metabolite, c.Pairs)
			}
			_ = tw.Flush()
			printWritten(rt.stdout, res.Written)
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium file (overrides seeds.file)")
	return cmd
}

func newSubgraphCmd(rt *runtime) *cobra.Command {
	var seeds, out, relieved string
	cmd := &cobra.Command{
		Use:   "subgraph <acceptor> <donor>",
		Short: "Draw the reactions a donor relieves in an acceptor",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.setup(cmd.Context(), setupOptions{}); err != nil {
				return err
			}
			res, err := rt.app.AnalysisService().Subgraph(cmd.Context(), ports.SubgraphRequest{
				SeedRequest: ports.SeedRequest{SeedFile: absPath(seeds)},
				Acceptor:    args[0],
				Donor:       args[1],
				Out:         absPath(out),
				Relieved:    absPath(relieved),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.stdout, "Sub-graph: %d nodes, %d edges, %d relieved reaction nodes\n",
				res.Nodes, res.Edges, len(res.Highlighted))
			printWritten(rt.stdout, res.Written)
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "Seed medium file (overrides seeds.file)")
	cmd.Flags().StringVar(&out, "out", "", "Output prefix for the graph files")
	cmd.Flags().StringVar(&relieved, "relieved", "", "Highlight the pair's reactions from this relieved-reaction report")
	return cmd
}

// printScores lists pairwise scores with the strongest support first.
func printScores(w io.Writer, scores []msi.Score) {
	sorted := append([]msi.Score(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MSI > sorted[j].MSI })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCEPTOR\tDONOR\tMSI\tSTUCK\tRELIEVED")
	for _, s := range sorted {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			s.Pair.Acceptor, s.Pair.Donor, output.FormatFloat(s.MSI), s.StuckBefore, s.StuckBefore-s.StuckAfter)
	}
	_ = tw.Flush()
}

func printWritten(w io.Writer, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "Wrote %d files:\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
