// # internal/output/layout.go
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"msindex/internal/shared/util"
)

// Layout names every report file of one analysis run. Seed is the seed set
// name, usually the seed file name without ".txt".
type Layout struct {
	Dir  string
	Seed string
}

// SeedName derives the report suffix from a seed file path.
func SeedName(seedPath string) string {
	return strings.TrimSuffix(filepath.Base(seedPath), ".txt")
}

func (l Layout) MSI() string {
	return filepath.Join(l.Dir, "MSI_"+l.Seed+".csv")
}

func (l Layout) Relieved() string {
	return filepath.Join(l.Dir, "relieved_rxns_"+l.Seed+"_w_excrxns.tsv")
}

func (l Layout) OrganismStats() string {
	return filepath.Join(l.Dir, "organism_stats_"+l.Seed+".csv")
}

func (l Layout) StuckReactions() string {
	return filepath.Join(l.Dir, l.Seed+"_stuckrxns.csv")
}

func (l Layout) Scope() string {
	return filepath.Join(l.Dir, l.Seed+"_scope.csv")
}

func (l Layout) VisitedReactions() string {
	return filepath.Join(l.Dir, l.Seed+"_visitedrxns.csv")
}

func (l Layout) NotProduced() string {
	return filepath.Join(l.Dir, l.Seed+"_mets_not_produced.csv")
}

func (l Layout) MissingEssential() string {
	return filepath.Join(l.Dir, l.Seed+"_missing_essential.txt")
}

// ClusterLayout returns the layout of a cluster knockout run. cluster is the
// cluster file path or the individual-clusters keyword.
func (l Layout) ClusterLayout(cluster string) ClusterLayout {
	name := strings.TrimSuffix(filepath.Base(cluster), ".csv")
	return ClusterLayout{Dir: filepath.Join(l.Dir, fmt.Sprintf("clusterKO_%s_%s", name, l.Seed))}
}

type ClusterLayout struct {
	Dir string
}

func (c ClusterLayout) Unperturbed() string {
	return filepath.Join(c.Dir, "community_unperturbed.csv")
}

func (c ClusterLayout) MSI() string {
	return filepath.Join(c.Dir, "higher_order_msi.csv")
}

func (c ClusterLayout) Without(cluster string) string {
	return filepath.Join(c.Dir, "Community_without_clus"+cluster+".csv")
}

func (c ClusterLayout) RelievedWithout(cluster string) string {
	return filepath.Join(c.Dir, "data_analysis", "relieved_rxns_Comm--clus"+cluster+".tsv")
}

func (c ClusterLayout) SummaryWithout(cluster string) string {
	return filepath.Join(c.Dir, "data_analysis", "Comm--clus"+cluster+".csv")
}

func (c ClusterLayout) RelievedOnly(cluster string) string {
	return filepath.Join(c.Dir, "data_analysis", "relieved_rxns_clus--Comm"+cluster+".tsv")
}

func (c ClusterLayout) SummaryOnly(cluster string) string {
	return filepath.Join(c.Dir, "data_analysis", "clus"+cluster+"--Comm.csv")
}

// ExchangeLayout names the files derived from a relieved-reaction report.
type ExchangeLayout struct {
	Relieved string
}

func (e ExchangeLayout) base() string {
	return strings.TrimSuffix(e.Relieved, ".tsv")
}

func (e ExchangeLayout) Refined() string {
	return e.base() + "_refined_exc_mets.csv"
}

func (e ExchangeLayout) Stats() string {
	return e.base() + "_refined_exc_mets_stats.csv"
}

func (e ExchangeLayout) Chart() string {
	return e.base() + "_refined_exc_mets_stats.svg"
}

func (e ExchangeLayout) Acceptors() string {
	return filepath.Join(filepath.Dir(e.Relieved), "acceptors_of_"+filepath.Base(e.base())+".csv")
}

func (e ExchangeLayout) Donors() string {
	return filepath.Join(filepath.Dir(e.Relieved), "donors_of_"+filepath.Base(e.base())+".csv")
}

// GraphLayout names the pair sub-graph files sharing the prefix Out.
type GraphLayout struct {
	Out string
}

func (g GraphLayout) NameMap() string { return g.Out + "_namemap.csv" }
func (g GraphLayout) DOT() string     { return g.Out + ".dot" }
func (g GraphLayout) HTML() string    { return g.Out + ".html" }
func (g GraphLayout) Mermaid() string { return g.Out + ".mmd" }

// WriteArtifact writes content to path, creating parent directories.
func WriteArtifact(path, content string) error {
	if err := util.WriteStringWithDirs(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
