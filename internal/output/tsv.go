// # internal/output/tsv.go
package output

import (
	"strings"

	"msindex/internal/engine/msi"
)

// RelievedTSV renders pairwise relieved reactions: three lines per pair with
// reaction IDs, names and equations.
func RelievedTSV(reliefs []msi.Relief) string {
	var buf strings.Builder
	buf.WriteString("acceptor\tdonor\trelieved reactions\n")
	for _, r := range reliefs {
		writeRelief(&buf, []string{r.Pair.Acceptor, r.Pair.Donor}, r)
	}
	return buf.String()
}

// CommunityRelievedTSV renders knockout relieved reactions keyed by acceptor
// only.
func CommunityRelievedTSV(reliefs []msi.Relief) string {
	var buf strings.Builder
	buf.WriteString("acceptor\trelieved reactions\n")
	for _, r := range reliefs {
		writeRelief(&buf, []string{r.Pair.Acceptor}, r)
	}
	return buf.String()
}

func writeRelief(buf *strings.Builder, keys []string, r msi.Relief) {
	ids := make([]string, len(r.Reactions))
	names := make([]string, len(r.Reactions))
	equations := make([]string, len(r.Reactions))
	for i, d := range r.Reactions {
		ids[i] = d.ID
		names[i] = d.Name
		equations[i] = d.Equation
	}
	blank := strings.Repeat("\t", len(keys))

	buf.WriteString(strings.Join(keys, "\t") + "\t")
	writeCells(buf, ids)
	buf.WriteString(blank)
	writeCells(buf, names)
	buf.WriteString(blank)
	writeCells(buf, equations)
}

func writeCells(buf *strings.Builder, cells []string) {
	for _, c := range cells {
		buf.WriteString(strings.ReplaceAll(c, "\t", " "))
		buf.WriteString("\t")
	}
	buf.WriteString("\n")
}
