package output

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"

	"msindex/internal/engine/msi"
)

func csvString(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// WriteAll flushes; errors only come from the underlying writer.
	_ = w.WriteAll(rows)
	return buf.String()
}

// LinesText joins lines with a trailing newline; no lines give "".
func LinesText(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatFloat renders MSI values without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MSICSV renders pairwise scores as organism,in_the_presence,msi_value rows.
func MSICSV(scores []msi.Score) string {
	rows := [][]string{{"organism", "in_the_presence", "msi_value"}}
	for _, s := range scores {
		rows = append(rows, []string{s.Pair.Acceptor, s.Pair.Donor, FormatFloat(s.MSI)})
	}
	return csvString(rows)
}

func OrganismStatsCSV(stats []msi.OrgStat) string {
	rows := [][]string{{"", "Stuck rxns", "Visited rxns"}}
	for _, s := range stats {
		rows = append(rows, []string{s.Organism, strconv.Itoa(s.Stuck), strconv.Itoa(s.Visited)})
	}
	return csvString(rows)
}

// ColumnCSV lays out one column per key, keys sorted, values top to bottom,
// with a leading row-number column. Short columns are padded with blanks.
func ColumnCSV(columns map[string][]string) string {
	keys := make([]string, 0, len(columns))
	depth := 0
	for k, v := range columns {
		keys = append(keys, k)
		if len(v) > depth {
			depth = len(v)
		}
	}
	sort.Strings(keys)

	rows := make([][]string, 0, depth+1)
	rows = append(rows, append([]string{""}, keys...))
	for i := 0; i < depth; i++ {
		row := make([]string, 0, len(keys)+1)
		row = append(row, strconv.Itoa(i))
		for _, k := range keys {
			if i < len(columns[k]) {
				row = append(row, columns[k][i])
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return csvString(rows)
}

// TableColumns picks one slice per pair of t, keyed by the legacy pair key.
func TableColumns(t *msi.Table, pick func(msi.OrgResult) []string) map[string][]string {
	out := make(map[string][]string, t.Len())
	for _, p := range t.Pairs() {
		r, _ := t.Get(p)
		out[p.Key()] = pick(r)
	}
	return out
}

// StuckCountsCSV renders organism,count rows without a header.
func StuckCountsCSV(counts []msi.StuckCount) string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Organism, strconv.Itoa(c.Stuck)})
	}
	return csvString(rows)
}

// HigherOrderCSV renders the knockout MSI rows without a header.
func HigherOrderCSV(rows []msi.MSIRow) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Organism, r.InPresence, FormatFloat(r.MSI)})
	}
	return csvString(out)
}

// KnockoutSummaryCSV describes one knockout: its title, the listed
// organisms, then the organisms whose stuck count changed.
func KnockoutSummaryCSV(title string, listed []string, caption string, header []string, counts []msi.ReliefCount) string {
	rows := [][]string{{title}}
	for _, org := range listed {
		rows = append(rows, []string{org})
	}
	rows = append(rows, []string{caption}, header)
	for _, c := range counts {
		rows = append(rows, []string{
			c.Organism,
			strconv.Itoa(c.Unperturbed),
			strconv.Itoa(c.Perturbed),
			strconv.Itoa(c.Relieved),
		})
	}
	return csvString(rows)
}
