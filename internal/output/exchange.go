package output

import (
	"strconv"

	"msindex/internal/engine/exchange"
	"msindex/internal/engine/network"
	"msindex/internal/shared/util"
)

// RefinedCSV writes one row per pair: the "<acceptor>,<donor>" key followed
// by its metabolites, padded to the widest row.
func RefinedCSV(rows []exchange.Exchanged) string {
	width := 0
	for _, r := range rows {
		if len(r.Metabolites) > width {
			width = len(r.Metabolites)
		}
	}
	header := make([]string, 0, width+1)
	header = append(header, "")
	for i := 0; i < width; i++ {
		header = append(header, strconv.Itoa(i))
	}

	out := [][]string{header}
	for _, r := range rows {
		row := make([]string, 0, width+1)
		row = append(row, r.Acceptor+","+r.Donor)
		row = append(row, r.Metabolites...)
		for len(row) < width+1 {
			row = append(row, "")
		}
		out = append(out, row)
	}
	return csvString(out)
}

func FrequencyCSV(counts []exchange.Count) string {
	rows := [][]string{{"", "metabolites", "exchange frequency"}}
	for i, c := range counts {
		rows = append(rows, []string{strconv.Itoa(i), c.Metabolite, strconv.Itoa(c.Pairs)})
	}
	return csvString(rows)
}

// NameMapCSV lists encoded reaction node names and their reaction IDs.
func NameMapCSV(names network.NameMap) string {
	rows := [][]string{{"", "0"}}
	for _, k := range util.SortedStringKeys(names) {
		rows = append(rows, []string{k, names[k]})
	}
	return csvString(rows)
}
