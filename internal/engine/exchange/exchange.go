// Package exchange reads relieved-reaction reports and derives who accepts,
// who donates and which extracellular metabolites are likely exchanged.
package exchange

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/shared/util"
)

// Block is one acceptor/donor entry of a relieved-reaction report.
type Block struct {
	Acceptor  string
	Donor     string
	Reactions []string
	Names     []string
	Equations []string
}

// ReadRelieved parses a pairwise relieved-reaction TSV: a header line, then
// three lines per pair holding reaction IDs, names and equations.
func ReadRelieved(path string) ([]Block, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeNotFound, "relieved reactions file not found"), domainerrors.CtxPath, path)
		}
		return nil, fmt.Errorf("open relieved reactions %q: %w", path, err)
	}
	defer f.Close()

	blocks, err := parseRelieved(f)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return blocks, nil
}

func parseRelieved(r io.Reader) ([]Block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "read relieved reactions")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "relieved reactions file is empty")
	}

	var out []Block
	for i := 1; i < len(lines); i += 3 {
		head := strings.Split(lines[i], "\t")
		if len(head) < 2 {
			return nil, domainerrors.Newf(domainerrors.CodeValidationError, "line %d: expected acceptor and donor columns", i+1)
		}
		b := Block{
			Acceptor:  strings.TrimSpace(head[0]),
			Donor:     strings.TrimSpace(head[1]),
			Reactions: cells(head[2:]),
		}
		if i+1 < len(lines) {
			b.Names = cells(tail(lines[i+1]))
		}
		if i+2 < len(lines) {
			b.Equations = cells(tail(lines[i+2]))
		}
		out = append(out, b)
	}
	return out, nil
}

// tail drops the two leading key columns of a continuation line.
func tail(line string) []string {
	fields := strings.Split(line, "\t")
	if len(fields) <= 2 {
		return nil
	}
	return fields[2:]
}

func cells(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FindBlock returns the entry for acceptor in the presence of donor.
func FindBlock(blocks []Block, acceptor, donor string) (Block, bool) {
	for _, b := range blocks {
		if b.Acceptor == acceptor && b.Donor == donor {
			return b, true
		}
	}
	return Block{}, false
}

// Acceptors maps each relieved reaction to the organisms in which it was
// relieved.
func Acceptors(blocks []Block) map[string][]string {
	return collect(blocks, func(b Block) string { return b.Acceptor })
}

// Donors maps each relieved reaction to the partners that relieved it.
func Donors(blocks []Block) map[string][]string {
	return collect(blocks, func(b Block) string { return b.Donor })
}

func collect(blocks []Block, who func(Block) string) map[string][]string {
	sets := make(map[string]map[string]struct{})
	for _, b := range blocks {
		for _, rxn := range b.Reactions {
			if sets[rxn] == nil {
				sets[rxn] = make(map[string]struct{})
			}
			sets[rxn][who(b)] = struct{}{}
		}
	}
	out := make(map[string][]string, len(sets))
	for rxn, set := range sets {
		out[rxn] = util.SortedStringKeys(set)
	}
	return out
}

var extracellular = regexp.MustCompile(`\b[\S|\d]+_e\d*\b`)

// Exchanged lists metabolites an acceptor likely receives from a donor.
type Exchanged struct {
	Acceptor    string
	Donor       string
	Metabolites []string
}

// ExchangedMetabolites collects, per pair, the extracellular metabolites
// named in relieved equations that are not seeds.
func ExchangedMetabolites(blocks []Block, seeds []string) []Exchanged {
	drop := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		drop[s] = struct{}{}
	}
	out := make([]Exchanged, 0, len(blocks))
	for _, b := range blocks {
		mets := make(map[string]struct{})
		for _, eq := range b.Equations {
			for _, m := range extracellular.FindAllString(eq, -1) {
				if _, ok := drop[m]; !ok {
					mets[m] = struct{}{}
				}
			}
		}
		out = append(out, Exchanged{Acceptor: b.Acceptor, Donor: b.Donor, Metabolites: util.SortedStringKeys(mets)})
	}
	return out
}

// Refine drops metabolites the acceptor already produces on its own. Scope
// IDs ending in the cytosolic "_c0" marker are compared in their "_e0" form.
func Refine(exchanged []Exchanged, singleScope map[string][]string) []Exchanged {
	out := make([]Exchanged, 0, len(exchanged))
	for _, e := range exchanged {
		own := make(map[string]struct{})
		for _, met := range singleScope[e.Acceptor] {
			own[strings.ReplaceAll(met, "_c0", "_e0")] = struct{}{}
		}
		kept := make([]string, 0, len(e.Metabolites))
		for _, m := range e.Metabolites {
			if _, ok := own[m]; !ok {
				kept = append(kept, m)
			}
		}
		out = append(out, Exchanged{Acceptor: e.Acceptor, Donor: e.Donor, Metabolites: kept})
	}
	return out
}

// Count is how many pairs a metabolite is exchanged in.
type Count struct {
	Metabolite string
	Pairs      int
}

// Frequency counts, for every metabolite, the pairs it appears in. The
// result is ordered by descending count, then by name.
func Frequency(rows []Exchanged) []Count {
	counts := make(map[string]int)
	for _, r := range rows {
		seen := make(map[string]bool, len(r.Metabolites))
		for _, m := range r.Metabolites {
			if seen[m] {
				continue
			}
			seen[m] = true
			counts[m]++
		}
	}
	out := make([]Count, 0, len(counts))
	for m, n := range counts {
		out = append(out, Count{Metabolite: m, Pairs: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pairs != out[j].Pairs {
			return out[i].Pairs > out[j].Pairs
		}
		return out[i].Metabolite < out[j].Metabolite
	})
	return out
}
