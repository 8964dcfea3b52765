// Package medium reads, derives and writes seed metabolite sets.
package medium

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/engine/sbml"
	"msindex/internal/shared/util"
)

// ReadSeeds reads one metabolite ID per line. Reading stops at the first
// blank line, so anything after it is treated as notes.
func ReadSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeNotFound, "seed file not found"), domainerrors.CtxPath, path)
		}
		return nil, fmt.Errorf("open seed file %q: %w", path, err)
	}
	defer f.Close()

	seeds, err := parseSeeds(f)
	if err != nil {
		return nil, fmt.Errorf("read seed file %q: %w", path, err)
	}
	if len(seeds) == 0 {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "seed file lists no metabolites"),
			domainerrors.CtxPath, path,
		)
	}
	return seeds, nil
}

func parseSeeds(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			break
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// ExpandSeeds turns base IDs into their extracellular and cytosolic forms:
// id+marker and id+marker with "e" replaced by "c" ("_e0" gives "_c0").
func ExpandSeeds(seeds []string, marker string) []string {
	cyto := strings.ReplaceAll(marker, "e", "c")
	out := make([]string, 0, 2*len(seeds))
	for _, s := range seeds {
		out = append(out, s+marker, s+cyto)
	}
	return out
}

// DefaultMedium returns the exchange reactions, across models, that allow
// uptake (lower bound below zero), sorted and unique.
func DefaultMedium(models []*sbml.Model) []string {
	seen := make(map[string]struct{})
	for _, m := range models {
		for _, rxn := range m.Exchanges() {
			if rxn.LowerBound < 0 {
				seen[rxn.ID] = struct{}{}
			}
		}
	}
	return util.SortedStringKeys(seen)
}

// SeedLines converts exchange reaction IDs ("EX_<met>") into seed file
// lines: the metabolite with "_e" switched to "_c", then with "_c" switched
// to "_e".
func SeedLines(exchanges []string) []string {
	out := make([]string, 0, 2*len(exchanges))
	for _, ex := range exchanges {
		met := strings.TrimPrefix(ex, "EX_")
		out = append(out, strings.ReplaceAll(met, "_e", "_c"), strings.ReplaceAll(met, "_c", "_e"))
	}
	return out
}

// WriteSeedFile writes SeedLines(exchanges) to path, one per line.
func WriteSeedFile(path string, exchanges []string) error {
	lines := SeedLines(exchanges)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := util.WriteStringWithDirs(path, content, 0o644); err != nil {
		return fmt.Errorf("write seed file %q: %w", path, err)
	}
	return nil
}

// MissingSeeds lists essential metabolites absent from an organism's
// stand-alone scope, as "<org> <met>". scope maps organism ID to scope
// metabolite IDs; organisms without a scope entry are skipped.
func MissingSeeds(models []*sbml.Model, essential []string, scope map[string][]string) []string {
	seen := make(map[string]struct{})
	for _, m := range models {
		mets, ok := scope[m.ID]
		if !ok {
			continue
		}
		have := toSet(mets)
		for _, e := range essential {
			if _, ok := have[e]; !ok {
				seen[m.ID+" "+e] = struct{}{}
			}
		}
	}
	return util.SortedStringKeys(seen)
}

// MetsNotProduced lists, per organism, the metabolites outside its scope.
// Extracellular IDs (containing "_e") are left out.
func MetsNotProduced(models []*sbml.Model, scope map[string][]string) map[string][]string {
	out := make(map[string][]string, len(scope))
	for _, m := range models {
		mets, ok := scope[m.ID]
		if !ok {
			continue
		}
		have := toSet(mets)
		missing := make([]string, 0)
		for _, met := range m.Metabolites {
			if _, ok := have[met.ID]; ok || strings.Contains(met.ID, "_e") {
				continue
			}
			missing = append(missing, met.ID)
		}
		sort.Strings(missing)
		out[m.ID] = missing
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, v := range items {
		out[v] = struct{}{}
	}
	return out
}
