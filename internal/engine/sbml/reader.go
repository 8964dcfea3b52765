package sbml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domainerrors "msindex/internal/core/errors"
)

// SBML documents are decoded with local-name matching so that both level 2
// and level 3 (+fbc) files map onto the same structs.
type sbmlDocument struct {
	XMLName xml.Name  `xml:"sbml"`
	Model   sbmlModel `xml:"model"`
}

type sbmlModel struct {
	ID         string          `xml:"id,attr"`
	Name       string          `xml:"name,attr"`
	Parameters []sbmlParameter `xml:"listOfParameters>parameter"`
	Species    []sbmlSpecies   `xml:"listOfSpecies>species"`
	Reactions  []sbmlReaction  `xml:"listOfReactions>reaction"`
}

type sbmlParameter struct {
	ID    string `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

type sbmlSpecies struct {
	ID                string `xml:"id,attr"`
	Name              string `xml:"name,attr"`
	Compartment       string `xml:"compartment,attr"`
	BoundaryCondition string `xml:"boundaryCondition,attr"`
}

type sbmlReaction struct {
	ID              string           `xml:"id,attr"`
	Name            string           `xml:"name,attr"`
	Reversible      string           `xml:"reversible,attr"`
	LowerFluxBound  string           `xml:"lowerFluxBound,attr"`
	UpperFluxBound  string           `xml:"upperFluxBound,attr"`
	Reactants       []sbmlSpeciesRef `xml:"listOfReactants>speciesReference"`
	Products        []sbmlSpeciesRef `xml:"listOfProducts>speciesReference"`
	KineticParams   []sbmlParameter  `xml:"kineticLaw>listOfParameters>parameter"`
	LocalParameters []sbmlParameter  `xml:"kineticLaw>listOfLocalParameters>localParameter"`
}

type sbmlSpeciesRef struct {
	Species       string `xml:"species,attr"`
	Stoichiometry string `xml:"stoichiometry,attr"`
}

// ReadFile parses an SBML file. The model ID falls back to the file's base
// name when the document does not declare one.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeNotFound, "model file not found"), domainerrors.CtxPath, path)
		}
		return nil, fmt.Errorf("open model %q: %w", path, err)
	}
	defer f.Close()
	return Read(f, path)
}

func Read(r io.Reader, path string) (*Model, error) {
	var doc sbmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode sbml"), domainerrors.CtxPath, path)
	}
	m, err := convert(doc.Model, path)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return m, nil
}

func convert(src sbmlModel, path string) (*Model, error) {
	if len(src.Reactions) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "model declares no reactions")
	}

	params := make(map[string]float64, len(src.Parameters))
	for _, p := range src.Parameters {
		if v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64); err == nil {
			params[p.ID] = v
		}
	}

	m := &Model{
		ID:   strings.TrimSpace(src.ID),
		Name: strings.TrimSpace(src.Name),
		Path: path,
	}
	if m.ID == "" {
		m.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	boundarySpecies := make(map[string]bool)
	for _, sp := range src.Species {
		id := clip(sp.ID, "M_")
		if strings.EqualFold(sp.BoundaryCondition, "true") {
			boundarySpecies[id] = true
			continue
		}
		m.Metabolites = append(m.Metabolites, Metabolite{
			ID:          id,
			Name:        sp.Name,
			Compartment: sp.Compartment,
		})
	}

	for _, sr := range src.Reactions {
		rxn := Reaction{
			ID:        clip(sr.ID, "R_"),
			Name:      sr.Name,
			Reactants: make(map[string]float64, len(sr.Reactants)),
			Products:  make(map[string]float64, len(sr.Products)),
		}
		if err := addRefs(rxn.Reactants, sr.Reactants, boundarySpecies); err != nil {
			return nil, fmt.Errorf("reaction %s: %w", sr.ID, err)
		}
		if err := addRefs(rxn.Products, sr.Products, boundarySpecies); err != nil {
			return nil, fmt.Errorf("reaction %s: %w", sr.ID, err)
		}
		resolveBounds(&rxn, sr, params)
		m.Reactions = append(m.Reactions, rxn)
	}

	m.index()
	m.ExternalCompartment = detectExternalCompartment(m)
	return m, nil
}

func addRefs(dst map[string]float64, refs []sbmlSpeciesRef, skip map[string]bool) error {
	for _, ref := range refs {
		id := clip(ref.Species, "M_")
		if skip[id] {
			continue
		}
		coef := 1.0
		if raw := strings.TrimSpace(ref.Stoichiometry); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return domainerrors.Wrap(err, domainerrors.CodeValidationError, fmt.Sprintf("invalid stoichiometry for %s", ref.Species))
			}
			coef = v
		}
		dst[id] += coef
	}
	return nil
}

// resolveBounds prefers fbc bound references, then level 2 kinetic law
// parameters, then the reversible attribute (SBML default: true).
func resolveBounds(rxn *Reaction, src sbmlReaction, params map[string]float64) {
	lower, hasLower := params[src.LowerFluxBound]
	upper, hasUpper := params[src.UpperFluxBound]

	if !hasLower || !hasUpper {
		local := append(append([]sbmlParameter{}, src.KineticParams...), src.LocalParameters...)
		for _, p := range local {
			v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
			if err != nil {
				continue
			}
			switch p.ID {
			case "LOWER_BOUND":
				lower, hasLower = v, true
			case "UPPER_BOUND":
				upper, hasUpper = v, true
			}
		}
	}

	if hasLower {
		rxn.Reversible = lower < 0
	} else {
		rxn.Reversible = !strings.EqualFold(strings.TrimSpace(src.Reversible), "false")
		lower = 0
		if rxn.Reversible {
			lower = defaultLowerBound
		}
	}
	if !hasUpper {
		upper = defaultUpperBound
	}
	rxn.LowerBound = lower
	rxn.UpperBound = upper
}

func clip(id, prefix string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), prefix)
}
