package msi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domainerrors "msindex/internal/core/errors"
	"msindex/internal/engine/sbml"
)

// IndividualClusters is the cluster source keyword that puts every organism
// in a cluster of its own.
const IndividualClusters = "individual_clusters"

// Cluster is a named group of organism IDs knocked out together.
type Cluster struct {
	Name    string
	Members []string
}

// LoadClusters resolves source, either IndividualClusters or a CSV path.
func LoadClusters(source string, models []*sbml.Model) ([]Cluster, error) {
	if strings.TrimSpace(source) == IndividualClusters {
		return Individual(models), nil
	}
	return ReadClusters(source, models)
}

// Individual numbers clusters from 0 in model order.
func Individual(models []*sbml.Model) []Cluster {
	out := make([]Cluster, len(models))
	for i, m := range models {
		out[i] = Cluster{Name: strconv.Itoa(i), Members: []string{m.ID}}
	}
	return out
}

// ReadClusters parses a cluster CSV. The "Cluster" column names the cluster;
// every other non-blank cell of the row is a model file name, resolved to a
// model ID by file name, file stem or ID.
func ReadClusters(path string, models []*sbml.Model) ([]Cluster, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeNotFound, "cluster file not found"), domainerrors.CtxPath, path)
		}
		return nil, fmt.Errorf("open cluster file %q: %w", path, err)
	}
	defer f.Close()

	clusters, err := parseClusters(f, models)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return clusters, nil
}

func parseClusters(r io.Reader, models []*sbml.Model) ([]Cluster, error) {
	lookup := make(map[string]string, 3*len(models))
	for _, m := range models {
		lookup[m.ID] = m.ID
		if m.Path != "" {
			lookup[filepath.Base(m.Path)] = m.ID
			lookup[sbml.FileStem(m.Path)] = m.ID
		}
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domainerrors.New(domainerrors.CodeValidationError, "cluster file is empty")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "read cluster header")
	}
	nameCol := -1
	for i, h := range header {
		if strings.TrimSpace(h) == "Cluster" {
			nameCol = i
			break
		}
	}
	if nameCol < 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "cluster file has no Cluster column")
	}

	var out []Cluster
	seen := make(map[string]bool)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "read cluster row")
		}
		if nameCol >= len(row) || strings.TrimSpace(row[nameCol]) == "" {
			continue
		}
		c := Cluster{Name: strings.TrimSpace(row[nameCol])}
		if seen[c.Name] {
			return nil, domainerrors.AddContext(
				domainerrors.Newf(domainerrors.CodeConflict, "cluster %q listed twice", c.Name),
				domainerrors.CtxCluster, c.Name,
			)
		}
		seen[c.Name] = true
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if i == nameCol || cell == "" {
				continue
			}
			id, ok := lookup[cell]
			if !ok {
				return nil, domainerrors.AddContext(
					domainerrors.Newf(domainerrors.CodeNotFound, "cluster member %q matches no loaded model", cell),
					domainerrors.CtxCluster, c.Name,
				)
			}
			c.Members = append(c.Members, id)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "cluster file lists no clusters")
	}
	return out, nil
}
