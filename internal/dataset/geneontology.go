package dataset

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/omixdb/omix/internal/gaf"
	"github.com/omixdb/omix/internal/resource"
	"github.com/omixdb/omix/internal/table"
)

// DefaultGeneOntologyRename maps GAF column names onto the shared
// identifier spaces.
var DefaultGeneOntologyRename = map[string]string{
	"db_object_id":     SpaceGeneID,
	"db_object_symbol": SpaceGeneName,
}

// GeneOntology wraps GO annotation (GAF) files. An ontology graph for
// ancestor expansion is an injected capability; this package never
// builds one.
type GeneOntology struct {
	tbl    *table.Table
	graph  OntologyGraph
	logger *zap.Logger
}

// NewGeneOntology loads every ".gaf" resource in res into one table.
// colRename nil applies DefaultGeneOntologyRename.
func NewGeneOntology(res *resource.Set, colRename map[string]string) (*GeneOntology, error) {
	g := &GeneOntology{
		logger: zap.NewNop(),
	}
	tbl, err := g.load(res)
	if err != nil {
		return nil, err
	}
	if colRename == nil {
		colRename = DefaultGeneOntologyRename
	}
	if err := tbl.Rename(colRename); err != nil {
		return nil, err
	}
	g.tbl = tbl
	return g, nil
}

// SetLogger sets the logger for load diagnostics.
func (g *GeneOntology) SetLogger(l *zap.Logger) {
	g.logger = l
}

// SetGraph injects the ontology graph used for ancestor expansion.
func (g *GeneOntology) SetGraph(graph OntologyGraph) {
	g.graph = graph
}

// Name returns the dataset identity.
func (g *GeneOntology) Name() string {
	return "GeneOntology"
}

// Table returns the GO annotation table.
func (g *GeneOntology) Table() *table.Table {
	return g.tbl
}

// RenameDict maps one identifier space to another using the annotation
// table.
func (g *GeneOntology) RenameDict(fromSpace, toSpace string) (map[string]string, error) {
	return renameDict(g.tbl, fromSpace, toSpace)
}

func (g *GeneOntology) load(res *resource.Set) (*table.Table, error) {
	var gafNames []string
	for _, name := range res.Names() {
		if strings.HasSuffix(name, ".gaf") {
			gafNames = append(gafNames, name)
		}
	}
	if len(gafNames) == 0 {
		return nil, &resource.MissingResourceError{Name: "goa_human.gaf"}
	}

	var ids, symbols, goIDs, evidence, aspects, taxa []table.Value
	for _, name := range gafNames {
		f, err := res.Open(name)
		if err != nil {
			return nil, err
		}
		r := gaf.NewReader(f)
		for {
			rec, err := r.Next()
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("load %s: %w", name, err)
			}
			if rec == nil {
				break
			}
			ids = append(ids, table.String(rec.ObjectID))
			symbols = append(symbols, attrValue(rec.ObjectSymbol))
			goIDs = append(goIDs, attrValue(rec.GOID))
			evidence = append(evidence, attrValue(rec.Evidence))
			aspects = append(aspects, attrValue(rec.Aspect))
			taxa = append(taxa, attrValue(rec.Taxon))
		}
		f.Close()
	}

	tbl := table.New(g.Name())
	cols := []struct {
		name  string
		cells []table.Value
	}{
		{"db_object_id", ids},
		{"db_object_symbol", symbols},
		{"go_id", goIDs},
		{"evidence", evidence},
		{"aspect", aspects},
		{"taxon", taxa},
	}
	for _, c := range cols {
		if err := tbl.AddColumn(c.name, c.cells); err != nil {
			return nil, err
		}
	}

	g.logger.Info("loaded GO annotations",
		zap.Int("rows", tbl.NumRows()),
		zap.Strings("files", gafNames))
	return tbl, nil
}

// PredecessorTerms returns the unique ancestor terms of the given GO
// terms, in first-seen traversal order over the direct parent relation.
func (g *GeneOntology) PredecessorTerms(terms []string) ([]string, error) {
	if g.graph == nil {
		return nil, &UnsupportedCapabilityError{Dataset: g.Name(), Capability: "ontology graph traversal"}
	}

	var parents []string
	seen := make(map[string]struct{})
	for _, term := range terms {
		for _, p := range g.graph.Predecessors(term) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			parents = append(parents, p)
		}
	}
	return parents, nil
}

// AddPredecessorTerms expands a go_id cell with the ancestors of every
// term it holds. Missing cells pass through unchanged.
func (g *GeneOntology) AddPredecessorTerms(v table.Value) (table.Value, error) {
	if v.IsMissing() {
		return v, nil
	}
	terms := v.Strings()
	parents, err := g.PredecessorTerms(terms)
	if err != nil {
		return table.Missing(), err
	}

	seen := make(map[string]struct{}, len(terms))
	merged := make([]string, 0, len(terms)+len(parents))
	for _, t := range append(terms, parents...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	return table.List(merged...), nil
}
