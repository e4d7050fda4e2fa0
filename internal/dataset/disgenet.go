package dataset

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/omixdb/omix/internal/resource"
	"github.com/omixdb/omix/internal/table"
)

// DisGeNETCuratedAssociations is the logical file name of the curated
// gene-disease association TSV.
const DisGeNETCuratedAssociations = "curated_gene_disease_associations.tsv"

// DefaultDisGeNETRename maps DisGeNET's native column names onto the
// shared identifier spaces.
var DefaultDisGeNETRename = map[string]string{
	"geneSymbol":  SpaceGeneName,
	"diseaseId":   "disease_id",
	"diseaseName": "disease_name",
}

// disgenetColumns are the native columns read from the association TSV,
// located by header name. Other columns in the file are ignored.
var disgenetColumns = []string{"geneId", "geneSymbol", "diseaseId", "diseaseName", "score"}

// DisGeNET loads curated gene-disease associations and serves them as
// disease lists keyed by gene identifier.
type DisGeNET struct {
	tbl    *table.Table
	logger *zap.Logger
}

// NewDisGeNET loads the curated association TSV from res. colRename nil
// applies DefaultDisGeNETRename.
func NewDisGeNET(res *resource.Set, colRename map[string]string) (*DisGeNET, error) {
	d := &DisGeNET{logger: zap.NewNop()}
	tbl, err := d.load(res)
	if err != nil {
		return nil, err
	}
	if colRename == nil {
		colRename = DefaultDisGeNETRename
	}
	if err := tbl.Rename(colRename); err != nil {
		return nil, err
	}
	d.tbl = tbl
	return d, nil
}

// SetLogger sets the logger for load diagnostics.
func (d *DisGeNET) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Name returns the dataset identity.
func (d *DisGeNET) Name() string {
	return "DisGeNET"
}

// Table returns the association table.
func (d *DisGeNET) Table() *table.Table {
	return d.tbl
}

// RenameDict maps one identifier space to another using the association
// table.
func (d *DisGeNET) RenameDict(fromSpace, toSpace string) (map[string]string, error) {
	return renameDict(d.tbl, fromSpace, toSpace)
}

// DiseaseAssocs rolls up disease names per identifier in the given
// space, in first-seen order.
func (d *DisGeNET) DiseaseAssocs(space string) (map[string]table.Value, error) {
	agg, err := table.Aggregate(d.tbl, space, []string{"disease_name"}, table.ReduceConcat)
	if err != nil {
		return nil, err
	}

	assocs := make(map[string]table.Value, agg.NumRows())
	for row := 0; row < agg.NumRows(); row++ {
		key := agg.Cell(space, row)
		names := agg.Cell("disease_name", row)
		if key.IsMissing() || names.IsMissing() {
			continue
		}
		assocs[key.String()] = names
	}
	return assocs, nil
}

func (d *DisGeNET) load(res *resource.Set) (*table.Table, error) {
	f, err := res.Open(DisGeNETCuratedAssociations)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)

	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, fmt.Errorf("scan %s: %w", DisGeNETCuratedAssociations, err)
		}
		return nil, table.Schemaf("%s: empty file", DisGeNETCuratedAssociations)
	}
	header := strings.Split(s.Text(), "\t")

	// Locate the columns we keep by header name; the file carries more.
	idx := make(map[string]int, len(disgenetColumns))
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range []string{"geneSymbol", "diseaseName"} {
		if _, ok := idx[col]; !ok {
			return nil, table.Schemaf("%s: missing %q column", DisGeNETCuratedAssociations, col)
		}
	}

	cells := make(map[string][]table.Value, len(disgenetColumns))
	rows := 0
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if pos, ok := idx["geneSymbol"]; !ok || pos >= len(fields) || strings.TrimSpace(fields[pos]) == "" {
			continue
		}
		for _, col := range disgenetColumns {
			pos, ok := idx[col]
			if !ok || pos >= len(fields) {
				cells[col] = append(cells[col], table.Missing())
				continue
			}
			cells[col] = append(cells[col], disgenetCell(col, strings.TrimSpace(fields[pos])))
		}
		rows++
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", DisGeNETCuratedAssociations, err)
	}

	tbl := table.New(d.Name())
	for _, col := range disgenetColumns {
		if _, ok := idx[col]; !ok {
			continue
		}
		if err := tbl.AddColumn(col, cells[col]); err != nil {
			return nil, err
		}
	}

	d.logger.Info("loaded DisGeNET associations", zap.Int("rows", rows))
	return tbl, nil
}

// disgenetCell parses one field, keeping score numeric.
func disgenetCell(col, field string) table.Value {
	if field == "" {
		return table.Missing()
	}
	if col == "score" {
		if n, err := strconv.ParseFloat(field, 64); err == nil {
			return table.Number(n)
		}
		return table.Missing()
	}
	return table.String(field)
}
