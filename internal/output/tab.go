// Package output provides annotation table output formatters.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/omixdb/omix/internal/table"
)

// TabWriter writes a table in tab-delimited format. Missing cells are
// rendered as "-".
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteTable writes the header line followed by every row, then
// flushes.
func (tw *TabWriter) WriteTable(tbl *table.Table) error {
	cols := tbl.Columns()
	if _, err := tw.w.WriteString("#" + strings.Join(cols, "\t") + "\n"); err != nil {
		return err
	}

	fields := make([]string, len(cols))
	for row := 0; row < tbl.NumRows(); row++ {
		for i, col := range cols {
			v := tbl.Cell(col, row)
			if v.IsMissing() {
				fields[i] = "-"
			} else {
				fields[i] = v.String()
			}
		}
		if _, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return err
		}
	}
	return tw.w.Flush()
}
