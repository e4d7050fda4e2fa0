// Package store persists annotation tables to DuckDB so downstream
// tooling can query them with SQL.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/omixdb/omix/internal/table"
)

// Store manages a DuckDB connection for persisting annotation tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveTable writes tbl to a DuckDB table of the given name, replacing
// any previous contents. Numeric columns map to DOUBLE; string and
// list cells map to VARCHAR (lists in their joined rendering); missing
// cells map to NULL.
func (s *Store) SaveTable(name string, tbl *table.Table) error {
	cols := tbl.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("save table %q: no columns", name)
	}

	defs := make([]string, len(cols))
	numeric := make([]bool, len(cols))
	for i, col := range cols {
		numeric[i] = columnIsNumeric(tbl, col)
		typ := "VARCHAR"
		if numeric[i] {
			typ = "DOUBLE"
		}
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), typ)
	}

	if _, err := s.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(name))); err != nil {
		return fmt.Errorf("drop table %q: %w", name, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := s.db.Exec(create); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		quoted[i] = quoteIdent(col)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(quoted, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for row := 0; row < tbl.NumRows(); row++ {
		args := make([]any, len(cols))
		for i, col := range cols {
			v := tbl.Cell(col, row)
			switch {
			case v.IsMissing():
				args[i] = nil
			case numeric[i]:
				if f, ok := v.Num(); ok {
					args[i] = f
				} else {
					args[i] = nil
				}
			default:
				args[i] = v.String()
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row %d: %w", row, err)
		}
	}

	return tx.Commit()
}

// RowCount returns the number of rows in a stored table.
func (s *Store) RowCount(name string) (int, error) {
	var count int
	err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(name))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rows in %q: %w", name, err)
	}
	return count, nil
}

// columnIsNumeric reports whether any non-missing cell is a number.
func columnIsNumeric(tbl *table.Table, col string) bool {
	for row := 0; row < tbl.NumRows(); row++ {
		v := tbl.Cell(col, row)
		if v.IsMissing() {
			continue
		}
		if _, ok := v.Num(); ok {
			return true
		}
		return false
	}
	return false
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
