// Package tabular evaluates the in-memory rule vocabulary against a
// columnar table, for sources that cannot execute SQL or for local
// dry-runs. It mirrors the outcome shape of the SQL compiler: one result
// row per rule with total/failed/passed counts and a status.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Value is one cell. nil represents NULL/missing.
type Value = any

// Table is an immutable in-memory columnar table with named columns.
type Table struct {
	names   []string
	columns map[string][]Value
	rows    int
}

// New builds a table from ordered column names and per-column values.
// All columns must have the same length.
func New(names []string, columns map[string][]Value) (*Table, error) {
	rows := -1
	for _, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("column %q has no values", name)
		}
		if rows == -1 {
			rows = len(col)
		} else if len(col) != rows {
			return nil, fmt.Errorf("column %q has %d values, expected %d", name, len(col), rows)
		}
	}
	if rows == -1 {
		rows = 0
	}
	return &Table{names: names, columns: columns, rows: rows}, nil
}

// FromCSV reads a table from CSV with a header row. Empty fields become
// NULL; everything else stays a string (range checks coerce lazily).
func FromCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string][]Value, len(header))
	for _, name := range header {
		columns[name] = nil
	}

	rows := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rows+1, err)
		}
		for i, name := range header {
			if record[i] == "" {
				columns[name] = append(columns[name], nil)
			} else {
				columns[name] = append(columns[name], record[i])
			}
		}
		rows++
	}

	return &Table{names: header, columns: columns, rows: rows}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.names
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return t.rows
}

// Column returns the values of a named column.
func (t *Table) Column(name string) ([]Value, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// NullCount returns the number of NULL values in a column.
func (t *Table) NullCount(name string) int {
	col, ok := t.columns[name]
	if !ok {
		return 0
	}
	n := 0
	for _, v := range col {
		if v == nil {
			n++
		}
	}
	return n
}
