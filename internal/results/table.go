// Package results holds analysis output: the per-frame results table,
// its TSV serialization, the JSON metadata sidecar carrying provenance
// (parameters, transforms, paths), and the raw contour-coordinate
// store.
package results

import (
	"fmt"
	"math"
)

// Table accumulates one row of float64 values per processed frame,
// indexed by frame num. Missing measurements are NaN. Rows are written
// once and never mutated.
type Table struct {
	Columns []string
	Index   []int
	rows    map[int][]float64
}

// NewTable creates an empty table with the given column names.
func NewTable(columns []string) *Table {
	return &Table{
		Columns: columns,
		rows:    make(map[int][]float64),
	}
}

// SetRow records the values for frame num. The first write of a num
// appends it to the index; rewriting an existing num replaces the row
// in place (used when re-running single frames).
func (t *Table) SetRow(num int, values []float64) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row for frame %d has %d values, table has %d columns",
			num, len(values), len(t.Columns))
	}
	if _, ok := t.rows[num]; !ok {
		t.Index = append(t.Index, num)
	}
	row := make([]float64, len(values))
	copy(row, values)
	t.rows[num] = row
	return nil
}

// Row returns the values for frame num.
func (t *Table) Row(num int) ([]float64, bool) {
	row, ok := t.rows[num]
	return row, ok
}

// At returns the value at (num, column name).
func (t *Table) At(num int, column string) (float64, bool) {
	row, ok := t.rows[num]
	if !ok {
		return math.NaN(), false
	}
	for i, c := range t.Columns {
		if c == column {
			return row[i], true
		}
	}
	return math.NaN(), false
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Index) }
