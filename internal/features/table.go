package features

import (
	"fmt"
	"math"
)

// Table is an ordered column store holding the engineered feature matrix.
// Numeric and categorical columns are kept separately because the trainer
// encodes them differently. Column order is insertion order and is stable
// across runs.
type Table struct {
	rows int

	numericNames []string
	numeric      map[string][]float64

	categoricalNames []string
	categorical      map[string][]string
}

// NewTable creates an empty table with a fixed row count.
func NewTable(rows int) *Table {
	return &Table{
		rows:        rows,
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() int { return t.rows }

// AddNumeric appends a numeric column. Missing values are NaN; imputation is
// the trainer's job, not the engine's.
func (t *Table) AddNumeric(name string, values []float64) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if _, exists := t.numeric[name]; exists {
		return fmt.Errorf("numeric column %q already present", name)
	}
	t.numericNames = append(t.numericNames, name)
	t.numeric[name] = values
	return nil
}

// AddCategorical appends a categorical column.
func (t *Table) AddCategorical(name string, values []string) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if _, exists := t.categorical[name]; exists {
		return fmt.Errorf("categorical column %q already present", name)
	}
	t.categoricalNames = append(t.categoricalNames, name)
	t.categorical[name] = values
	return nil
}

// NumericNames returns the numeric column names in insertion order.
func (t *Table) NumericNames() []string {
	out := make([]string, len(t.numericNames))
	copy(out, t.numericNames)
	return out
}

// CategoricalNames returns the categorical column names in insertion order.
func (t *Table) CategoricalNames() []string {
	out := make([]string, len(t.categoricalNames))
	copy(out, t.categoricalNames)
	return out
}

// Numeric returns the backing slice for a numeric column, or nil.
func (t *Table) Numeric(name string) []float64 {
	return t.numeric[name]
}

// Categorical returns the backing slice for a categorical column, or nil.
func (t *Table) Categorical(name string) []string {
	return t.categorical[name]
}

// HasNumeric reports whether a numeric column exists.
func (t *Table) HasNumeric(name string) bool {
	_, ok := t.numeric[name]
	return ok
}

// DropNumeric removes a numeric column if present.
func (t *Table) DropNumeric(name string) {
	if _, ok := t.numeric[name]; !ok {
		return
	}
	delete(t.numeric, name)
	for i, n := range t.numericNames {
		if n == name {
			t.numericNames = append(t.numericNames[:i], t.numericNames[i+1:]...)
			break
		}
	}
}

// NumericValue returns one cell of a numeric column, NaN when the column is
// absent.
func (t *Table) NumericValue(name string, row int) float64 {
	col, ok := t.numeric[name]
	if !ok || row < 0 || row >= len(col) {
		return math.NaN()
	}
	return col[row]
}

// CategoricalValue returns one cell of a categorical column, "" when absent.
func (t *Table) CategoricalValue(name string, row int) string {
	col, ok := t.categorical[name]
	if !ok || row < 0 || row >= len(col) {
		return ""
	}
	return col[row]
}
