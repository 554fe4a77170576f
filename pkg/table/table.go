// Package table implements an in-memory, column-oriented relation: an ordered
// set of uniquely named columns sharing one row count, with an optional row
// index. It is the unit of data flowing through the build pipeline: parsers
// produce Tables, cleaners rewrite them, and the combiner folds them into one.
//
// Design notes:
//
//   - Values are held as []any per column. Structural decoding leaves cells as
//     string or nil; typed coercion is a cleaner concern (see Coerce and
//     InferKind).
//   - Column returns a view: mutating elements of the returned Values slice
//     mutates the table. The pipeline owns its tables exclusively until the
//     final result is handed to the caller.
//   - Stack and Join allocate fresh tables and never alias their inputs.
package table

import (
	"fmt"

	"github.com/pkg/errors"
)

// Column is one named, ordered sequence of cell values.
type Column struct {
	Name   string
	Values []any
}

// Table is a set of columns sharing a row count, plus an optional index.
type Table struct {
	cols   []Column
	byName map[string]int
	index  *Column
}

// SchemaError reports a configured column that is absent from a table.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not present in table", e.Column)
}

// CombineError reports an invalid stack or join between two tables.
type CombineError struct {
	Reason string
}

func (e *CombineError) Error() string { return e.Reason }

// New builds a Table from the given columns. All columns must share one
// length and carry unique names.
func New(cols ...Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for _, c := range cols {
		if len(t.cols) > 0 && len(c.Values) != t.NumRows() {
			return nil, errors.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), t.NumRows())
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, errors.Errorf("duplicate column name %q", c.Name)
		}
		t.byName[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// NumRows returns the shared row count. A table with no columns has zero rows
// unless an index is set.
func (t *Table) NumRows() int {
	if len(t.cols) > 0 {
		return len(t.cols[0].Values)
	}
	if t.index != nil {
		return len(t.index.Values)
	}
	return 0
}

// NumCols returns the number of columns, excluding the index.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is a column of the table.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column returns the named column as a view. Mutating elements of the
// returned Values slice mutates the table.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Index returns the row index column, or nil when the table has none.
func (t *Table) Index() *Column { return t.index }

// SetIndex installs c as the row index. Its length must match the row count.
func (t *Table) SetIndex(c Column) error {
	if len(t.cols) > 0 && len(c.Values) != t.NumRows() {
		return errors.Errorf("index %q has %d rows, want %d", c.Name, len(c.Values), t.NumRows())
	}
	t.index = &c
	return nil
}

// PromoteIndex removes the named column from the column set and installs it
// as the row index.
func (t *Table) PromoteIndex(name string) error {
	i, ok := t.byName[name]
	if !ok {
		return &SchemaError{Column: name}
	}
	c := t.cols[i]
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.reindex()
	t.index = &c
	return nil
}

// Row returns row i as a name→value map. Intended for tests and small
// result inspection, not bulk access.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.cols))
	for _, c := range t.cols {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Project restricts the table to exactly the named columns, in the given
// order, preserving rows and the index. The returned table shares value
// slices with the receiver. A missing column yields a SchemaError.
func (t *Table) Project(names []string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	byName := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := t.byName[name]
		if !ok {
			return nil, &SchemaError{Column: name}
		}
		byName[name] = len(cols)
		cols = append(cols, t.cols[i])
	}
	return &Table{cols: cols, byName: byName, index: t.index}, nil
}

// AddSuffix renames every column name to name+suffix, in place. The index
// name is left untouched.
func (t *Table) AddSuffix(suffix string) error {
	return t.AddSuffixExcept(suffix)
}

// AddSuffixExcept renames column names to name+suffix, skipping the exempt
// names. Join keys stay recognizable across sources this way while every
// payload column carries its source's suffix. A rename that would produce a
// duplicate name (a suffixed column landing on an exempt one) is a
// CombineError and leaves the table unmodified.
func (t *Table) AddSuffixExcept(suffix string, exempt ...string) error {
	if suffix == "" {
		return nil
	}
	skip := make(map[string]bool, len(exempt))
	for _, name := range exempt {
		skip[name] = true
	}
	renamed := make([]string, len(t.cols))
	seen := make(map[string]int, len(t.cols))
	for i := range t.cols {
		name := t.cols[i].Name
		if !skip[name] {
			name += suffix
		}
		if _, dup := seen[name]; dup {
			return &CombineError{Reason: fmt.Sprintf("suffix %q produces duplicate column %q", suffix, name)}
		}
		seen[name] = i
		renamed[i] = name
	}
	for i := range t.cols {
		t.cols[i].Name = renamed[i]
	}
	t.reindex()
	return nil
}

// SelectRows returns a new table containing the given rows, in order. Row
// indexes may repeat. The index column follows the selection.
func (t *Table) SelectRows(rows []int) *Table {
	out := &Table{byName: make(map[string]int, len(t.cols))}
	for _, c := range t.cols {
		vals := make([]any, len(rows))
		for k, r := range rows {
			vals[k] = c.Values[r]
		}
		out.byName[c.Name] = len(out.cols)
		out.cols = append(out.cols, Column{Name: c.Name, Values: vals})
	}
	if t.index != nil {
		vals := make([]any, len(rows))
		for k, r := range rows {
			vals[k] = t.index.Values[r]
		}
		out.index = &Column{Name: t.index.Name, Values: vals}
	}
	return out
}

// Copy returns a deep-enough copy: fresh column and value slices, shared
// cell values.
func (t *Table) Copy() *Table {
	out := &Table{byName: make(map[string]int, len(t.cols))}
	for _, c := range t.cols {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		out.byName[c.Name] = len(out.cols)
		out.cols = append(out.cols, Column{Name: c.Name, Values: vals})
	}
	if t.index != nil {
		vals := make([]any, len(t.index.Values))
		copy(vals, t.index.Values)
		out.index = &Column{Name: t.index.Name, Values: vals}
	}
	return out
}

func (t *Table) reindex() {
	t.byName = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.byName[c.Name] = i
	}
}
