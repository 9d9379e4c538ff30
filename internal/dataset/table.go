package dataset

import (
	"github.com/pkg/errors"
)

// Table is a readable, typed table.
type Table interface {
	TableMetaData() *TableMetaData
	// RowCount fails with UnsupportedOperationError on forward-only tables.
	RowCount() (int, error)
	// Value returns the cell at row for column. Columns the table never
	// populated yield NoValue.
	Value(row int, column string) (any, error)
}

// DefaultTable is an in-memory table.
type DefaultTable struct {
	md   *TableMetaData
	rows [][]any
}

// NewTable returns an empty table for md.
func NewTable(md *TableMetaData) *DefaultTable {
	return &DefaultTable{md: md}
}

// NewTableWithRows returns a table for md holding rows. Every row must carry
// one value per column.
func NewTableWithRows(md *TableMetaData, rows [][]any) (*DefaultTable, error) {
	t := NewTable(md)
	for _, r := range rows {
		if err := t.AddRow(r...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddRow appends a row. It is meant for building a table before it is
// shared.
func (t *DefaultTable) AddRow(values ...any) error {
	if len(values) != t.md.ColumnCount() {
		return errors.Errorf("table %s: row has %d values, want %d", t.md.TableName(), len(values), t.md.ColumnCount())
	}
	t.rows = append(t.rows, append([]any(nil), values...))
	return nil
}

func (t *DefaultTable) TableMetaData() *TableMetaData {
	return t.md
}

func (t *DefaultTable) RowCount() (int, error) {
	return len(t.rows), nil
}

func (t *DefaultTable) Value(row int, column string) (any, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, &RowOutOfBoundsError{Row: row, Count: len(t.rows)}
	}
	i, err := t.md.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	return t.rows[row][i], nil
}

// Row returns a copy of the values at row.
func (t *DefaultTable) Row(row int) ([]any, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, &RowOutOfBoundsError{Row: row, Count: len(t.rows)}
	}
	return append([]any(nil), t.rows[row]...), nil
}

// RowValues reads every column of row from t in metadata order.
func RowValues(t Table, row int) ([]any, error) {
	cols := t.TableMetaData().Columns()
	values := make([]any, len(cols))
	for i, c := range cols {
		v, err := t.Value(row, c.Name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
