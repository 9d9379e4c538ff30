package dataset

// Row is a read view over one row of a table.
type Row struct {
	table Table
	index int
}

// Index returns the row position in the underlying table.
func (r Row) Index() int {
	return r.index
}

// Value returns the cell for column.
func (r Row) Value(column string) (any, error) {
	return r.table.Value(r.index, column)
}

// RowPredicate decides whether a row is kept.
type RowPredicate func(r Row) (bool, error)

// RowFilterTable exposes a subset of the rows of a table, in their original
// order.
type RowFilterTable struct {
	table Table
	rows  []int
}

// NewRowFilterTable keeps the rows of t for which keep returns true.
func NewRowFilterTable(t Table, keep RowPredicate) (*RowFilterTable, error) {
	n, err := t.RowCount()
	if err != nil {
		return nil, err
	}
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ok, err := keep(Row{table: t, index: i})
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return &RowFilterTable{table: t, rows: rows}, nil
}

// NewRowSubsetTable exposes the rows of t at the given positions.
func NewRowSubsetTable(t Table, rows []int) (*RowFilterTable, error) {
	n, err := t.RowCount()
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r < 0 || r >= n {
			return nil, &RowOutOfBoundsError{Row: r, Count: n}
		}
	}
	return &RowFilterTable{table: t, rows: append([]int(nil), rows...)}, nil
}

func (f *RowFilterTable) TableMetaData() *TableMetaData {
	return f.table.TableMetaData()
}

func (f *RowFilterTable) RowCount() (int, error) {
	return len(f.rows), nil
}

func (f *RowFilterTable) Value(row int, column string) (any, error) {
	if row < 0 || row >= len(f.rows) {
		return nil, &RowOutOfBoundsError{Row: row, Count: len(f.rows)}
	}
	return f.table.Value(f.rows[row], column)
}
