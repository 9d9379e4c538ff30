package dataset

import (
	"github.com/pkg/errors"

	"dbfixture/internal/datatype"
)

// ForwardOnlyTable allows a single pass over the rows of a table. Moving
// backwards and asking for the row count are unsupported.
type ForwardOnlyTable struct {
	table Table
	last  int
}

func NewForwardOnlyTable(t Table) *ForwardOnlyTable {
	return &ForwardOnlyTable{table: t, last: -1}
}

func (f *ForwardOnlyTable) TableMetaData() *TableMetaData {
	return f.table.TableMetaData()
}

func (f *ForwardOnlyTable) RowCount() (int, error) {
	return 0, &UnsupportedOperationError{Op: "row count on forward-only table"}
}

func (f *ForwardOnlyTable) Value(row int, column string) (any, error) {
	if row < f.last {
		return nil, &UnsupportedOperationError{Op: "backward access on forward-only table"}
	}
	v, err := f.table.Value(row, column)
	if err != nil {
		var oob *RowOutOfBoundsError
		if errors.As(err, &oob) {
			return nil, &RowOutOfBoundsError{Row: row, Count: -1}
		}
		return nil, err
	}
	f.last = row
	return v, nil
}

// ForwardOnlyDataSet offers only forward iteration over a dataset. Each table
// it yields is forward-only.
type ForwardOnlyDataSet struct {
	ds DataSet
}

func NewForwardOnlyDataSet(ds DataSet) *ForwardOnlyDataSet {
	return &ForwardOnlyDataSet{ds: ds}
}

func (f *ForwardOnlyDataSet) TableNames() ([]string, error) {
	return nil, &UnsupportedOperationError{Op: "table names on forward-only dataset"}
}

func (f *ForwardOnlyDataSet) TableMetaData(string) (*TableMetaData, error) {
	return nil, &UnsupportedOperationError{Op: "table lookup on forward-only dataset"}
}

func (f *ForwardOnlyDataSet) Table(string) (Table, error) {
	return nil, &UnsupportedOperationError{Op: "table lookup on forward-only dataset"}
}

func (f *ForwardOnlyDataSet) Iterator() (TableIterator, error) {
	it, err := f.ds.Iterator()
	if err != nil {
		return nil, err
	}
	return &forwardOnlyIterator{TableIterator: it}, nil
}

func (f *ForwardOnlyDataSet) ReverseIterator() (TableIterator, error) {
	return nil, &UnsupportedOperationError{Op: "reverse iteration on forward-only dataset"}
}

func (f *ForwardOnlyDataSet) CaseSensitive() bool {
	return f.ds.CaseSensitive()
}

type forwardOnlyIterator struct {
	TableIterator
}

func (it *forwardOnlyIterator) Table() (Table, error) {
	t, err := it.TableIterator.Table()
	if err != nil {
		return nil, err
	}
	return NewForwardOnlyTable(t), nil
}

// RowCursor is a single-pass source of rows, such as a database result set.
type RowCursor interface {
	datatype.Cursor
	Next() (bool, error)
	Close() error
}

// StreamingTable reads rows from a cursor as they are requested. Each row is
// decoded once with the column types; the cursor is closed when exhausted.
type StreamingTable struct {
	md      *TableMetaData
	cursor  RowCursor
	pos     int
	current []any
	done    bool
}

func NewStreamingTable(md *TableMetaData, cursor RowCursor) *StreamingTable {
	return &StreamingTable{md: md, cursor: cursor, pos: -1}
}

func (s *StreamingTable) TableMetaData() *TableMetaData {
	return s.md
}

func (s *StreamingTable) RowCount() (int, error) {
	return 0, &UnsupportedOperationError{Op: "row count on streaming table"}
}

func (s *StreamingTable) Value(row int, column string) (any, error) {
	if row < 0 {
		return nil, &RowOutOfBoundsError{Row: row, Count: -1}
	}
	i, err := s.md.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	if row < s.pos {
		return nil, &UnsupportedOperationError{Op: "backward access on streaming table"}
	}
	for s.pos < row {
		if err := s.advance(); err != nil {
			return nil, err
		}
		if s.done {
			return nil, &RowOutOfBoundsError{Row: row, Count: -1}
		}
	}
	return s.current[i], nil
}

func (s *StreamingTable) advance() error {
	if s.done {
		return nil
	}
	ok, err := s.cursor.Next()
	if err != nil {
		return err
	}
	if !ok {
		s.done = true
		return s.cursor.Close()
	}
	s.pos++
	cols := s.md.Columns()
	row := make([]any, len(cols))
	for i, c := range cols {
		v, err := c.DataType.ReadFrom(s.cursor, i)
		if err != nil {
			return err
		}
		row[i] = v
	}
	s.current = row
	return nil
}

// Close releases the cursor early.
func (s *StreamingTable) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.cursor.Close()
}
