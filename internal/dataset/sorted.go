package dataset

import (
	"sort"

	"dbfixture/internal/datatype"
)

// SortedTable exposes the rows of a table ordered by a list of columns.
type SortedTable struct {
	table Table
	order []int
}

// SortOption tunes NewSortedTable.
type SortOption func(*sortConfig)

type sortConfig struct {
	columns []string
	typed   bool
}

// SortBy orders rows by the named columns instead of the primary key.
func SortBy(columns ...string) SortOption {
	return func(c *sortConfig) { c.columns = append([]string(nil), columns...) }
}

// SortTyped compares cells with their column type instead of their string
// form, so 2 sorts before 10.
func SortTyped() SortOption {
	return func(c *sortConfig) { c.typed = true }
}

// NewSortedTable sorts t. Without SortBy the primary key is used, or every
// column when the table has no key. The sort is stable.
func NewSortedTable(t Table, opts ...SortOption) (*SortedTable, error) {
	var cfg sortConfig
	for _, o := range opts {
		o(&cfg)
	}
	md := t.TableMetaData()
	var cols []Column
	if len(cfg.columns) > 0 {
		for _, name := range cfg.columns {
			c, err := md.Column(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
	} else {
		cols = md.PrimaryKeys()
		if len(cols) == 0 {
			cols = md.Columns()
		}
	}

	n, err := t.RowCount()
	if err != nil {
		return nil, err
	}
	keys := make([][]any, n)
	for i := range keys {
		keys[i] = make([]any, len(cols))
		for j, c := range cols {
			v, err := t.Value(i, c.Name)
			if err != nil {
				return nil, err
			}
			if !cfg.typed {
				if v, err = lexicalKey(v); err != nil {
					return nil, err
				}
			}
			keys[i][j] = v
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	var sortErr error
	sort.SliceStable(order, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		ka, kb := keys[order[a]], keys[order[b]]
		for j, c := range cols {
			dt := datatype.Varchar
			if cfg.typed {
				dt = c.DataType
			}
			cmp, err := dt.Compare(ka[j], kb[j])
			if err != nil {
				sortErr = err
				return false
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &SortedTable{table: t, order: order}, nil
}

func lexicalKey(v any) (any, error) {
	if v == nil || v == NoValue {
		return nil, nil
	}
	return datatype.Varchar.TypeCast(v)
}

func (s *SortedTable) TableMetaData() *TableMetaData {
	return s.table.TableMetaData()
}

func (s *SortedTable) RowCount() (int, error) {
	return len(s.order), nil
}

func (s *SortedTable) Value(row int, column string) (any, error) {
	if row < 0 || row >= len(s.order) {
		return nil, &RowOutOfBoundsError{Row: row, Count: len(s.order)}
	}
	return s.table.Value(s.order[row], column)
}
