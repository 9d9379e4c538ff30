package dataset

// ColumnFilter decides whether a column of a table is kept.
type ColumnFilter interface {
	Accept(table string, c Column) bool
}

// ColumnFilterFunc adapts a function to ColumnFilter.
type ColumnFilterFunc func(table string, c Column) bool

func (f ColumnFilterFunc) Accept(table string, c Column) bool {
	return f(table, c)
}

// PatternColumnFilter keeps columns that match an include pattern, or any
// column when there are none, and match no exclude pattern. Patterns are
// case-insensitive globs.
type PatternColumnFilter struct {
	include patternSet
	exclude patternSet
}

func NewPatternColumnFilter(include, exclude []string) *PatternColumnFilter {
	return &PatternColumnFilter{include: newPatternSet(include), exclude: newPatternSet(exclude)}
}

func (f *PatternColumnFilter) Accept(_ string, c Column) bool {
	if !f.include.empty() && !f.include.match(c.Name) {
		return false
	}
	return !f.exclude.match(c.Name)
}

// ColumnFilterTable exposes a subset of the columns of a table. Primary key
// columns that are filtered out leave the key.
type ColumnFilterTable struct {
	table Table
	md    *TableMetaData
}

func NewColumnFilterTable(t Table, filter ColumnFilter) *ColumnFilterTable {
	src := t.TableMetaData()
	var cols []Column
	for _, c := range src.Columns() {
		if filter.Accept(src.TableName(), c) {
			cols = append(cols, c)
		}
	}
	var pks []string
	for _, pk := range src.PrimaryKeys() {
		if filter.Accept(src.TableName(), pk) {
			pks = append(pks, pk.Name)
		}
	}
	return &ColumnFilterTable{table: t, md: NewTableMetaData(src.TableName(), cols, pks...)}
}

// NewExcludedColumnsTable drops the named columns from t.
func NewExcludedColumnsTable(t Table, columns ...string) *ColumnFilterTable {
	return NewColumnFilterTable(t, NewPatternColumnFilter(nil, columns))
}

// NewIncludedColumnsTable keeps only the named columns of t.
func NewIncludedColumnsTable(t Table, columns ...string) *ColumnFilterTable {
	return NewColumnFilterTable(t, NewPatternColumnFilter(columns, nil))
}

func (f *ColumnFilterTable) TableMetaData() *TableMetaData {
	return f.md
}

func (f *ColumnFilterTable) RowCount() (int, error) {
	return f.table.RowCount()
}

func (f *ColumnFilterTable) Value(row int, column string) (any, error) {
	if _, err := f.md.ColumnIndex(column); err != nil {
		return nil, err
	}
	return f.table.Value(row, column)
}
