package dataset

// PaddedTable presents a table under wider metadata. Columns the underlying
// table lacks read as NoValue.
type PaddedTable struct {
	table Table
	md    *TableMetaData
}

// NewPaddedTable lays t out with columns. Primary keys are kept from t.
func NewPaddedTable(t Table, columns []Column) *PaddedTable {
	src := t.TableMetaData()
	return &PaddedTable{
		table: t,
		md:    NewTableMetaData(src.TableName(), columns, ColumnNames(src.PrimaryKeys())...),
	}
}

func (p *PaddedTable) TableMetaData() *TableMetaData {
	return p.md
}

func (p *PaddedTable) RowCount() (int, error) {
	return p.table.RowCount()
}

func (p *PaddedTable) Value(row int, column string) (any, error) {
	if _, err := p.md.ColumnIndex(column); err != nil {
		return nil, err
	}
	if !p.table.TableMetaData().HasColumn(column) {
		n, err := p.table.RowCount()
		if err == nil && (row < 0 || row >= n) {
			return nil, &RowOutOfBoundsError{Row: row, Count: n}
		}
		return NoValue, nil
	}
	return p.table.Value(row, column)
}
