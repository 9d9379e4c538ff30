// Package dataset models typed tables and named collections of them, plus
// the decorators that filter, merge, sort, replace and cache them.
package dataset

import (
	"strings"

	"dbfixture/internal/datatype"
)

// NoValue is the cell value of a column a table never populated.
var NoValue = datatype.NoValue

// Nullability of a column.
type Nullability int

const (
	NullableUnknown Nullability = iota
	NoNulls
	Nullable
)

func (n Nullability) String() string {
	switch n {
	case NoNulls:
		return "NOT_NULL"
	case Nullable:
		return "NULLABLE"
	}
	return "UNKNOWN"
}

// Column describes one column of a table.
type Column struct {
	Name     string
	DataType datatype.DataType
	Nullable Nullability
}

// NewColumn returns a column of unknown nullability.
func NewColumn(name string, dt datatype.DataType) Column {
	if dt == nil {
		dt = datatype.Unknown
	}
	return Column{Name: name, DataType: dt, Nullable: NullableUnknown}
}

// TableMetaData is the shape of a table: its name, ordered columns and
// ordered primary key. Column lookup is case-insensitive.
type TableMetaData struct {
	name        string
	columns     []Column
	primaryKeys []Column
	dropped     []string
	index       map[string]int
}

// NewTableMetaData builds metadata for name. Primary key names that match no
// column are dropped; DroppedKeys reports them.
func NewTableMetaData(name string, columns []Column, primaryKeys ...string) *TableMetaData {
	md := &TableMetaData{
		name:    name,
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range md.columns {
		key := strings.ToUpper(c.Name)
		if _, ok := md.index[key]; !ok {
			md.index[key] = i
		}
	}
	for _, pk := range primaryKeys {
		i, ok := md.index[strings.ToUpper(pk)]
		if !ok {
			md.dropped = append(md.dropped, pk)
			continue
		}
		md.primaryKeys = append(md.primaryKeys, md.columns[i])
	}
	return md
}

// TableName returns the table name.
func (md *TableMetaData) TableName() string {
	return md.name
}

// Columns returns a copy of the ordered columns.
func (md *TableMetaData) Columns() []Column {
	return append([]Column(nil), md.columns...)
}

// ColumnCount returns the number of columns.
func (md *TableMetaData) ColumnCount() int {
	return len(md.columns)
}

// PrimaryKeys returns a copy of the ordered primary key columns.
func (md *TableMetaData) PrimaryKeys() []Column {
	return append([]Column(nil), md.primaryKeys...)
}

// DroppedKeys returns the requested primary key names that matched no column.
func (md *TableMetaData) DroppedKeys() []string {
	return append([]string(nil), md.dropped...)
}

// ColumnIndex resolves name to its position.
func (md *TableMetaData) ColumnIndex(name string) (int, error) {
	i, ok := md.index[strings.ToUpper(name)]
	if !ok {
		return -1, &NoSuchColumnError{Table: md.name, Column: name}
	}
	return i, nil
}

// Column resolves name to its column.
func (md *TableMetaData) Column(name string) (Column, error) {
	i, err := md.ColumnIndex(name)
	if err != nil {
		return Column{}, err
	}
	return md.columns[i], nil
}

// HasColumn reports whether name resolves.
func (md *TableMetaData) HasColumn(name string) bool {
	_, ok := md.index[strings.ToUpper(name)]
	return ok
}

// WithName returns a copy of the metadata under a different table name.
func (md *TableMetaData) WithName(name string) *TableMetaData {
	return NewTableMetaData(name, md.columns, columnNames(md.primaryKeys)...)
}

// ColumnNames returns the names of cols.
func ColumnNames(cols []Column) []string {
	return columnNames(cols)
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
