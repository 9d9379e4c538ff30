package dataset

import (
	"strings"
)

// DataSet is a named collection of tables in a stable order.
type DataSet interface {
	// TableNames returns a fresh slice; callers may modify it.
	TableNames() ([]string, error)
	TableMetaData(name string) (*TableMetaData, error)
	Table(name string) (Table, error)
	Iterator() (TableIterator, error)
	ReverseIterator() (TableIterator, error)
	CaseSensitive() bool
}

// TableIterator walks the tables of a dataset.
type TableIterator interface {
	Next() (bool, error)
	Table() (Table, error)
	TableMetaData() (*TableMetaData, error)
}

// normalizeName returns the lookup key of a table name.
func normalizeName(name string, caseSensitive bool) string {
	if caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}

// orderedTables keeps tables in insertion order with a name index.
type orderedTables struct {
	caseSensitive bool
	tables        []Table
	index         map[string]int
}

func newOrderedTables(caseSensitive bool) *orderedTables {
	return &orderedTables{caseSensitive: caseSensitive, index: map[string]int{}}
}

func (o *orderedTables) add(t Table) error {
	name := t.TableMetaData().TableName()
	key := normalizeName(name, o.caseSensitive)
	if _, ok := o.index[key]; ok {
		return &AmbiguousTableNameError{Name: name}
	}
	o.index[key] = len(o.tables)
	o.tables = append(o.tables, t)
	return nil
}

func (o *orderedTables) get(name string) (Table, bool) {
	i, ok := o.index[normalizeName(name, o.caseSensitive)]
	if !ok {
		return nil, false
	}
	return o.tables[i], true
}

func (o *orderedTables) replace(t Table) {
	i := o.index[normalizeName(t.TableMetaData().TableName(), o.caseSensitive)]
	o.tables[i] = t
}

// DefaultDataSet is an in-memory dataset.
type DefaultDataSet struct {
	tables *orderedTables
}

// NewDataSet returns a dataset holding tables in order. Two tables whose
// names collide under caseSensitive fail with AmbiguousTableNameError.
func NewDataSet(caseSensitive bool, tables ...Table) (*DefaultDataSet, error) {
	ds := &DefaultDataSet{tables: newOrderedTables(caseSensitive)}
	for _, t := range tables {
		if err := ds.tables.add(t); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (ds *DefaultDataSet) TableNames() ([]string, error) {
	names := make([]string, len(ds.tables.tables))
	for i, t := range ds.tables.tables {
		names[i] = t.TableMetaData().TableName()
	}
	return names, nil
}

func (ds *DefaultDataSet) TableMetaData(name string) (*TableMetaData, error) {
	t, err := ds.Table(name)
	if err != nil {
		return nil, err
	}
	return t.TableMetaData(), nil
}

func (ds *DefaultDataSet) Table(name string) (Table, error) {
	t, ok := ds.tables.get(name)
	if !ok {
		return nil, &NoSuchTableError{Name: name}
	}
	return t, nil
}

func (ds *DefaultDataSet) Iterator() (TableIterator, error) {
	return newSliceIterator(ds.tables.tables, false), nil
}

func (ds *DefaultDataSet) ReverseIterator() (TableIterator, error) {
	return newSliceIterator(ds.tables.tables, true), nil
}

func (ds *DefaultDataSet) CaseSensitive() bool {
	return ds.tables.caseSensitive
}

// Tables collects every table of ds in forward iteration order.
func Tables(ds DataSet) ([]Table, error) {
	it, err := ds.Iterator()
	if err != nil {
		return nil, err
	}
	var tables []Table
	for {
		ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tables, nil
		}
		t, err := it.Table()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
}

type sliceIterator struct {
	tables  []Table
	pos     int
	reverse bool
}

func newSliceIterator(tables []Table, reverse bool) *sliceIterator {
	it := &sliceIterator{tables: append([]Table(nil), tables...), pos: -1, reverse: reverse}
	if reverse {
		it.pos = len(it.tables)
	}
	return it
}

func (it *sliceIterator) Next() (bool, error) {
	if it.reverse {
		if it.pos > 0 {
			it.pos--
			return true, nil
		}
		it.pos = -1
		return false, nil
	}
	if it.pos < len(it.tables)-1 {
		it.pos++
		return true, nil
	}
	it.pos = len(it.tables)
	return false, nil
}

func (it *sliceIterator) Table() (Table, error) {
	if it.pos < 0 || it.pos >= len(it.tables) {
		return nil, &RowOutOfBoundsError{Row: it.pos, Count: len(it.tables)}
	}
	return it.tables[it.pos], nil
}

func (it *sliceIterator) TableMetaData() (*TableMetaData, error) {
	t, err := it.Table()
	if err != nil {
		return nil, err
	}
	return t.TableMetaData(), nil
}

// namedIterator walks a fixed list of names, resolving each through a
// lookup function.
type namedIterator struct {
	names  []string
	pos    int
	lookup func(string) (Table, error)
}

func newNamedIterator(names []string, reverse bool, lookup func(string) (Table, error)) *namedIterator {
	ordered := append([]string(nil), names...)
	if reverse {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}
	return &namedIterator{names: ordered, pos: -1, lookup: lookup}
}

func (it *namedIterator) Next() (bool, error) {
	if it.pos < len(it.names)-1 {
		it.pos++
		return true, nil
	}
	it.pos = len(it.names)
	return false, nil
}

func (it *namedIterator) Table() (Table, error) {
	if it.pos < 0 || it.pos >= len(it.names) {
		return nil, &RowOutOfBoundsError{Row: it.pos, Count: len(it.names)}
	}
	return it.lookup(it.names[it.pos])
}

func (it *namedIterator) TableMetaData() (*TableMetaData, error) {
	t, err := it.Table()
	if err != nil {
		return nil, err
	}
	return t.TableMetaData(), nil
}

// NewNameIterator returns an iterator over names resolved through lookup.
// Data sources that load tables lazily use it.
func NewNameIterator(names []string, reverse bool, lookup func(string) (Table, error)) TableIterator {
	return newNamedIterator(names, reverse, lookup)
}
