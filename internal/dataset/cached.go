package dataset

// NewCachedTable copies t into memory. Tables without a row count, such as
// forward-only ones, are read until the first out-of-bounds row.
func NewCachedTable(t Table) (*DefaultTable, error) {
	md := t.TableMetaData()
	cached := NewTable(md)
	n, err := t.RowCount()
	switch {
	case err == nil:
		for i := 0; i < n; i++ {
			row, err := RowValues(t, i)
			if err != nil {
				return nil, err
			}
			cached.rows = append(cached.rows, row)
		}
		return cached, nil
	case IsUnsupported(err):
	default:
		return nil, err
	}
	if md.ColumnCount() == 0 {
		return cached, nil
	}
	for i := 0; ; i++ {
		row, err := RowValues(t, i)
		if IsRowOutOfBounds(err) {
			return cached, nil
		}
		if err != nil {
			return nil, err
		}
		cached.rows = append(cached.rows, row)
	}
}

// NewCachedDataSet copies every table of ds into memory in one forward pass,
// so forward-only sources become randomly accessible.
func NewCachedDataSet(ds DataSet) (*DefaultDataSet, error) {
	cached := &DefaultDataSet{tables: newOrderedTables(ds.CaseSensitive())}
	it, err := ds.Iterator()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return cached, nil
		}
		t, err := it.Table()
		if err != nil {
			return nil, err
		}
		ct, err := NewCachedTable(t)
		if err != nil {
			return nil, err
		}
		if err := cached.tables.add(ct); err != nil {
			return nil, err
		}
	}
}
