package dataset

import (
	"github.com/pkg/errors"
)

// CompositePolicy decides what happens when two datasets share a table name.
type CompositePolicy int

const (
	// FailOnDuplicate rejects a repeated name with AmbiguousTableNameError.
	FailOnDuplicate CompositePolicy = iota
	// CombineDuplicates merges same-named tables into one composite table
	// whose rows are the concatenation, in dataset order.
	CombineDuplicates
)

// NewCompositeDataSet merges sets into one dataset, keeping the table order
// in which the names first appear.
func NewCompositeDataSet(policy CompositePolicy, caseSensitive bool, sets ...DataSet) (*DefaultDataSet, error) {
	merged := newOrderedTables(caseSensitive)
	for _, ds := range sets {
		tables, err := Tables(ds)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			existing, ok := merged.get(t.TableMetaData().TableName())
			if !ok {
				if err := merged.add(t); err != nil {
					return nil, err
				}
				continue
			}
			if policy == FailOnDuplicate {
				return nil, &AmbiguousTableNameError{Name: t.TableMetaData().TableName()}
			}
			combined, err := NewCompositeTable(existing.TableMetaData(), existing, t)
			if err != nil {
				return nil, err
			}
			merged.replace(combined)
		}
	}
	return &DefaultDataSet{tables: merged}, nil
}

// CompositeTable concatenates the rows of several tables under one metadata.
type CompositeTable struct {
	md     *TableMetaData
	tables []Table
	counts []int
}

// NewCompositeTable returns the rows of tables in order under md. Every part
// must support RowCount.
func NewCompositeTable(md *TableMetaData, tables ...Table) (*CompositeTable, error) {
	ct := &CompositeTable{md: md}
	for _, t := range tables {
		// flatten nested composites so lookups stay one level deep
		if nested, ok := t.(*CompositeTable); ok {
			ct.tables = append(ct.tables, nested.tables...)
			ct.counts = append(ct.counts, nested.counts...)
			continue
		}
		n, err := t.RowCount()
		if err != nil {
			return nil, errors.Wrapf(err, "composite table %s", md.TableName())
		}
		ct.tables = append(ct.tables, t)
		ct.counts = append(ct.counts, n)
	}
	return ct, nil
}

func (ct *CompositeTable) TableMetaData() *TableMetaData {
	return ct.md
}

func (ct *CompositeTable) RowCount() (int, error) {
	total := 0
	for _, n := range ct.counts {
		total += n
	}
	return total, nil
}

func (ct *CompositeTable) Value(row int, column string) (any, error) {
	if row < 0 {
		return nil, &RowOutOfBoundsError{Row: row, Count: ct.total()}
	}
	if _, err := ct.md.ColumnIndex(column); err != nil {
		return nil, err
	}
	offset := row
	for i, t := range ct.tables {
		if offset < ct.counts[i] {
			if !t.TableMetaData().HasColumn(column) {
				return NoValue, nil
			}
			return t.Value(offset, column)
		}
		offset -= ct.counts[i]
	}
	return nil, &RowOutOfBoundsError{Row: row, Count: ct.total()}
}

func (ct *CompositeTable) total() int {
	n, _ := ct.RowCount()
	return n
}
