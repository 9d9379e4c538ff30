// Package assertion compares expected and actual tables cell by cell using
// the semantic column types.
package assertion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stretchr/testify/assert"

	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
)

// Difference is one cell whose expected and actual values compare unequal.
type Difference struct {
	Table    string `json:"table"`
	Row      int    `json:"row"`
	Column   string `json:"column"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

func (d Difference) String() string {
	return fmt.Sprintf("%s[%d].%s: expected <%v> but was <%v>", d.Table, d.Row, d.Column, d.Expected, d.Actual)
}

// ShapeError reports tables or datasets that differ before any cell is
// compared: a different row count or table set.
type ShapeError struct {
	Table    string
	Reason   string
	Expected any
	Actual   any
}

func (e *ShapeError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: expected %v but was %v", e.Reason, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: %s: expected %v but was %v", e.Table, e.Reason, e.Expected, e.Actual)
}

// Comparer holds the options of a comparison.
type Comparer struct {
	// Tolerances relaxes numeric comparison for configured columns.
	Tolerances *datatype.ToleratedDeltaMap
	// SortRows orders both sides by primary key before comparing.
	SortRows bool
}

// CompareTables compares actual against expected. Both are laid out on the
// union of their columns; a column the expected table lacks is not checked.
func (c *Comparer) CompareTables(expected, actual dataset.Table) ([]Difference, error) {
	name := expected.TableMetaData().TableName()
	en, err := expected.RowCount()
	if err != nil {
		return nil, err
	}
	an, err := actual.RowCount()
	if err != nil {
		return nil, err
	}
	if en != an {
		return nil, &ShapeError{Table: name, Reason: "row count", Expected: en, Actual: an}
	}

	cols := unionColumns(expected.TableMetaData(), actual.TableMetaData())
	exp := dataset.Table(dataset.NewPaddedTable(expected, cols))
	act := dataset.Table(dataset.NewPaddedTable(actual, cols))
	if c.SortRows {
		if exp, err = dataset.NewSortedTable(exp, dataset.SortTyped()); err != nil {
			return nil, err
		}
		if act, err = dataset.NewSortedTable(act, dataset.SortTyped()); err != nil {
			return nil, err
		}
	}

	var diffs []Difference
	for row := 0; row < en; row++ {
		for _, col := range cols {
			ev, err := exp.Value(row, col.Name)
			if err != nil {
				return nil, err
			}
			if ev == dataset.NoValue {
				continue
			}
			av, err := act.Value(row, col.Name)
			if err != nil {
				return nil, err
			}
			if av == dataset.NoValue {
				diffs = append(diffs, Difference{Table: name, Row: row, Column: col.Name, Expected: ev, Actual: av})
				continue
			}
			dt := col.DataType
			if dt == nil {
				dt = datatype.Unknown
			}
			dt = c.Tolerances.Apply(name, col.Name, dt)
			cmp, err := dt.Compare(ev, av)
			if err != nil {
				return nil, err
			}
			if cmp != 0 {
				diffs = append(diffs, Difference{Table: name, Row: row, Column: col.Name, Expected: ev, Actual: av})
			}
		}
	}
	return diffs, nil
}

// CompareDataSets compares every table of expected with the same-named
// table of actual. The two table sets must match.
func (c *Comparer) CompareDataSets(expected, actual dataset.DataSet) ([]Difference, error) {
	en, err := expected.TableNames()
	if err != nil {
		return nil, err
	}
	an, err := actual.TableNames()
	if err != nil {
		return nil, err
	}
	if !sameNames(en, an) {
		return nil, &ShapeError{Reason: "table names", Expected: en, Actual: an}
	}
	var diffs []Difference
	for _, name := range en {
		et, err := expected.Table(name)
		if err != nil {
			return nil, err
		}
		at, err := actual.Table(name)
		if err != nil {
			return nil, err
		}
		d, err := c.CompareTables(et, at)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d...)
	}
	return diffs, nil
}

// unionColumns lists the expected columns, then the actual-only ones. A
// column typed UNKNOWN on the expected side takes the actual type.
func unionColumns(expected, actual *dataset.TableMetaData) []dataset.Column {
	cols := expected.Columns()
	for i, c := range cols {
		if c.DataType == datatype.Unknown {
			if ac, err := actual.Column(c.Name); err == nil {
				cols[i].DataType = ac.DataType
			}
		}
	}
	for _, c := range actual.Columns() {
		if !expected.HasColumn(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	norm := func(xs []string) []string {
		out := make([]string, len(xs))
		for i, x := range xs {
			out[i] = strings.ToUpper(x)
		}
		sort.Strings(out)
		return out
	}
	na, nb := norm(a), norm(b)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// AssertTableEquals fails t when actual differs from expected.
func AssertTableEquals(t assert.TestingT, expected, actual dataset.Table, c *Comparer) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if c == nil {
		c = &Comparer{}
	}
	diffs, err := c.CompareTables(expected, actual)
	return report(t, diffs, err)
}

// AssertDataSetEquals fails t when actual differs from expected.
func AssertDataSetEquals(t assert.TestingT, expected, actual dataset.DataSet, c *Comparer) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if c == nil {
		c = &Comparer{}
	}
	diffs, err := c.CompareDataSets(expected, actual)
	return report(t, diffs, err)
}

func report(t assert.TestingT, diffs []Difference, err error) bool {
	if err != nil {
		return assert.Fail(t, err.Error())
	}
	if len(diffs) == 0 {
		return true
	}
	lines := make([]string, len(diffs))
	for i, d := range diffs {
		lines[i] = d.String()
	}
	return assert.Fail(t, fmt.Sprintf("%d differing values", len(diffs)), strings.Join(lines, "\n"))
}
