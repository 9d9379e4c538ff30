package datatype

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Tolerance is the slack under which two numbers compare equal. With
// Percentage set, Delta is a percentage of the larger absolute operand.
type Tolerance struct {
	Delta      decimal.Decimal
	Percentage bool
}

// AbsoluteTolerance returns a tolerance of |a-b| <= delta.
func AbsoluteTolerance(delta decimal.Decimal) Tolerance {
	return Tolerance{Delta: delta.Abs()}
}

// PercentageTolerance returns a tolerance of |a-b| <= pct*max(|a|,|b|)/100.
func PercentageTolerance(pct decimal.Decimal) Tolerance {
	return Tolerance{Delta: pct.Abs(), Percentage: true}
}

// Within reports whether a and b are equal under the tolerance.
func (t Tolerance) Within(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	limit := t.Delta
	if t.Percentage {
		larger := a.Abs()
		if b.Abs().GreaterThan(larger) {
			larger = b.Abs()
		}
		limit = t.Delta.Mul(larger).Div(hundred)
	}
	return diff.LessThanOrEqual(limit)
}

// ToleratedDeltaMap holds per (table, column) tolerances. Keys are matched
// case-insensitively.
type ToleratedDeltaMap struct {
	deltas map[string]map[string]Tolerance
}

// NewToleratedDeltaMap returns an empty map.
func NewToleratedDeltaMap() *ToleratedDeltaMap {
	return &ToleratedDeltaMap{deltas: map[string]map[string]Tolerance{}}
}

// Add registers a tolerance for table.column, replacing any previous one.
func (m *ToleratedDeltaMap) Add(table, column string, tol Tolerance) {
	tk := strings.ToUpper(table)
	cols, ok := m.deltas[tk]
	if !ok {
		cols = map[string]Tolerance{}
		m.deltas[tk] = cols
	}
	cols[strings.ToUpper(column)] = tol
}

// Find returns the tolerance registered for table.column.
func (m *ToleratedDeltaMap) Find(table, column string) (Tolerance, bool) {
	if m == nil {
		return Tolerance{}, false
	}
	cols, ok := m.deltas[strings.ToUpper(table)]
	if !ok {
		return Tolerance{}, false
	}
	tol, ok := cols[strings.ToUpper(column)]
	return tol, ok
}

// Apply returns dt wrapped with the tolerance registered for table.column,
// or dt itself when none is registered or dt is not NUMERIC/DECIMAL.
func (m *ToleratedDeltaMap) Apply(table, column string, dt DataType) DataType {
	tol, ok := m.Find(table, column)
	if !ok {
		return dt
	}
	return NewNumberTolerantType(dt, tol)
}
