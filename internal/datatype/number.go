package datatype

import (
	"math"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// numberType covers NUMERIC and DECIMAL. Values are decimal.Decimal.
type numberType struct {
	name    string
	sqlType SQLType
}

func (t *numberType) Name() string     { return t.name }
func (t *numberType) SQLType() SQLType { return t.sqlType }
func (t *numberType) String() string   { return t.name }
func (t *numberType) IsNumber() bool   { return true }
func (t *numberType) IsDateTime() bool { return false }

func (t *numberType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, err)
	}
	return d, nil
}

func (t *numberType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return x.(decimal.Decimal).Cmp(y.(decimal.Decimal))
	})
}

func (t *numberType) ReadFrom(c Cursor, col int) (any, error) {
	s, err := c.String(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return t.TypeCast(s)
}

func (t *numberType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}

var errNotNumeric = errors.New("not a numeric value")

// toDecimal converts any number-like value, numeric text, or a boolean
// (true=1, false=0) to a decimal.
func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, errNotNumeric
		}
		return *x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0), nil
	case uint8:
		return decimal.NewFromInt(int64(x)), nil
	case uint16:
		return decimal.NewFromInt(int64(x)), nil
	case uint32:
		return decimal.NewFromInt(int64(x)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0), nil
	case *big.Int:
		if x == nil {
			return decimal.Zero, errNotNumeric
		}
		return decimal.NewFromBigInt(x, 0), nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Zero, errNotNumeric
		}
		return decimal.NewFromFloat32(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, errNotNumeric
		}
		return decimal.NewFromFloat(x), nil
	case bool:
		if x {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case []byte:
		return parseDecimalText(string(x))
	case string:
		return parseDecimalText(x)
	}
	return decimal.Zero, errNotNumeric
}

func parseDecimalText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return decimal.NewFromInt(1), nil
	case "false":
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// numberTolerantType is a NUMERIC or DECIMAL type whose Compare treats
// values within a tolerance as equal.
type numberTolerantType struct {
	*numberType
	tolerance Tolerance
}

// NewNumberTolerantType wraps a NUMERIC or DECIMAL type with a tolerance.
// Other types are returned unchanged.
func NewNumberTolerantType(base DataType, tol Tolerance) DataType {
	nt, ok := base.(*numberType)
	if !ok {
		return base
	}
	return &numberTolerantType{numberType: nt, tolerance: tol}
}

// Tolerance returns the configured tolerance.
func (t *numberTolerantType) Tolerance() Tolerance {
	return t.tolerance
}

func (t *numberTolerantType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		dx, dy := x.(decimal.Decimal), y.(decimal.Decimal)
		if t.tolerance.Within(dx, dy) {
			return 0
		}
		return dx.Cmp(dy)
	})
}

func (t *numberTolerantType) ReadFrom(c Cursor, col int) (any, error) {
	return t.numberType.ReadFrom(c, col)
}

func (t *numberTolerantType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}
