package datatype

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	minInt32 = decimal.NewFromInt(math.MinInt32)
	maxInt32 = decimal.NewFromInt(math.MaxInt32)
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)

	errOverflow = errors.New("value out of range")
)

// integerType covers TINYINT, SMALLINT and INTEGER. Values are int32;
// fractional input is truncated toward zero.
type integerType struct {
	name    string
	sqlType SQLType
}

func (t *integerType) Name() string     { return t.name }
func (t *integerType) SQLType() SQLType { return t.sqlType }
func (t *integerType) String() string   { return t.name }
func (t *integerType) IsNumber() bool   { return true }
func (t *integerType) IsDateTime() bool { return false }

func (t *integerType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	if i, ok := v.(int32); ok {
		return i, nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, err)
	}
	d = d.Truncate(0)
	if d.LessThan(minInt32) || d.GreaterThan(maxInt32) {
		return nil, newCastError(v, t, errOverflow)
	}
	return int32(d.IntPart()), nil
}

func (t *integerType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		xi, yi := x.(int32), y.(int32)
		switch {
		case xi < yi:
			return -1
		case xi > yi:
			return 1
		}
		return 0
	})
}

func (t *integerType) ReadFrom(c Cursor, col int) (any, error) {
	i, err := c.Int64(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return t.TypeCast(i)
}

func (t *integerType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}

// bigIntType is BIGINT. Values are int64.
type bigIntType struct{}

func (t *bigIntType) Name() string     { return "BIGINT" }
func (t *bigIntType) SQLType() SQLType { return SQLTypeBigInt }
func (t *bigIntType) String() string   { return t.Name() }
func (t *bigIntType) IsNumber() bool   { return true }
func (t *bigIntType) IsDateTime() bool { return false }

func (t *bigIntType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, err)
	}
	d = d.Truncate(0)
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return nil, newCastError(v, t, errOverflow)
	}
	return d.IntPart(), nil
}

func (t *bigIntType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		xi, yi := x.(int64), y.(int64)
		switch {
		case xi < yi:
			return -1
		case xi > yi:
			return 1
		}
		return 0
	})
}

func (t *bigIntType) ReadFrom(c Cursor, col int) (any, error) {
	i, err := c.Int64(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return i, nil
}

func (t *bigIntType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}

// bigIntegerType is BIGINT_BIGINTEGER, an unbounded integer held as *big.Int.
type bigIntegerType struct{}

func (t *bigIntegerType) Name() string     { return "BIGINT_BIGINTEGER" }
func (t *bigIntegerType) SQLType() SQLType { return SQLTypeBigInt }
func (t *bigIntegerType) String() string   { return t.Name() }
func (t *bigIntegerType) IsNumber() bool   { return true }
func (t *bigIntegerType) IsDateTime() bool { return false }

func (t *bigIntegerType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, nil
		}
		return x, nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, err)
	}
	return d.Truncate(0).BigInt(), nil
}

func (t *bigIntegerType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return x.(*big.Int).Cmp(y.(*big.Int))
	})
}

func (t *bigIntegerType) ReadFrom(c Cursor, col int) (any, error) {
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

func (t *bigIntegerType) WriteTo(s Sink, idx int, v any) error {
	cast, err := t.TypeCast(v)
	if err != nil {
		return err
	}
	if cast == nil {
		return s.SetNull(idx, t.SQLType())
	}
	return s.SetValue(idx, cast.(*big.Int).String())
}
