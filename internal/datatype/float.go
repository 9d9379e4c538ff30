package datatype

import (
	"math"
)

// floatType is REAL, a single precision float.
type floatType struct{}

func (t *floatType) Name() string     { return "REAL" }
func (t *floatType) SQLType() SQLType { return SQLTypeReal }
func (t *floatType) String() string   { return t.Name() }
func (t *floatType) IsNumber() bool   { return true }
func (t *floatType) IsDateTime() bool { return false }

func (t *floatType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case float32:
		return x, nil
	case float64:
		if !math.IsInf(x, 0) && math.Abs(x) > math.MaxFloat32 {
			return nil, newCastError(v, t, errOverflow)
		}
		return float32(x), nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, err)
	}
	f, _ := d.Float64()
	if math.Abs(f) > math.MaxFloat32 {
		return nil, newCastError(v, t, errOverflow)
	}
	return float32(f), nil
}

func (t *floatType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return compareFloat(float64(x.(float32)), float64(y.(float32)))
	})
}

func (t *floatType) ReadFrom(c Cursor, col int) (any, error) {
	f, err := c.Float64(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return float32(f), nil
}

func (t *floatType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}

// doubleType covers FLOAT and DOUBLE, both double precision.
type doubleType struct {
	name    string
	sqlType SQLType
}

func (t *doubleType) Name() string     { return t.name }
func (t *doubleType) SQLType() SQLType { return t.sqlType }
func (t *doubleType) String() string   { return t.name }
func (t *doubleType) IsNumber() bool   { return true }
func (t *doubleType) IsDateTime() bool { return false }

func (t *doubleType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, err)
	}
	f, _ := d.Float64()
	return f, nil
}

func (t *doubleType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return compareFloat(x.(float64), y.(float64))
	})
}

func (t *doubleType) ReadFrom(c Cursor, col int) (any, error) {
	f, err := c.Float64(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return f, nil
}

func (t *doubleType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}

// compareFloat orders NaN after every other value so that the order is total.
func compareFloat(x, y float64) int {
	switch {
	case math.IsNaN(x) && math.IsNaN(y):
		return 0
	case math.IsNaN(x):
		return 1
	case math.IsNaN(y):
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
