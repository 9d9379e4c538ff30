package datatype

import (
	"strings"

	"github.com/pkg/errors"
)

// booleanType is BOOLEAN. Numbers map to false when zero and true otherwise;
// text must be "true", "false" or a number.
type booleanType struct{}

func (t *booleanType) Name() string     { return "BOOLEAN" }
func (t *booleanType) SQLType() SQLType { return SQLTypeBoolean }
func (t *booleanType) String() string   { return t.Name() }
func (t *booleanType) IsNumber() bool   { return false }
func (t *booleanType) IsDateTime() bool { return false }

func (t *booleanType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, newCastError(v, t, errors.New("not a boolean value"))
	}
	return !d.IsZero(), nil
}

func (t *booleanType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		xb, yb := x.(bool), y.(bool)
		switch {
		case xb == yb:
			return 0
		case !xb:
			return -1
		}
		return 1
	})
}

func (t *booleanType) ReadFrom(c Cursor, col int) (any, error) {
	b, err := c.Bool(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return b, nil
}

func (t *booleanType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}
