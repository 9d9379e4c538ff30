package datatype

import (
	"fmt"
	"strings"
)

// unknownType is used for columns whose type could not be determined. Values
// pass through untouched and compare by the type ForObject infers, falling
// back to their text form.
type unknownType struct{}

func (t *unknownType) Name() string     { return "UNKNOWN" }
func (t *unknownType) SQLType() SQLType { return SQLTypeOther }
func (t *unknownType) String() string   { return t.Name() }
func (t *unknownType) IsNumber() bool   { return false }
func (t *unknownType) IsDateTime() bool { return false }

func (t *unknownType) TypeCast(v any) (any, error) {
	if v == NoValue {
		return nil, nil
	}
	return v, nil
}

func (t *unknownType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		xt, yt := ForObject(x), ForObject(y)
		if xt != Unknown && xt == yt {
			if c, err := xt.Compare(x, y); err == nil {
				return c
			}
		}
		return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
	})
}

func (t *unknownType) ReadFrom(c Cursor, col int) (any, error) {
	v, err := c.Object(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return v, nil
}

func (t *unknownType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}
