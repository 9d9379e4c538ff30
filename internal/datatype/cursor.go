package datatype

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Cursor is positioned on one row of an external result. Column indexes are
// zero based. After any getter, WasNull reports whether the value just read
// was SQL NULL.
type Cursor interface {
	String(col int) (string, error)
	Int64(col int) (int64, error)
	Float64(col int) (float64, error)
	Bool(col int) (bool, error)
	Time(col int) (time.Time, error)
	Bytes(col int) ([]byte, error)
	Object(col int) (any, error)
	WasNull() (bool, error)
}

// Sink accepts parameters for an external parameterized statement.
type Sink interface {
	SetNull(idx int, t SQLType) error
	SetValue(idx int, v any) error
}

// TypedNull is a null parameter carrying the external type of its column.
type TypedNull struct {
	Type SQLType
}

// Value implements driver.Valuer.
func (TypedNull) Value() (driver.Value, error) {
	return nil, nil
}

// ArgsSink collects statement arguments positionally.
type ArgsSink struct {
	Args []any
}

// NewArgsSink returns a sink sized for n parameters.
func NewArgsSink(n int) *ArgsSink {
	return &ArgsSink{Args: make([]any, n)}
}

func (s *ArgsSink) grow(idx int) error {
	if idx < 0 {
		return fmt.Errorf("parameter index %d out of range", idx)
	}
	for len(s.Args) <= idx {
		s.Args = append(s.Args, nil)
	}
	return nil
}

// SetNull implements Sink.
func (s *ArgsSink) SetNull(idx int, t SQLType) error {
	if err := s.grow(idx); err != nil {
		return err
	}
	s.Args[idx] = TypedNull{Type: t}
	return nil
}

// SetValue implements Sink.
func (s *ArgsSink) SetValue(idx int, v any) error {
	if err := s.grow(idx); err != nil {
		return err
	}
	s.Args[idx] = v
	return nil
}

// RawRow is a Cursor over the raw driver values of a single row, as returned
// by pgx Rows.Values or a database/sql Scan into []any.
type RawRow struct {
	values   []any
	lastNull bool
}

// NewRawRow returns a cursor positioned on values.
func NewRawRow(values []any) *RawRow {
	return &RawRow{values: values}
}

// Reset repositions the cursor on a new row.
func (r *RawRow) Reset(values []any) {
	r.values = values
	r.lastNull = false
}

func (r *RawRow) raw(col int) (any, error) {
	if col < 0 || col >= len(r.values) {
		return nil, fmt.Errorf("column index %d out of range [0,%d)", col, len(r.values))
	}
	v := r.values[col]
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		v = dv
	}
	r.lastNull = v == nil
	return v, nil
}

// WasNull implements Cursor.
func (r *RawRow) WasNull() (bool, error) {
	return r.lastNull, nil
}

// Object implements Cursor.
func (r *RawRow) Object(col int) (any, error) {
	return r.raw(col)
}

// String implements Cursor.
func (r *RawRow) String(col int) (string, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		return x.Format(timestampLayout), nil
	case decimal.Decimal:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return fmt.Sprint(v), nil
}

// Int64 implements Cursor.
func (r *RawRow) Int64(col int) (int64, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return 0, err
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		return int64(x), nil
	case float32:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("cannot read %T as int64", v)
}

// Float64 implements Cursor.
func (r *RawRow) Float64(col int) (float64, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case decimal.Decimal:
		f, _ := x.Float64()
		return f, nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("cannot read %T as float64", v)
}

// Bool implements Cursor.
func (r *RawRow) Bool(col int) (bool, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return false, err
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int32:
		return x != 0, nil
	case int:
		return x != 0, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	}
	return false, fmt.Errorf("cannot read %T as bool", v)
}

// Time implements Cursor.
func (r *RawRow) Time(col int) (time.Time, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case []byte:
		return parseTimestampText(string(x))
	case string:
		return parseTimestampText(x)
	}
	return time.Time{}, fmt.Errorf("cannot read %T as time", v)
}

// Bytes implements Cursor.
func (r *RawRow) Bytes(col int) ([]byte, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	case [16]byte:
		return x[:], nil
	}
	return nil, fmt.Errorf("cannot read %T as bytes", v)
}
