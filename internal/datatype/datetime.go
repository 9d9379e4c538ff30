package datatype

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05.999999999"
)

var (
	timestampLayouts = []string{
		timestampLayout,
		"2006-01-02 15:04:05.999999999 -0700",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04",
		dateLayout,
	}
	timeLayouts = []string{
		timeLayout + ".999999999",
		"15:04",
		"15:04:05Z07:00",
	}
)

func parseTimestampText(s string) (time.Time, error) {
	return parseLayouts(strings.TrimSpace(s), timestampLayouts, time.Local)
}

func parseLayouts(s string, layouts []string, loc *time.Location) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized date/time %q", s)
}

// temporalKind selects how a time.Time is normalized.
type temporalKind int

const (
	kindDate temporalKind = iota
	kindTime
	kindTimestamp
)

// temporalType implements DATE, TIME and TIMESTAMP over time.Time. DATE keeps
// only the calendar day, TIME only the clock on 1970-01-01.
type temporalType struct {
	kind   temporalKind
	parser *RelativeTimeParser
}

// NewDateType returns a DATE type resolving relative expressions with p.
func NewDateType(p *RelativeTimeParser) DataType {
	return &temporalType{kind: kindDate, parser: p}
}

// NewTimeType returns a TIME type resolving relative expressions with p.
func NewTimeType(p *RelativeTimeParser) DataType {
	return &temporalType{kind: kindTime, parser: p}
}

// NewTimestampType returns a TIMESTAMP type resolving relative expressions
// with p.
func NewTimestampType(p *RelativeTimeParser) DataType {
	return &temporalType{kind: kindTimestamp, parser: p}
}

func (t *temporalType) Name() string {
	switch t.kind {
	case kindDate:
		return "DATE"
	case kindTime:
		return "TIME"
	}
	return "TIMESTAMP"
}

func (t *temporalType) SQLType() SQLType {
	switch t.kind {
	case kindDate:
		return SQLTypeDate
	case kindTime:
		return SQLTypeTime
	}
	return SQLTypeTimestamp
}

func (t *temporalType) String() string   { return t.Name() }
func (t *temporalType) IsNumber() bool   { return false }
func (t *temporalType) IsDateTime() bool { return true }

func (t *temporalType) normalize(v time.Time) time.Time {
	switch t.kind {
	case kindDate:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, v.Location())
	case kindTime:
		return time.Date(1970, time.January, 1, v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), v.Location())
	}
	return v
}

func (t *temporalType) parseText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsRelative(s) {
		return t.parser.Parse(s)
	}
	loc := t.parser.Location()
	if t.kind == kindTime {
		if v, err := parseLayouts(s, timeLayouts, loc); err == nil {
			return v, nil
		}
	}
	return parseLayouts(s, timestampLayouts, loc)
}

func (t *temporalType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case time.Time:
		return t.normalize(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return t.normalize(*x), nil
	case int64:
		return t.normalize(time.UnixMilli(x).In(t.parser.Location())), nil
	case []byte:
		return t.TypeCast(string(x))
	case string:
		parsed, err := t.parseText(x)
		if err != nil {
			return nil, newCastError(v, t, err)
		}
		return t.normalize(parsed), nil
	}
	return nil, newCastError(v, t, nil)
}

func (t *temporalType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return x.(time.Time).Compare(y.(time.Time))
	})
}

func (t *temporalType) ReadFrom(c Cursor, col int) (any, error) {
	v, err := c.Time(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return t.normalize(v), nil
}

func (t *temporalType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}
