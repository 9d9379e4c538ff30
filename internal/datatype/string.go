package datatype

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// stringType covers CHAR, VARCHAR, LONGVARCHAR and CLOB. The empty string is
// preserved and is not treated as "no value".
type stringType struct {
	name    string
	sqlType SQLType
}

func (t *stringType) Name() string     { return t.name }
func (t *stringType) SQLType() SQLType { return t.sqlType }
func (t *stringType) String() string   { return t.name }
func (t *stringType) IsNumber() bool   { return false }
func (t *stringType) IsDateTime() bool { return false }

func (t *stringType) TypeCast(v any) (any, error) {
	if v == NoValue {
		return nil, nil
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case decimal.Decimal:
		return x.String(), nil
	case *big.Int:
		if x == nil {
			return nil, nil
		}
		return x.String(), nil
	case time.Time:
		return x.Format(timestampLayout), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return nil, newCastError(v, t, nil)
}

func (t *stringType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return strings.Compare(x.(string), y.(string))
	})
}

func (t *stringType) ReadFrom(c Cursor, col int) (any, error) {
	s, err := c.String(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return s, nil
}

func (t *stringType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}
