// Package datatype defines the closed set of semantic column types and the
// rules used to cast, compare, read and write values of each type.
package datatype

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// SQLType is the external type code a store uses to describe a column. The
// numbering follows the X/Open SQL CLI codes most drivers report.
type SQLType int

const (
	SQLTypeOther         SQLType = 1111
	SQLTypeChar          SQLType = 1
	SQLTypeNumeric       SQLType = 2
	SQLTypeDecimal       SQLType = 3
	SQLTypeInteger       SQLType = 4
	SQLTypeSmallInt      SQLType = 5
	SQLTypeFloat         SQLType = 6
	SQLTypeReal          SQLType = 7
	SQLTypeDouble        SQLType = 8
	SQLTypeVarchar       SQLType = 12
	SQLTypeBoolean       SQLType = 16
	SQLTypeDate          SQLType = 91
	SQLTypeTime          SQLType = 92
	SQLTypeTimestamp     SQLType = 93
	SQLTypeLongVarchar   SQLType = -1
	SQLTypeBinary        SQLType = -2
	SQLTypeVarBinary     SQLType = -3
	SQLTypeLongVarBinary SQLType = -4
	SQLTypeBigInt        SQLType = -5
	SQLTypeTinyInt       SQLType = -6
	SQLTypeBlob          SQLType = 2004
	SQLTypeClob          SQLType = 2005
)

// DataType is a semantic column type.
//
// TypeCast converts an arbitrary Go value to the canonical in-memory
// representation of the type. A nil result means "no value". Compare casts
// both operands first and orders nil before any non-nil value.
type DataType interface {
	Name() string
	SQLType() SQLType

	TypeCast(v any) (any, error)
	Compare(a, b any) (int, error)

	IsNumber() bool
	IsDateTime() bool

	// ReadFrom reads column col of the cursor's current row. The typed getter
	// is always called before WasNull.
	ReadFrom(c Cursor, col int) (any, error)
	// WriteTo writes v as parameter idx of the sink. A nil value is written as
	// a null typed with SQLType.
	WriteTo(s Sink, idx int, v any) error
}

// The closed set of semantic types.
var (
	Unknown DataType = &unknownType{}

	Char        DataType = &stringType{name: "CHAR", sqlType: SQLTypeChar}
	Varchar     DataType = &stringType{name: "VARCHAR", sqlType: SQLTypeVarchar}
	LongVarchar DataType = &stringType{name: "LONGVARCHAR", sqlType: SQLTypeLongVarchar}
	Clob        DataType = &stringType{name: "CLOB", sqlType: SQLTypeClob}

	Numeric DataType = &numberType{name: "NUMERIC", sqlType: SQLTypeNumeric}
	Decimal DataType = &numberType{name: "DECIMAL", sqlType: SQLTypeDecimal}

	Boolean DataType = &booleanType{}

	TinyInt          DataType = &integerType{name: "TINYINT", sqlType: SQLTypeTinyInt}
	SmallInt         DataType = &integerType{name: "SMALLINT", sqlType: SQLTypeSmallInt}
	Integer          DataType = &integerType{name: "INTEGER", sqlType: SQLTypeInteger}
	BigInt           DataType = &bigIntType{}
	BigIntBigInteger DataType = &bigIntegerType{}

	Real   DataType = &floatType{}
	Float  DataType = &doubleType{name: "FLOAT", sqlType: SQLTypeFloat}
	Double DataType = &doubleType{name: "DOUBLE", sqlType: SQLTypeDouble}

	Date      DataType = NewDateType(DefaultRelativeTimeParser)
	Time      DataType = NewTimeType(DefaultRelativeTimeParser)
	Timestamp DataType = NewTimestampType(DefaultRelativeTimeParser)

	Binary        DataType = &bytesType{name: "BINARY", sqlType: SQLTypeBinary}
	VarBinary     DataType = &bytesType{name: "VARBINARY", sqlType: SQLTypeVarBinary}
	LongVarBinary DataType = &bytesType{name: "LONGVARBINARY", sqlType: SQLTypeLongVarBinary}
	Blob          DataType = &bytesType{name: "BLOB", sqlType: SQLTypeBlob}
)

// All returns every semantic type in declaration order.
func All() []DataType {
	return []DataType{
		Unknown,
		Char, Varchar, LongVarchar,
		Numeric, Decimal,
		Boolean,
		TinyInt, SmallInt, Integer, BigInt, BigIntBigInteger,
		Real, Float, Double,
		Date, Time, Timestamp,
		Binary, VarBinary, LongVarBinary, Blob,
		Clob,
	}
}

// ForSQLType returns the semantic type registered for code, or Unknown.
func ForSQLType(code SQLType) DataType {
	for _, dt := range All() {
		if dt.SQLType() == code && dt != Unknown {
			return dt
		}
	}
	return Unknown
}

// ForName returns the semantic type with the given name, e.g. "VARCHAR".
func ForName(name string) (DataType, bool) {
	for _, dt := range All() {
		if dt.Name() == name {
			return dt, true
		}
	}
	return nil, false
}

// ForObject maps a native Go value to its semantic type. Values with no
// obvious mapping report Unknown.
func ForObject(v any) DataType {
	switch v.(type) {
	case nil:
		return Unknown
	case string:
		return Varchar
	case bool:
		return Boolean
	case int8, int16, int32, uint8, uint16:
		return Integer
	case int, int64, uint, uint32:
		return BigInt
	case uint64, *big.Int, big.Int:
		return BigIntBigInteger
	case float32:
		return Real
	case float64:
		return Double
	case decimal.Decimal, *decimal.Decimal:
		return Numeric
	case time.Time, *time.Time:
		return Timestamp
	case []byte:
		return Binary
	default:
		return Unknown
	}
}

// compareValues implements the shared nil ordering of Compare: both operands
// are cast, nil sorts first and two nils are equal.
func compareValues(dt DataType, a, b any, cmp func(x, y any) int) (int, error) {
	x, err := dt.TypeCast(a)
	if err != nil {
		return 0, err
	}
	y, err := dt.TypeCast(b)
	if err != nil {
		return 0, err
	}
	switch {
	case x == nil && y == nil:
		return 0, nil
	case x == nil:
		return -1, nil
	case y == nil:
		return 1, nil
	}
	return cmp(x, y), nil
}

// writeValue casts v and hands it to the sink, writing typed nulls for
// absent values.
func writeValue(dt DataType, s Sink, idx int, v any) error {
	cast, err := dt.TypeCast(v)
	if err != nil {
		return err
	}
	if cast == nil {
		return s.SetNull(idx, dt.SQLType())
	}
	return s.SetValue(idx, cast)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

type noValue struct{}

// NoValue marks a cell that was never populated, as opposed to SQL NULL. It
// only appears when tables are padded to a common column set.
var NoValue any = noValue{}

// isAbsent reports whether v means "no value" for a non-string type: nil,
// NoValue or the empty string.
func isAbsent(v any) bool {
	if v == nil || v == NoValue {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}
