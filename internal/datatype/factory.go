package datatype

import (
	"strings"

	"github.com/pkg/errors"
)

// Factory maps a store's column description to a semantic type.
type Factory interface {
	CreateDataType(code SQLType, typeName string) DataType
}

// DefaultFactory resolves by type code first and by ANSI type name second.
// A non-nil Parser is used for the temporal types it creates.
type DefaultFactory struct {
	Parser *RelativeTimeParser
}

func (f DefaultFactory) temporal(dt DataType) DataType {
	if f.Parser == nil {
		return dt
	}
	switch dt {
	case Date:
		return NewDateType(f.Parser)
	case Time:
		return NewTimeType(f.Parser)
	case Timestamp:
		return NewTimestampType(f.Parser)
	}
	return dt
}

// CreateDataType implements Factory.
func (f DefaultFactory) CreateDataType(code SQLType, typeName string) DataType {
	if code != 0 && code != SQLTypeOther {
		if dt := ForSQLType(code); dt != Unknown {
			return f.temporal(dt)
		}
	}
	return f.temporal(ansiName(typeName))
}

func ansiName(typeName string) DataType {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if dt, ok := ForName(name); ok {
		return dt
	}
	switch name {
	case "INT":
		return Integer
	case "CHARACTER":
		return Char
	case "CHARACTER VARYING", "TEXT", "STRING":
		return Varchar
	case "DOUBLE PRECISION":
		return Double
	case "BOOL":
		return Boolean
	case "DATETIME":
		return Timestamp
	case "BYTEA":
		return Blob
	}
	return Unknown
}

// PostgresFactory understands information_schema.columns.data_type values.
type PostgresFactory struct {
	DefaultFactory
}

// CreateDataType implements Factory.
func (f PostgresFactory) CreateDataType(code SQLType, typeName string) DataType {
	dt := strings.ToLower(strings.TrimSpace(typeName))

	switch {
	case dt == "integer" || dt == "int4" || dt == "serial":
		return Integer
	case dt == "bigint" || dt == "int8" || dt == "bigserial":
		return BigInt
	case dt == "smallint" || dt == "int2":
		return SmallInt
	case strings.HasPrefix(dt, "character varying") || dt == "varchar":
		return Varchar
	case strings.HasPrefix(dt, "character") || dt == "bpchar" || dt == "char":
		return Char
	case dt == "text" || dt == "json" || dt == "jsonb" || dt == "citext" || dt == "xml":
		return LongVarchar
	case strings.HasPrefix(dt, "timestamp"):
		return f.temporal(Timestamp)
	case strings.HasPrefix(dt, "time"):
		return f.temporal(Time)
	case dt == "date":
		return f.temporal(Date)
	case dt == "boolean" || dt == "bool":
		return Boolean
	case strings.HasPrefix(dt, "numeric"):
		return Numeric
	case strings.HasPrefix(dt, "decimal"):
		return Decimal
	case dt == "real" || dt == "float4":
		return Real
	case dt == "double precision" || dt == "float8":
		return Double
	case dt == "uuid" || dt == "bytea":
		return Binary
	case dt == "oid":
		return BigInt
	}
	return f.DefaultFactory.CreateDataType(code, typeName)
}

// MySQLFactory understands information_schema.columns.column_type values.
type MySQLFactory struct {
	DefaultFactory
}

// CreateDataType implements Factory.
func (f MySQLFactory) CreateDataType(code SQLType, typeName string) DataType {
	dt := strings.ToLower(strings.TrimSpace(typeName))
	base := dt
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.TrimSuffix(base, " unsigned"))
	unsigned := strings.Contains(dt, "unsigned")

	switch base {
	case "tinyint":
		if strings.HasPrefix(dt, "tinyint(1)") {
			return Boolean
		}
		return TinyInt
	case "bit", "bool", "boolean":
		return Boolean
	case "smallint", "mediumint":
		return SmallInt
	case "int", "integer":
		if unsigned {
			return BigInt
		}
		return Integer
	case "bigint":
		if unsigned {
			return BigIntBigInteger
		}
		return BigInt
	case "decimal", "numeric":
		return Decimal
	case "float":
		return Real
	case "double", "real":
		return Double
	case "char":
		return Char
	case "varchar", "enum", "set":
		return Varchar
	case "tinytext", "text", "mediumtext", "longtext", "json":
		return LongVarchar
	case "date":
		return f.temporal(Date)
	case "time":
		return f.temporal(Time)
	case "datetime", "timestamp":
		return f.temporal(Timestamp)
	case "year":
		return Integer
	case "binary":
		return Binary
	case "varbinary":
		return VarBinary
	case "tinyblob", "blob", "mediumblob", "longblob":
		return Blob
	}
	return f.DefaultFactory.CreateDataType(code, typeName)
}

// SQLiteFactory maps declared column types using SQLite's affinity rules,
// recognizing the common date, time and boolean spellings first.
type SQLiteFactory struct {
	DefaultFactory
}

// CreateDataType implements Factory.
func (f SQLiteFactory) CreateDataType(code SQLType, typeName string) DataType {
	dt := strings.ToUpper(strings.TrimSpace(typeName))

	switch {
	case dt == "":
		return Unknown
	case strings.HasPrefix(dt, "BOOL"):
		return Boolean
	case dt == "DATE":
		return f.temporal(Date)
	case dt == "TIME":
		return f.temporal(Time)
	case strings.HasPrefix(dt, "DATETIME") || strings.HasPrefix(dt, "TIMESTAMP"):
		return f.temporal(Timestamp)
	case strings.Contains(dt, "INT"):
		return BigInt
	case strings.Contains(dt, "CHAR") || strings.Contains(dt, "CLOB") || strings.Contains(dt, "TEXT"):
		return Varchar
	case strings.Contains(dt, "BLOB"):
		return Blob
	case strings.Contains(dt, "REAL") || strings.Contains(dt, "FLOA") || strings.Contains(dt, "DOUB"):
		return Double
	}
	return Numeric
}

// FactoryFor returns the factory for a configured database type.
func FactoryFor(dbType string, parser *RelativeTimeParser) (Factory, error) {
	base := DefaultFactory{Parser: parser}
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return PostgresFactory{base}, nil
	case "mysql":
		return MySQLFactory{base}, nil
	case "sqlite", "sqlite3":
		return SQLiteFactory{base}, nil
	case "", "default":
		return base, nil
	}
	return nil, errors.Errorf("unsupported database type: %s", dbType)
}
