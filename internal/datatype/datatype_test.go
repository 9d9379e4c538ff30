package datatype

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeCastNoValue(t *testing.T) {
	for _, dt := range All() {
		t.Run(dt.Name(), func(t *testing.T) {
			v, err := dt.TypeCast(nil)
			require.NoError(t, err)
			assert.Nil(t, v)

			v, err = dt.TypeCast(NoValue)
			require.NoError(t, err)
			assert.Nil(t, v)

			v, err = dt.TypeCast("")
			require.NoError(t, err)
			switch dt {
			case Char, Varchar, LongVarchar, Clob, Unknown:
				assert.Equal(t, "", v)
			default:
				assert.Nil(t, v)
			}
		})
	}
}

func TestCompareReflexiveAndAntisymmetric(t *testing.T) {
	samples := map[DataType][]any{
		Varchar:          {"a", "b", "abc", nil},
		Numeric:          {"1.5", 2, decimal.RequireFromString("-3.25"), nil},
		Decimal:          {"10", 10.5, true, nil},
		Boolean:          {true, false, "true", 0, nil},
		TinyInt:          {1, "2", int64(-3), nil},
		SmallInt:         {7, 8.9, nil},
		Integer:          {1, 2, "3", nil},
		BigInt:           {int64(1) << 40, 5, "-7", nil},
		BigIntBigInteger: {"123456789012345678901234567890", big.NewInt(4), nil},
		Real:             {float32(1.5), 2.25, "3", nil},
		Float:            {1.5, "2.5", nil},
		Double:           {1.5, -2.0, nil},
		Date:             {"2020-01-02", "2021-12-31", nil},
		Time:             {"10:11:12", "23:00", nil},
		Timestamp:        {"2020-01-02 10:11:12", "2020-01-02 10:11:12.5", nil},
		Binary:           {[]byte{1, 2}, []byte{1, 3}, "[text]hi", nil},
		Blob:             {[]byte{0}, []byte{}, nil},
		Unknown:          {"x", 1, nil},
	}

	for dt, values := range samples {
		t.Run(dt.Name(), func(t *testing.T) {
			for _, a := range values {
				c, err := dt.Compare(a, a)
				require.NoError(t, err)
				assert.Equal(t, 0, c, "compare(%v, %v)", a, a)

				for _, b := range values {
					ab, err := dt.Compare(a, b)
					require.NoError(t, err)
					ba, err := dt.Compare(b, a)
					require.NoError(t, err)
					assert.Equal(t, ab, -ba, "compare(%v, %v)", a, b)
				}
			}
		})
	}
}

func TestCompareNilOrdering(t *testing.T) {
	c, err := Integer.Compare(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Integer.Compare(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = Integer.Compare(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestCompareUncastableFails(t *testing.T) {
	_, err := Integer.Compare("abc", 1)
	require.Error(t, err)

	var tce *TypeCastError
	require.True(t, errors.As(err, &tce))
	assert.Equal(t, "abc", tce.Value)
	assert.Equal(t, Integer, tce.Type)
}

func TestNumberTypeCast(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{1, "1"},
		{int64(-42), "-42"},
		{1.25, "1.25"},
		{" 3.50 ", "3.5"},
		{"true", "1"},
		{"FALSE", "0"},
		{true, "1"},
		{false, "0"},
		{big.NewInt(99), "99"},
		{uint64(18446744073709551615), "18446744073709551615"},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%T %v", test.input, test.input), func(t *testing.T) {
			v, err := Numeric.TypeCast(test.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(test.expected).Equal(v.(decimal.Decimal)), "got %v", v)
		})
	}

	_, err := Numeric.TypeCast("1.2.3")
	assert.Error(t, err)
	_, err = Numeric.TypeCast(struct{}{})
	assert.Error(t, err)
}

func TestIntegerTypeCast(t *testing.T) {
	v, err := Integer.TypeCast("12.9")
	require.NoError(t, err)
	assert.Equal(t, int32(12), v)

	v, err = SmallInt.TypeCast(true)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	_, err = Integer.TypeCast(int64(1) << 40)
	assert.Error(t, err)

	v, err = BigInt.TypeCast("9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), v)

	_, err = BigInt.TypeCast("9223372036854775808")
	assert.Error(t, err)

	v, err = BigIntBigInteger.TypeCast("9223372036854775808")
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("9223372036854775808", 10)
	assert.Equal(t, 0, expected.Cmp(v.(*big.Int)))
}

func TestBooleanTypeCast(t *testing.T) {
	tests := []struct {
		input    any
		expected bool
	}{
		{true, true},
		{"TRUE", true},
		{"false", false},
		{"0", false},
		{"12", true},
		{0, false},
		{-1, true},
	}
	for _, test := range tests {
		v, err := Boolean.TypeCast(test.input)
		require.NoError(t, err)
		assert.Equal(t, test.expected, v, "input %v", test.input)
	}

	_, err := Boolean.TypeCast("maybe")
	assert.Error(t, err)
}

func TestStringTypeCast(t *testing.T) {
	v, err := Varchar.TypeCast(decimal.RequireFromString("1.50"))
	require.NoError(t, err)
	assert.Equal(t, "1.5", v)

	v, err = Varchar.TypeCast([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "aGk=", v)

	v, err = Varchar.TypeCast(true)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	_, err = Varchar.TypeCast(struct{}{})
	assert.Error(t, err)
}

func TestNumericTolerance(t *testing.T) {
	tol := NewNumberTolerantType(Numeric, AbsoluteTolerance(decimal.RequireFromString("0.00001")))

	c, err := tol.Compare(0.12345678, 0.123456789)
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = tol.Compare(0.1234, 0.1235)
	require.NoError(t, err)
	assert.Less(t, c, 0)

	c, err = tol.Compare(nil, 0.1)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	pct := NewNumberTolerantType(Decimal, PercentageTolerance(decimal.NewFromInt(10)))
	c, err = pct.Compare(100, 109)
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = pct.Compare(100, 112)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	assert.Equal(t, Integer, NewNumberTolerantType(Integer, AbsoluteTolerance(decimal.NewFromInt(1))))
}

func TestToleratedDeltaMap(t *testing.T) {
	m := NewToleratedDeltaMap()
	m.Add("Orders", "Amount", AbsoluteTolerance(decimal.RequireFromString("0.5")))

	tol, ok := m.Find("ORDERS", "amount")
	require.True(t, ok)
	assert.True(t, tol.Delta.Equal(decimal.RequireFromString("0.5")))

	_, ok = m.Find("orders", "other")
	assert.False(t, ok)

	dt := m.Apply("orders", "AMOUNT", Numeric)
	c, err := dt.Compare("10.2", "10.6")
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	assert.Equal(t, Numeric, m.Apply("orders", "qty", Numeric))
}

func fixedParser() *RelativeTimeParser {
	now := time.Date(2024, time.February, 28, 13, 14, 15, 500, time.UTC)
	return NewRelativeTimeParser(func() time.Time { return now }).WithLocation(time.UTC)
}

func TestRelativeTimeParser(t *testing.T) {
	p := fixedParser()

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"[now]", time.Date(2024, time.February, 28, 13, 14, 15, 500, time.UTC)},
		{"[NOW+1d]", time.Date(2024, time.February, 29, 13, 14, 15, 500, time.UTC)},
		{"[now-1y+2M]", time.Date(2023, time.April, 28, 13, 14, 15, 500, time.UTC)},
		{"[now+2h-30m+15s]", time.Date(2024, time.February, 28, 14, 44, 30, 500, time.UTC)},
		{"[now+1d 10:00]", time.Date(2024, time.February, 29, 10, 0, 0, 0, time.UTC)},
		{"[Now 23:59:30]", time.Date(2024, time.February, 28, 23, 59, 30, 0, time.UTC)},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.True(t, IsRelative(test.input))
			v, err := p.Parse(test.input)
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(v), "got %v", v)
		})
	}

	for _, bad := range []string{"[now+1w]", "[now+1d 25:00]", "[today]", "[now+]"} {
		_, err := p.Parse(bad)
		assert.Error(t, err, bad)
	}
	assert.False(t, IsRelative("2024-01-01"))
}

func TestTemporalTypeCast(t *testing.T) {
	p := fixedParser()
	date, tm, ts := NewDateType(p), NewTimeType(p), NewTimestampType(p)

	v, err := date.TypeCast("[now+1d]")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC).Equal(v.(time.Time)))

	v, err = date.TypeCast("2020-05-06 07:08:09")
	require.NoError(t, err)
	assert.True(t, time.Date(2020, time.May, 6, 0, 0, 0, 0, time.UTC).Equal(v.(time.Time)))

	v, err = tm.TypeCast("07:08")
	require.NoError(t, err)
	assert.True(t, time.Date(1970, time.January, 1, 7, 8, 0, 0, time.UTC).Equal(v.(time.Time)))

	v, err = ts.TypeCast("2020-05-06")
	require.NoError(t, err)
	assert.True(t, time.Date(2020, time.May, 6, 0, 0, 0, 0, time.UTC).Equal(v.(time.Time)))

	v, err = ts.TypeCast("2020-05-06T07:08:09.123Z")
	require.NoError(t, err)
	assert.True(t, time.Date(2020, time.May, 6, 7, 8, 9, 123000000, time.UTC).Equal(v.(time.Time)))

	v, err = ts.TypeCast(time.Date(2020, time.May, 6, 7, 8, 9, 0, time.UTC).UnixMilli())
	require.NoError(t, err)
	assert.True(t, time.Date(2020, time.May, 6, 7, 8, 9, 0, time.UTC).Equal(v.(time.Time)))

	_, err = ts.TypeCast("yesterday")
	assert.Error(t, err)
	_, err = ts.TypeCast(1.5)
	assert.Error(t, err)

	c, err := date.Compare("[now]", "2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestBinaryTypeCast(t *testing.T) {
	v, err := Blob.TypeCast("[text]hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v)

	v, err = Blob.TypeCast("[text UTF-16BE]hi")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 'h', 0, 'i'}, v)

	v, err = Blob.TypeCast("[base64]aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v)

	v, err = Blob.TypeCast("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v)

	v, err = Blob.TypeCast("!!not base64!!")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, v)

	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	v, err = Binary.TypeCast("uuid'6ba7b810-9dad-11d1-80b4-00c04fd430c8'")
	require.NoError(t, err)
	assert.Equal(t, u[:], v)

	_, err = Binary.TypeCast("uuid'nope'")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 8, 7}, 0o600))

	v, err = VarBinary.TypeCast("[file]" + path)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, v)

	v, err = LongVarBinary.TypeCast("[url]file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, v)

	_, err = Blob.TypeCast(12)
	assert.Error(t, err)
}

func TestBinaryFromURL(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blob":
			_, _ = w.Write([]byte{1, 2, 3})
		case "/slow":
			select {
			case <-release:
			case <-r.Context().Done():
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	defer close(release)

	saved := urlClient
	urlClient = &http.Client{Timeout: 100 * time.Millisecond}
	defer func() { urlClient = saved }()

	v, err := Blob.TypeCast("[url]" + srv.URL + "/blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, v)

	_, err = Blob.TypeCast("[url]" + srv.URL + "/missing")
	assert.ErrorContains(t, err, "404")

	start := time.Now()
	_, err = Blob.TypeCast("[url]" + srv.URL + "/slow")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestForObject(t *testing.T) {
	tests := []struct {
		input    any
		expected DataType
	}{
		{"s", Varchar},
		{true, Boolean},
		{int32(1), Integer},
		{int64(1), BigInt},
		{big.NewInt(1), BigIntBigInteger},
		{float32(1), Real},
		{1.0, Double},
		{decimal.NewFromInt(1), Numeric},
		{time.Now(), Timestamp},
		{[]byte{1}, Binary},
		{struct{}{}, Unknown},
		{nil, Unknown},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, ForObject(test.input), "%T", test.input)
	}
}

func TestClassification(t *testing.T) {
	for _, dt := range []DataType{Numeric, Decimal, TinyInt, SmallInt, Integer, BigInt, BigIntBigInteger, Real, Float, Double} {
		assert.True(t, dt.IsNumber(), dt.Name())
		assert.False(t, dt.IsDateTime(), dt.Name())
	}
	for _, dt := range []DataType{Date, Time, Timestamp} {
		assert.True(t, dt.IsDateTime(), dt.Name())
		assert.False(t, dt.IsNumber(), dt.Name())
	}
	for _, dt := range []DataType{Varchar, Boolean, Blob, Unknown} {
		assert.False(t, dt.IsNumber(), dt.Name())
		assert.False(t, dt.IsDateTime(), dt.Name())
	}
}

// recordingCursor logs the order of calls made against it.
type recordingCursor struct {
	*RawRow
	calls []string
}

func newRecordingCursor(values ...any) *recordingCursor {
	return &recordingCursor{RawRow: NewRawRow(values)}
}

func (c *recordingCursor) String(col int) (string, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.String(col)
}

func (c *recordingCursor) Int64(col int) (int64, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.Int64(col)
}

func (c *recordingCursor) Float64(col int) (float64, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.Float64(col)
}

func (c *recordingCursor) Bool(col int) (bool, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.Bool(col)
}

func (c *recordingCursor) Time(col int) (time.Time, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.Time(col)
}

func (c *recordingCursor) Bytes(col int) ([]byte, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.Bytes(col)
}

func (c *recordingCursor) Object(col int) (any, error) {
	c.calls = append(c.calls, "get")
	return c.RawRow.Object(col)
}

func (c *recordingCursor) WasNull() (bool, error) {
	c.calls = append(c.calls, "wasNull")
	return c.RawRow.WasNull()
}

func TestReadFromCallOrder(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		dt       DataType
		raw      any
		expected any
	}{
		{Varchar, "abc", "abc"},
		{Numeric, "1.5", decimal.RequireFromString("1.5")},
		{Integer, int64(7), int32(7)},
		{BigInt, int64(7), int64(7)},
		{BigIntBigInteger, "12", big.NewInt(12)},
		{Real, 1.5, float32(1.5)},
		{Double, 1.5, 1.5},
		{Boolean, true, true},
		{Timestamp, ts, ts},
		{Blob, []byte{1}, []byte{1}},
		{Unknown, "x", "x"},
	}

	for _, test := range tests {
		t.Run(test.dt.Name(), func(t *testing.T) {
			c := newRecordingCursor(test.raw)
			v, err := test.dt.ReadFrom(c, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"get", "wasNull"}, c.calls)
			if d, ok := test.expected.(decimal.Decimal); ok {
				assert.True(t, d.Equal(v.(decimal.Decimal)))
			} else if b, ok := test.expected.(*big.Int); ok {
				assert.Equal(t, 0, b.Cmp(v.(*big.Int)))
			} else {
				assert.Equal(t, test.expected, v)
			}

			c = newRecordingCursor(nil)
			v, err = test.dt.ReadFrom(c, 0)
			require.NoError(t, err)
			assert.Nil(t, v)
			assert.Equal(t, []string{"get", "wasNull"}, c.calls)
		})
	}
}

func TestWriteTo(t *testing.T) {
	sink := NewArgsSink(3)
	require.NoError(t, Integer.WriteTo(sink, 0, "5"))
	require.NoError(t, Timestamp.WriteTo(sink, 1, nil))
	require.NoError(t, BigIntBigInteger.WriteTo(sink, 2, 12))
	require.NoError(t, Varchar.WriteTo(sink, 4, "x"))

	assert.Equal(t, int32(5), sink.Args[0])
	assert.Equal(t, TypedNull{Type: SQLTypeTimestamp}, sink.Args[1])
	assert.Equal(t, "12", sink.Args[2])
	assert.Nil(t, sink.Args[3])
	assert.Equal(t, "x", sink.Args[4])

	v, err := TypedNull{Type: SQLTypeInteger}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, Integer.WriteTo(sink, 0, "abc"))
	assert.Error(t, Integer.WriteTo(sink, -1, 1))
}

func TestFactories(t *testing.T) {
	def := DefaultFactory{}
	assert.Equal(t, Varchar, def.CreateDataType(SQLTypeVarchar, ""))
	assert.Equal(t, Integer, def.CreateDataType(0, "int"))
	assert.Equal(t, Decimal, def.CreateDataType(SQLTypeOther, "DECIMAL(10,2)"))
	assert.Equal(t, Unknown, def.CreateDataType(0, "geometry"))

	pg := PostgresFactory{}
	assert.Equal(t, Integer, pg.CreateDataType(0, "integer"))
	assert.Equal(t, Varchar, pg.CreateDataType(0, "character varying"))
	assert.Equal(t, Char, pg.CreateDataType(0, "character"))
	assert.Equal(t, Timestamp, pg.CreateDataType(0, "timestamp without time zone"))
	assert.Equal(t, Time, pg.CreateDataType(0, "time without time zone"))
	assert.Equal(t, Binary, pg.CreateDataType(0, "uuid"))
	assert.Equal(t, LongVarchar, pg.CreateDataType(0, "jsonb"))

	my := MySQLFactory{}
	assert.Equal(t, Boolean, my.CreateDataType(0, "tinyint(1)"))
	assert.Equal(t, TinyInt, my.CreateDataType(0, "tinyint(4)"))
	assert.Equal(t, BigIntBigInteger, my.CreateDataType(0, "bigint(20) unsigned"))
	assert.Equal(t, Decimal, my.CreateDataType(0, "decimal(10,2)"))
	assert.Equal(t, Timestamp, my.CreateDataType(0, "datetime"))

	lite := SQLiteFactory{}
	assert.Equal(t, BigInt, lite.CreateDataType(0, "INTEGER"))
	assert.Equal(t, Varchar, lite.CreateDataType(0, "VARCHAR(20)"))
	assert.Equal(t, Double, lite.CreateDataType(0, "REAL"))
	assert.Equal(t, Numeric, lite.CreateDataType(0, "DECIMAL(5,2)"))
	assert.Equal(t, Timestamp, lite.CreateDataType(0, "DATETIME"))

	p := fixedParser()
	f, err := FactoryFor("postgres", p)
	require.NoError(t, err)
	dt := f.CreateDataType(0, "date")
	v, err := dt.TypeCast("[now]")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC).Equal(v.(time.Time)))

	_, err = FactoryFor("oracle", nil)
	assert.Error(t, err)
}
