package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbfixture/internal/assertion"
	"dbfixture/internal/closure"
	"dbfixture/internal/config"
	"dbfixture/internal/database/dbtest"
	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
	"dbfixture/internal/models"
	"dbfixture/internal/repositories"
)

func shopConnection(t *testing.T, cfg config.FixtureConfig) *Connection {
	t.Helper()
	conn, err := NewConnectionFromConfig(dbtest.OpenShop(t), "", cfg)
	require.NoError(t, err)
	return conn
}

func untyped(t *testing.T, name string, cols []string, rows ...[]any) *dataset.DefaultTable {
	t.Helper()
	columns := make([]dataset.Column, len(cols))
	for i, c := range cols {
		columns[i] = dataset.NewColumn(c, datatype.Unknown)
	}
	tbl, err := dataset.NewTableWithRows(dataset.NewTableMetaData(name, columns), rows)
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl dataset.Table, name string) []any {
	t.Helper()
	n, err := tbl.RowCount()
	require.NoError(t, err)
	out := make([]any, n)
	for i := range out {
		out[i], err = tbl.Value(i, name)
		require.NoError(t, err)
	}
	return out
}

func TestTableMetaData(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	md, err := conn.TableMetaData(context.Background(), "ORDERS")
	require.NoError(t, err)

	assert.Equal(t, "ORDERS", md.TableName())
	assert.Equal(t, []string{"ID", "CUSTOMER_ID", "TOTAL"}, dataset.ColumnNames(md.Columns()))
	assert.Equal(t, []string{"ID"}, dataset.ColumnNames(md.PrimaryKeys()))

	cols := md.Columns()
	assert.Equal(t, datatype.BigInt, cols[0].DataType)
	assert.Equal(t, datatype.Double, cols[2].DataType)
	assert.Equal(t, dataset.Nullable, cols[1].Nullable)

	customer, err := conn.TableMetaData(context.Background(), "CUSTOMER")
	require.NoError(t, err)
	name, err := customer.Column("name")
	require.NoError(t, err)
	assert.Equal(t, datatype.Varchar, name.DataType)
	assert.Equal(t, dataset.NoNulls, name.Nullable)
}

func TestTableMetaDataUnknownTable(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	_, err := conn.TableMetaData(context.Background(), "INVOICE")
	var nst *dataset.NoSuchTableError
	require.True(t, errors.As(err, &nst))
	assert.Equal(t, "INVOICE", nst.Name)
}

func TestPrimaryKeyOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("override wins over declared key", func(t *testing.T) {
		conn := shopConnection(t, config.FixtureConfig{
			PrimaryKeys: map[string][]string{"customer": {"NAME"}},
		})
		md, err := conn.TableMetaData(ctx, "CUSTOMER")
		require.NoError(t, err)
		assert.Equal(t, []string{"NAME"}, dataset.ColumnNames(md.PrimaryKeys()))
	})

	t.Run("unmatched columns are dropped", func(t *testing.T) {
		conn := shopConnection(t, config.FixtureConfig{
			PrimaryKeys: map[string][]string{"CUSTOMER": {"ID", "MISSING"}},
		})
		md, err := conn.TableMetaData(ctx, "CUSTOMER")
		require.NoError(t, err)
		assert.Equal(t, []string{"ID"}, dataset.ColumnNames(md.PrimaryKeys()))
		assert.Equal(t, []string{"MISSING"}, md.DroppedKeys())
	})

	t.Run("strict mode rejects unmatched columns", func(t *testing.T) {
		conn := shopConnection(t, config.FixtureConfig{
			PrimaryKeys:       map[string][]string{"CUSTOMER": {"MISSING"}},
			StrictPrimaryKeys: true,
		})
		_, err := conn.TableMetaData(ctx, "CUSTOMER")
		var nsc *dataset.NoSuchColumnError
		require.True(t, errors.As(err, &nsc))
		assert.Equal(t, "MISSING", nsc.Column)
	})
}

func TestCreateDataSet(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	ds, err := conn.CreateDataSet(context.Background())
	require.NoError(t, err)

	names, err := ds.TableNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMER", "LINE_ITEM", "ORDERS"}, names)

	names[0] = "changed"
	again, err := ds.TableNames()
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER", again[0])

	orders, err := ds.Table("orders")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), int64(8), int64(9)}, column(t, orders, "ID"))
	assert.Equal(t, []any{int64(1), int64(2), nil}, column(t, orders, "CUSTOMER_ID"))
	assert.Equal(t, []any{12.5, 3.0, 0.0}, column(t, orders, "TOTAL"))

	same, err := ds.Table("ORDERS")
	require.NoError(t, err)
	assert.Same(t, orders, same)

	_, err = ds.Table("INVOICE")
	assert.True(t, dataset.IsNoSuchTable(err))
}

func TestCreateDataSetRejectsDuplicateNames(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	_, err := conn.CreateDataSet(context.Background(), "CUSTOMER", "customer")
	var amb *dataset.AmbiguousTableNameError
	assert.True(t, errors.As(err, &amb))
}

func TestDataSetIterators(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ds, err := conn.CreateDataSet(context.Background(), "CUSTOMER", "ORDERS")
	require.NoError(t, err)

	collect := func(it dataset.TableIterator) []string {
		var out []string
		for {
			ok, err := it.Next()
			require.NoError(t, err)
			if !ok {
				return out
			}
			md, err := it.TableMetaData()
			require.NoError(t, err)
			out = append(out, md.TableName())
		}
	}

	it, err := ds.Iterator()
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMER", "ORDERS"}, collect(it))

	rit, err := ds.ReverseIterator()
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDERS", "CUSTOMER"}, collect(rit))
}

func TestCreateQueryTable(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	tbl, err := conn.CreateQueryTable(ctx, "CUSTOMER", "SELECT ID, NAME FROM CUSTOMER WHERE ID > ? ORDER BY ID", 0)
	require.NoError(t, err)

	md := tbl.TableMetaData()
	assert.Equal(t, []string{"ID"}, dataset.ColumnNames(md.PrimaryKeys()))
	id, err := md.Column("ID")
	require.NoError(t, err)
	assert.Equal(t, datatype.BigInt, id.DataType)

	_, err = tbl.RowCount()
	assert.True(t, dataset.IsUnsupported(err))

	v, err := tbl.Value(1, "NAME")
	require.NoError(t, err)
	assert.Equal(t, "bob", v)

	_, err = tbl.Value(0, "NAME")
	assert.True(t, dataset.IsUnsupported(err))

	_, err = tbl.Value(2, "NAME")
	assert.True(t, dataset.IsRowOutOfBounds(err))
}

func TestCreateQueryTableUnknownName(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	tbl, err := conn.CreateQueryTable(context.Background(), "REPORT", "SELECT COUNT(*) AS N FROM ORDERS")
	require.NoError(t, err)
	defer tbl.Close()

	n, err := tbl.TableMetaData().Column("N")
	require.NoError(t, err)
	assert.Equal(t, datatype.Unknown, n.DataType)

	v, err := tbl.Value(0, "N")
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestGraphAndSequenceFilter(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	g, err := conn.Graph(ctx)
	require.NoError(t, err)
	order, err := g.InsertOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMER", "ORDERS", "LINE_ITEM"}, order)

	filter, err := NewDatabaseSequenceFilter(ctx, conn)
	require.NoError(t, err)
	ds, err := conn.CreateDataSet(ctx)
	require.NoError(t, err)

	names, err := dataset.NewFilteredDataSet(filter, ds).TableNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMER", "ORDERS", "LINE_ITEM"}, names)
}

func TestGraphUnknownTable(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	_, err := conn.Graph(context.Background(), "ORDERS", "INVOICE")
	var noTable *dataset.NoSuchTableError
	require.ErrorAs(t, err, &noTable)
	assert.Equal(t, "INVOICE", noTable.Name)

	g, err := conn.Graph(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, g.Tables())
}

// brokenStore fails every metadata read with err.
type brokenStore struct {
	repositories.Store
	err error
}

func (s brokenStore) GetTables(context.Context, string) ([]string, error) {
	return nil, s.err
}

func (s brokenStore) GetColumns(context.Context, string, string) ([]models.Column, error) {
	return nil, s.err
}

func TestStoreErrorsKeepTheirCause(t *testing.T) {
	storeErr := errors.New("connection reset")
	conn, err := NewConnectionFromConfig(brokenStore{Store: dbtest.OpenShop(t), err: storeErr}, "", config.FixtureConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = conn.TableNames(ctx)
	assert.ErrorIs(t, err, storeErr)

	_, err = conn.TableMetaData(ctx, "ORDERS")
	assert.ErrorIs(t, err, storeErr)
	assert.ErrorContains(t, err, "ORDERS")

	_, err = conn.Graph(ctx)
	assert.ErrorIs(t, err, storeErr)
}

func TestReachableGraph(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	tests := []struct {
		name  string
		mode  closure.Mode
		seeds []string
		want  []string
	}{
		{"imported from leaf", closure.ImportedKeys, []string{"LINE_ITEM"}, []string{"LINE_ITEM", "ORDERS", "CUSTOMER"}},
		{"imported from root", closure.ImportedKeys, []string{"CUSTOMER"}, []string{"CUSTOMER"}},
		{"all from root", closure.AllKeys, []string{"CUSTOMER"}, []string{"CUSTOMER", "ORDERS", "LINE_ITEM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := conn.ReachableGraph(ctx, tt.mode, tt.seeds...)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, g.Tables())
		})
	}
}

func TestClosureOverDatabase(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	g, err := conn.ReachableGraph(ctx, closure.ImportedKeys, "LINE_ITEM")
	require.NoError(t, err)
	ds, err := conn.CreateDataSet(ctx, g.Tables()...)
	require.NoError(t, err)

	seed := closure.Seed{}
	seed.Add("LINE_ITEM", "102")
	res, err := closure.Compute(ds, g, seed, closure.ImportedKeys)
	require.NoError(t, err)

	assert.Equal(t, [][]any{{int64(102)}}, res.Keys("LINE_ITEM"))
	assert.Equal(t, [][]any{{int64(8)}}, res.Keys("ORDERS"))
	assert.Equal(t, [][]any{{int64(2)}}, res.Keys("CUSTOMER"))
}

func TestCleanInsert(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	// listed children first; the graph decides the order
	fixture, err := dataset.NewDataSet(false,
		untyped(t, "LINE_ITEM", []string{"ID", "ORDER_ID", "SKU"}, []any{500, "50", "mug"}),
		untyped(t, "ORDERS", []string{"ID", "CUSTOMER_ID", "TOTAL"}, []any{50, 5, "4.25"}, []any{51, nil, nil}),
		untyped(t, "CUSTOMER", []string{"ID", "NAME"}, []any{5, "eve"}),
	)
	require.NoError(t, err)

	n, err := conn.CleanInsert(ctx, fixture)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	actual, err := conn.CreateDataSet(ctx, "LINE_ITEM", "ORDERS", "CUSTOMER")
	require.NoError(t, err)

	cmp, err := conn.Comparer()
	require.NoError(t, err)
	assertion.AssertDataSetEquals(t, fixture, actual, cmp)

	orders, err := actual.Table("ORDERS")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(5), nil}, column(t, orders, "CUSTOMER_ID"))
}

func TestInsertLeavesNoValueToDefault(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	items := untyped(t, "LINE_ITEM", []string{"ID", "ORDER_ID", "SKU"}, []any{200, 7, dataset.NoValue})
	fixture, err := dataset.NewDataSet(false, items)
	require.NoError(t, err)

	_, err = conn.Insert(ctx, fixture)
	require.NoError(t, err)

	tbl, err := conn.CreateQueryTable(ctx, "LINE_ITEM", "SELECT SKU FROM LINE_ITEM WHERE ID = 200")
	require.NoError(t, err)
	defer tbl.Close()
	v, err := tbl.Value(0, "SKU")
	require.NoError(t, err)
	assert.Equal(t, "n/a", v)
}

func TestInsertUnknownColumn(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})

	fixture, err := dataset.NewDataSet(false, untyped(t, "CUSTOMER", []string{"ID", "EMAIL"}, []any{3, "x@y"}))
	require.NoError(t, err)

	_, err = conn.Insert(context.Background(), fixture)
	var nsc *dataset.NoSuchColumnError
	require.True(t, errors.As(err, &nsc))
	assert.Equal(t, "EMAIL", nsc.Column)
}

func TestInsertForwardOnlySource(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	src, err := dataset.NewDataSet(false, untyped(t, "CUSTOMER", []string{"ID", "NAME"}, []any{3, "cy"}, []any{4, "dee"}))
	require.NoError(t, err)

	n, err := conn.Insert(ctx, dataset.NewForwardOnlyDataSet(src))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCleanInsertForwardOnlySource(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	src, err := dataset.NewDataSet(false,
		untyped(t, "LINE_ITEM", []string{"ID", "ORDER_ID"}),
		untyped(t, "ORDERS", []string{"ID", "CUSTOMER_ID"}, []any{20, 5}),
		untyped(t, "CUSTOMER", []string{"ID", "NAME"}, []any{5, "eve"}),
	)
	require.NoError(t, err)

	n, err := conn.CleanInsert(ctx, dataset.NewForwardOnlyDataSet(src))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	fresh, err := conn.CreateDataSet(ctx, "ORDERS")
	require.NoError(t, err)
	orders, err := fresh.Table("ORDERS")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(20)}, column(t, orders, "ID"))
}

func TestDeleteAllForwardOnlySource(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	src, err := dataset.NewDataSet(false,
		untyped(t, "CUSTOMER", []string{"ID"}),
		untyped(t, "ORDERS", []string{"ID"}),
		untyped(t, "LINE_ITEM", []string{"ID"}),
	)
	require.NoError(t, err)

	n, err := conn.DeleteAll(ctx, dataset.NewForwardOnlyDataSet(src))
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)
}

func TestDeleteAllRespectsForeignKeys(t *testing.T) {
	conn := shopConnection(t, config.FixtureConfig{})
	ctx := context.Background()

	ds, err := conn.CreateDataSet(ctx, "CUSTOMER", "ORDERS", "LINE_ITEM")
	require.NoError(t, err)

	n, err := conn.DeleteAll(ctx, ds)
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)

	fresh, err := conn.CreateDataSet(ctx, "CUSTOMER")
	require.NoError(t, err)
	customers, err := fresh.Table("CUSTOMER")
	require.NoError(t, err)
	count, err := customers.RowCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}
