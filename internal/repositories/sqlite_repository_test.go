package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbfixture/internal/models"
)

var sqliteSchema = []string{
	`CREATE TABLE REGION (CODE TEXT, SUB INTEGER, NAME TEXT UNIQUE, PRIMARY KEY (CODE, SUB))`,
	`CREATE TABLE STORE (
		ID INTEGER PRIMARY KEY,
		REGION_CODE TEXT NOT NULL,
		REGION_SUB INTEGER NOT NULL,
		OPENED DATE,
		FOREIGN KEY (REGION_CODE, REGION_SUB) REFERENCES REGION (CODE, SUB)
	)`,
	`CREATE TABLE MANAGER (ID INTEGER PRIMARY KEY, STORE_ID INTEGER REFERENCES STORE, BOSS_ID INTEGER REFERENCES MANAGER(ID))`,
}

func openSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	for _, stmt := range sqliteSchema {
		_, err := repo.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	return repo
}

func TestSQLiteIntrospection(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	tables, err := repo.GetTables(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"MANAGER", "REGION", "STORE"}, tables)

	cols, err := repo.GetColumns(ctx, "", "STORE")
	require.NoError(t, err)
	assert.Equal(t, []models.Column{
		{Name: "ID", DataType: "INTEGER", Nullable: true},
		{Name: "REGION_CODE", DataType: "TEXT", Nullable: false},
		{Name: "REGION_SUB", DataType: "INTEGER", Nullable: false},
		{Name: "OPENED", DataType: "DATE", Nullable: true},
	}, cols)

	pks, err := repo.GetPrimaryKeys(ctx, "", "REGION")
	require.NoError(t, err)
	assert.Equal(t, []string{"CODE", "SUB"}, pks)
}

func TestSQLiteForeignKeys(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	fks, err := repo.GetForeignKeys(ctx, "", "STORE")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "STORE", fks[0].FromTable)
	assert.Equal(t, "REGION", fks[0].ToTable)
	assert.Equal(t, []string{"REGION_CODE", "REGION_SUB"}, fks[0].FromColumns)
	assert.Equal(t, []string{"CODE", "SUB"}, fks[0].ToColumns)

	// STORE is referenced without columns; the key resolves to its primary key
	fks, err = repo.GetForeignKeys(ctx, "", "MANAGER")
	require.NoError(t, err)
	require.Len(t, fks, 2)
	targets := map[string][]string{}
	for _, fk := range fks {
		targets[fk.ToTable] = fk.ToColumns
	}
	assert.Equal(t, []string{"ID"}, targets["STORE"])
	assert.Equal(t, []string{"ID"}, targets["MANAGER"])

	exported, err := repo.GetExportedKeys(ctx, "", "STORE")
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "MANAGER", exported[0].FromTable)
}

func TestSQLiteUniqueConstraints(t *testing.T) {
	repo := openSQLite(t)

	unique, err := repo.GetUniqueConstraintsBatch(context.Background(), "", []TableColumn{
		{Table: "REGION", Column: "NAME"},
		{Table: "REGION", Column: "CODE"},
		{Table: "STORE", Column: "REGION_CODE"},
	})
	require.NoError(t, err)
	assert.True(t, unique[UniqueKey("REGION", "NAME")])
	assert.False(t, unique[UniqueKey("REGION", "CODE")])
	assert.False(t, unique[UniqueKey("STORE", "REGION_CODE")])
}

func TestSQLiteRows(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	n, err := repo.Exec(ctx, "INSERT INTO REGION (CODE, SUB, NAME) VALUES (?, ?, ?), (?, ?, ?)", "EU", 1, "west", "EU", 2, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rows, err := repo.QueryRows(ctx, "SELECT CODE, SUB, NAME FROM "+repo.QualifiedName("ignored", "REGION")+" ORDER BY SUB")
	require.NoError(t, err)
	defer rows.Close()
	assert.Equal(t, []string{"CODE", "SUB", "NAME"}, rows.Columns())

	ok, err := rows.Next()
	require.NoError(t, err)
	require.True(t, ok)
	sub, err := rows.Int64(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub)
	name, err := rows.String(2)
	require.NoError(t, err)
	assert.Equal(t, "west", name)

	ok, err = rows.Next()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = rows.String(2)
	require.NoError(t, err)
	null, err := rows.WasNull()
	require.NoError(t, err)
	assert.True(t, null)

	ok, err = rows.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteQuoting(t *testing.T) {
	repo := &SQLiteRepository{}
	assert.Equal(t, `"odd""name"`, repo.QuoteIdentifier(`odd"name`))
	assert.Equal(t, `"T"`, repo.QualifiedName("main", "T"))
	assert.Equal(t, "?", repo.Placeholder(3))
	assert.Equal(t, "sqlite", repo.Dialect())
}

func TestMySQLQuoting(t *testing.T) {
	repo := &MySQLRepository{}
	assert.Equal(t, "`odd``name`", repo.QuoteIdentifier("odd`name"))
	assert.Equal(t, "`shop`.`T`", repo.QualifiedName("shop", "T"))
	assert.Equal(t, "`T`", repo.QualifiedName("", "T"))
	assert.Equal(t, "?", repo.Placeholder(1))
	assert.Equal(t, "mysql", repo.Dialect())
}

func TestOpenMySQLRejectsBadDSN(t *testing.T) {
	_, err := OpenMySQL(context.Background(), "not a dsn")
	assert.Error(t, err)
}

func TestGroupForeignKeys(t *testing.T) {
	fks := groupForeignKeys([]foreignKeyRow{
		{ConstraintName: "fk_a", FromTable: "A", FromColumn: "X1", ToTable: "B", ToColumn: "Y1"},
		{ConstraintName: "fk_a", FromTable: "A", FromColumn: "X2", ToTable: "B", ToColumn: "Y2"},
		{ConstraintName: "fk_c", FromTable: "C", FromColumn: "Z", ToTable: "B", ToColumn: "Y1"},
		{ConstraintName: "fk_a", FromTable: "D", FromColumn: "W", ToTable: "B", ToColumn: "Y1"},
	})
	require.Len(t, fks, 3)
	assert.Equal(t, []string{"X1", "X2"}, fks[0].FromColumns)
	assert.Equal(t, []string{"Y1", "Y2"}, fks[0].ToColumns)
	assert.Equal(t, "C", fks[1].FromTable)
	assert.Equal(t, "D", fks[2].FromTable)
}
