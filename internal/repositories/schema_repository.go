package repositories

import (
	"context"
	"fmt"

	"dbfixture/internal/dataset"
	"dbfixture/internal/models"
)

// SchemaRepository introspects the tables and keys of one store.
type SchemaRepository interface {
	// GetTables returns all table names in the specified schema
	GetTables(ctx context.Context, schema string) ([]string, error)
	// GetColumns returns all columns for a specific table in a schema
	GetColumns(ctx context.Context, schema, table string) ([]models.Column, error)
	// GetPrimaryKeys returns the declared primary key columns in key order
	GetPrimaryKeys(ctx context.Context, schema, table string) ([]string, error)
	// GetForeignKeys returns the keys declared by table
	GetForeignKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error)
	// GetExportedKeys returns the keys other tables declare against table
	GetExportedKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error)
	// GetUniqueConstraintsBatch returns the table:column pairs covered by a
	// single-column unique constraint
	GetUniqueConstraintsBatch(ctx context.Context, schema string, tableColumns []TableColumn) (map[string]bool, error)
}

// RowRepository reads and writes rows with dialect-specific SQL.
type RowRepository interface {
	QueryRows(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// QualifiedName quotes table, qualified with schema where the store
	// has schemas.
	QualifiedName(schema, table string) string
	QuoteIdentifier(name string) string
	// Placeholder returns the parameter marker of the n-th argument,
	// counting from 1.
	Placeholder(n int) string
}

// Store is a connected database.
type Store interface {
	SchemaRepository
	RowRepository
	Dialect() string
	Close() error
}

// Rows is a forward-only cursor over a query result.
type Rows interface {
	dataset.RowCursor
	Columns() []string
}

// TableColumn represents a table and column pair
type TableColumn struct {
	Table  string
	Column string
}

// UniqueKey is the key of GetUniqueConstraintsBatch results.
func UniqueKey(table, column string) string {
	return fmt.Sprintf("%s:%s", table, column)
}

// groupForeignKeys folds per-column rows into one key per constraint,
// preserving first-seen order.
func groupForeignKeys(rows []foreignKeyRow) []models.ForeignKey {
	var fks []models.ForeignKey
	index := map[string]int{}
	for _, r := range rows {
		id := r.FromTable + "\x00" + r.ConstraintName
		i, ok := index[id]
		if !ok {
			i = len(fks)
			index[id] = i
			fks = append(fks, models.ForeignKey{
				ConstraintName: r.ConstraintName,
				FromTable:      r.FromTable,
				ToTable:        r.ToTable,
			})
		}
		fks[i].FromColumns = append(fks[i].FromColumns, r.FromColumn)
		fks[i].ToColumns = append(fks[i].ToColumns, r.ToColumn)
	}
	return fks
}

type foreignKeyRow struct {
	ConstraintName string `db:"constraint_name"`
	FromTable      string `db:"from_table"`
	FromColumn     string `db:"from_column"`
	ToTable        string `db:"to_table"`
	ToColumn       string `db:"to_column"`
}
