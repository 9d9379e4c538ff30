package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/datatype"
	"dbfixture/internal/models"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Dialect() string {
	return "postgres"
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetTables returns all table names in the specified schema
func (r *PostgresRepository) GetTables(ctx context.Context, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := r.pool.Query(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

// GetColumns returns all columns for a specific table in a schema
func (r *PostgresRepository) GetColumns(ctx context.Context, schema, table string) ([]models.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := r.pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var col models.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return columns, nil
}

// GetPrimaryKeys returns all primary key column names for a specific table
func (r *PostgresRepository) GetPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := r.pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pks, nil
}

// Columns of a multi-column key are paired through
// position_in_unique_constraint, so composite keys keep their alignment.
const postgresForeignKeys = `
	SELECT
		kcu.constraint_name,
		kcu.table_name AS from_table,
		kcu.column_name AS from_column,
		pk.table_name AS to_table,
		pk.column_name AS to_column
	FROM information_schema.referential_constraints rc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = rc.constraint_name
		AND kcu.constraint_schema = rc.constraint_schema
	JOIN information_schema.key_column_usage pk
		ON pk.constraint_name = rc.unique_constraint_name
		AND pk.constraint_schema = rc.unique_constraint_schema
		AND pk.ordinal_position = kcu.position_in_unique_constraint
	WHERE %s
	ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position
`

// GetForeignKeys returns all foreign keys for a specific table
func (r *PostgresRepository) GetForeignKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	return r.foreignKeys(ctx, "kcu.table_schema = $1 AND kcu.table_name = $2", schema, table)
}

// GetExportedKeys returns the foreign keys that reference a specific table
func (r *PostgresRepository) GetExportedKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	return r.foreignKeys(ctx, "pk.table_schema = $1 AND pk.table_name = $2", schema, table)
}

func (r *PostgresRepository) foreignKeys(ctx context.Context, where string, schema, table string) ([]models.ForeignKey, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(postgresForeignKeys, where), schema, table)
	if err != nil {
		return nil, err
	}
	fkRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[foreignKeyRow])
	if err != nil {
		return nil, err
	}
	return groupForeignKeys(fkRows), nil
}

// GetUniqueConstraintsBatch returns a map of table:column pairs that have unique constraints
func (r *PostgresRepository) GetUniqueConstraintsBatch(ctx context.Context, schema string, tableColumns []TableColumn) (map[string]bool, error) {
	if len(tableColumns) == 0 {
		return make(map[string]bool), nil
	}

	// Build query with multiple conditions
	var conditions []string
	var args []interface{}
	argNum := 1

	for _, tc := range tableColumns {
		conditions = append(conditions, fmt.Sprintf("(tc.table_name = $%d AND kcu.column_name = $%d)", argNum, argNum+1))
		args = append(args, tc.Table, tc.Column)
		argNum += 2
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'UNIQUE'
			AND tc.table_schema = $%d
			AND (%s)
	`, argNum, strings.Join(conditions, " OR "))
	args = append(args, schema)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query unique constraints")
	}
	defer rows.Close()

	uniqueMap := make(map[string]bool)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, errors.Wrap(err, "failed to scan unique constraint")
		}
		uniqueMap[UniqueKey(table, column)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating unique constraints")
	}

	return uniqueMap, nil
}

func (r *PostgresRepository) QueryRows(ctx context.Context, query string, args ...any) (Rows, error) {
	log.WithField("query", query).Debug("postgres query")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return &pgxRows{rows: rows, RawRow: datatype.NewRawRow(nil), columns: columns}, nil
}

func (r *PostgresRepository) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	log.WithField("query", query).Debug("postgres exec")
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) QualifiedName(schema, table string) string {
	if schema == "" {
		return pgx.Identifier{table}.Sanitize()
	}
	return pgx.Identifier{schema, table}.Sanitize()
}

func (r *PostgresRepository) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (r *PostgresRepository) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// pgxRows decodes each row with pgx and serves the values through RawRow.
type pgxRows struct {
	rows pgx.Rows
	*datatype.RawRow
	columns []string
}

func (r *pgxRows) Columns() []string {
	return append([]string(nil), r.columns...)
}

func (r *pgxRows) Next() (bool, error) {
	if !r.rows.Next() {
		return false, r.rows.Err()
	}
	values, err := r.rows.Values()
	if err != nil {
		return false, err
	}
	r.Reset(values)
	return true, nil
}

func (r *pgxRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}
