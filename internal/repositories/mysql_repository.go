package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/models"
)

// MySQLRepository treats the schema as the database name; an empty schema
// means the connection's current database.
type MySQLRepository struct {
	db *sqlx.DB
}

func NewMySQLRepository(db *sqlx.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func OpenMySQL(ctx context.Context, dsn string) (*MySQLRepository, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, errors.Wrap(err, "failed to parse connection string")
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return NewMySQLRepository(db), nil
}

func (r *MySQLRepository) Dialect() string {
	return "mysql"
}

func (r *MySQLRepository) Close() error {
	return r.db.Close()
}

const mysqlSchema = "COALESCE(NULLIF(?, ''), DATABASE())"

func (r *MySQLRepository) GetTables(ctx context.Context, schema string) ([]string, error) {
	var tables []string
	err := r.db.SelectContext(ctx, &tables, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = `+mysqlSchema+`
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// GetColumns reports column_type rather than data_type so that display
// widths and the unsigned flag reach the type factory.
func (r *MySQLRepository) GetColumns(ctx context.Context, schema, table string) ([]models.Column, error) {
	var columns []models.Column
	err := r.db.SelectContext(ctx, &columns, `
		SELECT column_name AS name, column_type AS data_type, is_nullable = 'YES' AS nullable
		FROM information_schema.columns
		WHERE table_schema = `+mysqlSchema+` AND table_name = ?
		ORDER BY ordinal_position
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func (r *MySQLRepository) GetPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	var pks []string
	err := r.db.SelectContext(ctx, &pks, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = `+mysqlSchema+`
		AND table_name = ?
		AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return pks, nil
}

const mysqlForeignKeys = `
	SELECT
		constraint_name,
		table_name AS from_table,
		column_name AS from_column,
		referenced_table_name AS to_table,
		referenced_column_name AS to_column
	FROM information_schema.key_column_usage
	WHERE table_schema = ` + mysqlSchema + `
	AND referenced_table_name IS NOT NULL
	AND %s = ?
	ORDER BY table_name, constraint_name, ordinal_position
`

func (r *MySQLRepository) GetForeignKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	return r.foreignKeys(ctx, "table_name", schema, table)
}

func (r *MySQLRepository) GetExportedKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	return r.foreignKeys(ctx, "referenced_table_name", schema, table)
}

func (r *MySQLRepository) foreignKeys(ctx context.Context, column, schema, table string) ([]models.ForeignKey, error) {
	var rows []foreignKeyRow
	if err := r.db.SelectContext(ctx, &rows, fmt.Sprintf(mysqlForeignKeys, column), schema, table); err != nil {
		return nil, err
	}
	return groupForeignKeys(rows), nil
}

func (r *MySQLRepository) GetUniqueConstraintsBatch(ctx context.Context, schema string, tableColumns []TableColumn) (map[string]bool, error) {
	uniqueMap := make(map[string]bool)
	if len(tableColumns) == 0 {
		return uniqueMap, nil
	}

	var conditions []string
	args := []interface{}{schema}
	for _, tc := range tableColumns {
		conditions = append(conditions, "(table_name = ? AND column_name = ?)")
		args = append(args, tc.Table, tc.Column)
	}

	query := `
		SELECT table_name, MIN(column_name) AS column_name
		FROM information_schema.statistics
		WHERE table_schema = ` + mysqlSchema + `
		AND non_unique = 0
		GROUP BY table_name, index_name
		HAVING COUNT(*) = 1 AND (` + strings.Join(conditions, " OR ") + `)`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query unique constraints")
	}
	defer rows.Close()

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

func (r *MySQLRepository) QueryRows(ctx context.Context, query string, args ...any) (Rows, error) {
	log.WithField("query", query).Debug("mysql query")
	return querySQL(ctx, r.db, query, args...)
}

func (r *MySQLRepository) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	log.WithField("query", query).Debug("mysql exec")
	return execSQL(ctx, r.db, query, args...)
}

func (r *MySQLRepository) QualifiedName(schema, table string) string {
	if schema == "" {
		return r.QuoteIdentifier(table)
	}
	return r.QuoteIdentifier(schema) + "." + r.QuoteIdentifier(table)
}

func (r *MySQLRepository) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (r *MySQLRepository) Placeholder(int) string {
	return "?"
}
