package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"dbfixture/internal/datatype"
)

// sqlRows adapts sqlx rows to Rows. Each row is read with SliceScan so the
// driver's native values reach the semantic types unconverted.
type sqlRows struct {
	rows *sqlx.Rows
	*datatype.RawRow
	columns []string
}

func querySQL(ctx context.Context, db *sqlx.DB, query string, args ...any) (*sqlRows, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &sqlRows{rows: rows, RawRow: datatype.NewRawRow(nil), columns: columns}, nil
}

func execSQL(ctx context.Context, db *sqlx.DB, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sqlRows) Columns() []string {
	return append([]string(nil), r.columns...)
}

func (r *sqlRows) Next() (bool, error) {
	if !r.rows.Next() {
		return false, r.rows.Err()
	}
	values, err := r.rows.SliceScan()
	if err != nil {
		return false, err
	}
	r.Reset(values)
	return true, nil
}

func (r *sqlRows) Close() error {
	return r.rows.Close()
}
