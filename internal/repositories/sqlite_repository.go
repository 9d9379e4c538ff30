package repositories

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/models"
)

// SQLiteRepository ignores the schema argument; a database file is one
// schema.
type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// OpenSQLite opens the database at dsn with foreign key enforcement on.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// an in-memory database lives and dies with its connection
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}
	return NewSQLiteRepository(db), nil
}

func (r *SQLiteRepository) Dialect() string {
	return "sqlite"
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) GetTables(ctx context.Context, _ string) ([]string, error) {
	var tables []string
	err := r.db.SelectContext(ctx, &tables, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

type sqliteColumn struct {
	CID          int     `db:"cid"`
	Name         string  `db:"name"`
	Type         string  `db:"type"`
	NotNull      int     `db:"notnull"`
	DefaultValue *string `db:"dflt_value"`
	PK           int     `db:"pk"`
}

func (r *SQLiteRepository) tableInfo(ctx context.Context, table string) ([]sqliteColumn, error) {
	var cols []sqliteColumn
	if err := r.db.SelectContext(ctx, &cols, `SELECT * FROM pragma_table_info(?) ORDER BY cid`, table); err != nil {
		return nil, err
	}
	return cols, nil
}

func (r *SQLiteRepository) GetColumns(ctx context.Context, _ string, table string) ([]models.Column, error) {
	info, err := r.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	columns := make([]models.Column, len(info))
	for i, c := range info {
		columns[i] = models.Column{Name: c.Name, DataType: c.Type, Nullable: c.NotNull == 0}
	}
	return columns, nil
}

func (r *SQLiteRepository) GetPrimaryKeys(ctx context.Context, _ string, table string) ([]string, error) {
	info, err := r.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	var keyed []sqliteColumn
	for _, c := range info {
		if c.PK > 0 {
			keyed = append(keyed, c)
		}
	}
	sort.Slice(keyed, func(i, j int) bool { return keyed[i].PK < keyed[j].PK })
	pks := make([]string, len(keyed))
	for i, c := range keyed {
		pks[i] = c.Name
	}
	return pks, nil
}

type sqliteForeignKey struct {
	ID       int     `db:"id"`
	Seq      int     `db:"seq"`
	Table    string  `db:"table"`
	From     string  `db:"from"`
	To       *string `db:"to"`
	OnUpdate string  `db:"on_update"`
	OnDelete string  `db:"on_delete"`
	Match    string  `db:"match"`
}

func (r *SQLiteRepository) GetForeignKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	var list []sqliteForeignKey
	if err := r.db.SelectContext(ctx, &list, `SELECT * FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table); err != nil {
		return nil, err
	}

	var parentKeys map[string][]string
	rows := make([]foreignKeyRow, 0, len(list))
	for _, fk := range list {
		to := ""
		if fk.To != nil {
			to = *fk.To
		} else {
			// a key without target columns references the parent primary key
			if parentKeys == nil {
				parentKeys = map[string][]string{}
			}
			pks, ok := parentKeys[fk.Table]
			if !ok {
				var err error
				if pks, err = r.GetPrimaryKeys(ctx, schema, fk.Table); err != nil {
					return nil, err
				}
				parentKeys[fk.Table] = pks
			}
			if fk.Seq < len(pks) {
				to = pks[fk.Seq]
			}
		}
		rows = append(rows, foreignKeyRow{
			ConstraintName: "fk_" + table + "_" + strconv.Itoa(fk.ID),
			FromTable:      table,
			FromColumn:     fk.From,
			ToTable:        fk.Table,
			ToColumn:       to,
		})
	}
	return groupForeignKeys(rows), nil
}

// GetExportedKeys scans the keys of every table, SQLite having no reverse
// catalog.
func (r *SQLiteRepository) GetExportedKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	tables, err := r.GetTables(ctx, schema)
	if err != nil {
		return nil, err
	}
	var exported []models.ForeignKey
	for _, t := range tables {
		fks, err := r.GetForeignKeys(ctx, schema, t)
		if err != nil {
			return nil, err
		}
		for _, fk := range fks {
			if strings.EqualFold(fk.ToTable, table) {
				exported = append(exported, fk)
			}
		}
	}
	return exported, nil
}

func (r *SQLiteRepository) GetUniqueConstraintsBatch(ctx context.Context, _ string, tableColumns []TableColumn) (map[string]bool, error) {
	uniqueMap := make(map[string]bool)
	checked := map[string]bool{}
	for _, tc := range tableColumns {
		if checked[tc.Table] {
			continue
		}
		checked[tc.Table] = true

		var indexes []string
		err := r.db.SelectContext(ctx, &indexes, `SELECT name FROM pragma_index_list(?) WHERE "unique" = 1`, tc.Table)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query unique indexes")
		}
		for _, idx := range indexes {
			var cols []string
			if err := r.db.SelectContext(ctx, &cols, `SELECT name FROM pragma_index_info(?)`, idx); err != nil {
				return nil, errors.Wrap(err, "failed to query index columns")
			}
			if len(cols) == 1 {
				uniqueMap[UniqueKey(tc.Table, cols[0])] = true
			}
		}
	}
	return uniqueMap, nil
}

func (r *SQLiteRepository) QueryRows(ctx context.Context, query string, args ...any) (Rows, error) {
	log.WithField("query", query).Debug("sqlite query")
	return querySQL(ctx, r.db, query, args...)
}

func (r *SQLiteRepository) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	log.WithField("query", query).Debug("sqlite exec")
	return execSQL(ctx, r.db, query, args...)
}

func (r *SQLiteRepository) QualifiedName(_ string, table string) string {
	return r.QuoteIdentifier(table)
}

func (r *SQLiteRepository) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (r *SQLiteRepository) Placeholder(int) string {
	return "?"
}
