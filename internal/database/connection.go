// Package database binds the fixture engines to a live store: table
// metadata, lazily loaded datasets, foreign key graphs and row writes.
package database

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/assertion"
	"dbfixture/internal/closure"
	"dbfixture/internal/config"
	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
	"dbfixture/internal/graph"
	"dbfixture/internal/models"
	"dbfixture/internal/repositories"
)

// Connection is one schema of a store seen through the fixture settings.
// It holds no per-request state and is safe for concurrent use.
type Connection struct {
	store   repositories.Store
	schema  string
	factory datatype.Factory
	cfg     config.FixtureConfig
}

func NewConnection(store repositories.Store, schema string, factory datatype.Factory, cfg config.FixtureConfig) *Connection {
	return &Connection{store: store, schema: schema, factory: factory, cfg: cfg}
}

// NewConnectionFromConfig selects the type factory of the store's dialect
// and the relative time zone of cfg.
func NewConnectionFromConfig(store repositories.Store, schema string, cfg config.FixtureConfig) (*Connection, error) {
	parser, err := cfg.RelativeTimeParser()
	if err != nil {
		return nil, err
	}
	factory, err := datatype.FactoryFor(store.Dialect(), parser)
	if err != nil {
		return nil, err
	}
	return NewConnection(store, schema, factory, cfg), nil
}

func (c *Connection) Schema() string {
	return c.schema
}

func (c *Connection) Store() repositories.Store {
	return c.store
}

func (c *Connection) CaseSensitive() bool {
	return c.cfg.CaseSensitiveTableNames
}

// TableNames lists the tables of the schema.
func (c *Connection) TableNames(ctx context.Context) ([]string, error) {
	tables, err := c.store.GetTables(ctx, c.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tables")
	}
	return tables, nil
}

// TableMetaData describes table as the store declares it. The primary key
// is the configured override when there is one, the declared key otherwise.
// Override columns the table lacks are dropped with a warning, or rejected
// with NoSuchColumnError in strict mode.
func (c *Connection) TableMetaData(ctx context.Context, table string) (*dataset.TableMetaData, error) {
	cols, err := c.store.GetColumns(ctx, c.schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get columns for table %s", table)
	}
	if len(cols) == 0 {
		return nil, &dataset.NoSuchTableError{Name: table}
	}

	columns := make([]dataset.Column, len(cols))
	for i, col := range cols {
		columns[i] = c.column(col)
	}

	pks, overridden := c.cfg.PrimaryKeyOverride(table)
	if !overridden {
		if pks, err = c.store.GetPrimaryKeys(ctx, c.schema, table); err != nil {
			return nil, errors.Wrapf(err, "failed to get primary keys for table %s", table)
		}
	}

	md := dataset.NewTableMetaData(table, columns, pks...)
	if dropped := md.DroppedKeys(); len(dropped) > 0 {
		if c.cfg.StrictPrimaryKeys {
			return nil, &dataset.NoSuchColumnError{Table: table, Column: dropped[0]}
		}
		log.WithFields(log.Fields{
			"table":   table,
			"columns": dropped,
		}).Warn("primary key columns not found, ignoring")
	}
	return md, nil
}

func (c *Connection) column(col models.Column) dataset.Column {
	dc := dataset.NewColumn(col.Name, c.factory.CreateDataType(0, col.DataType))
	if col.Nullable {
		dc.Nullable = dataset.Nullable
	} else {
		dc.Nullable = dataset.NoNulls
	}
	return dc
}

// CreateDataSet returns the given tables, or every table of the schema, as a
// dataset whose tables are read on first access and kept in memory.
func (c *Connection) CreateDataSet(ctx context.Context, tables ...string) (*DataSet, error) {
	if len(tables) == 0 {
		all, err := c.TableNames(ctx)
		if err != nil {
			return nil, err
		}
		tables = all
	}
	return newDataSet(ctx, c, tables)
}

// CreateQueryTable runs query and streams its rows under the name table.
// Columns of a known table take their declared types; anything else reads
// as UNKNOWN.
func (c *Connection) CreateQueryTable(ctx context.Context, table, query string, args ...any) (*dataset.StreamingTable, error) {
	known, err := c.TableMetaData(ctx, table)
	if err != nil && !dataset.IsNoSuchTable(err) {
		return nil, err
	}

	rows, err := c.store.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to run query for table %s", table)
	}

	names := rows.Columns()
	columns := make([]dataset.Column, len(names))
	for i, name := range names {
		columns[i] = dataset.NewColumn(name, datatype.Unknown)
		if known == nil {
			continue
		}
		if kc, err := known.Column(name); err == nil {
			columns[i] = kc
		}
	}

	var pks []string
	if known != nil {
		pks = dataset.ColumnNames(known.PrimaryKeys())
	}
	md := dataset.NewTableMetaData(table, columns, pks...)
	return dataset.NewStreamingTable(md, rows), nil
}

// selectAll reads every row of table, ordered by primary key when it has one.
func (c *Connection) selectAll(ctx context.Context, md *dataset.TableMetaData) (*dataset.DefaultTable, error) {
	quoted := make([]string, 0, md.ColumnCount())
	for _, col := range md.Columns() {
		quoted = append(quoted, c.store.QuoteIdentifier(col.Name))
	}
	query := "SELECT " + strings.Join(quoted, ", ") + " FROM " + c.store.QualifiedName(c.schema, md.TableName())

	if pks := md.PrimaryKeys(); len(pks) > 0 {
		order := make([]string, len(pks))
		for i, pk := range pks {
			order[i] = c.store.QuoteIdentifier(pk.Name)
		}
		query += " ORDER BY " + strings.Join(order, ", ")
	}

	rows, err := c.store.QueryRows(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read table %s", md.TableName())
	}
	stream := dataset.NewStreamingTable(md, rows)
	defer stream.Close()
	return dataset.NewCachedTable(stream)
}

// Graph loads the foreign keys declared by tables, or by every table of the
// schema. Keys referencing tables outside the set are ignored. A requested
// table the schema lacks is reported as NoSuchTableError.
func (c *Connection) Graph(ctx context.Context, tables ...string) (*graph.Graph, error) {
	all, err := c.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		tables = all
	} else if err := c.checkTables(all, tables); err != nil {
		return nil, err
	}

	var keys []graph.ForeignKey
	for _, table := range tables {
		fks, err := c.store.GetForeignKeys(ctx, c.schema, table)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get foreign keys for table %s", table)
		}
		for _, fk := range fks {
			keys = append(keys, toGraphKey(fk))
		}
	}
	return graph.New(tables, keys, c.graphOptions()...), nil
}

// ReachableGraph discovers, breadth first from seeds, the tables a closure
// in mode can reach and returns their graph. Imported keys are always
// followed; exported keys only in AllKeys mode.
func (c *Connection) ReachableGraph(ctx context.Context, mode closure.Mode, seeds ...string) (*graph.Graph, error) {
	visited := map[string]bool{}
	var tables []string
	var keys []graph.ForeignKey

	queue := make([]string, 0, len(seeds))
	enqueue := func(table string) {
		key := c.normalize(table)
		if visited[key] {
			return
		}
		visited[key] = true
		tables = append(tables, table)
		queue = append(queue, table)
	}
	for _, s := range seeds {
		enqueue(s)
	}

	for len(queue) > 0 {
		table := queue[0]
		queue = queue[1:]

		fks, err := c.store.GetForeignKeys(ctx, c.schema, table)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get foreign keys for table %s", table)
		}
		for _, fk := range fks {
			keys = append(keys, toGraphKey(fk))
			enqueue(fk.ToTable)
		}

		if mode != closure.AllKeys {
			continue
		}
		exported, err := c.store.GetExportedKeys(ctx, c.schema, table)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get exported keys for table %s", table)
		}
		for _, fk := range exported {
			keys = append(keys, toGraphKey(fk))
			enqueue(fk.FromTable)
		}
	}

	log.WithFields(log.Fields{
		"seeds":  seeds,
		"tables": len(tables),
		"mode":   mode.String(),
	}).Debug("reachable graph discovered")
	return graph.New(tables, keys, c.graphOptions()...), nil
}

// Comparer returns a comparer relaxed by the configured tolerances.
func (c *Connection) Comparer() (*assertion.Comparer, error) {
	tolerances, err := c.cfg.ToleratedDeltas()
	if err != nil {
		return nil, err
	}
	return &assertion.Comparer{Tolerances: tolerances, SortRows: true}, nil
}

func (c *Connection) graphOptions() []graph.Option {
	if c.cfg.CaseSensitiveTableNames {
		return []graph.Option{graph.CaseSensitive()}
	}
	return nil
}

// checkTables fails with NoSuchTableError on the first requested table
// missing from known.
func (c *Connection) checkTables(known, requested []string) error {
	present := make(map[string]bool, len(known))
	for _, name := range known {
		present[c.normalize(name)] = true
	}
	for _, name := range requested {
		if !present[c.normalize(name)] {
			return &dataset.NoSuchTableError{Name: name}
		}
	}
	return nil
}

func (c *Connection) normalize(table string) string {
	if c.cfg.CaseSensitiveTableNames {
		return table
	}
	return strings.ToUpper(table)
}

func toGraphKey(fk models.ForeignKey) graph.ForeignKey {
	return graph.ForeignKey{
		Name:          fk.ConstraintName,
		ChildTable:    fk.FromTable,
		ChildColumns:  fk.FromColumns,
		ParentTable:   fk.ToTable,
		ParentColumns: fk.ToColumns,
	}
}

// NewDatabaseSequenceFilter returns a filter yielding tables, or every table
// of the schema, in insert order.
func NewDatabaseSequenceFilter(ctx context.Context, c *Connection, tables ...string) (*dataset.SequenceTableFilter, error) {
	g, err := c.Graph(ctx, tables...)
	if err != nil {
		return nil, err
	}
	order, err := g.InsertOrder()
	if err != nil {
		return nil, err
	}
	return dataset.NewSequenceTableFilter(c.cfg.CaseSensitiveTableNames, order...), nil
}
