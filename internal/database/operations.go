package database

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
)

// DeleteAll removes every row of the tables of ds, children before parents.
func (c *Connection) DeleteAll(ctx context.Context, ds dataset.DataSet) (int64, error) {
	_, names, err := tableNames(ds)
	if err != nil {
		return 0, err
	}
	g, err := c.Graph(ctx, names...)
	if err != nil {
		return 0, err
	}
	order, err := g.DeleteOrder()
	if err != nil {
		return 0, err
	}

	var total int64
	for i, table := range order {
		log.Infof("Deleting table %d/%d: %s", i+1, len(order), table)
		n, err := c.store.Exec(ctx, "DELETE FROM "+c.store.QualifiedName(c.schema, table))
		if err != nil {
			return total, errors.Wrapf(err, "delete from %s failed", table)
		}
		total += n
	}
	return total, nil
}

// Insert writes the rows of ds, parents before children. Values are cast
// with the column types the store declares; cells holding NoValue are left
// to the column default.
func (c *Connection) Insert(ctx context.Context, ds dataset.DataSet) (int64, error) {
	ds, names, err := tableNames(ds)
	if err != nil {
		return 0, err
	}
	g, err := c.Graph(ctx, names...)
	if err != nil {
		return 0, err
	}
	order, err := g.InsertOrder()
	if err != nil {
		return 0, err
	}

	var total int64
	for i, table := range order {
		t, err := ds.Table(table)
		if err != nil {
			return total, err
		}
		log.Infof("Inserting table %d/%d: %s", i+1, len(order), table)
		n, err := c.insertTable(ctx, t)
		total += n
		if err != nil {
			return total, errors.Wrapf(err, "insert into %s failed", table)
		}
	}
	return total, nil
}

// CleanInsert empties the tables of ds and inserts its rows.
func (c *Connection) CleanInsert(ctx context.Context, ds dataset.DataSet) (int64, error) {
	ds, _, err := tableNames(ds)
	if err != nil {
		return 0, err
	}
	if _, err := c.DeleteAll(ctx, ds); err != nil {
		return 0, err
	}
	return c.Insert(ctx, ds)
}

// tableNames lists the tables of ds. A dataset that cannot list its tables,
// such as a forward-only one, is read into memory first and the cached copy
// is returned in its place.
func tableNames(ds dataset.DataSet) (dataset.DataSet, []string, error) {
	names, err := ds.TableNames()
	if dataset.IsUnsupported(err) {
		cached, cerr := dataset.NewCachedDataSet(ds)
		if cerr != nil {
			return nil, nil, cerr
		}
		ds = cached
		names, err = ds.TableNames()
	}
	if err != nil {
		return nil, nil, err
	}
	return ds, names, nil
}

func (c *Connection) insertTable(ctx context.Context, t dataset.Table) (int64, error) {
	md := t.TableMetaData()
	target, err := c.TableMetaData(ctx, md.TableName())
	if err != nil {
		return 0, err
	}

	columns := md.Columns()
	if len(columns) == 0 {
		return 0, nil
	}
	types := make([]dataset.Column, len(columns))
	for i, col := range columns {
		if types[i], err = target.Column(col.Name); err != nil {
			return 0, err
		}
	}

	var total int64
	for row := 0; ; row++ {
		values, err := dataset.RowValues(t, row)
		if dataset.IsRowOutOfBounds(err) {
			return total, nil
		}
		if err != nil {
			return total, err
		}

		var names, marks []string
		sink := datatype.NewArgsSink(0)
		for i, v := range values {
			if v == dataset.NoValue {
				continue
			}
			idx := len(names)
			if err := types[i].DataType.WriteTo(sink, idx, v); err != nil {
				return total, err
			}
			names = append(names, c.store.QuoteIdentifier(types[i].Name))
			marks = append(marks, c.store.Placeholder(idx+1))
		}
		if len(names) == 0 {
			continue
		}

		query := "INSERT INTO " + c.store.QualifiedName(c.schema, target.TableName()) +
			" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
		log.WithFields(log.Fields{"table": target.TableName(), "row": row}).Debug(query)
		n, err := c.store.Exec(ctx, query, sink.Args...)
		if err != nil {
			return total, err
		}
		total += n
	}
}
