package database

import (
	"context"
	"strings"
	"sync"

	"dbfixture/internal/dataset"
)

// DataSet is a database-backed dataset. Table names are fixed at creation;
// rows are read the first time a table is requested and then kept. The
// context given at creation bounds every read.
type DataSet struct {
	ctx    context.Context
	conn   *Connection
	names  []string
	mu     sync.Mutex
	md     map[string]*dataset.TableMetaData
	tables map[string]*dataset.DefaultTable
}

func newDataSet(ctx context.Context, conn *Connection, names []string) (*DataSet, error) {
	ds := &DataSet{
		ctx:    ctx,
		conn:   conn,
		md:     map[string]*dataset.TableMetaData{},
		tables: map[string]*dataset.DefaultTable{},
	}
	seen := map[string]bool{}
	for _, name := range names {
		key := ds.key(name)
		if seen[key] {
			return nil, &dataset.AmbiguousTableNameError{Name: name}
		}
		seen[key] = true
		ds.names = append(ds.names, name)
	}
	return ds, nil
}

func (ds *DataSet) key(name string) string {
	if ds.conn.CaseSensitive() {
		return name
	}
	return strings.ToUpper(name)
}

func (ds *DataSet) resolve(name string) (string, error) {
	key := ds.key(name)
	for _, n := range ds.names {
		if ds.key(n) == key {
			return n, nil
		}
	}
	return "", &dataset.NoSuchTableError{Name: name}
}

func (ds *DataSet) TableNames() ([]string, error) {
	return append([]string(nil), ds.names...), nil
}

func (ds *DataSet) TableMetaData(name string) (*dataset.TableMetaData, error) {
	resolved, err := ds.resolve(name)
	if err != nil {
		return nil, err
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.metaData(resolved)
}

func (ds *DataSet) metaData(name string) (*dataset.TableMetaData, error) {
	key := ds.key(name)
	if md, ok := ds.md[key]; ok {
		return md, nil
	}
	md, err := ds.conn.TableMetaData(ds.ctx, name)
	if err != nil {
		return nil, err
	}
	ds.md[key] = md
	return md, nil
}

func (ds *DataSet) Table(name string) (dataset.Table, error) {
	resolved, err := ds.resolve(name)
	if err != nil {
		return nil, err
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	key := ds.key(resolved)
	if t, ok := ds.tables[key]; ok {
		return t, nil
	}
	md, err := ds.metaData(resolved)
	if err != nil {
		return nil, err
	}
	t, err := ds.conn.selectAll(ds.ctx, md)
	if err != nil {
		return nil, err
	}
	ds.tables[key] = t
	return t, nil
}

func (ds *DataSet) Iterator() (dataset.TableIterator, error) {
	return dataset.NewNameIterator(ds.names, false, ds.Table), nil
}

func (ds *DataSet) ReverseIterator() (dataset.TableIterator, error) {
	return dataset.NewNameIterator(ds.names, true, ds.Table), nil
}

func (ds *DataSet) CaseSensitive() bool {
	return ds.conn.CaseSensitive()
}
