// Package closure computes the rows reachable from a seed of primary keys by
// following foreign keys, and materializes them as a dataset.
package closure

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
	"dbfixture/internal/graph"
)

// Mode selects which foreign key directions the closure follows.
type Mode int

const (
	// ImportedKeys follows keys from child rows to the parent rows they
	// reference.
	ImportedKeys Mode = iota
	// AllKeys also follows keys from parent rows to every child row that
	// references them.
	AllKeys
)

func (m Mode) String() string {
	if m == AllKeys {
		return "all"
	}
	return "imported"
}

// ParseMode maps "imported" and "all" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "imported":
		return ImportedKeys, nil
	case "all", "full":
		return AllKeys, nil
	}
	return ImportedKeys, errors.Errorf("unknown closure mode %q", s)
}

// Seed maps a table name to the primary key tuples to start from. Tables
// without a primary key are identified by all of their columns.
type Seed map[string][][]any

// Add appends one key tuple for table.
func (s Seed) Add(table string, key ...any) {
	s[table] = append(s[table], key)
}

// Result is the outcome of Compute.
type Result struct {
	g      *graph.Graph
	tables []string
	keys   map[string][][]any
	ds     *dataset.DefaultDataSet
}

// Tables returns the tables holding reachable rows, in source order.
func (r *Result) Tables() []string {
	return append([]string(nil), r.tables...)
}

// Keys returns the reachable key tuples of table in row order. The name
// is matched with the case rule of the graph.
func (r *Result) Keys(table string) [][]any {
	resolved, ok := r.g.TableName(table)
	if !ok {
		return nil
	}
	return r.keys[resolved]
}

// DataSet returns the source tables restricted to the reachable rows.
// Tables with nothing reachable are absent.
func (r *Result) DataSet() *dataset.DefaultDataSet {
	return r.ds
}

type tableState struct {
	name    string
	table   dataset.Table
	md      *dataset.TableMetaData
	keyCols []dataset.Column
	rows    int
	reached map[int]bool
	indexes map[string]map[string][]int
}

type rowRef struct {
	st  *tableState
	row int
}

type engine struct {
	src    dataset.DataSet
	g      *graph.Graph
	mode   Mode
	states map[string]*tableState
	queue  []rowRef
}

// Compute walks g from seed over the tables of src until no new row is
// reached. Seed tables unknown to g fail with NoSuchTableError and key
// columns missing from a table fail with NoSuchColumnError. Errors from src
// are returned as they are.
func Compute(src dataset.DataSet, g *graph.Graph, seed Seed, mode Mode) (*Result, error) {
	e := &engine{src: src, g: g, mode: mode, states: map[string]*tableState{}}

	names := make([]string, 0, len(seed))
	for name := range seed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.seed(name, seed[name]); err != nil {
			return nil, err
		}
	}

	for len(e.queue) > 0 {
		ref := e.queue[0]
		e.queue = e.queue[1:]
		if err := e.visit(ref); err != nil {
			return nil, err
		}
	}
	return e.result()
}

func (e *engine) state(name string) (*tableState, error) {
	resolved, ok := e.g.TableName(name)
	if !ok {
		return nil, &dataset.NoSuchTableError{Name: name}
	}
	if st, ok := e.states[resolved]; ok {
		return st, nil
	}
	t, err := e.src.Table(resolved)
	if err != nil {
		return nil, err
	}
	n, err := t.RowCount()
	if err != nil {
		return nil, err
	}
	md := t.TableMetaData()
	keyCols := md.PrimaryKeys()
	if len(keyCols) == 0 {
		keyCols = md.Columns()
	}
	st := &tableState{
		name:    md.TableName(),
		table:   t,
		md:      md,
		keyCols: keyCols,
		rows:    n,
		reached: map[int]bool{},
		indexes: map[string]map[string][]int{},
	}
	e.states[resolved] = st
	return st, nil
}

func (e *engine) seed(name string, tuples [][]any) error {
	st, err := e.state(name)
	if err != nil {
		return err
	}
	cols := dataset.ColumnNames(st.keyCols)
	for _, tuple := range tuples {
		if len(tuple) != len(cols) {
			return errors.Errorf("seed for %s has %d key values, want %d (%s)",
				st.name, len(tuple), len(cols), strings.Join(cols, ", "))
		}
		rows, err := e.lookup(st, cols, st.keyCols, tuple)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			log.WithFields(log.Fields{"table": st.name, "key": tuple}).Debug("seed key matches no row")
		}
		e.reach(st, rows)
	}
	return nil
}

func (e *engine) reach(st *tableState, rows []int) {
	for _, r := range rows {
		if st.reached[r] {
			continue
		}
		st.reached[r] = true
		e.queue = append(e.queue, rowRef{st: st, row: r})
	}
}

func (e *engine) visit(ref rowRef) error {
	for _, fk := range e.g.ImportedKeys(ref.st.name) {
		if err := e.follow(ref, fk, false); err != nil {
			return err
		}
	}
	if e.mode != AllKeys {
		return nil
	}
	for _, fk := range e.g.ExportedKeys(ref.st.name) {
		if err := e.follow(ref, fk, true); err != nil {
			return err
		}
	}
	return nil
}

// follow moves from a reached row along fk. Outbound goes child to parent;
// exported goes parent to children. Values on both sides are cast with the
// parent column types before matching.
func (e *engine) follow(ref rowRef, fk graph.ForeignKey, exported bool) error {
	parent, err := e.state(fk.ParentTable)
	if err != nil {
		return err
	}
	types := make([]dataset.Column, len(fk.ParentColumns))
	for i, c := range fk.ParentColumns {
		col, err := parent.md.Column(c)
		if err != nil {
			return err
		}
		types[i] = col
	}

	fromCols, toCols := fk.ChildColumns, fk.ParentColumns
	target := parent
	if exported {
		fromCols, toCols = fk.ParentColumns, fk.ChildColumns
		if target, err = e.state(fk.ChildTable); err != nil {
			return err
		}
	}

	values := make([]any, len(fromCols))
	for i, c := range fromCols {
		v, err := ref.st.table.Value(ref.row, c)
		if err != nil {
			return err
		}
		if v == nil || v == dataset.NoValue {
			return nil
		}
		values[i] = v
	}
	rows, err := e.lookup(target, toCols, types, values)
	if err != nil {
		return err
	}
	e.reach(target, rows)
	return nil
}

// lookup returns the rows of st whose cols equal values, building an index
// over cols on first use.
func (e *engine) lookup(st *tableState, cols []string, types []dataset.Column, values []any) ([]int, error) {
	want, ok, err := encodeKey(types, values)
	if err != nil || !ok {
		return nil, err
	}
	sig := strings.ToUpper(strings.Join(cols, "\x00"))
	idx, built := st.indexes[sig]
	if !built {
		idx = map[string][]int{}
		for r := 0; r < st.rows; r++ {
			rowValues := make([]any, len(cols))
			for i, c := range cols {
				v, err := st.table.Value(r, c)
				if err != nil {
					return nil, err
				}
				rowValues[i] = v
			}
			k, ok, err := encodeKey(types, rowValues)
			if err != nil {
				return nil, err
			}
			if ok {
				idx[k] = append(idx[k], r)
			}
		}
		st.indexes[sig] = idx
	}
	return idx[want], nil
}

// encodeKey casts values with the column types and renders them as one map
// key. ok is false when any value is null.
func encodeKey(types []dataset.Column, values []any) (string, bool, error) {
	var b strings.Builder
	for i, v := range values {
		dt := types[i].DataType
		if dt == nil {
			dt = datatype.Unknown
		}
		cast, err := dt.TypeCast(v)
		if err != nil {
			return "", false, err
		}
		if cast == nil {
			return "", false, nil
		}
		if i > 0 {
			b.WriteByte(0x1f)
		}
		switch x := cast.(type) {
		case []byte:
			b.WriteString("x:")
			b.WriteString(hex.EncodeToString(x))
		case time.Time:
			b.WriteString(x.UTC().Format(time.RFC3339Nano))
		case decimal.Decimal:
			b.WriteString(x.String())
		case *big.Int:
			b.WriteString(x.String())
		default:
			fmt.Fprint(&b, x)
		}
	}
	return b.String(), true, nil
}

func (e *engine) result() (*Result, error) {
	res := &Result{g: e.g, keys: map[string][][]any{}}
	names, err := e.src.TableNames()
	if err != nil {
		return nil, err
	}
	var tables []dataset.Table
	total := 0
	for _, name := range names {
		resolved, ok := e.g.TableName(name)
		if !ok {
			continue
		}
		st, ok := e.states[resolved]
		if !ok || len(st.reached) == 0 {
			continue
		}
		rows := make([]int, 0, len(st.reached))
		for r := range st.reached {
			rows = append(rows, r)
		}
		sort.Ints(rows)
		subset, err := dataset.NewRowSubsetTable(st.table, rows)
		if err != nil {
			return nil, err
		}
		keys := make([][]any, len(rows))
		for i, r := range rows {
			key := make([]any, len(st.keyCols))
			for j, c := range st.keyCols {
				if key[j], err = st.table.Value(r, c.Name); err != nil {
					return nil, err
				}
			}
			keys[i] = key
		}
		res.tables = append(res.tables, st.name)
		res.keys[resolved] = keys
		tables = append(tables, subset)
		total += len(rows)
	}
	if res.ds, err = dataset.NewDataSet(e.src.CaseSensitive(), tables...); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"tables": len(res.tables), "rows": total}).Debug("primary key closure computed")
	return res, nil
}
