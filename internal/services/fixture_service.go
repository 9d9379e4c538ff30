package services

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/assertion"
	"dbfixture/internal/closure"
	"dbfixture/internal/config"
	"dbfixture/internal/database"
	"dbfixture/internal/dataset"
	"dbfixture/internal/models"
	"dbfixture/internal/repositories"
)

const fixtureTimeout = 2 * time.Minute

// Operations accepted by Load.
const (
	OperationInsert      = "insert"
	OperationCleanInsert = "clean_insert"
	OperationDeleteAll   = "delete_all"
)

type SubsetRequest struct {
	// Seed maps a table to the primary key tuples to start from
	Seed map[string][][]any `json:"seed" binding:"required"`
	Mode string             `json:"mode"`
}

type LoadRequest struct {
	Operation string             `json:"operation"`
	Tables    []models.TableRows `json:"tables" binding:"required"`
	// NullToken is a cell value read as SQL NULL, e.g. "[NULL]"
	NullToken string `json:"null_token"`
}

type VerifyRequest struct {
	Tables []models.TableRows `json:"tables" binding:"required"`
}

type VerifyResult struct {
	Equal       bool                   `json:"equal"`
	Mismatch    string                 `json:"mismatch,omitempty"`
	Differences []assertion.Difference `json:"differences"`
}

type ExportOptions struct {
	Include        []string
	Exclude        []string
	ExcludeColumns []string
}

type FixtureService struct {
	store repositories.Store
	cfg   config.FixtureConfig
}

func NewFixtureService(store repositories.Store, cfg config.FixtureConfig) *FixtureService {
	return &FixtureService{store: store, cfg: cfg}
}

// newConnection binds a schema, defaulting to public on Postgres.
func newConnection(store repositories.Store, schema string, cfg config.FixtureConfig) (*database.Connection, error) {
	if schema == "" && store.Dialect() == "postgres" {
		schema = "public"
	}
	return database.NewConnectionFromConfig(store, schema, cfg)
}

// Subset extracts the rows reachable from the seed keys, each table
// restricted to those rows.
func (s *FixtureService) Subset(ctx context.Context, schema string, req *SubsetRequest) ([]models.TableRows, error) {
	mode, err := closure.ParseMode(req.Mode)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if len(req.Seed) == 0 {
		return nil, &RequestError{Err: errors.New("seed is empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, fixtureTimeout)
	defer cancel()

	conn, err := newConnection(s.store, schema, s.cfg)
	if err != nil {
		return nil, err
	}

	seed := closure.Seed{}
	tables := make([]string, 0, len(req.Seed))
	for table, keys := range req.Seed {
		seed[table] = keys
		tables = append(tables, table)
	}
	sort.Strings(tables)

	g, err := conn.ReachableGraph(ctx, mode, tables...)
	if err != nil {
		return nil, err
	}
	src, err := conn.CreateDataSet(ctx, g.Tables()...)
	if err != nil {
		return nil, err
	}
	res, err := closure.Compute(src, g, seed, mode)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"schema": conn.Schema(),
		"mode":   mode.String(),
		"tables": res.Tables(),
	}).Info("subset extracted")
	return renderDataSet(res.DataSet(), nil)
}

// Load applies operation to the store with the given rows. Tables are
// written parents first and deleted children first.
func (s *FixtureService) Load(ctx context.Context, schema string, req *LoadRequest) (int64, error) {
	op := req.Operation
	if op == "" {
		op = OperationCleanInsert
	}
	switch op {
	case OperationInsert, OperationCleanInsert, OperationDeleteAll:
	default:
		return 0, &RequestError{Err: errors.Errorf("unknown operation %q", req.Operation)}
	}

	built, err := buildDataSet(req.Tables, s.cfg.CaseSensitiveTableNames)
	if err != nil {
		return 0, err
	}
	var ds dataset.DataSet = built
	if req.NullToken != "" {
		ds = dataset.NewReplacementDataSet(built, dataset.Replacements{
			Objects: map[any]any{req.NullToken: nil},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, fixtureTimeout)
	defer cancel()

	conn, err := newConnection(s.store, schema, s.cfg)
	if err != nil {
		return 0, err
	}

	var n int64
	switch op {
	case OperationInsert:
		n, err = conn.Insert(ctx, ds)
	case OperationCleanInsert:
		n, err = conn.CleanInsert(ctx, ds)
	case OperationDeleteAll:
		n, err = conn.DeleteAll(ctx, ds)
	}
	if err != nil {
		return n, err
	}

	log.WithFields(log.Fields{
		"schema":    conn.Schema(),
		"operation": op,
		"rows":      n,
	}).Info("fixture loaded")
	return n, nil
}

// Verify compares the given rows with the store's current content. Only
// the listed tables and columns are checked; rows are matched after
// sorting by primary key.
func (s *FixtureService) Verify(ctx context.Context, schema string, req *VerifyRequest) (*VerifyResult, error) {
	expected, err := buildDataSet(req.Tables, s.cfg.CaseSensitiveTableNames)
	if err != nil {
		return nil, err
	}
	names, err := expected.TableNames()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, fixtureTimeout)
	defer cancel()

	conn, err := newConnection(s.store, schema, s.cfg)
	if err != nil {
		return nil, err
	}
	actual, err := conn.CreateDataSet(ctx, names...)
	if err != nil {
		return nil, err
	}
	cmp, err := conn.Comparer()
	if err != nil {
		return nil, err
	}

	diffs, err := cmp.CompareDataSets(expected, actual)
	var shape *assertion.ShapeError
	if errors.As(err, &shape) {
		return &VerifyResult{Mismatch: shape.Error(), Differences: []assertion.Difference{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if diffs == nil {
		diffs = []assertion.Difference{}
	}
	return &VerifyResult{Equal: len(diffs) == 0, Differences: diffs}, nil
}

// Export reads the tables matching the include and exclude patterns in
// insert order, so the result can be loaded back as it is.
func (s *FixtureService) Export(ctx context.Context, schema string, opts ExportOptions) ([]models.TableRows, error) {
	ctx, cancel := context.WithTimeout(ctx, fixtureTimeout)
	defer cancel()

	conn, err := newConnection(s.store, schema, s.cfg)
	if err != nil {
		return nil, err
	}
	all, err := conn.CreateDataSet(ctx)
	if err != nil {
		return nil, err
	}

	var ds dataset.DataSet = all
	if len(opts.Include) > 0 {
		ds = dataset.NewIncludeDataSet(ds, opts.Include...)
	}
	if len(opts.Exclude) > 0 {
		ds = dataset.NewExcludeDataSet(ds, opts.Exclude...)
	}
	names, err := ds.TableNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []models.TableRows{}, nil
	}

	filter, err := database.NewDatabaseSequenceFilter(ctx, conn, names...)
	if err != nil {
		return nil, err
	}
	var columns dataset.ColumnFilter
	if len(opts.ExcludeColumns) > 0 {
		columns = dataset.NewPatternColumnFilter(nil, opts.ExcludeColumns)
	}
	return renderDataSet(dataset.NewFilteredDataSet(filter, ds), columns)
}
