package services

import (
	"github.com/pkg/errors"

	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
	"dbfixture/internal/models"
)

// RequestError reports input the services cannot act on.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// buildDataSet turns transported tables into an in-memory dataset. Column
// types are left UNKNOWN; the store's declared types apply when the rows
// are written or compared.
func buildDataSet(tables []models.TableRows, caseSensitive bool) (*dataset.DefaultDataSet, error) {
	built := make([]dataset.Table, 0, len(tables))
	for _, t := range tables {
		if t.Name == "" {
			return nil, &RequestError{Err: errors.New("table name is required")}
		}
		columns := make([]dataset.Column, len(t.Columns))
		for i, c := range t.Columns {
			columns[i] = dataset.NewColumn(c, datatype.Unknown)
		}
		md := dataset.NewTableMetaData(t.Name, columns, t.PrimaryKeys...)
		if dropped := md.DroppedKeys(); len(dropped) > 0 {
			return nil, &dataset.NoSuchColumnError{Table: t.Name, Column: dropped[0]}
		}
		tbl, err := dataset.NewTableWithRows(md, t.Rows)
		if err != nil {
			return nil, &RequestError{Err: errors.Wrapf(err, "table %s", t.Name)}
		}
		built = append(built, tbl)
	}
	return dataset.NewDataSet(caseSensitive, built...)
}

// renderDataSet reads every table of ds in iteration order, dropping the
// columns filter rejects when it is set.
func renderDataSet(ds dataset.DataSet, filter dataset.ColumnFilter) ([]models.TableRows, error) {
	it, err := ds.Iterator()
	if err != nil {
		return nil, err
	}
	result := []models.TableRows{}
	for {
		ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		t, err := it.Table()
		if err != nil {
			return nil, err
		}
		if filter != nil {
			t = dataset.NewColumnFilterTable(t, filter)
		}
		rendered, err := renderTable(t)
		if err != nil {
			return nil, err
		}
		result = append(result, rendered)
	}
}

func renderTable(t dataset.Table) (models.TableRows, error) {
	md := t.TableMetaData()
	out := models.TableRows{
		Name:        md.TableName(),
		Columns:     dataset.ColumnNames(md.Columns()),
		PrimaryKeys: dataset.ColumnNames(md.PrimaryKeys()),
		Rows:        [][]any{},
	}
	n, err := t.RowCount()
	if err != nil {
		return out, err
	}
	for i := 0; i < n; i++ {
		row, err := dataset.RowValues(t, i)
		if err != nil {
			return out, err
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
