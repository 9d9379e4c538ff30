package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbfixture/internal/config"
	"dbfixture/internal/database/dbtest"
	"dbfixture/internal/dataset"
	"dbfixture/internal/graph"
	"dbfixture/internal/models"
)

func TestTableOrder(t *testing.T) {
	svc := NewSchemaService(dbtest.OpenShop(t), config.FixtureConfig{})

	order, err := svc.TableOrder(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []models.TableOrder{
		{Table: "CUSTOMER", Level: 0},
		{Table: "ORDERS", Level: 1, DependsOn: []string{"CUSTOMER"}},
		{Table: "LINE_ITEM", Level: 2, DependsOn: []string{"ORDERS"}},
	}, order)

	subset, err := svc.TableOrder(context.Background(), "", []string{"LINE_ITEM", "CUSTOMER"})
	require.NoError(t, err)
	require.Len(t, subset, 2)
	assert.Empty(t, subset[1].DependsOn)
}

func TestDeleteOrder(t *testing.T) {
	svc := NewSchemaService(dbtest.OpenShop(t), config.FixtureConfig{})

	order, err := svc.DeleteOrder(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LINE_ITEM", "ORDERS", "CUSTOMER"}, order)
}

func TestOrderRejectsUnknownTables(t *testing.T) {
	ctx := context.Background()
	svc := NewSchemaService(dbtest.OpenShop(t), config.FixtureConfig{})

	_, err := svc.TableOrder(ctx, "", []string{"CUSTOMER", "INVOICE"})
	var noTable *dataset.NoSuchTableError
	require.ErrorAs(t, err, &noTable)
	assert.Equal(t, "INVOICE", noTable.Name)

	_, err = svc.DeleteOrder(ctx, "", []string{"INVOICE"})
	assert.True(t, dataset.IsNoSuchTable(err))

	order, err := svc.DeleteOrder(ctx, "", []string{"customer", "orders"})
	require.NoError(t, err)
	assert.Len(t, order, 2)

	strict := NewSchemaService(dbtest.OpenShop(t), config.FixtureConfig{CaseSensitiveTableNames: true})
	_, err = strict.TableOrder(ctx, "", []string{"customer"})
	assert.True(t, dataset.IsNoSuchTable(err))
}

func TestVisualizeSchema(t *testing.T) {
	svc := NewSchemaService(dbtest.OpenShop(t), config.FixtureConfig{})

	diagram, err := svc.VisualizeSchema(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(diagram, "erDiagram\n"))
	assert.NotContains(t, diagram, "%%")
	assert.Contains(t, diagram, `    CUSTOMER |o--o{ ORDERS : "CUSTOMER_ID"`)
	assert.Contains(t, diagram, `    ORDERS ||--o{ LINE_ITEM : "ORDER_ID"`)
	assert.Contains(t, diagram, "    CUSTOMER {\n        bigint ID PK\n        varchar NAME\n    }\n")
	assert.Contains(t, diagram, "        bigint ORDER_ID FK\n")
	assert.Contains(t, diagram, "        double TOTAL\n")
}

func TestVisualizeSchemaUsesPrimaryKeyOverrides(t *testing.T) {
	svc := NewSchemaService(dbtest.OpenShop(t), config.FixtureConfig{
		PrimaryKeys: map[string][]string{"CUSTOMER": {"NAME"}},
	})

	diagram, err := svc.VisualizeSchema(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, diagram, "    CUSTOMER {\n        bigint ID\n        varchar NAME PK\n    }\n")
}

func TestVisualizeSchemaCycleAndUniqueKey(t *testing.T) {
	store := dbtest.OpenSQLite(t,
		`CREATE TABLE A (ID INTEGER PRIMARY KEY, B_ID INTEGER REFERENCES B(ID))`,
		`CREATE TABLE B (ID INTEGER PRIMARY KEY, A_ID INTEGER NOT NULL UNIQUE REFERENCES A(ID))`,
	)
	svc := NewSchemaService(store, config.FixtureConfig{})

	diagram, err := svc.VisualizeSchema(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, diagram, "    %% cyclic: ")
	assert.Contains(t, diagram, `    B |o--o{ A : "B_ID"`)
	assert.Contains(t, diagram, `    A ||--o| B : "A_ID"`)

	// The same schema has no insert order.
	_, err = svc.TableOrder(context.Background(), "", nil)
	var cyc *graph.CyclicDependencyError
	assert.ErrorAs(t, err, &cyc)
}

func TestDetectJunctionTables(t *testing.T) {
	tables := []models.Table{
		{
			Name:        "student_course",
			Columns:     []models.Column{{Name: "student_id"}, {Name: "course_id"}},
			PrimaryKeys: []string{"student_id", "course_id"},
			ForeignKeys: []models.ForeignKey{
				{FromTable: "student_course", FromColumns: []string{"student_id"}, ToTable: "student", ToColumns: []string{"id"}},
				{FromTable: "student_course", FromColumns: []string{"course_id"}, ToTable: "course", ToColumns: []string{"id"}},
			},
		},
		{
			Name:        "enrollment",
			Columns:     []models.Column{{Name: "id"}, {Name: "student_id"}, {Name: "course_id"}},
			PrimaryKeys: []string{"id"},
			ForeignKeys: []models.ForeignKey{
				{FromTable: "enrollment", FromColumns: []string{"student_id"}, ToTable: "student", ToColumns: []string{"id"}},
				{FromTable: "enrollment", FromColumns: []string{"course_id"}, ToTable: "course", ToColumns: []string{"id"}},
			},
		},
	}

	junctions := detectJunctionTables(tables)
	assert.True(t, junctions["student_course"])
	assert.False(t, junctions["enrollment"])

	diagram := generateMermaid(tables, []models.Relationship{
		{Parent: "student", Child: "course", Cardinality: "}o--o{", Label: "student_course"},
		{Parent: "student", Child: "course", Cardinality: "}o--o{", Label: "student_course"},
	}, nil)
	assert.Equal(t, 1, strings.Count(diagram, "STUDENT }o--o{ COURSE"))
}

func TestCardinality(t *testing.T) {
	assert.Equal(t, "||--o{", cardinality(false, false))
	assert.Equal(t, "|o--o{", cardinality(true, false))
	assert.Equal(t, "||--o|", cardinality(false, true))
	assert.Equal(t, "|o--o|", cardinality(true, true))
}
