package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/config"
	"dbfixture/internal/database"
	"dbfixture/internal/dataset"
	"dbfixture/internal/graph"
	"dbfixture/internal/models"
	"dbfixture/internal/repositories"
	"dbfixture/internal/utils"
)

const (
	maxJunctionTableColumns = 6
	minJunctionTableFKs     = 2

	schemaTimeout = 30 * time.Second
)

type SchemaService struct {
	store repositories.Store
	cfg   config.FixtureConfig
}

// NewSchemaService creates a new SchemaService
func NewSchemaService(store repositories.Store, cfg config.FixtureConfig) *SchemaService {
	return &SchemaService{store: store, cfg: cfg}
}

func (s *SchemaService) connection(schema string) (*database.Connection, error) {
	return newConnection(s.store, schema, s.cfg)
}

// TableOrder returns the insert order of tables, or of every table in the
// schema, with each table's dependency level and parents.
func (s *SchemaService) TableOrder(ctx context.Context, schema string, tables []string) ([]models.TableOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	conn, err := s.connection(schema)
	if err != nil {
		return nil, err
	}
	g, err := conn.Graph(ctx, tables...)
	if err != nil {
		return nil, err
	}
	order, err := g.InsertOrder()
	if err != nil {
		return nil, err
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	result := make([]models.TableOrder, len(order))
	for i, table := range order {
		result[i] = models.TableOrder{
			Table:     table,
			Level:     levels[table],
			DependsOn: g.Parents(table),
		}
	}
	log.WithFields(log.Fields{"schema": conn.Schema(), "tables": len(result)}).Debug("table order computed")
	return result, nil
}

// DeleteOrder returns the tables, or every table of the schema, children
// first.
func (s *SchemaService) DeleteOrder(ctx context.Context, schema string, tables []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	conn, err := s.connection(schema)
	if err != nil {
		return nil, err
	}
	g, err := conn.Graph(ctx, tables...)
	if err != nil {
		return nil, err
	}
	return g.DeleteOrder()
}

// VisualizeSchema renders the schema as a Mermaid ER diagram. Columns carry
// their semantic types and primary keys honour configured overrides.
func (s *SchemaService) VisualizeSchema(ctx context.Context, schema string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	conn, err := s.connection(schema)
	if err != nil {
		return "", err
	}
	tables, g, err := describeSchema(ctx, conn)
	if err != nil {
		return "", errors.Wrap(err, "failed to describe schema")
	}
	relationships, err := buildRelationships(ctx, s.store, conn.Schema(), tables)
	if err != nil {
		return "", errors.Wrap(err, "failed to build relationships")
	}

	var cycle []string
	if _, err := g.InsertOrder(); err != nil {
		var cyc *graph.CyclicDependencyError
		if !errors.As(err, &cyc) {
			return "", err
		}
		cycle = cyc.Tables
	}
	return generateMermaid(tables, relationships, cycle), nil
}

// describeSchema reads every table of the connection's schema as the
// fixture engines see it.
func describeSchema(ctx context.Context, conn *database.Connection) ([]models.Table, *graph.Graph, error) {
	g, err := conn.Graph(ctx)
	if err != nil {
		return nil, nil, err
	}

	tables := make([]models.Table, 0, len(g.Tables()))
	for _, name := range g.Tables() {
		md, err := conn.TableMetaData(ctx, name)
		if err != nil {
			return nil, nil, err
		}

		table := models.Table{
			Name:        md.TableName(),
			PrimaryKeys: dataset.ColumnNames(md.PrimaryKeys()),
		}
		for _, col := range md.Columns() {
			table.Columns = append(table.Columns, models.Column{
				Name:     col.Name,
				DataType: strings.ToLower(col.DataType.Name()),
				Nullable: col.Nullable != dataset.NoNulls,
			})
		}
		for _, fk := range g.ImportedKeys(name) {
			table.ForeignKeys = append(table.ForeignKeys, models.ForeignKey{
				ConstraintName: fk.Name,
				FromTable:      fk.ChildTable,
				FromColumns:    fk.ChildColumns,
				ToTable:        fk.ParentTable,
				ToColumns:      fk.ParentColumns,
			})
		}
		tables = append(tables, table)
	}
	return tables, g, nil
}

func buildRelationships(ctx context.Context, schemaRepo repositories.SchemaRepository, schema string, tables []models.Table) ([]models.Relationship, error) {
	junctionTables := detectJunctionTables(tables)

	// Only single-column keys can be one-to-one through a unique constraint
	var tableColumns []repositories.TableColumn
	for _, table := range tables {
		if junctionTables[table.Name] {
			continue
		}
		for _, fk := range table.ForeignKeys {
			if len(fk.FromColumns) == 1 {
				tableColumns = append(tableColumns, repositories.TableColumn{
					Table:  table.Name,
					Column: fk.FromColumns[0],
				})
			}
		}
	}

	uniqueMap, err := schemaRepo.GetUniqueConstraintsBatch(ctx, schema, tableColumns)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unique constraints")
	}

	var relationships []models.Relationship
	for _, table := range tables {
		// Junction tables become many-to-many links between their parents
		if junctionTables[table.Name] {
			for i := 0; i < len(table.ForeignKeys); i++ {
				for j := i + 1; j < len(table.ForeignKeys); j++ {
					relationships = append(relationships, models.Relationship{
						Parent:      table.ForeignKeys[i].ToTable,
						Child:       table.ForeignKeys[j].ToTable,
						Cardinality: "}o--o{",
						Label:       table.Name,
					})
				}
			}
			continue
		}

		for _, fk := range table.ForeignKeys {
			unique := len(fk.FromColumns) == 1 && uniqueMap[repositories.UniqueKey(table.Name, fk.FromColumns[0])]
			relationships = append(relationships, models.Relationship{
				Parent:      fk.ToTable,
				Child:       table.Name,
				Cardinality: cardinality(optionalParent(table, fk), unique),
				Label:       strings.Join(fk.FromColumns, ", "),
			})
		}
	}

	return relationships, nil
}

// cardinality is written parent side first. A nullable key makes the
// parent optional; a unique key allows at most one child.
func cardinality(optional, unique bool) string {
	parent, child := "||", "o{"
	if optional {
		parent = "|o"
	}
	if unique {
		child = "o|"
	}
	return parent + "--" + child
}

func optionalParent(table models.Table, fk models.ForeignKey) bool {
	for _, col := range table.Columns {
		if col.Nullable && utils.Contains(fk.FromColumns, col.Name) {
			return true
		}
	}
	return false
}

// detectJunctionTables marks small tables whose primary key is made of the
// columns of at least two foreign keys.
func detectJunctionTables(tables []models.Table) map[string]bool {
	junctionTables := make(map[string]bool)
	for _, table := range tables {
		if len(table.ForeignKeys) < minJunctionTableFKs ||
			len(table.PrimaryKeys) < minJunctionTableFKs ||
			len(table.Columns) > maxJunctionTableColumns {
			continue
		}

		allFKsInPK := true
		for _, fk := range table.ForeignKeys {
			for _, col := range fk.FromColumns {
				if !utils.Contains(table.PrimaryKeys, col) {
					allFKsInPK = false
				}
			}
		}
		fkCountInPK := 0
		for _, pk := range table.PrimaryKeys {
			if isForeignKey(table.ForeignKeys, pk) {
				fkCountInPK++
			}
		}
		if allFKsInPK && fkCountInPK >= minJunctionTableFKs {
			junctionTables[table.Name] = true
		}
	}
	return junctionTables
}

// generateMermaid writes relationships first, then one entity block per
// table. Tables on a foreign key cycle are listed in a leading comment.
func generateMermaid(tables []models.Table, relationships []models.Relationship, cycle []string) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")
	if len(cycle) > 0 {
		fmt.Fprintf(&sb, "    %%%% cyclic: %s\n", strings.Join(cycle, " -> "))
	}

	if len(relationships) > 0 {
		seen := make(map[models.Relationship]bool)
		for _, rel := range relationships {
			if seen[rel] {
				continue
			}
			seen[rel] = true

			fmt.Fprintf(&sb, "    %s %s %s : %q\n",
				strings.ToUpper(rel.Parent),
				rel.Cardinality,
				strings.ToUpper(rel.Child),
				rel.Label)
		}
		sb.WriteString("\n")
	}

	for _, table := range tables {
		fmt.Fprintf(&sb, "    %s {\n", strings.ToUpper(table.Name))

		for _, col := range table.Columns {
			var keys []string
			if utils.Contains(table.PrimaryKeys, col.Name) {
				keys = append(keys, "PK")
			}
			if isForeignKey(table.ForeignKeys, col.Name) {
				keys = append(keys, "FK")
			}

			dataType := col.DataType
			if dataType == "" {
				dataType = "unknown"
			}
			sb.WriteString("        " + dataType + " " + col.Name)
			if len(keys) > 0 {
				sb.WriteString(" " + strings.Join(keys, ", "))
			}
			sb.WriteString("\n")
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

func isForeignKey(fks []models.ForeignKey, colName string) bool {
	for _, fk := range fks {
		if utils.Contains(fk.FromColumns, colName) {
			return true
		}
	}
	return false
}
