package models

type Column struct {
	Name     string `json:"name" db:"name"`
	DataType string `json:"data_type" db:"data_type"`
	Nullable bool   `json:"nullable" db:"nullable"`
}

// ForeignKey is one constraint; FromColumns and ToColumns are aligned by
// position.
type ForeignKey struct {
	ConstraintName string   `json:"constraint_name"`
	FromTable      string   `json:"from_table"`
	FromColumns    []string `json:"from_columns"`
	ToTable        string   `json:"to_table"`
	ToColumns      []string `json:"to_columns"`
}

type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Relationship is one edge of an ER diagram, drawn from the referenced
// table to the referencing one.
type Relationship struct {
	Parent      string
	Child       string
	Cardinality string // "||--o{", "|o--o|", "}o--o{", etc.
	Label       string
}

// TableOrder is one entry of an insert order.
type TableOrder struct {
	Table     string   `json:"table"`
	Level     int      `json:"level"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// TableRows is a table rendered for transport.
type TableRows struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	PrimaryKeys []string `json:"primary_keys"`
	Rows        [][]any  `json:"rows"`
}
