package catalog

import (
	"context"

	"github.com/roach88/irgate/internal/queryir"
)

// Column is a column name with its declared type as reported by the database.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// ForeignKey links a column to a column of another table.
type ForeignKey struct {
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"ref_table" yaml:"ref_table"`
	RefColumn string `json:"ref_column" yaml:"ref_column"`
}

// Table describes one table of the schema.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

// ColumnNames returns the table's column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Schema is the full read-only catalog surface: the validator's contract plus
// column types and foreign keys.
type Schema interface {
	queryir.Catalog
	Columns(ctx context.Context, table string) ([]Column, error)
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

// Describe returns every table of s with its columns and foreign keys,
// ordered as s.Tables returns them.
func Describe(ctx context.Context, s Schema) ([]Table, error) {
	names, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := s.Columns(ctx, name)
		if err != nil {
			return nil, err
		}
		fks, err := s.ForeignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: cols, ForeignKeys: fks})
	}
	return tables, nil
}
