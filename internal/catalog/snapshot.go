package catalog

import (
	"context"
	"fmt"
	"sort"
)

// Snapshot is an immutable in-memory catalog.
//
// Thread-safety: a Snapshot is never modified after construction, so all
// methods are safe for concurrent use.
type Snapshot struct {
	names  []string
	tables map[string]Table
}

var _ Schema = (*Snapshot)(nil)

// NewSnapshot builds a snapshot from table definitions. Table names are
// reported in sorted order regardless of argument order.
func NewSnapshot(tables ...Table) *Snapshot {
	s := &Snapshot{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		cp := Table{
			Name:        t.Name,
			Columns:     append([]Column{}, t.Columns...),
			ForeignKeys: append([]ForeignKey{}, t.ForeignKeys...),
		}
		if _, dup := s.tables[t.Name]; !dup {
			s.names = append(s.names, t.Name)
		}
		s.tables[t.Name] = cp
	}
	sort.Strings(s.names)
	return s
}

// FromColumns builds a snapshot from a table → column names map, with no
// types or foreign keys. Convenient for tests and scenario files.
func FromColumns(def map[string][]string) *Snapshot {
	tables := make([]Table, 0, len(def))
	for name, cols := range def {
		t := Table{Name: name}
		for _, c := range cols {
			t.Columns = append(t.Columns, Column{Name: c})
		}
		tables = append(tables, t)
	}
	return NewSnapshot(tables...)
}

// Load copies the full contents of src into a new Snapshot.
func Load(ctx context.Context, src Schema) (*Snapshot, error) {
	tables, err := Describe(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}
	return NewSnapshot(tables...), nil
}

// Tables returns the table names in sorted order.
func (s *Snapshot) Tables(ctx context.Context) ([]string, error) {
	return append([]string{}, s.names...), nil
}

// TableExists reports whether name is a table of the snapshot.
func (s *Snapshot) TableExists(ctx context.Context, name string) (bool, error) {
	_, ok := s.tables[name]
	return ok, nil
}

// ColumnsOf returns the column names of table, or an empty list when the
// table is unknown.
func (s *Snapshot) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	t, ok := s.tables[table]
	if !ok {
		return []string{}, nil
	}
	return t.ColumnNames(), nil
}

// Columns returns the columns of table with their declared types.
func (s *Snapshot) Columns(ctx context.Context, table string) ([]Column, error) {
	t, ok := s.tables[table]
	if !ok {
		return []Column{}, nil
	}
	return append([]Column{}, t.Columns...), nil
}

// ForeignKeys returns the foreign keys declared on table.
func (s *Snapshot) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	t, ok := s.tables[table]
	if !ok {
		return []ForeignKey{}, nil
	}
	return append([]ForeignKey{}, t.ForeignKeys...), nil
}
