package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// dialectQueries holds the introspection statements for one engine. Every
// statement that takes a table name binds it as the single parameter.
type dialectQueries struct {
	tables      string
	tableExists string
	columns     string
	foreignKeys string
}

var queries = map[Dialect]dialectQueries{
	DialectSQLite: {
		tables: `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		tableExists: `SELECT COUNT(*) FROM sqlite_master
			WHERE type = 'table' AND name = ?`,
		columns: `SELECT name, type FROM pragma_table_info(?)
			ORDER BY cid`,
		foreignKeys: `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?)
			ORDER BY id, seq`,
	},
	DialectDuckDB: {
		tables: `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		tableExists: `SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			AND table_name = ?`,
		columns: `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`,
		foreignKeys: `SELECT array_to_string(constraint_column_names, ','),
				referenced_table,
				array_to_string(referenced_column_names, ',')
			FROM duckdb_constraints()
			WHERE constraint_type = 'FOREIGN KEY' AND table_name = ?
			ORDER BY constraint_index`,
	},
}

// Introspector is a live catalog: every call queries the database.
//
// Thread-safety: safe for concurrent use to the extent *sql.DB is. Results
// reflect the schema at the moment of each call, so a single validation may
// observe a concurrent schema change; use Load for a consistent view.
type Introspector struct {
	db *sql.DB
	q  dialectQueries
}

var _ Schema = (*Introspector)(nil)

// NewIntrospector wraps db. The caller owns db and closes it.
func NewIntrospector(db *sql.DB, dialect Dialect) (*Introspector, error) {
	q, ok := queries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported catalog dialect %q", dialect)
	}
	return &Introspector{db: db, q: q}, nil
}

// Tables returns the user table names in lexical order.
func (i *Introspector) Tables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, i.q.tables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

// TableExists reports whether name is a user table.
func (i *Introspector) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, i.q.tableExists, name).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %q: %w", name, err)
	}
	return n > 0, nil
}

// ColumnsOf returns the column names of table in declaration order. An
// unknown table yields an empty list.
func (i *Introspector) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	cols, err := i.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	return Table{Columns: cols}.ColumnNames(), nil
}

// Columns returns the columns of table with their declared types.
func (i *Introspector) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := i.db.QueryContext(ctx, i.q.columns, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %q: %w", table, err)
	}
	defer rows.Close()

	cols := []Column{}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	return cols, nil
}

// ForeignKeys returns the foreign keys declared on table. Composite keys are
// reported as one ForeignKey per column pair.
func (i *Introspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, i.q.foreignKeys, table)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys of %q: %w", table, err)
	}
	defer rows.Close()

	fks := []ForeignKey{}
	for rows.Next() {
		var from, refTable string
		var to sql.NullString
		if err := rows.Scan(&from, &refTable, &to); err != nil {
			return nil, fmt.Errorf("scan foreign key of %q: %w", table, err)
		}
		fks = append(fks, pairColumns(from, refTable, to.String)...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys of %q: %w", table, err)
	}
	return fks, nil
}

// pairColumns expands comma-joined column lists into one ForeignKey per
// position. SQLite rows always carry a single column on each side.
func pairColumns(from, refTable, to string) []ForeignKey {
	fromCols := strings.Split(from, ",")
	toCols := strings.Split(to, ",")

	fks := make([]ForeignKey, len(fromCols))
	for n, col := range fromCols {
		fk := ForeignKey{Column: strings.TrimSpace(col), RefTable: refTable}
		if n < len(toCols) {
			fk.RefColumn = strings.TrimSpace(toCols[n])
		}
		fks[n] = fk
	}
	return fks
}
