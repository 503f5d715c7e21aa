package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed sql/example.sql
var exampleSQL string

// ExampleTables lists the tables created by Seed.
var ExampleTables = []string{"customers", "orders"}

// Seed creates the example customers/orders schema in db. Idempotent: tables
// that already exist are left untouched.
//
// Statements are executed one at a time so the same script runs on drivers
// that reject multi-statement Exec.
func Seed(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(exampleSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed example schema: %w", err)
		}
	}
	return nil
}

// ExampleSnapshot returns the example schema as an in-memory snapshot,
// matching what Seed creates in SQLite.
func ExampleSnapshot() *Snapshot {
	return NewSnapshot(
		Table{
			Name: "customers",
			Columns: []Column{
				{Name: "customer_id", Type: "INTEGER"},
				{Name: "name", Type: "TEXT"},
			},
		},
		Table{
			Name: "orders",
			Columns: []Column{
				{Name: "order_id", Type: "INTEGER"},
				{Name: "customer_id", Type: "INTEGER"},
				{Name: "amount", Type: "REAL"},
				{Name: "order_date", Type: "TEXT"},
			},
			ForeignKeys: []ForeignKey{
				{Column: "customer_id", RefTable: "customers", RefColumn: "customer_id"},
			},
		},
	)
}

func splitStatements(script string) []string {
	var stmts []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
