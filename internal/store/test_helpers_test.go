package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTranslation creates a compiled record with minimal required fields.
func createTestTranslation(id, fingerprint string) Translation {
	return Translation{
		ID:          id,
		Fingerprint: fingerprint,
		IR:          `{"tables":["orders"]}`,
		Outcome:     OutcomeCompiled,
		SQL:         "SELECT * FROM orders",
	}
}
