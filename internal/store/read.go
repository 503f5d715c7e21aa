package store

import (
	"context"
	"database/sql"
	"fmt"
)

const selectTranslation = `
	SELECT id, seq, request_id, fingerprint, ir, outcome, sql_text, error_code, error_message
	FROM translations`

// ReadTranslation retrieves a single record by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadTranslation(ctx context.Context, id string) (Translation, error) {
	row := s.db.QueryRowContext(ctx, selectTranslation+` WHERE id = ?`, id)
	return scanTranslation(row)
}

// ReadTranslations returns the most recent records in ascending seq order.
// A limit of zero or less returns every record.
func (s *Store) ReadTranslations(ctx context.Context, limit int) ([]Translation, error) {
	if limit <= 0 {
		return s.queryTranslations(ctx, selectTranslation+` ORDER BY seq ASC`)
	}
	return s.queryTranslations(ctx, `
		SELECT * FROM (`+selectTranslation+` ORDER BY seq DESC LIMIT ?)
		ORDER BY seq ASC`, limit)
}

// ReadByFingerprint returns every record for the given IR fingerprint in
// ascending seq order.
func (s *Store) ReadByFingerprint(ctx context.Context, fingerprint string) ([]Translation, error) {
	return s.queryTranslations(ctx, selectTranslation+`
		WHERE fingerprint = ?
		ORDER BY seq ASC`, fingerprint)
}

// CountByOutcome returns the number of records per outcome. Outcomes with no
// records are absent from the map.
func (s *Store) CountByOutcome(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*) FROM translations
		GROUP BY outcome
		ORDER BY outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("count translations: %w", err)
	}
	defer rows.Close()

	counts := map[Outcome]int{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan translation count: %w", err)
		}
		counts[Outcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translation counts: %w", err)
	}
	return counts, nil
}

// GetLastSeq returns the highest seq in the log, or 0 when empty.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM translations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

func (s *Store) queryTranslations(ctx context.Context, query string, args ...any) ([]Translation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	translations := []Translation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		translations = append(translations, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return translations, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTranslation(row scanner) (Translation, error) {
	var t Translation
	var outcome string
	err := row.Scan(
		&t.ID,
		&t.Seq,
		&t.RequestID,
		&t.Fingerprint,
		&t.IR,
		&outcome,
		&t.SQL,
		&t.ErrorCode,
		&t.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return Translation{}, err
	}
	if err != nil {
		return Translation{}, fmt.Errorf("scan translation: %w", err)
	}
	t.Outcome = Outcome(outcome)
	return t, nil
}
