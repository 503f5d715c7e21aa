package store

import (
	"context"
	"fmt"
)

// WriteTranslation appends a translation record and returns its seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: a duplicate id is
// silently ignored and the existing record's seq is returned with
// inserted=false.
//
// The seq passed in t is ignored; the store assigns MAX(seq)+1.
func (s *Store) WriteTranslation(ctx context.Context, t Translation) (seq int64, inserted bool, err error) {
	if err := t.validate(); err != nil {
		return 0, false, fmt.Errorf("write translation: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO translations
		(id, seq, request_id, fingerprint, ir, outcome, sql_text, error_code, error_message)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM translations), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		t.ID,
		t.RequestID,
		t.Fingerprint,
		t.IR,
		string(t.Outcome),
		t.SQL,
		t.ErrorCode,
		t.ErrorMessage,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write translation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write translation: rows affected: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT seq FROM translations WHERE id = ?`, t.ID).Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("write translation: read seq: %w", err)
	}

	return seq, n > 0, nil
}
