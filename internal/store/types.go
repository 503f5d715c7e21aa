package store

import "fmt"

// Outcome classifies how a translation request ended.
type Outcome string

const (
	OutcomeCompiled Outcome = "compiled"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Valid reports whether o is one of the recorded outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCompiled, OutcomeRejected, OutcomeFailed:
		return true
	}
	return false
}

// Translation is one audit record.
//
// SQL is set only for compiled outcomes; ErrorCode only for rejected ones;
// ErrorMessage for rejected and failed ones.
type Translation struct {
	ID           string  `json:"id"`
	Seq          int64   `json:"seq"`
	RequestID    string  `json:"request_id,omitempty"`
	Fingerprint  string  `json:"fingerprint"`
	IR           string  `json:"ir"`
	Outcome      Outcome `json:"outcome"`
	SQL          string  `json:"sql,omitempty"`
	ErrorCode    string  `json:"error_code,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

func (t Translation) validate() error {
	if t.ID == "" {
		return fmt.Errorf("translation id is required")
	}
	if t.Fingerprint == "" {
		return fmt.Errorf("translation %s: fingerprint is required", t.ID)
	}
	if !t.Outcome.Valid() {
		return fmt.Errorf("translation %s: invalid outcome %q", t.ID, t.Outcome)
	}
	return nil
}
