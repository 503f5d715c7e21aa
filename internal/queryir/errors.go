package queryir

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of validation failure.
type ErrorCode string

// Validation error codes (E200-E299).
const (
	ErrCodeInvalidShape       ErrorCode = "E200" // IR violates its own structural rules
	ErrCodeUnknownTable       ErrorCode = "E201" // table missing from the catalog
	ErrCodeMalformedReference ErrorCode = "E202" // column reference is not "table.column"
	ErrCodeOutOfScope         ErrorCode = "E203" // reference to a table not in the query's tables
	ErrCodeHallucinatedColumn ErrorCode = "E204" // column missing from the table's catalog entry
	ErrCodeUnsupportedFeature ErrorCode = "E205" // IR uses a feature this build rejects
)

// ValidationError is the structured rejection returned by Validate.
//
// Only the fields relevant to Code are set:
//
//	UnknownTable        Table
//	MalformedReference  Ref
//	OutOfScopeReference Ref, Table
//	HallucinatedColumn  Column, Table
//	UnsupportedFeature  Feature
//	InvalidShape        Field, Detail
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Ref     string    `json:"ref,omitempty"`
	Table   string    `json:"table,omitempty"`
	Column  string    `json:"column,omitempty"`
	Feature string    `json:"feature,omitempty"`
	Field   string    `json:"field,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// Error renders the human-readable message surfaced to clients.
func (e *ValidationError) Error() string {
	switch e.Code {
	case ErrCodeUnknownTable:
		return fmt.Sprintf("Unknown table: %s", e.Table)
	case ErrCodeMalformedReference:
		return fmt.Sprintf("Ambiguous column reference: '%s'. Must be 'table.column'", e.Ref)
	case ErrCodeOutOfScope:
		return fmt.Sprintf("Column '%s' references table '%s' which is not in the query scope (tables list).", e.Ref, e.Table)
	case ErrCodeHallucinatedColumn:
		return fmt.Sprintf("Hallucination detected: Column '%s' does not exist in table '%s'.", e.Column, e.Table)
	case ErrCodeUnsupportedFeature:
		return fmt.Sprintf("Unsupported feature: %s", e.Feature)
	case ErrCodeInvalidShape:
		return fmt.Sprintf("Invalid IR: %s: %s", e.Field, e.Detail)
	default:
		return fmt.Sprintf("validation error %s", e.Code)
	}
}

// UnknownTable reports a table absent from the catalog.
func UnknownTable(name string) *ValidationError {
	return &ValidationError{Code: ErrCodeUnknownTable, Table: name}
}

// MalformedReference reports a column reference that is not "table.column".
func MalformedReference(ref string) *ValidationError {
	return &ValidationError{Code: ErrCodeMalformedReference, Ref: ref}
}

// OutOfScopeReference reports a reference whose table is not in the query scope.
func OutOfScopeReference(ref, table string) *ValidationError {
	return &ValidationError{Code: ErrCodeOutOfScope, Ref: ref, Table: table}
}

// HallucinatedColumn reports a column that the catalog does not list for table.
func HallucinatedColumn(column, table string) *ValidationError {
	return &ValidationError{Code: ErrCodeHallucinatedColumn, Column: column, Table: table}
}

// UnsupportedFeature reports an IR feature rejected by policy.
func UnsupportedFeature(feature string) *ValidationError {
	return &ValidationError{Code: ErrCodeUnsupportedFeature, Feature: feature}
}

// InvalidShape reports a structural problem with the IR itself.
func InvalidShape(field, detail string) *ValidationError {
	return &ValidationError{Code: ErrCodeInvalidShape, Field: field, Detail: detail}
}

// AsValidationError unwraps err to a *ValidationError.
// Uses errors.As to handle wrapped errors.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsValidationError returns true if err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}
