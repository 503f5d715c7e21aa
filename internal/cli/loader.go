package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/irgate/internal/queryir"
)

// LoadError represents an error that occurred while loading an IR file.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Error code constants for command-level failures. Validation failures use
// the queryir codes (E200-E205).
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeReadFailed    = "E002" // File read error
	ErrCodeUnsupported   = "E003" // Unsupported IR file extension
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeDecodeFailed  = "E006" // IR decode failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeCatalog       = "E008" // Schema catalog unavailable
	ErrCodeInvalidConfig = "E009" // Configuration rejected
)

// IRExtensions lists the file extensions LoadIR accepts.
var IRExtensions = []string{".json", ".yaml", ".yml", ".cue"}

// LoadIR reads one IR document. The format is chosen by extension:
// .json, .yaml/.yml or .cue.
func LoadIR(path string) (queryir.QueryIR, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return queryir.QueryIR{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("IR file not found: %s", path), Err: err}
	}
	if err != nil {
		return queryir.QueryIR{}, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading IR file: %v", err), Err: err}
	}

	var q queryir.QueryIR
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		q, err = queryir.DecodeJSON(bytes.NewReader(data))
	case ".yaml", ".yml":
		q, err = queryir.DecodeYAML(data)
	case ".cue":
		q, err = queryir.DecodeCUE(data, path)
	default:
		return queryir.QueryIR{}, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported IR file %s: want one of %v", path, IRExtensions),
		}
	}
	if err != nil {
		return queryir.QueryIR{}, &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error(), Err: err}
	}
	return q, nil
}
