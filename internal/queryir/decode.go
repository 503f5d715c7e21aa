package queryir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// DecodeJSON reads exactly one IR from r in the wire JSON shape.
// Unknown fields, unknown enum values, missing required fields and trailing
// data are decode errors.
func DecodeJSON(r io.Reader) (QueryIR, error) {
	var q QueryIR
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return QueryIR{}, fmt.Errorf("decode IR JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("trailing data after IR document")
		}
		return QueryIR{}, fmt.Errorf("decode IR JSON: %w", err)
	}
	if err := checkRequired(q); err != nil {
		return QueryIR{}, err
	}
	return q, nil
}

// DecodeYAML parses an IR from YAML. Unknown fields are rejected so typos
// like "filter:" for "filters:" fail loudly.
func DecodeYAML(data []byte) (QueryIR, error) {
	var q QueryIR
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&q); err != nil {
		return QueryIR{}, fmt.Errorf("decode IR YAML: %w", err)
	}
	if err := checkRequired(q); err != nil {
		return QueryIR{}, err
	}
	return q, nil
}

// DecodeCUE evaluates a CUE document and decodes the resulting concrete value
// as an IR. filename is used in error positions only.
func DecodeCUE(data []byte, filename string) (QueryIR, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return QueryIR{}, fmt.Errorf("compile IR CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return QueryIR{}, fmt.Errorf("IR CUE is not concrete: %w", err)
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return QueryIR{}, fmt.Errorf("export IR CUE: %w", err)
	}
	return DecodeJSON(bytes.NewReader(raw))
}

func checkRequired(q QueryIR) error {
	if q.Intent == "" {
		return fmt.Errorf("decode IR: intent is required")
	}
	if q.Tables == nil {
		return fmt.Errorf("decode IR: tables is required")
	}
	for i, m := range q.Metrics {
		if m.Operation == "" {
			return fmt.Errorf("decode IR: metrics[%d].operation is required", i)
		}
	}
	for i, f := range q.Filters {
		if f.Operator == "" {
			return fmt.Errorf("decode IR: filters[%d].operator is required", i)
		}
	}
	return nil
}
