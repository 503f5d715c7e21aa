package queryir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// DomainQuery is the domain prefix for IR fingerprints.
// Version suffix enables future algorithm migration.
const DomainQuery = "irgate/query/v1"

// Clone returns a deep copy of q.
func (q QueryIR) Clone() QueryIR {
	out := QueryIR{Intent: q.Intent}
	if q.Tables != nil {
		out.Tables = append([]string{}, q.Tables...)
	}
	if q.Metrics != nil {
		out.Metrics = append([]Metric{}, q.Metrics...)
	}
	if q.Dimensions != nil {
		out.Dimensions = append([]string{}, q.Dimensions...)
	}
	if q.Filters != nil {
		out.Filters = append([]Filter{}, q.Filters...)
	}
	if q.Joins != nil {
		out.Joins = append([]Join{}, q.Joins...)
	}
	return out
}

// Fingerprint returns the content-addressed identity of q.
//
// Format: hex(SHA256(DomainQuery + 0x00 + canonical(q)))
//
// canonical(q) sorts object keys, NFC-normalizes strings and renders absent
// and empty collections identically, so two IRs that compile to the same SQL
// share a fingerprint.
func Fingerprint(q QueryIR) string {
	h := sha256.New()
	h.Write([]byte(DomainQuery))
	h.Write([]byte{0x00})
	h.Write(MarshalCanonical(q))
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalCanonical renders q as canonical JSON: keys sorted, no insignificant
// whitespace, no HTML escaping, strings NFC-normalized.
func MarshalCanonical(q QueryIR) []byte {
	metrics := make([]any, len(q.Metrics))
	for i, m := range q.Metrics {
		metrics[i] = map[string]any{"column": m.Column, "operation": string(m.Operation)}
	}
	filters := make([]any, len(q.Filters))
	for i, f := range q.Filters {
		filters[i] = map[string]any{"column": f.Column, "operator": string(f.Operator), "value": f.Value}
	}
	joins := make([]any, len(q.Joins))
	for i, j := range q.Joins {
		joins[i] = map[string]any{
			"left_table":   j.LeftTable,
			"right_table":  j.RightTable,
			"left_column":  j.LeftColumn,
			"right_column": j.RightColumn,
		}
	}

	var buf bytes.Buffer
	writeCanonical(&buf, map[string]any{
		"intent":     string(q.Intent),
		"tables":     stringsToAny(q.Tables),
		"metrics":    metrics,
		"dimensions": stringsToAny(q.Dimensions),
		"filters":    filters,
		"joins":      joins,
	})
	return buf.Bytes()
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func writeCanonical(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case string:
		writeCanonicalString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, elem)
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// Keys are ASCII here, so byte order matches UTF-16 order.
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			writeCanonical(buf, val[k])
		}
		buf.WriteByte('}')
	}
}

func writeCanonicalString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	// Encoding a plain string never fails.
	_ = enc.Encode(norm.NFC.String(s))
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}
