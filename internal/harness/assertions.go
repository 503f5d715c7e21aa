package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Case, event.Outcome)
		if event.ErrorCode != "" {
			fmt.Fprintf(&buf, " %s", event.ErrorCode)
		}
		fmt.Fprintf(&buf, " %s\n", shortFingerprint(event.Fingerprint))
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against the trace and returns one
// message per failure.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluateAssertion(trace, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluateAssertion(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertOutcomeCount:
		return assertOutcomeCount(trace, a)
	case AssertSameFingerprint:
		return assertSameFingerprint(trace, a)
	case AssertDistinctFingerprint:
		return assertDistinctFingerprint(trace, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertOutcomeCount checks that exactly a.Count records have a.Outcome.
func assertOutcomeCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Outcome == a.Outcome {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%d %s records", a.Count, a.Outcome),
			Actual:   fmt.Sprintf("%d %s records", count, a.Outcome),
			Trace:    trace,
		}
	}
	return nil
}

// assertSameFingerprint checks that all listed cases produced one
// fingerprint.
func assertSameFingerprint(trace []TraceEvent, a Assertion) error {
	fps, err := fingerprintsOf(trace, a)
	if err != nil {
		return err
	}
	for i := 1; i < len(fps); i++ {
		if fps[i] != fps[0] {
			return &AssertionError{
				Type:     AssertSameFingerprint,
				Expected: fmt.Sprintf("%s and %s share a fingerprint", a.Cases[0], a.Cases[i]),
				Actual:   fmt.Sprintf("%s != %s", shortFingerprint(fps[0]), shortFingerprint(fps[i])),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertDistinctFingerprint checks that no two listed cases share a
// fingerprint.
func assertDistinctFingerprint(trace []TraceEvent, a Assertion) error {
	fps, err := fingerprintsOf(trace, a)
	if err != nil {
		return err
	}
	seen := make(map[string]string, len(fps))
	for i, fp := range fps {
		if prev, ok := seen[fp]; ok {
			return &AssertionError{
				Type:     AssertDistinctFingerprint,
				Expected: fmt.Sprintf("%s and %s have different fingerprints", prev, a.Cases[i]),
				Actual:   fmt.Sprintf("both are %s", shortFingerprint(fp)),
				Trace:    trace,
			}
		}
		seen[fp] = a.Cases[i]
	}
	return nil
}

// fingerprintsOf returns the fingerprint of each listed case, in order.
func fingerprintsOf(trace []TraceEvent, a Assertion) ([]string, error) {
	byCase := make(map[string]string, len(trace))
	for _, event := range trace {
		byCase[event.Case] = event.Fingerprint
	}
	fps := make([]string, len(a.Cases))
	for i, name := range a.Cases {
		fp, ok := byCase[name]
		if !ok {
			return nil, &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("a trace record for case %s", name),
				Actual:   "no record",
				Trace:    trace,
			}
		}
		fps[i] = fp
	}
	return fps, nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
