package harness

// TraceEvent is one audit record of a scenario run, tagged with the case
// that produced it.
type TraceEvent struct {
	Seq         int64  `json:"seq"`
	Case        string `json:"case"`
	Outcome     string `json:"outcome"`
	Fingerprint string `json:"fingerprint"`
	SQL         string `json:"sql,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every case expectation and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one event per case, in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Event returns the trace event for the named case.
func (r *Result) Event(caseName string) (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.Case == caseName {
			return e, true
		}
	}
	return TraceEvent{}, false
}
