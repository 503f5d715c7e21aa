package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/store"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog maps table names to column names.
	Catalog map[string][]string `yaml:"catalog,omitempty"`

	// ExampleDB validates against a seeded in-memory SQLite database
	// instead of Catalog.
	ExampleDB bool `yaml:"example_db,omitempty"`

	// Options toggles the opt-in pipeline behaviours.
	Options Options `yaml:"options,omitempty"`

	// Cases run in order.
	Cases []Case `yaml:"cases"`

	// Assertions validate the whole trace after all cases ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Options mirrors the service configuration switches.
type Options struct {
	EscapeLiterals bool `yaml:"escape_literals,omitempty"`
	RejectJoins    bool `yaml:"reject_joins,omitempty"`
}

// Case is one IR and its expected outcome.
type Case struct {
	Name   string          `yaml:"name"`
	IR     queryir.QueryIR `yaml:"ir"`
	Expect Expect          `yaml:"expect"`
}

// Expect specifies either the compiled SQL or the rejection.
type Expect struct {
	// SQL is the exact expected statement.
	SQL string `yaml:"sql,omitempty"`

	// Error is the expected validation error code (e.g. "E204").
	Error string `yaml:"error,omitempty"`

	// Message optionally pins the exact error text.
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is one of outcome_count, same_fingerprint, distinct_fingerprint.
	Type string `yaml:"type"`

	// Outcome and Count are used by outcome_count.
	Outcome string `yaml:"outcome,omitempty"`
	Count   int    `yaml:"count,omitempty"`

	// Cases lists case names for the fingerprint assertions.
	Cases []string `yaml:"cases,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeCount        = "outcome_count"
	AssertSameFingerprint     = "same_fingerprint"
	AssertDistinctFingerprint = "distinct_fingerprint"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so typos
// like "case:" for "cases:" fail loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.ExampleDB && len(s.Catalog) > 0 {
		return fmt.Errorf("catalog and example_db are mutually exclusive")
	}
	if !s.ExampleDB && len(s.Catalog) == 0 {
		return fmt.Errorf("catalog is required unless example_db is set")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		hasSQL := c.Expect.SQL != ""
		hasErr := c.Expect.Error != ""
		if hasSQL == hasErr {
			return fmt.Errorf("cases[%d]: expect needs exactly one of sql or error", i)
		}
		if c.Expect.Message != "" && !hasErr {
			return fmt.Errorf("cases[%d]: expect.message requires expect.error", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, cases map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutcomeCount:
		if !store.Outcome(a.Outcome).Valid() {
			return fmt.Errorf("assertions[%d]: unknown outcome %q for outcome_count", index, a.Outcome)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	case AssertSameFingerprint, AssertDistinctFingerprint:
		if len(a.Cases) < 2 {
			return fmt.Errorf("assertions[%d]: at least two cases are required for %s", index, a.Type)
		}
		for _, name := range a.Cases {
			if !cases[name] {
				return fmt.Errorf("assertions[%d]: unknown case %q", index, name)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
