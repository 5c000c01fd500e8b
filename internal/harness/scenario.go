package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/status"
)

// Scenario defines a cache scenario: documents to seed, local writes to
// apply and assertions on the resulting state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Database is the database ID. Empty means "(default)".
	Database string `yaml:"database,omitempty"`

	// Setup seeds server snapshots before the flow.
	// Setup steps are assumed to succeed.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Flow contains the local writes under test.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and cache state.
	Assertions []Assertion `yaml:"assertions"`
}

// SetupStep caches one server snapshot.
type SetupStep struct {
	// Document is the slash-separated document path (e.g. "rooms/lobby").
	Document string `yaml:"document"`

	// Fields holds the document contents. Transform markers are rejected.
	Fields map[string]any `yaml:"fields"`
}

// FlowStep applies one local write.
type FlowStep struct {
	// Op is set, merge, update or delete.
	Op string `yaml:"op"`

	// Document is the slash-separated document path.
	Document string `yaml:"document"`

	// Data is the write payload (unused by delete).
	Data map[string]any `yaml:"data,omitempty"`

	// Expect optionally checks the outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Error is the expected status code (e.g. "INVALID_ARGUMENT").
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Transforms is the expected number of field transforms.
	Transforms *int `yaml:"transforms,omitempty"`
}

// Assertion validates the trace or the final cache state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "document": decode Document and compare Expect (subset), check Absent
	// - "pending": check the pending-writes flag of Document
	// - "missing": check that Document is not cached
	// - "op_count": check Op appears exactly Count times in the trace
	// - "trace_order": check Ops appear in order
	Type string `yaml:"type"`

	// Document is the document path (document, pending, missing).
	Document string `yaml:"document,omitempty"`

	// ServerTimestamps selects the decode behavior (document).
	ServerTimestamps string `yaml:"server_timestamps,omitempty"`

	// Expect contains expected field values (document).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent lists dotted field paths that must not exist (document).
	Absent []string `yaml:"absent,omitempty"`

	// Pending is the expected pending-writes flag (pending).
	Pending *bool `yaml:"pending,omitempty"`

	// Op and Count are used by op_count.
	Op    string `yaml:"op,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertDocument   = "document"
	AssertPending    = "pending"
	AssertMissing    = "missing"
	AssertOpCount    = "op_count"
	AssertTraceOrder = "trace_order"
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

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Document == "" {
			return fmt.Errorf("setup[%d]: document is required", i)
		}
	}

	for i, step := range s.Flow {
		if step.Document == "" {
			return fmt.Errorf("flow[%d]: document is required", i)
		}
		switch step.Op {
		case OpSet, OpMerge, OpUpdate:
			if step.Data == nil {
				return fmt.Errorf("flow[%d]: data is required for %s (use empty map if no fields)", i, step.Op)
			}
		case OpDelete:
		default:
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil && step.Expect.Error != "" {
			if err := validateCode(step.Expect.Error); err != nil {
				return fmt.Errorf("flow[%d].expect: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateCode(code string) error {
	switch status.Code(code) {
	case status.CodeInvalidArgument, status.CodeInternal, status.CodeNotFound:
		return nil
	}
	return fmt.Errorf("unknown error code %q", code)
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDocument:
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required for document", index)
		}
		if len(a.Expect) == 0 && len(a.Absent) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for document", index)
		}
		if _, err := decode.ParseServerTimestampBehavior(a.ServerTimestamps); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertPending:
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required for pending", index)
		}
		if a.Pending == nil {
			return fmt.Errorf("assertions[%d]: pending is required for pending", index)
		}
	case AssertMissing:
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required for missing", index)
		}
	case AssertOpCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for op_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for op_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
