package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario drives one entity through a sequence of operations and checks the
// derived state after each.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Schema is a directory of CUE files declaring the entity types.
	// Relative paths resolve against the scenario file.
	Schema string `yaml:"schema"`

	// Type is the entity type to instantiate.
	Type string `yaml:"type"`

	// EntityID is the id given to the entity. Default: 1.
	EntityID int64 `yaml:"entity_id,omitempty"`

	// BaseVersion seeds the entity at a non-zero version, making it NEW.
	BaseVersion int `yaml:"base_version,omitempty"`

	// SessionToken fixes the session id for begin/commit/cancel steps.
	SessionToken string `yaml:"session_token,omitempty"`

	// HistoryLimit bounds undo depth when a session commits.
	HistoryLimit int `yaml:"history_limit,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions check the entity once every step has run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation on the entity.
type Step struct {
	// Op names the operation; see the Op* constants.
	Op string `yaml:"op"`

	// Field is the field id for set, set_secret, set_unchecked and error.
	Field string `yaml:"field,omitempty"`

	// Value is the field value in its text form. Omitted or null means Null.
	Value *string `yaml:"value,omitempty"`

	// Values maps field ids to values for load and set_history.
	Values map[string]*string `yaml:"values,omitempty"`

	// Version is the argument to push and condense.
	Version int `yaml:"version,omitempty"`

	// Limit is the argument to trim.
	Limit int `yaml:"limit,omitempty"`

	// Message is the ledger text for error.
	Message string `yaml:"message,omitempty"`

	// Expect is checked after the step runs.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the observations a step must produce. Omitted fields are not
// checked.
type Expect struct {
	DataState string  `yaml:"data_state,omitempty"`
	EditState string  `yaml:"edit_state,omitempty"`
	Version   *int    `yaml:"version,omitempty"`
	Depth     *int    `yaml:"depth,omitempty"`
	Returns   *string `yaml:"returns,omitempty"`

	// Error is the expected contract error code. A step with no Error
	// expectation must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the final entity.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Field is the field for field_equals and field_changed.
	Field string `yaml:"field,omitempty"`

	// Value is the formatted value for field_equals, or the difference name
	// for field_changed.
	Value string `yaml:"value,omitempty"`

	// Count is the expected number for error_count, update_count and
	// change_count.
	Count int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpSet          = "set"
	OpSetSecret    = "set_secret"
	OpSetUnchecked = "set_unchecked"
	OpLoad         = "load"
	OpPush         = "push"
	OpPop          = "pop"
	OpMaybePop     = "maybe_pop"
	OpClear        = "clear"
	OpReset        = "reset"
	OpSetHistory   = "set_history"
	OpCondense     = "condense"
	OpTrim         = "trim"
	OpDelete       = "delete"
	OpUndelete     = "undelete"
	OpError        = "error"
	OpClearErrors  = "clear_errors"
	OpCheckLengths = "check_lengths"
	OpBegin        = "begin"
	OpCommit       = "commit"
	OpCancel       = "cancel"
)

var knownOps = map[string]bool{
	OpSet: true, OpSetSecret: true, OpSetUnchecked: true, OpLoad: true,
	OpPush: true, OpPop: true, OpMaybePop: true, OpClear: true, OpReset: true,
	OpSetHistory: true, OpCondense: true, OpTrim: true, OpDelete: true,
	OpUndelete: true, OpError: true, OpClearErrors: true, OpCheckLengths: true,
	OpBegin: true, OpCommit: true, OpCancel: true,
}

// Assertion types.
const (
	AssertFieldEquals  = "field_equals"
	AssertFieldChanged = "field_changed"
	AssertErrorCount   = "error_count"
	AssertUpdateCount  = "update_count"
	AssertChangeCount  = "change_count"
)

// LoadScenario reads a scenario file. Unknown keys are rejected so typos
// surface as errors, and a relative schema path is resolved against the
// file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Schema != "" && !filepath.IsAbs(s.Schema) {
		s.Schema = filepath.Join(filepath.Dir(path), s.Schema)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}

	for i, step := range s.Steps {
		if !knownOps[step.Op] {
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
		switch step.Op {
		case OpSet, OpSetSecret, OpSetUnchecked:
			if step.Field == "" {
				return fmt.Errorf("step %d: %s requires field", i, step.Op)
			}
		case OpLoad, OpSetHistory:
			if len(step.Values) == 0 {
				return fmt.Errorf("step %d: %s requires values", i, step.Op)
			}
		case OpError:
			if step.Message == "" {
				return fmt.Errorf("step %d: error requires message", i)
			}
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertFieldEquals, AssertFieldChanged:
			if a.Field == "" {
				return fmt.Errorf("assertion %d: %s requires field", i, a.Type)
			}
		case AssertErrorCount, AssertUpdateCount, AssertChangeCount:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
