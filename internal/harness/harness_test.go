package harness

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldset/internal/metrics"
)

func scenarioPath(name string) string {
	return filepath.Join("..", "..", "testdata", "scenarios", name+".yaml")
}

func bankSchema() string {
	return filepath.Join("..", "..", "testdata", "schemas", "bank")
}

func TestScenariosMatchGolden(t *testing.T) {
	for _, name := range []string{
		"edit_lifecycle",
		"condense_history",
		"deletion_states",
		"secured_session",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(scenarioPath(name))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	want := 3
	s := &Scenario{
		Name:        "wrong_expectations",
		Description: "expectations that do not hold",
		Schema:      bankSchema(),
		Type:        "Account",
		Steps: []Step{
			{Op: OpPush, Version: 1, Expect: &Expect{DataState: "CLEAN", Version: &want}},
			{Op: OpPush, Version: 1},
		},
		Assertions: []Assertion{
			{Type: AssertUpdateCount, Count: 7},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "data_state: expected CLEAN, got CHANGED")
	assert.Contains(t, result.Errors[1], "version: expected 3, got 1")
	assert.Contains(t, result.Errors[2], "unexpected error NON_MONOTONIC_VERSION")
	assert.Contains(t, result.Errors[3], "Assertion failed: update_count")
}

func TestRun_FinalFields(t *testing.T) {
	value := "Zed"
	s := &Scenario{
		Name:        "fields",
		Description: "final field snapshot",
		Schema:      bankSchema(),
		Type:        "Deposit",
		Steps: []Step{
			{Op: OpSet, Field: "Name", Value: &value},
			{Op: OpSet, Field: "Rate"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "Zed", result.Fields["Name"])
	assert.Equal(t, "null", result.Fields["Rate"])
	assert.Len(t, result.Fields, 8)
	assert.Equal(t, 2, result.Updates)
}

func TestRun_MalformedValueAborts(t *testing.T) {
	bad := "lots"
	s := &Scenario{
		Name:        "bad_value",
		Description: "value does not parse",
		Schema:      bankSchema(),
		Type:        "Account",
		Steps:       []Step{{Op: OpSet, Field: "Balance", Value: &bad}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0 (set)")
}

func TestRun_UnknownType(t *testing.T) {
	s := &Scenario{
		Name:        "unknown_type",
		Description: "type missing from schema",
		Schema:      bankSchema(),
		Type:        "Loan",
		Steps:       []Step{{Op: OpPop}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `type "Loan" not declared`)
}

func TestRun_MissingSchema(t *testing.T) {
	s := &Scenario{
		Name:        "missing_schema",
		Description: "schema directory does not exist",
		Schema:      filepath.Join(t.TempDir(), "nope"),
		Type:        "Account",
		Steps:       []Step{{Op: OpPop}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestRun_WithObserver(t *testing.T) {
	s, err := LoadScenario(scenarioPath("condense_history"))
	require.NoError(t, err)

	rec := metrics.NewRecorder(prometheus.NewRegistry())
	result, err := Run(s, WithObserver(rec))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, 3.0, promtest.ToFloat64(rec.Pushes.WithLabelValues("Account")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.Pops.WithLabelValues("Account")))
	assert.Equal(t, 2.0, promtest.ToFloat64(rec.Condensed.WithLabelValues("Account")))
}

func TestRun_IsDeterministic(t *testing.T) {
	s, err := LoadScenario(scenarioPath("secured_session"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := (&TraceSnapshot{ScenarioName: s.Name, Trace: first.Trace}).Marshal()
	require.NoError(t, err)
	b, err := (&TraceSnapshot{ScenarioName: s.Name, Trace: second.Trace}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
