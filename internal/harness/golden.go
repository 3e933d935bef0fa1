package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden form of a run: a header line naming the
// scenario followed by one canonical JSON line per trace event.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
}

// Marshal renders the snapshot. Output is byte-stable for a given trace.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	header, err := MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         len(s.Trace),
	})
	if err != nil {
		return nil, err
	}
	buf.Write(header)
	buf.WriteByte('\n')

	for _, ev := range s.Trace {
		line, err := MarshalCanonical(ev.canonicalMap())
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// canonicalMap drops empty optional fields so the golden lines only carry
// what the step produced.
func (ev TraceEvent) canonicalMap() map[string]any {
	m := map[string]any{
		"seq":        ev.Seq,
		"op":         ev.Op,
		"data_state": ev.DataState,
		"edit_state": ev.EditState,
		"version":    ev.Version,
		"depth":      ev.Depth,
	}
	if ev.Field != "" {
		m["field"] = ev.Field
	}
	if ev.Arg != "" {
		m["arg"] = ev.Arg
	}
	if ev.Returns != "" {
		m["returns"] = ev.Returns
	}
	if ev.Error != "" {
		m["error"] = ev.Error
	}
	return m
}

// RunWithGolden runs the scenario, fails the test if any expectation did not
// hold, and compares the trace with testdata/golden/<name>.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
