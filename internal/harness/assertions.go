package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// AssertionError describes a failed final-state assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s -> %s v%d\n", ev.Seq, ev.Op, ev.Field, ev.DataState, ev.Version)
	}
	return buf.String()
}

// evaluateAssertions runs every assertion and returns the failure messages.
func (h *Harness) evaluateAssertions(assertions []Assertion, result *Result) []string {
	var errs []string
	for _, a := range assertions {
		if err := h.evaluate(a, result); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func (h *Harness) evaluate(a Assertion, result *Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: result.Trace}
	}

	switch a.Type {
	case AssertFieldEquals:
		got, ok := result.Fields[a.Field]
		if !ok {
			return fail(fmt.Sprintf("field %s", a.Field), "field not declared")
		}
		if got != a.Value {
			return fail(fmt.Sprintf("%s = %s", a.Field, a.Value), fmt.Sprintf("%s = %s", a.Field, got))
		}
	case AssertFieldChanged:
		d, err := h.catalog.Resolve(catalog.FieldID(a.Field))
		if err != nil {
			return fail(fmt.Sprintf("field %s", a.Field), err.Error())
		}
		got := h.entity.FieldChanged(d)
		want := a.Value
		if want == "" {
			want = value.Different.String()
		}
		if got.String() != want {
			return fail(fmt.Sprintf("%s %s", a.Field, want), fmt.Sprintf("%s %s", a.Field, got))
		}
	case AssertErrorCount:
		if n := h.entity.Ledger().Len(); n != a.Count {
			return fail(fmt.Sprintf("%d ledger entries", a.Count), fmt.Sprintf("%d ledger entries", n))
		}
	case AssertUpdateCount:
		if h.updates != a.Count {
			return fail(fmt.Sprintf("%d updates", a.Count), fmt.Sprintf("%d updates", h.updates))
		}
	case AssertChangeCount:
		if n := len(h.entity.Changes()); n != a.Count {
			return fail(fmt.Sprintf("%d changed fields", a.Count), fmt.Sprintf("%d changed fields", n))
		}
	default:
		return fail("known assertion type", a.Type)
	}
	return nil
}
