// Package harness runs YAML scenarios against versioned entities and
// compares their traces with golden files.
//
// # Scenario Format
//
//	name: edit_lifecycle
//	description: "What this scenario exercises"
//	schema: ../schemas/bank        # CUE directory, relative to this file
//	type: Account
//	base_version: 0                # optional; > 0 seeds a NEW entity
//	session_token: session-0001    # optional; fixes the session id
//	history_limit: 2               # optional; undo bound on commit
//	steps:
//	  - op: push
//	    version: 1
//	    expect: {data_state: CHANGED, edit_state: DIRTY, version: 1, depth: 1}
//	  - op: set
//	    field: Name
//	    value: "Alice"
//	  - op: maybe_pop
//	    expect: {returns: "true"}
//	assertions:
//	  - {type: field_equals, field: Name, value: "Alice"}
//
// Values are written in their text form and parsed against the field's
// semantic type: decimals as "10.50", dates as "2024-02-29", links as
// "Account#7" or a bare id.
//
// # Operations
//
// set, set_secret, set_unchecked and load assign fields. push, pop,
// maybe_pop, clear, reset, set_history, condense and trim drive the history.
// delete and undelete toggle the deletion flag. error, clear_errors and
// check_lengths work the validation ledger. begin, commit and cancel run a
// session over the entity.
//
// A step whose operation fails with a contract error is traced with the
// error code. It fails the scenario unless its expect clause names that code.
//
// # Assertion Types
//
//   - field_equals: the formatted final value of a field
//   - field_changed: the difference of a field against the baseline
//   - error_count: validation ledger entries
//   - update_count: field updates published on the entity's channel
//   - change_count: tracked fields differing from the baseline
//
// # Deterministic Testing
//
// Each run compiles the schema afresh, hands out session versions from a
// logical clock starting at 1, and seals secured values under a fixed key
// with counter nonces, so the same scenario always produces the same trace.
//
// Golden traces live in testdata/golden/<name>.golden and are regenerated
// with:
//
//	go test ./internal/harness -update
package harness
