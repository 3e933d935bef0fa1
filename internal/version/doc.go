// Package version holds the versioned state of one entity instance.
//
// A ValueSet is a flat, slot-addressed snapshot of an entity's versioned
// field values. A History stacks ValueSet snapshots for undo, with a
// parallel stack of before/after Deltas for display and audit.
//
// Neither type is safe for concurrent use. An entity and its history belong
// to one editing session at a time.
package version
