package entity

import (
	"strings"

	"github.com/roach88/fieldset/internal/catalog"
)

// ErrorEntry is one validation message.
type ErrorEntry struct {
	// Field is empty for entity-level messages.
	Field   catalog.FieldID
	Message string
	// Seq counts entries for the same field, starting at 1.
	Seq int
}

// Ledger accumulates business-rule validation messages for one entity.
//
// Entries keep insertion order and are never deduplicated. These are data for
// display, not Go errors.
type Ledger struct {
	entries []ErrorEntry
	counts  map[catalog.FieldID]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{counts: make(map[catalog.FieldID]int)}
}

// AddError appends a message for field.
func (l *Ledger) AddError(message string, field catalog.FieldID) ErrorEntry {
	l.counts[field]++
	e := ErrorEntry{Field: field, Message: message, Seq: l.counts[field]}
	l.entries = append(l.entries, e)
	return e
}

// HasErrors reports whether any message exists.
func (l *Ledger) HasErrors() bool {
	return len(l.entries) > 0
}

// HasFieldErrors reports whether field has any message.
func (l *Ledger) HasFieldErrors(field catalog.FieldID) bool {
	return l.counts[field] > 0
}

// FirstError returns the earliest message.
func (l *Ledger) FirstError() (ErrorEntry, bool) {
	if len(l.entries) == 0 {
		return ErrorEntry{}, false
	}
	return l.entries[0], true
}

// ErrorsFor joins the messages for field, one per line.
func (l *Ledger) ErrorsFor(field catalog.FieldID) (string, bool) {
	return l.join(func(e ErrorEntry) bool { return e.Field == field })
}

// ErrorsExcluding joins the messages for every field not listed.
func (l *Ledger) ErrorsExcluding(fields ...catalog.FieldID) (string, bool) {
	skip := make(map[catalog.FieldID]bool, len(fields))
	for _, f := range fields {
		skip[f] = true
	}
	return l.join(func(e ErrorEntry) bool { return !skip[e.Field] })
}

func (l *Ledger) join(keep func(ErrorEntry) bool) (string, bool) {
	var msgs []string
	for _, e := range l.entries {
		if keep(e) {
			msgs = append(msgs, e.Message)
		}
	}
	if len(msgs) == 0 {
		return "", false
	}
	return strings.Join(msgs, "\n"), true
}

// Entries returns a copy of every entry in insertion order.
func (l *Ledger) Entries() []ErrorEntry {
	out := make([]ErrorEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clear removes every entry.
func (l *Ledger) Clear() {
	l.entries = nil
	clear(l.counts)
}
