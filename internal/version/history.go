package version

import (
	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// History is the undo stack of one entity instance.
//
// current is the live snapshot and the only one mutated in place. original is
// the accepted baseline. past holds earlier snapshots, newest last, and
// deltas[i] describes the step from past[i] to the snapshot above it, so the
// two stacks always have the same depth.
type History struct {
	current  *ValueSet
	original *ValueSet
	past     []*ValueSet
	deltas   []Delta
}

// NewHistory creates an empty history over a fresh version-0 value set.
func NewHistory(c *catalog.Catalog) *History {
	return NewHistoryFrom(NewValueSet(c))
}

// NewHistoryFrom creates an empty history whose current and original are s.
func NewHistoryFrom(s *ValueSet) *History {
	return &History{current: s, original: s}
}

// Current returns the live snapshot.
func (h *History) Current() *ValueSet { return h.current }

// Original returns the accepted baseline.
func (h *History) Original() *ValueSet { return h.original }

// Depth returns the number of past snapshots.
func (h *History) Depth() int { return len(h.past) }

// HasHistory reports whether any past snapshot exists.
func (h *History) HasHistory() bool { return len(h.past) > 0 }

// Peek returns the newest past snapshot.
func (h *History) Peek() (*ValueSet, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	return h.past[len(h.past)-1], true
}

// Past returns the past snapshots, oldest first.
func (h *History) Past() []*ValueSet {
	out := make([]*ValueSet, len(h.past))
	copy(out, h.past)
	return out
}

// Deltas returns the recorded steps, oldest first.
func (h *History) Deltas() []Delta {
	out := make([]Delta, len(h.deltas))
	copy(out, h.deltas)
	return out
}

// Push starts a new step. The current set is cloned and the clone, carrying
// newVersion, becomes current; the old current is pushed along with a delta
// from it to the new current.
//
// newVersion must exceed the current version.
func (h *History) Push(newVersion int) error {
	if newVersion <= h.current.Version() {
		return catalog.NewError(catalog.ErrCodeNonMonotonicVersion, h.current.Catalog().Owner(), "",
			"push version %d does not exceed current version %d", newVersion, h.current.Version())
	}
	prev := h.current
	next := prev.Clone()
	next.SetVersion(newVersion)

	h.past = append(h.past, prev)
	h.deltas = append(h.deltas, Delta{Before: prev, After: next})
	h.current = next
	return nil
}

// Pop discards current and restores the newest past snapshot. Returns false
// when there is nothing to pop.
func (h *History) Pop() bool {
	n := len(h.past)
	if n == 0 {
		return false
	}
	h.current = h.past[n-1]
	h.past[n-1] = nil
	h.past = h.past[:n-1]
	h.deltas[n-1] = Delta{}
	h.deltas = h.deltas[:n-1]
	return true
}

// MaybePop closes an edit step. If current is identical to the newest past
// snapshot the step was a no-op: it is popped and MaybePop returns false.
// Otherwise history is left intact and MaybePop returns true. An empty
// history returns false.
func (h *History) MaybePop() bool {
	top, ok := h.Peek()
	if !ok {
		return false
	}
	if h.current.Differs(top) == value.Identical {
		h.Pop()
		return false
	}
	return true
}

// Clear accepts the current values as the new baseline: both stacks are
// emptied, original becomes current and the version resets to 0.
func (h *History) Clear() {
	h.dropStacks()
	h.original = h.current
	h.current.SetVersion(0)
}

// Reset discards every pending step and restores the baseline.
func (h *History) Reset() {
	h.dropStacks()
	h.current = h.original
}

// SetHistory seeds a known baseline distinct from the live values. original
// becomes a version-0 copy of current holding base's slots and is pushed as
// the only past snapshot; current moves to version 1.
func (h *History) SetHistory(base *ValueSet) error {
	original := h.current.Clone()
	if err := original.CopyFrom(base); err != nil {
		return err
	}
	h.dropStacks()
	h.original = original
	h.past = append(h.past, original)
	h.current.SetVersion(1)
	h.deltas = append(h.deltas, Delta{Before: original, After: h.current})
	return nil
}

// Condense collapses every step at or above maxVersion into current, which
// keeps its values and takes maxVersion as its version. Returns the number of
// snapshots discarded.
func (h *History) Condense(maxVersion int) int {
	removed := 0
	for len(h.past) > 0 && h.past[len(h.past)-1].Version() >= maxVersion {
		n := len(h.past)
		h.past[n-1] = nil
		h.past = h.past[:n-1]
		h.deltas[n-1] = Delta{}
		h.deltas = h.deltas[:n-1]
		removed++
	}
	h.current.SetVersion(maxVersion)
	if removed > 0 && len(h.past) > 0 {
		n := len(h.past)
		h.deltas[n-1] = Delta{Before: h.past[n-1], After: h.current}
	}
	return removed
}

// Trim condenses the history so at most limit past snapshots remain. A
// limit of zero or less leaves the history unbounded.
func (h *History) Trim(limit int) int {
	if limit <= 0 || len(h.past) <= limit {
		return 0
	}
	return h.Condense(h.past[limit].Version())
}

// FieldChanged compares one field of current against original. Untracked
// fields are always Identical.
func (h *History) FieldChanged(d *catalog.Descriptor) value.Difference {
	if !d.Tracked() {
		return value.Identical
	}
	return h.current.FieldDiffers(h.original, d)
}

func (h *History) dropStacks() {
	clear(h.past)
	h.past = h.past[:0]
	clear(h.deltas)
	h.deltas = h.deltas[:0]
}
