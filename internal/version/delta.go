package version

import (
	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// Delta records one history step as the snapshot before it and the snapshot
// after it. The After side of the newest delta is the live current set.
type Delta struct {
	Before *ValueSet
	After  *ValueSet
}

// Change is one field that differs across a delta.
type Change struct {
	Field      *catalog.Descriptor
	Before     value.Value
	After      value.Value
	Difference value.Difference
}

// Changes lists the tracked fields that differ between Before and After, in
// catalog order.
func (d Delta) Changes() []Change {
	if d.Before == nil || d.After == nil {
		return nil
	}
	var out []Change
	for f := range d.After.Catalog().Tracked() {
		diff := d.Before.FieldDiffers(d.After, f)
		if diff == value.Identical {
			continue
		}
		out = append(out, Change{
			Field:      f,
			Before:     d.Before.MustGet(f),
			After:      d.After.MustGet(f),
			Difference: diff,
		})
	}
	return out
}

// Deletion reports whether the step flipped the deletion flag.
func (d Delta) Deletion() bool {
	if d.Before == nil || d.After == nil {
		return false
	}
	return d.Before.IsDeletion() != d.After.IsDeletion()
}
