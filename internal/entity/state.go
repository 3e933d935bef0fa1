package entity

import (
	"fmt"

	"github.com/roach88/fieldset/internal/version"
)

// DataState classifies an entity relative to its accepted baseline.
type DataState int

const (
	// StateClean means there are no pending edits.
	StateClean DataState = iota
	// StateNew means the entity was seeded above version 0 and never accepted.
	StateNew
	// StateChanged means there are pending edits.
	StateChanged
	// StateDeleted means the pending edits delete the entity.
	StateDeleted
	// StateDelNew means a new entity was deleted before it was accepted.
	StateDelNew
	// StateRecovered means the pending edits undelete the entity.
	StateRecovered
)

var dataStateNames = [...]string{
	StateClean:     "CLEAN",
	StateNew:       "NEW",
	StateChanged:   "CHANGED",
	StateDeleted:   "DELETED",
	StateDelNew:    "DELNEW",
	StateRecovered: "RECOVERED",
}

func (s DataState) String() string {
	if s >= 0 && int(s) < len(dataStateNames) {
		return dataStateNames[s]
	}
	return fmt.Sprintf("DataState(%d)", int(s))
}

// ParseDataState maps a state name to its DataState.
func ParseDataState(name string) (DataState, bool) {
	for i, n := range dataStateNames {
		if n == name {
			return DataState(i), true
		}
	}
	return StateClean, false
}

// EditState classifies an entity for display.
type EditState int

const (
	EditClean EditState = iota
	EditDirty
	EditError
)

var editStateNames = [...]string{
	EditClean: "CLEAN",
	EditDirty: "DIRTY",
	EditError: "ERROR",
}

func (s EditState) String() string {
	if s >= 0 && int(s) < len(editStateNames) {
		return editStateNames[s]
	}
	return fmt.Sprintf("EditState(%d)", int(s))
}

// ParseEditState maps a state name to its EditState.
func ParseEditState(name string) (EditState, bool) {
	for i, n := range editStateNames {
		if n == name {
			return EditState(i), true
		}
	}
	return EditClean, false
}

// DeriveDataState applies the decision table, first match wins:
//
//	original.version > 0   NEW, or DELNEW if current is a deletion
//	current.version == 0   CLEAN
//	current is a deletion  DELETED
//	original is a deletion RECOVERED
//	otherwise              CHANGED
func DeriveDataState(original, current *version.ValueSet) DataState {
	switch {
	case original.Version() > 0:
		if current.IsDeletion() {
			return StateDelNew
		}
		return StateNew
	case current.Version() == 0:
		return StateClean
	case current.IsDeletion():
		return StateDeleted
	case original.IsDeletion():
		return StateRecovered
	default:
		return StateChanged
	}
}

// DeriveEditState is ERROR when validation errors exist, otherwise CLEAN at
// version 0 and DIRTY above it.
func DeriveEditState(hasErrors bool, current *version.ValueSet) EditState {
	switch {
	case hasErrors:
		return EditError
	case current.Version() == 0:
		return EditClean
	default:
		return EditDirty
	}
}
