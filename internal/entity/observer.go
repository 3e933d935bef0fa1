package entity

import "github.com/roach88/fieldset/internal/catalog"

// Observer receives lifecycle events from entities. metrics.Recorder is the
// production implementation.
type Observer interface {
	HistoryPushed(typ catalog.TypeID, depth int)
	HistoryPopped(typ catalog.TypeID, depth int)
	HistoryCondensed(typ catalog.TypeID, removed int)
	StateChanged(typ catalog.TypeID, from, to DataState)
	ErrorAdded(typ catalog.TypeID, field catalog.FieldID)
}

type nopObserver struct{}

func (nopObserver) HistoryPushed(catalog.TypeID, int)                 {}
func (nopObserver) HistoryPopped(catalog.TypeID, int)                 {}
func (nopObserver) HistoryCondensed(catalog.TypeID, int)              {}
func (nopObserver) StateChanged(catalog.TypeID, DataState, DataState) {}
func (nopObserver) ErrorAdded(catalog.TypeID, catalog.FieldID)        {}
