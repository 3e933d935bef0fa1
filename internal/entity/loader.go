package entity

import (
	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// Loader assigns fields during a bulk load. Nothing it does is published.
type Loader struct {
	e *Entity
}

// Load runs fn with update publishing suppressed on e. Suppression ends when
// fn returns, whether or not it fails.
func (e *Entity) Load(fn func(*Loader) error) error {
	prev := e.refreshing
	e.refreshing = true
	defer func() { e.refreshing = prev }()

	return fn(&Loader{e: e})
}

// Entity returns the entity being loaded.
func (l *Loader) Entity() *Entity { return l.e }

// Set assigns a field with type checking.
func (l *Loader) Set(d *catalog.Descriptor, v value.Value) error {
	return l.e.assign(d, v, true)
}

// SetUnchecked assigns a field without type checking, for sources that have
// already validated their data.
func (l *Loader) SetUnchecked(d *catalog.Descriptor, v value.Value) error {
	return l.e.assign(d, v, false)
}

// SetField assigns a field by id with type checking.
func (l *Loader) SetField(id catalog.FieldID, v value.Value) error {
	d, err := l.e.catalog.Resolve(id)
	if err != nil {
		return err
	}
	return l.Set(d, v)
}
