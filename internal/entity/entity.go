package entity

import (
	"fmt"
	"log/slog"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
	"github.com/roach88/fieldset/internal/version"
)

// Entity is one editable instance of a catalogued type.
//
// DataState and EditState are derived, never set: every history mutation and
// ledger change recomputes them.
type Entity struct {
	id      int64
	catalog *catalog.Catalog
	history *version.History
	ledger  *Ledger
	locals  map[catalog.FieldID]value.Value

	dataState DataState
	editState EditState

	channel     *Channel
	observer    Observer
	logger      *slog.Logger
	baseVersion int
	refreshing  bool
}

// Option configures an Entity.
type Option func(*Entity)

// WithChannel publishes field updates on ch.
func WithChannel(ch *Channel) Option {
	return func(e *Entity) {
		e.channel = ch
	}
}

// WithObserver reports lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(e *Entity) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Entity) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBaseVersion seeds the entity at version v instead of 0. A positive base
// marks the entity NEW until its history is cleared.
func WithBaseVersion(v int) Option {
	return func(e *Entity) {
		e.baseVersion = v
	}
}

// New creates an entity of the catalog's type with every versioned field null.
func New(c *catalog.Catalog, id int64, opts ...Option) *Entity {
	e := &Entity{
		id:       id,
		catalog:  c,
		history:  version.NewHistory(c),
		ledger:   NewLedger(),
		locals:   make(map[catalog.FieldID]value.Value),
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.baseVersion != 0 {
		e.history.Current().SetVersion(e.baseVersion)
	}
	e.dataState = DeriveDataState(e.history.Original(), e.history.Current())
	e.editState = DeriveEditState(false, e.history.Current())
	return e
}

// ID returns the entity id.
func (e *Entity) ID() int64 { return e.id }

// Type returns the entity's type.
func (e *Entity) Type() catalog.TypeID { return e.catalog.Owner() }

// Catalog returns the entity's catalog.
func (e *Entity) Catalog() *catalog.Catalog { return e.catalog }

// History returns the entity's history. Mutate it through the entity so
// state stays derived.
func (e *Entity) History() *version.History { return e.history }

// Values returns the live value set.
func (e *Entity) Values() *version.ValueSet { return e.history.Current() }

// Ledger returns the validation ledger.
func (e *Entity) Ledger() *Ledger { return e.ledger }

// DataState returns the derived data state.
func (e *Entity) DataState() DataState { return e.dataState }

// EditState returns the derived edit state.
func (e *Entity) EditState() EditState { return e.editState }

// Version returns the live version.
func (e *Entity) Version() int { return e.history.Current().Version() }

// HasHistory reports whether undo steps exist.
func (e *Entity) HasHistory() bool { return e.history.HasHistory() }

// Slot implements catalog.Source.
func (e *Entity) Slot(i int) value.Value { return e.history.Current().Slot(i) }

// Local implements catalog.Source.
func (e *Entity) Local(id catalog.FieldID) value.Value {
	if v, ok := e.locals[id]; ok {
		return v
	}
	return value.Null{}
}

// Get reads any field through its accessor.
func (e *Entity) Get(d *catalog.Descriptor) (value.Value, error) {
	if !e.catalog.Contains(d) {
		return nil, e.foreign(d)
	}
	return d.Read(e), nil
}

// Field reads a field by id.
func (e *Entity) Field(id catalog.FieldID) (value.Value, error) {
	d, err := e.catalog.Resolve(id)
	if err != nil {
		return nil, err
	}
	return d.Read(e), nil
}

// Set assigns a field and publishes an Update. Versioned fields go to the
// live value set, local fields to the entity. Calculated fields cannot be
// assigned.
func (e *Entity) Set(d *catalog.Descriptor, v value.Value) error {
	if err := e.assign(d, v, true); err != nil {
		return err
	}
	e.publish(d, v)
	return nil
}

func (e *Entity) assign(d *catalog.Descriptor, v value.Value, checked bool) error {
	if !e.catalog.Contains(d) {
		return e.foreign(d)
	}
	if d.IsVersioned() {
		if checked {
			return e.history.Current().Set(d, v)
		}
		return e.history.Current().SetUnchecked(d, v)
	}
	if d.Storage() != catalog.Local {
		return catalog.NewError(catalog.ErrCodeNotVersioned, e.Type(), d.ID(), "%s field is read-only", d.Storage())
	}
	if checked {
		if err := d.Check(v); err != nil {
			return err
		}
	}
	if v == nil {
		v = value.Null{}
	}
	e.locals[d.ID()] = v
	return nil
}

func (e *Entity) publish(d *catalog.Descriptor, v value.Value) {
	if e.channel == nil || e.refreshing {
		return
	}
	if v == nil {
		v = value.Null{}
	}
	e.channel.Publish(Update{EntityID: e.id, Type: e.Type(), Field: d, Value: v})
}

func (e *Entity) foreign(d *catalog.Descriptor) error {
	return catalog.NewError(catalog.ErrCodeUnknownField, e.Type(), d.ID(), "field belongs to %s", d.Owner())
}

// Push starts an edit step at newVersion.
func (e *Entity) Push(newVersion int) error {
	if err := e.history.Push(newVersion); err != nil {
		return err
	}
	e.observer.HistoryPushed(e.Type(), e.history.Depth())
	e.logger.Debug("history pushed", e.attrs()...)
	e.adjustState()
	return nil
}

// Pop undoes the newest edit step.
func (e *Entity) Pop() bool {
	popped := e.history.Pop()
	if popped {
		e.observer.HistoryPopped(e.Type(), e.history.Depth())
		e.logger.Debug("history popped", e.attrs()...)
	}
	e.adjustState()
	return popped
}

// MaybePop closes an edit step, discarding it if nothing tracked changed.
// Returns true when the step holds a real edit.
func (e *Entity) MaybePop() bool {
	depth := e.history.Depth()
	edited := e.history.MaybePop()
	if e.history.Depth() < depth {
		e.observer.HistoryPopped(e.Type(), e.history.Depth())
		e.logger.Debug("no-op edit discarded", e.attrs()...)
	}
	e.adjustState()
	return edited
}

// ClearHistory accepts the live values as the new baseline.
func (e *Entity) ClearHistory() {
	e.history.Clear()
	e.logger.Debug("history cleared", e.attrs()...)
	e.adjustState()
}

// ResetHistory discards every pending edit.
func (e *Entity) ResetHistory() {
	e.history.Reset()
	e.logger.Debug("history reset", e.attrs()...)
	e.adjustState()
}

// SetHistory seeds a stored baseline distinct from the live values.
func (e *Entity) SetHistory(base *version.ValueSet) error {
	if err := e.history.SetHistory(base); err != nil {
		return err
	}
	e.logger.Debug("history seeded", e.attrs()...)
	e.adjustState()
	return nil
}

// Condense collapses every step at or above maxVersion into the live values.
func (e *Entity) Condense(maxVersion int) int {
	removed := e.history.Condense(maxVersion)
	e.afterCondense(removed)
	return removed
}

// TrimHistory condenses so at most limit undo steps remain.
func (e *Entity) TrimHistory(limit int) int {
	removed := e.history.Trim(limit)
	e.afterCondense(removed)
	return removed
}

func (e *Entity) afterCondense(removed int) {
	if removed > 0 {
		e.observer.HistoryCondensed(e.Type(), removed)
		e.logger.Debug("history condensed", append(e.attrs(), "removed", removed)...)
	}
	e.adjustState()
}

// SetDeleted marks or unmarks the live values as a deletion.
func (e *Entity) SetDeleted(deleted bool) {
	e.history.Current().SetDeletion(deleted)
	e.adjustState()
}

// IsDeleted reports whether the live values are a deletion.
func (e *Entity) IsDeleted() bool {
	return e.history.Current().IsDeletion()
}

// FieldChanged compares one field against the baseline. Fields that do not
// take part in change detection are always Identical.
func (e *Entity) FieldChanged(d *catalog.Descriptor) value.Difference {
	if !d.Tracked() || !e.catalog.Contains(d) {
		return value.Identical
	}
	return e.history.FieldChanged(d)
}

// Changes lists the tracked fields that differ from the baseline.
func (e *Entity) Changes() []version.Change {
	return version.Delta{Before: e.history.Original(), After: e.history.Current()}.Changes()
}

// AddError records a validation message against field.
func (e *Entity) AddError(message string, field catalog.FieldID) {
	e.ledger.AddError(message, field)
	e.observer.ErrorAdded(e.Type(), field)
	e.adjustState()
}

// ClearErrors empties the validation ledger.
func (e *Entity) ClearErrors() {
	e.ledger.Clear()
	e.adjustState()
}

// CheckLengths records a validation message for every field whose value is
// longer than its declared max length. Returns the number recorded.
func (e *Entity) CheckLengths() int {
	n := 0
	for d := range e.catalog.Fields() {
		limit, ok := d.MaxLength()
		if !ok {
			continue
		}
		if d.ExceedsLength(d.Read(e)) {
			e.ledger.AddError(fmt.Sprintf("%s exceeds max length %d", d.ID(), limit), d.ID())
			e.observer.ErrorAdded(e.Type(), d.ID())
			n++
		}
	}
	e.adjustState()
	return n
}

func (e *Entity) adjustState() {
	prev := e.dataState
	e.dataState = DeriveDataState(e.history.Original(), e.history.Current())
	e.editState = DeriveEditState(e.ledger.HasErrors(), e.history.Current())
	if prev != e.dataState {
		e.observer.StateChanged(e.Type(), prev, e.dataState)
	}
}

func (e *Entity) attrs() []any {
	return []any{
		"entity_id", e.id,
		"type", e.Type(),
		"version", e.history.Current().Version(),
		"depth", e.history.Depth(),
	}
}
