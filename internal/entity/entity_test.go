package entity

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
	"github.com/roach88/fieldset/internal/version"
)

type accountFields struct {
	cat     *catalog.Catalog
	name    *catalog.Descriptor
	balance *catalog.Descriptor
	notes   *catalog.Descriptor
	cached  *catalog.Descriptor
	total   *catalog.Descriptor
}

func newAccountFields(t *testing.T) accountFields {
	t.Helper()
	c := catalog.New("Account")
	f := accountFields{cat: c}
	f.name = c.MustDeclare("Name", catalog.TypeString, catalog.WithLength(8))
	f.balance = c.MustDeclare("Balance", catalog.TypeMoney)
	f.notes = c.MustDeclare("Notes", catalog.TypeString, catalog.WithLength(100), catalog.NotEquality())
	f.cached = c.MustDeclare("Cached", catalog.TypeString, catalog.WithLength(4), catalog.Storage(catalog.Local))
	f.total = c.MustDeclare("Total", catalog.TypeMoney, catalog.Storage(catalog.Calculated),
		catalog.WithAccessor(func(src catalog.Source) value.Value {
			return f.balance.Read(src)
		}))
	return f
}

type recordingObserver struct {
	pushed    int
	popped    int
	condensed int
	errors    int
	states    [][2]DataState
}

func (o *recordingObserver) HistoryPushed(catalog.TypeID, int)        { o.pushed++ }
func (o *recordingObserver) HistoryPopped(catalog.TypeID, int)        { o.popped++ }
func (o *recordingObserver) HistoryCondensed(_ catalog.TypeID, n int) { o.condensed += n }
func (o *recordingObserver) ErrorAdded(catalog.TypeID, catalog.FieldID) {
	o.errors++
}
func (o *recordingObserver) StateChanged(_ catalog.TypeID, from, to DataState) {
	o.states = append(o.states, [2]DataState{from, to})
}

func TestFreshEntityIsClean(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)

	assert.Equal(t, StateClean, e.DataState())
	assert.Equal(t, EditClean, e.EditState())
	assert.False(t, e.HasHistory())
	assert.Equal(t, catalog.TypeID("Account"), e.Type())
}

func TestEditThenReset(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)

	require.NoError(t, e.Set(f.name, value.String("Savings")))
	require.NoError(t, e.Push(1))
	assert.Equal(t, StateChanged, e.DataState())
	assert.Equal(t, EditDirty, e.EditState())

	e.ResetHistory()
	assert.Equal(t, StateClean, e.DataState())
	assert.Equal(t, EditClean, e.EditState())
}

func TestDataStateTable(t *testing.T) {
	f := newAccountFields(t)

	tests := []struct {
		name string
		run  func(t *testing.T) *Entity
		want DataState
	}{
		{"fresh", func(t *testing.T) *Entity {
			return New(f.cat, 1)
		}, StateClean},
		{"edited", func(t *testing.T) *Entity {
			e := New(f.cat, 1)
			require.NoError(t, e.Push(1))
			return e
		}, StateChanged},
		{"deleted", func(t *testing.T) *Entity {
			e := New(f.cat, 1)
			require.NoError(t, e.Push(1))
			e.SetDeleted(true)
			return e
		}, StateDeleted},
		{"recovered", func(t *testing.T) *Entity {
			e := New(f.cat, 1)
			e.SetDeleted(true)
			require.NoError(t, e.Push(1))
			e.SetDeleted(false)
			return e
		}, StateRecovered},
		{"seeded", func(t *testing.T) *Entity {
			return New(f.cat, 1, WithBaseVersion(1))
		}, StateNew},
		{"seeded and edited", func(t *testing.T) *Entity {
			e := New(f.cat, 1, WithBaseVersion(1))
			require.NoError(t, e.Push(2))
			return e
		}, StateNew},
		{"seeded then deleted", func(t *testing.T) *Entity {
			e := New(f.cat, 1, WithBaseVersion(1))
			e.SetDeleted(true)
			return e
		}, StateDelNew},
		{"seeded then accepted", func(t *testing.T) *Entity {
			e := New(f.cat, 1, WithBaseVersion(3))
			e.ClearHistory()
			return e
		}, StateClean},
		{"deleted at version zero", func(t *testing.T) *Entity {
			e := New(f.cat, 1)
			e.SetDeleted(true)
			return e
		}, StateClean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.run(t)
			assert.Equal(t, tt.want, e.DataState(), "got %s", e.DataState())
		})
	}
}

func TestEditStateError(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)

	e.AddError("name is required", "Name")
	assert.Equal(t, EditError, e.EditState())
	assert.Equal(t, StateClean, e.DataState(), "errors do not affect data state")

	e.ClearErrors()
	assert.Equal(t, EditClean, e.EditState())
}

func TestSetPublishesUpdates(t *testing.T) {
	f := newAccountFields(t)
	ch := NewChannel()
	var got []Update
	unsubscribe := ch.Subscribe(func(u Update) { got = append(got, u) })

	e := New(f.cat, 7, WithChannel(ch))
	require.NoError(t, e.Set(f.name, value.String("Cheque")))
	require.NoError(t, e.Set(f.cached, nil))

	require.Len(t, got, 2)
	assert.Equal(t, int64(7), got[0].EntityID)
	assert.Equal(t, f.name, got[0].Field)
	assert.Equal(t, value.String("Cheque"), got[0].Value)
	assert.Equal(t, value.Null{}, got[1].Value)

	err := e.Set(f.balance, value.Bool(true))
	assert.True(t, catalog.IsTypeMismatch(err))
	assert.Len(t, got, 2, "failed sets do not publish")

	unsubscribe()
	require.NoError(t, e.Set(f.name, value.String("Other")))
	assert.Len(t, got, 2)
	assert.Equal(t, 0, ch.Subscribers())
}

func TestLoadSuppressesUpdates(t *testing.T) {
	f := newAccountFields(t)
	ch := NewChannel()
	published := 0
	ch.Subscribe(func(Update) { published++ })

	e := New(f.cat, 1, WithChannel(ch))
	err := e.Load(func(l *Loader) error {
		require.NoError(t, l.Set(f.name, value.String("Loaded")))
		require.NoError(t, l.SetUnchecked(f.balance, value.Int(5)))
		require.NoError(t, l.SetField("Cached", value.String("abcd")))
		require.NoError(t, e.Set(f.notes, value.String("inside load")))
		assert.Same(t, e, l.Entity())
		return l.SetField("Missing", value.Null{})
	})
	assert.True(t, catalog.IsUnknownField(err))
	assert.Equal(t, 0, published)

	v, err := e.Field("Balance")
	require.NoError(t, err)
	assert.Equal(t, value.Int(5), v, "unchecked load bypasses type rules")

	require.NoError(t, e.Set(f.name, value.String("After")))
	assert.Equal(t, 1, published, "suppression ends with the load")
}

func TestFieldStorageKinds(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)

	require.NoError(t, e.Set(f.balance, value.MustDecimal("12.50")))
	require.NoError(t, e.Set(f.cached, value.String("hot")))

	total, err := e.Get(f.total)
	require.NoError(t, err)
	assert.Equal(t, "12.50", value.Format(total))

	cached, err := e.Get(f.cached)
	require.NoError(t, err)
	assert.Equal(t, value.String("hot"), cached)

	err = e.Set(f.total, value.MustDecimal("1"))
	assert.True(t, catalog.IsNotVersioned(err), "calculated fields are read-only")

	foreign := catalog.New("Other").MustDeclare("Name", catalog.TypeString, catalog.WithLength(1))
	_, err = e.Get(foreign)
	assert.True(t, catalog.IsUnknownField(err))
	assert.True(t, catalog.IsUnknownField(e.Set(foreign, nil)))
}

func TestFieldChanged(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)
	require.NoError(t, e.Push(1))
	require.NoError(t, e.Set(f.name, value.String("x")))
	require.NoError(t, e.Set(f.notes, value.String("y")))
	require.NoError(t, e.Set(f.cached, value.String("z")))

	assert.Equal(t, value.Different, e.FieldChanged(f.name))
	assert.Equal(t, value.Identical, e.FieldChanged(f.notes))
	assert.Equal(t, value.Identical, e.FieldChanged(f.cached))
	assert.Equal(t, value.Identical, e.FieldChanged(f.total))

	changes := e.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, f.name, changes[0].Field)
}

func TestMaybePopDiscardsNoOp(t *testing.T) {
	f := newAccountFields(t)
	obs := &recordingObserver{}
	e := New(f.cat, 1, WithObserver(obs))

	require.NoError(t, e.Push(1))
	assert.False(t, e.MaybePop())
	assert.False(t, e.HasHistory())
	assert.Equal(t, StateClean, e.DataState())
	assert.Equal(t, 1, obs.pushed)
	assert.Equal(t, 1, obs.popped)
	assert.Equal(t, [][2]DataState{
		{StateClean, StateChanged},
		{StateChanged, StateClean},
	}, obs.states)
}

func TestSetHistoryAndCondense(t *testing.T) {
	f := newAccountFields(t)
	obs := &recordingObserver{}
	e := New(f.cat, 1, WithObserver(obs))
	require.NoError(t, e.Set(f.name, value.String("live")))

	base := version.NewValueSet(f.cat)
	require.NoError(t, base.Set(f.name, value.String("stored")))
	require.NoError(t, e.SetHistory(base))
	assert.Equal(t, StateChanged, e.DataState())
	assert.Equal(t, value.Different, e.FieldChanged(f.name))

	for v := 2; v <= 4; v++ {
		require.NoError(t, e.Push(v))
	}
	assert.Equal(t, 3, e.TrimHistory(1))
	assert.Equal(t, 1, e.History().Depth())
	assert.Equal(t, 3, obs.condensed)

	assert.Equal(t, 1, e.Condense(0))
	assert.Equal(t, StateClean, e.DataState())

	err := e.SetHistory(version.NewValueSet(catalog.New("Small")))
	assert.True(t, catalog.IsCode(err, catalog.ErrCodeCatalogMismatch))
}

func TestPushNonMonotonic(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1, WithBaseVersion(5))

	err := e.Push(5)
	assert.True(t, catalog.IsCode(err, catalog.ErrCodeNonMonotonicVersion))
	assert.Equal(t, StateNew, e.DataState())
}

func TestCheckLengths(t *testing.T) {
	f := newAccountFields(t)
	obs := &recordingObserver{}
	e := New(f.cat, 1, WithObserver(obs))
	require.NoError(t, e.Set(f.name, value.String("far too long")))
	require.NoError(t, e.Set(f.cached, value.String("ok")))

	assert.Equal(t, 1, e.CheckLengths())
	assert.Equal(t, EditError, e.EditState())
	msg, ok := e.Ledger().ErrorsFor("Name")
	require.True(t, ok)
	assert.Equal(t, "Name exceeds max length 8", msg)
	assert.Equal(t, 1, obs.errors)
}

func TestEntityLogsHistoryMutations(t *testing.T) {
	f := newAccountFields(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := New(f.cat, 42, WithLogger(logger))
	require.NoError(t, e.Push(1))

	out := buf.String()
	assert.Contains(t, out, "history pushed")
	assert.Contains(t, out, "entity_id=42")
	assert.Contains(t, out, "depth=1")
}

func TestStateNames(t *testing.T) {
	for s := StateClean; s <= StateRecovered; s++ {
		parsed, ok := ParseDataState(s.String())
		require.True(t, ok)
		assert.Equal(t, s, parsed)
	}
	for s := EditClean; s <= EditError; s++ {
		parsed, ok := ParseEditState(s.String())
		require.True(t, ok)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "DELNEW", StateDelNew.String())
}
