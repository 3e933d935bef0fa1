package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldset/internal/value"
)

func TestSessionCommitReturnsEditedEntities(t *testing.T) {
	f := newAccountFields(t)
	a := New(f.cat, 1)
	b := New(f.cat, 2)

	s := NewSession(WithTokens(NewFixedGenerator("session-1")), WithVersionSource(NewClock()))
	assert.Equal(t, "session-1", s.ID())

	require.NoError(t, s.Begin(a, b))
	assert.True(t, s.Open())
	assert.Len(t, s.Enlisted(), 2)
	assert.Equal(t, 1, a.Version())

	require.NoError(t, a.Set(f.name, value.String("edited")))

	edited, err := s.Commit()
	require.NoError(t, err)
	require.Len(t, edited, 1)
	assert.Same(t, a, edited[0])

	assert.Equal(t, StateChanged, a.DataState())
	assert.Equal(t, StateClean, b.DataState(), "untouched entity drops its step")
	assert.False(t, b.HasHistory())
	assert.False(t, s.Open())
}

func TestSessionCancelUndoes(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)
	s := NewSession()

	require.NoError(t, s.Begin(e))
	require.NoError(t, e.Set(f.name, value.String("temp")))
	require.NoError(t, s.Cancel())

	v, err := e.Get(f.name)
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, v)
	assert.Equal(t, StateClean, e.DataState())
	assert.NotEmpty(t, s.ID(), "default token is generated")
}

func TestSessionStateErrors(t *testing.T) {
	f := newAccountFields(t)
	s := NewSession()

	_, err := s.Commit()
	assert.ErrorIs(t, err, ErrNoOpenEdit)
	assert.ErrorIs(t, s.Cancel(), ErrNoOpenEdit)

	require.NoError(t, s.Begin(New(f.cat, 1)))
	assert.ErrorIs(t, s.Begin(New(f.cat, 2)), ErrSessionOpen)
}

func TestSessionVersionsFollowClock(t *testing.T) {
	f := newAccountFields(t)
	clock := NewClockAt(10)
	e := New(f.cat, 1)
	seeded := New(f.cat, 2, WithBaseVersion(50))

	s := NewSession(WithVersionSource(clock))
	require.NoError(t, s.Begin(e, seeded))

	assert.Equal(t, 11, e.Version())
	assert.Equal(t, 51, seeded.Version(), "seeded entities stay ahead of the clock")
	assert.Equal(t, int64(11), clock.Current())
}

func TestSessionHistoryLimit(t *testing.T) {
	f := newAccountFields(t)
	e := New(f.cat, 1)
	s := NewSession(WithHistoryLimit(2))

	for i, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Begin(e), "edit %d", i)
		require.NoError(t, e.Set(f.name, value.String(name)))
		_, err := s.Commit()
		require.NoError(t, err)
		assert.LessOrEqual(t, e.History().Depth(), 2)
	}

	v, err := e.Get(f.name)
	require.NoError(t, err)
	assert.Equal(t, value.String("d"), v)
}
