package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

func TestPushClonesCurrent(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Current().Set(f.name, value.String("A")))
	before := h.Current()

	require.NoError(t, h.Push(1))

	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, 1, h.Current().Version())
	assert.NotSame(t, before, h.Current())

	top, ok := h.Peek()
	require.True(t, ok)
	assert.Same(t, before, top, "old current is pushed")
	assert.Equal(t, 0, top.Version())

	deltas := h.Deltas()
	require.Len(t, deltas, 1)
	assert.Same(t, before, deltas[0].Before)
	assert.Same(t, h.Current(), deltas[0].After)
}

func TestPushRejectsNonMonotonicVersion(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(2))

	for _, v := range []int{2, 1, 0} {
		err := h.Push(v)
		assert.True(t, catalog.IsCode(err, catalog.ErrCodeNonMonotonicVersion), "version %d", v)
	}
	assert.Equal(t, 1, h.Depth(), "rejected pushes leave history alone")
}

func TestVersionMonotonicity(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)

	last := h.Current().Version()
	for v := 1; v <= 5; v++ {
		require.NoError(t, h.Push(v))
		assert.Greater(t, h.Current().Version(), last)
		assert.Equal(t, h.Depth(), h.Current().Version())
		last = h.Current().Version()
	}
	assert.Len(t, h.Deltas(), h.Depth())
}

func TestPopRestoresSnapshot(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.name, value.String("edited")))

	assert.True(t, h.Pop())
	assert.Equal(t, 0, h.Current().Version())
	assert.Equal(t, value.Null{}, h.Current().MustGet(f.name))
	assert.False(t, h.HasHistory())
	assert.Empty(t, h.Deltas())

	assert.False(t, h.Pop(), "pop on empty history is a no-op")
}

func TestMaybePopDiscardsNoOpEdit(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))

	assert.False(t, h.MaybePop())
	assert.False(t, h.HasHistory())
	assert.Equal(t, 0, h.Current().Version())
}

func TestMaybePopDiscardsRevertedEdit(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Current().Set(f.name, value.String("A")))
	require.NoError(t, h.Push(1))

	require.NoError(t, h.Current().Set(f.name, value.String("B")))
	require.NoError(t, h.Current().Set(f.name, value.String("A")))
	require.NoError(t, h.Current().Set(f.notes, value.String("untracked")))

	assert.False(t, h.MaybePop(), "reverted and untracked edits are no-ops")
	assert.False(t, h.HasHistory())
}

func TestMaybePopKeepsRealEdit(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.amount, value.MustDecimal("3.50")))

	assert.True(t, h.MaybePop())
	assert.Equal(t, 1, h.Depth())
}

func TestMaybePopKeepsCodePointEdit(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Current().Set(f.name, value.String("caf\u00e9")))
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.name, value.String("cafe\u0301")))

	assert.True(t, h.MaybePop(), "a decomposed spelling is a real edit")
	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, value.String("cafe\u0301"), h.Current().MustGet(f.name))
	assert.Equal(t, value.Different, h.FieldChanged(f.name))
}

func TestMaybePopKeepsSecurityOnlyEdit(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Current().Set(f.secret, value.NewEncrypted(value.String("pin"), []byte{1})))
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.secret, value.NewEncrypted(value.String("pin"), []byte{2})))

	assert.True(t, h.MaybePop(), "re-encryption is a real edit")
}

func TestMaybePopEmpty(t *testing.T) {
	f := newFields(t)
	assert.False(t, NewHistory(f.cat).MaybePop())
}

func TestClearAcceptsBaseline(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.name, value.String("saved")))

	h.Clear()

	assert.False(t, h.HasHistory())
	assert.Empty(t, h.Deltas())
	assert.Equal(t, 0, h.Current().Version())
	assert.Same(t, h.Current(), h.Original())
	assert.Equal(t, 0, h.Original().Version())
	assert.Equal(t, value.Identical, h.FieldChanged(f.name))
}

func TestResetRestoresBaseline(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Current().Set(f.name, value.String("base")))
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.name, value.String("one")))
	require.NoError(t, h.Push(2))
	require.NoError(t, h.Current().Set(f.name, value.String("two")))

	assert.Equal(t, value.Different, h.FieldChanged(f.name))

	h.Reset()

	assert.False(t, h.HasHistory())
	assert.Same(t, h.Original(), h.Current())
	assert.Equal(t, 0, h.Current().Version())
	assert.Equal(t, value.String("base"), h.Current().MustGet(f.name))
}

func TestSetHistorySeedsBaseline(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Current().Set(f.name, value.String("live")))

	base := NewValueSet(f.cat)
	require.NoError(t, base.Set(f.name, value.String("stored")))
	base.SetVersion(9)

	require.NoError(t, h.SetHistory(base))

	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, 1, h.Current().Version())
	assert.Equal(t, 0, h.Original().Version())
	assert.Equal(t, value.String("stored"), h.Original().MustGet(f.name))
	assert.Equal(t, value.String("live"), h.Current().MustGet(f.name))

	top, _ := h.Peek()
	assert.Same(t, h.Original(), top)

	deltas := h.Deltas()
	require.Len(t, deltas, 1)
	assert.Same(t, h.Original(), deltas[0].Before)
	assert.Same(t, h.Current(), deltas[0].After)
	assert.Equal(t, value.Different, h.FieldChanged(f.name))
}

func TestSetHistoryCatalogMismatch(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))

	err := h.SetHistory(NewValueSet(catalog.New("Small")))
	assert.True(t, catalog.IsCode(err, catalog.ErrCodeCatalogMismatch))
	assert.Equal(t, 1, h.Depth(), "failed seed leaves history alone")
}

func TestCondensePreservesFinalValue(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)

	for i, v := range []string{"A", "B", "C"} {
		require.NoError(t, h.Push(i+1))
		require.NoError(t, h.Current().Set(f.name, value.String(v)))
	}
	require.Equal(t, 3, h.Depth())

	removed := h.Condense(2)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, h.Current().Version())
	assert.Equal(t, value.String("C"), h.Current().MustGet(f.name))

	// One retained edit step above the version-0 baseline.
	past := h.Past()
	require.Len(t, past, 2)
	assert.Equal(t, 0, past[0].Version())
	assert.Equal(t, 1, past[1].Version())
	for _, s := range past {
		assert.Less(t, s.Version(), 2)
	}

	deltas := h.Deltas()
	require.Len(t, deltas, 2)
	assert.Same(t, past[1], deltas[1].Before)
	assert.Same(t, h.Current(), deltas[1].After)

	changes := deltas[1].Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, value.String("A"), changes[0].Before)
	assert.Equal(t, value.String("C"), changes[0].After)
}

func TestCondenseToBaseline(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Push(2))

	assert.Equal(t, 2, h.Condense(0))
	assert.False(t, h.HasHistory())
	assert.Equal(t, 0, h.Current().Version())
}

func TestCondenseNothingToRemove(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))
	before := h.Deltas()

	assert.Equal(t, 0, h.Condense(5))
	assert.Equal(t, 5, h.Current().Version())
	assert.Equal(t, before, h.Deltas())
}

func TestTrim(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	for v := 1; v <= 6; v++ {
		require.NoError(t, h.Push(v))
	}

	assert.Equal(t, 0, h.Trim(0), "zero is unbounded")
	assert.Equal(t, 0, h.Trim(10))

	assert.Equal(t, 3, h.Trim(3))
	assert.Equal(t, 3, h.Depth())
	assert.Equal(t, 3, h.Current().Version())
	top, _ := h.Peek()
	assert.Less(t, top.Version(), h.Current().Version())

	require.NoError(t, h.Push(4), "pushing continues after a trim")
}

func TestFieldChangedUntracked(t *testing.T) {
	f := newFields(t)
	h := NewHistory(f.cat)
	require.NoError(t, h.Push(1))
	require.NoError(t, h.Current().Set(f.notes, value.String("x")))

	assert.Equal(t, value.Identical, h.FieldChanged(f.notes))
	assert.Equal(t, value.Identical, h.FieldChanged(f.cached))
}
