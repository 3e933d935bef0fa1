package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingReader(t *testing.T) {
	var r CountingReader
	a := make([]byte, 4)
	b := make([]byte, 4)

	_, err := r.Read(a)
	require.NoError(t, err)
	_, err = r.Read(b)
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 1, 1, 1}, a)
	assert.Equal(t, []byte{2, 2, 2, 2}, b)

	var fresh CountingReader
	c := make([]byte, 4)
	_, _ = fresh.Read(c)
	assert.Equal(t, a, c, "fresh readers repeat the sequence")
}

func TestNewBank(t *testing.T) {
	b := NewBank()

	assert.True(t, b.Account.Locked())
	assert.True(t, b.Deposit.Locked())
	assert.Equal(t, 8, b.Deposit.Len())
	assert.Equal(t, 7, b.Deposit.VersionedCount())
	assert.True(t, b.Deposit.Contains(b.Name), "inherited fields resolve through the chain")
	assert.False(t, b.Account.Contains(b.Rate))
	assert.True(t, b.Pin.IsSecured())

	other := NewBank()
	assert.NotSame(t, b.Name, other.Name)
}
