package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeCommand_JSON(t *testing.T) {
	out, err := execute(t, "describe", bankSchema, "Deposit", "--format", "json")
	require.NoError(t, err)

	var types []TypeDescription
	decodeData(t, out, &types)
	require.Len(t, types, 1)

	dep := types[0]
	assert.Equal(t, "Deposit", dep.Type)
	assert.Equal(t, "Account", dep.Extends)
	assert.Equal(t, 7, dep.Slots)
	require.Len(t, dep.Fields, 8)

	assert.Equal(t, "Name", dep.Fields[0].Name, "inherited fields come first")
	assert.Equal(t, "Account", dep.Fields[0].Owner)

	byName := make(map[string]FieldDescription, len(dep.Fields))
	for _, fd := range dep.Fields {
		byName[fd.Name] = fd
	}

	display := byName["Display"]
	assert.Equal(t, "local", display.Storage)
	assert.Nil(t, display.Slot, "local fields own no slot")

	notes := byName["Notes"]
	assert.False(t, notes.Equality)
	require.NotNil(t, notes.Length)
	assert.Equal(t, 200, *notes.Length)

	pin := byName["Pin"]
	assert.True(t, pin.Secured)
	assert.Equal(t, "chars", pin.Type)
	require.NotNil(t, pin.Slot)
	assert.Equal(t, "Deposit", pin.Owner)
}

func TestDescribeCommand_AllTypesText(t *testing.T) {
	out, err := execute(t, "describe", bankSchema)
	require.NoError(t, err)

	assert.Contains(t, out, "Account (4 slots)")
	assert.Contains(t, out, "Deposit extends Account (7 slots)")
	assert.Contains(t, out, "Name (Account)", "inherited fields are marked with their owner")
	assert.Contains(t, out, "no-equality")
	assert.Contains(t, out, "secured")
}

func TestDescribeCommand_UnknownType(t *testing.T) {
	out, err := execute(t, "describe", bankSchema, "Loan", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnknownType, resp.Error.Code)
}

func TestDescribeCommand_RequiresDir(t *testing.T) {
	_, err := execute(t, "describe")
	assert.Error(t, err)
}
