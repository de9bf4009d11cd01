package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	assert.Equal(t, "/agenda", NewCommand(CmdAgenda).String())
	assert.Equal(t, "/registrar 2025-09-13 15:00 reunión con Ana",
		NewCommand(CmdRegistrar, "2025-09-13", "15:00", "reunión con Ana").String())
}

func TestParseCommand(t *testing.T) {
	cmd, ok := ParseCommand("/borrar 2025-09-10 10:00")
	require.True(t, ok)
	assert.Equal(t, CmdBorrar, cmd.Name)
	assert.Equal(t, []string{"2025-09-10", "10:00"}, cmd.Args)

	_, ok = ParseCommand("hola")
	assert.False(t, ok)

	_, ok = ParseCommand("/")
	assert.False(t, ok)
}
