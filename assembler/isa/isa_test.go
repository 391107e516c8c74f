package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOrder(t *testing.T) {
	require.Len(t, Table, int(END))

	prev := -1

	for _, d := range Table {
		assert.Greater(t, int(d.Op), prev, d.Name)
		assert.NotEqual(t, SND, d.Op)

		prev = int(d.Op)
	}

	assert.Equal(t, Opcode(16), JMP)
	assert.Equal(t, Opcode(25), END)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("JMP")
	require.True(t, ok)
	assert.Equal(t, JMP, d.Op)
	assert.Equal(t, 3, d.Size())

	d, ok = Lookup("dw")
	require.True(t, ok)
	assert.Equal(t, 5, d.Size())

	d, ok = Lookup("set")
	require.True(t, ok)
	assert.Equal(t, []Kind{Register, Value}, d.Args)

	_, ok = Lookup("snd")
	assert.False(t, ok)

	_, ok = Lookup("mov")
	assert.False(t, ok)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "cjs", CJS.String())
	assert.Equal(t, "snd", SND.String())
	assert.Equal(t, "address", Address.String())
	assert.Equal(t, 2, Address.Width())
	assert.Equal(t, 1, Register.Width())
}
