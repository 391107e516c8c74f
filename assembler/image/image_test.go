package image

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveAndPatch(t *testing.T) {
	b := NewBuffer()

	require.NoError(t, b.Push(16))

	pos, err := b.Reserve(2)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, []byte{16, 0xff, 0xff}, b.Bytes())
	assert.Equal(t, 2, b.Pending().Size())

	assert.ErrorIs(t, b.Check(), ErrPending)

	var pe *PatchError
	require.ErrorAs(t, b.Patch(0, 1), &pe)
	assert.Equal(t, 0, pe.Pos)

	require.NoError(t, b.Patch(pos, 0x12, 0x34))
	assert.Equal(t, []byte{16, 0x12, 0x34}, b.Bytes())
	assert.NoError(t, b.Check())

	// a patched byte can't be patched twice
	assert.Error(t, b.Patch(pos, 0))
}

func TestPush16(t *testing.T) {
	b := NewBuffer()

	require.NoError(t, b.Push16(0x0100))
	require.NoError(t, b.Push16(0xabcd))

	assert.Equal(t, []byte{0x01, 0x00, 0xab, 0xcd}, b.Bytes())
}

func TestTooLarge(t *testing.T) {
	b := NewBufferMax(4)

	require.NoError(t, b.Push(1, 2, 3))

	err := b.Push(4, 5)

	var te *TooLargeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 5, te.Size)
	assert.Equal(t, 4, te.Max)
	assert.EqualError(t, err, "image size 0x5 (5) exceeds 0x4 by 1 bytes")

	assert.Equal(t, 3, b.Len(), "failed push leaves the buffer as is")

	_, err = b.Reserve(2)
	assert.ErrorAs(t, err, &te)
}

func TestDefaultCeiling(t *testing.T) {
	b := NewBuffer()

	assert.Equal(t, 0xff00, b.Max())

	require.NoError(t, b.Push(make([]byte, 0xff00)...))
	assert.Error(t, b.Push(0))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "prog.gxa", OutputName("prog.gxs"))
	assert.Equal(t, "dir/prog.gxa", OutputName("dir/prog.gxs"))
	assert.Equal(t, "prog.gxa", OutputName("prog"))
	assert.Equal(t, "a.b/prog.gxa", OutputName("a.b/prog"))

	assert.Equal(t, "prog.gxa.gxa", OutputName("prog.gxa"))
	assert.Equal(t, "prog.GXA.gxa", OutputName("prog.GXA"))
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	name := filepath.Join(t.TempDir(), "out.gxa")

	b := NewBuffer()
	require.NoError(t, b.Push(0, 16, 0, 0))

	require.NoError(t, b.WriteFile(ctx, name))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 16, 0, 0}, data)

	_, err = b.Reserve(1)
	require.NoError(t, err)

	other := filepath.Join(t.TempDir(), "pending.gxa")

	assert.ErrorIs(t, b.WriteFile(ctx, other), ErrPending)
	assert.NoFileExists(t, other)
}

func TestPending(t *testing.T) {
	var p Pending

	assert.Equal(t, -1, p.First())

	p.Set(3)
	p.Set(70)
	p.Set(64)

	assert.True(t, p.IsSet(70))
	assert.False(t, p.IsSet(71))
	assert.False(t, p.IsSet(1000))
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 3, p.First())

	var got []int

	p.Range(func(i int) bool {
		got = append(got, i)
		return true
	})

	assert.Equal(t, []int{3, 64, 70}, got)

	p.Clear(3)
	p.Clear(500)

	assert.Equal(t, 64, p.First())
}
