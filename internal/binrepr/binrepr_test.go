package binrepr

import (
	"testing"

	"cellforge/internal/cellerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialWritesPackCleanly(t *testing.T) {
	b := New()
	b.Write(0, []byte("hello"))
	b.Write(5, []byte("world"))

	got, err := b.Pack(0, false, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("helloworld"), got)
}

func TestGapRequiresPadding(t *testing.T) {
	b := New()
	b.Write(0, []byte("AA"))
	b.Write(10, []byte("BB"))

	_, err := b.Pack(0, false, false)
	assert.ErrorIs(t, err, cellerr.ErrPaddingNeeded)

	got, err := b.Pack('.', true, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("AA........BB"), got)
}

func TestOverwriteWithNewerWriteWins(t *testing.T) {
	b := New()
	b.Write(0, []byte("aaaaaaaaaa"))
	// WriteRange fully replaces the underlying range, so no overlap remains.
	b.WriteRange(2, 6, []byte("XXXX"))

	got, err := b.Pack(0, false, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaXXXXaaaa"), got)
}

func TestOverlappingChunkRejectedWithoutOverwrite(t *testing.T) {
	b := New()
	b.Write(0, []byte("aaaa"))
	b.Write(0, []byte("bbbb")) // second, distinct write at same position: overlap

	_, err := b.Pack(0, false, false)
	assert.ErrorIs(t, err, cellerr.ErrOverlap)

	got, err := b.Pack(0, false, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("bbbb"), got) // overwrite takes the most recent layer
}

func TestPartialOverlapSplitsChunks(t *testing.T) {
	b := New()
	b.Write(0, []byte("aaaaaaaa"))
	b.Write(4, []byte("bbbb")) // overlaps the tail half only

	got, err := b.Pack(0, false, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaabbbb"), got)
}

func TestReadSingleByte(t *testing.T) {
	b := New()
	b.Write(0, []byte("hello"))
	layers := b.Read(1)
	require.Len(t, layers, 1)
	assert.Equal(t, byte('e'), layers[0][0])

	assert.Nil(t, b.Read(100))
}

func TestReadRangeOverlap(t *testing.T) {
	b := New()
	b.Write(0, []byte("aaaa"))
	b.Write(0, []byte("bbbb"))

	_, err := b.ReadRange(0, 4, 0, false, false)
	assert.ErrorIs(t, err, cellerr.ErrOverlap)

	got, err := b.ReadRange(0, 4, 0, false, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("bbbb"), got)
}

func TestByteLenTracksLastWrite(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.ByteLen())
	b.Write(0, []byte("ab"))
	assert.Equal(t, 2, b.ByteLen())
	b.Write(10, []byte("cd"))
	assert.Equal(t, 12, b.ByteLen())
}

func TestAppendExtendsFromEnd(t *testing.T) {
	b := New()
	b.Append([]byte("foo"))
	b.Append([]byte("bar"))
	got, err := b.Pack(0, false, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("foobar"), got)
}

func TestXorAgainstGapTreatsItAsZero(t *testing.T) {
	b := New()
	require.NoError(t, b.Xor([]byte{0xFF, 0x0F}, 0))

	got, err := b.Pack(0, false, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x0F}, got)
}

func TestNewWithInitialPayload(t *testing.T) {
	b := New([]byte("seed"))
	got, err := b.Pack(0, false, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("seed"), got)
}
