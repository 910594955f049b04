package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestVarIntRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var v = rapid.Uint32Range(0, MaxVarInt).Draw(t, "v")

		var w = NewByteWriter()
		WriteVarInt(w, v)

		var r = NewByteReader(w.Bytes())
		var got, err = ReadVarInt(r)

		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 0, r.Len())
	})
}

func TestVarIntEncodesAtMostThreeBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var v = rapid.Uint32Range(0, MaxVarInt).Draw(t, "v")

		var w = NewByteWriter()
		WriteVarInt(w, v)

		assert.LessOrEqual(t, w.Len(), 3)
	})
}

func TestVarIntFourthLimbIsCorrupt(t *testing.T) {
	var r = NewByteReader([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	var _, err = ReadVarInt(r)

	require.ErrorIs(t, err, ErrCorruptVarInt)
}

func TestVarIntTruncatedStreamFails(t *testing.T) {
	var r = NewByteReader([]byte{0xFF})

	var _, err = ReadVarInt(r)

	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestExtendedVarIntRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var v = rapid.Uint32Range(0, 16*uint32(MaxVarInt)).Draw(t, "v")

		var w = NewByteWriter()
		WriteExtendedVarInt(w, v)
		// The extended form only terminates on a following status byte or
		// end-of-stream; append a synthetic status byte so the reader has
		// something to stop on without consuming it.
		w.WriteByte(0x80)

		var r = NewByteReader(w.Bytes())
		var got, err = ReadExtendedVarInt(r)

		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 1, r.Len(), "status byte must not be consumed")
	})
}

func TestExtendedVarIntStopsAtEndOfStream(t *testing.T) {
	var w = NewByteWriter()
	WriteExtendedVarInt(w, 5)

	var r = NewByteReader(w.Bytes())
	var got, err = ReadExtendedVarInt(r)

	require.NoError(t, err)
	assert.Equal(t, uint32(5), got)
	assert.Equal(t, 0, r.Len())
}

func TestExtendedVarIntZeroEmitsOneLimb(t *testing.T) {
	var w = NewByteWriter()
	WriteExtendedVarInt(w, 0)

	assert.Equal(t, 1, w.Len())
}
