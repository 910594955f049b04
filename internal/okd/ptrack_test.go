package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPTrackRoundTripNoteWithDuration(t *testing.T) {
	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackNote, Status: 0x90, Channel: 0, Data: []byte{60, 100}, Duration: 240},
		// Composite 8n note: note, note-on velocity, note-off velocity.
		{Delta: 0, Kind: PTrackNote, Status: 0x81, Channel: 1, Data: []byte{62, 100, 40}, Duration: 120},
		{Delta: 240, Kind: PTrackControlChange, Status: 0xB0, Channel: 0, Data: []byte{7, 127}},
		{Delta: 0, Kind: PTrackGroupingArm, Status: 0xFD},
		{Delta: 0, Kind: PTrackAlternateCCAx, Status: 0xA3, Channel: 3, Data: []byte{42}},
	}

	var w = NewByteWriter()
	EncodePTrack(w, events)

	var got, err = DecodePTrack(w.Bytes(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Len(t, got, len(events))
	for i, e := range events {
		assert.Equal(t, e.Kind, got[i].Kind)
		assert.Equal(t, e.Status, got[i].Status)
		assert.Equal(t, e.Data, got[i].Data)
		assert.Equal(t, e.Duration, got[i].Duration)
	}
}

func TestPTrackRawEscapeBypassesRemapping(t *testing.T) {
	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackRawEscape, Status: 0xFE, Data: []byte{0xB1, 10, 64}},
		// Escaped polyphonic key pressure carries two data bytes; the
		// An nibble only means alternate-CC outside an escape.
		{Delta: 10, Kind: PTrackRawEscape, Status: 0xFE, Data: []byte{0xA2, 60, 99}},
		{Delta: 0, Kind: PTrackControlChange, Status: 0xB0, Channel: 0, Data: []byte{7, 100}},
	}

	var w = NewByteWriter()
	EncodePTrack(w, events)

	var got, err = DecodePTrack(w.Bytes(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, PTrackRawEscape, got[0].Kind)
	assert.Equal(t, []byte{0xB1, 10, 64}, got[0].Data)
	assert.Equal(t, PTrackRawEscape, got[1].Kind)
	assert.Equal(t, []byte{0xA2, 60, 99}, got[1].Data)
	assert.Equal(t, PTrackControlChange, got[2].Kind)
}

func TestPTrackSysExConsumesTerminator(t *testing.T) {
	var w = NewByteWriter()
	WriteExtendedVarInt(w, 0)
	w.WriteByte(0xF0)
	w.Write([]byte{0x43, 0x10, 0x7F})
	w.WriteByte(0xF7)

	w.Write(make([]byte, 4))

	var got, err = DecodePTrack(w.Bytes(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, PTrackSysEx, got[0].Kind)
	assert.Equal(t, []byte{0x43, 0x10, 0x7F, 0xF7}, got[0].Data)
}

func TestPTrackSysExToleratesMissingTerminator(t *testing.T) {
	var w = NewByteWriter()
	WriteExtendedVarInt(w, 0)
	w.WriteByte(0xF0)
	w.Write([]byte{0x43, 0x10})
	// The stream ends in the zero trailer with no F7: the SysEx is
	// absorbed unterminated and the trailer still terminates the track.
	w.Write(make([]byte, 4))

	var got, err = DecodePTrack(w.Bytes(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, PTrackSysEx, got[0].Kind)
	assert.Equal(t, []byte{0x43, 0x10}, got[0].Data)
}

func TestPTrackReservedStatusesDecode(t *testing.T) {
	var w = NewByteWriter()
	WriteExtendedVarInt(w, 0)
	w.WriteByte(0xF8)
	w.Write([]byte{1, 2, 3})
	WriteExtendedVarInt(w, 0)
	w.WriteByte(0xF9)
	w.WriteByte(4)

	w.Write(make([]byte, 4))

	var got, err = DecodePTrack(w.Bytes(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, PTrackReserved, got[0].Kind)
	assert.Equal(t, []byte{1, 2, 3}, got[0].Data)
	assert.Equal(t, PTrackReserved, got[1].Kind)
}
