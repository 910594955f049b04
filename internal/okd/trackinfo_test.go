package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTrackInfoShortSingleEntry(t *testing.T) {
	var w = NewByteWriter()
	w.WriteBE16(1) // entry count

	w.WriteByte(0x01)
	w.WriteByte(0x00) // track_number little-endian
	w.WriteBE16(0)    // use_channel_group_flag: all defaults

	for ch := 0; ch < 16; ch++ {
		w.WriteBE16(uint16(0x1000 + ch)) // channel_groups
	}
	for ch := 0; ch < 16; ch++ {
		w.WriteByte(byte(ch))
		w.WriteByte(1)
		w.WriteByte(0)
		w.WriteByte(0)
	}
	w.WriteByte(0x01)
	w.WriteByte(0x00) // system_ex_port little-endian

	var info, err = DecodeTrackInfo(w.Bytes())

	require.NoError(t, err)
	require.Len(t, info.Entries, 1)
	assert.False(t, info.Extended)
	assert.Equal(t, uint16(1), info.Entries[0].TrackNumber)
	assert.Equal(t, uint16(1), info.Entries[0].SingleChannelGroups[0])
	assert.Equal(t, uint16(1<<1), info.Entries[0].SingleChannelGroups[1])
	assert.Equal(t, uint16(0x1000), info.Entries[0].ChannelGroups[0])
	assert.Equal(t, uint16(1), info.Entries[0].SystemExPorts)
}

func TestDecodeExtendedTrackInfoSingleEntry(t *testing.T) {
	var w = NewByteWriter()
	w.Write(make([]byte, 8)) // unknown reserved
	w.WriteBE16(3)           // tg_mode
	w.WriteBE16(1)           // entry count

	w.WriteByte(0x02) // track_number
	w.WriteByte(0x08) // track_status: raw ticks
	w.WriteBE16(0)    // reserved

	for ch := 0; ch < 16; ch++ {
		w.WriteBE16(uint16(ch))
	}
	for ch := 0; ch < 16; ch++ {
		w.WriteBE16(uint16(0x2000 + ch))
	}
	for ch := 0; ch < 16; ch++ {
		w.WriteByte(0x00) // attribute low byte
		w.WriteByte(0x01) // attribute high byte: guide melody
		w.WriteBE16(1)    // ports
		w.WriteBE16(0)    // reserved
		w.WriteByte(0x0B) // control_change_ax
		w.WriteByte(0x0C) // control_change_cx
	}
	w.WriteBE16(1) // system_ex_ports
	w.WriteBE16(0) // reserved

	var info, err = DecodeExtendedTrackInfo(w.Bytes())

	require.NoError(t, err)
	require.Len(t, info.Entries, 1)
	assert.True(t, info.Extended)
	assert.Equal(t, uint16(3), info.TGMode)

	var entry = info.Entries[0]
	assert.Equal(t, uint16(2), entry.TrackNumber)
	assert.True(t, IsGroupingStatus(entry.TrackStatus))
	assert.Equal(t, uint16(0x2000), entry.ChannelGroups[0])
	assert.Equal(t, uint8(0x0B), entry.ChannelInfo[0].ControlChangeAx)
	assert.True(t, entry.ChannelInfo[0].IsChorus())
	assert.True(t, entry.ChannelInfo[0].IsGuideMelody())
}

func TestP3TrackInfoRoundTrip(t *testing.T) {
	var entry TrackInfoEntry
	entry.TrackNumber = 2
	entry.TrackStatus = 0x40
	for ch := 0; ch < 16; ch++ {
		entry.ChannelInfo[ch] = ChannelInfoEntry{Ports: 0x04}
	}
	entry.ChannelInfo[14].Attribute = 255 // narrow form keeps the low byte
	entry.SystemExPorts = 0x04

	var w = NewByteWriter()
	writeP3TrackInfoChunk(w, TrackInfo{Entries: []TrackInfoEntry{entry}})

	var chunks, err = IndexChunks(append(w.Bytes(), 0, 0, 0, 0))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	var kind, _ = ClassifyTag(chunks[0].Tag)
	assert.Equal(t, ChunkP3TrackInfo, kind)

	var info, decodeErr = DecodeP3TrackInfo(chunks[0].Payload)
	require.NoError(t, decodeErr)
	require.Len(t, info.Entries, 1)
	assert.Equal(t, uint16(2), info.Entries[0].TrackNumber)
	assert.Equal(t, uint16(0x04), info.Entries[0].ChannelInfo[14].Ports)
	assert.Equal(t, uint16(255), info.Entries[0].ChannelInfo[14].Attribute)
}
