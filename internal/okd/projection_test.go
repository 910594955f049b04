package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTrackInfoEntry() TrackInfoEntry {
	var entry TrackInfoEntry
	for ch := 0; ch < 16; ch++ {
		entry.ChannelInfo[ch] = ChannelInfoEntry{Ports: 1} // port 0 only
	}
	return entry
}

func TestBuildAbsoluteTimeTrackSynthesizesNoteOff(t *testing.T) {
	var info = defaultTrackInfoEntry()
	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackNote, Status: 0x90, Channel: 0, Data: []byte{60, 100}, Duration: 50},
	}

	var out = BuildAbsoluteTimeTrack(info, events)

	require.Len(t, out, 2)
	assert.Equal(t, uint32(0), out[0].Time)
	assert.Equal(t, byte(0x90), out[0].Data[0]&0xF0)
	assert.Equal(t, uint32(200), out[1].Time) // duration shifted x4 since track_status bit 0x08 unset
	assert.Equal(t, byte(0x80), out[1].Data[0]&0xF0)
}

func TestBuildAbsoluteTimeTrackHonoursRawDurationWhenLosslessBitSet(t *testing.T) {
	var info = defaultTrackInfoEntry()
	info.TrackStatus = 0x08
	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackNote, Status: 0x90, Channel: 0, Data: []byte{60, 100}, Duration: 50},
	}

	var out = BuildAbsoluteTimeTrack(info, events)

	require.Len(t, out, 2)
	assert.Equal(t, uint32(50), out[1].Time)
}

func TestAlternateCCRemapsToControlChangeAx(t *testing.T) {
	var info = defaultTrackInfoEntry()
	info.ChannelInfo[2].ControlChangeAx = 74

	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackAlternateCCAx, Status: 0xA2, Channel: 2, Data: []byte{99}},
	}

	var out = BuildAbsoluteTimeTrack(info, events)

	require.Len(t, out, 1)
	assert.Equal(t, []byte{0xB0 | 2, 74, 99}, out[0].Data)
}

func TestRawEscapeBypassesAlternateCCRewrite(t *testing.T) {
	var info = defaultTrackInfoEntry()
	info.ChannelInfo[0].ControlChangeAx = 0x0B

	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackRawEscape, Status: 0xFE, Data: []byte{0xA0, 0x50}},
	}

	var out = BuildAbsoluteTimeTrack(info, events)

	require.Len(t, out, 1)
	assert.Equal(t, []byte{0xA0, 0x50}, out[0].Data)
}

func TestGroupingArmFansNextEventOnly(t *testing.T) {
	var info = defaultTrackInfoEntry()
	info.ChannelGroups[0] = 0x0003 // destinations 0 and 1 when armed

	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackGroupingArm, Status: 0xFD},
		{Delta: 0, Kind: PTrackNote, Status: 0x90, Channel: 0, Data: []byte{0x3C, 0x40}},
		{Delta: 10, Kind: PTrackNote, Status: 0x90, Channel: 0, Data: []byte{0x3E, 0x40}},
	}

	var out = BuildAbsoluteTimeTrack(info, events)

	// Armed note: on+off to channels 0 and 1. Following note: identity only.
	require.Len(t, out, 6)

	var armedChannels = map[byte]bool{}
	for _, e := range out {
		if e.Time == 0 && e.Data[0]&0xF0 == 0x90 {
			armedChannels[e.Data[0]&0x0F] = true
		}
	}
	assert.Equal(t, map[byte]bool{0: true, 1: true}, armedChannels)

	var laterChannels = map[byte]bool{}
	for _, e := range out {
		if e.Time == 10 && e.Data[0]&0xF0 == 0x90 {
			laterChannels[e.Data[0]&0x0F] = true
		}
	}
	assert.Equal(t, map[byte]bool{0: true}, laterChannels)
}

func TestSysExFansOutToSystemExPorts(t *testing.T) {
	var info = defaultTrackInfoEntry()
	info.SystemExPorts = 0x0003 // ports 0 and 1

	var events = []PTrackEvent{
		{Delta: 0, Kind: PTrackSysEx, Status: 0xF0, Data: []byte{0x43, 0x10, 0xF7}},
	}

	var out = BuildAbsoluteTimeTrack(info, events)

	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Track)
	assert.Equal(t, 16, out[1].Track)
}

func TestToDeltaTracksGroupsByTrackAndRederivesDeltas(t *testing.T) {
	var events = []AbsoluteTimeEvent{
		{Time: 0, Track: 0, Data: []byte{0x90, 60, 100}},
		{Time: 100, Track: 0, Data: []byte{0x80, 60, 64}},
		{Time: 50, Track: 1, Data: []byte{0x90, 62, 100}},
	}

	var tracks = ToDeltaTracks(events)

	require.Len(t, tracks[0], 2)
	assert.Equal(t, uint32(0), tracks[0][0].Delta)
	assert.Equal(t, uint32(100), tracks[0][1].Delta)
	require.Len(t, tracks[1], 1)
	assert.Equal(t, uint32(50), tracks[1][0].Delta)
}
