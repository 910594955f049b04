package okd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalContainer(t *testing.T) *Container {
	t.Helper()

	var pTracks = map[byte][]PTrackEvent{
		0: {
			{Delta: 0, Kind: PTrackNote, Status: 0x90, Channel: 0, Data: []byte{0x3C, 0x40}, Duration: 240},
		},
	}
	var info = DeriveTrackInfo(pTracks)
	info.Entries[0].TrackStatus = 0x48 // lossless durations
	info.Entries[0].ChannelInfo[0].ControlChangeAx = 0x0B
	info.Entries[0].ChannelInfo[0].ControlChangeCx = 0x01

	return &Container{
		Header:    DefaultOutputHeader(),
		TrackInfo: info,
		PTracks:   pTracks,
		MTracks:   map[byte][]MTrackEvent{},
	}
}

func TestExportGeneralMIDIPairsNoteOnAndOff(t *testing.T) {
	var container = minimalContainer(t)

	var s, err = container.ExportGeneralMIDI(NewDiagnostics(nil))

	require.NoError(t, err)
	require.NotEmpty(t, s.Tracks)

	// One destination track carries the note pair at t=0 and t=240
	// (lossless mode keeps the stored tick count).
	var foundOn, foundOff bool
	for _, track := range s.Tracks {
		var tick uint32
		for _, ev := range track {
			tick += ev.Delta
			var raw = ev.Message.Bytes()
			if len(raw) == 3 && raw[0] == 0x90 && raw[1] == 0x3C {
				foundOn = tick == 0
			}
			if len(raw) == 3 && raw[0] == 0x80 && raw[1] == 0x3C {
				foundOff = tick == 240
			}
		}
	}
	assert.True(t, foundOn, "note-on at tick 0")
	assert.True(t, foundOff, "note-off at tick 240")
}

func TestExportGeneralMIDIEmitsProgramChangeFromSysEx(t *testing.T) {
	var container = minimalContainer(t)

	// Native parameter change writing the program number of the part
	// that maps to channel 0.
	var entry = tgPartIndexToEntry[0]
	var address = tgPartBase + entry*tgPartStride + tgOffsetProgramNumber
	var frame = []byte{
		0x43, 0x10, 0x4C,
		byte((address >> 14) & 0x7F), byte((address >> 7) & 0x7F), byte(address & 0x7F),
		0x20, 0x00, 0xF7,
	}
	container.PTracks[0] = append(container.PTracks[0], PTrackEvent{
		Delta: 240, Kind: PTrackSysEx, Status: 0xF0, Data: frame,
	})

	var s, err = container.ExportGeneralMIDI(NewDiagnostics(nil))

	require.NoError(t, err)

	var found bool
	for _, track := range s.Tracks {
		var tick uint32
		for _, ev := range track {
			tick += ev.Delta
			var raw = ev.Message.Bytes()
			if len(raw) == 2 && raw[0] == 0xC0 && raw[1] == 0x20 && tick == 240 {
				found = true
			}
		}
	}
	assert.True(t, found, "program change 0x20 on channel 0 at the SysEx timestamp")
}

func TestDecodePipelineClassifiesAllChunkKinds(t *testing.T) {
	var input = ComposeInput{
		PTracks: map[byte][]PTrackEvent{
			0: {{Delta: 0, Kind: PTrackNote, Status: 0x90, Data: []byte{60, 100}, Duration: 10}},
		},
		MTracks: map[byte][]MTrackEvent{
			0: {{Delta: 0, Status: MTrackMeasureStart}},
		},
		Adpcm: [][]AdpcmBlob{{{Data: []byte{1, 2, 3, 4}}}},
	}
	var image = EncodePipeline(input, 200)

	var container, err = DecodePipeline(image, NewDiagnostics(nil))

	require.NoError(t, err)
	assert.Len(t, container.PTracks, 1)
	assert.Len(t, container.MTracks, 1)
	require.Len(t, container.Adpcm, 1)
	require.Len(t, container.Adpcm[0], 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, container.Adpcm[0][0].Data)
	assert.NotEmpty(t, container.TrackInfo.Entries)
}

func TestDumpReportsHeaderAndTracks(t *testing.T) {
	var container = minimalContainer(t)

	var b strings.Builder
	container.Dump(&b)

	var report = b.String()
	assert.Contains(t, report, "magic=YKS1")
	assert.Contains(t, report, "track-info")
	assert.Contains(t, report, "p-track 0")
	assert.Contains(t, report, "dur=240")
}

func TestToneGeneratorSysExIdempotence(t *testing.T) {
	var tg = NewToneGenerator()

	var entry = tgPartIndexToEntry[3]
	var address = tgPartBase + entry*tgPartStride + tgOffsetVolume
	var frame = []byte{
		0xF0, 0x43, 0x10, 0x4C,
		byte((address >> 14) & 0x7F), byte((address >> 7) & 0x7F), byte(address & 0x7F),
		0x33, 0x00, 0xF7,
	}

	var before = tg.Snapshot()
	require.NoError(t, tg.ApplySysEx(frame))
	var first = tg.Snapshot()
	require.NotEmpty(t, ProjectChanges(before, first))

	require.NoError(t, tg.ApplySysEx(frame))
	var second = tg.Snapshot()

	assert.Equal(t, first, second)
	assert.Empty(t, ProjectChanges(first, second))
}
