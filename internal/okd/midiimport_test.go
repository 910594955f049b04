package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func karaokeSMF() smf.SMF {
	var s = smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var accompaniment smf.Track
	accompaniment.Add(0, smf.MetaPort(0))
	accompaniment.Add(0, smf.Message(midi.NoteOn(0, 60, 100)))
	accompaniment.Add(240, smf.Message(midi.NoteOff(0, 60)))
	accompaniment.Add(0, smf.Message(midi.ProgramChange(0, 5)))
	accompaniment.Close(0)
	s.Add(accompaniment)

	var melody smf.Track
	melody.Add(0, smf.MetaPort(1))
	melody.Add(0, smf.Message(midi.NoteOn(8, 72, 90)))
	melody.Add(480, smf.Message(midi.NoteOff(8, 72)))
	melody.Close(0)
	s.Add(melody)

	return *s
}

func TestImportSMFBuildsPTrackPerPort(t *testing.T) {
	var input, err = ImportSMF(karaokeSMF(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Contains(t, input.PTracks, byte(0))
	require.Contains(t, input.PTracks, byte(1))

	var track = input.PTracks[0]
	require.Len(t, track, 2)
	assert.Equal(t, PTrackNote, track[0].Kind)
	assert.Equal(t, storedDuration(240), track[0].Duration)
	// A program change must travel under the raw escape since the
	// dialect reuses the Cn status nibble for alternate CCs.
	assert.Equal(t, PTrackRawEscape, track[1].Kind)
	assert.Equal(t, []byte{0xC0, 5}, track[1].Data)
}

func TestImportSMFSynthesizesMTrack(t *testing.T) {
	var input, err = ImportSMF(karaokeSMF(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.Contains(t, input.MTracks, byte(0))

	var interp = Interpret(input.MTracks[0])
	require.NotEmpty(t, interp.SongSections)
	assert.Equal(t, uint32(0), interp.SongSections[0].Start)
}

func TestGuideMelodyPagesSplitOnLongSilence(t *testing.T) {
	var melody = []NoteSpan{
		{Start: 0, End: 4000},
		{Start: 4500, End: 9000},
		// Silence of 9001 ticks after a 9000-tick page: the page closes.
		{Start: 18001, End: 20000},
	}

	var pages = guideMelodyPages(melody)

	require.Len(t, pages, 2)
	assert.Equal(t, TickSpan{Start: 0, End: 9000}, pages[0])
	assert.Equal(t, TickSpan{Start: 18001, End: 20000}, pages[1])
}

func TestGuideMelodyPagesKeepShortSongOnOnePage(t *testing.T) {
	var melody = []NoteSpan{
		{Start: 0, End: 400},
		{Start: 500, End: 900},
	}

	var pages = guideMelodyPages(melody)

	require.Len(t, pages, 1)
	assert.Equal(t, TickSpan{Start: 0, End: 900}, pages[0])
}

func TestComposeScoringReferenceRelocatesMelody(t *testing.T) {
	var input, err = ComposeScoringReference(karaokeSMF(), NewDiagnostics(nil))

	require.NoError(t, err)
	require.NotNil(t, input.P3Info)
	require.Contains(t, input.PTracks, byte(scoringPort))

	var track = input.PTracks[scoringPort]
	require.Len(t, track, 1)
	assert.Equal(t, byte(0x90|scoringChannel), track[0].Status)
	assert.Equal(t, byte(scoringChannel), track[0].Channel)
}

func TestImportSMFRoundTripsThroughContainer(t *testing.T) {
	var diag = NewDiagnostics(nil)
	var input, err = ImportSMF(karaokeSMF(), diag)
	require.NoError(t, err)

	var image = EncodePipeline(input, 101)

	var container, decodeErr = DecodePipeline(image, diag)
	require.NoError(t, decodeErr)

	assert.Len(t, container.PTracks, 2)
	require.Contains(t, container.MTracks, byte(0))
	require.Len(t, container.PTracks[0], 2)
	assert.Equal(t, storedDuration(240), container.PTracks[0][0].Duration)
}
