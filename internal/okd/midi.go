package okd

import (
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// BuildSMF renders a decode pipeline's per-destination-track delta
// events into a standard MIDI file: a conductor track carrying the
// tempo map, then one smf.Track per destination track, each prefixed
// with a port meta-event naming which output port it addresses.
// tracks is keyed by destination track number (port*16 + channel), as
// produced by ToDeltaTracks. An empty tempo map falls back to a
// single tempo event derived from firstTempoUsPerBeat.
func BuildSMF(tracks map[int][]DeltaEvent, ticksPerQuarter uint16, firstTempoUsPerBeat uint32, tempos []TempoMark) smf.SMF {
	var s = smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var conductor smf.Track
	if len(tempos) == 0 {
		conductor.Add(0, smf.MetaTempo(float64(60_000_000)/float64(firstTempoUsPerBeat)))
	} else {
		var last uint32
		for _, tm := range tempos {
			conductor.Add(tm.Tick-last, smf.MetaTempo(tm.BPM))
			last = tm.Tick
		}
	}
	conductor.Close(0)
	s.Add(conductor)

	for _, trackNum := range sortedTrackNumbers(tracks) {
		var track smf.Track
		var port = trackNum / 16

		track.Add(0, smf.MetaPort(uint8(port))) //nolint:gosec

		for _, e := range tracks[trackNum] {
			track.Add(e.Delta, midiMessage(e.Data))
		}

		track.Close(0)
		s.Add(track)
	}

	return *s
}

// midiMessage wraps a raw channel-voice/SysEx byte slice as an
// smf.Message without re-validating it — the core's own codec is the
// source of truth for well-formedness.
func midiMessage(data []byte) smf.Message {
	return smf.Message(append([]byte(nil), data...))
}

func sortedTrackNumbers(tracks map[int][]DeltaEvent) []int {
	var out = make([]int, 0, len(tracks))
	for k := range tracks {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
