package okd

import (
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// pageGapTicks is the guide-melody paging threshold: a visible page
// closes once at least this many ticks have elapsed since it opened
// and the silence that follows the current note exceeds the same
// threshold.
const pageGapTicks = 8000

// melodyPort and melodyChannel locate the reference vocal line inside
// a canonical karaoke MIDI.
const (
	melodyPort    = 1
	melodyChannel = 8
)

// scoringPort and scoringChannel are where the scoring-reference
// container carries the relocated melody.
const (
	scoringPort    = 2
	scoringChannel = 14
)

type smfAbsEvent struct {
	time uint32
	port int
	data []byte
	seq  int
}

// ImportSMF converts a canonical MIDI file into compose input: one
// P-track per output port in use, note-on/note-off pairs folded into
// the dialect's note-with-duration events, status classes the dialect
// reuses for alternate CCs wrapped in raw-channel-voice escapes, and a
// synthesized M-track with barlines and guide-melody page delimiters.
func ImportSMF(s smf.SMF, diag *Diagnostics) (ComposeInput, error) {
	var byPort = collectByPort(s)

	var input = ComposeInput{
		MTracks: map[byte][]MTrackEvent{},
		PTracks: map[byte][]PTrackEvent{},
	}

	for port, events := range byPort {
		if port == 15 {
			// Port 15 is the M-track's home in canonical exports; its
			// marker stream is re-synthesized below rather than parsed back.
			continue
		}
		var track = eventsToPTrack(events, diag)
		if len(track) > 0 {
			input.PTracks[byte(port)] = track
		}
	}

	var melody = melodySpans(byPort[melodyPort])
	input.MTracks[0] = SynthesizeMTrack(melody, 4)

	return input, nil
}

// ComposeScoringReference builds the companion scoring-reference
// container input: the melody line alone, relocated to the scoring
// port and channel, fronted by a P3 track-info with that single route
// active.
func ComposeScoringReference(s smf.SMF, diag *Diagnostics) (ComposeInput, error) {
	var byPort = collectByPort(s)
	var spans = melodySpans(byPort[melodyPort])
	if len(spans) == 0 {
		return ComposeInput{}, ErrNoMelodyTrack
	}

	var events []PTrackEvent
	var last uint32
	for _, span := range spans {
		events = append(events, PTrackEvent{
			Delta:    span.Start - last,
			Kind:     PTrackNote,
			Status:   0x90 | scoringChannel,
			Channel:  scoringChannel,
			Data:     []byte{span.Key, span.Velocity},
			Duration: storedDuration(span.End - span.Start),
		})
		last = span.Start
	}

	var p3 = p3TrackInfoForChannel(scoringChannel, scoringPort)
	return ComposeInput{
		P3Info:  &p3,
		PTracks: map[byte][]PTrackEvent{scoringPort: events},
	}, nil
}

func p3TrackInfoForChannel(channel, port int) TrackInfo {
	var entry TrackInfoEntry
	entry.TrackNumber = uint16(port)
	entry.TrackStatus = 0x40
	for ch := 0; ch < 16; ch++ {
		entry.ChannelInfo[ch] = ChannelInfoEntry{Ports: 1 << uint(port)}
	}
	entry.ChannelInfo[channel].Attribute = 255
	entry.SystemExPorts = 1 << uint(port)
	return TrackInfo{Entries: []TrackInfoEntry{entry}}
}

// collectByPort flattens an SMF into per-port absolute-time event
// lists. A track's port is set by its MIDI-port meta-event and
// defaults to 0; meta-events other than the port selector are not
// carried through.
func collectByPort(s smf.SMF) map[int][]smfAbsEvent {
	var byPort = map[int][]smfAbsEvent{}
	var seq int

	for _, track := range s.Tracks {
		var time uint32
		var port int
		for _, ev := range track {
			time += ev.Delta
			var msg = ev.Message

			var p uint8
			if msg.GetMetaPort(&p) {
				port = int(p)
				continue
			}

			var raw = msg.Bytes()
			if len(raw) == 0 || raw[0] == 0xFF {
				continue
			}
			byPort[port] = append(byPort[port], smfAbsEvent{time: time, port: port, data: raw, seq: seq})
			seq++
		}
	}

	for port := range byPort {
		var events = byPort[port]
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].time != events[j].time {
				return events[i].time < events[j].time
			}
			return events[i].seq < events[j].seq
		})
		byPort[port] = events
	}

	return byPort
}

// storedDuration converts an absolute tick duration into the stored
// shifted form used when track_status leaves the lossless bit clear.
func storedDuration(ticks uint32) uint32 {
	var stored = (ticks + 2) / 4
	if stored > MaxVarInt {
		stored = MaxVarInt
	}
	return stored
}

// eventsToPTrack folds a port's absolute-time messages into dialect
// events: note pairs become note-with-duration, program changes and
// polyphonic pressure (whose status nibbles the dialect repurposes for
// alternate CCs) are wrapped in FE escapes, and everything else passes
// through in its dialect form.
func eventsToPTrack(events []smfAbsEvent, diag *Diagnostics) []PTrackEvent {
	type openNote struct {
		index int
		time  uint32
	}
	var out []PTrackEvent
	var times []uint32
	var open = map[[2]byte]openNote{} // (channel, key) -> pending note-on

	var appendEvent = func(time uint32, e PTrackEvent) {
		out = append(out, e)
		times = append(times, time)
	}

	for _, ae := range events {
		var status = ae.data[0]
		var class = statusClass(status)
		var channel = channelOf(status)

		switch {
		case class == 0x90 && len(ae.data) >= 3 && ae.data[2] > 0:
			appendEvent(ae.time, PTrackEvent{
				Kind: PTrackNote, Status: status, Channel: channel,
				Data: []byte{ae.data[1], ae.data[2]},
			})
			open[[2]byte{channel, ae.data[1]}] = openNote{index: len(out) - 1, time: ae.time}

		case class == 0x80 || (class == 0x90 && len(ae.data) >= 3 && ae.data[2] == 0):
			var key = [2]byte{channel, ae.data[1]}
			var on, found = open[key]
			if !found {
				diag.Warnf("note-off without matching note-on", "channel", channel, "key", ae.data[1])
				continue
			}
			delete(open, key)
			out[on.index].Duration = storedDuration(ae.time - on.time)

		case class == 0xA0 || class == 0xC0:
			// The dialect repurposes these status nibbles for alternate
			// CCs; the real message needs the raw escape.
			appendEvent(ae.time, PTrackEvent{
				Kind: PTrackRawEscape, Status: 0xFE,
				Data: append([]byte(nil), ae.data...),
			})

		case class == 0xB0 || class == 0xD0 || class == 0xE0:
			appendEvent(ae.time, PTrackEvent{
				Kind: kindForClass(class), Status: status, Channel: channel,
				Data: append([]byte(nil), ae.data[1:]...),
			})

		case status == 0xF0:
			appendEvent(ae.time, PTrackEvent{
				Kind: PTrackSysEx, Status: status,
				Data: append([]byte(nil), ae.data[1:]...),
			})

		default:
			diag.Warnf("dropping message the dialect cannot carry", "status", status)
		}
	}

	for key := range open {
		diag.Warnf("note-on without matching note-off", "channel", key[0], "key", key[1])
	}

	var last uint32
	for i := range out {
		out[i].Delta = times[i] - last
		last = times[i]
	}

	return out
}

func kindForClass(class byte) PTrackEventKind {
	switch class {
	case 0xB0:
		return PTrackControlChange
	case 0xD0:
		return PTrackChannelPressure
	default:
		return PTrackPitchBend
	}
}

// NoteSpan is one melody note's absolute start/end, used when
// synthesizing M-track page delimiters.
type NoteSpan struct {
	Start    uint32
	End      uint32
	Key      byte
	Velocity byte
}

// melodySpans extracts the guide-melody note spans from a port's
// absolute event list, pairing note-ons with their offs on the melody
// channel.
func melodySpans(events []smfAbsEvent) []NoteSpan {
	var spans []NoteSpan
	var open = map[byte]int{} // key -> spans index

	for _, ae := range events {
		var status = ae.data[0]
		var class = statusClass(status)
		if channelOf(status) != melodyChannel && channelOf(status) != scoringChannel {
			continue
		}
		switch {
		case class == 0x90 && len(ae.data) >= 3 && ae.data[2] > 0:
			open[ae.data[1]] = len(spans)
			spans = append(spans, NoteSpan{Start: ae.time, End: ae.time, Key: ae.data[1], Velocity: ae.data[2]})
		case class == 0x80 || (class == 0x90 && len(ae.data) >= 3 && ae.data[2] == 0):
			if idx, found := open[ae.data[1]]; found {
				spans[idx].End = ae.time
				delete(open, ae.data[1])
			}
		}
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// SynthesizeMTrack builds a marker stream covering the melody: a
// barline grid at the reference resolution, guide-melody page
// delimiters following the paging rule, and a song-section span
// bracketing the whole performance.
func SynthesizeMTrack(melody []NoteSpan, beatsPerMeasure int) []MTrackEvent {
	type mark struct {
		tick    uint32
		status  MTrackStatus
		payload []byte
	}
	var marks []mark

	var end uint32
	for _, span := range melody {
		if span.End > end {
			end = span.End
		}
	}

	marks = append(marks, mark{0, MTrackSongSection, []byte{0x00}})

	for tick, beat := uint32(0), 0; tick <= end; tick, beat = tick+ticksPerQuarterNote, beat+1 {
		if beat%beatsPerMeasure == 0 {
			marks = append(marks, mark{tick, MTrackMeasureStart, nil})
		} else {
			marks = append(marks, mark{tick, MTrackBeat, nil})
		}
	}

	for _, page := range guideMelodyPages(melody) {
		marks = append(marks, mark{page.Start, MTrackGuideMelodyPage, []byte{0x00}})
		marks = append(marks, mark{page.End, MTrackGuideMelodyPage, []byte{0x01}})
	}

	marks = append(marks, mark{end, MTrackSongSection, []byte{0x01}})

	sort.SliceStable(marks, func(i, j int) bool { return marks[i].tick < marks[j].tick })

	var events []MTrackEvent
	var last uint32
	for _, m := range marks {
		events = append(events, MTrackEvent{Delta: m.tick - last, Status: m.status, Payload: m.payload})
		last = m.tick
	}
	return events
}

// guideMelodyPages applies the paging rule: a page closes once at
// least pageGapTicks have elapsed since it opened and the silence
// after the current note also exceeds pageGapTicks; otherwise the page
// keeps accumulating notes.
func guideMelodyPages(melody []NoteSpan) []TickSpan {
	var pages []TickSpan
	if len(melody) == 0 {
		return pages
	}

	var pageStart = melody[0].Start
	for i, span := range melody {
		if i+1 == len(melody) {
			pages = append(pages, TickSpan{Start: pageStart, End: span.End})
			break
		}
		var silence = melody[i+1].Start - span.End
		if span.End-pageStart >= pageGapTicks && silence > pageGapTicks {
			pages = append(pages, TickSpan{Start: pageStart, End: span.End})
			pageStart = melody[i+1].Start
		}
	}
	return pages
}
