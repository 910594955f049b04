package okd

import (
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Container is the fully classified contents of a decoded envelope: the
// active track-info table plus every M-track, P-track, and ADPCM blob
// the body carried, in chunk order.
type Container struct {
	Header    Header
	TrackInfo TrackInfo
	P3Info    *TrackInfo
	MTracks   map[byte][]MTrackEvent
	PTracks   map[byte][]PTrackEvent
	Adpcm     [][]AdpcmBlob
	Unknown   []RawChunk
}

// DecodePipeline runs the full decode: Envelope.decode, chunk indexing,
// and per-chunk classification, preferring an extended (YPXI) track-info
// over a short (YPTI) one when both are present.
func DecodePipeline(raw []byte, diag *Diagnostics) (*Container, error) {
	var envelope, err = Decode(raw)
	if err != nil {
		return nil, err
	}

	var chunks, indexErr = IndexChunks(envelope.Body)
	if indexErr != nil {
		return nil, indexErr
	}

	var c = &Container{
		Header:  envelope.Header,
		MTracks: map[byte][]MTrackEvent{},
		PTracks: map[byte][]PTrackEvent{},
	}

	var haveExtendedTrackInfo bool

	for _, chunk := range chunks {
		var kind, subindex = ClassifyTag(chunk.Tag)

		switch kind {
		case ChunkTrackInfo:
			if haveExtendedTrackInfo {
				continue
			}
			var info, tiErr = DecodeTrackInfo(chunk.Payload)
			if tiErr != nil {
				diag.Warnf("dropping malformed YPTI chunk", "err", tiErr)
				continue
			}
			c.TrackInfo = info

		case ChunkExtendedTrackInfo:
			var info, tiErr = DecodeExtendedTrackInfo(chunk.Payload)
			if tiErr != nil {
				diag.Warnf("dropping malformed YPXI chunk", "err", tiErr)
				continue
			}
			c.TrackInfo = info
			haveExtendedTrackInfo = true

		case ChunkP3TrackInfo:
			var info, tiErr = DecodeP3TrackInfo(chunk.Payload)
			if tiErr != nil {
				diag.Warnf("dropping malformed YP3I chunk", "err", tiErr)
				continue
			}
			c.P3Info = &info
			if len(c.TrackInfo.Entries) == 0 {
				c.TrackInfo = info
			}

		case ChunkMTrack:
			var events, mErr = DecodeMTrack(chunk.Payload)
			if mErr != nil {
				diag.Warnf("dropping malformed M-track chunk", "subindex", subindex, "err", mErr)
				continue
			}
			c.MTracks[subindex] = events

		case ChunkPTrack:
			if len(c.TrackInfo.Entries) == 0 {
				diag.Warnf("P-track encountered before track-info", "subindex", subindex)
			}
			var events, pErr = DecodePTrack(chunk.Payload, diag)
			if pErr != nil {
				diag.Warnf("dropping malformed P-track chunk", "subindex", subindex, "err", pErr)
				continue
			}
			c.PTracks[subindex] = events

		case ChunkAdpcm:
			var blobs, aErr = DecodeAdpcmChunk(chunk.Payload)
			if aErr != nil {
				diag.Warnf("dropping malformed ADPCM chunk", "err", aErr)
				continue
			}
			c.Adpcm = append(c.Adpcm, blobs)

		default:
			c.Unknown = append(c.Unknown, chunk)
		}
	}

	return c, nil
}

// ExportGeneralMIDI runs the GM export: for each P-track in subindex
// order, construct a tone generator, project the track's events to
// absolute time through its matching track-info entry, feed SysEx
// messages to the tone generator in stream order, and interleave the
// resulting GM deltas — at their SysEx's timestamp, contiguous and in
// part-number order — with the track's own channel-voice traffic. The
// first time any port is used a full-state setup burst is emitted at
// tick 0.
func (c *Container) ExportGeneralMIDI(diag *Diagnostics) (smf.SMF, error) {
	var flat []AbsoluteTimeEvent
	var seq int
	var burstPorts = map[int]bool{}

	for _, sub := range sortedKeys(c.PTracks) {
		var entry, found = findTrackInfoEntry(c.TrackInfo, sub)
		if !found {
			if len(c.TrackInfo.Entries) == 0 {
				diag.Warnf("dropping P-track projection: no track-info", "subindex", sub)
				continue
			}
			entry = c.TrackInfo.Entries[0]
		}

		var events = c.PTracks[sub]
		var tg = NewToneGenerator()
		var absolute = BuildAbsoluteTimeTrack(entry, events)

		for _, ae := range absolute {
			if !burstPorts[ae.Port] {
				burstPorts[ae.Port] = true
				flat = append(flat, gmEventsToAbsolute(InitialBurst(tg.Snapshot()), 0, ae.Port, &seq)...)
			}
		}
		for _, ae := range absolute {
			ae.seq = seq
			seq++
			flat = append(flat, ae)
		}

		var time uint32
		for _, e := range events {
			time += e.Delta
			if e.Kind != PTrackSysEx {
				continue
			}
			var full = append([]byte{e.Status}, e.Data...)
			var before = tg.Snapshot()
			if applyErr := tg.ApplySysEx(full); applyErr != nil {
				diag.Warnf("absorbing malformed SysEx", "err", applyErr)
				continue
			}
			flat = append(flat, gmEventsToAbsolute(ProjectChanges(before, tg.Snapshot()), time, -1, &seq)...)
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].Time != flat[j].Time {
			return flat[i].Time < flat[j].Time
		}
		return flat[i].seq < flat[j].seq
	})

	// The master track's beat spacing supplies the tempo map; without
	// one the export runs at the reference tempo.
	var tempos []TempoMark
	if master, found := c.MTracks[0]; found {
		tempos = Interpret(master).Tempos
	}
	if len(tempos) > 0 && tempos[0].Tick != 0 {
		tempos = append([]TempoMark{{Tick: 0, BPM: referenceBPM}}, tempos...)
	}

	var deltaTracks = ToDeltaTracks(flat)
	return BuildSMF(deltaTracks, ticksPerQuarterNote, defaultTempoUsPerBeat, tempos), nil
}

const defaultTempoUsPerBeat = 480000 // 125 BPM at the format's reference scale

// gmEventsToAbsolute places tone-generator GM deltas on their
// destination tracks. A part number is already a destination track
// (port*16 + channel); when onlyPort is non-negative, parts addressing
// other ports are skipped (used for the per-port setup burst).
func gmEventsToAbsolute(events []GMEvent, time uint32, onlyPort int, seq *int) []AbsoluteTimeEvent {
	var out []AbsoluteTimeEvent
	for _, e := range events {
		var track = int(e.Part)
		var port = track / 16
		if onlyPort >= 0 && port != onlyPort {
			continue
		}
		var channel = byte(track % 16)

		var messages [][]byte
		switch e.Kind {
		case "program":
			messages = [][]byte{{0xC0 | channel, e.Value}}
		case "cc":
			messages = [][]byte{{0xB0 | channel, e.CC, e.Value}}
		case "rpn0":
			// RPN 0 select followed by the data entry.
			messages = [][]byte{
				{0xB0 | channel, 101, 0},
				{0xB0 | channel, 100, 0},
				{0xB0 | channel, 6, e.Value & 0x7F},
			}
		}
		for _, data := range messages {
			out = append(out, AbsoluteTimeEvent{Time: time, Port: port, Track: track, Data: data, seq: *seq})
			*seq++
		}
	}
	return out
}

func sortedKeys[V any](m map[byte]V) []byte {
	var out = make([]byte, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func findTrackInfoEntry(info TrackInfo, subindex byte) (TrackInfoEntry, bool) {
	for _, e := range info.Entries {
		if byte(e.TrackNumber) == subindex {
			return e, true
		}
	}
	return TrackInfoEntry{}, false
}
