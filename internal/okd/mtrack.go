package okd

// MTrackStatus enumerates the fixed status bytes of the marker/timing
// dialect. Payload length for each is fixed except FF, which runs
// until the next status byte or an FE sentinel.
type MTrackStatus byte

const (
	MTrackMeasureStart      MTrackStatus = 0xF1
	MTrackBeat              MTrackStatus = 0xF2
	MTrackHookBoundary      MTrackStatus = 0xF3
	MTrackGuideMelodyPage   MTrackStatus = 0xF4
	MTrackTwoChorusFadeOut  MTrackStatus = 0xF5
	MTrackSongSection       MTrackStatus = 0xF6
	MTrackAdpcmCueSection   MTrackStatus = 0xF8
	MTrackUnknown           MTrackStatus = 0xFF
	mTrackSentinel          byte         = 0xFE
)

// MTrackEvent is one decoded marker-track event: the extended delta
// time preceding it, its status, and any fixed or variable-length
// payload bytes (excluding the status byte itself).
type MTrackEvent struct {
	Delta   uint32
	Status  MTrackStatus
	Payload []byte
}

// fixedMTrackPayloadLen reports the payload length (after the status
// byte) for every status except FF, whose length is variable.
func fixedMTrackPayloadLen(status MTrackStatus) (n int, ok bool) {
	switch status {
	case MTrackMeasureStart, MTrackBeat, MTrackTwoChorusFadeOut:
		return 0, true
	case MTrackHookBoundary, MTrackGuideMelodyPage, MTrackSongSection, MTrackAdpcmCueSection:
		return 1, true
	default:
		return 0, false
	}
}

// DecodeMTrack reads events until 8 consecutive zero bytes (the
// trailer plus an alignment pad) are encountered.
func DecodeMTrack(payload []byte) ([]MTrackEvent, error) {
	var r = NewByteReader(payload)
	var events []MTrackEvent

	for {
		if isZeroRun(r, 8) {
			return events, nil
		}

		var delta, deltaErr = ReadExtendedVarInt(r)
		if deltaErr != nil {
			return nil, deltaErr
		}

		var statusByte, statusErr = r.ReadByte()
		if statusErr != nil {
			return events, nil
		}
		var status = MTrackStatus(statusByte)

		if n, ok := fixedMTrackPayloadLen(status); ok {
			var payloadBuf []byte
			if n > 0 {
				var buf, err = r.ReadExact(n)
				if err != nil {
					return nil, ErrTruncatedChunk
				}
				payloadBuf = append([]byte(nil), buf...)
			}
			events = append(events, MTrackEvent{Delta: delta, Status: status, Payload: payloadBuf})
			continue
		}

		// Unknown/reserved: read until the next status byte or the FE
		// sentinel, without consuming the terminator or the zero trailer.
		var payloadBuf []byte
		for {
			if isZeroRun(r, 8) {
				break
			}
			var peeked = r.Peek(1)
			if len(peeked) == 0 {
				break
			}
			if peeked[0] == mTrackSentinel || peeked[0]&0x80 != 0 {
				break
			}
			var b, err = r.ReadByte()
			if err != nil {
				break
			}
			payloadBuf = append(payloadBuf, b)
		}
		events = append(events, MTrackEvent{Delta: delta, Status: status, Payload: payloadBuf})
	}
}

func isZeroRun(r *ByteReader, n int) bool {
	var peeked = r.Peek(n)
	if len(peeked) != n {
		return false
	}
	for _, b := range peeked {
		if b != 0 {
			return false
		}
	}
	return true
}

// EncodeMTrack serializes events followed by the 8-byte zero terminator.
func EncodeMTrack(w *ByteWriter, events []MTrackEvent) {
	for _, e := range events {
		WriteExtendedVarInt(w, e.Delta)
		w.WriteByte(byte(e.Status))
		w.Write(e.Payload)
	}
	w.Write(make([]byte, 8))
}

// Interpretation is the container orchestrator's rendering of an
// M-track's events into musically meaningful spans.
type Interpretation struct {
	Tempos                       []TempoMark
	TimeSignatures                []TimeSignatureMark
	Hooks                         []TickSpan
	VisibleGuideMelodyDelimiters []GuideMelodyDelimiter
	TwoChorusFadeOutTime          *uint32
	SongSections                  []TickSpan
	AdpcmSections                 []TickSpan
}

type TempoMark struct {
	Tick uint32
	BPM  float64
}

type TimeSignatureMark struct {
	Tick  uint32
	Beats int
}

type TickSpan struct {
	Start uint32
	End   uint32
}

type GuideMelodyDelimiter struct {
	Tick uint32
	Kind byte
}

// ticksPerQuarterNote and the reference tempo fix the tick-to-millisecond
// scale the source format assumes for a measure bar at 125 BPM, 480 PPQ.
const (
	ticksPerQuarterNote = 480
	referenceBPM        = 125.0
)

// Interpret walks a decoded M-track and derives the higher-level spans
// the orchestrator needs: tempo from beat spacing, implied time
// signature from beats-per-measure, hook/section/ADPCM spans paired by
// open/close kind, and guide-melody page delimiters passed through.
func Interpret(events []MTrackEvent) Interpretation {
	var out Interpretation
	var tick uint32
	var lastBeatTick uint32
	var haveLastBeat bool
	var beatsInMeasure int
	var measureStartTick uint32
	var haveMeasureStart bool

	var openHook *uint32
	var openHookKind byte
	var openSection *uint32
	var openAdpcm *uint32

	for _, e := range events {
		tick += e.Delta

		switch e.Status {
		case MTrackMeasureStart:
			if haveMeasureStart && beatsInMeasure > 0 {
				out.TimeSignatures = append(out.TimeSignatures, TimeSignatureMark{Tick: measureStartTick, Beats: beatsInMeasure})
			}
			measureStartTick = tick
			haveMeasureStart = true
			beatsInMeasure = 1

			if haveLastBeat && tick > lastBeatTick {
				out.Tempos = append(out.Tempos, TempoMark{Tick: tick, BPM: beatTempoBPM(tick - lastBeatTick)})
			}
			lastBeatTick = tick
			haveLastBeat = true

		case MTrackBeat:
			beatsInMeasure++
			if haveLastBeat && tick > lastBeatTick {
				out.Tempos = append(out.Tempos, TempoMark{Tick: tick, BPM: beatTempoBPM(tick - lastBeatTick)})
			}
			lastBeatTick = tick
			haveLastBeat = true

		case MTrackHookBoundary:
			var kind = e.Payload[0]
			if kind == 0x00 || kind == 0x02 {
				var t = tick
				openHook = &t
				openHookKind = kind
			} else if openHook != nil {
				out.Hooks = append(out.Hooks, TickSpan{Start: *openHook, End: tick})
				openHook = nil
				_ = openHookKind
			}

		case MTrackGuideMelodyPage:
			out.VisibleGuideMelodyDelimiters = append(out.VisibleGuideMelodyDelimiters, GuideMelodyDelimiter{Tick: tick, Kind: e.Payload[0]})

		case MTrackTwoChorusFadeOut:
			var t = tick
			out.TwoChorusFadeOutTime = &t

		case MTrackSongSection:
			var kind = e.Payload[0]
			if kind == 0x00 {
				var t = tick
				openSection = &t
			} else if openSection != nil {
				out.SongSections = append(out.SongSections, TickSpan{Start: *openSection, End: tick})
				openSection = nil
			}

		case MTrackAdpcmCueSection:
			var kind = e.Payload[0]
			if kind == 0x00 {
				var t = tick
				openAdpcm = &t
			} else if openAdpcm != nil {
				out.AdpcmSections = append(out.AdpcmSections, TickSpan{Start: *openAdpcm, End: tick})
				openAdpcm = nil
			}
		}
	}

	if haveMeasureStart && beatsInMeasure > 0 {
		out.TimeSignatures = append(out.TimeSignatures, TimeSignatureMark{Tick: measureStartTick, Beats: beatsInMeasure})
	}

	return out
}

// beatTempoBPM converts a beat-to-beat tick distance into a BPM value
// on the reference scale where one tick is one millisecond.
func beatTempoBPM(tickDelta uint32) float64 {
	if tickDelta == 0 {
		return referenceBPM
	}
	var msPerBeat = float64(tickDelta) / float64(ticksPerQuarterNote) * (60000.0 / referenceBPM)
	return 60000.0 / msPerBeat
}
