package okd

// PTrackEventKind classifies a decoded P-track event for downstream
// routing and projection.
type PTrackEventKind int

const (
	PTrackNote PTrackEventKind = iota
	PTrackAlternateCCAx
	PTrackAlternateCCCx
	PTrackControlChange
	PTrackChannelPressure
	PTrackPitchBend
	PTrackSysEx
	PTrackReserved
	PTrackGroupingArm
	PTrackRawEscape
)

// PTrackEvent is one decoded performance-track event.
type PTrackEvent struct {
	Delta    uint32
	Kind     PTrackEventKind
	Status   byte // original status byte (status-class | channel, or 0xFx)
	Channel  byte
	Data     []byte // payload bytes after the status byte, excluding duration
	Duration uint32 // only meaningful for PTrackNote
}

// statusClass returns the high nibble of a channel-voice status byte.
func statusClass(status byte) byte {
	return status & 0xF0
}

func channelOf(status byte) byte {
	return status & 0x0F
}

// rawEscapeLength reports the payload length (after the status byte
// that follows 0xFE) for a raw channel-voice escape, based on the
// escaped status byte's class.
func rawEscapeLength(escapedStatus byte) int {
	switch statusClass(escapedStatus) {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	case 0xC0, 0xD0:
		return 1
	default:
		return 0
	}
}

// DecodePTrack reads events until the next four bytes are the zero
// trailer. An event whose status byte is outside the dialect's table
// is logged to diag and dropped; a SysEx missing its F7 is logged and
// kept as read. Only structural damage aborts the decode.
func DecodePTrack(payload []byte, diag *Diagnostics) ([]PTrackEvent, error) {
	var r = NewByteReader(payload)
	var events []PTrackEvent

	for {
		if isZeroRun(r, 4) {
			return events, nil
		}

		var delta, deltaErr = ReadExtendedVarInt(r)
		if deltaErr != nil {
			return nil, deltaErr
		}

		var status, statusErr = r.ReadByte()
		if statusErr != nil {
			return events, nil
		}

		var class = statusClass(status)
		var channel = channelOf(status)

		switch {
		case status == 0xFD:
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackGroupingArm, Status: status})

		case status == 0xFE:
			var escaped, escErr = r.ReadByte()
			if escErr != nil {
				return nil, ErrTruncatedChunk
			}
			var n = rawEscapeLength(escaped)
			var data, dataErr = r.ReadExact(n)
			if dataErr != nil {
				return nil, ErrTruncatedChunk
			}
			var full = append([]byte{escaped}, data...)
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackRawEscape, Status: status, Data: full})

		case status >= 0xF0 && status <= 0xF7:
			var data, terminated = readSysExBody(r)
			if !terminated {
				diag.Warnf("SysEx missing F7 terminator", "len", len(data))
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackSysEx, Status: status, Data: data})

		case status == 0xF8:
			var data, err = r.ReadExact(3)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackReserved, Status: status, Data: append([]byte(nil), data...)})

		case status == 0xF9 || status == 0xFA:
			var data, err = r.ReadExact(1)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackReserved, Status: status, Data: append([]byte(nil), data...)})

		case class == 0x80 || class == 0x90:
			// 9n carries note/velocity; the 8n composite form adds the
			// stored note-off velocity. Both end in a varint duration.
			var n = 2
			if class == 0x80 {
				n = 3
			}
			var data, err = r.ReadExact(n)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			var duration, durErr = ReadVarInt(r)
			if durErr != nil {
				return nil, durErr
			}
			events = append(events, PTrackEvent{
				Delta: delta, Kind: PTrackNote, Status: status, Channel: channel,
				Data: append([]byte(nil), data...), Duration: duration,
			})

		case class == 0xA0:
			var data, err = r.ReadExact(1)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackAlternateCCAx, Status: status, Channel: channel, Data: append([]byte(nil), data...)})

		case class == 0xB0:
			var data, err = r.ReadExact(2)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackControlChange, Status: status, Channel: channel, Data: append([]byte(nil), data...)})

		case class == 0xC0:
			var data, err = r.ReadExact(1)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackAlternateCCCx, Status: status, Channel: channel, Data: append([]byte(nil), data...)})

		case class == 0xD0:
			var data, err = r.ReadExact(1)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackChannelPressure, Status: status, Channel: channel, Data: append([]byte(nil), data...)})

		case class == 0xE0:
			var data, err = r.ReadExact(2)
			if err != nil {
				return nil, ErrTruncatedChunk
			}
			events = append(events, PTrackEvent{Delta: delta, Kind: PTrackPitchBend, Status: status, Channel: channel, Data: append([]byte(nil), data...)})

		default:
			diag.Warnf("dropping event", "status", status, "err", ErrUnknownStatus)
		}
	}
}

// readSysExBody reads a SysEx payload (following an F0..F7 status
// already consumed) up to the next status byte. A trailing F7 is
// consumed and reported as terminated; any other status byte is left
// in the stream and the message reported unterminated, matching the
// source format's tolerance of truncated SysEx. The zero trailer is
// never absorbed into an unterminated message.
func readSysExBody(r *ByteReader) (data []byte, terminated bool) {
	for {
		if isZeroRun(r, 4) {
			return data, false
		}
		var peeked = r.Peek(1)
		if len(peeked) == 0 {
			return data, false
		}
		if peeked[0] == 0xF7 {
			var b, _ = r.ReadByte()
			return append(data, b), true
		}
		if peeked[0]&0x80 != 0 {
			return data, false
		}
		var b, err = r.ReadByte()
		if err != nil {
			return data, false
		}
		data = append(data, b)
	}
}

// EncodePTrack serializes events followed by the 4-byte zero
// terminator. Fanout state is not serialized, only the logical
// source event is written.
func EncodePTrack(w *ByteWriter, events []PTrackEvent) {
	for _, e := range events {
		WriteExtendedVarInt(w, e.Delta)
		w.WriteByte(e.Status)

		switch e.Kind {
		case PTrackGroupingArm:
			// no payload
		case PTrackRawEscape:
			w.Write(e.Data)
		case PTrackNote:
			w.Write(e.Data)
			WriteVarInt(w, e.Duration)
		default:
			w.Write(e.Data)
		}
	}
	w.Write(make([]byte, 4))
}
