package okd

// ChannelInfoEntry describes how one of a track's 16 MIDI channels is
// routed: which output ports it fans out to, and which alternate
// controller numbers stand in for the dialect's An/Cn status classes.
type ChannelInfoEntry struct {
	Attribute       uint16
	Ports           uint16
	Reserved        uint16 // extended form only; preserved verbatim
	ControlChangeAx uint8
	ControlChangeCx uint8
}

// IsChorus reports whether this channel carries a chorus (backing)
// part rather than the lead melody.
func (e ChannelInfoEntry) IsChorus() bool {
	return e.Attribute&0x80 != 0x80
}

// IsGuideMelody reports whether this channel is a visible guide-melody
// track.
func (e ChannelInfoEntry) IsGuideMelody() bool {
	return e.Attribute&0x0100 == 0x0100
}

// TrackInfoEntry is one P-track's routing table: its channel-grouping
// defaults, per-channel routing/remap rules, and the ports that SysEx
// (0xF0) fans out to.
type TrackInfoEntry struct {
	TrackNumber         uint16
	TrackStatus         uint8
	SingleChannelGroups [16]uint16
	ChannelGroups       [16]uint16
	ChannelInfo         [16]ChannelInfoEntry
	SystemExPorts       uint16
}

// TrackInfo is the decoded contents of a YPTI/YPXI/YP3I chunk: the
// routing table for every P-track the container carries. Extended
// (YPXI) is preferred over short (YPTI) when both are present, per the
// container orchestration rule.
type TrackInfo struct {
	Extended bool
	TGMode   uint16
	Entries  []TrackInfoEntry
}

// DecodeTrackInfo parses the short YPTI form: a 16-bit entry count
// followed by that many fixed-layout entries. Short entries have no
// explicit TrackStatus byte and no per-channel reserved/CC fields
// beyond the legacy attribute/port/acchg pair, so those fields default
// to zero on the decoded TrackInfoEntry.
func DecodeTrackInfo(payload []byte) (TrackInfo, error) {
	var r = NewByteReader(payload)

	var countBuf, err = r.ReadExact(2)
	if err != nil {
		return TrackInfo{}, ErrTruncatedChunk
	}
	var count = int(countBuf[0])<<8 | int(countBuf[1])

	var entries = make([]TrackInfoEntry, 0, count)
	for i := 0; i < count; i++ {
		var entry, entryErr = decodeShortTrackInfoEntry(r)
		if entryErr != nil {
			return TrackInfo{}, entryErr
		}
		entries = append(entries, entry)
	}

	return TrackInfo{Extended: false, Entries: entries}, nil
}

func decodeShortTrackInfoEntry(r *ByteReader) (TrackInfoEntry, error) {
	var hdr, err = r.ReadExact(4)
	if err != nil {
		return TrackInfoEntry{}, ErrTruncatedChunk
	}
	var entry TrackInfoEntry
	entry.TrackNumber = uint16(hdr[0]) | uint16(hdr[1])<<8 // little-endian track number
	var useGroupFlag = uint16(hdr[2])<<8 | uint16(hdr[3])

	for ch := 0; ch < 16; ch++ {
		if useGroupFlag&(1<<uint(ch)) != 0 {
			var g, gerr = r.ReadExact(2)
			if gerr != nil {
				return TrackInfoEntry{}, ErrTruncatedChunk
			}
			entry.SingleChannelGroups[ch] = uint16(g[0])<<8 | uint16(g[1])
		} else {
			entry.SingleChannelGroups[ch] = 1 << uint(ch)
		}
	}

	for ch := 0; ch < 16; ch++ {
		var g, gerr = r.ReadExact(2)
		if gerr != nil {
			return TrackInfoEntry{}, ErrTruncatedChunk
		}
		entry.ChannelGroups[ch] = uint16(g[0])<<8 | uint16(g[1])
	}

	for ch := 0; ch < 16; ch++ {
		var c, cerr = r.ReadExact(4)
		if cerr != nil {
			return TrackInfoEntry{}, ErrTruncatedChunk
		}
		entry.ChannelInfo[ch] = ChannelInfoEntry{
			Attribute:       uint16(c[0]),
			Ports:           uint16(c[1]),
			ControlChangeAx: c[2],
			ControlChangeCx: c[3],
		}
	}

	var sx, sxErr = r.ReadExact(2)
	if sxErr != nil {
		return TrackInfoEntry{}, ErrTruncatedChunk
	}
	entry.SystemExPorts = uint16(sx[0]) | uint16(sx[1])<<8 // little-endian

	return entry, nil
}

// DecodeExtendedTrackInfo parses the YPXI form: 8 reserved bytes, a
// 16-bit TG mode, a 16-bit entry count, then that many full-width
// entries (each carrying an explicit TrackStatus and 16-bit-wide
// per-channel attribute/ports fields plus the alternate-CC numbers).
func DecodeExtendedTrackInfo(payload []byte) (TrackInfo, error) {
	var r = NewByteReader(payload)

	if _, err := r.ReadExact(8); err != nil {
		return TrackInfo{}, ErrTruncatedChunk
	}

	var tgModeBuf, tgErr = r.ReadExact(2)
	if tgErr != nil {
		return TrackInfo{}, ErrTruncatedChunk
	}
	var tgMode = uint16(tgModeBuf[0])<<8 | uint16(tgModeBuf[1])

	var countBuf, countErr = r.ReadExact(2)
	if countErr != nil {
		return TrackInfo{}, ErrTruncatedChunk
	}
	var count = int(countBuf[0])<<8 | int(countBuf[1])

	var entries = make([]TrackInfoEntry, 0, count)
	for i := 0; i < count; i++ {
		var entry, err = decodeExtendedTrackInfoEntry(r)
		if err != nil {
			return TrackInfo{}, err
		}
		entries = append(entries, entry)
	}

	return TrackInfo{Extended: true, TGMode: tgMode, Entries: entries}, nil
}

func decodeExtendedTrackInfoEntry(r *ByteReader) (TrackInfoEntry, error) {
	var hdr, err = r.ReadExact(4)
	if err != nil {
		return TrackInfoEntry{}, ErrTruncatedChunk
	}
	var entry TrackInfoEntry
	entry.TrackNumber = uint16(hdr[0])
	entry.TrackStatus = hdr[1]
	// hdr[2:4] is reserved.

	for ch := 0; ch < 16; ch++ {
		var g, gerr = r.ReadExact(2)
		if gerr != nil {
			return TrackInfoEntry{}, ErrTruncatedChunk
		}
		entry.SingleChannelGroups[ch] = uint16(g[0])<<8 | uint16(g[1])
	}
	for ch := 0; ch < 16; ch++ {
		var g, gerr = r.ReadExact(2)
		if gerr != nil {
			return TrackInfoEntry{}, ErrTruncatedChunk
		}
		entry.ChannelGroups[ch] = uint16(g[0])<<8 | uint16(g[1])
	}
	for ch := 0; ch < 16; ch++ {
		var c, cerr = r.ReadExact(8)
		if cerr != nil {
			return TrackInfoEntry{}, ErrTruncatedChunk
		}
		entry.ChannelInfo[ch] = ChannelInfoEntry{
			Attribute:       uint16(c[0]) | uint16(c[1])<<8, // little-endian
			Ports:           uint16(c[2])<<8 | uint16(c[3]),
			Reserved:        uint16(c[4])<<8 | uint16(c[5]),
			ControlChangeAx: c[6],
			ControlChangeCx: c[7],
		}
	}

	var sx, sxErr = r.ReadExact(4)
	if sxErr != nil {
		return TrackInfoEntry{}, ErrTruncatedChunk
	}
	entry.SystemExPorts = uint16(sx[0])<<8 | uint16(sx[1])
	// sx[2:4] is reserved.

	return entry, nil
}

// DecodeP3TrackInfo parses the YP3I form used by scoring-reference
// files: a single entry shaped like a short-form entry, except that
// its header holds a one-byte track number followed by a track-status
// byte, channels without a group flag decode to a zero (identity)
// single-channel group, and only the low three bits of each channel's
// port byte are kept.
func DecodeP3TrackInfo(payload []byte) (TrackInfo, error) {
	var r = NewByteReader(payload)

	var hdr, err = r.ReadExact(4)
	if err != nil {
		return TrackInfo{}, ErrTruncatedChunk
	}
	var entry TrackInfoEntry
	entry.TrackNumber = uint16(hdr[0])
	entry.TrackStatus = hdr[1]
	var useGroupFlag = uint16(hdr[2])<<8 | uint16(hdr[3])

	for ch := 0; ch < 16; ch++ {
		if useGroupFlag&(1<<uint(ch)) != 0 {
			var g, gerr = r.ReadExact(2)
			if gerr != nil {
				return TrackInfo{}, ErrTruncatedChunk
			}
			entry.SingleChannelGroups[ch] = uint16(g[0])<<8 | uint16(g[1])
		}
	}
	for ch := 0; ch < 16; ch++ {
		var g, gerr = r.ReadExact(2)
		if gerr != nil {
			return TrackInfo{}, ErrTruncatedChunk
		}
		entry.ChannelGroups[ch] = uint16(g[0])<<8 | uint16(g[1])
	}
	for ch := 0; ch < 16; ch++ {
		var c, cerr = r.ReadExact(4)
		if cerr != nil {
			return TrackInfo{}, ErrTruncatedChunk
		}
		entry.ChannelInfo[ch] = ChannelInfoEntry{
			Attribute:       uint16(c[0]),
			Ports:           uint16(c[1]) & 0x07,
			ControlChangeAx: c[2],
			ControlChangeCx: c[3],
		}
	}

	var sx, sxErr = r.ReadExact(2)
	if sxErr != nil {
		return TrackInfo{}, ErrTruncatedChunk
	}
	entry.SystemExPorts = uint16(sx[0]) | uint16(sx[1])<<8 // little-endian

	return TrackInfo{Extended: false, Entries: []TrackInfoEntry{entry}}, nil
}

// IsGroupingStatus reports whether track_status marks this track as
// using raw tick durations (bit 0x08 set) rather than the shifted
// (x4) duration encoding.
func IsGroupingStatus(trackStatus uint8) bool {
	return trackStatus&0x08 != 0
}
