package okd

// ComposeInput is the set of typed chunks accepted by the encode
// pipeline.
type ComposeInput struct {
	TrackInfo *TrackInfo // explicit P-info; derived automatically when nil
	P3Info    *TrackInfo // optional single-track P3-info
	MTracks   map[byte][]MTrackEvent
	PTracks   map[byte][]PTrackEvent
	Adpcm     [][]AdpcmBlob
}

// DeriveTrackInfo builds a P-track-info chunk automatically from a set
// of P-tracks when the caller supplies none explicitly: short form
// when there are at most two tracks, extended form otherwise. Channel
// attributes follow the drum-flag convention: 127 for channel 9 of
// chunk 1, 255 wherever any message touches that channel, 0 otherwise.
func DeriveTrackInfo(pTracks map[byte][]PTrackEvent) TrackInfo {
	var subindexes = sortedKeys(pTracks)
	var extended = len(subindexes) > 2

	var entries []TrackInfoEntry
	for _, sub := range subindexes {
		var entry TrackInfoEntry
		entry.TrackNumber = uint16(sub)
		entry.TrackStatus = 0x40
		var ports = uint16(1) << uint(sub)
		entry.SystemExPorts = ports

		var usedChannels [16]bool
		for _, e := range pTracks[sub] {
			if e.Kind == PTrackNote || e.Kind == PTrackControlChange || e.Kind == PTrackPitchBend ||
				e.Kind == PTrackChannelPressure || e.Kind == PTrackAlternateCCAx || e.Kind == PTrackAlternateCCCx {
				usedChannels[e.Channel] = true
			}
		}

		for ch := 0; ch < 16; ch++ {
			// Group bitmaps of zero mean single-channel identity fanout.
			var attribute uint16
			if usedChannels[ch] {
				attribute = IfThenElse[uint16](sub == 1 && ch == 9, 127, 255)
			}
			entry.ChannelInfo[ch] = ChannelInfoEntry{Attribute: attribute, Ports: ports}
		}

		entries = append(entries, entry)
	}

	return TrackInfo{Extended: extended, Entries: entries}
}

// EncodeContainer serializes a ComposeInput into chunk bytes (without
// the envelope), deriving track-info when the caller omitted it.
func EncodeContainer(input ComposeInput) []byte {
	var w = NewByteWriter()

	// A scoring-reference container carries only a P3 info chunk; the
	// P-track-info chunk is derived only when no explicit info of either
	// kind was supplied.
	switch {
	case input.TrackInfo != nil:
		writeTrackInfoChunk(w, *input.TrackInfo)
	case input.P3Info == nil:
		writeTrackInfoChunk(w, DeriveTrackInfo(input.PTracks))
	}

	if input.P3Info != nil {
		writeP3TrackInfoChunk(w, *input.P3Info)
	}

	for _, sub := range sortedKeys(input.MTracks) {
		var body = NewByteWriter()
		EncodeMTrack(body, input.MTracks[sub])
		WriteChunk(w, [4]byte{0xFF, 'M', 'R', sub}, body.Bytes())
	}

	for _, sub := range sortedKeys(input.PTracks) {
		var body = NewByteWriter()
		EncodePTrack(body, input.PTracks[sub])
		WriteChunk(w, [4]byte{0xFF, 'P', 'R', sub}, body.Bytes())
	}

	for _, blobs := range input.Adpcm {
		WriteChunk(w, tagYADD, EncodeAdpcmChunk(blobs))
	}

	return w.Bytes()
}

func writeTrackInfoChunk(w *ByteWriter, info TrackInfo) {
	var body = NewByteWriter()
	if info.Extended {
		body.Write(make([]byte, 8))
		body.WriteBE16(info.TGMode)
		body.WriteBE16(uint16(len(info.Entries)))
		for _, e := range info.Entries {
			writeExtendedTrackInfoEntry(body, e)
		}
		WriteChunk(w, tagYPXI, body.Bytes())
		return
	}

	body.WriteBE16(uint16(len(info.Entries)))
	for _, e := range info.Entries {
		writeShortTrackInfoEntry(body, e)
	}
	WriteChunk(w, tagYPTI, body.Bytes())
}

func writeShortTrackInfoEntry(w *ByteWriter, e TrackInfoEntry) {
	w.WriteByte(byte(e.TrackNumber))
	w.WriteByte(byte(e.TrackNumber >> 8))

	// The flag word marks which channels carry an explicit
	// single-channel group; clear bits decode to identity fanout.
	var useGroupFlag uint16
	for ch := 0; ch < 16; ch++ {
		var g = e.SingleChannelGroups[ch]
		if g != 0 && g != 1<<uint(ch) {
			useGroupFlag |= 1 << uint(ch)
		}
	}
	w.WriteBE16(useGroupFlag)

	for ch := 0; ch < 16; ch++ {
		if useGroupFlag&(1<<uint(ch)) != 0 {
			w.WriteBE16(e.SingleChannelGroups[ch])
		}
	}
	for ch := 0; ch < 16; ch++ {
		w.WriteBE16(e.ChannelGroups[ch])
	}
	for ch := 0; ch < 16; ch++ {
		w.WriteByte(byte(e.ChannelInfo[ch].Attribute))
		w.WriteByte(byte(e.ChannelInfo[ch].Ports))
		w.WriteByte(e.ChannelInfo[ch].ControlChangeAx)
		w.WriteByte(e.ChannelInfo[ch].ControlChangeCx)
	}
	w.WriteByte(byte(e.SystemExPorts))
	w.WriteByte(byte(e.SystemExPorts >> 8))
}

func writeExtendedTrackInfoEntry(w *ByteWriter, e TrackInfoEntry) {
	w.WriteByte(byte(e.TrackNumber))
	w.WriteByte(e.TrackStatus)
	w.WriteBE16(0)

	for ch := 0; ch < 16; ch++ {
		w.WriteBE16(e.SingleChannelGroups[ch])
	}
	for ch := 0; ch < 16; ch++ {
		w.WriteBE16(e.ChannelGroups[ch])
	}
	for ch := 0; ch < 16; ch++ {
		var ci = e.ChannelInfo[ch]
		w.WriteByte(byte(ci.Attribute))
		w.WriteByte(byte(ci.Attribute >> 8))
		w.WriteBE16(ci.Ports)
		w.WriteBE16(ci.Reserved)
		w.WriteByte(ci.ControlChangeAx)
		w.WriteByte(ci.ControlChangeCx)
	}
	w.WriteBE16(e.SystemExPorts)
	w.WriteBE16(0)
}

func writeP3TrackInfoChunk(w *ByteWriter, info TrackInfo) {
	if len(info.Entries) == 0 {
		return
	}
	var e = info.Entries[0]
	var body = NewByteWriter()
	body.WriteByte(byte(e.TrackNumber))
	body.WriteByte(e.TrackStatus)

	var useGroupFlag uint16
	for ch := 0; ch < 16; ch++ {
		if e.SingleChannelGroups[ch] != 0 {
			useGroupFlag |= 1 << uint(ch)
		}
	}
	body.WriteBE16(useGroupFlag)

	for ch := 0; ch < 16; ch++ {
		if useGroupFlag&(1<<uint(ch)) != 0 {
			body.WriteBE16(e.SingleChannelGroups[ch])
		}
	}
	for ch := 0; ch < 16; ch++ {
		body.WriteBE16(e.ChannelGroups[ch])
	}
	for ch := 0; ch < 16; ch++ {
		var ci = e.ChannelInfo[ch]
		body.WriteByte(byte(ci.Attribute))
		body.WriteByte(byte(ci.Ports))
		body.WriteByte(ci.ControlChangeAx)
		body.WriteByte(ci.ControlChangeCx)
	}
	body.WriteByte(byte(e.SystemExPorts))
	body.WriteByte(byte(e.SystemExPorts >> 8))

	WriteChunk(w, tagYP3I, body.Bytes())
}

// DefaultOutputHeader is the fixed profile composed containers carry:
// encryption mode 1, no ADPCM tail, and the version string observed in
// the wild for composed files.
func DefaultOutputHeader() Header {
	var h Header
	copy(h.Magic[:], MagicYKS1[:])
	copy(h.Version[:], []byte("YKS-1   v6.0v110"))
	h.EncryptionMode = 1
	return h
}

// EncodePipeline serializes a ComposeInput into a complete scrambled
// container image under the default output profile. keyIndex picks the
// scramble starting point; pass RandomKeyIndex(...) for fresh output.
func EncodePipeline(input ComposeInput, keyIndex int) []byte {
	var chunkBody = EncodeContainer(input)
	return Encode(DefaultOutputHeader(), chunkBody, keyIndex)
}
