package okd

import "encoding/binary"

const chunkHeaderSize = 8

// RawChunk is a single tag+length+payload unit from the descrambled
// body, before dispatch to a typed decoder.
type RawChunk struct {
	Tag     [4]byte
	Payload []byte
}

// IndexChunks scans body as a sequence of tag/be32-length/payload
// triples, stopping when the next three bytes are zero (the start of
// the 4-byte zero trailer, whose bytes are left unread) or when fewer
// bytes than a chunk header remain.
func IndexChunks(body []byte) ([]RawChunk, error) {
	var chunks []RawChunk
	var r = NewByteReader(body)

	for {
		var lookahead = r.Peek(3)
		if len(lookahead) == 3 && lookahead[0] == 0 && lookahead[1] == 0 && lookahead[2] == 0 {
			break
		}
		if r.Len() < chunkHeaderSize {
			break
		}

		var hdr, err = r.ReadExact(chunkHeaderSize)
		if err != nil {
			return nil, ErrTruncatedChunk
		}
		var tag [4]byte
		copy(tag[:], hdr[0:4])
		var size = binary.BigEndian.Uint32(hdr[4:8])

		var payload, payloadErr = r.ReadExact(int(size))
		if payloadErr != nil {
			return nil, ErrTruncatedChunk
		}

		chunks = append(chunks, RawChunk{Tag: tag, Payload: append([]byte(nil), payload...)})
	}

	return chunks, nil
}

// WriteChunk appends tag + be32(len) + payload to w, padding payload to
// an even length with a trailing zero byte when needed.
func WriteChunk(w *ByteWriter, tag [4]byte, payload []byte) {
	var padded = payload
	if len(padded)%2 == 1 {
		padded = append(append([]byte(nil), padded...), 0)
	}
	w.Write(tag[:])
	w.WriteBE32(uint32(len(padded)))
	w.Write(padded)
}

// ChunkKind names the dispatch classes a raw chunk's tag resolves to.
type ChunkKind int

const (
	ChunkGeneric ChunkKind = iota
	ChunkTrackInfo
	ChunkExtendedTrackInfo
	ChunkP3TrackInfo
	ChunkMTrack
	ChunkPTrack
	ChunkAdpcm
)

var (
	tagYPTI = [4]byte{'Y', 'P', 'T', 'I'}
	tagYPXI = [4]byte{'Y', 'P', 'X', 'I'}
	tagYP3I = [4]byte{'Y', 'P', '3', 'I'}
	tagYADD = [4]byte{'Y', 'A', 'D', 'D'}
)

// ClassifyTag dispatches a chunk tag to its kind and, for M-track and
// P-track chunks, the subindex carried in the tag's fourth byte.
func ClassifyTag(tag [4]byte) (kind ChunkKind, subindex byte) {
	switch {
	case tag == tagYPTI:
		return ChunkTrackInfo, 0
	case tag == tagYPXI:
		return ChunkExtendedTrackInfo, 0
	case tag == tagYP3I:
		return ChunkP3TrackInfo, 0
	case tag == tagYADD:
		return ChunkAdpcm, 0
	case tag[0] == 0xFF && tag[1] == 'M' && tag[2] == 'R':
		return ChunkMTrack, tag[3]
	case tag[0] == 0xFF && tag[1] == 'P' && tag[2] == 'R':
		return ChunkPTrack, tag[3]
	default:
		return ChunkGeneric, 0
	}
}
