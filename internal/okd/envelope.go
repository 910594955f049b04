package okd

import (
	"encoding/binary"
)

const headerSize = 40

// HeaderKind names the five option-data shapes the envelope may carry.
type HeaderKind int

const (
	HeaderGeneric HeaderKind = iota
	HeaderMmt
	HeaderMmk
	HeaderSpr
	HeaderDio
)

// Header is the decoded fixed-part-plus-option-data envelope header. The
// CRC and sub-chunk-length fields beyond the fixed part are opaque to
// the core: they are preserved for round-trip but never recomputed or
// validated, since nothing downstream consumes them.
type Header struct {
	Magic          [4]byte
	Length         uint32
	Version        [16]byte
	KaraokeID      uint32
	AdpcmOffset    uint32
	EncryptionMode uint32
	Kind           HeaderKind
	OptionData     []byte
}

// YKS1 and YOKA are the two valid envelope magics: YKS1 fronts ordinary
// karaoke containers, YOKA fronts the alternate "OKA" container family
// used for M3/ONTA variants.
var (
	MagicYKS1 = [4]byte{'Y', 'K', 'S', '1'}
	MagicYOKA = [4]byte{'Y', 'O', 'K', 'A'}
)

func classifyOptionDataLength(n int) HeaderKind {
	switch n {
	case 12:
		return HeaderMmt
	case 20:
		return HeaderMmk
	case 24:
		return HeaderSpr
	case 32:
		return HeaderDio
	default:
		return HeaderGeneric
	}
}

// DecodedEnvelope is the result of Decode: the parsed header, the
// descrambled chunk body (without the option-data prefix already
// captured in Header), and any opaque tail bytes (the ADPCM region)
// copied through verbatim.
type DecodedEnvelope struct {
	Header Header
	Body   []byte
	Tail   []byte
}

// Decode absorbs an optional SPRC prefix, detects the scramble key,
// parses the 40-byte fixed header plus variant option data, and
// descrambles the chunk body. The opaque tail — present when
// AdpcmOffset is non-zero — is located relative to the start of the
// body and copied through without descrambling.
func Decode(raw []byte) (*DecodedEnvelope, error) {
	var r = NewByteReader(raw)

	if len(r.Peek(4)) == 4 && string(r.Peek(4)) == sprPrefix {
		if err := r.SeekAbsolute(sprSkipBytes); err != nil {
			return nil, err
		}
	} else {
		if err := r.SeekAbsolute(0); err != nil {
			return nil, err
		}
	}

	var startPosition = r.Tell()

	var magicBytes = r.Peek(4)
	if len(magicBytes) != 4 {
		return nil, ErrTruncatedHeader
	}
	var ciphertext [4]byte
	copy(ciphertext[:], magicBytes)

	keyIndex, magic, err := DetectKeyIndexAndMagic(ciphertext)
	if err != nil {
		return nil, err
	}

	var fixedCipher, fixedErr = r.ReadExact(headerSize)
	if fixedErr != nil {
		return nil, ErrTruncatedHeader
	}
	var fixed = append([]byte(nil), fixedCipher...)
	descrambleBytes(fixed, keyIndex)

	if string(fixed[0:4]) != string(magic[:]) {
		return nil, ErrBadMagic
	}

	var header Header
	copy(header.Magic[:], magic[:])
	header.Length = binary.BigEndian.Uint32(fixed[4:8])
	copy(header.Version[:], fixed[8:24])
	header.KaraokeID = binary.BigEndian.Uint32(fixed[24:28])
	header.AdpcmOffset = binary.BigEndian.Uint32(fixed[28:32])
	header.EncryptionMode = binary.BigEndian.Uint32(fixed[32:36])
	var optionDataLength = binary.BigEndian.Uint32(fixed[36:40])

	// The key schedule advances one index per 16-bit word already
	// consumed; headerSize/2 words were consumed by the fixed part.
	var optionKeyIndex = keyIndex + headerSize/2

	var optionCipher, optionErr = r.ReadExact(int(optionDataLength))
	if optionErr != nil {
		return nil, ErrTruncatedHeader
	}
	var optionData = append([]byte(nil), optionCipher...)
	descrambleBytes(optionData, optionKeyIndex)

	header.Kind = classifyOptionDataLength(len(optionData))
	header.OptionData = optionData

	var dataOffset = r.Tell() - startPosition
	var dataLength = int(header.Length) - dataOffset

	var extendedDataOffset int
	if header.AdpcmOffset != 0 {
		extendedDataOffset = int(header.AdpcmOffset) - headerSize
	}

	var extendedDataLength int
	if header.AdpcmOffset != 0 {
		extendedDataLength = dataLength - extendedDataOffset
	}

	var scrambledLength = dataLength - extendedDataLength
	if scrambledLength < 0 {
		return nil, ErrTruncatedChunk
	}

	var bodyCipher, bodyErr = r.ReadExact(scrambledLength)
	if bodyErr != nil {
		return nil, ErrTruncatedChunk
	}
	var body = append([]byte(nil), bodyCipher...)
	descrambleBytes(body, optionKeyIndex+int(optionDataLength)/2)

	var tail = append([]byte(nil), r.Rest()...)

	return &DecodedEnvelope{Header: header, Body: body, Tail: tail}, nil
}

// Encode serializes chunks (already framed) plus a zero trailer,
// builds a header around them, and scrambles the whole thing starting
// at the caller-supplied keyIndex. header.Length and header.AdpcmOffset
// are overwritten to match the composed body; header.OptionData is
// carried as-is, so passing through a decoded header preserves its
// option-data variant across a decode/re-encode.
func Encode(header Header, chunkBody []byte, keyIndex int) []byte {
	var body = append(append([]byte(nil), chunkBody...), 0, 0, 0, 0)

	header.Length = uint32(headerSize + len(header.OptionData) + len(body))
	header.AdpcmOffset = 0

	var w = NewByteWriter()

	var fixed = make([]byte, headerSize)
	copy(fixed[0:4], header.Magic[:])
	binary.BigEndian.PutUint32(fixed[4:8], header.Length)
	copy(fixed[8:24], header.Version[:])
	binary.BigEndian.PutUint32(fixed[24:28], header.KaraokeID)
	binary.BigEndian.PutUint32(fixed[28:32], header.AdpcmOffset)
	binary.BigEndian.PutUint32(fixed[32:36], header.EncryptionMode)
	binary.BigEndian.PutUint32(fixed[36:40], uint32(len(header.OptionData)))

	scrambleBytes(fixed, keyIndex)
	w.Write(fixed)

	var optionData = append([]byte(nil), header.OptionData...)
	scrambleBytes(optionData, keyIndex+headerSize/2)
	w.Write(optionData)

	var optionKeyIndex = keyIndex + headerSize/2 + len(header.OptionData)/2
	scrambleBytes(body, optionKeyIndex)
	w.Write(body)

	return w.Bytes()
}

// OptionField is one named integer carved out of a header's option
// data. The values are opaque to the codec (never validated or
// recomputed); the named view exists for reporting.
type OptionField struct {
	Name  string
	Value uint32
}

// OptionFields decodes the option-data blob into the variant's named
// sub-chunk lengths and CRC fields. Unrecognized (generic) variants
// and short blobs yield no fields.
func (h Header) OptionFields() []OptionField {
	var layout []struct {
		name  string
		width int
	}

	switch h.Kind {
	case HeaderMmt:
		layout = []struct {
			name  string
			width int
		}{
			{"yks_chunks_length", 4}, {"mmt_chunks_length", 4},
			{"crc_yks_loader", 2}, {"crc_loader", 2},
		}
	case HeaderMmk:
		layout = []struct {
			name  string
			width int
		}{
			{"yks_chunks_length", 4}, {"mmt_chunks_length", 4}, {"mmk_chunks_length", 4},
			{"crc_yks_loader", 2}, {"crc_yks_mmk_okd", 2}, {"crc_loader", 2},
		}
	case HeaderSpr:
		layout = []struct {
			name  string
			width int
		}{
			{"yks_chunks_length", 4}, {"mmt_chunks_length", 4}, {"mmk_chunks_length", 4}, {"spr_chunks_length", 4},
			{"crc_yks_loader", 2}, {"crc_yks_mmt_okd", 2}, {"crc_yks_mmt_mmk_okd", 2}, {"crc_loader", 2},
		}
	case HeaderDio:
		layout = []struct {
			name  string
			width int
		}{
			{"yks_chunks_length", 4}, {"mmt_chunks_length", 4}, {"mmk_chunks_length", 4},
			{"spr_chunks_length", 4}, {"dio_chunks_length", 4},
			{"crc_yks_loader", 2}, {"crc_yks_mmk_okd", 2}, {"crc_yks_mmt_mmk_okd", 2},
			{"crc_yks_mmt_mmk_spr_okd", 2}, {"crc_loader", 2},
		}
	default:
		return nil
	}

	var fields []OptionField
	var off = 0
	for _, f := range layout {
		if off+f.width > len(h.OptionData) {
			break
		}
		var v uint32
		if f.width == 4 {
			v = binary.BigEndian.Uint32(h.OptionData[off : off+4])
		} else {
			v = uint32(binary.BigEndian.Uint16(h.OptionData[off : off+2]))
		}
		fields = append(fields, OptionField{Name: f.name, Value: v})
		off += f.width
	}
	return fields
}

// RandomKeyIndex is exposed so callers composing new containers can
// obtain a fresh scramble starting point without depending on the
// math/rand global directly.
func RandomKeyIndex(source func(n int) int) int {
	return source(256)
}
