package okd

// MaxVarInt is the largest value representable by a single (non-extended)
// variable-int: 0x7F + 0x7F<<6 + 0x3F<<12, since each continued byte
// counts its 0x40 bit as well as its 6-bit limb.
const MaxVarInt = 0x04103F

const varIntContinuation = 0x40

// ReadVarInt decodes a single radix-64 variable-int: up to three
// little-endian 6-bit limbs, each byte's 0x40 bit marking "more
// follows". A byte contributes its low seven bits at its limb position,
// so a set continuation bit also adds one to the next limb. A fourth
// continued limb is a corrupt stream.
func ReadVarInt(r *ByteReader) (uint32, error) {
	var value uint32
	for limb := 0; ; limb++ {
		if limb == 3 {
			return 0, ErrCorruptVarInt
		}
		var b, err = r.ReadByte()
		if err != nil {
			return 0, ErrTruncatedChunk
		}
		value += uint32(b&0x7F) << (6 * uint(limb))
		if b&varIntContinuation == 0 {
			return value, nil
		}
	}
}

// WriteVarInt encodes v (which must be <= MaxVarInt) as 1-3 limbs, the
// inverse of ReadVarInt.
func WriteVarInt(w *ByteWriter, v uint32) {
	for n := 0; n < 2 && v >= varIntContinuation; n++ {
		w.WriteByte(varIntContinuation | byte(v&0x3F))
		v = v>>6 - 1
	}
	w.WriteByte(byte(v & 0x3F))
}

// ReadExtendedVarInt decodes the extended delta-time form: a run of
// plain variable-ints, summed, continuing for as long as the next byte
// is a data byte (top bit clear). It stops at end-of-stream or when the
// next byte looks like a status byte (top bit set) without consuming it.
func ReadExtendedVarInt(r *ByteReader) (uint32, error) {
	var total uint32
	for {
		var v, err = ReadVarInt(r)
		if err != nil {
			return 0, err
		}
		total += v

		var peeked = r.Peek(1)
		if len(peeked) == 0 || peeked[0]&0x80 != 0 {
			return total, nil
		}
	}
}

// WriteExtendedVarInt is the symmetric encoder: it splits v into
// MaxVarInt-sized chunks, one variable-int each, with at least one
// variable-int emitted for v == 0.
func WriteExtendedVarInt(w *ByteWriter, v uint32) {
	if v == 0 {
		WriteVarInt(w, 0)
		return
	}
	for v > 0 {
		var chunk = v
		if chunk > MaxVarInt {
			chunk = MaxVarInt
		}
		WriteVarInt(w, chunk)
		v -= chunk
	}
}
