package okd

// AdpcmBlob is one YAWV sub-blob nested inside a YADD chunk: an
// opaque ADPCM-encoded waveform the core transports verbatim without
// interpreting.
type AdpcmBlob struct {
	Data []byte
}

var tagYAWV = [4]byte{'Y', 'A', 'W', 'V'}

// DecodeAdpcmChunk splits a YADD chunk's payload into its nested YAWV
// sub-blobs.
func DecodeAdpcmChunk(payload []byte) ([]AdpcmBlob, error) {
	var r = NewByteReader(payload)
	var blobs []AdpcmBlob

	for r.Len() >= chunkHeaderSize {
		var hdr, err = r.ReadExact(chunkHeaderSize)
		if err != nil {
			return nil, ErrTruncatedChunk
		}
		var tag [4]byte
		copy(tag[:], hdr[0:4])
		if tag != tagYAWV {
			return nil, ErrTruncatedChunk
		}
		var size = int(hdr[4])<<24 | int(hdr[5])<<16 | int(hdr[6])<<8 | int(hdr[7])

		var data, dataErr = r.ReadExact(size)
		if dataErr != nil {
			return nil, ErrTruncatedChunk
		}
		blobs = append(blobs, AdpcmBlob{Data: append([]byte(nil), data...)})
	}

	return blobs, nil
}

// EncodeAdpcmChunk serializes blobs back into a YADD chunk's payload.
func EncodeAdpcmChunk(blobs []AdpcmBlob) []byte {
	var w = NewByteWriter()
	for _, b := range blobs {
		WriteChunk(w, tagYAWV, b.Data)
	}
	return w.Bytes()
}
