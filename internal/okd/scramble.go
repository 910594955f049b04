package okd

import "encoding/binary"

// scrambleTable is the fixed 256-entry key schedule used to XOR-scramble
// and descramble container payloads 16 bits at a time. The table has no
// arithmetic meaning to the format beyond "a fixed permutation"; its
// values are load-bearing constants, not derived at runtime.
var scrambleTable = [256]uint16{
	0x87D2, 0xCD62, 0xFC8D, 0x2BB8, 0x5AE3, 0x8A0E, 0xB939, 0xE864,
	0x178F, 0x46BA, 0x75E5, 0xA510, 0xD43B, 0x0366, 0x3291, 0x61BC,
	0x90E7, 0xC012, 0xEF3D, 0x1E68, 0x4D93, 0x7CBE, 0xABE9, 0xDB14,
	0x0A3F, 0x396A, 0x6895, 0x97C0, 0xC6EB, 0xF616, 0x2541, 0x546C,
	0x8397, 0xB2C2, 0xE1ED, 0x1118, 0x4043, 0x6F6E, 0x9E99, 0xCDC4,
	0xFCEF, 0x2C1A, 0x5B45, 0x8A70, 0xB99B, 0xE8C6, 0x17F1, 0x471C,
	0x7647, 0xA572, 0xD49D, 0x03C8, 0x32F3, 0x621E, 0x9149, 0xC074,
	0xEF9F, 0x1ECA, 0x4DF5, 0x7D20, 0xAC4B, 0xDB76, 0x0AA1, 0x39CC,
	0x68F7, 0x9822, 0xC74D, 0xF678, 0x25A3, 0x54CE, 0x83F9, 0xB324,
	0xE24F, 0x117A, 0x40A5, 0x6FD0, 0x9EFB, 0xCE26, 0xFD51, 0x2C7C,
	0x5BA7, 0x8AD2, 0xB9FD, 0xE928, 0x1853, 0x477E, 0x76A9, 0xA5D4,
	0xD4FF, 0x042A, 0x3355, 0x6280, 0x91AB, 0xC0D6, 0xF001, 0x1F2C,
	0x4E57, 0x7D82, 0xACAD, 0xDBD8, 0x0B03, 0x3A2E, 0x6959, 0x9884,
	0xC7AF, 0xF6DA, 0x2605, 0x5530, 0x845B, 0xB386, 0xE2B1, 0x11DC,
	0x4107, 0x7032, 0x9F5D, 0xCE88, 0xFDB3, 0x2CDE, 0x5C09, 0x8B34,
	0xBA5F, 0xE98A, 0x18B5, 0x47E0, 0x770B, 0xA636, 0xD561, 0x048C,
	0x2959, 0x6767, 0x920D, 0xC138, 0xF063, 0x1F8E, 0x4EB9, 0x7DE4,
	0xAD0F, 0xDC3A, 0x0B65, 0x3A90, 0x69BB, 0x98E6, 0xC811, 0xF73C,
	0x2667, 0x5592, 0x84BD, 0xB3E8, 0xE313, 0x123E, 0x4169, 0x7094,
	0x9FBF, 0xCEEA, 0xFE15, 0x2D40, 0x5C6B, 0x8B96, 0xBAC1, 0xE9EC,
	0x1917, 0x4842, 0x776D, 0xA698, 0xD5C3, 0x04EE, 0x3419, 0x6344,
	0x926F, 0xC19A, 0xF0C5, 0x1FF0, 0x4F1B, 0x7E46, 0xAD71, 0xDC9C,
	0x0BC7, 0x3AF2, 0x6A1D, 0x9948, 0xC873, 0xF79E, 0x26C9, 0x55F4,
	0x851F, 0xB44A, 0xE375, 0x12A0, 0x41CB, 0x70F6, 0xA021, 0xCF4C,
	0xFE77, 0x2DA2, 0x5CCD, 0x8BF8, 0xBB23, 0xEA4E, 0x1979, 0x48A4,
	0x77CF, 0xA6FA, 0xD625, 0x0550, 0x347B, 0x63A6, 0x92D1, 0xC1FC,
	0xF127, 0x2052, 0x4F7D, 0x7EA8, 0xADD3, 0xDCFE, 0x0C29, 0x3B54,
	0x6A7F, 0x99AA, 0xC8D5, 0xF800, 0x272B, 0x5656, 0x8581, 0xB4AC,
	0xE3D7, 0x1302, 0x422D, 0x7158, 0xA083, 0xCFAE, 0xFED9, 0x2E04,
	0x5D2F, 0x8C5A, 0xBB85, 0xEAB0, 0x19DB, 0x4906, 0x7831, 0xA75C,
	0xD687, 0x05B2, 0x34DD, 0x6408, 0x9333, 0xC25E, 0xF189, 0x20B4,
	0x4FDF, 0x7F0A, 0xAE35, 0xDD60, 0x0C8B, 0x3BB6, 0x6AE1, 0x9A0C,
}

// sprPrefix is the literal 4-byte tag that, when present at the front of
// a container, signals 16 reserved bytes to skip before key detection.
const sprPrefix = "SPRC"

// sprSkipBytes is the reserved span following an SPRC prefix.
const sprSkipBytes = 16

// scrambleWord XORs a 16-bit big-endian word at table index i (mod 256).
func scrambleWord(word uint16, i int) uint16 {
	return word ^ scrambleTable[i%256]
}

// scrambleBytes XORs buf in place, word by word, starting at table
// index start. An odd trailing byte is scrambled against the low byte
// of its word's key, matching the source format's byte-for-byte
// behaviour on odd-length payloads.
func scrambleBytes(buf []byte, start int) {
	var i = start
	var n = len(buf)
	for off := 0; off+1 < n; off += 2 {
		var word = binary.BigEndian.Uint16(buf[off : off+2])
		binary.BigEndian.PutUint16(buf[off:off+2], scrambleWord(word, i))
		i++
	}
	if n%2 == 1 {
		buf[n-1] ^= byte(scrambleTable[i%256])
	}
}

// Descramble is its own inverse: XOR is involutive.
func descrambleBytes(buf []byte, start int) {
	scrambleBytes(buf, start)
}

// detectKeyIndex scans the table for the starting index whose first
// 32-bit candidate, formed from two consecutive table entries, matches
// the expected value derived from observed-vs-plaintext magic bytes.
// K[256] virtualizes to K[0] since the table is cyclic.
func detectKeyIndex(expected uint32) (int, error) {
	for i := 0; i < 256; i++ {
		var hi = scrambleTable[i]
		var lo = scrambleTable[(i+1)%256]
		var candidate = uint32(hi)<<16 | uint32(lo)
		if candidate == expected {
			return i, nil
		}
	}
	return 0, ErrUnknownKey
}

// detectKeyIndexFromMagic derives the expected XOR pattern from the
// four ciphertext bytes observed at the start of the header and one of
// the two valid plaintext magics, returning the matching key index.
func detectKeyIndexFromMagic(ciphertext [4]byte, plaintext [4]byte) (int, error) {
	var cipherWord = uint32(binary.BigEndian.Uint16(ciphertext[0:2]))<<16 | uint32(binary.BigEndian.Uint16(ciphertext[2:4]))
	var plainWord = uint32(binary.BigEndian.Uint16(plaintext[0:2]))<<16 | uint32(binary.BigEndian.Uint16(plaintext[2:4]))
	return detectKeyIndex(cipherWord ^ plainWord)
}

var validMagics = [][4]byte{
	{'Y', 'K', 'S', '1'},
	{'Y', 'O', 'K', 'A'},
}

// DetectKeyIndexAndMagic tries both valid plaintext magics against the
// observed ciphertext header prefix and returns whichever key index and
// magic agree.
func DetectKeyIndexAndMagic(ciphertext [4]byte) (keyIndex int, magic [4]byte, err error) {
	for _, candidate := range validMagics {
		var idx, detectErr = detectKeyIndexFromMagic(ciphertext, candidate)
		if detectErr == nil {
			return idx, candidate, nil
		}
	}
	return 0, [4]byte{}, ErrUnknownKey
}
