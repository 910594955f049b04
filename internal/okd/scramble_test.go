package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestScrambleIsInvolutive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(t, "payload")
		var start = rapid.IntRange(0, 255).Draw(t, "start")

		var buf = append([]byte(nil), payload...)

		scrambleBytes(buf, start)
		scrambleBytes(buf, start)

		assert.Equal(t, payload, buf)
	})
}

func TestDetectKeyIndexAndMagicRecoversScrambledHeader(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var keyIndex = rapid.IntRange(0, 255).Draw(t, "keyIndex")
		var useOka = rapid.Bool().Draw(t, "useOka")

		var magic = [4]byte{'Y', 'K', 'S', '1'}
		if useOka {
			magic = [4]byte{'Y', 'O', 'K', 'A'}
		}

		var buf = append([]byte(nil), magic[:]...)
		scrambleBytes(buf, keyIndex)

		var cipher [4]byte
		copy(cipher[:], buf)

		var gotIndex, gotMagic, err = DetectKeyIndexAndMagic(cipher)

		require.NoError(t, err)
		assert.Equal(t, keyIndex, gotIndex)
		assert.Equal(t, magic, gotMagic)
	})
}

func TestDetectKeyIndexFailsOnGarbage(t *testing.T) {
	var cipher = [4]byte{0x00, 0x00, 0x00, 0x00}

	var _, _, err = DetectKeyIndexAndMagic(cipher)

	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestScrambleTableHas256UniqueEntries(t *testing.T) {
	var seen = make(map[uint16]bool, 256)
	for _, v := range scrambleTable {
		seen[v] = true
	}
	assert.Len(t, seen, 256)
}
