package okd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTrackInfoMarksDrumChannelOnChunkOne(t *testing.T) {
	var pTracks = map[byte][]PTrackEvent{
		1: {{Kind: PTrackNote, Channel: 9, Data: []byte{36, 100}}},
	}

	var info = DeriveTrackInfo(pTracks)

	require.Len(t, info.Entries, 1)
	assert.Equal(t, uint16(127), info.Entries[0].ChannelInfo[9].Attribute)
	assert.Equal(t, uint16(0), info.Entries[0].ChannelInfo[8].Attribute)
	assert.Equal(t, uint16(1)<<1, info.Entries[0].ChannelInfo[9].Ports)
	assert.False(t, info.Extended)
}

func TestDeriveTrackInfoUsesExtendedFormForMoreThanTwoTracks(t *testing.T) {
	var pTracks = map[byte][]PTrackEvent{0: nil, 1: nil, 2: nil}

	var info = DeriveTrackInfo(pTracks)

	assert.True(t, info.Extended)
}

func TestEncodeContainerAndDecodeTrackInfoRoundTrip(t *testing.T) {
	var pTracks = map[byte][]PTrackEvent{
		0: {{Kind: PTrackNote, Channel: 0, Data: []byte{60, 100}, Duration: 10}},
	}

	var body = EncodeContainer(ComposeInput{PTracks: pTracks})

	var chunks, err = IndexChunks(append(body, 0, 0, 0, 0))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var kind, _ = ClassifyTag(chunks[0].Tag)
	assert.Equal(t, ChunkTrackInfo, kind)

	var info, infoErr = DecodeTrackInfo(chunks[0].Payload)
	require.NoError(t, infoErr)
	require.Len(t, info.Entries, 1)
}
