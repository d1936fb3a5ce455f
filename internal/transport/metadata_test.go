package transport_test

import (
	"testing"

	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
	"github.com/esscbee/hifi/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataEncodeDecodeRoundTrips(t *testing.T) {
	m := transport.Metadata{
		Kind:             source.KindInjector,
		Pose:             spatial.Vec3{X: 1.5, Y: -2.25, Z: 3},
		Bearing:          -90,
		AttenuationRatio: 0.75,
	}

	decoded, rest, err := transport.DecodeMetadata(m.Encode())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, m, decoded)
}

func TestEncodePayloadPlacesMetadataAheadOfPCM(t *testing.T) {
	m := transport.Metadata{Kind: source.KindAvatar, Pose: spatial.Vec3{X: 1}}
	pcm := []int16{10, -10, 20}

	payload := transport.EncodePayload(m, pcm)

	decoded, rest, err := transport.DecodeMetadata(payload)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
	assert.Equal(t, pcm, transport.BytesToSamples(rest))
}

func TestDecodeMetadataRejectsShortPayload(t *testing.T) {
	_, _, err := transport.DecodeMetadata([]byte{1, 2, 3})
	assert.Error(t, err)
}
