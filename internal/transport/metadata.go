package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
)

// MetadataSize is the encoded length of Metadata in bytes: one kind byte
// followed by five little-endian float32 fields (pose x/y/z, bearing,
// attenuation ratio).
const MetadataSize = 1 + 5*4

// Metadata carries spec.md §6's per-packet pose fields, which RTP itself has
// no room for: a mic packet needs pose, an injector packet needs pose plus
// an attenuation ratio. It is prepended to the PCM payload before RTP
// framing rather than squeezed into a one-byte header extension, since a
// one-byte RFC 5285 extension caps out at 16 bytes and this needs 21.
type Metadata struct {
	Kind             source.Kind
	Pose             spatial.Vec3
	Bearing          float64
	AttenuationRatio float64
}

// Encode writes m as a fixed MetadataSize-byte prefix.
func (m Metadata) Encode() []byte {
	buf := make([]byte, MetadataSize)
	buf[0] = byte(m.Kind)
	putFloat32(buf[1:5], float32(m.Pose.X))
	putFloat32(buf[5:9], float32(m.Pose.Y))
	putFloat32(buf[9:13], float32(m.Pose.Z))
	putFloat32(buf[13:17], float32(m.Bearing))
	putFloat32(buf[17:21], float32(m.AttenuationRatio))
	return buf
}

// DecodeMetadata reads a Metadata prefix from the front of payload and
// returns it alongside the remaining bytes (the PCM payload).
func DecodeMetadata(payload []byte) (Metadata, []byte, error) {
	if len(payload) < MetadataSize {
		return Metadata{}, nil, fmt.Errorf("payload too short for metadata: %d bytes", len(payload))
	}
	m := Metadata{
		Kind: source.Kind(payload[0]),
		Pose: spatial.Vec3{
			X: float64(getFloat32(payload[1:5])),
			Y: float64(getFloat32(payload[5:9])),
			Z: float64(getFloat32(payload[9:13])),
		},
		Bearing:          float64(getFloat32(payload[13:17])),
		AttenuationRatio: float64(getFloat32(payload[17:21])),
	}
	return m, payload[MetadataSize:], nil
}

// EncodePayload prepends m's encoding to pcm's byte representation, giving
// the raw payload a Packetizer.PacketizeRaw call should wrap in RTP.
func EncodePayload(m Metadata, pcm []int16) []byte {
	return append(m.Encode(), SamplesToBytes(pcm)...)
}

func putFloat32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
