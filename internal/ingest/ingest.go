// Package ingest dispatches an inbound packet to the correct source state,
// per spec.md §4.4.
//
// Grounded on the teacher's receiver/audioProcessor.go and
// receiver/receiver.go's convertBytesToSamples, which do the same
// packet-to-buffer dispatch for its single hardcoded peer; this generalizes
// it to the registry's many sources.
package ingest

import (
	"strconv"
	"time"

	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
	"github.com/esscbee/hifi/internal/transport"
)

// Packet is the inbound packet shape spec.md §6 defines, after the
// transport layer has stripped RTP/UDP framing.
type Packet struct {
	Kind             source.Kind
	Identity         string
	StreamID         source.StreamID
	PCMBytes         []byte
	Pose             spatial.Vec3
	Bearing          float64
	AttenuationRatio float64 // only meaningful for kind == KindInjector
}

// FromInbound decodes a transport.Inbound's Metadata prefix into a Packet.
// Identity is derived from the RTP SSRC: avatars and injectors alike name
// themselves by the decimal string of the numeric id they packetize with,
// since spec.md's identity is opaque and the wire format here has no
// separate string-identity field to spend bytes on.
func FromInbound(in transport.Inbound) (Packet, error) {
	meta, pcmBytes, err := transport.DecodeMetadata(in.Packet.RawPayload)
	if err != nil {
		return Packet{}, err
	}
	return Packet{
		Kind:             meta.Kind,
		Identity:         strconv.FormatUint(uint64(in.Packet.SSRC), 10),
		StreamID:         in.Packet.StreamID,
		PCMBytes:         pcmBytes,
		Pose:             meta.Pose,
		Bearing:          meta.Bearing,
		AttenuationRatio: meta.AttenuationRatio,
	}, nil
}

// Ingester resolves or creates a packet's source state and writes its
// payload into that source's ring buffer.
type Ingester struct {
	registry *source.Registry
}

func New(registry *source.Registry) *Ingester {
	return &Ingester{registry: registry}
}

// Apply resolves/creates pkt's source, notifies its gap tracker, updates its
// pose (and attenuation ratio for injectors), and writes the PCM payload.
// A malformed-length payload's trailing odd byte is silently discarded by
// the byte-to-sample conversion, matching spec.md §4.4.
func (i *Ingester) Apply(pkt Packet, now time.Time) *source.State {
	s := i.registry.ResolveOrCreate(pkt.Identity, pkt.Kind, pkt.StreamID)

	s.Pose = pkt.Pose
	s.Bearing = pkt.Bearing
	if pkt.Kind == source.KindInjector {
		s.AttenuationRatio = pkt.AttenuationRatio
	}

	s.Tracker.OnFrameReceived(now)
	s.Buffer.Write(pkt.Identity, transport.BytesToSamples(pkt.PCMBytes))

	return s
}
