// Package transport frames the mixer's raw linear-PCM payloads as RTP
// packets for UDP transit — SPEC_FULL.md §4.9/§4.10.
//
// Grounded on the teacher's internal/utils/rtp/rtputils.go and
// internal/sender/packAsRTP.go / internal/receiver/unpackRTP.go, with the
// Opus encode/decode step removed entirely: spec.md's Non-goals exclude
// codec support, so the payload here is the PCM the core already produces
// and consumes, reinterpreted as little-endian bytes rather than run
// through an encoder.
package transport

import (
	"fmt"

	"github.com/esscbee/hifi/internal/source"
	"github.com/pion/rtp"
)

const (
	// DefaultPayloadType is unregistered dynamic payload type space (RFC
	// 3551 §3): there is no codec to negotiate, so any value in that range
	// works as long as sender and mixer agree.
	DefaultPayloadType uint8 = 96

	// streamIDExtensionID is the one-byte header extension id (RFC 5285)
	// carrying an injector's stream tag, kept separate from SSRC because
	// spec.md §4.3 treats identity and stream-id as distinct lookup keys.
	streamIDExtensionID     = 1
	oneByteExtensionProfile = 0xBEDE
)

// Config holds the wire parameters both ends of a stream must agree on.
type Config struct {
	PayloadType uint8
	ClockRate   uint32
	Mtu         uint16
}

func DefaultConfig(sampleRate uint32) Config {
	return Config{PayloadType: DefaultPayloadType, ClockRate: sampleRate, Mtu: 1200}
}

// Packetizer builds one RTP packet per call. Mixer/capture frames are sized
// to fit under the configured MTU at the default frame size, so no
// fragmentation across multiple RTP packets is needed (unlike the teacher's
// Opus packetizer, which could split oversized encoded frames).
type Packetizer struct {
	cfg       Config
	ssrc      uint32
	sequencer rtp.Sequencer
	timestamp uint32
}

// NewPacketizer constructs a packetizer for one outbound stream identified
// by ssrc (the numeric source identity for microphone packets, or an
// injector's own numeric id).
func NewPacketizer(cfg Config, ssrc uint32) *Packetizer {
	return &Packetizer{cfg: cfg, ssrc: ssrc, sequencer: rtp.NewRandomSequencer()}
}

// Packetize wraps pcm in one RTP packet. If hasStreamID is set, streamID is
// carried in a one-byte RTP header extension rather than SSRC.
func (p *Packetizer) Packetize(pcm []int16, streamID source.StreamID, hasStreamID bool) ([]byte, error) {
	return p.PacketizeRaw(SamplesToBytes(pcm), streamID, hasStreamID)
}

// PacketizeRaw wraps an arbitrary payload in one RTP packet. Mic/injector
// packets use this directly to send a Metadata prefix ahead of the PCM
// bytes (spec.md §6's pose/attenuation fields, which have no place in the
// RTP header itself); Packetize is the PCM-only convenience built on top of
// it for outbound mixer frames, which carry no pose.
func (p *Packetizer) PacketizeRaw(payload []byte, streamID source.StreamID, hasStreamID bool) ([]byte, error) {
	header := rtp.Header{
		Version:        2,
		PayloadType:    p.cfg.PayloadType,
		SequenceNumber: p.sequencer.NextSequenceNumber(),
		Timestamp:      p.timestamp,
		SSRC:           p.ssrc,
	}
	p.timestamp += uint32(len(payload) / 2)

	if hasStreamID {
		header.Extension = true
		header.ExtensionProfile = oneByteExtensionProfile
		if err := header.SetExtension(streamIDExtensionID, streamID[:]); err != nil {
			return nil, fmt.Errorf("set stream-id extension: %w", err)
		}
	}

	packet := &rtp.Packet{Header: header, Payload: payload}
	data, err := packet.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal RTP packet: %w", err)
	}
	if len(data) > int(p.cfg.Mtu) {
		return nil, fmt.Errorf("packet size %d exceeds MTU %d", len(data), p.cfg.Mtu)
	}
	return data, nil
}

// Packet is the decoded form of an inbound RTP datagram. RawPayload is the
// payload exactly as carried; PCM is RawPayload reinterpreted wholesale as
// little-endian int16 samples, which is only meaningful when the caller
// knows the payload carries no Metadata prefix (outbound mixer frames).
// Mic/injector packets should decode Metadata from RawPayload themselves.
type Packet struct {
	SSRC        uint32
	StreamID    source.StreamID
	HasStreamID bool
	Sequence    uint16
	Timestamp   uint32
	RawPayload  []byte
	PCM         []int16
}

// Depacketize parses raw as an RTP packet, discarding a trailing odd byte
// from the payload exactly as spec.md §4.4 specifies for malformed-length
// payloads.
func Depacketize(raw []byte) (*Packet, error) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("unmarshal RTP packet: %w", err)
	}
	if pkt.Header.Version != 2 {
		return nil, fmt.Errorf("unsupported RTP version: %d", pkt.Header.Version)
	}

	out := &Packet{
		SSRC:       pkt.Header.SSRC,
		Sequence:   pkt.Header.SequenceNumber,
		Timestamp:  pkt.Header.Timestamp,
		RawPayload: pkt.Payload,
		PCM:        BytesToSamples(pkt.Payload),
	}

	if ids := pkt.Header.GetExtensionIDs(); len(ids) > 0 {
		if ext := pkt.Header.GetExtension(streamIDExtensionID); len(ext) == len(out.StreamID) {
			copy(out.StreamID[:], ext)
			out.HasStreamID = true
		}
	}

	return out, nil
}

// SamplesToBytes reinterprets PCM samples as little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

// BytesToSamples reinterprets little-endian bytes as PCM samples, discarding
// a trailing odd byte (spec.md §4.4).
func BytesToSamples(b []byte) []int16 {
	n := len(b) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return samples
}
