// testSignal sends a synthesized 440 Hz tone to a mixer as if it were an
// injector's RTP stream, for exercising the mix loop without a live
// microphone.
//
// Grounded on the teacher's original sine-wave generator, rewritten to
// RTP-wrap its payload with a Metadata prefix instead of the teacher's raw
// 4-byte sequence header, since the mixer this now targets speaks RTP.
package main

import (
	"fmt"
	"math"
	"net"
	"time"

	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
	"github.com/esscbee/hifi/internal/transport"
)

func main() {
	conn, err := net.Dial("udp", "localhost:4899")
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	const sampleRate = 22050
	const frameSize = 256
	const ssrc = 9001

	var streamID source.StreamID
	copy(streamID[:], "testsig")

	cfg := transport.DefaultConfig(sampleRate)
	p := transport.NewPacketizer(cfg, ssrc)
	meta := transport.Metadata{
		Kind:             source.KindInjector,
		Pose:             spatial.Vec3{X: 0, Y: 0, Z: 0},
		AttenuationRatio: 1,
	}

	samplesSent := 0
	for i := 0; i < 50; i++ {
		pcm := make([]int16, frameSize)
		for j := 0; j < frameSize; j++ {
			t := float64(samplesSent+j) / sampleRate
			pcm[j] = int16(math.Sin(2*math.Pi*440*t) * 32767.0 * 0.5)
		}
		samplesSent += frameSize

		raw, err := p.PacketizeRaw(transport.EncodePayload(meta, pcm), streamID, true)
		if err != nil {
			fmt.Printf("packetize error: %v\n", err)
			continue
		}

		if _, err := conn.Write(raw); err != nil {
			fmt.Printf("send error: %v\n", err)
		} else {
			fmt.Printf("sent frame %d\n", i)
		}

		time.Sleep(frameSize * time.Second / sampleRate)
	}
}
