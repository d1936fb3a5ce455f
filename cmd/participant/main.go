// cmd/participant is a demo avatar client: it records from the default
// input device, sends it to the mixer as a microphone stream, and plays
// back whatever stereo mix the mixer sends in return.
//
// Grounded on the teacher's internal/sender/sender.go record loop and
// internal/receiver/receiver.go playback loop, adapted from the teacher's
// fixed single-peer pair to one named avatar speaking to the mixer and a
// static, flag-supplied pose rather than a tracked one (SPEC_FULL.md §4.13
// scopes the demo client to a fixed pose to avoid needing a full 3D input
// source).
package main

/*
#cgo LDFLAGS: -lportaudio -lwinmm -lole32 -lsetupapi -luuid -static
#cgo CFLAGS: -I/mingw64/include
*/
import "C"

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
	"github.com/esscbee/hifi/internal/transport"
	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:4899", "mixer address")
	ssrc := flag.Uint("ssrc", 1, "numeric identity to packetize with")
	sampleRate := flag.Float64("sample-rate", 22050, "sample rate in Hz")
	frameSize := flag.Int("frame-size", 256, "samples per frame")
	x := flag.Float64("x", 0, "static pose x")
	y := flag.Float64("y", 0, "static pose y")
	z := flag.Float64("z", 0, "static pose z")
	bearing := flag.Float64("bearing", 0, "static facing bearing, degrees")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := portaudio.Initialize(); err != nil {
		log.Fatal("portaudio init failed", zap.Error(err))
	}
	defer portaudio.Terminate()

	udpAddr, err := net.ResolveUDPAddr("udp", *serverAddr)
	if err != nil {
		log.Fatal("bad server address", zap.Error(err))
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		log.Fatal("failed to dial mixer", zap.Error(err))
	}
	defer conn.Close()

	client := &Client{
		conn:       conn,
		log:        log,
		sampleRate: *sampleRate,
		frameSize:  *frameSize,
		ssrc:       uint32(*ssrc),
		pose:       spatial.Vec3{X: *x, Y: *y, Z: *z},
		bearing:    *bearing,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Start(ctx); err != nil {
		log.Fatal("failed to start client", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("received interrupt signal, shutting down")
	cancel()
	client.Wait()
}

// Client records a microphone stream to the mixer and plays back the mixed
// stereo frames the mixer sends in reply.
type Client struct {
	conn       *net.UDPConn
	log        *zap.Logger
	sampleRate float64
	frameSize  int
	ssrc       uint32
	pose       spatial.Vec3
	bearing    float64

	done chan struct{}
}

func (c *Client) Start(ctx context.Context) error {
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		if err := c.recordLoop(ctx); err != nil {
			c.log.Warn("record loop exited", zap.Error(err))
		}
	}()
	go func() {
		if err := c.playbackLoop(ctx); err != nil {
			c.log.Warn("playback loop exited", zap.Error(err))
		}
	}()
	return nil
}

func (c *Client) Wait() { <-c.done }

func (c *Client) recordLoop(ctx context.Context) error {
	in := make([]float32, c.frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, c.sampleRate, c.frameSize, in)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	p := transport.NewPacketizer(transport.DefaultConfig(uint32(c.sampleRate)), c.ssrc)
	frameDuration := time.Duration(float64(c.frameSize)/c.sampleRate*1000) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := stream.Read(); err != nil {
			c.log.Warn("input read error", zap.Error(err))
			time.Sleep(frameDuration)
			continue
		}

		pcm := floatToPCM(in)
		meta := transport.Metadata{Kind: source.KindAvatar, Pose: c.pose, Bearing: c.bearing}
		raw, err := p.PacketizeRaw(transport.EncodePayload(meta, pcm), source.StreamID{}, false)
		if err != nil {
			c.log.Warn("failed to packetize microphone frame", zap.Error(err))
			continue
		}
		if _, err := c.conn.Write(raw); err != nil {
			c.log.Warn("failed to send microphone frame", zap.Error(err))
		}
		time.Sleep(frameDuration)
	}
}

func (c *Client) playbackLoop(ctx context.Context) error {
	out := make([]int16, 2*c.frameSize)
	stream, err := portaudio.OpenDefaultStream(0, 2, c.sampleRate, c.frameSize, out)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := c.conn.Read(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("read mixed frame: %w", err)
		}

		pkt, err := transport.Depacketize(buf[:n])
		if err != nil {
			c.log.Debug("dropping undecodable mixed frame", zap.Error(err))
			continue
		}
		copy(out, pkt.PCM)
		if err := stream.Write(); err != nil {
			c.log.Warn("output write error", zap.Error(err))
		}
	}
}

func floatToPCM(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, sample := range in {
		switch {
		case sample >= 1:
			out[i] = 32767
		case sample <= -1:
			out[i] = -32767
		default:
			out[i] = int16(sample * 32767)
		}
	}
	return out
}
