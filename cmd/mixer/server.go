// Package main wires the mixer's components into a running server.
//
// Grounded on the teacher's cmd/server/server.go Start/Stop shape (worker
// goroutines, a shared cancel context, a WaitGroup with a bounded shutdown
// wait), generalized from a fixed two-worker receiver/sender pair to the
// mixer's own inbound-drain-then-mix loop plus the UDP listener goroutine.
package main

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/esscbee/hifi/internal/cadence"
	"github.com/esscbee/hifi/internal/config"
	"github.com/esscbee/hifi/internal/ingest"
	"github.com/esscbee/hifi/internal/mixer"
	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
	"github.com/esscbee/hifi/internal/transport"
	"go.uber.org/zap"
)

func spatialParamsFromConfig(cfg *config.Config) spatial.Params {
	return spatial.Params{
		DistanceRatio:     cfg.DistanceRatio,
		MaxOffAxisAtten:   cfg.MaxOffAxisAtten,
		PhaseAmpRatioAt90: cfg.PhaseAmpRatioAt90,
		PhaseDelayAt90:    cfg.PhaseDelayAt90,
	}
}

// Server owns every mixer component and the single mix loop that ties them
// together: drain inbound packets, classify eligibility, mix, send, advance,
// sleep until the next frame's schedule (spec.md §4.6/§4.7).
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *source.Registry
	gate     *mixer.Gate
	mix      *mixer.Mixer
	ticker   *cadence.Ticker
	ingester *ingest.Ingester

	listener *transport.Listener
	sender   *transport.Sender
	rtpCfg   transport.Config

	inbound chan transport.Inbound

	mu          sync.Mutex
	addrs       map[string]*net.UDPAddr
	packetizers map[string]*transport.Packetizer

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewServer constructs a Server from a loaded configuration, building every
// component the mix loop needs but opening no sockets yet.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	registry := source.NewRegistry(source.Config{
		SamplesPerFrame:    cfg.SamplesPerFrame,
		RingFrames:         cfg.RingFrames,
		GapIntervalSamples: cfg.GapIntervalSamples,
		GapWindowIntervals: cfg.GapWindowIntervals,
	}, log)

	params := spatialParamsFromConfig(cfg)

	s := &Server{
		cfg:         cfg,
		log:         log,
		registry:    registry,
		gate:        mixer.NewGate(cfg.SamplesPerFrame, cfg.JitterSamples(), log),
		mix:         mixer.New(cfg.SamplesPerFrame, params, log),
		ticker:      cadence.NewFromRate(cfg.SamplesPerFrame, cfg.SampleRate, time.Now(), log),
		ingester:    ingest.New(registry),
		rtpCfg:      transport.DefaultConfig(uint32(cfg.SampleRate)),
		inbound:     make(chan transport.Inbound, 256),
		addrs:       make(map[string]*net.UDPAddr),
		packetizers: make(map[string]*transport.Packetizer),
	}
	return s, nil
}

// Start opens the UDP socket and launches the listener and mix-loop
// goroutines, mirroring the teacher's one-goroutine-per-worker pattern.
func (s *Server) Start(ctx context.Context) error {
	listener, err := transport.Listen(s.cfg.ListenAddr, s.rtpCfg, s.log)
	if err != nil {
		return err
	}
	s.listener = listener
	s.sender = transport.NewSender(listener, s.log)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.listener.Run(runCtx, s.inbound)
	}()
	go func() {
		defer s.wg.Done()
		s.runMixLoop(runCtx)
	}()
	return nil
}

// Stop cancels the shared context and waits for both goroutines, bounded by
// the same five-second grace the teacher's Server.Stop allows.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("mixer stopped gracefully")
	case <-time.After(5 * time.Second):
		s.log.Warn("mixer shutdown timed out, some goroutines may still be running")
	}
}

// runMixLoop is the single mixer thread spec.md §5 requires: ring-buffer
// mutation happens only here, and only between frames, never concurrently
// with mixing.
func (s *Server) runMixLoop(ctx context.Context) {
	var frame int64
	for {
		if ctx.Err() != nil {
			return
		}

		s.drainInbound()

		all := s.registry.All()
		for _, src := range all {
			_, eligible := s.gate.Classify(src.Identity, src.Buffer)
			src.ShouldMix = eligible
		}

		listeners := avatarsOf(all)
		for _, f := range s.mix.MixFrame(listeners, all) {
			s.sendFrame(f)
		}
		s.mix.AdvanceContributors(all)

		frame++
		s.ticker.SleepUntil(frame, time.Now, func(d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		})
	}
}

// drainInbound empties the inbound channel without blocking the mix loop,
// per spec.md §5's "drain between frames" concurrency model.
func (s *Server) drainInbound() {
	for {
		select {
		case in, ok := <-s.inbound:
			if !ok {
				return
			}
			s.handleInbound(in)
		default:
			return
		}
	}
}

func (s *Server) handleInbound(in transport.Inbound) {
	pkt, err := ingest.FromInbound(in)
	if err != nil {
		s.log.Debug("dropping undecodable inbound packet", zap.Error(err))
		return
	}
	st := s.ingester.Apply(pkt, time.Now())

	if st.Kind == source.KindAvatar {
		s.mu.Lock()
		s.addrs[st.Identity] = in.Addr
		s.mu.Unlock()
	}
}

func (s *Server) sendFrame(f mixer.Frame) {
	s.mu.Lock()
	addr, ok := s.addrs[f.ListenerIdentity]
	p, pok := s.packetizers[f.ListenerIdentity]
	if !pok {
		ssrc, _ := strconv.ParseUint(f.ListenerIdentity, 10, 32)
		p = transport.NewPacketizer(s.rtpCfg, uint32(ssrc))
		s.packetizers[f.ListenerIdentity] = p
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	raw, err := p.Packetize(f.Stereo, source.StreamID{}, false)
	if err != nil {
		s.log.Warn("failed to packetize outbound frame", zap.Error(err), zap.String("listener", f.ListenerIdentity))
		return
	}
	if err := s.sender.SendTo(addr, raw); err != nil {
		s.log.Warn("failed to send outbound frame", zap.Error(err), zap.String("listener", f.ListenerIdentity))
	}
}

func avatarsOf(all []*source.State) []*source.State {
	out := make([]*source.State, 0, len(all))
	for _, s := range all {
		if s.Kind == source.KindAvatar {
			out = append(out, s)
		}
	}
	return out
}
