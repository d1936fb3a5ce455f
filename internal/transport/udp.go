package transport

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Inbound is one decoded datagram plus the address it arrived from, handed
// across the channel the mixer loop drains between frames (spec.md §5's
// "multi-producer / single-consumer queue").
type Inbound struct {
	Packet *Packet
	Addr   *net.UDPAddr
}

// Listener owns the single UDP socket the mixer process receives on.
// Grounded on the teacher's internal/receiver/receiveUDP.go, generalized
// from a fixed-size Opus MTU buffer to the configured Mtu and freed from the
// pipeline.TypedStage wrapper the teacher used for its single-stream,
// single-stage receive path.
type Listener struct {
	conn *net.UDPConn
	mtu  uint16
	log  *zap.Logger
}

// Listen opens a UDP socket on addr (":PORT" or "host:PORT").
func Listen(addr string, cfg Config, log *zap.Logger) (*Listener, error) {
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Listener{conn: conn, mtu: cfg.Mtu, log: log}, nil
}

// Run decodes inbound datagrams until ctx is cancelled, pushing each onto
// out. It never blocks the mixer loop: a full channel drops the packet
// after a short grace period, exactly as the teacher's receiveUDP does.
func (l *Listener) Run(ctx context.Context, out chan<- Inbound) {
	defer close(out)
	defer l.conn.Close()

	readTimeout := 70 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(readTimeout))
		buf := make([]byte, l.mtu)
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if l.log != nil {
				l.log.Warn("udp read error", zap.Error(err))
			}
			continue
		}

		packet, err := Depacketize(buf[:n])
		if err != nil {
			if l.log != nil {
				l.log.Debug("dropping malformed packet", zap.Error(err))
			}
			continue
		}

		select {
		case out <- Inbound{Packet: packet, Addr: addr}:
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
			if l.log != nil {
				l.log.Warn("inbound queue full, packet dropped")
			}
		}
	}
}

func (l *Listener) Close() error { return l.conn.Close() }

// LocalAddr reports the socket's bound address, mainly useful for tests that
// bind to ":0" and need the OS-assigned port.
func (l *Listener) LocalAddr() net.Addr { return l.conn.LocalAddr() }

// Sender writes each listener's outbound datagram back to its last-seen
// address. Grounded on the teacher's internal/sender/sendUDP.go, adapted
// from a fixed fan-out list of destinations to per-listener addressing
// (the mixer serves many independent listeners, not one fixed peer).
type Sender struct {
	conn *net.UDPConn
	log  *zap.Logger
}

// NewSender reuses the listener's socket to send replies, matching how a
// single UDP socket in this mixer both receives and replies.
func NewSender(l *Listener, log *zap.Logger) *Sender {
	return &Sender{conn: l.conn, log: log}
}

func (s *Sender) SendTo(addr *net.UDPAddr, raw []byte) error {
	_, err := s.conn.WriteToUDP(raw, addr)
	if err != nil && s.log != nil {
		s.log.Warn("udp write error", zap.Error(err), zap.Stringer("addr", addr))
	}
	return err
}
