// Package mixer implements the per-frame eligibility gate and the
// spatialized, saturating mixing pipeline (spec.md §4.5, §4.6).
//
// Grounded on the teacher's receiver/mixer.go, which is the only place in
// the teacher that evaluates per-source "is this frame usable" logic
// (lastSeen/activeDeadline there vs. the available/jitter-cushion test
// here) and sums frames across participants.
package mixer

import "go.uber.org/zap"

// Classification is the eligibility gate's verdict for one source in one
// frame (spec.md §4.5).
type Classification int

const (
	Skip Classification = iota
	HoldBack
	Starved
	Eligible
)

// Gate evaluates eligibility once per source per frame.
type Gate struct {
	SamplesPerFrame int
	JitterSamples   int // J: msecs * sample_rate / 1000, default 12ms worth
	log             *zap.Logger
}

func NewGate(samplesPerFrame, jitterSamples int, log *zap.Logger) *Gate {
	return &Gate{
		SamplesPerFrame: samplesPerFrame,
		JitterSamples:   jitterSamples,
		log:             log,
	}
}

// sourceBuffer is the subset of *ring.Buffer the gate needs; declared as an
// interface so tests can exercise the classification table without pulling
// in the full ring package.
type sourceBuffer interface {
	Available() int
	Started() bool
	SetStarted(bool)
	Starved() bool
	ClearStarved()
}

// everWritten reports whether the buffer has received data: it is started,
// holds unread samples, or has had its starved flag cleared by an earlier
// Eligible verdict. A fresh buffer is unstarted, empty and starved.
func everWritten(buf sourceBuffer) bool {
	return buf.Started() || buf.Available() > 0 || !buf.Starved()
}

// Classify applies spec.md §4.5's table and mutates buf.Started()
// accordingly. identity is used only for logging.
func (g *Gate) Classify(identity string, buf sourceBuffer) (Classification, bool) {
	avail := buf.Available()
	f := g.SamplesPerFrame
	j := g.JitterSamples

	if !everWritten(buf) {
		return Skip, false
	}

	if !buf.Started() && avail <= f+j {
		if g.log != nil {
			g.log.Debug("hold-back",
				zap.String("source", identity),
				zap.Int("available", avail),
				zap.Int("cushion", f+j))
		}
		return HoldBack, false
	}

	if avail < f {
		buf.SetStarted(false)
		if g.log != nil {
			g.log.Debug("starved",
				zap.String("source", identity),
				zap.Int("available", avail),
				zap.Int("required", f))
		}
		return Starved, false
	}

	buf.SetStarted(true)
	buf.ClearStarved()
	return Eligible, true
}
