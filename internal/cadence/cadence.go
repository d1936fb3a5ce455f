// Package cadence paces the mixer loop's frame emission at the nominal
// sample rate regardless of wall-clock drift (spec.md §4.7).
//
// Grounded on the teacher's frameDuration/time.Sleep pacing in
// internal/receiver/receiver.go's playbackLoop and internal/sender/record.go's
// ticker-driven recordLoop, generalized into a reusable, testable ticker
// that reports slip instead of silently drifting.
package cadence

import (
	"time"

	"go.uber.org/zap"
)

// Ticker schedules frame n at t0 + n*interval and never catches up on slip:
// a late frame is emitted immediately and the schedule advances by exactly
// one interval, never compressing elapsed audio time.
type Ticker struct {
	interval time.Duration
	t0       time.Time
	log      *zap.Logger
}

// New constructs a ticker for the given frame interval (samplesPerFrame /
// sampleRate seconds), anchored at t0.
func New(interval time.Duration, t0 time.Time, log *zap.Logger) *Ticker {
	return &Ticker{interval: interval, t0: t0, log: log}
}

// NewFromRate derives the interval from samplesPerFrame and sampleRate.
func NewFromRate(samplesPerFrame int, sampleRate float64, t0 time.Time, log *zap.Logger) *Ticker {
	seconds := float64(samplesPerFrame) / sampleRate
	return New(time.Duration(seconds*float64(time.Second)), t0, log)
}

// ScheduledAt returns the scheduled wall-clock time for a given frame
// number.
func (t *Ticker) ScheduledAt(frame int64) time.Time {
	return t.t0.Add(time.Duration(frame) * t.interval)
}

// SleepUntil blocks (via sleep) until frame's scheduled time using now/sleep
// as the clock source, or returns immediately with slipped == true if that
// time has already passed. It never sleeps longer to "catch up" a prior
// slip — the caller should call this once per frame, in increasing frame
// order, after finishing the previous frame's work.
func (t *Ticker) SleepUntil(frame int64, now func() time.Time, sleep func(time.Duration)) (slipped bool) {
	target := t.ScheduledAt(frame)
	current := now()

	if current.After(target) {
		if t.log != nil {
			t.log.Warn("cadence slipped",
				zap.Int64("frame", frame),
				zap.Duration("overrun", current.Sub(target)))
		}
		return true
	}

	sleep(target.Sub(current))
	return false
}

// Interval reports the configured frame interval.
func (t *Ticker) Interval() time.Duration { return t.interval }
