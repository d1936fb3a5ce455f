// Package ring implements the per-source jitter-absorbing PCM ring buffer.
//
// It replaces the teacher's plain byte-oriented AudioRingBuffer (and the
// raw-pointer arithmetic of the High Fidelity mixer it was ported from) with
// a neutral index-pair implementation: two offsets into an owned, fixed
// capacity []int16, with modulo-capacity arithmetic standing in for the
// original's pointer shifting.
package ring

import "go.uber.org/zap"

// Buffer is a fixed-capacity mono PCM ring, one per source.
type Buffer struct {
	samples []int16

	writeCursor int // "end of last write"
	readCursor  int // "next output"

	started      bool
	starved      bool
	randomAccess bool
	isVirgin     bool // no write has landed yet

	log *zap.Logger
}

// New constructs a buffer sized samplesPerFrame*ringFrames. log may be nil,
// in which case an overflow still resets the buffer but is not logged (tests
// construct buffers this way).
func New(samplesPerFrame, ringFrames int, randomAccess bool, log *zap.Logger) *Buffer {
	b := &Buffer{
		samples:      make([]int16, samplesPerFrame*ringFrames),
		starved:      true,
		randomAccess: randomAccess,
		isVirgin:     true,
		log:          log,
	}
	return b
}

// Resize discards all state and rebuilds the buffer at the new capacity.
func (b *Buffer) Resize(samplesPerFrame, ringFrames int) {
	b.samples = make([]int16, samplesPerFrame*ringFrames)
	b.writeCursor = 0
	b.readCursor = 0
	b.starved = true
	b.isVirgin = true
}

func (b *Buffer) capacity() int { return len(b.samples) }

// shift moves pos by n (which may be negative) modulo capacity.
func shift(pos, n, capacity int) int {
	if capacity == 0 {
		return 0
	}
	p := (pos + n) % capacity
	if p < 0 {
		p += capacity
	}
	return p
}

// Available reports the number of readable samples. In random-access mode
// the buffer behaves as a self-clearing, always-ready window: once any write
// has occurred it reports enough samples to satisfy any reasonable request.
func (b *Buffer) Available() int {
	if b.randomAccess {
		if b.writeCursor == 0 && b.readCursor == 0 && b.isVirgin {
			return 0
		}
		return b.capacity()
	}
	return shift(b.writeCursor, -b.readCursor, b.capacity())
}

// Started reports whether the mixer has begun consuming this buffer.
func (b *Buffer) Started() bool { return b.started }

// SetStarted is called by the eligibility gate.
func (b *Buffer) SetStarted(v bool) { b.started = v }

// Starved reports whether the buffer is awaiting a fresh jitter cushion.
func (b *Buffer) Starved() bool { return b.starved }

// Write copies min(len(samples), capacity) samples into the buffer, wrapping
// at the end, and returns the number of samples copied. A write that would
// need to overtake unread data while the buffer is started triggers an
// overflow reset: both cursors return to the origin and the buffer is marked
// starved. Audio in flight is dropped; the event is logged, never returned
// as an error.
func (b *Buffer) Write(sourceLabel string, samplesIn []int16) int {
	capacity := b.capacity()
	if capacity == 0 {
		return 0
	}

	n := len(samplesIn)
	if n > capacity {
		n = capacity
	}

	availableBefore := b.Available()
	overflow := b.started && n > 0 && availableBefore+n >= capacity

	b.isVirgin = false
	writeAt := b.writeCursor
	for i := 0; i < n; i++ {
		b.samples[shift(writeAt, i, capacity)] = samplesIn[i]
	}
	b.writeCursor = shift(writeAt, n, capacity)

	if overflow {
		b.writeCursor = 0
		b.readCursor = 0
		b.starved = true
		if b.log != nil {
			b.log.Warn("ring buffer overflow, resetting",
				zap.String("source", sourceLabel),
				zap.Int("dropped_samples", n))
		}
	}
	return n
}

// Read copies samples into dst. In normal mode it copies
// min(len(dst), Available()) samples; in random-access mode it always fills
// dst completely, zero-padding from positions that were already cleared by
// a prior read, and zeroes the positions it visits afterward.
func (b *Buffer) Read(dst []int16) int {
	capacity := b.capacity()
	if capacity == 0 {
		return 0
	}

	var n int
	if b.randomAccess {
		n = len(dst)
	} else {
		avail := b.Available()
		n = len(dst)
		if n > avail {
			n = avail
		}
	}

	readAt := b.readCursor
	for i := 0; i < n; i++ {
		pos := shift(readAt, i, capacity)
		dst[i] = b.samples[pos]
		if b.randomAccess {
			b.samples[pos] = 0
		}
	}
	b.readCursor = shift(readAt, n, capacity)
	return n
}

// AddSilent appends n zero samples without affecting starvation state.
func (b *Buffer) AddSilent(n int) {
	capacity := b.capacity()
	if capacity == 0 || n <= 0 {
		return
	}
	writeAt := b.writeCursor
	for i := 0; i < n; i++ {
		b.samples[shift(writeAt, i, capacity)] = 0
	}
	b.writeCursor = shift(writeAt, n, capacity)
}

// Reset returns both cursors to the origin and marks the buffer starved.
// started is left untouched.
func (b *Buffer) Reset() {
	b.writeCursor = 0
	b.readCursor = 0
	b.starved = true
}

// ShiftRead advances the read cursor by n (possibly negative) without
// copying, for mixers that have already consumed data via Index.
func (b *Buffer) ShiftRead(n int) {
	b.readCursor = shift(b.readCursor, n, b.capacity())
}

// Index returns the sample at offset i from the current read cursor,
// wrapping in either direction. Used by the mixer for the inter-aural delay
// look-back window.
func (b *Buffer) Index(i int) int16 {
	capacity := b.capacity()
	if capacity == 0 {
		return 0
	}
	return b.samples[shift(b.readCursor, i, capacity)]
}

// ClearStarved is used by the eligibility gate to drop the starved flag once
// a source restarts cleanly.
func (b *Buffer) ClearStarved() { b.starved = false }
