// Package source owns per-source state (pose, buffer, gap tracker) and the
// registry that looks sources up by identity or stream-id.
//
// Grounded on the teacher's Receiver/Sender BaseEntity pattern
// (internal/interface.go) for the plain-struct-of-fields style, and on
// spec.md §3/§4.3 for the fields and lifecycle themselves — the teacher has
// no equivalent of a multi-source registry, since it only ever talks to one
// peer per process.
package source

import (
	"sort"
	"sync"

	"github.com/esscbee/hifi/internal/gaptracker"
	"github.com/esscbee/hifi/internal/ring"
	"github.com/esscbee/hifi/internal/spatial"
	"go.uber.org/zap"
)

// Kind distinguishes a live avatar microphone from a synthesized injector.
type Kind int

const (
	KindAvatar Kind = iota
	KindInjector
)

// StreamID is the fixed-length byte tag spec.md §3 uses to look up injector
// streams independently of source identity.
type StreamID [8]byte

// State is one source's mixer-visible state: pose, buffer, tracker, and the
// per-frame flags the eligibility gate and mixer set and read.
type State struct {
	Identity string
	StreamID StreamID
	Kind     Kind

	Buffer  *ring.Buffer
	Tracker *gaptracker.Tracker

	Pose    spatial.Vec3
	Bearing float64 // degrees

	AttenuationRatio float64 // [0,1]
	Loopback         bool

	// Per-frame, set by the eligibility gate and consumed by the mixer.
	ShouldMix bool
}

// NewState constructs a source with a fresh ring buffer and gap tracker
// sized per the recognized configuration (spec.md §6).
func NewState(identity string, kind Kind, samplesPerFrame, ringFrames, gapIntervalSamples, gapWindowIntervals int, log *zap.Logger) *State {
	return &State{
		Identity:         identity,
		Kind:             kind,
		Buffer:           ring.New(samplesPerFrame, ringFrames, false, log),
		Tracker:          gaptracker.New(gapIntervalSamples, gapWindowIntervals),
		AttenuationRatio: 1,
	}
}

// Registry is the mapping from source identity (and, for injectors, stream
// id) to source state. Registration is idempotent: an inbound packet from an
// unknown source creates a new entry on first touch (spec.md §4.3).
type Registry struct {
	mu sync.RWMutex

	byIdentity map[string]*State
	byStreamID map[StreamID]*State

	samplesPerFrame    int
	ringFrames         int
	gapIntervalSamples int
	gapWindowIntervals int
	log                *zap.Logger
}

// Config bundles the construction parameters every new source's ring
// buffer and gap tracker need, mirroring spec.md §6's recognized
// configuration table.
type Config struct {
	SamplesPerFrame    int
	RingFrames         int
	GapIntervalSamples int
	GapWindowIntervals int
}

func NewRegistry(cfg Config, log *zap.Logger) *Registry {
	return &Registry{
		byIdentity:         make(map[string]*State),
		byStreamID:         make(map[StreamID]*State),
		samplesPerFrame:    cfg.SamplesPerFrame,
		ringFrames:         cfg.RingFrames,
		gapIntervalSamples: cfg.GapIntervalSamples,
		gapWindowIntervals: cfg.GapWindowIntervals,
		log:                log,
	}
}

// ResolveOrCreate looks a source up, creating it on first contact. Avatars
// are looked up by identity. Injectors are looked up by stream-id alone,
// never by identity: spec.md §4.3 has stream-id supersede identity for
// injector lookup, since an injector has no stable address of its own (only
// the 8-byte tag) and a reconnect under a new identity must continue the
// same mix slot rather than fragment into a second one (spec.md §7(e): a
// stream-id mismatch, not an identity mismatch, is what creates a new
// injector). kind and streamID only take effect at creation time; an
// existing source's kind/stream-id is not overwritten by later packets.
func (r *Registry) ResolveOrCreate(identity string, kind Kind, streamID StreamID) *State {
	r.mu.RLock()
	s, ok := r.lookup(identity, kind, streamID)
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.lookup(identity, kind, streamID); ok {
		return s
	}

	s = NewState(identity, kind, r.samplesPerFrame, r.ringFrames, r.gapIntervalSamples, r.gapWindowIntervals, r.log)
	s.StreamID = streamID
	r.byIdentity[identity] = s
	if kind == KindInjector {
		r.byStreamID[streamID] = s
	}
	return s
}

// lookup finds an already-registered source without creating one. Callers
// must hold r.mu (read or write).
func (r *Registry) lookup(identity string, kind Kind, streamID StreamID) (*State, bool) {
	if kind == KindInjector {
		s, ok := r.byStreamID[streamID]
		return s, ok
	}
	s, ok := r.byIdentity[identity]
	return s, ok
}

// ByIdentity looks a source up without creating it.
func (r *Registry) ByIdentity(identity string) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byIdentity[identity]
	return s, ok
}

// ByStreamID looks an injector source up by its fixed-length stream tag.
func (r *Registry) ByStreamID(id StreamID) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byStreamID[id]
	return s, ok
}

// All returns a stable-ordered snapshot of every registered source, used by
// the eligibility gate and mixer once per frame.
func (r *Registry) All() []*State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*State, 0, len(r.byIdentity))
	for _, s := range r.byIdentity {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Remove drops a source from the registry. Liveness/eviction policy is the
// caller's responsibility (out of scope per spec.md §3).
func (r *Registry) Remove(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byIdentity[identity]
	if !ok {
		return
	}
	delete(r.byIdentity, identity)
	if s.Kind == KindInjector {
		delete(r.byStreamID, s.StreamID)
	}
}
