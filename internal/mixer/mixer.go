package mixer

import (
	"github.com/esscbee/hifi/internal/source"
	"github.com/esscbee/hifi/internal/spatial"
	"go.uber.org/zap"
)

// Mixer produces one personalized stereo frame per avatar listener every
// tick, per spec.md §4.6.
type Mixer struct {
	SamplesPerFrame int
	Params          spatial.Params
	log             *zap.Logger
}

func New(samplesPerFrame int, params spatial.Params, log *zap.Logger) *Mixer {
	return &Mixer{SamplesPerFrame: samplesPerFrame, Params: params, log: log}
}

// Frame is the outbound per-listener stereo scratch (spec.md §3, §6).
type Frame struct {
	ListenerIdentity string
	Stereo           []int16 // interleaved L,R, length 2*SamplesPerFrame
}

// distanceKey is the unordered-pair memoization key spec.md §4.6/§9 calls
// for: keyed by {min(i,j), max(i,j)} and discarded at frame end.
type distanceKey struct{ a, b string }

func pairKey(a, b string) distanceKey {
	if a > b {
		a, b = b, a
	}
	return distanceKey{a, b}
}

// MixFrame produces one stereo frame per listener from every source
// currently marked ShouldMix. It does not advance any read cursors; call
// AdvanceContributors once every listener in the frame has been produced
// (spec.md §4.6 step 4 — advance happens only after all listeners consumed
// the frame).
func (m *Mixer) MixFrame(listeners, allSources []*source.State) []Frame {
	distCache := make(map[distanceKey]float64)
	frames := make([]Frame, 0, len(listeners))

	for _, l := range listeners {
		stereo := make([]int16, 2*m.SamplesPerFrame)

		for _, s := range allSources {
			if !s.ShouldMix {
				continue
			}
			if s == l && !l.Loopback {
				continue
			}
			m.mixOne(stereo, l, s, distCache)
		}

		frames = append(frames, Frame{ListenerIdentity: l.Identity, Stereo: stereo})
	}

	return frames
}

// AdvanceContributors advances the read cursor of every source that
// contributed to this frame and clears its ShouldMix flag, per spec.md
// §4.6 step 4.
func (m *Mixer) AdvanceContributors(allSources []*source.State) {
	for _, s := range allSources {
		if s.ShouldMix {
			s.Buffer.ShiftRead(m.SamplesPerFrame)
			s.ShouldMix = false
		}
	}
}

// mixOne spatializes source s relative to listener l (identity parameters
// if s is l mixing its own loopback) and sums F frames into stereo using
// saturating addition.
func (m *Mixer) mixOne(stereo []int16, l, s *source.State, distCache map[distanceKey]float64) {
	f := m.SamplesPerFrame

	var attenuation, weakRatio float64
	var delay int
	var rightIsGood bool

	if s == l {
		// Identity parameters: spec.md §4.6 step 2a, "otherwise".
		attenuation, weakRatio, delay, rightIsGood = 1, 1, 0, false
	} else {
		k := pairKey(l.Identity, s.Identity)
		d, ok := distCache[k]
		if !ok {
			d = l.Pose.Sub(s.Pose).Length()
			distCache[k] = d
		}
		cd := spatial.DistanceCoefficient(d, m.Params)

		abs := spatial.AbsoluteBearing(l.Pose, s.Pose)
		alpha := spatial.Wrap(abs - l.Bearing)
		beta := spatial.Wrap(abs - s.Bearing)
		co := spatial.OffAxisAttenuation(beta, m.Params)

		attenuation = cd * s.AttenuationRatio * co
		delay, weakRatio, rightIsGood = spatial.DelayAndWeakRatio(alpha, m.Params)
	}

	goodOffset, delayedOffset := 0, 1 // left good by default (alpha == 0 tie-break)
	if rightIsGood {
		goodOffset, delayedOffset = 1, 0
	}

	// Pre-roll: delayed samples held over from before the current window.
	for i := 0; i < delay; i++ {
		lookback := s.Buffer.Index(-delay + i)
		contribution := int16(float64(lookback) * attenuation * weakRatio)
		idx := i*2 + delayedOffset
		stereo[idx] = spatial.SaturateAdd(stereo[idx], contribution)
	}

	for i := 0; i < f; i++ {
		cur := int16(float64(s.Buffer.Index(i)) * attenuation)

		goodIdx := i*2 + goodOffset
		stereo[goodIdx] = spatial.SaturateAdd(stereo[goodIdx], cur)

		if i+delay < f {
			delayedContribution := int16(float64(cur) * weakRatio)
			delayedIdx := (i+delay)*2 + delayedOffset
			stereo[delayedIdx] = spatial.SaturateAdd(stereo[delayedIdx], delayedContribution)
		}
	}
}
