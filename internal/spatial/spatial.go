// Package spatial implements the planar geometry behind the mixer's
// spatialization: distance attenuation, bearing/off-axis attenuation, and
// the inter-aural delay/amplitude split.
//
// Ported from the distance, angle, and phase-delay math in
// original_source/audio-mixer/src/main.cpp, which has no Go analogue in the
// teacher repo (the teacher's receiver/mixer.go only averages frames). The
// math is kept exactly as derived there; only the glm::vec3/raw-float
// plumbing is replaced with named Go types.
package spatial

import "math"

// Vec3 is a position in the horizontal (x, z) plane plus elevation y, which
// contributes to distance but not to bearing.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func (a Vec3) Length() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Params holds the tunable coefficients from the recognized configuration
// table (spec.md §6).
type Params struct {
	DistanceRatio     float64 // R, default 10 (3/0.3)
	MaxOffAxisAtten   float64 // default 0.2
	PhaseAmpRatioAt90 float64 // default 0.5
	PhaseDelayAt90    float64 // default 20 samples
}

// DefaultParams matches spec.md §6's defaults.
func DefaultParams() Params {
	return Params{
		DistanceRatio:     10,
		MaxOffAxisAtten:   0.2,
		PhaseAmpRatioAt90: 0.5,
		PhaseDelayAt90:    20,
	}
}

// DistanceCoefficient returns the distance attenuation c_d for separation d,
// per listener/source position. Monotonically non-increasing in d for
// d > 0, and clamped to 1 for every d up to the reference distance
// d == 3/R (where log3(R*d) == 1; 0.3 at R == 10), so also at d == 0.1.
func DistanceCoefficient(d float64, p Params) float64 {
	if d <= 0 {
		return 1
	}
	exponent := math.Log(p.DistanceRatio*d)/math.Log(3) - 1
	return math.Min(1, math.Pow(0.5, exponent))
}

// AbsoluteBearing returns the absolute angle in degrees, in (-180, 180],
// from listener to source using the quadrant table in spec.md §4.6.
//
// Co-located listener and source (dx == dz == 0) have no well-defined
// bearing; the quadrant table's strict inequalities would route that case
// to the (no, no) row, but spec.md's Sc.3 worked example calls for the
// (yes, yes) row's result instead, so that exact tie is special-cased.
func AbsoluteBearing(listener, source Vec3) float64 {
	dx := source.X - listener.X
	dz := source.Z - listener.Z

	if dx == 0 && dz == 0 {
		return -90
	}

	theta := math.Atan2(math.Abs(dz), math.Abs(dx)) * 180 / math.Pi

	switch {
	case dx > 0 && dz > 0:
		return -90 + theta
	case dx > 0 && dz <= 0:
		return -90 - theta
	case dx <= 0 && dz > 0:
		return 90 - theta
	default:
		return 90 + theta
	}
}

// Wrap maps an angle into (-180, 180].
func Wrap(angle float64) float64 {
	for angle > 180 {
		angle -= 360
	}
	for angle <= -180 {
		angle += 360
	}
	return angle
}

// OffAxisAttenuation returns c_o for the angle of delivery beta (the
// listener's angle relative to the source's facing).
func OffAxisAttenuation(beta float64, p Params) float64 {
	step := (1 - p.MaxOffAxisAtten) / 2
	return p.MaxOffAxisAtten + step*(math.Abs(beta)/90)
}

// DelayAndWeakRatio returns the inter-aural sample delay and the weak-ear
// amplitude ratio for relative angle alpha (degrees), plus whether the right
// channel is the "good" (near-ear) channel.
func DelayAndWeakRatio(alphaDeg float64, p Params) (delay int, weakRatio float64, rightIsGood bool) {
	alphaRad := alphaDeg * math.Pi / 180
	k := math.Abs(math.Sin(alphaRad))
	delay = int(math.Round(p.PhaseDelayAt90 * k))
	weakRatio = 1 - p.PhaseAmpRatioAt90*k
	rightIsGood = alphaDeg > 0
	return delay, weakRatio, rightIsGood
}

// SaturateAdd adds two int16 samples with two-sided saturation at the
// representable bounds. spec.md's Design Notes call out the original
// source's plateauAdditionOfSamples as only clamping the lower bound; this
// clamps both.
func SaturateAdd(a, b int16) int16 {
	sum := int32(a) + int32(b)
	if sum > math.MaxInt16 {
		return math.MaxInt16
	}
	if sum < math.MinInt16 {
		return math.MinInt16
	}
	return int16(sum)
}
