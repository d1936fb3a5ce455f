package spatial_test

import (
	"math"
	"testing"

	"github.com/esscbee/hifi/internal/spatial"
	"github.com/stretchr/testify/assert"
)

func TestDistanceCoefficientIsOneInsideReferenceDistance(t *testing.T) {
	p := spatial.DefaultParams()
	// log3(R*d) == 1 when d == 3/R == 0.3 at R=10; d=0.1 lies inside that
	// reference distance, where the coefficient is clamped to 1.
	c := spatial.DistanceCoefficient(0.1, p)
	assert.InDelta(t, 1.0, c, 1e-9)
}

func TestDistanceCoefficientMonotonicNonIncreasing(t *testing.T) {
	p := spatial.DefaultParams()
	prev := spatial.DistanceCoefficient(0.01, p)
	for _, d := range []float64{0.1, 1, 5, 10, 50, 100} {
		c := spatial.DistanceCoefficient(d, p)
		assert.LessOrEqual(t, c, prev+1e-12)
		prev = c
	}
}

func TestDistanceCoefficientAtZeroIsOne(t *testing.T) {
	p := spatial.DefaultParams()
	assert.Equal(t, 1.0, spatial.DistanceCoefficient(0, p))
}

func TestAbsoluteBearingQuadrants(t *testing.T) {
	listener := spatial.Vec3{}
	assert.InDelta(t, 0.0, spatial.AbsoluteBearing(listener, spatial.Vec3{X: 0, Z: 1}), 1e-9)
	assert.InDelta(t, 180.0, spatial.AbsoluteBearing(listener, spatial.Vec3{X: 0, Z: -1}), 1e-9)
}

func TestAbsoluteBearingCoLocatedTie(t *testing.T) {
	p := spatial.Vec3{X: 1, Y: 2, Z: 3}
	assert.Equal(t, -90.0, spatial.AbsoluteBearing(p, p))
}

func TestWrap(t *testing.T) {
	assert.InDelta(t, 0.0, spatial.Wrap(0), 1e-9)
	assert.InDelta(t, 180.0, spatial.Wrap(180), 1e-9)
	assert.InDelta(t, -179.0, spatial.Wrap(181), 1e-9)
	assert.InDelta(t, 179.0, spatial.Wrap(-181), 1e-9)
}

func TestOffAxisAttenuationFloorOnAxisRisesAtPerpendicular(t *testing.T) {
	p := spatial.DefaultParams()
	assert.InDelta(t, p.MaxOffAxisAtten+0.4, spatial.OffAxisAttenuation(90, p), 1e-9)
	assert.InDelta(t, p.MaxOffAxisAtten, spatial.OffAxisAttenuation(0, p), 1e-9)
}

func TestDelayAndWeakRatioAtPerpendicular(t *testing.T) {
	p := spatial.DefaultParams()
	delay, weak, rightGood := spatial.DelayAndWeakRatio(90, p)
	assert.Equal(t, 20, delay)
	assert.InDelta(t, 0.5, weak, 1e-9)
	assert.True(t, rightGood)

	delay, weak, rightGood = spatial.DelayAndWeakRatio(-90, p)
	assert.Equal(t, 20, delay)
	assert.InDelta(t, 0.5, weak, 1e-9)
	assert.False(t, rightGood)
}

func TestDelayAndWeakRatioAtZeroIsLeftGood(t *testing.T) {
	p := spatial.DefaultParams()
	delay, weak, rightGood := spatial.DelayAndWeakRatio(0, p)
	assert.Equal(t, 0, delay)
	assert.InDelta(t, 1.0, weak, 1e-9)
	assert.False(t, rightGood)
}

func TestSaturateAddCommutativeAndSaturates(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), spatial.SaturateAdd(32000, 32000))
	assert.Equal(t, int16(math.MinInt16), spatial.SaturateAdd(-32000, -32000))
	assert.Equal(t, spatial.SaturateAdd(100, 200), spatial.SaturateAdd(200, 100))
	assert.Equal(t, int16(300), spatial.SaturateAdd(100, 200))
}
