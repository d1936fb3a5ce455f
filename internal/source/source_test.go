package source_test

import (
	"testing"

	"github.com/esscbee/hifi/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() source.Config {
	return source.Config{
		SamplesPerFrame:    256,
		RingFrames:         10,
		GapIntervalSamples: 50,
		GapWindowIntervals: 32,
	}
}

func TestResolveOrCreateIsIdempotent(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)

	a := reg.ResolveOrCreate("alice", source.KindAvatar, source.StreamID{})
	b := reg.ResolveOrCreate("alice", source.KindAvatar, source.StreamID{})
	assert.Same(t, a, b)
}

func TestResolveOrCreateRegistersInjectorByStreamID(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)
	var id source.StreamID
	copy(id[:], "bgm-001")

	s := reg.ResolveOrCreate("injector-1", source.KindInjector, id)

	found, ok := reg.ByStreamID(id)
	require.True(t, ok)
	assert.Same(t, s, found)
}

func TestResolveOrCreateReusesInjectorAcrossIdentityChange(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)
	var id source.StreamID
	copy(id[:], "bgm-003")

	first := reg.ResolveOrCreate("42", source.KindInjector, id)
	// A reconnected injector arrives under a new SSRC-derived identity but
	// the same stream-id: it must continue the same source, not fragment.
	second := reg.ResolveOrCreate("99", source.KindInjector, id)

	assert.Same(t, first, second)
	assert.Equal(t, "42", second.Identity)
}

func TestResolveOrCreateInjectorIgnoresIdentityCollision(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)
	var idA, idB source.StreamID
	copy(idA[:], "bgm-004")
	copy(idB[:], "bgm-005")

	a := reg.ResolveOrCreate("7", source.KindInjector, idA)
	// Same identity string, different stream-id: a genuinely new injector.
	b := reg.ResolveOrCreate("7", source.KindInjector, idB)

	assert.NotSame(t, a, b)
	foundA, ok := reg.ByStreamID(idA)
	require.True(t, ok)
	assert.Same(t, a, foundA)
	foundB, ok := reg.ByStreamID(idB)
	require.True(t, ok)
	assert.Same(t, b, foundB)
}

func TestByIdentityDoesNotCreate(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)
	_, ok := reg.ByIdentity("nobody")
	assert.False(t, ok)
}

func TestRemoveDropsBothIndexes(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)
	var id source.StreamID
	copy(id[:], "bgm-002")
	reg.ResolveOrCreate("injector-2", source.KindInjector, id)

	reg.Remove("injector-2")

	_, ok := reg.ByIdentity("injector-2")
	assert.False(t, ok)
	_, ok = reg.ByStreamID(id)
	assert.False(t, ok)
}

func TestAllReturnsEveryRegisteredSource(t *testing.T) {
	reg := source.NewRegistry(testConfig(), nil)
	reg.ResolveOrCreate("a", source.KindAvatar, source.StreamID{})
	reg.ResolveOrCreate("b", source.KindAvatar, source.StreamID{})

	all := reg.All()
	assert.Len(t, all, 2)
}

func TestNewStateDefaultsAttenuationToOne(t *testing.T) {
	s := source.NewState("x", source.KindAvatar, 256, 10, 50, 32, nil)
	assert.Equal(t, 1.0, s.AttenuationRatio)
	assert.NotNil(t, s.Buffer)
	assert.NotNil(t, s.Tracker)
}
