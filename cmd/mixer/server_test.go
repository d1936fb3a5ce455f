package main

import (
	"testing"

	"github.com/esscbee/hifi/internal/config"
	"github.com/esscbee/hifi/internal/source"
	"github.com/stretchr/testify/assert"
)

func TestAvatarsOfFiltersOutInjectors(t *testing.T) {
	avatar := &source.State{Kind: source.KindAvatar, Identity: "alice"}
	injector := &source.State{Kind: source.KindInjector, Identity: "bgm"}

	out := avatarsOf([]*source.State{avatar, injector})

	assert.Equal(t, []*source.State{avatar}, out)
}

func TestSpatialParamsFromConfigCopiesEveryField(t *testing.T) {
	cfg := &config.Config{
		DistanceRatio:     5,
		MaxOffAxisAtten:   0.1,
		PhaseAmpRatioAt90: 0.4,
		PhaseDelayAt90:    15,
	}

	params := spatialParamsFromConfig(cfg)

	assert.Equal(t, 5.0, params.DistanceRatio)
	assert.Equal(t, 0.1, params.MaxOffAxisAtten)
	assert.Equal(t, 0.4, params.PhaseAmpRatioAt90)
	assert.Equal(t, 15.0, params.PhaseDelayAt90)
}
