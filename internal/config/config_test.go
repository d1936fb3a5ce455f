package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/esscbee/hifi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForAbsentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("distance_ratio: 20\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.DistanceRatio)
	assert.Equal(t, 256, cfg.SamplesPerFrame) // default
	assert.Equal(t, 22050.0, cfg.SampleRate)  // default
}

func TestJitterSamplesConvertsMsecsAtSampleRate(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 264, cfg.JitterSamples()) // 12ms * 22050/1000 == 264.6 -> truncates to 264
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
