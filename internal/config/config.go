// Package config loads the mixer's recognized configuration (spec.md §6)
// from a YAML file, applying the stated defaults for anything absent or
// zero.
//
// Grounded on Raikerian's internal/config/config.go and harperreed's
// internal/application/config/config.go, both of which read a YAML file
// into a typed struct via gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors spec.md §6's recognized configuration table.
type Config struct {
	SampleRate         float64 `yaml:"sample_rate"`
	SamplesPerFrame    int     `yaml:"samples_per_frame"`
	RingFrames         int     `yaml:"ring_frames"`
	JitterMsecs        float64 `yaml:"jitter_msecs"`
	GapIntervalSamples int     `yaml:"gap_interval_samples"`
	GapWindowIntervals int     `yaml:"gap_window_intervals"`
	DistanceRatio      float64 `yaml:"distance_ratio"`
	MaxOffAxisAtten    float64 `yaml:"max_off_axis_atten"`
	PhaseAmpRatioAt90  float64 `yaml:"phase_amp_ratio_at_90"`
	PhaseDelayAt90     float64 `yaml:"phase_delay_at_90"`

	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns the configuration spec.md §6 specifies when every key is
// absent.
func Default() Config {
	return Config{
		SampleRate:         22050,
		SamplesPerFrame:    256,
		RingFrames:         10,
		JitterMsecs:        12,
		GapIntervalSamples: 50,
		GapWindowIntervals: 32,
		DistanceRatio:      10,
		MaxOffAxisAtten:    0.2,
		PhaseAmpRatioAt90:  0.5,
		PhaseDelayAt90:     20,
		ListenAddr:         ":4899",
		LogLevel:           "info",
	}
}

// Load reads path as YAML and fills any zero-valued field with its default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults restores the default for any field a loaded file set to its
// Go zero value (an explicit 0 or empty string). Keys absent from the file
// already hold Default's values, since yaml.Unmarshal only overwrites the
// fields the file names.
func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.SampleRate == 0 {
		cfg.SampleRate = d.SampleRate
	}
	if cfg.SamplesPerFrame == 0 {
		cfg.SamplesPerFrame = d.SamplesPerFrame
	}
	if cfg.RingFrames == 0 {
		cfg.RingFrames = d.RingFrames
	}
	if cfg.JitterMsecs == 0 {
		cfg.JitterMsecs = d.JitterMsecs
	}
	if cfg.GapIntervalSamples == 0 {
		cfg.GapIntervalSamples = d.GapIntervalSamples
	}
	if cfg.GapWindowIntervals == 0 {
		cfg.GapWindowIntervals = d.GapWindowIntervals
	}
	if cfg.DistanceRatio == 0 {
		cfg.DistanceRatio = d.DistanceRatio
	}
	if cfg.MaxOffAxisAtten == 0 {
		cfg.MaxOffAxisAtten = d.MaxOffAxisAtten
	}
	if cfg.PhaseAmpRatioAt90 == 0 {
		cfg.PhaseAmpRatioAt90 = d.PhaseAmpRatioAt90
	}
	if cfg.PhaseDelayAt90 == 0 {
		cfg.PhaseDelayAt90 = d.PhaseDelayAt90
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = d.ListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
}

// JitterSamples converts JitterMsecs into the sample-count cushion J spec.md
// §4.5 uses.
func (c Config) JitterSamples() int {
	return int(c.JitterMsecs * c.SampleRate / 1000)
}
