// Package config holds the runtime configuration shared by the synthctl
// commands and the HTTP server.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/synth"
)

// Environment variables read by FromEnv.
const (
	EnvExpFactor   = "SYNTHCTL_EXP_FACTOR"
	EnvDelaySlots  = "SYNTHCTL_DELAY_SLOTS"
	EnvReverbSlots = "SYNTHCTL_REVERB_SLOTS"
	EnvSampleRate  = "SYNTHCTL_SAMPLE_RATE"
	EnvAddr        = "SYNTHCTL_ADDR"
)

// Config is the process-wide configuration.
type Config struct {
	ExpFactor   float64
	DelaySlots  int
	ReverbSlots int
	SampleRate  int
	Addr        string
}

// Default returns the built-in configuration.
func Default() Config {
	pc := player.DefaultConfig()
	return Config{
		ExpFactor:   synth.DefaultExpFactor,
		DelaySlots:  pc.DelaySlots,
		ReverbSlots: pc.ReverbSlots,
		SampleRate:  48000,
		Addr:        ":8080",
	}
}

// FromEnv returns Default overridden by any SYNTHCTL_* variables that are set.
func FromEnv() (Config, error) {
	cfg := Default()
	if v := os.Getenv(EnvExpFactor); v != "" {
		k, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("config: %s: %w", EnvExpFactor, err)
		}
		cfg.ExpFactor = k
	}
	for _, e := range []struct {
		name string
		dst  *int
	}{
		{EnvDelaySlots, &cfg.DelaySlots},
		{EnvReverbSlots, &cfg.ReverbSlots},
		{EnvSampleRate, &cfg.SampleRate},
	} {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: %s: %w", e.name, err)
		}
		*e.dst = n
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	return cfg, cfg.Validate()
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case !(c.ExpFactor > 0) || math.IsInf(c.ExpFactor, 0):
		return fmt.Errorf("config: exp factor must be > 0: %f", c.ExpFactor)
	case c.DelaySlots < 1:
		return fmt.Errorf("config: delay slots must be >= 1: %d", c.DelaySlots)
	case c.ReverbSlots < 2:
		// id 0 is the distance reverb.
		return fmt.Errorf("config: reverb slots must be >= 2: %d", c.ReverbSlots)
	case c.SampleRate < 8000:
		return fmt.Errorf("config: sample rate must be >= 8000: %d", c.SampleRate)
	}
	return nil
}

// PlayerConfig returns the player configuration implied by c.
func (c Config) PlayerConfig() player.Config {
	pc := player.DefaultConfig()
	pc.DelaySlots = c.DelaySlots
	pc.ReverbSlots = c.ReverbSlots
	return pc
}

// SettingsOptions returns the synth options implied by c.
func (c Config) SettingsOptions() []synth.Option {
	return []synth.Option{synth.WithExpFactor(c.ExpFactor)}
}
