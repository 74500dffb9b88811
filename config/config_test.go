package config

import (
	"testing"

	"github.com/cwbudde/algo-synthctl/synth"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.ExpFactor != synth.DefaultExpFactor || c.DelaySlots != 4 || c.ReverbSlots != 4 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvExpFactor, "2.5")
	t.Setenv(EnvDelaySlots, "8")
	t.Setenv(EnvReverbSlots, "6")
	t.Setenv(EnvSampleRate, "44100")
	t.Setenv(EnvAddr, "127.0.0.1:9000")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Config{ExpFactor: 2.5, DelaySlots: 8, ReverbSlots: 6, SampleRate: 44100, Addr: "127.0.0.1:9000"}
	if c != want {
		t.Fatalf("FromEnv = %+v, want %+v", c, want)
	}
	pc := c.PlayerConfig()
	if pc.DelaySlots != 8 || pc.ReverbSlots != 6 {
		t.Fatalf("PlayerConfig = %+v", pc)
	}
	s, err := synth.New(c.SettingsOptions()...)
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	if s.ExpFactor() != 2.5 {
		t.Fatalf("exp factor = %f", s.ExpFactor())
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unparsable exp factor", EnvExpFactor, "steep"},
		{"zero exp factor", EnvExpFactor, "0"},
		{"unparsable slots", EnvDelaySlots, "four"},
		{"no delay slots", EnvDelaySlots, "0"},
		{"reverb slots without a free id", EnvReverbSlots, "1"},
		{"low sample rate", EnvSampleRate, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
