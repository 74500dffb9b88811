package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-synthctl/synth"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesValuesTogglesAndLimits(t *testing.T) {
	path := writePreset(t, `{
  "version": 1,
  "values": {
    "amp_attack": {"real": 0.01, "law": "exponential"},
    "delay_time": {"visual": 0.5},
    "octave": {"real": 6},
    "velocity": {"real": 0.45}
  },
  "toggles": {"delay": true, "frequency_modulation": false},
  "limits": {"velocity": {"max": 0.3}}
}`)

	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if got := s.MustValue(synth.AmpAttack); got != 0.01 {
		t.Fatalf("amp_attack = %g", got)
	}
	if got := s.MustValue(synth.DelayTime); got != synth.DelayTimes[3] {
		t.Fatalf("delay_time = %g", got)
	}
	if got := s.MustValue(synth.Octave); got != 6 {
		t.Fatalf("octave = %g", got)
	}
	if got := s.MustValue(synth.Velocity); got != 0.3 {
		t.Fatalf("velocity not clamped to override: %g", got)
	}
	if min, _ := s.Min(synth.Velocity); min != 0.05 {
		t.Fatalf("missing min side should keep built-in bound, got %g", min)
	}
	if !s.EnableDelay || s.EnableFrequencyModulation || s.EnableReverb {
		t.Fatalf("toggles mismatch: delay=%v fm=%v reverb=%v", s.EnableDelay, s.EnableFrequencyModulation, s.EnableReverb)
	}
}

func TestLoadJSONRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown name", `{"values": {"wobble": {"real": 1}}}`, "unknown parameter"},
		{"law mismatch", `{"values": {"velocity": {"real": 0.1, "law": "exponential"}}}`, "does not match"},
		{"unknown law", `{"values": {"velocity": {"real": 0.1, "law": "cubic"}}}`, "unknown curve"},
		{"both sides", `{"values": {"velocity": {"real": 0.1, "visual": 0.2}}}`, "not both"},
		{"empty value", `{"values": {"velocity": {}}}`, "missing"},
		{"inverted limit", `{"limits": {"velocity": {"min": 0.4, "max": 0.1}}}`, "min 0.4 > max 0.1"},
		{"future version", `{"version": 7}`, "version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON(writePreset(t, tt.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	s, err := synth.New(synth.WithExpFactor(2))
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	s.SetValue(synth.FilterFrequency, 1234.5)
	s.SetVisualValue(synth.AmpRelease, 0.3)
	s.SetValue(synth.WaveformParam, float64(synth.Triangle))
	s.EnableReverb = true
	if err := s.UpdateLimit(synth.Duration, 0.1, 2); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := SaveJSON(path, s); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if got.ExpFactor() != 2 {
		t.Fatalf("exp factor = %g, want 2", got.ExpFactor())
	}
	for _, id := range synth.AllParams() {
		if a, b := s.MustValue(id), got.MustValue(id); a != b {
			t.Fatalf("%s: saved %g, loaded %g", id, a, b)
		}
	}
	if !got.EnableReverb || got.Waveform() != synth.Triangle {
		t.Fatalf("toggles or waveform lost")
	}
	if max, _ := got.Max(synth.Duration); max != 2 {
		t.Fatalf("duration override lost: max %g", max)
	}
}
