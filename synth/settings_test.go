package synth

import (
	"errors"
	"math"
	"testing"
)

func newSettings(t *testing.T, opts ...Option) *Settings {
	t.Helper()
	s, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

type fixedRandom struct {
	v      float64
	lo, hi float64
}

func (f *fixedRandom) NextUniform(lo, hi float64) float64 {
	f.lo, f.hi = lo, hi
	return f.v
}

func TestNewDefaults(t *testing.T) {
	s := newSettings(t)
	tests := []struct {
		id   ParamID
		want float64
	}{
		{Velocity, 0.05},
		{Duration, 0.5},
		{Octave, 4},
		{FilterFrequency, 2000},
		{ReverbRoomSize, 0.85},
		{DelayTime, 1.0 / 3.0}, // 0.3 is not in the table
		{PitchStartOffset, -12},
		{PitchEndOffset, 12},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			if got := s.MustValue(tt.id); got != tt.want {
				t.Fatalf("%s = %g, want %g", tt.id, got, tt.want)
			}
			if got, _ := s.InspectorValue(tt.id); got != tt.want {
				t.Fatalf("inspector %s = %g, want %g", tt.id, got, tt.want)
			}
		})
	}
	if s.ActivationMode() != ActivationRandom {
		t.Fatalf("activation mode = %d", s.ActivationMode())
	}
	if !s.EnableFrequencyModulation || s.EnableDelay || s.EnableReverb || s.EnablePitchModulation {
		t.Fatalf("unexpected default toggles: %+v", s)
	}
	if s.Amp.Attack != s.vars[AmpAttack] {
		t.Fatalf("Amp.Attack is not the AMP_ATTACK variable")
	}
}

func TestDelayTimeMidpoint(t *testing.T) {
	s := newSettings(t)
	if _, err := s.SetVisualValue(DelayTime, 0.5); err != nil {
		t.Fatalf("SetVisualValue: %v", err)
	}
	if got := s.MustValue(DelayTime); got != DelayTimes[3] {
		t.Fatalf("delay time at 0.5 = %g, want %g", got, DelayTimes[3])
	}
}

func TestSetValueClampsToEffectiveRange(t *testing.T) {
	s := newSettings(t)
	got, err := s.SetValue(Velocity, 3)
	if err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("SetValue(3) = %g, want 0.5", got)
	}
	before := s.MustValue(Duration)
	if got, _ := s.SetValue(Duration, math.NaN()); got != before {
		t.Fatalf("NaN changed duration to %g", got)
	}
}

func TestOverridesOnlyNarrow(t *testing.T) {
	s := newSettings(t)
	if err := s.UpdateLimit(Velocity, 0.0, 0.5); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	if min, _ := s.Min(Velocity); min != 0.05 {
		t.Fatalf("min = %g, want built-in 0.05", min)
	}
	if err := s.UpdateLimit(Velocity, 0.1, 0.3); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	min, _ := s.Min(Velocity)
	max, _ := s.Max(Velocity)
	if min != 0.1 || max != 0.3 {
		t.Fatalf("range = [%g, %g], want [0.1, 0.3]", min, max)
	}
	if got := s.MustValue(Velocity); got != 0.1 {
		t.Fatalf("value not re-clamped: %g", got)
	}
	if mean, _ := s.MeanValue(Velocity); math.Abs(mean-0.2) > 1e-12 {
		t.Fatalf("mean = %g, want 0.2", mean)
	}
	if got, _ := s.SetValue(Velocity, 0.45); got != 0.3 {
		t.Fatalf("SetValue above override = %g, want 0.3", got)
	}
}

func TestVisualPathIgnoresOverrides(t *testing.T) {
	s := newSettings(t)
	if err := s.UpdateLimit(Velocity, 0.1, 0.2); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	s.SetVisualValue(Velocity, 1)
	if got := s.MustValue(Velocity); got != 0.5 {
		t.Fatalf("visual 1 = %g, want built-in max 0.5", got)
	}
}

func TestUpdateLimitRejectsNaN(t *testing.T) {
	s := newSettings(t)
	if err := s.UpdateLimit(Velocity, math.NaN(), 0.3); !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newSettings(t)
	s.EnableDelay = true
	s.SetValue(Duration, 2)
	s.SetValue(AmpAttack, 0.2)
	c := s.Clone()
	if c.MustValue(Duration) != 2 || !c.EnableDelay || c.MustValue(AmpAttack) != 0.2 {
		t.Fatalf("clone lost state: duration %g delay %v attack %g", c.MustValue(Duration), c.EnableDelay, c.MustValue(AmpAttack))
	}
	c.SetValue(Duration, 1)
	c.SetValue(AmpAttack, 0.7)
	c.EnableDelay = false
	if s.MustValue(Duration) != 2 || !s.EnableDelay {
		t.Fatalf("mutating the clone changed the source")
	}
	if got := s.MustValue(AmpAttack); got != 0.2 {
		t.Fatalf("source amp attack = %g after clone write, want 0.2", got)
	}
	c.Amp.Attack.SetReal(0.9)
	if got := s.Amp.Attack.Real(); got != 0.2 {
		t.Fatalf("source envelope attack = %g after clone envelope write, want 0.2", got)
	}
}

func TestLookupOverrideStaysInRange(t *testing.T) {
	s := newSettings(t)
	if err := s.UpdateLimit(DelayTime, 0.2, 0.3); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	if got := s.MustValue(DelayTime); got != 0.25 {
		t.Fatalf("re-clamped delay time = %g, want 1/4", got)
	}
	for _, v := range []float64{0.3, 0.5, 0.01, 0.26} {
		got, err := s.SetValue(DelayTime, v)
		if err != nil {
			t.Fatalf("SetValue(%g): %v", v, err)
		}
		if got != 0.25 {
			t.Fatalf("SetValue(%g) = %g, want 1/4 inside [0.2, 0.3]", v, got)
		}
	}
	// No entry inside the override: plain nearest.
	if err := s.UpdateLimit(DelayTime, 0.26, 0.3); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	if got, _ := s.SetValue(DelayTime, 0.3); got != 1.0/3.0 {
		t.Fatalf("SetValue with empty table range = %g, want 1/3", got)
	}
}

func TestUpdateLimitRejectsInverted(t *testing.T) {
	s := newSettings(t)
	err := s.UpdateLimit(Velocity, 0.4, 0.1)
	var ce *ConfigError
	if !errors.As(err, &ce) || !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ConfigError wrapping ErrBadRange, got %v", err)
	}
	if _, _, ok := s.Limits().Get(Velocity); ok {
		t.Fatalf("rejected override was installed")
	}
}

func TestDisjointOverrideCollapses(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		want     float64
	}{
		{"above built-in", 0.6, 0.7, 0.5},
		{"below built-in", 0.0, 0.01, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSettings(t)
			s.SetValue(Velocity, 0.3)
			if err := s.UpdateLimit(Velocity, tt.min, tt.max); err != nil {
				t.Fatalf("UpdateLimit: %v", err)
			}
			min, _ := s.Min(Velocity)
			max, _ := s.Max(Velocity)
			if min != tt.want || max != tt.want {
				t.Fatalf("range = [%g, %g], want [%g, %g]", min, max, tt.want, tt.want)
			}
			if got := s.MustValue(Velocity); got != tt.want {
				t.Fatalf("value = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestCloneSharesLimits(t *testing.T) {
	s := newSettings(t)
	c := s.Clone()
	if c.Limits() != s.Limits() {
		t.Fatalf("clone has its own overlay")
	}
	if err := s.UpdateLimit(FilterFrequency, 100, 1000); err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	if max, _ := c.Max(FilterFrequency); max != 1000 {
		t.Fatalf("clone max = %g, want 1000", max)
	}
}

func TestCloneFromKeepsOwnOctave(t *testing.T) {
	src := newSettings(t)
	src.SetValue(Octave, 7)
	src.SetValue(Velocity, 0.4)
	dst := newSettings(t)
	dst.SetValue(Octave, 3)

	kept := dst.CloneFrom(src, true)
	if kept.MustValue(Octave) != 3 || kept.MustValue(Velocity) != 0.4 {
		t.Fatalf("keepOwnOctave: octave %g velocity %g", kept.MustValue(Octave), kept.MustValue(Velocity))
	}
	copied := dst.CloneFrom(src, false)
	if copied.MustValue(Octave) != 7 {
		t.Fatalf("octave = %g, want 7", copied.MustValue(Octave))
	}
}

func TestRandomizeVisual(t *testing.T) {
	r := &fixedRandom{v: 0.25}
	s := newSettings(t, WithRandom(r))
	if _, err := s.RandomizeVisual(Velocity, 0.1, 0.9); err != nil {
		t.Fatalf("RandomizeVisual: %v", err)
	}
	if r.lo != 0.1 || r.hi != 0.9 {
		t.Fatalf("source called with [%g, %g]", r.lo, r.hi)
	}
	want := 0.05 + 0.45*0.25
	if got := s.MustValue(Velocity); math.Abs(got-want) > 1e-12 {
		t.Fatalf("velocity = %g, want %g", got, want)
	}
	if got, _ := s.InspectorValue(Velocity); got != s.MustValue(Velocity) {
		t.Fatalf("inspector %g out of sync", got)
	}
}

func TestExpFactorIsConfigurable(t *testing.T) {
	s := newSettings(t, WithExpFactor(2))
	s.SetVisualValue(AmpAttack, 0.5)
	if got := s.MustValue(AmpAttack); got != 0.25 {
		t.Fatalf("attack at 0.5 with k=2 = %g, want 0.25", got)
	}
	if s.Clone().ExpFactor() != 2 {
		t.Fatalf("clone dropped the exponent")
	}
}

func TestNewRejectsBadExpFactor(t *testing.T) {
	_, err := New(WithExpFactor(0))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if ce.Param != "amp_attack" || !errors.Is(err, ErrBadRange) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestWithValue(t *testing.T) {
	s := newSettings(t, WithValue(Octave, 6), WithValue(FilterFrequency, 99999))
	if s.MustValue(Octave) != 6 {
		t.Fatalf("octave = %g", s.MustValue(Octave))
	}
	if s.MustValue(FilterFrequency) != 8000 {
		t.Fatalf("frequency not clamped: %g", s.MustValue(FilterFrequency))
	}
	if _, err := New(WithValue(ParamID(200), 1)); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
}

func TestUnknownParam(t *testing.T) {
	s := newSettings(t)
	bad := ParamID(-1)
	checks := map[string]error{}
	_, checks["value"] = s.Value(bad)
	_, checks["visual"] = s.VisualValue(bad)
	_, checks["min"] = s.Min(bad)
	_, checks["set"] = s.SetValue(bad, 1)
	_, checks["set-visual"] = s.SetVisualValue(bad, 1)
	checks["limit"] = s.UpdateLimit(bad, 0, 1)
	for name, err := range checks {
		if !errors.Is(err, ErrUnknownParam) {
			t.Fatalf("%s: expected ErrUnknownParam, got %v", name, err)
		}
	}
}

func TestParseParamID(t *testing.T) {
	for _, id := range AllParams() {
		got, err := ParseParamID(id.String())
		if err != nil || got != id {
			t.Fatalf("ParseParamID(%q) = %v, %v", id.String(), got, err)
		}
	}
	if got, err := ParseParamID("Delay-Time"); err != nil || got != DelayTime {
		t.Fatalf("ParseParamID(Delay-Time) = %v, %v", got, err)
	}
	if _, err := ParseParamID("wobble"); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
}

func TestSetEffect(t *testing.T) {
	s := newSettings(t)
	if err := s.SetEffect(EffectDelay, true); err != nil || !s.EnableDelay {
		t.Fatalf("SetEffect delay: %v", err)
	}
	if err := s.SetEffect(EffectFrequencyFilter, false); err != nil || s.EnableFrequencyModulation {
		t.Fatalf("SetEffect filter: %v", err)
	}
	if err := s.SetEffect(Effect(17), true); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("expected error for unknown effect, got %v", err)
	}
}

func TestRandomizeVisualFull(t *testing.T) {
	r := &fixedRandom{v: 1}
	s := newSettings(t, WithRandom(r))
	if _, err := s.RandomizeVisualFull(Velocity); err != nil {
		t.Fatalf("RandomizeVisualFull: %v", err)
	}
	if r.lo != 0 || r.hi != 1 {
		t.Fatalf("source called with [%g, %g], want [0, 1]", r.lo, r.hi)
	}
	if got := s.MustValue(Velocity); got != 0.5 {
		t.Fatalf("velocity = %g, want 0.5", got)
	}
	if _, err := s.RandomizeVisualFull(ParamID(-1)); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
}
