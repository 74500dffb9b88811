package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Envelope is one ADSR group.
type Envelope struct {
	Attack  *Variable
	Decay   *Variable
	Sustain *Variable
	Release *Variable
}

// Settings is the full set of parameters one instrument plays with.
// A Settings value is always fully initialised: obtain one from New.
//
// Settings is not safe for concurrent mutation; callers sharing one
// value across goroutines must serialise access.
type Settings struct {
	Amp    *Envelope
	Pitch  *Envelope
	Filter *Envelope

	EnableDelay               bool
	EnableReverb              bool
	EnablePitchModulation     bool
	EnableFrequencyModulation bool

	vars      [paramCount]Param
	inspector [paramCount]float64
	limits    *Limits
	rand      RandomSource
	expFactor float64
}

type buildConfig struct {
	expFactor float64
	rand      RandomSource
	limits    *Limits
	values    map[ParamID]float64
}

// Option configures New.
type Option func(*buildConfig)

// WithExpFactor sets the exponent every exponential law is built with.
func WithExpFactor(k float64) Option {
	return func(c *buildConfig) { c.expFactor = k }
}

// WithRandom injects the source used by RandomizeVisual.
func WithRandom(r RandomSource) Option {
	return func(c *buildConfig) { c.rand = r }
}

// WithLimits makes the new value share an existing overlay.
func WithLimits(l *Limits) Option {
	return func(c *buildConfig) { c.limits = l }
}

// WithValue overrides the initial real value of id.
func WithValue(id ParamID, v float64) Option {
	return func(c *buildConfig) {
		if c.values == nil {
			c.values = make(map[ParamID]float64)
		}
		c.values[id] = v
	}
}

// New builds a fully initialised Settings value from the built-in defaults.
func New(opts ...Option) (*Settings, error) {
	cfg := buildConfig{expFactor: DefaultExpFactor}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	for id := range cfg.values {
		if !id.Valid() {
			return nil, configErr("new", id.String(), ErrUnknownParam)
		}
	}
	if cfg.rand == nil {
		cfg.rand = defaultRandom()
	}
	if cfg.limits == nil {
		cfg.limits = NewLimits()
	}

	s := &Settings{
		EnableFrequencyModulation: true,
		limits:                    cfg.limits,
		rand:                      cfg.rand,
		expFactor:                 cfg.expFactor,
	}
	for id := ParamID(0); id < paramCount; id++ {
		sp := specs[id]
		initial := sp.def
		if v, ok := cfg.values[id]; ok && !math.IsNaN(v) {
			initial = v
		}
		p, err := newParam(sp, initial, cfg.expFactor)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) {
				ce.Param = sp.name
			}
			return nil, err
		}
		s.vars[id] = p
		s.inspector[id] = p.Real()
	}
	s.Amp = s.envelope(AmpAttack, AmpDecay, AmpSustain, AmpRelease)
	s.Pitch = s.envelope(PitchAttack, PitchDecay, PitchSustain, PitchRelease)
	s.Filter = s.envelope(FilterAttack, FilterDecay, FilterSustain, FilterRelease)
	return s, nil
}

func newParam(sp paramSpec, initial, expFactor float64) (Param, error) {
	var law Law
	switch sp.curve {
	case CurveLinear:
		law = Linear()
	case CurveExponential:
		law = Exponential(expFactor)
	case CurveLookup:
		law = Lookup(DelayTimes)
	case CurveSteps:
		law = Steps()
	default:
		return nil, configErr("new", sp.name, ErrUnknownCurve)
	}
	if sp.isInt {
		return NewVariableInt(roundIndex(initial), int(sp.min), int(sp.max), law)
	}
	return NewVariable(initial, sp.min, sp.max, law)
}

func (s *Settings) envelope(a, d, su, r ParamID) *Envelope {
	return &Envelope{
		Attack:  s.vars[a].(*Variable),
		Decay:   s.vars[d].(*Variable),
		Sustain: s.vars[su].(*Variable),
		Release: s.vars[r].(*Variable),
	}
}

// Var returns the variable behind id.
func (s *Settings) Var(id ParamID) (Param, error) {
	if !id.Valid() {
		return nil, configErr("var", id.String(), ErrUnknownParam)
	}
	return s.vars[id], nil
}

// Value returns the real value of id.
func (s *Settings) Value(id ParamID) (float64, error) {
	p, err := s.Var(id)
	if err != nil {
		return 0, err
	}
	return p.Real(), nil
}

// MustValue is Value for ids known to be valid; it panics otherwise.
func (s *Settings) MustValue(id ParamID) float64 {
	v, err := s.Value(id)
	if err != nil {
		panic(err)
	}
	return v
}

// VisualValue returns the slider position of id.
func (s *Settings) VisualValue(id ParamID) (float64, error) {
	p, err := s.Var(id)
	if err != nil {
		return 0, err
	}
	return p.Visual(), nil
}

// Min returns the effective lower bound of id: the built-in bound,
// raised by an override when one is installed.
func (s *Settings) Min(id ParamID) (float64, error) {
	sp, err := lookupSpec("min", id)
	if err != nil {
		return 0, err
	}
	min, _ := s.limits.narrow(id, sp.min, sp.max)
	return min, nil
}

// Max returns the effective upper bound of id.
func (s *Settings) Max(id ParamID) (float64, error) {
	sp, err := lookupSpec("max", id)
	if err != nil {
		return 0, err
	}
	_, max := s.limits.narrow(id, sp.min, sp.max)
	return max, nil
}

// MeanValue returns the midpoint of the effective range of id.
func (s *Settings) MeanValue(id ParamID) (float64, error) {
	min, err := s.Min(id)
	if err != nil {
		return 0, err
	}
	max, err := s.Max(id)
	if err != nil {
		return 0, err
	}
	return min + (max-min)/2, nil
}

// SetValue clamps v into the effective range of id and stores it.
// It returns the stored real value.
func (s *Settings) SetValue(id ParamID, v float64) (float64, error) {
	p, err := s.Var(id)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return p.Real(), nil
	}
	min, _ := s.Min(id)
	max, _ := s.Max(id)
	var out float64
	if lv, ok := p.(*Variable); ok {
		out = lv.setRealWithin(core.Clamp(v, min, max), min, max)
	} else {
		out = p.SetReal(core.Clamp(v, min, max))
	}
	s.inspector[id] = out
	return out, nil
}

// SetVisualValue moves the slider of id to v, clamped to [0,1].
// Overrides from UpdateLimit do not apply on this path.
func (s *Settings) SetVisualValue(id ParamID, v float64) (float64, error) {
	p, err := s.Var(id)
	if err != nil {
		return 0, err
	}
	out := p.SetVisual(core.Clamp(v, 0, 1))
	s.inspector[id] = p.Real()
	return out, nil
}

// UpdateLimit installs an override for id and re-clamps its current value.
// The override is visible to every Settings sharing this overlay.
func (s *Settings) UpdateLimit(id ParamID, min, max float64) error {
	if !id.Valid() {
		return configErr("update-limit", id.String(), ErrUnknownParam)
	}
	if math.IsNaN(min) || math.IsNaN(max) {
		return configErr("update-limit", id.String(), fmt.Errorf("%w: NaN bound", ErrBadRange))
	}
	if min > max {
		return configErr("update-limit", id.String(), fmt.Errorf("%w: min %g > max %g", ErrBadRange, min, max))
	}
	s.limits.Set(id, min, max)
	_, err := s.SetValue(id, s.vars[id].Real())
	return err
}

// Limits returns the shared override overlay.
func (s *Settings) Limits() *Limits {
	return s.limits
}

// ExpFactor returns the exponent the exponential laws were built with.
func (s *Settings) ExpFactor() float64 {
	return s.expFactor
}

// RandomizeVisual moves the slider of id to a uniform draw in [lo, hi].
func (s *Settings) RandomizeVisual(id ParamID, lo, hi float64) (float64, error) {
	if !id.Valid() {
		return 0, configErr("randomize", id.String(), ErrUnknownParam)
	}
	return s.SetVisualValue(id, s.rand.NextUniform(lo, hi))
}

// RandomizeVisualFull is RandomizeVisual over the whole slider, [0, 1].
func (s *Settings) RandomizeVisualFull(id ParamID) (float64, error) {
	return s.RandomizeVisual(id, 0, 1)
}

// InspectorValue returns the mirrored value shown to external inspectors.
func (s *Settings) InspectorValue(id ParamID) (float64, error) {
	if !id.Valid() {
		return 0, configErr("inspector", id.String(), ErrUnknownParam)
	}
	return s.inspector[id], nil
}

// Clone is CloneFrom(s, false).
func (s *Settings) Clone() *Settings {
	return s.CloneFrom(s, false)
}

// CloneFrom returns a new value carrying every real value and toggle of
// src. The override overlay is shared with src, not copied. With
// keepOwnOctave the octave of s is kept instead of the one of src.
func (s *Settings) CloneFrom(src *Settings, keepOwnOctave bool) *Settings {
	dst, err := New(
		WithExpFactor(src.expFactor),
		WithRandom(src.rand),
		WithLimits(src.limits),
	)
	if err != nil {
		// src was built with the same configuration.
		panic(err)
	}
	for id := ParamID(0); id < paramCount; id++ {
		dst.inspector[id] = dst.vars[id].SetReal(src.vars[id].Real())
	}
	if keepOwnOctave {
		dst.inspector[Octave] = dst.vars[Octave].SetReal(s.vars[Octave].Real())
	}
	dst.EnableDelay = src.EnableDelay
	dst.EnableReverb = src.EnableReverb
	dst.EnablePitchModulation = src.EnablePitchModulation
	dst.EnableFrequencyModulation = src.EnableFrequencyModulation
	return dst
}

// SetEffect toggles the feature behind e.
func (s *Settings) SetEffect(e Effect, enabled bool) error {
	switch e {
	case EffectFrequencyFilter:
		s.EnableFrequencyModulation = enabled
	case EffectPitch:
		s.EnablePitchModulation = enabled
	case EffectDelay:
		s.EnableDelay = enabled
	case EffectRepeater:
	default:
		return configErr("set-effect", fmt.Sprintf("effect(%d)", int(e)), ErrUnknownParam)
	}
	return nil
}

func (s *Settings) intValue(id ParamID) int {
	return s.vars[id].(*VariableInt).Value()
}

// Waveform returns the selected oscillator shape.
func (s *Settings) Waveform() Waveform { return Waveform(s.intValue(WaveformParam)) }

// FilterType returns the selected filter response.
func (s *Settings) FilterType() FilterType { return FilterType(s.intValue(FilterTypeParam)) }

// ActivationMode returns how grouped notes are triggered.
func (s *Settings) ActivationMode() Activation { return Activation(s.intValue(ActivationMode)) }

// NoteOffsets returns the pitch envelope start and end offsets in semitones.
func (s *Settings) NoteOffsets() (start, end int) {
	return s.intValue(PitchStartOffset), s.intValue(PitchEndOffset)
}
