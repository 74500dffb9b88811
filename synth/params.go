package synth

import (
	"fmt"
	"strings"
)

// ParamID enumerates every modifiable setting. The numbering of the first
// 27 ids matches the saved-game format and must not change.
type ParamID int

const (
	ActivationMode ParamID = iota
	WaveformParam
	Octave
	ToneOffset
	Velocity
	Duration
	ReverbAmount
	AmpAttack
	AmpDecay
	AmpSustain
	AmpRelease
	PitchAttack
	PitchDecay
	PitchSustain
	PitchRelease
	FilterAttack
	FilterDecay
	FilterSustain
	FilterRelease
	FilterFrequency
	FilterResonance
	FilterEnvelopeAmount
	FilterTypeParam
	DelayFeedback
	DelayTime
	Note
	SubdivisionCount
	ReverbRoomSize
	ReverbDamping
	PitchStartOffset
	PitchEndOffset

	paramCount
)

// DelayTimes is the fixed table the delay-time slider steps through,
// longest first.
var DelayTimes = []float64{
	1.0 / 2.0,
	1.0 / 3.0,
	1.0 / 4.0,
	1.0 / 6.0,
	1.0 / 8.0,
	1.0 / 12.0,
	1.0 / 16.0,
}

// paramSpec is the static metadata of one id.
type paramSpec struct {
	name  string
	min   float64
	max   float64
	def   float64
	curve Curve
	isInt bool
}

var specs = [paramCount]paramSpec{
	ActivationMode:       {"activation_mode", 0, float64(activationModeCount - 1), float64(ActivationRandom), CurveSteps, true},
	WaveformParam:        {"waveform", 0, float64(waveformCount - 1), float64(Sine), CurveSteps, true},
	Octave:               {"octave", 3, 8, 4, CurveSteps, true},
	ToneOffset:           {"tone_offset", 0, 11, 0, CurveSteps, true},
	Velocity:             {"velocity", 0.05, 0.5, 0.05, CurveLinear, false},
	Duration:             {"duration", 0.001, 4, 0.5, CurveLinear, false},
	ReverbAmount:         {"reverb", 0, 1, 0, CurveLinear, false},
	AmpAttack:            {"amp_attack", attackMin, attackMax, 0.001, CurveExponential, false},
	AmpDecay:             {"amp_decay", decayMin, decayMax, 0.001, CurveExponential, false},
	AmpSustain:           {"amp_sustain", sustainMin, sustainMax, 1, CurveLinear, false},
	AmpRelease:           {"amp_release", releaseMin, releaseMax, 0.0001, CurveExponential, false},
	PitchAttack:          {"pitch_attack", attackMin, attackMax, 0.001, CurveExponential, false},
	PitchDecay:           {"pitch_decay", decayMin, decayMax, 0.001, CurveExponential, false},
	PitchSustain:         {"pitch_sustain", sustainMin, sustainMax, 1, CurveLinear, false},
	PitchRelease:         {"pitch_release", releaseMin, releaseMax, 0.0001, CurveExponential, false},
	FilterAttack:         {"filter_attack", attackMin, attackMax, 0.001, CurveExponential, false},
	FilterDecay:          {"filter_decay", decayMin, decayMax, 0.001, CurveExponential, false},
	FilterSustain:        {"filter_sustain", sustainMin, sustainMax, 1, CurveLinear, false},
	FilterRelease:        {"filter_release", releaseMin, releaseMax, 0.0001, CurveExponential, false},
	FilterFrequency:      {"filter_frequency", 20, 8000, 2000, CurveLinear, false},
	FilterResonance:      {"filter_resonance", 0.5, 30, 1, CurveLinear, false},
	FilterEnvelopeAmount: {"filter_envelope_amount", 0, 1, 0, CurveLinear, false},
	FilterTypeParam:      {"filter_type", 0, float64(filterTypeCount - 1), float64(Lowpass), CurveSteps, true},
	DelayFeedback:        {"delay_feedback", 0, 0.8, 0.5, CurveLinear, false},
	DelayTime:            {"delay_time", 0.01, 0.5, 0.3, CurveLookup, false},
	Note:                 {"note", 1, 127, 64, CurveLinear, true},
	SubdivisionCount:     {"subdivision_count", 3, 8, 4, CurveSteps, true},
	ReverbRoomSize:       {"reverb_room_size", 0, 1, 0.85, CurveLinear, false},
	ReverbDamping:        {"reverb_damping", 0, 1, 0.5, CurveLinear, false},
	PitchStartOffset:     {"pitch_start_offset", -48, 48, -12, CurveLinear, true},
	PitchEndOffset:       {"pitch_end_offset", -48, 48, 12, CurveLinear, true},
}

// Envelope bounds shared by the amplitude, pitch and filter groups.
const (
	attackMin  = 0.001
	attackMax  = 1.0
	decayMin   = 0.001
	decayMax   = 1.0
	sustainMin = 0.0
	sustainMax = 1.0
	releaseMin = 0.0001
	releaseMax = 1.0
)

// AllParams lists every id in enumeration order.
func AllParams() []ParamID {
	ids := make([]ParamID, paramCount)
	for i := range ids {
		ids[i] = ParamID(i)
	}
	return ids
}

// Valid reports whether id belongs to the enumeration.
func (id ParamID) Valid() bool {
	return id >= 0 && id < paramCount
}

func (id ParamID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("param(%d)", int(id))
	}
	return specs[id].name
}

// IsInt reports whether id is backed by an integer variable.
func (id ParamID) IsInt() bool {
	return id.Valid() && specs[id].isInt
}

// ParseParamID resolves a snake_case parameter name.
func ParseParamID(name string) (ParamID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	for i := range specs {
		if specs[i].name == name {
			return ParamID(i), nil
		}
	}
	return 0, configErr("parse", name, ErrUnknownParam)
}

func lookupSpec(op string, id ParamID) (paramSpec, error) {
	if !id.Valid() {
		return paramSpec{}, configErr(op, id.String(), ErrUnknownParam)
	}
	return specs[id], nil
}

// BuiltinRange returns the hard-coded bounds of id, before overrides.
func BuiltinRange(id ParamID) (min, max float64, err error) {
	sp, err := lookupSpec("range", id)
	if err != nil {
		return 0, 0, err
	}
	return sp.min, sp.max, nil
}

// Waveform selects the oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Sawtooth
	Square
	Triangle
	Pulse
	WhiteNoise
	waveformCount
)

var waveformNames = [...]string{"sine", "sawtooth", "square", "triangle", "pulse", "white_noise"}

func (w Waveform) String() string {
	if w < 0 || w >= waveformCount {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// FilterType selects the frequency filter response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	filterTypeCount
)

func (f FilterType) String() string {
	switch f {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	default:
		return fmt.Sprintf("filter(%d)", int(f))
	}
}

// Activation describes how a group of notes is triggered.
type Activation int

const (
	ActivationQueueReverse Activation = iota
	ActivationAccord
	ActivationQueue
	ActivationRandom
	ActivationSweep
	activationModeCount
)

// Effect names a toggleable feature of a settings value.
type Effect int

const (
	EffectFrequencyFilter Effect = iota
	EffectPitch
	EffectDelay
	// EffectRepeater changes how notes are activated; it has no toggle here.
	EffectRepeater
)
