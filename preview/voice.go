package preview

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-synthctl/score"
)

type voice struct {
	n     score.Note
	start int64
	// stopAt is the frame release begins, or -1 while held.
	stopAt int64

	note       float64
	glideFrom  float64
	glideTo    float64
	phase      float64
	noiseIndex int

	filter    *biquad.Section
	occlusion *biquad.Section
}

func (r *Renderer) newVoice(n score.Note) *voice {
	start := r.pos + int64(math.Round(math.Max(0, n.Offset)*r.sampleRate))
	v := &voice{
		n:      n,
		start:  start,
		stopAt: -1,
		note:   float64(score.NoteOf(n.Pitch)),
	}
	v.glideFrom, v.glideTo = v.note, v.note
	if n.PitchModulation {
		v.glideFrom = float64(score.NoteOf(n.PitchStart))
		v.glideTo = float64(score.NoteOf(n.PitchEnd))
	}
	if n.Duration >= 0 {
		v.stopAt = start + int64(math.Round(n.Duration*r.sampleRate))
	}
	if c, ok := filterCoefficients(n.FilterType, n.FilterFrequency, n.FilterResonance, r.sampleRate); ok {
		v.filter = biquad.NewSection(c)
	}
	if n.Lowpass > 0 && n.Lowpass < 0.45*r.sampleRate {
		v.occlusion = biquad.NewSection(design.Lowpass(n.Lowpass, math.Sqrt2/2, r.sampleRate))
	}
	return v
}

// release starts the release stage at frame now unless already released.
func (v *voice) release(now int64) {
	if now < v.start {
		now = v.start
	}
	if v.stopAt < 0 || v.stopAt > now {
		v.stopAt = now
	}
}

// adsr returns the envelope level t seconds after the note started.
func adsr(t, attack, decay, sustain float64) float64 {
	switch {
	case t < attack:
		return t / attack
	case t < attack+decay:
		return 1 - (1-sustain)*(t-attack)/decay
	default:
		return sustain
	}
}

// envelope applies the release stage to adsr.
func envelope(t, held, attack, decay, sustain, release float64) (float64, bool) {
	if held < 0 || t < held {
		return adsr(t, attack, decay, sustain), false
	}
	level := adsr(held, attack, decay, sustain)
	rt := t - held
	if release <= 0 || rt >= release {
		return 0, true
	}
	return level * (1 - rt/release), false
}

// next returns the voice output for the current frame of r and whether
// the voice has finished.
func (v *voice) next(r *Renderer) (float64, bool) {
	if r.pos < v.start {
		return 0, false
	}
	elapsed := r.pos - v.start
	t := float64(elapsed) / r.sampleRate
	held := -1.0
	if v.stopAt >= 0 {
		held = float64(v.stopAt-v.start) / r.sampleRate
	}
	n := &v.n

	amp, done := envelope(t, held, n.AmpAttack, n.AmpDecay, n.AmpSustain, n.AmpRelease)
	if done {
		return 0, true
	}

	note := v.note
	if n.PitchModulation {
		pe, _ := envelope(t, held, n.PitchAttack, n.PitchDecay, n.PitchSustain, n.PitchRelease)
		note = v.glideFrom + (v.glideTo-v.glideFrom)*pe
	}
	freq := noteFreq(note)

	s := v.oscillator(r)
	v.phase += freq / r.sampleRate
	v.phase -= math.Floor(v.phase)

	if v.filter != nil {
		if n.FrequencyModulation && elapsed%controlInterval == 0 {
			fe, _ := envelope(t, held, n.FilterAttack, n.FilterDecay, n.FilterSustain, n.FilterRelease)
			cutoff := n.FilterFrequency * pow2(4*n.FilterEnvelopeAmount*fe)
			if c, ok := filterCoefficients(n.FilterType, cutoff, n.FilterResonance, r.sampleRate); ok {
				v.filter.Coefficients = c
			}
		}
		s = v.filter.ProcessSample(s)
	}
	if v.occlusion != nil {
		s = v.occlusion.ProcessSample(s)
	}
	return s * amp * n.Amplitude, false
}

func (v *voice) oscillator(r *Renderer) float64 {
	p := v.phase
	switch v.n.Waveform {
	case 2: // sawtooth
		return 2*p - 1
	case 3: // square
		if p < 0.5 {
			return 1
		}
		return -1
	case 4: // triangle
		return 4*math.Abs(p-0.5) - 1
	case 5: // pulse
		if p < 0.25 {
			return 1
		}
		return -1
	case 6: // white noise
		s := r.noise[v.noiseIndex]
		v.noiseIndex = (v.noiseIndex + 1) % len(r.noise)
		return s
	default:
		return math.Sin(2 * math.Pi * p)
	}
}
