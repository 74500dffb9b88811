// Package preview renders score events offline so that settings can be
// auditioned and fitted without the audio engine. It approximates the
// engine's orchestra: one oscillator voice per note instance with ADSR
// amplitude, pitch and filter envelopes, feeding shared delay and reverb
// instances started by activation events.
package preview

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/core"
	dspfx "github.com/cwbudde/algo-dsp/dsp/effects"
	dspreverb "github.com/cwbudde/algo-dsp/dsp/effects/reverb"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/cwbudde/algo-dsp/dsp/signal"

	"github.com/cwbudde/algo-synthctl/score"
)

const (
	// controlInterval is the number of frames between filter updates.
	controlInterval = 32
	noiseTableLen   = 1 << 15

	distanceRoomSize = 0.85
	distanceDamping  = 0.5
	reverbWet        = 0.33
)

// Renderer is a score.Sink that accumulates voices and effect instances
// and renders them on demand. Safe for concurrent use.
type Renderer struct {
	mu         sync.Mutex
	sampleRate float64
	pos        int64
	voices     map[int]*voice
	delays     map[int]*delaySlot
	reverbs    map[int]*reverbSlot
	noise      []float64
	room       *roomConvolver
	logger     *slog.Logger
	rejected   int

	roomIR  [2][]float32
	roomMix float64
}

type delaySlot struct {
	fx   *dspfx.Delay
	send float64
}

type reverbSlot struct {
	fx   *dspreverb.Reverb
	send float64
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger rejected events are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithNoiseSeed fixes the white-noise table.
func WithNoiseSeed(seed int64) Option {
	return func(r *Renderer) { r.noise = noiseTable(seed) }
}

// WithRoomIR adds a convolution room fed with the mono sum of the output
// and mixed back in at mix.
func WithRoomIR(left, right []float32, mix float64) Option {
	return func(r *Renderer) {
		r.roomIR = [2][]float32{left, right}
		r.roomMix = mix
	}
}

// New returns a renderer at sampleRate with the distance reverb running.
func New(sampleRate float64, opts ...Option) (*Renderer, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("preview: sample rate must be > 0: %f", sampleRate)
	}
	r := &Renderer{
		sampleRate: sampleRate,
		voices:     make(map[int]*voice),
		delays:     make(map[int]*delaySlot),
		reverbs:    make(map[int]*reverbSlot),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.noise == nil {
		r.noise = noiseTable(1)
	}
	if r.roomIR[0] != nil {
		room, err := newRoomConvolver(r.roomIR[0], r.roomIR[1], r.roomMix)
		if err != nil {
			return nil, err
		}
		r.room = room
	}
	r.reverbs[0] = &reverbSlot{fx: newReverb(distanceRoomSize, distanceDamping)}
	return r, nil
}

func noiseTable(seed int64) []float64 {
	g := signal.NewGeneratorWithOptions(nil, signal.WithSeed(seed))
	n, err := g.WhiteNoise(1, noiseTableLen)
	if err != nil {
		panic(err)
	}
	return n
}

func newReverb(roomSize, damping float64) *dspreverb.Reverb {
	rv := dspreverb.NewReverb()
	rv.SetRoomSize(0.7 + 0.28*core.Clamp(roomSize, 0, 1))
	rv.SetDamp(0.4 * core.Clamp(damping, 0, 1))
	rv.SetWet(reverbWet)
	rv.SetDry(0)
	return rv
}

// SampleRate returns the render rate.
func (r *Renderer) SampleRate() float64 { return r.sampleRate }

// Emit interprets one score event. Malformed or unknown events are logged
// and counted, never fatal.
func (r *Renderer) Emit(cmd string) {
	ev, err := score.Parse(cmd)
	if err == nil {
		r.mu.Lock()
		err = r.apply(ev)
		r.mu.Unlock()
	}
	if err != nil {
		r.mu.Lock()
		r.rejected++
		r.mu.Unlock()
		r.logger.Warn("preview rejected event", "event", cmd, "error", err)
	}
}

var errUnknownInstrument = errors.New("unknown instrument")

func (r *Renderer) apply(ev score.Event) error {
	switch {
	case ev.Off():
		if v, ok := r.voices[ev.Instance]; ok {
			v.release(r.pos)
		}
		return nil
	case ev.Instrument == score.NoteInstrument:
		n, err := score.NoteFromEvent(ev)
		if err != nil {
			return err
		}
		r.voices[ev.Instance] = r.newVoice(n)
		return nil
	case ev.Instrument == score.DelayInstrument:
		d, err := dspfx.NewDelay(r.sampleRate)
		if err != nil {
			return err
		}
		if err := d.SetTime(core.Clamp(ev.Field(6), 0.001, 2)); err != nil {
			return err
		}
		if err := d.SetFeedback(core.Clamp(ev.Field(5), 0, 0.99)); err != nil {
			return err
		}
		if err := d.SetMix(1); err != nil {
			return err
		}
		r.delays[ev.Instance] = &delaySlot{fx: d}
		return nil
	case ev.Instrument == score.ReverbInstrument:
		r.reverbs[ev.Instance] = &reverbSlot{fx: newReverb(ev.Field(5), ev.Field(6))}
		return nil
	default:
		return fmt.Errorf("%w %d", errUnknownInstrument, ev.Instrument)
	}
}

// Voices returns the number of voices still sounding or scheduled.
func (r *Renderer) Voices() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}

// Rejected returns the number of events that could not be interpreted.
func (r *Renderer) Rejected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rejected
}

// Delays returns the number of delay instances started so far.
func (r *Renderer) Delays() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delays)
}

// Render advances time by frames and returns interleaved stereo samples.
func (r *Renderer) Render(frames int) []float32 {
	if frames <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		var left, right float64
		for id, v := range r.voices {
			s, done := v.next(r)
			if done {
				delete(r.voices, id)
				continue
			}
			left += s * v.n.Left
			right += s * v.n.Right
			if d, ok := r.delays[v.n.DelaySlot]; ok && v.n.DelaySlot >= 0 {
				d.send += s
			}
			r.reverbs[0].send += s * v.n.Reverb
			if v.n.ReverbSlot > 0 {
				if rv, ok := r.reverbs[v.n.ReverbSlot]; ok {
					rv.send += s
				}
			}
		}
		var wet float64
		for _, d := range r.delays {
			wet += d.fx.ProcessSample(d.send)
			d.send = 0
		}
		for _, rv := range r.reverbs {
			wet += rv.fx.ProcessSample(rv.send)
			rv.send = 0
		}
		left += wet
		right += wet
		if r.room != nil {
			rl, rr := r.room.process(float32((left + right) / 2))
			left += rl
			right += rr
		}
		out[i*2] = float32(left)
		out[i*2+1] = float32(right)
		r.pos++
	}
	return out
}

// RenderSeconds renders d seconds.
func (r *Renderer) RenderSeconds(d float64) []float32 {
	return r.Render(int(math.Round(d * r.sampleRate)))
}

// pow2 mirrors the fast exponential used by the oscillators.
func pow2(x float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(x * ln2)))
}

// noteFreq converts a fractional note number to Hz. Note 72 encodes as
// pitch 8.00, middle C.
func noteFreq(note float64) float64 {
	const middleC = 261.6255653005986
	return middleC * pow2((note-72)/12)
}

func filterCoefficients(kind int, freq, q, sampleRate float64) (biquad.Coefficients, bool) {
	freq = core.Clamp(freq, 20, 0.45*sampleRate)
	switch kind {
	case 0:
		return design.Lowpass(freq, q, sampleRate), true
	case 1:
		return design.Highpass(freq, q, sampleRate), true
	case 2:
		return design.Bandpass(freq, q, sampleRate), true
	default:
		return biquad.Coefficients{}, false
	}
}
