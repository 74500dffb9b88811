// Package player turns note requests into score events. It owns the delay
// and reverb slot caches so that notes sharing an effect configuration are
// routed through the same engine instance.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cwbudde/algo-synthctl/effects"
	"github.com/cwbudde/algo-synthctl/score"
	"github.com/cwbudde/algo-synthctl/synth"
)

// Note numbers outside [MinNote, MaxNote] are rejected.
const (
	MinNote = 0
	MaxNote = 127
)

// DefaultLowpass is the cutoff written when the caller does not attenuate.
const DefaultLowpass = 20000.0

var (
	ErrNoteRange   = errors.New("player: note out of range")
	ErrNilSettings = errors.New("player: nil settings")
)

// Config sizes the effect pools.
type Config struct {
	DelaySlots  int
	ReverbSlots int
	Logger      *slog.Logger
	// Random orders RANDOM activation groups. Nil uses a time-seeded source.
	Random synth.RandomSource
}

// DefaultConfig matches the engine's orchestra: four instances per family.
func DefaultConfig() Config {
	return Config{
		DelaySlots:  effects.DelayFamily.Capacity,
		ReverbSlots: effects.ReverbFamily.Capacity,
	}
}

// Player formats note events for one engine. Safe for concurrent use.
type Player struct {
	mu      sync.Mutex
	sink    score.Sink
	delays  *effects.SlotCache[effects.DelayKey]
	reverbs *effects.SlotCache[effects.ReverbKey]
	muted   bool
	logger  *slog.Logger
	rand    synth.RandomSource
}

// New returns a player emitting to sink.
func New(sink score.Sink, cfg Config) (*Player, error) {
	if sink == nil {
		sink = score.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delays, err := effects.NewSlotCache[effects.DelayKey](
		effects.DelayFamily.WithCapacity(cfg.DelaySlots), sink, effects.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("delay pool: %w", err)
	}
	reverbs, err := effects.NewSlotCache[effects.ReverbKey](
		effects.ReverbFamily.WithCapacity(cfg.ReverbSlots), sink, effects.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("reverb pool: %w", err)
	}
	rnd := cfg.Random
	if rnd == nil {
		rnd = synth.NewSeededRandom(timeSeed())
	}
	return &Player{
		sink:    sink,
		delays:  delays,
		reverbs: reverbs,
		logger:  logger,
		rand:    rnd,
	}, nil
}

// PlayOption adjusts one PlayNote call.
type PlayOption func(*playOptions)

type playOptions struct {
	offset     float64
	volume     float64
	left       float64
	right      float64
	lowpass    float64
	indefinite bool
	duration   *float64
}

func defaultPlayOptions() playOptions {
	return playOptions{volume: 1, left: 1, right: 1, lowpass: DefaultLowpass}
}

// WithOffset delays the note start by seconds.
func WithOffset(seconds float64) PlayOption {
	return func(o *playOptions) { o.offset = seconds }
}

// WithVolume scales the velocity by a distance factor in [0,1]. The
// remainder is sent to the distance reverb. A factor <= 0 drops the note.
func WithVolume(factor float64) PlayOption {
	return func(o *playOptions) { o.volume = factor }
}

// WithPan sets the left and right channel gains.
func WithPan(left, right float64) PlayOption {
	return func(o *playOptions) { o.left, o.right = left, right }
}

// WithLowpass sets the occlusion lowpass cutoff in Hz.
func WithLowpass(hz float64) PlayOption {
	return func(o *playOptions) { o.lowpass = hz }
}

// Indefinitely holds the note until StopNote.
func Indefinitely() PlayOption {
	return func(o *playOptions) { o.indefinite = true }
}

// WithDuration overrides the duration taken from the settings.
func WithDuration(seconds float64) PlayOption {
	return func(o *playOptions) { o.duration = &seconds }
}

// SetMute drops every later note while on.
func (p *Player) SetMute(on bool) {
	p.mu.Lock()
	p.muted = on
	p.mu.Unlock()
}

// Muted reports the mute state.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// PlayNote emits the events for one note played with s. Effect slots are
// resolved first, so any activation events precede the note event.
// Nothing is emitted while muted or when the volume factor is <= 0.
func (p *Player) PlayNote(note int, s *synth.Settings, opts ...PlayOption) error {
	if s == nil {
		return ErrNilSettings
	}
	if note < MinNote || note > MaxNote {
		return fmt.Errorf("%w: %d", ErrNoteRange, note)
	}
	o := defaultPlayOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted || o.volume <= 0 {
		return nil
	}

	delayID, _ := p.delays.Resolve(effects.DelayKey{
		Feedback: s.MustValue(synth.DelayFeedback),
		Time:     s.MustValue(synth.DelayTime),
	}, s.EnableDelay)
	reverbID, _ := p.reverbs.Resolve(effects.ReverbKey{
		RoomSize: s.MustValue(synth.ReverbRoomSize),
		Damping:  s.MustValue(synth.ReverbDamping),
	}, s.EnableReverb)
	if reverbID == effects.NoSlot {
		reverbID = 0
	}

	duration := s.MustValue(synth.Duration)
	if o.duration != nil {
		duration = *o.duration
	}
	if o.indefinite {
		duration = -1
	}
	start, end := s.NoteOffsets()

	ev := score.Note{
		Instance:             note,
		Offset:               o.offset,
		Duration:             duration,
		Pitch:                score.Pitch(note),
		Amplitude:            s.MustValue(synth.Velocity) * o.volume,
		Reverb:               1 - o.volume,
		AmpAttack:            s.Amp.Attack.Real(),
		AmpDecay:             s.Amp.Decay.Real(),
		AmpSustain:           s.Amp.Sustain.Real(),
		AmpRelease:           s.Amp.Release.Real(),
		Waveform:             int(s.Waveform()) + 1,
		Lowpass:              o.lowpass,
		PitchAttack:          s.Pitch.Attack.Real(),
		PitchDecay:           s.Pitch.Decay.Real(),
		PitchSustain:         s.Pitch.Sustain.Real(),
		PitchRelease:         s.Pitch.Release.Real(),
		FilterAttack:         s.Filter.Attack.Real(),
		FilterDecay:          s.Filter.Decay.Real(),
		FilterSustain:        s.Filter.Sustain.Real(),
		FilterRelease:        s.Amp.Release.Real(), // the engine's filter release tracks the amplitude release
		FilterFrequency:      s.MustValue(synth.FilterFrequency),
		FilterResonance:      s.MustValue(synth.FilterResonance),
		Left:                 o.left,
		Right:                o.right,
		PitchStart:           score.Pitch(note + start),
		PitchEnd:             score.Pitch(note + end),
		FilterEnvelopeAmount: s.MustValue(synth.FilterEnvelopeAmount),
		DelaySlot:            delayID,
		PitchModulation:      s.EnablePitchModulation,
		FrequencyModulation:  s.EnableFrequencyModulation,
		FilterType:           int(s.FilterType()),
		ReverbSlot:           reverbID,
	}
	line := ev.String()
	p.logger.Debug("note", "event", line)
	p.sink.Emit(line)
	return nil
}

// StopNote releases the voice started for note.
func (p *Player) StopNote(note int) error {
	if note < MinNote || note > MaxNote {
		return fmt.Errorf("%w: %d", ErrNoteRange, note)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	line := score.Stop(note)
	p.logger.Debug("stop", "event", line)
	p.sink.Emit(line)
	return nil
}

// DelaySlots returns the live delay instances.
func (p *Player) DelaySlots() []effects.Slot[effects.DelayKey] {
	return p.delays.Slots()
}

// ReverbSlots returns the live reverb instances.
func (p *Player) ReverbSlots() []effects.Slot[effects.ReverbKey] {
	return p.reverbs.Slots()
}

// Reset forgets every live effect instance, for use after the engine has
// been restarted.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays.Reset()
	p.reverbs.Reset()
}
