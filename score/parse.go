package score

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every Parse failure.
var ErrSyntax = errors.New("score: malformed event")

// Event is a parsed i-statement.
type Event struct {
	Instrument int // negative releases a held instance
	Instance   int
	Fields     []float64 // p2 onward
}

// Off reports whether the event turns an instance off.
func (e Event) Off() bool { return e.Instrument < 0 }

// Field returns p-field n (n >= 2), or 0 when the event is shorter.
func (e Event) Field(n int) float64 {
	i := n - 2
	if i < 0 || i >= len(e.Fields) {
		return 0
	}
	return e.Fields[i]
}

// Parse reads one i-statement as written by this package.
func Parse(line string) (Event, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "i") {
		return Event{}, fmt.Errorf("%w: %q", ErrSyntax, line)
	}
	head := tokens[0][1:]
	instrText, instText, hasInstance := strings.Cut(head, ".")
	instr, err := strconv.Atoi(instrText)
	if err != nil {
		return Event{}, fmt.Errorf("%w: instrument %q", ErrSyntax, instrText)
	}
	ev := Event{Instrument: instr}
	if hasInstance {
		if ev.Instance, err = strconv.Atoi(instText); err != nil {
			return Event{}, fmt.Errorf("%w: instance %q", ErrSyntax, instText)
		}
	}
	ev.Fields = make([]float64, 0, len(tokens)-1)
	for i, tok := range tokens[1:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Event{}, fmt.Errorf("%w: p%d %q", ErrSyntax, i+2, tok)
		}
		ev.Fields = append(ev.Fields, v)
	}
	return ev, nil
}

// NoteFromEvent rebuilds a Note from a parsed note-instrument event.
func NoteFromEvent(ev Event) (Note, error) {
	if ev.Instrument != NoteInstrument {
		return Note{}, fmt.Errorf("%w: instrument %d is not a note", ErrSyntax, ev.Instrument)
	}
	if len(ev.Fields) != NoteFieldCount {
		return Note{}, fmt.Errorf("%w: note has %d p-fields, want %d", ErrSyntax, len(ev.Fields), NoteFieldCount)
	}
	f := ev.Field
	return Note{
		Instance:             ev.Instance,
		Offset:               f(2),
		Duration:             f(3),
		Pitch:                f(4),
		Amplitude:            f(5),
		Reverb:               f(6),
		AmpAttack:            f(7),
		AmpDecay:             f(8),
		AmpSustain:           f(9),
		AmpRelease:           f(10),
		Waveform:             int(f(11)),
		Lowpass:              f(12),
		PitchAttack:          f(13),
		PitchDecay:           f(14),
		PitchSustain:         f(15),
		PitchRelease:         f(16),
		FilterAttack:         f(17),
		FilterDecay:          f(18),
		FilterSustain:        f(19),
		FilterRelease:        f(20),
		FilterFrequency:      f(21),
		FilterResonance:      f(22),
		Left:                 f(23),
		Right:                f(24),
		PitchStart:           f(25),
		PitchEnd:             f(26),
		FilterEnvelopeAmount: f(27),
		DelaySlot:            int(f(28)),
		PitchModulation:      f(29) != 0,
		FrequencyModulation:  f(30) != 0,
		FilterType:           int(f(31)),
		ReverbSlot:           int(f(32)),
	}, nil
}
