package score

import (
	"strconv"
	"strings"
)

// Instrument numbers understood by the synth orchestra.
const (
	NoteInstrument   = 1
	DelayInstrument  = 98
	ReverbInstrument = 99
)

// NoteFieldCount is the number of p-fields after the instrument (p2..p32).
const NoteFieldCount = 31

// FormatFloat renders v with a '.' decimal separator in its shortest form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Pitch encodes a note number as octave.pitchclass: note 60 is 7.00,
// note 61 is 7.01.
func Pitch(note int) float64 {
	return float64((note/12+2)*100+note%12) / 100
}

// NoteOf inverts Pitch.
func NoteOf(pitch float64) int {
	oct := int(pitch)
	pc := int(pitch*100+0.5) - oct*100
	return (oct-2)*12 + pc
}

// Note is one event for the note instrument. Field comments name the
// p-field each value is written to.
type Note struct {
	Instance int

	Offset    float64 // p2, seconds from now
	Duration  float64 // p3, -1 holds until stopped
	Pitch     float64 // p4, octave.pitchclass
	Amplitude float64 // p5
	Reverb    float64 // p6, distance reverb send

	AmpAttack  float64 // p7
	AmpDecay   float64 // p8
	AmpSustain float64 // p9
	AmpRelease float64 // p10

	Waveform int     // p11, 1-based
	Lowpass  float64 // p12

	PitchAttack  float64 // p13
	PitchDecay   float64 // p14
	PitchSustain float64 // p15
	PitchRelease float64 // p16

	FilterAttack    float64 // p17
	FilterDecay     float64 // p18
	FilterSustain   float64 // p19
	FilterRelease   float64 // p20
	FilterFrequency float64 // p21
	FilterResonance float64 // p22

	Left  float64 // p23
	Right float64 // p24

	PitchStart float64 // p25, octave.pitchclass
	PitchEnd   float64 // p26, octave.pitchclass

	FilterEnvelopeAmount float64 // p27
	DelaySlot            int     // p28, -1 when delay is off

	PitchModulation     bool // p29
	FrequencyModulation bool // p30
	FilterType          int  // p31
	ReverbSlot          int  // p32
}

// Fields returns p2..p32 in order.
func (n Note) Fields() []float64 {
	return []float64{
		n.Offset, n.Duration, n.Pitch, n.Amplitude, n.Reverb,
		n.AmpAttack, n.AmpDecay, n.AmpSustain, n.AmpRelease,
		float64(n.Waveform), n.Lowpass,
		n.PitchAttack, n.PitchDecay, n.PitchSustain, n.PitchRelease,
		n.FilterAttack, n.FilterDecay, n.FilterSustain, n.FilterRelease,
		n.FilterFrequency, n.FilterResonance,
		n.Left, n.Right,
		n.PitchStart, n.PitchEnd,
		n.FilterEnvelopeAmount,
		float64(n.DelaySlot),
		boolField(n.PitchModulation), boolField(n.FrequencyModulation),
		float64(n.FilterType),
		float64(n.ReverbSlot),
	}
}

func (n Note) String() string {
	return format(NoteInstrument, n.Instance, n.Fields())
}

// Stop returns the event that releases the voice started for note.
func Stop(note int) string {
	return format(-NoteInstrument, note, []float64{0, 1, float64(800+note%12) / 100, 0.1, 0})
}

// Activation returns the event that starts effect instance id of instr
// with two parameters.
func Activation(instr, id int, a, b float64) string {
	return format(instr, id, []float64{0, -1, float64(id), a, b})
}

func boolField(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func format(instr, instance int, fields []float64) string {
	var sb strings.Builder
	sb.WriteByte('i')
	sb.WriteString(strconv.Itoa(instr))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(instance))
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(FormatFloat(f))
	}
	return sb.String()
}
