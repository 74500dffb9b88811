package player

import (
	"math"
	"sort"
	"time"

	"github.com/cwbudde/algo-synthctl/synth"
)

// Scheduled is one note of an arranged group.
type Scheduled struct {
	Note   int
	Offset float64
}

// Arrange orders notes for an activation mode and spaces them step seconds
// apart. ACCORD starts every note at once; SWEEP runs up and back down.
// RANDOM shuffles with r, or with a time-seeded source when r is nil.
func Arrange(notes []int, mode synth.Activation, step float64, r synth.RandomSource) []Scheduled {
	if r == nil && mode == synth.ActivationRandom {
		r = synth.NewSeededRandom(timeSeed())
	}
	sorted := append([]int(nil), notes...)
	sort.Ints(sorted)

	var order []int
	switch mode {
	case synth.ActivationAccord:
		out := make([]Scheduled, len(sorted))
		for i, n := range sorted {
			out[i] = Scheduled{Note: n}
		}
		return out
	case synth.ActivationQueueReverse:
		order = make([]int, len(sorted))
		for i, n := range sorted {
			order[len(sorted)-1-i] = n
		}
	case synth.ActivationRandom:
		order = sorted
		for i := len(order) - 1; i > 0; i-- {
			j := int(math.Floor(r.NextUniform(0, float64(i+1))))
			if j > i {
				j = i
			}
			order[i], order[j] = order[j], order[i]
		}
	case synth.ActivationSweep:
		order = sorted
		for i := len(sorted) - 2; i >= 0; i-- {
			order = append(order, sorted[i])
		}
	default:
		order = sorted
	}

	out := make([]Scheduled, len(order))
	for i, n := range order {
		out[i] = Scheduled{Note: n, Offset: float64(i) * step}
	}
	return out
}

// PlayGroup plays notes as one group under the activation mode of s. The
// spacing is the note duration divided by the subdivision count.
func (p *Player) PlayGroup(notes []int, s *synth.Settings, opts ...PlayOption) error {
	if s == nil {
		return ErrNilSettings
	}
	o := defaultPlayOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	step := s.MustValue(synth.Duration) / s.MustValue(synth.SubdivisionCount)
	for _, sc := range Arrange(notes, s.ActivationMode(), step, p.rand) {
		noteOpts := append(append([]PlayOption(nil), opts...), WithOffset(o.offset+sc.Offset))
		if err := p.PlayNote(sc.Note, s, noteOpts...); err != nil {
			return err
		}
	}
	return nil
}

func timeSeed() int64 {
	return time.Now().UnixNano()
}
