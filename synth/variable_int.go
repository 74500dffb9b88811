package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// VariableInt is the discrete counterpart of Variable. Every write rounds
// to the nearest integer. Under the steps law the integer and its visual
// value are exact round trips of each other.
type VariableInt struct {
	value  int
	visual float64
	min    int
	max    int
	law    Law
}

// NewVariableInt creates an integer variable and applies initial.
func NewVariableInt(initial, min, max int, law Law) (*VariableInt, error) {
	if err := law.validate(false, float64(min), float64(max)); err != nil {
		return nil, configErr("new-variable-int", "", err)
	}
	v := &VariableInt{min: min, max: max, law: law}
	v.SetValue(initial)
	return v, nil
}

// SetValue clamps n into range, stores it and derives the visual value.
func (v *VariableInt) SetValue(n int) int {
	if n < v.min {
		n = v.min
	}
	if n > v.max {
		n = v.max
	}
	v.value = n
	pos := v.position(n)
	switch v.law.Kind {
	case CurveLinear, CurveSteps:
		v.visual = pos
	case CurveExponential:
		if pos == 0 {
			v.visual = 0
		} else {
			v.visual = core.Clamp(math.Pow(pos, 1/v.law.Exp), 0, 1)
		}
	default:
		panic(configErr("set-value", "", ErrUnknownCurve))
	}
	return v.value
}

// SetVisual clamps p to [0,1] and derives the integer value.
func (v *VariableInt) SetVisual(p float64) float64 {
	if math.IsNaN(p) {
		return v.visual
	}
	p = core.Clamp(p, 0, 1)
	span := float64(v.max - v.min)
	switch v.law.Kind {
	case CurveLinear:
		v.visual = p
		v.value = v.clampInt(roundIndex(float64(v.min) + span*p))
	case CurveExponential:
		v.visual = p
		v.value = v.clampInt(roundIndex(float64(v.min) + span*math.Pow(p, v.law.Exp)))
	case CurveSteps:
		if span == 0 {
			v.visual = 0
			v.value = v.min
			break
		}
		v.visual = math.RoundToEven(p*span) / span
		v.value = v.clampInt(roundIndex(float64(v.min) + span*v.visual))
	default:
		panic(configErr("set-visual", "", ErrUnknownCurve))
	}
	return v.visual
}

// SetReal rounds x to the nearest integer and stores it.
func (v *VariableInt) SetReal(x float64) float64 {
	if math.IsNaN(x) {
		return float64(v.value)
	}
	x = core.Clamp(x, float64(v.min), float64(v.max))
	return float64(v.SetValue(roundIndex(x)))
}

func (v *VariableInt) position(n int) float64 {
	if v.max == v.min {
		return 0
	}
	return float64(n-v.min) / float64(v.max-v.min)
}

func (v *VariableInt) clampInt(n int) int {
	if n < v.min {
		return v.min
	}
	if n > v.max {
		return v.max
	}
	return n
}

func (v *VariableInt) Value() int { return v.value }
func (v *VariableInt) Real() float64 { return float64(v.value) }
func (v *VariableInt) Visual() float64 { return v.visual }
func (v *VariableInt) Min() float64 { return float64(v.min) }
func (v *VariableInt) Max() float64 { return float64(v.max) }
func (v *VariableInt) Law() Law { return v.law }
