package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Param is the common handle over continuous and integer variables.
type Param interface {
	Real() float64
	Visual() float64
	SetReal(v float64) float64
	SetVisual(v float64) float64
	Min() float64
	Max() float64
	Law() Law
}

// Variable is a bounded continuous value paired with its normalized
// slider position. Both are stored and kept consistent on every write.
type Variable struct {
	real   float64
	visual float64
	min    float64
	max    float64
	law    Law
}

// NewVariable creates a variable and applies initial through SetReal.
func NewVariable(initial, min, max float64, law Law) (*Variable, error) {
	if err := law.validate(true, min, max); err != nil {
		return nil, configErr("new-variable", "", err)
	}
	if law.Kind == CurveLookup {
		law = Lookup(law.Table)
	}
	v := &Variable{min: min, max: max, law: law}
	if math.IsNaN(initial) {
		initial = min
	}
	v.SetReal(initial)
	return v, nil
}

// SetReal clamps v into range, stores it and derives the visual value.
// Under the lookup law v snaps to the nearest table entry first.
func (v *Variable) SetReal(x float64) float64 {
	if math.IsNaN(x) {
		return v.real
	}
	x = core.Clamp(x, v.min, v.max)
	switch v.law.Kind {
	case CurveLinear:
		v.real = x
		v.visual = v.linearVisual(x)
	case CurveExponential:
		v.real = x
		if x == v.min {
			v.visual = 0
		} else {
			v.visual = core.Clamp(math.Pow(x, 1/v.law.Exp), 0, 1)
		}
	case CurveLookup:
		idx := nearestIndex(v.law.Table, x)
		v.real = v.law.Table[idx]
		v.visual = tableVisual(idx, len(v.law.Table))
	default:
		panic(configErr("set-real", "", ErrUnknownCurve))
	}
	return v.real
}

// setRealWithin is SetReal with the lookup snap restricted to table
// entries inside [lo, hi]. Without such an entry it behaves like SetReal.
func (v *Variable) setRealWithin(x, lo, hi float64) float64 {
	if v.law.Kind != CurveLookup || math.IsNaN(x) {
		return v.SetReal(x)
	}
	idx, ok := nearestIndexWithin(v.law.Table, core.Clamp(x, v.min, v.max), lo, hi)
	if !ok {
		return v.SetReal(x)
	}
	v.real = v.law.Table[idx]
	v.visual = tableVisual(idx, len(v.law.Table))
	return v.real
}

// SetVisual clamps p to [0,1] and derives the real value. The returned
// visual value may differ from p when the law quantizes.
func (v *Variable) SetVisual(p float64) float64 {
	if math.IsNaN(p) {
		return v.visual
	}
	p = core.Clamp(p, 0, 1)
	switch v.law.Kind {
	case CurveLinear:
		v.visual = p
		v.real = core.Clamp(v.min+(v.max-v.min)*p, v.min, v.max)
	case CurveExponential:
		v.visual = p
		v.real = core.Clamp(math.Pow(p, v.law.Exp), v.min, v.max)
	case CurveLookup:
		n := len(v.law.Table)
		idx := 0
		if n > 1 {
			idx = roundIndex(p * float64(n-1))
		}
		v.visual = tableVisual(idx, n)
		v.real = v.law.Table[idx]
	default:
		panic(configErr("set-visual", "", ErrUnknownCurve))
	}
	return v.visual
}

func (v *Variable) linearVisual(x float64) float64 {
	if v.max == v.min {
		return 0
	}
	return core.Clamp((x-v.min)/(v.max-v.min), 0, 1)
}

func tableVisual(idx, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(idx) / float64(n-1)
}

func (v *Variable) Real() float64 { return v.real }
func (v *Variable) Visual() float64 { return v.visual }
func (v *Variable) Min() float64 { return v.min }
func (v *Variable) Max() float64 { return v.max }
func (v *Variable) Law() Law { return v.law }
