package synth

import (
	"fmt"
	"math"
	"strings"
)

// Curve identifies how a visual slider position maps onto a real value.
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	// CurveLookup quantizes onto a fixed table of values (delay times).
	CurveLookup
	// CurveSteps quantizes onto uniform integer steps.
	CurveSteps
)

// DefaultExpFactor is the exponent used by exponential laws when no
// configuration overrides it.
const DefaultExpFactor = 3.0

var curveNames = [...]string{
	CurveLinear:      "linear",
	CurveExponential: "exponential",
	CurveLookup:      "lookup",
	CurveSteps:       "steps",
}

func (c Curve) String() string {
	if c < 0 || int(c) >= len(curveNames) {
		return fmt.Sprintf("curve(%d)", int(c))
	}
	return curveNames[c]
}

// ParseCurve resolves a curve name as written by String.
func ParseCurve(name string) (Curve, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range curveNames {
		if n == name {
			return Curve(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
}

// Law is an immutable curve law together with its parameters.
type Law struct {
	Kind  Curve
	Exp   float64   // shaping exponent, exponential only
	Table []float64 // lookup only
}

// Linear returns the identity law.
func Linear() Law { return Law{Kind: CurveLinear} }

// Exponential returns a perceptual law with shaping exponent k.
func Exponential(k float64) Law { return Law{Kind: CurveExponential, Exp: k} }

// Lookup returns a law quantizing onto table. The table is copied.
func Lookup(table []float64) Law {
	t := make([]float64, len(table))
	copy(t, table)
	return Law{Kind: CurveLookup, Table: t}
}

// Steps returns the uniform integer step law.
func Steps() Law { return Law{Kind: CurveSteps} }

func (l Law) validate(continuous bool, min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return fmt.Errorf("%w: [%g, %g]", ErrBadRange, min, max)
	}
	switch l.Kind {
	case CurveLinear:
		return nil
	case CurveExponential:
		if !(l.Exp > 0) || math.IsInf(l.Exp, 0) {
			return fmt.Errorf("%w: exponent must be > 0, got %g", ErrBadRange, l.Exp)
		}
		if continuous && (min < 0 || max > 1) {
			return fmt.Errorf("%w: exponential range must lie in [0,1], got [%g, %g]", ErrBadRange, min, max)
		}
		return nil
	case CurveLookup:
		if !continuous {
			return fmt.Errorf("%w: lookup law on integer variable", ErrUnknownCurve)
		}
		if len(l.Table) == 0 {
			return ErrEmptyTable
		}
		for _, v := range l.Table {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite table entry", ErrBadRange)
			}
		}
		return nil
	case CurveSteps:
		if continuous {
			return fmt.Errorf("%w: steps law on continuous variable", ErrUnknownCurve)
		}
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnknownCurve, l.Kind)
	}
}

// nearestIndex returns the index of the table entry closest to v.
// Ties resolve to the lower index.
func nearestIndex(table []float64, v float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, t := range table {
		d := math.Abs(t - v)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// nearestIndexWithin is nearestIndex restricted to entries in [lo, hi].
// ok is false when no entry lies in the range.
func nearestIndexWithin(table []float64, v, lo, hi float64) (idx int, ok bool) {
	bestDist := math.Inf(1)
	for i, t := range table {
		if t < lo || t > hi {
			continue
		}
		if d := math.Abs(t - v); d < bestDist {
			idx, ok = i, true
			bestDist = d
		}
	}
	return idx, ok
}

// roundIndex mirrors slider quantization: halves go to the even neighbour.
func roundIndex(x float64) int {
	return int(math.RoundToEven(x))
}
