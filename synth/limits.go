package synth

import (
	"math"
	"sync"
)

// Limits is a runtime overlay of per-parameter bounds. A Limits value is
// shared by pointer: settings cloned from one another see the same overlay,
// so narrowing it on the source narrows every clone as well.
type Limits struct {
	mu  sync.RWMutex
	min map[ParamID]float64
	max map[ParamID]float64
}

// NewLimits returns an empty overlay.
func NewLimits() *Limits {
	return &Limits{
		min: make(map[ParamID]float64),
		max: make(map[ParamID]float64),
	}
}

// Set installs an override for id. Overrides only ever narrow the
// built-in range; see Settings.Min and Settings.Max.
func (l *Limits) Set(id ParamID, min, max float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min[id] = min
	l.max[id] = max
}

// Clear removes the override for id.
func (l *Limits) Clear(id ParamID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.min, id)
	delete(l.max, id)
}

// Get returns the override for id, if any.
func (l *Limits) Get(id ParamID) (min, max float64, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	min, okMin := l.min[id]
	max, okMax := l.max[id]
	if !okMin {
		min = math.Inf(-1)
	}
	if !okMax {
		max = math.Inf(1)
	}
	return min, max, okMin || okMax
}

// IDs returns the ids with an installed override, in enumeration order.
func (l *Limits) IDs() []ParamID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ParamID, 0, len(l.min))
	for id := ParamID(0); id < paramCount; id++ {
		if _, ok := l.min[id]; ok {
			out = append(out, id)
			continue
		}
		if _, ok := l.max[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// narrow applies the overlay to a built-in range. An override lying wholly
// outside the built-in range collapses it onto the nearest built-in bound.
func (l *Limits) narrow(id ParamID, min, max float64) (float64, float64) {
	if l == nil {
		return min, max
	}
	oMin, oMax, ok := l.Get(id)
	if !ok {
		return min, max
	}
	lo, hi := math.Max(min, oMin), math.Min(max, oMax)
	if lo <= hi {
		return lo, hi
	}
	if oMin > max {
		return max, max
	}
	return min, min
}
