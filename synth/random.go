package synth

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource draws uniform values in [lo, hi].
type RandomSource interface {
	NextUniform(lo, hi float64) float64
}

// SeededRandom is a RandomSource backed by math/rand. Safe for concurrent use.
type SeededRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRandom returns a deterministic source for seed.
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{r: rand.New(rand.NewSource(seed))}
}

func (s *SeededRandom) NextUniform(lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	s.mu.Lock()
	f := s.r.Float64()
	s.mu.Unlock()
	return lo + (hi-lo)*f
}

func defaultRandom() RandomSource {
	return NewSeededRandom(time.Now().UnixNano())
}
