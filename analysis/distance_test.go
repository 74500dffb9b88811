package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func TestCompareIdenticalSignalsHasLowDistance(t *testing.T) {
	sr := 48000
	x := makeTone(sr, 440.0, 1.5, 0.01, 0.4)
	m := Compare(x, x, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected very low score for identical signals, got %f", m.Score)
	}
	if m.Similarity < 0.85 {
		t.Fatalf("expected high similarity for identical signals, got %f", m.Similarity)
	}
	if m.LagSamples != 0 {
		t.Fatalf("lag = %d, want 0", m.LagSamples)
	}
}

func TestCompareDifferentSignalsHasHigherDistance(t *testing.T) {
	sr := 48000
	a := makeTone(sr, 261.63, 1.8, 0.01, 0.8)
	b := makeTone(sr, 330.0, 1.8, 0.3, 0.1)
	m := Compare(a, b, sr)
	if m.Score < 0.25 {
		t.Fatalf("expected higher score for different signals, got %f", m.Score)
	}
}

func TestCompareMeasuresAttack(t *testing.T) {
	sr := 48000
	fast := makeTone(sr, 440, 1.5, 0.005, 0.5)
	slow := makeTone(sr, 440, 1.5, 0.4, 0.5)
	m := Compare(fast, slow, sr)
	if m.RefAttackS > 0.05 {
		t.Fatalf("fast attack measured as %fs", m.RefAttackS)
	}
	if m.CandAttackS < 0.25 || m.CandAttackS > 0.45 {
		t.Fatalf("slow attack measured as %fs, want about 0.36", m.CandAttackS)
	}
	if m.AttackDiffS < 0.2 {
		t.Fatalf("attack diff = %f", m.AttackDiffS)
	}
}

func TestCompareMeasuresTail(t *testing.T) {
	sr := 48000
	short := makeTone(sr, 440, 2, 0.01, 0.1)
	long := makeTone(sr, 440, 2, 0.01, 0.6)
	m := Compare(short, long, sr)
	if m.CandTailS <= m.RefTailS {
		t.Fatalf("tail short %f >= long %f", m.RefTailS, m.CandTailS)
	}
	if m.TailDiffS < 0.5 {
		t.Fatalf("tail diff = %f", m.TailDiffS)
	}
}

func TestCompareDegenerateInput(t *testing.T) {
	tests := []struct {
		name     string
		ref, can []float64
		sr       int
	}{
		{"empty reference", nil, []float64{1, 2}, 48000},
		{"silent candidate", []float64{1, 0.5}, make([]float64, 100), 48000},
		{"bad rate", []float64{1}, []float64{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m := Compare(tt.ref, tt.can, tt.sr); m.Score != 1 || m.Similarity != 0 {
				t.Fatalf("score %f similarity %f, want 1 and 0", m.Score, m.Similarity)
			}
		})
	}
}

func TestEstimateLagFindsPositiveShift(t *testing.T) {
	const (
		n      = 8192
		shift  = 237
		maxLag = 600
	)
	ref := randomSignal(n, 7)
	cand := make([]float64, n)
	copy(cand, ref[shift:])

	got := estimateLag(ref, cand, maxLag)
	if got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}
}

func TestEstimateLagFindsNegativeShift(t *testing.T) {
	const (
		n      = 8192
		shift  = -191
		maxLag = 600
	)
	ref := randomSignal(n, 11)
	cand := make([]float64, n)
	copy(cand[-shift:], ref)

	got := estimateLag(ref, cand, maxLag)
	if got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}
}

func TestEstimateLagFFTMatchesExhaustive(t *testing.T) {
	const (
		n      = 16000
		shift  = 443
		maxLag = 1000
	)
	ref := randomSignal(n, 23)
	cand := make([]float64, n)
	copy(cand, ref[shift:])

	got := estimateLag(ref, cand, maxLag)
	want := estimateLagExhaustive(ref, cand, maxLag)
	if got != want {
		t.Fatalf("estimateLag() = %d, exhaustive = %d", got, want)
	}
}

func TestEnvelopeTimes(t *testing.T) {
	env := []float64{0, 0.5, 0.95, 1, 0.5, 0.1, 0.001, 0.0001}
	if got := attackSeconds(env, 0.01); math.Abs(got-0.02) > 1e-12 {
		t.Fatalf("attackSeconds = %f, want 0.02", got)
	}
	// 0.001 is 60 dB below the peak.
	if got := tailSeconds(env, 0.01); math.Abs(got-0.03) > 1e-12 {
		t.Fatalf("tailSeconds = %f, want 0.03", got)
	}
	if attackSeconds(nil, 1) != 0 || tailSeconds(nil, 1) != 0 {
		t.Fatalf("empty envelope must measure zero")
	}
}

// makeTone renders a sine with a linear attack and an exponential decay.
func makeTone(sr int, freq float64, durationSec, attackSec, decaySec float64) []float64 {
	n := int(float64(sr) * durationSec)
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := 1.0
		if t < attackSec {
			env = t / attackSec
		} else {
			env = math.Exp(-(t - attackSec) / decaySec)
		}
		out[i] = env * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}
