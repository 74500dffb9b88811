// Package analysis measures how far a rendered preview is from a reference
// recording of the same note.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/core"
	algofft "github.com/cwbudde/algo-fft"
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	// Attack is the time from the onset to 90% of the envelope peak.
	RefAttackS  float64 `json:"ref_attack_s"`
	CandAttackS float64 `json:"cand_attack_s"`
	AttackDiffS float64 `json:"attack_diff_s"`
	// Tail is the time from the envelope peak until it falls 40 dB below it.
	RefTailS  float64 `json:"ref_tail_s"`
	CandTailS float64 `json:"cand_tail_s"`
	TailDiffS float64 `json:"tail_diff_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	envFrame = 256
	envHop   = 128

	maxCompareSeconds = 8
	tailDropDB        = 40.0
)

// Compare returns objective distance metrics and a combined score in [0,1],
// where 0 means identical.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}

	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := min(sampleRate/4, len(ref)-1, len(cand)-1)
	if maxLag < 1 {
		maxLag = 1
	}
	lag := estimateLag(ref, cand, maxLag)
	m.LagSamples = lag

	refA, candA := alignByLag(ref, cand, lag)
	n := min(len(refA), len(candA), sampleRate*maxCompareSeconds)
	if n < 2*envFrame {
		return m
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	envN := min(len(refEnv), len(candEnv))
	if envN > 0 {
		envDiff := make([]float64, envN)
		for i := 0; i < envN; i++ {
			envDiff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = rms1(envDiff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)

	// Envelope timing is measured from each onset, before alignment.
	hopSec := float64(envHop) / float64(sampleRate)
	limit := sampleRate * maxCompareSeconds
	refOnset := rmsEnvelope(ref[:min(len(ref), limit)], envFrame, envHop)
	candOnset := rmsEnvelope(cand[:min(len(cand), limit)], envFrame, envHop)
	m.RefAttackS = attackSeconds(refOnset, hopSec)
	m.CandAttackS = attackSeconds(candOnset, hopSec)
	m.AttackDiffS = math.Abs(m.RefAttackS - m.CandAttackS)
	m.RefTailS = tailSeconds(refOnset, hopSec)
	m.CandTailS = tailSeconds(candOnset, hopSec)
	m.TailDiffS = math.Abs(m.RefTailS - m.CandTailS)

	timeNorm := core.Clamp(m.TimeRMSE/0.25, 0, 1)
	envNorm := core.Clamp(m.EnvelopeRMSEDB/30.0, 0, 1)
	specNorm := core.Clamp(m.SpectralRMSEDB/30.0, 0, 1)
	attackNorm := core.Clamp(m.AttackDiffS/0.25, 0, 1)
	tailNorm := core.Clamp(m.TailDiffS/1.0, 0, 1)
	m.Score = core.Clamp(0.25*timeNorm+0.25*envNorm+0.30*specNorm+0.10*attackNorm+0.10*tailNorm, 0, 1)
	m.Similarity = core.Clamp(math.Exp(-4.0*m.Score), 0, 1)

	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

// estimateLag returns the shift of cand against ref with the highest
// cross-correlation, computed as one FFT convolution of ref with the
// reversed candidate.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	a := make([]float32, len(ref))
	for i, v := range ref {
		a[i] = float32(v)
	}
	b := make([]float32, len(cand))
	for i, v := range cand {
		b[len(cand)-1-i] = float32(v)
	}
	corr := make([]float32, len(a)+len(b)-1)
	if err := algofft.ConvolveReal(corr, a, b); err != nil {
		return estimateLagExhaustive(ref, cand, maxLag)
	}
	// corr[lag+len(cand)-1] is the dot product of ref[lag:] and cand.
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		idx := lag + len(cand) - 1
		if idx < 0 || idx >= len(corr) {
			continue
		}
		if s := float64(corr[idx]); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func estimateLagExhaustive(ref []float64, cand []float64, maxLag int) int {
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		if s := dotAtLag(ref, cand, lag); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// spectralRMSEDB compares the average Hann-windowed magnitude spectra of
// a and b over up to eight half-overlapping frames.
func spectralRMSEDB(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	size := 4096
	for size > n {
		size /= 2
	}
	if size < 512 {
		return 0
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return 0
	}
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	bins := size/2 + 1
	magA := make([]float64, bins)
	magB := make([]float64, bins)
	spec := make([]complex128, bins)
	buf := make([]float64, size)
	accumulate := func(dst []float64, x []float64) {
		for i := range buf {
			buf[i] = x[i] * window[i]
		}
		plan.Forward(spec, buf)
		for k := range dst {
			dst[k] += cmplx.Abs(spec[k])
		}
	}

	hop := size / 2
	frames := 0
	for start := 0; start+size <= n && frames < 8; start += hop {
		accumulate(magA, a[start:start+size])
		accumulate(magB, b[start:start+size])
		frames++
	}

	var sum float64
	for k := 1; k < bins-1; k++ {
		d := linToDB(magA[k]/float64(frames)) - linToDB(magB[k]/float64(frames))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-2))
}

func linToDB(x float64) float64 {
	return core.LinearToDB(math.Max(x, 1e-12))
}

func peakIndex(env []float64) int {
	idx := 0
	for i, v := range env {
		if v > env[idx] {
			idx = i
		}
	}
	return idx
}

func attackSeconds(env []float64, hopSec float64) float64 {
	if len(env) == 0 {
		return 0
	}
	target := 0.9 * env[peakIndex(env)]
	for i, v := range env {
		if v >= target {
			return float64(i) * hopSec
		}
	}
	return 0
}

func tailSeconds(env []float64, hopSec float64) float64 {
	if len(env) == 0 {
		return 0
	}
	p := peakIndex(env)
	floor := linToDB(env[p]) - tailDropDB
	for i := p + 1; i < len(env); i++ {
		if linToDB(env[i]) < floor {
			return float64(i-p) * hopSec
		}
	}
	return float64(len(env)-1-p) * hopSec
}
