package preview

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// RoomIRConfig shapes a synthetic stereo room impulse response. RoomSize
// and Damping use the 0..1 ranges of the reverb settings.
type RoomIRConfig struct {
	SampleRate  int
	RoomSize    float64
	Damping     float64
	StereoWidth float64
	EarlyCount  int
	Seed        int64
}

// DefaultRoomIRConfig matches the distance reverb defaults.
func DefaultRoomIRConfig(sampleRate int) RoomIRConfig {
	return RoomIRConfig{
		SampleRate:  sampleRate,
		RoomSize:    distanceRoomSize,
		Damping:     distanceDamping,
		StereoWidth: 0.6,
		EarlyCount:  24,
		Seed:        1,
	}
}

func (c RoomIRConfig) Validate() error {
	switch {
	case c.SampleRate < 8000:
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	case c.RoomSize < 0 || c.RoomSize > 1 || math.IsNaN(c.RoomSize):
		return fmt.Errorf("room size must be in [0,1]: %f", c.RoomSize)
	case c.Damping < 0 || c.Damping > 1 || math.IsNaN(c.Damping):
		return fmt.Errorf("damping must be in [0,1]: %f", c.Damping)
	case c.StereoWidth < 0:
		return fmt.Errorf("stereo width must be >= 0")
	case c.EarlyCount < 0:
		return fmt.Errorf("early count must be >= 0")
	}
	return nil
}

// RT60 returns the low and high band decay times in seconds.
func (c RoomIRConfig) RT60() (low, high float64) {
	low = 0.3 + 2.2*c.RoomSize
	return low, low * (1 - 0.85*c.Damping)
}

const (
	roomCrossover = 1500.0
	roomFadeOut   = 0.01
	roomPeak      = 0.9
)

// GenerateRoomIR synthesizes early reflections and a two-band diffuse tail.
// The response lasts 1.2 times the low band RT60.
func GenerateRoomIR(cfg RoomIRConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sr := float64(cfg.SampleRate)
	lowRT, highRT := cfg.RT60()
	n := max(1, int(math.Round(1.2*lowRT*sr)))
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Early reflections spread over the first 5 to 50 ms.
	span := 0.004 + 0.046*cfg.RoomSize
	for i := 0; i < cfg.EarlyCount; i++ {
		t := 0.001 + span*rng.Float64()
		idx := int(t * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*20.0)
		amp *= 1 - 0.5*cfg.Damping*rng.Float64()
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}

	// -60 dB at the band RT60.
	lowTau := lowRT / math.Log(1000)
	highTau := highRT / math.Log(1000)
	lowL := biquad.NewSection(design.Lowpass(roomCrossover, math.Sqrt2/2, sr))
	lowR := biquad.NewSection(design.Lowpass(roomCrossover, math.Sqrt2/2, sr))
	highL := biquad.NewSection(design.Highpass(roomCrossover, math.Sqrt2/2, sr))
	highR := biquad.NewSection(design.Highpass(roomCrossover, math.Sqrt2/2, sr))
	const lateLevel = 0.06
	for i := 0; i < n; i++ {
		t := float64(i) / sr
		lowEnv := math.Exp(-t / lowTau)
		highEnv := math.Exp(-t / highTau)
		nL, nR := rng.NormFloat64(), rng.NormFloat64()
		left[i] += lateLevel * (lowEnv*lowL.ProcessSample(nL) + highEnv*highL.ProcessSample(nL))
		right[i] += lateLevel * (lowEnv*lowR.ProcessSample(nR) + highEnv*highR.ProcessSample(nR))
	}

	fadeOut(left, int(roomFadeOut*sr))
	fadeOut(right, int(roomFadeOut*sr))

	peak := math.Max(peakAbs(left), peakAbs(right))
	g := roomPeak / math.Max(peak, 1e-12)
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := 0; i < n; i++ {
		outL[i] = float32(core.FlushDenormals(left[i] * g))
		outR[i] = float32(core.FlushDenormals(right[i] * g))
	}
	return outL, outR, nil
}

// fadeOut applies a raised-cosine fade to the last frames samples of buf.
func fadeOut(buf []float64, frames int) {
	frames = min(frames, len(buf))
	if frames < 2 {
		return
	}
	start := len(buf) - frames
	for i := 0; i < frames; i++ {
		buf[start+i] *= 0.5 * (1 + math.Cos(math.Pi*float64(i)/float64(frames-1)))
	}
}

func peakAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
