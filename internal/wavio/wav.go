// Package wavio reads and writes the WAV files the CLI renders and fits
// against.
package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadMono decodes path and downmixes every channel to one.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in.
func Resample(in []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// ReadMonoAt reads path and resamples it to sampleRate.
func ReadMonoAt(path string, sampleRate int) ([]float64, error) {
	in, rate, err := ReadMono(path)
	if err != nil {
		return nil, err
	}
	return Resample(in, rate, sampleRate)
}

// ReadStereoAt reads a mono or stereo file as separate left and right
// channels resampled to sampleRate. Mono files fill both channels.
func ReadStereoAt(path string, sampleRate int) ([]float32, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	if frames == 0 {
		return nil, nil, fmt.Errorf("empty wav data: %s", path)
	}
	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left[i] = float64(buf.Data[i*ch])
		right[i] = left[i]
		if ch > 1 {
			right[i] = float64(buf.Data[i*ch+1])
		}
	}
	if left, err = Resample(left, buf.Format.SampleRate, sampleRate); err != nil {
		return nil, nil, err
	}
	if right, err = Resample(right, buf.Format.SampleRate, sampleRate); err != nil {
		return nil, nil, err
	}
	return toFloat32(left), toFloat32(right), nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// WriteStereo writes interleaved left/right samples as 16-bit PCM,
// creating parent directories as needed.
func WriteStereo(path string, samples []float32, sampleRate int) error {
	if len(samples)%2 != 0 {
		return fmt.Errorf("interleaved stereo needs an even sample count, got %d", len(samples))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// StereoToMono averages interleaved left/right pairs.
func StereoToMono(st []float32) []float64 {
	n := len(st) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(st[i*2]) + float64(st[i*2+1]))
	}
	return out
}

// RMS returns the root mean square of interleaved samples.
func RMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
