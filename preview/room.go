package preview

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

const roomPartSize = 128

// roomConvolver runs the mixed output through a stereo impulse response
// with partitioned convolution. Output lags input by roomPartSize-1 frames.
type roomConvolver struct {
	mix float64

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	in       []float32
	leftOut  []float32
	rightOut []float32
	outPos   int
}

func newRoomConvolver(leftIR, rightIR []float32, mix float64) (*roomConvolver, error) {
	if len(leftIR) == 0 {
		return nil, fmt.Errorf("preview: empty room impulse response")
	}
	if len(rightIR) == 0 {
		rightIR = leftIR
	}
	leftOLA, err := dspconv.NewStreamingOverlapAdd32(leftIR, roomPartSize)
	if err != nil {
		return nil, fmt.Errorf("preview: left room IR: %w", err)
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(rightIR, roomPartSize)
	if err != nil {
		return nil, fmt.Errorf("preview: right room IR: %w", err)
	}
	return &roomConvolver{
		mix:      mix,
		leftOLA:  leftOLA,
		rightOLA: rightOLA,
		in:       make([]float32, 0, roomPartSize),
		leftOut:  make([]float32, roomPartSize),
		rightOut: make([]float32, roomPartSize),
		outPos:   roomPartSize,
	}, nil
}

// process pushes one mono frame and returns the wet stereo frame.
func (c *roomConvolver) process(x float32) (float64, float64) {
	c.in = append(c.in, x)
	if len(c.in) == roomPartSize {
		errL := c.leftOLA.ProcessBlockTo(c.leftOut, c.in)
		errR := c.rightOLA.ProcessBlockTo(c.rightOut, c.in)
		if errL != nil || errR != nil {
			// Pass the block through dry.
			copy(c.leftOut, c.in)
			copy(c.rightOut, c.in)
		}
		c.in = c.in[:0]
		c.outPos = 0
	}
	if c.outPos >= roomPartSize {
		return 0, 0
	}
	l, r := c.leftOut[c.outPos], c.rightOut[c.outPos]
	c.outPos++
	return float64(l) * c.mix, float64(r) * c.mix
}
