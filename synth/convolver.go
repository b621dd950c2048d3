package synth

import (
	"fmt"
	"os"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

const convolverPartSize = 128

// SoundboardConvolver adds body resonance by convolving the voice mix with
// a stereo impulse response.
type SoundboardConvolver struct {
	sampleRate int
	irLen      int

	left  *dspconv.StreamingOverlapAddT[float32, complex64]
	right *dspconv.StreamingOverlapAddT[float32, complex64]

	leftOut  []float32
	rightOut []float32
	padded   []float32
}

// NewSoundboardConvolver creates a convolver with a unit impulse response,
// which passes the dry signal through.
func NewSoundboardConvolver(sampleRate int) *SoundboardConvolver {
	c := &SoundboardConvolver{sampleRate: sampleRate}
	c.SetIR([]float32{1.0}, []float32{1.0})
	return c
}

// SetIR configures the left/right impulse responses.
func (c *SoundboardConvolver) SetIR(leftIR []float32, rightIR []float32) {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	left, errL := dspconv.NewStreamingOverlapAdd32(leftIR, convolverPartSize)
	right, errR := dspconv.NewStreamingOverlapAdd32(rightIR, convolverPartSize)
	if errL != nil || errR != nil {
		return
	}
	c.left = left
	c.right = right
	c.irLen = len(leftIR)
	if len(rightIR) > c.irLen {
		c.irLen = len(rightIR)
	}

	c.leftOut = make([]float32, convolverPartSize)
	c.rightOut = make([]float32, convolverPartSize)
	c.padded = make([]float32, convolverPartSize)
	c.Reset()
}

// SetIRFromWAV loads a mono or stereo impulse response from a WAV file,
// resampling it to the convolver's rate when needed.
func (c *SoundboardConvolver) SetIRFromWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return fmt.Errorf("invalid wav buffer: %s", path)
	}

	numCh := buf.Format.NumChannels
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return fmt.Errorf("invalid wav sample-rate: %d", srcRate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return fmt.Errorf("empty wav data: %s", path)
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = buf.Data[i*numCh]
		if numCh > 1 {
			right[i] = buf.Data[i*numCh+1]
		} else {
			right[i] = left[i]
		}
	}

	if left, err = c.resampleIfNeeded(left, srcRate); err != nil {
		return err
	}
	if right, err = c.resampleIfNeeded(right, srcRate); err != nil {
		return err
	}
	c.SetIR(left, right)
	return nil
}

// Process convolves a mono block and returns stereo interleaved output.
func (c *SoundboardConvolver) Process(input []float32) []float32 {
	output := make([]float32, len(input)*2)

	for processed := 0; processed < len(input); {
		blockEnd := processed + convolverPartSize
		if blockEnd > len(input) {
			blockEnd = len(input)
		}
		blockLen := blockEnd - processed
		block := input[processed:blockEnd]

		// The streaming convolvers want full partitions; pad the tail.
		if blockLen < convolverPartSize {
			copy(c.padded, block)
			for i := blockLen; i < convolverPartSize; i++ {
				c.padded[i] = 0
			}
			block = c.padded
		}

		errL := c.left.ProcessBlockTo(c.leftOut, block)
		errR := c.right.ProcessBlockTo(c.rightOut, block)
		for i := 0; i < blockLen; i++ {
			if errL != nil || errR != nil {
				// Dry passthrough if a partition fails.
				output[(processed+i)*2] = input[processed+i]
				output[(processed+i)*2+1] = input[processed+i]
				continue
			}
			output[(processed+i)*2] = c.leftOut[i]
			output[(processed+i)*2+1] = c.rightOut[i]
		}
		processed = blockEnd
	}

	return output
}

// Reset clears convolver history and overlap buffers.
func (c *SoundboardConvolver) Reset() {
	if c.left != nil {
		c.left.Reset()
	}
	if c.right != nil {
		c.right.Reset()
	}
}

func (c *SoundboardConvolver) resampleIfNeeded(in []float32, inRate int) ([]float32, error) {
	if inRate == c.sampleRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(inRate),
		float64(c.sampleRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}

	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}
