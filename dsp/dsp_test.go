package dsp

import (
	"math"
	"testing"
)

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	const sampleRate = 44100.0
	filter := NewLowpass(1000, sampleRate, 0.707)

	rmsAt := func(freq float64) float64 {
		filter.Reset()
		var sum float64
		n := 4096
		for i := 0; i < n; i++ {
			in := float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
			out := filter.Process(in)
			if i >= n/2 { // skip transient
				sum += float64(out) * float64(out)
			}
		}
		return math.Sqrt(sum / float64(n/2))
	}

	low := rmsAt(100)
	high := rmsAt(10000)
	if high >= low*0.1 {
		t.Fatalf("lowpass barely attenuated: low=%g high=%g", low, high)
	}
}

func TestBandpassPeaksAtCenter(t *testing.T) {
	const sampleRate = 44100.0
	filter := NewBandpass(1000, sampleRate, 2.5)

	rmsAt := func(freq float64) float64 {
		filter.Reset()
		var sum float64
		n := 8192
		for i := 0; i < n; i++ {
			in := float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
			out := filter.Process(in)
			if i >= n/2 {
				sum += float64(out) * float64(out)
			}
		}
		return math.Sqrt(sum / float64(n/2))
	}

	center := rmsAt(1000)
	below := rmsAt(100)
	above := rmsAt(8000)
	if center <= below || center <= above {
		t.Fatalf("bandpass not peaked at center: center=%g below=%g above=%g",
			center, below, above)
	}
}

func TestBiquadResetClearsState(t *testing.T) {
	filter := NewLowpass(500, 44100, 0.707)
	for i := 0; i < 100; i++ {
		filter.Process(1.0)
	}
	filter.Reset()
	if out := filter.Process(0.0); out != 0.0 {
		t.Fatalf("state leaked through Reset: %g", out)
	}
}

func TestNoiseIsDeterministicAndBounded(t *testing.T) {
	a := NewNoise(42)
	b := NewNoise(42)
	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("same seed diverged at sample %d: %g vs %g", i, va, vb)
		}
		if va < -1.0 || va >= 1.0 {
			t.Fatalf("noise sample out of range: %g", va)
		}
	}
}

func TestNoiseZeroSeedStillProduces(t *testing.T) {
	n := NewNoise(0)
	allZero := true
	for i := 0; i < 100; i++ {
		if n.Next() != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Fatalf("zero seed produced a dead generator")
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-35); got != 0 {
		t.Fatalf("denormal not flushed: %g", got)
	}
	if got := FlushDenormals(0.5); got != 0.5 {
		t.Fatalf("normal value altered: %g", got)
	}
}
