package irsynth

import (
	"math"
	"testing"
)

func TestGenerateBasic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 48000
	cfg.DurationS = 0.5
	cfg.MaxModes = 32
	cfg.Seed = 42
	cfg.NormalizePeak = 0.8

	l, r, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(l) != int(0.5*48000) || len(r) != len(l) {
		t.Fatalf("unexpected output lengths: L=%d R=%d", len(l), len(r))
	}

	maxAbs := 0.0
	energy := 0.0
	for i := range l {
		if math.IsNaN(float64(l[i])) || math.IsInf(float64(l[i]), 0) || math.IsNaN(float64(r[i])) || math.IsInf(float64(r[i]), 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
		la := math.Abs(float64(l[i]))
		ra := math.Abs(float64(r[i]))
		if la > maxAbs {
			maxAbs = la
		}
		if ra > maxAbs {
			maxAbs = ra
		}
		energy += float64(l[i]*l[i] + r[i]*r[i])
	}
	if energy <= 1e-8 {
		t.Fatalf("expected non-zero energy")
	}
	if maxAbs > 0.81 {
		t.Fatalf("unexpected normalization peak: %.6f", maxAbs)
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 32000
	cfg.DurationS = 0.2
	cfg.MaxModes = 24
	cfg.Seed = 99

	l1, r1, err := Generate(cfg)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	l2, r2, err := Generate(cfg)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	for i := range l1 {
		if l1[i] != l2[i] || r1[i] != r2[i] {
			t.Fatalf("outputs differ at %d for same seed", i)
		}
	}

	cfg.Seed = 100
	l3, _, err := Generate(cfg)
	if err != nil {
		t.Fatalf("third Generate: %v", err)
	}
	same := true
	for i := range l1 {
		if l1[i] != l3[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical output")
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.SampleRate = 4000 },
		func(c *Config) { c.DurationS = 0 },
		func(c *Config) { c.MaxModes = 0 },
		func(c *Config) { c.PlateRatio = 0 },
		func(c *Config) { c.StiffnessRatio = -1 },
		func(c *Config) { c.Brightness = 0 },
		func(c *Config) { c.LowDecayS = 0 },
		func(c *Config) { c.NormalizePeak = 0 },
	}
	for i, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, _, err := Generate(cfg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestPlateEigenfreqsOrderedAndBounded(t *testing.T) {
	freqs := plateEigenfreqs(35.0, 20000.0, 64, 1.6, 12.0)
	if len(freqs) == 0 {
		t.Fatalf("expected modes")
	}
	if len(freqs) > 64 {
		t.Fatalf("mode cap not applied: %d", len(freqs))
	}
	for i := 1; i < len(freqs); i++ {
		if freqs[i] < freqs[i-1] {
			t.Fatalf("frequencies not sorted at %d: %.2f < %.2f", i, freqs[i], freqs[i-1])
		}
	}
	for _, f := range freqs {
		if f < 35.0-1e-9 || f > 20000.0+1e-9 {
			t.Fatalf("frequency out of range: %.2f", f)
		}
	}
}

func TestGenerateDecaysOverTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 48000
	cfg.DurationS = 1.5
	cfg.Seed = 7

	l, _, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rms := func(x []float32) float64 {
		sum := 0.0
		for _, v := range x {
			sum += float64(v) * float64(v)
		}
		return math.Sqrt(sum / float64(len(x)))
	}
	early := rms(l[:4800])
	late := rms(l[len(l)-4800:])
	if late >= early*0.5 {
		t.Fatalf("tail did not decay: early=%.6f late=%.6f", early, late)
	}
}
