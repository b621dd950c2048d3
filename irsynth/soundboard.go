// Package irsynth generates synthetic soundboard impulse responses for the
// convolution stage, so playback does not require a measured IR recording.
//
// Mode placement uses analytical Kirchhoff eigenfrequencies for a simply
// supported orthotropic rectangular plate:
//
//	f_{mn}/f_{11} = sqrt(S·m⁴ + 2·√S·m²n²R² + n⁴R⁴) / sqrt(S + 2·√S·R² + R⁴)
//
// where R = PlateRatio (Lx/Ly), S = StiffnessRatio (Dx/Dy) and m,n ≥ 1.
// This gives a physically plausible density of states: modes cluster toward
// high frequencies, with orthotropic splitting from the wood grain direction.
package irsynth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config controls synthetic soundboard IR generation.
type Config struct {
	SampleRate int
	DurationS  float64
	MaxModes   int
	Seed       int64

	PlateRatio     float64 // soundboard aspect ratio Lx/Ly
	StiffnessRatio float64 // orthotropic stiffness ratio Dx/Dy, ~10-15 for spruce
	Brightness     float64
	StereoWidth    float64
	DirectLevel    float64

	ReflectionCount int     // early reflection taps in the 1-30ms range
	TailLevel       float64 // diffuse late tail level, 0 disables

	LowDecayS   float64 // decay for modes below CrossoverHz
	HighDecayS  float64 // decay for modes above CrossoverHz
	CrossoverHz float64

	FadeOutS      float64 // cosine fade applied to the tail end, 0 = none
	NormalizePeak float64
}

// DefaultConfig returns a medium-sized grand soundboard in a dry room.
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		DurationS:       1.5,
		MaxModes:        96,
		Seed:            1,
		PlateRatio:      1.6,
		StiffnessRatio:  12.0,
		Brightness:      1.0,
		StereoWidth:     0.6,
		DirectLevel:     0.6,
		ReflectionCount: 16,
		TailLevel:       0.05,
		LowDecayS:       2.0,
		HighDecayS:      0.3,
		CrossoverHz:     800.0,
		FadeOutS:        0.01,
		NormalizePeak:   0.9,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.MaxModes < 1 {
		return fmt.Errorf("max modes must be >= 1")
	}
	if c.PlateRatio <= 0 {
		return fmt.Errorf("plate ratio must be > 0")
	}
	if c.StiffnessRatio <= 0 {
		return fmt.Errorf("stiffness ratio must be > 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.StereoWidth < 0 {
		return fmt.Errorf("stereo width must be >= 0")
	}
	if c.DirectLevel < 0 {
		return fmt.Errorf("direct level must be >= 0")
	}
	if c.ReflectionCount < 0 {
		return fmt.Errorf("reflection count must be >= 0")
	}
	if c.TailLevel < 0 {
		return fmt.Errorf("tail level must be >= 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.CrossoverHz <= 0 {
		return fmt.Errorf("crossover Hz must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// Generate synthesizes a stereo soundboard IR according to cfg.
func Generate(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	left := make([]float64, n)
	right := make([]float64, n)

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Direct path.
	left[0] += cfg.DirectLevel * (1.0 - 0.05*cfg.StereoWidth)
	right[0] += cfg.DirectLevel * (1.0 + 0.05*cfg.StereoWidth)

	maxF := 0.47 * float64(cfg.SampleRate)
	if maxF < 500.0 {
		maxF = 500.0
	}
	minF := 35.0
	if minF >= maxF {
		minF = maxF * 0.5
	}

	// Plate body modes. Eigenfrequency placement is deterministic; the RNG
	// only jitters amplitude, phase and pan.
	logCrossover := math.Log(cfg.CrossoverHz)
	brightnessExp := 0.7 + 0.9*cfg.Brightness
	for _, f := range plateEigenfreqs(minF, maxF, cfg.MaxModes, cfg.PlateRatio, cfg.StiffnessRatio) {
		amp := 0.9 / math.Pow(1.0+f/120.0, brightnessExp)
		amp *= 0.7 + 0.6*rng.Float64()

		// Sigmoid blend between the two decay regimes around CrossoverHz.
		blend := 1.0 / (1.0 + math.Exp(-3.0*(math.Log(f)-logCrossover)))
		tau := cfg.LowDecayS*(1.0-blend) + cfg.HighDecayS*blend
		decay := math.Exp(-1.0 / (tau * float64(cfg.SampleRate)))

		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		skew := 0.004 * pan
		phi := rng.Float64() * 2.0 * math.Pi
		addMode(left, amp*(1.0-0.45*pan), f*(1.0-skew), phi, decay, cfg.SampleRate)
		addMode(right, amp*(1.0+0.45*pan), f*(1.0+skew), phi+0.01*pan, decay, cfg.SampleRate)
	}

	// Early reflections.
	for i := 0; i < cfg.ReflectionCount; i++ {
		t := 0.001 + 0.030*rng.Float64()
		idx := int(t * float64(cfg.SampleRate))
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*28.0)
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}

	// Diffuse late tail from low-pass filtered noise.
	if cfg.TailLevel > 0 {
		lpL := 0.0
		lpR := 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(cfg.SampleRate)
			env := math.Exp(-t / (0.75 * cfg.LowDecayS))
			lpL = 0.985*lpL + 0.015*rng.NormFloat64()
			lpR = 0.985*lpR + 0.015*rng.NormFloat64()
			left[i] += cfg.TailLevel * env * lpL
			right[i] += cfg.TailLevel * env * lpR
		}
	}

	dcBlock(left, 0.995)
	dcBlock(right, 0.995)
	fadeOut(left, cfg.FadeOutS, cfg.SampleRate)
	fadeOut(right, cfg.FadeOutS, cfg.SampleRate)

	peak := peakAbs(left)
	if rp := peakAbs(right); rp > peak {
		peak = rp
	}
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := 0; i < n; i++ {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

// plateEigenfreqs returns up to maxModes Kirchhoff plate eigenfrequencies in
// [f11, maxF], sorted ascending.
func plateEigenfreqs(f11, maxF float64, maxModes int, R, S float64) []float64 {
	sqrtS := math.Sqrt(S)
	R2 := R * R
	R4 := R2 * R2
	denom := math.Sqrt(S + 2*sqrtS*R2 + R4)

	// f_{m,1} grows like f11 * sqrt(S) * m² / denom, so the index bounds
	// follow from inverting that at maxF.
	mMax := int(math.Sqrt(maxF/f11*denom/sqrtS)) + 2
	nMax := int(math.Sqrt(maxF/f11*denom)) + 2

	freqs := make([]float64, 0, mMax*nMax)
	for m := 1; m <= mMax; m++ {
		m2 := float64(m * m)
		m4 := m2 * m2
		for n := 1; n <= nMax; n++ {
			n2 := float64(n * n)
			n4 := n2 * n2
			f := f11 * math.Sqrt(S*m4+2*sqrtS*m2*n2*R2+n4*R4) / denom
			if f > maxF {
				break // n only increases f
			}
			freqs = append(freqs, f)
		}
	}

	sort.Float64s(freqs)
	if len(freqs) > maxModes {
		freqs = freqs[:maxModes]
	}
	return freqs
}

// addMode accumulates an exponentially decaying cosine using a two-term
// recurrence, avoiding per-sample trig.
func addMode(out []float64, amp, freq, phase, decay float64, sampleRate int) {
	if len(out) == 0 {
		return
	}
	w := 2.0 * math.Pi * freq / float64(sampleRate)
	cw := math.Cos(w)
	x0 := math.Cos(phase)
	x1 := math.Cos(phase + w)
	env := 1.0

	out[0] += amp * env * x0
	env *= decay
	if len(out) == 1 {
		return
	}
	out[1] += amp * env * x1
	env *= decay
	for i := 2; i < len(out); i++ {
		x2 := 2.0*cw*x1 - x0
		x0 = x1
		x1 = x2
		out[i] += amp * env * x2
		env *= decay
	}
}

func dcBlock(x []float64, r float64) {
	prevIn := 0.0
	prevOut := 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}

func fadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fadeSamples := int(math.Round(fadeS * float64(sampleRate)))
	if fadeSamples > len(buf) {
		fadeSamples = len(buf)
	}
	start := len(buf) - fadeSamples
	for i := 0; i < fadeSamples; i++ {
		t := float64(i) / float64(fadeSamples)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
}

func peakAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
