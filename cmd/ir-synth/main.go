// ir-synth writes a synthetic soundboard impulse response to a WAV file,
// for use with the -ir flag of piano-render and piano-live or the
// ir_wav_path preset field.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-grand/internal/wavio"
	"github.com/cwbudde/algo-grand/irsynth"
)

func main() {
	cfg := irsynth.DefaultConfig()

	output := flag.String("output", "soundboard.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DurationS, "duration", cfg.DurationS, "IR length in seconds")
	flag.IntVar(&cfg.MaxModes, "modes", cfg.MaxModes, "Maximum number of plate modes")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.PlateRatio, "plate-ratio", cfg.PlateRatio, "Soundboard aspect ratio Lx/Ly")
	flag.Float64Var(&cfg.StiffnessRatio, "stiffness-ratio", cfg.StiffnessRatio, "Orthotropic stiffness ratio Dx/Dy")
	flag.Float64Var(&cfg.Brightness, "brightness", cfg.Brightness, "Spectral brightness control (>0)")
	flag.Float64Var(&cfg.StereoWidth, "stereo-width", cfg.StereoWidth, "Stereo decorrelation width")
	flag.Float64Var(&cfg.DirectLevel, "direct", cfg.DirectLevel, "Direct impulse level")
	flag.IntVar(&cfg.ReflectionCount, "reflections", cfg.ReflectionCount, "Number of early reflections")
	flag.Float64Var(&cfg.TailLevel, "tail", cfg.TailLevel, "Diffuse late-tail level")
	flag.Float64Var(&cfg.LowDecayS, "low-decay", cfg.LowDecayS, "Low-frequency decay time (s)")
	flag.Float64Var(&cfg.HighDecayS, "high-decay", cfg.HighDecayS, "High-frequency decay time (s)")
	flag.Float64Var(&cfg.CrossoverHz, "crossover", cfg.CrossoverHz, "Decay crossover frequency (Hz)")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target")
	flag.Parse()

	left, right, err := irsynth.Generate(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	interleaved := make([]float32, 2*len(left))
	for i := range left {
		interleaved[2*i] = left[i]
		interleaved[2*i+1] = right[i]
	}
	if err := wavio.WriteStereoInterleaved(*output, interleaved, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	peak := 0.0
	for _, s := range interleaved {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, wavio.StereoRMS(interleaved))
}
