package acoustics

import "math"

// Coefficient computes the stiffness coefficient B for a note.
// B interpolates exponentially between BMin at MIDI 21 and BMax at MIDI 108;
// notes outside that range clamp to the endpoints rather than extrapolating.
func Coefficient(note int, s *Settings) float64 {
	s = s.orDefault()
	cfg := &s.Inharmonicity

	bMin := fallback(cfg.BMin, 0.0001)
	bMax := fallback(cfg.BMax, 0.02)
	curve := fallback(cfg.CurveExponent, 2.0)

	t := clamp(float64(note-LowestNote)/float64(HighestNote-LowestNote), 0, 1)
	return bMin * math.Pow(bMax/bMin, math.Pow(t, curve))
}

// BassBoostFactor returns the multiplier applied to B for low notes.
// The boost is full strength at 0 Hz and fades linearly to 1x at the
// configured threshold; at or above the threshold it is exactly 1.
func BassBoostFactor(freq float64, s *Settings) float64 {
	s = s.orDefault()
	cfg := &s.Inharmonicity

	threshold := fallback(cfg.BassBoostBelowHz, 120.0)
	amount := fallback(cfg.BassBoostAmount, 2.0)
	if freq <= 0 || freq >= threshold || amount <= 1 {
		return 1.0
	}
	return 1.0 + (amount-1.0)*(threshold-freq)/threshold
}

// EffectiveCoefficient is the per-note coefficient with the bass boost
// applied for the note's fundamental frequency.
func EffectiveCoefficient(note int, s *Settings) float64 {
	return Coefficient(note, s) * BassBoostFactor(NoteFrequency(note), s)
}

// PartialFrequency computes the frequency of partial k over fundamental f0
// for stiffness coefficient b: k * f0 * sqrt(1 + b*k^2). The fundamental
// itself is never shifted; stiffness sharpens overtones only.
//
// When inharmonicity is disabled the result is exactly k*f0; the stiffness
// term is skipped entirely so no rounding drift leaks into harmonic output.
func PartialFrequency(f0 float64, k int, b float64, s *Settings) float64 {
	if k <= 1 {
		return f0
	}
	s = s.orDefault()
	if !s.Inharmonicity.Enabled || b <= 0 {
		return float64(k) * f0
	}
	fk := float64(k)
	return fk * f0 * math.Sqrt(1.0+b*fk*fk)
}

// PartialSeries computes the frequencies and amplitudes of the first
// maxPartials partials for a note struck at the given velocity. Partials
// whose frequency would exceed the audible ceiling are truncated.
func PartialSeries(note int, velocity int, maxPartials int, s *Settings) ([]float64, []float64) {
	const audibleCeilingHz = 20000.0

	s = s.orDefault()
	if maxPartials < 1 {
		maxPartials = 1
	}
	f0 := NoteFrequency(note)
	b := EffectiveCoefficient(note, s)

	freqs := make([]float64, 0, maxPartials)
	amps := make([]float64, 0, maxPartials)
	for k := 1; k <= maxPartials; k++ {
		fk := PartialFrequency(f0, k, b, s)
		if fk > audibleCeilingHz {
			break
		}
		freqs = append(freqs, fk)
		amps = append(amps, HarmonicRolloff(k, velocity, s))
	}
	return freqs, amps
}
