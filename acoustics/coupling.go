package acoustics

import (
	"math"
	"sort"
)

// Frequency ratios treated as harmonically related for the coupling boost.
var intervalRatios = [...]float64{1.0, 2.0, 1.5}

// CouplingGain computes the pairwise sympathetic gain a struck string at
// freq receives from another sounding string, in [0,1).
//
// The gain falls off exponentially with frequency distance and is boosted
// when the two notes sit near a unison, octave or perfect fifth. It is zero
// whenever coupling is disabled or the pedal is less than half depressed.
func CouplingGain(freq float64, otherFreq float64, pedal float64, s *Settings) float64 {
	s = s.orDefault()
	cfg := &s.Coupling
	if !cfg.Enabled || freq <= 0 || otherFreq <= 0 {
		return 0
	}
	if pedal < fallback(cfg.MinPedal, 0.5) {
		return 0
	}

	distHz := fallback(cfg.DistanceConstantHz, 100.0)
	g := math.Exp(-math.Abs(freq-otherFreq) / distHz)

	ratio := freq / otherFreq
	if ratio < 1 {
		ratio = 1 / ratio
	}
	tol := fallback(cfg.IntervalTolerance, 0.1)
	for _, r := range intervalRatios {
		if math.Abs(ratio-r) <= r*tol {
			g *= fallback(cfg.IntervalBoost, 1.5)
			break
		}
	}

	return g * clamp(pedal, 0, 1) * fallback(cfg.PairSubtlety, 0.1)
}

// TotalCoupling aggregates pairwise coupling from the currently sounding
// notes onto a freshly struck note.
//
// Only the frequency-nearest MaxNeighbors notes within MaxDistanceHz
// contribute; the cap bounds cost per note-on under dense pedal clusters and
// is part of the reproducible contract. The sum is scaled by active-note
// density, strike velocity and the aggregate subtlety factor.
func TotalCoupling(freq float64, velocity int, pedal float64, activeFreqs []float64, s *Settings) float64 {
	s = s.orDefault()
	cfg := &s.Coupling
	if !cfg.Enabled || len(activeFreqs) == 0 || freq <= 0 {
		return 0
	}
	if pedal < fallback(cfg.MinPedal, 0.5) {
		return 0
	}

	nearest := append([]float64(nil), activeFreqs...)
	sort.Slice(nearest, func(i, j int) bool {
		return math.Abs(nearest[i]-freq) < math.Abs(nearest[j]-freq)
	})
	if max := fallbackInt(cfg.MaxNeighbors, 8); len(nearest) > max {
		nearest = nearest[:max]
	}

	maxDist := fallback(cfg.MaxDistanceHz, 2000.0)
	var sum float64
	for _, f := range nearest {
		if math.Abs(f-freq) > maxDist {
			continue
		}
		sum += CouplingGain(freq, f, pedal, s)
	}
	if sum == 0 {
		return 0
	}

	density := clamp(float64(len(activeFreqs))/float64(fallbackInt(cfg.DensityNotes, 10)), 0, 1)
	return sum * density * VelocityNorm(velocity) * fallback(cfg.TotalSubtlety, 0.3)
}
