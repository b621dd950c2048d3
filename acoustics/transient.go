package acoustics

import "math"

// FilterKind selects the filter shape realizing a transient burst.
type FilterKind int

const (
	FilterLowpass FilterKind = iota
	FilterBandpass
)

// TransientSpec describes a short noise burst around note-on or note-off.
// It is computed entirely from the instant of the event; there is no state
// to carry afterwards.
type TransientSpec struct {
	Amplitude float64
	DurationS float64
	Filter    FilterKind
	CutoffHz  float64
	Q         float64
}

type freqBand int

const (
	bandLow  freqBand = iota // below 200 Hz
	bandMid                  // 200 Hz to 1 kHz
	bandHigh                 // 1 kHz and up
)

func bandFor(freq float64) freqBand {
	switch {
	case freq < 200.0:
		return bandLow
	case freq < 1000.0:
		return bandMid
	default:
		return bandHigh
	}
}

// AttackNoise computes the hammer-noise burst for a note-on, or nil when
// attack transients are disabled or the burst resolves to nothing.
func AttackNoise(velocity int, freq float64, s *Settings) *TransientSpec {
	s = s.orDefault()
	cfg := &s.Transients
	if !cfg.AttackEnabled {
		return nil
	}

	v := VelocityNorm(velocity)
	amp := fallback(cfg.AttackMaxAmplitude, 0.3) * v * math.Sqrt(v)
	if amp <= 0 {
		return nil
	}

	durMult := 1.0
	cutoffMult := 6.0
	switch bandFor(freq) {
	case bandLow:
		durMult = fallback(cfg.AttackDurationLowMult, 1.5)
		cutoffMult = fallback(cfg.AttackCutoffLowMult, 8.0)
	case bandMid:
		durMult = fallback(cfg.AttackDurationMidMult, 1.0)
		cutoffMult = fallback(cfg.AttackCutoffMidMult, 6.0)
	case bandHigh:
		durMult = fallback(cfg.AttackDurationHighMult, 0.6)
		cutoffMult = fallback(cfg.AttackCutoffHighMult, 4.0)
	}

	// Duration grows with velocity and shrinks going up the keyboard.
	dur := fallback(cfg.AttackBaseDurationS, 0.020) * (0.5 + v) * durMult
	if dur <= 0 {
		return nil
	}

	cutoff := freq * cutoffMult
	if cutoff > 20000.0 {
		cutoff = 20000.0
	}

	return &TransientSpec{
		Amplitude: amp,
		DurationS: dur,
		Filter:    FilterLowpass,
		CutoffHz:  cutoff,
		Q:         0.707,
	}
}

// ReleaseTransient computes the damper-noise burst for a note-off, or nil
// when release transients are disabled or the burst resolves to nothing.
// currentAmplitude is the voice's amplitude at the instant of release;
// releaseVelocity may be negative when the input source did not report one.
func ReleaseTransient(currentAmplitude float64, releaseVelocity int, freq float64, s *Settings) *TransientSpec {
	s = s.orDefault()
	cfg := &s.Transients
	if !cfg.ReleaseEnabled || currentAmplitude <= 0 {
		return nil
	}

	minFrac := fallback(cfg.ReleaseMinFraction, 0.05)
	maxFrac := fallback(cfg.ReleaseMaxFraction, 0.15)
	if maxFrac < minFrac {
		maxFrac = minFrac
	}
	rv := 0.5
	if releaseVelocity >= 0 {
		rv = VelocityNorm(releaseVelocity)
	}
	amp := currentAmplitude * (minFrac + (maxFrac-minFrac)*rv)
	if amp <= 0 {
		return nil
	}

	var dur float64
	switch bandFor(freq) {
	case bandLow:
		dur = fallback(cfg.ReleaseDurationLowS, 0.040)
	case bandMid:
		dur = fallback(cfg.ReleaseDurationMidS, 0.030)
	default:
		dur = fallback(cfg.ReleaseDurationHighS, 0.020)
	}
	if dur <= 0 {
		return nil
	}

	return &TransientSpec{
		Amplitude: amp,
		DurationS: dur,
		Filter:    FilterBandpass,
		CutoffHz:  freq,
		Q:         fallback(cfg.ReleaseFilterQ, 2.5),
	}
}
