package acoustics

import "math"

// TimbreClass is a discretized spectrum richness selected from velocity.
type TimbreClass int

const (
	TimbrePure TimbreClass = iota
	TimbreSomeHarmonics
	TimbreModerateHarmonics
)

func (c TimbreClass) String() string {
	switch c {
	case TimbrePure:
		return "pure"
	case TimbreSomeHarmonics:
		return "some-harmonics"
	case TimbreModerateHarmonics:
		return "moderate-harmonics"
	default:
		return "unknown"
	}
}

// ClassifyTimbre selects the timbre class for a strike velocity.
// The thresholds are fixed and the selection is deterministic; identical
// input always yields the identical class.
func ClassifyTimbre(velocity int) TimbreClass {
	v := VelocityNorm(velocity)
	switch {
	case v < 0.4:
		return TimbrePure
	case v < 0.75:
		return TimbreSomeHarmonics
	default:
		return TimbreModerateHarmonics
	}
}

// BrightnessIndex maps velocity onto [1.0, 1.5]: 1 + 0.5 * vNorm^0.7.
func BrightnessIndex(velocity int) float64 {
	return 1.0 + 0.5*math.Pow(VelocityNorm(velocity), 0.7)
}

// HarmonicRolloff computes the relative amplitude of partial k in [0,1].
//
// The base shape is an exponential decay in k whose rate relaxes with
// velocity, so harder strikes carry more high-partial energy. When the
// timbre class is TimbreSomeHarmonics the spectrum is odd-harmonic only:
// even partials are zeroed and odd ones follow a 1/k envelope instead.
func HarmonicRolloff(k int, velocity int, s *Settings) float64 {
	if k < 1 {
		k = 1
	}
	if k == 1 {
		return 1.0
	}
	s = s.orDefault()

	if ClassifyTimbre(velocity) == TimbreSomeHarmonics {
		if k%2 == 0 {
			return 0.0
		}
		return 1.0 / float64(k)
	}

	decay := fallback(s.Timbre.RolloffDecay, 0.8)
	relief := clamp(fallback(s.Timbre.VelocityRelief, 0.6), 0, 0.95)
	rate := decay * (1.0 - relief*VelocityNorm(velocity))
	return clamp(math.Exp(-rate*float64(k-1)), 0, 1)
}
