package acoustics

import "math"

// PartialDecayTime computes the decay time constant of partial k given the
// fundamental's decay time: tau_k = tau_1 * exp(-rate*(k-1)), floored at a
// fraction of tau_1 so high partials never vanish instantly.
func PartialDecayTime(k int, fundamentalDecayS float64, s *Settings) float64 {
	if k < 1 {
		k = 1
	}
	if fundamentalDecayS <= 0 {
		return 0
	}
	s = s.orDefault()
	rate := fallback(s.Decay.PartialRate, 0.25)
	floor := clamp(fallback(s.Decay.PartialFloor, 0.1), 0, 1)

	tau := fundamentalDecayS * math.Exp(-rate*float64(k-1))
	if min := floor * fundamentalDecayS; tau < min {
		tau = min
	}
	return tau
}

// SustainDecayTime computes the pitch-dependent sustain decay in seconds:
// T0 * 2^(-(note-21)/12 * k), clamped to the configured range, so bass
// strings ring longer than treble ones. When pedalDown is set the result is
// extended by the pedal multiplier.
func SustainDecayTime(note int, pedalDown bool, s *Settings) float64 {
	s = s.orDefault()
	cfg := &s.Sustain

	base := fallback(cfg.BaseDecayS, 12.0)
	k := fallback(cfg.PitchExponent, 0.5)
	minS := fallback(cfg.MinDecayS, 0.5)
	maxS := fallback(cfg.MaxDecayS, 15.0)
	if maxS < minS {
		maxS = minS
	}

	offset := float64(ClampNote(note) - LowestNote)
	tau := clamp(base*math.Exp2(-offset/12.0*k), minS, maxS)
	if pedalDown {
		tau *= fallback(cfg.PedalMultiplier, 1.6)
	}
	return tau
}

// ReleaseEnvelopeDuration widens the synthesis release envelope to roughly
// half the scheduled decay, clamped, so scheduled fades stay smooth.
func ReleaseEnvelopeDuration(decayS float64, s *Settings) float64 {
	s = s.orDefault()
	cfg := &s.Sustain
	minS := fallback(cfg.ReleaseEnvelopeMinS, 0.05)
	maxS := fallback(cfg.ReleaseEnvelopeMaxS, 4.0)
	if maxS < minS {
		maxS = minS
	}
	return clamp(0.5*decayS, minS, maxS)
}

// EffectiveDecayTime collapses per-partial decay into a single envelope
// parameter for backends that cannot model per-partial decay natively:
// weighted half on the fundamental, half on the mean over all partials.
func EffectiveDecayTime(fundamentalDecayS float64, partials int, s *Settings) float64 {
	if fundamentalDecayS <= 0 {
		return 0
	}
	if partials < 1 {
		partials = 1
	}
	var sum float64
	for k := 1; k <= partials; k++ {
		sum += PartialDecayTime(k, fundamentalDecayS, s)
	}
	mean := sum / float64(partials)
	return 0.5*fundamentalDecayS + 0.5*mean
}
