package acoustics

import "math"

// AttackDuration computes the velocity-dependent attack window in seconds.
// Louder strikes reach full brightness faster.
func AttackDuration(velocity int, s *Settings) float64 {
	s = s.orDefault()
	minS := fallback(s.Brightness.AttackMinS, 0.002)
	maxS := fallback(s.Brightness.AttackMaxS, 0.020)
	if maxS < minS {
		maxS = minS
	}
	return maxS - (maxS-minS)*VelocityNorm(velocity)
}

// BrightnessMultiplier computes the brightness factor at elapsed seconds
// after the attack.
//
// During the attack window the factor follows the rising half of a sine,
// peaking at 1 + peak*vNorm when the window ends. Afterwards it decays
// linearly back to 1.0 over a velocity-dependent window; louder notes hold
// their brightness longer. Returns exactly 1.0 when the feature is disabled.
func BrightnessMultiplier(velocity int, elapsedS float64, s *Settings) float64 {
	s = s.orDefault()
	if !s.Brightness.Enabled {
		return 1.0
	}
	if elapsedS < 0 {
		elapsedS = 0
	}

	v := VelocityNorm(velocity)
	peak := fallback(s.Brightness.PeakCoefficient, 0.5) * v
	attack := AttackDuration(velocity, s)

	if attack > 0 && elapsedS < attack {
		return 1.0 + peak*math.Sin(0.5*math.Pi*elapsedS/attack)
	}

	wMin := fallback(s.Brightness.DecayWindowMinS, 0.3)
	wMax := fallback(s.Brightness.DecayWindowMaxS, 1.2)
	if wMax < wMin {
		wMax = wMin
	}
	window := wMin + (wMax-wMin)*v
	if window <= 0 {
		return 1.0
	}

	remain := 1.0 - (elapsedS-attack)/window
	if remain <= 0 {
		return 1.0
	}
	return 1.0 + peak*remain
}
