package acoustics

import (
	"math"
	"testing"
)

func TestBrightnessMultiplierDisabledReturnsExactlyOne(t *testing.T) {
	s := NewDefaultSettings()
	s.Brightness.Enabled = false
	for _, elapsed := range []float64{0, 0.001, 0.1, 2.0} {
		if got := BrightnessMultiplier(127, elapsed, s); got != 1.0 {
			t.Fatalf("disabled brightness at t=%g: got %g want exactly 1", elapsed, got)
		}
	}
}

func TestBrightnessMultiplierPeaksAtAttackEnd(t *testing.T) {
	s := NewDefaultSettings()
	velocity := 127
	attack := AttackDuration(velocity, s)

	peak := BrightnessMultiplier(velocity, attack, s)
	want := 1.0 + s.Brightness.PeakCoefficient*VelocityNorm(velocity)
	if math.Abs(peak-want) > 1e-6 {
		t.Fatalf("peak brightness: got %g want %g", peak, want)
	}

	mid := BrightnessMultiplier(velocity, attack*0.25, s)
	if mid <= 1.0 || mid >= peak {
		t.Fatalf("mid-attack brightness should sit between 1 and peak: got %g peak %g", mid, peak)
	}
}

func TestBrightnessMultiplierDecaysBackToOne(t *testing.T) {
	s := NewDefaultSettings()
	velocity := 100
	attack := AttackDuration(velocity, s)
	window := s.Brightness.DecayWindowMinS +
		(s.Brightness.DecayWindowMaxS-s.Brightness.DecayWindowMinS)*VelocityNorm(velocity)

	early := BrightnessMultiplier(velocity, attack+0.1*window, s)
	late := BrightnessMultiplier(velocity, attack+0.9*window, s)
	if early <= late {
		t.Fatalf("post-attack brightness should decay: early=%g late=%g", early, late)
	}
	if got := BrightnessMultiplier(velocity, attack+window+1.0, s); got != 1.0 {
		t.Fatalf("brightness should settle at 1 after the decay window: got %g", got)
	}
}

func TestBrightnessDecayWindowSlowerAtHigherVelocity(t *testing.T) {
	s := NewDefaultSettings()
	// One second in, a loud note should hold more excess brightness than a
	// quiet one both because its peak is higher and its window is longer.
	quiet := BrightnessMultiplier(30, 0.5, s)
	loud := BrightnessMultiplier(127, 0.5, s)
	if loud <= quiet {
		t.Fatalf("loud note should stay brighter mid-decay: quiet=%g loud=%g", quiet, loud)
	}
}

func TestAttackDurationShorterAtHigherVelocity(t *testing.T) {
	s := NewDefaultSettings()
	slow := AttackDuration(1, s)
	fast := AttackDuration(127, s)
	if fast >= slow {
		t.Fatalf("louder strike should attack faster: fast=%g slow=%g", fast, slow)
	}
	if fast != s.Brightness.AttackMinS {
		t.Fatalf("full velocity attack: got %g want %g", fast, s.Brightness.AttackMinS)
	}
}
