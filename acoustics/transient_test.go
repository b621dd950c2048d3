package acoustics

import (
	"math"
	"testing"
)

func TestAttackNoiseAmplitudeFollowsVelocityCurve(t *testing.T) {
	s := NewDefaultSettings()
	for _, v := range []int{1, 40, 80, 127} {
		spec := AttackNoise(v, 440.0, s)
		if spec == nil {
			t.Fatalf("expected attack transient at velocity %d", v)
		}
		vn := VelocityNorm(v)
		want := s.Transients.AttackMaxAmplitude * math.Pow(vn, 1.5)
		if math.Abs(spec.Amplitude-want) > 1e-9 {
			t.Fatalf("velocity %d amplitude: got %g want %g", v, spec.Amplitude, want)
		}
	}
}

func TestAttackNoiseNilAtZeroVelocity(t *testing.T) {
	if spec := AttackNoise(0, 440.0, NewDefaultSettings()); spec != nil {
		t.Fatalf("zero-velocity strike should produce no transient, got %+v", spec)
	}
}

func TestAttackNoiseNilWhenDisabled(t *testing.T) {
	s := NewDefaultSettings()
	s.Transients.AttackEnabled = false
	if spec := AttackNoise(127, 440.0, s); spec != nil {
		t.Fatalf("disabled attack transient should be nil, got %+v", spec)
	}
}

func TestAttackNoiseDurationLongerInBass(t *testing.T) {
	s := NewDefaultSettings()
	bass := AttackNoise(100, 55.0, s)
	mid := AttackNoise(100, 440.0, s)
	treble := AttackNoise(100, 2000.0, s)
	if bass == nil || mid == nil || treble == nil {
		t.Fatalf("expected transients in all bands")
	}
	if !(bass.DurationS > mid.DurationS && mid.DurationS > treble.DurationS) {
		t.Fatalf("duration should shrink up the keyboard: %g, %g, %g",
			bass.DurationS, mid.DurationS, treble.DurationS)
	}
}

func TestAttackNoiseCutoffTracksFundamentalWithCap(t *testing.T) {
	s := NewDefaultSettings()
	mid := AttackNoise(100, 440.0, s)
	if mid == nil {
		t.Fatalf("expected mid-band transient")
	}
	want := 440.0 * s.Transients.AttackCutoffMidMult
	if math.Abs(mid.CutoffHz-want) > 1e-9 {
		t.Fatalf("mid cutoff: got %g want %g", mid.CutoffHz, want)
	}
	if mid.Filter != FilterLowpass {
		t.Fatalf("attack transient should use a lowpass, got %v", mid.Filter)
	}

	high := AttackNoise(100, 6000.0, s)
	if high == nil {
		t.Fatalf("expected treble transient")
	}
	if high.CutoffHz != 20000.0 {
		t.Fatalf("treble cutoff should cap at 20 kHz, got %g", high.CutoffHz)
	}
}

func TestReleaseTransientAmplitudeFractionOfCurrent(t *testing.T) {
	s := NewDefaultSettings()
	cur := 0.8
	quiet := ReleaseTransient(cur, 0, 440.0, s)
	loud := ReleaseTransient(cur, 127, 440.0, s)
	if quiet == nil || loud == nil {
		t.Fatalf("expected release transients")
	}
	if math.Abs(quiet.Amplitude-cur*0.05) > 1e-9 {
		t.Fatalf("slow release amplitude: got %g want %g", quiet.Amplitude, cur*0.05)
	}
	if math.Abs(loud.Amplitude-cur*0.15) > 1e-9 {
		t.Fatalf("fast release amplitude: got %g want %g", loud.Amplitude, cur*0.15)
	}

	unknown := ReleaseTransient(cur, -1, 440.0, s)
	if unknown == nil {
		t.Fatalf("unknown release velocity should still produce a transient")
	}
	if unknown.Amplitude < quiet.Amplitude || unknown.Amplitude > loud.Amplitude {
		t.Fatalf("unknown-velocity amplitude should sit mid-range: %g", unknown.Amplitude)
	}
}

func TestReleaseTransientBandpassOnFundamental(t *testing.T) {
	s := NewDefaultSettings()
	spec := ReleaseTransient(0.5, 64, 330.0, s)
	if spec == nil {
		t.Fatalf("expected release transient")
	}
	if spec.Filter != FilterBandpass {
		t.Fatalf("release transient should use a bandpass, got %v", spec.Filter)
	}
	if spec.CutoffHz != 330.0 {
		t.Fatalf("bandpass center: got %g want 330", spec.CutoffHz)
	}
	if math.Abs(spec.Q-2.5) > 1e-9 {
		t.Fatalf("bandpass Q: got %g want 2.5", spec.Q)
	}
}

func TestReleaseTransientDurationWithinBandRange(t *testing.T) {
	s := NewDefaultSettings()
	for _, freq := range []float64{55, 440, 4000} {
		spec := ReleaseTransient(0.5, 64, freq, s)
		if spec == nil {
			t.Fatalf("expected release transient at %g Hz", freq)
		}
		if spec.DurationS < 0.020 || spec.DurationS > 0.040 {
			t.Fatalf("release duration at %g Hz out of 20-40ms range: %g", freq, spec.DurationS)
		}
	}
}

func TestReleaseTransientNilWithoutEnergyOrWhenDisabled(t *testing.T) {
	s := NewDefaultSettings()
	if spec := ReleaseTransient(0, 64, 440.0, s); spec != nil {
		t.Fatalf("silent voice should produce no release transient, got %+v", spec)
	}
	s.Transients.ReleaseEnabled = false
	if spec := ReleaseTransient(0.5, 64, 440.0, s); spec != nil {
		t.Fatalf("disabled release transient should be nil, got %+v", spec)
	}
}
