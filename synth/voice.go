package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-grand/acoustics"
	"github.com/cwbudde/algo-grand/dsp"
	"github.com/cwbudde/algo-grand/piano"
)

// partialOsc is a two-term recurrence sine oscillator. Cheaper than calling
// math.Sin per sample and stable over the decay times involved here.
type partialOsc struct {
	coeff float32
	s1    float32
	s2    float32

	amp      float32
	decayMul float32
}

func newPartialOsc(freq, sampleRate float64, amp, decayS float64) partialOsc {
	omega := 2.0 * math.Pi * freq / sampleRate
	decayMul := 1.0
	if decayS > 0 {
		decayMul = math.Exp(-1.0 / (decayS * sampleRate))
	}
	return partialOsc{
		coeff: float32(2.0 * math.Cos(omega)),
		// Seed the recurrence one step back so the first sample is sin(omega).
		s1:       float32(math.Sin(-omega)),
		s2:       float32(math.Sin(-2.0 * omega)),
		amp:      float32(amp),
		decayMul: float32(decayMul),
	}
}

func (o *partialOsc) next() float32 {
	s := o.coeff*o.s1 - o.s2
	o.s2 = o.s1
	o.s1 = s
	o.amp *= o.decayMul
	return s * o.amp
}

// transientState renders a filtered noise burst over a fixed duration.
type transientState struct {
	noise     *dsp.Noise
	filter    *dsp.Biquad
	amp       float32
	remaining int
	total     int
}

func newTransientState(spec *acoustics.TransientSpec, sampleRate float64, seed uint32) *transientState {
	if spec == nil || spec.Amplitude <= 0 || spec.DurationS <= 0 {
		return nil
	}
	samples := int(spec.DurationS * sampleRate)
	if samples < 1 {
		return nil
	}
	var filter *dsp.Biquad
	switch spec.Filter {
	case acoustics.FilterBandpass:
		filter = dsp.NewBandpass(float32(spec.CutoffHz), float32(sampleRate), float32(spec.Q))
	default:
		filter = dsp.NewLowpass(float32(spec.CutoffHz), float32(sampleRate), float32(spec.Q))
	}
	return &transientState{
		noise:     dsp.NewNoise(seed),
		filter:    filter,
		amp:       float32(spec.Amplitude),
		remaining: samples,
		total:     samples,
	}
}

func (t *transientState) next() float32 {
	if t == nil || t.remaining <= 0 {
		return 0
	}
	// Linear fade over the burst duration.
	env := float32(t.remaining) / float32(t.total)
	t.remaining--
	return t.filter.Process(t.noise.Next()) * t.amp * env
}

// Voice renders one sounding note as a bank of decaying partials plus
// optional hammer and damper noise bursts.
type Voice struct {
	sampleRate float64
	settings   *acoustics.Settings

	note     int
	velocity int

	partials []partialOsc
	attack   *transientState
	release  *transientState

	age        int // samples since note start
	active     bool
	released   bool
	releaseMul float32 // per-sample envelope factor once released
	releaseEnv float32
}

// NewVoice builds a voice from a resolved parameter bundle.
func NewVoice(sampleRate float64, params *piano.VoiceParams, settings *acoustics.Settings) *Voice {
	v := &Voice{
		sampleRate: sampleRate,
		settings:   settings,
		note:       params.Note,
		velocity:   params.Velocity,
		partials:   make([]partialOsc, 0, len(params.PartialFrequencies)),
		active:     true,
		releaseEnv: 1.0,
	}
	// Sympathetic energy picked up from notes already ringing under the
	// pedal scales the whole partial bed.
	coupling := 1.0 + params.CouplingGain
	if coupling < 1.0 {
		coupling = 1.0
	}
	nyquist := 0.5 * sampleRate
	for i, freq := range params.PartialFrequencies {
		if freq >= nyquist {
			continue
		}
		v.partials = append(v.partials, newPartialOsc(
			freq, sampleRate,
			params.PartialAmplitudes[i]*coupling,
			params.PartialDecayTimes[i],
		))
	}
	v.attack = newTransientState(params.AttackNoise, sampleRate, uint32(params.Note*7919+params.Velocity))
	return v
}

// Release starts the damper envelope and an optional damper noise burst.
func (v *Voice) Release(envelopeS float64, transient *acoustics.TransientSpec) {
	if v.released {
		return
	}
	v.released = true
	if envelopeS <= 0 {
		envelopeS = 0.005
	}
	// Decay by roughly 60 dB over the envelope duration.
	v.releaseMul = approx.FastExp(float32(-6.9 / (envelopeS * v.sampleRate)))
	v.release = newTransientState(transient, v.sampleRate, uint32(v.note*104729+1))
}

// Amplitude reports the current summed partial amplitude including the
// release envelope.
func (v *Voice) Amplitude() float64 {
	var sum float32
	for i := range v.partials {
		sum += v.partials[i].amp
	}
	return float64(sum * v.releaseEnv)
}

// Active reports whether the voice still produces audible output.
func (v *Voice) Active() bool {
	return v.active
}

// Process renders numFrames mono samples, accumulating into out.
func (v *Voice) Process(out []float32) {
	if !v.active {
		return
	}

	// Hammer brightness varies slowly; one evaluation per block is enough.
	t := float64(v.age) / v.sampleRate
	bright := float32(acoustics.BrightnessMultiplier(v.velocity, t, v.settings))

	for i := range out {
		var sample float32
		for j := range v.partials {
			p := &v.partials[j]
			s := p.next()
			if j > 0 {
				s *= bright
			}
			sample += s
		}
		sample += v.attack.next()

		if v.released {
			v.releaseEnv *= v.releaseMul
			sample *= v.releaseEnv
			sample += v.release.next()
		}

		out[i] += dsp.FlushDenormals(sample)
		v.age++
	}

	if v.released && v.releaseEnv < 1e-5 && (v.release == nil || v.release.remaining <= 0) {
		v.active = false
	}
	if !v.released && v.Amplitude() < 1e-7 && v.age > int(v.sampleRate) {
		v.active = false
	}
}
