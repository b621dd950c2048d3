package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-grand/acoustics"
	"github.com/cwbudde/algo-grand/piano"
)

// Synth is an additive rendering backend. It holds one voice per keyboard
// note and mixes them through the soundboard convolver.
type Synth struct {
	sampleRate int
	settings   *acoustics.Settings
	voices     [128]*Voice
	convolver  *SoundboardConvolver

	// gainDB is polled once per block; wired to the pedal gain automation.
	gainDB func() float64

	monoMix []float32
}

// NewSynth creates a rendering backend at the given sample rate.
func NewSynth(sampleRate int, settings *acoustics.Settings) *Synth {
	return &Synth{
		sampleRate: sampleRate,
		settings:   settings,
		convolver:  NewSoundboardConvolver(sampleRate),
	}
}

// Convolver exposes the soundboard stage for IR configuration.
func (s *Synth) Convolver() *SoundboardConvolver {
	return s.convolver
}

// SetGainSource registers a callback polled each block for the output gain
// in decibels.
func (s *Synth) SetGainSource(fn func() float64) {
	s.gainDB = fn
}

// StartVoice begins rendering a note from its resolved parameters.
func (s *Synth) StartVoice(params *piano.VoiceParams) error {
	if params == nil {
		return fmt.Errorf("nil voice parameters")
	}
	if params.Note < 0 || params.Note > 127 {
		return fmt.Errorf("note out of range: %d", params.Note)
	}
	if len(params.PartialFrequencies) == 0 {
		return fmt.Errorf("note %d resolved to an empty partial series", params.Note)
	}
	s.voices[params.Note] = NewVoice(float64(s.sampleRate), params, s.settings)
	return nil
}

// ReleaseVoice starts the damper envelope on a sounding note.
func (s *Synth) ReleaseVoice(note int, envelopeS float64, transient *acoustics.TransientSpec) error {
	if note < 0 || note > 127 || s.voices[note] == nil {
		return fmt.Errorf("no voice for note %d", note)
	}
	s.voices[note].Release(envelopeS, transient)
	return nil
}

// VoiceAmplitude reports the current amplitude of a note, 0 when silent.
// A voice that has gone inactive counts as silent even before the next
// Process call reaps it.
func (s *Synth) VoiceAmplitude(note int) float64 {
	if note < 0 || note > 127 {
		return 0
	}
	v := s.voices[note]
	if v == nil || !v.Active() {
		return 0
	}
	return v.Amplitude()
}

// ActiveVoices returns the number of voices still rendering.
func (s *Synth) ActiveVoices() int {
	n := 0
	for _, v := range s.voices {
		if v != nil && v.Active() {
			n++
		}
	}
	return n
}

// Process renders a block of stereo interleaved samples.
func (s *Synth) Process(numFrames int) []float32 {
	if cap(s.monoMix) < numFrames {
		s.monoMix = make([]float32, numFrames)
	}
	mix := s.monoMix[:numFrames]
	for i := range mix {
		mix[i] = 0
	}

	for note, v := range s.voices {
		if v == nil {
			continue
		}
		if !v.Active() {
			s.voices[note] = nil
			continue
		}
		v.Process(mix)
	}

	if s.gainDB != nil {
		gain := float32(math.Pow(10, s.gainDB()/20.0))
		for i := range mix {
			mix[i] *= gain
		}
	}

	return s.convolver.Process(mix)
}
