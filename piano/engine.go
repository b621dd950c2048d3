package piano

import (
	"github.com/cwbudde/algo-grand/acoustics"
)

// SustainController is the MIDI controller number of the sustain pedal.
const SustainController = 64

// VoiceBackend is the audio-graph collaborator realizing parameter bundles.
// All methods are best-effort: acting on an already-released voice must be
// tolerated, and a failed StartVoice only costs that one note.
type VoiceBackend interface {
	// StartVoice begins (or replaces) the voice for params.Note.
	StartVoice(params *VoiceParams) error

	// ReleaseVoice fades the voice for note over envelopeS seconds,
	// optionally emitting a release transient. Releasing an unknown or
	// already-released note is a no-op.
	ReleaseVoice(note int, envelopeS float64, transient *acoustics.TransientSpec) error

	// VoiceAmplitude reports the voice's current amplitude, or 0 when the
	// note is unknown; used to size release transients.
	VoiceAmplitude(note int) float64
}

// Engine is the instrument core: it turns note-on/off/pedal events into
// synthesis parameter bundles and scheduled lifecycle transitions. All
// methods must be called from a single goroutine; the clock only moves
// inside Advance, so every mutation happens synchronously within the event
// that caused it.
type Engine struct {
	settings *acoustics.Settings
	backend  VoiceBackend

	clock      *Clock
	registry   *NoteRegistry
	scheduler  *SustainScheduler
	automation *GainAutomation

	pedal float64

	// onScheduledRelease observes decay-scheduled releases as they fire.
	onScheduledRelease func(note int)
}

// NewEngine creates the instrument core. settings is externally owned and
// may be mutated between calls; nil selects defaults everywhere. backend
// may be nil for a silent (bookkeeping-only) engine.
func NewEngine(settings *acoustics.Settings, backend VoiceBackend) *Engine {
	e := &Engine{
		settings: settings,
		backend:  backend,
		clock:    NewClock(),
		registry: NewNoteRegistry(),
	}
	e.scheduler = NewSustainScheduler(e.clock, settings, e.fireScheduledRelease)
	e.automation = NewGainAutomation(e.clock, settings)
	return e
}

// Clock exposes the engine's cooperative clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Registry exposes the active-note registry (read-only use expected).
func (e *Engine) Registry() *NoteRegistry {
	return e.registry
}

// Scheduler exposes the sustain lifecycle scheduler.
func (e *Engine) Scheduler() *SustainScheduler {
	return e.scheduler
}

// Automation exposes the pedal-linked gain automation.
func (e *Engine) Automation() *GainAutomation {
	return e.automation
}

// SetOnScheduledRelease registers an observer for sustain-decay releases.
func (e *Engine) SetOnScheduledRelease(fn func(note int)) {
	e.onScheduledRelease = fn
}

// Advance moves the engine clock forward, firing due scheduled releases and
// completing gain ramps.
func (e *Engine) Advance(dt float64) {
	e.clock.Advance(dt)
}

// PedalPosition returns the sustain pedal position in [0,1].
func (e *Engine) PedalPosition() float64 {
	return e.pedal
}

// PedalGainDB returns the pedal-linked filter gain in dB at the current
// clock time.
func (e *Engine) PedalGainDB() float64 {
	return e.automation.Value()
}

// NoteOn strikes a note. A running-status note-on with velocity 0 is a
// note-off, per MIDI convention. Re-striking a note whose release is still
// pending cancels the schedule first and proceeds as a fresh strike.
func (e *Engine) NoteOn(note int, velocity int) {
	note = acoustics.ClampNote(note)
	velocity = acoustics.ClampVelocity(velocity)
	if velocity == 0 {
		e.NoteOff(note)
		return
	}

	// Stale timers die before the new note exists.
	e.scheduler.Cancel(note)
	e.registry.Remove(note)

	params := e.resolveParams(note, velocity)

	e.registry.Insert(&ActiveNote{
		Note:           note,
		Frequency:      params.Frequency,
		Velocity:       velocity,
		AttackTime:     e.clock.Now(),
		HeldPhysically: true,
	})

	if e.backend != nil {
		if err := e.backend.StartVoice(params); err != nil {
			// The backend could not realize the voice; nothing sounds, so
			// the note must not linger in the registry either.
			e.registry.Remove(note)
		}
	}
}

// NoteOff releases a key. With the pedal at least half depressed the note
// moves to a pitch-dependent decay schedule; otherwise it releases now.
// Releasing a note that is not sounding is a no-op.
func (e *Engine) NoteOff(note int) {
	note = acoustics.ClampNote(note)
	an := e.registry.Get(note)
	if an == nil {
		return
	}
	an.HeldPhysically = false

	if e.pedalDown() {
		an.SustainedByPedal = true
		e.scheduler.Schedule(note)
		return
	}

	e.releaseNow(note, an)
}

// ControlChange handles a MIDI control change. Only the sustain pedal is
// interpreted; everything else is ignored.
func (e *Engine) ControlChange(controller int, value int) {
	if controller != SustainController {
		return
	}
	pos := float64(acoustics.ClampVelocity(value)) / 127.0
	wasDown := e.pedalDown()
	e.pedal = pos
	isDown := e.pedalDown()

	if isDown == wasDown {
		return
	}
	if isDown {
		e.automation.PedalDown()
		return
	}
	e.automation.PedalUp()
	// Notes already on a decay schedule keep it: once scheduling began, the
	// scheduled decay is the sole release path unless the note is re-struck.
}

func (e *Engine) pedalDown() bool {
	min := 0.5
	if e.settings != nil && e.settings.Coupling.MinPedal > 0 {
		min = e.settings.Coupling.MinPedal
	}
	return e.pedal >= min
}

func (e *Engine) resolveParams(note int, velocity int) *VoiceParams {
	s := e.settings
	freq := acoustics.NoteFrequency(note)

	partialFreqs, partialAmps := acoustics.PartialSeries(note, velocity, maxPartialCount, s)

	fundamentalDecay := acoustics.SustainDecayTime(note, false, s)
	decays := make([]float64, len(partialFreqs))
	for i := range decays {
		decays[i] = acoustics.PartialDecayTime(i+1, fundamentalDecay, s)
	}

	coupling := acoustics.TotalCoupling(freq, velocity, e.pedal, e.registry.Frequencies(note), s)

	return &VoiceParams{
		Note:               note,
		Velocity:           velocity,
		Frequency:          freq,
		PartialFrequencies: partialFreqs,
		PartialAmplitudes:  partialAmps,
		PartialDecayTimes:  decays,
		Brightness:         acoustics.BrightnessIndex(velocity),
		Timbre:             acoustics.ClassifyTimbre(velocity),
		AttackS:            acoustics.AttackDuration(velocity, s),
		DecayS:             acoustics.EffectiveDecayTime(fundamentalDecay, len(partialFreqs), s),
		CouplingGain:       coupling,
		AttackNoise:        acoustics.AttackNoise(velocity, freq, s),
	}
}

// releaseNow is the immediate-release path for key-up without pedal.
func (e *Engine) releaseNow(note int, an *ActiveNote) {
	e.scheduler.Cancel(note)
	e.releaseVoice(note, e.immediateReleaseS())
	e.registry.Remove(note)
}

// fireScheduledRelease runs when a sustain-decay schedule elapses.
func (e *Engine) fireScheduledRelease(note int, envelopeS float64) {
	an := e.registry.Get(note)
	if an == nil || an.HeldPhysically {
		// Stale fire against a gone or re-held note; tolerated silently.
		return
	}
	e.releaseVoice(note, envelopeS)
	e.registry.Remove(note)
	if e.onScheduledRelease != nil {
		e.onScheduledRelease(note)
	}
}

func (e *Engine) releaseVoice(note int, envelopeS float64) {
	if e.backend == nil {
		return
	}
	amp := e.backend.VoiceAmplitude(note)
	transient := acoustics.ReleaseTransient(amp, -1, acoustics.NoteFrequency(note), e.settings)
	// Best-effort: the voice may already be detached.
	_ = e.backend.ReleaseVoice(note, envelopeS, transient)
}

func (e *Engine) immediateReleaseS() float64 {
	if e.settings != nil && e.settings.Sustain.ReleaseEnvelopeMinS > 0 {
		return e.settings.Sustain.ReleaseEnvelopeMinS
	}
	return 0.05
}
