package piano

import (
	"github.com/cwbudde/algo-grand/acoustics"
)

// VoiceParams is the resolved synthesis bundle for one note-on, handed to
// the voice backend to realize. Everything in it is computed at the instant
// of the strike; the backend never re-derives acoustic parameters.
type VoiceParams struct {
	Note      int
	Velocity  int
	Frequency float64

	// Partial spectrum: inharmonic frequencies, velocity-shaped amplitudes
	// and per-partial decay time constants, index-aligned.
	PartialFrequencies []float64
	PartialAmplitudes  []float64
	PartialDecayTimes  []float64

	// Brightness is the velocity brightness index in [1.0, 1.5]. The
	// backend applies the time-varying multiplier on top of it each block.
	Brightness float64
	Timbre     acoustics.TimbreClass

	AttackS float64
	// DecayS is the effective single-envelope decay for backends without
	// native per-partial decay.
	DecayS float64

	// CouplingGain is the extra sympathetic gain contributed by notes
	// already sounding under the pedal at strike time.
	CouplingGain float64

	// AttackNoise is nil when no transient applies.
	AttackNoise *acoustics.TransientSpec
}

// maxPartialCount bounds the computed spectrum per voice.
const maxPartialCount = 24
