package acoustics

// Settings is the externally-owned configuration for all parameter models.
// It is mutated by the hosting application (settings UI) and read fresh on
// every computation; the models never write it and never cache copies.
// A nil *Settings is valid everywhere and behaves like NewDefaultSettings().
type Settings struct {
	Inharmonicity InharmonicitySettings
	Timbre        TimbreSettings
	Decay         DecaySettings
	Brightness    BrightnessSettings
	Transients    TransientSettings
	Coupling      CouplingSettings
	Sustain       SustainSettings
	PedalGain     PedalGainSettings
}

// InharmonicitySettings parameterizes the stiffness coefficient model.
type InharmonicitySettings struct {
	Enabled bool

	// Coefficient range across the keyboard: BMin at MIDI 21, BMax at MIDI 108.
	BMin          float64
	BMax          float64
	CurveExponent float64

	// Bass boost multiplies the coefficient below BassBoostBelowHz,
	// fading linearly to 1x at the threshold.
	BassBoostAmount  float64
	BassBoostBelowHz float64
}

// TimbreSettings parameterizes the velocity-driven harmonic rolloff.
type TimbreSettings struct {
	// Base exponential rolloff rate per partial index at zero velocity.
	RolloffDecay float64
	// Fraction by which full velocity slows the rolloff (brighter spectrum).
	VelocityRelief float64
}

// DecaySettings parameterizes per-partial decay times.
type DecaySettings struct {
	// Exponential rate at which higher partials decay faster.
	PartialRate float64
	// Floor as a fraction of the fundamental decay time.
	PartialFloor float64
}

// BrightnessSettings parameterizes the time-varying brightness multiplier.
type BrightnessSettings struct {
	Enabled bool

	// Peak excess brightness at full velocity during the attack window.
	PeakCoefficient float64

	// Attack window bounds in seconds; louder notes attack faster.
	AttackMinS float64
	AttackMaxS float64

	// Post-attack linear decay window bounds; louder notes decay slower.
	DecayWindowMinS float64
	DecayWindowMaxS float64
}

// TransientSettings parameterizes attack-noise and release transients.
type TransientSettings struct {
	AttackEnabled  bool
	ReleaseEnabled bool

	AttackMaxAmplitude  float64
	AttackBaseDurationS float64

	// Per-band duration multipliers (bass / mid / treble).
	AttackDurationLowMult  float64
	AttackDurationMidMult  float64
	AttackDurationHighMult float64

	// Attack filter cutoff as a per-band multiple of the fundamental.
	AttackCutoffLowMult  float64
	AttackCutoffMidMult  float64
	AttackCutoffHighMult float64

	// Release transient amplitude as a fraction of the voice's current
	// amplitude, scaled between min and max by release velocity.
	ReleaseMinFraction float64
	ReleaseMaxFraction float64

	ReleaseDurationLowS  float64
	ReleaseDurationMidS  float64
	ReleaseDurationHighS float64

	ReleaseFilterQ float64
}

// CouplingSettings parameterizes pedal-driven sympathetic coupling.
type CouplingSettings struct {
	Enabled bool

	// Exponential falloff constant for pairwise frequency distance.
	DistanceConstantHz float64

	// Boost applied when two notes sit near a unison, octave or fifth.
	IntervalBoost     float64
	IntervalTolerance float64

	PairSubtlety  float64
	TotalSubtlety float64

	// Aggregate bounds: only the MaxNeighbors frequency-nearest notes within
	// MaxDistanceHz contribute. These are part of the contract, not tunables
	// to relax: changing them changes the reproducible output.
	MaxNeighbors  int
	MaxDistanceHz float64

	// Active-note density divisor for the min(1, count/DensityNotes) scale.
	DensityNotes int

	// Pedal must be at least this depressed for any coupling.
	MinPedal float64
}

// SustainSettings parameterizes the pitch-dependent sustain decay schedule.
type SustainSettings struct {
	// Decay time at the bottom of the keyboard (MIDI 21).
	BaseDecayS float64
	// Exponent scaling how quickly decay shortens going up the keyboard.
	PitchExponent float64

	MinDecayS float64
	MaxDecayS float64

	// Extension applied while the sustain pedal holds the note.
	PedalMultiplier float64

	// Clamp range for the widened release envelope (about half the decay).
	ReleaseEnvelopeMinS float64
	ReleaseEnvelopeMaxS float64
}

// PedalGainSettings parameterizes the global pedal-linked gain automation.
type PedalGainSettings struct {
	// Ramp durations: pressing opens the filter slowly, releasing is fast.
	PressRampS   float64
	ReleaseRampS float64

	// User-configured resting gain in dB; the pressed target is 0 dB.
	UserGainDB float64
}

// NewDefaultSettings returns settings with every feature enabled and all
// numeric fields at their documented defaults.
func NewDefaultSettings() *Settings {
	return &Settings{
		Inharmonicity: InharmonicitySettings{
			Enabled:          true,
			BMin:             0.0001,
			BMax:             0.02,
			CurveExponent:    2.0,
			BassBoostAmount:  2.0,
			BassBoostBelowHz: 120.0,
		},
		Timbre: TimbreSettings{
			RolloffDecay:   0.8,
			VelocityRelief: 0.6,
		},
		Decay: DecaySettings{
			PartialRate:  0.25,
			PartialFloor: 0.1,
		},
		Brightness: BrightnessSettings{
			Enabled:         true,
			PeakCoefficient: 0.5,
			AttackMinS:      0.002,
			AttackMaxS:      0.020,
			DecayWindowMinS: 0.3,
			DecayWindowMaxS: 1.2,
		},
		Transients: TransientSettings{
			AttackEnabled:          true,
			ReleaseEnabled:         true,
			AttackMaxAmplitude:     0.3,
			AttackBaseDurationS:    0.020,
			AttackDurationLowMult:  1.5,
			AttackDurationMidMult:  1.0,
			AttackDurationHighMult: 0.6,
			AttackCutoffLowMult:    8.0,
			AttackCutoffMidMult:    6.0,
			AttackCutoffHighMult:   4.0,
			ReleaseMinFraction:     0.05,
			ReleaseMaxFraction:     0.15,
			ReleaseDurationLowS:    0.040,
			ReleaseDurationMidS:    0.030,
			ReleaseDurationHighS:   0.020,
			ReleaseFilterQ:         2.5,
		},
		Coupling: CouplingSettings{
			Enabled:            true,
			DistanceConstantHz: 100.0,
			IntervalBoost:      1.5,
			IntervalTolerance:  0.1,
			PairSubtlety:       0.1,
			TotalSubtlety:      0.3,
			MaxNeighbors:       8,
			MaxDistanceHz:      2000.0,
			DensityNotes:       10,
			MinPedal:           0.5,
		},
		Sustain: SustainSettings{
			BaseDecayS:          12.0,
			PitchExponent:       0.5,
			MinDecayS:           0.5,
			MaxDecayS:           15.0,
			PedalMultiplier:     1.6,
			ReleaseEnvelopeMinS: 0.05,
			ReleaseEnvelopeMaxS: 4.0,
		},
		PedalGain: PedalGainSettings{
			PressRampS:   16.0,
			ReleaseRampS: 0.2,
			UserGainDB:   -6.0,
		},
	}
}

var defaultSettings = NewDefaultSettings()

func (s *Settings) orDefault() *Settings {
	if s == nil {
		return defaultSettings
	}
	return s
}

// fallback returns v when it is positive, def otherwise. Zero and negative
// values are treated as "unset" so partially-filled settings degrade to the
// documented defaults instead of producing degenerate math.
func fallback(v float64, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func fallbackInt(v int, def int) int {
	if v > 0 {
		return v
	}
	return def
}
