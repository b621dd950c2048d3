package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-grand/acoustics"
)

// File is the JSON schema for acoustic model presets. Every field is
// optional; absent fields keep their defaults.
type File struct {
	IRWavPath string `json:"ir_wav_path"`

	Inharmonicity *InharmonicitySetting `json:"inharmonicity"`
	Timbre        *TimbreSetting        `json:"timbre"`
	Brightness    *BrightnessSetting    `json:"brightness"`
	Transients    *TransientSetting     `json:"transients"`
	Coupling      *CouplingSetting      `json:"coupling"`
	Sustain       *SustainSetting       `json:"sustain"`
	PedalGain     *PedalGainSetting     `json:"pedal_gain"`
}

// InharmonicitySetting overrides the string stiffness model.
type InharmonicitySetting struct {
	Enabled         *bool    `json:"enabled"`
	BMin            *float64 `json:"b_min"`
	BMax            *float64 `json:"b_max"`
	CurveExponent   *float64 `json:"curve_exponent"`
	BassBoostAmount *float64 `json:"bass_boost_amount"`
}

// TimbreSetting overrides the velocity-dependent spectrum.
type TimbreSetting struct {
	RolloffDecay   *float64 `json:"rolloff_decay"`
	VelocityRelief *float64 `json:"velocity_relief"`
}

// BrightnessSetting overrides the attack brightness envelope.
type BrightnessSetting struct {
	Enabled         *bool    `json:"enabled"`
	PeakCoefficient *float64 `json:"peak_coefficient"`
}

// TransientSetting overrides hammer and damper noise bursts.
type TransientSetting struct {
	AttackEnabled      *bool    `json:"attack_enabled"`
	ReleaseEnabled     *bool    `json:"release_enabled"`
	AttackMaxAmplitude *float64 `json:"attack_max_amplitude"`
}

// CouplingSetting overrides sympathetic string coupling.
type CouplingSetting struct {
	Enabled       *bool    `json:"enabled"`
	IntervalBoost *float64 `json:"interval_boost"`
	TotalSubtlety *float64 `json:"total_subtlety"`
	MaxNeighbors  *int     `json:"max_neighbors"`
}

// SustainSetting overrides pedal-held decay behavior.
type SustainSetting struct {
	BaseDecayS      *float64 `json:"base_decay_s"`
	MinDecayS       *float64 `json:"min_decay_s"`
	MaxDecayS       *float64 `json:"max_decay_s"`
	PedalMultiplier *float64 `json:"pedal_multiplier"`
}

// PedalGainSetting overrides the pedal gain automation.
type PedalGainSetting struct {
	PressRampS   *float64 `json:"press_ramp_s"`
	ReleaseRampS *float64 `json:"release_ramp_s"`
	UserGainDB   *float64 `json:"user_gain_db"`
}

// Preset is a loaded preset: resolved settings plus render options.
type Preset struct {
	Settings  *acoustics.Settings
	IRWavPath string
}

// LoadJSON loads a preset JSON file and applies it on top of the default
// settings. Relative IR paths resolve against the preset file's directory.
func LoadJSON(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	s := acoustics.NewDefaultSettings()
	if err := ApplyFile(s, &f); err != nil {
		return nil, err
	}

	p := &Preset{Settings: s, IRWavPath: strings.TrimSpace(f.IRWavPath)}
	if p.IRWavPath != "" && !filepath.IsAbs(p.IRWavPath) {
		p.IRWavPath = filepath.Clean(filepath.Join(filepath.Dir(path), p.IRWavPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto existing settings.
func ApplyFile(dst *acoustics.Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if g := f.Inharmonicity; g != nil {
		if g.Enabled != nil {
			dst.Inharmonicity.Enabled = *g.Enabled
		}
		if g.BMin != nil {
			if *g.BMin <= 0 {
				return fmt.Errorf("inharmonicity.b_min must be > 0")
			}
			dst.Inharmonicity.BMin = *g.BMin
		}
		if g.BMax != nil {
			if *g.BMax <= 0 {
				return fmt.Errorf("inharmonicity.b_max must be > 0")
			}
			dst.Inharmonicity.BMax = *g.BMax
		}
		if dst.Inharmonicity.BMax < dst.Inharmonicity.BMin {
			return fmt.Errorf("inharmonicity.b_max must be >= b_min")
		}
		if g.CurveExponent != nil {
			if *g.CurveExponent <= 0 {
				return fmt.Errorf("inharmonicity.curve_exponent must be > 0")
			}
			dst.Inharmonicity.CurveExponent = *g.CurveExponent
		}
		if g.BassBoostAmount != nil {
			if *g.BassBoostAmount < 1 {
				return fmt.Errorf("inharmonicity.bass_boost_amount must be >= 1")
			}
			dst.Inharmonicity.BassBoostAmount = *g.BassBoostAmount
		}
	}

	if g := f.Timbre; g != nil {
		if g.RolloffDecay != nil {
			if *g.RolloffDecay <= 0 {
				return fmt.Errorf("timbre.rolloff_decay must be > 0")
			}
			dst.Timbre.RolloffDecay = *g.RolloffDecay
		}
		if g.VelocityRelief != nil {
			if *g.VelocityRelief < 0 || *g.VelocityRelief > 1 {
				return fmt.Errorf("timbre.velocity_relief must be in [0,1]")
			}
			dst.Timbre.VelocityRelief = *g.VelocityRelief
		}
	}

	if g := f.Brightness; g != nil {
		if g.Enabled != nil {
			dst.Brightness.Enabled = *g.Enabled
		}
		if g.PeakCoefficient != nil {
			if *g.PeakCoefficient < 0 {
				return fmt.Errorf("brightness.peak_coefficient must be >= 0")
			}
			dst.Brightness.PeakCoefficient = *g.PeakCoefficient
		}
	}

	if g := f.Transients; g != nil {
		if g.AttackEnabled != nil {
			dst.Transients.AttackEnabled = *g.AttackEnabled
		}
		if g.ReleaseEnabled != nil {
			dst.Transients.ReleaseEnabled = *g.ReleaseEnabled
		}
		if g.AttackMaxAmplitude != nil {
			if *g.AttackMaxAmplitude < 0 {
				return fmt.Errorf("transients.attack_max_amplitude must be >= 0")
			}
			dst.Transients.AttackMaxAmplitude = *g.AttackMaxAmplitude
		}
	}

	if g := f.Coupling; g != nil {
		if g.Enabled != nil {
			dst.Coupling.Enabled = *g.Enabled
		}
		if g.IntervalBoost != nil {
			if *g.IntervalBoost < 1 {
				return fmt.Errorf("coupling.interval_boost must be >= 1")
			}
			dst.Coupling.IntervalBoost = *g.IntervalBoost
		}
		if g.TotalSubtlety != nil {
			if *g.TotalSubtlety < 0 || *g.TotalSubtlety > 1 {
				return fmt.Errorf("coupling.total_subtlety must be in [0,1]")
			}
			dst.Coupling.TotalSubtlety = *g.TotalSubtlety
		}
		if g.MaxNeighbors != nil {
			if *g.MaxNeighbors < 1 {
				return fmt.Errorf("coupling.max_neighbors must be >= 1")
			}
			dst.Coupling.MaxNeighbors = *g.MaxNeighbors
		}
	}

	if g := f.Sustain; g != nil {
		if g.BaseDecayS != nil {
			if *g.BaseDecayS <= 0 {
				return fmt.Errorf("sustain.base_decay_s must be > 0")
			}
			dst.Sustain.BaseDecayS = *g.BaseDecayS
		}
		if g.MinDecayS != nil {
			if *g.MinDecayS <= 0 {
				return fmt.Errorf("sustain.min_decay_s must be > 0")
			}
			dst.Sustain.MinDecayS = *g.MinDecayS
		}
		if g.MaxDecayS != nil {
			if *g.MaxDecayS <= 0 {
				return fmt.Errorf("sustain.max_decay_s must be > 0")
			}
			dst.Sustain.MaxDecayS = *g.MaxDecayS
		}
		if dst.Sustain.MaxDecayS < dst.Sustain.MinDecayS {
			return fmt.Errorf("sustain.max_decay_s must be >= min_decay_s")
		}
		if g.PedalMultiplier != nil {
			if *g.PedalMultiplier < 1 {
				return fmt.Errorf("sustain.pedal_multiplier must be >= 1")
			}
			dst.Sustain.PedalMultiplier = *g.PedalMultiplier
		}
	}

	if g := f.PedalGain; g != nil {
		if g.PressRampS != nil {
			if *g.PressRampS <= 0 {
				return fmt.Errorf("pedal_gain.press_ramp_s must be > 0")
			}
			dst.PedalGain.PressRampS = *g.PressRampS
		}
		if g.ReleaseRampS != nil {
			if *g.ReleaseRampS <= 0 {
				return fmt.Errorf("pedal_gain.release_ramp_s must be > 0")
			}
			dst.PedalGain.ReleaseRampS = *g.ReleaseRampS
		}
		if g.UserGainDB != nil {
			if *g.UserGainDB > 0 {
				return fmt.Errorf("pedal_gain.user_gain_db must be <= 0")
			}
			dst.PedalGain.UserGainDB = *g.UserGainDB
		}
	}

	return nil
}
