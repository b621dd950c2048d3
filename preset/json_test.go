package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-grand/acoustics"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesOverrides(t *testing.T) {
	path := writePreset(t, `{
  "ir_wav_path": "ir.wav",
  "inharmonicity": {
    "enabled": true,
    "b_min": 0.0002,
    "b_max": 0.015
  },
  "timbre": {
    "rolloff_decay": 0.9,
    "velocity_relief": 0.5
  },
  "sustain": {
    "base_decay_s": 10.0,
    "pedal_multiplier": 1.8
  },
  "pedal_gain": {
    "user_gain_db": -9.0
  }
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	s := p.Settings
	if !s.Inharmonicity.Enabled || s.Inharmonicity.BMin != 0.0002 || s.Inharmonicity.BMax != 0.015 {
		t.Fatalf("inharmonicity overrides mismatch: %+v", s.Inharmonicity)
	}
	if s.Timbre.RolloffDecay != 0.9 || s.Timbre.VelocityRelief != 0.5 {
		t.Fatalf("timbre overrides mismatch: %+v", s.Timbre)
	}
	if s.Sustain.BaseDecayS != 10.0 || s.Sustain.PedalMultiplier != 1.8 {
		t.Fatalf("sustain overrides mismatch: %+v", s.Sustain)
	}
	if s.PedalGain.UserGainDB != -9.0 {
		t.Fatalf("pedal gain override mismatch: %+v", s.PedalGain)
	}
	if want := filepath.Join(filepath.Dir(path), "ir.wav"); p.IRWavPath != want {
		t.Fatalf("ir path mismatch: got=%q want=%q", p.IRWavPath, want)
	}
}

func TestLoadJSONLeavesDefaultsForAbsentFields(t *testing.T) {
	path := writePreset(t, `{"timbre": {"rolloff_decay": 1.1}}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	def := acoustics.NewDefaultSettings()
	if p.Settings.Timbre.RolloffDecay != 1.1 {
		t.Fatalf("override not applied")
	}
	if p.Settings.Timbre.VelocityRelief != def.Timbre.VelocityRelief {
		t.Fatalf("untouched field changed: %g", p.Settings.Timbre.VelocityRelief)
	}
	if p.Settings.Sustain != def.Sustain {
		t.Fatalf("unrelated group changed: %+v", p.Settings.Sustain)
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative b_min", `{"inharmonicity": {"b_min": -0.001}}`},
		{"inverted b range", `{"inharmonicity": {"b_min": 0.01, "b_max": 0.001}}`},
		{"relief above one", `{"timbre": {"velocity_relief": 1.5}}`},
		{"boost below one", `{"coupling": {"interval_boost": 0.5}}`},
		{"zero neighbors", `{"coupling": {"max_neighbors": 0}}`},
		{"inverted decay range", `{"sustain": {"min_decay_s": 5, "max_decay_s": 1}}`},
		{"positive user gain", `{"pedal_gain": {"user_gain_db": 3}}`},
	}
	for _, tc := range cases {
		path := writePreset(t, tc.content)
		if _, err := LoadJSON(path); err == nil {
			t.Fatalf("%s: expected a validation error", tc.name)
		}
	}
}

func TestApplyFileNilFileIsNoOp(t *testing.T) {
	s := acoustics.NewDefaultSettings()
	want := *s
	if err := ApplyFile(s, nil); err != nil {
		t.Fatalf("ApplyFile(nil): %v", err)
	}
	if *s != want {
		t.Fatalf("nil file changed settings")
	}
}
