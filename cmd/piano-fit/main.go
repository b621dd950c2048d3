// piano-fit tunes the stiffness model against measured partial tables.
//
// Measurements come either from a JSON file or directly from single-note
// recordings, whose partials are extracted by FFT peak picking. A Mayfly
// optimizer searches the inharmonicity knobs for the lowest deviation in
// cents between predicted and measured partial frequencies.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-grand/acoustics"
	"github.com/cwbudde/algo-grand/analysis"
	"github.com/cwbudde/algo-grand/internal/wavio"
	"github.com/cwbudde/algo-grand/preset"
)

func main() {
	measurementsPath := flag.String("measurements", "", "Measurements JSON path (array of {note, partials})")
	samples := flag.String("samples", "", "Single-note recordings as note=path pairs, comma separated (e.g. 48=c3.wav,60=c4.wav)")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	outputPreset := flag.String("output-preset", "fitted.json", "Path to write the fitted preset JSON")
	maxPartials := flag.Int("max-partials", 12, "Partials to extract per recording")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	rounds := flag.Int("rounds", 4, "Independent optimizer rounds")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyIters := flag.Int("mayfly-iters", 60, "Mayfly iterations per round")
	flag.Parse()

	if *measurementsPath == "" && *samples == "" {
		die("either --measurements or --samples is required")
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *rounds < 1 {
		*rounds = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyIters < 1 {
		*mayflyIters = 1
	}

	base := acoustics.NewDefaultSettings()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		base = p.Settings
	}
	base.Inharmonicity.Enabled = true

	var measurements []analysis.Measurement
	if *measurementsPath != "" {
		m, err := loadMeasurements(*measurementsPath)
		if err != nil {
			die("failed to load measurements: %v", err)
		}
		measurements = m
	}
	if *samples != "" {
		m, err := measureRecordings(*samples, *sampleRate, *maxPartials)
		if err != nil {
			die("failed to measure recordings: %v", err)
		}
		measurements = append(measurements, m...)
	}
	if len(measurements) == 0 {
		die("no usable measurements")
	}

	defs := knobDefs()
	initial := analysis.Compare(measurements, base)
	fmt.Printf("Fitting %d notes, %d measured partials (initial rmse=%.2f cents)\n",
		initial.NotesCompared, countPartials(measurements), initial.RMSECents)

	best := make([]float64, len(defs))
	for i, d := range defs {
		best[i] = d.toNormalized(d.read(base))
	}
	bestScore := initial.Score
	evals := 0

	objective := func(pos []float64) float64 {
		evals++
		s := *base
		applyKnobs(&s, defs, pos)
		score := analysis.Compare(measurements, &s).Score
		if score < bestScore {
			bestScore = score
			copy(best, pos)
			fmt.Printf("Improved eval=%d score=%.4f\n", evals, score)
		}
		if *reportEvery > 0 && evals%*reportEvery == 0 {
			fmt.Printf("Progress eval=%d best=%.4f\n", evals, bestScore)
		}
		return score
	}

	variant := strings.ToLower(*mayflyVariant)
	for round := 1; round <= *rounds; round++ {
		cfg, err := newMayflyConfig(variant, *mayflyPop, len(defs), *mayflyIters)
		if err != nil {
			die("mayfly setup failed: %v", err)
		}
		cfg.Rand = rand.New(rand.NewSource(*seed + int64(round)*7919))
		cfg.ObjectiveFunc = objective
		if _, err := mayfly.Optimize(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
		}
	}

	fitted := *base
	applyKnobs(&fitted, defs, best)
	final := analysis.Compare(measurements, &fitted)

	if err := writeFittedPreset(*outputPreset, &fitted); err != nil {
		die("failed to write fitted preset: %v", err)
	}

	fmt.Printf("Done evals=%d rmse=%.2f cents (was %.2f) max=%.2f cents at note %d variant=%s\n",
		evals, final.RMSECents, initial.RMSECents, final.MaxAbsCents, final.WorstNote, variant)
	fmt.Printf("Wrote %s\n", *outputPreset)
}

// knobDef describes one optimized setting mapped onto [0,1].
type knobDef struct {
	Name string
	Min  float64
	Max  float64
	Log  bool

	read  func(*acoustics.Settings) float64
	write func(*acoustics.Settings, float64)
}

func knobDefs() []knobDef {
	return []knobDef{
		{
			Name: "b_min", Min: 1e-5, Max: 2e-3, Log: true,
			read:  func(s *acoustics.Settings) float64 { return s.Inharmonicity.BMin },
			write: func(s *acoustics.Settings, v float64) { s.Inharmonicity.BMin = v },
		},
		{
			Name: "b_max", Min: 2e-3, Max: 0.1, Log: true,
			read:  func(s *acoustics.Settings) float64 { return s.Inharmonicity.BMax },
			write: func(s *acoustics.Settings, v float64) { s.Inharmonicity.BMax = v },
		},
		{
			Name: "curve_exponent", Min: 0.5, Max: 4.0,
			read:  func(s *acoustics.Settings) float64 { return s.Inharmonicity.CurveExponent },
			write: func(s *acoustics.Settings, v float64) { s.Inharmonicity.CurveExponent = v },
		},
		{
			Name: "bass_boost_amount", Min: 1.0, Max: 4.0,
			read:  func(s *acoustics.Settings) float64 { return s.Inharmonicity.BassBoostAmount },
			write: func(s *acoustics.Settings, v float64) { s.Inharmonicity.BassBoostAmount = v },
		},
	}
}

func (d knobDef) fromNormalized(n float64) float64 {
	if n < 0 {
		n = 0
	}
	if n > 1 {
		n = 1
	}
	if d.Log {
		return d.Min * math.Pow(d.Max/d.Min, n)
	}
	return d.Min + (d.Max-d.Min)*n
}

func (d knobDef) toNormalized(v float64) float64 {
	if v <= d.Min {
		return 0
	}
	if v >= d.Max {
		return 1
	}
	if d.Log {
		return math.Log(v/d.Min) / math.Log(d.Max/d.Min)
	}
	return (v - d.Min) / (d.Max - d.Min)
}

func applyKnobs(s *acoustics.Settings, defs []knobDef, pos []float64) {
	for i, d := range defs {
		if i >= len(pos) {
			break
		}
		d.write(s, d.fromNormalized(pos[i]))
	}
	if s.Inharmonicity.BMax < s.Inharmonicity.BMin {
		s.Inharmonicity.BMax = s.Inharmonicity.BMin
	}
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	nm := int(math.Round(0.05 * float64(pop)))
	if nm < 1 {
		nm = 1
	}
	cfg.NM = nm
	return cfg, nil
}

func loadMeasurements(path string) ([]analysis.Measurement, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []analysis.Measurement
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func measureRecordings(list string, sampleRate int, maxPartials int) ([]analysis.Measurement, error) {
	var out []analysis.Measurement
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, "=")
		if idx < 0 {
			return nil, fmt.Errorf("expected note=path, got %q", part)
		}
		note, err := strconv.Atoi(part[:idx])
		if err != nil || note < acoustics.LowestNote || note > acoustics.HighestNote {
			return nil, fmt.Errorf("invalid note in %q", part)
		}
		path := part[idx+1:]

		raw, srcRate, err := wavio.ReadMono(path)
		if err != nil {
			return nil, err
		}
		mono, err := wavio.ResampleIfNeeded(raw, srcRate, sampleRate)
		if err != nil {
			return nil, err
		}

		partials, err := analysis.ExtractPartials(mono, sampleRate, acoustics.NoteFrequency(note), maxPartials)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("Measured note %d from %s: %d partials\n", note, path, len(partials))
		out = append(out, analysis.Measurement{Note: note, Partials: partials})
	}
	return out, nil
}

func writeFittedPreset(path string, s *acoustics.Settings) error {
	enabled := s.Inharmonicity.Enabled
	f := preset.File{
		Inharmonicity: &preset.InharmonicitySetting{
			Enabled:         &enabled,
			BMin:            &s.Inharmonicity.BMin,
			BMax:            &s.Inharmonicity.BMax,
			CurveExponent:   &s.Inharmonicity.CurveExponent,
			BassBoostAmount: &s.Inharmonicity.BassBoostAmount,
		},
	}
	b, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func countPartials(measurements []analysis.Measurement) int {
	n := 0
	for _, m := range measurements {
		n += len(m.Partials)
	}
	return n
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
