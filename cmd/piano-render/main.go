package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-grand/acoustics"
	"github.com/cwbudde/algo-grand/internal/wavio"
	"github.com/cwbudde/algo-grand/irsynth"
	"github.com/cwbudde/algo-grand/piano"
	"github.com/cwbudde/algo-grand/preset"
	"github.com/cwbudde/algo-grand/synth"
)

func main() {
	notes := flag.String("notes", "69:100", "Notes to play as note:velocity pairs, comma separated (e.g. 60:100,64:80,67:90)")
	hold := flag.Float64("hold", 0.5, "Seconds to hold the keys before NoteOff")
	duration := flag.Float64("duration", 4.0, "Render duration in seconds")
	pedal := flag.Bool("pedal", false, "Hold the sustain pedal for the whole render")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	maxDuration := flag.Float64("max-duration", 30.0, "Maximum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	irPath := flag.String("ir", "", "Soundboard IR WAV path override (optional)")
	dry := flag.Bool("dry", false, "Skip soundboard convolution entirely")
	irSeed := flag.Int64("ir-seed", 1, "Seed for the synthetic soundboard IR used when no IR WAV is given")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	events, err := parseNotes(*notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -notes: %v\n", err)
		os.Exit(1)
	}

	settings := acoustics.NewDefaultSettings()
	irWav := *irPath
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		settings = p.Settings
		if irWav == "" {
			irWav = p.IRWavPath
		}
	}

	backend := synth.NewSynth(*sampleRate, settings)
	switch {
	case *dry:
		// Unit IR, leave the convolver transparent.
	case irWav != "":
		if err := backend.Convolver().SetIRFromWAV(irWav); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading IR %q: %v\n", irWav, err)
			os.Exit(1)
		}
	default:
		irCfg := irsynth.DefaultConfig()
		irCfg.SampleRate = *sampleRate
		irCfg.Seed = *irSeed
		l, r, err := irsynth.Generate(irCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating soundboard IR: %v\n", err)
			os.Exit(1)
		}
		backend.Convolver().SetIR(l, r)
	}
	engine := piano.NewEngine(settings, backend)
	backend.SetGainSource(engine.PedalGainDB)

	fmt.Printf("Rendering %q for up to %.2f seconds at %d Hz (pedal: %v)...\n",
		*notes, *duration, *sampleRate, *pedal)

	if *pedal {
		engine.ControlChange(piano.SustainController, 127)
	}
	for _, ev := range events {
		engine.NoteOn(ev.note, ev.velocity)
	}

	const blockSize = 128
	blockDt := float64(blockSize) / float64(*sampleRate)
	autoStop := !math.IsInf(*decayDBFS, 1)

	limit := *duration
	if autoStop {
		limit = *maxDuration
	}
	maxFrames := int(float64(*sampleRate) * limit)
	if maxFrames < blockSize {
		maxFrames = blockSize
	}
	holdFrames := int(float64(*sampleRate) * (*hold))
	thresholdLin := math.Pow(10.0, *decayDBFS/20.0)
	if *decayHoldBlocks < 1 {
		*decayHoldBlocks = 1
	}

	samples := make([]float32, 0, maxFrames*2)
	framesRendered := 0
	released := false
	belowCount := 0

	for framesRendered < maxFrames {
		framesToRender := blockSize
		if framesRendered+framesToRender > maxFrames {
			framesToRender = maxFrames - framesRendered
		}

		if !released && framesRendered >= holdFrames {
			for _, ev := range events {
				engine.NoteOff(ev.note)
			}
			released = true
		}

		engine.Advance(blockDt)
		block := backend.Process(framesToRender)
		samples = append(samples, block...)
		framesRendered += framesToRender

		if autoStop && released {
			if wavio.StereoRMS(block) < thresholdLin {
				belowCount++
				if belowCount >= *decayHoldBlocks {
					break
				}
			} else {
				belowCount = 0
			}
		}
	}

	if autoStop {
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n",
			framesRendered, float64(framesRendered)/float64(*sampleRate), *decayDBFS)
	}

	if err := wavio.WriteStereoInterleaved(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, framesRendered)
}

type noteEvent struct {
	note     int
	velocity int
}

func parseNotes(list string) ([]noteEvent, error) {
	var events []noteEvent
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		note := part
		velocity := 100
		if idx := strings.Index(part, ":"); idx >= 0 {
			note = part[:idx]
			v, err := strconv.Atoi(part[idx+1:])
			if err != nil || v < 1 || v > 127 {
				return nil, fmt.Errorf("invalid velocity in %q", part)
			}
			velocity = v
		}
		n, err := strconv.Atoi(note)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid note in %q", part)
		}
		events = append(events, noteEvent{note: n, velocity: velocity})
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no notes given")
	}
	return events, nil
}
