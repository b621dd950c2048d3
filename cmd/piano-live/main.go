// piano-live plays the model in real time from a MIDI keyboard.
//
// MIDI input arrives through rtmidi, audio leaves through oto. The audio
// callback pulls blocks from the synthesizer, advancing the note scheduler
// by the block duration each time, so decay schedules and pedal ramps follow
// the audio clock.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/ebitengine/oto/v3"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cwbudde/algo-grand/acoustics"
	"github.com/cwbudde/algo-grand/irsynth"
	"github.com/cwbudde/algo-grand/piano"
	"github.com/cwbudde/algo-grand/preset"
	"github.com/cwbudde/algo-grand/synth"
)

var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	port := flag.String("port", "", "MIDI input port name substring (default: first available)")
	list := flag.Bool("list", false, "List MIDI input ports and exit")
	sampleRate := flag.Int("sample-rate", 48000, "Audio sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	irPath := flag.String("ir", "", "Soundboard IR WAV path (optional)")
	dry := flag.Bool("dry", false, "Skip soundboard convolution entirely")
	debug := flag.Bool("debug", false, "Verbose logging")
	flag.Parse()

	initLogger(*debug)

	drv, err := rtmididrv.New()
	if err != nil {
		logger.Error("rtmidi init failed", "err", err)
		os.Exit(1)
	}
	defer drv.Close()

	if *list {
		ins, err := drv.Ins()
		if err != nil {
			logger.Error("list inputs failed", "err", err)
			os.Exit(1)
		}
		for _, in := range ins {
			fmt.Println(in.String())
		}
		return
	}

	settings := acoustics.NewDefaultSettings()
	irWav := *irPath
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			logger.Error("preset load failed", "path", *presetPath, "err", err)
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
			logger.Error("IR load failed", "path", irWav, "err", err)
			os.Exit(1)
		}
		logger.Info("soundboard IR loaded", "path", irWav)
	default:
		irCfg := irsynth.DefaultConfig()
		irCfg.SampleRate = *sampleRate
		l, r, err := irsynth.Generate(irCfg)
		if err != nil {
			logger.Error("soundboard IR synthesis failed", "err", err)
			os.Exit(1)
		}
		backend.Convolver().SetIR(l, r)
		logger.Info("synthetic soundboard IR generated", "samples", len(l))
	}
	engine := piano.NewEngine(settings, backend)
	backend.SetGainSource(engine.PedalGainDB)

	src := &audioSource{
		engine:     engine,
		backend:    backend,
		sampleRate: *sampleRate,
	}

	in, err := openInput(drv, *port)
	if err != nil {
		logger.Error("MIDI input open failed", "err", err)
		os.Exit(1)
	}
	defer in.Close()
	logger.Info("MIDI input connected", "port", in.String())

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		var ch, key, vel, cc, val uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			logger.Debug("note on", "key", key, "vel", vel)
			src.withEngine(func(e *piano.Engine) { e.NoteOn(int(key), int(vel)) })
		case msg.GetNoteEnd(&ch, &key):
			logger.Debug("note off", "key", key)
			src.withEngine(func(e *piano.Engine) { e.NoteOff(int(key)) })
		case msg.GetControlChange(&ch, &cc, &val):
			logger.Debug("control change", "cc", cc, "val", val)
			src.withEngine(func(e *piano.Engine) { e.ControlChange(int(cc), int(val)) })
		}
	}, midi.HandleError(func(err error) {
		logger.Warn("MIDI listener error", "err", err)
	}))
	if err != nil {
		logger.Error("MIDI listen failed", "err", err)
		os.Exit(1)
	}
	defer stop()

	op := &oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		logger.Error("audio init failed", "err", err)
		os.Exit(1)
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()
	defer player.Close()

	logger.Info("ready", "sample_rate", *sampleRate)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
}

func openInput(drv *rtmididrv.Driver, pattern string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI inputs available")
	}
	if pattern == "" {
		in := ins[0]
		return in, in.Open()
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(pattern)) {
			return in, in.Open()
		}
	}
	return nil, fmt.Errorf("no MIDI input matching %q", pattern)
}

// audioSource adapts the synthesizer to oto's pull model. The MIDI listener
// and the audio callback run on different goroutines; the mutex keeps the
// engine's single-threaded contract intact.
type audioSource struct {
	mu         sync.Mutex
	engine     *piano.Engine
	backend    *synth.Synth
	sampleRate int

	leftover []byte
}

func (a *audioSource) withEngine(fn func(*piano.Engine)) {
	a.mu.Lock()
	fn(a.engine)
	a.mu.Unlock()
}

func (a *audioSource) Read(p []byte) (int, error) {
	n := 0
	if len(a.leftover) > 0 {
		n = copy(p, a.leftover)
		a.leftover = a.leftover[n:]
		if n == len(p) {
			return n, nil
		}
	}

	// 4 bytes per sample, 2 channels.
	frames := (len(p) - n) / 8
	if frames < 1 {
		frames = 1
	}

	a.mu.Lock()
	a.engine.Advance(float64(frames) / float64(a.sampleRate))
	block := a.backend.Process(frames)
	a.mu.Unlock()

	buf := make([]byte, len(block)*4)
	for i, s := range block {
		bits := math.Float32bits(s)
		buf[i*4] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}

	c := copy(p[n:], buf)
	a.leftover = buf[c:]
	return n + c, nil
}
