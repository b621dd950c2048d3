package piano

import (
	"github.com/cwbudde/algo-grand/acoustics"
)

// GainAutomation is the single pedal-linked ramp on the spectral-balance
// filter gain. Pressing the pedal ramps slowly toward 0 dB; releasing ramps
// quickly back toward the user-configured gain.
//
// A pedal flip mid-ramp never queues: the in-flight ramp is cancelled at its
// current interpolated value and the new ramp starts from that value, so the
// audible gain is continuous across any sequence of retriggers.
type GainAutomation struct {
	clock    *Clock
	settings *acoustics.Settings

	startValue  float64
	targetValue float64
	startTime   float64
	endTime     float64
	active      bool

	// baseline is the settled gain once no ramp is running.
	baseline float64

	timer *Timer
}

func NewGainAutomation(clock *Clock, settings *acoustics.Settings) *GainAutomation {
	a := &GainAutomation{
		clock:    clock,
		settings: settings,
	}
	a.baseline = a.userGainDB()
	return a
}

// Value returns the gain in dB at the current clock time: the live linear
// interpolation while a ramp runs, the settled baseline otherwise.
func (a *GainAutomation) Value() float64 {
	if !a.active {
		return a.baseline
	}
	now := a.clock.Now()
	if now >= a.endTime || a.endTime <= a.startTime {
		return a.targetValue
	}
	if now <= a.startTime {
		return a.startValue
	}
	t := (now - a.startTime) / (a.endTime - a.startTime)
	return a.startValue + (a.targetValue-a.startValue)*t
}

// Active reports whether a ramp is currently in flight.
func (a *GainAutomation) Active() bool {
	return a.active
}

// PedalDown starts the slow ramp toward 0 dB.
func (a *GainAutomation) PedalDown() {
	dur := 16.0
	if cfg := a.config(); cfg != nil && cfg.PressRampS > 0 {
		dur = cfg.PressRampS
	}
	a.retrigger(0.0, dur)
}

// PedalUp starts the fast ramp back toward the user-configured gain.
func (a *GainAutomation) PedalUp() {
	dur := 0.2
	if cfg := a.config(); cfg != nil && cfg.ReleaseRampS > 0 {
		dur = cfg.ReleaseRampS
	}
	a.retrigger(a.userGainDB(), dur)
}

func (a *GainAutomation) retrigger(target float64, durationS float64) {
	// Sample the live value before cancelling; sampling afterwards would
	// read a frozen value instead of the in-progress one.
	cur := a.Value()
	if a.timer != nil {
		a.timer.Cancel()
		a.timer = nil
	}

	now := a.clock.Now()
	a.startValue = cur
	a.targetValue = target
	a.startTime = now
	a.endTime = now + durationS
	a.active = true
	a.timer = a.clock.ScheduleAt(a.endTime, func() {
		a.active = false
		a.baseline = a.targetValue
		a.timer = nil
	})
}

func (a *GainAutomation) config() *acoustics.PedalGainSettings {
	if a.settings == nil {
		return nil
	}
	return &a.settings.PedalGain
}

func (a *GainAutomation) userGainDB() float64 {
	cfg := a.config()
	if cfg == nil {
		return -6.0
	}
	// UserGainDB is a level, so zero is meaningful; only reject nonsense.
	if cfg.UserGainDB > 0 {
		return 0
	}
	return cfg.UserGainDB
}
