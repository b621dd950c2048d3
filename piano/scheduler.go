package piano

import (
	"github.com/cwbudde/algo-grand/acoustics"
)

// scheduledRelease tracks one pending sustain-decay release. The scheduler
// holds at most one per note; re-triggering always cancels the previous one
// before creating a replacement.
type scheduledRelease struct {
	note        int
	scheduledAt float64
	fireAt      float64
	envelopeS   float64
	timer       *Timer
}

// SustainScheduler owns per-note scheduled-release state. Keys released
// under the sustain pedal get a pitch-dependent decay schedule; the eventual
// release runs through onRelease exactly once unless the note is re-struck
// first.
type SustainScheduler struct {
	clock    *Clock
	settings *acoustics.Settings
	pending  [128]*scheduledRelease

	// onRelease fires when a scheduled decay elapses. Called after the
	// pending entry is cleared, so re-scheduling from the callback is safe.
	onRelease func(note int, envelopeS float64)
}

func NewSustainScheduler(clock *Clock, settings *acoustics.Settings, onRelease func(note int, envelopeS float64)) *SustainScheduler {
	return &SustainScheduler{
		clock:     clock,
		settings:  settings,
		onRelease: onRelease,
	}
}

// Schedule computes the note's sustain decay (extended by the pedal
// multiplier), cancels any previous schedule for the note, and arms a
// release at now + decay. It returns the decay time and the widened release
// envelope the backend should use when the release fires.
func (s *SustainScheduler) Schedule(note int) (decayS float64, envelopeS float64) {
	if note < 0 || note > 127 {
		return 0, 0
	}

	// Cancellation is synchronous and must happen before the new schedule
	// exists, so a stale timer can never race a fresh one for the same key.
	s.Cancel(note)

	decayS = acoustics.SustainDecayTime(note, true, s.settings)
	envelopeS = acoustics.ReleaseEnvelopeDuration(decayS, s.settings)

	now := s.clock.Now()
	rel := &scheduledRelease{
		note:        note,
		scheduledAt: now,
		fireAt:      now + decayS,
		envelopeS:   envelopeS,
	}
	rel.timer = s.clock.ScheduleAt(rel.fireAt, func() {
		s.pending[note] = nil
		if s.onRelease != nil {
			s.onRelease(note, rel.envelopeS)
		}
	})
	s.pending[note] = rel
	return decayS, envelopeS
}

// Cancel drops the pending release for a note, if any, and reports whether
// one existed. The cancelled timer can no longer fire.
func (s *SustainScheduler) Cancel(note int) bool {
	if note < 0 || note > 127 {
		return false
	}
	rel := s.pending[note]
	if rel == nil {
		return false
	}
	rel.timer.Cancel()
	s.pending[note] = nil
	return true
}

// HasPending reports whether a release is scheduled for the note.
func (s *SustainScheduler) HasPending(note int) bool {
	return note >= 0 && note <= 127 && s.pending[note] != nil
}

// FireAt returns the absolute time the note's pending release will fire,
// or 0 when none is scheduled.
func (s *SustainScheduler) FireAt(note int) float64 {
	if !s.HasPending(note) {
		return 0
	}
	return s.pending[note].fireAt
}

// PendingCount returns the total number of scheduled releases.
func (s *SustainScheduler) PendingCount() int {
	n := 0
	for _, rel := range s.pending {
		if rel != nil {
			n++
		}
	}
	return n
}
