package acoustics

import "math"

// Keyboard range of an 88-key piano.
const (
	LowestNote  = 21  // A0
	HighestNote = 108 // C8

	a4Note = 69
	a4Freq = 440.0
)

// ClampNote clamps a MIDI note number to the valid 0..127 range.
func ClampNote(note int) int {
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return note
}

// ClampVelocity clamps a MIDI velocity to the valid 0..127 range.
func ClampVelocity(velocity int) int {
	if velocity < 0 {
		return 0
	}
	if velocity > 127 {
		return 127
	}
	return velocity
}

// NoteFrequency converts a MIDI note number to its equal-tempered frequency
// in Hz (A4 = MIDI 69 = 440 Hz).
func NoteFrequency(note int) float64 {
	return a4Freq * math.Exp2(float64(ClampNote(note)-a4Note)/12.0)
}

// VelocityNorm maps a MIDI velocity to [0,1].
func VelocityNorm(velocity int) float64 {
	return float64(ClampVelocity(velocity)) / 127.0
}

func clamp(v float64, lo float64, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
