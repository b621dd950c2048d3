package piano

// ActiveNote is the bookkeeping record for one sounding note. The scheduler
// owns it exclusively; parameter models only ever read it.
type ActiveNote struct {
	Note      int
	Frequency float64
	Velocity  int

	// AttackTime is the clock time of the note-on; fixed at creation.
	AttackTime float64

	HeldPhysically   bool
	SustainedByPedal bool
}

// NoteRegistry maps MIDI note numbers to their ActiveNote records.
type NoteRegistry struct {
	notes [128]*ActiveNote
	count int
}

func NewNoteRegistry() *NoteRegistry {
	return &NoteRegistry{}
}

// Insert stores the record, replacing any previous entry for the same note.
func (r *NoteRegistry) Insert(an *ActiveNote) {
	if an == nil || an.Note < 0 || an.Note > 127 {
		return
	}
	if r.notes[an.Note] == nil {
		r.count++
	}
	r.notes[an.Note] = an
}

// Get returns the record for a note, or nil when the note is not sounding.
func (r *NoteRegistry) Get(note int) *ActiveNote {
	if note < 0 || note > 127 {
		return nil
	}
	return r.notes[note]
}

// Remove drops the record for a note. Removing an absent note is a no-op.
func (r *NoteRegistry) Remove(note int) {
	if note < 0 || note > 127 || r.notes[note] == nil {
		return
	}
	r.notes[note] = nil
	r.count--
}

// Count returns the number of sounding notes.
func (r *NoteRegistry) Count() int {
	return r.count
}

// Frequencies collects the fundamentals of all sounding notes except the
// excluded one. Pass a note outside 0..127 to exclude nothing.
func (r *NoteRegistry) Frequencies(exclude int) []float64 {
	if r.count == 0 {
		return nil
	}
	out := make([]float64, 0, r.count)
	for note, an := range r.notes {
		if an == nil || note == exclude {
			continue
		}
		out = append(out, an.Frequency)
	}
	return out
}
