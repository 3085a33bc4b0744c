package recomposer

// maxRunningNotes bounds the running-notes ledger the way the source caps
// it at 32 simultaneously-sounding notes per track.
const maxRunningNotes = 32

type runningNote struct {
	channel byte
	note    byte
	offVel  byte // 0x80 means "Note On velocity 0" instead of a true Note Off
	expiry  uint32
}

// runningNotes tracks notes awaiting their Note-Off, keyed by (channel,
// note) and an absolute expiry tick, so a later NoteOn for the same pitch
// can extend an in-flight note instead of re-triggering it, and so
// Note-Offs can be inserted at the exact tick their gate time ends
// regardless of how many other notes with differing gates are in flight.
type runningNotes struct {
	notes []runningNote
}

func (r *runningNotes) reset() { r.notes = r.notes[:0] }

// find returns the index of a running entry with the given channel+note,
// or -1.
func (r *runningNotes) find(channel, note byte) int {
	for i := range r.notes {
		if r.notes[i].channel == channel && r.notes[i].note == note {
			return i
		}
	}
	return -1
}

// add appends a new running entry. Entries beyond maxRunningNotes are
// dropped silently, matching the source's fixed-capacity array.
func (r *runningNotes) add(channel, note, offVel byte, expiry uint32) {
	if len(r.notes) >= maxRunningNotes {
		return
	}
	r.notes = append(r.notes, runningNote{channel: channel, note: note, offVel: offVel, expiry: expiry})
}

// extend raises an already-running entry's expiry tick.
func (r *runningNotes) extend(idx int, expiry uint32) {
	r.notes[idx].expiry = expiry
}

// emitFunc receives a note that just expired, emitted at its own exact
// expiry tick.
type emitFunc func(channel byte, noteOn bool, note, velocity byte, tick uint32)

// flushUpTo emits, in ascending-expiry order, Note-Off for every running
// note whose expiry tick is <= uptoTick, and removes them from the
// ledger.
func (r *runningNotes) flushUpTo(uptoTick uint32, emit emitFunc) {
	for {
		idx := -1
		for i, n := range r.notes {
			if n.expiry <= uptoTick && (idx == -1 || n.expiry < r.notes[idx].expiry) {
				idx = i
			}
		}
		if idx == -1 {
			return
		}
		n := r.notes[idx]
		r.notes = append(r.notes[:idx], r.notes[idx+1:]...)
		if n.offVel < 0x80 {
			emit(n.channel, false, n.note, n.offVel, n.expiry)
		} else {
			emit(n.channel, true, n.note, 0, n.expiry)
		}
	}
}

// flushAll emits Note-Off for every still-running note, at tick if
// shorten is true (cutting every note there) or at its own expiry
// otherwise, and returns the highest tick reached.
func (r *runningNotes) flushAll(tick uint32, shorten bool, emit emitFunc) uint32 {
	if shorten {
		for i := range r.notes {
			r.notes[i].expiry = tick
		}
	} else {
		for _, n := range r.notes {
			if n.expiry > tick {
				tick = n.expiry
			}
		}
	}
	r.flushUpTo(tick, emit)
	return tick
}
