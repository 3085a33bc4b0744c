package container

// Track is an ordered sequence of events.
type Track struct {
	Name   string
	Events []Event
}

// eotIndex returns the index of the track's End-of-Track event, or -1.
// By invariant it is the last event when present, but Insert is called
// before that invariant is restored, so this scans defensively from the
// end.
func (t *Track) eotIndex() int {
	for i := len(t.Events) - 1; i >= 0; i-- {
		if t.Events[i].IsEndOfTrack() {
			return i
		}
	}
	return -1
}

// Insert places e so that (a) it precedes any existing End-of-Track event,
// (b) the End-of-Track event's tick is raised to at least e.Tick if
// necessary, and (c) among events at e.Tick it is appended after the
// existing ones (stable, ascending-tick order).
func (t *Track) Insert(e Event) {
	eot := t.eotIndex()
	limit := len(t.Events)
	if eot >= 0 {
		limit = eot
	}

	pos := limit
	for i := 0; i < limit; i++ {
		if t.Events[i].Tick > e.Tick {
			pos = i
			break
		}
	}

	t.Events = append(t.Events, Event{})
	copy(t.Events[pos+1:], t.Events[pos:])
	t.Events[pos] = e

	if eot >= 0 {
		eotPos := eot + 1 // shifted right by the insertion
		if t.Events[eotPos].Tick < e.Tick {
			t.Events[eotPos].Tick = e.Tick
		}
	}
}

// InsertAtStart places e before every other event, tick notwithstanding —
// used for metadata that must appear at t=0.
func (t *Track) InsertAtStart(e Event) {
	t.Events = append([]Event{e}, t.Events...)
}

// Append adds e to the end of the track unconditionally, bypassing the
// sorted-insertion policy. Used by decoders that already produce events in
// tick order (most of them) and want to avoid the O(n) insertion scan.
func (t *Track) Append(e Event) {
	t.Events = append(t.Events, e)
}

// LastTick returns the tick of the track's last event, or 0 if empty.
func (t *Track) LastTick() uint32 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Tick
}

// EnsureEndOfTrack appends a synthesized End-of-Track event at lastTick if
// the track doesn't already end with one.
func (t *Track) EnsureEndOfTrack() {
	if t.eotIndex() == len(t.Events)-1 && len(t.Events) > 0 {
		return
	}
	t.Events = append(t.Events, EndOfTrackEvent(t.LastTick()))
}
