package container

import "github.com/zurustar/libmidi/pkg/primitives"

// PromoteToType1 converts a format-0 Container with one or two tracks into
// a format-1 Container: the data track is split into one track per MIDI
// channel, any existing meta/port track becomes track 0, and Format
// becomes 1. It is a no-op outside that precondition.
func (c *Container) PromoteToType1() {
	if c.Format != 0 || len(c.Tracks) < 1 || len(c.Tracks) > 2 {
		return
	}

	var metaTrack, dataTrack *Track
	if len(c.Tracks) == 2 {
		metaTrack, dataTrack = c.Tracks[0], c.Tracks[1]
	} else {
		orig := c.Tracks[0]
		metaTrack, dataTrack = &Track{}, &Track{}
		for _, e := range orig.Events {
			if e.IsVoice() {
				dataTrack.Append(e)
			} else {
				metaTrack.Append(e)
			}
		}
	}

	perChannel := make(map[byte]*Track)
	var channels []byte
	for _, e := range dataTrack.Events {
		if !e.IsVoice() {
			continue
		}
		t, ok := perChannel[e.Channel]
		if !ok {
			t = &Track{}
			perChannel[e.Channel] = t
			channels = append(channels, e.Channel)
		}
		t.Append(e)
	}
	sortBytes(channels)

	newTracks := []*Track{metaTrack}
	for _, ch := range channels {
		t := perChannel[ch]
		t.EnsureEndOfTrack()
		newTracks = append(newTracks, t)
	}
	metaTrack.EnsureEndOfTrack()

	c.Tracks = newTracks
	c.Format = 1
}

func sortBytes(b []byte) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1] > b[j]; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}

// findEarliestNoteOnTick returns the smallest tick of a NoteOn with
// non-zero velocity across tracks, and whether one was found.
func findEarliestNoteOnTick(tracks []*Track) (uint32, bool) {
	found := false
	var min uint32
	for _, t := range tracks {
		for _, e := range t.Events {
			if e.Kind == NoteOn && e.Velocity() != 0 {
				if !found || e.Tick < min {
					min, found = e.Tick, true
				}
			}
		}
	}
	return min, found
}

func shiftTick(tick, cut uint32) uint32 {
	if tick < cut {
		return 0
	}
	return tick - cut
}

func trimTempoMap(old *TempoMap, cut uint32) *TempoMap {
	nt := NewTempoMap()
	nt.SetDivision(old.Division())

	eff := primitives.DefaultMicrosPerQuarter
	for i := 0; i < old.Len(); i++ {
		tick, micros := old.At(i)
		if tick > cut {
			break
		}
		eff = micros
	}
	nt.Insert(0, eff)

	for i := 0; i < old.Len(); i++ {
		tick, micros := old.At(i)
		if tick > cut {
			nt.Insert(tick-cut, micros)
		}
	}
	return nt
}

func (c *Container) trimSubsong(slot int, tracks []*Track) {
	cut, found := findEarliestNoteOnTick(tracks)
	if !found || cut == 0 {
		return
	}
	for _, t := range tracks {
		for i := range t.Events {
			t.Events[i].Tick = shiftTick(t.Events[i].Tick, cut)
		}
	}
	c.TempoMaps[slot] = trimTempoMap(c.TempoMaps[slot], cut)
	lr := &c.LoopRanges[slot]
	if lr.HasBegin() {
		lr.BeginTick = int64(shiftTick(uint32(lr.BeginTick), cut))
	}
	if lr.HasEnd() {
		lr.EndTick = int64(shiftTick(uint32(lr.EndTick), cut))
	}
	c.EndTimestamps[slot] = shiftTick(c.EndTimestamps[slot], cut)
}

// TrimStart removes silent lead-in: it subtracts the tick of the earliest
// NoteOn with non-zero velocity from every event, the tempo map, and the
// loop range. For format 2 this is done independently per subsong
// (track); otherwise it is done once, globally.
func (c *Container) TrimStart() {
	if c.Format == 2 {
		for i := range c.Tracks {
			c.trimSubsong(i, []*Track{c.Tracks[i]})
		}
		return
	}
	c.trimSubsong(0, c.Tracks)
}

// SplitByInstrumentChanges peels consecutive runs of Program Change and
// Bank Select (CC 0 / CC 32) events off each track of a format-1
// Container and places each run into its own new track. A run that
// contains a Program Change is preceded by a track-name meta derived from
// nameFor(bankMSB, bankLSB, program) using the most recent bank/program
// values seen on the track; a run of Bank Select events alone gets no
// name meta. A no-op outside format 1.
func (c *Container) SplitByInstrumentChanges(nameFor func(bankMSB, bankLSB, program byte) string) {
	if c.Format != 1 {
		return
	}

	var newTracks []*Track
	for _, t := range c.Tracks {
		newTracks = append(newTracks, t)

		kept := t.Events[:0]
		var bankMSB, bankLSB, program byte
		haveProgram := false
		runStart := -1

		flush := func(end int) {
			if runStart < 0 {
				return
			}
			run := append([]Event(nil), t.Events[runStart:end]...)
			nt := &Track{}
			if haveProgram {
				nt.Append(MetaEvent(run[0].Tick, 0x03, []byte(nameFor(bankMSB, bankLSB, program))))
			}
			nt.Events = append(nt.Events, run...)
			newTracks = append(newTracks, nt)
			runStart = -1
			haveProgram = false
		}

		for i, e := range t.Events {
			isBank := e.Kind == ControlChange && (e.Controller() == 0 || e.Controller() == 32)
			isProgram := e.Kind == ProgramChange
			if isBank || isProgram {
				if runStart < 0 {
					runStart = i
				}
				switch {
				case e.Kind == ControlChange && e.Controller() == 0:
					bankMSB = e.ControlValue()
				case e.Kind == ControlChange && e.Controller() == 32:
					bankLSB = e.ControlValue()
				case isProgram:
					program = e.Program()
					haveProgram = true
				}
				continue
			}
			flush(i)
			kept = append(kept, e)
		}
		flush(len(t.Events))
		t.Events = kept
	}
	c.Tracks = newTracks
}

// ApplyHack removes channel-16 (hack 0) or channels 11-16 (hack 1) voice
// events from every track. Extended events are never touched.
func (c *Container) ApplyHack(hack int) {
	for _, t := range c.Tracks {
		kept := t.Events[:0]
		for _, e := range t.Events {
			if e.Kind != Extended {
				switch hack {
				case 0:
					if e.Channel == 15 {
						continue
					}
				case 1:
					if e.Channel >= 10 && e.Channel <= 15 {
						continue
					}
				}
			}
			kept = append(kept, e)
		}
		t.Events = kept
	}
}
