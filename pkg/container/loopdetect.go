package container

import "strings"

// tracksForSubsong returns the tracks that make up a given subsong: the
// single track at that index for format 2, or every track for format 0/1
// (where there is exactly one subsong).
func (c *Container) tracksForSubsong(subsong int) []*Track {
	if c.Format == 2 {
		return []*Track{c.Tracks[subsong]}
	}
	return c.Tracks
}

func (c *Container) finishLoopDetect(subsong int, lr LoopRange) {
	lr.normalize(c.EndTimestamps[subsong])
	c.LoopRanges[subsong] = lr
}

// DetectLoopXMI applies the XMI/EMIDI loop heuristic: CC 116 or 118 sets
// loop begin; CC 117 or 119 sets loop end.
func (c *Container) DetectLoopXMI(subsong int) {
	lr := NewLoopRange()
	for _, tr := range c.tracksForSubsong(subsong) {
		for _, e := range tr.Events {
			if e.Kind != ControlChange {
				continue
			}
			switch e.Controller() {
			case 116, 118:
				if !lr.HasBegin() {
					lr.SetBegin(e.Tick)
				}
			case 117, 119:
				if lr.HasBegin() && !lr.HasEnd() {
					lr.SetEnd(e.Tick)
				}
			}
		}
	}
	c.finishLoopDetect(subsong, lr)
}

// DetectLoopMarker applies the Final Fantasy marker heuristic: a Meta 0x06
// marker with case-insensitive payload "loopStart" sets begin, "loopEnd"
// sets end.
func (c *Container) DetectLoopMarker(subsong int) {
	lr := NewLoopRange()
	for _, tr := range c.tracksForSubsong(subsong) {
		for _, e := range tr.Events {
			if !e.IsMarker() {
				continue
			}
			text := strings.ToLower(strings.TrimSpace(string(e.MetaPayload())))
			switch text {
			case "loopstart":
				if !lr.HasBegin() {
					lr.SetBegin(e.Tick)
				}
			case "loopend":
				if lr.HasBegin() && !lr.HasEnd() {
					lr.SetEnd(e.Tick)
				}
			}
		}
	}
	c.finishLoopDetect(subsong, lr)
}

// DetectLoopRPGMaker applies the RPG Maker heuristic: CC 111 sets begin;
// the loop always ends at end-of-song. An EMIDI CC 110 or 112-119
// encountered after begin clears the loop (the source's idea of "someone
// else claimed EMIDI track-designation semantics on this CC range").
func (c *Container) DetectLoopRPGMaker(subsong int) {
	lr := NewLoopRange()
	for _, tr := range c.tracksForSubsong(subsong) {
		for _, e := range tr.Events {
			if e.Kind != ControlChange {
				continue
			}
			cc := e.Controller()
			if cc == 111 && !lr.HasBegin() {
				lr.SetBegin(e.Tick)
				continue
			}
			if lr.HasBegin() && (cc == 110 || (cc >= 112 && cc <= 119)) {
				c.finishLoopDetect(subsong, NewLoopRange())
				return
			}
		}
	}
	c.finishLoopDetect(subsong, lr)
}

// DetectLoopTouhou applies the Touhou heuristic (format 0 only): CC 2 with
// value 0 sets begin, CC 4 with value 0 sets end; any non-zero value for
// either CC while detection is active aborts loop detection entirely.
func (c *Container) DetectLoopTouhou(subsong int) {
	if c.Format != 0 {
		return
	}
	lr := NewLoopRange()
	for _, tr := range c.tracksForSubsong(subsong) {
		for _, e := range tr.Events {
			if e.Kind != ControlChange {
				continue
			}
			switch e.Controller() {
			case 2:
				if e.ControlValue() != 0 {
					c.finishLoopDetect(subsong, NewLoopRange())
					return
				}
				if !lr.HasBegin() {
					lr.SetBegin(e.Tick)
				}
			case 4:
				if e.ControlValue() != 0 {
					c.finishLoopDetect(subsong, NewLoopRange())
					return
				}
				if lr.HasBegin() && !lr.HasEnd() {
					lr.SetEnd(e.Tick)
				}
			}
		}
	}
	c.finishLoopDetect(subsong, lr)
}

// DetectLoopLeapFrog applies the LeapFrog heuristic: CC 110 sets begin,
// CC 111 sets end, CCs 112-119 clear the loop.
func (c *Container) DetectLoopLeapFrog(subsong int) {
	lr := NewLoopRange()
	for _, tr := range c.tracksForSubsong(subsong) {
		for _, e := range tr.Events {
			if e.Kind != ControlChange {
				continue
			}
			cc := e.Controller()
			switch {
			case cc == 110:
				if !lr.HasBegin() {
					lr.SetBegin(e.Tick)
				}
			case cc == 111:
				if lr.HasBegin() && !lr.HasEnd() {
					lr.SetEnd(e.Tick)
				}
			case cc >= 112 && cc <= 119:
				lr.Clear()
			}
		}
	}
	c.finishLoopDetect(subsong, lr)
}
