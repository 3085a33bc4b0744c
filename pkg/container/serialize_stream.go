package container

import "strings"

// CleanFlags selects event categories SerializeAsStream drops from the
// merged output.
type CleanFlags uint8

const (
	// CleanEMIDI drops every track carrying an EMIDI track-designation CC
	// 110 with a data value other than 0, 1, or 0x7F.
	CleanEMIDI CleanFlags = 1 << iota
	// CleanInstruments drops Program Change events.
	CleanInstruments
	// CleanBanks drops Bank Select events (CC 0 and CC 32).
	CleanBanks
)

// StreamMessage is one timestamped, packed MIDI message: a 3-byte voice
// message or a SysEx-table reference, tagged with its canonical port and
// placed at an absolute millisecond offset.
type StreamMessage struct {
	TimeMs uint32
	// Data packs, little-endian, [status|data1|data2|port] for a voice
	// message, or the high bit set plus a 24-bit index into SysEx for a
	// SysEx reference.
	Data uint32
}

// StreamResult is the output of SerializeAsStream: the merged message
// list, the content-addressed SysEx payloads it references, the
// canonical port table, and the message indices (if any) of the loop
// begin/end points.
type StreamResult struct {
	Messages       []StreamMessage
	SysEx          *SysExTable
	PortNumbers    []int32
	LoopBeginIndex int
	LoopEndIndex   int
}

func trackHasEMIDIDesignation(t *Track) bool {
	for _, e := range t.Events {
		if e.Kind == ControlChange && e.Controller() == 110 {
			v := e.ControlValue()
			if v != 0 && v != 1 && v != 0x7F {
				return true
			}
		}
	}
	return false
}

// SerializeAsStream merges a subsong's tracks into a single timestamped
// message stream, ordered by ascending tick with ties broken by ascending
// track index, applies clean, resolves each event's canonical port
// (following Meta 0x04/0x09 device-name assignments through
// RegisterDeviceName), and reports the stream offsets of the loop begin
// and end points (-1 when the subsong has no loop).
func (c *Container) SerializeAsStream(subsong int, clean CleanFlags) *StreamResult {
	var tracks []*Track
	if c.Format == 2 {
		tracks = []*Track{c.Tracks[subsong]}
	} else {
		tracks = c.Tracks
	}

	var filtered []*Track
	for _, t := range tracks {
		if clean&CleanEMIDI != 0 && trackHasEMIDIDesignation(t) {
			continue
		}
		filtered = append(filtered, t)
	}

	tm := c.TempoMaps[subsong]
	lr := c.LoopRanges[subsong]

	result := &StreamResult{SysEx: NewSysExTable(), LoopBeginIndex: -1, LoopEndIndex: -1}

	idx := make([]int, len(filtered))
	deviceName := make([]string, len(filtered))
	var ticks []uint32

	for {
		best := -1
		for i, t := range filtered {
			if idx[i] >= len(t.Events) {
				continue
			}
			if best == -1 || t.Events[idx[i]].Tick < filtered[best].Events[idx[best]].Tick {
				best = i
			}
		}
		if best == -1 {
			break
		}
		e := filtered[best].Events[idx[best]]
		idx[best]++

		if clean&CleanInstruments != 0 && e.Kind == ProgramChange {
			continue
		}
		if clean&CleanBanks != 0 && e.Kind == ControlChange && (e.Controller() == 0 || e.Controller() == 32) {
			continue
		}

		if e.IsMeta() {
			if mt, _ := e.MetaType(); mt == 0x04 || mt == 0x09 {
				deviceName[best] = strings.ToLower(strings.TrimSpace(string(e.MetaPayload())))
			}
			continue
		}

		var port int32
		if name := deviceName[best]; name != "" {
			if p, ok := c.LookupDeviceName(e.Channel, name); ok {
				port = p
			}
		}

		timeMs := uint32(tm.TickToMs(e.Tick))

		switch {
		case e.IsSysEx():
			sidx := result.SysEx.Add(port, e.Data[1:])
			result.Messages = append(result.Messages, StreamMessage{
				TimeMs: timeMs,
				Data:   0x80000000 | uint32(sidx)&0x00FFFFFF,
			})
			ticks = append(ticks, e.Tick)
		case e.IsVoice():
			status := voiceStatus(e.Kind, e.Channel)
			var d1, d2 byte
			if len(e.Data) > 0 {
				d1 = e.Data[0]
			}
			if len(e.Data) > 1 {
				d2 = e.Data[1]
			}
			result.Messages = append(result.Messages, StreamMessage{
				TimeMs: timeMs,
				Data:   uint32(status) | uint32(d1)<<8 | uint32(d2)<<16 | uint32(byte(port))<<24,
			})
			ticks = append(ticks, e.Tick)
		}
	}

	result.PortNumbers = c.PortTable()

	if lr.HasBegin() {
		begin := uint32(lr.BeginTick)
		for i, t := range ticks {
			if t >= begin {
				result.LoopBeginIndex = i
				break
			}
		}
		end := lr.EndOrEndOfSong(c.EndTimestamps[subsong])
		for i, t := range ticks {
			if t > end {
				result.LoopEndIndex = i
				break
			}
		}
	}

	return result
}
