package container

import "github.com/zurustar/libmidi/pkg/primitives"

// SerializeAsSMF emits an MThd chunk followed by one MTrk chunk per track.
// Delta times are VLQ-encoded; running status is applied across
// consecutive voice events sharing a status byte; each Extended event is
// serialized with the status and VLQ length appropriate to SysEx, Meta, or
// single-byte real-time.
func (c *Container) SerializeAsSMF() []byte {
	buf := make([]byte, 0, 14)
	buf = append(buf, "MThd"...)
	buf = primitives.PutU32BE(buf, 6)
	buf = primitives.PutU16BE(buf, uint16(c.Format))
	buf = primitives.PutU16BE(buf, uint16(len(c.Tracks)))
	buf = primitives.PutU16BE(buf, c.Division)

	for _, t := range c.Tracks {
		body := serializeTrackSMF(t)
		buf = append(buf, "MTrk"...)
		buf = primitives.PutU32BE(buf, uint32(len(body)))
		buf = append(buf, body...)
	}
	return buf
}

func voiceStatus(kind Kind, channel byte) byte {
	var base byte
	switch kind {
	case NoteOff:
		base = 0x80
	case NoteOn:
		base = 0x90
	case KeyPressure:
		base = 0xA0
	case ControlChange:
		base = 0xB0
	case ProgramChange:
		base = 0xC0
	case ChannelPressure:
		base = 0xD0
	case PitchBendChange:
		base = 0xE0
	}
	return base | (channel & 0x0F)
}

func serializeTrackSMF(t *Track) []byte {
	var buf []byte
	lastTick := uint32(0)
	runningStatus := byte(0)

	for _, e := range t.Events {
		buf = append(buf, primitives.EncodeVLQ(e.Tick-lastTick)...)
		lastTick = e.Tick

		if e.Kind == Extended {
			runningStatus = 0
			status := byte(0)
			if len(e.Data) > 0 {
				status = e.Data[0]
			}
			switch status {
			case 0xF0:
				payload := e.Data[1:]
				buf = append(buf, 0xF0)
				buf = append(buf, primitives.EncodeVLQ(uint32(len(payload)))...)
				buf = append(buf, payload...)
			case 0xFF:
				var metaType byte
				var payload []byte
				if len(e.Data) >= 2 {
					metaType = e.Data[1]
				}
				if len(e.Data) >= 3 {
					payload = e.Data[2:]
				}
				buf = append(buf, 0xFF, metaType)
				buf = append(buf, primitives.EncodeVLQ(uint32(len(payload)))...)
				buf = append(buf, payload...)
			default:
				buf = append(buf, status)
			}
			continue
		}

		status := voiceStatus(e.Kind, e.Channel)
		if status != runningStatus {
			buf = append(buf, status)
			runningStatus = status
		}
		buf = append(buf, e.Data...)
	}
	return buf
}
