// Package mus decodes id Software/DMX MUS files (used by Doom and its
// contemporaries) into a container.Container. Grounded on
// original_source/MIDIProcessorMUS.cpp.
package mus

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/primitives"
)

const decoderName = "mus"

// musControllers maps a MUS "controller" system-event index (1-14) to the
// MIDI CC number it stands for, per MIDIProcessorMUS.cpp's MusControllers
// table. Index 0 is unused (reserved for the patch-change branch).
var musControllers = [15]byte{0, 0, 1, 7, 10, 11, 91, 93, 64, 67, 120, 123, 126, 127, 121}

var defaultTempoMUS = []byte{0x09, 0xA3, 0x1A}

// Recognize reports whether data begins with a structurally valid MUS
// header: at least 0x20 bytes in all, magic, and a data offset consistent
// with the declared instrument count n (16+2n <= offset < 16+4n, so a
// header declaring no instruments is never recognized), the whole song
// fitting within the buffer.
func Recognize(data []byte) bool {
	if len(data) < 0x20 {
		return false
	}
	if data[0] != 'M' || data[1] != 'U' || data[2] != 'S' || data[3] != 0x1A {
		return false
	}
	length := int(primitives.ReadU16LE(data[4:]))
	offset := int(primitives.ReadU16LE(data[6:]))
	instrumentCount := int(primitives.ReadU16LE(data[12:]))

	return offset >= 16+instrumentCount*2 && offset < 16+instrumentCount*4 && offset+length <= len(data)
}

// remapChannel applies MUS's fixed channel reassignment: channel 15 (the
// MUS percussion channel) becomes MIDI channel 9; channels 9 and above
// shift up by one to make room for it.
func remapChannel(musChannel int) byte {
	if musChannel == 0x0F {
		return 9
	}
	if musChannel >= 9 {
		musChannel++
	}
	return byte(musChannel)
}

// Decode parses data as a MUS file.
func Decode(data []byte) (*container.Container, error) {
	if !Recognize(data) {
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}

	length := int(primitives.ReadU16LE(data[4:]))
	offset := int(primitives.ReadU16LE(data[6:]))

	c := container.New(0, 0x59)

	director := &container.Track{}
	director.Append(container.Event{Tick: 0, Kind: container.Extended,
		Data: append([]byte{0xFF, 0x51}, defaultTempoMUS...)})
	director.Append(container.EndOfTrackEvent(0))
	c.AddTrack(director)

	tr := &container.Track{}
	tick := uint32(0)
	var velocityLevels [16]byte

	body := data[offset : offset+length]
	cur := primitives.NewCursor(body)

	for {
		b, ok := cur.TakeByte()
		if !ok {
			return nil, decodeerror.Wrapf(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput, "song data truncated")
		}
		if b == 0x60 {
			break
		}

		channel := int(b & 0x0F)
		midiChannel := remapChannel(channel)

		var kind container.Kind
		var d1, d2 byte

		switch b & 0x70 {
		case 0x00: // Release Note
			kind = container.NoteOff
			note, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
			}
			d1, d2 = note, 0

		case 0x10: // Play Note
			kind = container.NoteOn
			note, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
			}
			if note&0x80 != 0 {
				vel, ok := cur.TakeByte()
				if !ok {
					return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
				}
				velocityLevels[midiChannel] = vel
				note &= 0x7F
				d2 = vel
			} else {
				d2 = velocityLevels[midiChannel]
			}
			d1 = note

		case 0x20: // Pitch Bend
			kind = container.PitchBendChange
			v, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
			}
			d2 = v >> 1
			d1 = v << 7

		case 0x30: // System Event
			kind = container.ControlChange
			v, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
			}
			if v < 10 || v > 14 {
				return nil, decodeerror.Wrapf(decoderName, cur.Pos(), decodeerror.ErrMalformedStructure, "unhandled MUS system event %d", v)
			}
			d1, d2 = musControllers[v], 1

		case 0x40: // Controller
			v, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
			}
			if v == 0 {
				kind = container.ProgramChange
				prog, ok := cur.TakeByte()
				if !ok {
					return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
				}
				d1 = prog
			} else {
				if v >= 10 {
					return nil, decodeerror.Wrapf(decoderName, cur.Pos(), decodeerror.ErrMalformedStructure, "invalid MUS controller change %d", v)
				}
				kind = container.ControlChange
				val, ok := cur.TakeByte()
				if !ok {
					return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
				}
				d1, d2 = musControllers[v], val
			}

		default:
			return nil, decodeerror.Wrapf(decoderName, cur.Pos(), decodeerror.ErrMalformedStructure, "invalid MUS status code 0x%02X", b)
		}

		event := container.Event{Tick: tick, Kind: kind, Channel: midiChannel}
		if kind == container.ProgramChange {
			event.Data = []byte{d1}
		} else {
			event.Data = []byte{d1, d2}
		}
		tr.Append(event)

		if b&0x80 != 0 {
			tick += primitives.DecodeVLQTolerant(cur)
		}
	}

	tr.Append(container.EndOfTrackEvent(tick))
	c.AddTrack(tr)
	return c, nil
}
