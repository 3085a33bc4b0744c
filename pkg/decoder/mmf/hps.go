package mmf

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
)

// xgSystemOn is prefixed onto a Setup-chunk HPS track, per
// MIDIProcessorMMF.cpp's ProcessHPSTrack (state.IsMTSU branch).
var xgSystemOn = []byte{0xF0, 0x43, 0x00, 0x4C, 0x00, 0x00, 0x7E, 0x00, 0xF7}

// xgDrumPartMode renders an XG "part mode -> drum" SysEx for the
// given MIDI part (0-indexed channel).
func xgDrumPartMode(part byte) []byte {
	return []byte{0xF0, 0x43, 0x10, 0x4C, 0x08, part, 0x07, 0x02, 0xF7}
}

var expressionLookup = [16]byte{0x00, 0x00, 0x1F, 0x27, 0x2F, 0x37, 0x3F, 0x47, 0x4F, 0x57, 0x5F, 0x67, 0x6F, 0x77, 0x7F, 0x00}
var pitchBendLookup = [16]byte{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38, 0x40, 0x48, 0x50, 0x58, 0x60, 0x68, 0x70, 0x00}
var modulationLookup = [16]byte{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38, 0x40, 0x48, 0x50, 0x60, 0x68, 0x70, 0x7F, 0x00}

// hpsPeekValue reads an HPS-encoded value at pos without consuming it:
// a high bit on the first byte means a second byte follows and the value
// is ((byte0&0x7F)+1)<<7 | byte1; otherwise the value is byte0 alone.
func hpsPeekValue(data []byte, pos int) uint32 {
	if pos >= len(data) {
		return 0
	}
	if data[pos]&0x80 != 0 {
		v := (uint32(data[pos]&0x7F) + 1) << 7
		if pos+1 < len(data) {
			v |= uint32(data[pos+1])
		}
		return v
	}
	return uint32(data[pos])
}

// hpsConsumeValue is hpsPeekValue plus the number of bytes it occupies.
func hpsConsumeValue(data []byte, pos int) (value uint32, consumed int) {
	if pos >= len(data) {
		return 0, 0
	}
	if data[pos]&0x80 != 0 {
		v := (uint32(data[pos]&0x7F) + 1) << 7
		if pos+1 < len(data) {
			return v | uint32(data[pos+1]), 2
		}
		return v, 1
	}
	return uint32(data[pos]), 1
}

func allZero4(data []byte, pos int) bool {
	return pos+4 <= len(data) && data[pos] == 0 && data[pos+1] == 0 && data[pos+2] == 0 && data[pos+3] == 0
}

// processHPSTrack decodes one Mtsu/Mtsq sub-chunk's HPS event stream into
// a new track on d.c, per MIDIProcessorMMF.cpp's ProcessHPSTrack.
func (d *decodeState) processHPSTrack(data []byte, durationBase, gateTimeBase uint32, isSetup bool) error {
	tr := &container.Track{}
	var runningTime uint32
	var octaveShift [4]int8

	if isSetup {
		tr.Append(container.SysExEvent(0, xgSystemOn[1:]))
	}

	pos := 0
	for pos < len(data) {
		duration := uint32(0)
		if !isSetup {
			duration = hpsPeekValue(data, pos) * durationBase
		}
		runningTime += duration

		if allZero4(data, pos) {
			break
		}

		if !isSetup {
			_, consumed := hpsConsumeValue(data, pos)
			pos += consumed
		}
		if pos >= len(data) {
			break
		}

		switch {
		case pos+1 < len(data) && data[pos] == 0xFF && data[pos+1] == 0xF0:
			msgLen := int(data[pos+2]) + 2
			if pos+1+msgLen > len(data) {
				return decodeerror.New(decoderName, pos, decodeerror.ErrInsufficientInput)
			}
			raw := data[pos+1 : pos+1+msgLen] // starts at 0xF0, ends at 0xF7.

			if len(raw) >= 10 && (raw[1] == 0x12 || raw[1] == 0x1C) && raw[2] == 0x43 && raw[3] == 0x03 && raw[8] == 0x01 {
				if chp, opp, ok := parseHPSExclusiveFM(raw[1:]); ok {
					voice := buildMA3Exclusive(chp, opp)
					tr.Append(container.SysExEvent(runningTime, voice[1:]))
				} else {
					tr.Append(container.SysExEvent(runningTime, raw[1:]))
				}
			} else {
				tr.Append(container.SysExEvent(runningTime, raw[1:]))
			}
			pos += 1 + msgLen

		case pos+1 < len(data) && data[pos] == 0xFF && data[pos+1] == 0x00:
			pos += 2

		case data[pos] != 0x00:
			channel := (data[pos] >> 6) & 0x03
			octave := (data[pos] >> 4) & 0x03
			shift := int(octave) + int(octaveShift[channel])
			note := byte(int(data[pos]&0x0F) + 36 + shift*12)
			midiChannel := channel + d.channelOffset

			tr.Append(container.NoteOnEvent(runningTime, midiChannel, note, 0x7F))
			pos++

			gt, consumed := hpsConsumeValue(data, pos)
			pos += consumed
			gateTime := gt * gateTimeBase
			tr.Append(container.NoteOffEvent(runningTime+gateTime, midiChannel, note, 0))

		default:
			if pos+1 >= len(data) {
				pos++
				break
			}
			channel := ((data[pos+1] >> 6) & 0x03) + d.channelOffset

			if data[pos+1]&0x30 == 0x30 {
				if pos+2 >= len(data) {
					pos += 2
					break
				}
				arg := data[pos+2]
				switch data[pos+1] & 0x0F {
				case 0x00: // Program Change
					tr.Append(container.ProgramChangeEvent(runningTime, channel, arg))
				case 0x01: // Bank Select
					if arg&0x80 != 0 {
						drumMode := xgDrumPartMode(channel)
						tr.Append(container.SysExEvent(runningTime, drumMode[1:]))
					} else {
						tr.Append(container.ControlChangeEvent(runningTime, channel, 0x00, arg&0x7F))
						tr.Append(container.ControlChangeEvent(runningTime, channel, 0x20, 0x00))
					}
				case 0x02: // Octave Shift
					i := (data[pos] >> 6) & 0x03
					if arg >= 0x01 && arg <= 0x04 {
						octaveShift[i] = int8(arg)
					} else if arg >= 0x81 && arg <= 0x84 {
						octaveShift[i] = -int8(arg - 0x80)
					}
				case 0x03: // Modulation
					tr.Append(container.ControlChangeEvent(runningTime, channel, 0x01, arg))
				case 0x04: // Pitch Bend
					tr.Append(container.PitchBendEvent(runningTime, channel, uint16(arg)<<7))
				case 0x07: // Volume
					tr.Append(container.ControlChangeEvent(runningTime, channel, 0x07, arg))
				case 0x0A: // Pan
					tr.Append(container.ControlChangeEvent(runningTime, channel, 0x0A, arg))
				case 0x0B: // Expression
					tr.Append(container.ControlChangeEvent(runningTime, channel, 0x0B, arg))
				}
				pos += 3
			} else {
				switch data[pos+1] & 0x30 {
				case 0x00: // Expression, compressed
					tr.Append(container.ControlChangeEvent(runningTime, channel, 0x0B, expressionLookup[(data[pos+1]>>4)&0x0F]))
				case 0x10: // Pitch Bend, compressed
					tr.Append(container.PitchBendEvent(runningTime, channel, uint16(pitchBendLookup[(data[pos+1]>>4)&0x0F])<<7))
				case 0x20: // Modulation, compressed
					tr.Append(container.ControlChangeEvent(runningTime, channel, 0x01, modulationLookup[(data[pos+1]>>4)&0x0F]))
				}
				pos += 2
			}
		}
	}

	tr.Append(container.EndOfTrackEvent(runningTime))
	d.c.AddTrack(tr)
	return nil
}
