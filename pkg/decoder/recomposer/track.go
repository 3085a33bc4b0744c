package recomposer

import (
	"log/slog"

	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/logger"
	"github.com/zurustar/libmidi/pkg/primitives"
)

const maxLoopDepth = 8

// cmd is one fixed-width command slot, normalized across the v2 (4-byte)
// and v3 (6-byte) encodings.
type cmd struct {
	typ      byte
	p0       uint32 // post-command tick advance
	p1       byte
	p2       byte
	duration uint32 // gate time for note commands (wider in v3)
}

// readCmd decodes the command at offset and returns it plus the byte
// width consumed (4 for v2, 6 for v3).
func readCmd(data []byte, offset, version int) (cmd, int) {
	if version == 2 {
		c := cmd{
			typ: data[offset],
			p0:  uint32(data[offset+1]),
			p1:  data[offset+2],
			p2:  data[offset+3],
		}
		c.duration = uint32(c.p1)
		return c, 4
	}
	c := cmd{
		typ: data[offset],
		p2:  data[offset+1],
		p0:  uint32(primitives.ReadU16LE(data[offset+2:])),
		p1:  data[offset+4],
	}
	c.duration = uint32(primitives.ReadU16LE(data[offset+4:]))
	return c, 6
}

func cmdWidth(version int) int {
	if version == 2 {
		return 4
	}
	return 6
}

// loopFrame is one entry of the per-track loop stack.
type loopFrame struct {
	parentOffs int
	startOffs  int
	startTick  uint32
	counter    int
}

// trackResult is what convertTrack produces: the decoded track (nil in a
// dry run), plus the duration/loop-start bookkeeping balanceTrackTimes
// needs before the real pass runs.
type trackResult struct {
	track         *container.Track
	duration      uint32
	loopStartTick uint32
	hasLoop       bool
	nextOffset    int
}

// convertTrack decodes one RCP track's command stream starting at offset
// (which must point at the 16/32-bit track-size field). When dryRun is
// true it still walks the full command stream (loop stack, bar cache,
// running notes) to recover accurate duration/loop-start ticks for
// track-length balancing, but does not build any container.Track events.
func convertTrack(data []byte, offset, version, configuredLoopCount, globalTranspose, baseTempoBPM int, opts Options, sysex [8]userSysEx, dryRun bool) (*trackResult, error) {
	trackHead := offset
	var trackSize uint32
	if version == 2 {
		if offset+2 > len(data) {
			return nil, errTruncatedTrack
		}
		trackSize = uint32(primitives.ReadU16LE(data[offset:]))
		trackSize = (trackSize &^ 0x03) | ((trackSize & 0x03) << 16)
		offset += 2
	} else {
		if offset+4 > len(data) {
			return nil, errTruncatedTrack
		}
		trackSize = primitives.ReadU32LE(data[offset:])
		offset += 4
	}
	trackTail := trackHead + int(trackSize)
	if trackTail > len(data) {
		trackTail = len(data)
	}

	if offset+0x2A > len(data) {
		return nil, errTruncatedTrack
	}
	rhythmMode := data[offset+0x01]
	rawChannel := data[offset+0x02]
	rawTranspose := data[offset+0x03]
	startTick := int32(int8(data[offset+0x04]))
	mute := data[offset+0x05] != 0
	name := trimmedString(data[offset+0x06 : offset+0x06+0x24])
	offset += 0x2A

	var dstChannel int
	var srcChannel byte
	dummy := false
	if rawChannel&0x80 != 0 {
		srcChannel = 0
		if opts.KeepDummyChannels {
			dstChannel = 0
		} else {
			dummy = true
		}
	} else {
		dstChannel = int(rawChannel >> 4)
		srcChannel = rawChannel & 0x0F
	}

	transpose := 0
	if rawTranspose&0x80 == 0 {
		t := int(rawTranspose)
		if rawTranspose&0x40 != 0 {
			t -= 0x80
		}
		transpose = t + globalTranspose
	}
	_ = rhythmMode

	if mute && !opts.KeepDummyChannels {
		return &trackResult{nextOffset: trackHead + int(trackSize)}, nil
	}

	tr := &container.Track{Name: name}
	emit := func(e container.Event) {
		if !dryRun {
			tr.Append(e)
		}
	}

	if !dryRun {
		if name != "" {
			emit(container.MetaEvent(0, 0x03, []byte(name)))
		}
		if !dummy {
			emit(container.PortEvent(0, byte(dstChannel)))
			emit(container.MetaEvent(0, 0x20, []byte{srcChannel}))
		}
	}

	var tick uint32
	if startTick >= 0 {
		tick = uint32(startTick)
		startTick = 0
	}

	var rn runningNotes
	gsParams := [6]byte{}
	xgParams := [6]byte{}

	barOffsets := []int{offset}
	parentOffs := 0
	var loops [maxLoopDepth]loopFrame
	loopCount := 0
	endOfTrack := false
	firstLoopStartOffs := -1
	var loopStartTick uint32

	appendNote := func(channel byte, noteOn bool, note, vel byte, atTick uint32) {
		if dummy {
			return
		}
		if noteOn {
			emit(container.NoteOnEvent(atTick, channel, note, vel))
		} else {
			emit(container.NoteOffEvent(atTick, channel, note, vel))
		}
	}

	for offset < trackTail && !endOfTrack {
		cmdOffset := offset
		width := cmdWidth(version)
		if offset+width > len(data) {
			logger.Get().Warn("truncated command stream", slog.Int("offset", offset))
			break
		}
		c, _ := readCmd(data, offset, version)
		offset += width

		rn.flushUpTo(tick, appendNote)

		if c.typ < 0x80 {
			note := byte((int(c.typ) + transpose) & 0x7F)
			gate := c.duration
			if idx := rn.find(srcChannel, note); idx >= 0 {
				rn.extend(idx, tick+gate)
				gate = 0
			}
			if gate > 0 && !dummy {
				emit(container.NoteOnEvent(tick, srcChannel, note, c.p2))
				rn.add(srcChannel, note, 0x80, tick+gate)
			}
		} else {
			switch {
			case c.typ >= 0x90 && c.typ <= 0x97:
				us := sysex[c.typ&0x07]
				if !dummy {
					body := expandTemplate(us.data, c.p1, c.p2, srcChannel)
					if opts.WriteSysExNames && us.name != "" {
						emit(container.MetaEvent(tick, 0x01, []byte(us.name)))
					}
					if len(body) > 1 {
						emit(container.SysExEvent(tick, body))
					}
				}

			case c.typ == 0x98:
				body, next := readContinuation(data, offset, version, false)
				offset = next
				if !dummy {
					expanded := expandTemplate(body, c.p1, c.p2, srcChannel)
					emit(container.SysExEvent(tick, expanded))
				}

			case isYamahaParamFamily(c.typ):
				if !dummy {
					emit(container.SysExEvent(tick, yamahaParamSysEx(c.typ, srcChannel, c.p1, c.p2)))
				}

			case c.typ == 0xC6:
				if !dummy {
					emit(container.SysExEvent(tick, []byte{0x43, 0x75, srcChannel, 0x10, c.p1, c.p2, 0xF7}))
				}

			case c.typ == 0xCA || c.typ == 0xCB:
				if !dummy {
					param := byte(0x7B + (c.typ - 0xCA))
					emit(container.SysExEvent(tick, []byte{0x43, 0x10 | srcChannel, 0x10, param, c.p1, c.p2, 0xF7}))
				}

			case c.typ == 0xD0:
				xgParams[2], xgParams[3] = c.p1, c.p2
			case c.typ == 0xD1:
				xgParams[0], xgParams[1] = c.p1, c.p2
			case c.typ == 0xD2:
				xgParams[4], xgParams[5] = c.p1, c.p2
				if !dummy {
					body := append([]byte{0x43}, xgParams[:]...)
					body = append(body, 0xF7)
					emit(container.SysExEvent(tick, body))
				}
			case c.typ == 0xD3:
				xgParams[4], xgParams[5] = c.p1, c.p2
				if !dummy {
					body := []byte{0x43, 0x10, 0x4C, xgParams[2], xgParams[3], xgParams[4], xgParams[5], 0xF7}
					emit(container.SysExEvent(tick, body))
				}

			case c.typ == 0xDC:
				if !dummy {
					emit(container.SysExEvent(tick, []byte{0x41, 0x32, srcChannel, c.p1, c.p2, 0xF7}))
				}
			case c.typ == 0xDD:
				gsParams[2], gsParams[3] = c.p1, c.p2
			case c.typ == 0xDE:
				gsParams[4], gsParams[5] = c.p1, c.p2
				if !dummy {
					emit(container.SysExEvent(tick, rolandChecksummedSysEx(gsParams)))
				}
			case c.typ == 0xDF:
				gsParams[0], gsParams[1] = c.p1, c.p2

			case c.typ == 0xE1:
				if !dummy {
					emit(container.ControlChangeEvent(tick, srcChannel, 0x20, c.p2))
					emit(container.ProgramChangeEvent(tick, srcChannel, c.p1))
				}
			case c.typ == 0xE2:
				if !dummy {
					emit(container.ControlChangeEvent(tick, srcChannel, 0x00, c.p2))
					emit(container.ProgramChangeEvent(tick, srcChannel, c.p1))
				}

			case c.typ == 0xE5:
				logger.Get().Warn("key scan command ignored", slog.Int("offset", cmdOffset))

			case c.typ == 0xE6:
				p1 := c.p1 - 1
				if p1&0x80 != 0 {
					if !opts.KeepDummyChannels {
						dummy = true
					}
				} else {
					dstChannel = int(p1 >> 4)
					srcChannel = p1 & 0x0F
					if !dummy {
						emit(container.PortEvent(tick, byte(dstChannel)))
						emit(container.MetaEvent(tick, 0x20, []byte{srcChannel}))
					}
				}

			case c.typ == 0xE7:
				micros := primitives.BPMToMicrosPerQuarter(baseTempoBPM, int(c.p1))
				if !dummy {
					emit(container.SetTempoEvent(tick, micros))
				}

			case c.typ == 0xEA:
				if !dummy {
					emit(container.Event{Tick: tick, Kind: container.ChannelPressure, Channel: srcChannel, Data: []byte{c.p1}})
				}
			case c.typ == 0xEB:
				if !dummy {
					emit(container.ControlChangeEvent(tick, srcChannel, c.p1, c.p2))
				}
			case c.typ == 0xEC:
				if !dummy && c.p1 < 0x80 {
					emit(container.ProgramChangeEvent(tick, srcChannel, c.p1))
				}
			case c.typ == 0xED:
				if !dummy {
					emit(container.Event{Tick: tick, Kind: container.KeyPressure, Channel: srcChannel, Data: []byte{c.p1, c.p2}})
				}
			case c.typ == 0xEE:
				if !dummy {
					emit(container.PitchBendEvent(tick, srcChannel, uint16(c.p1)|uint16(c.p2)<<7))
				}

			case c.typ == 0xF5:
				var sig [2]byte
				keySignature(c.typ, byte(c.p0), &sig)
				emit(container.MetaEvent(tick, 0x59, sig[:]))
				c.p0 = 0

			case c.typ == 0xF6:
				body, next := readContinuation(data, offset, version, true)
				offset = next
				n := primitives.TrimmedLength(body, len(body), 0x20, false)
				emit(container.MetaEvent(tick, 0x01, body[:n]))
				c.p0 = 0

			case c.typ == 0xF7:
				logger.Get().Warn("unexpected SysEx continuation command", slog.Int("offset", cmdOffset))

			case c.typ == 0xF8: // loop end
				if loopCount > 0 {
					loopCount--
					loops[loopCount].counter++
					takeLoop := false
					if c.p0 == 0 || c.p0 >= 0x7F {
						if loops[loopCount].counter < 0x80 && !dummy {
							emit(container.ControlChangeEvent(tick, srcChannel, 0x6F, byte(loops[loopCount].counter)))
						}
						if loops[loopCount].counter < configuredLoopCount {
							takeLoop = true
						}
					} else if loops[loopCount].counter < int(c.p0) {
						takeLoop = true
					}
					if takeLoop {
						parentOffs = loops[loopCount].parentOffs
						offset = loops[loopCount].startOffs
						loopCount++
					}
				}
				c.p0 = 0

			case c.typ == 0xF9: // loop begin
				if loopCount < maxLoopDepth {
					if firstLoopStartOffs == -1 {
						firstLoopStartOffs = offset
						loopStartTick = tick
					}
					loops[loopCount] = loopFrame{parentOffs: parentOffs, startOffs: offset, startTick: tick, counter: 0}
					loopCount++
				} else {
					logger.Get().Warn("more than 8 nested loops", slog.Int("offset", cmdOffset))
				}
				c.p0 = 0

			case c.typ == 0xFC: // repeat previous bar
				if parentOffs == 0 {
					offset -= width
					for {
						width2 := cmdWidth(version)
						var barID int
						var repeatOffs int
						if version == 2 {
							p0 := data[offset+0x01]
							p1 := data[offset+0x02]
							p2 := data[offset+0x03]
							barID = int(p0) | int(p1&0x03)<<8
							repeatOffs = int(p1&^0x03) | int(p2)<<8
						} else {
							barID = int(primitives.ReadU16LE(data[offset+0x02:]))
							repeatOffs = 0x2E + (int(primitives.ReadU16LE(data[offset+0x04:]))-0x30)*6
						}
						prev := offset
						offset += width2
						if barID >= len(barOffsets) {
							break
						}
						if trackHead+repeatOffs == prev {
							break
						}
						if parentOffs == 0 {
							parentOffs = offset
						}
						offset = trackHead + repeatOffs
						if offset >= len(data) || data[offset] != 0xFC {
							break
						}
					}
				} else {
					offset = parentOffs
					parentOffs = 0
				}
				c.p0 = 0

			case c.typ == 0xFD: // bar end
				if len(barOffsets) >= 0x8000 {
					endOfTrack = true
					break
				}
				if parentOffs != 0 {
					offset = parentOffs
					parentOffs = 0
				}
				if opts.Wolfteam && len(barOffsets) == 1 && loopCount == 0 {
					if firstLoopStartOffs == -1 {
						firstLoopStartOffs = offset
						loopStartTick = tick
					}
					loops[loopCount] = loopFrame{parentOffs: parentOffs, startOffs: offset, startTick: tick}
					loopCount++
				}
				barOffsets = append(barOffsets, offset)
				c.p0 = 0

			case c.typ == 0xFE: // track end
				if opts.Wolfteam && loopCount > 0 {
					loopCount--
					loops[loopCount].counter++
					takeLoop := false
					if loops[loopCount].counter < 0x80 && !dummy {
						emit(container.ControlChangeEvent(tick, srcChannel, 0x6F, byte(loops[loopCount].counter)))
					}
					if loops[loopCount].counter < configuredLoopCount {
						takeLoop = true
					}
					if takeLoop {
						parentOffs = loops[loopCount].parentOffs
						offset = loops[loopCount].startOffs
						loopCount++
					} else {
						endOfTrack = true
					}
				} else {
					endOfTrack = true
				}
				c.p0 = 0

			default:
				logger.Get().Warn("unknown RCP command", slog.Int("offset", cmdOffset), slog.Int("type", int(c.typ)))
			}
		}

		newTick := tick + c.p0
		if startTick < 0 && newTick > 0 {
			startTick += int32(newTick)
			if startTick >= 0 {
				newTick = uint32(startTick)
				startTick = 0
			} else {
				newTick = 0
			}
		}
		tick = newTick
	}

	tick = rn.flushAll(tick, false, appendNote)

	if !dryRun {
		tr.EnsureEndOfTrack()
	}

	result := &trackResult{duration: tick, nextOffset: trackHead + int(trackSize)}
	if firstLoopStartOffs != -1 {
		result.hasLoop = true
		result.loopStartTick = loopStartTick
	}
	if !dryRun {
		result.track = tr
	}
	return result, nil
}

// readContinuation concatenates the data bytes of every consecutive
// 0xF7-typed command slot starting at offset (the "MCMD" helpers in the
// source). includeInitial also prepends the calling command's own data
// bytes (used by the 0xF6 comment command; 0x98 SysEx excludes them).
func readContinuation(data []byte, offset, version int, includeInitial bool) ([]byte, int) {
	var out []byte
	width := cmdWidth(version)

	if includeInitial {
		start := offset - width
		if version == 2 {
			out = append(out, data[start+0x02], data[start+0x03])
		} else {
			out = append(out, data[start+0x01:start+0x06]...)
		}
	}

	for offset+width <= len(data) && data[offset] == 0xF7 {
		if version == 2 {
			out = append(out, data[offset+0x02], data[offset+0x03])
		} else {
			out = append(out, data[offset+0x01:offset+0x06]...)
		}
		offset += width
	}
	return out, offset
}

func isYamahaParamFamily(typ byte) bool {
	switch typ {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC7, 0xC8, 0xC9, 0xCC, 0xCD, 0xCE, 0xCF:
		return true
	}
	return false
}

// dxParam maps a Yamaha DX/TX/FB-01 command type to its parameter-change
// address byte.
var dxParam = map[byte]byte{
	0xC0: 0x08, 0xC1: 0x00, 0xC2: 0x04, 0xC3: 0x11,
	0xC5: 0x15, 0xC7: 0x12, 0xC8: 0x13, 0xC9: 0x10,
	0xCC: 0x1B, 0xCD: 0x18, 0xCE: 0x19, 0xCF: 0x1A,
}

func yamahaParamSysEx(typ, channel, p1, p2 byte) []byte {
	return []byte{0x43, 0x10 | channel, dxParam[typ], p1, p2, 0xF7}
}

// rolandChecksummedSysEx builds a Roland DT1 SysEx from the accumulated
// device/model/address/data bytes, applying the Roland 2's-complement
// 7-bit checksum over the address+data bytes.
func rolandChecksummedSysEx(params [6]byte) []byte {
	var checksum byte
	for _, b := range params[2:] {
		checksum += b
	}
	body := []byte{0x41, params[0], params[1], 0x12}
	body = append(body, params[2:]...)
	body = append(body, (0x100-checksum)&0x7F, 0xF7)
	return body
}

// keySignature converts an RCP key-signature byte into the 2-byte MIDI
// key-signature meta payload.
func keySignature(_ byte, raw byte, out *[2]byte) {
	var key int8
	if raw&0x08 != 0 {
		key = -int8(raw & 0x07)
	} else {
		key = int8(raw & 0x07)
	}
	out[0] = byte(key)
	out[1] = (raw & 0x10) >> 4
}
