// Package smf decodes Standard MIDI Files into a container.Container.
package smf

import (
	"bytes"
	"log/slog"

	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/logger"
	"github.com/zurustar/libmidi/pkg/primitives"
)

const decoderName = "smf"

// rolandGSUseChannel16ForRhythm is the fixed Roland GS SysEx that makes
// the part on MIDI channel 16 a rhythm part (address 40 1F 15, the part-16
// block), inserted the first time a voice event targets channel 15
// (0-indexed) after a text/name meta mentioning "drum".
var rolandGSUseChannel16ForRhythm = []byte{0xF0, 0x41, 0x10, 0x42, 0x12, 0x40, 0x1F, 0x15, 0x02, 0x0A, 0xF7}

// Options configures SMF decoding.
type Options struct {
	// IsEndOfTrackRequired fails a track chunk that runs out of bytes
	// before an End-of-Track meta is seen. When false, the track chunk's
	// exhaustion synthesizes one instead.
	IsEndOfTrackRequired bool
	// DetectExtraPercussionChannel enables the GS rhythm-channel-16
	// heuristic described on rolandGSUseChannel16ForRhythm.
	DetectExtraPercussionChannel bool
}

// DefaultOptions returns the documented defaults: IsEndOfTrackRequired
// true, DetectExtraPercussionChannel true.
func DefaultOptions() Options {
	return Options{IsEndOfTrackRequired: true, DetectExtraPercussionChannel: true}
}

// Recognize reports whether data begins with a structurally valid SMF
// header (MThd, 6-byte length, format ≤ 2, nonzero track count, format 0
// implying exactly one track, nonzero division) followed by an MTrk.
func Recognize(data []byte) bool {
	if len(data) < 18 {
		return false
	}
	if !bytes.Equal(data[0:4], []byte("MThd")) {
		return false
	}
	if data[4] != 0 || data[5] != 0 || data[6] != 0 || data[7] != 6 {
		return false
	}
	format := int(data[8])<<8 | int(data[9])
	if format > 2 {
		return false
	}
	ntrks := int(data[10])<<8 | int(data[11])
	if ntrks == 0 || (format == 0 && ntrks != 1) {
		return false
	}
	division := int(data[12])<<8 | int(data[13])
	if division == 0 {
		return false
	}
	return bytes.Equal(data[14:18], []byte("MTrk"))
}

// Decode parses data as an SMF and returns the resulting Container.
func Decode(data []byte, opts Options) (*container.Container, error) {
	if !Recognize(data) {
		if len(data) < 18 {
			return nil, decodeerror.New(decoderName, len(data), decodeerror.ErrInsufficientInput)
		}
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}

	format := int(data[8])<<8 | int(data[9])
	ntrks := int(data[10])<<8 | int(data[11])
	division := uint16(int(data[12])<<8 | int(data[13]))

	c := container.New(format, division)

	cur := primitives.NewCursor(data)
	cur.Skip(14)

	for i := 0; i < ntrks; i++ {
		chunkType, ok := cur.Take(4)
		if !ok {
			return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
		}
		if !bytes.Equal(chunkType, []byte("MTrk")) {
			return nil, decodeerror.Wrapf(decoderName, cur.Pos(), decodeerror.ErrMalformedStructure,
				"track %d: expected MTrk chunk", i)
		}
		lenBytes, ok := cur.Take(4)
		if !ok {
			return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput)
		}
		length := int(lenBytes[0])<<24 | int(lenBytes[1])<<16 | int(lenBytes[2])<<8 | int(lenBytes[3])
		body, ok := cur.Take(length)
		if !ok {
			return nil, decodeerror.Wrapf(decoderName, cur.Pos(), decodeerror.ErrInsufficientInput,
				"track %d: declared length %d exceeds remaining input", i, length)
		}

		tr, err := parseTrack(body, opts, c)
		if err != nil {
			return nil, decodeerror.Wrapf(decoderName, cur.Pos()-length, err, "track %d", i)
		}
		c.AddTrack(tr)
	}

	return c, nil
}

type trackState struct {
	runningStatus byte

	sysexActive   bool
	sysexStartTick uint32
	sysexBuf      []byte

	percussionTextFlag bool
}

func containsDrum(payload []byte) bool {
	return bytes.Contains(bytes.ToLower(payload), []byte("drum"))
}

func voiceDataBytes(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

func kindForStatus(status byte) container.Kind {
	switch status & 0xF0 {
	case 0x80:
		return container.NoteOff
	case 0x90:
		return container.NoteOn
	case 0xA0:
		return container.KeyPressure
	case 0xB0:
		return container.ControlChange
	case 0xC0:
		return container.ProgramChange
	case 0xD0:
		return container.ChannelPressure
	case 0xE0:
		return container.PitchBendChange
	}
	return container.Extended
}

// DecodeTrackBody parses a bare MTrk payload (delta/event pairs with no
// chunk header or length prefix) into a Track, the way GMF reuses this
// decoder's chunk-and-track framing for the remainder of its file after its
// own director track and tempo header (spec.md §2, "SMF Decoder... drives
// the chunk-and-track framing that most other decoders reuse").
func DecodeTrackBody(body []byte, opts Options, c *container.Container) (*container.Track, error) {
	return parseTrack(body, opts, c)
}

func parseTrack(body []byte, opts Options, c *container.Container) (*container.Track, error) {
	cur := primitives.NewCursor(body)
	tr := &container.Track{}
	st := &trackState{}
	tick := uint32(0)

	for {
		if cur.AtEnd() {
			if opts.IsEndOfTrackRequired {
				return nil, decodeerror.ErrInsufficientInput
			}
			tr.EnsureEndOfTrack()
			return tr, nil
		}

		delta := primitives.DecodeVLQTolerant(cur)
		tick += delta

		b, ok := cur.PeekByte()
		if !ok {
			if opts.IsEndOfTrackRequired {
				return nil, decodeerror.ErrInsufficientInput
			}
			tr.EnsureEndOfTrack()
			return tr, nil
		}

		if b < 0x80 {
			if st.runningStatus == 0 {
				return nil, decodeerror.ErrMalformedStructure
			}
			status := st.runningStatus
			n := voiceDataBytes(status)
			payload, ok := cur.Take(n)
			if !ok {
				return nil, decodeerror.ErrInsufficientInput
			}
			tr.Append(container.Event{Tick: tick, Kind: kindForStatus(status), Channel: status & 0x0F, Data: payload})
			continue
		}

		cur.TakeByte()

		switch {
		case b == 0xFF:
			metaType, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.ErrInsufficientInput
			}
			length := primitives.DecodeVLQTolerant(cur)
			payload, ok := cur.Take(int(length))
			if !ok {
				return nil, decodeerror.ErrInsufficientInput
			}

			if metaType == 0x2F {
				tr.Append(container.EndOfTrackEvent(tick))
				return tr, nil
			}

			tr.Append(container.MetaEvent(tick, metaType, payload))

			if opts.DetectExtraPercussionChannel && (metaType == 0x01 || metaType == 0x03 || metaType == 0x04) && containsDrum(payload) {
				st.percussionTextFlag = true
			}

		case b == 0xF0 || b == 0xF7:
			length := primitives.DecodeVLQTolerant(cur)
			payload, ok := cur.Take(int(length))
			if !ok {
				return nil, decodeerror.ErrInsufficientInput
			}
			if !st.sysexActive {
				st.sysexActive = true
				st.sysexStartTick = tick
				st.sysexBuf = st.sysexBuf[:0]
			}
			st.sysexBuf = append(st.sysexBuf, payload...)
			if len(st.sysexBuf) > 0 && st.sysexBuf[len(st.sysexBuf)-1] == 0xF7 {
				tr.Append(container.SysExEvent(st.sysexStartTick, st.sysexBuf))
				st.sysexActive = false
			}

		case b >= 0xF1 && b <= 0xFE:
			tr.Append(container.Event{Tick: tick, Kind: container.Extended, Data: []byte{b}})

		default: // 0x80-0xEF: voice status byte
			status := b
			st.runningStatus = status
			n := voiceDataBytes(status)
			payload, ok := cur.Take(n)
			if !ok {
				return nil, decodeerror.ErrInsufficientInput
			}
			kind := kindForStatus(status)
			channel := status & 0x0F

			if opts.DetectExtraPercussionChannel && st.percussionTextFlag && channel == 15 {
				tr.InsertAtStart(container.SysExEvent(0, rolandGSUseChannel16ForRhythm[1:]))
				c.ExtraPercussionChannel = 15
				st.percussionTextFlag = false
				logger.Get().Warn("inserted GS rhythm-channel-16 SysEx",
					slog.String("format", decoderName), slog.Int("tick", int(tick)))
			}

			tr.Append(container.Event{Tick: tick, Kind: kind, Channel: channel, Data: payload})
		}
	}
}
