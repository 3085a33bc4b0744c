// Package syx decodes a raw catenation of SysEx messages (each bracketed by
// F0...F7) into a container.Container, the dispatch chain's last-resort
// format per spec.md §4.6 ("An unrecognized buffer returns 'not handled'
// rather than an error").
package syx

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/primitives"
)

const decoderName = "syx"

// Recognize reports whether data is (or starts with) a bracketed SysEx
// message.
func Recognize(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xF0
}

// Decode parses data as a catenation of F0...F7-bracketed SysEx messages,
// storing each as an Extended event at tick 0, in a single format-0 track.
func Decode(data []byte) (*container.Container, error) {
	if !Recognize(data) {
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}

	c := container.New(0, 0x60)
	tr := &container.Track{}

	cur := primitives.NewCursor(data)
	for {
		b, ok := cur.PeekByte()
		if !ok {
			break
		}
		if b != 0xF0 {
			return nil, decodeerror.New(decoderName, cur.Pos(), decodeerror.ErrMalformedStructure)
		}

		start := cur.Pos()
		cur.TakeByte()
		for {
			nb, ok := cur.TakeByte()
			if !ok {
				return nil, decodeerror.New(decoderName, start, decodeerror.ErrInsufficientInput)
			}
			if nb == 0xF7 {
				break
			}
		}
		payload := data[start+1 : cur.Pos()]
		tr.Append(container.SysExEvent(0, payload))
	}

	tr.Append(container.EndOfTrackEvent(0))
	c.AddTrack(tr)
	return c, nil
}
