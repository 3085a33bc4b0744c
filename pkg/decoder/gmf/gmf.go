// Package gmf decodes Game Music Format files into a container.Container.
// Grounded on original_source/MIDIProcessorGMF.cpp: a 7-byte header plus a
// 16-bit tempo, a synthesized director track carrying Set-Tempo and an
// MT-32 reset SysEx, and the remainder of the file parsed by the SMF
// decoder's reusable track-body framing.
package gmf

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/decoder/smf"
	"github.com/zurustar/libmidi/pkg/primitives"
)

const decoderName = "gmf"

// mt32ResetSysEx is the Roland MT-32 Owner's Manual "reset all parameters"
// DT1 message GMF's director track always carries.
var mt32ResetSysEx = []byte{0x41, 0x10, 0x16, 0x12, 0x7F, 0x00, 0x00, 0x01, 0xF7}

// Recognize reports whether data holds at least the 7-byte header and
// begins with the 4-byte "GMF\x01" magic.
func Recognize(data []byte) bool {
	return len(data) >= 7 && data[0] == 'G' && data[1] == 'M' && data[2] == 'F' && data[3] == 1
}

// Decode parses data as a GMF file.
func Decode(data []byte, smfOpts smf.Options) (*container.Container, error) {
	if !Recognize(data) {
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}

	c := container.New(0, 0xC0)

	tempo := primitives.ReadU16BE(data[4:6])
	scaledTempo := int(uint32(tempo) * 100000)

	director := &container.Track{}
	director.Append(container.SetTempoEvent(0, scaledTempo))
	director.Append(container.SysExEvent(0, mt32ResetSysEx))
	director.Append(container.EndOfTrackEvent(0))
	c.AddTrack(director)

	// GMF's own 7th byte is unused padding before the embedded SMF track
	// body begins, per MIDIProcessorGMF.cpp's ProcessGMF (it += 7).
	if len(data) < 7 {
		return nil, decodeerror.New(decoderName, len(data), decodeerror.ErrInsufficientInput)
	}
	tr, err := smf.DecodeTrackBody(data[7:], smfOpts, c)
	if err != nil {
		return nil, decodeerror.New(decoderName, 7, err)
	}
	c.AddTrack(tr)

	return c, nil
}
