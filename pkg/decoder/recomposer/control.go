package recomposer

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/primitives"
)

// controlDevice names which device a CM6/GSD control file targets.
type controlDevice int

const (
	controlMT32 controlDevice = iota
	controlGS
)

// mt32ResetSysEx is the Roland DT1 "MT-32 Reset" message RCPConverter sends
// before converting a linked CM6 file's own parameter blocks: device id
// 0x10, model id 0x16, address 0x7F0000 (all-parameters-reset), zero data
// bytes.
var mt32ResetSysEx = []byte{0x41, 0x10, 0x16, 0x12, 0x7F, 0x00, 0x00, 0x01, 0xF7}

// decodeControlFile builds a minimal single-track Container for a
// standalone CM6/GSD control file. The retrieved source shows only the
// declaration and dispatch of its per-parameter-block reader
// (cm6_file_t::Read / gsd_file_t::Read, converter_t::Convert), not their
// field layout, so the per-block Roland DT1 SysEx emission they perform is
// not reconstructed here; this emits the track shell (name, and for CM6
// the grounded MT-32 reset preamble) that a fuller port would fill in.
func decodeControlFile(data []byte, device controlDevice) *container.Container {
	c := container.New(0, 48)
	tr := &container.Track{}
	switch device {
	case controlMT32:
		tr.Name = "CM6"
		tr.Append(container.SysExEvent(0, mt32ResetSysEx))
	case controlGS:
		tr.Name = "GSD"
	}
	tr.EnsureEndOfTrack()
	c.AddTrack(tr)
	return c
}

// linkedControlTracks builds the extra conductor-adjacent tracks an RCP
// sequence gets when its header names CM6/GSD control files and the caller
// supplied their bytes via Options.LinkedFiles, mirroring
// RCPConverter::Convert's CM6/GSD1/GSD2 track block: track name, the
// grounded MT-32 reset plus ~400ms settling delay for CM6, a port-0 MIDI-port
// meta for GSD1 when GSD2 is also named, and a port-1 MIDI-port meta for GSD2.
func linkedControlTracks(h *header, opts Options) []*container.Track {
	if opts.LinkedFiles == nil {
		return nil
	}

	var tracks []*container.Track

	if h.cm6FileName != "" {
		if _, ok := opts.LinkedFiles[h.cm6FileName]; ok {
			tr := &container.Track{Name: h.cm6FileName}
			tr.Append(container.SysExEvent(0, mt32ResetSysEx))
			delay := mulDivRound(400, uint32(h.ticksPerQuarter)*1000, uint32(primitives.BPMToMicrosPerQuarter(h.tempoBPM, 64)))
			tr.EnsureEndOfTrack()
			tr.Events[len(tr.Events)-1].Tick = delay
			tracks = append(tracks, tr)
		}
	}

	bothGSD := h.gsd1FileName != "" && h.gsd2FileName != ""

	if h.gsd1FileName != "" {
		if _, ok := opts.LinkedFiles[h.gsd1FileName]; ok {
			tr := &container.Track{Name: h.gsd1FileName}
			if bothGSD {
				tr.Append(container.PortEvent(0, 0))
			}
			tr.EnsureEndOfTrack()
			tracks = append(tracks, tr)
		}
	}

	if h.gsd2FileName != "" {
		if _, ok := opts.LinkedFiles[h.gsd2FileName]; ok {
			tr := &container.Track{Name: h.gsd2FileName}
			tr.Append(container.PortEvent(0, 1))
			tr.EnsureEndOfTrack()
			tracks = append(tracks, tr)
		}
	}

	return tracks
}

// mulDivRound computes round(val*mul/div) in 64-bit intermediate
// precision, the way Support.h's MulDivRound helper does.
func mulDivRound(val, mul, div uint32) uint32 {
	if div == 0 {
		return 0
	}
	return uint32((uint64(val)*uint64(mul) + uint64(div)/2) / uint64(div))
}
