// Package recomposer decodes Recomposer sequence files (RCP v2/v3) and
// their CM6/GSD control-file companions into a container.Container.
package recomposer

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/primitives"
)

const decoderName = "recomposer"

// errTruncatedHeader and errTruncatedTrack reuse the shared insufficient-
// input sentinel; the offset attached by decodeerror.New/Wrapf at the call
// site is what distinguishes them in practice.
var (
	errTruncatedHeader = decodeerror.ErrInsufficientInput
	errTruncatedTrack  = decodeerror.ErrInsufficientInput
)

// Options configures Recomposer decoding.
type Options struct {
	// LoopCount is how many times a finite (0xF9/0xF8) loop plays in
	// total, including its first pass. Non-positive falls back to 2.
	LoopCount int
	// WriteSysExNames emits a text meta naming a user SysEx template the
	// first time it fires, when the template carries a name.
	WriteSysExNames bool
	// KeepDummyChannels decodes a track whose MIDI channel byte has the
	// 0x80 dummy flag as an ordinary track on port 0, channel 0, and
	// decodes a muted track instead of dropping it. Without it, a
	// dummy-flagged track keeps only its meta events (no voice, SysEx or
	// tempo events) and a muted track is dropped.
	KeepDummyChannels bool
	// BalanceTrackLengths runs a duration-measuring dry pass first and
	// extends short tracks' loop counts so every track's expanded
	// duration is close to the longest track's, the way RCPConverter's
	// ExtendLoops option does.
	BalanceTrackLengths bool
	// LinkedFiles supplies the bytes of CM6/GSD control files the RCP
	// header names (by the 16-byte filename fields), keyed by that
	// filename. The decoder never performs file I/O itself.
	LinkedFiles map[string][]byte
	// Wolfteam treats the end of a track's first bar as an implicit
	// loop-begin and the track-end command as an implicit loop-end, for
	// sequences (the "Wolfteam" titles per spec.md §4.4) that rely on
	// this instead of an explicit 0xF9/0xF8 pair. It has no effect on a
	// track that already pushes an explicit loop before its first bar
	// ends.
	Wolfteam bool
}

// DefaultOptions returns LoopCount 2, BalanceTrackLengths true, everything
// else false/nil.
func DefaultOptions() Options {
	return Options{LoopCount: 2, BalanceTrackLengths: true}
}

// Recognize reports whether data begins with one of the four Recomposer
// magics.
func Recognize(data []byte) bool {
	return DetectKind(data) != KindUnknown
}

// Decode dispatches on the file's magic to the RCP sequence path or the
// CM6/GSD control-file path.
func Decode(data []byte, opts Options) (*container.Container, error) {
	if opts.LoopCount <= 0 {
		opts.LoopCount = 2
	}

	switch DetectKind(data) {
	case KindRCPv2:
		return decodeSequence(data, 2, opts)
	case KindRCPv3:
		return decodeSequence(data, 3, opts)
	case KindCM6:
		return decodeControlFile(data, controlMT32), nil
	case KindGSD:
		return decodeControlFile(data, controlGS), nil
	default:
		if len(data) < 0x20 {
			return nil, decodeerror.New(decoderName, len(data), decodeerror.ErrInsufficientInput)
		}
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}
}

func decodeSequence(data []byte, version int, opts Options) (*container.Container, error) {
	var h *header
	var err error
	if version == 2 {
		h, err = parseHeaderV2(data)
	} else {
		h, err = parseHeaderV3(data)
	}
	if err != nil {
		return nil, decodeerror.New(decoderName, 0, err)
	}

	c := container.New(1, uint16(h.ticksPerQuarter))
	c.AddTrack(buildConductorTrack(h))

	for _, tr := range linkedControlTracks(h, opts) {
		c.AddTrack(tr)
	}

	loopCounts := make([]int, h.trackCount)
	for i := range loopCounts {
		loopCounts[i] = opts.LoopCount
	}

	if opts.BalanceTrackLengths {
		dryResults, err := walkTracks(data, h, opts, loopCounts, true)
		if err != nil {
			return nil, err
		}
		minLoopTicks := uint32(h.ticksPerQuarter / 4)
		loopCounts = balanceTrackTimes(dryResults, opts.LoopCount, minLoopTicks)
	}

	results, err := walkTracks(data, h, opts, loopCounts, false)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.track != nil {
			c.AddTrack(r.track)
		}
	}

	return c, nil
}

// walkTracks sequentially decodes h.trackCount tracks starting at
// h.tracksOffset, feeding each successive result's nextOffset into the next
// track's start. Both the dry-run duration-measuring pass and the real pass
// share this walk.
func walkTracks(data []byte, h *header, opts Options, loopCounts []int, dryRun bool) ([]*trackResult, error) {
	results := make([]*trackResult, 0, h.trackCount)
	offset := h.tracksOffset
	for i := 0; i < h.trackCount; i++ {
		if offset >= len(data) {
			break
		}
		lc := opts.LoopCount
		if i < len(loopCounts) {
			lc = loopCounts[i]
		}
		r, err := convertTrack(data, offset, h.version, lc, h.transposition, h.tempoBPM, opts, h.sysex, dryRun)
		if err != nil {
			return nil, decodeerror.Wrapf(decoderName, offset, err, "track %d", i)
		}
		results = append(results, r)
		offset = r.nextOffset
	}
	return results, nil
}

// balanceTrackTimes extends each track's loop count so its loop-expanded
// duration approaches the longest track's, mirroring
// converter_t::BalanceTrackTimes: tracks whose single loop pass is shorter
// than minLoopTicks are left at configuredLoopCount, everything else is
// raised only if it falls short of the pack's longest expanded duration by
// more than a quarter of one loop pass.
func balanceTrackTimes(results []*trackResult, configuredLoopCount int, minLoopTicks uint32) []int {
	counts := make([]int, len(results))
	var maxTicks uint32
	for i, r := range results {
		counts[i] = configuredLoopCount
		duration := r.duration
		if r.hasLoop {
			loopTicks := r.duration - r.loopStartTick
			duration = r.duration + loopTicks*uint32(configuredLoopCount-1)
		}
		if duration > maxTicks {
			maxTicks = duration
		}
	}

	for i, r := range results {
		if !r.hasLoop {
			continue
		}
		loopTicks := r.duration - r.loopStartTick
		if loopTicks < minLoopTicks || loopTicks == 0 {
			continue
		}
		duration := r.duration + loopTicks*uint32(configuredLoopCount-1)
		if duration+loopTicks/4 < maxTicks {
			desired := maxTicks - r.loopStartTick
			counts[i] = int((desired + loopTicks/3) / loopTicks)
		}
	}
	return counts
}

// buildConductorTrack emits the title, comments, initial tempo, time
// signature, and key signature meta events every RCP sequence carries at
// tick 0, the way RCPConverter's conductor-track block does.
func buildConductorTrack(h *header) *container.Track {
	tr := &container.Track{Name: h.title}
	if h.title != "" {
		tr.Append(container.MetaEvent(0, 0x03, []byte(h.title)))
	}
	for _, line := range h.comments {
		tr.Append(container.MetaEvent(0, 0x01, []byte(line)))
	}

	micros := primitives.BPMToMicrosPerQuarter(h.tempoBPM, 64)
	tr.Append(container.SetTempoEvent(0, micros))

	if h.timeSigNum > 0 {
		var sig [4]byte
		timeSignature(h.timeSigNum, h.timeSigDenom, &sig)
		tr.Append(container.MetaEvent(0, 0x58, sig[:]))
	}

	var key [2]byte
	keySignature(0, byte(h.keySignature), &key)
	tr.Append(container.MetaEvent(0, 0x59, key[:]))

	tr.EnsureEndOfTrack()
	return tr
}

// timeSignature converts an RCP (numerator, denominator) pair into the
// 4-byte MIDI time-signature meta payload, the way RCP2MIDITimeSignature
// does: the denominator is stored as its base-2 logarithm, and the
// metronome pulse is 96 ticks shifted down by that same exponent.
func timeSignature(numerator, denominator int, out *[4]byte) {
	shift := determineShift(denominator)
	out[0] = byte(numerator)
	out[1] = byte(shift)
	out[2] = byte(96 >> uint(shift))
	out[3] = 8
}

func determineShift(value int) int {
	shift := 0
	value >>= 1
	for value != 0 {
		shift++
		value >>= 1
	}
	return shift
}
