// Package libmidi is the public entry point: format dispatch (spec.md
// §4.6) plus the Options struct every decoder's own options are collected
// under, following the teacher's constructor-returns-populated-struct
// convention (NewSequencer, NewTickCalculator in pkg/engine).
package libmidi

import (
	"strings"

	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/decoder/gmf"
	"github.com/zurustar/libmidi/pkg/decoder/mmf"
	"github.com/zurustar/libmidi/pkg/decoder/mus"
	"github.com/zurustar/libmidi/pkg/decoder/recomposer"
	"github.com/zurustar/libmidi/pkg/decoder/riff"
	"github.com/zurustar/libmidi/pkg/decoder/smf"
	"github.com/zurustar/libmidi/pkg/decoder/syx"
	"github.com/zurustar/libmidi/pkg/decoder/xmf"
)

// Options bundles every decoder's own options struct, following §6's
// external-interface description: "a single entry point accepts (bytes,
// file-name or extension, Container output, options)". The sub-structs
// already carry their own per-decoder defaults; NewOptions wires them all
// to DefaultOptions().
type Options struct {
	SMF        smf.Options
	XMF        xmf.Options
	Recomposer recomposer.Options

	// HMIHMPDefaultTempoBPM is carried at the API boundary per spec.md
	// §6 even though no HMI/HMP decoder is implemented in this package
	// (see DESIGN.md): the pack's retrieval contains no reference
	// material for either format beyond their names in the §4.6
	// dispatch ordering, so there is nothing to ground an implementation
	// on. Recognize/Decode never consult this field.
	HMIHMPDefaultTempoBPM int
}

// NewOptions returns the defaults named in spec.md §6: RCP loop count 2
// with track-length balancing on, SMF end-of-track required with extra-
// percussion-channel detection on, and HMI/HMP default tempo 160.
func NewOptions() Options {
	return Options{
		SMF:                   smf.DefaultOptions(),
		XMF:                   xmf.DefaultOptions(),
		Recomposer:            recomposer.DefaultOptions(),
		HMIHMPDefaultTempoBPM: 160,
	}
}

// lowerExt returns the lowercased extension (without the dot) of a file
// name, or of name itself if it looks like a bare extension already.
func lowerExt(name string) string {
	name = strings.ToLower(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Decode implements spec.md §4.6's deterministic dispatch: SMF, then RMI
// (RIFF-wrapped SMF), then MUS, GMF, the Recomposer family (RCP/CM6/GSD,
// extension-gated), XMF, MMF, and finally bracketed raw SysEx. First match
// wins; an input no decoder claims returns decodeerror.ErrNotHandled
// rather than a specific decoder's structural error, per §7's
// propagation policy ("dispatch returns 'not handled' only if no decoder
// has claimed the buffer yet").
//
// XMI, MDS, HMP, HMI, and LDS occupy named slots in §4.6's ordering but
// have no decoder in this package: the retrieved corpus carries no format
// documentation or reference source for any of them (see DESIGN.md), so
// there is nothing to ground an implementation on. Files in those formats
// fall through to "not handled" exactly as genuinely unrecognized input
// does.
func Decode(data []byte, fileName string, opts Options) (*container.Container, error) {
	ext := lowerExt(fileName)

	if smf.Recognize(data) {
		return smf.Decode(data, opts.SMF)
	}
	if riff.Recognize(data) {
		return riff.Decode(data, opts.SMF)
	}
	if mus.Recognize(data) {
		return mus.Decode(data)
	}
	if gmf.Recognize(data) {
		return gmf.Decode(data, opts.SMF)
	}
	if recomposer.Recognize(data) && rcpExtensionMatches(recomposer.DetectKind(data), ext) {
		return recomposer.Decode(data, opts.Recomposer)
	}
	if xmf.Recognize(data) {
		return xmf.Decode(data, opts.XMF)
	}
	if mmf.Recognize(data) {
		return mmf.Decode(data)
	}
	if syx.Recognize(data) {
		return syx.Decode(data)
	}

	return nil, decodeerror.New("libmidi", 0, decodeerror.ErrNotHandled)
}

// rcpExtensionMatches applies spec.md §4.4's per-kind extension gate: RCP
// v2 sequences require .rcp/.r36, v3 sequences require .g18/.g36; CM6 and
// GSD control files carry no extension requirement of their own (they are
// identified purely by magic, since callers supply them as linked-file
// bytes rather than as the top-level decode target).
func rcpExtensionMatches(kind recomposer.FileKind, ext string) bool {
	switch kind {
	case recomposer.KindRCPv2:
		return ext == "rcp" || ext == "r36"
	case recomposer.KindRCPv3:
		return ext == "g18" || ext == "g36"
	case recomposer.KindCM6, recomposer.KindGSD:
		return true
	default:
		return false
	}
}
