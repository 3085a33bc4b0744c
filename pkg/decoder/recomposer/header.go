package recomposer

import (
	"strings"

	"github.com/zurustar/libmidi/pkg/primitives"
)

const (
	magicV2   = "RCM-PC98V2.0(C)COME ON MUSIC\r\n"
	magicV3   = "COME ON MUSIC RECOMPOSER RCP3.0"
	magicCtrl = "COME ON MUSIC"
	magicCM6  = "\x00\x00R "
	magicGSD  = "GS CONTROL 1.0"
)

// FileKind identifies which of the four Recomposer magics a buffer
// matches.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindRCPv2
	KindRCPv3
	KindCM6
	KindGSD
)

// DetectKind classifies data by its leading magic bytes, the way
// converter_t::GetFileType does.
func DetectKind(data []byte) FileKind {
	if len(data) < 0x20 {
		return KindUnknown
	}
	switch {
	case strings.HasPrefix(string(data), magicV2):
		return KindRCPv2
	case strings.HasPrefix(string(data), magicV3):
		return KindRCPv3
	}
	if strings.HasPrefix(string(data), magicCtrl) && len(data) >= 0x12 {
		if string(data[0x0E:0x12]) == magicCM6 {
			return KindCM6
		}
		if len(data) >= 0x0E+len(magicGSD) && string(data[0x0E:0x0E+len(magicGSD)]) == magicGSD {
			return KindGSD
		}
	}
	return KindUnknown
}

// userSysEx is one of the 8 pre-declared templates a header carries:
// a name (for the optional text-meta annotation) and a template body
// (escape bytes plus literal data, trimmed of trailing 0xF7 padding but
// re-appended on use if missing).
type userSysEx struct {
	name string
	data []byte
}

// header holds the version-normalized fields every RCP v2/v3 file carries,
// plus the byte offset where per-track data begins.
type header struct {
	version         int
	title           string
	comments        []string
	ticksPerQuarter int
	tempoBPM        int
	timeSigNum      int
	timeSigDenom    int
	keySignature    int
	transposition   int
	cm6FileName     string
	gsd1FileName    string
	gsd2FileName    string
	trackCount      int
	sysex           [8]userSysEx
	tracksOffset    int
}

func trimmedString(b []byte) string {
	n := primitives.TrimmedLength(b, len(b), 0x20, false)
	n = primitives.TrimmedLength(b[:n], n, 0x00, false)
	return string(b[:n])
}

func trimmedFileName(b []byte) string {
	n := primitives.TrimmedLength(b, len(b), 0x00, false)
	n = primitives.TrimmedLength(b[:n], n, 0xFF, false)
	return string(b[:n])
}

func splitLines(b []byte, lineLen, count int) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		start := i * lineLen
		if start+lineLen > len(b) {
			break
		}
		line := trimmedString(b[start : start+lineLen])
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func sanitizeHeader(h *header) {
	if h.trackCount == 0 {
		h.trackCount = 18
	}
	if h.tempoBPM < 8 || h.tempoBPM > 250 {
		h.tempoBPM = 120
	}
	if h.keySignature > 32 {
		h.keySignature = 0
	}
	if h.transposition < -36 || h.transposition > 36 {
		h.transposition = 0
	}
}

// readUserSysEx reads the 8 fixed-size (name, data) template slots that
// immediately precede the track data in both RCP versions.
func readUserSysEx(data []byte, offset int) ([8]userSysEx, int) {
	const nameSize = 24
	const dataSize = 24
	var out [8]userSysEx
	for i := 0; i < 8; i++ {
		if offset+nameSize+dataSize > len(data) {
			break
		}
		name := trimmedString(data[offset : offset+nameSize])
		offset += nameSize
		raw := data[offset : offset+dataSize]
		n := primitives.TrimmedLength(raw, dataSize, 0xF7, true)
		body := make([]byte, n)
		copy(body, raw[:n])
		offset += dataSize
		out[i] = userSysEx{name: name, data: body}
	}
	return out, offset
}

// parseHeaderV2 reads the RCP v2 (PC-98) header layout.
func parseHeaderV2(data []byte) (*header, error) {
	if len(data) < 0x1E8+0x0E+0x10+32*16 {
		return nil, errTruncatedHeader
	}
	h := &header{version: 2}
	h.title = trimmedString(data[0x020:0x020+0x40])
	h.comments = splitLines(data[0x060:0x060+12*28], 28, 12)
	h.ticksPerQuarter = int(data[0x1E7])<<8 | int(data[0x1C0])
	h.tempoBPM = int(data[0x1C1])
	h.timeSigNum = int(data[0x1C2])
	h.timeSigDenom = int(data[0x1C3])
	h.keySignature = int(data[0x1C4])
	h.transposition = int(int8(data[0x1C5]))
	h.cm6FileName = trimmedFileName(data[0x1C6 : 0x1C6+0x10])
	h.gsd1FileName = trimmedFileName(data[0x1D6 : 0x1D6+0x10])
	h.trackCount = int(data[0x1E6])
	sanitizeHeader(h)

	offset := 0x1E8 + 0x0E + 0x10 + 32*16
	h.sysex, offset = readUserSysEx(data, offset)
	h.tracksOffset = offset
	return h, nil
}

// parseHeaderV3 reads the RCP v3 (Windows) header layout.
func parseHeaderV3(data []byte) (*header, error) {
	if len(data) < 0x318+128*16 {
		return nil, errTruncatedHeader
	}
	h := &header{version: 3}
	h.title = trimmedString(data[0x020 : 0x020+0x80])
	h.comments = splitLines(data[0x0A0:0x0A0+12*30], 30, 12)
	h.trackCount = int(primitives.ReadU16LE(data[0x208:]))
	h.ticksPerQuarter = int(primitives.ReadU16LE(data[0x20A:]))
	h.tempoBPM = int(primitives.ReadU16LE(data[0x20C:]))
	h.timeSigNum = int(data[0x20E])
	h.timeSigDenom = int(data[0x20F])
	h.keySignature = int(data[0x210])
	h.transposition = int(int8(data[0x211]))
	h.gsd1FileName = trimmedFileName(data[0x298 : 0x298+0x10])
	h.gsd2FileName = trimmedFileName(data[0x2A8 : 0x2A8+0x10])
	h.cm6FileName = trimmedFileName(data[0x2B8 : 0x2B8+0x10])
	sanitizeHeader(h)

	offset := 0x318 + 128*16
	h.sysex, offset = readUserSysEx(data, offset)
	h.tracksOffset = offset
	return h, nil
}
