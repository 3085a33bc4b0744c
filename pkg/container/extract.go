package container

import "strings"

// SysExKind classifies a sequence by the device-identification SysEx
// messages observed in it, per spec.md §6's dominance ordering: MT-32 wins
// outright; otherwise XG > GS > GM2 > GM.
type SysExKind int

const (
	SysExKindUnknown SysExKind = iota
	SysExKindGM
	SysExKindGM2
	SysExKindGS
	SysExKindXG
	SysExKindX5
	SysExKindD50
	SysExKindMT32
)

func (k SysExKind) String() string {
	switch k {
	case SysExKindMT32:
		return "MT-32"
	case SysExKindGM:
		return "GM"
	case SysExKindGM2:
		return "GM2"
	case SysExKindGS:
		return "GS"
	case SysExKindXG:
		return "XG"
	case SysExKindX5:
		return "X5"
	case SysExKindD50:
		return "D-50"
	default:
		return "Unknown"
	}
}

// priority ranks kinds for the "dominance" merge: MT-32 is a hard override
// (handled separately in ExtractedMetadata.absorb), the rest fall in
// XG > GS > GM2 > GM order.
func (k SysExKind) priority() int {
	switch k {
	case SysExKindXG:
		return 4
	case SysExKindGS:
		return 3
	case SysExKindGM2:
		return 2
	case SysExKindGM:
		return 1
	default:
		return 0
	}
}

// ExtractedMetadata is the result of a subsong's second-pass metadata scan:
// text/copyright/lyrics/markers/cue points harvested from Meta events, the
// dominant device kind inferred from SysEx traffic, and whether any Roland
// checksummed SysEx (DT1/RQ1) failed its checksum.
type ExtractedMetadata struct {
	Text        []string
	Copyright   []string
	Lyrics      []string
	Markers     []string
	CuePoints   []string
	TimeSigs    []TimeSignature
	KeySigs     []KeySignature
	Kind        SysExKind
	BadChecksum bool
}

// TimeSignature is a decoded Meta 0x58 event.
type TimeSignature struct {
	Tick             uint32
	Numerator        int
	DenominatorPow2  int
	ClocksPerMetro   int
	ThirtySecondsPQN int
}

// KeySignature is a decoded Meta 0x59 event.
type KeySignature struct {
	Tick  uint32
	Sharp int8 // negative = flats
	Minor bool
}

func (m *ExtractedMetadata) absorb(kind SysExKind) {
	if kind == SysExKindMT32 {
		// MT-32 dominates every subsequent detection once seen, per
		// spec.md §6 and DESIGN.md's Open Question decision: kept as
		// specified even for a GS Reset observed afterward.
		m.Kind = SysExKindMT32
		return
	}
	if m.Kind == SysExKindMT32 {
		return
	}
	if kind.priority() > m.Kind.priority() {
		m.Kind = kind
	}
}

// classifySysEx recognizes the device-identification SysEx handshakes this
// module cares about (GM/GM2 System On, Roland GS/MT-32 identity, Yamaha
// XG/X5 System On, Roland D-50 DT1) and reports any checksum result for a
// Roland DT1/RQ1 message.
func classifySysEx(payload []byte) (kind SysExKind, checked bool, checksumOK bool) {
	// payload excludes the leading 0xF0 but includes the trailing 0xF7.
	switch {
	case len(payload) >= 5 && payload[0] == 0x7E && payload[2] == 0x09:
		if payload[3] == 0x01 {
			return SysExKindGM, false, false
		}
		if payload[3] == 0x02 {
			return SysExKindGM2, false, false
		}
	case len(payload) >= 4 && payload[0] == 0x41 && payload[2] == 0x16:
		// Roland MT-32/CM-64 model id.
		return SysExKindMT32, false, false
	case len(payload) >= 10 && payload[0] == 0x41 && payload[2] == 0x42 && payload[3] == 0x12:
		// Roland GS DT1: device F0 41 <dev> 42 12 <addr3> <data...> <sum> F7.
		ok := rolandChecksumOK(payload)
		return SysExKindGS, true, ok
	case len(payload) >= 4 && payload[0] == 0x41 && payload[2] == 0x14:
		// Roland D-50 model id.
		ok := rolandChecksumOK(payload)
		return SysExKindD50, true, ok
	case len(payload) >= 4 && payload[0] == 0x43 && (payload[2] == 0x4C):
		return SysExKindXG, false, false
	case len(payload) >= 4 && payload[0] == 0x43 && payload[2] == 0x57:
		return SysExKindX5, false, false
	}
	return SysExKindUnknown, false, false
}

// rolandChecksumOK verifies a Roland DT1/RQ1 message's trailing checksum:
// the checksum byte must equal (128 - sum of the address and data bytes)
// mod 128, so that address + data + checksum sums to zero mod 128.
func rolandChecksumOK(payload []byte) bool {
	// payload = [mfr, dev, model, cmd, addr..., data..., checksum, 0xF7]
	if len(payload) < 7 {
		return false
	}
	body := payload[4 : len(payload)-2] // address + data, excluding checksum and F7
	checksum := payload[len(payload)-2]
	var sum byte
	for _, b := range body {
		sum = (sum + b) & 0x7F
	}
	return byte((0x80-sum)&0x7F) == checksum
}

// ExtractMetadata runs the second pass described in spec.md §6: it walks a
// subsong's events collecting text/copyright/lyrics/marker/cue metas, time
// and key signatures, and classifies the dominant device kind from the
// SysEx traffic observed, flagging any Roland checksum mismatch along the
// way (spec.md §7's "Checksum mismatch" kind, surfaced rather than
// silently accepted).
func (c *Container) ExtractMetadata(subsong int) ExtractedMetadata {
	var m ExtractedMetadata
	for _, tr := range c.tracksForSubsong(subsong) {
		for _, e := range tr.Events {
			switch {
			case e.IsSysEx():
				kind, checked, ok := classifySysEx(e.Data[1:])
				m.absorb(kind)
				if checked && !ok {
					m.BadChecksum = true
				}
			case e.IsMeta():
				mt, _ := e.MetaType()
				payload := e.MetaPayload()
				switch mt {
				case 0x01, 0x03, 0x04, 0x09:
					if s := strings.TrimSpace(string(payload)); s != "" {
						m.Text = append(m.Text, s)
					}
				case 0x02:
					if s := strings.TrimSpace(string(payload)); s != "" {
						m.Copyright = append(m.Copyright, s)
					}
				case 0x05:
					if s := strings.TrimSpace(string(payload)); s != "" {
						m.Lyrics = append(m.Lyrics, s)
					}
				case 0x06:
					if s := strings.TrimSpace(string(payload)); s != "" {
						m.Markers = append(m.Markers, s)
					}
				case 0x07:
					if s := strings.TrimSpace(string(payload)); s != "" {
						m.CuePoints = append(m.CuePoints, s)
					}
				case 0x58:
					if len(payload) >= 4 {
						m.TimeSigs = append(m.TimeSigs, TimeSignature{
							Tick: e.Tick, Numerator: int(payload[0]), DenominatorPow2: int(payload[1]),
							ClocksPerMetro: int(payload[2]), ThirtySecondsPQN: int(payload[3]),
						})
					}
				case 0x59:
					if len(payload) >= 2 {
						m.KeySigs = append(m.KeySigs, KeySignature{
							Tick: e.Tick, Sharp: int8(payload[0]), Minor: payload[1] != 0,
						})
					}
				}
			}
		}
	}
	return m
}
