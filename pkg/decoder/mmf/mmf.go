// Package mmf decodes Yamaha SMAF/MMF (Mobile Music File, Handy Phone
// Standard) files into a container.Container. Grounded on
// original_source/MIDIProcessorMMF.cpp: a big-endian-chunked "MMMD"
// container holding a "CNTI" content-info/metadata chunk, an "OPDA"
// optional-data chunk, and one or more "MTR*" score tracks in Handy Phone
// Standard (HPS) format. FM voice exclusives found in an HPS track are
// converted to Yamaha MA3 SysEx using the byte-packing conventions from
// src/SMAF/MMF.cpp's setExclusiveFMAll/setExclusiveFMOp.
package mmf

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/primitives"
	"github.com/zurustar/libmidi/pkg/textenc"
)

const decoderName = "mmf"

// SMAF format types a "MTR*" chunk may declare. Only HandyPhoneStandard
// has HPS score-track bytes this decoder knows how to walk; the other
// three are the fixed-size PCM-adjacent SMAF variants the spec's
// Non-goals name as unsupported.
const (
	formatHPS                 = 0
	formatMobileCompress      = 1
	formatMobileNoCompress    = 2
	formatSequence            = 3
)

var metadataTagNames = map[string]string{
	"ST": "title",
	"CR": "copyright",
	"WW": "lyricist",
	"VN": "vendor",
	"CN": "carrier",
	"CA": "category",
	"AN": "artist",
	"SW": "composer",
	"AW": "arranger",
	"GR": "group",
	"MI": "management_info",
	"CD": "creation_date",
	"UP": "modification_date",
	"ES": "edit_status",
	"VC": "vcard",
}

// Recognize reports whether data begins with the "MMMD" magic and its
// declared size fits the buffer.
func Recognize(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if string(data[0:4]) != "MMMD" {
		return false
	}
	size := primitives.ReadU32BE(data[4:8])
	return uint64(len(data)) >= uint64(size)+8
}

// Decode parses data as an MMF/SMAF file.
func Decode(data []byte) (*container.Container, error) {
	if !Recognize(data) {
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}

	size := int(primitives.ReadU32BE(data[4:8]))
	tail := 8 + size // the original computes Tail as just Size; that truncates the
	// file's last 8 bytes, so this decoder measures from the chunk body's
	// true start instead.

	c := container.New(1, 500)
	d := &decodeState{c: c}

	pos := 8
	for pos < tail {
		if tail-pos < 8 {
			break
		}
		chunkID := string(data[pos : pos+4])
		chunkSize := int(primitives.ReadU32BE(data[pos+4 : pos+8]))
		if tail-pos < 8+chunkSize {
			return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
		}
		body := data[pos+8 : pos+8+chunkSize]

		switch {
		case chunkID == "CNTI":
			if err := d.processCNTI(body); err != nil {
				return nil, err
			}
		case chunkID == "OPDA":
			d.processOPDA(body)
		case len(chunkID) >= 3 && chunkID[0:3] == "MTR":
			if err := d.processMTR(body); err != nil {
				return nil, err
			}
			d.channelOffset += 4
		}
		// ATR*, GTR*, MSTR and anything else are recognized-but-skipped,
		// like the original's debug-only logging branches for them.

		pos += 8 + chunkSize
	}

	if len(d.metadata.Entries) > 0 {
		c.Metadata = d.metadata
	}
	if len(c.Tracks) == 0 {
		return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
	}
	return c, nil
}

type decodeState struct {
	c              *container.Container
	channelOffset  byte
	metadata       container.MetadataTable
}

// processCNTI reads the 5-byte content-info header (class, type, encoding,
// copy status, copy count) and the comma-separated metadata list that
// follows it.
func (d *decodeState) processCNTI(body []byte) error {
	if len(body) < 5 {
		return decodeerror.New(decoderName, 0, decodeerror.ErrInsufficientInput)
	}
	encoding := body[2]
	d.parseMetadataList(body[5:], encoding)
	return nil
}

// parseMetadataList walks "XX:value,XX:value,..." entries, where a
// backslash escapes the following character literally.
func (d *decodeState) parseMetadataList(body []byte, encoding byte) {
	pos := 0
	for pos < len(body) {
		if pos+3 > len(body) {
			return
		}
		name := string(body[pos : pos+2])
		pos += 3 // name (2 bytes) plus the ':' separator.

		var value []byte
		for pos < len(body) {
			if body[pos] == '\\' {
				pos++
				if pos >= len(body) {
					break
				}
				value = append(value, body[pos])
				pos++
			} else if body[pos] == ',' {
				pos++
				break
			} else {
				value = append(value, body[pos])
				pos++
			}
		}

		text := decodeMetadataText(value, encoding)
		tag := name
		if mapped, ok := metadataTagNames[name]; ok {
			tag = mapped
		}
		d.metadata.Add(0, tag, text)
	}
}

func decodeMetadataText(b []byte, encoding byte) string {
	if encoding == 0x00 {
		if s, err := textenc.ShiftJISToUTF8(b); err == nil {
			return s
		}
	}
	return string(b)
}

// processOPDA surfaces each "Dch*" optional-data sub-chunk as a metadata
// entry; every other sub-chunk type is recognized-but-skipped, matching
// the original's debug-only handling of OPDA (it never reaches the
// output container there).
func (d *decodeState) processOPDA(body []byte) {
	pos := 0
	for pos < len(body) {
		if len(body)-pos < 8 {
			return
		}
		chunkID := string(body[pos : pos+4])
		chunkSize := int(primitives.ReadU32BE(body[pos+4 : pos+8]))
		if len(body)-pos < 8+chunkSize {
			return
		}
		if len(chunkID) >= 3 && chunkID[0:3] == "Dch" {
			d.metadata.Add(0, "opda_"+chunkID, string(body[pos+8:pos+8+chunkSize]))
		}
		pos += 8 + chunkSize
	}
}

// processMTR decodes one score-track chunk's fixed-size header and, for
// Handy Phone Standard tracks, its HPS setup/sequence sub-chunks.
func (d *decodeState) processMTR(body []byte) error {
	if len(body) < 4 {
		return decodeerror.New(decoderName, 0, decodeerror.ErrInsufficientInput)
	}
	formatType := body[0]

	durationBase, err := timeBase(body[2])
	if err != nil {
		return decodeerror.New(decoderName, 2, decodeerror.ErrMalformedStructure)
	}
	gateTimeBase, err := timeBase(body[3])
	if err != nil {
		return decodeerror.New(decoderName, 3, decodeerror.ErrMalformedStructure)
	}

	headerLen := 0
	switch formatType {
	case formatHPS:
		headerLen = 2 + 4
	case formatMobileCompress, formatMobileNoCompress:
		headerLen = 16 + 4
	case formatSequence:
		headerLen = 32 + 4
	default:
		return decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}
	if len(body) < headerLen {
		return decodeerror.New(decoderName, 0, decodeerror.ErrInsufficientInput)
	}

	if formatType != formatHPS {
		return decodeerror.New(decoderName, 0, decodeerror.ErrUnsupportedFeature)
	}

	pos := headerLen
	for pos < len(body) {
		if len(body)-pos < 8 {
			break
		}
		subID := string(body[pos : pos+4])
		subSize := int(primitives.ReadU32BE(body[pos+4 : pos+8]))
		if len(body)-pos < 8+subSize {
			return decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
		}
		sub := body[pos+8 : pos+8+subSize]

		switch subID {
		case "Mtsu":
			if err := d.processHPSTrack(sub, durationBase, gateTimeBase, true); err != nil {
				return err
			}
		case "Mtsq":
			if err := d.processHPSTrack(sub, durationBase, gateTimeBase, false); err != nil {
				return err
			}
		}
		// "MspI" (seek & phrase info) and anything else are skipped.

		pos += 8 + subSize
	}
	return nil
}

// timeBase maps an MTR header's duration/gate-time base code to its
// multiplier in milliseconds, per MIDIProcessorMMF.cpp's ProcessMTR.
func timeBase(code byte) (uint32, error) {
	switch code {
	case 0x00:
		return 1, nil
	case 0x01:
		return 2, nil
	case 0x02:
		return 4, nil
	case 0x03:
		return 5, nil
	case 0x10:
		return 10, nil
	case 0x11:
		return 20, nil
	case 0x12:
		return 40, nil
	case 0x13:
		return 50, nil
	default:
		return 0, decodeerror.ErrMalformedStructure
	}
}
