// Package riff decodes RIFF/RMID files (a Standard MIDI File wrapped in a
// RIFF container, as Windows' multimedia associates .rmi with) into a
// container.Container. Grounded on original_source/MIDIProcessorRIFF.cpp:
// the "data" subchunk holds the embedded SMF, an optional "DISP" subchunk
// names a display title, and an optional "LIST INFO" subchunk carries
// Dublin-Core-ish metadata plus an IENC-declared code page, IPIC cover art,
// and a DBNK bank offset. A nested "RIFF sfbk"/"RIFF DLS " chunk, present
// when a SoundFont or DLS collection travels alongside the song, is kept
// verbatim on the Container for a downstream synthesizer to consume.
package riff

import (
	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/decodeerror"
	"github.com/zurustar/libmidi/pkg/decoder/smf"
	"github.com/zurustar/libmidi/pkg/primitives"
	"github.com/zurustar/libmidi/pkg/textenc"
)

const decoderName = "riff"

// riffToTag maps a RIFF LIST INFO chunk id to the metadata tag name this
// module's Container uses, per MIDIProcessorRIFF.cpp's RIFFToTagMap.
var riffToTag = map[string]string{
	"IALB": "album",
	"IARL": "archival_location",
	"IART": "artist",
	"ITRK": "tracknumber",
	"ICMS": "commissioned",
	"ICMP": "composer",
	"ICMT": "comment",
	"ICOP": "copyright",
	"ICRD": "creation_date",
	"IENC": "encoding",
	"IENG": "engineer",
	"IGNR": "genre",
	"IKEY": "keywords",
	"IMED": "medium",
	"INAM": "title",
	"IPRD": "product",
	"ISBJ": "subject",
	"ISFT": "software",
	"ISRC": "source",
	"ISRF": "source_form",
	"ITCH": "technician",
}

const cfText = 1 // Windows CF_TEXT clipboard format, the only DISP type this decoder surfaces.

// Recognize reports whether data is a RIFF RMID file wrapping a
// structurally valid SMF in its "data" chunk.
func Recognize(data []byte) bool {
	if len(data) < 20 {
		return false
	}
	if string(data[0:4]) != "RIFF" {
		return false
	}
	size := primitives.ReadU32LE(data[4:8])
	if size < 12 || uint64(len(data)) < uint64(size)+8 {
		return false
	}
	if string(data[8:12]) != "RMID" || string(data[12:16]) != "data" {
		return false
	}
	dataSize := primitives.ReadU32LE(data[16:20])
	if dataSize < 18 || uint64(len(data)) < uint64(dataSize)+20 || uint64(size) < uint64(dataSize)+12 {
		return false
	}
	return smf.Recognize(data[20:])
}

// Decode parses data as a RIFF RMID file.
func Decode(data []byte, smfOpts smf.Options) (*container.Container, error) {
	if !Recognize(data) {
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}

	size := int(primitives.ReadU32LE(data[4:8]))
	tail := 8 + size

	var c *container.Container
	foundData := false
	foundInfo := false
	var meta container.MetadataTable

	pos := 12
	for pos < tail {
		if tail-pos < 8 {
			return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
		}
		chunkID := string(data[pos : pos+4])
		chunkSize := int(primitives.ReadU32LE(data[pos+4 : pos+8]))
		if tail-pos < 8+chunkSize {
			return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
		}

		switch chunkID {
		case "data":
			if foundData {
				return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
			}
			inner, err := smf.Decode(data[pos+8:pos+8+chunkSize], smfOpts)
			if err != nil {
				return nil, decodeerror.New(decoderName, pos+8, err)
			}
			c = inner
			foundData = true

		case "DISP":
			if chunkSize >= 4 {
				dispType := primitives.ReadU32LE(data[pos+8 : pos+12])
				if dispType == cfText {
					name := string(data[pos+12 : pos+8+chunkSize])
					meta.Add(0, "display_name", name)
				}
			}

		case "LIST":
			if chunkSize < 4 {
				return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
			}
			if string(data[pos+8:pos+12]) == "INFO" {
				if foundInfo {
					return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
				}
				if c == nil {
					return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
				}
				if err := parseInfoList(data[pos+12:pos+8+chunkSize], c, &meta); err != nil {
					return nil, err
				}
				foundInfo = true
			}

		case "RIFF":
			if chunkSize >= 4 {
				kind := string(data[pos+8 : pos+12])
				if kind == "sfbk" || kind == "DLS " {
					if c == nil {
						return nil, decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
					}
					c.SoundFont = append([]byte(nil), data[pos:pos+8+chunkSize]...)
				}
			}
		}

		pos += 8 + chunkSize
		if chunkSize&1 != 0 && pos < tail {
			pos++
		}
	}

	if !foundData {
		return nil, decodeerror.New(decoderName, 0, decodeerror.ErrMalformedStructure)
	}
	c.Metadata = meta
	return c, nil
}

// parseInfoList walks a LIST INFO chunk's sub-items (past the "INFO" tag),
// resolving an IENC-declared code page before decoding text fields, and
// falls back to the product name as album when no IALB item is present.
func parseInfoList(body []byte, c *container.Container, meta *container.MetadataTable) error {
	codePage := findCodePage(body)

	foundAlbum := false
	var productName string

	pos := 0
	for pos < len(body) {
		if len(body)-pos < 8 {
			return decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
		}
		id := string(body[pos : pos+4])
		valueSize := int(primitives.ReadU32LE(body[pos+4 : pos+8]))
		if len(body)-pos < 8+valueSize {
			return decodeerror.New(decoderName, pos, decodeerror.ErrMalformedStructure)
		}
		raw := body[pos+8 : pos+8+valueSize]

		switch id {
		case "IENC":
			// consumed by findCodePage above.
		case "IPIC":
			meta.CoverArt = append([]byte(nil), raw...)
		case "DBNK":
			if valueSize == 2 {
				c.BankOffset = int(raw[0]) | int(raw[1])<<8
			}
		default:
			text := decodeInfoText(raw, codePage)
			if id == "IALB" {
				foundAlbum = true
			}
			if id == "IPRD" {
				productName = text
			}
			tag := id
			if mapped, ok := riffToTag[id]; ok {
				tag = mapped
			}
			meta.Add(0, tag, text)
		}

		pos += 8 + valueSize
		if valueSize&1 != 0 && pos < len(body) {
			pos++
		}
	}

	if !foundAlbum && productName != "" {
		meta.Add(0, "album", productName)
	}
	return nil
}

func findCodePage(body []byte) string {
	pos := 0
	for pos < len(body) {
		if len(body)-pos < 8 {
			return ""
		}
		id := string(body[pos : pos+4])
		valueSize := int(primitives.ReadU32LE(body[pos+4 : pos+8]))
		if len(body)-pos < 8+valueSize {
			return ""
		}
		if id == "IENC" {
			return string(body[pos+8 : pos+8+valueSize])
		}
		pos += 8 + valueSize
		if valueSize&1 != 0 && pos < len(body) {
			pos++
		}
	}
	return ""
}

func decodeInfoText(raw []byte, codePage string) string {
	if codePage != "" {
		if s, err := textenc.CodePageToUTF8(codePage, raw); err == nil {
			return s
		}
	}
	if s, err := textenc.CP437ToUTF8(raw); err == nil {
		return s
	}
	return string(raw)
}
