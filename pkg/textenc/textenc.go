// Package textenc converts the legacy, format-declared text encodings this
// module's decoders encounter (Shift-JIS for RCP, CP 437 or an
// IENC-declared Windows code page for RIFF) into the UTF-8 the Container
// stores everything as. It follows the teacher's own
// transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder())
// pattern (cmd/son-et/main.go, pkg/title/title.go), generalized from a
// single hardcoded encoding to the small set this module's formats declare.
package textenc

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ShiftJISToUTF8 decodes b as Shift-JIS and returns the UTF-8 text, the way
// RCP title/comment/track-name fields are declared. Invalid sequences are
// replaced rather than failing the decode, since a garbled title is a
// tolerable anomaly, not a fatal one.
func ShiftJISToUTF8(b []byte) (string, error) {
	return decodeWith(b, japanese.ShiftJIS.NewDecoder())
}

// CP437ToUTF8 decodes b as IBM code page 437, RIFF's fallback encoding when
// no IENC chunk names one.
func CP437ToUTF8(b []byte) (string, error) {
	return decodeWith(b, charmap.CodePage437.NewDecoder())
}

// CodePageToUTF8 decodes b using the Windows/IANA code page named by
// codePage (e.g. "windows-1252", or a numeric Windows code page id as a
// string, e.g. "1252"), following RIFF's IENC chunk convention of naming a
// code page by its Windows identifier.
func CodePageToUTF8(codePage string, b []byte) (string, error) {
	enc, err := lookupEncoding(codePage)
	if err != nil {
		return "", err
	}
	return decodeWith(b, enc.NewDecoder())
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding("windows-" + name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("textenc: unknown code page %q", name)
}

func decodeWith(b []byte, dec transform.Transformer) (string, error) {
	r := transform.NewReader(bytes.NewReader(b), dec)
	out, err := io.ReadAll(r)
	if err != nil {
		return string(b), err
	}
	return string(out), nil
}

// WindowsCodePageName maps a RIFF IENC numeric Windows code page identifier
// (e.g. 1252, 932) to the name ianaindex expects. RIFF's GetCodePageFromEncoding
// equivalent: IENC carries a decimal ASCII string naming the code page.
func WindowsCodePageName(codePage uint32) string {
	return fmt.Sprintf("windows-%d", codePage)
}
