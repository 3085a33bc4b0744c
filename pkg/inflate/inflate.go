// Package inflate wraps the zlib decompressor behind a small interface, so
// the XMF decoder (the only consumer) depends on an abstraction rather than
// directly on the compress library, per spec.md §9 ("The target should wrap
// that dependency behind an inflater interface so the core is decoupled
// from the specific library").
package inflate

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Inflater decompresses a zlib or raw-deflate stream.
type Inflater interface {
	// Inflate decompresses src. sizeHint, when positive, preallocates the
	// output buffer (XMF's unpacker records the expected unpacked size).
	Inflate(src []byte, sizeHint int) ([]byte, error)
}

// ZlibInflater decompresses a standard zlib stream (2-byte header, Adler-32
// trailer), the XMF format's only supported unpacker per spec.md §4.5/§7
// ("non-zlib XMF unpackers" are an unsupported feature).
type ZlibInflater struct{}

// Inflate implements Inflater.
func (ZlibInflater) Inflate(src []byte, sizeHint int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, 0, sizeHint)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Default is the Inflater every decoder uses unless a caller substitutes
// one through xmf.Options.Inflater.
var Default Inflater = ZlibInflater{}
