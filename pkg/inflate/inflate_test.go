package inflate

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestZlibInflater_RoundTrip(t *testing.T) {
	want := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, repeated for compressibility")
	compressed := zlibCompress(t, want)

	got, err := (ZlibInflater{}).Inflate(compressed, len(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestZlibInflater_NotZlib(t *testing.T) {
	if _, err := (ZlibInflater{}).Inflate([]byte{0x00, 0x01, 0x02}, 0); err == nil {
		t.Fatalf("expected error for non-zlib input")
	}
}
