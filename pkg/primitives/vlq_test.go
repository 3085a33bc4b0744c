package primitives

import "testing"

func TestEncodeVLQ(t *testing.T) {
	tests := []struct {
		n    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		got := EncodeVLQ(tt.n)
		if string(got) != string(tt.want) {
			t.Errorf("EncodeVLQ(%#x) = % X, want % X", tt.n, got, tt.want)
		}
	}
}

func TestDecodeVLQTolerant(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x40}, 0x40},
		{[]byte{0x81, 0x00}, 0x80},
		{[]byte{0xFF, 0x7F}, 0x3FFF},
		{[]byte{0x81, 0x80, 0x00}, 0x4000},
	}
	for _, tt := range tests {
		got := DecodeVLQTolerant(NewCursor(tt.in))
		if got != tt.want {
			t.Errorf("DecodeVLQTolerant(% X) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestDecodeVLQTolerant_Exhausted(t *testing.T) {
	got := DecodeVLQTolerant(NewCursor([]byte{0x81, 0x80}))
	if got != 0 {
		t.Errorf("expected 0 on exhaustion, got %#x", got)
	}
}

func TestDecodeVLQStrict_Exhausted(t *testing.T) {
	_, err := DecodeVLQStrict(NewCursor([]byte{0x81}))
	if err != ErrExhausted {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}

func TestVLQRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, 0x0FFFFFFF} {
		enc := EncodeVLQ(n)
		got, err := DecodeVLQStrict(NewCursor(enc))
		if err != nil {
			t.Fatalf("decode of encode(%#x) failed: %v", n, err)
		}
		if got != n {
			t.Errorf("round trip failed for %#x: got %#x", n, got)
		}
		for i, b := range enc {
			if i < len(enc)-1 && b&0x80 == 0 {
				t.Errorf("EncodeVLQ(%#x): non-terminal byte %d has high bit clear", n, i)
			}
			if i == len(enc)-1 && b&0x80 != 0 {
				t.Errorf("EncodeVLQ(%#x): terminal byte has high bit set", n)
			}
		}
	}
}
