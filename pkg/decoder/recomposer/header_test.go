package recomposer

import "testing"

func TestDetectKind(t *testing.T) {
	v2 := append([]byte(magicV2), make([]byte, 32)...)
	v3 := append([]byte(magicV3), make([]byte, 32)...)

	cm6 := make([]byte, 0x20)
	copy(cm6, magicCtrl)
	copy(cm6[0x0E:], magicCM6)

	gsd := make([]byte, 0x20)
	copy(gsd, magicCtrl)
	copy(gsd[0x0E:], magicGSD)

	cases := []struct {
		name string
		data []byte
		want FileKind
	}{
		{"v2", v2, KindRCPv2},
		{"v3", v3, KindRCPv3},
		{"cm6", cm6, KindCM6},
		{"gsd", gsd, KindGSD},
		{"too short", []byte("RCM-PC98"), KindUnknown},
		{"unrelated", make([]byte, 0x20), KindUnknown},
	}
	for _, tc := range cases {
		if got := DetectKind(tc.data); got != tc.want {
			t.Errorf("%s: DetectKind() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSanitizeHeader(t *testing.T) {
	h := &header{trackCount: 0, tempoBPM: 4, keySignature: 40, transposition: 50}
	sanitizeHeader(h)
	if h.trackCount != 18 {
		t.Errorf("trackCount = %d, want 18", h.trackCount)
	}
	if h.tempoBPM != 120 {
		t.Errorf("tempoBPM = %d, want 120", h.tempoBPM)
	}
	if h.keySignature != 0 {
		t.Errorf("keySignature = %d, want 0", h.keySignature)
	}
	if h.transposition != 0 {
		t.Errorf("transposition = %d, want 0", h.transposition)
	}

	h2 := &header{trackCount: 4, tempoBPM: 140, keySignature: 3, transposition: -12}
	sanitizeHeader(h2)
	if h2.trackCount != 4 || h2.tempoBPM != 140 || h2.keySignature != 3 || h2.transposition != -12 {
		t.Errorf("sanitizeHeader changed valid values: %+v", h2)
	}
}

const v2HeaderSize = 0x1E8 + 0x0E + 0x10 + 32*16
const v2TracksOffset = v2HeaderSize + 8*(24+24)

// buildMinimalV2Header returns a v2 header buffer (without any track data)
// sized exactly up to tracksOffset, with title/tempo/division/track count
// set and everything else zeroed.
func buildMinimalV2Header(title string, trackCount, ticksPerQuarter, tempoBPM, tsNum, tsDenom int) []byte {
	buf := make([]byte, v2TracksOffset)
	copy(buf, magicV2)
	copy(buf[0x020:], title)
	buf[0x1C0] = byte(ticksPerQuarter)
	buf[0x1E7] = byte(ticksPerQuarter >> 8)
	buf[0x1C1] = byte(tempoBPM)
	buf[0x1C2] = byte(tsNum)
	buf[0x1C3] = byte(tsDenom)
	buf[0x1E6] = byte(trackCount)
	return buf
}

func TestParseHeaderV2(t *testing.T) {
	buf := buildMinimalV2Header("My Song", 1, 96, 120, 4, 4)
	h, err := parseHeaderV2(buf)
	if err != nil {
		t.Fatalf("parseHeaderV2 failed: %v", err)
	}
	if h.title != "My Song" {
		t.Errorf("title = %q, want %q", h.title, "My Song")
	}
	if h.ticksPerQuarter != 96 {
		t.Errorf("ticksPerQuarter = %d, want 96", h.ticksPerQuarter)
	}
	if h.tempoBPM != 120 {
		t.Errorf("tempoBPM = %d, want 120", h.tempoBPM)
	}
	if h.trackCount != 1 {
		t.Errorf("trackCount = %d, want 1", h.trackCount)
	}
	if h.tracksOffset != v2TracksOffset {
		t.Errorf("tracksOffset = %d, want %d", h.tracksOffset, v2TracksOffset)
	}
}

func TestParseHeaderV2_Truncated(t *testing.T) {
	buf := buildMinimalV2Header("x", 1, 96, 120, 4, 4)
	buf = buf[:v2HeaderSize-1]
	if _, err := parseHeaderV2(buf); err == nil {
		t.Errorf("parseHeaderV2 should fail on a truncated header")
	}
}
