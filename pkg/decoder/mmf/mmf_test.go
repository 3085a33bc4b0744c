package mmf

import (
	"testing"

	"github.com/zurustar/libmidi/pkg/container"
)

func u32be(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func mmfChunk(id string, body []byte) []byte {
	out := append([]byte(id), u32be(len(body))...)
	return append(out, body...)
}

func buildMMF(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := append([]byte("MMMD"), u32be(len(body))...)
	return append(out, body...)
}

func TestRecognize(t *testing.T) {
	data := buildMMF(mmfChunk("CNTI", []byte{0, 0, 0, 0, 0}))
	if !Recognize(data) {
		t.Fatalf("expected recognition")
	}
	if Recognize([]byte("not mmf")) {
		t.Fatalf("expected no recognition")
	}
}

func TestDecode_NotRecognized(t *testing.T) {
	if _, err := Decode([]byte("nope")); err == nil {
		t.Fatalf("expected error for non-MMF input")
	}
}

func cntiChunk(metadata string) []byte {
	header := []byte{0, 0, 0, 0, 0} // class, type, encoding(ASCII), copy status, copy count
	return mmfChunk("CNTI", append(header, []byte(metadata)...))
}

func hpsTrack(formatType byte, subChunks ...[]byte) []byte {
	header := []byte{formatType, 0x00, 0x00, 0x00, 0x00, 0x00} // format, channelStatusKind?, durationBase, gateTimeBase, ...
	var body []byte
	for _, s := range subChunks {
		body = append(body, s...)
	}
	return append(header, body...)
}

// minimalMTR is an empty setup track, just enough to satisfy Decode's
// at-least-one-track requirement for tests that only care about metadata.
func minimalMTR() []byte {
	return mmfChunk("MTR1", hpsTrack(formatHPS, mmfChunk("Mtsu", []byte{0x00, 0x00, 0x00, 0x00})))
}

func TestDecode_CNTIMetadata(t *testing.T) {
	data := buildMMF(cntiChunk("ST:My Song,AN:Some Artist,"), minimalMTR())

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var title, artist string
	for _, e := range c.Metadata.Entries {
		switch e.Name {
		case "title":
			title = e.Value
		case "artist":
			artist = e.Value
		}
	}
	if title != "My Song" {
		t.Errorf("title = %q, want My Song", title)
	}
	if artist != "Some Artist" {
		t.Errorf("artist = %q, want Some Artist", artist)
	}
}

func TestDecode_CNTIMetadataEscaped(t *testing.T) {
	data := buildMMF(cntiChunk(`ST:A\,B,`), minimalMTR())

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var title string
	for _, e := range c.Metadata.Entries {
		if e.Name == "title" {
			title = e.Value
		}
	}
	if title != "A,B" {
		t.Errorf("title = %q, want A,B", title)
	}
}

func TestDecode_OPDAMetadata(t *testing.T) {
	dch := mmfChunk("Dch1", []byte("hello"))
	data := buildMMF(cntiChunk(""), mmfChunk("OPDA", dch), minimalMTR())

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range c.Metadata.Entries {
		if e.Name == "opda_Dch1" && e.Value == "hello" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected opda_Dch1 metadata entry, got %+v", c.Metadata.Entries)
	}
}

func TestDecode_HPSSetupTrackPrependsXGSystemOn(t *testing.T) {
	setup := hpsTrack(formatHPS, mmfChunk("Mtsu", []byte{0x00, 0x00, 0x00, 0x00}))
	data := buildMMF(cntiChunk(""), mmfChunk("MTR1", setup))

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(c.Tracks))
	}
	ev := c.Tracks[0].Events[0]
	if ev.Kind != container.Extended || len(ev.Data) < 1 || ev.Data[0] != 0xF0 {
		t.Fatalf("first event = %+v, want a sysex event", ev)
	}
}

func TestDecode_HPSSequenceNoteEvents(t *testing.T) {
	// duration 5, then a note byte (channel 0, octave 1, pitch 0), then a
	// gate time of 5, then the 4-zero-byte end-of-sequence marker.
	seq := []byte{0x05, 0x10, 0x05, 0x00, 0x00, 0x00, 0x00}
	track := hpsTrack(formatHPS, mmfChunk("Mtsq", seq))
	data := buildMMF(cntiChunk(""), mmfChunk("MTR1", track))

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(c.Tracks))
	}
	tr := c.Tracks[0]
	if len(tr.Events) < 2 {
		t.Fatalf("events = %d, want at least 2", len(tr.Events))
	}
	if !tr.Events[0].IsNote() {
		t.Errorf("event 0 = %+v, want a note event", tr.Events[0])
	}
}

func TestDecode_HPSChannelStatusProgramChange(t *testing.T) {
	// duration 5, then the channel-status marker (0x00), then 0x30
	// (full-form program change, channel 0) with arg 0x07.
	seq := []byte{0x05, 0x00, 0x30, 0x07, 0x00, 0x00, 0x00, 0x00}
	track := hpsTrack(formatHPS, mmfChunk("Mtsq", seq))
	data := buildMMF(cntiChunk(""), mmfChunk("MTR1", track))

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range c.Tracks[0].Events {
		if e.Kind == container.ProgramChange {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a ProgramChange event, got %+v", c.Tracks[0].Events)
	}
}

func TestDecode_HPSChannelStatusCompressedExpression(t *testing.T) {
	// duration 5, then the channel-status marker (0x00), then 0x00 (the
	// compressed-Expression sub-type, channel 0, lookup index 0).
	seq := []byte{0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	track := hpsTrack(formatHPS, mmfChunk("Mtsq", seq))
	data := buildMMF(cntiChunk(""), mmfChunk("MTR1", track))

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range c.Tracks[0].Events {
		if e.Kind == container.ControlChange {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a ControlChange event, got %+v", c.Tracks[0].Events)
	}
}

func TestDecode_HPSExclusiveFallsBackToRawSysEx(t *testing.T) {
	// duration 5, then an 0xFF 0xF0 exclusive-event marker wrapping an
	// unrecognized 5-byte SysEx body (0xF0 0x03 0xAA 0xBB 0xF7), then the
	// 4-zero-byte end-of-sequence marker.
	seq := []byte{0x05, 0xFF, 0xF0, 0x03, 0xAA, 0xBB, 0xF7, 0x00, 0x00, 0x00, 0x00}
	track := hpsTrack(formatHPS, mmfChunk("Mtsq", seq))
	data := buildMMF(cntiChunk(""), mmfChunk("MTR1", track))

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := c.Tracks[0].Events[0]
	if len(c.Tracks[0].Events) == 0 || ev.Kind != container.Extended || len(ev.Data) < 1 || ev.Data[0] != 0xF0 {
		t.Fatalf("expected a sysex event, got %+v", c.Tracks[0].Events)
	}
}

func TestParseHPSExclusiveFM_TwoOperator(t *testing.T) {
	data := make([]byte, 8+5*2)
	data[0] = 0x12
	data[1] = 0x43
	data[2] = 0x03
	data[7] = 0x01

	chp, opp, ok := parseHPSExclusiveFM(data)
	if !ok {
		t.Fatalf("expected successful parse")
	}
	if chp.alg > 1 {
		t.Errorf("2-operator voice should not use a 4-operator algorithm, got %d", chp.alg)
	}

	voice := buildMA3Exclusive(chp, opp)
	if voice[0] != 0xF0 || voice[len(voice)-1] != 0xF7 {
		t.Errorf("expected a well-formed SysEx, got % x", voice)
	}
	if len(voice) != 0x20 {
		t.Errorf("2-operator voice length = %d, want 0x20", len(voice))
	}
}

func TestParseHPSExclusiveFM_RejectsDrumAssignment(t *testing.T) {
	data := make([]byte, 8+5*2)
	data[0] = 0x12
	data[1] = 0x43
	data[2] = 0x03
	data[7] = 0x01
	data[4] = 0x80

	if _, _, ok := parseHPSExclusiveFM(data); ok {
		t.Fatalf("expected drum assignment to be rejected")
	}
}

func TestParseHPSExclusiveFM_RejectsShortBuffer(t *testing.T) {
	data := []byte{0x1C, 0x43, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01}
	if _, _, ok := parseHPSExclusiveFM(data); ok {
		t.Fatalf("expected a too-short 4-operator voice to be rejected")
	}
}
