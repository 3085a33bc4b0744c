package smf

import (
	"bytes"
	"testing"

	"github.com/zurustar/libmidi/pkg/container"
)

func TestRecognize_ValidHeader(t *testing.T) {
	data := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x60,
		'M', 'T', 'r', 'k',
	}
	if !Recognize(data) {
		t.Errorf("Recognize() = false, want true")
	}
}

func TestRecognize_RejectsFormatAbove2(t *testing.T) {
	data := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x03, 0x00, 0x01, 0x00, 0x60,
		'M', 'T', 'r', 'k',
	}
	if Recognize(data) {
		t.Errorf("Recognize() = true, want false for format 3")
	}
}

func TestRecognize_RejectsFormat0WithMultipleTracks(t *testing.T) {
	data := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, 0x00, 0x02, 0x00, 0x60,
		'M', 'T', 'r', 'k',
	}
	if Recognize(data) {
		t.Errorf("Recognize() = true, want false for format 0 with 2 tracks")
	}
}

func TestRecognize_RejectsZeroDivision(t *testing.T) {
	data := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00,
		'M', 'T', 'r', 'k',
	}
	if Recognize(data) {
		t.Errorf("Recognize() = true, want false for zero division")
	}
}

func buildSMF(format, division int, trackBodies ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("MThd")
	buf.Write([]byte{0x00, 0x00, 0x00, 0x06})
	buf.Write([]byte{byte(format >> 8), byte(format)})
	buf.Write([]byte{byte(len(trackBodies) >> 8), byte(len(trackBodies))})
	buf.Write([]byte{byte(division >> 8), byte(division)})
	for _, body := range trackBodies {
		buf.WriteString("MTrk")
		n := len(body)
		buf.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
		buf.Write(body)
	}
	return buf.Bytes()
}

func TestDecode_MinimalSMF(t *testing.T) {
	data := []byte{
		0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x60,
		0x4D, 0x54, 0x72, 0x6B, 0x00, 0x00, 0x00, 0x0B,
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, 0x00, 0xFF, 0x2F, 0x00,
	}

	c, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c.Format != 0 {
		t.Errorf("Format = %d, want 0", c.Format)
	}
	if len(c.Tracks) != 1 {
		t.Fatalf("len(Tracks) = %d, want 1", len(c.Tracks))
	}
	if c.Division != 96 {
		t.Errorf("Division = %d, want 96", c.Division)
	}
	if c.DurationTicks(0) != 0 {
		t.Errorf("DurationTicks(0) = %d, want 0", c.DurationTicks(0))
	}
	if c.DurationMs(0) != 0 {
		t.Errorf("DurationMs(0) = %v, want 0", c.DurationMs(0))
	}
	if c.TempoMaps[0].Len() != 1 {
		t.Fatalf("tempo map len = %d, want 1", c.TempoMaps[0].Len())
	}
	tick, micros := c.TempoMaps[0].At(0)
	if tick != 0 || micros != 500000 {
		t.Errorf("tempo entry = (%d, %d), want (0, 500000)", tick, micros)
	}
}

func TestDecode_SingleNoteWithRunningStatus(t *testing.T) {
	body := []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x60, 0x3C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := buildSMF(0, 96, body)

	c, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	events := c.Tracks[0].Events
	if len(events) != 3 {
		t.Fatalf("len(Events) = %d, want 3", len(events))
	}
	if events[0].Kind != container.NoteOn || events[0].Tick != 0 || events[0].Note() != 60 || events[0].Velocity() != 100 {
		t.Errorf("Events[0] = %+v, want NoteOn(tick=0, note=60, vel=100)", events[0])
	}
	if events[1].Kind != container.NoteOn || events[1].Tick != 96 || events[1].Note() != 60 || events[1].Velocity() != 0 {
		t.Errorf("Events[1] = %+v, want NoteOn(tick=96, note=60, vel=0) via running status", events[1])
	}
	if !events[2].IsEndOfTrack() || events[2].Tick != 96 {
		t.Errorf("Events[2] = %+v, want end-of-track at tick 96", events[2])
	}
}

func TestDecode_TruncatedTrackFailsWhenEndOfTrackRequired(t *testing.T) {
	body := []byte{0x00, 0x90, 0x3C} // missing the velocity byte
	data := buildSMF(0, 96, body)

	opts := DefaultOptions()
	if _, err := Decode(data, opts); err == nil {
		t.Errorf("Decode should fail on a truncated track when IsEndOfTrackRequired is true")
	}
}

func TestDecode_MissingEndOfTrackToleratedWhenNotRequired(t *testing.T) {
	body := []byte{0x00, 0x90, 0x3C, 0x64}
	data := buildSMF(0, 96, body)

	opts := Options{IsEndOfTrackRequired: false, DetectExtraPercussionChannel: true}
	c, err := Decode(data, opts)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	events := c.Tracks[0].Events
	if len(events) != 2 || !events[1].IsEndOfTrack() {
		t.Fatalf("expected a synthesized end-of-track event, got %+v", events)
	}
}

func TestDecode_DataByteBeforeStatusFails(t *testing.T) {
	body := []byte{0x00, 0x3C, 0x64}
	data := buildSMF(0, 96, body)

	if _, err := Decode(data, DefaultOptions()); err == nil {
		t.Errorf("Decode should fail on a data byte before any status byte")
	}
}

func TestDecode_SysExSplitAcrossContinuationPackets(t *testing.T) {
	body := []byte{
		0x00, 0xF0, 0x02, 0x41, 0x10, // F0 starts, 2 bytes, no F7 yet
		0x00, 0xF7, 0x02, 0x42, 0xF7, // continuation completes the message
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := buildSMF(0, 96, body)

	c, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	events := c.Tracks[0].Events
	if len(events) != 2 {
		t.Fatalf("len(Events) = %d, want 2 (merged sysex + end-of-track)", len(events))
	}
	if !events[0].IsSysEx() {
		t.Fatalf("Events[0] is not a SysEx event: %+v", events[0])
	}
	want := []byte{0xF0, 0x41, 0x10, 0x42, 0xF7}
	if !bytes.Equal(events[0].Data, want) {
		t.Errorf("merged sysex = % X, want % X", events[0].Data, want)
	}
}
