package gmf

import (
	"testing"

	"github.com/zurustar/libmidi/pkg/decoder/smf"
)

func buildGMF(tempo uint16, trackBody []byte) []byte {
	header := make([]byte, 7)
	header[0], header[1], header[2], header[3] = 'G', 'M', 'F', 1
	header[4] = byte(tempo >> 8)
	header[5] = byte(tempo)
	header[6] = 0
	return append(header, trackBody...)
}

func TestRecognize(t *testing.T) {
	data := buildGMF(120, []byte{0x00, 0xFF, 0x2F, 0x00})
	if !Recognize(data) {
		t.Fatalf("expected recognition")
	}
	if Recognize([]byte("not gmf")) {
		t.Fatalf("expected no recognition")
	}
}

func TestDecode(t *testing.T) {
	// Bare track body: delta 0, NoteOn ch0 note60 vel100, delta 0, EOT.
	body := []byte{0x00, 0x90, 60, 100, 0x00, 0xFF, 0x2F, 0x00}
	data := buildGMF(500, body)

	c, err := Decode(data, smf.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2 (director + score)", len(c.Tracks))
	}
	director := c.Tracks[0]
	if len(director.Events) != 3 {
		t.Fatalf("director events = %d, want 3 (tempo, sysex, EOT)", len(director.Events))
	}
	if !director.Events[0].IsSetTempo() {
		t.Errorf("director event 0 = %+v, want SetTempo", director.Events[0])
	}
	if !director.Events[1].IsSysEx() {
		t.Errorf("director event 1 = %+v, want SysEx", director.Events[1])
	}

	score := c.Tracks[1]
	if len(score.Events) != 2 || score.Events[0].Kind != 1 {
		t.Fatalf("score events = %+v", score.Events)
	}
}
