package container

import (
	"bytes"
	"testing"
)

func TestSerializeAsSMF_HeaderFields(t *testing.T) {
	c := New(1, 480)
	c.AddTrack(&Track{})
	tr := &Track{}
	tr.Append(EndOfTrackEvent(0))
	c.AddTrack(tr)

	out := c.SerializeAsSMF()

	if !bytes.HasPrefix(out, []byte("MThd")) {
		t.Fatalf("output does not start with MThd chunk")
	}
	if out[4] != 0 || out[5] != 0 || out[6] != 0 || out[7] != 6 {
		t.Errorf("MThd length field wrong: % X", out[4:8])
	}
	format := int(out[8])<<8 | int(out[9])
	if format != 1 {
		t.Errorf("format field = %d, want 1", format)
	}
	ntrks := int(out[10])<<8 | int(out[11])
	if ntrks != 2 {
		t.Errorf("ntrks field = %d, want 2", ntrks)
	}
	division := int(out[12])<<8 | int(out[13])
	if division != 480 {
		t.Errorf("division field = %d, want 480", division)
	}
}

func TestSerializeAsSMF_RunningStatusOmitsRepeatedStatusByte(t *testing.T) {
	tr := &Track{}
	tr.Append(NoteOnEvent(0, 0, 60, 100))
	tr.Append(NoteOnEvent(10, 0, 64, 100))
	body := serializeTrackSMF(tr)

	// delta(0) + status 0x90 + note + vel, then delta(10) + note + vel (no status byte).
	want := []byte{0x00, 0x90, 60, 100, 10, 64, 100}
	if !bytes.Equal(body, want) {
		t.Errorf("serializeTrackSMF = % X, want % X", body, want)
	}
}

func TestSerializeAsSMF_ChannelChangeEmitsNewStatusByte(t *testing.T) {
	tr := &Track{}
	tr.Append(NoteOnEvent(0, 0, 60, 100))
	tr.Append(NoteOnEvent(0, 1, 64, 100))
	body := serializeTrackSMF(tr)

	want := []byte{0x00, 0x90, 60, 100, 0x00, 0x91, 64, 100}
	if !bytes.Equal(body, want) {
		t.Errorf("serializeTrackSMF = % X, want % X", body, want)
	}
}

func TestSerializeAsSMF_SysExFraming(t *testing.T) {
	tr := &Track{}
	tr.Append(SysExEvent(0, []byte{0x41, 0x10, 0xF7}))
	body := serializeTrackSMF(tr)

	want := []byte{0x00, 0xF0, 0x03, 0x41, 0x10, 0xF7}
	if !bytes.Equal(body, want) {
		t.Errorf("serializeTrackSMF = % X, want % X", body, want)
	}
}

func TestSerializeAsSMF_MetaFraming(t *testing.T) {
	tr := &Track{}
	tr.Append(MetaEvent(0, 0x03, []byte("abc")))
	body := serializeTrackSMF(tr)

	want := []byte{0x00, 0xFF, 0x03, 0x03, 'a', 'b', 'c'}
	if !bytes.Equal(body, want) {
		t.Errorf("serializeTrackSMF = % X, want % X", body, want)
	}
}

func TestSerializeAsSMF_ExtendedEventBreaksRunningStatus(t *testing.T) {
	tr := &Track{}
	tr.Append(NoteOnEvent(0, 0, 60, 100))
	tr.Append(MetaEvent(0, 0x01, []byte("x")))
	tr.Append(NoteOnEvent(0, 0, 62, 100))
	body := serializeTrackSMF(tr)

	want := []byte{
		0x00, 0x90, 60, 100,
		0x00, 0xFF, 0x01, 0x01, 'x',
		0x00, 0x90, 62, 100, // status re-emitted even though it's the same as before
	}
	if !bytes.Equal(body, want) {
		t.Errorf("serializeTrackSMF = % X, want % X", body, want)
	}
}
