package container

import "testing"

func TestSerializeAsStream_MergesByAscendingTick(t *testing.T) {
	c := New(1, 480)
	c.AddTrack(&Track{}) // meta track, empty

	t1 := &Track{}
	t1.Append(NoteOnEvent(100, 0, 60, 100))
	c.AddTrack(t1)

	t2 := &Track{}
	t2.Append(NoteOnEvent(50, 1, 62, 100))
	c.AddTrack(t2)

	res := c.SerializeAsStream(0, 0)

	if len(res.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(res.Messages))
	}
	if res.Messages[0].TimeMs > res.Messages[1].TimeMs {
		t.Errorf("messages not in ascending time order: %v", res.Messages)
	}
}

func TestSerializeAsStream_VoiceMessagePacking(t *testing.T) {
	c := New(1, 480)
	tr := &Track{}
	tr.Append(NoteOnEvent(0, 2, 60, 100))
	c.AddTrack(tr)

	res := c.SerializeAsStream(0, 0)
	if len(res.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(res.Messages))
	}
	status := byte(res.Messages[0].Data)
	d1 := byte(res.Messages[0].Data >> 8)
	d2 := byte(res.Messages[0].Data >> 16)
	if status != 0x92 {
		t.Errorf("status byte = %#x, want 0x92", status)
	}
	if d1 != 60 || d2 != 100 {
		t.Errorf("data bytes = (%d, %d), want (60, 100)", d1, d2)
	}
}

func TestSerializeAsStream_SysExReferencesTableIndex(t *testing.T) {
	c := New(1, 480)
	tr := &Track{}
	tr.Append(SysExEvent(0, []byte{0x41, 0x10, 0xF7}))
	c.AddTrack(tr)

	res := c.SerializeAsStream(0, 0)
	if len(res.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(res.Messages))
	}
	if res.Messages[0].Data&0x80000000 == 0 {
		t.Errorf("SysEx message should have the high bit set")
	}
	if res.SysEx.Len() != 1 {
		t.Errorf("SysEx.Len() = %d, want 1", res.SysEx.Len())
	}
}

func TestSerializeAsStream_CleanInstrumentsDropsProgramChange(t *testing.T) {
	c := New(1, 480)
	tr := &Track{}
	tr.Append(ProgramChangeEvent(0, 0, 40))
	tr.Append(NoteOnEvent(10, 0, 60, 100))
	c.AddTrack(tr)

	res := c.SerializeAsStream(0, CleanInstruments)
	if len(res.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1 (ProgramChange dropped)", len(res.Messages))
	}
}

func TestSerializeAsStream_CleanBanksDropsBankSelect(t *testing.T) {
	c := New(1, 480)
	tr := &Track{}
	tr.Append(ControlChangeEvent(0, 0, 0, 1))
	tr.Append(ControlChangeEvent(0, 0, 32, 2))
	tr.Append(NoteOnEvent(10, 0, 60, 100))
	c.AddTrack(tr)

	res := c.SerializeAsStream(0, CleanBanks)
	if len(res.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1 (bank select dropped)", len(res.Messages))
	}
}

func TestSerializeAsStream_CleanEMIDIDropsDesignatedTrack(t *testing.T) {
	c := New(1, 480)
	c.AddTrack(&Track{})

	emidi := &Track{}
	emidi.Append(ControlChangeEvent(0, 0, 110, 5))
	emidi.Append(NoteOnEvent(10, 0, 60, 100))
	c.AddTrack(emidi)

	plain := &Track{}
	plain.Append(NoteOnEvent(20, 1, 62, 100))
	c.AddTrack(plain)

	res := c.SerializeAsStream(0, CleanEMIDI)
	for _, m := range res.Messages {
		if byte(m.Data>>8) == 60 {
			t.Errorf("EMIDI-designated track's events should have been dropped entirely")
		}
	}
}

func TestSerializeAsStream_LoopIndicesReportMinusOneWithoutLoop(t *testing.T) {
	c := New(1, 480)
	tr := &Track{}
	tr.Append(NoteOnEvent(0, 0, 60, 100))
	c.AddTrack(tr)

	res := c.SerializeAsStream(0, 0)
	if res.LoopBeginIndex != -1 || res.LoopEndIndex != -1 {
		t.Errorf("loop indices = (%d, %d), want (-1, -1) with no loop configured",
			res.LoopBeginIndex, res.LoopEndIndex)
	}
}

func TestSerializeAsStream_LoopIndicesResolveToMessageOffsets(t *testing.T) {
	c := New(1, 480)
	tr := &Track{}
	tr.Append(NoteOnEvent(0, 0, 60, 100))
	tr.Append(NoteOnEvent(100, 0, 62, 100))
	tr.Append(NoteOnEvent(200, 0, 64, 100))
	c.AddTrack(tr)
	c.LoopRanges[0].SetBegin(100)
	c.LoopRanges[0].SetEnd(200)

	res := c.SerializeAsStream(0, 0)
	if res.LoopBeginIndex != 1 {
		t.Errorf("LoopBeginIndex = %d, want 1", res.LoopBeginIndex)
	}
	if res.LoopEndIndex != -1 {
		// loop end tick 200 has no message strictly after it in this fixture
		t.Errorf("LoopEndIndex = %d, want -1 (no message after loop end tick)", res.LoopEndIndex)
	}
}

func TestSerializeAsStream_DeviceNameResolvesPort(t *testing.T) {
	c := New(1, 480)
	c.RegisterDeviceName(0, "mt-32", 3)

	tr := &Track{}
	tr.Append(MetaEvent(0, 0x04, []byte("MT-32")))
	tr.Append(NoteOnEvent(10, 0, 60, 100))
	c.AddTrack(tr)

	res := c.SerializeAsStream(0, 0)
	if len(res.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(res.Messages))
	}
	port := byte(res.Messages[0].Data >> 24)
	if port != 3 {
		t.Errorf("resolved port = %d, want 3", port)
	}
}
