package container

import "testing"

func TestTempoMap_DefaultTempoBeforeFirstEntry(t *testing.T) {
	m := NewTempoMap()
	m.SetDivision(480)

	// 120 BPM, 480 ticks/quarter: 500000us/quarter / 480 ticks = 1041.666us/tick
	got := m.TickToMs(480)
	want := 500.0
	if diff := got - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("TickToMs(480) = %v, want ~%v", got, want)
	}
}

func TestTempoMap_EmptyMapUsesDefaultTempoThroughout(t *testing.T) {
	m := NewTempoMap()
	m.SetDivision(480)

	got := m.TickToMs(960)
	want := 1000.0
	if diff := got - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("TickToMs(960) = %v, want ~%v", got, want)
	}
}

func TestTempoMap_AfterTempoChange(t *testing.T) {
	m := NewTempoMap()
	m.SetDivision(480)
	m.Insert(480, 1000000) // 60 BPM starting at tick 480

	at480 := m.TickToMs(480)
	if diff := at480 - 500.0; diff > 0.01 || diff < -0.01 {
		t.Fatalf("TickToMs(480) = %v, want ~500", at480)
	}

	at960 := m.TickToMs(960)
	want := 500.0 + 1000.0 // 480 more ticks at 1000000us/quarter / 480 ticks-per-quarter = 2083.33us/tick * 480
	if diff := at960 - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("TickToMs(960) = %v, want ~%v", at960, want)
	}
}

func TestTempoMap_InsertReplacesExistingTick(t *testing.T) {
	m := NewTempoMap()
	m.Insert(0, 500000)
	m.Insert(0, 1000000)

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	_, micros := m.At(0)
	if micros != 1000000 {
		t.Errorf("At(0) micros = %d, want 1000000", micros)
	}
}

func TestTempoMap_InsertKeepsSortedOrder(t *testing.T) {
	m := NewTempoMap()
	m.Insert(200, 1)
	m.Insert(100, 2)
	m.Insert(300, 3)

	var lastTick uint32
	for i := 0; i < m.Len(); i++ {
		tick, _ := m.At(i)
		if i > 0 && tick < lastTick {
			t.Fatalf("entries not sorted: entry %d has tick %d after %d", i, tick, lastTick)
		}
		lastTick = tick
	}
}
