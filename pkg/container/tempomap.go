package container

import "github.com/zurustar/libmidi/pkg/primitives"

type tempoEntry struct {
	Tick   uint32
	Micros int
}

// TempoMap is a tick-ordered list of (tick, microseconds-per-quarter-note)
// pairs. It answers tick-to-millisecond queries using the default tempo
// (120 BPM) until its first entry.
//
// The per-entry cumulative millisecond offset is cached the way a
// TickCalculator precalculates sampleAtTempo, and invalidated on the next
// Insert.
type TempoMap struct {
	entries  []tempoEntry
	msAt     []float64
	stale    bool
	division int
}

// NewTempoMap returns an empty tempo map.
func NewTempoMap() *TempoMap {
	return &TempoMap{}
}

// Insert adds or replaces the tempo at tick, keeping entries sorted by
// tick. A pair with an existing tick replaces the prior value there.
func (m *TempoMap) Insert(tick uint32, micros int) {
	m.stale = true
	for i, e := range m.entries {
		if e.Tick == tick {
			m.entries[i].Micros = micros
			return
		}
		if e.Tick > tick {
			m.entries = append(m.entries, tempoEntry{})
			copy(m.entries[i+1:], m.entries[i:])
			m.entries[i] = tempoEntry{Tick: tick, Micros: micros}
			return
		}
	}
	m.entries = append(m.entries, tempoEntry{Tick: tick, Micros: micros})
}

// Len returns the number of tempo entries.
func (m *TempoMap) Len() int { return len(m.entries) }

// Division returns the configured ticks-per-quarter-note.
func (m *TempoMap) Division() int { return m.division }

// At returns the tick and microseconds-per-quarter of the i-th entry.
func (m *TempoMap) At(i int) (tick uint32, micros int) {
	e := m.entries[i]
	return e.Tick, e.Micros
}

// recalculate fills msAt[i] with the absolute millisecond offset of
// entries[i].Tick from tick 0, assuming the default tempo for any span
// before the first entry (the Open Question decision in DESIGN.md).
func (m *TempoMap) recalculate() {
	m.msAt = make([]float64, len(m.entries))
	if len(m.entries) == 0 {
		m.stale = false
		return
	}
	div := defaultDivision(m)
	defaultMsPerTick := float64(primitives.DefaultMicrosPerQuarter) / 1000.0 / float64(div)
	m.msAt[0] = float64(m.entries[0].Tick) * defaultMsPerTick
	for i := 1; i < len(m.entries); i++ {
		prev := m.entries[i-1]
		ticks := float64(m.entries[i].Tick - prev.Tick)
		msPerTick := float64(prev.Micros) / 1000.0 / float64(div)
		m.msAt[i] = m.msAt[i-1] + ticks*msPerTick
	}
	m.stale = false
}

// defaultDivision returns m's ticks-per-quarter-note, defaulting to 1 so
// TickToMs stays total even before SetDivision is called.
func defaultDivision(m *TempoMap) int {
	if m.division <= 0 {
		return 1
	}
	return m.division
}

// SetDivision records the ticks-per-quarter-note used for tick<->ms
// conversion. Must be called (by Container) before TickToMs is accurate.
func (m *TempoMap) SetDivision(ticksPerQuarter int) {
	if ticksPerQuarter != m.division {
		m.division = ticksPerQuarter
		m.stale = true
	}
}

// TickToMs converts an absolute tick to milliseconds, using the default
// tempo (120 BPM) for any tick before the first tempo entry.
func (m *TempoMap) TickToMs(tick uint32) float64 {
	if m.stale {
		m.recalculate()
	}
	div := defaultDivision(m)
	if len(m.entries) == 0 || tick <= m.entries[0].Tick {
		msPerTick := float64(primitives.DefaultMicrosPerQuarter) / 1000.0 / float64(div)
		return float64(tick) * msPerTick
	}

	idx := 0
	for i := len(m.entries) - 1; i >= 0; i-- {
		if tick >= m.entries[i].Tick {
			idx = i
			break
		}
	}
	e := m.entries[idx]
	msPerTick := float64(e.Micros) / 1000.0 / float64(div)
	return m.msAt[idx] + float64(tick-e.Tick)*msPerTick
}
