package container

// unset marks a LoopRange tick field as not configured.
const unset int64 = -1

// LoopRange is a subsong's optional loop begin/end tick. Valid states are:
// neither set, begin only (end defaults to end-of-song at query time), or
// both set.
type LoopRange struct {
	BeginTick int64
	EndTick   int64
}

// NewLoopRange returns an unset loop range.
func NewLoopRange() LoopRange {
	return LoopRange{BeginTick: unset, EndTick: unset}
}

// HasBegin reports whether a loop begin tick is configured.
func (l LoopRange) HasBegin() bool { return l.BeginTick != unset }

// HasEnd reports whether a loop end tick is configured.
func (l LoopRange) HasEnd() bool { return l.EndTick != unset }

// SetBegin configures the loop begin tick.
func (l *LoopRange) SetBegin(tick uint32) { l.BeginTick = int64(tick) }

// SetEnd configures the loop end tick.
func (l *LoopRange) SetEnd(tick uint32) { l.EndTick = int64(tick) }

// Clear resets the loop range to "neither set".
func (l *LoopRange) Clear() {
	l.BeginTick = unset
	l.EndTick = unset
}

// EndOrEndOfSong returns the configured end tick, or endOfSong if only
// begin is set.
func (l LoopRange) EndOrEndOfSong(endOfSong uint32) uint32 {
	if l.HasEnd() {
		return uint32(l.EndTick)
	}
	return endOfSong
}

// normalize applies the loop-range post-pass: if begin is set but end is
// not, end becomes endOfSong; if begin equals endOfSong, the loop is
// cleared entirely.
func (l *LoopRange) normalize(endOfSong uint32) {
	if !l.HasBegin() {
		return
	}
	if !l.HasEnd() {
		l.SetEnd(endOfSong)
	}
	if l.BeginTick == int64(endOfSong) {
		l.Clear()
	}
}
