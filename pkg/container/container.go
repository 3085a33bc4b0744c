package container

import "strings"

// Container is the in-memory model every decoder populates and every
// emitter (SMF bytes, flat stream) reads back. For format 0/1 every
// per-subsong vector (ChannelMasks, TempoMaps, EndTimestamps, LoopRanges)
// has length 1 (the single global subsong); for format 2 each has one
// entry per track, since each track is an independent subsong.
type Container struct {
	Format   int    // 0, 1, or 2
	Division uint16 // ticks per quarter note, or SMPTE-encoded

	Tracks []*Track

	ChannelMasks  []uint64 // per-subsong 64-bit channel×port bitmask
	TempoMaps     []*TempoMap
	EndTimestamps []uint32 // per-subsong tick of the last event
	LoopRanges    []LoopRange

	Metadata MetadataTable

	SoundFont []byte // optional embedded SoundFont/DLS payload (RIFF)

	BankOffset             int
	ExtraPercussionChannel int // -1 when unset

	portTable  []int32         // canonical port id -> raw port number
	portLookup map[int32]int32 // raw port number -> canonical id

	// deviceNames holds, per raw MIDI channel (0-15), a table of lowercased
	// device name -> canonical port, mirroring the source's per-channel
	// _DeviceNames[ChannelNumber] vector (MIDIContainer.cpp:317-328): a
	// device name announced on one channel never collides with the same
	// name announced on another.
	deviceNames map[byte]map[string]int32

	// trackFold carries, per track index, the state AddTrack/
	// AddEventToTrack thread across that track's events while folding them
	// into ChannelMasks: the current port (set by a Meta 0x21 MIDI-Port
	// event) and a pending device name (set by a Meta 0x04/0x09 name event,
	// consumed by the next note).
	trackFold []trackFoldState
}

// trackFoldState is one track's running port/device-name state, reset
// implicitly to its zero value when AddTrack appends the track.
type trackFoldState struct {
	port       int32
	deviceName string
}

// New constructs a Container and calls Initialize(format, division).
func New(format int, division uint16) *Container {
	c := &Container{ExtraPercussionChannel: -1}
	c.Initialize(format, division)
	return c
}

// Initialize resets the per-subsong vectors to length 1 for format 0/1,
// deferring to per-track growth (via AddTrack) for format 2. It never
// fails.
func (c *Container) Initialize(format int, division uint16) {
	c.Format = format
	c.Division = division
	c.portLookup = make(map[int32]int32)
	c.deviceNames = make(map[byte]map[string]int32)
	c.trackFold = nil
	c.ExtraPercussionChannel = -1

	if format == 2 {
		c.ChannelMasks = nil
		c.TempoMaps = nil
		c.EndTimestamps = nil
		c.LoopRanges = nil
		return
	}
	tm := NewTempoMap()
	tm.SetDivision(int(division))
	c.ChannelMasks = []uint64{0}
	c.TempoMaps = []*TempoMap{tm}
	c.EndTimestamps = []uint32{0}
	c.LoopRanges = []LoopRange{NewLoopRange()}
}

// subsongSlot returns the index into the per-subsong vectors for track
// index ti: ti itself for format 2 (AddTrack grows those vectors), 0
// otherwise.
func (c *Container) subsongSlot(ti int) int {
	if c.Format != 2 {
		return 0
	}
	return ti
}

// AddTrack appends track and folds its events into the channel masks,
// tempo maps, end-timestamps, and port/device-name state. For format 0/1
// this updates the single global slot; for format 2 it appends a new
// subsong slot.
func (c *Container) AddTrack(t *Track) {
	ti := len(c.Tracks)
	c.Tracks = append(c.Tracks, t)
	c.trackFold = append(c.trackFold, trackFoldState{})

	if c.Format == 2 {
		tm := NewTempoMap()
		tm.SetDivision(int(c.Division))
		c.ChannelMasks = append(c.ChannelMasks, 0)
		c.TempoMaps = append(c.TempoMaps, tm)
		c.EndTimestamps = append(c.EndTimestamps, 0)
		c.LoopRanges = append(c.LoopRanges, NewLoopRange())
	}

	slot := c.subsongSlot(ti)
	for _, e := range t.Events {
		c.foldEvent(slot, ti, e)
	}
}

// AddEventToTrack inserts event into the track at trackIndex per the
// track's insertion policy, mirroring the same channel-mask/tempo-map/
// end-timestamp side effects AddTrack applies.
func (c *Container) AddEventToTrack(trackIndex int, event Event) {
	t := c.Tracks[trackIndex]
	t.Insert(event)
	c.foldEvent(c.subsongSlot(trackIndex), trackIndex, event)
}

// foldEvent mirrors MIDIContainer.cpp's AddTrack loop (lines 277-344): it
// updates the end-timestamp/tempo-map/channel-mask state for one event,
// threading the track's current port and pending device name (trackFold)
// across calls so a Meta 0x21 port assignment or a Meta 0x04/0x09 device
// name affects every later note on that track, not just the events folded
// in the same AddTrack call.
func (c *Container) foldEvent(slot, trackIndex int, e Event) {
	if slot >= len(c.ChannelMasks) {
		return
	}

	if e.Tick > c.EndTimestamps[slot] {
		c.EndTimestamps[slot] = e.Tick
	}

	st := &c.trackFold[trackIndex]

	switch {
	case e.Kind == NoteOn || e.Kind == NoteOff:
		port := st.port
		if st.deviceName != "" {
			port = c.resolveDeviceName(e.Channel, st.deviceName)
			st.deviceName = ""
		}
		// ChannelNumber += 16 * PortNumber; ChannelNumber %= MaxChannels
		// (MIDIContainer.cpp:335-336): fold the port into the channel
		// index so the same raw channel on different ports sets distinct
		// bits of the 64-bit channels×ports mask.
		channelNumber := (uint32(e.Channel) + 16*uint32(port)) % 64
		c.ChannelMasks[slot] |= 1 << channelNumber
	case e.IsSetTempo():
		c.TempoMaps[slot].Insert(e.Tick, e.TempoMicros())
	case e.IsPort():
		st.port = c.CanonicalPort(int32(e.PortNumber()))
		st.deviceName = ""
	default:
		if mt, ok := e.MetaType(); ok && (mt == 0x04 || mt == 0x09) {
			st.deviceName = strings.ToLower(strings.TrimSpace(string(e.MetaPayload())))
		}
	}
}

// resolveDeviceName resolves a lowercased device name announced on
// channel to a canonical port, registering it as a new device on first
// sight. The per-channel device index (first distinct name on a channel
// is 0, the second is 1, ...) is itself run through CanonicalPort, exactly
// as an explicit Meta 0x21 port number would be (MIDIContainer.cpp:331),
// so device-name-derived ports and explicit port numbers share one
// canonical port space.
func (c *Container) resolveDeviceName(channel byte, name string) int32 {
	if port, ok := c.LookupDeviceName(channel, name); ok {
		return port
	}
	idx := int32(len(c.deviceNames[channel]))
	port := c.CanonicalPort(idx)
	c.RegisterDeviceName(channel, name, port)
	return port
}

// CanonicalPort maps a raw port number to its canonical id. The first
// distinct raw port seen is canonical 0, the second 1, and so on — a
// stable bijection onto {0,...,n-1} that never changes once assigned.
func (c *Container) CanonicalPort(raw int32) int32 {
	if id, ok := c.portLookup[raw]; ok {
		return id
	}
	id := int32(len(c.portTable))
	c.portTable = append(c.portTable, raw)
	c.portLookup[raw] = id
	return id
}

// PortTable returns the canonical-id -> raw-port-number table: entry i
// holds the raw port number canonical id i maps to.
func (c *Container) PortTable() []int32 {
	return c.portTable
}

// RegisterDeviceName associates a lowercased device name, scoped to a raw
// MIDI channel, with a canonical port. Used both internally by
// resolveDeviceName and by the SerializeAsStream device-name resolution
// rule (Meta 0x04/0x09 events name a device; a later note/SysEx on that
// channel resolves through this table to a port id).
func (c *Container) RegisterDeviceName(channel byte, name string, port int32) {
	m := c.deviceNames[channel]
	if m == nil {
		m = make(map[string]int32)
		c.deviceNames[channel] = m
	}
	m[name] = port
}

// LookupDeviceName resolves a previously registered device name, scoped to
// a raw MIDI channel, to its canonical port, if any.
func (c *Container) LookupDeviceName(channel byte, name string) (int32, bool) {
	m := c.deviceNames[channel]
	if m == nil {
		return 0, false
	}
	p, ok := m[name]
	return p, ok
}

// SubsongCount returns the number of independent subsongs: 1 for format
// 0/1, len(Tracks) for format 2.
func (c *Container) SubsongCount() int {
	if c.Format == 2 {
		return len(c.Tracks)
	}
	return 1
}

// ChannelCount returns the number of set bits in a subsong's channel mask.
func (c *Container) ChannelCount(subsong int) int {
	mask := c.ChannelMasks[subsong]
	n := 0
	for mask != 0 {
		n += int(mask & 1)
		mask >>= 1
	}
	return n
}

// DurationTicks returns a subsong's end-of-song tick.
func (c *Container) DurationTicks(subsong int) uint32 {
	return c.EndTimestamps[subsong]
}

// DurationMs returns a subsong's end-of-song timestamp in milliseconds.
func (c *Container) DurationMs(subsong int) float64 {
	return c.TempoMaps[subsong].TickToMs(c.EndTimestamps[subsong])
}

// LoopBeginMs returns a subsong's loop-begin timestamp in milliseconds and
// whether a loop is configured.
func (c *Container) LoopBeginMs(subsong int) (float64, bool) {
	lr := c.LoopRanges[subsong]
	if !lr.HasBegin() {
		return 0, false
	}
	return c.TempoMaps[subsong].TickToMs(uint32(lr.BeginTick)), true
}

// LoopEndMs returns a subsong's loop-end timestamp in milliseconds and
// whether a loop is configured.
func (c *Container) LoopEndMs(subsong int) (float64, bool) {
	lr := c.LoopRanges[subsong]
	if !lr.HasBegin() {
		return 0, false
	}
	end := lr.EndOrEndOfSong(c.EndTimestamps[subsong])
	return c.TempoMaps[subsong].TickToMs(end), true
}
