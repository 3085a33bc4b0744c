// Package container implements the in-memory sequence model every decoder
// populates: tracks of events, tempo maps, a SysEx dedup table, loop
// ranges, and the two emission modes (SMF bytes, timestamped flat stream).
package container

// Kind classifies an Event. The first seven kinds carry their status in
// Kind+Channel; Extended carries a raw MIDI status byte as Data[0]
// (SysEx 0xF0, Meta 0xFF, or a single-byte real-time status 0xF1-0xFE).
type Kind uint8

const (
	NoteOff Kind = iota
	NoteOn
	KeyPressure
	ControlChange
	ProgramChange
	ChannelPressure
	PitchBendChange
	Extended
)

func (k Kind) String() string {
	switch k {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	case KeyPressure:
		return "KeyPressure"
	case ControlChange:
		return "ControlChange"
	case ProgramChange:
		return "ProgramChange"
	case ChannelPressure:
		return "ChannelPressure"
	case PitchBendChange:
		return "PitchBendChange"
	case Extended:
		return "Extended"
	default:
		return "Unknown"
	}
}

// Event is a single timestamped MIDI-derived event. Tick is an absolute
// tick, not a delta. Channel is meaningful only for the voice kinds
// (0-15); Extended events ignore it. Data holds the kind-specific payload:
// for voice kinds, the data bytes with status/channel stripped out (e.g.
// NoteOn: [note, velocity]); for Extended, Data[0] is the raw status byte
// followed by whatever that status implies (Meta: type byte then content;
// SysEx: the bytes after F0 up to and including the terminating F7;
// single-byte real-time: no further bytes).
type Event struct {
	Tick    uint32
	Kind    Kind
	Channel uint8
	Data    []byte
}

// IsEndOfTrack reports whether e is the Meta 0xFF 0x2F end-of-track event.
func (e Event) IsEndOfTrack() bool {
	return e.Kind == Extended && len(e.Data) >= 2 && e.Data[0] == 0xFF && e.Data[1] == 0x2F
}

// IsPort reports whether e is a Meta 0xFF 0x21 MIDI port-assignment event.
func (e Event) IsPort() bool {
	return e.Kind == Extended && len(e.Data) >= 2 && e.Data[0] == 0xFF && e.Data[1] == 0x21
}

// IsSetTempo reports whether e is a Meta 0xFF 0x51 set-tempo event with its
// three tempo bytes present.
func (e Event) IsSetTempo() bool {
	return e.Kind == Extended && len(e.Data) >= 6 && e.Data[0] == 0xFF && e.Data[1] == 0x51
}

// IsMarker reports whether e is a Meta 0xFF 0x06 marker event.
func (e Event) IsMarker() bool {
	return e.Kind == Extended && len(e.Data) >= 2 && e.Data[0] == 0xFF && e.Data[1] == 0x06
}

// IsMeta reports whether e is any Meta (0xFF) event.
func (e Event) IsMeta() bool {
	return e.Kind == Extended && len(e.Data) >= 1 && e.Data[0] == 0xFF
}

// IsSysEx reports whether e is a SysEx (0xF0) event.
func (e Event) IsSysEx() bool {
	return e.Kind == Extended && len(e.Data) >= 1 && e.Data[0] == 0xF0
}

// MetaType returns the Meta type byte and true, if e is a Meta event.
func (e Event) MetaType() (byte, bool) {
	if !e.IsMeta() || len(e.Data) < 2 {
		return 0, false
	}
	return e.Data[1], true
}

// MetaPayload returns the content bytes following a Meta event's type byte.
func (e Event) MetaPayload() []byte {
	if !e.IsMeta() || len(e.Data) < 2 {
		return nil
	}
	return e.Data[2:]
}

// TempoMicros returns the microseconds-per-quarter-note encoded by a
// set-tempo event. Only valid when IsSetTempo is true.
func (e Event) TempoMicros() int {
	p := e.MetaPayload()
	if len(p) < 3 {
		return 0
	}
	return int(p[0])<<16 | int(p[1])<<8 | int(p[2])
}

// PortNumber returns the raw port number encoded by a port-assignment
// event. Only valid when IsPort is true.
func (e Event) PortNumber() int {
	p := e.MetaPayload()
	if len(p) < 1 {
		return 0
	}
	return int(p[0])
}

// IsVoice reports whether e belongs to one of the seven voice-category
// kinds (i.e. is not Extended).
func (e Event) IsVoice() bool { return e.Kind != Extended }

// IsNote reports whether e is a NoteOn or NoteOff event.
func (e Event) IsNote() bool { return e.Kind == NoteOn || e.Kind == NoteOff }

// Note returns the note number for NoteOn/NoteOff/KeyPressure events.
func (e Event) Note() byte {
	if len(e.Data) < 1 {
		return 0
	}
	return e.Data[0]
}

// Velocity returns the velocity/pressure/control-value data byte for
// NoteOn, NoteOff, and KeyPressure events.
func (e Event) Velocity() byte {
	if len(e.Data) < 2 {
		return 0
	}
	return e.Data[1]
}

// Controller returns the CC number for ControlChange events.
func (e Event) Controller() byte {
	if len(e.Data) < 1 {
		return 0
	}
	return e.Data[0]
}

// ControlValue returns the data value for ControlChange events.
func (e Event) ControlValue() byte {
	if len(e.Data) < 2 {
		return 0
	}
	return e.Data[1]
}

// Program returns the program number for ProgramChange events.
func (e Event) Program() byte {
	if len(e.Data) < 1 {
		return 0
	}
	return e.Data[0]
}

// NoteOnEvent builds a NoteOn event with the given data bytes.
func NoteOnEvent(tick uint32, channel, note, velocity byte) Event {
	return Event{Tick: tick, Kind: NoteOn, Channel: channel, Data: []byte{note, velocity}}
}

// NoteOffEvent builds a NoteOff event with the given data bytes.
func NoteOffEvent(tick uint32, channel, note, velocity byte) Event {
	return Event{Tick: tick, Kind: NoteOff, Channel: channel, Data: []byte{note, velocity}}
}

// ControlChangeEvent builds a ControlChange event.
func ControlChangeEvent(tick uint32, channel, controller, value byte) Event {
	return Event{Tick: tick, Kind: ControlChange, Channel: channel, Data: []byte{controller, value}}
}

// ProgramChangeEvent builds a ProgramChange event.
func ProgramChangeEvent(tick uint32, channel, program byte) Event {
	return Event{Tick: tick, Kind: ProgramChange, Channel: channel, Data: []byte{program}}
}

// PitchBendEvent builds a PitchBendChange event from a 14-bit value.
func PitchBendEvent(tick uint32, channel byte, value uint16) Event {
	return Event{Tick: tick, Kind: PitchBendChange, Channel: channel, Data: []byte{byte(value & 0x7F), byte((value >> 7) & 0x7F)}}
}

// SysExEvent builds an Extended SysEx event. payload must already include
// the terminating 0xF7.
func SysExEvent(tick uint32, payload []byte) Event {
	data := make([]byte, 0, len(payload)+1)
	data = append(data, 0xF0)
	data = append(data, payload...)
	return Event{Tick: tick, Kind: Extended, Data: data}
}

// MetaEvent builds an Extended Meta event.
func MetaEvent(tick uint32, metaType byte, payload []byte) Event {
	data := make([]byte, 0, len(payload)+2)
	data = append(data, 0xFF, metaType)
	data = append(data, payload...)
	return Event{Tick: tick, Kind: Extended, Data: data}
}

// SetTempoEvent builds a Meta 0x51 set-tempo event.
func SetTempoEvent(tick uint32, microsPerQuarter int) Event {
	return MetaEvent(tick, 0x51, []byte{
		byte(microsPerQuarter >> 16), byte(microsPerQuarter >> 8), byte(microsPerQuarter),
	})
}

// EndOfTrackEvent builds a Meta 0x2F end-of-track event.
func EndOfTrackEvent(tick uint32) Event {
	return MetaEvent(tick, 0x2F, nil)
}

// PortEvent builds a Meta 0x21 port-assignment event.
func PortEvent(tick uint32, port byte) Event {
	return MetaEvent(tick, 0x21, []byte{port})
}
