// Package decodeerror defines the fatal error sentinels shared by every
// format decoder and the DecodeError wrapper that attaches a decoder name
// and byte offset to one of them.
package decodeerror

import (
	"errors"
	"fmt"
)

// ErrInsufficientInput means a decoder needed more bytes than remained.
var ErrInsufficientInput = errors.New("insufficient input")

// ErrMalformedStructure means a mandatory field failed validation after the
// format's magic was recognized (bad format number, zero track count, ...).
var ErrMalformedStructure = errors.New("malformed structure")

// ErrUnsupportedFeature means the input is recognized but exercises a
// feature this decoder deliberately does not implement.
var ErrUnsupportedFeature = errors.New("unsupported feature")

// ErrNotHandled means no decoder claimed the buffer at all: dispatch
// consulted every recognizer and none matched. Per spec.md §7, this is
// distinct from the fatal kinds above — it is returned only when nothing
// has claimed the input yet, never once a decoder has committed to it.
var ErrNotHandled = errors.New("not handled")

// DecodeError attaches a decoder name and byte offset to one of the
// sentinels above (or a wrapped variant of one), the way the teacher's
// MIDI player names its sentinels (ErrNoSoundFont, ErrMIDIInvalidFormat)
// and wraps them with fmt.Errorf("%w: ...").
type DecodeError struct {
	Decoder string
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: at offset %d: %v", e.Decoder, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// New builds a DecodeError directly from a sentinel.
func New(decoder string, offset int, sentinel error) *DecodeError {
	return &DecodeError{Decoder: decoder, Offset: offset, Err: sentinel}
}

// Wrapf builds a DecodeError whose Err is sentinel annotated with a
// formatted detail message, preserving errors.Is(err, sentinel).
func Wrapf(decoder string, offset int, sentinel error, format string, args ...any) *DecodeError {
	detail := fmt.Sprintf(format, args...)
	return &DecodeError{Decoder: decoder, Offset: offset, Err: fmt.Errorf("%s: %w", detail, sentinel)}
}
