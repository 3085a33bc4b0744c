package textenc

import "testing"

func TestShiftJISToUTF8_ASCII(t *testing.T) {
	got, err := ShiftJISToUTF8([]byte("Hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

func TestShiftJISToUTF8_Kana(t *testing.T) {
	// Shift-JIS for "ラ" (katakana RA) is 0x83 0x89.
	got, err := ShiftJISToUTF8([]byte{0x83, 0x89})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ラ" {
		t.Fatalf("got %q, want %q", got, "ラ")
	}
}

func TestCP437ToUTF8(t *testing.T) {
	// CP437 0xE9 is the Greek capital theta "Θ" glyph slot; just check it
	// round-trips to *some* non-empty UTF-8 without erroring.
	got, err := CP437ToUTF8([]byte{0x41, 0xE9, 0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected non-empty output")
	}
}

func TestCodePageToUTF8_Windows1252(t *testing.T) {
	got, err := CodePageToUTF8(WindowsCodePageName(1252), []byte{0x41, 0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AB" {
		t.Fatalf("got %q, want %q", got, "AB")
	}
}

func TestCodePageToUTF8_Unknown(t *testing.T) {
	if _, err := CodePageToUTF8("not-a-real-codepage", []byte("x")); err == nil {
		t.Fatalf("expected error for unknown code page")
	}
}
