package primitives

import "testing"

func TestBPMToMicrosPerQuarter(t *testing.T) {
	tests := []struct {
		bpm, scale int
		want       int
	}{
		{120, 64, 500000},
		{0, 64, DefaultMicrosPerQuarter},
		{120, 0, DefaultMicrosPerQuarter},
		{60, 32, 2_000_000},
	}
	for _, tt := range tests {
		if got := BPMToMicrosPerQuarter(tt.bpm, tt.scale); got != tt.want {
			t.Errorf("BPMToMicrosPerQuarter(%d, %d) = %d, want %d", tt.bpm, tt.scale, got, tt.want)
		}
	}
}
