package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short string unchanged", "squat", 10, "squat"},
		{"exact length unchanged", "bench", 5, "bench"},
		{"long string cut", "deadlift", 4, "dead..."},
		{"zero max returns input", "row", 0, "row"},
		{"multibyte runes counted once", "crème brûlée", 5, "crème..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
