// ABOUTME: Tests for the local player helpers
// ABOUTME: Covers status position formatting
package main

import "testing"

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		ticks int
		want  string
	}{
		{0, "0 s"},
		{-5, "0 s"},
		{60, "1 s"},
		{60 * 65, "1 m 5 s"},
		{60 * 3723, "1 h 2 m"},
	}

	for _, tt := range tests {
		if got := formatPosition(tt.ticks); got != tt.want {
			t.Errorf("formatPosition(%d) = %q, want %q", tt.ticks, got, tt.want)
		}
	}
}
