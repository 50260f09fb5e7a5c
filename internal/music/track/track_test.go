package track

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "--:--"},
		{-time.Second, "--:--"},
		{7 * time.Second, "0:07"},
		{3*time.Minute + 20*time.Second, "3:20"},
		{time.Hour + 5*time.Minute + 20*time.Second, "1:05:20"},
		{59*time.Second + 600*time.Millisecond, "1:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlayStateString(t *testing.T) {
	if Playing.String() != "playing" {
		t.Fatalf("Playing.String() = %q", Playing.String())
	}
	if PlayState(9).String() != "PlayState(9)" {
		t.Fatalf("unknown state = %q", PlayState(9).String())
	}
}
