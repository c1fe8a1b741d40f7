package proximity

import "testing"

func TestProgress(t *testing.T) {
	tests := []struct {
		dist, radius, want float64
	}{
		{0, 10, 100},
		{5, 10, 50},
		{10, 10, 0},
		{20, 10, 0},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.dist, tt.radius); got != tt.want {
			t.Errorf("Progress(%v, %v) = %v, want %v", tt.dist, tt.radius, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if Label(80) != "Você está aqui" || Label(0) != "" || Label(10) != "Na região" {
		t.Error("unexpected labels")
	}
}

func TestCanCheckIn(t *testing.T) {
	if !CanCheckIn(100, 300) || CanCheckIn(301, 300) || !CanCheckIn(5000, 0) {
		t.Error("unexpected CanCheckIn result")
	}
}
