package location

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Cristo Redentor -> Pão de Açúcar, roughly 5.5 km apart.
	d := HaversineKm(-22.9519, -43.2105, -22.9486, -43.1566)
	if d < 5.4 || d > 5.7 {
		t.Errorf("distance = %.2f km", d)
	}
	if got := HaversineKm(10, 10, 10, 10); got != 0 {
		t.Errorf("same point = %v", got)
	}
}

func TestHaversineMeters(t *testing.T) {
	km := HaversineKm(0, 0, 0, 0.01)
	m := HaversineMeters(0, 0, 0, 0.01)
	if math.Abs(km*1000-m) > 1e-9 {
		t.Errorf("meters %v != km*1000 %v", m, km*1000)
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(-22.9, -43.2) {
		t.Error("expected valid")
	}
	if ValidCoordinates(91, 0) || ValidCoordinates(0, -181) {
		t.Error("expected invalid")
	}
}
