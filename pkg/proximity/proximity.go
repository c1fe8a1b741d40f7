package proximity

// Label returns a display label for how close a user is to a spot, given progress (0-100).
// Progress = (1 - distance/maxRadius) * 100; 100 = at the spot, 0 = at max radius.
func Label(progressPct float64) string {
	switch {
	case progressPct >= 75:
		return "Você está aqui"
	case progressPct >= 50:
		return "Muito perto"
	case progressPct >= 25:
		return "Perto"
	case progressPct > 0:
		return "Na região"
	default:
		return ""
	}
}

// Progress computes proximity progress: (1 - distance/maxRadius) * 100.
// If distance > maxRadius, returns 0.
func Progress(distanceKm, maxRadiusKm float64) float64 {
	if maxRadiusKm <= 0 || distanceKm >= maxRadiusKm {
		return 0
	}
	p := (1 - distanceKm/maxRadiusKm) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CanCheckIn reports whether a user at distanceMeters may check in to a spot with the given radius.
// A non-positive radius disables the check.
func CanCheckIn(distanceMeters, radiusMeters float64) bool {
	return radiusMeters <= 0 || distanceMeters <= radiusMeters
}
