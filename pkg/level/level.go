// Package level maps point totals to named loyalty tiers.
package level

// Level is a named tier.
type Level string

const (
	Bronze   Level = "Bronze"
	Silver   Level = "Silver"
	Gold     Level = "Gold"
	Platinum Level = "Platinum"
	Diamond  Level = "Diamond"
)

// Tier is a level and the minimum points needed to reach it.
type Tier struct {
	Level     Level `json:"level"`
	MinPoints int64 `json:"min_points"`
}

// Tiers is the canonical table, ascending by MinPoints.
var Tiers = []Tier{
	{Bronze, 0},
	{Silver, 500},
	{Gold, 1500},
	{Platinum, 3000},
	{Diamond, 10000},
}

// For returns the tier for a point total. Negative totals map to Bronze.
func For(points int64) Level {
	lvl := Tiers[0].Level
	for _, t := range Tiers {
		if points < t.MinPoints {
			break
		}
		lvl = t.Level
	}
	return lvl
}

// Next returns the tier after the one points falls in and how many points are missing.
// ok is false at the top tier.
func Next(points int64) (next Level, remaining int64, ok bool) {
	for _, t := range Tiers {
		if points < t.MinPoints {
			return t.Level, t.MinPoints - points, true
		}
	}
	return "", 0, false
}

// Progress returns how far (0-100) points are between the current tier floor and the next tier.
func Progress(points int64) float64 {
	if points < 0 {
		return 0
	}
	floor := int64(0)
	for _, t := range Tiers {
		if points < t.MinPoints {
			span := t.MinPoints - floor
			return float64(points-floor) / float64(span) * 100
		}
		floor = t.MinPoints
	}
	return 100
}

// Rank returns the zero-based position of l in Tiers, or -1.
func Rank(l Level) int {
	for i, t := range Tiers {
		if t.Level == l {
			return i
		}
	}
	return -1
}

// Valid reports whether s names a known tier.
func Valid(s string) bool { return Rank(Level(s)) >= 0 }
