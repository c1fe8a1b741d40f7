package service

import (
	"sort"
	"time"

	"pontox/internal/domain"
)

// streakEndingAt counts consecutive calendar days ending at day. days must be distinct.
func streakEndingAt(days []string, day string) int {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	t, err := time.Parse(domain.DayLayout, day)
	if err != nil || !set[day] {
		return 0
	}
	n := 0
	for set[t.Format(domain.DayLayout)] {
		n++
		t = t.AddDate(0, 0, -1)
	}
	return n
}

// longestStreak returns the longest run of consecutive days.
func longestStreak(days []string) int {
	parsed := make([]time.Time, 0, len(days))
	for _, d := range days {
		if t, err := time.Parse(domain.DayLayout, d); err == nil {
			parsed = append(parsed, t)
		}
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })
	best, run := 0, 0
	for i, t := range parsed {
		switch {
		case i == 0:
			run = 1
		case t.Equal(parsed[i-1]):
			continue
		case t.Equal(parsed[i-1].AddDate(0, 0, 1)):
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
