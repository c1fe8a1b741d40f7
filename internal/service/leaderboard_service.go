package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pontox/internal/cache"
	"pontox/internal/domain"
	"pontox/internal/repository"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    uint   `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Level     string `json:"level"`
	Points    int64  `json:"points"`
}

type LeaderboardService struct {
	clock
	store repository.Store
	cache *cache.TTL
}

func NewLeaderboardService(store repository.Store, c *cache.TTL) *LeaderboardService {
	return &LeaderboardService{store: store, cache: c}
}

// windowStart returns the start of timeframe relative to now. The zero time means no bound.
func windowStart(timeframe string, now time.Time) (time.Time, error) {
	switch timeframe {
	case "", domain.TimeframeAll:
		return time.Time{}, nil
	case domain.TimeframeWeek:
		return now.AddDate(0, 0, -7), nil
	case domain.TimeframeMonth:
		return now.AddDate(0, 0, -30), nil
	case domain.TimeframeYear:
		return now.AddDate(0, 0, -365), nil
	}
	return time.Time{}, ErrInvalidTimeframe
}

// Leaderboard ranks users by points earned inside timeframe. Redemptions do not count against
// a user's position and users with no positive total are left out. Ties go to whoever reached
// the total first, then to the lower user id.
func (s *LeaderboardService) Leaderboard(ctx context.Context, timeframe string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	since, err := windowStart(timeframe, s.now())
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("leaderboard:%s:%d", timeframe, limit)
	return cache.Load(s.cache, key, func() ([]LeaderboardEntry, error) {
		return s.compute(ctx, since, limit)
	})
}

func (s *LeaderboardService) compute(ctx context.Context, since time.Time, limit int) ([]LeaderboardEntry, error) {
	txs, err := s.store.Points().Since(ctx, since)
	if err != nil {
		return nil, err
	}
	type tally struct {
		userID uint
		points int64
		last   time.Time
	}
	byUser := map[uint]*tally{}
	for _, t := range txs {
		if t.Reason == domain.ReasonRedemption {
			continue
		}
		tl, ok := byUser[t.UserID]
		if !ok {
			tl = &tally{userID: t.UserID}
			byUser[t.UserID] = tl
		}
		tl.points += t.Points
		if t.CreatedAt.After(tl.last) {
			tl.last = t.CreatedAt
		}
	}
	ranked := make([]*tally, 0, len(byUser))
	for _, tl := range byUser {
		if tl.points > 0 {
			ranked = append(ranked, tl)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.points != b.points {
			return a.points > b.points
		}
		if !a.last.Equal(b.last) {
			return a.last.Before(b.last)
		}
		return a.userID < b.userID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]LeaderboardEntry, 0, len(ranked))
	for i, tl := range ranked {
		e := LeaderboardEntry{Rank: i + 1, UserID: tl.userID, Points: tl.points}
		if u, err := s.store.Users().GetByID(ctx, tl.userID); err == nil {
			e.Name, e.AvatarURL, e.Level = u.Name, u.AvatarURL, u.Level
		}
		out = append(out, e)
	}
	return out, nil
}
