package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pontox/internal/cache"
	"pontox/internal/domain"
	"pontox/internal/repository"
	"pontox/pkg/level"
)

// Activity series groupings.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type SpotCheckIns struct {
	SpotID   uint   `json:"spot_id"`
	Name     string `json:"name"`
	CheckIns int64  `json:"checkins"`
}

type TopEarner struct {
	UserID         uint   `json:"user_id"`
	Name           string `json:"name"`
	Level          string `json:"level"`
	Points         int64  `json:"points"`
	LifetimePoints int64  `json:"lifetime_points"`
}

type Dashboard struct {
	TotalUsers        int64             `json:"total_users"`
	NewUsersWeek      int64             `json:"new_users_week"`
	PointsIssued      int64             `json:"points_issued"`
	PointsRedeemed    int64             `json:"points_redeemed"`
	PointsOutstanding int64             `json:"points_outstanding"`
	TotalCheckIns     int64             `json:"total_checkins"`
	Referrals         map[string]int64  `json:"referrals"`
	Redemptions       map[string]int64  `json:"redemptions"`
	LevelDistribution map[string]int64  `json:"level_distribution"`
	TopEarners        []TopEarner       `json:"top_earners"`
	CheckInsBySpot    []SpotCheckIns    `json:"checkins_by_spot"`
	Achievements      []AchievementRate `json:"achievements"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

type ActivityPoint struct {
	Period         string `json:"period"`
	PointsIssued   int64  `json:"points_issued"`
	PointsRedeemed int64  `json:"points_redeemed"`
	CheckIns       int64  `json:"checkins"`
	Signups        int64  `json:"signups"`
}

// StatsService computes the admin analytics by scanning the store. Results are cached briefly.
type StatsService struct {
	clock
	store        repository.Store
	achievements *AchievementService
	cache        *cache.TTL
}

func NewStatsService(store repository.Store, achievements *AchievementService, c *cache.TTL) *StatsService {
	return &StatsService{store: store, achievements: achievements, cache: c}
}

func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	return cache.Load(s.cache, "stats:dashboard", func() (*Dashboard, error) {
		return s.dashboard(ctx)
	})
}

func (s *StatsService) dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	users, err := s.store.Users().All(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		TotalUsers:        int64(len(users)),
		Redemptions:       map[string]int64{},
		LevelDistribution: map[string]int64{},
		GeneratedAt:       now,
	}
	for _, t := range level.Tiers {
		d.LevelDistribution[string(t.Level)] = 0
	}
	weekAgo := now.AddDate(0, 0, -7)
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			continue
		}
		d.LevelDistribution[string(level.For(u.LifetimePoints))]++
		d.PointsOutstanding += u.Points
		if !u.CreatedAt.Before(weekAgo) {
			d.NewUsersWeek++
		}
	}

	earners := make([]TopEarner, 0, len(users))
	for _, u := range users {
		if u.Role == domain.RoleAdmin || u.LifetimePoints <= 0 {
			continue
		}
		earners = append(earners, TopEarner{UserID: u.ID, Name: u.Name, Level: u.Level, Points: u.Points, LifetimePoints: u.LifetimePoints})
	}
	sort.SliceStable(earners, func(i, j int) bool {
		if earners[i].LifetimePoints != earners[j].LifetimePoints {
			return earners[i].LifetimePoints > earners[j].LifetimePoints
		}
		return earners[i].UserID < earners[j].UserID
	})
	if len(earners) > 5 {
		earners = earners[:5]
	}
	d.TopEarners = earners

	txs, err := s.store.Points().Since(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		switch {
		case t.Reason == domain.ReasonRedemption:
			d.PointsRedeemed -= t.Points
		case t.Points > 0:
			d.PointsIssued += t.Points
		}
	}

	if d.TotalCheckIns, err = s.store.CheckIns().Count(ctx); err != nil {
		return nil, err
	}
	if d.Referrals, err = s.store.Referrals().CountByStatus(ctx); err != nil {
		return nil, err
	}
	reds, _, err := s.store.Redemptions().List(ctx, repository.RedemptionFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range reds {
		d.Redemptions[r.StatusAt(now)]++
	}

	bySpot, err := s.store.CheckIns().CountBySpot(ctx)
	if err != nil {
		return nil, err
	}
	spots, err := s.store.Spots().List(ctx, false)
	if err != nil {
		return nil, err
	}
	d.CheckInsBySpot = make([]SpotCheckIns, 0, len(spots))
	for _, sp := range spots {
		d.CheckInsBySpot = append(d.CheckInsBySpot, SpotCheckIns{SpotID: sp.ID, Name: sp.Name, CheckIns: bySpot[sp.ID]})
	}
	sort.SliceStable(d.CheckInsBySpot, func(i, j int) bool { return d.CheckInsBySpot[i].CheckIns > d.CheckInsBySpot[j].CheckIns })

	if s.achievements != nil {
		if d.Achievements, err = s.achievements.Rates(ctx); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// bucketer returns the period label function, the start of the oldest of n periods ending now,
// and the step between period starts.
func bucketer(period string, now time.Time, n int) (label func(time.Time) string, start time.Time, step func(time.Time) time.Time, err error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodDaily:
		label = func(t time.Time) string { return t.UTC().Format(domain.DayLayout) }
		start = day.AddDate(0, 0, -(n - 1))
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case PeriodWeekly:
		monday := func(t time.Time) time.Time {
			t = t.UTC()
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
		}
		label = func(t time.Time) string { return monday(t).Format(domain.DayLayout) }
		start = monday(day).AddDate(0, 0, -7*(n-1))
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case PeriodMonthly:
		label = func(t time.Time) string { return t.UTC().Format("2006-01") }
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		err = ErrInvalidPeriod
	}
	return label, start, step, err
}

// Activity returns n consecutive periods ending with the current one, oldest first.
func (s *StatsService) Activity(ctx context.Context, period string, n int) ([]ActivityPoint, error) {
	if n <= 0 {
		n = map[string]int{PeriodDaily: 30, PeriodWeekly: 12, PeriodMonthly: 12}[period]
	}
	if n > 366 {
		n = 366
	}
	now := s.now()
	label, start, step, err := bucketer(period, now, n)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("stats:activity:%s:%d:%s", period, n, label(now))
	return cache.Load(s.cache, key, func() ([]ActivityPoint, error) {
		return s.activity(ctx, label, start, step, n)
	})
}

func (s *StatsService) activity(ctx context.Context, label func(time.Time) string, start time.Time, step func(time.Time) time.Time, n int) ([]ActivityPoint, error) {
	series := make([]ActivityPoint, 0, n)
	index := make(map[string]int, n)
	for t, i := start, 0; i < n; t, i = step(t), i+1 {
		index[label(t)] = i
		series = append(series, ActivityPoint{Period: label(t)})
	}

	txs, err := s.store.Points().Since(ctx, start)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		i, ok := index[label(t.CreatedAt)]
		if !ok {
			continue
		}
		switch {
		case t.Reason == domain.ReasonRedemption:
			series[i].PointsRedeemed -= t.Points
		case t.Points > 0:
			series[i].PointsIssued += t.Points
		}
	}
	checkins, err := s.store.CheckIns().Since(ctx, start)
	if err != nil {
		return nil, err
	}
	for _, c := range checkins {
		if i, ok := index[label(c.CreatedAt)]; ok {
			series[i].CheckIns++
		}
	}
	users, err := s.store.Users().All(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.CreatedAt.Before(start) {
			continue
		}
		if i, ok := index[label(u.CreatedAt)]; ok {
			series[i].Signups++
		}
	}
	return series, nil
}
