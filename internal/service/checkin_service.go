package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/pkg/location"
	"pontox/pkg/proximity"
)

// Coordinates is an optional device position sent with a check-in.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type CheckInResult struct {
	CheckIn     models.CheckIn     `json:"checkin"`
	Points      int64              `json:"points"`
	StreakBonus int64              `json:"streak_bonus"`
	Streak      int                `json:"streak"`
	Balance     int64              `json:"balance"`
	Level       string             `json:"level"`
	Unlocked    []string           `json:"achievements_unlocked"`
	Spot        models.TouristSpot `json:"spot"`
}

type NearbySpot struct {
	models.TouristSpot
	DistanceKm float64 `json:"distance_km"`
	Progress   float64 `json:"proximity"`
	Label      string  `json:"proximity_label,omitempty"`
	CanCheckIn bool    `json:"can_checkin"`
}

type CheckInService struct {
	clock
	store        repository.Store
	ledger       *LedgerService
	settings     *SettingsService
	achievements *AchievementService
	radiusMeters float64
}

func NewCheckInService(store repository.Store, ledger *LedgerService, settings *SettingsService, achievements *AchievementService, radiusMeters float64) *CheckInService {
	return &CheckInService{store: store, ledger: ledger, settings: settings, achievements: achievements, radiusMeters: radiusMeters}
}

// CheckIn records a visit to spotID and credits its points. One check-in per user, spot and UTC day.
// When at is non-nil and a radius is configured, the user must be within it.
func (s *CheckInService) CheckIn(ctx context.Context, userID, spotID uint, at *Coordinates) (*CheckInResult, error) {
	if at != nil && !location.ValidCoordinates(at.Latitude, at.Longitude) {
		return nil, ErrInvalidCoordinates
	}
	var (
		res     *CheckInResult
		entries []*LedgerEntry
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		entries = nil
		spot, err := tx.Spots().GetByID(ctx, spotID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpotNotFound
		}
		if err != nil {
			return err
		}
		if !spot.Active {
			return ErrSpotInactive
		}
		if at != nil {
			d := location.HaversineMeters(at.Latitude, at.Longitude, spot.Latitude, spot.Longitude)
			if !proximity.CanCheckIn(d, s.radiusMeters) {
				return ErrTooFar
			}
		}

		now := s.now()
		today := now.Format(domain.DayLayout)
		days, err := tx.CheckIns().Days(ctx, userID)
		if err != nil {
			return err
		}
		firstToday := true
		for _, d := range days {
			if d == today {
				firstToday = false
				break
			}
		}

		pts := spot.CheckinPoints
		if pts <= 0 {
			pts = s.settings.Int(ctx, tx, domain.SettingPointsCheckin)
		}
		c := &models.CheckIn{UserID: userID, SpotID: spotID, Day: today, Points: pts, CreatedAt: now}
		if at != nil {
			lat, lng := at.Latitude, at.Longitude
			c.Latitude, c.Longitude = &lat, &lng
		}
		if err := tx.CheckIns().Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyCheckedIn
			}
			return err
		}

		res = &CheckInResult{CheckIn: *c, Spot: *spot}
		var last *LedgerEntry
		if pts > 0 {
			e, err := s.ledger.Append(ctx, tx, userID, pts, domain.ReasonCheckin,
				fmt.Sprintf("Check-in: %s", spot.Name), WithReference(fmt.Sprintf("checkin_%d", c.ID)))
			if err != nil {
				return err
			}
			entries = append(entries, e)
			res.Points, last = pts, e
		}

		if firstToday {
			days = append(days, today)
		}
		res.Streak = streakEndingAt(days, today)
		every := s.settings.Int(ctx, tx, domain.SettingPointsStreakDays)
		bonus := s.settings.Int(ctx, tx, domain.SettingPointsStreakBonus)
		if firstToday && every > 0 && bonus > 0 && res.Streak > 0 && int64(res.Streak)%every == 0 {
			e, err := s.ledger.Append(ctx, tx, userID, bonus, domain.ReasonStreak,
				fmt.Sprintf("Sequência de %d dias", res.Streak), WithReference("streak_"+today))
			if err != nil {
				return err
			}
			entries = append(entries, e)
			res.StreakBonus, last = bonus, e
		}
		if last != nil {
			res.Balance, res.Level = last.Balance, string(last.Level)
		} else {
			u, err := tx.Users().GetByID(ctx, userID)
			if err != nil {
				return err
			}
			res.Balance, res.Level = u.Points, u.Level
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Committed(ctx, entries...)
	unlocked, credited := s.achievements.evaluateQuietly(ctx, userID)
	for _, a := range unlocked {
		res.Unlocked = append(res.Unlocked, a.ID)
	}
	if credited != nil {
		res.Balance, res.Level = credited.Balance, string(credited.Level)
	}
	return res, nil
}

func (s *CheckInService) History(ctx context.Context, userID uint, limit, offset int) ([]models.CheckIn, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.CheckIns().ListByUser(ctx, userID, limit, offset)
}

// Nearby returns active spots within radiusKm of the point, closest first.
// A non-positive radius returns every active spot.
func (s *CheckInService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbySpot, error) {
	if !location.ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	spots, err := s.store.Spots().List(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]NearbySpot, 0, len(spots))
	for _, sp := range spots {
		d := location.HaversineKm(lat, lng, sp.Latitude, sp.Longitude)
		if radiusKm > 0 && d > radiusKm {
			continue
		}
		n := NearbySpot{
			TouristSpot: sp,
			DistanceKm:  math.Round(d*100) / 100,
			CanCheckIn:  proximity.CanCheckIn(d*1000, s.radiusMeters),
		}
		if radiusKm > 0 {
			n.Progress = proximity.Progress(d, radiusKm)
			n.Label = proximity.Label(n.Progress)
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
