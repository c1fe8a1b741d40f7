package memory

import (
	"context"
	"sort"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type achievementRepo struct{ s *Store }

func (r achievementRepo) Unlock(ctx context.Context, ua *models.UserAchievement) error {
	return r.s.write(ctx, func(d *Data) error {
		_, dup := find(d.Achievements, func(x *models.UserAchievement) bool {
			return x.UserID == ua.UserID && x.AchievementID == ua.AchievementID
		})
		if dup {
			return repository.ErrDuplicate
		}
		ua.ID = nextID(d.Achievements, func(x *models.UserAchievement) uint { return x.ID })
		r.s.stamp(&ua.UnlockedAt)
		d.Achievements = append(d.Achievements, *ua)
		return nil
	})
}

func (r achievementRepo) ListByUser(_ context.Context, userID uint) ([]models.UserAchievement, error) {
	var out []models.UserAchievement
	r.s.read(func(d *Data) {
		for _, ua := range d.Achievements {
			if ua.UserID == userID {
				out = append(out, ua)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.Before(out[j].UnlockedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r achievementRepo) CountByAchievement(_ context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	r.s.read(func(d *Data) {
		for _, ua := range d.Achievements {
			out[ua.AchievementID]++
		}
	})
	return out, nil
}
