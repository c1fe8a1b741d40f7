package repository

import (
	"context"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type AchievementRepo struct {
	db *gorm.DB
}

func (r *AchievementRepo) Unlock(ctx context.Context, ua *models.UserAchievement) error {
	return translate(r.db.WithContext(ctx).Create(ua).Error)
}

func (r *AchievementRepo) ListByUser(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	var list []models.UserAchievement
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("unlocked_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *AchievementRepo) CountByAchievement(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		AchievementID string
		N             int64
	}
	err := r.db.WithContext(ctx).Model(&models.UserAchievement{}).
		Select("achievement_id, COUNT(*) AS n").
		Group("achievement_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.AchievementID] = row.N
	}
	return out, nil
}
