package repository

import (
	"context"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type ReviewRepo struct {
	db *gorm.DB
}

func (r *ReviewRepo) Create(ctx context.Context, rev *models.SpotReview) error {
	return translate(r.db.WithContext(ctx).Create(rev).Error)
}

func (r *ReviewRepo) ListBySpot(ctx context.Context, spotID uint, limit, offset int) ([]models.SpotReview, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.SpotReview{}).Where("spot_id = ?", spotID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.SpotReview
	err := page(q.Order("created_at DESC, id DESC"), limit, offset).Find(&list).Error
	return list, total, err
}

func (r *ReviewRepo) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SpotReview{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ReviewRepo) AverageRating(ctx context.Context, spotID uint) (float64, error) {
	var avg struct{ Avg float64 }
	err := r.db.WithContext(ctx).Model(&models.SpotReview{}).
		Select("COALESCE(AVG(rating), 0) AS avg").
		Where("spot_id = ?", spotID).
		Scan(&avg).Error
	return avg.Avg, err
}
