package repository

import (
	"context"
	"time"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type CheckInRepo struct {
	db *gorm.DB
}

// Create inserts a check-in; the (user, spot, day) unique index turns repeats into ErrDuplicate.
func (r *CheckInRepo) Create(ctx context.Context, c *models.CheckIn) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CheckInRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.CheckIn, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.CheckIn{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.CheckIn
	err := page(q.Order("created_at DESC, id DESC"), limit, offset).Find(&list).Error
	return list, total, err
}

func (r *CheckInRepo) Days(ctx context.Context, userID uint) ([]string, error) {
	var days []string
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).
		Where("user_id = ?", userID).
		Distinct("day").
		Order("day ASC").
		Pluck("day", &days).Error
	return days, err
}

func (r *CheckInRepo) DistinctSpots(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).
		Where("user_id = ?", userID).
		Distinct("spot_id").
		Count(&n).Error
	return n, err
}

func (r *CheckInRepo) CountBySpot(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		SpotID uint
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).Select("spot_id, COUNT(*) AS n").Group("spot_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.SpotID] = row.N
	}
	return out, nil
}

func (r *CheckInRepo) CountBySpotID(ctx context.Context, spotID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).Where("spot_id = ?", spotID).Count(&n).Error
	return n, err
}

func (r *CheckInRepo) Since(ctx context.Context, since time.Time) ([]models.CheckIn, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var list []models.CheckIn
	err := q.Find(&list).Error
	return list, err
}

func (r *CheckInRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).Count(&n).Error
	return n, err
}
