package repository

import (
	"context"
	"time"

	"pontox/internal/domain"
	"pontox/internal/models"

	"gorm.io/gorm"
)

type PointsRepo struct {
	db *gorm.DB
}

func (r *PointsRepo) Append(ctx context.Context, tx *models.PointsTransaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error)
}

func (r *PointsRepo) List(ctx context.Context, f TransactionFilter) ([]models.PointsTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PointsTransaction{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Reason != "" {
		q = q.Where("reason = ?", f.Reason)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PointsTransaction
	err := page(q.Order("created_at DESC, id DESC"), f.Limit, f.Offset).Find(&list).Error
	return list, total, err
}

func (r *PointsRepo) Since(ctx context.Context, since time.Time) ([]models.PointsTransaction, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var list []models.PointsTransaction
	err := q.Find(&list).Error
	return list, err
}

func (r *PointsRepo) Totals(ctx context.Context, userID uint) (int64, int64, error) {
	var row struct {
		Balance  int64
		Lifetime int64
	}
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Select("COALESCE(SUM(points), 0) AS balance, COALESCE(SUM(CASE WHEN reason <> ? THEN points ELSE 0 END), 0) AS lifetime", domain.ReasonRedemption).
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Balance, row.Lifetime, err
}
