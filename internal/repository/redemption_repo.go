package repository

import (
	"context"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type RedemptionRepo struct {
	db *gorm.DB
}

func (r *RedemptionRepo) Create(ctx context.Context, red *models.Redemption) error {
	return translate(r.db.WithContext(ctx).Create(red).Error)
}

func (r *RedemptionRepo) Update(ctx context.Context, red *models.Redemption) error {
	return translate(r.db.WithContext(ctx).Save(red).Error)
}

func (r *RedemptionRepo) GetByCode(ctx context.Context, code string) (*models.Redemption, error) {
	var red models.Redemption
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&red).Error; err != nil {
		return nil, translate(err)
	}
	return &red, nil
}

func (r *RedemptionRepo) GetByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Redemption, error) {
	var red models.Redemption
	err := r.db.WithContext(ctx).Where("user_id = ? AND idempotency_key = ?", userID, key).First(&red).Error
	if err != nil {
		return nil, translate(err)
	}
	return &red, nil
}

// List filters by stored status; expiry is resolved by the caller.
func (r *RedemptionRepo) List(ctx context.Context, f RedemptionFilter) ([]models.Redemption, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Redemption{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Redemption
	err := page(q.Order("redeemed_at DESC, id DESC"), f.Limit, f.Offset).Find(&list).Error
	return list, total, err
}
