package repository

import (
	"context"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type ReferralRepo struct {
	db *gorm.DB
}

// Create persists a new referral relationship. A second referral for the same referred user is ErrDuplicate.
func (r *ReferralRepo) Create(ctx context.Context, ref *models.Referral) error {
	return translate(r.db.WithContext(ctx).Create(ref).Error)
}

func (r *ReferralRepo) Update(ctx context.Context, ref *models.Referral) error {
	return translate(r.db.WithContext(ctx).Save(ref).Error)
}

// GetByReferredID returns the Referral for a user that was referred by someone.
func (r *ReferralRepo) GetByReferredID(ctx context.Context, referredID uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.WithContext(ctx).Where("referred_id = ?", referredID).First(&ref).Error; err != nil {
		return nil, translate(err)
	}
	return &ref, nil
}

func (r *ReferralRepo) ListByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *ReferralRepo) List(ctx context.Context, status string, limit, offset int) ([]models.Referral, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Referral{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Referral
	err := page(q.Order("created_at DESC, id DESC"), limit, offset).Find(&list).Error
	return list, total, err
}

func (r *ReferralRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Referral{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
