package repository

import (
	"context"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type AuditRepo struct {
	db *gorm.DB
}

func (r *AuditRepo) Create(ctx context.Context, l *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.AuditLog
	err := page(q.Order("created_at DESC, id DESC"), limit, offset).Find(&list).Error
	return list, total, err
}
