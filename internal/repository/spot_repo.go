package repository

import (
	"context"

	"pontox/internal/models"

	"gorm.io/gorm"
)

type SpotRepo struct {
	db *gorm.DB
}

func (r *SpotRepo) Create(ctx context.Context, s *models.TouristSpot) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *SpotRepo) Update(ctx context.Context, s *models.TouristSpot) error {
	return translate(r.db.WithContext(ctx).Save(s).Error)
}

func (r *SpotRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.TouristSpot{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SpotRepo) GetByID(ctx context.Context, id uint) (*models.TouristSpot, error) {
	var s models.TouristSpot
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *SpotRepo) List(ctx context.Context, activeOnly bool) ([]models.TouristSpot, error) {
	q := r.db.WithContext(ctx).Order("name ASC, id ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var list []models.TouristSpot
	err := q.Find(&list).Error
	return list, err
}

func (r *SpotRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TouristSpot{}).Count(&n).Error
	return n, err
}
