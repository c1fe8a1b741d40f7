package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore is the MySQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository { return &UserRepo{db: s.db} }
func (s *GormStore) Points() PointsRepository { return &PointsRepo{db: s.db} }
func (s *GormStore) Referrals() ReferralRepository { return &ReferralRepo{db: s.db} }
func (s *GormStore) Spots() SpotRepository { return &SpotRepo{db: s.db} }
func (s *GormStore) CheckIns() CheckInRepository { return &CheckInRepo{db: s.db} }
func (s *GormStore) Redemptions() RedemptionRepository { return &RedemptionRepo{db: s.db} }
func (s *GormStore) Achievements() AchievementRepository { return &AchievementRepo{db: s.db} }
func (s *GormStore) Reviews() ReviewRepository { return &ReviewRepo{db: s.db} }
func (s *GormStore) Notifications() NotificationRepository { return &NotificationRepo{db: s.db} }
func (s *GormStore) Settings() SettingRepository { return &SettingRepo{db: s.db} }
func (s *GormStore) Audit() AuditRepository { return &AuditRepo{db: s.db} }

// Atomic runs fn in a database transaction. Nested calls become savepoints.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps gorm errors onto the repository sentinels.
// The DB must be opened with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
