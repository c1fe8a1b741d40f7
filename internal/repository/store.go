package repository

import (
	"context"
	"errors"
	"time"

	"pontox/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories behind one storage backend.
// Atomic runs fn against a Store whose writes commit together or not at all.
type Store interface {
	Users() UserRepository
	Points() PointsRepository
	Referrals() ReferralRepository
	Spots() SpotRepository
	CheckIns() CheckInRepository
	Redemptions() RedemptionRepository
	Achievements() AchievementRepository
	Reviews() ReviewRepository
	Notifications() NotificationRepository
	Settings() SettingRepository
	Audit() AuditRepository
	Atomic(ctx context.Context, fn func(Store) error) error
}

type UserFilter struct {
	Search string
	Level  string
	Role   string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetForUpdate is GetByID holding a row lock until the surrounding Atomic commits.
	GetForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	All(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type TransactionFilter struct {
	UserID uint
	Reason string
	Since  time.Time
	Limit  int
	Offset int
}

type PointsRepository interface {
	// Append inserts an entry; entries are never updated or deleted.
	Append(ctx context.Context, tx *models.PointsTransaction) error
	List(ctx context.Context, f TransactionFilter) ([]models.PointsTransaction, int64, error)
	// Since returns every entry created at or after since, oldest first. Zero since means all.
	Since(ctx context.Context, since time.Time) ([]models.PointsTransaction, error)
	// Totals folds a user's log: balance is the signed sum, lifetime excludes redemptions.
	Totals(ctx context.Context, userID uint) (balance, lifetime int64, err error)
}

type ReferralRepository interface {
	Create(ctx context.Context, r *models.Referral) error
	Update(ctx context.Context, r *models.Referral) error
	GetByReferredID(ctx context.Context, referredID uint) (*models.Referral, error)
	ListByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Referral, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type SpotRepository interface {
	Create(ctx context.Context, s *models.TouristSpot) error
	Update(ctx context.Context, s *models.TouristSpot) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.TouristSpot, error)
	List(ctx context.Context, activeOnly bool) ([]models.TouristSpot, error)
	Count(ctx context.Context) (int64, error)
}

type CheckInRepository interface {
	Create(ctx context.Context, c *models.CheckIn) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.CheckIn, int64, error)
	// Days returns the distinct check-in days of a user in ascending order.
	Days(ctx context.Context, userID uint) ([]string, error)
	DistinctSpots(ctx context.Context, userID uint) (int64, error)
	CountBySpot(ctx context.Context) (map[uint]int64, error)
	CountBySpotID(ctx context.Context, spotID uint) (int64, error)
	Since(ctx context.Context, since time.Time) ([]models.CheckIn, error)
	Count(ctx context.Context) (int64, error)
}

type RedemptionFilter struct {
	UserID uint
	Status string
	Limit  int
	Offset int
}

type RedemptionRepository interface {
	Create(ctx context.Context, r *models.Redemption) error
	Update(ctx context.Context, r *models.Redemption) error
	GetByCode(ctx context.Context, code string) (*models.Redemption, error)
	GetByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Redemption, error)
	List(ctx context.Context, f RedemptionFilter) ([]models.Redemption, int64, error)
}

type AchievementRepository interface {
	// Unlock returns ErrDuplicate when the user already holds the achievement.
	Unlock(ctx context.Context, ua *models.UserAchievement) error
	ListByUser(ctx context.Context, userID uint) ([]models.UserAchievement, error)
	CountByAchievement(ctx context.Context) (map[string]int64, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.SpotReview) error
	ListBySpot(ctx context.Context, spotID uint, limit, offset int) ([]models.SpotReview, int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	AverageRating(ctx context.Context, spotID uint) (float64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint, at time.Time) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	// SeedDefaults inserts missing keys and leaves existing values untouched.
	SeedDefaults(ctx context.Context, defaults map[string]string) error
}

type AuditRepository interface {
	Create(ctx context.Context, l *models.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error)
}
