package models

import (
	"time"

	"pontox/internal/domain"
)

type Redemption struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index;uniqueIndex:idx_redemption_idempotency,priority:1" json:"user_id"`
	RewardID       string     `gorm:"size:64;not null;index" json:"reward_id"`
	RewardName     string     `gorm:"size:160" json:"reward_name"`
	Cost           int64      `gorm:"not null" json:"cost"`
	Code           string     `gorm:"uniqueIndex;size:16;not null" json:"code"`
	Status         string     `gorm:"size:20;not null;index" json:"status"` // active | used | expired
	IdempotencyKey *string    `gorm:"size:128;uniqueIndex:idx_redemption_idempotency,priority:2" json:"-"`
	RedeemedAt     time.Time  `gorm:"index" json:"redeemed_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	UsedAt         *time.Time `json:"used_at"`
}

func (Redemption) TableName() string { return "redemptions" }

// StatusAt resolves expiry at read time; only active redemptions can expire.
func (r *Redemption) StatusAt(now time.Time) string {
	if r.Status == domain.RedemptionStatusActive && !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt) {
		return domain.RedemptionStatusExpired
	}
	return r.Status
}
