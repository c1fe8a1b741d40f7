package models

import "time"

// Referral tracks the relationship between a referrer and a referred user.
// A user can only be referred once.
type Referral struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ReferrerID    uint       `gorm:"not null;index" json:"referrer_id"`
	ReferredID    uint       `gorm:"uniqueIndex;not null" json:"referred_id"`
	Code          string     `gorm:"size:12;not null" json:"code"`
	Status        string     `gorm:"size:20;not null;index" json:"status"` // pending | completed | rewarded
	PointsAwarded int64      `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

func (Referral) TableName() string { return "referrals" }
