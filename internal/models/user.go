package models

import (
	"time"

	"pontox/internal/domain"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name           string    `gorm:"size:120;not null" json:"name"`
	Phone          string    `gorm:"size:32" json:"phone"`
	PasswordHash   string    `gorm:"size:255" json:"-"`
	GoogleID       *string   `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups (avoids duplicate '' on unique index)
	Role           string    `gorm:"size:20;not null;index" json:"role"`
	AvatarURL      string    `gorm:"size:512" json:"avatar_url"`
	Points         int64     `gorm:"not null;default:0" json:"points"` // materialised balance, folded from points_transactions
	LifetimePoints int64     `gorm:"not null;default:0" json:"lifetime_points"`
	Level          string    `gorm:"size:20;not null;index" json:"level"`
	ReferralCode   *string   `gorm:"uniqueIndex;size:12" json:"referral_code"` // nil until assigned right after signup
	ReferredBy     *uint     `gorm:"index" json:"referred_by"`
	FCMToken       string    `gorm:"size:512" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

// Code returns the user's referral code or "".
func (u *User) Code() string {
	if u.ReferralCode == nil {
		return ""
	}
	return *u.ReferralCode
}
