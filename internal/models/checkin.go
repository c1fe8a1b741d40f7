package models

import "time"

// CheckIn records a visit. Day is the UTC calendar day; (user, spot, day) is unique.
type CheckIn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_checkin_user_spot_day,priority:1;index" json:"user_id"`
	SpotID    uint      `gorm:"not null;uniqueIndex:idx_checkin_user_spot_day,priority:2;index" json:"spot_id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_checkin_user_spot_day,priority:3" json:"day"`
	Points    int64     `gorm:"not null" json:"points"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (CheckIn) TableName() string { return "checkins" }
