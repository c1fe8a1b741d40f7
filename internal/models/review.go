package models

import "time"

type SpotReview struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_user_spot,priority:1" json:"user_id"`
	SpotID    uint      `gorm:"not null;uniqueIndex:idx_review_user_spot,priority:2;index" json:"spot_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (SpotReview) TableName() string { return "spot_reviews" }
