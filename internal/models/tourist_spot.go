package models

import "time"

type TouristSpot struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:160;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Category      string    `gorm:"size:60;index" json:"category"`
	Address       string    `gorm:"size:255" json:"address"`
	Latitude      float64   `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude     float64   `gorm:"type:decimal(11,8);not null" json:"longitude"`
	CheckinPoints int64     `gorm:"not null;default:0" json:"checkin_points"` // 0 = use points.checkin setting
	ImageURL      string    `gorm:"size:512" json:"image_url"`
	Active        bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (TouristSpot) TableName() string { return "tourist_spots" }
