package models

import (
	"time"

	"gorm.io/datatypes"
)

// PointsTransaction is one append-only ledger entry. Positive = credit, negative = debit.
type PointsTransaction struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"not null;index:idx_points_tx_user_created,priority:1" json:"user_id"`
	Points      int64             `gorm:"not null" json:"points"`
	Reason      string            `gorm:"size:30;not null;index" json:"reason"`
	Description string            `gorm:"size:255" json:"description"`
	Reference   string            `gorm:"size:128" json:"reference,omitempty"` // e.g. checkin_12, redemption_3
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index:idx_points_tx_user_created,priority:2;index" json:"created_at"`
}

func (PointsTransaction) TableName() string { return "points_transactions" }
