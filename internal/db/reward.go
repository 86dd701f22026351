package db

import "time"

type Reward struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:120;not null"`
	Description string    `gorm:"size:512;not null;default:''"`
	PointsCost  int       `gorm:"not null"`
	Active      bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// RewardRedemption records a completed exchange. PointsSpent snapshots the
// reward's cost at redemption time even if the catalog changes later.
type RewardRedemption struct {
	ID          uint      `gorm:"primaryKey"`
	RewardID    uint      `gorm:"index;not null"`
	UserID      uint      `gorm:"index;not null"`
	PointsSpent int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`

	Reward Reward
}
