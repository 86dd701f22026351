package db

import "time"

// PointsBalance holds one row per user, lazily created at zero.
// Debits go through a guarded UPDATE so the balance never drops below zero.
type PointsBalance struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex;not null"`
	Points    int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
