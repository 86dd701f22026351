package db

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEvent is an append-only audit row written in the same transaction
// as the vote or redemption it describes, so point movements stay
// reconcilable against the rows that caused them.
type LedgerEvent struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"index;not null"`
	PollID    *uint          `gorm:"index"`
	RewardID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
