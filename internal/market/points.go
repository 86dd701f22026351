package market

import (
	"errors"
	"fmt"

	"github.com/royceleh/polly/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Balance returns the caller's points, lazily creating the row at zero on
// first read. The create uses ON CONFLICT DO NOTHING so concurrent first
// reads stay idempotent.
func (s *Service) Balance(userID uint) (int, error) {
	if userID == 0 {
		return 0, nil
	}
	var row db.PointsBalance
	err := s.db.Where("user_id = ?", userID).First(&row).Error
	if err == nil {
		return row.Points, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: read balance: %v", ErrPersistence, err)
	}
	seed := db.PointsBalance{UserID: userID}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("%w: create balance: %v", ErrPersistence, err)
	}
	return 0, nil
}

// creditPoints upserts the balance row, adding amount to any existing
// points. Runs inside the caller's transaction.
func creditPoints(tx *gorm.DB, userID uint, amount int) error {
	row := db.PointsBalance{UserID: userID, Points: amount}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"points": gorm.Expr("points + ?", amount)}),
	}).Create(&row).Error
}

// debitPoints subtracts amount only when the balance covers it, in one
// guarded UPDATE. A zero rows-affected result means the caller cannot
// afford the spend; a stale earlier read can never drive points negative.
func debitPoints(tx *gorm.DB, userID uint, amount int) error {
	result := tx.Model(&db.PointsBalance{}).
		Where("user_id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

type UserStats struct {
	Points        int   `json:"points"`
	PollsAnswered int64 `json:"polls_answered"`
	PollsCreated  int64 `json:"polls_created"`
}

// Stats aggregates the dashboard numbers for one user.
func (s *Service) Stats(userID uint) (UserStats, error) {
	stats := UserStats{}
	if userID == 0 {
		return stats, nil
	}
	points, err := s.Balance(userID)
	if err != nil {
		return stats, err
	}
	stats.Points = points

	var binary, multi int64
	if err := s.db.Model(&db.PollResponse{}).Where("user_id = ?", userID).Count(&binary).Error; err != nil {
		return stats, fmt.Errorf("%w: count responses: %v", ErrPersistence, err)
	}
	if err := s.db.Model(&db.PollOptionVote{}).Where("user_id = ?", userID).Count(&multi).Error; err != nil {
		return stats, fmt.Errorf("%w: count option votes: %v", ErrPersistence, err)
	}
	stats.PollsAnswered = binary + multi

	if err := s.db.Model(&db.Poll{}).Where("user_id = ?", userID).Count(&stats.PollsCreated).Error; err != nil {
		return stats, fmt.Errorf("%w: count polls: %v", ErrPersistence, err)
	}
	return stats, nil
}
