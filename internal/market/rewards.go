package market

import (
	"errors"
	"fmt"

	"github.com/royceleh/polly/internal/db"

	"gorm.io/gorm"
)

// ListActiveRewards returns the redeemable catalog, cheapest first.
func (s *Service) ListActiveRewards() ([]db.Reward, error) {
	var rewards []db.Reward
	err := s.db.Where("active = ?", true).Order("points_cost ASC, id ASC").Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list rewards: %v", ErrPersistence, err)
	}
	return rewards, nil
}

// Redeem exchanges points for a reward. The guarded debit, the redemption
// row and the ledger event commit as one transaction; an unaffordable
// spend writes nothing at all.
func (s *Service) Redeem(userID, rewardID uint) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("%w to redeem rewards", ErrUnauthenticated)
	}
	var reward db.Reward
	err := s.db.Where("id = ? AND active = ?", rewardID, true).First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: reward %d", ErrNotFound, rewardID)
		}
		return "", fmt.Errorf("%w: load reward: %v", ErrPersistence, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := debitPoints(tx, userID, reward.PointsCost); err != nil {
			return err
		}
		redemption := db.RewardRedemption{
			RewardID:    reward.ID,
			UserID:      userID,
			PointsSpent: reward.PointsCost,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}
		return recordEvent(tx, db.LedgerEvent{UserID: userID, RewardID: &reward.ID, Type: eventRewardRedeemed}, eventPayload{
			Reward: reward.Name,
			Points: -reward.PointsCost,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientPoints) {
			return "", fmt.Errorf("%w to redeem %q (%d required)", ErrInsufficientPoints, reward.Name, reward.PointsCost)
		}
		return "", fmt.Errorf("%w: redeem reward: %v", ErrPersistence, err)
	}
	return fmt.Sprintf("You redeemed %q for %d points.", reward.Name, reward.PointsCost), nil
}

// RedemptionHistory lists the caller's redemptions newest-first, each with
// the reward's current name and description. PointsSpent stays snapshotted
// from redemption time.
func (s *Service) RedemptionHistory(userID uint) ([]db.RewardRedemption, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w to view redemptions", ErrUnauthenticated)
	}
	var redemptions []db.RewardRedemption
	err := s.db.Preload("Reward").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&redemptions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list redemptions: %v", ErrPersistence, err)
	}
	return redemptions, nil
}

type RewardStats struct {
	TotalRedemptions int64 `json:"total_redemptions"`
	TotalPointsSpent int64 `json:"total_points_spent"`
	AvailableRewards int64 `json:"available_rewards"`
}

// RewardStatsFor summarizes the caller's redemption activity.
func (s *Service) RewardStatsFor(userID uint) (RewardStats, error) {
	stats := RewardStats{}
	if userID != 0 {
		err := s.db.Model(&db.RewardRedemption{}).Where("user_id = ?", userID).Count(&stats.TotalRedemptions).Error
		if err != nil {
			return stats, fmt.Errorf("%w: count redemptions: %v", ErrPersistence, err)
		}
		var spent int64
		err = s.db.Model(&db.RewardRedemption{}).Where("user_id = ?", userID).
			Select("COALESCE(SUM(points_spent), 0)").Scan(&spent).Error
		if err != nil {
			return stats, fmt.Errorf("%w: sum points spent: %v", ErrPersistence, err)
		}
		stats.TotalPointsSpent = spent
	}
	err := s.db.Model(&db.Reward{}).Where("active = ?", true).Count(&stats.AvailableRewards).Error
	if err != nil {
		return stats, fmt.Errorf("%w: count rewards: %v", ErrPersistence, err)
	}
	return stats, nil
}
