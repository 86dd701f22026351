package market

import (
	"encoding/json"

	"github.com/royceleh/polly/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	eventVoteCast       = "vote_cast"
	eventRewardRedeemed = "reward_redeemed"
)

type eventPayload struct {
	Answer string `json:"answer,omitempty"`
	Reward string `json:"reward,omitempty"`
	Points int    `json:"points"`
}

// recordEvent appends a ledger event inside the caller's transaction, so
// the audit row commits or rolls back with the write it describes.
func recordEvent(tx *gorm.DB, event db.LedgerEvent, payload eventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event.Payload = datatypes.JSON(data)
	return tx.Create(&event).Error
}
