package db

import "time"

type Poll struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Question  string    `gorm:"size:120;not null"`
	ImageURL  string    `gorm:"size:512;not null;default:''"`
	Kind      string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Options     []PollOption
	Responses   []PollResponse
	OptionVotes []PollOptionVote
}

type PollOption struct {
	ID        uint      `gorm:"primaryKey"`
	PollID    uint      `gorm:"index;not null"`
	Text      string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// PollResponse is a yes/no vote on a binary poll. The unique index on
// (poll_id, user_id) is the actual one-vote-per-user guarantee; the
// application-level lookup before insert only saves a round trip.
type PollResponse struct {
	ID        uint      `gorm:"primaryKey"`
	PollID    uint      `gorm:"index;not null;uniqueIndex:idx_poll_responses_poll_user"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_poll_responses_poll_user"`
	Answer    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// PollOptionVote is a vote on one option of a multiple-choice poll.
type PollOptionVote struct {
	ID        uint      `gorm:"primaryKey"`
	PollID    uint      `gorm:"index;not null;uniqueIndex:idx_poll_option_votes_poll_user"`
	OptionID  uint      `gorm:"index;not null"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_poll_option_votes_poll_user"`
	CreatedAt time.Time `gorm:"not null"`
}
