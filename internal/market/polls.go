package market

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/royceleh/polly/internal/blob"
	"github.com/royceleh/polly/internal/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImageUpload struct {
	ContentType string
	Data        []byte
}

type CreatePollInput struct {
	Question string
	Kind     string
	Options  []string
	Image    *ImageUpload
}

// VoteChoice is a tagged variant: either a yes/no answer for a binary poll
// or an option id for a multiple-choice poll. It is validated against the
// poll's stored kind before any write.
type VoteChoice struct {
	kind     string
	answer   bool
	optionID uint
}

func BinaryChoice(answer bool) VoteChoice {
	return VoteChoice{kind: KindBinary, answer: answer}
}

func OptionChoice(optionID uint) VoteChoice {
	return VoteChoice{kind: KindMultiple, optionID: optionID}
}

type OptionTally struct {
	ID      uint   `json:"id"`
	Text    string `json:"text"`
	Votes   int    `json:"votes"`
	Percent int    `json:"percent"`
}

// PollTally is one poll with aggregated vote data and the caller's own
// response, ready for rendering.
type PollTally struct {
	ID           uint          `json:"id"`
	Question     string        `json:"question"`
	ImageURL     string        `json:"image_url,omitempty"`
	Kind         string        `json:"kind"`
	CreatedAt    string        `json:"created_at"`
	Yes          int           `json:"yes"`
	No           int           `json:"no"`
	Total        int           `json:"total"`
	YesPercent   int           `json:"yes_percent"`
	NoPercent    int           `json:"no_percent"`
	Options      []OptionTally `json:"options,omitempty"`
	HasVoted     bool          `json:"has_voted"`
	UserAnswer   *bool         `json:"user_answer,omitempty"`
	UserOptionID uint          `json:"user_option_id,omitempty"`
}

// CreatePoll validates the question, options and optional image, uploads
// the image to the blob store, then persists the poll and its options in
// one create. A failed upload surfaces before anything is written.
func (s *Service) CreatePoll(userID uint, input CreatePollInput) (*db.Poll, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w to create a poll", ErrUnauthenticated)
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if len(question) > maxQuestionLength {
		return nil, fmt.Errorf("%w: question must be %d characters or fewer", ErrInvalidInput, maxQuestionLength)
	}

	kind := input.Kind
	if kind == "" {
		kind = KindBinary
	}
	var options []db.PollOption
	switch kind {
	case KindBinary:
		if len(input.Options) > 0 {
			return nil, fmt.Errorf("%w: binary polls do not take options", ErrInvalidInput)
		}
	case KindMultiple:
		for _, raw := range input.Options {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			if len(text) > maxOptionLength {
				return nil, fmt.Errorf("%w: options must be %d characters or fewer", ErrInvalidInput, maxOptionLength)
			}
			options = append(options, db.PollOption{Text: text})
		}
		if len(options) < minOptions {
			return nil, fmt.Errorf("%w: multiple-choice polls need at least %d options", ErrInvalidInput, minOptions)
		}
	default:
		return nil, fmt.Errorf("%w: unknown poll kind %q", ErrInvalidInput, kind)
	}

	imageURL := ""
	if input.Image != nil && len(input.Image.Data) > 0 {
		if err := blob.ValidateImage(input.Image.ContentType, len(input.Image.Data)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		key := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), blob.Ext(input.Image.ContentType))
		url, err := s.blobs.Put(key, input.Image.ContentType, input.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		imageURL = url
	}

	poll := db.Poll{
		UserID:   userID,
		Question: question,
		ImageURL: imageURL,
		Kind:     kind,
		Options:  options,
	}
	if err := s.db.Create(&poll).Error; err != nil {
		return nil, fmt.Errorf("%w: create poll: %v", ErrPersistence, err)
	}
	return &poll, nil
}

// ListPollsWithTallies returns all polls newest-first with vote counts,
// rounded percentages and the caller's own vote. userID 0 means an
// anonymous caller; tallies are still returned.
func (s *Service) ListPollsWithTallies(userID uint) ([]PollTally, error) {
	var polls []db.Poll
	err := s.db.
		Preload("Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Responses").
		Preload("OptionVotes").
		Order("created_at DESC, id DESC").
		Find(&polls).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list polls: %v", ErrPersistence, err)
	}

	tallies := make([]PollTally, 0, len(polls))
	for i := range polls {
		tallies = append(tallies, tallyPoll(&polls[i], userID))
	}
	return tallies, nil
}

func tallyPoll(poll *db.Poll, userID uint) PollTally {
	tally := PollTally{
		ID:        poll.ID,
		Question:  poll.Question,
		ImageURL:  poll.ImageURL,
		Kind:      poll.Kind,
		CreatedAt: poll.CreatedAt.UTC().Format("Jan 2, 2006"),
	}
	switch poll.Kind {
	case KindMultiple:
		counts := make(map[uint]int, len(poll.Options))
		for _, vote := range poll.OptionVotes {
			counts[vote.OptionID]++
			tally.Total++
			if userID != 0 && vote.UserID == userID {
				tally.HasVoted = true
				tally.UserOptionID = vote.OptionID
			}
		}
		tally.Options = make([]OptionTally, 0, len(poll.Options))
		for _, option := range poll.Options {
			tally.Options = append(tally.Options, OptionTally{
				ID:      option.ID,
				Text:    option.Text,
				Votes:   counts[option.ID],
				Percent: Percentage(counts[option.ID], tally.Total),
			})
		}
	default:
		for _, response := range poll.Responses {
			if response.Answer {
				tally.Yes++
			} else {
				tally.No++
			}
			tally.Total++
			if userID != 0 && response.UserID == userID {
				tally.HasVoted = true
				answer := response.Answer
				tally.UserAnswer = &answer
			}
		}
		tally.YesPercent = Percentage(tally.Yes, tally.Total)
		tally.NoPercent = Percentage(tally.No, tally.Total)
	}
	return tally
}

// Percentage rounds 100*count/total to the nearest integer, returning 0
// when total is 0. Each share rounds independently, so binary yes/no
// percentages may not sum to exactly 100.
func Percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) * 100 / float64(total)))
}

// Vote records the caller's single vote on a poll and credits points in
// the same transaction. The unique index on (poll_id, user_id) is the
// real duplicate guard; the pre-check only avoids a doomed insert.
func (s *Service) Vote(userID, pollID uint, choice VoteChoice) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("%w to vote", ErrUnauthenticated)
	}
	var poll db.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
		}
		return "", fmt.Errorf("%w: load poll: %v", ErrPersistence, err)
	}
	if poll.Kind != choice.kind {
		return "", fmt.Errorf("%w: vote does not match poll kind %q", ErrInvalidInput, poll.Kind)
	}

	switch poll.Kind {
	case KindMultiple:
		return s.voteOption(userID, &poll, choice.optionID)
	default:
		return s.voteBinary(userID, &poll, choice.answer)
	}
}

func (s *Service) voteBinary(userID uint, poll *db.Poll, answer bool) (string, error) {
	var existing db.PollResponse
	err := s.db.Where("poll_id = ? AND user_id = ?", poll.ID, userID).First(&existing).Error
	if err == nil {
		return "", ErrAlreadyVoted
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: check existing vote: %v", ErrPersistence, err)
	}

	label := "No"
	if answer {
		label = "Yes"
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		response := db.PollResponse{PollID: poll.ID, UserID: userID, Answer: answer}
		if err := tx.Create(&response).Error; err != nil {
			return err
		}
		if err := creditPoints(tx, userID, s.pointsPerVote); err != nil {
			return err
		}
		return recordEvent(tx, db.LedgerEvent{UserID: userID, PollID: &poll.ID, Type: eventVoteCast}, eventPayload{
			Answer: label,
			Points: s.pointsPerVote,
		})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrAlreadyVoted
		}
		return "", fmt.Errorf("%w: record vote: %v", ErrPersistence, err)
	}
	return voteConfirmation(label, s.pointsPerVote), nil
}

func (s *Service) voteOption(userID uint, poll *db.Poll, optionID uint) (string, error) {
	var option db.PollOption
	err := s.db.Where("id = ? AND poll_id = ?", optionID, poll.ID).First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: option does not belong to this poll", ErrInvalidInput)
		}
		return "", fmt.Errorf("%w: load option: %v", ErrPersistence, err)
	}

	var existing db.PollOptionVote
	err = s.db.Where("poll_id = ? AND user_id = ?", poll.ID, userID).First(&existing).Error
	if err == nil {
		return "", ErrAlreadyVoted
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: check existing vote: %v", ErrPersistence, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		vote := db.PollOptionVote{PollID: poll.ID, OptionID: option.ID, UserID: userID}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		if err := creditPoints(tx, userID, s.pointsPerVote); err != nil {
			return err
		}
		return recordEvent(tx, db.LedgerEvent{UserID: userID, PollID: &poll.ID, Type: eventVoteCast}, eventPayload{
			Answer: option.Text,
			Points: s.pointsPerVote,
		})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrAlreadyVoted
		}
		return "", fmt.Errorf("%w: record vote: %v", ErrPersistence, err)
	}
	return voteConfirmation(option.Text, s.pointsPerVote), nil
}

func voteConfirmation(label string, points int) string {
	unit := "point"
	if points != 1 {
		unit = "points"
	}
	return fmt.Sprintf("Vote recorded! You earned %d %s for answering %q.", points, unit, label)
}
