// Package market holds the application core: the poll service, the points
// ledger, and the reward service. Caller identity is an explicit userID
// argument on every operation; the HTTP layer resolves it from the session
// before calling in.
package market

import (
	"github.com/royceleh/polly/internal/blob"

	"gorm.io/gorm"
)

const (
	KindBinary   = "binary"
	KindMultiple = "multiple"
)

const (
	maxQuestionLength = 120
	maxOptionLength   = 100
	minOptions        = 2
)

type Service struct {
	db            *gorm.DB
	blobs         blob.Store
	pointsPerVote int
}

type Option func(*Service)

func WithPointsPerVote(points int) Option {
	return func(s *Service) {
		if points > 0 {
			s.pointsPerVote = points
		}
	}
}

func New(conn *gorm.DB, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		db:            conn,
		blobs:         blobs,
		pointsPerVote: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
