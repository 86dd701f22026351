package market

import (
	"errors"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Service operations return one of these sentinels, usually wrapped with
// context. Handlers map them onto HTTP statuses.
var (
	ErrUnauthenticated    = errors.New("you must be logged in")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyVoted       = errors.New("you have already voted on this poll")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrStorageFailure     = errors.New("failed to upload image")
	ErrPersistence        = errors.New("storage error")
)

// isUniqueViolation reports whether err is a duplicate-key failure. GORM
// translates these to ErrDuplicatedKey when the driver supports it; the
// Postgres error code is checked as well for untranslated paths.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
