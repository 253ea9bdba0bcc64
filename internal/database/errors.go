package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUser     = errors.New("username or email already registered")
	ErrMemoNotFound      = errors.New("memo not found or user is not the owner")
	ErrDuplicateMemo     = errors.New("a memo with this id already exists")
	ErrReferenceNotFound = errors.New("referenced memo does not exist")
	ErrReplyPinned       = errors.New("a reply cannot be pinned")
	ErrInvalidCursor     = errors.New("cursor needs both createdAt and id")
	ErrInvalidLimit      = errors.New("limit must be positive")
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)
