package database

import (
	"context"
	"errors"
	"time"

	"nodal/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, display_name, avatar_url, bio, is_admin, created_at, updated_at`

type CreateUserParams struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	DisplayName  *string
	AvatarURL    *string
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Bio,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash, display_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + userColumns
	now := time.Now().UTC().Truncate(time.Millisecond)

	user, err := scanUser(q.db.QueryRow(ctx, query,
		arg.ID, arg.Username, arg.Email, arg.PasswordHash, arg.DisplayName, arg.AvatarURL, now,
	))
	if err != nil {
		if pgErrCode(err) == uniqueViolation {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return q.getUser(ctx, `id = $1`, id)
}

// GetUserByUsername ignores case; usernames are unique regardless of case.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return q.getUser(ctx, `lower(username) = lower($1)`, username)
}

// GetUserByLogin matches either the username (ignoring case) or the email.
func (q *Queries) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return q.getUser(ctx, `lower(username) = lower($1) OR email = $1`, login)
}

func (q *Queries) UpdateUserProfile(ctx context.Context, id string, arg models.UpdateProfileRequest) (*models.User, error) {
	query := `
		UPDATE users
		SET
			display_name = COALESCE($2, display_name),
			avatar_url = COALESCE($3, avatar_url),
			bio = COALESCE($4, bio),
			updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns
	now := time.Now().UTC().Truncate(time.Millisecond)

	user, err := scanUser(q.db.QueryRow(ctx, query, id, arg.DisplayName, arg.AvatarURL, arg.Bio, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
