package database

import (
	"context"
	"errors"
	"time"

	"nodal/internal/models"

	"github.com/jackc/pgx/v5"
)

const resourceColumns = `id, user_id, filename, type, size, provider, path, external_link, created_at, memo_id`

func scanResource(row pgx.Row) (models.Resource, error) {
	var r models.Resource
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Filename,
		&r.Type,
		&r.Size,
		&r.Provider,
		&r.Path,
		&r.ExternalLink,
		&r.CreatedAt,
		&r.MemoID,
	)
	return r, err
}

func collectResources(rows pgx.Rows) ([]models.Resource, error) {
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if resources == nil {
		return []models.Resource{}, nil
	}

	return resources, nil
}

type CreateResourceParams struct {
	ID           string
	UserID       string
	Filename     string
	Type         string
	Size         int64
	Provider     string
	Path         string
	ExternalLink *string
}

func (q *Queries) CreateResource(ctx context.Context, arg CreateResourceParams) (*models.Resource, error) {
	query := `
		INSERT INTO resources (id, user_id, filename, type, size, provider, path, external_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + resourceColumns
	now := time.Now().UTC().Truncate(time.Millisecond)

	r, err := scanResource(q.db.QueryRow(ctx, query,
		arg.ID, arg.UserID, arg.Filename, arg.Type, arg.Size, arg.Provider, arg.Path, arg.ExternalLink, now,
	))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetResource returns the resource only if userID owns it.
func (q *Queries) GetResource(ctx context.Context, id, userID string) (*models.Resource, error) {
	r, err := scanResource(q.db.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (q *Queries) ListResourcesByUser(ctx context.Context, userID string) ([]models.Resource, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectResources(rows)
}

func (q *Queries) listResourcesByMemo(ctx context.Context, memoIDs []string) (map[string][]models.Resource, error) {
	out := map[string][]models.Resource{}
	if len(memoIDs) == 0 {
		return out, nil
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE memo_id = ANY($1::uuid[]) ORDER BY created_at ASC, id ASC`, memoIDs)
	if err != nil {
		return nil, err
	}
	resources, err := collectResources(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		out[*r.MemoID] = append(out[*r.MemoID], r)
	}
	return out, nil
}
