package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"nodal/internal/models"

	"github.com/jackc/pgx/v5"
)

const memoColumns = `m.id, m.content, m.user_id, m.parent_id, m.quote_id, m.path, m.visibility, m.is_pinned, m.created_at, m.updated_at`

// MemoPath returns the materialized path of a memo: "/id/" for a root memo,
// the parent's path followed by "id/" for a reply.
func MemoPath(parentPath, id string) string {
	if parentPath == "" {
		return "/" + id + "/"
	}
	return parentPath + id + "/"
}

func scanMemo(row pgx.Row) (models.Memo, error) {
	var m models.Memo
	err := row.Scan(
		&m.ID,
		&m.Content,
		&m.UserID,
		&m.ParentID,
		&m.QuoteID,
		&m.Path,
		&m.Visibility,
		&m.IsPinned,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func collectMemos(rows pgx.Rows) ([]models.Memo, error) {
	defer rows.Close()

	var memos []models.Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, err
		}
		memos = append(memos, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if memos == nil {
		return []models.Memo{}, nil
	}

	return memos, nil
}

func mapMemoWriteErr(err error) error {
	switch pgErrCode(err) {
	case uniqueViolation:
		return ErrDuplicateMemo
	case foreignKeyViolation:
		return ErrReferenceNotFound
	case checkViolation:
		return ErrReplyPinned
	}
	return err
}

type InsertMemoParams struct {
	ID         string
	Content    string
	UserID     string
	ParentID   *string
	QuoteID    *string
	Path       string
	Visibility models.Visibility
	IsPinned   bool
	CreatedAt  time.Time
}

func (q *Queries) InsertMemo(ctx context.Context, arg InsertMemoParams) (*models.Memo, error) {
	query := `
		INSERT INTO memos AS m (id, content, user_id, parent_id, quote_id, path, visibility, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + memoColumns
	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC().Truncate(time.Millisecond)

	m, err := scanMemo(q.db.QueryRow(ctx, query,
		arg.ID,
		arg.Content,
		arg.UserID,
		arg.ParentID,
		arg.QuoteID,
		arg.Path,
		string(arg.Visibility),
		arg.IsPinned,
		createdAt,
	))
	if err != nil {
		return nil, mapMemoWriteErr(err)
	}
	return &m, nil
}

func (q *Queries) GetMemo(ctx context.Context, id string) (*models.Memo, error) {
	m, err := scanMemo(q.db.QueryRow(ctx, `SELECT `+memoColumns+` FROM memos m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// UpdateMemoParams holds a partial update; nil fields keep the stored value.
// SetQuote decides whether QuoteID is written at all, so a nil QuoteID with
// SetQuote clears the quote.
type UpdateMemoParams struct {
	ID         string
	UserID     string
	Content    *string
	Visibility *models.Visibility
	IsPinned   *bool
	SetQuote   bool
	QuoteID    *string
	CreatedAt  *time.Time
}

func (q *Queries) UpdateMemo(ctx context.Context, arg UpdateMemoParams) (*models.Memo, error) {
	query := `
		UPDATE memos m
		SET
			content = COALESCE($3, m.content),
			visibility = COALESCE($4, m.visibility),
			is_pinned = COALESCE($5, m.is_pinned),
			quote_id = CASE WHEN $6::boolean THEN $7::uuid ELSE m.quote_id END,
			created_at = COALESCE($8, m.created_at),
			updated_at = $9
		WHERE m.id = $1 AND m.user_id = $2
		RETURNING ` + memoColumns

	var visibility *string
	if arg.Visibility != nil {
		v := string(*arg.Visibility)
		visibility = &v
	}
	var createdAt *time.Time
	if arg.CreatedAt != nil {
		t := arg.CreatedAt.UTC().Truncate(time.Millisecond)
		createdAt = &t
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	m, err := scanMemo(q.db.QueryRow(ctx, query,
		arg.ID, arg.UserID, arg.Content, visibility, arg.IsPinned, arg.SetQuote, arg.QuoteID, createdAt, now,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemoNotFound
		}
		return nil, mapMemoWriteErr(err)
	}
	return &m, nil
}

// AttachResources links the caller's resources to a memo. Ids the caller does
// not own are skipped.
func (q *Queries) AttachResources(ctx context.Context, memoID, userID string, resourceIDs []string) (int64, error) {
	if len(resourceIDs) == 0 {
		return 0, nil
	}
	query := `UPDATE resources SET memo_id = $1 WHERE id = ANY($2::uuid[]) AND user_id = $3`
	res, err := q.db.Exec(ctx, query, memoID, resourceIDs, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (q *Queries) DetachResources(ctx context.Context, memoID, userID string) error {
	query := `UPDATE resources SET memo_id = NULL WHERE memo_id = $1 AND user_id = $2`
	_, err := q.db.Exec(ctx, query, memoID, userID)
	return err
}

func (q *Queries) RemoveMemo(ctx context.Context, id, userID string) error {
	if _, err := q.db.Exec(ctx, `UPDATE resources SET memo_id = NULL WHERE memo_id = $1`, id); err != nil {
		return err
	}
	res, err := q.db.Exec(ctx, `DELETE FROM memos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrMemoNotFound
	}
	return nil
}

const searchLimit = 100

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SearchMemos returns memos whose content contains keyword and which viewerID
// may see, newest first.
func (q *Queries) SearchMemos(ctx context.Context, viewerID, keyword string) ([]models.Memo, error) {
	query := `
		SELECT ` + memoColumns + `
		FROM memos m
		WHERE m.content LIKE $1 AND (m.visibility = 'public' OR m.user_id = $2)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3`
	rows, err := q.db.Query(ctx, query, "%"+escapeLike(keyword)+"%", viewerID, searchLimit)
	if err != nil {
		return nil, err
	}
	memos, err := collectMemos(rows)
	if err != nil {
		return nil, err
	}
	if err := q.Hydrate(ctx, memos, viewerID); err != nil {
		return nil, err
	}
	return memos, nil
}
