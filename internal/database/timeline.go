package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nodal/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultTimelineLimit = 20
	MaxTimelineLimit     = 100
)

// TimelineQuery selects one page of root memos.
//
// With a target user the page holds that user's memos, restricted to public
// ones unless the viewer is the target. Without one it holds every public memo
// plus the viewer's own private memos. An empty ViewerID is anonymous.
type TimelineQuery struct {
	ViewerID     string
	TargetUserID string
	Cursor       *models.Cursor
	Limit        int
}

// NormalizeLimit applies the default and the upper bound to a requested page size.
func NormalizeLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultTimelineLimit, nil
	case limit < 0:
		return 0, ErrInvalidLimit
	case limit > MaxTimelineLimit:
		return MaxTimelineLimit, nil
	}
	return limit, nil
}

// ParseCursor reads the cursor query parameters. Both empty means no cursor.
func ParseCursor(createdAt, id string) (*models.Cursor, error) {
	if createdAt == "" && id == "" {
		return nil, nil
	}
	if createdAt == "" || id == "" {
		return nil, ErrInvalidCursor
	}
	ms, err := strconv.ParseInt(createdAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: createdAt %q is not epoch milliseconds", ErrInvalidCursor, createdAt)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id %q is not a uuid", ErrInvalidCursor, id)
	}
	return &models.Cursor{CreatedAt: ms, ID: id}, nil
}

// Where renders the filter as a SQL predicate over alias m with positional args.
func (t TimelineQuery) Where() (string, []any) {
	var (
		preds = []string{"m.parent_id IS NULL"}
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if t.TargetUserID != "" {
		preds = append(preds, "m.user_id = "+next(t.TargetUserID))
		if t.ViewerID != t.TargetUserID {
			preds = append(preds, "m.visibility = 'public'")
		}
	} else if t.ViewerID != "" {
		preds = append(preds, "(m.visibility = 'public' OR m.user_id = "+next(t.ViewerID)+")")
	} else {
		preds = append(preds, "m.visibility = 'public'")
	}

	if t.Cursor != nil {
		at := next(time.UnixMilli(t.Cursor.CreatedAt).UTC())
		id := next(t.Cursor.ID)
		preds = append(preds, fmt.Sprintf("(m.created_at < %s OR (m.created_at = %s AND m.id < %s))", at, at, id))
	}

	return strings.Join(preds, " AND "), args
}

func (q *Queries) ListTimeline(ctx context.Context, t TimelineQuery) (*models.TimelinePage, error) {
	limit, err := NormalizeLimit(t.Limit)
	if err != nil {
		return nil, err
	}

	where, args := t.Where()
	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM memos m
		WHERE %s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $%d`, memoColumns, where, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	memos, err := collectMemos(rows)
	if err != nil {
		return nil, err
	}

	page := &models.TimelinePage{}
	if len(memos) > limit {
		memos = memos[:limit]
		c := models.CursorOf(memos[limit-1])
		page.NextCursor = &c
	}

	if err := q.Hydrate(ctx, memos, t.ViewerID); err != nil {
		return nil, err
	}
	page.Data = memos
	return page, nil
}

// GetMemoDetail returns a hydrated memo, or nil when it does not exist.
// Visibility of the memo itself is left to the caller.
func (q *Queries) GetMemoDetail(ctx context.Context, id, viewerID string) (*models.Memo, error) {
	m, err := q.GetMemo(ctx, id)
	if err != nil || m == nil {
		return m, err
	}
	memos := []models.Memo{*m}
	if err := q.Hydrate(ctx, memos, viewerID); err != nil {
		return nil, err
	}
	return &memos[0], nil
}
