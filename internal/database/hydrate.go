package database

import (
	"context"

	"nodal/internal/models"
)

// viewerArg turns an anonymous viewer into NULL so "m.user_id = $n" never matches.
func viewerArg(viewerID string) *string {
	if viewerID == "" {
		return nil
	}
	return &viewerID
}

// Hydrate fills author, quoted memo, resources and direct replies for memos in
// place, issuing one query per relation for the whole slice.
func (q *Queries) Hydrate(ctx context.Context, memos []models.Memo, viewerID string) error {
	if len(memos) == 0 {
		return nil
	}

	ids := make([]string, 0, len(memos))
	var quoteIDs []string
	for _, m := range memos {
		ids = append(ids, m.ID)
		if m.QuoteID != nil {
			quoteIDs = append(quoteIDs, *m.QuoteID)
		}
	}

	quoted, err := q.listVisibleMemos(ctx, `m.id = ANY($1::uuid[])`, quoteIDs, viewerID, `m.created_at DESC`)
	if err != nil {
		return err
	}
	replies, err := q.listVisibleMemos(ctx, `m.parent_id = ANY($1::uuid[])`, ids, viewerID, `m.created_at ASC, m.id ASC`)
	if err != nil {
		return err
	}

	userSet := map[string]struct{}{}
	memoIDs := append([]string{}, ids...)
	for _, group := range [][]models.Memo{memos, quoted, replies} {
		for _, m := range group {
			userSet[m.UserID] = struct{}{}
		}
	}
	for _, m := range quoted {
		memoIDs = append(memoIDs, m.ID)
	}
	for _, m := range replies {
		memoIDs = append(memoIDs, m.ID)
	}
	userIDs := make([]string, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}

	authors, err := q.listUserSummaries(ctx, userIDs)
	if err != nil {
		return err
	}
	resources, err := q.listResourcesByMemo(ctx, memoIDs)
	if err != nil {
		return err
	}

	decorate := func(m *models.Memo) {
		if a, ok := authors[m.UserID]; ok {
			m.Author = &a
		}
		m.Resources = resources[m.ID]
		if m.Resources == nil {
			m.Resources = []models.Resource{}
		}
		if m.Replies == nil {
			m.Replies = []models.Memo{}
		}
	}

	quotedByID := make(map[string]models.Memo, len(quoted))
	for i := range quoted {
		decorate(&quoted[i])
		quotedByID[quoted[i].ID] = quoted[i]
	}
	repliesByParent := map[string][]models.Memo{}
	for i := range replies {
		decorate(&replies[i])
		parent := *replies[i].ParentID
		repliesByParent[parent] = append(repliesByParent[parent], replies[i])
	}

	for i := range memos {
		m := &memos[i]
		m.QuotedMemo = nil
		if m.QuoteID != nil {
			if qm, ok := quotedByID[*m.QuoteID]; ok {
				m.QuotedMemo = &qm
			}
		}
		m.Replies = repliesByParent[m.ID]
		decorate(m)
	}
	return nil
}

func (q *Queries) listVisibleMemos(ctx context.Context, match string, ids []string, viewerID, order string) ([]models.Memo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + memoColumns + ` FROM memos m WHERE ` + match +
		` AND (m.visibility = 'public' OR m.user_id = $2) ORDER BY ` + order
	rows, err := q.db.Query(ctx, query, ids, viewerArg(viewerID))
	if err != nil {
		return nil, err
	}
	return collectMemos(rows)
}

func (q *Queries) listUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.db.Query(ctx, `SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}
