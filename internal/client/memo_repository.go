package client

import (
	"context"
	"iter"
	"slices"
	"time"

	"nodal/internal/models"
)

// DefaultPageSize is the page size the repository asks for.
const DefaultPageSize = 20

// MemoRepository mirrors every memo operation into the cache.
type MemoRepository struct {
	api      *API
	cache    *Cache
	pageSize int
}

func NewMemoRepository(api *API, cache *Cache) *MemoRepository {
	return &MemoRepository{api: api, cache: cache, pageSize: DefaultPageSize}
}

func keyFor(username string) TimelineKey {
	if username == "" {
		return Explore()
	}
	return Personal(username)
}

// Timeline returns the cached timeline of username ("" for explore).
func (r *MemoRepository) Timeline(username string) []models.Memo {
	return r.cache.Timeline(keyFor(username))
}

func (r *MemoRepository) Subscribe(username string) (<-chan []models.Memo, func()) {
	return r.cache.Subscribe(keyFor(username))
}

// HasMore reports whether load-more on username can return anything.
func (r *MemoRepository) HasMore(username string) bool {
	cursor, loaded := r.cache.Cursor(keyFor(username))
	return !loaded || cursor != nil
}

// FetchTimeline loads the first page (refresh) or the page after the stored
// cursor and merges it into the cache. Loading more from an exhausted
// timeline returns an empty page without a request.
func (r *MemoRepository) FetchTimeline(ctx context.Context, username string, refresh bool) (*models.TimelinePage, error) {
	key := keyFor(username)

	var cursor *models.Cursor
	if !refresh {
		var loaded bool
		cursor, loaded = r.cache.Cursor(key)
		if !loaded {
			refresh = true
		} else if cursor == nil {
			return &models.TimelinePage{Data: []models.Memo{}}, nil
		}
	}

	page, err := r.api.Timeline(ctx, TimelineParams{Username: username, Cursor: cursor, Limit: r.pageSize})
	if err != nil {
		return nil, err
	}
	r.cache.MergePage(key, *page, refresh)
	return page, nil
}

// Publish is not optimistic: the memo enters the cache once the server
// returns it.
func (r *MemoRepository) Publish(ctx context.Context, req models.PublishMemoRequest) (*models.Memo, error) {
	memo, err := r.api.Publish(ctx, req)
	if err != nil {
		return nil, err
	}

	r.cache.Put(*memo)
	if memo.ParentID != nil {
		// the timeline only lists root memos, so a reply lives in its parent's replies
		if parent, ok := r.cache.Memo(*memo.ParentID); ok {
			parent.Replies = append(slices.Clone(parent.Replies), *memo)
			r.cache.Put(parent)
		}
		return memo, nil
	}
	r.cache.Prepend(Explore(), memo.ID)
	if memo.Author != nil && memo.Author.Username != "" {
		r.cache.Prepend(Personal(memo.Author.Username), memo.ID)
	}
	return memo, nil
}

// MemoPatch is a partial update. Nil fields keep the current value.
type MemoPatch struct {
	Content    *string
	Visibility *models.Visibility
	Resources  *[]models.Resource
	CreatedAt  *time.Time
	IsPinned   *bool
	Quote      QuoteField
}

// Apply returns m with the patch merged in.
func (p MemoPatch) Apply(m models.Memo) models.Memo {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Visibility != nil {
		m.Visibility = *p.Visibility
	}
	if p.Resources != nil {
		m.Resources = slices.Clone(*p.Resources)
	}
	if p.CreatedAt != nil {
		m.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	if p.IsPinned != nil {
		m.IsPinned = *p.IsPinned
	}
	if quoted, ok := p.Quote.Memo(); ok {
		id := quoted.ID
		m.QuoteID = &id
		m.QuotedMemo = &quoted
	} else if p.Quote.IsEmpty() {
		m.QuoteID = nil
		m.QuotedMemo = nil
	}
	return m
}

// Request builds the wire body with only the fields that differ from old.
// With known false every supplied field is sent.
func (p MemoPatch) Request(old models.Memo, known bool) models.PatchMemoRequest {
	var req models.PatchMemoRequest
	if p.Content != nil && (!known || *p.Content != old.Content) {
		req.Content = p.Content
	}
	if p.Visibility != nil && (!known || *p.Visibility != old.Visibility) {
		req.Visibility = p.Visibility
	}
	if p.Resources != nil && (!known || !slices.Equal(resourceIDs(*p.Resources), resourceIDs(old.Resources))) {
		ids := resourceIDs(*p.Resources)
		req.Resources = &ids
	}
	if p.CreatedAt != nil && (!known || p.CreatedAt.UnixMilli() != old.CreatedAt.UnixMilli()) {
		ms := p.CreatedAt.UnixMilli()
		req.CreatedAt = &ms
	}
	if p.IsPinned != nil && (!known || *p.IsPinned != old.IsPinned) {
		req.IsPinned = p.IsPinned
	}
	if quoted, ok := p.Quote.Memo(); ok {
		if !known || old.QuoteID == nil || *old.QuoteID != quoted.ID {
			req.QuoteID = models.Some(quoted.ID)
		}
	} else if p.Quote.IsEmpty() && (!known || old.QuoteID != nil) {
		req.QuoteID = models.Null[string]()
	}
	return req
}

func resourceIDs(resources []models.Resource) []string {
	ids := make([]string, len(resources))
	for i, res := range resources {
		ids[i] = res.ID
	}
	return ids
}

type memoSnapshot struct {
	memo  models.Memo
	known bool
}

// Patch writes the merged memo into the cache at once, sends the changed
// fields, and restores the previous entity if the server refuses.
func (r *MemoRepository) Patch(ctx context.Context, id string, patch MemoPatch) error {
	old, known := r.cache.Memo(id)
	req := patch.Request(old, known)
	if req.IsEmpty() {
		return nil
	}

	return Optimistic[memoSnapshot]{
		Capture: func() memoSnapshot {
			m, ok := r.cache.Memo(id)
			return memoSnapshot{memo: m, known: ok}
		},
		Apply: func() {
			if known {
				r.cache.Put(patch.Apply(old))
			}
		},
		Restore: func(s memoSnapshot) {
			if s.known {
				r.cache.Put(s.memo)
			}
		},
	}.Run(ctx, func(ctx context.Context) error {
		return r.api.PatchMemo(ctx, id, req)
	})
}

// Delete removes the memo from the cache before the request and puts it back
// where it was if the request fails.
func (r *MemoRepository) Delete(ctx context.Context, id string) error {
	return Optimistic[Removal]{
		Capture: func() Removal { return r.cache.Snapshot(id) },
		Apply:   func() { r.cache.Remove(id) },
		Restore: r.cache.Restore,
	}.Run(ctx, func(ctx context.Context) error {
		return r.api.DeleteMemo(ctx, id)
	})
}

// Detail yields the cached memo first, if any, then the server's copy, which
// also replaces the cached entity. A failed fetch yields the error last.
func (r *MemoRepository) Detail(ctx context.Context, id string) iter.Seq2[models.Memo, error] {
	return func(yield func(models.Memo, error) bool) {
		if cached, ok := r.cache.Memo(id); ok {
			if !yield(cached, nil) {
				return
			}
		}
		memo, err := r.api.Memo(ctx, id)
		if err != nil {
			yield(models.Memo{}, err)
			return
		}
		r.cache.Put(*memo)
		yield(*memo, nil)
	}
}

// Search is not cached.
func (r *MemoRepository) Search(ctx context.Context, keyword string) ([]models.Memo, error) {
	return r.api.Search(ctx, keyword)
}
