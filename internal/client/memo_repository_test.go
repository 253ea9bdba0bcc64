package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"nodal/internal/errs"
	"nodal/internal/models"

	"github.com/stretchr/testify/require"
)

func TestMemoRepository_FetchTimelinePaging(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/memos/timeline", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		switch r.URL.Query().Get("cursorId") {
		case "":
			writeData(w, models.TimelinePage{
				Data:       []models.Memo{memoAt("c", 3), memoAt("b", 2)},
				NextCursor: &models.Cursor{CreatedAt: 2, ID: "b"},
			})
		case "b":
			require.Equal(t, "2", r.URL.Query().Get("cursorCreatedAt"))
			writeData(w, models.TimelinePage{Data: []models.Memo{memoAt("a", 1)}})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursorId"))
		}
	})
	api, _ := newTestAPI(t, mux)
	repo := NewMemoRepository(api, NewCache())
	ctx := context.Background()

	require.True(t, repo.HasMore(""))
	_, err := repo.FetchTimeline(ctx, "", false)
	require.NoError(t, err)
	_, err = repo.FetchTimeline(ctx, "", false)
	require.NoError(t, err)
	require.False(t, repo.HasMore(""))

	page, err := repo.FetchTimeline(ctx, "", false)
	require.NoError(t, err)
	require.Empty(t, page.Data)
	require.EqualValues(t, 2, calls.Load())

	ids := []string{}
	for _, m := range repo.Timeline("") {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"c", "b", "a"}, ids)

	_, err = repo.FetchTimeline(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, repo.Timeline(""), 2)
}

func TestMemoRepository_FetchTimelineUnknownUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/memos/timeline", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, errs.CodeUserNotFound, "user not found")
	})
	api, _ := newTestAPI(t, mux)
	repo := NewMemoRepository(api, NewCache())

	_, err := repo.FetchTimeline(context.Background(), "ghost", true)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, errs.CodeUserNotFound, apiErr.Code)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "trace-fail", apiErr.TraceID)
	require.Empty(t, repo.Timeline("ghost"))
}

func TestMemoRepository_PublishPrependsAfterConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/memos/publish", func(w http.ResponseWriter, r *http.Request) {
		var req models.PublishMemoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		m := memoAt("new", 10)
		m.Content = req.Content
		m.Author = &models.UserSummary{ID: "u1", Username: "alice"}
		writeData(w, m)
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	cache.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("old", 1)}}, true)
	repo := NewMemoRepository(api, cache)

	memo, err := repo.Publish(context.Background(), models.PublishMemoRequest{Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, "hello", memo.Content)
	require.Equal(t, []string{"new", "old"}, cache.IDs(Explore()))
	require.Equal(t, []string{"new"}, cache.IDs(Personal("alice")))
}

func TestMemoRepository_PublishFailureLeavesCacheAlone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/memos/publish", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusUnauthorized, errs.CodeNeedLogin, "login required")
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	repo := NewMemoRepository(api, cache)

	_, err := repo.Publish(context.Background(), models.PublishMemoRequest{Content: "hello"})
	require.Error(t, err)
	require.Empty(t, cache.IDs(Explore()))
}

func TestMemoRepository_PatchSendsOnlyChangedFields(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "m1", r.PathValue("id"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		writeData(w, true)
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	original := memoAt("m1", 1)
	original.Visibility = models.VisibilityPrivate
	original.IsPinned = true
	cache.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{original}}, true)
	repo := NewMemoRepository(api, cache)

	content := "edited"
	same := models.VisibilityPrivate
	err := repo.Patch(context.Background(), "m1", MemoPatch{Content: &content, Visibility: &same})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"content": "edited"}, <-bodies)

	got, ok := cache.Memo("m1")
	require.True(t, ok)
	require.Equal(t, "edited", got.Content)
	require.Equal(t, models.VisibilityPrivate, got.Visibility)
	require.True(t, got.IsPinned)
	require.Equal(t, original.CreatedAt, got.CreatedAt)
}

func TestMemoRepository_PatchRollsBackOnFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusForbidden, errs.CodeMemoNoPermission, "no permission for this memo")
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	cache.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("m1", 1)}}, true)
	repo := NewMemoRepository(api, cache)

	updates, cancel := cache.Subscribe(Explore())
	defer cancel()
	<-updates

	content := "edited"
	err := repo.Patch(context.Background(), "m1", MemoPatch{Content: &content})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, errs.CodeMemoNoPermission, apiErr.Code)

	got, _ := cache.Memo("m1")
	require.Equal(t, "content m1", got.Content)
	latest := <-updates
	require.Equal(t, "content m1", latest[0].Content)
}

func TestMemoRepository_PatchQuoteStates(t *testing.T) {
	bodies := make(chan string, 3)
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies <- string(raw)
		writeData(w, true)
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	cache.Put(memoAt("m1", 1))
	repo := NewMemoRepository(api, cache)
	ctx := context.Background()
	quoted := memoAt("q1", 0)

	require.NoError(t, repo.Patch(ctx, "m1", MemoPatch{Quote: QuoteExist(quoted)}))
	got, _ := cache.Memo("m1")
	require.Equal(t, "q1", *got.QuoteID)
	require.Equal(t, "q1", got.QuotedMemo.ID)

	// unchanged quote: nothing to send
	require.NoError(t, repo.Patch(ctx, "m1", MemoPatch{Quote: QuoteExist(quoted)}))

	require.NoError(t, repo.Patch(ctx, "m1", MemoPatch{Quote: QuoteEmpty()}))
	got, _ = cache.Memo("m1")
	require.Nil(t, got.QuoteID)
	require.Nil(t, got.QuotedMemo)

	close(bodies)
	var sent []string
	for b := range bodies {
		sent = append(sent, b)
	}
	require.Len(t, sent, 2)
	require.JSONEq(t, `{"quoteId":"q1"}`, sent[0])
	require.JSONEq(t, `{"quoteId":null}`, sent[1])
}

func TestMemoPatch_Request(t *testing.T) {
	old := memoAt("m1", 1000)
	old.Resources = []models.Resource{{ID: "r1"}}
	at := time.UnixMilli(2000)
	none := []models.Resource{}

	req := MemoPatch{CreatedAt: &at, Resources: &none}.Request(old, true)
	require.Equal(t, int64(2000), *req.CreatedAt)
	require.NotNil(t, req.Resources)
	require.Empty(t, *req.Resources)

	same := []models.Resource{{ID: "r1"}}
	req = MemoPatch{Resources: &same}.Request(old, true)
	require.True(t, req.IsEmpty())

	// without a cached copy every supplied field goes out
	content := old.Content
	req = MemoPatch{Content: &content, Quote: QuoteEmpty()}.Request(models.Memo{}, false)
	require.Equal(t, content, *req.Content)
	require.True(t, req.QuoteID.Set)
}

func TestMemoRepository_DeleteRollsBackOnFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeFailure(w, http.StatusInternalServerError, errs.CodeInternalError, "internal server error")
			return
		}
		writeData(w, true)
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	cache.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("b", 2), memoAt("a", 1)}}, true)
	repo := NewMemoRepository(api, cache)
	ctx := context.Background()

	require.Error(t, repo.Delete(ctx, "a"))
	require.Equal(t, []string{"b", "a"}, cache.IDs(Explore()))

	fail.Store(false)
	require.NoError(t, repo.Delete(ctx, "a"))
	require.Equal(t, []string{"b"}, cache.IDs(Explore()))
	_, ok := cache.Memo("a")
	require.False(t, ok)
}

func TestMemoRepository_DeleteReplyLeavesParent(t *testing.T) {
	var fail atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/memos/publish", func(w http.ResponseWriter, r *http.Request) {
		reply := memoAt("reply", 5)
		parentID := "parent"
		reply.ParentID = &parentID
		writeData(w, reply)
	})
	mux.HandleFunc("DELETE /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeFailure(w, http.StatusInternalServerError, errs.CodeInternalError, "internal server error")
			return
		}
		writeData(w, true)
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	cache.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("parent", 1)}}, true)
	repo := NewMemoRepository(api, cache)
	ctx := context.Background()

	parentID := "parent"
	_, err := repo.Publish(ctx, models.PublishMemoRequest{Content: "re", ParentID: &parentID})
	require.NoError(t, err)
	require.Equal(t, []string{"parent"}, cache.IDs(Explore()))
	parent, _ := cache.Memo("parent")
	require.Len(t, parent.Replies, 1)

	fail.Store(true)
	require.Error(t, repo.Delete(ctx, "reply"))
	parent, _ = cache.Memo("parent")
	require.Equal(t, []string{"reply"}, idsOf(parent.Replies))

	fail.Store(false)
	require.NoError(t, repo.Delete(ctx, "reply"))
	parent, _ = cache.Memo("parent")
	require.Empty(t, parent.Replies)
	_, ok := cache.Memo("reply")
	require.False(t, ok)
}

func TestMemoRepository_DetailEmitsCachedThenConfirmed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		m := memoAt(r.PathValue("id"), 1)
		m.Content = "fresh"
		writeData(w, m)
	})
	api, _ := newTestAPI(t, mux)
	cache := NewCache()
	stale := memoAt("m1", 1)
	stale.Content = "stale"
	cache.Put(stale)
	repo := NewMemoRepository(api, cache)

	var seen []string
	for m, err := range repo.Detail(context.Background(), "m1") {
		require.NoError(t, err)
		seen = append(seen, m.Content)
	}
	require.Equal(t, []string{"stale", "fresh"}, seen)
	got, _ := cache.Memo("m1")
	require.Equal(t, "fresh", got.Content)

	seen = nil
	for m, err := range repo.Detail(context.Background(), "m2") {
		require.NoError(t, err)
		seen = append(seen, m.Content)
	}
	require.Equal(t, []string{"fresh"}, seen)
}

func TestMemoRepository_DetailError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/memos/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusForbidden, errs.CodeMemoNoPermission, "no permission for this memo")
	})
	api, _ := newTestAPI(t, mux)
	repo := NewMemoRepository(api, NewCache())

	var errCount int
	for _, err := range repo.Detail(context.Background(), "m1") {
		require.Error(t, err)
		errCount++
	}
	require.Equal(t, 1, errCount)
}

func TestAPI_NonEnvelopeResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/memos/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	api, _ := newTestAPI(t, mux)

	_, err := api.Search(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Equal(t, errs.CodeInternalError, apiErr.Code)
}
