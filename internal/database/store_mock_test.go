package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"nodal/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewStore(mock), mock
}

var memoRowColumns = []string{"id", "content", "user_id", "parent_id", "quote_id", "path", "visibility", "is_pinned", "created_at", "updated_at"}

func memoRow(id, userID string) *pgxmock.Rows {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return pgxmock.NewRows(memoRowColumns).
		AddRow(id, "hello", userID, nil, nil, "/"+id+"/", models.VisibilityPublic, false, now, now)
}

func TestExecTx_CommitAndRollback(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE resources SET memo_id = NULL`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectCommit()
	err := store.ExecTx(ctx, func(q *Queries) error {
		return q.DetachResources(ctx, "m1", "u1")
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = store.ExecTx(ctx, func(q *Queries) error { return boom })
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishMemo_AttachesResourcesAndJournals(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO memos`).WillReturnRows(memoRow("m1", "u1"))
	mock.ExpectExec(`UPDATE resources SET memo_id = \$1 WHERE id = ANY\(\$2::uuid\[\]\) AND user_id = \$3`).
		WithArgs("m1", []string{"r1", "r2"}, "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO event_journal`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_time"}).AddRow(int64(7), time.Now()))
	mock.ExpectCommit()

	memo, event, err := store.PublishMemo(ctx, PublishMemoParams{
		InsertMemoParams: InsertMemoParams{ID: "m1", Content: "hello", UserID: "u1", Path: "/m1/", Visibility: models.VisibilityPublic},
		Resources:        []string{"r1", "r2"},
	})
	require.NoError(t, err)
	require.Equal(t, "m1", memo.ID)
	require.Equal(t, int64(7), event.ID)
	require.Equal(t, models.EventMemoPublished, event.EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishMemo_MissingQuoteRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO memos`).WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	_, _, err := store.PublishMemo(context.Background(), PublishMemoParams{
		InsertMemoParams: InsertMemoParams{ID: "m1", UserID: "u1", Path: "/m1/"},
	})
	require.ErrorIs(t, err, ErrReferenceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchMemo_EmptyResourcesDetachesAll(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE memos m`).WillReturnRows(memoRow("m1", "u1"))
	mock.ExpectExec(`UPDATE resources SET memo_id = NULL WHERE memo_id = \$1 AND user_id = \$2`).
		WithArgs("m1", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectQuery(`INSERT INTO event_journal`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_time"}).AddRow(int64(8), time.Now()))
	mock.ExpectCommit()

	_, event, err := store.PatchMemo(context.Background(), PatchMemoParams{
		UpdateMemoParams: UpdateMemoParams{ID: "m1", UserID: "u1"},
		Resources:        &[]string{},
	})
	require.NoError(t, err)
	require.Equal(t, models.EventMemoPatched, event.EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchMemo_NotOwnerIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE memos m`).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := store.PatchMemo(context.Background(), PatchMemoParams{
		UpdateMemoParams: UpdateMemoParams{ID: "m1", UserID: "intruder"},
	})
	require.ErrorIs(t, err, ErrMemoNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMemo_ReleasesResourcesFirst(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE resources SET memo_id = NULL WHERE memo_id = \$1`).
		WithArgs("m1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM memos WHERE id = \$1 AND user_id = \$2`).
		WithArgs("m1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	_, err := store.DeleteMemo(context.Background(), "m1", "u1")
	require.ErrorIs(t, err, ErrMemoNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.CreateUser(context.Background(), CreateUserParams{ID: "u1", Username: "alice", Email: "a@x.com"})
	require.ErrorIs(t, err, ErrDuplicateUser)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByLogin_NoRows(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM users WHERE lower\(username\) = lower\(\$1\) OR email = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	user, err := store.GetUserByLogin(context.Background(), "ghost")
	require.NoError(t, err)
	require.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTimeline_TrimsAndSetsCursor(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	newest := time.UnixMilli(1735689600300).UTC()
	rows := pgxmock.NewRows(memoRowColumns).
		AddRow("m3", "c", "u1", nil, nil, "/m3/", models.VisibilityPublic, false, newest, newest).
		AddRow("m2", "b", "u1", nil, nil, "/m2/", models.VisibilityPublic, false, newest.Add(-time.Millisecond), newest).
		AddRow("m1", "a", "u1", nil, nil, "/m1/", models.VisibilityPublic, false, newest.Add(-2*time.Millisecond), newest)
	mock.ExpectQuery(`FROM memos m\s+WHERE m.parent_id IS NULL AND m.visibility = 'public'\s+ORDER BY m.created_at DESC, m.id DESC\s+LIMIT \$1`).
		WithArgs(3).
		WillReturnRows(rows)
	mock.ExpectQuery(`m.parent_id = ANY`).WillReturnRows(pgxmock.NewRows(memoRowColumns))
	mock.ExpectQuery(`FROM users WHERE id = ANY`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "display_name", "avatar_url"}).AddRow("u1", "alice", nil, nil))
	mock.ExpectQuery(`FROM resources WHERE memo_id = ANY`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "filename", "type", "size", "provider", "path", "external_link", "created_at", "memo_id"}))

	page, err := store.ListTimeline(context.Background(), TimelineQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	require.Equal(t, "m3", page.Data[0].ID)
	require.Equal(t, "m2", page.Data[1].ID)
	require.Equal(t, &models.Cursor{CreatedAt: 1735689600299, ID: "m2"}, page.NextCursor)
	require.Equal(t, "alice", page.Data[0].Author.Username)
	require.Empty(t, page.Data[0].Replies)
	require.NotNil(t, page.Data[0].Resources)
	require.NoError(t, mock.ExpectationsWereMet())
}
