package client

import (
	"testing"

	"nodal/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCache_MergePageIsIdempotent(t *testing.T) {
	c := NewCache()
	page := models.TimelinePage{
		Data:       []models.Memo{memoAt("c", 3), memoAt("b", 2)},
		NextCursor: &models.Cursor{CreatedAt: 2, ID: "b"},
	}

	c.MergePage(Explore(), page, false)
	c.MergePage(Explore(), page, false)

	require.Equal(t, []string{"c", "b"}, c.IDs(Explore()))
	cursor, loaded := c.Cursor(Explore())
	require.True(t, loaded)
	require.Equal(t, "b", cursor.ID)
}

func TestCache_LoadMoreAppendsAndRefreshReplaces(t *testing.T) {
	c := NewCache()
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("c", 3), memoAt("b", 2)}}, true)
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("b", 2), memoAt("a", 1)}}, false)
	require.Equal(t, []string{"c", "b", "a"}, c.IDs(Explore()))

	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("d", 4)}}, true)
	require.Equal(t, []string{"d"}, c.IDs(Explore()))
	cursor, loaded := c.Cursor(Explore())
	require.True(t, loaded)
	require.Nil(t, cursor)

	// entities outlive the list they came from
	_, ok := c.Memo("a")
	require.True(t, ok)
}

func TestCache_TimelinesAreIndependent(t *testing.T) {
	c := NewCache()
	c.MergePage(Personal("alice"), models.TimelinePage{Data: []models.Memo{memoAt("a1", 1)}}, true)
	c.MergePage(Personal("bob"), models.TimelinePage{Data: []models.Memo{memoAt("b1", 1)}}, true)

	require.Equal(t, []string{"a1"}, c.IDs(Personal("alice")))
	require.Equal(t, []string{"b1"}, c.IDs(Personal("bob")))
	require.Empty(t, c.IDs(Explore()))
	require.Equal(t, "personal:alice", Personal("alice").String())
	require.Equal(t, "explore", Explore().String())
}

func TestCache_PutUpdatesEveryTimeline(t *testing.T) {
	c := NewCache()
	m := memoAt("x", 1)
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{m}}, true)
	c.MergePage(Personal("alice"), models.TimelinePage{Data: []models.Memo{m}}, true)

	m.Content = "edited"
	c.Put(m)

	require.Equal(t, "edited", c.Timeline(Explore())[0].Content)
	require.Equal(t, "edited", c.Timeline(Personal("alice"))[0].Content)
}

func TestCache_RemoveAndRestoreKeepsPosition(t *testing.T) {
	c := NewCache()
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("c", 3), memoAt("b", 2), memoAt("a", 1)}}, true)
	c.MergePage(Personal("alice"), models.TimelinePage{Data: []models.Memo{memoAt("b", 2)}}, true)

	removal := c.Remove("b")
	require.Equal(t, []string{"c", "a"}, c.IDs(Explore()))
	require.Empty(t, c.IDs(Personal("alice")))
	_, ok := c.Memo("b")
	require.False(t, ok)

	c.Restore(removal)
	require.Equal(t, []string{"c", "b", "a"}, c.IDs(Explore()))
	require.Equal(t, []string{"b"}, c.IDs(Personal("alice")))
	_, ok = c.Memo("b")
	require.True(t, ok)
}

func TestCache_RemoveReplyAndCascade(t *testing.T) {
	c := NewCache()
	parent := memoAt("parent", 3)
	first, second := memoAt("r1", 4), memoAt("r2", 5)
	first.ParentID, second.ParentID = &parent.ID, &parent.ID
	parent.Replies = []models.Memo{first, second}
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{parent}}, true)
	c.Put(first, second)

	removal := c.Remove("r1")
	cached, _ := c.Memo("parent")
	require.Equal(t, []string{"r2"}, idsOf(cached.Replies))
	require.Equal(t, []string{"r2"}, idsOf(c.Timeline(Explore())[0].Replies))

	c.Restore(removal)
	cached, _ = c.Memo("parent")
	require.Equal(t, []string{"r1", "r2"}, idsOf(cached.Replies))
	_, ok := c.Memo("r1")
	require.True(t, ok)

	removal = c.Remove("parent")
	require.Empty(t, c.IDs(Explore()))
	for _, id := range []string{"parent", "r1", "r2"} {
		_, ok := c.Memo(id)
		require.False(t, ok, id)
	}

	c.Restore(removal)
	require.Equal(t, []string{"parent"}, c.IDs(Explore()))
	for _, id := range []string{"parent", "r1", "r2"} {
		_, ok := c.Memo(id)
		require.True(t, ok, id)
	}
}

func TestCache_SnapshotDoesNotChangeCache(t *testing.T) {
	c := NewCache()
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("b", 2), memoAt("a", 1)}}, true)

	snap := c.Snapshot("a")
	require.Equal(t, []string{"b", "a"}, c.IDs(Explore()))

	c.Remove("a")
	c.Restore(snap)
	require.Equal(t, []string{"b", "a"}, c.IDs(Explore()))
}

func TestCache_PrependDeduplicates(t *testing.T) {
	c := NewCache()
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("b", 2), memoAt("a", 1)}}, true)
	c.Put(memoAt("a", 1))
	c.Prepend(Explore(), "a")
	require.Equal(t, []string{"a", "b"}, c.IDs(Explore()))
}

func TestCache_SubscribeCoalesces(t *testing.T) {
	c := NewCache()
	updates, cancel := c.Subscribe(Explore())

	initial := <-updates
	require.Empty(t, initial)

	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("a", 1)}}, true)
	c.MergePage(Explore(), models.TimelinePage{Data: []models.Memo{memoAt("b", 2)}}, false)
	c.Put(models.Memo{ID: "unrelated"})

	latest := <-updates
	require.Len(t, latest, 2)
	select {
	case extra := <-updates:
		t.Fatalf("expected a single coalesced snapshot, got another: %v", extra)
	default:
	}

	cancel()
	_, open := <-updates
	require.False(t, open)
	cancel()
}
