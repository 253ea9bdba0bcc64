package client

import (
	"slices"
	"sync"

	"nodal/internal/models"
)

// TimelineKey names one ordered id list in the cache.
type TimelineKey struct {
	username string
}

// Explore is the global timeline.
func Explore() TimelineKey {
	return TimelineKey{}
}

// Personal is the timeline of one user.
func Personal(username string) TimelineKey {
	return TimelineKey{username: username}
}

func (k TimelineKey) Username() string {
	return k.username
}

func (k TimelineKey) String() string {
	if k.username == "" {
		return "explore"
	}
	return "personal:" + k.username
}

type timeline struct {
	ids    []string
	cursor *models.Cursor
	loaded bool
}

// Cache is the normalized client-side store: memos by id plus ordered id
// lists per timeline. Every id in a list has an entity whenever the list is
// read through Timeline. Readers get copies.
type Cache struct {
	mu        sync.Mutex
	entities  map[string]models.Memo
	timelines map[TimelineKey]*timeline
	subs      map[TimelineKey][]chan []models.Memo
}

func NewCache() *Cache {
	return &Cache{
		entities:  make(map[string]models.Memo),
		timelines: make(map[TimelineKey]*timeline),
		subs:      make(map[TimelineKey][]chan []models.Memo),
	}
}

func (c *Cache) timeline(key TimelineKey) *timeline {
	t, ok := c.timelines[key]
	if !ok {
		t = &timeline{}
		c.timelines[key] = t
	}
	return t
}

// Memo returns the cached entity for id.
func (c *Cache) Memo(id string) (models.Memo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entities[id]
	return m, ok
}

// Timeline resolves the id list of key against the entity table.
func (c *Cache) Timeline(key TimelineKey) []models.Memo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve(key)
}

func (c *Cache) resolve(key TimelineKey) []models.Memo {
	t, ok := c.timelines[key]
	if !ok {
		return []models.Memo{}
	}
	memos := make([]models.Memo, 0, len(t.ids))
	for _, id := range t.ids {
		if m, ok := c.entities[id]; ok {
			memos = append(memos, m)
		}
	}
	return memos
}

// IDs returns a copy of the ordered id list of key.
func (c *Cache) IDs(key TimelineKey) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timelines[key]; ok {
		return slices.Clone(t.ids)
	}
	return []string{}
}

// Cursor returns the stored next cursor of key. loaded is false until a
// first page has been merged.
func (c *Cache) Cursor(key TimelineKey) (cursor *models.Cursor, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.timelines[key]
	if !ok {
		return nil, false
	}
	return t.cursor, t.loaded
}

// MergePage stores a fetched page. A refresh replaces the id list, otherwise
// the page is appended. The list keeps the first occurrence of every id.
func (c *Cache) MergePage(key TimelineKey, page models.TimelinePage, refresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range page.Data {
		c.entities[m.ID] = m
	}

	t := c.timeline(key)
	var ids []string
	if !refresh {
		ids = t.ids
	}
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	t.ids = dedupe(ids)
	t.cursor = page.NextCursor
	t.loaded = true

	changed := c.containing(idsOf(page.Data))
	changed[key] = true
	c.notify(changed)
}

// Put overwrites entities by id.
func (c *Cache) Put(memos ...models.Memo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range memos {
		c.entities[m.ID] = m
	}
	c.notify(c.containing(idsOf(memos)))
}

// Prepend moves id to the front of the list of key.
func (c *Cache) Prepend(key TimelineKey, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timeline(key)
	t.ids = dedupe(append([]string{id}, t.ids...))
	c.notify(map[TimelineKey]bool{key: true})
}

// Removal records where a removed memo was, so Restore can put it back.
type Removal struct {
	id        string
	memo      models.Memo
	present   bool
	positions map[TimelineKey]int
	// parentID is set when the memo was listed in a cached parent's replies.
	parentID   string
	replyIndex int
	children   []models.Memo
}

// Snapshot captures everything Remove(id) would take out of the cache.
func (c *Cache) Snapshot(id string) Removal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(id)
}

func (c *Cache) snapshot(id string) Removal {
	r := Removal{id: id, positions: make(map[TimelineKey]int), replyIndex: -1}
	r.memo, r.present = c.entities[id]
	for key, t := range c.timelines {
		if i := slices.Index(t.ids, id); i >= 0 {
			r.positions[key] = i
		}
	}
	for parentID, m := range c.entities {
		if i := slices.IndexFunc(m.Replies, func(reply models.Memo) bool { return reply.ID == id }); i >= 0 {
			r.parentID, r.replyIndex = parentID, i
			if !r.present {
				r.memo = m.Replies[i]
			}
			break
		}
	}
	for _, m := range c.entities {
		if m.ParentID != nil && *m.ParentID == id {
			r.children = append(r.children, m)
		}
	}
	return r
}

// Remove drops id from the entity table, from every timeline and from its
// parent's replies. Cached replies of id go with it.
func (c *Cache) Remove(id string) Removal {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.snapshot(id)
	delete(c.entities, id)
	for _, child := range r.children {
		delete(c.entities, child.ID)
	}

	changed := make(map[TimelineKey]bool)
	for key := range r.positions {
		t := c.timelines[key]
		t.ids = slices.DeleteFunc(t.ids, func(s string) bool { return s == id })
		changed[key] = true
	}
	if r.parentID != "" {
		parent := c.entities[r.parentID]
		parent.Replies = slices.DeleteFunc(slices.Clone(parent.Replies), func(m models.Memo) bool { return m.ID == id })
		c.entities[r.parentID] = parent
		for key := range c.containing([]string{r.parentID}) {
			changed[key] = true
		}
	}
	c.notify(changed)
	return r
}

// Restore undoes a Remove.
func (c *Cache) Restore(r Removal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := r.id
	changed := make(map[TimelineKey]bool)
	if r.present {
		c.entities[id] = r.memo
	}
	for _, child := range r.children {
		if _, ok := c.entities[child.ID]; !ok {
			c.entities[child.ID] = child
		}
	}
	for key, pos := range r.positions {
		t := c.timeline(key)
		if slices.Contains(t.ids, id) {
			continue
		}
		t.ids = slices.Insert(t.ids, min(pos, len(t.ids)), id)
		changed[key] = true
	}
	if parent, ok := c.entities[r.parentID]; ok && r.parentID != "" {
		if !slices.ContainsFunc(parent.Replies, func(m models.Memo) bool { return m.ID == id }) {
			parent.Replies = slices.Insert(slices.Clone(parent.Replies), min(r.replyIndex, len(parent.Replies)), r.memo)
			c.entities[r.parentID] = parent
			for key := range c.containing([]string{r.parentID}) {
				changed[key] = true
			}
		}
	}
	c.notify(changed)
}

// Subscribe returns a channel that receives the resolved list of key, first
// immediately and then after every change to the list or its entities. A slow
// reader only sees the latest snapshot. cancel closes the channel.
func (c *Cache) Subscribe(key TimelineKey) (updates <-chan []models.Memo, cancel func()) {
	ch := make(chan []models.Memo, 1)

	c.mu.Lock()
	c.subs[key] = append(c.subs[key], ch)
	ch <- c.resolve(key)
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.subs[key] = slices.DeleteFunc(c.subs[key], func(s chan []models.Memo) bool { return s == ch })
			close(ch)
		})
	}
}

// containing returns the keys whose lists hold any of ids. Callers hold mu.
func (c *Cache) containing(ids []string) map[TimelineKey]bool {
	keys := make(map[TimelineKey]bool)
	for key, t := range c.timelines {
		for _, id := range ids {
			if slices.Contains(t.ids, id) {
				keys[key] = true
				break
			}
		}
	}
	return keys
}

// notify publishes fresh snapshots to subscribers of keys. Callers hold mu.
func (c *Cache) notify(keys map[TimelineKey]bool) {
	for key := range keys {
		subs := c.subs[key]
		if len(subs) == 0 {
			continue
		}
		snapshot := c.resolve(key)
		for _, ch := range subs {
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func idsOf(memos []models.Memo) []string {
	ids := make([]string, len(memos))
	for i, m := range memos {
		ids[i] = m.ID
	}
	return ids
}
