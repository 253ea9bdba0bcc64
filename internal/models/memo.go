package models

import "time"

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Memo struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	UserID     string       `json:"userId"`
	ParentID   *string      `json:"parentId"`
	QuoteID    *string      `json:"quoteId"`
	Path       string       `json:"path"`
	Visibility Visibility   `json:"visibility"`
	IsPinned   bool         `json:"isPinned"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Author     *UserSummary `json:"author,omitempty"`
	QuotedMemo *Memo        `json:"quotedMemo"`
	Resources  []Resource   `json:"resources"`
	Replies    []Memo       `json:"replies"`
}

// CanView reports whether viewerID may read the memo. An empty viewer is anonymous.
func (m *Memo) CanView(viewerID string) bool {
	return m.Visibility != VisibilityPrivate || (viewerID != "" && m.UserID == viewerID)
}

// Cursor identifies the last memo of a fetched page. CreatedAt is epoch milliseconds.
type Cursor struct {
	CreatedAt int64  `json:"createdAt"`
	ID        string `json:"id"`
}

// CursorOf returns the cursor pointing at m.
func CursorOf(m Memo) Cursor {
	return Cursor{CreatedAt: m.CreatedAt.UnixMilli(), ID: m.ID}
}

type TimelinePage struct {
	Data       []Memo  `json:"data"`
	NextCursor *Cursor `json:"nextCursor"`
}

type PublishMemoRequest struct {
	Content    string      `json:"content" example:"hello"`
	Visibility *Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=public private" enums:"public,private"`
	ParentID   *string     `json:"parentId,omitempty" validate:"omitempty,uuid"`
	QuoteID    *string     `json:"quoteId,omitempty" validate:"omitempty,uuid"`
	Resources  []string    `json:"resources,omitempty" validate:"omitempty,dive,uuid"`
	IsPinned   *bool       `json:"isPinned,omitempty"`
	CreatedAt  *int64      `json:"createdAt,omitempty" example:"1735689600000"`
	ID         *string     `json:"id,omitempty"`
}

// PatchMemoRequest carries a partial update. Nil pointers keep the stored value.
// QuoteID distinguishes absent (keep) from null (clear). Resources distinguishes
// absent (keep attachments) from an empty list (detach all).
type PatchMemoRequest struct {
	IsPinned   *bool            `json:"isPinned,omitempty"`
	Visibility *Visibility      `json:"visibility,omitempty" validate:"omitempty,oneof=public private" enums:"public,private"`
	Content    *string          `json:"content,omitempty"`
	Resources  *[]string        `json:"resources,omitempty" validate:"omitempty,dive,uuid"`
	QuoteID    Nullable[string] `json:"quoteId,omitzero" swaggertype:"string"`
	CreatedAt  *int64           `json:"createdAt,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PatchMemoRequest) IsEmpty() bool {
	return p.IsPinned == nil && p.Visibility == nil && p.Content == nil &&
		p.Resources == nil && !p.QuoteID.Set && p.CreatedAt == nil
}
