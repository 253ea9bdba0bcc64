package models

import (
	"encoding/json"
	"time"
)

const (
	EventMemoPublished    = "memo_published"
	EventMemoPatched      = "memo_patched"
	EventMemoDeleted      = "memo_deleted"
	EventResourceRecorded = "resource_recorded"
)

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}
