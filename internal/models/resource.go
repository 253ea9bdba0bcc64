package models

import "time"

type Resource struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Filename     string    `json:"filename"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	Provider     string    `json:"provider"`
	Path         string    `json:"path"`
	ExternalLink *string   `json:"externalLink"`
	CreatedAt    time.Time `json:"createdAt"`
	MemoID       *string   `json:"memoId"`
}

// UploadSlot is handed out by the upload-url step. Signature must be echoed
// back to record-upload.
type UploadSlot struct {
	UploadURL string            `json:"uploadUrl"`
	Path      string            `json:"path"`
	Signature string            `json:"signature"`
	Headers   map[string]string `json:"headers,omitempty"`
}

type RecordUploadRequest struct {
	Path      string `json:"path" validate:"required"`
	FileType  string `json:"fileType" validate:"required"`
	FileSize  int64  `json:"fileSize" validate:"gte=0"`
	Filename  string `json:"filename" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
