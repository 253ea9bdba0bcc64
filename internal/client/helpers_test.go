package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nodal/internal/errs"
	"nodal/internal/models"
)

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":      data,
		"error":     nil,
		"traceId":   "trace-ok",
		"code":      0,
		"timestamp": time.Now().UnixMilli(),
	})
}

func writeFailure(w http.ResponseWriter, status int, code errs.Code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":      nil,
		"error":     msg,
		"traceId":   "trace-fail",
		"code":      code,
		"timestamp": time.Now().UnixMilli(),
	})
}

func newTestAPI(t *testing.T, mux *http.ServeMux) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewAPI(srv.URL, WithToken("test-token")), srv
}

func memoAt(id string, ms int64) models.Memo {
	return models.Memo{
		ID:         id,
		Content:    "content " + id,
		UserID:     "u1",
		Path:       "/" + id + "/",
		Visibility: models.VisibilityPublic,
		CreatedAt:  time.UnixMilli(ms).UTC(),
		Resources:  []models.Resource{},
		Replies:    []models.Memo{},
	}
}
