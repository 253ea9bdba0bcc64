// Package client talks to the Nodal REST API and keeps a normalized,
// observable cache of what it has fetched.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"nodal/internal/errs"
	"nodal/internal/models"
)

// APIError is a failure envelope returned by the server, or a transport
// failure dressed as one.
type APIError struct {
	Status  int
	Code    errs.Code
	Message string
	TraceID string
}

func (e *APIError) Error() string {
	if e.TraceID == "" {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (code %d, trace %s)", e.Message, e.Code, e.TraceID)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	TraceID string          `json:"traceId"`
	Code    errs.Code       `json:"code"`
}

// API is a typed client for /api/v1. It is safe for concurrent use.
type API struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*API)

func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.httpClient = c }
}

func WithToken(token string) Option {
	return func(a *API) { a.token = token }
}

// NewAPI returns a client for the server at baseURL, e.g. http://localhost:8080.
func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := a.baseURL + "/api/v1" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    errs.CodeInternalError,
			Message: fmt.Sprintf("unexpected response: %s", resp.Status),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest || env.Code != errs.CodeSuccess {
		msg := http.StatusText(resp.StatusCode)
		if env.Error != nil {
			msg = *env.Error
		}
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: msg, TraceID: env.TraceID}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func (a *API) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := a.do(ctx, http.MethodPatch, "/auth/me", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TimelineParams selects one page. Username empty means the explore timeline.
type TimelineParams struct {
	Username string
	Cursor   *models.Cursor
	Limit    int
}

func (a *API) Timeline(ctx context.Context, p TimelineParams) (*models.TimelinePage, error) {
	query := url.Values{}
	if p.Limit > 0 {
		query.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Username != "" {
		query.Set("username", p.Username)
	}
	if p.Cursor != nil {
		query.Set("cursorCreatedAt", strconv.FormatInt(p.Cursor.CreatedAt, 10))
		query.Set("cursorId", p.Cursor.ID)
	}

	var page models.TimelinePage
	if err := a.do(ctx, http.MethodGet, "/memos/timeline", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *API) Publish(ctx context.Context, req models.PublishMemoRequest) (*models.Memo, error) {
	var memo models.Memo
	if err := a.do(ctx, http.MethodPost, "/memos/publish", nil, req, &memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

func (a *API) Memo(ctx context.Context, id string) (*models.Memo, error) {
	var memo models.Memo
	if err := a.do(ctx, http.MethodGet, "/memos/"+url.PathEscape(id), nil, nil, &memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

func (a *API) PatchMemo(ctx context.Context, id string, req models.PatchMemoRequest) error {
	return a.do(ctx, http.MethodPatch, "/memos/"+url.PathEscape(id), nil, req, nil)
}

func (a *API) DeleteMemo(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/memos/"+url.PathEscape(id), nil, nil, nil)
}

func (a *API) Search(ctx context.Context, keyword string) ([]models.Memo, error) {
	var memos []models.Memo
	if err := a.do(ctx, http.MethodGet, "/memos/search", url.Values{"keyword": {keyword}}, nil, &memos); err != nil {
		return nil, err
	}
	return memos, nil
}

func (a *API) UploadSlot(ctx context.Context, fileType, ext string) (*models.UploadSlot, error) {
	var slot models.UploadSlot
	query := url.Values{"fileType": {fileType}, "ext": {ext}}
	if err := a.do(ctx, http.MethodGet, "/resources/upload-url", query, nil, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// PutObject sends the bytes to the provider URL of slot. The provider is not
// the Nodal API, so no bearer token is attached and no envelope is expected.
func (a *API) PutObject(ctx context.Context, slot *models.UploadSlot, data io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, data)
	if err != nil {
		return err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	for k, v := range slot.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    errs.CodeResourceIllegalParam,
			Message: fmt.Sprintf("object upload failed: %s", resp.Status),
		}
	}
	return nil
}

func (a *API) RecordUpload(ctx context.Context, req models.RecordUploadRequest) (*models.Resource, error) {
	var resource models.Resource
	if err := a.do(ctx, http.MethodPost, "/resources/record-upload", nil, req, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (a *API) Resources(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	if err := a.do(ctx, http.MethodGet, "/resources/user-all", nil, nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (a *API) Resource(ctx context.Context, id string) (*models.Resource, error) {
	var resource models.Resource
	if err := a.do(ctx, http.MethodGet, "/resources/"+url.PathEscape(id), nil, nil, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}
