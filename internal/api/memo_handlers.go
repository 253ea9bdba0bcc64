package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nodal/internal/database"
	"nodal/internal/errs"
	"nodal/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary      Timeline page
// @Description  Returns root memos newest first. With a username (or a tenant subdomain) only that user's memos are listed, private ones only to the owner. Pass the returned nextCursor back to continue.
// @Tags         memos
// @Produce      json
// @Param        limit            query     int     false  "Page size, default 20, at most 100"
// @Param        cursorCreatedAt  query     int     false  "Cursor timestamp (epoch ms)"
// @Param        cursorId         query     string  false  "Cursor memo id"
// @Param        username         query     string  false  "Restrict to one user"
// @Success      200              {object}  Envelope{data=models.TimelinePage}
// @Failure      400              {object}  Envelope "Invalid cursor or limit"
// @Failure      404              {object}  Envelope "User not found"
// @Router       /memos/timeline [get]
func (s *Server) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var limit int
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	cursor, err := database.ParseCursor(query.Get("cursorCreatedAt"), query.Get("cursorId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tq := database.TimelineQuery{
		ViewerID: viewerID(r),
		Cursor:   cursor,
		Limit:    limit,
	}

	username := query.Get("username")
	if tenant := TenantFromContext(r.Context()); tenant != "" {
		username = tenant
	}
	if username != "" {
		user, err := s.store.GetUserByUsername(r.Context(), username)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if user == nil {
			s.fail(w, r, errs.ErrUserNotFound)
			return
		}
		tq.TargetUserID = user.ID
	}

	page, err := s.store.ListTimeline(r.Context(), tq)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, page)
}

func parseClientID(raw *string) (string, error) {
	if raw == nil {
		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil || id.Version() != 7 {
		return "", errs.Wrap(errs.ErrMemoValidationFailed, "id %q is not a UUIDv7", *raw)
	}
	return id.String(), nil
}

// @Summary      Publish a memo
// @Description  Creates a root memo or, with parentId, a reply. Listed resources owned by the caller are attached; others are ignored.
// @Tags         memos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        memo  body      models.PublishMemoRequest  true  "Memo to publish"
// @Success      200   {object}  Envelope{data=models.Memo}
// @Failure      400   {object}  Envelope "Validation failed"
// @Failure      401   {object}  Envelope "Login required"
// @Failure      404   {object}  Envelope "Parent or quoted memo not found"
// @Router       /memos/publish [post]
func (s *Server) PublishMemoHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req models.PublishMemoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "%s", err.Error()))
		return
	}

	id, err := parseClientID(req.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	isPinned := req.IsPinned != nil && *req.IsPinned
	if isPinned && req.ParentID != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "a reply cannot be pinned"))
		return
	}

	path := database.MemoPath("", id)
	if req.ParentID != nil {
		parent, err := s.store.GetMemo(r.Context(), *req.ParentID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if parent == nil || !parent.CanView(claims.UserID()) {
			s.fail(w, r, errs.Wrap(errs.ErrMemoNotFound, "parent memo not found"))
			return
		}
		path = database.MemoPath(parent.Path, id)
	}

	visibility := models.VisibilityPublic
	if req.Visibility != nil {
		visibility = *req.Visibility
	}
	var createdAt time.Time
	if req.CreatedAt != nil {
		createdAt = time.UnixMilli(*req.CreatedAt)
	}

	memo, event, err := s.store.PublishMemo(r.Context(), database.PublishMemoParams{
		InsertMemoParams: database.InsertMemoParams{
			ID:         id,
			Content:    req.Content,
			UserID:     claims.UserID(),
			ParentID:   req.ParentID,
			QuoteID:    req.QuoteID,
			Path:       path,
			Visibility: visibility,
			IsPinned:   isPinned,
			CreatedAt:  createdAt,
		},
		Resources: req.Resources,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.memosPublished.Inc()
	s.pushEvent(claims.UserID(), event)

	detail, err := s.store.GetMemoDetail(r.Context(), memo.ID, claims.UserID())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, detail)
}

// @Summary      Get a memo
// @Description  Returns a memo with author, quoted memo, resources and direct replies.
// @Tags         memos
// @Produce      json
// @Param        id   path      string  true  "Memo id"
// @Success      200  {object}  Envelope{data=models.Memo}
// @Failure      403  {object}  Envelope "Private memo of another user"
// @Failure      404  {object}  Envelope "Memo not found"
// @Router       /memos/{id} [get]
func (s *Server) GetMemoHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.fail(w, r, errs.ErrMemoNotFound)
		return
	}

	viewer := viewerID(r)
	memo, err := s.store.GetMemoDetail(r.Context(), id, viewer)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if memo == nil {
		s.fail(w, r, errs.ErrMemoNotFound)
		return
	}
	if !memo.CanView(viewer) {
		s.fail(w, r, errs.ErrMemoNoPermission)
		return
	}

	s.respond(w, r, http.StatusOK, memo)
}

// ownMemo loads the memo at {id} and checks the caller owns it.
func (s *Server) ownMemo(w http.ResponseWriter, r *http.Request, userID string) (*models.Memo, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.fail(w, r, errs.ErrMemoNotFound)
		return nil, false
	}
	memo, err := s.store.GetMemo(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if memo == nil {
		s.fail(w, r, errs.ErrMemoNotFound)
		return nil, false
	}
	if memo.UserID != userID {
		s.fail(w, r, errs.ErrMemoNoPermission)
		return nil, false
	}
	return memo, true
}

// @Summary      Patch a memo
// @Description  Partially updates a memo. quoteId: absent keeps, null clears. resources: absent keeps attachments, [] detaches all, a list replaces them.
// @Tags         memos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string                   true  "Memo id"
// @Param        patch  body      models.PatchMemoRequest  true  "Fields to change"
// @Success      200    {object}  Envelope{data=bool}
// @Failure      400    {object}  Envelope "Validation failed"
// @Failure      403    {object}  Envelope "Not the author"
// @Failure      404    {object}  Envelope "Memo not found"
// @Router       /memos/{id} [patch]
func (s *Server) PatchMemoHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	memo, ok := s.ownMemo(w, r, claims.UserID())
	if !ok {
		return
	}

	var req models.PatchMemoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "%s", err.Error()))
		return
	}
	if req.IsPinned != nil && *req.IsPinned && memo.ParentID != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "a reply cannot be pinned"))
		return
	}
	if q := req.QuoteID.Ptr(); q != nil {
		if _, err := uuid.Parse(*q); err != nil {
			s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "quoteId must be a uuid"))
			return
		}
	}

	params := database.PatchMemoParams{
		UpdateMemoParams: database.UpdateMemoParams{
			ID:         memo.ID,
			UserID:     claims.UserID(),
			Content:    req.Content,
			Visibility: req.Visibility,
			IsPinned:   req.IsPinned,
			SetQuote:   req.QuoteID.Set,
			QuoteID:    req.QuoteID.Ptr(),
		},
		Resources: req.Resources,
	}
	if req.CreatedAt != nil {
		t := time.UnixMilli(*req.CreatedAt)
		params.CreatedAt = &t
	}

	_, event, err := s.store.PatchMemo(r.Context(), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.pushEvent(claims.UserID(), event)

	s.respond(w, r, http.StatusOK, true)
}

// @Summary      Delete a memo
// @Description  Deletes a memo and its replies. Attached resources are kept but detached.
// @Tags         memos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Memo id"
// @Success      200  {object}  Envelope{data=bool}
// @Failure      403  {object}  Envelope "Not the author"
// @Failure      404  {object}  Envelope "Memo not found"
// @Router       /memos/{id} [delete]
func (s *Server) DeleteMemoHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	memo, ok := s.ownMemo(w, r, claims.UserID())
	if !ok {
		return
	}

	event, err := s.store.DeleteMemo(r.Context(), memo.ID, claims.UserID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.pushEvent(claims.UserID(), event)

	s.respond(w, r, http.StatusOK, true)
}

// @Summary      Search memos
// @Description  Memos containing the keyword that are public or owned by the caller, newest first.
// @Tags         memos
// @Produce      json
// @Security     BearerAuth
// @Param        keyword  query     string  true  "Text to look for"
// @Success      200      {object}  Envelope{data=[]models.Memo}
// @Failure      400      {object}  Envelope "Blank keyword"
// @Failure      401      {object}  Envelope "Login required"
// @Router       /memos/search [get]
func (s *Server) SearchMemosHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "keyword is required"))
		return
	}

	memos, err := s.store.SearchMemos(r.Context(), claims.UserID(), keyword)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, memos)
}

// pushEvent forwards a committed journal entry to the user's live connections.
func (s *Server) pushEvent(userID string, event *models.Event) {
	if event == nil || s.wsHub == nil {
		return
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.log.Warn("failed to marshal event", zap.Error(err), zap.Int64("event_id", event.ID))
		return
	}
	s.wsHub.PublishEvent(userID, eventBytes)
}
