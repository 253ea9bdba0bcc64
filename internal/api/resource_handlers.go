package api

import (
	"net/http"
	"strings"

	"nodal/internal/auth"
	"nodal/internal/database"
	"nodal/internal/errs"
	"nodal/internal/models"
	"nodal/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary      Request an upload slot
// @Description  Reserves an object path under the caller's prefix and returns where to PUT the bytes, plus a signature to pass to record-upload.
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        fileType  query     string  true  "MIME type of the file"
// @Param        ext       query     string  true  "File extension without the dot"
// @Success      200       {object}  Envelope{data=models.UploadSlot}
// @Failure      400       {object}  Envelope "Illegal parameter"
// @Failure      401       {object}  Envelope "Login required"
// @Router       /resources/upload-url [get]
func (s *Server) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	fileType := strings.TrimSpace(r.URL.Query().Get("fileType"))
	ext := r.URL.Query().Get("ext")
	if fileType == "" || !storage.ValidExt(ext) {
		s.fail(w, r, errs.ErrResourceIllegalParam)
		return
	}

	name, err := uuid.NewV7()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	objectPath := storage.ObjectPath(claims.UserID(), name.String(), ext)

	target, err := s.storage.UploadURL(r.Context(), objectPath, fileType)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	signature, err := auth.SignUpload(auth.UploadClaims{
		UserID:   claims.UserID(),
		Path:     objectPath,
		FileType: fileType,
		Ext:      ext,
	}, s.config.JWT.Secret, s.config.Upload.TTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, models.UploadSlot{
		UploadURL: target.URL,
		Path:      objectPath,
		Signature: signature,
		Headers:   target.Headers,
	})
}

// @Summary      Record a finished upload
// @Description  Registers an object uploaded through an upload slot as a resource of the caller.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        upload  body      models.RecordUploadRequest  true  "Upload details and the slot signature"
// @Success      200     {object}  Envelope{data=models.Resource}
// @Failure      400     {object}  Envelope "Illegal parameter"
// @Failure      403     {object}  Envelope "Signature rejected"
// @Router       /resources/record-upload [post]
func (s *Server) RecordUploadHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req models.RecordUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrResourceIllegalParam, "%s", err.Error()))
		return
	}

	userID := claims.UserID()
	if !strings.HasPrefix(req.Path, storage.UserPrefix(userID)) {
		s.fail(w, r, errs.Wrap(errs.ErrUploadRejected, "path is outside your upload prefix"))
		return
	}
	signed, err := auth.VerifyUpload(req.Signature, s.config.JWT.Secret)
	if err != nil {
		s.log.Debug("upload signature rejected", zap.Error(err), zap.String("trace_id", TraceIDFromContext(r.Context())))
		s.fail(w, r, errs.ErrUploadRejected)
		return
	}
	if signed.Path != req.Path || signed.UserID != userID {
		s.fail(w, r, errs.Wrap(errs.ErrUploadRejected, "signature does not match the upload"))
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	link := s.storage.PublicURL(req.Path)
	resource, event, err := s.store.RecordResource(r.Context(), database.CreateResourceParams{
		ID:           id.String(),
		UserID:       userID,
		Filename:     req.Filename,
		Type:         req.FileType,
		Size:         req.FileSize,
		Provider:     s.storage.Name(),
		Path:         req.Path,
		ExternalLink: &link,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.resourcesRecorded.Inc()
	s.pushEvent(userID, event)

	s.respond(w, r, http.StatusOK, resource)
}

// @Summary      List my resources
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=[]models.Resource}
// @Failure      401  {object}  Envelope "Login required"
// @Router       /resources/user-all [get]
func (s *Server) ListResourcesHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resources, err := s.store.ListResourcesByUser(r.Context(), claims.UserID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}

	s.respond(w, r, http.StatusOK, resources)
}

// @Summary      Get a resource
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource id"
// @Success      200  {object}  Envelope{data=models.Resource}
// @Failure      404  {object}  Envelope "Not found or not yours"
// @Router       /resources/{id} [get]
func (s *Server) GetResourceHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.fail(w, r, errs.ErrResourceNotFound)
		return
	}

	resource, err := s.store.GetResource(r.Context(), id, claims.UserID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if resource == nil {
		s.fail(w, r, errs.ErrResourceNotFound)
		return
	}

	s.respond(w, r, http.StatusOK, resource)
}
