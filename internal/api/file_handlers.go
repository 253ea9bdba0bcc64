package api

import (
	"errors"
	"mime"
	"net/http"
	"os"

	"nodal/internal/errs"
	"nodal/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxObjectSize bounds a single PUT to the local provider.
const maxObjectSize = 32 << 20

// fileHandlers serves the upload and download side of the local provider.
type fileHandlers struct {
	s     *Server
	local *storage.LocalStorage
}

// @Summary      Upload object bytes (local storage)
// @Description  Target of uploadUrl when the server runs with local storage. The token comes from the upload slot.
// @Tags         files
// @Accept       octet-stream
// @Produce      json
// @Param        token  query     string  true  "Upload token from the slot URL"
// @Success      200    {object}  Envelope{data=bool}
// @Failure      403    {object}  Envelope "Token rejected"
// @Router       /files/{path} [put]
func (h *fileHandlers) PutObject(w http.ResponseWriter, r *http.Request) {
	objectPath := chi.URLParam(r, "*")

	contentType, err := h.local.VerifyUploadToken(r.URL.Query().Get("token"), objectPath)
	if err != nil {
		h.s.fail(w, r, errs.ErrUploadRejected)
		return
	}
	if got, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); got != "" && contentType != "" {
		want, _, _ := mime.ParseMediaType(contentType)
		if got != want {
			h.s.fail(w, r, errs.Wrap(errs.ErrUploadRejected, "content type does not match the upload slot"))
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxObjectSize)
	if _, err := h.local.Save(objectPath, r.Body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.s.fail(w, r, errs.Wrap(errs.ErrResourceIllegalParam, "object exceeds %d bytes", maxObjectSize))
			return
		}
		h.s.fail(w, r, err)
		return
	}

	h.s.respond(w, r, http.StatusOK, true)
}

// @Summary      Download an object (local storage)
// @Tags         files
// @Produce      octet-stream
// @Success      200
// @Failure      404  {object}  Envelope "Not found"
// @Router       /files/{path} [get]
func (h *fileHandlers) GetObject(w http.ResponseWriter, r *http.Request) {
	objectPath := chi.URLParam(r, "*")

	file, err := h.local.Get(objectPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidObjectPath) {
			h.s.fail(w, r, errs.ErrResourceNotFound)
			return
		}
		h.s.fail(w, r, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.s.log.Error("failed to stat object", zap.Error(err), zap.String("path", objectPath))
		h.s.fail(w, r, err)
		return
	}
	if info.IsDir() {
		h.s.fail(w, r, errs.ErrResourceNotFound)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
