package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nodal/internal/database"
	"nodal/internal/errs"

	"go.uber.org/zap"
)

// Envelope wraps every API response.
type Envelope struct {
	Data      any       `json:"data"`
	Error     *string   `json:"error"`
	TraceID   string    `json:"traceId"`
	Code      errs.Code `json:"code"`
	Timestamp int64     `json:"timestamp"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeEnvelope(w, status, Envelope{
		Data:      data,
		TraceID:   TraceIDFromContext(r.Context()),
		Code:      errs.CodeSuccess,
		Timestamp: time.Now().UnixMilli(),
	})
}

// fail writes err as a failure envelope. Errors outside the taxonomy are
// logged and reported as a generic internal error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	traceID := TraceIDFromContext(r.Context())
	apiErr, ok := errs.As(toAPIError(err))
	if !ok {
		s.log.Error("unhandled error",
			zap.Error(err),
			zap.String("trace_id", traceID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		apiErr = errs.ErrInternal
	}
	msg := apiErr.Message
	s.writeEnvelope(w, apiErr.Status, Envelope{
		Error:     &msg,
		TraceID:   traceID,
		Code:      apiErr.Code,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.log.Warn("failed to encode response", zap.Error(err), zap.String("trace_id", env.TraceID))
	}
}

// toAPIError translates store sentinels into the client-facing taxonomy.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, database.ErrMemoNotFound):
		return errs.ErrMemoNotFound
	case errors.Is(err, database.ErrReferenceNotFound):
		return errs.Wrap(errs.ErrMemoNotFound, "quoted or parent memo not found")
	case errors.Is(err, database.ErrDuplicateMemo):
		return errs.Wrap(errs.ErrMemoValidationFailed, "a memo with this id already exists")
	case errors.Is(err, database.ErrReplyPinned):
		return errs.Wrap(errs.ErrMemoValidationFailed, "a reply cannot be pinned")
	case errors.Is(err, database.ErrInvalidCursor), errors.Is(err, database.ErrInvalidLimit):
		return errs.Wrap(errs.ErrMemoValidationFailed, "%s", err.Error())
	case errors.Is(err, database.ErrDuplicateUser):
		return errs.ErrAuthAlreadyExist
	case errors.Is(err, database.ErrUserNotFound):
		return errs.ErrUserNotFound
	}
	return err
}
