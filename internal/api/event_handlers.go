package api

import (
	"net/http"
	"strconv"

	"nodal/internal/errs"
)

// @Summary      Get new events
// @Description  Journal entries of the caller with an id greater than since. Clients use it to catch up after a websocket reconnect.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since  query     int  false  "Last event id seen. Omit or use 0 for everything."
// @Success      200    {object}  Envelope{data=[]models.Event}
// @Failure      400    {object}  Envelope "Invalid since"
// @Failure      401    {object}  Envelope "Login required"
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		sinceStr = "0"
	}

	sinceID, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil || sinceID < 0 {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "since must be a non-negative integer"))
		return
	}

	events, err := s.store.GetEventsSince(r.Context(), claims.UserID(), sinceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, events)
}
