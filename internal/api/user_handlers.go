package api

import (
	"errors"
	"net/http"

	"nodal/internal/database"
	"nodal/internal/errs"
	"nodal/internal/models"
)

// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=models.User}
// @Failure      401  {object}  Envelope "Login required"
// @Failure      404  {object}  Envelope "User not found"
// @Router       /auth/me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if user == nil {
		s.fail(w, r, errs.ErrAuthNotFound)
		return
	}

	s.respond(w, r, http.StatusOK, user)
}

// @Summary      Update profile
// @Description  Partially updates the caller's profile. Absent fields keep their stored value.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        profile  body      models.UpdateProfileRequest  true  "Fields to change"
// @Success      200      {object}  Envelope{data=models.User}
// @Failure      401      {object}  Envelope "Login required"
// @Failure      404      {object}  Envelope "User not found"
// @Router       /auth/me [patch]
func (s *Server) UpdateCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "%s", err.Error()))
		return
	}

	user, err := s.store.UpdateUserProfile(r.Context(), claims.UserID(), req)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			s.fail(w, r, errs.ErrAuthNotFound)
			return
		}
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, user)
}
