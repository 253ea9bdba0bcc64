package api

import (
	"net/http"
	"strings"

	"nodal/internal/auth"
	"nodal/internal/database"
	"nodal/internal/errs"
	"nodal/internal/models"

	"github.com/google/uuid"
)

// @Summary      Register a new account
// @Description  Creates a user and returns a session token. The avatar defaults to a Gravatar identicon and the display name to the username.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      models.RegisterRequest  true  "New account"
// @Success      200              {object}  Envelope{data=models.AuthResponse}
// @Failure      400              {object}  Envelope "Validation failed"
// @Failure      409              {object}  Envelope "Username or email already registered"
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "%s", err.Error()))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	avatar := auth.GravatarURL(req.Email)

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		ID:           id.String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  &req.Username,
		AvatarURL:    &avatar,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondWithToken(w, r, user)
}

// @Summary      Log in
// @Description  Authenticates by username or email and returns a session token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body      models.LoginRequest  true  "Credentials"
// @Success      200           {object}  Envelope{data=models.AuthResponse}
// @Failure      401           {object}  Envelope "Wrong account or password"
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrMemoValidationFailed, "%s", err.Error()))
		return
	}

	user, err := s.store.GetUserByLogin(r.Context(), strings.TrimSpace(req.Login))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.fail(w, r, errs.ErrAuthAccountPasswordMismatch)
		return
	}

	s.respondWithToken(w, r, user)
}

func (s *Server) respondWithToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := auth.GenerateJWT(user, s.config.JWT.Secret, s.config.JWT.TTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, models.AuthResponse{Token: token, User: *user})
}
