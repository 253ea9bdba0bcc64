package client

import (
	"context"
	"sync"

	"nodal/internal/models"
)

// AuthRepository owns the session: it puts the token on the API client and
// remembers the signed-in user.
type AuthRepository struct {
	api *API

	mu   sync.Mutex
	user *models.User
}

func NewAuthRepository(api *API) *AuthRepository {
	return &AuthRepository{api: api}
}

func (r *AuthRepository) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	resp, err := r.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	r.signIn(resp)
	return resp, nil
}

func (r *AuthRepository) Login(ctx context.Context, login, password string) (*models.AuthResponse, error) {
	resp, err := r.api.Login(ctx, models.LoginRequest{Login: login, Password: password})
	if err != nil {
		return nil, err
	}
	r.signIn(resp)
	return resp, nil
}

func (r *AuthRepository) signIn(resp *models.AuthResponse) {
	r.api.SetToken(resp.Token)
	user := resp.User
	r.mu.Lock()
	r.user = &user
	r.mu.Unlock()
}

func (r *AuthRepository) Logout() {
	r.api.SetToken("")
	r.mu.Lock()
	r.user = nil
	r.mu.Unlock()
}

func (r *AuthRepository) LoggedIn() bool {
	return r.api.Token() != ""
}

// CurrentUser returns the remembered user, fetching it when only a token is known.
func (r *AuthRepository) CurrentUser(ctx context.Context) (*models.User, error) {
	r.mu.Lock()
	user := r.user
	r.mu.Unlock()
	if user != nil {
		u := *user
		return &u, nil
	}

	fetched, err := r.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.user = fetched
	r.mu.Unlock()
	u := *fetched
	return &u, nil
}

// UpdateProfile shows the new profile at once and reverts it if the server refuses.
func (r *AuthRepository) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var updated *models.User
	err := Optimistic[*models.User]{
		Capture: func() *models.User {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.user
		},
		Apply: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.user == nil {
				return
			}
			next := *r.user
			if req.DisplayName != nil {
				next.DisplayName = req.DisplayName
			}
			if req.AvatarURL != nil {
				next.AvatarURL = req.AvatarURL
			}
			if req.Bio != nil {
				next.Bio = req.Bio
			}
			r.user = &next
		},
		Restore: func(prev *models.User) {
			r.mu.Lock()
			r.user = prev
			r.mu.Unlock()
		},
	}.Run(ctx, func(ctx context.Context) error {
		var err error
		updated, err = r.api.UpdateProfile(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.user = updated
	r.mu.Unlock()
	u := *updated
	return &u, nil
}
