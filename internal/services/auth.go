package services

import (
	"context"

	"stoop/internal/localstore"
	"stoop/internal/models"
	"stoop/internal/transport"
)

// Auth handles login, registration, and logout. It is the only service with
// side effects: successful calls write the token and cached user to the
// local store, and logout purges both.
type Auth struct {
	api   *transport.Client
	store *localstore.Store
}

// Credentials is the login request body.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a session and persists it.
func (a *Auth) Login(ctx context.Context, creds Credentials) (*models.User, error) {
	var s session
	if err := a.api.Post(ctx, "/auth/login", creds, &s); err != nil {
		return nil, err
	}
	return a.persist(&s)
}

// Register creates an account, then persists the returned session.
func (a *Auth) Register(ctx context.Context, reg Registration) (*models.User, error) {
	var s session
	if err := a.api.Post(ctx, "/auth/register", reg, &s); err != nil {
		return nil, err
	}
	return a.persist(&s)
}

func (a *Auth) persist(s *session) (*models.User, error) {
	if err := a.store.SetToken(s.Token); err != nil {
		return nil, err
	}
	if err := a.store.SetCachedUser(&s.User); err != nil {
		return nil, err
	}
	return &s.User, nil
}

// Logout tells the backend to drop the session, then purges local
// credentials regardless of whether that call succeeded.
func (a *Auth) Logout(ctx context.Context) error {
	_ = a.api.Post(ctx, "/auth/logout", nil, nil)
	return a.store.PurgeAuth()
}

// Me fetches the authoritative current-user record.
func (a *Auth) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.api.Get(ctx, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
