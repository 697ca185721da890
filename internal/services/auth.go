package services

import (
	"context"
	"net/http"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/schemas"
)

type AuthService struct {
	client *apiclient.Client
}

type loginResult struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login authenticates with the backend. The session cookies are stored by the client's cookie jar
// and a new session epoch is started so a later 401 is reported again.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*User, error) {
	var result loginResult
	if err := send(ctx, s.client, http.MethodPost, portal.LoginPath, nil, in, schemas.Login, &result); err != nil {
		return nil, err
	}
	s.client.ResetSession()
	return &result.User, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return send(ctx, s.client, http.MethodPost, "/logout", nil, nil, "", nil)
}

// Refresh exchanges the refresh cookie for a new access token cookie
func (s *AuthService) Refresh(ctx context.Context) error {
	if err := send(ctx, s.client, http.MethodPost, "/refresh", nil, nil, "", nil); err != nil {
		return err
	}
	s.client.ResetSession()
	return nil
}

// ListAdmins is restricted to super admins
func (s *AuthService) ListAdmins(ctx context.Context) ([]User, error) {
	var users []User
	if err := get(ctx, s.client, "/admins", nil, schemas.UserList, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *AuthService) CreateAdmin(ctx context.Context, in AdminInput) error {
	return send(ctx, s.client, http.MethodPost, "/admins", nil, in, "", nil)
}

func (s *AuthService) DeleteAdmin(ctx context.Context, id uint) error {
	return send(ctx, s.client, http.MethodDelete, idPath("/admins", id), nil, nil, "", nil)
}
