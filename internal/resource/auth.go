package resource

import (
	"context"
	"fmt"
	"net/http"

	"github.com/therealutkarshpriyadarshi/backoffice/internal/request"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/session"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Auth endpoints
const (
	LoginPath  = "/api/admin/auth/login/"
	LogoutPath = "/api/admin/auth/logout/"
	MePath     = "/api/admin/auth/me/"
)

// Auth drives the session lifecycle against the auth endpoints
type Auth struct {
	client *request.Client
}

// NewAuth creates the auth binding
func NewAuth(client *request.Client) *Auth {
	return &Auth{client: client}
}

// Login exchanges credentials for tokens and begins the session
func (a *Auth) Login(ctx context.Context, username, password string) (*models.User, error) {
	var resp models.LoginResponse
	err := a.client.Do(ctx, &request.Request{
		Method:    http.MethodPost,
		Path:      LoginPath,
		Body:      models.LoginRequest{Username: username, Password: password},
		Anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if err := a.client.Session().Begin(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &resp.User, nil
}

// Logout tells the server to end the session and always clears it locally
func (a *Auth) Logout(ctx context.Context) error {
	sess := a.client.Session()

	refresh, err := sess.RefreshToken(ctx)
	if err != nil {
		return err
	}

	var body any
	if refresh != "" {
		body = models.RefreshRequest{Refresh: refresh}
	}
	serverErr := a.client.Do(ctx, &request.Request{
		Method: http.MethodPost,
		Path:   LogoutPath,
		Body:   body,
		Silent: true,
	}, nil)

	if err := sess.Invalidate(ctx, session.ReasonLogout); err != nil {
		return err
	}
	if serverErr != nil && !request.IsKind(serverErr, request.KindUnauthorized) {
		return fmt.Errorf("logged out locally, server logout failed: %w", serverErr)
	}
	return nil
}

// Me fetches the current user and refreshes the cached copy
func (a *Auth) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.client.Get(ctx, MePath, nil, &user); err != nil {
		return nil, err
	}
	if err := a.client.Session().SetUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}
