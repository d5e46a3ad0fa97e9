package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"docportal/internal/model"
	"docportal/internal/validate"
)

// AuthGateway is the typed view of the authentication endpoints.
type AuthGateway interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.Session, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

var _ AuthGateway = (*Client)(nil)

func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	sess, err := call[model.Session](ctx, c, http.MethodPost, "/auth/login", nil, req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &sess, nil
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, &validate.Error{Fields: map[string]string{"confirmPassword": "passwords do not match"}}
	}
	sess, err := call[model.Session](ctx, c, http.MethodPost, "/auth/register", nil, req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &sess, nil
}

func (c *Client) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	ok, err := call[bool](ctx, c, http.MethodGet, "/auth/check-username/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return ok, nil
}

func (c *Client) EmailAvailable(ctx context.Context, email string) (bool, error) {
	ok, err := call[bool](ctx, c, http.MethodGet, "/auth/check-email/"+url.PathEscape(email), nil, nil)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return ok, nil
}
