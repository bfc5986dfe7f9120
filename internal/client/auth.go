package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/model"
)

// ErrInvalidCredentials is returned when the auth service rejects a login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Auth talks to the remote authentication service. Unlike the other
// clients it has no fixed token; tokens are what it hands out.
type Auth struct {
	base
}

func NewAuth(baseURL string, logger zerolog.Logger) *Auth {
	return &Auth{base: newBase(baseURL, "", "auth", logger)}
}

// Login exchanges credentials for an API token.
func (c *Auth) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/user/tokens/", nil, "", payload, &resp)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) && (upstream.Status == http.StatusUnauthorized || upstream.Status == http.StatusBadRequest) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return resp.Token, nil
}

// User fetches the operator record (email, permissions, dashboards) for a
// previously issued token.
func (c *Auth) User(ctx context.Context, token string) (model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/user/", nil, token, nil, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
