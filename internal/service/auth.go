package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/session"
)

// authService exchanges operator credentials for a local session backed by
// the remote auth service's token.
type authService struct {
	auth  AuthAPI
	store SessionStore
	log   zerolog.Logger
}

func NewAuthService(auth AuthAPI, store SessionStore, logger zerolog.Logger) AuthService {
	l := logger.With().Str("module", "service").Str("component", "auth").Logger()
	return &authService{auth: auth, store: store, log: l}
}

func (s *authService) Login(ctx context.Context, email, password string) (session.Session, error) {
	var ferrs []FieldError
	if email == "" {
		ferrs = append(ferrs, FieldError{Field: "email", Message: "must not be empty"})
	}
	if password == "" {
		ferrs = append(ferrs, FieldError{Field: "password", Message: "must not be empty"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return session.Session{}, err
	}

	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, client.ErrInvalidCredentials) {
			s.log.Info().Str("email", email).Msg("login rejected")
			return session.Session{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return session.Session{}, err
	}

	user, err := s.auth.User(ctx, token)
	if err != nil {
		return session.Session{}, fmt.Errorf("fetch user after login: %w", err)
	}

	sess, err := s.store.Create(ctx, user.Email, token, user.Permissions, user.Dashboards)
	if err != nil {
		return session.Session{}, err
	}
	s.log.Info().Str("email", user.Email).Msg("login succeeded")
	return sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

// Authenticate resolves a session token; unknown and expired tokens both
// come back as ErrUnauthorized.
func (s *authService) Authenticate(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, ErrUnauthorized
	}
	sess, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.Session{}, ErrUnauthorized
		}
		return session.Session{}, err
	}
	return sess, nil
}
