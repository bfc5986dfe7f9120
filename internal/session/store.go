// Package session persists login sessions in a local sqlite database.
// A session holds the operator's remote API token plus the permission and
// dashboard sets captured at login time; it expires after a fixed TTL and
// is re-established by logging in again.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/seedplatform/control-interface/internal/model"
)

// ErrNotFound is returned for an unknown or expired session token.
var ErrNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	token       TEXT PRIMARY KEY,
	email       TEXT NOT NULL,
	api_token   TEXT NOT NULL,
	permissions TEXT NOT NULL,
	dashboards  TEXT NOT NULL,
	expires_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at);
`

// Session is one logged-in operator.
type Session struct {
	Token       string
	Email       string
	APIToken    string
	Permissions []model.Permission
	Dashboards  []model.Dashboard
	ExpiresAt   time.Time
}

type Store struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// Open opens (and if needed creates) the session database at path.
func Open(path string, ttl time.Duration, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &Store{
		db:  db,
		ttl: ttl,
		log: logger.With().Str("module", "session").Logger(),
	}, nil
}

// Create stores a new session and returns it with a fresh token.
func (s *Store) Create(ctx context.Context, email, apiToken string,
	permissions []model.Permission, dashboards []model.Dashboard) (Session, error) {
	perms, err := json.Marshal(permissions)
	if err != nil {
		return Session{}, fmt.Errorf("encode permissions: %w", err)
	}
	dashes, err := json.Marshal(dashboards)
	if err != nil {
		return Session{}, fmt.Errorf("encode dashboards: %w", err)
	}

	sess := Session{
		Token:       uuid.NewString(),
		Email:       email,
		APIToken:    apiToken,
		Permissions: permissions,
		Dashboards:  dashboards,
		ExpiresAt:   time.Now().Add(s.ttl),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, email, api_token, permissions, dashboards, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.Token, sess.Email, sess.APIToken, string(perms), string(dashes),
		sess.ExpiresAt.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	s.log.Debug().Str("email", email).Msg("session created")
	return sess, nil
}

// Get returns the session for a token. Expired sessions are deleted on
// sight and reported as not found.
func (s *Store) Get(ctx context.Context, token string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, email, api_token, permissions, dashboards, expires_at
		 FROM sessions WHERE token = ?`, token)

	var sess Session
	var perms, dashes string
	var expires int64
	err := row.Scan(&sess.Token, &sess.Email, &sess.APIToken, &perms, &dashes, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	sess.ExpiresAt = time.Unix(expires, 0)
	if time.Now().After(sess.ExpiresAt) {
		if err := s.Delete(ctx, token); err != nil {
			s.log.Warn().Err(err).Msg("delete expired session")
		}
		return Session{}, ErrNotFound
	}
	if err := json.Unmarshal([]byte(perms), &sess.Permissions); err != nil {
		return Session{}, fmt.Errorf("decode permissions: %w", err)
	}
	if err := json.Unmarshal([]byte(dashes), &sess.Dashboards); err != nil {
		return Session{}, fmt.Errorf("decode dashboards: %w", err)
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping reports whether the session database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
