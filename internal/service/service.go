// Package service holds the console's use-case logic between the HTTP
// handlers and the remote service clients: validation, session handling,
// permission checks, and domain error shaping.
package service

import (
	"context"
	"errors"
	"iter"
	"net/url"
	"time"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
	"github.com/seedplatform/control-interface/internal/series"
	"github.com/seedplatform/control-interface/internal/session"
)

// ErrInvalidInput is the marker error for aggregated validation failures
// (maps to HTTP 400). Field-level details come via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// ErrUnauthorized means the caller has no valid session (HTTP 401).
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden means the session lacks the required permission (HTTP 403).
var ErrForbidden = errors.New("forbidden")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates FieldError instances and unwraps to
// ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	if v, ok := err.(feIface); ok && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// AuthAPI is the remote authentication capability the auth service needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	User(ctx context.Context, token string) (model.User, error)
}

// SessionStore is the local session persistence capability.
type SessionStore interface {
	Create(ctx context.Context, email, apiToken string,
		permissions []model.Permission, dashboards []model.Dashboard) (session.Session, error)
	Get(ctx context.Context, token string) (session.Session, error)
	Delete(ctx context.Context, token string) error
}

// AuthService defines the login/session use cases.
type AuthService interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (session.Session, error)
}

// IdentityAPI is the slice of the identity store the console uses.
type IdentityAPI interface {
	Identities(ctx context.Context, params url.Values) iter.Seq2[model.Identity, error]
	SearchIdentities(ctx context.Context, params url.Values) iter.Seq2[model.Identity, error]
	Identity(ctx context.Context, id string) (model.Identity, error)
	CreateOptOut(ctx context.Context, optout model.OptOut) (model.OptOut, error)
}

// HubAPI is the slice of the hub the console uses.
type HubAPI interface {
	Registrations(ctx context.Context, params url.Values) iter.Seq2[model.Registration, error]
	Changes(ctx context.Context, params url.Values) iter.Seq2[model.Change, error]
	CreateAdminChange(ctx context.Context, change client.AdminChange) error
	CreateAdminOptOut(ctx context.Context, motherID string) error
}

// MessagingAPI is the slice of the stage-based messaging service the
// console uses.
type MessagingAPI interface {
	Subscriptions(ctx context.Context, params url.Values) iter.Seq2[model.Subscription, error]
	Subscription(ctx context.Context, id string) (model.Subscription, error)
	MessageSet(ctx context.Context, id int) (model.MessageSet, error)
	MessageSets(ctx context.Context, params url.Values) iter.Seq2[model.MessageSet, error]
}

// SenderAPI is the slice of the message sender the console uses.
type SenderAPI interface {
	Outbound(ctx context.Context, params url.Values) iter.Seq2[model.OutboundMessage, error]
	Inbound(ctx context.Context, params url.Values) iter.Seq2[model.InboundMessage, error]
}

// MetricsAPI is the metrics service capability.
type MetricsAPI interface {
	GetMetrics(ctx context.Context, names []string, params url.Values) (map[string][]model.Point, error)
}

// IdentityDetail is everything the identity page shows: the identity
// itself plus its history across the backing services. Message history is
// paged independently per direction.
type IdentityDetail struct {
	Identity      model.Identity                            `json:"identity"`
	Registrations []model.Registration                      `json:"registrations"`
	Changes       []model.Change                            `json:"changes"`
	Subscriptions []model.Subscription                      `json:"subscriptions"`
	Outbound      *pager.NoCountPage[model.OutboundMessage] `json:"outbound"`
	Inbound       *pager.NoCountPage[model.InboundMessage]  `json:"inbound"`
}

// MetricObject is one entry of the raw metric proxy response.
type MetricObject struct {
	Key    string        `json:"key"`
	Values []model.Point `json:"values"`
}

// ConsoleService defines the operator-facing use cases.
type ConsoleService interface {
	Identities(ctx context.Context, address, page string) (*pager.NoCountPage[model.Identity], error)
	IdentityDetail(ctx context.Context, id, outboundPage, inboundPage string) (IdentityDetail, error)
	OptOutIdentity(ctx context.Context, id string) error
	Registrations(ctx context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Registration], error)
	Changes(ctx context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Change], error)
	Subscriptions(ctx context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Subscription], error)
	ChangeSubscription(ctx context.Context, subscriptionID string, messageSetID int, language string) error
	MessageSets(ctx context.Context) ([]model.MessageSet, error)
	Metrics(ctx context.Context, names []string, params url.Values) ([]MetricObject, error)
	Series(ctx context.Context, metric string, kind series.Kind, at time.Time, shift int) (series.Data, error)
	LastValue(ctx context.Context, metric string) (float64, error)
}
