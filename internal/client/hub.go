package client

import (
	"context"
	"iter"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
)

// Hub talks to the registration hub service.
type Hub struct {
	base
}

func NewHub(baseURL, token string, logger zerolog.Logger) *Hub {
	return &Hub{base: newBase(baseURL, token, "hub", logger)}
}

// Registrations walks the registration list. Time windows are expressed as
// created_after / created_before parameters.
func (c *Hub) Registrations(ctx context.Context, params url.Values) iter.Seq2[model.Registration, error] {
	return pager.All(ctx, fetchPage[model.Registration](&c.base, "/registrations/"), params)
}

// Changes walks the change-event list, usually filtered by action.
func (c *Hub) Changes(ctx context.Context, params url.Values) iter.Seq2[model.Change, error] {
	return pager.All(ctx, fetchPage[model.Change](&c.base, "/changes/"), params)
}

// AdminChange is the payload of the hub's administrative change endpoint.
// MessageSet carries the target set's short name, not its id.
type AdminChange struct {
	MotherID     string `json:"mother_id"`
	MessageSet   string `json:"messageset,omitempty"`
	Language     string `json:"language,omitempty"`
	Subscription string `json:"subscription"`
}

// CreateAdminChange submits an operator-initiated messaging change.
func (c *Hub) CreateAdminChange(ctx context.Context, change AdminChange) error {
	return c.postJSON(ctx, "/change_admin/", change, nil)
}

// CreateAdminOptOut submits an operator-initiated opt-out for a mother.
func (c *Hub) CreateAdminOptOut(ctx context.Context, motherID string) error {
	payload := map[string]string{"mother_id": motherID}
	return c.postJSON(ctx, "/optout_admin/", payload, nil)
}
