package client

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
)

// IdentityStore talks to the seed identity store service.
type IdentityStore struct {
	base
}

func NewIdentityStore(baseURL, token string, logger zerolog.Logger) *IdentityStore {
	return &IdentityStore{base: newBase(baseURL, token, "identity-store", logger)}
}

// Identities walks the plain identity list.
func (c *IdentityStore) Identities(ctx context.Context, params url.Values) iter.Seq2[model.Identity, error] {
	return pager.All(ctx, fetchPage[model.Identity](&c.base, "/identities/"), params)
}

// SearchIdentities walks the identity search endpoint, used for address
// lookups such as details__addresses__msisdn=<value>.
func (c *IdentityStore) SearchIdentities(ctx context.Context, params url.Values) iter.Seq2[model.Identity, error] {
	return pager.All(ctx, fetchPage[model.Identity](&c.base, "/identities/search/"), params)
}

// Identity fetches one identity by id. Returns ErrNotFound for a missing
// identity; the remote data is incomplete by design, so most callers treat
// that as an empty record.
func (c *IdentityStore) Identity(ctx context.Context, id string) (model.Identity, error) {
	var ident model.Identity
	if err := c.getJSON(ctx, fmt.Sprintf("/identities/%s/", id), nil, &ident); err != nil {
		return model.Identity{}, err
	}
	return ident, nil
}

// OptOuts walks the opt-out search endpoint. Time windows are expressed as
// created_at__gte / created_at__lte parameters.
func (c *IdentityStore) OptOuts(ctx context.Context, params url.Values) iter.Seq2[model.OptOut, error] {
	return pager.All(ctx, fetchPage[model.OptOut](&c.base, "/optouts/search/"), params)
}

// CreateOptOut records an opt-out at the identity store.
func (c *IdentityStore) CreateOptOut(ctx context.Context, optout model.OptOut) (model.OptOut, error) {
	var created model.OptOut
	if err := c.postJSON(ctx, "/optout/", optout, &created); err != nil {
		return model.OptOut{}, err
	}
	return created, nil
}
