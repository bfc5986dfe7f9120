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

// StageBasedMessaging talks to the stage-based messaging service, which
// owns subscriptions and message sets.
type StageBasedMessaging struct {
	base
}

func NewStageBasedMessaging(baseURL, token string, logger zerolog.Logger) *StageBasedMessaging {
	return &StageBasedMessaging{base: newBase(baseURL, token, "stage-based-messaging", logger)}
}

// Subscriptions walks the subscription list. Boolean filters are sent in
// the service's capitalized form ("True"/"False"); callers use the
// BoolParam helper to get that right.
func (c *StageBasedMessaging) Subscriptions(ctx context.Context, params url.Values) iter.Seq2[model.Subscription, error] {
	return pager.All(ctx, fetchPage[model.Subscription](&c.base, "/subscriptions/"), params)
}

// Subscription fetches one subscription by id.
func (c *StageBasedMessaging) Subscription(ctx context.Context, id string) (model.Subscription, error) {
	var sub model.Subscription
	if err := c.getJSON(ctx, fmt.Sprintf("/subscriptions/%s/", id), nil, &sub); err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

// MessageSet fetches one message set by id.
func (c *StageBasedMessaging) MessageSet(ctx context.Context, id int) (model.MessageSet, error) {
	var set model.MessageSet
	if err := c.getJSON(ctx, fmt.Sprintf("/messageset/%d/", id), nil, &set); err != nil {
		return model.MessageSet{}, err
	}
	return set, nil
}

// MessageSets walks the message set list.
func (c *StageBasedMessaging) MessageSets(ctx context.Context, params url.Values) iter.Seq2[model.MessageSet, error] {
	return pager.All(ctx, fetchPage[model.MessageSet](&c.base, "/messageset/"), params)
}

// BoolParam renders a boolean the way the stage-based messaging service
// expects its query filters.
func BoolParam(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
