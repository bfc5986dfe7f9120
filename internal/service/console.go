package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
	"github.com/seedplatform/control-interface/internal/series"
)

// consoleService serves the operator console: browse lists over the
// remote collections, identity detail, opt-outs, subscription changes,
// and the dashboard metrics.
type consoleService struct {
	identity  IdentityAPI
	hub       HubAPI
	messaging MessagingAPI
	sender    SenderAPI
	metrics   MetricsAPI
	pageSize  int
	log       zerolog.Logger
}

func NewConsoleService(identity IdentityAPI, hub HubAPI, messaging MessagingAPI,
	sender SenderAPI, metrics MetricsAPI, pageSize int, logger zerolog.Logger) ConsoleService {
	l := logger.With().Str("module", "service").Str("component", "console").Logger()
	if pageSize <= 0 {
		pageSize = 30
	}
	return &consoleService{
		identity:  identity,
		hub:       hub,
		messaging: messaging,
		sender:    sender,
		metrics:   metrics,
		pageSize:  pageSize,
		log:       l,
	}
}

// Identities lists identities, or searches them by msisdn when an
// address is given. The page parameter follows the console's paging
// convention: anything invalid silently falls back to the first page.
func (s *consoleService) Identities(ctx context.Context, address, page string) (*pager.NoCountPage[model.Identity], error) {
	if address != "" {
		seq := s.identity.SearchIdentities(ctx, url.Values{
			"details__addresses__msisdn": {address},
		})
		return pager.PageOf(seq, s.pageSize, page)
	}
	return pager.PageOf(s.identity.Identities(ctx, nil), s.pageSize, page)
}

func (s *consoleService) IdentityDetail(ctx context.Context, id, outboundPage, inboundPage string) (IdentityDetail, error) {
	ident, err := s.identity.Identity(ctx, id)
	if err != nil {
		return IdentityDetail{}, err
	}

	registrations, err := pager.Collect(s.hub.Registrations(ctx, url.Values{"mother_id": {id}}))
	if err != nil {
		return IdentityDetail{}, fmt.Errorf("identity registrations: %w", err)
	}
	changes, err := pager.Collect(s.hub.Changes(ctx, url.Values{"mother_id": {id}}))
	if err != nil {
		return IdentityDetail{}, fmt.Errorf("identity changes: %w", err)
	}
	subscriptions, err := pager.Collect(s.messaging.Subscriptions(ctx, url.Values{"identity": {id}}))
	if err != nil {
		return IdentityDetail{}, fmt.Errorf("identity subscriptions: %w", err)
	}

	outbound, err := pager.PageOf(s.sender.Outbound(ctx, url.Values{
		"to_identity": {id},
		"ordering":    {"-created_at"},
	}), s.pageSize, outboundPage)
	if err != nil {
		return IdentityDetail{}, fmt.Errorf("identity outbound messages: %w", err)
	}
	inbound, err := pager.PageOf(s.sender.Inbound(ctx, url.Values{
		"from_identity": {id},
		"ordering":      {"-created_at"},
	}), s.pageSize, inboundPage)
	if err != nil {
		return IdentityDetail{}, fmt.Errorf("identity inbound messages: %w", err)
	}

	return IdentityDetail{
		Identity:      ident,
		Registrations: registrations,
		Changes:       changes,
		Subscriptions: subscriptions,
		Outbound:      outbound,
		Inbound:       inbound,
	}, nil
}

// OptOutIdentity records an opt-out for the identity at both ends: the
// identity store keeps the opt-out record, the hub deactivates the
// subscriptions.
func (s *consoleService) OptOutIdentity(ctx context.Context, id string) error {
	if id == "" {
		return newInvalidInput([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	ident, err := s.identity.Identity(ctx, id)
	if err != nil {
		return err
	}

	optout := model.OptOut{
		Identity:      id,
		OptOutType:    "stop",
		AddressType:   ident.Details.DefaultAddrType,
		RequestSource: "ci",
	}
	if addrs := ident.Details.DefaultAddresses(); len(addrs) > 0 {
		optout.Address = addrs[0]
	}
	if _, err := s.identity.CreateOptOut(ctx, optout); err != nil {
		return fmt.Errorf("create opt-out: %w", err)
	}
	if err := s.hub.CreateAdminOptOut(ctx, id); err != nil {
		return fmt.Errorf("create admin opt-out: %w", err)
	}
	s.log.Info().Str("identity", id).Msg("identity opted out")
	return nil
}

func (s *consoleService) Registrations(ctx context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Registration], error) {
	return pager.PageOf(s.hub.Registrations(ctx, filters), s.pageSize, page)
}

func (s *consoleService) Changes(ctx context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Change], error) {
	return pager.PageOf(s.hub.Changes(ctx, filters), s.pageSize, page)
}

func (s *consoleService) Subscriptions(ctx context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Subscription], error) {
	return pager.PageOf(s.messaging.Subscriptions(ctx, filters), s.pageSize, page)
}

// ChangeSubscription moves a subscription to another message set via the
// hub's administrative change endpoint. The hub wants the target set's
// short name, not its id, so the set is resolved first.
func (s *consoleService) ChangeSubscription(ctx context.Context, subscriptionID string, messageSetID int, language string) error {
	var ferrs []FieldError
	if subscriptionID == "" {
		ferrs = append(ferrs, FieldError{Field: "subscription", Message: "must not be empty"})
	}
	if messageSetID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "messageset", Message: "must be > 0"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return err
	}

	sub, err := s.messaging.Subscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	set, err := s.messaging.MessageSet(ctx, messageSetID)
	if err != nil {
		return err
	}
	if language == "" {
		language = sub.Lang
	}

	change := client.AdminChange{
		MotherID:     sub.Identity,
		MessageSet:   set.ShortName,
		Language:     language,
		Subscription: sub.ID,
	}
	if err := s.hub.CreateAdminChange(ctx, change); err != nil {
		return fmt.Errorf("create admin change: %w", err)
	}
	s.log.Info().
		Str("subscription", sub.ID).
		Str("messageset", set.ShortName).
		Msg("subscription change submitted")
	return nil
}

// MessageSets lists every message set a subscription can be moved to.
func (s *consoleService) MessageSets(ctx context.Context) ([]model.MessageSet, error) {
	sets, err := pager.Collect(s.messaging.MessageSets(ctx, nil))
	if err != nil {
		return nil, fmt.Errorf("list message sets: %w", err)
	}
	return sets, nil
}

// Metrics proxies a raw multi-metric query, preserving the request order
// of the metric names in the response.
func (s *consoleService) Metrics(ctx context.Context, names []string, params url.Values) ([]MetricObject, error) {
	if len(names) == 0 {
		return nil, newInvalidInput([]FieldError{{Field: "m", Message: "at least one metric is required"}})
	}
	data, err := s.metrics.GetMetrics(ctx, names, params)
	if err != nil {
		return nil, err
	}
	objects := make([]MetricObject, 0, len(names))
	for _, name := range names {
		objects = append(objects, MetricObject{Key: name, Values: data[name]})
	}
	return objects, nil
}

func (s *consoleService) Series(ctx context.Context, metric string, kind series.Kind, at time.Time, shift int) (series.Data, error) {
	if metric == "" {
		return series.Data{}, newInvalidInput([]FieldError{{Field: "metric", Message: "must not be empty"}})
	}
	r, err := series.RangeFrom(kind, at)
	if err != nil {
		return series.Data{}, newInvalidInput([]FieldError{{Field: "kind", Message: err.Error()}})
	}
	return series.Fetch(ctx, s.metrics, metric, r.Shift(shift))
}

// LastValue returns the most recent non-zero sample of a .last metric
// over the trailing month.
func (s *consoleService) LastValue(ctx context.Context, metric string) (float64, error) {
	if metric == "" {
		return 0, newInvalidInput([]FieldError{{Field: "metric", Message: "must not be empty"}})
	}
	data, err := s.metrics.GetMetrics(ctx, []string{metric}, url.Values{
		"from":     {"-30d"},
		"interval": {"1d"},
		"nulls":    {"zeroize"},
	})
	if err != nil {
		return 0, err
	}
	return series.LastValue(data[metric]), nil
}
