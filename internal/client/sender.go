package client

import (
	"context"
	"iter"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
)

// MessageSender talks to the message sender service, which owns the
// outbound and inbound message logs.
type MessageSender struct {
	base
}

func NewMessageSender(baseURL, token string, logger zerolog.Logger) *MessageSender {
	return &MessageSender{base: newBase(baseURL, token, "message-sender", logger)}
}

// Outbound walks sent messages. Time windows are expressed as after /
// before parameters; per-identity history filters by to_identity with
// ordering=-created_at.
func (c *MessageSender) Outbound(ctx context.Context, params url.Values) iter.Seq2[model.OutboundMessage, error] {
	return pager.All(ctx, fetchPage[model.OutboundMessage](&c.base, "/outbound/"), params)
}

// Inbound walks received messages.
func (c *MessageSender) Inbound(ctx context.Context, params url.Values) iter.Seq2[model.InboundMessage, error] {
	return pager.All(ctx, fetchPage[model.InboundMessage](&c.base, "/inbound/"), params)
}
