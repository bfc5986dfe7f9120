// Package client provides HTTP clients for the backing seed services. One
// client per service, all over a shared token-authenticated base; callers
// construct clients explicitly and pass them in rather than relying on
// package-level singletons, so tests can substitute fakes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/pager"
)

// ErrNotFound is returned for a 404 from any backing service. Callers that
// treat missing remote entities as empty records match on it.
var ErrNotFound = errors.New("not found")

// requestTimeout bounds every remote call. The services impose no timeout
// of their own, so a hung backend would otherwise hang a whole report run.
const requestTimeout = 10 * time.Second

// UpstreamError is a non-2xx, non-404 response from a backing service.
type UpstreamError struct {
	Status int
	URL    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.Status)
}

// base carries what every service client needs: the service root, its
// token, and a shared HTTP client. Auth is the seed convention of
// "Authorization: Token <t>".
type base struct {
	baseURL string
	token   string
	hc      *http.Client
	log     zerolog.Logger
}

func newBase(baseURL, token, component string, logger zerolog.Logger) base {
	return base{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: requestTimeout},
		log:     logger.With().Str("module", "client").Str("component", component).Logger(),
	}
}

// do issues one request and decodes a JSON body into out (out may be nil
// for calls where only the status matters). No retries anywhere: transport
// and decode errors propagate to the caller as-is.
func (b *base) do(ctx context.Context, method, path string, params url.Values, token string, payload, out any) error {
	reqURL := b.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, reqURL, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, reqURL, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	b.log.Debug().Str("method", method).Str("url", reqURL).Msg("remote call")
	resp, err := b.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, reqURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, reqURL, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &UpstreamError{Status: resp.StatusCode, URL: reqURL}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, reqURL, err)
	}
	return nil
}

func (b *base) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	return b.do(ctx, http.MethodGet, path, params, b.token, nil, out)
}

func (b *base) postJSON(ctx context.Context, path string, payload, out any) error {
	return b.do(ctx, http.MethodPost, path, nil, b.token, payload, out)
}

// fetchPage adapts one list endpoint into a pager fetch capability.
func fetchPage[T any](b *base, path string) pager.FetchFunc[T] {
	return func(ctx context.Context, params url.Values) (pager.Page[T], error) {
		var page pager.Page[T]
		if err := b.getJSON(ctx, path, params, &page); err != nil {
			return pager.Page[T]{}, err
		}
		return page, nil
	}
}
