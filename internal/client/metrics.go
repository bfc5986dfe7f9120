package client

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/model"
)

// Metrics talks to the metrics service. Its one endpoint returns a map of
// metric name to timeseries for any number of requested metrics.
type Metrics struct {
	base
}

func NewMetrics(baseURL, token string, logger zerolog.Logger) *Metrics {
	return &Metrics{base: newBase(baseURL, token, "metrics", logger)}
}

// GetMetrics fetches the named metrics. Extra query parameters (from,
// until, start, interval, nulls) pass through untouched; each name becomes
// a repeated m parameter.
func (c *Metrics) GetMetrics(ctx context.Context, names []string, params url.Values) (map[string][]model.Point, error) {
	q := make(url.Values, len(params)+1)
	for key, vals := range params {
		q[key] = append([]string(nil), vals...)
	}
	for _, name := range names {
		q.Add("m", name)
	}
	out := map[string][]model.Point{}
	if err := c.getJSON(ctx, "/metrics/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
