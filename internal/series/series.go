package series

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/seedplatform/control-interface/internal/model"
)

// Fetcher is the metrics service capability the series builder needs.
type Fetcher interface {
	GetMetrics(ctx context.Context, names []string, params url.Values) (map[string][]model.Point, error)
}

// Data is one renderable chart series.
type Data struct {
	Key    string    `json:"key"`
	Title  string    `json:"title"`
	Kind   Kind      `json:"kind"`
	Keys   []string  `json:"keys"`
	Values []float64 `json:"values"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Fetch retrieves one metric over the range and shapes it for charting.
// The service may return fewer buckets than the range spans; values are
// right-padded with zeros so the chart axis stays aligned.
func Fetch(ctx context.Context, f Fetcher, metric string, r DateRange) (Data, error) {
	params := url.Values{
		"from":     {r.Start.Format("20060102")},
		"until":    {r.End.Format("20060102")},
		"interval": {r.Interval},
		"nulls":    {"zeroize"},
	}
	result, err := f.GetMetrics(ctx, []string{metric}, params)
	if err != nil {
		return Data{}, err
	}
	points := result[metric]
	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, p.Y)
	}
	return Data{
		Key:    metric,
		Title:  r.Title(time.Now()),
		Kind:   r.Kind,
		Keys:   r.Keys(),
		Values: RightPad(values, r.Count(), 0),
		Start:  r.Start,
		End:    r.End,
	}, nil
}

// Timestamp converts a time to the metric API's x-axis unit, a Unix
// timestamp in milliseconds.
func Timestamp(t time.Time) int64 { return t.UnixMilli() }

// TransformTimeseries cuts a window of values out of a timeseries. The
// window opens at the sample whose x equals start and, when end is
// non-nil, closes inclusively at the sample whose x equals end. Samples
// before the opening timestamp are dropped.
func TransformTimeseries(points []model.Point, start int64, end *int64) []float64 {
	var values []float64
	include := false
	for _, p := range points {
		if p.X == start {
			include = true
		}
		if include {
			values = append(values, p.Y)
		}
		if end != nil && p.X == *end {
			return values
		}
	}
	return values
}

// LastValue returns the most recent non-zero value of a .last metric, or
// zero for empty data.
func LastValue(points []model.Point) float64 {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Y > 0 {
			return points[i].Y
		}
	}
	return 0
}

// RightPad returns values padded to length with pad; values already long
// enough come back unchanged.
func RightPad(values []float64, length int, pad float64) []float64 {
	if len(values) >= length {
		return values
	}
	out := make([]float64, length)
	copy(out, values)
	for i := len(values); i < length; i++ {
		out[i] = pad
	}
	return out
}

// Boundary is a UTC start/end pair used when windowing raw timeseries.
type Boundary struct {
	Start time.Time
	End   time.Time
}

// WeekBoundary returns the UTC Monday and Sunday midnights of the week
// containing t. The boundaries are always UTC regardless of t's zone.
func WeekBoundary(t time.Time) Boundary {
	utc := t.UTC()
	monday := midnight(utc).AddDate(0, 0, -mondayOffset(utc))
	return Boundary{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// DayBoundary returns the UTC start and last hour of the day containing t,
// where "day" is taken in t's own zone before converting.
func DayBoundary(t time.Time) Boundary {
	start := midnight(t).UTC()
	return Boundary{Start: start, End: start.Add(23 * time.Hour)}
}

// RangedValues windows a timeseries to the week or day containing t and
// pads the result to the full range length (7 days or 24 hours).
func RangedValues(points []model.Point, t time.Time, kind Kind) ([]float64, error) {
	var b Boundary
	var length int
	switch kind {
	case Week:
		b = WeekBoundary(t)
		length = 7
	case Day:
		b = DayBoundary(t)
		length = 24
	default:
		return nil, fmt.Errorf("invalid range kind %q for ranged values", kind)
	}
	end := Timestamp(b.End)
	values := TransformTimeseries(points, Timestamp(b.Start), &end)
	return RightPad(values, length, 0), nil
}
