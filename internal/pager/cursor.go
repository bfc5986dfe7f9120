// Package pager implements the two paging primitives the console is built
// on: full traversal of cursor-paginated remote collections, and fixed-size
// paging of sequences whose total length is unknown.
package pager

import (
	"context"
	"fmt"
	"iter"
	"net/url"
)

// Page is the envelope every backing service uses for list endpoints.
// Next is the opaque cursor URL for the following page; nil means the
// collection is exhausted.
type Page[T any] struct {
	Results []T     `json:"results"`
	Next    *string `json:"next"`
}

// FetchFunc fetches one page of a collection for the given query
// parameters.
type FetchFunc[T any] func(ctx context.Context, params url.Values) (Page[T], error)

// All walks a cursor-paginated collection to completion, yielding every
// item in server order. The walk follows the server-supplied next cursor
// until it is null; an empty page with a non-null cursor continues the
// walk rather than ending it, since a slow backend may materialize results
// late. Fetch and cursor errors terminate the sequence with a non-nil
// error; there are no retries. Ranging over the sequence again re-issues
// every request.
func All[T any](ctx context.Context, fetch FetchFunc[T], params url.Values) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		cur := cloneValues(params)
		for {
			page, err := fetch(ctx, cur)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, item := range page.Results {
				if !yield(item, nil) {
					return
				}
			}
			if page.Next == nil {
				return
			}
			cur, err = cursorParams(*page.Next)
			if err != nil {
				yield(zero, err)
				return
			}
		}
	}
}

// Each runs fn for every item of the sequence, stopping at the first
// traversal or callback error.
func Each[T any](seq iter.Seq2[T, error], fn func(T) error) error {
	for item, err := range seq {
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

// Collect materializes the whole sequence.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var items []T
	err := Each(seq, func(item T) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// cursorParams extracts the query parameters from a cursor URL. The server
// owns the cursor completely, so the parameter set replaces the previous
// one wholesale; only the first value of a repeated key survives.
func cursorParams(cursor string) (url.Values, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor %q: %w", cursor, err)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse cursor query %q: %w", cursor, err)
	}
	flat := make(url.Values, len(q))
	for key, vals := range q {
		if len(vals) > 0 {
			flat.Set(key, vals[0])
		}
	}
	return flat, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
