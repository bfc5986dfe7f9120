package pager

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetch replays a fixed list of pages and records every call's
// parameters.
type scriptedFetch struct {
	pages []Page[string]
	calls []url.Values
	err   error
}

func (f *scriptedFetch) fetch(_ context.Context, params url.Values) (Page[string], error) {
	f.calls = append(f.calls, cloneValues(params))
	if f.err != nil {
		return Page[string]{}, f.err
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func strptr(s string) *string { return &s }

func TestAll_YieldsEveryItemInOrder(t *testing.T) {
	fetch := &scriptedFetch{pages: []Page[string]{
		{Results: []string{"a", "b"}, Next: strptr("http://x.example.com/things/?offset=2&limit=2")},
		{Results: []string{"c"}, Next: strptr("http://x.example.com/things/?offset=4&limit=2")},
		{Results: []string{"d", "e", "f"}, Next: nil},
	}}

	items, err := Collect(All(context.Background(), fetch.fetch, url.Values{"foo": {"bar"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, items)
	// one fetch per page, no more
	require.Len(t, fetch.calls, 3)
	assert.Equal(t, "bar", fetch.calls[0].Get("foo"))
	assert.Equal(t, "2", fetch.calls[1].Get("offset"))
	assert.Equal(t, "4", fetch.calls[2].Get("offset"))
}

func TestAll_ContinuesPastEmptyFirstPage(t *testing.T) {
	// A slow-to-materialize backend can return an empty first page with a
	// live cursor; the walk must follow it instead of stopping.
	fetch := &scriptedFetch{pages: []Page[string]{
		{Results: []string{}, Next: strptr("http://x.example.com/things/?foo=bar")},
		{Results: []string{"A"}, Next: nil},
	}}

	items, err := Collect(All(context.Background(), fetch.fetch, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, items)
	assert.Len(t, fetch.calls, 2)
}

func TestAll_CursorReplacesParamsWholesale(t *testing.T) {
	// The server owns the cursor: whatever filter it encodes wins, and the
	// original parameters are dropped.
	fetch := &scriptedFetch{pages: []Page[string]{
		{Results: []string{"a"}, Next: strptr("http://x.example.com/things/?baz=qux&baz=ignored")},
		{Results: nil, Next: nil},
	}}

	_, err := Collect(All(context.Background(), fetch.fetch, url.Values{"foo": {"bar"}}))
	require.NoError(t, err)
	require.Len(t, fetch.calls, 2)
	second := fetch.calls[1]
	assert.Empty(t, second.Get("foo"))
	// repeated keys flatten first-value-wins
	assert.Equal(t, []string{"qux"}, second["baz"])
}

func TestAll_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	fetch := &scriptedFetch{err: boom}

	_, err := Collect(All(context.Background(), fetch.fetch, nil))
	assert.ErrorIs(t, err, boom)
}

func TestAll_MalformedCursorFails(t *testing.T) {
	fetch := &scriptedFetch{pages: []Page[string]{
		{Results: []string{"a"}, Next: strptr("http://x.example.com/things/?bad=%zz")},
	}}

	items := 0
	err := Each(All(context.Background(), fetch.fetch, nil), func(string) error {
		items++
		return nil
	})
	require.Error(t, err)
	// items before the bad cursor were still yielded
	assert.Equal(t, 1, items)
}

func TestAll_EarlyBreakStopsFetching(t *testing.T) {
	fetch := &scriptedFetch{pages: []Page[string]{
		{Results: []string{"a", "b"}, Next: strptr("http://x.example.com/things/?offset=2")},
		{Results: []string{"c"}, Next: nil},
	}}

	for item, err := range All(context.Background(), fetch.fetch, nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item == "a" {
			break
		}
	}
	assert.Len(t, fetch.calls, 1)
}
