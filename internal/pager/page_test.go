package pager

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ints yields 0..n-1; re-iterable, like a cursor sequence.
func ints(n int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i := 0; i < n; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}
}

func TestValidatePageNumber(t *testing.T) {
	_, err := ValidatePageNumber("a")
	assert.ErrorIs(t, err, ErrNotAnInteger)

	_, err = ValidatePageNumber("0")
	assert.ErrorIs(t, err, ErrEmptyPage)

	n, err := ValidatePageNumber("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageOf_FirstPageHasNext(t *testing.T) {
	page, err := PageOf(ints(10), 5, "1")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, page.Items)
	assert.True(t, page.HasNext())
}

func TestPageOf_LastPage(t *testing.T) {
	page, err := PageOf(ints(10), 5, "2")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7, 8, 9}, page.Items)
	assert.False(t, page.HasNext())
}

func TestPageOf_DefaultsToFirstPage(t *testing.T) {
	// Any unusable page number falls back to page 1 rather than erroring.
	for _, raw := range []string{"a", "-1", "100"} {
		page, err := PageOf(ints(10), 5, raw)
		require.NoError(t, err, "page %q", raw)
		assert.Equal(t, 1, page.Number, "page %q", raw)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, page.Items, "page %q", raw)
	}
}

func TestNoCountPage_Accessors(t *testing.T) {
	page := &NoCountPage[string]{Items: []string{"a", "b"}, Number: 2, Size: 2, HasMore: true}

	assert.Equal(t, "<Page 2>", page.String())
	assert.True(t, page.HasNext())

	next, err := page.NextPageNumber()
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	prev, err := page.PreviousPageNumber()
	require.NoError(t, err)
	assert.Equal(t, 1, prev)
}

func TestNoCountPage_BoundaryErrors(t *testing.T) {
	first := &NoCountPage[string]{Number: 1, Size: 2}

	_, err := first.PreviousPageNumber()
	assert.ErrorIs(t, err, ErrEmptyPage)

	_, err = first.NextPageNumber()
	assert.ErrorIs(t, err, ErrEmptyPage)
	assert.False(t, first.HasPrevious())
}

func TestPageOf_ExactMultiple(t *testing.T) {
	// 10 items, size 10: one full page, no phantom next page.
	page, err := PageOf(ints(10), 10, "1")
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.False(t, page.HasNext())
}
