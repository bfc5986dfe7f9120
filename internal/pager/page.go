package pager

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Paging errors. ErrEmptyPage doubles as the "no such page" condition for
// the previous/next accessors, matching the semantics of the paginator
// this replaces.
var (
	ErrEmptyPage    = errors.New("that page contains no results")
	ErrNotAnInteger = errors.New("that page number is not an integer")
)

// ValidatePageNumber parses a user-supplied page number and ensures it is
// a positive integer.
func ValidatePageNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrNotAnInteger
	}
	if n < 1 {
		return 0, ErrEmptyPage
	}
	return n, nil
}

// NoCountPage is one page of a list that does not know its total size.
// HasMore is authoritative only because one item beyond the page boundary
// was fetched to decide it.
type NoCountPage[T any] struct {
	Items   []T  `json:"items"`
	Number  int  `json:"page"`
	Size    int  `json:"page_size"`
	HasMore bool `json:"has_next"`
}

func (p *NoCountPage[T]) String() string { return fmt.Sprintf("<Page %d>", p.Number) }

// HasNext reports whether a following page exists.
func (p *NoCountPage[T]) HasNext() bool { return p.HasMore }

// HasPrevious reports whether a preceding page exists.
func (p *NoCountPage[T]) HasPrevious() bool { return p.Number > 1 }

// NextPageNumber returns the number of the following page, or ErrEmptyPage
// if this is the last one.
func (p *NoCountPage[T]) NextPageNumber() (int, error) {
	if !p.HasMore {
		return 0, ErrEmptyPage
	}
	return p.Number + 1, nil
}

// PreviousPageNumber returns the number of the preceding page, or
// ErrEmptyPage on page 1.
func (p *NoCountPage[T]) PreviousPageNumber() (int, error) {
	if p.Number <= 1 {
		return 0, ErrEmptyPage
	}
	return p.Number - 1, nil
}

// PageOf renders one fixed-size page of a sequence. rawNumber is the raw
// page parameter from the request; anything that is not a positive integer
// silently falls back to page 1. A page beyond the end of the sequence also
// falls back to page 1 and re-windows, which defends against a stale page
// reference after the underlying collection shrank. The sequence must be
// re-iterable for the fallback; our cursor sequences are, at the cost of
// re-issuing their requests.
func PageOf[T any](seq iter.Seq2[T, error], size int, rawNumber string) (*NoCountPage[T], error) {
	number, err := ValidatePageNumber(rawNumber)
	if err != nil {
		number = 1
	}
	items, hasMore, err := window(seq, number, size)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && number != 1 {
		number = 1
		items, hasMore, err = window(seq, number, size)
		if err != nil {
			return nil, err
		}
	}
	return &NoCountPage[T]{Items: items, Number: number, Size: size, HasMore: hasMore}, nil
}

// window skips to the requested page and reads size+1 items; the extra one
// only decides whether a next page exists.
func window[T any](seq iter.Seq2[T, error], number, size int) (items []T, hasMore bool, err error) {
	skip := (number - 1) * size
	seen := 0
	for item, iterErr := range seq {
		if iterErr != nil {
			return nil, false, iterErr
		}
		if seen < skip {
			seen++
			continue
		}
		if len(items) == size {
			hasMore = true
			break
		}
		items = append(items, item)
		seen++
	}
	return items, hasMore, nil
}
