package services

import (
	"context"
	"fmt"
)

// Page is one fetched page of an offset/limit-paged collection.
//
// Limit and Offset are the server-reported values, which may differ from the
// requested ones when the server clamps page sizes.
type Page[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}

// PageFunc fetches one page of a collection at the given offset.
type PageFunc[T any] func(ctx context.Context, limit, offset int) (*Page[T], error)

// DefaultPageSize is the page size used when none is specified.
const DefaultPageSize = 50

// Paginator exposes one logical unbounded sequence over a paged collection.
//
// The cursor advances by each page's reported limit, not the requested one,
// so a server that clamps page sizes never causes gaps or overlaps. A failed
// fetch leaves the cursor where it was: retrying re-requests the same offset
// without corrupting accumulated pages.
type Paginator[T any] struct {
	fetch    PageFunc[T]
	limit    int
	identify func(T) string

	cursor int
	total  int
	pages  []*Page[T]
	done   bool
}

// NewPaginator creates a Paginator over fetch with a fixed requested page
// size. identify extracts a stable item identifier for deduplication; it may
// be nil for item types without one.
func NewPaginator[T any](fetch PageFunc[T], limit int, identify func(T) string) *Paginator[T] {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return &Paginator[T]{fetch: fetch, limit: limit, identify: identify}
}

// NextPage fetches the next page and folds it into the accumulated state.
//
// Once the collection is exhausted, further calls are no-ops.
func (p *Paginator[T]) NextPage(ctx context.Context) error {
	if p.done {
		return nil
	}

	page, err := p.fetch(ctx, p.limit, p.cursor)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("page fetch returned no page")
	}

	p.pages = append(p.pages, page)
	p.total = page.Total

	step := page.Limit
	if step <= 0 {
		step = p.limit
	}
	p.cursor += step

	if p.cursor >= page.Total || len(page.Items) == 0 {
		p.done = true
	}

	return nil
}

// Done reports whether the end of the collection has been reached.
func (p *Paginator[T]) Done() bool { return p.done }

// Cursor returns the next offset to be fetched.
func (p *Paginator[T]) Cursor() int { return p.cursor }

// Total returns the collection size as last reported by the server.
func (p *Paginator[T]) Total() int { return p.total }

// Pages returns the number of pages fetched so far.
func (p *Paginator[T]) Pages() int { return len(p.pages) }

// Items returns a flattened view of all items fetched so far, in fetch order,
// deduplicated by identifier when one is available.
func (p *Paginator[T]) Items() []T {
	var items []T
	seen := make(map[string]bool)

	for _, page := range p.pages {
		for _, item := range page.Items {
			if p.identify != nil {
				id := p.identify(item)
				if id != "" && seen[id] {
					continue
				}
				seen[id] = true
			}
			items = append(items, item)
		}
	}

	return items
}

// All drains the collection and returns every item.
func (p *Paginator[T]) All(ctx context.Context) ([]T, error) {
	for !p.done {
		if err := p.NextPage(ctx); err != nil {
			return nil, err
		}
	}
	return p.Items(), nil
}
