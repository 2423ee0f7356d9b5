package services

import (
	"context"
	"errors"
	"testing"
)

type item struct {
	ID   string
	Name string
}

// collectionFetch serves pages out of a fixed slice, emulating the remote's
// offset/limit envelope. serverLimit, when set, clamps the requested limit.
func collectionFetch(items []item, serverLimit int, calls *int) PageFunc[item] {
	return func(ctx context.Context, limit, offset int) (*Page[item], error) {
		if calls != nil {
			*calls++
		}
		if serverLimit > 0 && limit > serverLimit {
			limit = serverLimit
		}

		page := &Page[item]{Total: len(items), Limit: limit, Offset: offset}
		if offset < len(items) {
			end := offset + limit
			if end > len(items) {
				end = len(items)
			}
			page.Items = items[offset:end]
		}
		return page, nil
	}
}

func makeItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{ID: string(rune('a' + i)), Name: "item"}
	}
	return items
}

func TestPaginator(t *testing.T) {
	identify := func(i item) string { return i.ID }

	t.Run("DrainsCollection", func(t *testing.T) {
		calls := 0
		p := NewPaginator(collectionFetch(makeItems(10), 0, &calls), 4, identify)

		all, err := p.All(context.Background())
		if err != nil {
			t.Fatalf("drain failed: %v", err)
		}

		if len(all) != 10 {
			t.Errorf("expected 10 items, got %d", len(all))
		}
		if calls != 3 {
			t.Errorf("expected 3 fetches for 10 items at limit 4, got %d", calls)
		}
		if !p.Done() {
			t.Error("paginator should be done after draining")
		}
		if p.Total() != 10 {
			t.Errorf("expected total 10, got %d", p.Total())
		}
	})

	t.Run("DoneIsIdempotent", func(t *testing.T) {
		calls := 0
		p := NewPaginator(collectionFetch(makeItems(3), 0, &calls), 5, identify)

		if _, err := p.All(context.Background()); err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		callsAfterDrain := calls

		if err := p.NextPage(context.Background()); err != nil {
			t.Fatalf("NextPage after done errored: %v", err)
		}
		if calls != callsAfterDrain {
			t.Error("NextPage after done must not fetch")
		}
		if got := len(p.Items()); got != 3 {
			t.Errorf("expected 3 items, got %d", got)
		}
	})

	t.Run("CursorFollowsServerLimit", func(t *testing.T) {
		// Request 50, server clamps to 2: the cursor must advance by 2.
		p := NewPaginator(collectionFetch(makeItems(5), 2, nil), 50, identify)

		if err := p.NextPage(context.Background()); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if p.Cursor() != 2 {
			t.Errorf("expected cursor 2, got %d", p.Cursor())
		}

		all, err := p.All(context.Background())
		if err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("expected 5 items with no gaps, got %d", len(all))
		}
	})

	t.Run("FailedFetchLeavesCursor", func(t *testing.T) {
		failures := 1
		inner := collectionFetch(makeItems(4), 0, nil)
		fetch := func(ctx context.Context, limit, offset int) (*Page[item], error) {
			if failures > 0 {
				failures--
				return nil, errors.New("transient")
			}
			return inner(ctx, limit, offset)
		}

		p := NewPaginator(fetch, 2, identify)

		if err := p.NextPage(context.Background()); err == nil {
			t.Fatal("expected the transient error to surface")
		}
		if p.Cursor() != 0 {
			t.Errorf("cursor should not move on failure, got %d", p.Cursor())
		}
		if p.Pages() != 0 {
			t.Error("failed fetch must not accumulate a page")
		}

		// Retry resumes from the same offset.
		if err := p.NextPage(context.Background()); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if p.Cursor() != 2 {
			t.Errorf("expected cursor 2 after retry, got %d", p.Cursor())
		}
	})

	t.Run("ItemsDeduplicates", func(t *testing.T) {
		pages := []*Page[item]{
			{Items: []item{{ID: "a"}, {ID: "b"}}, Total: 4, Limit: 2},
			{Items: []item{{ID: "b"}, {ID: "c"}}, Total: 4, Limit: 2},
		}
		i := 0
		fetch := func(ctx context.Context, limit, offset int) (*Page[item], error) {
			page := pages[i]
			i++
			return page, nil
		}

		p := NewPaginator(fetch, 2, identify)
		for j := 0; j < 2; j++ {
			if err := p.NextPage(context.Background()); err != nil {
				t.Fatalf("fetch failed: %v", err)
			}
		}

		all := p.Items()
		if len(all) != 3 {
			t.Fatalf("expected 3 distinct items, got %d", len(all))
		}
		if all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
			t.Error("items should keep first-seen order")
		}
	})

	t.Run("EmptyCollection", func(t *testing.T) {
		p := NewPaginator(collectionFetch(nil, 0, nil), 10, identify)

		all, err := p.All(context.Background())
		if err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected no items, got %d", len(all))
		}
		if !p.Done() {
			t.Error("empty collection should finish immediately")
		}
	})

	t.Run("NilIdentifyKeepsEverything", func(t *testing.T) {
		fetch := func(ctx context.Context, limit, offset int) (*Page[item], error) {
			return &Page[item]{Items: []item{{ID: "a"}, {ID: "a"}}, Total: 2, Limit: 2}, nil
		}

		p := NewPaginator(fetch, 2, nil)
		if err := p.NextPage(context.Background()); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if got := len(p.Items()); got != 2 {
			t.Errorf("expected duplicates kept without identify, got %d", got)
		}
	})
}
