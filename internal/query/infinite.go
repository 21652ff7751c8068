package query

import (
	"context"
	"sync"
)

// Page is one slice of a cursor-paginated list.
type Page[T any] struct {
	Items      []T    `json:"documents"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// FetchPage fetches the page after cursor through the cache, under
// key+cursor. The next cursor is the id of the page's last item; a page
// shorter than pageSize is the last one.
func FetchPage[T any](ctx context.Context, c *Client, key Key, cursor string, pageSize int, id func(T) string, fn func(ctx context.Context, cursor string) ([]T, error)) (Page[T], error) {
	items, err := Fetch(ctx, c, key.With(cursor), func(ctx context.Context) ([]T, error) {
		return fn(ctx, cursor)
	})
	if err != nil {
		return Page[T]{}, err
	}
	p := Page[T]{Items: items, HasMore: len(items) >= pageSize && len(items) > 0}
	if p.HasMore {
		p.NextCursor = id(items[len(items)-1])
	}
	return p, nil
}

// InfiniteQuery accumulates successive pages of a list.
type InfiniteQuery[T any] struct {
	client   *Client
	key      Key
	pageSize int
	id       func(T) string
	fetch    func(ctx context.Context, cursor string) ([]T, error)

	mu      sync.Mutex
	pages   []Page[T]
	next    string
	hasMore bool
}

func NewInfiniteQuery[T any](c *Client, key Key, pageSize int, id func(T) string, fetch func(ctx context.Context, cursor string) ([]T, error)) *InfiniteQuery[T] {
	return &InfiniteQuery[T]{client: c, key: key, pageSize: pageSize, id: id, fetch: fetch, hasMore: true}
}

// FetchNextPage loads and appends the next page. It returns nil, nil once the
// last page was reached.
func (q *InfiniteQuery[T]) FetchNextPage(ctx context.Context) ([]T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.hasMore {
		return nil, nil
	}
	p, err := FetchPage(ctx, q.client, q.key, q.next, q.pageSize, q.id, q.fetch)
	if err != nil {
		return nil, err
	}
	q.pages = append(q.pages, p)
	q.next = p.NextCursor
	q.hasMore = p.HasMore
	return p.Items, nil
}

func (q *InfiniteQuery[T]) HasMore() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hasMore
}

func (q *InfiniteQuery[T]) NextCursor() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}

func (q *InfiniteQuery[T]) Pages() []Page[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Page[T](nil), q.pages...)
}

// Items flattens the loaded pages.
func (q *InfiniteQuery[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []T
	for _, p := range q.pages {
		out = append(out, p.Items...)
	}
	return out
}

// Reset forgets the loaded pages; the next FetchNextPage starts over.
func (q *InfiniteQuery[T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pages = nil
	q.next = ""
	q.hasMore = true
}
