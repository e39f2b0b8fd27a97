package view

import (
	"context"
	"sync"
)

const DefaultPageSize = 12

// Page is one server page handed to a Pager.
type Page[T any] struct {
	Items []T
	Last  bool
}

type PageFunc[T any] func(ctx context.Context, page, size int) (Page[T], error)

// Pager accumulates items from a page-based endpoint. Page 0 replaces the list, later pages
// append. Totals must come from a separate summary call, never from Items.
type Pager[T any] struct {
	mu      sync.Mutex
	fetch   PageFunc[T]
	size    int
	page    int
	items   []T
	hasMore bool
	loading bool
	gen     uint64
	// version changes on every write to items.
	version uint64
}

func NewPager[T any](size int, fetch PageFunc[T]) *Pager[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager[T]{
		fetch: fetch,
		size:  size,
		items: []T{},
	}
}

// Load fetches one page. It returns applied=false when the call was a no-op (page > 0 while a
// load is in flight or nothing is left) or when its response was superseded by a newer
// Load(0). A failed page 0 degrades the list to empty; a failed later page leaves it as is.
func (p *Pager[T]) Load(ctx context.Context, page int) (applied bool, err error) {
	if page < 0 {
		page = 0
	}

	p.mu.Lock()
	if page > 0 && (p.loading || !p.hasMore) {
		p.mu.Unlock()
		return false, nil
	}
	if page == 0 {
		p.gen++
	}
	gen := p.gen
	p.loading = true
	p.mu.Unlock()

	res, err := p.fetch(ctx, page, p.size)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false, nil
	}
	p.loading = false
	if err != nil {
		if page == 0 {
			p.items = []T{}
			p.page = 0
			p.hasMore = false
			p.version++
		}
		return false, err
	}

	if page == 0 {
		p.items = append(make([]T, 0, len(res.Items)), res.Items...)
	} else {
		p.items = append(p.items, res.Items...)
	}
	p.page = page
	p.hasMore = !res.Last
	p.version++
	return true, nil
}

func (p *Pager[T]) Reset(ctx context.Context) (bool, error) {
	return p.Load(ctx, 0)
}

func (p *Pager[T]) LoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	next := p.page + 1
	p.mu.Unlock()
	return p.Load(ctx, next)
}

// Items returns a copy of the accumulated list.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(make([]T, 0, len(p.items)), p.items...)
}

// Replace swaps the accumulated list without touching page bookkeeping.
func (p *Pager[T]) Replace(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(make([]T, 0, len(items)), items...)
	p.version++
}

// Apply replaces the list with transform of a copy of it in one step. It returns the list as
// it was and the version after the write.
func (p *Pager[T]) Apply(transform func(items []T) []T) (snapshot []T, version uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot = append(make([]T, 0, len(p.items)), p.items...)
	next := transform(append(make([]T, 0, len(p.items)), p.items...))
	p.items = append(make([]T, 0, len(next)), next...)
	p.version++
	return snapshot, p.version
}

// RestoreIf puts snapshot back only when nothing wrote to the list since version.
func (p *Pager[T]) RestoreIf(version uint64, snapshot []T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.version != version {
		return false
	}
	p.items = append(make([]T, 0, len(snapshot)), snapshot...)
	p.version++
	return true
}

func (p *Pager[T]) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Pager[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Filter keeps the accumulated items matching keep. It only sees what has been loaded.
func (p *Pager[T]) Filter(keep func(T) bool) []T {
	items := p.Items()
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
