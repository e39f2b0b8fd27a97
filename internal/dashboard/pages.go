package dashboard

import (
	"context"
	"sync"

	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/internal/numeric"
	"github.com/fatali-fataliyev/intelliwealth/internal/view"
)

const (
	MsgLoadMoreFailed = "Failed to load more data"
	MsgToggleFailed   = "Failed to toggle status"
	MsgNoConnection   = "Could not connect to server"

	// SearchScopeLoaded marks a search that only covered the pages loaded so far.
	SearchScopeLoaded = "loaded"
)

// ListPage is the view of a paginated page: accumulated items, the server summary and the
// load-more state. Totals always come from Stats, never from Items.
type ListPage[T any, S any] struct {
	Items         []T                 `json:"items"`
	Stats         S                   `json:"stats"`
	Page          int                 `json:"page"`
	HasMore       bool                `json:"hasMore"`
	CanLoadMore   bool                `json:"canLoadMore"`
	Query         string              `json:"query,omitempty"`
	SearchScope   string              `json:"searchScope,omitempty"`
	Notices       []view.Notice       `json:"notices"`
	Notifications []view.Notification `json:"notifications,omitempty"`
}

type pageState[T any, S any] struct {
	name      string
	pager     *view.Pager[T]
	loadStats func(ctx context.Context) (S, error)

	// ops is held shared by loads and exclusively by optimistic mutations.
	ops sync.RWMutex

	mu    sync.Mutex
	stats S
}

func newPageState[T any, S any](
	name string,
	size int,
	fetch func(ctx context.Context, page, size int) (finance.Page[T], error),
	loadStats func(ctx context.Context) (S, error),
) *pageState[T, S] {
	return &pageState[T, S]{
		name: name,
		pager: view.NewPager(size, func(ctx context.Context, page, size int) (view.Page[T], error) {
			res, err := fetch(ctx, page, size)
			if err != nil {
				return view.Page[T]{}, err
			}
			return view.Page[T]{Items: res.Content, Last: res.Last}, nil
		}),
		loadStats: loadStats,
	}
}

func (p *pageState[T, S]) statsName() string {
	return p.name + "-stats"
}

// reload fetches page 0 and the summary concurrently. Either may fail on its own.
func (p *pageState[T, S]) reload(ctx context.Context) view.Report {
	p.ops.RLock()
	defer p.ops.RUnlock()
	list := view.List(p.name, func(ctx context.Context) ([]T, error) {
		_, err := p.pager.Reset(ctx)
		return p.pager.Items(), err
	})
	stats := view.Summary(p.statsName(), p.loadStats)
	report := view.Settle(ctx, list, stats)
	p.setStats(stats.Value())
	return report
}

// reloadAll is reload for pages that show nothing unless both calls succeed.
func (p *pageState[T, S]) reloadAll(ctx context.Context) error {
	p.ops.RLock()
	defer p.ops.RUnlock()
	list := view.List(p.name, func(ctx context.Context) ([]T, error) {
		_, err := p.pager.Reset(ctx)
		return p.pager.Items(), err
	})
	stats := view.Summary(p.statsName(), p.loadStats)
	err := view.All(ctx, list, stats)
	if err != nil {
		p.pager.Replace([]T{})
	}
	p.setStats(stats.Value())
	return err
}

func (p *pageState[T, S]) refreshStats(ctx context.Context) error {
	stats, err := p.loadStats(ctx)
	if err != nil {
		return err
	}
	p.setStats(stats)
	return nil
}

func (p *pageState[T, S]) setStats(stats S) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = stats
}

func (p *pageState[T, S]) currentStats() S {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// loadMore appends the next page. A failure keeps what is loaded and becomes a notice.
func (p *pageState[T, S]) loadMore(ctx context.Context) []view.Notification {
	p.ops.RLock()
	defer p.ops.RUnlock()
	if _, err := p.pager.LoadMore(ctx); err != nil {
		return []view.Notification{{Level: view.LevelError, Message: MsgLoadMoreFailed}}
	}
	return nil
}

// exclusive runs fn with no reload or load-more in flight.
func (p *pageState[T, S]) exclusive(fn func()) {
	p.ops.Lock()
	defer p.ops.Unlock()
	fn()
}

func (p *pageState[T, S]) snapshot(q string, match func(T, string) bool) ListPage[T, S] {
	page := ListPage[T, S]{
		Stats:   p.currentStats(),
		Page:    p.pager.Page(),
		HasMore: p.pager.HasMore(),
		Query:   q,
		Notices: []view.Notice{},
	}
	if q == "" {
		page.Items = p.pager.Items()
		page.CanLoadMore = page.HasMore
		return page
	}
	page.Items = p.pager.Filter(func(item T) bool { return match(item, q) })
	page.SearchScope = SearchScopeLoaded
	return page
}

// ListQuery selects what a paginated page request does.
type ListQuery struct {
	// Query filters the loaded items client side. Load-more is hidden while it is set.
	Query string
	// More appends the next page instead of reloading page 0.
	More bool
	// Cached returns the accumulated state without calling the backend.
	Cached bool
}

func (s *Service) Budgets(ctx context.Context, sessionID string, q ListQuery) ListPage[finance.Budget, finance.BudgetSummary] {
	state := s.Workspace(sessionID).budgets
	notices, notes := s.advance(ctx, q, state.loadMore, state.reload)

	page := state.snapshot(q.Query, finance.Budget.Matches)
	if statsFailed(notices, state.statsName()) {
		// Without the summary the totals fall back to what is loaded.
		items := state.pager.Items()
		page.Stats = finance.BudgetSummary{
			TotalAllocated: numeric.SumBy(items, func(b finance.Budget) float64 { return b.Allocated }),
			TotalSpent:     numeric.SumBy(items, func(b finance.Budget) float64 { return b.Spent }),
			TotalRemaining: numeric.SumBy(items, func(b finance.Budget) float64 { return b.Remaining }),
		}
	}
	page.Notices = append(page.Notices, notices...)
	page.Notifications = notes
	return page
}

// Goals shows nothing unless both the first page and the stats load.
func (s *Service) Goals(ctx context.Context, sessionID string, q ListQuery) (ListPage[finance.Goal, finance.GoalStats], error) {
	state := s.Workspace(sessionID).goals
	if !q.More && !q.Cached {
		if err := state.reloadAll(ctx); err != nil {
			return state.snapshot(q.Query, finance.Goal.Matches), err
		}
	}
	var notes []view.Notification
	if q.More {
		notes = state.loadMore(ctx)
	}
	page := state.snapshot(q.Query, finance.Goal.Matches)
	page.Notifications = notes
	return page, nil
}

// Subscriptions shows nothing unless both the first page and the stats load.
func (s *Service) Subscriptions(ctx context.Context, sessionID string, q ListQuery) (ListPage[finance.Subscription, finance.SubscriptionStats], error) {
	state := s.Workspace(sessionID).subscriptions
	if !q.More && !q.Cached {
		if err := state.reloadAll(ctx); err != nil {
			page := state.snapshot(q.Query, finance.Subscription.Matches)
			page.Notifications = []view.Notification{{Level: view.LevelError, Message: MsgNoConnection}}
			return page, err
		}
	}
	var notes []view.Notification
	if q.More {
		notes = state.loadMore(ctx)
	}
	page := state.snapshot(q.Query, finance.Subscription.Matches)
	page.Notifications = notes
	return page, nil
}

// ToggleSubscription flips the active flag of id in the loaded list before the backend
// confirms. Reloads and load-mores of the subscription list wait for it. A rejected toggle
// restores the list as it was; a confirmed one refreshes the subscription stats.
func (s *Service) ToggleSubscription(ctx context.Context, sessionID, id string) (ListPage[finance.Subscription, finance.SubscriptionStats], view.Outcome, error) {
	state := s.Workspace(sessionID).subscriptions

	var notes []view.Notification
	var outcome view.Outcome
	var err error
	state.exclusive(func() {
		outcome, err = view.Optimistic(ctx, state.pager, view.Mutation[finance.Subscription]{
			Name: "toggle subscription",
			Transform: view.ToggleWhere(
				func(sub finance.Subscription) bool { return sub.ID == id },
				func(sub finance.Subscription) finance.Subscription {
					sub.Active = !sub.Active
					return sub
				},
			),
			Call:           func(ctx context.Context) error { return s.backend.ToggleSubscription(ctx, id) },
			Refresh:        state.refreshStats,
			FailureMessage: MsgToggleFailed,
		}, view.NotifierFunc(func(n view.Notification) { notes = append(notes, n) }))
	})

	page := state.snapshot("", finance.Subscription.Matches)
	if outcome.RefreshErr != nil {
		page.Notices = append(page.Notices, view.Notice{
			Source:  state.statsName(),
			Kind:    view.KindSummary.String(),
			Message: outcome.RefreshErr.Error(),
		})
	}
	page.Notifications = notes
	return page, outcome, err
}

func (s *Service) advance(
	ctx context.Context,
	q ListQuery,
	more func(context.Context) []view.Notification,
	reload func(context.Context) view.Report,
) ([]view.Notice, []view.Notification) {
	switch {
	case q.Cached:
		return nil, nil
	case q.More:
		return nil, more(ctx)
	default:
		return reload(ctx).Notices(), nil
	}
}

func statsFailed(notices []view.Notice, name string) bool {
	for _, n := range notices {
		if n.Source == name {
			return true
		}
	}
	return false
}
