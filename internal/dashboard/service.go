// Package dashboard builds the page view models of IntelliWealth from the backend.
package dashboard

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/chat"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/fatali-fataliyev/intelliwealth/internal/view"
	"github.com/fatali-fataliyev/intelliwealth/logging"
)

// Backend is the REST surface the pages read from. *upstream.Client implements it.
type Backend interface {
	Transactions(ctx context.Context, keyword string) ([]finance.Transaction, error)
	TransactionSummary(ctx context.Context) (finance.TransactionSummary, error)

	Budgets(ctx context.Context, page, size int) (finance.Page[finance.Budget], error)
	BudgetSummary(ctx context.Context) (finance.BudgetSummary, error)
	Goals(ctx context.Context, page, size int) (finance.Page[finance.Goal], error)
	GoalStats(ctx context.Context) (finance.GoalStats, error)
	DeleteAllGoals(ctx context.Context) error
	Subscriptions(ctx context.Context, active *bool, page, size int) (finance.Page[finance.Subscription], error)
	ToggleSubscription(ctx context.Context, id string) error
	SubscriptionStats(ctx context.Context) (finance.SubscriptionStats, error)

	Assets(ctx context.Context) ([]finance.Asset, error)
	AssetTotal(ctx context.Context) (finance.AssetTotal, error)
	Debts(ctx context.Context) ([]finance.Debt, error)
	DebtStats(ctx context.Context) (finance.DebtStats, error)
	NetWorth(ctx context.Context) (finance.NetWorth, error)

	Policies(ctx context.Context) ([]finance.InsurancePolicy, error)
	ActivePolicies(ctx context.Context) ([]finance.InsurancePolicy, error)
	ExpiringPolicies(ctx context.Context) ([]finance.InsurancePolicy, error)
	PoliciesByCategory(ctx context.Context, category string) ([]finance.InsurancePolicy, error)
	ContingencyHealth(ctx context.Context) (finance.ContingencyHealth, error)

	SendChat(ctx context.Context, query, conversationID string) (any, error)
	ChatHistory(ctx context.Context) ([]finance.Record, error)
	Conversation(ctx context.Context, id string) ([]finance.Record, error)

	Create(ctx context.Context, r upstream.Resource, body map[string]any) error
	Update(ctx context.Context, r upstream.Resource, id string, body map[string]any) error
	Delete(ctx context.Context, r upstream.Resource, id string) error
	ExportPDF(ctx context.Context, r upstream.Resource) (io.ReadCloser, error)
}

var _ Backend = (*upstream.Client)(nil)

type Service struct {
	backend  Backend
	pageSize int
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewService(backend Backend, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = view.DefaultPageSize
	}
	return &Service{
		backend:    backend,
		pageSize:   pageSize,
		now:        time.Now,
		workspaces: map[string]*Workspace{},
	}
}

// Workspace holds the page state one session accumulates between requests.
type Workspace struct {
	budgets       *pageState[finance.Budget, finance.BudgetSummary]
	goals         *pageState[finance.Goal, finance.GoalStats]
	subscriptions *pageState[finance.Subscription, finance.SubscriptionStats]
	search        view.Latest[TransactionsView]
	chat          chat.Conversation
}

func (s *Service) newWorkspace() *Workspace {
	b := s.backend
	return &Workspace{
		budgets: newPageState("budgets", s.pageSize, b.Budgets, b.BudgetSummary),
		goals:   newPageState("goals", s.pageSize, b.Goals, b.GoalStats),
		subscriptions: newPageState("subscriptions", s.pageSize,
			func(ctx context.Context, page, size int) (finance.Page[finance.Subscription], error) {
				return b.Subscriptions(ctx, nil, page, size)
			},
			b.SubscriptionStats,
		),
	}
}

// Workspace returns the state of sessionID, creating it on first use.
func (s *Service) Workspace(sessionID string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[sessionID]
	if !ok {
		ws = s.newWorkspace()
		s.workspaces[sessionID] = ws
	}
	return ws
}

func (s *Service) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, sessionID)
}

func (s *Service) WorkspaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// OnAuthEvent drops a session's page state when it logs out. Pass it to auth.Manager.Subscribe.
func (s *Service) OnAuthEvent(e auth.Event) {
	if e.Kind != auth.EventLogout {
		return
	}
	s.Drop(e.Session.ID)
	logging.Logger.Debugf("dropped workspace of session %s", e.Session.ID)
}
