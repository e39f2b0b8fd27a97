package dashboard

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/internal/numeric"
	"github.com/fatali-fataliyev/intelliwealth/internal/view"
)

const (
	SourceServer  = "server"
	SourceDerived = "derived"

	BandHealthy  = "HEALTHY"
	BandModerate = "MODERATE"
	BandCritical = "CRITICAL"

	RECENT_TRANSACTIONS = 5
	RECENT_GOALS        = 3
	RECENT_ASSETS       = 4
	RECENT_DEBTS        = 4
	TOP_HOLDINGS        = 3
)

// --- DASHBOARD --- //

type DashboardView struct {
	NetWorth       float64 `json:"netWorth"`
	NetWorthSource string  `json:"netWorthSource"`
	GrossAssets    float64 `json:"grossAssets"`
	TotalDebt      float64 `json:"totalDebt"`
	NetAmount      float64 `json:"netAmount"`
	Income         float64 `json:"income"`
	Expense        float64 `json:"expense"`

	ActiveSubscriptions int     `json:"activeSubscriptions"`
	SubscriptionCost    float64 `json:"subscriptionCost"`
	GoalsCompleted      int     `json:"goalsCompleted"`
	GoalsTotal          int     `json:"goalsTotal"`

	RecentTransactions []finance.Transaction `json:"recentTransactions"`
	Goals              []finance.Goal        `json:"goals"`
	Assets             []finance.Asset       `json:"assets"`
	Debts              []finance.Debt        `json:"debts"`

	Notices []view.Notice `json:"notices"`
}

// Dashboard loads every block of the home page at once. Any single failure only empties or
// zeroes its own block; net worth and the cash figure are derived from the lists when their
// endpoint fails.
func (s *Service) Dashboard(ctx context.Context) DashboardView {
	b := s.backend
	nw := view.Summary("networth", b.NetWorth)
	summary := view.Summary("transaction-summary", b.TransactionSummary)
	goalStats := view.Summary("goal-stats", b.GoalStats)
	txns := view.List("transactions", func(ctx context.Context) ([]finance.Transaction, error) {
		return b.Transactions(ctx, "")
	})
	goals := view.List("goals", func(ctx context.Context) ([]finance.Goal, error) {
		page, err := b.Goals(ctx, 0, s.pageSize)
		return page.Content, err
	})
	subs := view.List("subscriptions", func(ctx context.Context) ([]finance.Subscription, error) {
		page, err := b.Subscriptions(ctx, nil, 0, s.pageSize)
		return page.Content, err
	})
	assets := view.List("assets", b.Assets)
	debts := view.List("debts", b.Debts)

	report := view.Settle(ctx, nw, summary, goalStats, txns, goals, subs, assets, debts)

	d := DashboardView{Notices: report.Notices()}
	d.TotalDebt = numeric.SumBy(debts.Value(), func(x finance.Debt) float64 { return x.Outstanding })
	assetsTotal := numeric.SumBy(assets.Value(), func(x finance.Asset) float64 { return x.Value })

	if nw.OK() {
		d.NetWorth, d.NetWorthSource = nw.Value().NetWorth, SourceServer
	} else {
		d.NetWorth, d.NetWorthSource = numeric.Sub(assetsTotal, d.TotalDebt), SourceDerived
	}

	d.GrossAssets = assetsTotal
	if assetsTotal == 0 && d.NetWorth != 0 {
		d.GrossAssets = numeric.Sum(d.NetWorth, d.TotalDebt)
	}

	d.Income, d.Expense = incomeExpense(txns.Value())
	d.NetAmount = summary.Value().Balance
	if d.NetAmount == 0 && len(txns.Value()) > 0 {
		d.NetAmount = numeric.Sub(d.Income, d.Expense)
	}

	for _, sub := range subs.Value() {
		if sub.Active {
			d.ActiveSubscriptions++
			d.SubscriptionCost = numeric.Sum(d.SubscriptionCost, sub.Amount)
		}
	}

	d.GoalsCompleted = goalStats.Value().CompletedGoals
	d.GoalsTotal = goalStats.Value().TotalGoals
	if d.GoalsTotal == 0 {
		d.GoalsTotal = len(goals.Value())
	}

	d.RecentTransactions = head(txns.Value(), RECENT_TRANSACTIONS)
	d.Goals = head(goals.Value(), RECENT_GOALS)
	d.Assets = head(assets.Value(), RECENT_ASSETS)
	d.Debts = head(debts.Value(), RECENT_DEBTS)
	return d
}

func incomeExpense(txns []finance.Transaction) (income, expense float64) {
	for _, t := range txns {
		switch t.Type {
		case finance.TypeIncome:
			income = numeric.Sum(income, t.Amount)
		case finance.TypeExpense:
			expense = numeric.Sum(expense, t.Amount)
		}
	}
	return income, expense
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// --- TRANSACTIONS --- //

type TransactionsView struct {
	Keyword      string                     `json:"keyword,omitempty"`
	Transactions []finance.Transaction      `json:"transactions"`
	Summary      finance.TransactionSummary `json:"summary"`
	Income       float64                    `json:"income"`
	Expense      float64                    `json:"expense"`
	// Superseded is set when a newer search of the same session replaced this one.
	Superseded bool `json:"superseded,omitempty"`
}

// Transactions runs a keyword search. Within one session only the latest search is kept:
// an older one still in flight is cancelled and reports Superseded.
func (s *Service) Transactions(ctx context.Context, sessionID, keyword string) (TransactionsView, error) {
	ws := s.Workspace(sessionID)
	keyword = strings.TrimSpace(keyword)

	v, fresh, err := ws.search.Do(ctx, func(ctx context.Context) (TransactionsView, error) {
		list := view.List("transactions", func(ctx context.Context) ([]finance.Transaction, error) {
			return s.backend.Transactions(ctx, keyword)
		})
		summary := view.Summary("transaction-summary", s.backend.TransactionSummary)
		if err := view.All(ctx, list, summary); err != nil {
			return TransactionsView{}, err
		}
		out := TransactionsView{
			Keyword:      keyword,
			Transactions: list.Value(),
			Summary:      summary.Value(),
		}
		out.Income, out.Expense = incomeExpense(out.Transactions)
		return out, nil
	})
	if !fresh {
		latest, _ := ws.search.Value()
		latest.Superseded = true
		if latest.Transactions == nil {
			latest.Transactions = []finance.Transaction{}
		}
		return latest, nil
	}
	if err != nil {
		return TransactionsView{Keyword: keyword, Transactions: []finance.Transaction{}}, err
	}
	return v, nil
}

// --- ASSETS & DEBTS --- //

type AssetsView struct {
	Assets         []finance.Asset            `json:"assets"`
	TotalValue     float64                    `json:"totalValue"`
	PhysicalValue  float64                    `json:"physicalValue"`
	FinancialValue float64                    `json:"financialValue"`
	Fields         map[string][]finance.Field `json:"fields"`
}

func (s *Service) Assets(ctx context.Context) (AssetsView, error) {
	list := view.List("assets", s.backend.Assets)
	total := view.Summary("asset-total", s.backend.AssetTotal)
	if err := view.All(ctx, list, total); err != nil {
		return AssetsView{Assets: []finance.Asset{}, Fields: formTable(finance.KindAsset)}, err
	}
	v := AssetsView{
		Assets:     list.Value(),
		TotalValue: total.Value().TotalValue,
		Fields:     formTable(finance.KindAsset),
	}
	for _, a := range v.Assets {
		if a.MainCategory == finance.MainPhysical {
			v.PhysicalValue = numeric.Sum(v.PhysicalValue, a.Value)
		} else {
			v.FinancialValue = numeric.Sum(v.FinancialValue, a.Value)
		}
	}
	return v, nil
}

type DebtsView struct {
	Debts  []finance.Debt             `json:"debts"`
	Stats  finance.DebtStats          `json:"stats"`
	Fields map[string][]finance.Field `json:"fields"`
}

func (s *Service) Debts(ctx context.Context) (DebtsView, error) {
	list := view.List("debts", s.backend.Debts)
	stats := view.Summary("debt-stats", s.backend.DebtStats)
	if err := view.All(ctx, list, stats); err != nil {
		return DebtsView{Debts: []finance.Debt{}, Fields: formTable(finance.KindDebt)}, err
	}
	return DebtsView{Debts: list.Value(), Stats: stats.Value(), Fields: formTable(finance.KindDebt)}, nil
}

// formTable maps every category of kind to its extra form fields.
func formTable(kind string) map[string][]finance.Field {
	table := map[string][]finance.Field{}
	for _, category := range finance.Categories(kind) {
		fields, _ := finance.FieldsFor(kind, category)
		table[category] = fields
	}
	return table
}

// --- NET WORTH --- //

type NetWorthView struct {
	NetWorth       float64         `json:"netWorth"`
	NetWorthSource string          `json:"netWorthSource"`
	TotalAssets    float64         `json:"totalAssets"`
	TotalDebt      float64         `json:"totalDebt"`
	AssetPercent   int             `json:"assetPercent"`
	DebtPercent    int             `json:"debtPercent"`
	TopAssets      []finance.Asset `json:"topAssets"`
	TopDebts       []finance.Debt  `json:"topDebts"`
	Notices        []view.Notice   `json:"notices"`
}

// NetWorth never fails as a whole. Missing totals are derived from the lists and a missing
// net worth from the totals.
func (s *Service) NetWorth(ctx context.Context) NetWorthView {
	b := s.backend
	nw := view.Summary("networth", b.NetWorth)
	assetTotal := view.Summary("asset-total", b.AssetTotal)
	debtStats := view.Summary("debt-stats", b.DebtStats)
	assets := view.List("assets", b.Assets)
	debts := view.List("debts", b.Debts)
	report := view.Settle(ctx, nw, assetTotal, debtStats, assets, debts)

	v := NetWorthView{Notices: report.Notices()}
	if assetTotal.OK() {
		v.TotalAssets = assetTotal.Value().TotalValue
	} else {
		v.TotalAssets = numeric.SumBy(assets.Value(), func(a finance.Asset) float64 { return a.Value })
	}
	if debtStats.OK() {
		v.TotalDebt = debtStats.Value().TotalOutstandingAmount
	} else {
		v.TotalDebt = numeric.SumBy(debts.Value(), func(d finance.Debt) float64 { return d.Outstanding })
	}
	if nw.OK() {
		v.NetWorth, v.NetWorthSource = nw.Value().NetWorth, SourceServer
	} else {
		v.NetWorth, v.NetWorthSource = numeric.Sub(v.TotalAssets, v.TotalDebt), SourceDerived
	}

	whole := numeric.Sum(v.TotalAssets, v.TotalDebt)
	v.AssetPercent = percentOf(v.TotalAssets, whole)
	v.DebtPercent = percentOf(v.TotalDebt, whole)

	topAssets := append([]finance.Asset(nil), assets.Value()...)
	sort.SliceStable(topAssets, func(i, j int) bool { return topAssets[i].Value > topAssets[j].Value })
	v.TopAssets = head(topAssets, TOP_HOLDINGS)

	topDebts := append([]finance.Debt(nil), debts.Value()...)
	sort.SliceStable(topDebts, func(i, j int) bool { return topDebts[i].Outstanding > topDebts[j].Outstanding })
	v.TopDebts = head(topDebts, TOP_HOLDINGS)
	return v
}

func percentOf(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}

// --- INSURANCE --- //

type InsuranceView struct {
	Policies      []finance.InsurancePolicy `json:"policies"`
	Active        []finance.InsurancePolicy `json:"active"`
	Expiring      []finance.InsurancePolicy `json:"expiring"`
	Category      string                    `json:"category,omitempty"`
	TotalCoverage float64                   `json:"totalCoverage"`
	TotalPremium  float64                   `json:"totalPremium"`
}

// Insurance loads all, active and expiring policies together. With a category the policy
// list is narrowed by the backend.
func (s *Service) Insurance(ctx context.Context, category string) (InsuranceView, error) {
	b := s.backend
	category = strings.ToUpper(strings.TrimSpace(category))
	all := view.List("insurance", func(ctx context.Context) ([]finance.InsurancePolicy, error) {
		if category != "" {
			return b.PoliciesByCategory(ctx, category)
		}
		return b.Policies(ctx)
	})
	active := view.List("insurance-active", b.ActivePolicies)
	expiring := view.List("insurance-expiring", b.ExpiringPolicies)

	empty := []finance.InsurancePolicy{}
	if err := view.All(ctx, all, active, expiring); err != nil {
		return InsuranceView{Policies: empty, Active: empty, Expiring: empty, Category: category}, err
	}
	v := InsuranceView{
		Policies: all.Value(),
		Active:   active.Value(),
		Expiring: expiring.Value(),
		Category: category,
	}
	v.TotalCoverage = numeric.SumBy(v.Policies, func(p finance.InsurancePolicy) float64 { return p.Coverage })
	v.TotalPremium = numeric.SumBy(v.Policies, func(p finance.InsurancePolicy) float64 { return p.Premium })
	return v, nil
}

// --- CONTINGENCY --- //

type ContingencyView struct {
	finance.ContingencyHealth
	Score       int           `json:"score"`
	Band        string        `json:"band"`
	StatusLabel string        `json:"statusLabel"`
	Notices     []view.Notice `json:"notices"`
}

func (s *Service) Contingency(ctx context.Context) ContingencyView {
	health := view.Summary("contingency", s.backend.ContingencyHealth)
	report := view.Settle(ctx, health)

	h := health.Value()
	if h.Status == "" {
		h.Status = finance.ContingencyNoData
	}
	return ContingencyView{
		ContingencyHealth: h,
		Score:             numeric.HealthScore(h.MonthsOfRunway),
		Band:              Band(h.MonthsOfRunway),
		StatusLabel:       strings.Replace(h.Status, "_", " ", 1),
		Notices:           report.Notices(),
	}
}

// Band grades runway months: six or more is healthy, three or more moderate.
func Band(months float64) string {
	switch {
	case months >= 6:
		return BandHealthy
	case months >= 3:
		return BandModerate
	default:
		return BandCritical
	}
}
