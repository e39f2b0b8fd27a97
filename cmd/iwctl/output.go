package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatali-fataliyev/intelliwealth/internal/chat"
	"github.com/fatali-fataliyev/intelliwealth/internal/dashboard"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/internal/view"
	"github.com/shopspring/decimal"
)

type (
	budgetPage       = dashboard.ListPage[finance.Budget, finance.BudgetSummary]
	goalPage         = dashboard.ListPage[finance.Goal, finance.GoalStats]
	subscriptionPage = dashboard.ListPage[finance.Subscription, finance.SubscriptionStats]
)

// print writes v as indented JSON with -json, otherwise the text rendering.
func (c *cli) print(v any, text func(w io.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func writeNotices(w io.Writer, notices []view.Notice, notes []view.Notification) {
	for _, n := range notices {
		fmt.Fprintf(w, "! %s unavailable: %s\n", n.Source, n.Message)
	}
	for _, n := range notes {
		fmt.Fprintf(w, "! %s\n", n.Message)
	}
}

func writeDashboard(w io.Writer, d dashboard.DashboardView) {
	fmt.Fprintf(w, "Net worth\t%s\t(%s)\n", money(d.NetWorth), d.NetWorthSource)
	fmt.Fprintf(w, "Gross assets\t%s\n", money(d.GrossAssets))
	fmt.Fprintf(w, "Total debt\t%s\n", money(d.TotalDebt))
	fmt.Fprintf(w, "Cash flow\t%s\tincome %s, expense %s\n", money(d.NetAmount), money(d.Income), money(d.Expense))
	fmt.Fprintf(w, "Subscriptions\t%d active\t%s\n", d.ActiveSubscriptions, money(d.SubscriptionCost))
	fmt.Fprintf(w, "Goals\t%d/%d completed\n", d.GoalsCompleted, d.GoalsTotal)

	if len(d.RecentTransactions) > 0 {
		fmt.Fprintln(w, "\nRecent transactions")
		for _, t := range d.RecentTransactions {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.Date, t.Type, t.Description, money(t.Amount))
		}
	}
	if len(d.Goals) > 0 {
		fmt.Fprintln(w, "\nGoals")
		for _, g := range d.Goals {
			fmt.Fprintf(w, "  %s\t%d%%\n", g.Name, g.Progress)
		}
	}
	writeNotices(w, d.Notices, nil)
}

func writeNetWorth(w io.Writer, v dashboard.NetWorthView) {
	fmt.Fprintf(w, "Net worth\t%s\t(%s)\n", money(v.NetWorth), v.NetWorthSource)
	fmt.Fprintf(w, "Assets\t%s\t%d%%\n", money(v.TotalAssets), v.AssetPercent)
	fmt.Fprintf(w, "Debts\t%s\t%d%%\n", money(v.TotalDebt), v.DebtPercent)
	for _, a := range v.TopAssets {
		fmt.Fprintf(w, "  + %s\t%s\t%s\n", a.Name, a.Category, money(a.Value))
	}
	for _, d := range v.TopDebts {
		fmt.Fprintf(w, "  - %s\t%s\t%s\n", d.Name, d.Category, money(d.Outstanding))
	}
	writeNotices(w, v.Notices, nil)
}

func writeContingency(w io.Writer, v dashboard.ContingencyView) {
	fmt.Fprintf(w, "Status\t%s\n", v.StatusLabel)
	fmt.Fprintf(w, "Health score\t%d\t%s\n", v.Score, v.Band)
	fmt.Fprintf(w, "Runway\t%.1f months\n", v.MonthsOfRunway)
	fmt.Fprintf(w, "Monthly burn\t%s\n", money(v.TotalMonthlyBurn))
	fmt.Fprintf(w, "Liquid assets\t%s\n", money(v.TotalLiquidAssets))
	fmt.Fprintf(w, "Recommended gap\t%s\n", money(v.RecommendedGap))
	writeNotices(w, v.Notices, nil)
}

func writeTransactions(w io.Writer, v dashboard.TransactionsView) {
	for _, t := range v.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Type, t.Description, money(t.Amount))
	}
	fmt.Fprintf(w, "\nIncome\t%s\n", money(v.Income))
	fmt.Fprintf(w, "Expense\t%s\n", money(v.Expense))
}

func writeMore(w io.Writer, page int, hasMore bool) {
	if hasMore {
		fmt.Fprintf(w, "\n(more after page %d, use -pages %d)\n", page+1, page+2)
	}
}

func writeBudgets(w io.Writer, p budgetPage) {
	for _, b := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s / %s\t%s\n", b.ID, b.Title, b.Category, money(b.Spent), money(b.Allocated), b.Status)
	}
	fmt.Fprintf(w, "\nAllocated\t%s\n", money(p.Stats.TotalAllocated))
	fmt.Fprintf(w, "Spent\t%s\n", money(p.Stats.TotalSpent))
	fmt.Fprintf(w, "Remaining\t%s\n", money(p.Stats.TotalRemaining))
	writeMore(w, p.Page, p.CanLoadMore)
	writeNotices(w, p.Notices, p.Notifications)
}

func writeGoals(w io.Writer, p goalPage) {
	for _, g := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%s / %s\t%d%%\n", g.ID, g.Name, money(g.Current), money(g.Target), g.Progress)
	}
	fmt.Fprintf(w, "\n%d of %d goals completed\n", p.Stats.CompletedGoals, p.Stats.TotalGoals)
	writeMore(w, p.Page, p.CanLoadMore)
	writeNotices(w, p.Notices, p.Notifications)
}

func writeSubscriptions(w io.Writer, p subscriptionPage) {
	for _, s := range p.Items {
		state := "paused"
		if s.Active {
			state = "active"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Title, money(s.Amount), s.BillingCycle, state)
	}
	fmt.Fprintf(w, "\nMonthly\t%s\n", money(p.Stats.Monthly))
	fmt.Fprintf(w, "Yearly\t%s\n", money(p.Stats.Yearly))
	writeMore(w, p.Page, p.CanLoadMore)
	writeNotices(w, p.Notices, p.Notifications)
}

func writeAssets(w io.Writer, v dashboard.AssetsView) {
	for _, a := range v.Assets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Category, money(a.Value))
	}
	fmt.Fprintf(w, "\nTotal\t%s\n", money(v.TotalValue))
	fmt.Fprintf(w, "Physical\t%s\n", money(v.PhysicalValue))
	fmt.Fprintf(w, "Financial\t%s\n", money(v.FinancialValue))
}

func writeDebts(w io.Writer, v dashboard.DebtsView) {
	for _, d := range v.Debts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s / %s\n", d.ID, d.Name, d.Category, money(d.Outstanding), money(d.Total))
	}
	fmt.Fprintf(w, "\nOutstanding\t%s\n", money(v.Stats.TotalOutstandingAmount))
	fmt.Fprintf(w, "Total\t%s\n", money(v.Stats.TotalDebtAmount))
}

func writeInsurance(w io.Writer, v dashboard.InsuranceView) {
	for _, p := range v.Policies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\tcover %s\tpremium %s\n", p.ID, p.Name, p.Provider, p.Category, money(p.Coverage), money(p.Premium))
	}
	fmt.Fprintf(w, "\nActive\t%d\n", len(v.Active))
	fmt.Fprintf(w, "Expiring\t%d\n", len(v.Expiring))
	fmt.Fprintf(w, "Coverage\t%s\n", money(v.TotalCoverage))
	fmt.Fprintf(w, "Premiums\t%s\n", money(v.TotalPremium))
}

func writeChat(w io.Writer, v dashboard.ChatView) {
	fmt.Fprintln(w, v.Reply.Content)
	if v.ConversationID != "" {
		fmt.Fprintf(w, "\n(conversation %s, continue with -c %s)\n", v.ConversationID, v.ConversationID)
	}
	writeNotices(w, nil, v.Notifications)
}

func writeHistory(w io.Writer, sessions []chat.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No conversations yet")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\n", s.ConversationID, s.Title)
	}
}
