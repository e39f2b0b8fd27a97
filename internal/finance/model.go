package finance

import (
	"strings"

	"github.com/fatali-fataliyev/intelliwealth/internal/numeric"
)

const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"

	BudgetSafe    = "SAFE"
	BudgetWarning = "WARNING"
	BudgetDanger  = "DANGER"
)

// MODELS:

type Transaction struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Source      string  `json:"source,omitempty"`
	Date        string  `json:"date"`
}

type Budget struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Allocated    float64 `json:"amountAllocated"`
	Spent        float64 `json:"amountSpent"`
	Remaining    float64 `json:"remainingAmount"`
	UsagePercent float64 `json:"usagePercent"`
	Status       string  `json:"status"`
	Recurring    bool    `json:"recurring"`
	StartDate    string  `json:"startDate,omitempty"`
	EndDate      string  `json:"endDate,omitempty"`
	Note         string  `json:"note,omitempty"`
}

type Goal struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Target   float64 `json:"targetAmount"`
	Current  float64 `json:"currentAmount"`
	Progress int     `json:"progress"`
	Deadline string  `json:"deadline,omitempty"`
	Status   string  `json:"status,omitempty"`
}

type Subscription struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Amount          float64 `json:"amount"`
	BillingCycle    string  `json:"billingCycle"`
	NextPaymentDate string  `json:"nextPaymentDate,omitempty"`
	Category        string  `json:"category"`
	Active          bool    `json:"active"`
}

type Asset struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	MainCategory string         `json:"mainCategory"`
	Value        float64        `json:"currentValue"`
	DateAcquired string         `json:"dateAcquired,omitempty"`
	Attributes   map[string]any `json:"attributes"`
}

type Debt struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Total       float64        `json:"totalAmount"`
	Outstanding float64        `json:"outstandingAmount"`
	DueDate     string         `json:"dueDate,omitempty"`
	Attributes  map[string]any `json:"attributes"`
}

type InsurancePolicy struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Provider    string         `json:"provider"`
	Category    string         `json:"category"`
	Premium     float64        `json:"premiumAmount"`
	Coverage    float64        `json:"coverageAmount"`
	RenewalDate string         `json:"renewalDate,omitempty"`
	Attributes  map[string]any `json:"attributes"`
}

// SUMMARIES:

type TransactionSummary struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	NetSavings   float64 `json:"netSavings"`
	Balance      float64 `json:"balance"`
}

type BudgetSummary struct {
	TotalAllocated float64 `json:"totalAllocated"`
	TotalSpent     float64 `json:"totalSpent"`
	TotalRemaining float64 `json:"totalRemaining"`
}

type GoalStats struct {
	TotalGoals       int     `json:"totalGoals"`
	CompletedGoals   int     `json:"completedGoals"`
	TotalTargetValue float64 `json:"totalTargetValue"`
}

type SubscriptionStats struct {
	Daily     float64 `json:"daily"`
	Weekly    float64 `json:"weekly"`
	Monthly   float64 `json:"monthly"`
	Quarterly float64 `json:"quarterly"`
	Yearly    float64 `json:"yearly"`
}

type AssetTotal struct {
	TotalValue float64 `json:"totalValue"`
}

type DebtStats struct {
	TotalDebtAmount        float64 `json:"totalDebtAmount"`
	TotalOutstandingAmount float64 `json:"totalOutstandingAmount"`
}

type NetWorth struct {
	NetWorth float64 `json:"netWorth"`
}

const ContingencyNoData = "NO DATA"

type ContingencyHealth struct {
	TotalMonthlyBurn  float64 `json:"totalMonthlyBurn"`
	TotalLiquidAssets float64 `json:"totalLiquidAssets"`
	MonthsOfRunway    float64 `json:"monthsOfRunway"`
	RecommendedGap    float64 `json:"recommendedGap"`
	Status            string  `json:"status"`
}

// Page is one server page of a paginated list.
type Page[T any] struct {
	Content []T
	Last    bool
}

// NORMALISERS:

func TransactionFromRecord(r Record) Transaction {
	return Transaction{
		ID:          r.Str("id"),
		Type:        strings.ToUpper(r.Str("type")),
		Description: r.Str("description", "title"),
		Amount:      r.Num("amount"),
		Category:    r.Str("category"),
		Source:      r.Str("source"),
		Date:        r.Str("transactionDate", "date"),
	}
}

// BudgetFromRecord passes the server-computed remaining amount and status through.
// Remaining is only derived when the backend omits it.
func BudgetFromRecord(r Record) Budget {
	b := Budget{
		ID:        r.Str("id"),
		Title:     r.Str("title", "name"),
		Category:  r.Str("category"),
		Allocated: r.Num("amountAllocated"),
		Spent:     r.Num("amountSpent"),
		Status:    strings.ToUpper(r.Str("status")),
		Recurring: r.Bool("recurring", "isRecurring"),
		StartDate: r.Str("startDate"),
		EndDate:   r.Str("endDate"),
		Note:      r.Str("note"),
	}
	if r.Has("remainingAmount") {
		b.Remaining = r.Num("remainingAmount")
	} else {
		b.Remaining = numeric.Sub(b.Allocated, b.Spent)
	}
	b.UsagePercent = numeric.UsagePercent(b.Spent, b.Allocated)
	return b
}

func GoalFromRecord(r Record) Goal {
	g := Goal{
		ID:       r.Str("id"),
		Name:     r.Str("name", "title"),
		Target:   r.Num("targetAmount"),
		Current:  r.Num("currentAmount", "savedAmount"),
		Deadline: r.Str("deadline", "targetDate"),
		Status:   strings.ToUpper(r.Str("status")),
	}
	g.Progress = numeric.Progress(g.Current, g.Target)
	return g
}

func SubscriptionFromRecord(r Record) Subscription {
	return Subscription{
		ID:              r.Str("id"),
		Title:           r.Str("title", "name"),
		Amount:          r.Num("amount"),
		BillingCycle:    strings.ToUpper(r.Str("billingCycle")),
		NextPaymentDate: r.Str("nextPaymentDate"),
		Category:        r.Str("category"),
		Active:          r.Bool("active", "isActive"),
	}
}

func AssetFromRecord(r Record) Asset {
	category := strings.ToUpper(r.Str("category"))
	return Asset{
		ID:           r.Str("id"),
		Name:         r.Str("name"),
		Category:     category,
		MainCategory: MainCategory(category),
		Value:        r.Num("value", "currentValue", "amount"),
		DateAcquired: r.Str("dateAcquired", "purchaseDate"),
		Attributes:   attributes(r),
	}
}

func DebtFromRecord(r Record) Debt {
	return Debt{
		ID:          r.Str("id"),
		Name:        r.Str("name"),
		Category:    strings.ToUpper(r.Str("category")),
		Total:       r.Num("totalAmount", "principalAmount"),
		Outstanding: r.Num("outstandingAmount", "amount", "value"),
		DueDate:     r.Str("dueDate"),
		Attributes:  attributes(r),
	}
}

func InsurancePolicyFromRecord(r Record) InsurancePolicy {
	return InsurancePolicy{
		ID:          r.Str("id"),
		Name:        r.Str("name", "policyName"),
		Provider:    r.Str("provider"),
		Category:    strings.ToUpper(r.Str("category")),
		Premium:     r.Num("premiumAmount"),
		Coverage:    r.Num("coverageAmount"),
		RenewalDate: r.Str("renewalDate"),
		Attributes:  attributes(r),
	}
}

func attributes(r Record) map[string]any {
	if m := r.Map("attributes"); m != nil {
		return m
	}
	return map[string]any{}
}

// TransactionSummaryFrom accepts the summary object or a bare number (the net balance).
func TransactionSummaryFrom(v any) TransactionSummary {
	if _, ok := v.(map[string]any); !ok && v != nil {
		n := numeric.Coerce(v)
		return TransactionSummary{NetSavings: n, Balance: n}
	}
	r := Object(v)
	s := TransactionSummary{
		TotalIncome:  r.Num("totalIncome"),
		TotalExpense: r.Num("totalExpense"),
		NetSavings:   r.Num("netSavings", "balance"),
		Balance:      r.Num("balance", "netSavings"),
	}
	return s
}

func BudgetSummaryFrom(v any) BudgetSummary {
	r := Object(v)
	return BudgetSummary{
		TotalAllocated: r.Num("totalAllocated", "totalAmountAllocated"),
		TotalSpent:     r.Num("totalSpent", "totalAmountSpent"),
		TotalRemaining: r.Num("totalRemaining", "totalRemainingAmount"),
	}
}

func GoalStatsFrom(v any) GoalStats {
	r := Object(v)
	return GoalStats{
		TotalGoals:       int(r.Num("totalGoals")),
		CompletedGoals:   int(r.Num("completedGoals")),
		TotalTargetValue: r.Num("totalTargetValue"),
	}
}

func SubscriptionStatsFrom(v any) SubscriptionStats {
	r := Object(v)
	return SubscriptionStats{
		Daily:     r.Num("daily"),
		Weekly:    r.Num("weekly"),
		Monthly:   r.Num("monthly"),
		Quarterly: r.Num("quarterly"),
		Yearly:    r.Num("yearly"),
	}
}

func AssetTotalFrom(v any) AssetTotal {
	r := Object(v)
	return AssetTotal{TotalValue: r.Num("totalValue", "value")}
}

func DebtStatsFrom(v any) DebtStats {
	r := Object(v)
	return DebtStats{
		TotalDebtAmount:        r.Num("totalDebtAmount"),
		TotalOutstandingAmount: r.Num("totalOutstandingAmount"),
	}
}

func NetWorthFrom(v any) NetWorth {
	r := Object(v)
	return NetWorth{NetWorth: r.Num("netWorth", "value")}
}

func ContingencyHealthFrom(v any) ContingencyHealth {
	r := Object(v)
	h := ContingencyHealth{
		TotalMonthlyBurn:  r.Num("totalMonthlyBurn"),
		TotalLiquidAssets: r.Num("totalLiquidAssets"),
		MonthsOfRunway:    r.Num("monthsOfRunway"),
		RecommendedGap:    r.Num("recommendedGap"),
		Status:            r.Str("status"),
	}
	if h.Status == "" {
		h.Status = ContingencyNoData
	}
	return h
}

// MapRecords applies a normaliser to every record of a list response.
func MapRecords[T any](v any, fn func(Record) T) (Page[T], error) {
	records, last, err := Records(v)
	if err != nil {
		return Page[T]{}, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, fn(r))
	}
	return Page[T]{Content: out, Last: last}, nil
}
