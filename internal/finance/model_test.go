package finance

import (
	"strings"
	"testing"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	v, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	return v
}

func TestBudgetPageScenario(t *testing.T) {
	v := decode(t, `{"content":[{"id":1,"amountAllocated":1000,"amountSpent":400,"status":"SAFE"}],"last":true}`)

	page, err := MapRecords(v, BudgetFromRecord)
	require.NoError(t, err)
	require.True(t, page.Last)
	require.Len(t, page.Content, 1)

	b := page.Content[0]
	require.Equal(t, "1", b.ID)
	require.Equal(t, 600.0, b.Remaining)
	require.Equal(t, BudgetSafe, b.Status)
	require.Equal(t, 40.0, b.UsagePercent)
}

func TestBudgetRemainingPassThrough(t *testing.T) {
	b := BudgetFromRecord(Record(decode(t, `{"amountAllocated":1000,"amountSpent":400,"remainingAmount":550}`).(map[string]any)))
	require.Equal(t, 550.0, b.Remaining)
}

func TestRecordsShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLen  int
		wantLast bool
		wantErr  bool
	}{
		{name: "bare array", body: `[{"id":1},{"id":2}]`, wantLen: 2, wantLast: true},
		{name: "page not last", body: `{"content":[{"id":1}],"last":false}`, wantLen: 1, wantLast: false},
		{name: "page without last flag", body: `{"content":[]}`, wantLen: 0, wantLast: true},
		{name: "null content", body: `{"content":null}`, wantLen: 0, wantLast: true},
		{name: "null body", body: `null`, wantLen: 0, wantLast: true},
		{name: "non object items skipped", body: `[1,"x",{"id":3}]`, wantLen: 1, wantLast: true},
		{name: "object without content", body: `{"items":[]}`, wantErr: true},
		{name: "scalar", body: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, last, err := Records(decode(t, tt.body))
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, appErrors.IsCode(err, appErrors.ErrMalformed))
				return
			}
			require.NoError(t, err)
			require.Len(t, records, tt.wantLen)
			require.Equal(t, tt.wantLast, last)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"content":`))
	require.Error(t, err)
	require.True(t, appErrors.IsCode(err, appErrors.ErrMalformed))
}

func TestFallbackReads(t *testing.T) {
	asset := AssetFromRecord(Record(decode(t, `{"id":"a1","name":"Flat","category":"real_estate","value":null,"currentValue":"5000"}`).(map[string]any)))
	require.Equal(t, 5000.0, asset.Value)
	require.Equal(t, "REAL_ESTATE", asset.Category)
	require.Equal(t, MainPhysical, asset.MainCategory)
	require.NotNil(t, asset.Attributes)

	debt := DebtFromRecord(Record(decode(t, `{"id":7,"amount":1200}`).(map[string]any)))
	require.Equal(t, 1200.0, debt.Outstanding)
	require.Equal(t, "7", debt.ID)

	goal := GoalFromRecord(Record(decode(t, `{"title":"Car","targetAmount":0,"currentAmount":300}`).(map[string]any)))
	require.Equal(t, "Car", goal.Name)
	require.Equal(t, 0, goal.Progress)

	sub := SubscriptionFromRecord(Record(decode(t, `{"title":"Netflix","amount":"649","isActive":"true"}`).(map[string]any)))
	require.True(t, sub.Active)
	require.Equal(t, 649.0, sub.Amount)

	tx := TransactionFromRecord(Record(decode(t, `{"type":"income","amount":"abc","transactionDate":"2026-01-02"}`).(map[string]any)))
	require.Equal(t, TypeIncome, tx.Type)
	require.Equal(t, 0.0, tx.Amount)
	require.Equal(t, "2026-01-02", tx.Date)
}

func TestSummaryShapes(t *testing.T) {
	require.Equal(t, 1000.0, NetWorthFrom(decode(t, `1000`)).NetWorth)
	require.Equal(t, 2500.0, NetWorthFrom(decode(t, `{"netWorth":2500}`)).NetWorth)
	require.Equal(t, 0.0, NetWorthFrom(nil).NetWorth)
	require.Equal(t, 900.0, AssetTotalFrom(decode(t, `{"totalValue":900}`)).TotalValue)
	require.Equal(t, 77.0, TransactionSummaryFrom(decode(t, `77`)).Balance)
	require.Equal(t, 50.0, TransactionSummaryFrom(decode(t, `{"totalIncome":100,"totalExpense":50,"netSavings":50}`)).Balance)

	health := ContingencyHealthFrom(decode(t, `{"monthsOfRunway":4}`))
	require.Equal(t, ContingencyNoData, health.Status)
	require.Equal(t, 4.0, health.MonthsOfRunway)

	stats := GoalStatsFrom(decode(t, `{"totalGoals":"3","completedGoals":1}`))
	require.Equal(t, GoalStats{TotalGoals: 3, CompletedGoals: 1}, stats)
}

func TestFieldsAndPrune(t *testing.T) {
	fields, ok := FieldsFor(KindAsset, "cash")
	require.True(t, ok)
	require.Len(t, fields, 2)

	fields, ok = FieldsFor(KindDebt, "UNKNOWN")
	require.True(t, ok)
	require.Empty(t, fields)

	_, ok = FieldsFor("pets", "DOG")
	require.False(t, ok)

	pruned := PruneAttributes(KindInsurance, "HOME", map[string]any{
		"propertyAddress": "12 Street",
		"nominee":         "left over from LIFE",
	})
	require.Equal(t, map[string]any{"propertyAddress": "12 Street"}, pruned)
	require.Equal(t, map[string]any{}, PruneAttributes(KindAsset, "CASH", nil))

	require.Equal(t, MainFinancial, MainCategory("EQUITY"))
	require.Equal(t, MainPhysical, MainCategory("gold"))
	require.Len(t, Categories(KindInsurance), 5)
}

func TestMatches(t *testing.T) {
	require.True(t, Subscription{Title: "Netflix", Category: "Entertainment"}.Matches("ENTER"))
	require.False(t, Goal{Name: "House"}.Matches("car"))
	require.True(t, Budget{Title: "Groceries"}.Matches("gro"))
}
