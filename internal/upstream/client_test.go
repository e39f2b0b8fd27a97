package upstream_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream/upstreamtest"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*upstream.Client, *upstreamtest.Backend) {
	t.Helper()
	backend := upstreamtest.New(t)
	backend.Seed()
	return upstream.New(backend.URL()+"/", upstream.WithTimeout(2*time.Second)), backend
}

func TestClientAttachesTokenAndTrace(t *testing.T) {
	client, backend := newClient(t)
	ctx := contextutil.WithToken(context.Background(), "upstream-token")
	ctx = contextutil.WithTraceID(ctx, "trace-1")

	_, err := client.NetWorth(ctx)
	require.NoError(t, err)

	req, ok := backend.Last(http.MethodGet, "/networth")
	require.True(t, ok)
	require.Equal(t, "Bearer upstream-token", req.Header.Get("Authorization"))
	require.Equal(t, "trace-1", req.Header.Get(upstream.HeaderRequestID))
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestClientWithoutTokenSendsNoAuthorization(t *testing.T) {
	client, backend := newClient(t)

	_, err := client.NetWorth(context.Background())
	require.NoError(t, err)

	req, _ := backend.Last(http.MethodGet, "/networth")
	require.Empty(t, req.Header.Get("Authorization"))
	require.NotEmpty(t, req.Header.Get(upstream.HeaderRequestID))
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, appErrors.ErrAuth},
		{"forbidden", http.StatusForbidden, appErrors.ErrAccessDenied},
		{"not found", http.StatusNotFound, appErrors.ErrNotFound},
		{"validation", http.StatusUnprocessableEntity, appErrors.ErrInvalidInput},
		{"server", http.StatusInternalServerError, appErrors.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, backend := newClient(t)
			backend.Fail(http.MethodGet, "/debts/stats", tt.status, "backend says no")

			_, err := client.DebtStats(context.Background())
			require.Error(t, err)
			require.True(t, appErrors.IsCode(err, tt.code))
			require.Equal(t, "backend says no", appErrors.MessageOf(err))
		})
	}
}

func TestClientTransportError(t *testing.T) {
	backend := upstreamtest.New(t)
	client := upstream.New(backend.URL())
	backend.Server.Close()

	_, err := client.Assets(context.Background())
	require.Error(t, err)
	require.True(t, appErrors.IsCode(err, appErrors.ErrTransport))
}

func TestClientMalformedBody(t *testing.T) {
	client, backend := newClient(t)
	backend.Handle(http.MethodGet, "/assets", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [`))
	})

	_, err := client.Assets(context.Background())
	require.True(t, appErrors.IsCode(err, appErrors.ErrMalformed))
}

func TestClientPagination(t *testing.T) {
	client, backend := newClient(t)
	ctx := context.Background()

	first, err := client.Budgets(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first.Content, 2)
	require.False(t, first.Last)
	require.Equal(t, 600.0, first.Content[0].Remaining)
	require.Equal(t, "SAFE", first.Content[0].Status)

	second, err := client.Budgets(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, second.Last)
	require.Equal(t, -100.0, second.Content[0].Remaining)

	req, _ := backend.Last(http.MethodGet, "/budget")
	require.Equal(t, "1", req.Query.Get("page"))
	require.Equal(t, "2", req.Query.Get("size"))
}

func TestClientSubscriptionsActiveFilter(t *testing.T) {
	client, backend := newClient(t)
	active := true

	_, err := client.Subscriptions(context.Background(), &active, 0, 12)
	require.NoError(t, err)
	req, _ := backend.Last(http.MethodGet, "/subscriptions")
	require.Equal(t, "true", req.Query.Get("active"))

	_, err = client.Subscriptions(context.Background(), nil, 0, 12)
	require.NoError(t, err)
	req, _ = backend.Last(http.MethodGet, "/subscriptions")
	require.False(t, req.Query.Has("active"))
}

func TestClientBareArrayIsLastPage(t *testing.T) {
	client, backend := newClient(t)
	backend.JSON(http.MethodGet, "/goal", http.StatusOK, []map[string]any{{"id": 9, "name": "Bike", "targetAmount": 100}})

	page, err := client.Goals(context.Background(), 0, 12)
	require.NoError(t, err)
	require.True(t, page.Last)
	require.Equal(t, "Bike", page.Content[0].Name)
}

func TestClientTransactionsKeyword(t *testing.T) {
	client, backend := newClient(t)

	txs, err := client.Transactions(context.Background(), "  rent ")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	req, _ := backend.Last(http.MethodGet, "/transactions")
	require.Equal(t, "rent", req.Query.Get("keyword"))
	require.Equal(t, 4000.0, txs[0].Amount)
	require.Equal(t, "2026-09-03", txs[2].Date)
}

func TestClientSummaries(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	total, err := client.AssetTotal(ctx)
	require.NoError(t, err)
	require.Equal(t, 5000.0, total.TotalValue)

	health, err := client.ContingencyHealth(ctx)
	require.NoError(t, err)
	require.Equal(t, "AT_RISK", health.Status)
	require.Equal(t, 4.0, health.MonthsOfRunway)

	policies, err := client.PoliciesByCategory(ctx, "life")
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.Equal(t, "Term life", policies[0].Name)
}

func TestClientChat(t *testing.T) {
	client, backend := newClient(t)
	ctx := context.Background()

	_, err := client.SendChat(ctx, "hello", "")
	require.NoError(t, err)
	req, _ := backend.Last(http.MethodPost, "/v1/fynix/chat")
	body := req.JSONBody()
	require.Equal(t, "hello", body["query"])
	require.Contains(t, body, "conversationId")
	require.Nil(t, body["conversationId"])

	history, err := client.ChatHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestClientCRUD(t *testing.T) {
	client, backend := newClient(t)
	ctx := context.Background()
	backend.JSON(http.MethodPost, "/goal", http.StatusCreated, map[string]any{"id": 10})
	backend.JSON(http.MethodPut, "/budget/7", http.StatusOK, map[string]any{"id": 7})
	backend.Handle(http.MethodDelete, "/debts/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Create(ctx, upstream.Goals, map[string]any{"name": "Car"}))
	require.NoError(t, client.Update(ctx, upstream.Budgets, "7", map[string]any{"amountAllocated": 10}))
	require.NoError(t, client.Delete(ctx, upstream.Debts, "3"))

	err := client.Delete(ctx, upstream.Debts, "")
	require.True(t, appErrors.IsCode(err, appErrors.ErrInvalidInput))

	created, _ := backend.Last(http.MethodPost, "/goal")
	require.Equal(t, "Car", created.JSONBody()["name"])
}

func TestParseResource(t *testing.T) {
	tests := []struct {
		in   string
		want upstream.Resource
	}{
		{"budgets", upstream.Budgets},
		{"budget", upstream.Budgets},
		{"Subscription", upstream.Subscriptions},
		{"transactions", upstream.Transactions},
		{"insurance", upstream.Insurance},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := upstream.ParseResource(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := upstream.ParseResource("crypto")
	require.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
	require.Equal(t, "asset", upstream.Assets.ExportName())
}

func TestClientExportPDF(t *testing.T) {
	client, _ := newClient(t)

	body, err := client.ExportPDF(context.Background(), upstream.Budgets)
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 budget", string(raw))

	_, err = client.ExportPDF(context.Background(), upstream.Goals)
	require.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}
