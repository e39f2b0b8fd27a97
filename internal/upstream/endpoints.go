package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
)

type Resource string

const (
	Transactions  Resource = "transactions"
	Budgets       Resource = "budgets"
	Goals         Resource = "goals"
	Subscriptions Resource = "subscriptions"
	Assets        Resource = "assets"
	Debts         Resource = "debts"
	Insurance     Resource = "insurance"
)

var resources = []Resource{Transactions, Budgets, Goals, Subscriptions, Assets, Debts, Insurance}

var resourcePaths = map[Resource]string{
	Transactions:  "/transactions",
	Budgets:       "/budget",
	Goals:         "/goal",
	Subscriptions: "/subscriptions",
	Assets:        "/assets",
	Debts:         "/debts",
	Insurance:     "/insurance",
}

// Export paths do not follow the CRUD paths for every resource.
var exportPaths = map[Resource]string{
	Budgets:       "/budget/export/pdf",
	Goals:         "/goal/export/pdf",
	Subscriptions: "/subscription/export/pdf",
	Transactions:  "/transactions/export/pdf",
	Assets:        "/asset/export/pdf",
	Debts:         "/debt/export/pdf",
	Insurance:     "/insurance/export/pdf",
}

var exportNames = map[Resource]string{
	Budgets:       "budget",
	Goals:         "goal",
	Subscriptions: "subscription",
	Transactions:  "transactions",
	Assets:        "asset",
	Debts:         "debt",
	Insurance:     "insurance",
}

func Resources() []Resource {
	return append([]Resource(nil), resources...)
}

// ParseResource accepts the plural gateway name or the singular export name.
func ParseResource(name string) (Resource, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range resources {
		if string(r) == name || exportNames[r] == name {
			return r, nil
		}
	}
	return "", appErrors.New(appErrors.ErrNotFound, "Unknown resource: %q", name)
}

// ExportName is the file name prefix of a resource's PDF report.
func (r Resource) ExportName() string {
	return exportNames[r]
}

// AUTH:

func (c *Client) Login(ctx context.Context, login, password string) (finance.Record, error) {
	v, err := c.call(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"login":    login,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return finance.Object(v), nil
}

func (c *Client) Register(ctx context.Context, user map[string]any) error {
	_, err := c.call(ctx, http.MethodPost, "/auth/register", nil, user)
	return err
}

// TRANSACTIONS:

func (c *Client) Transactions(ctx context.Context, keyword string) ([]finance.Transaction, error) {
	var q url.Values
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		q = url.Values{"keyword": {keyword}}
	}
	v, err := c.get(ctx, "/transactions", q)
	if err != nil {
		return nil, err
	}
	page, err := finance.MapRecords(v, finance.TransactionFromRecord)
	return page.Content, err
}

func (c *Client) TransactionSummary(ctx context.Context) (finance.TransactionSummary, error) {
	v, err := c.get(ctx, "/transactions/summary/net", nil)
	if err != nil {
		return finance.TransactionSummary{}, err
	}
	return finance.TransactionSummaryFrom(v), nil
}

// BUDGETS:

func (c *Client) Budgets(ctx context.Context, page, size int) (finance.Page[finance.Budget], error) {
	v, err := c.get(ctx, "/budget", pageQuery(page, size))
	if err != nil {
		return finance.Page[finance.Budget]{}, err
	}
	return finance.MapRecords(v, finance.BudgetFromRecord)
}

func (c *Client) BudgetSummary(ctx context.Context) (finance.BudgetSummary, error) {
	v, err := c.get(ctx, "/budget/summary", nil)
	if err != nil {
		return finance.BudgetSummary{}, err
	}
	return finance.BudgetSummaryFrom(v), nil
}

// GOALS:

func (c *Client) Goals(ctx context.Context, page, size int) (finance.Page[finance.Goal], error) {
	v, err := c.get(ctx, "/goal", pageQuery(page, size))
	if err != nil {
		return finance.Page[finance.Goal]{}, err
	}
	return finance.MapRecords(v, finance.GoalFromRecord)
}

func (c *Client) GoalStats(ctx context.Context) (finance.GoalStats, error) {
	v, err := c.get(ctx, "/goal/stats", nil)
	if err != nil {
		return finance.GoalStats{}, err
	}
	return finance.GoalStatsFrom(v), nil
}

func (c *Client) DeleteAllGoals(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodDelete, "/goal/delete-all", nil, nil)
	return err
}

// SUBSCRIPTIONS:

// Subscriptions lists one page. A nil active returns both active and paused subscriptions.
func (c *Client) Subscriptions(ctx context.Context, active *bool, page, size int) (finance.Page[finance.Subscription], error) {
	q := pageQuery(page, size)
	if active != nil {
		q.Set("active", strconv.FormatBool(*active))
	}
	v, err := c.get(ctx, "/subscriptions", q)
	if err != nil {
		return finance.Page[finance.Subscription]{}, err
	}
	return finance.MapRecords(v, finance.SubscriptionFromRecord)
}

func (c *Client) ToggleSubscription(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodPut, "/subscriptions/"+url.PathEscape(id)+"/toggle", nil, nil)
	return err
}

func (c *Client) SubscriptionStats(ctx context.Context) (finance.SubscriptionStats, error) {
	v, err := c.get(ctx, "/subscriptions/stat", nil)
	if err != nil {
		return finance.SubscriptionStats{}, err
	}
	return finance.SubscriptionStatsFrom(v), nil
}

// WEALTH:

func (c *Client) Assets(ctx context.Context) ([]finance.Asset, error) {
	v, err := c.get(ctx, "/assets", nil)
	if err != nil {
		return nil, err
	}
	page, err := finance.MapRecords(v, finance.AssetFromRecord)
	return page.Content, err
}

func (c *Client) AssetTotal(ctx context.Context) (finance.AssetTotal, error) {
	v, err := c.get(ctx, "/assets/total-value", nil)
	if err != nil {
		return finance.AssetTotal{}, err
	}
	return finance.AssetTotalFrom(v), nil
}

func (c *Client) Debts(ctx context.Context) ([]finance.Debt, error) {
	v, err := c.get(ctx, "/debts", nil)
	if err != nil {
		return nil, err
	}
	page, err := finance.MapRecords(v, finance.DebtFromRecord)
	return page.Content, err
}

func (c *Client) DebtStats(ctx context.Context) (finance.DebtStats, error) {
	v, err := c.get(ctx, "/debts/stats", nil)
	if err != nil {
		return finance.DebtStats{}, err
	}
	return finance.DebtStatsFrom(v), nil
}

func (c *Client) NetWorth(ctx context.Context) (finance.NetWorth, error) {
	v, err := c.get(ctx, "/networth", nil)
	if err != nil {
		return finance.NetWorth{}, err
	}
	return finance.NetWorthFrom(v), nil
}

// PROTECTION:

func (c *Client) Policies(ctx context.Context) ([]finance.InsurancePolicy, error) {
	return c.policies(ctx, "/insurance")
}

func (c *Client) ActivePolicies(ctx context.Context) ([]finance.InsurancePolicy, error) {
	return c.policies(ctx, "/insurance/status/active")
}

func (c *Client) ExpiringPolicies(ctx context.Context) ([]finance.InsurancePolicy, error) {
	return c.policies(ctx, "/insurance/status/expiring")
}

func (c *Client) PoliciesByCategory(ctx context.Context, category string) ([]finance.InsurancePolicy, error) {
	return c.policies(ctx, "/insurance/category/"+url.PathEscape(strings.ToUpper(category)))
}

func (c *Client) policies(ctx context.Context, path string) ([]finance.InsurancePolicy, error) {
	v, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	page, err := finance.MapRecords(v, finance.InsurancePolicyFromRecord)
	return page.Content, err
}

func (c *Client) ContingencyHealth(ctx context.Context) (finance.ContingencyHealth, error) {
	v, err := c.get(ctx, "/protection/contingency/health", nil)
	if err != nil {
		return finance.ContingencyHealth{}, err
	}
	return finance.ContingencyHealthFrom(v), nil
}

// CHAT:

// SendChat posts one query. The reply shape is not fixed, so it is returned undecoded.
func (c *Client) SendChat(ctx context.Context, query, conversationID string) (any, error) {
	body := map[string]any{"query": query, "conversationId": nil}
	if conversationID != "" {
		body["conversationId"] = conversationID
	}
	return c.call(ctx, http.MethodPost, "/v1/fynix/chat", nil, body)
}

func (c *Client) ChatHistory(ctx context.Context) ([]finance.Record, error) {
	v, err := c.get(ctx, "/v1/fynix/history", nil)
	if err != nil {
		return nil, err
	}
	records, _, err := finance.Records(v)
	return records, err
}

func (c *Client) Conversation(ctx context.Context, id string) ([]finance.Record, error) {
	v, err := c.get(ctx, "/v1/fynix/history/conversation/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	records, _, err := finance.Records(v)
	return records, err
}

// GENERIC CRUD:

func (c *Client) resourcePath(r Resource, id string) (string, error) {
	base, ok := resourcePaths[r]
	if !ok {
		return "", appErrors.New(appErrors.ErrNotFound, "Unknown resource: %q", r)
	}
	if id == "" {
		return base, nil
	}
	return base + "/" + url.PathEscape(id), nil
}

func (c *Client) Get(ctx context.Context, r Resource, id string) (finance.Record, error) {
	path, err := c.resourcePath(r, id)
	if err != nil {
		return nil, err
	}
	v, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return finance.Object(v), nil
}

func (c *Client) Create(ctx context.Context, r Resource, body map[string]any) error {
	path, err := c.resourcePath(r, "")
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, path, nil, body)
	return err
}

func (c *Client) Update(ctx context.Context, r Resource, id string, body map[string]any) error {
	if id == "" {
		return appErrors.New(appErrors.ErrInvalidInput, "Missing %s id", r)
	}
	path, err := c.resourcePath(r, id)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPut, path, nil, body)
	return err
}

func (c *Client) Delete(ctx context.Context, r Resource, id string) error {
	if id == "" {
		return appErrors.New(appErrors.ErrInvalidInput, "Missing %s id", r)
	}
	path, err := c.resourcePath(r, id)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// REPORTS:

// ExportPDF streams the backend's PDF report for a resource. The caller closes the reader.
func (c *Client) ExportPDF(ctx context.Context, r Resource) (io.ReadCloser, error) {
	path, ok := exportPaths[r]
	if !ok {
		return nil, appErrors.New(appErrors.ErrNotFound, "No report for resource: %q", r)
	}
	body, contentType, err := c.Stream(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", r, err)
	}
	if contentType != "" && !strings.Contains(contentType, "pdf") && !strings.Contains(contentType, "octet-stream") {
		body.Close()
		return nil, appErrors.New(appErrors.ErrMalformed, "Expected a PDF report, got %s", contentType)
	}
	return body, nil
}
