// Package upstreamtest runs a scripted fake of the IntelliWealth backend on httptest.
package upstreamtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSONBody decodes the recorded request body.
func (r Request) JSONBody() map[string]any {
	var m map[string]any
	_ = json.Unmarshal(r.Body, &m)
	return m
}

type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{handlers: map[string]http.HandlerFunc{}}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := b.handlers[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"message": "no route " + r.Method + " " + r.URL.Path})
		return
	}
	h(w, r)
}

func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[method+" "+path] = h
}

// JSON answers method+path with a fixed status and JSON body.
func (b *Backend) JSON(method, path string, status int, body any) {
	b.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Fail answers method+path with a backend error carrying message.
func (b *Backend) Fail(method, path string, status int, message string) {
	b.JSON(method, path, status, map[string]string{"message": message})
}

// Paged serves pages[page] for the "page" query parameter, or an empty last page past the end.
func (b *Backend) Paged(path string, pages ...any) {
	b.Handle(http.MethodGet, path, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 0 || page >= len(pages) {
			WriteJSON(w, http.StatusOK, map[string]any{"content": []any{}, "last": true})
			return
		}
		WriteJSON(w, http.StatusOK, pages[page])
	})
}

func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Last returns the most recent request for method+path.
func (b *Backend) Last(method, path string) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if b.requests[i].Method == method && b.requests[i].Path == path {
			return b.requests[i], true
		}
	}
	return Request{}, false
}

func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Page builds a paginated response body.
func Page(last bool, items ...map[string]any) map[string]any {
	if items == nil {
		items = []map[string]any{}
	}
	return map[string]any{"content": items, "last": last}
}

// Seed registers a small consistent data set covering every read endpoint.
func (b *Backend) Seed() {
	b.JSON(http.MethodPost, "/auth/login", http.StatusOK, map[string]any{
		"token": "upstream-token",
		"user":  map[string]any{"name": "Ada Lovelace", "username": "ada"},
	})
	b.JSON(http.MethodPost, "/auth/register", http.StatusCreated, map[string]any{"message": "registered"})

	b.JSON(http.MethodGet, "/transactions", http.StatusOK, []map[string]any{
		{"id": 1, "type": "INCOME", "description": "Salary", "amount": "4000", "category": "SALARY", "transactionDate": "2026-09-01"},
		{"id": 2, "type": "EXPENSE", "description": "Rent", "amount": 1500, "category": "HOUSING", "transactionDate": "2026-09-02"},
		{"id": 3, "type": "EXPENSE", "description": "Groceries", "amount": 250.5, "category": "FOOD", "date": "2026-09-03"},
	})
	b.JSON(http.MethodGet, "/transactions/summary/net", http.StatusOK, map[string]any{
		"totalIncome": 4000, "totalExpense": 1750.5, "netSavings": 2249.5, "balance": 2249.5,
	})

	b.Paged("/budget",
		Page(false,
			map[string]any{"id": 1, "title": "Food", "category": "FOOD", "amountAllocated": 1000, "amountSpent": 400, "status": "SAFE"},
			map[string]any{"id": 2, "title": "Fun", "category": "ENTERTAINMENT", "amountAllocated": 200, "amountSpent": 190, "status": "WARNING"},
		),
		Page(true,
			map[string]any{"id": 3, "title": "Travel", "category": "TRAVEL", "amountAllocated": 500, "amountSpent": 600, "remainingAmount": -100, "status": "DANGER"},
		),
	)
	b.JSON(http.MethodGet, "/budget/summary", http.StatusOK, map[string]any{
		"totalAllocated": 1700, "totalSpent": 1190, "totalRemaining": 510,
	})

	b.Paged("/goal",
		Page(true,
			map[string]any{"id": 1, "name": "Emergency fund", "targetAmount": 6000, "currentAmount": 3000},
			map[string]any{"id": 2, "title": "Laptop", "targetAmount": 2000, "savedAmount": 2000},
			map[string]any{"id": 3, "name": "Someday", "targetAmount": 0, "currentAmount": 10},
		),
	)
	b.JSON(http.MethodGet, "/goal/stats", http.StatusOK, map[string]any{
		"totalGoals": 3, "completedGoals": 1, "totalTargetValue": 8000,
	})

	b.Paged("/subscriptions",
		Page(true,
			map[string]any{"id": 1, "title": "Netflix", "amount": 15.99, "billingCycle": "MONTHLY", "active": true},
			map[string]any{"id": 2, "title": "Gym", "amount": 40, "billingCycle": "MONTHLY", "isActive": false},
			map[string]any{"id": 3, "title": "Cloud", "amount": 120, "billingCycle": "YEARLY", "active": true},
		),
	)
	b.JSON(http.MethodGet, "/subscriptions/stat", http.StatusOK, map[string]any{
		"daily": 0.86, "weekly": 6, "monthly": 25.99, "quarterly": 77.97, "yearly": 311.88,
	})
	b.JSON(http.MethodPut, "/subscriptions/1/toggle", http.StatusOK, map[string]any{"id": 1, "active": false})

	b.JSON(http.MethodGet, "/assets", http.StatusOK, []map[string]any{
		{"id": 1, "name": "Flat", "category": "REAL_ESTATE", "currentValue": 3000, "attributes": map[string]any{"location": "Baku"}},
		{"id": 2, "name": "Index fund", "category": "MUTUAL_FUND", "value": "1500"},
		{"id": 3, "name": "Wallet", "category": "CASH", "amount": 500},
	})
	b.JSON(http.MethodGet, "/assets/total-value", http.StatusOK, 5000)

	b.JSON(http.MethodGet, "/debts", http.StatusOK, []map[string]any{
		{"id": 1, "name": "Card", "category": "CREDIT_CARD", "totalAmount": 1000, "outstandingAmount": 800},
		{"id": 2, "name": "Car loan", "category": "PERSONAL_LOAN", "totalAmount": 5000, "amount": 1200},
	})
	b.JSON(http.MethodGet, "/debts/stats", http.StatusOK, map[string]any{
		"totalDebtAmount": 6000, "totalOutstandingAmount": 2000,
	})

	b.JSON(http.MethodGet, "/networth", http.StatusOK, map[string]any{"netWorth": 3000})

	policies := []map[string]any{
		{"id": 1, "policyName": "Term life", "provider": "Acme", "category": "LIFE", "premiumAmount": 30, "coverageAmount": 100000},
		{"id": 2, "policyName": "Health plus", "provider": "Acme", "category": "HEALTH", "premiumAmount": 50, "coverageAmount": 20000},
	}
	b.JSON(http.MethodGet, "/insurance", http.StatusOK, policies)
	b.JSON(http.MethodGet, "/insurance/status/active", http.StatusOK, policies)
	b.JSON(http.MethodGet, "/insurance/status/expiring", http.StatusOK, policies[1:])
	b.JSON(http.MethodGet, "/insurance/category/LIFE", http.StatusOK, policies[:1])

	b.JSON(http.MethodGet, "/protection/contingency/health", http.StatusOK, map[string]any{
		"totalMonthlyBurn": 1000, "totalLiquidAssets": 4000, "monthsOfRunway": 4, "recommendedGap": 2000, "status": "AT_RISK",
	})

	b.JSON(http.MethodPost, "/v1/fynix/chat", http.StatusOK, map[string]any{
		"answer": "You saved **2249.50** this month.", "conversationId": "c-1",
	})
	b.JSON(http.MethodGet, "/v1/fynix/history", http.StatusOK, []map[string]any{
		{"conversationId": "c-1", "query": "How much did I save?", "aiAnswer": "2249.50"},
		{"conversationId": "c-2", "query": "Any debts?", "aIAnswer": "Two."},
		{"conversationId": "c-1", "query": "And last month?", "response": "1900"},
	})
	b.JSON(http.MethodGet, "/v1/fynix/history/conversation/c-1", http.StatusOK, []map[string]any{
		{"conversationId": "c-1", "query": "How much did I save?", "aiAnswer": "2249.50"},
		{"conversationId": "c-1", "query": "And last month?", "response": "1900"},
	})

	b.Handle(http.MethodGet, "/budget/export/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 budget"))
	})
}
