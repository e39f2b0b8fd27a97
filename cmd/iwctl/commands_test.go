package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatali-fataliyev/intelliwealth/internal/upstream/upstreamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	backend *upstreamtest.Backend
	vars    map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := upstreamtest.New(t)
	backend.Seed()
	return &harness{
		t:       t,
		backend: backend,
		vars: map[string]string{
			"IW_API_BASE_URL":  backend.URL(),
			"IWCTL_HOME":       t.TempDir(),
			"UPSTREAM_TIMEOUT": "2s",
			"PAGE_SIZE":        "2",
		},
	}
}

// iwctl runs one invocation and returns its exit code, stdout and stderr.
func (h *harness) iwctl(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, env{
		getenv: func(k string) string { return h.vars[k] },
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
	})
	return code, stdout.String(), stderr.String()
}

func (h *harness) login() {
	h.t.Helper()
	code, out, errOut := h.iwctl("secret\n", "login", "-u", "ada")
	require.Equal(h.t, 0, code, errOut)
	require.Contains(h.t, out, "Signed in as Ada Lovelace")
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, _ := h.iwctl("", "whoami")
	require.Equal(t, 0, code)
	assert.Equal(t, "Ada Lovelace (ada)\n", out)

	code, out, _ = h.iwctl("", "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logout successful.")

	code, _, errOut := h.iwctl("", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not signed in")
}

func TestLoginPromptsForLogin(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.iwctl("ada\nsecret\n", "login")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "Username or email: ")
	assert.Contains(t, out, "Ada Lovelace")

	req, ok := h.backend.Last(http.MethodPost, "/auth/login")
	require.True(t, ok)
	assert.Equal(t, "secret", req.JSONBody()["password"])
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.Fail(http.MethodPost, "/auth/login", http.StatusUnauthorized, "")

	code, _, errOut := h.iwctl("wrong\n", "login", "-u", "ada")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid username or password")
}

func TestCommandsRequireSession(t *testing.T) {
	h := newHarness(t)
	for _, cmd := range []string{"dashboard", "networth", "budgets", "subs", "history"} {
		code, _, errOut := h.iwctl("", cmd)
		assert.Equal(t, 1, code, cmd)
		assert.Contains(t, errOut, "not signed in", cmd)
	}
	assert.Zero(t, h.backend.Count(http.MethodGet, "/networth"))
}

func TestUsage(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.iwctl("")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: iwctl")

	code, _, errOut = h.iwctl("", "fly")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "fly"`)
}

func TestDashboardJSON(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, errOut := h.iwctl("", "-json", "dashboard")
	require.Equal(t, 0, code, errOut)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3000.0, got["netWorth"])
	assert.Equal(t, "server", got["netWorthSource"])

	req, ok := h.backend.Last(http.MethodGet, "/networth")
	require.True(t, ok)
	assert.Equal(t, "Bearer upstream-token", req.Header.Get("Authorization"))
}

func TestNetWorthAndContingencyText(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, _ := h.iwctl("", "networth")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "3000.00")
	assert.Contains(t, out, "71%")

	code, out, _ = h.iwctl("", "contingency")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "AT RISK")
	assert.Contains(t, out, "MODERATE")
}

func TestBudgetsPages(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, _ := h.iwctl("", "budgets")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Food")
	assert.NotContains(t, out, "Travel")
	assert.Contains(t, out, "-pages 2")

	code, out, _ = h.iwctl("", "budgets", "-pages", "2")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Travel")
	assert.NotContains(t, out, "-pages")

	code, out, _ = h.iwctl("", "budgets", "-pages", "2", "-q", "trav")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Travel")
	assert.NotContains(t, out, "Food")
}

func TestSubscriptionToggle(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, errOut := h.iwctl("", "subs", "toggle", "1")
	require.Equal(t, 0, code, errOut)
	assert.Regexp(t, `1\s+Netflix\s+15\.99\s+MONTHLY\s+paused`, out)
	assert.Equal(t, 1, h.backend.Count(http.MethodPut, "/subscriptions/1/toggle"))

	code, _, errOut = h.iwctl("", "subs", "pause", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "usage: iwctl subs")
}

func TestSubscriptionToggleRejected(t *testing.T) {
	h := newHarness(t)
	h.backend.Fail(http.MethodPut, "/subscriptions/2/toggle", http.StatusInternalServerError, "")
	h.login()

	code, _, errOut := h.iwctl("", "subs", "toggle", "2")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.login()
	dir := t.TempDir()

	code, out, errOut := h.iwctl("", "export", "-o", dir, "budgets")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Saved ")

	matches, err := filepath.Glob(filepath.Join(dir, "budget_*.pdf"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	body, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 budget", string(body))

	code, _, _ = h.iwctl("", "export", "pets")
	assert.Equal(t, 1, code)
}

func TestChatAndHistory(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, errOut := h.iwctl("", "chat", "How", "much", "did", "I", "save?")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "You saved **2249.50** this month.")
	assert.Contains(t, out, "-c c-1")

	code, _, _ = h.iwctl("", "chat", "-c", "c-1", "And", "now?")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, h.backend.Count(http.MethodGet, "/v1/fynix/history/conversation/c-1"))

	code, out, _ = h.iwctl("", "history")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "c-1")
	assert.Contains(t, out, "c-2")

	code, _, errOut = h.iwctl("", "chat")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "usage: iwctl chat")
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "not signed in, run iwctl login first", errorText(errNotSignedIn))
}
