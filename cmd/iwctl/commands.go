package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/internal/dashboard"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/google/uuid"
	"golang.org/x/term"
)

type command func(c *cli, args []string) error

var commands = map[string]command{
	"register":     cmdRegister,
	"login":        cmdLogin,
	"logout":       cmdLogout,
	"whoami":       cmdWhoami,
	"dashboard":    cmdDashboard,
	"networth":     cmdNetWorth,
	"contingency":  cmdContingency,
	"transactions": cmdTransactions,
	"budgets":      cmdBudgets,
	"goals":        cmdGoals,
	"subs":         cmdSubscriptions,
	"assets":       cmdAssets,
	"debts":        cmdDebts,
	"insurance":    cmdInsurance,
	"export":       cmdExport,
	"chat":         cmdChat,
	"history":      cmdHistory,
}

var errNotSignedIn = appErrors.ErrorResponse{
	Code:    appErrors.ErrAuth,
	Message: "not signed in, run iwctl login first",
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// --- PROMPTS --- //

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.stderr, label)
	if c.input == nil {
		c.input = bufio.NewReader(c.stdin)
	}
	line, err := c.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo when stdin is a terminal and falls back to a plain line.
func (c *cli) readPassword(label string) (string, error) {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.stderr, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return c.prompt(label)
}

// --- SESSION --- //

// session resolves the remembered token and returns a context carrying the upstream token.
func (c *cli) session() (context.Context, auth.Session, error) {
	token, err := c.store.CurrentToken()
	if err != nil {
		return nil, auth.Session{}, fmt.Errorf("failed to read session file: %w", err)
	}
	if token == "" {
		return nil, auth.Session{}, errNotSignedIn
	}
	session, err := c.manager.Resolve(c.ctx, token)
	if err != nil {
		return nil, auth.Session{}, err
	}
	ctx := contextutil.WithTraceID(c.ctx, uuid.New().String())
	ctx = contextutil.WithToken(ctx, session.UpstreamToken)
	ctx = contextutil.WithSessionID(ctx, session.ID)
	return ctx, session, nil
}

func cmdRegister(c *cli, args []string) error {
	fs := c.flags("register")
	name := fs.String("name", "", "full name")
	username := fs.String("username", "", "user name")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	for _, field := range []struct {
		dst   *string
		label string
	}{{name, "Full name: "}, {username, "Username: "}, {email, "Email: "}} {
		if *field.dst == "" {
			if *field.dst, err = c.prompt(field.label); err != nil {
				return err
			}
		}
	}
	password, err := c.password("Password: ")
	if err != nil {
		return err
	}

	newUser := auth.NewUser{FullName: *name, UserName: *username, Email: *email, PasswordPlain: password}
	if err := c.manager.Register(c.ctx, newUser); err != nil {
		return err
	}
	return c.print(map[string]string{"message": "Registration Completed"}, func(w io.Writer) {
		fmt.Fprintln(w, "Registration Completed")
	})
}

func cmdLogin(c *cli, args []string) error {
	fs := c.flags("login")
	login := fs.String("u", "", "username or email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if *login == "" {
		if *login, err = c.prompt("Username or email: "); err != nil {
			return err
		}
	}
	password, err := c.password("Password: ")
	if err != nil {
		return err
	}

	session, err := c.manager.Login(c.ctx, auth.UserCredentialsPure{Login: *login, PasswordPlain: password})
	if err != nil {
		return err
	}
	return c.print(map[string]any{"name": session.DisplayName, "expireAt": session.ExpireAt}, func(w io.Writer) {
		fmt.Fprintf(w, "Signed in as %s (session valid until %s)\n", session.DisplayName, session.ExpireAt.Format("2006-01-02"))
	})
}

func cmdLogout(c *cli, _ []string) error {
	token, err := c.store.CurrentToken()
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}
	if token == "" {
		return errNotSignedIn
	}
	if err := c.manager.Logout(c.ctx, token); err != nil {
		return err
	}
	return c.print(map[string]string{"message": "Logout successful."}, func(w io.Writer) {
		fmt.Fprintln(w, "Logout successful.")
	})
}

func cmdWhoami(c *cli, _ []string) error {
	_, session, err := c.session()
	if err != nil {
		return err
	}
	return c.print(map[string]any{"name": session.DisplayName, "login": session.Login, "expireAt": session.ExpireAt}, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s)\n", session.DisplayName, session.Login)
	})
}

// --- PAGES --- //

func cmdDashboard(c *cli, _ []string) error {
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	d := c.service.Dashboard(ctx)
	return c.print(d, func(w io.Writer) { writeDashboard(w, d) })
}

func cmdNetWorth(c *cli, _ []string) error {
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	v := c.service.NetWorth(ctx)
	return c.print(v, func(w io.Writer) { writeNetWorth(w, v) })
}

func cmdContingency(c *cli, _ []string) error {
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	v := c.service.Contingency(ctx)
	return c.print(v, func(w io.Writer) { writeContingency(w, v) })
}

func cmdTransactions(c *cli, args []string) error {
	fs := c.flags("transactions")
	q := fs.String("q", "", "search keyword")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, session, err := c.session()
	if err != nil {
		return err
	}
	v, err := c.service.Transactions(ctx, session.ID, *q)
	if err != nil {
		return err
	}
	return c.print(v, func(w io.Writer) { writeTransactions(w, v) })
}

// pages loads the first page of a list and n-1 more, then filters what is loaded by q.
func pages[P any](n int, q string, load func(dashboard.ListQuery) (P, error)) (P, error) {
	page, err := load(dashboard.ListQuery{})
	for i := 1; i < n && err == nil; i++ {
		page, err = load(dashboard.ListQuery{More: true})
	}
	if err == nil && q != "" {
		page, err = load(dashboard.ListQuery{Query: q, Cached: true})
	}
	return page, err
}

func cmdBudgets(c *cli, args []string) error {
	fs := c.flags("budgets")
	q := fs.String("q", "", "filter loaded budgets")
	n := fs.Int("pages", 1, "number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, session, err := c.session()
	if err != nil {
		return err
	}
	page, _ := pages(*n, *q, func(lq dashboard.ListQuery) (budgetPage, error) {
		return c.service.Budgets(ctx, session.ID, lq), nil
	})
	return c.print(page, func(w io.Writer) { writeBudgets(w, page) })
}

func cmdGoals(c *cli, args []string) error {
	fs := c.flags("goals")
	q := fs.String("q", "", "filter loaded goals")
	n := fs.Int("pages", 1, "number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, session, err := c.session()
	if err != nil {
		return err
	}
	page, err := pages(*n, *q, func(lq dashboard.ListQuery) (goalPage, error) {
		return c.service.Goals(ctx, session.ID, lq)
	})
	if err != nil {
		return err
	}
	return c.print(page, func(w io.Writer) { writeGoals(w, page) })
}

func cmdSubscriptions(c *cli, args []string) error {
	fs := c.flags("subs")
	n := fs.Int("pages", 1, "number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, session, err := c.session()
	if err != nil {
		return err
	}
	page, err := pages(*n, "", func(lq dashboard.ListQuery) (subscriptionPage, error) {
		return c.service.Subscriptions(ctx, session.ID, lq)
	})
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		if rest[0] != "toggle" || len(rest) != 2 {
			return appErrors.New(appErrors.ErrInvalidInput, "usage: iwctl subs [-pages n] [toggle <id>]")
		}
		page, _, err = c.service.ToggleSubscription(ctx, session.ID, rest[1])
		if err != nil {
			return err
		}
	}
	return c.print(page, func(w io.Writer) { writeSubscriptions(w, page) })
}

func cmdAssets(c *cli, _ []string) error {
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	v, err := c.service.Assets(ctx)
	if err != nil {
		return err
	}
	return c.print(v, func(w io.Writer) { writeAssets(w, v) })
}

func cmdDebts(c *cli, _ []string) error {
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	v, err := c.service.Debts(ctx)
	if err != nil {
		return err
	}
	return c.print(v, func(w io.Writer) { writeDebts(w, v) })
}

func cmdInsurance(c *cli, args []string) error {
	fs := c.flags("insurance")
	category := fs.String("category", "", "policy category, e.g. LIFE")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	v, err := c.service.Insurance(ctx, *category)
	if err != nil {
		return err
	}
	return c.print(v, func(w io.Writer) { writeInsurance(w, v) })
}

// --- REPORTS --- //

func cmdExport(c *cli, args []string) error {
	fs := c.flags("export")
	dir := fs.String("o", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return appErrors.New(appErrors.ErrInvalidInput, "usage: iwctl export <resource> [-o dir]")
	}
	resource, err := upstream.ParseResource(fs.Arg(0))
	if err != nil {
		return err
	}
	ctx, _, err := c.session()
	if err != nil {
		return err
	}

	body, fileName, err := c.service.Export(ctx, resource)
	if err != nil {
		return err
	}
	defer body.Close()

	path := filepath.Join(*dir, fileName)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return c.print(map[string]string{"file": path}, func(w io.Writer) {
		fmt.Fprintf(w, "Saved %s\n", path)
	})
}

// --- CHAT --- //

func cmdChat(c *cli, args []string) error {
	fs := c.flags("chat")
	conversation := fs.String("c", "", "continue an existing conversation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return appErrors.New(appErrors.ErrInvalidInput, "usage: iwctl chat [-c conversation] <message>")
	}
	ctx, session, err := c.session()
	if err != nil {
		return err
	}
	if *conversation != "" {
		if _, err := c.service.OpenConversation(ctx, session.ID, *conversation); err != nil {
			return err
		}
	}

	v, err := c.service.SendChat(ctx, session.ID, text)
	if err != nil {
		return err
	}
	return c.print(v, func(w io.Writer) { writeChat(w, v) })
}

func cmdHistory(c *cli, _ []string) error {
	ctx, _, err := c.session()
	if err != nil {
		return err
	}
	sessions, err := c.service.ChatSessions(ctx)
	if err != nil {
		return err
	}
	return c.print(sessions, func(w io.Writer) { writeHistory(w, sessions) })
}
