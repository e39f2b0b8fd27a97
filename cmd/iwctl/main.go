// Package main provides iwctl, a terminal client for the IntelliWealth backend.
//
// Usage:
//
//	iwctl [-json] [-api URL] <command> [flags] [args]
//
// Commands: register, login, logout, whoami, dashboard, networth, contingency,
// transactions, budgets, goals, subs, assets, debts, insurance, export, chat, history.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/config"
	"github.com/fatali-fataliyev/intelliwealth/internal/dashboard"
	"github.com/fatali-fataliyev/intelliwealth/internal/storage"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/fatali-fataliyev/intelliwealth/logging"
)

const usage = `usage: iwctl [-json] [-api URL] <command> [flags] [args]

commands:
  register                     create an account
  login [-u login]             sign in and remember the session
  logout                       forget the current session
  whoami                       show the signed-in user
  dashboard                    home page summary
  networth                     assets against debts
  contingency                  emergency runway health
  transactions [-q keyword]    list transactions
  budgets [-q keyword] [-pages n]
  goals [-q keyword] [-pages n]
  subs [-pages n] [toggle <id>]
  assets                       list assets
  debts                        list debts
  insurance [-category name]   list policies
  export <resource> [-o dir]   download a PDF report
  chat [-c conversation] <message>
  history                      list past conversations
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], env{getenv: os.Getenv, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}))
}

type env struct {
	getenv func(string) string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// cli holds everything a command needs for one invocation.
type cli struct {
	env
	ctx      context.Context
	asJSON   bool
	store    *storage.FileStorage
	client   *upstream.Client
	manager  *auth.Manager
	service  *dashboard.Service
	input    *bufio.Reader
	password func(prompt string) (string, error)
}

func run(ctx context.Context, args []string, e env) int {
	fs := flag.NewFlagSet("iwctl", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() { fmt.Fprint(e.stderr, usage) }
	asJSON := fs.Bool("json", false, "print JSON instead of text")
	apiURL := fs.String("api", "", "backend base URL (overrides IW_API_BASE_URL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.FromEnv(e.getenv)
	if err != nil {
		fmt.Fprintf(e.stderr, "iwctl: %v\n", err)
		return 1
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if err := logging.InitFile(cfg.LogLevel, cfg.AppEnv, filepath.Join(cfg.CLIHome, "logs")); err != nil {
		fmt.Fprintf(e.stderr, "iwctl: failed to initialize logger: %v\n", err)
		return 1
	}

	c, err := newCLI(ctx, cfg, e, *asJSON)
	if err != nil {
		fmt.Fprintf(e.stderr, "iwctl: %v\n", err)
		return 1
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(e.stderr, "iwctl: unknown command %q\n\n", name)
		fs.Usage()
		return 2
	}
	if err := cmd(c, rest); err != nil {
		logging.Logger.Errorf("command %s failed: %v", name, err)
		fmt.Fprintf(e.stderr, "iwctl: %s\n", errorText(err))
		return 1
	}
	return 0
}

func newCLI(ctx context.Context, cfg *config.Config, e env, asJSON bool) (*cli, error) {
	store, err := storage.NewFileStorage(cfg.CLIHome, cfg.CLIPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	client := upstream.New(cfg.APIBaseURL, upstream.WithTimeout(cfg.UpstreamTimeout))
	manager := auth.NewManager(store, client)
	service := dashboard.NewService(client, cfg.PageSize)
	manager.Subscribe(service.OnAuthEvent)

	c := &cli{
		env:     e,
		ctx:     ctx,
		asJSON:  asJSON,
		store:   store,
		client:  client,
		manager: manager,
		service: service,
	}
	c.password = c.readPassword
	return c, nil
}

// errorText prefers the user facing message of a gateway error over the wrapped chain.
func errorText(err error) string {
	if msg := appErrors.MessageOf(err); msg != "" {
		return msg
	}
	return err.Error()
}
