package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatali-fataliyev/intelliwealth/api"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/config"
	"github.com/fatali-fataliyev/intelliwealth/internal/dashboard"
	"github.com/fatali-fataliyev/intelliwealth/internal/storage"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/fatali-fataliyev/intelliwealth/logging"
)

const janitorInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "intelliwealth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.LogLevel, cfg.AppEnv, cfg.LogDir); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.Logger.Info("application starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- INIT START --- //
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		logging.Logger.Errorf("failed to initialize session store: %v", err)
		return err
	}
	defer closeStore()

	client := upstream.New(cfg.APIBaseURL, upstream.WithTimeout(cfg.UpstreamTimeout))
	manager := auth.NewManager(store, client)
	service := dashboard.NewService(client, cfg.PageSize)
	manager.Subscribe(service.OnAuthEvent)

	go storage.RunJanitor(ctx, manager, janitorInterval)

	handler := api.NewApi(manager, service).Routes(cfg.CORSOrigins)
	// --- INIT END --- //

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("starting server on port %s (backend %s, session store %s)", cfg.Port, client.BaseURL(), manager.StorageType())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("failed to start server: %v", err)
			return err
		}
	case <-ctx.Done():
		logging.Logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}
	return nil
}
