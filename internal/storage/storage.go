// Package storage holds the gateway and terminal client session stores.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/config"
	"github.com/fatali-fataliyev/intelliwealth/logging"
)

// Store is a session store that can also drop expired sessions.
type Store interface {
	auth.Store
	auth.Purger
}

// Sweeper drops expired sessions on demand. auth.Manager publishes a logout per purged session.
type Sweeper interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Open builds the session store selected by SESSION_STORE. The returned func releases it.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionStore {
	case config.StoreMemory:
		return NewInMemoryStorage(), noop, nil
	case config.StoreMySQL, config.StoreSQLite:
	default:
		return nil, noop, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	sealer, err := NewSealer(cfg.SessionSecret)
	if err != nil {
		return nil, noop, err
	}

	if cfg.SessionStore == config.StoreSQLite {
		db, err := InitSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to init sqlite session store: %w", err)
		}
		s := NewSQLStorage(db, DialectSQLite, sealer)
		return s, s.Close, nil
	}

	dsn, err := cfg.MySQLDSN()
	if err != nil {
		return nil, noop, err
	}
	db, err := InitMySQL(ctx, dsn)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to init mysql session store: %w", err)
	}
	s := NewSQLStorage(db, DialectMySQL, sealer)
	return s, s.Close, nil
}

// RunJanitor purges expired sessions every interval until ctx is done.
func RunJanitor(ctx context.Context, s Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				logging.Logger.Warnf("session janitor failed: %v", err)
				continue
			}
			if n > 0 {
				logging.Logger.Infof("session janitor removed %d expired session(s)", n)
			}
		}
	}
}
