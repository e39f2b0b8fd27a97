package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
)

type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session // by token
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{sessions: map[string]auth.Session{}}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return "inmemory"
}

func (inMem *InMemoryStorage) SaveSession(ctx context.Context, session auth.Session) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.sessions[strings.TrimSpace(session.Token)] = session
	return nil
}

func (inMem *InMemoryStorage) GetSessionByToken(ctx context.Context, token string) (auth.Session, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	session, ok := inMem.sessions[strings.TrimSpace(token)]
	if !ok {
		return auth.Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: auth.MsgSessionNotFound,
		}
	}
	return session, nil
}

func (inMem *InMemoryStorage) UpdateSession(ctx context.Context, sessionID string, expireAt time.Time) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	for token, session := range inMem.sessions {
		if session.ID == sessionID {
			session.ExpireAt = expireAt
			inMem.sessions[token] = session
			return nil
		}
	}
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: auth.MsgSessionNotFound,
	}
}

func (inMem *InMemoryStorage) DeleteSession(ctx context.Context, token string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	delete(inMem.sessions, strings.TrimSpace(token))
	return nil
}

func (inMem *InMemoryStorage) PurgeExpired(ctx context.Context, now time.Time) ([]auth.Session, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	var purged []auth.Session
	for token, session := range inMem.sessions {
		if session.Expired(now) {
			delete(inMem.sessions, token)
			purged = append(purged, session)
		}
	}
	return purged, nil
}
