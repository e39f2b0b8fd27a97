package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/logging"
	"github.com/google/uuid"
)

const (
	MsgNoToken           = "Login failed: No token received."
	MsgInvalidLogin      = "Invalid username or password."
	MsgLoginFailed       = "Something went wrong. Please try again."
	MsgRegisterFailed    = "Registration failed. Please try again."
	MsgSessionNotFound   = "Session does not exist, please login."
	MsgSessionExpired    = "Session expired, please login again."
	renewWithinDays      = 5
	sessionLifetimeMonth = 3
)

type Store interface {
	SaveSession(ctx context.Context, session Session) error
	GetSessionByToken(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, sessionID string, expireAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	GetStorageType() string
}

// Purger is a Store that can drop expired sessions in bulk. It returns the sessions it removed.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) ([]Session, error)
}

// Backend is the part of the REST backend that authenticates users.
type Backend interface {
	Login(ctx context.Context, login, password string) (finance.Record, error)
	Register(ctx context.Context, user map[string]any) error
}

// Manager is the single owner of session identity. Everything else reads the session it
// resolves and learns about login/logout through Subscribe.
type Manager struct {
	store   Store
	backend Backend
	now     func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func NewManager(store Store, backend Backend) *Manager {
	return &Manager{
		store:   store,
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
		subs:    map[int]func(Event){},
	}
}

func (m *Manager) StorageType() string {
	return m.store.GetStorageType()
}

func GenerateToken() (string, error) {
	tokenByte := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, tokenByte); err != nil {
		return "", fmt.Errorf("failed to generate new session: %w", err)
	}
	return hex.EncodeToString(tokenByte), nil
}

// DisplayName picks the name to greet a user with from a login response.
func DisplayName(resp finance.Record, login string) string {
	user := resp.Sub("user")
	switch {
	case user.Str("name") != "":
		return user.Str("name")
	case resp.Str("name") != "":
		return resp.Str("name")
	case user.Str("username") != "":
		return user.Str("username")
	case resp.Str("username") != "":
		return resp.Str("username")
	}
	return login
}

// failureMessage prefers the backend's own message, then a status specific one.
func failureMessage(err error, unauthorized, fallback string) string {
	var appErr appErrors.ErrorResponse
	if errors.As(err, &appErr) {
		if appErr.Explicit && appErr.Message != "" {
			return appErr.Message
		}
		if unauthorized != "" && appErr.Status == http.StatusUnauthorized {
			return unauthorized
		}
	}
	return fallback
}

func (m *Manager) Login(ctx context.Context, creds UserCredentialsPure) (Session, error) {
	if err := creds.Validate(); err != nil {
		return Session{}, err
	}

	resp, err := m.backend.Login(ctx, creds.Login, creds.PasswordPlain)
	if err != nil {
		logging.FromContext(ctx).Warnf("login failed for %q: %v", creds.Login, err)
		return Session{}, appErrors.ErrorResponse{
			Code:    appErrors.CodeOf(err),
			Message: failureMessage(err, MsgInvalidLogin, MsgLoginFailed),
		}
	}

	upstreamToken := resp.Str("token", "accessToken")
	if upstreamToken == "" {
		return Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: MsgNoToken,
		}
	}

	token, err := GenerateToken()
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	session := Session{
		ID:            uuid.New().String(),
		Token:         token,
		UpstreamToken: upstreamToken,
		Login:         creds.Login,
		DisplayName:   DisplayName(resp, creds.Login),
		CreatedAt:     now,
		ExpireAt:      now.AddDate(0, sessionLifetimeMonth, 0),
	}

	if err := m.store.SaveSession(ctx, session); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	m.publish(Event{Kind: EventLogin, Session: session})
	return session, nil
}

func (m *Manager) Register(ctx context.Context, newUser NewUser) error {
	if err := newUser.ValidateUserFields(); err != nil {
		return err
	}
	if err := m.backend.Register(ctx, newUser.Payload()); err != nil {
		return appErrors.ErrorResponse{
			Code:    appErrors.CodeOf(err),
			Message: failureMessage(err, "", MsgRegisterFailed),
		}
	}
	return nil
}

// Resolve returns the live session for token. Sessions within five days of expiry are
// extended by a month.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: MsgSessionNotFound,
		}
	}

	session, err := m.store.GetSessionByToken(ctx, token)
	if err != nil {
		return Session{}, fmt.Errorf("failed to get session by token: %w", err)
	}

	now := m.now()
	if session.Expired(now) {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			logging.FromContext(ctx).Warnf("failed to drop expired session: %v", err)
		}
		m.publish(Event{Kind: EventLogout, Session: session})
		return Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: MsgSessionExpired,
		}
	}

	daysUntilExpiry := int(session.ExpireAt.Sub(now).Hours() / 24)
	if daysUntilExpiry <= renewWithinDays {
		newExpireAt := now.AddDate(0, 1, 0)
		if err := m.store.UpdateSession(ctx, session.ID, newExpireAt); err != nil {
			return Session{}, fmt.Errorf("failed to update session: %w", err)
		}
		session.ExpireAt = newExpireAt
	}
	return session, nil
}

func (m *Manager) Logout(ctx context.Context, token string) error {
	session, err := m.store.GetSessionByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get session by token: %w", err)
	}
	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.publish(Event{Kind: EventLogout, Session: session})
	return nil
}

// PurgeExpired drops every expired session and publishes a logout for each one removed.
// Stores that cannot purge report 0.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	p, ok := m.store.(Purger)
	if !ok {
		return 0, nil
	}
	purged, err := p.PurgeExpired(ctx, m.now())
	for _, session := range purged {
		m.publish(Event{Kind: EventLogout, Session: session})
	}
	if err != nil {
		return len(purged), fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return len(purged), nil
}

// Subscribe registers fn for login and logout events. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) publish(e Event) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.subs[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
