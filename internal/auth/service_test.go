package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mu       sync.Mutex
	sessions map[string]Session
	updated  map[string]time.Time
	saveErr  error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{sessions: map[string]Session{}, updated: map[string]time.Time{}}
}

func (m *MockStorage) SaveSession(ctx context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *MockStorage) GetSessionByToken(ctx context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, appErrors.ErrorResponse{Code: appErrors.ErrAuth, Message: MsgSessionNotFound}
	}
	return s, nil
}

func (m *MockStorage) UpdateSession(ctx context.Context, sessionID string, expireAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.ID == sessionID {
			s.ExpireAt = expireAt
			m.sessions[token] = s
			m.updated[sessionID] = expireAt
			return nil
		}
	}
	return appErrors.ErrorResponse{Code: appErrors.ErrAuth, Message: MsgSessionNotFound}
}

func (m *MockStorage) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MockStorage) GetStorageType() string { return "mock" }

func (m *MockStorage) PurgeExpired(ctx context.Context, now time.Time) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged []Session
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			purged = append(purged, s)
		}
	}
	return purged, nil
}

type MockBackend struct {
	loginResp finance.Record
	loginErr  error
	regErr    error
	regBody   map[string]any
}

func (b *MockBackend) Login(ctx context.Context, login, password string) (finance.Record, error) {
	return b.loginResp, b.loginErr
}

func (b *MockBackend) Register(ctx context.Context, user map[string]any) error {
	b.regBody = user
	return b.regErr
}

func fixedClock(m *Manager, now time.Time) {
	m.now = func() time.Time { return now }
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		resp finance.Record
		want string
	}{
		{"user name", finance.Record{"user": map[string]any{"name": "Ada", "username": "ada"}, "name": "Top"}, "Ada"},
		{"top name", finance.Record{"user": map[string]any{"username": "ada"}, "name": "Top"}, "Top"},
		{"user username", finance.Record{"user": map[string]any{"username": "ada"}, "username": "top"}, "ada"},
		{"top username", finance.Record{"username": "top"}, "top"},
		{"login fallback", finance.Record{"token": "x"}, "ada@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DisplayName(tt.resp, "ada@example.com"))
		})
	}
}

func TestLogin(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		store := NewMockStorage()
		m := NewManager(store, &MockBackend{loginResp: finance.Record{"token": "up", "name": "Ada"}})
		fixedClock(m, now)
		var events []Event
		m.Subscribe(func(e Event) { events = append(events, e) })

		s, err := m.Login(context.Background(), UserCredentialsPure{Login: "ada", PasswordPlain: "pw"})
		require.NoError(t, err)
		require.Equal(t, "up", s.UpstreamToken)
		require.Equal(t, "Ada", s.DisplayName)
		require.Equal(t, now.AddDate(0, 3, 0), s.ExpireAt)
		require.Len(t, s.Token, 32)
		require.NotEmpty(t, s.ID)

		stored, err := store.GetSessionByToken(context.Background(), s.Token)
		require.NoError(t, err)
		require.Equal(t, s, stored)
		require.Equal(t, []Event{{Kind: EventLogin, Session: s}}, events)
	})

	t.Run("no token", func(t *testing.T) {
		m := NewManager(NewMockStorage(), &MockBackend{loginResp: finance.Record{"name": "Ada"}})
		_, err := m.Login(context.Background(), UserCredentialsPure{Login: "ada", PasswordPlain: "pw"})
		require.Equal(t, MsgNoToken, appErrors.MessageOf(err))
	})

	failures := []struct {
		name string
		err  error
		want string
		code string
	}{
		{
			name: "backend message",
			err:  appErrors.FromStatus(http.StatusBadRequest, []byte(`{"message":"Account locked"}`)),
			want: "Account locked",
			code: appErrors.ErrInvalidInput,
		},
		{
			name: "unauthorized without message",
			err:  appErrors.FromStatus(http.StatusUnauthorized, nil),
			want: MsgInvalidLogin,
			code: appErrors.ErrAuth,
		},
		{
			name: "server error",
			err:  appErrors.FromStatus(http.StatusInternalServerError, []byte("boom")),
			want: MsgLoginFailed,
			code: appErrors.ErrInternal,
		},
		{
			name: "transport",
			err:  errors.New("connection refused"),
			want: MsgLoginFailed,
			code: appErrors.ErrInternal,
		},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockStorage()
			m := NewManager(store, &MockBackend{loginErr: tt.err})
			_, err := m.Login(context.Background(), UserCredentialsPure{Login: "ada", PasswordPlain: "pw"})
			require.Error(t, err)
			require.Equal(t, tt.want, appErrors.MessageOf(err))
			require.True(t, appErrors.IsCode(err, tt.code))
			require.Empty(t, store.sessions)
		})
	}

	t.Run("validation", func(t *testing.T) {
		m := NewManager(NewMockStorage(), &MockBackend{})
		_, err := m.Login(context.Background(), UserCredentialsPure{Login: " ", PasswordPlain: "pw"})
		require.True(t, appErrors.IsCode(err, appErrors.ErrInvalidInput))
	})
}

func TestResolveSlidingRenewal(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		expireAt   time.Time
		wantRenew  bool
		wantExpire bool
	}{
		{"far from expiry", now.AddDate(0, 2, 0), false, false},
		{"six days left", now.Add(6*24*time.Hour + time.Hour), false, false},
		{"five days left", now.Add(5 * 24 * time.Hour), true, false},
		{"one hour left", now.Add(time.Hour), true, false},
		{"expired", now.Add(-time.Minute), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockStorage()
			store.sessions["tok"] = Session{ID: "s1", Token: "tok", ExpireAt: tt.expireAt}
			m := NewManager(store, &MockBackend{})
			fixedClock(m, now)

			s, err := m.Resolve(context.Background(), "tok")
			if tt.wantExpire {
				require.True(t, appErrors.IsCode(err, appErrors.ErrAuth))
				require.Equal(t, MsgSessionExpired, appErrors.MessageOf(err))
				require.NotContains(t, store.sessions, "tok")
				return
			}
			require.NoError(t, err)
			if tt.wantRenew {
				require.Equal(t, now.AddDate(0, 1, 0), s.ExpireAt)
				require.Contains(t, store.updated, "s1")
			} else {
				require.Equal(t, tt.expireAt, s.ExpireAt)
				require.Empty(t, store.updated)
			}
		})
	}
}

func TestResolveUnknownToken(t *testing.T) {
	m := NewManager(NewMockStorage(), &MockBackend{})
	_, err := m.Resolve(context.Background(), "missing")
	require.True(t, appErrors.IsCode(err, appErrors.ErrAuth))

	_, err = m.Resolve(context.Background(), "")
	require.Equal(t, MsgSessionNotFound, appErrors.MessageOf(err))
}

func TestLogoutPublishesAndUnsubscribe(t *testing.T) {
	store := NewMockStorage()
	store.sessions["tok"] = Session{ID: "s1", Token: "tok", ExpireAt: time.Now().Add(time.Hour)}
	m := NewManager(store, &MockBackend{})

	var kinds []string
	unsubscribe := m.Subscribe(func(e Event) { kinds = append(kinds, e.Kind+":"+e.Session.ID) })
	other := 0
	m.Subscribe(func(e Event) { other++ })

	require.NoError(t, m.Logout(context.Background(), "tok"))
	require.Equal(t, []string{"logout:s1"}, kinds)
	require.Empty(t, store.sessions)

	unsubscribe()
	store.sessions["tok2"] = Session{ID: "s2", Token: "tok2", ExpireAt: time.Now().Add(time.Hour)}
	require.NoError(t, m.Logout(context.Background(), "tok2"))
	require.Len(t, kinds, 1)
	require.Equal(t, 2, other)

	err := m.Logout(context.Background(), "tok2")
	require.True(t, appErrors.IsCode(err, appErrors.ErrAuth))
}

func TestRegister(t *testing.T) {
	valid := NewUser{FullName: "Ada", UserName: "ada", Email: "ada@example.com", PasswordPlain: "secret"}

	t.Run("success", func(t *testing.T) {
		backend := &MockBackend{}
		m := NewManager(NewMockStorage(), backend)
		require.NoError(t, m.Register(context.Background(), valid))
		require.Equal(t, "ada@example.com", backend.regBody["email"])
	})

	t.Run("backend rejection", func(t *testing.T) {
		m := NewManager(NewMockStorage(), &MockBackend{
			regErr: appErrors.FromStatus(http.StatusConflict, []byte(`{"message":"Username taken"}`)),
		})
		err := m.Register(context.Background(), valid)
		require.True(t, appErrors.IsCode(err, appErrors.ErrConflict))
		require.Equal(t, "Username taken", appErrors.MessageOf(err))
	})

	t.Run("generic failure", func(t *testing.T) {
		m := NewManager(NewMockStorage(), &MockBackend{regErr: errors.New("eof")})
		err := m.Register(context.Background(), valid)
		require.Equal(t, MsgRegisterFailed, appErrors.MessageOf(err))
	})

	invalid := []struct {
		name string
		user NewUser
	}{
		{"empty username", NewUser{Email: "a@b.co", PasswordPlain: "x"}},
		{"bad email", NewUser{UserName: "ada", Email: "not-an-email", PasswordPlain: "x"}},
		{"empty password", NewUser{UserName: "ada", Email: "a@b.co"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			backend := &MockBackend{}
			m := NewManager(NewMockStorage(), backend)
			err := m.Register(context.Background(), tt.user)
			require.True(t, appErrors.IsCode(err, appErrors.ErrInvalidInput))
			require.Nil(t, backend.regBody)
		})
	}
}

func TestPurgeExpiredPublishesLogout(t *testing.T) {
	store := NewMockStorage()
	m := NewManager(store, &MockBackend{})
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	fixedClock(m, now)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, Session{ID: "s-old", Token: "old", ExpireAt: now.Add(-time.Minute)}))
	require.NoError(t, store.SaveSession(ctx, Session{ID: "s-live", Token: "live", ExpireAt: now.AddDate(0, 1, 0)}))

	var events []Event
	m.Subscribe(func(e Event) { events = append(events, e) })

	n, err := m.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, events, 1)
	require.Equal(t, EventLogout, events[0].Kind)
	require.Equal(t, "s-old", events[0].Session.ID)

	_, err = m.Resolve(ctx, "live")
	require.NoError(t, err)
	_, err = m.Resolve(ctx, "old")
	require.True(t, appErrors.IsCode(err, appErrors.ErrAuth))
}
