package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"filippo.io/age"
	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
)

const (
	sessionFile          = "session.json"
	encryptedSessionFile = "session.json.age"
)

type fileState struct {
	Current  string                  `json:"current"`
	Sessions map[string]auth.Session `json:"sessions"`
}

// FileStorage keeps terminal client sessions in one JSON file under dir. With a passphrase
// the file is age-encrypted with a scrypt recipient.
type FileStorage struct {
	mu         sync.Mutex
	path       string
	identity   *age.ScryptIdentity
	recipient  *age.ScryptRecipient
	workFactor int
}

type FileOption func(*FileStorage)

// WithWorkFactor sets the scrypt work factor used when encrypting. Lower is faster.
func WithWorkFactor(logN int) FileOption {
	return func(f *FileStorage) { f.workFactor = logN }
}

func NewFileStorage(dir, passphrase string, opts ...FileOption) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	f := &FileStorage{path: filepath.Join(dir, sessionFile)}
	for _, opt := range opts {
		opt(f)
	}
	if passphrase == "" {
		return f, nil
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipient: %w", err)
	}
	if f.workFactor > 0 {
		recipient.SetWorkFactor(f.workFactor)
	}
	f.path = filepath.Join(dir, encryptedSessionFile)
	f.identity, f.recipient = identity, recipient
	return f, nil
}

func (f *FileStorage) GetStorageType() string {
	if f.recipient != nil {
		return "file+age"
	}
	return "file"
}

func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) load() (fileState, error) {
	state := fileState{Sessions: map[string]auth.Session{}}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to read session file: %w", err)
	}

	if f.identity != nil {
		r, err := age.Decrypt(bytes.NewReader(data), f.identity)
		if err != nil {
			return state, appErrors.New(appErrors.ErrAuth, "Cannot unlock session file, wrong passphrase?")
		}
		if data, err = io.ReadAll(r); err != nil {
			return state, fmt.Errorf("failed to decrypt session file: %w", err)
		}
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to parse session file: %w", err)
	}
	if state.Sessions == nil {
		state.Sessions = map[string]auth.Session{}
	}
	return state, nil
}

func (f *FileStorage) save(state fileState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	if f.recipient != nil {
		var buf bytes.Buffer
		w, err := age.Encrypt(&buf, f.recipient)
		if err != nil {
			return fmt.Errorf("failed to encrypt session file: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to encrypt session file: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to encrypt session file: %w", err)
		}
		data = buf.Bytes()
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// SaveSession stores session and makes it the current one.
func (f *FileStorage) SaveSession(ctx context.Context, session auth.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.load()
	if err != nil {
		return err
	}
	state.Sessions[session.Token] = session
	state.Current = session.Token
	return f.save(state)
}

func (f *FileStorage) GetSessionByToken(ctx context.Context, token string) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.load()
	if err != nil {
		return auth.Session{}, err
	}
	session, ok := state.Sessions[token]
	if !ok {
		return auth.Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: auth.MsgSessionNotFound,
		}
	}
	return session, nil
}

func (f *FileStorage) UpdateSession(ctx context.Context, sessionID string, expireAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.load()
	if err != nil {
		return err
	}
	for token, session := range state.Sessions {
		if session.ID == sessionID {
			session.ExpireAt = expireAt
			state.Sessions[token] = session
			return f.save(state)
		}
	}
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: auth.MsgSessionNotFound,
	}
}

func (f *FileStorage) DeleteSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.load()
	if err != nil {
		return err
	}
	delete(state.Sessions, token)
	if state.Current == token {
		state.Current = ""
	}
	return f.save(state)
}

// CurrentToken returns the token of the last saved session, or "" when signed out.
func (f *FileStorage) CurrentToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.load()
	if err != nil {
		return "", err
	}
	return state.Current, nil
}
