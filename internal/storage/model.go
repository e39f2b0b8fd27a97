package storage

import (
	"time"

	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
)

type dbSession struct {
	ID            string
	Token         string
	UpstreamToken string // sealed
	Login         string
	DisplayName   string
	CreatedAt     time.Time
	ExpireAt      time.Time
}

func (s dbSession) toSession(upstreamToken string) auth.Session {
	return auth.Session{
		ID:            s.ID,
		Token:         s.Token,
		UpstreamToken: upstreamToken,
		Login:         s.Login,
		DisplayName:   s.DisplayName,
		CreatedAt:     s.CreatedAt.UTC(),
		ExpireAt:      s.ExpireAt.UTC(),
	}
}
