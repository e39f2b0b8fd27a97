package contextutil

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const TraceIDKey contextKey = "traceID"
const Token contextKey = "token"
const SessionIDKey contextKey = "sessionID"

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return "unknown-trace-id"
	}
	return traceID
}

// WithToken stores the upstream bearer token that every backend call attaches.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, Token, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(Token).(string)
	return token
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}
