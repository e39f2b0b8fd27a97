package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const HeaderRequestID = "X-Request-ID"

type ctxKey string

const sessionKey ctxKey = "session"

func sessionFromContext(ctx context.Context) (auth.Session, bool) {
	s, ok := ctx.Value(sessionKey).(auth.Session)
	return s, ok
}

// Trace gives every request a trace id, taken from X-Request-ID when the caller sent one.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if traceID == "" {
			traceID = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, traceID)
		next.ServeHTTP(w, r.WithContext(contextutil.WithTraceID(r.Context(), traceID)))
	})
}

// RequestLogger logs one line per request with its status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.FromContext(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request served")
	})
}

func bearerToken(h http.Header) string {
	token := strings.TrimSpace(h.Get("Authorization"))
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// RequireSession resolves the gateway token and attaches the upstream token and the
// session id to the request context.
func (api *Api) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header)
		if token == "" {
			writeError(w, appErrors.ErrorResponse{
				Code:    appErrors.ErrAuth,
				Message: "authorization failed: Authorization header is required.",
			})
			return
		}

		session, err := api.Auth.Resolve(r.Context(), token)
		if err != nil {
			traceID := contextutil.TraceIDFromContext(r.Context())
			logging.Logger.Warnf("[TraceID=%s] | failed to resolve session in Api.RequireSession() function | Error: %v", traceID, err)
			writeError(w, err)
			return
		}

		ctx := contextutil.WithToken(r.Context(), session.UpstreamToken)
		ctx = contextutil.WithSessionID(ctx, session.ID)
		ctx = context.WithValue(ctx, sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeError is the plain handler counterpart of respondError.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErrors.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(errorBody(err))
}
