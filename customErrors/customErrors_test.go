package customErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{name: "unauthorized with json message", status: 401, body: `{"message":"Bad credentials"}`, wantCode: ErrAuth, wantMessage: "Bad credentials"},
		{name: "unauthorized empty body", status: 401, body: ``, wantCode: ErrAuth, wantMessage: "Unauthorized"},
		{name: "validation error field", status: 422, body: `{"error":"amount must be positive"}`, wantCode: ErrInvalidInput, wantMessage: "amount must be positive"},
		{name: "not found plain text", status: 404, body: "no such goal", wantCode: ErrNotFound, wantMessage: "no such goal"},
		{name: "conflict", status: 409, body: `{}`, wantCode: ErrConflict, wantMessage: "Conflict"},
		{name: "forbidden", status: 403, body: ``, wantCode: ErrAccessDenied, wantMessage: "Forbidden"},
		{name: "server error", status: 500, body: `{"message":"boom"}`, wantCode: ErrInternal, wantMessage: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromStatus(tt.status, []byte(tt.body))
			require.Equal(t, tt.wantCode, got.Code)
			require.Equal(t, tt.wantMessage, got.Message)
			require.Equal(t, tt.status, got.Status)
		})
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("failed to load goals: %w", ErrorResponse{Code: ErrAuth, Message: "expired"})

	require.True(t, IsCode(err, ErrAuth))
	require.False(t, IsCode(err, ErrNotFound))
	require.True(t, errors.Is(err, ErrorResponse{Code: ErrAuth}))
	require.Equal(t, ErrAuth, CodeOf(err))
	require.Equal(t, "expired", MessageOf(err))
	require.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestHTTPStatusDefaults(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(New(ErrTransport, "dial tcp: refused")))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(New(ErrMalformed, "unexpected shape")))
	require.Equal(t, ErrInternal, CodeOf(errors.New("plain")))
}

func TestHasBodyMessage(t *testing.T) {
	require.True(t, HasBodyMessage([]byte(`{"message":"x"}`)))
	require.False(t, HasBodyMessage([]byte(`{}`)))
	require.False(t, HasBodyMessage([]byte(`not json`)))
}
