package customErrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	ErrNotFound     = "NOT FOUND"
	ErrInvalidInput = "INVALID INPUT"
	ErrAuth         = "UNAUTHORIZED"
	ErrAccessDenied = "ACCESS DENIED"
	ErrConflict     = "CONFLICT"
	ErrTransport    = "TRANSPORT"
	ErrMalformed    = "MALFORMED"
	ErrInternal     = "INTERNAL"
)

type ErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"-"` // upstream HTTP status, 0 when the call never got a response
	Explicit bool   `json:"-"` // Message came from a JSON message/error field of the upstream body
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

// Is matches any ErrorResponse carrying the same code, so
// errors.Is(err, customErrors.ErrorResponse{Code: customErrors.ErrAuth}) works through wrapping.
func (e ErrorResponse) Is(target error) bool {
	t, ok := target.(ErrorResponse)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code string, format string, args ...any) error {
	return ErrorResponse{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsCode reports whether any error in err's chain is an ErrorResponse with the given code.
func IsCode(err error, code string) bool {
	return errors.Is(err, ErrorResponse{Code: code})
}

// CodeOf returns the code of the first ErrorResponse in err's chain, ErrInternal otherwise.
func CodeOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// MessageOf returns the human message of the first ErrorResponse in err's chain.
func MessageOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrAuth:
		return http.StatusUnauthorized
	case ErrAccessDenied:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrTransport, ErrMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus classifies a non-2xx upstream response. The message is taken from a JSON
// "message" or "error" field when the body has one, otherwise from the raw body text.
func FromStatus(status int, body []byte) ErrorResponse {
	resp := ErrorResponse{
		Status:   status,
		Message:  bodyMessage(body),
		Explicit: HasBodyMessage(body),
	}
	switch {
	case status == http.StatusUnauthorized:
		resp.Code = ErrAuth
	case status == http.StatusForbidden:
		resp.Code = ErrAccessDenied
	case status == http.StatusNotFound:
		resp.Code = ErrNotFound
	case status == http.StatusConflict:
		resp.Code = ErrConflict
	case status >= 400 && status < 500:
		resp.Code = ErrInvalidInput
	default:
		resp.Code = ErrInternal
	}
	if resp.Message == "" {
		resp.Message = http.StatusText(status)
	}
	return resp
}

// HasBodyMessage reports whether FromStatus found an explicit message in the upstream body.
func HasBodyMessage(body []byte) bool {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Message != "" || payload.Error != ""
}

func bodyMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}
