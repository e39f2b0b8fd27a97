package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/dashboard"
)

// REQUESTS START:

type SaveUserRequest struct {
	FullName string `json:"name"`
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserLoginRequest struct {
	Login    string `json:"login"`
	UserName string `json:"username"` // accepted when login is empty
	Password string `json:"password"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

//REQUESTS END:

//RESPONSES:

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Message  string    `json:"message"`
	Token    string    `json:"token,omitempty"`
	Name     string    `json:"name,omitempty"`
	ExpireAt time.Time `json:"expireAt,omitempty"`
}

type AccountResponse struct {
	Login    string    `json:"login"`
	Name     string    `json:"name"`
	ExpireAt time.Time `json:"expireAt"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type FieldsResponse struct {
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Fields   any    `json:"fields"`
}

// RESPONSES END:

func errorBody(err error) appErrors.ErrorResponse {
	return appErrors.ErrorResponse{
		Code:    appErrors.CodeOf(err),
		Message: appErrors.MessageOf(err),
	}
}

// ListValidateParams reads q, more and cached of a paginated page request.
func ListValidateParams(params url.Values) (dashboard.ListQuery, error) {
	q := dashboard.ListQuery{Query: strings.TrimSpace(params.Get("q"))}

	var err error
	if q.More, err = boolParam(params, "more"); err != nil {
		return q, err
	}
	if q.Cached, err = boolParam(params, "cached"); err != nil {
		return q, err
	}
	if q.Query != "" && q.More {
		return q, appErrors.New(appErrors.ErrInvalidInput, "more cannot be combined with a search query")
	}
	return q, nil
}

func boolParam(params url.Values, key string) (bool, error) {
	raw := params.Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.New(appErrors.ErrInvalidInput, "invalid %s parameter: %q", key, raw)
	}
	return v, nil
}
