package auth

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
)

const (
	MAX_LENGTH_FULLNAME = 255
	MAX_LENGTH_USERNAME = 255
	MAX_LENGTH_EMAIL    = 255
	MAX_PASSWORD_LENGTH = 72
)

const (
	EventLogin  = "login"
	EventLogout = "logout"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9](\.?[a-zA-Z0-9_%+-])*@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}$`)

// Session is one signed-in gateway client. Token is what the client presents;
// UpstreamToken is the backend bearer token used on its behalf.
type Session struct {
	ID            string    `json:"id"`
	Token         string    `json:"token"`
	UpstreamToken string    `json:"upstreamToken"`
	Login         string    `json:"login"`
	DisplayName   string    `json:"displayName"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpireAt      time.Time `json:"expireAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpireAt.After(now)
}

type Event struct {
	Kind    string
	Session Session
}

type UserCredentialsPure struct {
	Login         string `json:"login"`
	PasswordPlain string `json:"password"`
}

func (c UserCredentialsPure) Validate() error {
	if strings.TrimSpace(c.Login) == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Username or email cannot be empty!",
		}
	}
	if c.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password cannot be empty!",
		}
	}
	return nil
}

type NewUser struct {
	FullName      string `json:"name"`
	UserName      string `json:"username"`
	Email         string `json:"email"`
	PasswordPlain string `json:"password"`
}

func (newUser NewUser) ValidateUserFields() error {
	if newUser.UserName == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Username cannot be empty!",
		}
	}
	if len(newUser.UserName) > MAX_LENGTH_USERNAME {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Username so long, maximum length is %d", MAX_LENGTH_USERNAME),
		}
	}
	if len(newUser.FullName) > MAX_LENGTH_FULLNAME {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Name so long, maximum length is %d", MAX_LENGTH_FULLNAME),
		}
	}
	if newUser.Email == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Email cannot be empty!",
		}
	}
	if !emailRegex.MatchString(newUser.Email) {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Invalid email format, example valid email: john.doe@gmail.com",
		}
	}
	if len(newUser.Email) > MAX_LENGTH_EMAIL {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Email so long, maximum length is %d", MAX_LENGTH_EMAIL),
		}
	}
	if newUser.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password cannot be empty!",
		}
	}
	if len(newUser.PasswordPlain) > MAX_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Password so long, maximum length is %d", MAX_PASSWORD_LENGTH),
		}
	}
	return nil
}

func (newUser NewUser) Payload() map[string]any {
	return map[string]any{
		"name":     newUser.FullName,
		"username": newUser.UserName,
		"email":    newUser.Email,
		"password": newUser.PasswordPlain,
	}
}
