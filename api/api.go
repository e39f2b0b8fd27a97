package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/internal/dashboard"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/fatali-fataliyev/intelliwealth/logging"
	"github.com/go-chi/chi/v5"
)

type Api struct {
	Auth    *auth.Manager
	Service *dashboard.Service
}

func NewApi(authManager *auth.Manager, service *dashboard.Service) *Api {
	return &Api{
		Auth:    authManager,
		Service: service,
	}
}

func respondError(err error) iz.Responder {
	return iz.Respond().Status(appErrors.HTTPStatus(err)).JSON(errorBody(err))
}

func urlParam(ctx context.Context, key string) string {
	rctx := chi.RouteContext(ctx)
	if rctx == nil {
		return ""
	}
	return rctx.URLParam(key)
}

func resourceParam(ctx context.Context) (upstream.Resource, error) {
	return upstream.ParseResource(urlParam(ctx, "resource"))
}

// --- SESSION --- //

func (api *Api) SaveUserHandler(r *iz.Request) iz.Responder {
	var newUserReq SaveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&newUserReq); err != nil {
		return respondError(appErrors.New(appErrors.ErrInvalidInput, "invalid request body: %s", err.Error()))
	}

	newUser := auth.NewUser{
		FullName:      newUserReq.FullName,
		UserName:      newUserReq.UserName,
		Email:         newUserReq.Email,
		PasswordPlain: newUserReq.Password,
	}
	if err := api.Auth.Register(r.Context(), newUser); err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(201).JSON(MessageResponse{Message: "Registration Completed"})
}

func (api *Api) LoginUserHandler(r *iz.Request) iz.Responder {
	var loginRequest UserLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		return respondError(appErrors.New(appErrors.ErrInvalidInput, "invalid request body"))
	}

	login := loginRequest.Login
	if login == "" {
		login = loginRequest.UserName
	}
	credentials := auth.UserCredentialsPure{
		Login:         login,
		PasswordPlain: loginRequest.Password,
	}

	session, err := api.Auth.Login(r.Context(), credentials)
	if err != nil {
		return iz.Respond().Status(appErrors.HTTPStatus(err)).JSON(LoginResponse{Message: appErrors.MessageOf(err)})
	}
	return iz.Respond().Status(200).JSON(LoginResponse{
		Message:  "You've logged in successfully!",
		Token:    session.Token,
		Name:     session.DisplayName,
		ExpireAt: session.ExpireAt,
	})
}

func (api *Api) LogoutUserHandler(r *iz.Request) iz.Responder {
	if err := api.Auth.Logout(r.Context(), bearerToken(r.Header)); err != nil {
		return respondError(fmt.Errorf("logout failed: %w", err))
	}
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "Logout successful."})
}

func (api *Api) GetAccountInfo(r *iz.Request) iz.Responder {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		return respondError(appErrors.New(appErrors.ErrAuth, auth.MsgSessionNotFound))
	}
	return iz.Respond().Status(200).JSON(AccountResponse{
		Login:    session.Login,
		Name:     session.DisplayName,
		ExpireAt: session.ExpireAt,
	})
}

func (api *Api) HealthHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).JSON(HealthResponse{Status: "ok", Storage: api.Auth.StorageType()})
}

// --- PAGES --- //

func (api *Api) DashboardHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).JSON(api.Service.Dashboard(r.Context()))
}

func (api *Api) TransactionsHandler(r *iz.Request) iz.Responder {
	sessionID := contextutil.SessionIDFromContext(r.Context())
	v, err := api.Service.Transactions(r.Context(), sessionID, r.URL.Query().Get("keyword"))
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(v)
}

func (api *Api) BudgetsHandler(r *iz.Request) iz.Responder {
	q, err := ListValidateParams(r.URL.Query())
	if err != nil {
		return respondError(err)
	}
	sessionID := contextutil.SessionIDFromContext(r.Context())
	return iz.Respond().Status(200).JSON(api.Service.Budgets(r.Context(), sessionID, q))
}

func (api *Api) GoalsHandler(r *iz.Request) iz.Responder {
	q, err := ListValidateParams(r.URL.Query())
	if err != nil {
		return respondError(err)
	}
	page, err := api.Service.Goals(r.Context(), contextutil.SessionIDFromContext(r.Context()), q)
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(page)
}

func (api *Api) SubscriptionsHandler(r *iz.Request) iz.Responder {
	q, err := ListValidateParams(r.URL.Query())
	if err != nil {
		return respondError(err)
	}
	page, err := api.Service.Subscriptions(r.Context(), contextutil.SessionIDFromContext(r.Context()), q)
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(page)
}

// ToggleSubscriptionHandler answers with the page even when the toggle was rolled back, so
// the client can render the restored list and the failure notification.
func (api *Api) ToggleSubscriptionHandler(r *iz.Request) iz.Responder {
	id := urlParam(r.Context(), "id")
	page, _, err := api.Service.ToggleSubscription(r.Context(), contextutil.SessionIDFromContext(r.Context()), id)
	if err != nil {
		return iz.Respond().Status(appErrors.HTTPStatus(err)).JSON(page)
	}
	return iz.Respond().Status(200).JSON(page)
}

func (api *Api) AssetsHandler(r *iz.Request) iz.Responder {
	v, err := api.Service.Assets(r.Context())
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(v)
}

func (api *Api) DebtsHandler(r *iz.Request) iz.Responder {
	v, err := api.Service.Debts(r.Context())
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(v)
}

func (api *Api) NetWorthHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).JSON(api.Service.NetWorth(r.Context()))
}

func (api *Api) InsuranceHandler(r *iz.Request) iz.Responder {
	v, err := api.Service.Insurance(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(v)
}

func (api *Api) ContingencyHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(200).JSON(api.Service.Contingency(r.Context()))
}

func (api *Api) FormFieldsHandler(r *iz.Request) iz.Responder {
	kind := strings.ToLower(urlParam(r.Context(), "kind"))
	category := strings.ToUpper(urlParam(r.Context(), "category"))
	fields, ok := finance.FieldsFor(kind, category)
	if !ok {
		return respondError(appErrors.New(appErrors.ErrNotFound, "No form fields for %q", kind))
	}
	if fields == nil {
		fields = []finance.Field{}
	}
	return iz.Respond().Status(200).JSON(FieldsResponse{Kind: kind, Category: category, Fields: fields})
}

// --- MUTATIONS --- //

func (api *Api) mutate(r *iz.Request, op dashboard.Op) iz.Responder {
	resource, err := resourceParam(r.Context())
	if err != nil {
		return respondError(err)
	}

	var body map[string]any
	if op != dashboard.OpDelete {
		v, err := finance.Decode(r.Body)
		if err != nil {
			return respondError(appErrors.New(appErrors.ErrInvalidInput, "invalid request body"))
		}
		if body, _ = v.(map[string]any); body == nil {
			return respondError(appErrors.New(appErrors.ErrInvalidInput, "request body must be a JSON object"))
		}
	}

	sessionID := contextutil.SessionIDFromContext(r.Context())
	res, err := api.Service.Mutate(r.Context(), sessionID, resource, op, urlParam(r.Context(), "id"), body)
	if err != nil {
		return iz.Respond().Status(appErrors.HTTPStatus(err)).JSON(res)
	}
	status := 200
	if op == dashboard.OpCreate {
		status = 201
	}
	return iz.Respond().Status(status).JSON(res)
}

func (api *Api) CreateHandler(r *iz.Request) iz.Responder {
	return api.mutate(r, dashboard.OpCreate)
}

func (api *Api) UpdateHandler(r *iz.Request) iz.Responder {
	return api.mutate(r, dashboard.OpUpdate)
}

func (api *Api) DeleteHandler(r *iz.Request) iz.Responder {
	return api.mutate(r, dashboard.OpDelete)
}

func (api *Api) DeleteAllGoalsHandler(r *iz.Request) iz.Responder {
	res, err := api.Service.DeleteAllGoals(r.Context(), contextutil.SessionIDFromContext(r.Context()))
	if err != nil {
		return iz.Respond().Status(appErrors.HTTPStatus(err)).JSON(res)
	}
	return iz.Respond().Status(200).JSON(res)
}

// --- CHAT --- //

func (api *Api) ChatHandler(r *iz.Request) iz.Responder {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return respondError(appErrors.New(appErrors.ErrInvalidInput, "invalid request body"))
	}
	v, err := api.Service.SendChat(r.Context(), contextutil.SessionIDFromContext(r.Context()), req.Message)
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrInvalidInput) || appErrors.IsCode(err, appErrors.ErrConflict) {
			return respondError(err)
		}
		// The transcript already carries the system error message.
		return iz.Respond().Status(appErrors.HTTPStatus(err)).JSON(v)
	}
	return iz.Respond().Status(200).JSON(v)
}

func (api *Api) NewChatHandler(r *iz.Request) iz.Responder {
	api.Service.NewChat(contextutil.SessionIDFromContext(r.Context()))
	return iz.Respond().Status(200).JSON(MessageResponse{Message: "New chat started"})
}

func (api *Api) ChatSessionsHandler(r *iz.Request) iz.Responder {
	sessions, err := api.Service.ChatSessions(r.Context())
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(sessions)
}

func (api *Api) ConversationHandler(r *iz.Request) iz.Responder {
	v, err := api.Service.OpenConversation(r.Context(), contextutil.SessionIDFromContext(r.Context()), urlParam(r.Context(), "id"))
	if err != nil {
		return respondError(err)
	}
	return iz.Respond().Status(200).JSON(v)
}

// --- REPORTS --- //

// ExportHandler streams the backend PDF straight through to the client.
func (api *Api) ExportHandler(w http.ResponseWriter, r *http.Request) {
	resource, err := resourceParam(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	body, fileName, err := api.Service.Export(r.Context(), resource)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		traceID := contextutil.TraceIDFromContext(r.Context())
		logging.Logger.Errorf("[TraceID=%s] | failed to stream report in Api.ExportHandler() function | Error: %v", traceID, err)
	}
}
