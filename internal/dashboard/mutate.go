package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/internal/upstream"
	"github.com/fatali-fataliyev/intelliwealth/internal/view"
	"github.com/fatali-fataliyev/intelliwealth/logging"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var resourceLabels = map[upstream.Resource]string{
	upstream.Transactions:  "Transaction",
	upstream.Budgets:       "Budget",
	upstream.Goals:         "Goal",
	upstream.Subscriptions: "Subscription",
	upstream.Assets:        "Asset",
	upstream.Debts:         "Debt",
	upstream.Insurance:     "Policy",
}

var attributeKinds = map[upstream.Resource]string{
	upstream.Assets:    finance.KindAsset,
	upstream.Debts:     finance.KindDebt,
	upstream.Insurance: finance.KindInsurance,
}

type MutationResult struct {
	Notification view.Notification `json:"notification"`
	Notices      []view.Notice     `json:"notices"`
}

// Mutate creates, updates or deletes one item, then reloads page 0 and the stats of a
// paginated resource so the totals come from the server.
func (s *Service) Mutate(ctx context.Context, sessionID string, r upstream.Resource, op Op, id string, body map[string]any) (MutationResult, error) {
	traceID := contextutil.TraceIDFromContext(ctx)
	label := resourceLabels[r]

	var err error
	switch op {
	case OpCreate:
		err = s.backend.Create(ctx, r, prepareBody(r, body))
	case OpUpdate:
		err = s.backend.Update(ctx, r, id, prepareBody(r, body))
	case OpDelete:
		err = s.backend.Delete(ctx, r, id)
	default:
		return MutationResult{}, appErrors.New(appErrors.ErrInvalidInput, "unknown operation %q", op)
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to %s %s in Service.Mutate() function | Error: %v", traceID, op, r, err)
		return MutationResult{
			Notification: view.Notification{Level: view.LevelError, Message: failureMessage(err, op, label)},
			Notices:      []view.Notice{},
		}, fmt.Errorf("failed to %s %s: %w", op, r, err)
	}

	return MutationResult{
		Notification: view.Notification{Level: view.LevelSuccess, Message: successMessage(op, label)},
		Notices:      s.reloadResource(ctx, sessionID, r),
	}, nil
}

// DeleteAllGoals clears every goal and reloads the goals page.
func (s *Service) DeleteAllGoals(ctx context.Context, sessionID string) (MutationResult, error) {
	if err := s.backend.DeleteAllGoals(ctx); err != nil {
		return MutationResult{
			Notification: view.Notification{Level: view.LevelError, Message: "Failed to delete goals"},
			Notices:      []view.Notice{},
		}, fmt.Errorf("failed to delete all goals: %w", err)
	}
	return MutationResult{
		Notification: view.Notification{Level: view.LevelSuccess, Message: "All goals deleted"},
		Notices:      s.reloadResource(ctx, sessionID, upstream.Goals),
	}, nil
}

func (s *Service) reloadResource(ctx context.Context, sessionID string, r upstream.Resource) []view.Notice {
	ws := s.Workspace(sessionID)
	var report view.Report
	switch r {
	case upstream.Budgets:
		report = ws.budgets.reload(ctx)
	case upstream.Goals:
		report = ws.goals.reload(ctx)
	case upstream.Subscriptions:
		report = ws.subscriptions.reload(ctx)
	default:
		// Unpaginated pages are rebuilt on their next read.
	}
	return report.Notices()
}

// prepareBody drops attribute keys the item's category does not define.
func prepareBody(r upstream.Resource, body map[string]any) map[string]any {
	kind, ok := attributeKinds[r]
	if !ok || body == nil {
		return body
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = v
	}
	category := strings.ToUpper(finance.Record(body).Str("category"))
	if category != "" {
		out["category"] = category
	}
	attrs, _ := body["attributes"].(map[string]any)
	out["attributes"] = finance.PruneAttributes(kind, category, attrs)
	if r == upstream.Assets && category != "" {
		out["mainCategory"] = finance.MainCategory(category)
	}
	return out
}

func successMessage(op Op, label string) string {
	switch op {
	case OpCreate:
		return label + " added"
	case OpUpdate:
		return label + " updated"
	default:
		return label + " deleted"
	}
}

func failureMessage(err error, op Op, label string) string {
	var appErr appErrors.ErrorResponse
	if errors.As(err, &appErr) && appErr.Explicit {
		return appErr.Message
	}
	if op == OpDelete {
		return "Failed to delete " + strings.ToLower(label)
	}
	return "Failed to save " + strings.ToLower(label)
}

// Export relays the PDF report of r. The caller closes the stream.
func (s *Service) Export(ctx context.Context, r upstream.Resource) (io.ReadCloser, string, error) {
	body, err := s.backend.ExportPDF(ctx, r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export %s: %w", r, err)
	}
	return body, fmt.Sprintf("%s_%d.pdf", r.ExportName(), s.now().UnixMilli()), nil
}
