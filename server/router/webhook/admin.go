package webhook

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/bazaarbot/server/finops"
	apperrors "github.com/hrygo/bazaarbot/server/internal/errors"
	"github.com/hrygo/bazaarbot/server/internal/observability"
	"github.com/hrygo/bazaarbot/server/service/assistant"
	"github.com/hrygo/bazaarbot/server/service/events"
	"github.com/hrygo/bazaarbot/store"
)

const (
	defaultUsageDays  = 7
	defaultUsageLimit = 200
	maxUsageLimit     = 1000
)

type textRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func writeError(c echo.Context, appErr *apperrors.AppError) error {
	return c.JSON(appErr.HTTPStatus(), map[string]string{"error": appErr.Message})
}

func (s *WebhookService) listEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"events": s.Events.List()})
}

func (s *WebhookService) listOrders(c echo.Context) error {
	orders := []store.PendingOrder{}
	if s.Orders != nil {
		orders = s.Orders.List()
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": orders})
}

// listUsage returns recent token accounting rows and their totals.
func (s *WebhookService) listUsage(c echo.Context) error {
	if s.Usage == nil {
		return writeError(c, apperrors.NotConfigured("Usage tracking is not configured."))
	}

	days := positiveQueryInt(c, "days", defaultUsageDays)
	limit := positiveQueryInt(c, "limit", defaultUsageLimit)
	if limit > maxUsageLimit {
		limit = maxUsageLimit
	}
	after := time.Now().AddDate(0, 0, -days).Unix()

	rows, err := s.Usage.ListLLMUsage(c.Request().Context(), &store.FindLLMUsage{
		CreatedAfter: &after,
		Limit:        limit,
	})
	if err != nil {
		slog.Error("failed to list llm usage", "error", err, observability.LogFieldErrorCode, apperrors.ErrCodeInternal)
		return writeError(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to load usage."))
	}
	if rows == nil {
		rows = []*store.LLMUsage{}
	}
	report := finops.BuildUsageReport(days, rows)
	return c.JSON(http.StatusOK, map[string]any{
		"days":     days,
		"usage":    rows,
		"totals":   report.Totals,
		"byModel":  report.ByModel,
		"byOrigin": report.ByOrigin,
	})
}

// runTest pushes text through the full pipeline without a sender.
func (s *WebhookService) runTest(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.InvalidArgument("Provide text to test."))
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return writeError(c, apperrors.InvalidArgument("Provide text to test."))
	}

	rc := observability.NewRequestContext(slog.Default(), SourceAdminTest, "")
	ctx := observability.WithRequestContext(c.Request().Context(), rc)
	result, err := s.handle(ctx, rc, text, assistant.Options{SessionLanguage: req.Language})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Test run failed. Check server logs for details.",
		})
	}

	s.Events.Record(events.Event{
		Source:       SourceAdminTest,
		IncomingText: text,
		Reply:        result.Reply,
		Products:     result.Products,
		Parsed:       result.Parsed,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"reply":    result.Reply,
		"products": result.Products,
		"parsed":   result.Parsed,
	})
}

// classify runs only the classifier, plus a chat reply for conversational messages.
func (s *WebhookService) classify(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.InvalidArgument("Provide text to classify."))
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return writeError(c, apperrors.InvalidArgument("Provide text to classify."))
	}

	rc := observability.NewRequestContext(slog.Default(), SourceAgent, "")
	ctx := c.Request().Context()
	language := s.Assistant.ResolveLanguage(req.Language)
	parsed := s.Assistant.Classify(ctx, text)
	rc.Intent = string(parsed.Intent)

	if parsed.Intent.IsConversational() || parsed.Query == "" {
		reply, err := s.Assistant.Chitchat(ctx, text, nil, language)
		if err != nil {
			rc.Error("classification failed", err, slog.String(observability.LogFieldErrorCode, string(apperrors.ErrCodeClassificationFailed)))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Classification failed"})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"intent":   parsed.Intent,
			"reply":    reply,
			"query":    "",
			"parsed":   parsed,
			"language": language,
		})
	}

	rc.Info("message classified", slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return c.JSON(http.StatusOK, map[string]any{
		"intent":   parsed.Intent,
		"query":    parsed.Query,
		"parsed":   parsed,
		"language": language,
	})
}

func positiveQueryInt(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
