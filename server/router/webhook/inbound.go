package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/plugin/ai/timeout"
	apperrors "github.com/hrygo/bazaarbot/server/internal/errors"
	"github.com/hrygo/bazaarbot/server/internal/observability"
	"github.com/hrygo/bazaarbot/server/retrieval"
	"github.com/hrygo/bazaarbot/server/service/assistant"
	"github.com/hrygo/bazaarbot/server/service/events"
)

const (
	RateLimitedReply = "You are sending messages too quickly. Please wait a moment and try again."

	maxPayloadBytes = 1 << 20
)

// inboundPayload accepts the Meta webhook envelope and two flat test shapes.
type inboundPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
	Text string `json:"text"`
	From string `json:"from"`
}

// inboundMessage is the sender and body of one message.
type inboundMessage struct {
	From string
	Text string
}

// parseInbound extracts the first message. Undecodable bodies yield an empty message.
func parseInbound(body io.Reader) inboundMessage {
	var payload inboundPayload
	if err := json.NewDecoder(io.LimitReader(body, maxPayloadBytes)).Decode(&payload); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Warn("failed to decode webhook payload", "error", err)
		}
		return inboundMessage{}
	}

	var msg inboundMessage
	if len(payload.Entry) > 0 && len(payload.Entry[0].Changes) > 0 {
		if messages := payload.Entry[0].Changes[0].Value.Messages; len(messages) > 0 {
			msg.Text = messages[0].Text.Body
			msg.From = messages[0].From
		}
	}
	if msg.Text == "" && payload.Message != nil {
		msg.Text = payload.Message.Text
	}
	if msg.Text == "" {
		msg.Text = payload.Text
	}
	if msg.From == "" {
		msg.From = payload.From
	}
	msg.Text = strings.TrimSpace(msg.Text)
	msg.From = strings.TrimSpace(msg.From)
	return msg
}

// verifyWebhook answers the Meta subscription handshake.
func (s *WebhookService) verifyWebhook(c echo.Context) error {
	token := s.Profile.WhatsAppVerifyToken
	if token == "" {
		appErr := apperrors.NotConfigured("Verification token not configured")
		slog.Error("webhook verification attempted without a token", observability.LogFieldErrorCode, appErr.Code)
		return c.String(appErr.HTTPStatus(), appErr.Message)
	}

	mode := c.QueryParam("hub.mode")
	verifyToken := c.QueryParam("hub.verify_token")
	if mode == "subscribe" && verifyToken == token {
		return c.String(http.StatusOK, c.QueryParam("hub.challenge"))
	}

	appErr := apperrors.Unauthorized("Verification failed")
	slog.Warn("webhook verification failed", "mode", mode, observability.LogFieldErrorCode, appErr.Code)
	return c.String(appErr.HTTPStatus(), appErr.Message)
}

// receiveWebhook handles one inbound message. It always answers 200 so Meta
// does not retry; failures are reported in the reply text.
func (s *WebhookService) receiveWebhook(c echo.Context) error {
	msg := parseInbound(c.Request().Body)
	rc := observability.NewRequestContext(slog.Default(), SourceWebhook, msg.From)
	ctx := observability.WithRequestContext(c.Request().Context(), rc)

	if msg.Text == "" {
		s.Events.Record(events.Event{
			Source: SourceWebhook,
			From:   msg.From,
			Reply:  assistant.GreetingReply,
			Parsed: &classifier.ParsedIntent{Intent: classifier.IntentSearch},
		})
		return c.JSON(http.StatusOK, map[string]any{"reply": assistant.GreetingReply})
	}

	if msg.From != "" && s.Limiter != nil && !s.Limiter.Allow(msg.From) {
		observability.RateLimited.Inc()
		appErr := apperrors.RateLimited("sender exceeded message rate")
		rc.Warn("sender rate limited", slog.String(observability.LogFieldErrorCode, string(appErr.Code)))
		s.Events.Record(events.Event{
			Source:       SourceWebhook,
			IncomingText: msg.Text,
			From:         msg.From,
			Reply:        RateLimitedReply,
			Error:        appErr.Error(),
		})
		return c.JSON(http.StatusOK, map[string]any{"reply": RateLimitedReply})
	}

	result, err := s.handle(ctx, rc, msg.Text, assistant.Options{UserID: msg.From})
	if err != nil {
		s.Events.Record(events.Event{
			Source:       SourceWebhook,
			IncomingText: msg.Text,
			From:         msg.From,
			Reply:        assistant.ApologyReply,
			Error:        err.Error(),
		})
		s.deliver(ctx, rc, msg.From, assistant.ApologyReply)
		return c.JSON(http.StatusOK, map[string]any{"reply": assistant.ApologyReply})
	}

	s.Events.Record(events.Event{
		Source:       SourceWebhook,
		IncomingText: msg.Text,
		From:         msg.From,
		Reply:        result.Reply,
		Products:     result.Products,
		Parsed:       result.Parsed,
	})
	s.deliver(ctx, rc, msg.From, result.Reply)
	return c.JSON(http.StatusOK, map[string]any{
		"reply":    result.Reply,
		"products": result.Products,
	})
}

// handle runs the assistant inside a reply slot and logs the outcome.
func (s *WebhookService) handle(ctx context.Context, rc *observability.RequestContext, text string, opts assistant.Options) (*assistant.Result, error) {
	release, err := s.acquire(ctx)
	defer release()
	if err != nil {
		rc.Error("no reply slot available", err)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "no reply slot available")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ReplyTimeout)
	defer cancel()
	result, err := s.Assistant.Handle(ctx, text, opts)
	if err != nil {
		code := errorCode(err)
		rc.Error("failed to handle message", err,
			slog.String(observability.LogFieldErrorCode, string(code)),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		return nil, apperrors.Wrap(err, code, "failed to handle message")
	}

	rc.Intent = string(result.Parsed.Intent)
	rc.Info("message handled",
		slog.String("branch", result.Branch),
		slog.Int("products", len(result.Products)),
		slog.Int(observability.LogFieldMessageLen, len(text)),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return result, nil
}

func errorCode(err error) apperrors.ErrorCode {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		return apperrors.ErrCodeInvalidArgument
	case ai.IsProviderError(err):
		return apperrors.ErrCodeProviderError
	case retrieval.IsRetrievalError(err):
		return apperrors.ErrCodeRetrievalFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrCodeInternal
	default:
		return apperrors.GetCodeFromError(err, apperrors.ErrCodePersistenceFailed)
	}
}
