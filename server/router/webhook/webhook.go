// Package webhook serves the WhatsApp webhook and the admin endpoints that
// inspect recent traffic, pending orders and model usage.
package webhook

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/plugin/ai/session"
	"github.com/hrygo/bazaarbot/plugin/ai/timeout"
	"github.com/hrygo/bazaarbot/plugin/whatsapp"
	"github.com/hrygo/bazaarbot/server/internal/observability"
	ratelimit "github.com/hrygo/bazaarbot/server/middleware"
	"github.com/hrygo/bazaarbot/server/service/assistant"
	"github.com/hrygo/bazaarbot/server/service/events"
	"github.com/hrygo/bazaarbot/store"
)

const (
	SourceWebhook   = "webhook"
	SourceAdminTest = "admin-test"
	SourceAgent     = "agent"

	defaultMaxConcurrentReplies = 8
)

// Assistant is the part of the orchestrator the routes use.
type Assistant interface {
	Handle(ctx context.Context, text string, opts assistant.Options) (*assistant.Result, error)
	Classify(ctx context.Context, text string) *classifier.ParsedIntent
	Chitchat(ctx context.Context, text string, history []session.Turn, language string) (string, error)
	ResolveLanguage(requested string) string
}

// OrderLister returns the pending orders captured this process.
type OrderLister interface {
	List() []store.PendingOrder
}

// UsageLister reads persisted token accounting.
type UsageLister interface {
	ListLLMUsage(ctx context.Context, find *store.FindLLMUsage) ([]*store.LLMUsage, error)
}

// WebhookService holds the route dependencies. Sender and Usage may be nil.
type WebhookService struct {
	Profile   *profile.Profile
	Assistant Assistant
	Events    *events.Ring
	Orders    OrderLister
	Usage     UsageLister
	Sender    whatsapp.Sender
	Limiter   *ratelimit.RateLimiter

	// replySemaphore bounds the number of messages handled at once.
	replySemaphore *semaphore.Weighted
}

// NewWebhookService creates the service. A nil limiter uses the default per-sender rate.
func NewWebhookService(p *profile.Profile, a Assistant, ring *events.Ring, orders OrderLister) *WebhookService {
	limit := p.MaxConcurrentReplies
	if limit <= 0 {
		limit = defaultMaxConcurrentReplies
	}
	if ring == nil {
		ring = events.NewRing(events.DefaultCapacity)
	}
	return &WebhookService{
		Profile:        p,
		Assistant:      a,
		Events:         ring,
		Orders:         orders,
		Limiter:        ratelimit.NewRateLimiter(0, 0),
		replySemaphore: semaphore.NewWeighted(int64(limit)),
	}
}

// Register mounts every route on the echo instance.
func (s *WebhookService) Register(echoServer *echo.Echo) {
	echoServer.Use(requestMetrics)

	echoServer.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	echoServer.GET("/metrics", echo.WrapHandler(observability.Handler()))

	echoServer.GET("/webhook", s.verifyWebhook)
	echoServer.POST("/webhook", s.receiveWebhook)

	adminGroup := echoServer.Group("/api")
	adminGroup.Use(middleware.CORS())
	adminGroup.GET("/events", s.listEvents)
	adminGroup.GET("/orders", s.listOrders)
	adminGroup.GET("/usage", s.listUsage)
	adminGroup.POST("/test", s.runTest)

	agentGroup := echoServer.Group("/agent")
	agentGroup.Use(middleware.CORS())
	agentGroup.POST("/classify", s.classify)
}

// requestMetrics counts every request by matched route and final status.
func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordRequest(route, status)
		return err
	}
}

// acquire waits for a reply slot. The returned release is a no-op when acquisition failed.
func (s *WebhookService) acquire(ctx context.Context) (func(), error) {
	if err := s.replySemaphore.Acquire(ctx, 1); err != nil {
		return func() {}, err
	}
	observability.InFlightReplies.Inc()
	return func() {
		observability.InFlightReplies.Dec()
		s.replySemaphore.Release(1)
	}, nil
}

// deliver sends reply through the WhatsApp API. Failures are logged only.
func (s *WebhookService) deliver(ctx context.Context, rc *observability.RequestContext, to, reply string) {
	if s.Sender == nil || to == "" || reply == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.SendTimeout)
	defer cancel()
	if err := s.Sender.SendText(sendCtx, to, reply); err != nil {
		rc.Error("failed to deliver whatsapp reply", err)
		return
	}
	rc.Info("whatsapp reply delivered", slog.Int(observability.LogFieldMessageLen, len(reply)))
}
