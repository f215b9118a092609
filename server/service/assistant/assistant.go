// Package assistant turns one inbound shopping message into a reply.
//
// Each message is classified, routed to the order, chat, availability or
// search branch, and the user/assistant pair is appended to the sender's
// conversation. Failures in classification, retrieval and persistence are
// recovered locally so the shopper always gets a reply.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/plugin/ai"
	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/plugin/ai/expander"
	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
	"github.com/hrygo/bazaarbot/plugin/ai/session"
	"github.com/hrygo/bazaarbot/server/retrieval"
	"github.com/hrygo/bazaarbot/server/service/order"
	"github.com/hrygo/bazaarbot/store"
)

const (
	BranchOrder        = "order"
	BranchChitchat     = "chitchat"
	BranchAvailability = "availability"
	BranchSearch       = "search"

	// AnonymousUser is used when the caller has no sender id.
	AnonymousUser = "anonymous"

	unspecifiedItem = "unspecified item"
)

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("message text is empty")

// Config wires the collaborators. Classifier and Searcher are required;
// the rest may be nil.
type Config struct {
	Classifier classifier.Classifier
	Expander   expander.Expander
	Embedder   ai.EmbeddingService
	Searcher   retrieval.Searcher
	LLM        ai.LLMService
	Contexts   session.ContextStore
	Orders     order.Sink

	Policy session.Policy
	// Language is the default session language.
	Language string
}

// Service is the conversation orchestrator.
type Service struct {
	classifier classifier.Classifier
	expander   expander.Expander
	embedder   ai.EmbeddingService
	searcher   retrieval.Searcher
	llm        ai.LLMService
	contexts   session.ContextStore
	orders     order.Sink
	policy     session.Policy
	language   string
}

// NewService creates the orchestrator.
func NewService(cfg Config) *Service {
	s := &Service{
		classifier: cfg.Classifier,
		expander:   cfg.Expander,
		embedder:   cfg.Embedder,
		searcher:   cfg.Searcher,
		llm:        cfg.LLM,
		contexts:   cfg.Contexts,
		orders:     cfg.Orders,
		policy:     cfg.Policy,
		language:   strings.TrimSpace(cfg.Language),
	}
	if s.expander == nil {
		s.expander = expander.NewService(nil)
	}
	if s.contexts == nil {
		s.contexts = session.NewContextStore(nil)
	}
	if s.orders == nil {
		s.orders = order.NewLog(nil, 0)
	}
	if s.policy == (session.Policy{}) {
		s.policy = session.DefaultPolicy()
	}
	if s.language == "" {
		s.language = profile.DefaultSessionLanguage
	}
	return s
}

// Options are per-message settings.
type Options struct {
	UserID          string
	SessionLanguage string
	Overrides       *session.Overrides
}

// Result is everything the caller may show or log about one message.
type Result struct {
	Reply     string                   `json:"reply"`
	Products  []*store.Product         `json:"products"`
	Parsed    *classifier.ParsedIntent `json:"parsed"`
	Expansion *expander.Expansion      `json:"expansion,omitempty"`
	Language  string                   `json:"language"`

	Branch         string              `json:"branch"`
	Alternatives   bool                `json:"alternatives,omitempty"`
	Order          *store.PendingOrder `json:"order,omitempty"`
	ConversationID int64               `json:"conversationId,omitempty"`
	History        []session.Turn      `json:"history"`
	Policy         session.Policy      `json:"policy"`
}

// turn is the state shared by the branches of one Handle call.
type turn struct {
	text           string
	parsed         *classifier.ParsedIntent
	history        []session.Turn
	language       string
	conversationID int64
}

// Handle runs the pipeline for one message. The only errors are blank input,
// a failing order sink and a cancelled context.
func (s *Service) Handle(ctx context.Context, text string, opts Options) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	start := time.Now()

	policy := s.policy.Apply(opts.Overrides)
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		userID = AnonymousUser
	}
	conversationID := s.contexts.EnsureConversation(ctx, userID, policy.RetentionDays)
	history := s.contexts.LoadRecentMessages(ctx, conversationID, policy)

	t := &turn{
		text:           text,
		parsed:         s.classifier.Classify(ctx, text),
		history:        history,
		language:       s.ResolveLanguage(opts.SessionLanguage),
		conversationID: conversationID,
	}

	var (
		result *Result
		err    error
	)
	switch {
	case t.parsed.Intent == classifier.IntentAvailability:
		result = s.handleAvailability(ctx, t)
	case t.parsed.Intent == classifier.IntentOrder:
		result, err = s.handleOrder(ctx, t)
	case t.parsed.Intent.IsConversational() || t.parsed.Query == "":
		result, err = s.handleChitchat(ctx, t)
	default:
		result = s.handleSearch(ctx, t)
	}
	if err != nil {
		return nil, err
	}

	s.persist(ctx, t, result.Reply)

	result.Parsed = t.parsed
	result.Language = t.language
	result.ConversationID = conversationID
	result.History = history
	result.Policy = policy
	if result.Products == nil {
		result.Products = []*store.Product{}
	}

	metrics.MessagesHandled.WithLabelValues(result.Branch).Inc()
	metrics.HandleDuration.WithLabelValues(result.Branch).Observe(time.Since(start).Seconds())
	slog.Debug("message handled",
		"user", userID,
		"intent", t.parsed.Intent,
		"branch", result.Branch,
		"products", len(result.Products),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Classify exposes the classifier for the admin tools.
func (s *Service) Classify(ctx context.Context, text string) *classifier.ParsedIntent {
	return s.classifier.Classify(ctx, strings.TrimSpace(text))
}

func (s *Service) handleOrder(ctx context.Context, t *turn) (*Result, error) {
	requested := firstNonEmpty(t.parsed.Product, t.parsed.Query, unspecifiedItem)
	o, err := s.orders.LogPendingOrder(ctx, t.text, requested)
	if err != nil {
		return nil, err
	}
	return &Result{
		Reply:  orderReply(o),
		Branch: BranchOrder,
		Order:  o,
	}, nil
}

func (s *Service) persist(ctx context.Context, t *turn, reply string) {
	if t.conversationID == 0 {
		return
	}
	s.contexts.SaveMessages(ctx, t.conversationID, []session.Turn{
		session.UserTurn(t.text),
		session.AssistantTurn(reply),
	})
}

// ResolveLanguage returns requested, or the default session language when blank.
func (s *Service) ResolveLanguage(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return s.language
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
