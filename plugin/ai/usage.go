package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/bazaarbot/plugin/ai/metrics"
	"github.com/hrygo/bazaarbot/plugin/ai/timeout"
	"github.com/hrygo/bazaarbot/store"
)

// Usage is the token accounting for one completion.
type Usage struct {
	Model            string
	ResponseID       string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Origin           string
}

// UsageSink receives usage records. Record must not block the caller.
type UsageSink interface {
	Record(u Usage)
}

// UsageWriter persists usage records.
type UsageWriter interface {
	CreateLLMUsage(ctx context.Context, create *store.LLMUsage) (*store.LLMUsage, error)
}

// UsageRecorder is a UsageSink that writes records from a background goroutine.
// Records are dropped when the queue is full.
type UsageRecorder struct {
	writer  UsageWriter
	queue   chan Usage
	timeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewUsageRecorder starts a recorder with the given queue size.
func NewUsageRecorder(writer UsageWriter, queueSize int) *UsageRecorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &UsageRecorder{
		writer:  writer,
		queue:   make(chan Usage, queueSize),
		timeout: timeout.UsageWriteTimeout,
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Record enqueues u without blocking.
func (r *UsageRecorder) Record(u Usage) {
	defer func() {
		// Record after Close must not panic the caller.
		if recover() != nil {
			metrics.UsageDropped.Inc()
		}
	}()

	select {
	case r.queue <- u:
	default:
		metrics.UsageDropped.Inc()
		slog.Warn("usage queue full, dropping record", "model", u.Model, "origin", u.Origin)
	}
}

// Close stops accepting records and waits for the queue to drain.
func (r *UsageRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

func (r *UsageRecorder) loop() {
	defer r.wg.Done()
	for u := range r.queue {
		r.write(u)
	}
}

func (r *UsageRecorder) write(u Usage) {
	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	_, err := r.writer.CreateLLMUsage(ctx, &store.LLMUsage{
		Model:            u.Model,
		ResponseID:       u.ResponseID,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      total,
		Origin:           u.Origin,
		CreatedTs:        time.Now().Unix(),
	})
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("llm_usage").Inc()
		slog.Warn("failed to persist llm usage", "model", u.Model, "origin", u.Origin, "error", err)
	}
}

// NopUsageSink discards usage records.
type NopUsageSink struct{}

func (NopUsageSink) Record(Usage) {}
