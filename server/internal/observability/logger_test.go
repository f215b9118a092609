package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rc := NewRequestContext(logger, "webhook", "919800000001")
	_, err := uuid.Parse(rc.RequestID)
	require.NoError(t, err)

	rc.Intent = "search"
	rc.Info("message handled", slog.Int(LogFieldMessageLen, 4))
	out := buf.String()
	assert.Contains(t, out, "request_id="+rc.RequestID)
	assert.Contains(t, out, "sender=919800000001")
	assert.Contains(t, out, "intent=search")
	assert.Contains(t, out, "message_length=4")

	buf.Reset()
	rc.Error("reply failed", errors.New("boom"))
	assert.Contains(t, buf.String(), "error=boom")
}

func TestRequestContext_Context(t *testing.T) {
	rc := NewRequestContextWithID(nil, "req-1", "admin", "")
	ctx := WithRequestContext(context.Background(), rc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-1", got.RequestID)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
