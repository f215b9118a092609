package whatsapp

import (
	"context"
	"sync"
)

// SentMessage is one message captured by MockSender.
type SentMessage struct {
	To   string
	Body string
}

// MockSender records messages instead of sending them.
type MockSender struct {
	Err error

	mu   sync.Mutex
	sent []SentMessage
}

func (m *MockSender) SendText(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return m.Err
}

// Sent returns every captured message.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

var _ Sender = (*MockSender)(nil)
