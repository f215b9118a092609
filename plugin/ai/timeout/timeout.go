// Package timeout defines the time budgets of the reply pipeline.
package timeout

import "time"

const (
	// ReplyTimeout bounds one inbound message from classification to reply.
	ReplyTimeout = 45 * time.Second

	// ProviderTimeout is the HTTP timeout of one completion call.
	ProviderTimeout = 60 * time.Second

	// EmbeddingTimeout bounds one embedding batch.
	EmbeddingTimeout = 30 * time.Second

	// SendTimeout bounds delivery of one outbound WhatsApp message.
	SendTimeout = 10 * time.Second

	// WhatsAppClientTimeout is the HTTP timeout of the Graph API client.
	WhatsAppClientTimeout = 15 * time.Second

	// UsageWriteTimeout bounds one usage row insert.
	UsageWriteTimeout = 5 * time.Second
)
