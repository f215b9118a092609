// Package whatsapp sends replies through the WhatsApp Business Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hrygo/bazaarbot/plugin/ai/timeout"
)

const (
	DefaultGraphURL     = "https://graph.facebook.com"
	DefaultGraphVersion = "v20.0"

	maxErrorBody = 512
)

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("whatsapp credentials missing")

// Sender delivers a plain text reply to a WhatsApp user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Config holds the Cloud API credentials.
type Config struct {
	PhoneNumberID string
	AccessToken   string
	GraphVersion  string
	// BaseURL overrides the Graph API host.
	BaseURL string
}

// Client is a Sender backed by the Graph API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient uses timeout.WhatsAppClientTimeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.GraphVersion == "" {
		cfg.GraphVersion = DefaultGraphVersion
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGraphURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout.WhatsAppClientTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type textBody struct {
	Body string `json:"body"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// SendText implements Sender.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if c.cfg.PhoneNumberID == "" || c.cfg.AccessToken == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.cfg.BaseURL, c.cfg.GraphVersion, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("whatsapp send failed: %d %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

var _ Sender = (*Client)(nil)
