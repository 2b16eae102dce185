// Package sms wraps the MTN SMS gateway. Sends never return a Go error:
// every failure mode (validation, HTTP status, network) is folded into the
// SendResult so callers can run a best-effort multi-channel strategy.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	backoffBase    = time.Second
	backoffCap     = 5 * time.Second
)

// Config carries the gateway endpoint and credentials.
type Config struct {
	APIURL     string
	APIKey     string
	APISecret  string
	SenderID   string
	Timeout    time.Duration
	MaxRetries int
}

// Message is a single outbound SMS (one segment).
type Message struct {
	To        string
	Body      string
	Reference string
}

// SendResult is the terminal outcome of a send attempt.
type SendResult struct {
	Success   bool    `json:"success"`
	MessageID string  `json:"message_id,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Client is the SMS gateway adapter.
type Client struct {
	cfg        Config
	httpClient *http.Client

	// sleep is replaced in tests so retry backoff does not slow them down.
	sleep func(time.Duration)
}

// NewClient creates a gateway client. A zero Timeout falls back to 10s,
// a zero MaxRetries to 3.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sleep:      time.Sleep,
	}
}

type gatewayRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

type gatewayResponse struct {
	MessageID string  `json:"message_id"`
	ID        string  `json:"id"`
	Cost      float64 `json:"cost"`
}

// Send validates the recipient and performs a single POST to the gateway.
// Validation failures short-circuit before any network call.
func (c *Client) Send(ctx context.Context, msg Message) SendResult {
	if !IsValidRwandaE164(msg.To) {
		return SendResult{
			Error: fmt.Sprintf("Invalid phone number format: %q (expected +2507XXXXXXXX)", msg.To),
		}
	}

	body, err := json.Marshal(gatewayRequest{
		Sender:    c.cfg.SenderID,
		Recipient: msg.To,
		Message:   msg.Body,
		Reference: msg.Reference,
	})
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-API-Secret", c.cfg.APISecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("gateway request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{Error: fmt.Sprintf("%d - %s", resp.StatusCode, string(respBody))}
	}

	var gr gatewayResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return SendResult{Error: fmt.Sprintf("failed to decode response: %v body=%q", err, string(respBody))}
	}

	messageID := gr.MessageID
	if messageID == "" {
		messageID = gr.ID
	}

	return SendResult{Success: true, MessageID: messageID, Cost: gr.Cost}
}

// SendWithRetry retries transient failures with capped exponential backoff.
// Validation failures are terminal and never retried.
func (c *Client) SendWithRetry(ctx context.Context, msg Message) SendResult {
	var last SendResult
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		last = c.Send(ctx, msg)
		if last.Success {
			return last
		}
		if strings.Contains(last.Error, "Invalid phone number") {
			return last
		}
		if attempt < c.cfg.MaxRetries {
			c.sleep(backoff(attempt))
		}
	}
	return SendResult{
		Error: fmt.Sprintf("failed after %d attempts: %s", c.cfg.MaxRetries, last.Error),
	}
}

func backoff(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		d = backoffCap
	}
	return d
}
