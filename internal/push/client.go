// Package push sends admin-authored and automated notifications to every
// registered device through a batch push relay.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Message is one relay message addressed to a single device token.
type Message struct {
	To       string            `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Priority string            `json:"priority,omitempty"`
	Channel  string            `json:"channel,omitempty"`
}

// Receipt is the relay's per-message outcome, aligned positionally with the
// request batch.
type Receipt struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the relay accepted the message.
func (r Receipt) OK() bool {
	return r.Status == "ok"
}

// Client talks to the push relay's batch endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the relay URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

type sendResponse struct {
	Data []Receipt `json:"data"`
}

// SendBatch posts the messages as a single batch and returns the per-message
// receipts. Any non-2xx response is a total failure for the whole batch;
// partial delivery is only reported inside a 2xx response's receipt array.
func (c *Client) SendBatch(ctx context.Context, msgs []Message) ([]Receipt, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("push relay not configured")
	}

	body, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("marshal relay batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post relay batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("push relay returned %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode relay response: %w", err)
	}
	if len(parsed.Data) != len(msgs) {
		return nil, fmt.Errorf("relay returned %d receipts for %d messages", len(parsed.Data), len(msgs))
	}
	return parsed.Data, nil
}
