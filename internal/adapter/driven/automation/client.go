// Package automation implements the AutomationClient port against a
// workflow-automation webhook that answers chat messages.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AutomationClient = (*Client)(nil)

// maxReplyBytes caps how much of the webhook response is read.
const maxReplyBytes = 1 << 20

// replyKeys are the object fields that may carry the reply text, in
// priority order.
var replyKeys = []string{"output", "reply", "response", "message", "text"}

// ErrEmptyReply is returned when the webhook answered without usable text.
var ErrEmptyReply = errors.New("automation webhook returned no reply")

// Client posts chat messages to the automation webhook. Each call is a single
// attempt bounded by the configured timeout.
type Client struct {
	http *http.Client
	url  string
}

// NewClient creates a Client for webhookURL with a fixed per-request timeout.
func NewClient(webhookURL string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		url:  webhookURL,
	}
}

type sendBody struct {
	Message   string `json:"message"`
	AgentID   string `json:"agentId"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// Send posts the message and normalizes the webhook's reply.
func (c *Client) Send(ctx context.Context, req model.ChatRequest) (model.ChatReply, error) {
	body, err := json.Marshal(sendBody{
		Message:   req.Message,
		AgentID:   req.AgentID,
		Role:      string(req.Role),
		SessionID: req.SessionID,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
	})
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/plain")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("calling automation webhook: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("reading automation reply: %w", err)
	}

	slog.Debug("automation webhook call",
		"status", resp.StatusCode,
		"agent", req.AgentID,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.ChatReply{}, fmt.Errorf("automation webhook returned status %d", resp.StatusCode)
	}

	text, ok := NormalizeReply(data)
	if !ok {
		return model.ChatReply{}, ErrEmptyReply
	}
	return model.ChatReply{Text: text}, nil
}

// NormalizeReply extracts the reply text from the shapes automation tools
// commonly answer with: a JSON string, an object with one of replyKeys, an
// object wrapping those under "data", a one-element array of any of these,
// or a non-JSON plain-text body.
func NormalizeReply(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", false
	}
	if !gjson.ValidBytes(trimmed) {
		return string(trimmed), true
	}
	return extract(gjson.ParseBytes(trimmed), 0)
}

func extract(v gjson.Result, depth int) (string, bool) {
	if depth > 3 {
		return "", false
	}

	switch {
	case v.Type == gjson.String:
		s := strings.TrimSpace(v.String())
		return s, s != ""
	case v.IsArray():
		items := v.Array()
		if len(items) != 1 {
			return "", false
		}
		return extract(items[0], depth+1)
	case v.IsObject():
		for _, key := range replyKeys {
			if field := v.Get(key); field.Exists() {
				if s, ok := extract(field, depth+1); ok {
					return s, true
				}
			}
		}
		if data := v.Get("data"); data.Exists() {
			return extract(data, depth+1)
		}
	}
	return "", false
}
