// Package orbis is the HTTP client for the external scheduling executor.
// The executor is treated as an idempotent command runner: one bounded call,
// a single retry on transient trouble, then a typed failure the caller can
// turn into an apology instead of a crash.
package orbis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/models"
)

// ErrUnavailable marks a transient executor failure (timeout, network error,
// non-JSON body) after the retry has been spent.
var ErrUnavailable = errors.New("orbis: service unavailable")

// Result is the structured executor response. Legacy executors reply with a
// bare {respuesta} free-text report instead; both decode into this shape.
type Result struct {
	OK        bool                `json:"ok"`
	Op        string              `json:"op"`
	Items     []models.AgendaItem `json:"items,omitempty"`
	Item      *models.AgendaItem  `json:"item,omitempty"`
	Deleted   *models.AgendaItem  `json:"deleted,omitempty"`
	Count     int                 `json:"count,omitempty"`
	From      string              `json:"from,omitempty"`
	To        string              `json:"to,omitempty"`
	ErrorCode string              `json:"error,omitempty"`
	Respuesta string              `json:"respuesta,omitempty"`
}

// Legacy reports true when the executor used the old free-text contract.
func (r *Result) Legacy() bool { return r.Op == "" && r.Respuesta != "" }

type request struct {
	Command string `json:"command"`
	ChatID  int64  `json:"chat_id"`
	Mode    string `json:"mode"`
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	log     *zap.Logger
}

func New(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Execute sends one canonical command for the chat and decodes the result.
// On a transient failure it retries exactly once, then reports
// ErrUnavailable.
func (c *Client) Execute(ctx context.Context, chatID int64, command string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		res, err := c.do(ctx, chatID, command)
		if err == nil {
			return res, nil
		}
		lastErr = err
		c.log.Warn("orbis call failed",
			zap.Int64("chat_id", chatID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) do(ctx context.Context, chatID int64, command string) (*Result, error) {
	b, err := json.Marshal(request{Command: command, ChatID: chatID, Mode: "json"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/comando", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var out Result
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("malformed response: %v", err)
	}
	if out.Legacy() {
		out.OK = true
	}
	return &out, nil
}
