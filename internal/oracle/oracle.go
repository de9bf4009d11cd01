// Package oracle talks to the MesaGPT language-model collaborator. The
// oracle is a fallback classifier, never a truth source: it receives the
// command grammar as a system instruction and returns either a canonical
// slash command or conversational prose.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SystemPrompt enumerates the canonical command grammar. It is data, not
// control flow; the fast-path rules stay testable without it.
const SystemPrompt = `Eres MesaGPT, el asistente de agenda. Si el mensaje del usuario pide una operación de agenda, responde ÚNICAMENTE con uno de estos comandos, con fechas YYYY-MM-DD y horas HH:MM de 24 horas:
/agenda
/registrar YYYY-MM-DD HH:MM <descripción>
/borrar YYYY-MM-DD HH:MM
/borrar_fecha YYYY-MM-DD
/borrar_todo
/buscar <nombre>
/buscar_fecha YYYY-MM-DD
/cuando <nombre>
/reprogramar YYYY-MM-DD HH:MM YYYY-MM-DD HH:MM
/modificar YYYY-MM-DD HH:MM <texto nuevo>
Si el mensaje no es sobre la agenda, responde de forma breve y natural en español.`

type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	log     *zap.Logger
}

func New(baseURL, apiKey, model string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one system+user exchange and returns the raw reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("oracle: malformed response: %v", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("oracle: %s (%s)", out.Error.Message, out.Error.Type)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("oracle: empty response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Classify maps a free utterance to a command string or conversational
// reply using the grammar prompt.
func (c *Client) Classify(ctx context.Context, utterance string) (string, error) {
	return c.Complete(ctx, SystemPrompt, utterance)
}
