package advice

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

	"github.com/Brownie44l1/sampah-api/internal/config"
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint (Groq by default).
type ChatClient struct {
	APIKey string
	Model  string
	URL    string
	httpc  *http.Client
}

func NewChatClient(key, model, url string, timeout time.Duration) *ChatClient {
	return &ChatClient{
		APIKey: key,
		Model:  model,
		URL:    url,
		httpc:  &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient overrides the internal HTTP client.
func (c *ChatClient) WithHTTPClient(h *http.Client) *ChatClient {
	if h != nil {
		c.httpc = h
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Advice(ctx context.Context, label string) (string, error) {
	if err := config.Require("GROQ_API_KEY", c.APIKey); err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemMessage},
			{Role: "user", Content: BuildPrompt(label)},
		},
	})
	if err != nil {
		return "", &UpstreamError{Provider: "chat", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", &UpstreamError{Provider: "chat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &UpstreamError{Provider: "chat", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Provider: "chat", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{
			Provider:   "chat",
			StatusCode: resp.StatusCode,
			Body:       truncate(bytes.TrimSpace(body), 2048),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var raw chatResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", &UpstreamError{Provider: "chat", StatusCode: resp.StatusCode, Body: truncate(body, 2048), Err: fmt.Errorf("bad JSON: %w", err)}
	}
	if len(raw.Choices) == 0 {
		return "", &UpstreamError{Provider: "chat", Err: errors.New("empty choices")}
	}
	out := strings.TrimSpace(raw.Choices[0].Message.Content)
	if out == "" {
		return "", &UpstreamError{Provider: "chat", Err: errors.New("empty message content")}
	}
	return out, nil
}
