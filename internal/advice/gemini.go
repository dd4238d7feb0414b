package advice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Brownie44l1/sampah-api/internal/config"
)

type GeminiClient struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewGeminiClient(key, model string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		Timeout: timeout,
	}
}

func (g *GeminiClient) Advice(ctx context.Context, label string) (string, error) {
	if err := config.Require("GEMINI_API_KEY", g.APIKey); err != nil {
		return "", err
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", &UpstreamError{Provider: "gemini", Err: err}
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemMessage)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(BuildPrompt(label)))
	if err != nil {
		return "", &UpstreamError{Provider: "gemini", Err: err}
	}
	txt := strings.TrimSpace(firstText(resp))
	if txt == "" {
		return "", &UpstreamError{Provider: "gemini", Err: errors.New("empty response")}
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
