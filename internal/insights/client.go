// Package insights generates natural-language commentary over the ledger by
// calling a hosted language model. It supports several providers behind one
// prompt-in, text-out client.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
)

// Config selects the provider and credentials. Model and BaseURL are
// optional; each provider has a default.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
}

type Client struct {
	config Config
	http   *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete sends one prompt and returns the model's text reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("no API key configured for provider %s", c.config.Provider)
	}

	switch c.config.Provider {
	case ProviderGemini:
		return c.completeGemini(ctx, prompt)
	case ProviderOpenAI:
		return c.completeChat(ctx, prompt, "https://api.openai.com/v1/chat/completions", "gpt-4", nil)
	case ProviderOpenRouter:
		url := c.config.BaseURL
		if url == "" {
			url = "https://openrouter.ai/api/v1/chat/completions"
		}
		return c.completeChat(ctx, prompt, url, "openai/gpt-4", map[string]string{
			"HTTP-Referer": "https://budgetwise.app",
		})
	case ProviderAnthropic:
		return c.completeAnthropic(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported AI provider: %s", c.config.Provider)
	}
}

func (c *Client) completeGemini(ctx context.Context, prompt string) (string, error) {
	model := c.config.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	url := c.config.BaseURL
	if url == "" {
		url = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	headers := map[string]string{"x-goog-api-key": c.config.APIKey}
	if err := c.post(ctx, url, headers, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// completeChat covers the OpenAI-compatible chat completion shape, which
// OpenRouter also speaks.
func (c *Client) completeChat(ctx context.Context, prompt, url, defaultModel string, extraHeaders map[string]string) (string, error) {
	model := c.config.Model
	if model == "" {
		model = defaultModel
	}

	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	for k, v := range extraHeaders {
		headers[k] = v
	}
	if err := c.post(ctx, url, headers, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.config.Provider)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	model := c.config.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	url := c.config.BaseURL
	if url == "" {
		url = "https://api.anthropic.com/v1/messages"
	}

	body := map[string]any{
		"model":      model,
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}

	headers := map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	}
	if err := c.post(ctx, url, headers, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return resp.Content[0].Text, nil
}

func (c *Client) post(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call AI provider: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AI provider returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
