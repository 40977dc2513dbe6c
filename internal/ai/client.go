package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ClientConfig configures the chat-completion client.
type ClientConfig struct {
	Endpoint string        // OpenAI-compatible chat completions URL
	Model    string        // e.g. "gpt-4o-mini" or "qwen2.5"
	APIKey   string        // empty for local endpoints
	Timeout  time.Duration // bounds every call; zero means 30s
}

// Client calls an OpenAI-compatible chat completions endpoint. It implements
// ratatosk.Completer.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a Client. An empty endpoint yields a disabled client;
// check Enabled before use.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the client has an endpoint to call. A disabled
// client makes the LLM stage structurally optional.
func (c *Client) Enabled() bool {
	return c.config.Endpoint != ""
}

// Complete sends one system/user prompt pair and returns the assistant
// content.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("completion client is not configured")
	}

	payload := map[string]any{
		"model": c.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion service returned status %d", resp.StatusCode)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("completion service returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}
