package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquasys/aquasys-core/internal/infrastructure/config"
)

const defaultGatewayTimeout = 30 * time.Second

// maxResponseSize caps how much of a gateway response is read.
const maxResponseSize = 1 << 20 // 1 MB

// Gateway is an HTTP client for the external chat-completion endpoint.
//
// One request per analysis run, a fixed timeout, and no retry: a slow
// or failing gateway must never stall telemetry ingestion.
type Gateway struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGateway creates a gateway client from config.
func NewGateway(cfg config.InsightsConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = int(defaultGatewayTimeout / time.Second)
	}

	return &Gateway{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat-completion request and returns the assistant's
// raw text content. All failures wrap ErrUpstream.
func (g *Gateway) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %w", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUpstream)
	}

	return parsed.Choices[0].Message.Content, nil
}
