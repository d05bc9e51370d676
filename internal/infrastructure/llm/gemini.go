package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ActivityAggregator/internal/config"
	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

const (
	defaultEndpoint   = "https://generativelanguage.googleapis.com"
	defaultModel      = "gemini-2.0-flash"
	defaultMaxRetries = 2
	defaultRetryDelay = 3 * time.Second

	placeholderAPIKey = "your_gemini_api_key_here"

	// RoleUser and RoleModel are the turn roles the API accepts.
	RoleUser  = "user"
	RoleModel = "model"
)

// ErrRateLimited marks a rate-limit rejection from the generation API.
// Only this failure class is retried.
var ErrRateLimited = errors.New("gemini: rate limited")

// Client calls the Gemini generateContent API. Every call goes through
// a bounded retry wrapper: rate-limit rejections are retried with
// linearly increasing backoff, any other failure propagates immediately.
type Client struct {
	http       *http.Client
	endpoint   string
	model      string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
}

var _ ports.TextGenerator = (*Client)(nil)
var _ ports.ChatGenerator = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.GeminiConfig) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.RetryDelay()
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	return &Client{
		http:       &http.Client{Timeout: 60 * time.Second},
		endpoint:   endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Configured reports whether a usable API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != placeholderAPIKey
}

type contentPart struct {
	Text string `json:"text"`
}

type contentBlock struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *contentBlock  `json:"system_instruction,omitempty"`
	Contents          []contentBlock `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate produces text for a single prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []contentBlock{
			{Role: RoleUser, Parts: []contentPart{{Text: prompt}}},
		},
	}
	return c.withRetry(ctx, func() (string, error) {
		return c.call(ctx, req)
	})
}

// Chat runs a multi-turn exchange grounded on a system instruction and
// returns the model's reply to the last message.
func (c *Client) Chat(ctx context.Context, system string, messages []domain.ChatMessage) (string, error) {
	req := generateRequest{
		Contents: make([]contentBlock, 0, len(messages)),
	}
	if system != "" {
		req.SystemInstruction = &contentBlock{Parts: []contentPart{{Text: system}}}
	}
	for _, msg := range messages {
		role := msg.Role
		if role != RoleUser && role != RoleModel {
			role = RoleUser
		}
		req.Contents = append(req.Contents, contentBlock{
			Role:  role,
			Parts: []contentPart{{Text: msg.Content}},
		})
	}

	return c.withRetry(ctx, func() (string, error) {
		return c.call(ctx, req)
	})
}

// withRetry retries rate-limit failures up to maxRetries times, waiting
// (attempt+1) x retryDelay before each retry. Other errors and retry
// exhaustion propagate as-is.
func (c *Client) withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	for attempt := 0; ; attempt++ {
		text, err := fn()
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrRateLimited) || attempt >= c.maxRetries {
			return "", err
		}

		wait := time.Duration(attempt+1) * c.retryDelay
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *Client) call(ctx context.Context, payload generateRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gemini: api key is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.endpoint, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("gemini: status %d: %w", resp.StatusCode, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}

	if len(generated.Candidates) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range generated.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
